// Package watch provides filesystem change notification for the CLI's
// re-analysis loop, backed by OS-native notifications.
package watch

import (
	"github.com/fsnotify/fsnotify"
)

// Op is a bit set of the operations observed on a path.
type Op uint32

const (
	OpCreate Op = 1 << iota
	OpWrite
	OpRemove
	OpRename
	OpChmod
)

// Has reports whether the set contains op.
func (o Op) Has(op Op) bool { return o&op != 0 }

// Event is one filesystem change.
type Event struct {
	Path string
	Op   Op
}

// Watcher delivers filesystem events over channels until closed.
type Watcher struct {
	w   *fsnotify.Watcher
	evC chan Event
	erC chan error
}

// New creates a watcher. Callers add paths with Add and must Close the
// watcher when done.
func New() (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	fw := &Watcher{w: w, evC: make(chan Event, 128), erC: make(chan error, 1)}
	go fw.loop()

	return fw, nil
}

func (fw *Watcher) loop() {
	// The backend may close Errors before Events on Close. Events is the
	// channel that owns shutdown: when Errors closes first, disable its
	// case and keep draining until Events closes, so evC is always closed.
	errors := fw.w.Errors

	for {
		select {
		case ev, ok := <-fw.w.Events:
			if !ok {
				close(fw.evC)

				return
			}

			var op Op

			if ev.Op&fsnotify.Create != 0 {
				op |= OpCreate
			}

			if ev.Op&fsnotify.Write != 0 {
				op |= OpWrite
			}

			if ev.Op&fsnotify.Remove != 0 {
				op |= OpRemove
			}

			if ev.Op&fsnotify.Rename != 0 {
				op |= OpRename
			}

			if ev.Op&fsnotify.Chmod != 0 {
				op |= OpChmod
			}

			fw.evC <- Event{Path: ev.Name, Op: op}
		case err, ok := <-errors:
			if !ok {
				errors = nil

				continue
			}

			fw.erC <- err
		}
	}
}

// Events returns the event channel. It is closed when the watcher is.
func (fw *Watcher) Events() <-chan Event { return fw.evC }

// Errors returns the error channel.
func (fw *Watcher) Errors() <-chan error { return fw.erC }

// Add starts watching a path.
func (fw *Watcher) Add(name string) error { return fw.w.Add(name) }

// Remove stops watching a path.
func (fw *Watcher) Remove(name string) error { return fw.w.Remove(name) }

// Close stops the watcher and closes the event channel.
func (fw *Watcher) Close() error { return fw.w.Close() }
