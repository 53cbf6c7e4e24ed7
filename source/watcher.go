package source

import (
	"context"
	"path/filepath"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the time a file must stay unchanged before being
// reloaded.
const DefaultDebounce = time.Millisecond * 200

// Watcher reloads a point file into a target each time the file changes.
type Watcher struct {
	// The watched file.
	Path string

	// The target that receives the reloaded points.
	Target Target

	// The time a file must stay unchanged before being reloaded. Defaults to
	// DefaultDebounce.
	Debounce time.Duration

	// Called after each reload attempt, with the load error if any.
	OnReload func(error)
}

// Run watches the file until the context is canceled. The directory of the
// file is watched so that editors replacing the file are followed.
func (w *Watcher) Run(ctx context.Context) error {
	path, err := filepath.Abs(w.Path)
	if err != nil {
		return errors.New("resolving watched file failed").
			WithTag("path", w.Path).
			Wrap(err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.New("creating file watcher failed").Wrap(err)
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(path)); err != nil {
		return errors.New("watching point file failed").
			WithTag("path", path).
			Wrap(err)
	}

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	name := filepath.Base(path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}

			switch {
			case event.Op&fsnotify.Remove != 0:
				logs.WithTag("path", path).Warn("watched point file was removed")

			case event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0:
				timer.Reset(debounce)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logs.WithTag("path", path).Warn(errors.New("watching point file failed").Wrap(err))

		case <-timer.C:
			w.reload(path)
		}
	}
}

func (w *Watcher) reload(path string) {
	points, err := Load(path)
	if err != nil {
		logs.WithTag("path", path).Warn(errors.New("reloading point file failed").Wrap(err))
	} else {
		w.Target.SetPoints(points)
		logs.WithTag("path", path).
			WithTag("points", len(points)).
			Info("point file reloaded")
	}

	if w.OnReload != nil {
		w.OnReload(err)
	}
}
