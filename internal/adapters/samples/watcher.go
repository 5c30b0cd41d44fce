package samples

import (
	"context"
	"path/filepath"
	"time"

	perr "beesync/internal/platform/errors"
	"beesync/internal/platform/logger"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher reports rewrites of the export file
// The parent directory is watched because exporters usually replace the file by rename
type Watcher struct {
	path     string
	debounce time.Duration
	log      logger.Logger
}

// NewWatcher watches path; bursts of events within debounce collapse into one notification
func NewWatcher(path string, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &Watcher{path: filepath.Clean(path), debounce: debounce, log: *logger.Named("samples")}
}

// Watch calls changed after each settled burst of writes until ctx is done
// It returns nil on cancellation
func (w *Watcher) Watch(ctx context.Context, changed func()) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return perr.Sourcef(err, "create watcher")
	}
	defer func() {
		if cerr := fw.Close(); cerr != nil {
			w.log.Warn().Err(cerr).Msg("close watcher failed")
		}
	}()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return perr.Sourcef(err, "watch %s", dir)
	}
	w.log.Info().Str("path", w.path).Dur("debounce", w.debounce).Msg("watching sample export")

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.log.Debug().Str("op", ev.Op.String()).Msg("sample export event")
			timer.Reset(w.debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("watcher error")
		case <-timer.C:
			changed()
		}
	}
}
