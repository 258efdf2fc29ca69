package avatarconfig

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reports writes to config files in the avatar directory, so the
// active avatar's parameters can be reloaded when VRChat rewrites its file.
// It only observes the filesystem; deciding whether a changed path belongs
// to the active avatar is the consumer's job.
type Watcher struct {
	fsw     *fsnotify.Watcher
	changes chan string
	log     *zap.Logger
}

func NewWatcher(dir string, log *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}
	return &Watcher{
		fsw:     fsw,
		changes: make(chan string, 8),
		log:     log,
	}, nil
}

// Changes yields paths of config files that were created or rewritten.
func (w *Watcher) Changes() <-chan string { return w.changes }

// Run pumps filesystem events until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	defer w.fsw.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
				continue
			}
			if filepath.Ext(ev.Name) != ".json" {
				continue
			}
			select {
			case w.changes <- ev.Name:
			default:
				// A reload is already pending; coalescing is fine.
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("avatar dir watch error", zap.Error(err))
		}
	}
}
