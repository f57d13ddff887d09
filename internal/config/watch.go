package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	logx "regwatch/pkg/logx"
)

// Watch re-reads the config file whenever it changes and hands the result to
// onChange. Only daemon mode uses this; a run-once process never watches.
//
// The parent directory is watched, not the file itself, so editors and
// deployments that replace the file via rename are still observed. Events
// are debounced because a single save often produces several of them.
func Watch(ctx context.Context, path string, log logx.Logger, onChange func(Config)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return err
	}

	target := filepath.Clean(path)
	go func() {
		defer w.Close()

		var debounce *time.Timer
		reload := func() {
			cfg, err := Load(path, "")
			if err != nil {
				log.Warn("config reload failed, keeping previous config", logx.Err(err))
				return
			}
			if err := cfg.Validate(); err != nil {
				log.Warn("reloaded config incomplete, keeping previous config", logx.Err(err))
				return
			}
			log.Info("config reloaded", logx.String("path", path))
			onChange(cfg)
		}

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(250*time.Millisecond, reload)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn("config watch error", logx.Err(err))
			}
		}
	}()
	return nil
}
