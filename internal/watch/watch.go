// Package watch calls back when a single file changes on disk.
package watch

import (
	"errors"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

type closerFunc func() error

func (c closerFunc) Close() error { return c() }

// Install watches path and calls onChange once per burst of changes, after
// debounce has passed without further events. The parent directory is watched
// so that editors replacing the file by rename are still seen. onChange runs
// on the watcher goroutine; calls never overlap.
func Install(path string, debounce time.Duration, onChange func()) (io.Closer, error) {
	target := filepath.Clean(strings.TrimSpace(path))
	if target == "." || target == "" {
		return nil, errors.New("watch: path is empty")
	}
	if onChange == nil {
		return nil, errors.New("watch: onChange is nil")
	}
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	stopCh := make(chan struct{})
	doneCh := make(chan struct{})

	go func() {
		defer close(doneCh)
		var (
			timer  *time.Timer
			timerC <-chan time.Time
		)
		resetTimer := func() {
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
				return
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(debounce)
			timerC = timer.C
		}

		for {
			select {
			case <-stopCh:
				if timer != nil {
					timer.Stop()
				}
				return
			case <-timerC:
				timerC = nil
				onChange()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("watch error: path=%q err=%v", target, err)
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if shouldTrigger(target, evt) {
					resetTimer()
				}
			}
		}
	}()

	return closerFunc(func() error {
		close(stopCh)
		err := watcher.Close()
		<-doneCh
		return err
	}), nil
}

func shouldTrigger(target string, evt fsnotify.Event) bool {
	if strings.TrimSpace(evt.Name) == "" {
		return false
	}
	if evt.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return filepath.Clean(evt.Name) == target
}
