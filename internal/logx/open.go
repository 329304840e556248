// Package logx opens the process logger and formats HTTP request log lines.
package logx

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/r9s-ai/open-line-parsers/pkg/config"
)

// Open returns the logger described by cfg. Without a path it logs to
// fallback (stderr when nil) and the returned closer is nil.
func Open(cfg config.LoggingConfig, fallback io.Writer) (*log.Logger, io.Closer, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		if fallback == nil {
			fallback = os.Stderr
		}
		return log.New(fallback, "", log.LstdFlags), nil, nil
	}

	if cfg.Rotate.Enabled {
		w, err := NewRotateWriter(RotateOptions{
			Path:       path,
			MaxSizeMB:  cfg.Rotate.MaxSizeMB,
			MaxBackups: cfg.Rotate.MaxBackups,
			Compress:   cfg.Rotate.Compress,
		})
		if err != nil {
			return nil, nil, err
		}
		return log.New(w, "", log.LstdFlags), w, nil
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, nil, err
		}
	}
	f, _, err := openAppend(path)
	if err != nil {
		return nil, nil, err
	}
	return log.New(f, "", log.LstdFlags), f, nil
}
