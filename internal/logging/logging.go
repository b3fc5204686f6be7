// Package logging sets up the process-wide standard logger: prefix, flags,
// and an optional size-rotated log file. This adapts the original implementation's
// cmd/server/main.go logManager/setupLogging (the only logging the original implementation
// does anywhere, via the standard log package) into a reusable package so
// every cmd/ entry point gets the same file-backed rotation instead of
// duplicating it per binary.
package logging

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kkkqkx123/codegraph-parser/pkg/config"
)

// Manager owns the rotating log file and its background rotation goroutine.
type Manager struct {
	mu      sync.Mutex
	path    string
	file    *os.File
	cfg     config.LoggingConfig
}

// Setup configures the standard logger with prefix/flags and, if enabled,
// starts writing to a rotating file under cfg.Directory in addition to
// stderr. The returned io.Closer (nil if file logging is disabled) must be
// closed by the caller on shutdown.
func Setup(ctx context.Context, prefix string, cfg config.LoggingConfig) (io.Closer, error) {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.SetPrefix(prefix)

	if !cfg.Enabled || cfg.Directory == "" {
		return nil, nil
	}

	if err := os.MkdirAll(cfg.Directory, 0755); err != nil {
		return nil, fmt.Errorf("logging: creating directory: %w", err)
	}

	path := filepath.Join(cfg.Directory, "codegraph-parser.log")
	m := &Manager{path: path, cfg: cfg}
	if err := m.open(); err != nil {
		return nil, err
	}

	go m.watchRotation(ctx)

	return m, nil
}

func (m *Manager) open() error {
	file, err := os.OpenFile(m.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("logging: opening log file: %w", err)
	}
	m.file = file
	log.SetOutput(io.MultiWriter(os.Stderr, file))
	return nil
}

func (m *Manager) rotate() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.file != nil {
		m.file.Close()
	}

	backup := fmt.Sprintf("%s.%s", m.path, time.Now().Format("2006-01-02-15-04-05"))
	if err := os.Rename(m.path, backup); err != nil {
		m.open()
		return fmt.Errorf("logging: rotating: %w", err)
	}
	if err := m.open(); err != nil {
		return err
	}

	log.Printf("logging: rotated to %s", backup)
	if m.cfg.Compress {
		log.Printf("logging: compression requested for %s (not implemented)", backup)
	}
	pruneOldLogs(filepath.Dir(m.path), m.cfg.MaxBackups, m.cfg.MaxAgeDays)
	return nil
}

func (m *Manager) watchRotation(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			info, err := os.Stat(m.path)
			if err != nil {
				continue
			}
			maxBytes := int64(m.cfg.MaxSizeMB) * 1024 * 1024
			if info.Size() > maxBytes {
				if err := m.rotate(); err != nil {
					log.Printf("logging: rotation failed: %v", err)
				}
			}
		}
	}
}

// Close closes the active log file.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.file != nil {
		return m.file.Close()
	}
	return nil
}

func pruneOldLogs(dir string, maxBackups, maxAgeDays int) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	var backups []os.DirEntry
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "codegraph-parser.log.") {
			backups = append(backups, e)
		}
	}

	maxAge := time.Duration(maxAgeDays) * 24 * time.Hour
	now := time.Now()
	for _, e := range backups {
		info, err := e.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) > maxAge {
			os.Remove(filepath.Join(dir, e.Name()))
		}
	}

	if len(backups) > maxBackups {
		log.Printf("logging: backup count (%d) exceeds max (%d)", len(backups), maxBackups)
	}
}
