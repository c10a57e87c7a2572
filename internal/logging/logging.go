package logging

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"cycleranking/config"
)

// Setup sends the standard logger to stdout and, when a path is configured,
// to a size-rotated file as well. The returned closer flushes the file.
func Setup(cfg config.LogSettings) io.Closer {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if cfg.Path == "" {
		log.SetOutput(os.Stdout)
		return nopCloser{}
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
		log.SetOutput(os.Stdout)
		log.Printf("[logging] cannot create log directory, logging to stdout only: %v", err)
		return nopCloser{}
	}
	file := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, file))
	return file
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
