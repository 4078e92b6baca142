// Package logging routes the standard logger to a size-rotated file.
package logging

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options describes the log destination.
type Options struct {
	// File is the log path. Empty keeps stderr.
	File       string
	MaxSizeMB  int // megabytes after which a new file is started
	MaxBackups int
	MaxAgeDays int
}

// Setup points the standard logger at opts.File and returns a closer that
// flushes it and restores stderr. With an empty File it only restores the
// flags and returns a no-op closer.
func Setup(opts Options) (io.Closer, error) {
	log.SetFlags(log.LstdFlags)
	if opts.File == "" {
		log.SetOutput(os.Stderr)
		return nopCloser{}, nil
	}

	if dir := filepath.Dir(opts.File); dir != "." {
		if err := os.MkdirAll(dir, 0o775); err != nil {
			return nil, err
		}
	}

	lj := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   true,
	}
	log.SetOutput(lj)
	return restoreCloser{lj}, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

type restoreCloser struct {
	lj *lumberjack.Logger
}

func (c restoreCloser) Close() error {
	log.SetOutput(os.Stderr)
	return c.lj.Close()
}
