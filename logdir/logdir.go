// Copyright (c) 2024 BVK Chaitanya

// Package logdir implements a size-capped log file backend. Output goes to
// timestamped files in one directory; when the active file reaches the size
// limit a new one is opened.
package logdir

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

var (
	// ReuseInterval is the window during which a restarting process appends
	// to the previous log file instead of creating a new one. Without it a
	// crash-looping daemon fills the directory with near-empty files.
	ReuseInterval = time.Hour

	// FileMode is the permissions value for new log files.
	FileMode = os.FileMode(0600)
)

// Writer is an io.Writer appending to the active log file. Not safe for
// concurrent use; the standard library log package serializes writes.
type Writer struct {
	fp *os.File

	size, limit int64

	dirname, logname string
}

// New opens a log file named "<logname>-<timestamp>.log" under dirname,
// rotating at limitMB megabytes.
func New(dirname, logname string, limitMB int64) (*Writer, error) {
	if limitMB <= 0 {
		return nil, fmt.Errorf("log file size limit must be positive")
	}
	limit := limitMB * 1024 * 1024
	fp, size, err := openFile(dirname, logname, limit, ReuseInterval)
	if err != nil {
		return nil, fmt.Errorf("could not open log file: %w", err)
	}
	w := &Writer{
		fp:      fp,
		size:    size,
		limit:   limit,
		dirname: dirname,
		logname: logname,
	}
	return w, nil
}

func (w *Writer) Close() {
	w.fp.Close()
	w.fp = nil
}

func fileName(logname string, at time.Time, truncate time.Duration) string {
	at = at.UTC()
	if truncate != 0 {
		at = at.Truncate(truncate)
	}
	// Nanoseconds keep the name unique when rotation happens to land on the
	// reuse-window boundary.
	return fmt.Sprintf("%s-%s.log", logname, at.Format("20060102-150405.000000000"))
}

func openFile(dirname, logname string, limit int64, truncate time.Duration) (*os.File, int64, error) {
	filename := fileName(logname, time.Now(), truncate)
	fp, err := os.OpenFile(filepath.Join(dirname, filename), os.O_CREATE|os.O_WRONLY|os.O_APPEND, FileMode)
	if err != nil {
		return nil, -1, fmt.Errorf("could not open/create log file: %w", err)
	}
	finfo, err := fp.Stat()
	if err != nil {
		fp.Close()
		return nil, -1, fmt.Errorf("could not get log file size: %w", err)
	}
	size := finfo.Size()
	if size >= limit {
		// The reused file is already full; force a uniquely named one.
		fp.Close()
		return openFile(dirname, logname, limit, 0)
	}
	return fp, size, nil
}

func (w *Writer) Write(data []byte) (int, error) {
	if w.size+int64(len(data)) > w.limit {
		fp, size, err := openFile(w.dirname, w.logname, w.limit, ReuseInterval)
		if err != nil {
			return 0, fmt.Errorf("could not open new log file: %w", err)
		}
		w.fp.Close()
		w.fp, w.size = fp, size
	}
	n, err := w.fp.Write(data)
	w.size += int64(n)
	return n, err
}
