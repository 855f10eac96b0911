// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package log provides a minimal leveled, key-value logger used across
// the module. Callers either rely on the default stderr logger or hand
// in their own Logger implementation through the library Options.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// DefaultLogger is the package-level logger.
var DefaultLogger = NewStdLogger(os.Stderr)

// Logger is a logger interface.
type Logger interface {
	Log(level Level, keyvals ...interface{}) error
}

type stdLogger struct {
	w    io.Writer
	mu   sync.Mutex
	pool *sync.Pool
}

// NewStdLogger returns a logger that writes one line per record to w.
func NewStdLogger(w io.Writer) Logger {
	return &stdLogger{
		w: w,
		pool: &sync.Pool{
			New: func() interface{} {
				return new(fmtBuffer)
			},
		},
	}
}

type fmtBuffer struct {
	buf []byte
}

func (l *stdLogger) Log(level Level, keyvals ...interface{}) error {
	if len(keyvals) == 0 {
		return nil
	}
	if (len(keyvals) & 1) == 1 {
		keyvals = append(keyvals, "KEYVALS UNPAIRED")
	}

	b := l.pool.Get().(*fmtBuffer)
	b.buf = b.buf[:0]
	b.buf = append(b.buf, time.Now().Format("2006-01-02T15:04:05.000")...)
	b.buf = append(b.buf, ' ')
	b.buf = append(b.buf, level.String()...)
	for i := 0; i < len(keyvals); i += 2 {
		b.buf = append(b.buf, fmt.Sprintf(" %s=%v", keyvals[i], keyvals[i+1])...)
	}
	b.buf = append(b.buf, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := l.w.Write(b.buf)
	l.pool.Put(b)
	return err
}

// With returns a logger that prepends the given key-value pairs to
// every record.
func With(l Logger, keyvals ...interface{}) Logger {
	return &withLogger{logger: l, prefix: keyvals}
}

type withLogger struct {
	logger Logger
	prefix []interface{}
}

func (w *withLogger) Log(level Level, keyvals ...interface{}) error {
	kvs := make([]interface{}, 0, len(w.prefix)+len(keyvals))
	kvs = append(kvs, w.prefix...)
	kvs = append(kvs, keyvals...)
	return w.logger.Log(level, kvs...)
}

// The package-level helpers log through DefaultLogger.

// Debug logs a message at debug level.
func Debug(a ...interface{}) {
	_ = DefaultLogger.Log(LevelDebug, "msg", fmt.Sprint(a...))
}

// Debugf logs a formatted message at debug level.
func Debugf(format string, a ...interface{}) {
	_ = DefaultLogger.Log(LevelDebug, "msg", fmt.Sprintf(format, a...))
}

// Info logs a message at info level.
func Info(a ...interface{}) {
	_ = DefaultLogger.Log(LevelInfo, "msg", fmt.Sprint(a...))
}

// Infof logs a formatted message at info level.
func Infof(format string, a ...interface{}) {
	_ = DefaultLogger.Log(LevelInfo, "msg", fmt.Sprintf(format, a...))
}

// Warn logs a message at warn level.
func Warn(a ...interface{}) {
	_ = DefaultLogger.Log(LevelWarn, "msg", fmt.Sprint(a...))
}

// Warnf logs a formatted message at warn level.
func Warnf(format string, a ...interface{}) {
	_ = DefaultLogger.Log(LevelWarn, "msg", fmt.Sprintf(format, a...))
}

// Error logs a message at error level.
func Error(a ...interface{}) {
	_ = DefaultLogger.Log(LevelError, "msg", fmt.Sprint(a...))
}

// Errorf logs a formatted message at error level.
func Errorf(format string, a ...interface{}) {
	_ = DefaultLogger.Log(LevelError, "msg", fmt.Sprintf(format, a...))
}
