/*
 * Copyright 2020 Guardtime, Inc.
 *
 * This file is part of the Guardtime client SDK.
 *
 * Licensed under the Apache License, Version 2.0 (the "License").
 * You may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *     http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES, CONDITIONS, OR OTHER LICENSES OF ANY KIND, either
 * express or implied. See the License for the specific language governing
 * permissions and limitations under the License.
 * "Guardtime" and "KSI" are trademarks or registered trademarks of
 * Guardtime, Inc., and no license to trademarks is granted; Guardtime
 * reserves and retains all trademark rights.
 */

package log

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/guardtime/ksipdu/errors"
)

// Priority is the minimal priority of the events written by a WriterLogger.
type Priority int8

const (
	// DEBUG writes all events.
	DEBUG Priority = iota
	// INFO writes info and higher priority events.
	INFO
	// NOTICE writes notice and higher priority events.
	NOTICE
	// WARNING writes warning and error events.
	WARNING
	// ERROR writes error events only.
	ERROR
	// NONE is not a valid logger priority. Use SetLogger(nil) in order to disable logging.
	NONE
)

var priorityLabels = [...]string{"[D]", "[I]", "[N]", "[W]", "[E]"}

var priorityNames = map[string]Priority{
	"debug":   DEBUG,
	"info":    INFO,
	"notice":  NOTICE,
	"warning": WARNING,
	"warn":    WARNING,
	"error":   ERROR,
	"none":    NONE,
}

// ParsePriority returns the priority for the case insensitive name (debug, info, notice, warning, error, none).
func ParsePriority(name string) (Priority, error) {
	if p, ok := priorityNames[strings.ToLower(name)]; ok {
		return p, nil
	}
	return NONE, errors.New(errors.KsiInvalidArgumentError).
		AppendMessage(fmt.Sprintf("Unknown log priority: %q.", name))
}

// Priorities are mapped onto zap levels so that WARNING and ERROR coincide with zap's own levels.
func (p Priority) zapLevel() zapcore.Level {
	return zapcore.Level(int8(p) - int8(ERROR) + int8(zapcore.ErrorLevel))
}

func encodePriority(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	p := int(l) - int(zapcore.ErrorLevel) + int(ERROR)
	if p < 0 || p >= len(priorityLabels) {
		enc.AppendString(fmt.Sprintf("[%d]", l))
		return
	}
	enc.AppendString(priorityLabels[p])
}

// WriterLogger is a Logger that writes console formatted lines to an io.Writer.
type WriterLogger struct {
	zl *zap.Logger
}

// New returns a logger that writes events of at least the given priority to w. If w is nil, os.Stdout is used.
func New(p Priority, w io.Writer) (*WriterLogger, error) {
	if p < DEBUG || p >= NONE {
		return nil, errors.New(errors.KsiInvalidArgumentError).
			AppendMessage(fmt.Sprintf("Invalid logger priority: %d.", p))
	}

	var ws zapcore.WriteSyncer
	if w == nil {
		ws = zapcore.Lock(os.Stdout)
	} else {
		ws = zapcore.AddSync(w)
	}

	encCfg := zapcore.EncoderConfig{
		TimeKey:          "T",
		LevelKey:         "L",
		MessageKey:       "M",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.ISO8601TimeEncoder,
		EncodeLevel:      encodePriority,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), ws, zap.NewAtomicLevelAt(p.zapLevel()))
	return &WriterLogger{zl: zap.New(core)}, nil
}

func (l *WriterLogger) write(p Priority, v []interface{}) {
	if l == nil || l.zl == nil {
		return
	}
	if ce := l.zl.Check(p.zapLevel(), fmt.Sprint(v...)); ce != nil {
		ce.Write()
	}
}

// Sync flushes any buffered log entries.
func (l *WriterLogger) Sync() error {
	if l == nil || l.zl == nil {
		return nil
	}
	return l.zl.Sync()
}

// Debug implements Logger interface.
func (l *WriterLogger) Debug(v ...interface{}) { l.write(DEBUG, v) }

// Info implements Logger interface.
func (l *WriterLogger) Info(v ...interface{}) { l.write(INFO, v) }

// Notice implements Logger interface.
func (l *WriterLogger) Notice(v ...interface{}) { l.write(NOTICE, v) }

// Warning implements Logger interface.
func (l *WriterLogger) Warning(v ...interface{}) { l.write(WARNING, v) }

// Error implements Logger interface.
func (l *WriterLogger) Error(v ...interface{}) { l.write(ERROR, v) }
