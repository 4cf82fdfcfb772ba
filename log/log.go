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

// Package log implements the logger facade used by all packages of the module.
//
// In order to enable logging a logger must be registered first by invoking SetLogger() with a Logger implementation.
// Logging can be disabled by calling SetLogger(nil).
//
// The package also provides WriterLogger, a zap backed implementation that writes one console formatted line per
// event to an io.Writer.
package log

import "sync/atomic"

type holder struct{ l Logger }

var logger atomic.Pointer[holder]

// SetLogger initializes the global logger.
// In order to disable logging set the parameter l to nil.
func SetLogger(l Logger) {
	if l == nil {
		logger.Store(nil)
		return
	}
	logger.Store(&holder{l: l})
}

func current() Logger {
	if h := logger.Load(); h != nil {
		return h.l
	}
	return nil
}

// Debug for debug level logging.
func Debug(v ...interface{}) {
	if l := current(); l != nil {
		l.Debug(v...)
	}
}

// Info for info level logging.
func Info(v ...interface{}) {
	if l := current(); l != nil {
		l.Info(v...)
	}
}

// Notice for notice level logging.
func Notice(v ...interface{}) {
	if l := current(); l != nil {
		l.Notice(v...)
	}
}

// Warning for warning level logging.
func Warning(v ...interface{}) {
	if l := current(); l != nil {
		l.Warning(v...)
	}
}

// Error for error level logging.
func Error(v ...interface{}) {
	if l := current(); l != nil {
		l.Error(v...)
	}
}
