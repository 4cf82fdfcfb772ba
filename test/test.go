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

package test

import (
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"

	"github.com/guardtime/ksipdu/log"
)

// Case is a test case.
type Case struct {
	Func func(t *testing.T, opts ...interface{})
}

// Suite is a collection of test cases.
type Suite []Case

// Runner runs every test case in the receiver test suite as a subtest named after the case function. The opts are
// passed to every case.
func (ts Suite) Runner(t *testing.T, opts ...interface{}) {
	t.Helper()

	for _, tc := range ts {
		if tc.Func == nil {
			t.Fatal("Test case without function.")
		}
		tcName := runtime.FuncForPC(reflect.ValueOf(tc.Func).Pointer()).Name()
		tcName = tcName[strings.LastIndex(tcName, ".")+1:]
		log.Debug("---- :::: Run test case: ", tcName, " :::: ----")
		t.Run(tcName, func(t *testing.T) { tc.Func(t, opts...) })
	}
}

// InitLogger routes the package logger into the file <dir>/<test name>.log for the duration of the test. The
// logger is removed and the file is closed when the test and its subtests complete.
func InitLogger(t *testing.T, dir string, level log.Priority) *log.WriterLogger {
	t.Helper()

	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		t.Fatal("Failed to create log directory: ", err)
	}
	name := strings.ReplaceAll(t.Name(), "/", "_")
	logFile, err := os.Create(filepath.Join(dir, strings.Join([]string{name, "log"}, ".")))
	if err != nil {
		t.Fatal("Failed to create log file: ", err)
	}
	logger, err := log.New(level, logFile)
	if err != nil {
		_ = logFile.Close()
		t.Fatal("Failed to initialize logger: ", err)
	}

	log.SetLogger(logger)
	t.Cleanup(func() {
		log.SetLogger(nil)
		_ = logger.Sync()
		_ = logFile.Close()
	})
	return logger
}
