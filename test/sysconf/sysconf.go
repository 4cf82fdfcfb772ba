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

// Package sysconf loads the configuration of the system tests run against live KSI services.
package sysconf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/guardtime/ksipdu/config"
)

// DefaultFile is the system test configuration file, relative to the repository root.
const DefaultFile = "test/systest.toml"

// Load loads the system test configuration. The test is skipped if the file does not exist.
func Load(t *testing.T, path string) *config.Configuration {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Skip("Skipping test: system test config file not found.")
	}

	cfg, err := config.New(path)
	if err != nil {
		t.Fatal("Failed to load configuration: ", err)
	}
	return cfg
}

// LoadFrom loads the DefaultFile relative to the repository root, given the relative path of the calling package.
func LoadFrom(t *testing.T, root string) *config.Configuration {
	t.Helper()
	return Load(t, filepath.Join(root, filepath.FromSlash(DefaultFile)))
}
