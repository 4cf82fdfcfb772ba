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

package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardtime/ksipdu/errors"
	"github.com/guardtime/ksipdu/pdu"
	"github.com/guardtime/ksipdu/test/utils/mock"
)

const testImprint = "SHA-256:c8ef6d57ac28d1b4e95a513959f5fcdd0688380a43d601a5ace1d2e96884690a"

// run executes the command line and returns the standard output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	a := newApp()
	defer a.close()

	var out, stderr bytes.Buffer
	a.root.SetOut(&out)
	a.root.SetErr(&stderr)
	a.root.SetArgs(args)
	err := a.root.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, protocol, aggrURL, extURL string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ksipdu.toml")
	content := fmt.Sprintf(`protocol = %q
log_level = "debug"
log_file = %q
timeout = "5s"

[aggregator]
url = %q
login = "anon"
key = "anon"

[extender]
url = %q
login = "anon"
key = "anon"
hmac = "SHA-256"
`, protocol, filepath.Join(t.TempDir(), "ksipdu.log"), aggrURL, extURL)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestUnitRequestCommands(t *testing.T) {
	for _, v := range []*pdu.Version{pdu.Legacy, pdu.Current} {
		t.Run(v.String(), func(t *testing.T) {
			cfg := writeConfig(t, v.String(), "", "")

			out, err := run(t, "--config", cfg, "aggr-req", "--hash", testImprint, "--level", "2")
			require.NoError(t, err)
			raw, err := hex.DecodeString(strings.TrimSpace(out))
			require.NoError(t, err)
			assert.NotEmpty(t, raw)

			out, err = run(t, "--config", cfg, "ext-req", "--aggr-time", "1400000000", "--pub-time", "1500000000")
			require.NoError(t, err)
			_, err = hex.DecodeString(strings.TrimSpace(out))
			require.NoError(t, err)

			_, err = run(t, "--config", cfg, "ext-req", "--aggr-time", "1500000000", "--pub-time", "1400000000")
			assert.Equal(t, errors.KsiExtendNoSuitablePublication, errors.KsiErr(err).Code())
		})
	}
}

func TestUnitRequestCommandErrors(t *testing.T) {
	_, err := run(t, "aggr-req", "--hash", testImprint)
	assert.Error(t, err, "missing login must be rejected")

	_, err = run(t, "--login", "anon", "--key", "anon", "aggr-req")
	assert.Error(t, err, "missing hash must be rejected")

	_, err = run(t, "--login", "anon", "--key", "anon", "aggr-req", "--hash", "SHA-256:zz")
	assert.Equal(t, errors.KsiInvalidArgumentError, errors.KsiErr(err).Code())

	_, err = run(t, "--login", "anon", "--key", "anon", "--protocol", "v3", "aggr-req", "--hash", testImprint)
	assert.Equal(t, errors.KsiInvalidArgumentError, errors.KsiErr(err).Code())

	_, err = run(t, "--config", filepath.Join(t.TempDir(), "missing.toml"), "aggr-req", "--hash", testImprint)
	assert.Equal(t, errors.KsiIoError, errors.KsiErr(err).Code())
}

func TestUnitReadCommands(t *testing.T) {
	for _, v := range []*pdu.Version{pdu.Legacy, pdu.Current} {
		t.Run(v.String(), func(t *testing.T) {
			srv := mock.NewService("anon", []byte("anon"))
			dir := t.TempDir()

			out, err := run(t, "--login", "anon", "--key", "anon", "--protocol", v.String(),
				"aggr-req", "--hash", testImprint, "--request-id", "5")
			require.NoError(t, err)
			req, err := hex.DecodeString(strings.TrimSpace(out))
			require.NoError(t, err)
			resp, err := srv.Handle(req)
			require.NoError(t, err)

			hexFile := filepath.Join(dir, "aggr.hex")
			require.NoError(t, os.WriteFile(hexFile, []byte(hex.EncodeToString(resp)+"\n"), 0o600))
			binFile := filepath.Join(dir, "aggr.bin")
			require.NoError(t, os.WriteFile(binFile, resp, 0o600))

			for _, file := range []string{hexFile, binFile} {
				out, err = run(t, "--login", "anon", "--key", "anon", "--protocol", v.String(),
					"read-aggr", "--request-id", "5", file)
				require.NoError(t, err)
				assert.Contains(t, out, "Request ID: 5")
				assert.Contains(t, out, "Aggregation chains: 1")
			}

			out, err = run(t, "--login", "anon", "--key", "anon", "--protocol", v.String(), "read-aggr", hexFile)
			require.NoError(t, err, "request ID is not checked if not given")

			_, err = run(t, "--login", "anon", "--key", "anon", "--protocol", v.String(),
				"read-aggr", "--request-id", "6", hexFile)
			assert.Equal(t, errors.KsiRequestIdMismatch, errors.KsiErr(err).Code())

			_, err = run(t, "--login", "anon", "--key", "other", "--protocol", v.String(), "read-aggr", hexFile)
			assert.Equal(t, errors.KsiHmacMismatch, errors.KsiErr(err).Code())
		})
	}
}

func TestUnitReadExtCommand(t *testing.T) {
	srv := mock.NewService("anon", []byte("anon"))

	out, err := run(t, "--login", "anon", "--key", "anon",
		"ext-req", "--aggr-time", "1400000000", "--request-id", "9")
	require.NoError(t, err)
	req, err := hex.DecodeString(strings.TrimSpace(out))
	require.NoError(t, err)
	resp, err := srv.Handle(req)
	require.NoError(t, err)

	file := filepath.Join(t.TempDir(), "ext.bin")
	require.NoError(t, os.WriteFile(file, resp, 0o600))

	out, err = run(t, "--login", "anon", "--key", "anon", "read-ext", "--request-id", "9", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Request ID: 9")
	assert.Contains(t, out, "Calendar last time: 1500000000")
}

func TestUnitServiceCommands(t *testing.T) {
	for _, v := range []*pdu.Version{pdu.Legacy, pdu.Current} {
		t.Run(v.String(), func(t *testing.T) {
			srv := mock.NewService("anon", []byte("anon"))
			cfg := writeConfig(t, v.String(), mock.NewHTTPServer(t, srv.Handle), mock.NewTCPServer(t, srv.Handle, 0))

			out, err := run(t, "--config", cfg, "sign", "--hash", testImprint)
			require.NoError(t, err)
			assert.Contains(t, out, "Aggregation chains: 1")

			out, err = run(t, "--config", cfg, "extend", "--aggr-time", "1400000000")
			require.NoError(t, err)
			assert.Contains(t, out, "Calendar last time: 1500000000")

			out, err = run(t, "--config", cfg, "config", "ext")
			if !v.SupportsConfig() {
				assert.Equal(t, errors.KsiNotImplemented, errors.KsiErr(err).Code())
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out, "Maximum requests: 4")

			out, err = run(t, "--config", cfg, "config", "aggr")
			require.NoError(t, err)
			assert.Contains(t, out, "Maximum level: 20")
			assert.Equal(t, 4, srv.Requests())
		})
	}
}

func TestUnitSignLocalAggregation(t *testing.T) {
	srv := mock.NewService("anon", []byte("anon"))
	cfg := writeConfig(t, "current", mock.NewHTTPServer(t, srv.Handle), "")

	out, err := run(t, "--config", cfg, "sign", "--hash", testImprint, "--hash", testImprint, "--hash", testImprint)
	require.NoError(t, err)
	assert.Contains(t, out, "(level 2)")

	out, err = run(t, "--config", cfg, "sign", "--hash", testImprint, "--mask-iv", "00112233")
	require.NoError(t, err)
	assert.Contains(t, out, "(level 1)")

	_, err = run(t, "--config", cfg, "sign", "--hash", testImprint, "--mask-iv", "xyz")
	assert.Equal(t, errors.KsiInvalidArgumentError, errors.KsiErr(err).Code())
	assert.Equal(t, 2, srv.Requests())
}

func TestUnitServiceCommandErrors(t *testing.T) {
	_, err := run(t, "--login", "anon", "--key", "anon", "sign", "--hash", testImprint)
	assert.Equal(t, errors.KsiInvalidArgumentError, errors.KsiErr(err).Code(), "missing URL must be rejected")

	_, err = run(t, "--login", "anon", "--key", "anon", "config", "both")
	assert.Error(t, err)

	srv := mock.NewService("anon", []byte("anon"))
	srv.FailWith(0x0102)
	cfg := writeConfig(t, "current", mock.NewHTTPServer(t, srv.Handle), "")
	_, err = run(t, "--config", cfg, "sign", "--hash", testImprint)
	assert.Equal(t, errors.KsiServiceAuthenticationFailure, errors.KsiErr(err).Code())
}

func TestUnitConfigPushIsPrinted(t *testing.T) {
	srv := mock.NewService("anon", []byte("anon"))
	srv.PushConfig()
	cfg := writeConfig(t, "current", mock.NewHTTPServer(t, srv.Handle), "")

	out, err := run(t, "--config", cfg, "--log-level", "none", "sign", "--hash", testImprint)
	require.NoError(t, err)
	assert.Contains(t, out, "Pushed Config:")
}

func TestUnitReadPdu(t *testing.T) {
	dir := t.TempDir()
	hexFile := filepath.Join(dir, "a.hex")
	require.NoError(t, os.WriteFile(hexFile, []byte(" 0102ff \n"), 0o600))
	raw, err := readPdu(nil, hexFile)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02, 0xff}, raw)

	binFile := filepath.Join(dir, "a.bin")
	require.NoError(t, os.WriteFile(binFile, []byte{0x82, 0x21, 0x00}, 0o600))
	raw, err = readPdu(nil, binFile)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x82, 0x21, 0x00}, raw)

	raw, err = readPdu(strings.NewReader("0a0b"), "-")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x0a, 0x0b}, raw)

	_, err = readPdu(nil, filepath.Join(dir, "missing"))
	assert.Equal(t, errors.KsiIoError, errors.KsiErr(err).Code())
}
