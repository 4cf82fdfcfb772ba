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

package mock

import (
	"bytes"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/guardtime/ksipdu/tlv"
)

// NewHTTPServer starts an HTTP server passing the request bodies to the handler. Handler errors are answered with
// status 500. The server is closed at the end of the test.
func NewHTTPServer(t *testing.T, h Handler) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp, err := h(req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/ksi-response")
		_, _ = w.Write(resp)
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

// NewTCPServer starts a TCP server reading one TLV request per connection and writing the handler response. The
// optional chunk size splits the response into separate writes. The listener is closed at the end of the test.
func NewTCPServer(t *testing.T, h Handler, chunk int) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal("Failed to start TCP listener: ", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go serveTCP(conn, h, chunk)
		}
	}()
	return "tcp://" + ln.Addr().String()
}

func serveTCP(conn net.Conn, h Handler, chunk int) {
	defer func() { _ = conn.Close() }()

	var req bytes.Buffer
	buf := make([]byte, 1024)
	for !tlv.IsConsistent(req.Bytes()) {
		n, err := conn.Read(buf)
		if err != nil {
			return
		}
		req.Write(buf[:n])
	}
	resp, err := h(req.Bytes())
	if err != nil {
		return
	}
	if chunk <= 0 {
		chunk = len(resp)
	}
	for len(resp) > 0 {
		n := min(chunk, len(resp))
		if _, err := conn.Write(resp[:n]); err != nil {
			return
		}
		resp = resp[n:]
	}
}
