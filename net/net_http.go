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

package net

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/guardtime/ksipdu/errors"
	"github.com/guardtime/ksipdu/log"
)

type httpClient struct {
	url        string
	timeout    time.Duration
	ksi        bool
	readLimit  uint32
	isComplete ResponseVerifierFunc
	client     *http.Client
}

// newHTTPClient returns a new HTTP client.
//
// To use a proxy, set the system environment variable: `http_proxy=user:pass@server:port`.
func newHTTPClient(url string, isKSI bool) *httpClient {
	return &httpClient{
		url:        url,
		timeout:    DefaultRequestTimeout,
		ksi:        isKSI,
		readLimit:  MaxPduSize,
		isComplete: isTlvComplete,
		client: &http.Client{
			Transport: &http.Transport{
				Proxy:           http.ProxyFromEnvironment,
				TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
			},
		},
	}
}

// Receive implements Client.Receive().
func (c *httpClient) Receive(ctx context.Context, request []byte) (b []byte, e error) {
	if c == nil {
		return nil, errors.New(errors.KsiInvalidArgumentError)
	}

	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	var (
		httpReq *http.Request
		err     error
	)
	if request != nil {
		log.Debug(fmt.Sprintf("HTTP send (%s): %x", c.url, request))

		if httpReq, err = http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(request)); err != nil {
			return nil, errors.New(errors.KsiNetworkError).SetExtError(err)
		}
		// Update header in case of KSI endpoint.
		if c.ksi {
			httpReq.Header.Set("User-Agent", "KSI HTTP Client")
			httpReq.Header.Set("Content-Type", "application/ksi-request")
		}
	} else {
		if httpReq, err = http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil); err != nil {
			return nil, errors.New(errors.KsiNetworkError).SetExtError(err)
		}
	}
	// HTTP server might keep the connection open with "keep-alive" option, otherwise server could run out of sockets.
	httpReq.Close = true

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, errors.New(errors.KsiNetworkError).SetExtError(err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Error("Closing HTTP response body returned error: ", err)
		}
	}()

	var buf bytes.Buffer
	reader := io.Reader(resp.Body)
	if c.readLimit > 0 {
		reader = io.LimitReader(resp.Body, int64(c.readLimit))
	}
	if _, err = buf.ReadFrom(reader); err != nil {
		return nil, errors.New(errors.KsiNetworkError).SetExtError(err).
			AppendMessage("Failed to read response body")
	}
	log.Debug(fmt.Sprintf("HTTP received (%s): %x", c.url, buf.Bytes()))

	var respErr error
	if resp.StatusCode >= 400 && resp.StatusCode < 600 {
		// Client request errors are reported with status 400 and server state errors with status 500, both with the
		// KSI error PDU in the body. Callers should parse the body first and fall back to the HTTP status only if
		// the body is not a KSI PDU.
		respErr = errors.New(errors.KsiHttpError).SetExtErrorCode(resp.StatusCode).
			AppendMessage(resp.Status)
	}
	if c.isComplete != nil {
		if ok, err := c.isComplete(buf.Bytes()); !ok {
			if respErr != nil {
				return nil, respErr
			}
			log.Error(fmt.Sprintf("Failed to read PDU from HTTP connection (%s): %x", c.url, buf.Bytes()))
			return nil, errors.New(errors.KsiNetworkError).SetExtError(err).
				AppendMessage("Failed to read data from HTTP connection")
		}
	}
	return buf.Bytes(), respErr
}

// URI implements Endpoint.URI().
func (c *httpClient) URI() string {
	if c == nil {
		return ""
	}
	return c.url
}

// SetReadLimit implements ReadLimiter interface.
func (c *httpClient) SetReadLimit(limit uint32) error {
	if c == nil {
		return errors.New(errors.KsiInvalidArgumentError)
	}
	c.readLimit = limit
	return nil
}

// SetTimeout implements RequestTimeouter interface.
func (c *httpClient) SetTimeout(d time.Duration) error {
	if c == nil || d < 0 {
		return errors.New(errors.KsiInvalidArgumentError)
	}
	c.timeout = d
	return nil
}

// SetVerifier implements ResponseVerifier interface.
func (c *httpClient) SetVerifier(v ResponseVerifierFunc) error {
	if c == nil {
		return errors.New(errors.KsiInvalidArgumentError)
	}
	c.isComplete = v
	return nil
}
