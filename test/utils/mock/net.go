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
	"context"
	"sync/atomic"

	"github.com/guardtime/ksipdu/log"
)

// Handler returns the response to the request PDU.
type Handler func(request []byte) ([]byte, error)

// Client implements net.(Client) interface. The requests are passed to the handler in memory.
type Client struct {
	uri     string
	handler Handler
	count   atomic.Uint64
}

// NewClient returns an in-memory client serving the requests with the handler.
func NewClient(uri string, h Handler) *Client {
	return &Client{uri: uri, handler: h}
}

// URI implements net.(Endpoint) interface.
func (c *Client) URI() string { return c.uri }

// Receive implements net.(Client) interface.
func (c *Client) Receive(ctx context.Context, request []byte) ([]byte, error) {
	c.count.Add(1)
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	log.Debug("Mock request: ", c.uri)
	return c.handler(request)
}

// Requests returns the number of requests received.
func (c *Client) Requests() uint64 { return c.count.Load() }

// StaticResponse returns a handler answering every request with the same bytes.
func StaticResponse(resp []byte) Handler {
	return func([]byte) ([]byte, error) { return resp, nil }
}
