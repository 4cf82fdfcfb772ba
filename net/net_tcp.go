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
	"fmt"
	"net"
	"time"

	"github.com/guardtime/ksipdu/errors"
	"github.com/guardtime/ksipdu/log"
)

type tcpClient struct {
	host       string
	port       string
	timeout    time.Duration
	readLimit  uint32
	isComplete ResponseVerifierFunc
}

func newTCPClient(host, port string) *tcpClient {
	return &tcpClient{
		host:       host,
		port:       port,
		timeout:    DefaultRequestTimeout,
		readLimit:  MaxPduSize,
		isComplete: isTlvComplete,
	}
}

// Receive implements Client.Receive().
func (c *tcpClient) Receive(ctx context.Context, request []byte) ([]byte, error) {
	if c == nil {
		return nil, errors.New(errors.KsiInvalidArgumentError).AppendMessage("Invalid method receiver")
	}

	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	// Create a TCP connection.
	dialer := net.Dialer{
		KeepAlive: -1,
	}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(c.host, c.port))
	if err != nil {
		return nil, errors.New(errors.KsiNetworkError).SetExtError(err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Error("Closing TCP connection returned error: ", err)
		}
	}()
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return nil, errors.New(errors.KsiNetworkError).SetExtError(err)
		}
	}

	// Send the request.
	log.Debug(fmt.Sprintf("TCP send (%s): %x", c.URI(), request))
	if _, err = conn.Write(request); err != nil {
		return nil, errors.New(errors.KsiNetworkError).SetExtError(err)
	}

	response, err := c.read(conn)
	if err != nil {
		log.Error(fmt.Sprintf("Failed to read PDU from TCP connection (%s): %x", c.URI(), response))
		return nil, errors.New(errors.KsiNetworkError).SetExtError(err).
			AppendMessage("Failed to read data from TCP connection.")
	}
	log.Debug(fmt.Sprintf("TCP received (%s): %x", c.URI(), response))
	return response, nil
}

// read collects the response parts until the verifier accepts the datagram. Without a read limit, the connection
// is read until closed by the server.
func (c *tcpClient) read(conn net.Conn) ([]byte, error) {
	if c.readLimit == 0 {
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(conn); err != nil {
			return buf.Bytes(), err
		}
		if c.isComplete != nil {
			if ok, err := c.isComplete(buf.Bytes()); !ok {
				if err == nil {
					err = errors.New(errors.KsiInvalidFormatError).AppendMessage("Incomplete datagram.")
				}
				return buf.Bytes(), err
			}
		}
		return buf.Bytes(), nil
	}

	var response []byte
	for uint32(len(response)) < c.readLimit {
		part := make([]byte, c.readLimit-uint32(len(response)))
		// Read blocks until a response part has been received.
		// The EOF (and read=0) is only received when the connection is closed.
		read, err := conn.Read(part)
		if err != nil {
			return response, err
		}
		response = append(response, part[:read]...)
		if c.isComplete == nil {
			return response, nil
		}
		if ok, err := c.isComplete(response); ok {
			return response, nil
		} else if err != nil {
			return response, err
		}
		log.Debug(fmt.Sprintf("TCP received PDU part (%s): [%d] %x", c.URI(), read, part[:read]))
	}
	return response, errors.New(errors.KsiBufferOverflow).
		AppendMessage(fmt.Sprintf("Response exceeds the read limit of %d bytes.", c.readLimit))
}

// URI implements Endpoint.URI().
func (c *tcpClient) URI() string {
	if c == nil {
		return ""
	}
	return "tcp://" + net.JoinHostPort(c.host, c.port)
}

// SetReadLimit implements ReadLimiter interface.
func (c *tcpClient) SetReadLimit(limit uint32) error {
	if c == nil {
		return errors.New(errors.KsiInvalidArgumentError)
	}
	c.readLimit = limit
	return nil
}

// SetTimeout implements RequestTimeouter interface.
func (c *tcpClient) SetTimeout(d time.Duration) error {
	if c == nil || d < 0 {
		return errors.New(errors.KsiInvalidArgumentError)
	}
	c.timeout = d
	return nil
}

// SetVerifier implements ResponseVerifier interface.
func (c *tcpClient) SetVerifier(v ResponseVerifierFunc) error {
	if c == nil {
		return errors.New(errors.KsiInvalidArgumentError)
	}
	c.isComplete = v
	return nil
}
