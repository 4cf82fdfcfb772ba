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

// Package ident provides the process-wide identifiers of the PDU header and the request correlation IDs.
package ident

import (
	"crypto/rand"
	"encoding/binary"
	"sync/atomic"

	"github.com/guardtime/ksipdu/errors"
)

// Provider supplies the instance, message and request identifiers. A Provider is meant to be created once per
// process invocation and shared by all the clients of that process. It is safe for concurrent use.
type Provider struct {
	instanceID uint64
	messageID  atomic.Uint64
}

// New returns a provider with a random instance ID and the message counter set to zero.
func New() (*Provider, error) {
	id, err := random63()
	if err != nil {
		return nil, err
	}
	return &Provider{instanceID: id}, nil
}

// NewWithInstance returns a provider with the given instance ID.
func NewWithInstance(instanceID uint64) *Provider {
	return &Provider{instanceID: instanceID}
}

// InstanceID returns the fixed identifier of the process invocation.
func (p *Provider) InstanceID() uint64 {
	if p == nil {
		return 0
	}
	return p.instanceID
}

// NextMessageID returns the next value of the message counter. The first call returns 1.
func (p *Provider) NextMessageID() uint64 {
	if p == nil {
		return 0
	}
	return p.messageID.Add(1)
}

// NextRequestID returns a random non-zero 63-bit correlation identifier. The values carry no ordering.
func (p *Provider) NextRequestID() uint64 {
	for {
		id, err := random63()
		if err != nil {
			// crypto/rand does not fail on supported platforms.
			panic(err)
		}
		if id != 0 {
			return id
		}
	}
}

func random63() (uint64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, errors.New(errors.KsiCryptoFailure).SetExtError(err).
			AppendMessage("Unable to generate random identifier.")
	}
	return binary.BigEndian.Uint64(buf[:]) >> 1, nil
}
