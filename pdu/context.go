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

package pdu

import (
	"fmt"

	"github.com/guardtime/ksipdu/errors"
	"github.com/guardtime/ksipdu/hash"
)

// Credentials provide the client login and the shared MAC key.
type Credentials interface {
	LoginID() string
	LoginKey() []byte
	HmacAlgorithm() hash.Algorithm
}

// IdentifierProvider supplies the process-wide instance ID and the per-call message and request IDs.
// Implementations must be safe for concurrent use.
type IdentifierProvider interface {
	// InstanceID returns the fixed identifier of the process invocation.
	InstanceID() uint64
	// NextMessageID returns a strictly increasing message number.
	NextMessageID() uint64
	// NextRequestID returns a random request correlation identifier.
	NextRequestID() uint64
}

// StaticCredentials is a Credentials implementation holding fixed values.
type StaticCredentials struct {
	loginID string
	key     []byte
	alg     hash.Algorithm
}

// NewCredentials returns fixed credentials. The HMAC algorithm must be registered.
func NewCredentials(loginID string, key []byte, alg hash.Algorithm) (*StaticCredentials, error) {
	if loginID == "" {
		return nil, errors.New(errors.KsiInvalidArgumentError).AppendMessage("Login id must not be empty.")
	}
	if !alg.Registered() {
		return nil, errors.New(errors.KsiUnknownHashAlgorithm).
			AppendMessage(fmt.Sprintf("HMAC algorithm is not supported: %d.", alg))
	}
	return &StaticCredentials{
		loginID: loginID,
		key:     append([]byte(nil), key...),
		alg:     alg,
	}, nil
}

// LoginID implements Credentials interface.
func (c *StaticCredentials) LoginID() string { return c.loginID }

// LoginKey implements Credentials interface.
func (c *StaticCredentials) LoginKey() []byte { return c.key }

// HmacAlgorithm implements Credentials interface.
func (c *StaticCredentials) HmacAlgorithm() hash.Algorithm { return c.alg }

// RequestContext is the immutable per-call bundle of the correlation ID, the credentials and the optional
// instance and message IDs. A context is created for a single exchange and discarded afterwards.
type RequestContext struct {
	creds     Credentials
	requestID *uint64
	instID    *uint64
	msgID     *uint64
}

// ContextOption is a functional option of NewRequestContext.
type ContextOption func(*RequestContext) error

// NewRequestContext returns a context for the given credentials.
func NewRequestContext(creds Credentials, opts ...ContextOption) (*RequestContext, error) {
	if creds == nil {
		return nil, errors.New(errors.KsiInvalidArgumentError).AppendMessage("Missing credentials.")
	}
	if creds.LoginID() == "" {
		return nil, errors.New(errors.KsiInvalidArgumentError).AppendMessage("Credentials login id must not be empty.")
	}

	ctx := &RequestContext{creds: creds}
	for _, opt := range opts {
		if opt == nil {
			return nil, errors.New(errors.KsiInvalidArgumentError).AppendMessage("Provided option is nil.")
		}
		if err := opt(ctx); err != nil {
			return nil, errors.KsiErr(err).AppendMessage("Unable to setup request context.")
		}
	}
	return ctx, nil
}

// CtxOptProvider draws the request ID, the instance ID and the next message ID from the provider.
func CtxOptProvider(p IdentifierProvider) ContextOption {
	return func(c *RequestContext) error {
		if p == nil {
			return errors.New(errors.KsiInvalidArgumentError).AppendMessage("Missing identifier provider.")
		}
		reqID, instID, msgID := p.NextRequestID(), p.InstanceID(), p.NextMessageID()
		c.requestID, c.instID, c.msgID = &reqID, &instID, &msgID
		return nil
	}
}

// CtxOptRequestID sets the request correlation ID.
func CtxOptRequestID(id uint64) ContextOption {
	return func(c *RequestContext) error {
		c.requestID = &id
		return nil
	}
}

// CtxOptInstance sets the instance and the message ID. The two are always set together.
func CtxOptInstance(instanceID, messageID uint64) ContextOption {
	return func(c *RequestContext) error {
		c.instID, c.msgID = &instanceID, &messageID
		return nil
	}
}

// Credentials returns the credentials of the context.
func (c *RequestContext) Credentials() Credentials {
	if c == nil {
		return nil
	}
	return c.creds
}

// RequestID returns the correlation ID and whether it is set.
func (c *RequestContext) RequestID() (uint64, bool) {
	if c == nil || c.requestID == nil {
		return 0, false
	}
	return *c.requestID, true
}

// InstanceID returns the instance ID and whether it is set.
func (c *RequestContext) InstanceID() (uint64, bool) {
	if c == nil || c.instID == nil {
		return 0, false
	}
	return *c.instID, true
}

// MessageID returns the message ID and whether it is set.
func (c *RequestContext) MessageID() (uint64, bool) {
	if c == nil || c.msgID == nil {
		return 0, false
	}
	return *c.msgID, true
}

// header builds the PDU header from the context.
func (c *RequestContext) header() (*Header, error) {
	if c.instID != nil && c.msgID != nil {
		return NewHeaderWithIDs(c.creds.LoginID(), *c.instID, *c.msgID)
	}
	return NewHeader(c.creds.LoginID())
}
