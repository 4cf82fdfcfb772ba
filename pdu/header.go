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
	"github.com/guardtime/ksipdu/tlv"
)

// Header identifies the requesting client. The instance and message identifiers are used by the server for
// duplicate and staleness filtering: messages with a lower instance ID than previously seen for the same login may
// be dropped, and messages of one instance may be prioritized by ascending message ID.
type Header struct {
	loginID    string
	instanceID *uint64
	messageID  *uint64
}

var headerSchema = tlv.NewSchema("header",
	tlv.Field{Tag: tagHdrLoginID, Name: "login id", Required: true},
	tlv.Field{Tag: tagHdrInstanceID, Name: "instance id"},
	tlv.Field{Tag: tagHdrMessageID, Name: "message id"},
)

// NewHeader returns a header of a single-shot client.
func NewHeader(loginID string) (*Header, error) {
	if loginID == "" {
		return nil, errors.New(errors.KsiInvalidArgumentError).AppendMessage("Header login id must not be empty.")
	}
	return &Header{loginID: loginID}, nil
}

// NewHeaderWithIDs returns a header of a long-lived client, carrying both the instance and the message ID.
func NewHeaderWithIDs(loginID string, instanceID, messageID uint64) (*Header, error) {
	h, err := NewHeader(loginID)
	if err != nil {
		return nil, err
	}
	h.instanceID = &instanceID
	h.messageID = &messageID
	return h, nil
}

// ParseHeader decodes the header element. The login id is mandatory, the instance and message IDs are read
// independently of each other.
func ParseHeader(t *tlv.Tlv) (*Header, error) {
	if t == nil {
		return nil, errors.New(errors.KsiInvalidArgumentError)
	}
	rec, err := t.Read(headerSchema)
	if err != nil {
		return nil, err
	}

	h := &Header{}
	login, err := rec.Utf8(tagHdrLoginID)
	if err != nil {
		return nil, err
	}
	h.loginID = *login
	if h.instanceID, err = rec.Uint64(tagHdrInstanceID); err != nil {
		return nil, err
	}
	if h.messageID, err = rec.Uint64(tagHdrMessageID); err != nil {
		return nil, err
	}
	return h, nil
}

// LoginID returns the identifier of the client used for the MAC key lookup.
func (h *Header) LoginID() string {
	if h == nil {
		return ""
	}
	return h.loginID
}

// InstanceID returns the number identifying the invocation of the sender, and whether it is present.
func (h *Header) InstanceID() (uint64, bool) {
	if h == nil || h.instanceID == nil {
		return 0, false
	}
	return *h.instanceID, true
}

// MessageID returns the message number for duplicate filtering, and whether it is present.
func (h *Header) MessageID() (uint64, bool) {
	if h == nil || h.messageID == nil {
		return 0, false
	}
	return *h.messageID, true
}

// Encode returns the header element.
func (h *Header) Encode() (*tlv.Tlv, error) {
	if h == nil {
		return nil, errors.New(errors.KsiInvalidArgumentError)
	}
	login, err := tlv.ConstructUtf8(tagHdrLoginID, h.loginID)
	if err != nil {
		return nil, err
	}
	children := []*tlv.Tlv{login}
	if h.instanceID != nil {
		inst, err := tlv.ConstructUint64(tagHdrInstanceID, *h.instanceID)
		if err != nil {
			return nil, err
		}
		children = append(children, inst)
	}
	if h.messageID != nil {
		msg, err := tlv.ConstructUint64(tagHdrMessageID, *h.messageID)
		if err != nil {
			return nil, err
		}
		children = append(children, msg)
	}
	return tlv.ConstructNested(tagHeader, children)
}

// String implements Stringer interface.
func (h *Header) String() string {
	if h == nil {
		return ""
	}
	s := fmt.Sprintf("login=%s", h.loginID)
	if id, ok := h.InstanceID(); ok {
		s += fmt.Sprintf(" instance=%d", id)
	}
	if id, ok := h.MessageID(); ok {
		s += fmt.Sprintf(" message=%d", id)
	}
	return s
}
