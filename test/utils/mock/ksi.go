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
	"fmt"
	"sync"
	"time"

	"github.com/guardtime/ksipdu/hash"
	"github.com/guardtime/ksipdu/pdu"
	"github.com/guardtime/ksipdu/tlv"
)

// wire is the tag table of one protocol generation, as seen by a server.
type wire struct {
	legacy      bool
	reqPdu      uint16
	respPdu     uint16
	reqPayload  uint16
	respPayload uint16
	errPayload  uint16
	status      uint16
	message     uint16
	calLast     uint16
}

var wires = map[uint16]wire{
	0x200: {legacy: true, reqPdu: 0x200, respPdu: 0x200, reqPayload: 0x201, respPayload: 0x202, errPayload: 0x203, status: 0x05, message: 0x06, calLast: 0x10},
	0x300: {legacy: true, reqPdu: 0x300, respPdu: 0x300, reqPayload: 0x301, respPayload: 0x302, errPayload: 0x303, status: 0x05, message: 0x06, calLast: 0x10},
	0x220: {reqPdu: 0x220, respPdu: 0x221, reqPayload: 0x02, respPayload: 0x02, errPayload: 0x03, status: 0x04, message: 0x05, calLast: 0x12},
	0x320: {reqPdu: 0x320, respPdu: 0x321, reqPayload: 0x02, respPayload: 0x02, errPayload: 0x03, status: 0x04, message: 0x05, calLast: 0x12},
}

const (
	tagHeader = 0x01
	tagMac    = 0x1f
	tagConfig = 0x04
)

// Service is a fake KSI aggregator and extender speaking both protocol generations. The protocol generation of the
// response follows the request.
type Service struct {
	Login string
	Key   []byte
	Alg   hash.Algorithm

	mu sync.Mutex
	// Status returned in the error payload, if non-zero.
	errStatus uint64
	// Status returned in the response payload, if non-zero.
	respStatus uint64
	// Response request ID override.
	requestID *uint64
	calLast   time.Time
	// Config pushed along with current generation responses.
	push     bool
	requests int
}

// NewService returns a fake service accepting the given credentials.
func NewService(login string, key []byte) *Service {
	return &Service{
		Login:   login,
		Key:     key,
		Alg:     hash.SHA2_256,
		calLast: time.Unix(1500000000, 0),
	}
}

// FailWith makes the service answer with an error payload of the given status.
func (s *Service) FailWith(status uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errStatus = status
}

// RespondStatus makes the service answer with the status inside the response payload.
func (s *Service) RespondStatus(status uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.respStatus = status
}

// RespondRequestID makes the service answer with the given request ID instead of echoing the one received.
func (s *Service) RespondRequestID(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requestID = &id
}

// PushConfig makes the service attach its configuration to the current generation responses.
func (s *Service) PushConfig() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.push = true
}

// Requests returns the number of requests handled.
func (s *Service) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

// Handle implements Handler.
func (s *Service) Handle(request []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests++

	req, err := tlv.Parse(request)
	if err != nil {
		return nil, err
	}
	w, ok := wires[req.Tag()]
	if !ok {
		return nil, fmt.Errorf("unexpected request PDU TLV[0x%x]", req.Tag())
	}
	children, err := req.Nested()
	if err != nil {
		return nil, err
	}

	var hdr, payload, mac *tlv.Tlv
	for _, c := range children {
		switch c.Tag() {
		case tagHeader:
			hdr = c
		case tagMac:
			mac = c
		default:
			payload = c
		}
	}
	if hdr == nil || mac == nil || payload == nil {
		return s.reply(w, nil, s.errorPayload(w, 0x0101, "The request was malformed"))
	}
	if !s.authentic(w, request, hdr, payload, mac) {
		return s.reply(w, nil, s.errorPayload(w, 0x0102, "The request could not be authenticated"))
	}
	if s.errStatus != 0 {
		return s.reply(w, nil, s.errorPayload(w, s.errStatus, "Mock failure"))
	}

	if !w.legacy && payload.Tag() == tagConfig {
		return s.reply(w, s.config(w), nil)
	}

	var reqID uint64
	if fields, err := payload.Nested(); err == nil {
		for _, f := range fields {
			if f.Tag() == 0x01 {
				if reqID, err = f.Uint64(); err != nil {
					return nil, err
				}
			}
		}
	}
	if s.requestID != nil {
		reqID = *s.requestID
	}
	return s.reply(w, s.response(w, reqID), nil)
}

func (s *Service) authentic(w wire, raw []byte, hdr, payload, macTlv *tlv.Tlv) bool {
	mac, err := macTlv.Imprint()
	if err != nil {
		return false
	}
	if w.legacy {
		return pdu.VerifyMAC(mac, s.Alg, s.Key, hdr.Bytes(), payload.Bytes()) == nil
	}
	return pdu.VerifyPduMAC(mac, s.Alg, s.Key, raw) == nil
}

func (s *Service) response(w wire, reqID uint64) *tlv.Tlv {
	id, _ := tlv.ConstructUint64(0x01, reqID)
	children := []*tlv.Tlv{id}
	if s.respStatus != 0 {
		status, _ := tlv.ConstructUint64(w.status, s.respStatus)
		msg, _ := tlv.ConstructUtf8(w.message, "Mock status")
		children = append(children, status, msg)
	}
	if w.reqPdu == 0x300 || w.reqPdu == 0x320 {
		last, _ := tlv.ConstructTime(w.calLast, s.calLast)
		children = append(children, last)
	} else {
		chain, _ := tlv.ConstructBinary(0x801, []byte{0x01, 0x02, 0x03})
		children = append(children, chain)
	}
	cal, _ := tlv.ConstructBinary(0x802, []byte{0x04, 0x05})
	children = append(children, cal)

	p, _ := tlv.ConstructNested(w.respPayload, children)
	return p
}

func (s *Service) errorPayload(w wire, status uint64, msg string) *tlv.Tlv {
	st, _ := tlv.ConstructUint64(0x04, status)
	m, _ := tlv.ConstructUtf8(0x05, msg)
	p, _ := tlv.ConstructNested(w.errPayload, []*tlv.Tlv{st, m})
	return p
}

func (s *Service) config(w wire) *tlv.Tlv {
	var children []*tlv.Tlv
	if w.reqPdu == 0x220 {
		lvl, _ := tlv.ConstructUint64(0x01, 20)
		alg, _ := tlv.ConstructUint64(0x02, uint64(hash.SHA2_256))
		period, _ := tlv.ConstructUint64(0x03, 400)
		maxReq, _ := tlv.ConstructUint64(0x04, 10)
		children = append(children, lvl, alg, period, maxReq)
	} else {
		maxReq, _ := tlv.ConstructUint64(0x04, 4)
		first, _ := tlv.ConstructUint64(0x11, 1136073600)
		last, _ := tlv.ConstructUint64(0x12, uint64(s.calLast.Unix()))
		children = append(children, maxReq, first, last)
	}
	p, _ := tlv.ConstructNested(tagConfig, children)
	return p
}

// reply wraps the payload into a response PDU. Error payloads are sent without MAC the way the services do for
// unauthenticated requests.
func (s *Service) reply(w wire, payload, errPayload *tlv.Tlv) ([]byte, error) {
	if errPayload != nil {
		resp, err := tlv.ConstructNested(w.respPdu, []*tlv.Tlv{errPayload})
		if err != nil {
			return nil, err
		}
		return resp.Bytes(), nil
	}

	h, err := pdu.NewHeader(s.Login)
	if err != nil {
		return nil, err
	}
	hdr, err := h.Encode()
	if err != nil {
		return nil, err
	}

	children := []*tlv.Tlv{hdr, payload}
	if s.push && !w.legacy && payload.Tag() != tagConfig {
		children = append(children, s.config(w))
	}

	var mac hash.Imprint
	if w.legacy {
		if mac, err = pdu.ComputeMAC(s.Alg, s.Key, hdr.Bytes(), payload.Bytes()); err != nil {
			return nil, err
		}
	} else {
		placeholder, err := tlv.ConstructImprint(tagMac, s.Alg.ZeroImprint())
		if err != nil {
			return nil, err
		}
		draft, err := tlv.ConstructNested(w.respPdu, append(children[:len(children):len(children)], placeholder))
		if err != nil {
			return nil, err
		}
		if mac, err = pdu.ComputePduMAC(s.Alg, s.Key, draft.Bytes()); err != nil {
			return nil, err
		}
	}
	macTlv, err := tlv.ConstructImprint(tagMac, mac)
	if err != nil {
		return nil, err
	}
	resp, err := tlv.ConstructNested(w.respPdu, append(children, macTlv))
	if err != nil {
		return nil, err
	}
	return resp.Bytes(), nil
}
