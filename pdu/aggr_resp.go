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
	"github.com/guardtime/ksipdu/tlv"
)

// AggrResp is the aggregation response payload. The hash chain subtrees are kept as opaque elements to be
// interpreted by the signature verification layer.
type AggrResp struct {
	requestID uint64
	status    *uint64
	errorMsg  *string
	rec       *tlv.Record
	config    *Config
	header    *Header
}

func (v *Version) aggrRespSchema() *tlv.Schema {
	fields := []tlv.Field{
		{Tag: tagReqID, Name: "request id", Required: true},
		{Tag: v.respStatus, Name: "status"},
		{Tag: v.respMessage, Name: "error message"},
		{Tag: tagAggrChain, Name: "aggregation chain", Multiple: true},
		{Tag: tagCalendarChain, Name: "calendar chain"},
		{Tag: tagPublicationRec, Name: "publication record"},
		{Tag: tagCalendarAuthRec, Name: "calendar auth record"},
		{Tag: tagRFC3161, Name: "RFC3161 record"},
	}
	for _, tag := range v.aggrRespOpaque {
		fields = append(fields, tlv.Field{Tag: tag, Name: "opaque"})
	}
	return tlv.NewSchema(v.name+" aggregation response", fields...)
}

func (v *Version) parseAggrResp(t *tlv.Tlv) (*AggrResp, error) {
	rec, err := t.Read(v.aggrResp)
	if err != nil {
		return nil, err
	}
	r := &AggrResp{rec: rec}
	id, err := rec.Uint64(tagReqID)
	if err != nil {
		return nil, err
	}
	r.requestID = *id
	if r.status, err = rec.Uint64(v.respStatus); err != nil {
		return nil, err
	}
	if r.errorMsg, err = rec.Utf8(v.respMessage); err != nil {
		return nil, err
	}
	return r, nil
}

// RequestID returns the request correlation ID echoed by the server.
func (r *AggrResp) RequestID() uint64 {
	if r == nil {
		return 0
	}
	return r.requestID
}

// Status returns the response status and whether it is present. Only successful responses are returned to the
// caller, so a present status is always 0.
func (r *AggrResp) Status() (uint64, bool) {
	if r == nil {
		return 0, false
	}
	return optional(r.status)
}

// ErrorMsg returns the server message and whether it is present.
func (r *AggrResp) ErrorMsg() (string, bool) {
	if r == nil || r.errorMsg == nil {
		return "", false
	}
	return *r.errorMsg, true
}

// AggregationChains returns the aggregation hash chain elements in wire order.
func (r *AggrResp) AggregationChains() []*tlv.Tlv {
	if r == nil {
		return nil
	}
	return r.rec.All(tagAggrChain)
}

// CalendarChain returns the calendar hash chain element, or nil if absent.
func (r *AggrResp) CalendarChain() *tlv.Tlv {
	if r == nil {
		return nil
	}
	return r.rec.Get(tagCalendarChain)
}

// PublicationRec returns the publication record element, or nil if absent.
func (r *AggrResp) PublicationRec() *tlv.Tlv {
	if r == nil {
		return nil
	}
	return r.rec.Get(tagPublicationRec)
}

// CalendarAuthRec returns the calendar authentication record element, or nil if absent.
func (r *AggrResp) CalendarAuthRec() *tlv.Tlv {
	if r == nil {
		return nil
	}
	return r.rec.Get(tagCalendarAuthRec)
}

// RFC3161 returns the RFC3161 compatibility record element, or nil if absent.
func (r *AggrResp) RFC3161() *tlv.Tlv {
	if r == nil {
		return nil
	}
	return r.rec.Get(tagRFC3161)
}

// Config returns the configuration pushed by the server together with the response, or nil.
func (r *AggrResp) Config() *Config {
	if r == nil {
		return nil
	}
	return r.config
}

// Header returns the response header, or nil if the PDU did not carry one.
func (r *AggrResp) Header() *Header {
	if r == nil {
		return nil
	}
	return r.header
}

// Tlv returns the response payload element.
func (r *AggrResp) Tlv() *tlv.Tlv {
	if r == nil {
		return nil
	}
	return r.rec.Tlv()
}
