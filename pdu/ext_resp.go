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
	"time"

	"github.com/guardtime/ksipdu/tlv"
)

// ExtResp is the extension response payload. The calendar hash chain is kept as an opaque element.
type ExtResp struct {
	requestID uint64
	status    *uint64
	errorMsg  *string
	calLast   *time.Time
	rec       *tlv.Record
	config    *Config
	header    *Header
}

func (v *Version) extRespSchema() *tlv.Schema {
	return tlv.NewSchema(v.name+" extension response",
		tlv.Field{Tag: tagReqID, Name: "request id", Required: true},
		tlv.Field{Tag: v.respStatus, Name: "status"},
		tlv.Field{Tag: v.respMessage, Name: "error message"},
		tlv.Field{Tag: v.calLast, Name: "calendar last time"},
		tlv.Field{Tag: tagCalendarChain, Name: "calendar chain"},
	)
}

func (v *Version) parseExtResp(t *tlv.Tlv) (*ExtResp, error) {
	rec, err := t.Read(v.extResp)
	if err != nil {
		return nil, err
	}
	r := &ExtResp{rec: rec}
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
	if r.calLast, err = rec.Time(v.calLast); err != nil {
		return nil, err
	}
	return r, nil
}

// RequestID returns the request correlation ID echoed by the server.
func (r *ExtResp) RequestID() uint64 {
	if r == nil {
		return 0
	}
	return r.requestID
}

// Status returns the response status and whether it is present.
func (r *ExtResp) Status() (uint64, bool) {
	if r == nil {
		return 0, false
	}
	return optional(r.status)
}

// ErrorMsg returns the server message and whether it is present.
func (r *ExtResp) ErrorMsg() (string, bool) {
	if r == nil || r.errorMsg == nil {
		return "", false
	}
	return *r.errorMsg, true
}

// CalendarLast returns the aggregation time of the newest calendar record the extender has, and whether it is
// present.
func (r *ExtResp) CalendarLast() (time.Time, bool) {
	if r == nil || r.calLast == nil {
		return time.Time{}, false
	}
	return *r.calLast, true
}

// CalendarChain returns the calendar hash chain element, or nil if absent.
func (r *ExtResp) CalendarChain() *tlv.Tlv {
	if r == nil {
		return nil
	}
	return r.rec.Get(tagCalendarChain)
}

// Config returns the configuration pushed by the server together with the response, or nil.
func (r *ExtResp) Config() *Config {
	if r == nil {
		return nil
	}
	return r.config
}

// Header returns the response header, or nil if the PDU did not carry one.
func (r *ExtResp) Header() *Header {
	if r == nil {
		return nil
	}
	return r.header
}

// Tlv returns the response payload element.
func (r *ExtResp) Tlv() *tlv.Tlv {
	if r == nil {
		return nil
	}
	return r.rec.Tlv()
}
