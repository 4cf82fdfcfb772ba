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
	"github.com/guardtime/ksipdu/hash"
	"github.com/guardtime/ksipdu/tlv"
)

// AggrReq is the aggregation request payload.
type AggrReq struct {
	requestID   *uint64
	requestHash hash.Imprint
	level       uint8
}

// RequestID returns the request correlation ID and whether it is present.
func (r *AggrReq) RequestID() (uint64, bool) {
	if r == nil || r.requestID == nil {
		return 0, false
	}
	return *r.requestID, true
}

// RequestHash returns the hash to be signed.
func (r *AggrReq) RequestHash() hash.Imprint {
	if r == nil {
		return nil
	}
	return r.requestHash
}

// Level returns the aggregation tree level of the request hash.
func (r *AggrReq) Level() uint8 {
	if r == nil {
		return 0
	}
	return r.level
}

func (r *AggrReq) encode(tag uint16) (*tlv.Tlv, error) {
	var (
		id, hsh, lvl *tlv.Tlv
		err          error
	)
	if r.requestID != nil {
		if id, err = tlv.ConstructUint64(tagReqID, *r.requestID); err != nil {
			return nil, err
		}
	}
	if hsh, err = tlv.ConstructImprint(tagReqHash, r.requestHash); err != nil {
		return nil, err
	}
	if r.level > 0 {
		if lvl, err = tlv.ConstructUint64(tagReqLevel, uint64(r.level)); err != nil {
			return nil, err
		}
	}
	return tlv.ConstructNested(tag, []*tlv.Tlv{id, hsh, lvl})
}
