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

// ExtReq is the extension request payload.
type ExtReq struct {
	requestID *uint64
	aggrTime  time.Time
	pubTime   *time.Time
}

// RequestID returns the request correlation ID and whether it is present.
func (r *ExtReq) RequestID() (uint64, bool) {
	if r == nil || r.requestID == nil {
		return 0, false
	}
	return *r.requestID, true
}

// AggregationTime returns the aggregation time of the signature being extended.
func (r *ExtReq) AggregationTime() time.Time {
	if r == nil {
		return time.Time{}
	}
	return r.aggrTime
}

// PublicationTime returns the time of the publication to extend to, and whether it is present. If absent, the
// signature is extended to the head of the calendar.
func (r *ExtReq) PublicationTime() (time.Time, bool) {
	if r == nil || r.pubTime == nil {
		return time.Time{}, false
	}
	return *r.pubTime, true
}

func (r *ExtReq) encode(tag uint16) (*tlv.Tlv, error) {
	var (
		id, aggr, pub *tlv.Tlv
		err           error
	)
	if r.requestID != nil {
		if id, err = tlv.ConstructUint64(tagReqID, *r.requestID); err != nil {
			return nil, err
		}
	}
	if aggr, err = tlv.ConstructTime(tagReqAggrTime, r.aggrTime); err != nil {
		return nil, err
	}
	if r.pubTime != nil {
		if pub, err = tlv.ConstructTime(tagReqPubTime, *r.pubTime); err != nil {
			return nil, err
		}
	}
	return tlv.ConstructNested(tag, []*tlv.Tlv{id, aggr, pub})
}
