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
	"strings"

	"github.com/guardtime/ksipdu/errors"
	"github.com/guardtime/ksipdu/tlv"
)

// macScope selects which bytes are covered by the PDU MAC.
type macScope byte

const (
	// macHeaderPayload covers the encoded header followed by the encoded payload.
	macHeaderPayload macScope = iota
	// macPduPrefix covers all PDU bytes up to (excluding) the digest of the MAC element.
	macPduPrefix
)

// Tags shared by both protocol generations.
const (
	tagHeader = 0x01
	tagMac    = 0x1f

	tagHdrLoginID    = 0x01
	tagHdrInstanceID = 0x02
	tagHdrMessageID  = 0x03

	tagReqID       = 0x01
	tagReqHash     = 0x02
	tagReqLevel    = 0x03
	tagReqAggrTime = 0x02
	tagReqPubTime  = 0x03

	tagErrStatus  = 0x04
	tagErrMessage = 0x05

	tagAggrChain       = 0x801
	tagCalendarChain   = 0x802
	tagPublicationRec  = 0x803
	tagCalendarAuthRec = 0x805
	tagRFC3161         = 0x806
)

// Version is the tag table and the MAC rules of one protocol generation. The PDU assembly and validation
// algorithms are shared, a Version only parameterizes them.
// The tag tables follow the deployed KSIAP/KSIEP v1 and v2 protocols.
type Version struct {
	name string

	aggrReqPdu  uint16
	aggrRespPdu uint16
	extReqPdu   uint16
	extRespPdu  uint16

	aggrReqPayload  uint16
	aggrRespPayload uint16
	aggrErrPayload  uint16
	extReqPayload   uint16
	extRespPayload  uint16
	extErrPayload   uint16

	// Zero if the generation has no configuration payload.
	configPayload uint16
	// Known aggregator PDU children without meaning for the client.
	aggrIgnored []uint16
	// Known aggregation response payload children kept as opaque elements.
	aggrRespOpaque []uint16

	headerRequired bool
	mac            macScope

	respStatus  uint16
	respMessage uint16
	calLast     uint16

	aggrResp *tlv.Schema
	extResp  *tlv.Schema
}

// Legacy is the first protocol generation (KSIAP/KSIEP v1).
var Legacy = &Version{
	name: "legacy",

	aggrReqPdu:  0x200,
	aggrRespPdu: 0x200,
	extReqPdu:   0x300,
	extRespPdu:  0x300,

	aggrReqPayload:  0x201,
	aggrRespPayload: 0x202,
	aggrErrPayload:  0x203,
	extReqPayload:   0x301,
	extRespPayload:  0x302,
	extErrPayload:   0x303,

	aggrRespOpaque: []uint16{0x10, 0x11},

	headerRequired: true,
	mac:            macHeaderPayload,

	respStatus:  0x05,
	respMessage: 0x06,
	calLast:     0x10,
}

// Current is the second protocol generation (KSIAP/KSIEP v2).
var Current = &Version{
	name: "current",

	aggrReqPdu:  0x220,
	aggrRespPdu: 0x221,
	extReqPdu:   0x320,
	extRespPdu:  0x321,

	aggrReqPayload:  0x02,
	aggrRespPayload: 0x02,
	aggrErrPayload:  0x03,
	extReqPayload:   0x02,
	extRespPayload:  0x02,
	extErrPayload:   0x03,

	configPayload: 0x04,
	aggrIgnored:   []uint16{0x05},

	headerRequired: false,
	mac:            macPduPrefix,

	respStatus:  0x04,
	respMessage: 0x05,
	calLast:     0x12,
}

func init() {
	for _, v := range []*Version{Legacy, Current} {
		v.aggrResp = v.aggrRespSchema()
		v.extResp = v.extRespSchema()
	}
}

// VersionByName returns the protocol generation by its case insensitive name: "legacy" (or "v1") and
// "current" (or "v2").
func VersionByName(name string) (*Version, error) {
	switch strings.ToLower(name) {
	case "legacy", "v1":
		return Legacy, nil
	case "current", "v2", "":
		return Current, nil
	}
	return nil, errors.New(errors.KsiInvalidArgumentError).
		AppendMessage(fmt.Sprintf("Unknown protocol version: %q.", name))
}

// String implements Stringer interface.
func (v *Version) String() string {
	if v == nil {
		return ""
	}
	return v.name
}

// HeaderRequired reports whether response PDUs must contain a standalone header element.
func (v *Version) HeaderRequired() bool {
	return v != nil && v.headerRequired
}

// SupportsConfig reports whether the generation has the service configuration exchange.
func (v *Version) SupportsConfig() bool {
	return v != nil && v.configPayload != 0
}

// tagSet is the PDU and payload tags of one service.
type tagSet struct {
	req, resp               uint16
	respPayload, errPayload uint16
}

func (v *Version) pduTags(s service) tagSet {
	if s == extender {
		return tagSet{
			req:         v.extReqPdu,
			resp:        v.extRespPdu,
			respPayload: v.extRespPayload,
			errPayload:  v.extErrPayload,
		}
	}
	return tagSet{
		req:         v.aggrReqPdu,
		resp:        v.aggrRespPdu,
		respPayload: v.aggrRespPayload,
		errPayload:  v.aggrErrPayload,
	}
}
