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
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/guardtime/ksipdu/hash"
	"github.com/guardtime/ksipdu/tlv"
)

const (
	testLogin     = "anon"
	testRequestID = uint64(42275443333883166)
)

var testKey = []byte("anon")

func testCredentials(t *testing.T) *StaticCredentials {
	t.Helper()
	creds, err := NewCredentials(testLogin, testKey, hash.SHA2_256)
	require.NoError(t, err)
	return creds
}

func testContext(t *testing.T, opts ...ContextOption) *RequestContext {
	t.Helper()
	ctx, err := NewRequestContext(testCredentials(t), opts...)
	require.NoError(t, err)
	return ctx
}

func testImprint(t *testing.T, data string) hash.Imprint {
	t.Helper()
	h, err := hash.Default.New()
	require.NoError(t, err)
	_, err = h.Write([]byte(data))
	require.NoError(t, err)
	imprint, err := h.Imprint()
	require.NoError(t, err)
	return imprint
}

func mustUint(t *testing.T, tag uint16, v uint64, flags ...tlv.Flag) *tlv.Tlv {
	t.Helper()
	e, err := tlv.ConstructUint64(tag, v, flags...)
	require.NoError(t, err)
	return e
}

func mustUtf8(t *testing.T, tag uint16, s string) *tlv.Tlv {
	t.Helper()
	e, err := tlv.ConstructUtf8(tag, s)
	require.NoError(t, err)
	return e
}

func mustTime(t *testing.T, tag uint16, ts time.Time) *tlv.Tlv {
	t.Helper()
	e, err := tlv.ConstructTime(tag, ts)
	require.NoError(t, err)
	return e
}

func mustBinary(t *testing.T, tag uint16, v []byte, flags ...tlv.Flag) *tlv.Tlv {
	t.Helper()
	e, err := tlv.ConstructBinary(tag, v, flags...)
	require.NoError(t, err)
	return e
}

func mustNested(t *testing.T, tag uint16, children ...*tlv.Tlv) *tlv.Tlv {
	t.Helper()
	e, err := tlv.ConstructNested(tag, children)
	require.NoError(t, err)
	return e
}

func respPayload(t *testing.T, v *Version, s service, reqID uint64, extra ...*tlv.Tlv) *tlv.Tlv {
	t.Helper()
	return mustNested(t, v.pduTags(s).respPayload, append([]*tlv.Tlv{mustUint(t, tagReqID, reqID)}, extra...)...)
}

func errPayload(t *testing.T, v *Version, s service, status uint64, msg string) *tlv.Tlv {
	t.Helper()
	return mustNested(t, v.pduTags(s).errPayload, mustUint(t, tagErrStatus, status), mustUtf8(t, tagErrMessage, msg))
}

// pduBuilder assembles response PDUs the way a server does.
type pduBuilder struct {
	v        *Version
	s        service
	alg      hash.Algorithm
	noHeader bool
	noMac    bool
	// Elements between the header and the MAC.
	elems []*tlv.Tlv
	// Elements after the MAC.
	trailer []*tlv.Tlv
}

func newPduBuilder(v *Version, s service, elems ...*tlv.Tlv) *pduBuilder {
	return &pduBuilder{v: v, s: s, alg: hash.SHA2_256, elems: elems}
}

func (b *pduBuilder) build(t *testing.T) []byte {
	t.Helper()
	pduTag := b.v.pduTags(b.s).resp

	var children []*tlv.Tlv
	var hdr *tlv.Tlv
	if !b.noHeader {
		h, err := NewHeaderWithIDs(testLogin, 1, 1)
		require.NoError(t, err)
		hdr, err = h.Encode()
		require.NoError(t, err)
		children = append(children, hdr)
	}
	children = append(children, b.elems...)
	if b.noMac {
		return mustNested(t, pduTag, append(children, b.trailer...)...).Bytes()
	}

	var mac hash.Imprint
	switch b.v.mac {
	case macHeaderPayload:
		var payload []byte
		for _, e := range b.elems {
			if e.Tag() == b.v.pduTags(b.s).respPayload {
				payload = e.Bytes()
				break
			}
		}
		var err error
		mac, err = ComputeMAC(b.alg, testKey, hdr.Bytes(), payload)
		require.NoError(t, err)
	case macPduPrefix:
		draft := mustNested(t, pduTag, append(children, mustBinary(t, tagMac, b.alg.ZeroImprint()))...)
		var err error
		mac, err = ComputePduMAC(b.alg, testKey, draft.Bytes())
		require.NoError(t, err)
	}
	children = append(children, mustBinary(t, tagMac, mac))
	return mustNested(t, pduTag, append(children, b.trailer...)...).Bytes()
}
