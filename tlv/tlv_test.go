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

package tlv

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardtime/ksipdu/errors"
	"github.com/guardtime/ksipdu/hash"
	"github.com/guardtime/ksipdu/test/utils"
)

func isExpectedTlv(t *testing.T, tlv *Tlv, tag uint16, value, raw []byte, n, f, is16 bool) {
	t.Helper()
	require.NotNil(t, tlv)
	assert.Equal(t, tag, tlv.Tag(), "tag")
	assert.Equal(t, n, tlv.NonCritical(), "N flag")
	assert.Equal(t, f, tlv.ForwardUnknown(), "F flag")
	assert.Equal(t, is16, tlv.Is16(), "TLV16")
	assert.True(t, bytes.Equal(value, tlv.Value()), "value %x != %x", value, tlv.Value())
	assert.True(t, bytes.Equal(raw, tlv.Bytes()), "raw %x != %x", raw, tlv.Bytes())
	assert.Equal(t, len(raw), tlv.Length())
}

func parseAndTestTlv(t *testing.T, raw []byte, tag uint16, value []byte, n, f, is16 bool) {
	t.Helper()
	fromReader, err := ConstructFromReader(bytes.NewReader(raw))
	require.NoError(t, err)
	isExpectedTlv(t, fromReader, tag, value, raw, n, f, is16)

	fromSlice, err := Parse(raw)
	require.NoError(t, err)
	isExpectedTlv(t, fromSlice, tag, value, raw, n, f, is16)
}

func TestUnitTlv8Parse(t *testing.T) {
	parseAndTestTlv(t, []byte{0x0a, 0x00}, 0x0a, nil, false, false, false)
	parseAndTestTlv(t, []byte{0x0a, 0x01, 0x01}, 0x0a, []byte{0x01}, false, false, false)
	parseAndTestTlv(t, []byte{0x0a, 0x02, 0x01, 0x02}, 0x0a, []byte{0x01, 0x02}, false, false, false)
	parseAndTestTlv(t, []byte{0x0a | byte(HeaderFlagN), 0x00}, 0x0a, nil, true, false, false)
	parseAndTestTlv(t, []byte{0x0a | byte(HeaderFlagF), 0x00}, 0x0a, nil, false, true, false)
	parseAndTestTlv(t, []byte{0x0a | byte(HeaderFlagN) | byte(HeaderFlagF), 0x00}, 0x0a, nil, true, true, false)
}

func TestUnitTlv16Parse(t *testing.T) {
	parseAndTestTlv(t, []byte{0x8a, 0xbc, 0x00, 0x00}, 0xabc, nil, false, false, true)
	parseAndTestTlv(t, []byte{0x8a, 0xbc, 0x00, 0x01, 0x0d}, 0xabc, []byte{0x0d}, false, false, true)
	parseAndTestTlv(t, []byte{0x8a | byte(HeaderFlagN), 0xbc, 0x00, 0x00}, 0xabc, nil, true, false, true)
	parseAndTestTlv(t, []byte{0x8a | byte(HeaderFlagN) | byte(HeaderFlagF), 0xbc, 0x00, 0x00}, 0xabc, nil, true, true, true)
	// A small tag may still be encoded with the long header.
	parseAndTestTlv(t, []byte{0x80, 0x01, 0x00, 0x01, 0x07}, 0x01, []byte{0x07}, false, false, true)
}

func TestUnitParseTruncated(t *testing.T) {
	for title, raw := range map[string][]byte{
		"empty":                {},
		"TLV8 header":          {0x01},
		"TLV16 header":         {0x82, 0x21, 0x00},
		"TLV8 value":           {0x01, 0x03, 0x00, 0x00},
		"TLV16 value":          {0x82, 0x21, 0x00, 0x05, 0x01},
		"TLV16 length too big": {0x82, 0x21, 0xff, 0xff, 0x01, 0x02},
	} {
		_, err := Parse(raw)
		require.Error(t, err, title)
		assert.Equal(t, errors.KsiTlvTruncated, errors.KsiErr(err).Code(), title)
		assert.Equal(t, errors.KindProtocol, errors.KindOf(err), title)
	}
}

func TestUnitParseTrailingBytes(t *testing.T) {
	_, err := Parse([]byte{0x01, 0x01, 0x00, 0xff})
	assert.Equal(t, errors.KsiInvalidFormatError, errors.KsiErr(err).Code())
}

func TestUnitConstructFromReaderStream(t *testing.T) {
	r := bytes.NewReader([]byte{0x01, 0x01, 0x05, 0x82, 0x02, 0x00, 0x00, 0x03})

	first, err := ConstructFromReader(r)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x01), first.Tag())

	second, err := ConstructFromReader(r)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x202), second.Tag())

	_, err = ConstructFromReader(r)
	assert.Equal(t, errors.KsiTlvTruncated, errors.KsiErr(err).Code())

	_, err = ConstructFromReader(r)
	assert.Equal(t, errors.KsiIoError, errors.KsiErr(err).Code())
	assert.ErrorIs(t, err, io.EOF)

	_, err = ConstructFromReader(nil)
	assert.Equal(t, errors.KsiInvalidArgumentError, errors.KsiErr(err).Code())
}

func TestUnitNested(t *testing.T) {
	raw := utils.StringToBin("8221000c" + "0103010203" + "02035a5a5a" + "4300")
	elem, err := Parse(raw)
	require.NoError(t, err)

	children, err := elem.Nested()
	require.NoError(t, err)
	require.Len(t, children, 3)
	assert.Equal(t, uint16(0x01), children[0].Tag())
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, children[0].Value())
	assert.Equal(t, uint16(0x02), children[1].Tag())
	assert.True(t, children[2].NonCritical())
	assert.Equal(t, uint16(0x03), children[2].Tag())
}

func TestUnitNestedChildOverflowsParent(t *testing.T) {
	// The child declares 5 bytes but the parent holds only 3 after the child header.
	elem, err := Parse(utils.StringToBin("0105" + "0105010203"))
	require.NoError(t, err)

	_, err = elem.Nested()
	assert.Equal(t, errors.KsiTlvTruncated, errors.KsiErr(err).Code())
}

func TestUnitIsConsistent(t *testing.T) {
	assert.False(t, IsConsistent(nil))
	assert.False(t, IsConsistent([]byte{0x01}))
	assert.False(t, IsConsistent([]byte{0x01, 0x02, 0x00}))
	assert.True(t, IsConsistent([]byte{0x01, 0x02, 0x00, 0x00}))
	assert.True(t, IsConsistent([]byte{0x01, 0x02, 0x00, 0x00, 0x99}))
	assert.False(t, IsConsistent([]byte{0x82, 0x21, 0x00}))
	assert.True(t, IsConsistent([]byte{0x82, 0x21, 0x00, 0x00}))
}

func TestUnitConstructHeaderForm(t *testing.T) {
	small, err := ConstructBinary(0x1f, []byte{0xaa})
	require.NoError(t, err)
	isExpectedTlv(t, small, 0x1f, []byte{0xaa}, []byte{0x1f, 0x01, 0xaa}, false, false, false)

	bigTag, err := ConstructBinary(0x20, nil, NonCritical)
	require.NoError(t, err)
	isExpectedTlv(t, bigTag, 0x20, nil, []byte{0xc0, 0x20, 0x00, 0x00}, true, false, true)

	long := bytes.Repeat([]byte{0x11}, 0x100)
	bigValue, err := ConstructBinary(0x01, long, NonCritical, ForwardUnknown)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xe0, 0x01, 0x01, 0x00}, bigValue.Bytes()[:4])
	assert.True(t, bigValue.Is16())

	_, err = ConstructBinary(MaxTagValue+1, nil)
	assert.Equal(t, errors.KsiInvalidArgumentError, errors.KsiErr(err).Code())

	_, err = ConstructBinary(0x01, make([]byte, MaxValueLength+1))
	assert.Equal(t, errors.KsiBufferOverflow, errors.KsiErr(err).Code())
}

func TestUnitConstructUint64(t *testing.T) {
	for v, expected := range map[uint64][]byte{
		0:                  {0x05, 0x00},
		1:                  {0x05, 0x01, 0x01},
		0xff:               {0x05, 0x01, 0xff},
		0x100:              {0x05, 0x02, 0x01, 0x00},
		42275443333883166:  {0x05, 0x07, 0x96, 0x31, 0x4a, 0xae, 0xa3, 0x65, 0x1e},
		0xffffffffffffffff: {0x05, 0x08, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
	} {
		elem, err := ConstructUint64(0x05, v)
		require.NoError(t, err)
		assert.Equal(t, expected, elem.Bytes(), "value %d", v)

		parsed, err := Parse(elem.Bytes())
		require.NoError(t, err)
		got, err := parsed.Uint64()
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestUnitGetterFormatErrors(t *testing.T) {
	tooLong, err := Parse(utils.StringToBin("0109010203040506070809"))
	require.NoError(t, err)
	_, err = tooLong.Uint64()
	assert.Equal(t, errors.KsiInvalidFormatError, errors.KsiErr(err).Code())

	noNul, err := Parse([]byte{0x01, 0x02, 'a', 'b'})
	require.NoError(t, err)
	_, err = noNul.Utf8()
	assert.Equal(t, errors.KsiInvalidFormatError, errors.KsiErr(err).Code())

	badUtf8, err := Parse([]byte{0x01, 0x02, 0xff, 0x00})
	require.NoError(t, err)
	_, err = badUtf8.Utf8()
	assert.Equal(t, errors.KsiInvalidFormatError, errors.KsiErr(err).Code())

	_, err = noNul.Imprint()
	assert.Equal(t, errors.KsiInvalidFormatError, errors.KsiErr(err).Code())

	var nilTlv *Tlv
	_, err = nilTlv.Uint64()
	assert.Equal(t, errors.KsiInvalidArgumentError, errors.KsiErr(err).Code())
}

func TestUnitConstructedValuesReadBack(t *testing.T) {
	imprint := hash.SHA2_256.ZeroImprint()
	imprint[1] = 0x42
	ts := time.Unix(1400000000, 0).UTC()

	utf, err := ConstructUtf8(0x01, "anon")
	require.NoError(t, err)
	tm, err := ConstructTime(0x02, ts)
	require.NoError(t, err)
	imp, err := ConstructImprint(0x03, imprint)
	require.NoError(t, err)
	root, err := ConstructNested(0x220, []*Tlv{utf, nil, tm, imp}, NonCritical)
	require.NoError(t, err)

	parsed, err := Parse(root.Bytes())
	require.NoError(t, err)
	assert.True(t, parsed.NonCritical())
	children, err := parsed.Nested()
	require.NoError(t, err)
	require.Len(t, children, 3)

	s, err := children[0].Utf8()
	require.NoError(t, err)
	assert.Equal(t, "anon", s)
	assert.Equal(t, []byte("anon\x00"), children[0].Value())

	gotTime, err := children[1].Time()
	require.NoError(t, err)
	assert.True(t, ts.Equal(gotTime))

	gotImprint, err := children[2].Imprint()
	require.NoError(t, err)
	assert.True(t, hash.Equal(imprint, gotImprint))

	_, err = ConstructImprint(0x03, hash.Imprint{0x01, 0x02})
	assert.Equal(t, errors.KsiInvalidArgumentError, errors.KsiErr(err).Code())
	_, err = ConstructTime(0x02, time.Unix(-1, 0))
	assert.Equal(t, errors.KsiInvalidArgumentError, errors.KsiErr(err).Code())
}

func TestUnitConstructNestedOverflow(t *testing.T) {
	big, err := ConstructBinary(0x01, make([]byte, MaxValueLength-4))
	require.NoError(t, err)
	_, err = ConstructNested(0x02, []*Tlv{big, big})
	assert.Equal(t, errors.KsiBufferOverflow, errors.KsiErr(err).Code())
}

func TestUnitBinaryReturnsCopy(t *testing.T) {
	raw := []byte{0x01, 0x02, 0xaa, 0xbb}
	elem, err := Parse(raw)
	require.NoError(t, err)

	b, err := elem.Binary()
	require.NoError(t, err)
	b[0] = 0x00
	assert.Equal(t, []byte{0xaa, 0xbb}, elem.Value())
}

func TestUnitString(t *testing.T) {
	elem, err := Parse(utils.StringToBin("8221000c" + "0103010203" + "02035a5a5a" + "4300"))
	require.NoError(t, err)

	out := elem.String()
	assert.True(t, strings.HasPrefix(out, "TLV[0x221]:\n"), out)
	assert.Contains(t, out, "  TLV[0x1]: 010203\n")
	assert.Contains(t, out, "  TLV[0x3,N]: \n")

	var nilTlv *Tlv
	assert.Equal(t, "", nilTlv.String())
}
