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

// Package tlv implements the KSI TLV (type-length-value) encoding.
//
// A TLV element consists of a header and a value. The header carries the tag, the value length and two flags:
// non-critical (N) and forward-unknown (F). Elements with a tag up to 0x1f and value up to 255 bytes use the two
// octet header (TLV8), all others use the four octet header (TLV16):
//
//	TLV8:  |0|N|F|  tag[5] | length[8] |
//	TLV16: |1|N|F| tag[13]             | length[16] |
//
// The value is either primitive (unsigned integer, string, time, imprint, octet string) or a concatenation of
// nested elements. The encoding does not carry the value kind, it is defined by the reader (see Schema).
//
// Elements are immutable. A parsed element keeps a reference to the input slice, the caller must not modify it.
package tlv

import (
	"fmt"
	"io"
	"strings"

	"github.com/guardtime/ksipdu/errors"
)

// HeaderMask holds mask values for different bits in TLV header.
type HeaderMask byte

const (
	// HeaderFlag16 is mask for 16bit flag.
	HeaderFlag16 = HeaderMask(0x80)
	// HeaderFlagN is mask for Non-Critical flag.
	HeaderFlagN = HeaderMask(0x40)
	// HeaderFlagF is mask for Forward Unknown flag.
	HeaderFlagF = HeaderMask(0x20)
	// HeaderTypeMask is mask for type in the first header byte.
	HeaderTypeMask = HeaderMask(0x1f)
)

const (
	// MaxValueLength is the maximum size of the TLV value.
	MaxValueLength = 0xffff
	// MaxHeaderSize is the maximum size of the TLV header.
	MaxHeaderSize = 4
	// MaxBufferSize is the maximum size of the buffer needed to store any TLV.
	MaxBufferSize = MaxHeaderSize + MaxValueLength
	// MaxTagValue is the maximum size of the TLV tag value.
	MaxTagValue = 0x1fff
	// MaxTag8Value is the maximum tag that fits into the TLV8 header.
	MaxTag8Value = 0x1f
)

// Tlv is a single TLV element.
type Tlv struct {
	tag   uint16
	flags HeaderMask
	is16  bool
	// Entire encoded element, header included.
	raw []byte
	// Value part of raw.
	value []byte
	// Children the element was constructed from. Not set for parsed elements.
	children []*Tlv
}

// Tag returns the element type.
func (t *Tlv) Tag() uint16 {
	if t == nil {
		return 0
	}
	return t.tag
}

// NonCritical reports whether the element may be ignored by a reader that does not recognize it.
func (t *Tlv) NonCritical() bool {
	return t != nil && t.flags&HeaderFlagN != 0
}

// ForwardUnknown reports whether an unrecognized element should be forwarded by an intermediate reader.
func (t *Tlv) ForwardUnknown() bool {
	return t != nil && t.flags&HeaderFlagF != 0
}

// Is16 reports whether the element is encoded with the TLV16 header.
func (t *Tlv) Is16() bool {
	return t != nil && t.is16
}

// Bytes returns the encoded element, header included. The returned slice must not be modified.
func (t *Tlv) Bytes() []byte {
	if t == nil {
		return nil
	}
	return t.raw
}

// Value returns the value part of the encoded element. The returned slice must not be modified.
func (t *Tlv) Value() []byte {
	if t == nil {
		return nil
	}
	return t.value
}

// Length returns the size of the element in bytes (header size + value length).
func (t *Tlv) Length() int {
	if t == nil {
		return 0
	}
	return len(t.raw)
}

type header struct {
	tag      uint16
	flags    HeaderMask
	is16     bool
	hdrLen   int
	valueLen int
}

// decodeHeader reads the element header from the beginning of b.
func decodeHeader(b []byte) (header, error) {
	if len(b) == 0 {
		return header{}, errors.New(errors.KsiTlvTruncated).AppendMessage("The stream is empty.")
	}
	h := header{
		tag:   uint16(b[0] & byte(HeaderTypeMask)),
		flags: HeaderMask(b[0]) & (HeaderFlagN | HeaderFlagF),
		is16:  b[0]&byte(HeaderFlag16) != 0,
	}
	if h.is16 {
		if len(b) < 4 {
			return header{}, errors.New(errors.KsiTlvTruncated).AppendMessage("Not enough bytes for TLV16 header.")
		}
		h.tag = h.tag<<8 | uint16(b[1])
		h.valueLen = int(b[2])<<8 | int(b[3])
		h.hdrLen = 4
	} else {
		if len(b) < 2 {
			return header{}, errors.New(errors.KsiTlvTruncated).AppendMessage("Not enough bytes for TLV8 header.")
		}
		h.valueLen = int(b[1])
		h.hdrLen = 2
	}
	return h, nil
}

// parseOne decodes the first element of b and returns the remaining bytes.
func parseOne(b []byte) (*Tlv, []byte, error) {
	h, err := decodeHeader(b)
	if err != nil {
		return nil, nil, err
	}
	end := h.hdrLen + h.valueLen
	if end > len(b) {
		return nil, nil, errors.New(errors.KsiTlvTruncated).AppendMessage(
			fmt.Sprintf("TLV[0x%x] declares %d value bytes, only %d available.", h.tag, h.valueLen, len(b)-h.hdrLen))
	}
	return &Tlv{
		tag:   h.tag,
		flags: h.flags,
		is16:  h.is16,
		raw:   b[:end:end],
		value: b[h.hdrLen:end:end],
	}, b[end:], nil
}

// Parse decodes exactly one element from b. The element must span the entire input.
//
// Possible return errors:
//   - KsiTlvTruncated error in case the header or the value is incomplete;
//   - KsiInvalidFormatError error in case there are bytes following the element.
func Parse(b []byte) (*Tlv, error) {
	t, rest, err := parseOne(b)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, errors.New(errors.KsiInvalidFormatError).AppendMessage(
			fmt.Sprintf("%d unexpected bytes following TLV[0x%x].", len(rest), t.tag))
	}
	return t, nil
}

// ConstructFromReader reads one element from the stream.
//
// In case the stream is exhausted before the first header byte, a KsiIoError wrapping io.EOF is returned. An element
// cut short by the end of the stream is reported as KsiTlvTruncated.
func ConstructFromReader(r io.Reader) (*Tlv, error) {
	if r == nil {
		return nil, errors.New(errors.KsiInvalidArgumentError)
	}

	hdr := make([]byte, MaxHeaderSize)
	if _, err := io.ReadFull(r, hdr[:1]); err != nil {
		return nil, errors.New(errors.KsiIoError).SetExtError(err).AppendMessage("Unable to read TLV header.")
	}
	hdrLen := 2
	if hdr[0]&byte(HeaderFlag16) != 0 {
		hdrLen = 4
	}
	if _, err := io.ReadFull(r, hdr[1:hdrLen]); err != nil {
		return nil, readErr(err).AppendMessage("Unable to read TLV header.")
	}
	h, err := decodeHeader(hdr[:hdrLen])
	if err != nil {
		return nil, err
	}

	raw := make([]byte, hdrLen+h.valueLen)
	copy(raw, hdr[:hdrLen])
	if _, err := io.ReadFull(r, raw[hdrLen:]); err != nil {
		return nil, readErr(err).AppendMessage(fmt.Sprintf("Unable to read TLV[0x%x] value.", h.tag))
	}
	return Parse(raw)
}

func readErr(err error) *errors.KsiError {
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		return errors.New(errors.KsiTlvTruncated).SetExtError(err)
	}
	return errors.New(errors.KsiIoError).SetExtError(err)
}

// Nested decodes the value as an ordered list of elements. Each child must fit within the value of the receiver.
func (t *Tlv) Nested() ([]*Tlv, error) {
	if t == nil {
		return nil, errors.New(errors.KsiInvalidArgumentError)
	}
	if t.children != nil {
		return append([]*Tlv(nil), t.children...), nil
	}

	var (
		list []*Tlv
		rest = t.value
	)
	for len(rest) > 0 {
		var (
			child *Tlv
			err   error
		)
		if child, rest, err = parseOne(rest); err != nil {
			return nil, errors.KsiErr(err).AppendMessage(fmt.Sprintf("Unable to parse nested elements of TLV[0x%x].", t.tag))
		}
		list = append(list, child)
	}
	return list, nil
}

// IsConsistent verifies whether the input stream starts with a complete TLV element.
func IsConsistent(b []byte) bool {
	h, err := decodeHeader(b)
	return err == nil && h.hdrLen+h.valueLen <= len(b)
}

// String implements Stringer interface. The value is printed as a nested tree whenever it decodes as one.
func (t *Tlv) String() string {
	if t == nil {
		return ""
	}
	var b strings.Builder
	t.dump(&b, 0)
	return b.String()
}

func (t *Tlv) dump(b *strings.Builder, depth int) {
	var flags []string
	if t.NonCritical() {
		flags = append(flags, "N")
	}
	if t.ForwardUnknown() {
		flags = append(flags, "F")
	}
	fmt.Fprintf(b, "%sTLV[0x%x", strings.Repeat("  ", depth), t.tag)
	for _, f := range flags {
		b.WriteString("," + f)
	}
	b.WriteString("]:")

	if children, err := t.Nested(); err == nil && len(children) > 0 {
		b.WriteString("\n")
		for _, c := range children {
			c.dump(b, depth+1)
		}
		return
	}
	fmt.Fprintf(b, " %x\n", t.value)
}
