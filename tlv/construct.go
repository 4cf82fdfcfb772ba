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
	"fmt"
	"time"

	"github.com/guardtime/ksipdu/errors"
	"github.com/guardtime/ksipdu/hash"
)

// Flag is an optional header flag applied on construction.
type Flag HeaderMask

const (
	// NonCritical marks the element as ignorable by readers that do not recognize it.
	NonCritical = Flag(HeaderFlagN)
	// ForwardUnknown marks the element to be forwarded by readers that do not recognize it.
	ForwardUnknown = Flag(HeaderFlagF)
)

// ConstructBinary returns an element holding the given octet string.
//
// Possible return errors:
//   - KsiInvalidArgumentError error in case the tag does not fit into 13 bits;
//   - KsiBufferOverflow error in case the value is longer than MaxValueLength.
func ConstructBinary(tag uint16, value []byte, flags ...Flag) (*Tlv, error) {
	if tag > MaxTagValue {
		return nil, errors.New(errors.KsiInvalidArgumentError).
			AppendMessage(fmt.Sprintf("TLV tag 0x%x exceeds 0x%x.", tag, MaxTagValue))
	}
	if len(value) > MaxValueLength {
		return nil, errors.New(errors.KsiBufferOverflow).
			AppendMessage(fmt.Sprintf("TLV[0x%x] value length %d exceeds %d.", tag, len(value), MaxValueLength))
	}

	var mask HeaderMask
	for _, f := range flags {
		mask |= HeaderMask(f) & (HeaderFlagN | HeaderFlagF)
	}

	var (
		is16 = tag > MaxTag8Value || len(value) > 0xff
		raw  []byte
	)
	if is16 {
		raw = make([]byte, 4, 4+len(value))
		raw[0] = byte(HeaderFlag16|mask) | byte(tag>>8)
		raw[1] = byte(tag)
		raw[2] = byte(len(value) >> 8)
		raw[3] = byte(len(value))
	} else {
		raw = make([]byte, 2, 2+len(value))
		raw[0] = byte(mask) | byte(tag)
		raw[1] = byte(len(value))
	}
	raw = append(raw, value...)

	return &Tlv{
		tag:   tag,
		flags: mask,
		is16:  is16,
		raw:   raw,
		value: raw[len(raw)-len(value):],
	}, nil
}

// ConstructUint64 returns an element holding the minimal big-endian encoding of v. Zero is encoded as an empty value.
func ConstructUint64(tag uint16, v uint64, flags ...Flag) (*Tlv, error) {
	var (
		buf [8]byte
		i   = len(buf)
	)
	for ; v > 0; v >>= 8 {
		i--
		buf[i] = byte(v)
	}
	return ConstructBinary(tag, buf[i:], flags...)
}

// ConstructUtf8 returns an element holding the NUL terminated string s.
func ConstructUtf8(tag uint16, s string, flags ...Flag) (*Tlv, error) {
	value := make([]byte, len(s)+1)
	copy(value, s)
	return ConstructBinary(tag, value, flags...)
}

// ConstructTime returns an element holding ts as the count of seconds since the Unix epoch.
func ConstructTime(tag uint16, ts time.Time, flags ...Flag) (*Tlv, error) {
	sec := ts.Unix()
	if sec < 0 {
		return nil, errors.New(errors.KsiInvalidArgumentError).
			AppendMessage(fmt.Sprintf("Time %s precedes the Unix epoch.", ts))
	}
	return ConstructUint64(tag, uint64(sec), flags...)
}

// ConstructImprint returns an element holding the imprint. The imprint must be valid.
func ConstructImprint(tag uint16, imprint hash.Imprint, flags ...Flag) (*Tlv, error) {
	if !imprint.IsValid() {
		return nil, errors.New(errors.KsiInvalidArgumentError).
			AppendMessage(fmt.Sprintf("Invalid imprint for TLV[0x%x]: %x.", tag, []byte(imprint)))
	}
	return ConstructBinary(tag, imprint, flags...)
}

// ConstructNested returns an element whose value is the concatenation of the encoded children, in the given order.
// Nil children are skipped, which allows optional members to be passed unconditionally.
func ConstructNested(tag uint16, children []*Tlv, flags ...Flag) (*Tlv, error) {
	var (
		size int
		kept = make([]*Tlv, 0, len(children))
	)
	for _, c := range children {
		if c == nil {
			continue
		}
		size += len(c.raw)
		kept = append(kept, c)
	}
	if size > MaxValueLength {
		return nil, errors.New(errors.KsiBufferOverflow).
			AppendMessage(fmt.Sprintf("TLV[0x%x] nested value length %d exceeds %d.", tag, size, MaxValueLength))
	}

	value := make([]byte, 0, size)
	for _, c := range kept {
		value = append(value, c.raw...)
	}
	t, err := ConstructBinary(tag, value, flags...)
	if err != nil {
		return nil, err
	}
	t.children = kept
	return t, nil
}
