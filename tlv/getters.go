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
	"math"
	"time"
	"unicode/utf8"

	"github.com/guardtime/ksipdu/errors"
	"github.com/guardtime/ksipdu/hash"
)

// Uint64 interprets the value as a big-endian unsigned integer. An empty value is 0.
func (t *Tlv) Uint64() (uint64, error) {
	if t == nil {
		return 0, errors.New(errors.KsiInvalidArgumentError)
	}
	if len(t.value) > 8 {
		return 0, errors.New(errors.KsiInvalidFormatError).
			AppendMessage(fmt.Sprintf("TLV[0x%x] value for 64bit integer is too large (%x).", t.tag, t.value))
	}

	var v uint64
	for _, b := range t.value {
		v = v<<8 | uint64(b)
	}
	return v, nil
}

// Utf8 interprets the value as a NUL terminated UTF-8 string. The terminating octet is left out from the result.
// An empty value is an empty string.
func (t *Tlv) Utf8() (string, error) {
	if t == nil {
		return "", errors.New(errors.KsiInvalidArgumentError)
	}
	n := len(t.value)
	if n == 0 {
		return "", nil
	}
	if t.value[n-1] != 0 {
		return "", errors.New(errors.KsiInvalidFormatError).
			AppendMessage(fmt.Sprintf("TLV[0x%x] string must end with 0 octet.", t.tag))
	}
	if !utf8.Valid(t.value[:n-1]) {
		return "", errors.New(errors.KsiInvalidFormatError).
			AppendMessage(fmt.Sprintf("TLV[0x%x] string is not valid UTF-8.", t.tag))
	}
	return string(t.value[:n-1]), nil
}

// Time interprets the value as the count of seconds since the Unix epoch.
func (t *Tlv) Time() (time.Time, error) {
	sec, err := t.Uint64()
	if err != nil {
		return time.Time{}, err
	}
	if sec > math.MaxInt64 {
		return time.Time{}, errors.New(errors.KsiInvalidFormatError).
			AppendMessage(fmt.Sprintf("TLV[0x%x] time value out of range.", t.tag))
	}
	return time.Unix(int64(sec), 0).UTC(), nil
}

// Imprint interprets the value as a hash imprint. If imprint format is invalid, error is returned.
func (t *Tlv) Imprint() (hash.Imprint, error) {
	if t == nil {
		return nil, errors.New(errors.KsiInvalidArgumentError)
	}
	imprint := hash.Imprint(t.value)
	if !imprint.IsValid() {
		return nil, errors.New(errors.KsiInvalidFormatError).
			AppendMessage(fmt.Sprintf("TLV[0x%x] does not contain a valid imprint (%x).", t.tag, t.value))
	}
	return append(hash.Imprint(nil), imprint...), nil
}

// Binary returns a copy of the value.
func (t *Tlv) Binary() ([]byte, error) {
	if t == nil {
		return nil, errors.New(errors.KsiInvalidArgumentError)
	}
	return append([]byte(nil), t.value...), nil
}
