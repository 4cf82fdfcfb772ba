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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardtime/ksipdu/errors"
)

func TestUnitNewHeader(t *testing.T) {
	_, err := NewHeader("")
	assertCode(t, err, errors.KsiInvalidArgumentError)
	_, err = NewHeaderWithIDs("", 1, 2)
	assertCode(t, err, errors.KsiInvalidArgumentError)

	h, err := NewHeader(testLogin)
	require.NoError(t, err)
	assert.Equal(t, testLogin, h.LoginID())
	_, ok := h.InstanceID()
	assert.False(t, ok)
	_, ok = h.MessageID()
	assert.False(t, ok)
}

func TestUnitHeaderEncodeParse(t *testing.T) {
	h, err := NewHeaderWithIDs(testLogin, 1398866256, 12)
	require.NoError(t, err)
	enc, err := h.Encode()
	require.NoError(t, err)
	assert.Equal(t, uint16(tagHeader), enc.Tag())

	parsed, err := ParseHeader(enc)
	require.NoError(t, err)
	assert.Equal(t, testLogin, parsed.LoginID())
	inst, ok := parsed.InstanceID()
	assert.True(t, ok)
	assert.Equal(t, uint64(1398866256), inst)
	msg, ok := parsed.MessageID()
	assert.True(t, ok)
	assert.Equal(t, uint64(12), msg)
	assert.Equal(t, "login=anon instance=1398866256 message=12", parsed.String())
}

func TestUnitParseHeaderLenient(t *testing.T) {
	// Only the instance ID, no message ID.
	h, err := ParseHeader(mustNested(t, tagHeader,
		mustUtf8(t, tagHdrLoginID, testLogin),
		mustUint(t, tagHdrInstanceID, 5),
	))
	require.NoError(t, err)
	inst, ok := h.InstanceID()
	assert.True(t, ok)
	assert.Equal(t, uint64(5), inst)
	_, ok = h.MessageID()
	assert.False(t, ok)
}

func TestUnitParseHeaderMissingLogin(t *testing.T) {
	_, err := ParseHeader(mustNested(t, tagHeader, mustUint(t, tagHdrInstanceID, 5)))
	assertCode(t, err, errors.KsiTlvMissing)
	assert.Equal(t, errors.KindProtocol, errors.KindOf(err))

	_, err = ParseHeader(nil)
	assertCode(t, err, errors.KsiInvalidArgumentError)
}
