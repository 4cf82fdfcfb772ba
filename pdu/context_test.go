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
	"github.com/guardtime/ksipdu/hash"
)

type seqProvider struct{ msg uint64 }

func (p *seqProvider) InstanceID() uint64    { return 100 }
func (p *seqProvider) NextMessageID() uint64 { p.msg++; return p.msg }
func (p *seqProvider) NextRequestID() uint64 { return 77 }

func TestUnitNewCredentials(t *testing.T) {
	_, err := NewCredentials("", testKey, hash.SHA2_256)
	assertCode(t, err, errors.KsiInvalidArgumentError)

	_, err = NewCredentials(testLogin, testKey, hash.SM3)
	assertCode(t, err, errors.KsiUnknownHashAlgorithm)

	key := []byte("key")
	creds, err := NewCredentials(testLogin, key, hash.SHA2_512)
	require.NoError(t, err)
	key[0] = 'x'
	assert.Equal(t, []byte("key"), creds.LoginKey())
	assert.Equal(t, hash.SHA2_512, creds.HmacAlgorithm())
}

func TestUnitNewRequestContext(t *testing.T) {
	_, err := NewRequestContext(nil)
	assertCode(t, err, errors.KsiInvalidArgumentError)

	_, err = NewRequestContext(testCredentials(t), nil)
	assertCode(t, err, errors.KsiInvalidArgumentError)

	_, err = NewRequestContext(testCredentials(t), CtxOptProvider(nil))
	assertCode(t, err, errors.KsiInvalidArgumentError)

	ctx := testContext(t)
	_, ok := ctx.RequestID()
	assert.False(t, ok)
	_, ok = ctx.InstanceID()
	assert.False(t, ok)
	assert.Equal(t, testLogin, ctx.Credentials().LoginID())
}

func TestUnitRequestContextProvider(t *testing.T) {
	p := &seqProvider{}

	for i := uint64(1); i <= 2; i++ {
		ctx := testContext(t, CtxOptProvider(p))
		id, ok := ctx.RequestID()
		assert.True(t, ok)
		assert.Equal(t, uint64(77), id)
		inst, ok := ctx.InstanceID()
		assert.True(t, ok)
		assert.Equal(t, uint64(100), inst)
		msg, ok := ctx.MessageID()
		assert.True(t, ok)
		assert.Equal(t, i, msg)

		hdr, err := ctx.header()
		require.NoError(t, err)
		hm, ok := hdr.MessageID()
		assert.True(t, ok)
		assert.Equal(t, i, hm)
	}
}

func TestUnitRequestContextOptionsOverride(t *testing.T) {
	ctx := testContext(t, CtxOptProvider(&seqProvider{}), CtxOptRequestID(testRequestID), CtxOptInstance(1, 2))
	id, _ := ctx.RequestID()
	assert.Equal(t, testRequestID, id)
	inst, _ := ctx.InstanceID()
	assert.Equal(t, uint64(1), inst)
	msg, _ := ctx.MessageID()
	assert.Equal(t, uint64(2), msg)
}
