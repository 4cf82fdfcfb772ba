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

package hash

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardtime/ksipdu/errors"
)

var testDigest = []byte{
	0xc4, 0xbb, 0xcb, 0x1f, 0xbe, 0xc9, 0x9d, 0x65, 0xbf, 0x59, 0xd8, 0x5c, 0x8c, 0xb6, 0x2e, 0xe2,
	0xdb, 0x96, 0x3f, 0x0f, 0xe1, 0x06, 0xf4, 0x83, 0xd9, 0xaf, 0xa7, 0x3b, 0xd4, 0xe3, 0x9a, 0x8a,
}

func TestUnitImprintIsValid(t *testing.T) {
	valid := append(Imprint{0x01}, testDigest...)
	assert.True(t, valid.IsValid())
	assert.Equal(t, SHA2_256, valid.Algorithm())
	assert.Equal(t, testDigest, valid.Digest())

	for title, imprint := range map[string]Imprint{
		"undefined algorithm": append(Imprint{0xff}, testDigest...),
		"longer digest":       append(append(Imprint{0x01}, testDigest...), 0x00),
		"shorter digest":      append(Imprint{0x01}, testDigest[:31]...),
		"empty":               {},
	} {
		assert.False(t, imprint.IsValid(), title)
		assert.Equal(t, SHA_NA, imprint.Algorithm(), title)
		assert.Nil(t, imprint.Digest(), title)
		assert.Equal(t, "", imprint.String(), title)
	}
}

func TestUnitNewImprint(t *testing.T) {
	imprint, err := NewImprint(SHA2_256, testDigest)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(append([]byte{0x01}, testDigest...), imprint))

	_, err = NewImprint(SHA2_512, testDigest)
	assert.Equal(t, errors.KsiInvalidFormatError, errors.KsiErr(err).Code())

	_, err = NewImprint(Algorithm(0x42), testDigest)
	assert.Equal(t, errors.KsiUnknownHashAlgorithm, errors.KsiErr(err).Code())
}

func TestUnitParseImprint(t *testing.T) {
	imprint, err := NewImprint(SHA2_256, testDigest)
	require.NoError(t, err)

	parsed, err := ParseImprint(imprint.String())
	require.NoError(t, err)
	assert.True(t, Equal(imprint, parsed))

	parsed, err = ParseImprint("sha256:c4bbcb1fbec99d65bf59d85c8cb62ee2db963f0fe106f483d9afa73bd4e39a8a")
	require.NoError(t, err)
	assert.True(t, Equal(imprint, parsed))

	for _, bad := range []string{"c4bbcb", "sha256:zz", "md5:00", "sha256:c4bb"} {
		_, err = ParseImprint(bad)
		assert.Error(t, err, bad)
	}
}

func TestUnitImprintEqual(t *testing.T) {
	a := append(Imprint{0x01}, testDigest...)
	b := append(Imprint{0x01}, testDigest...)
	assert.True(t, Equal(a, b))

	b[len(b)-1] ^= 0x01
	assert.False(t, Equal(a, b))
	assert.False(t, Equal(a, a[:10]))
}

func TestUnitAlgorithmSum(t *testing.T) {
	imprint, err := SHA2_256.Sum([]byte("Hello "), []byte("World!"))
	require.NoError(t, err)
	assert.Equal(t, "SHA-256:7f83b1657ff1fc53b92dc18148a1d65dfc2d4b1fa3d677284addd200126d9069", imprint.String())

	_, err = SM3.Sum([]byte("data"))
	assert.Equal(t, errors.KsiUnknownHashAlgorithm, errors.KsiErr(err).Code())
}
