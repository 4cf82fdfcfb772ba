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
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardtime/ksipdu/errors"
)

func TestUnitHashFuncId(t *testing.T) {
	for alg, id := range map[Algorithm]byte{
		SHA1: 0x00, SHA2_256: 0x01, RIPEMD160: 0x02, SHA2_384: 0x04, SHA2_512: 0x05,
		SHA3_224: 0x07, SHA3_256: 0x08, SHA3_384: 0x09, SHA3_512: 0x0a, SM3: 0x0b,
	} {
		assert.Equal(t, Algorithm(id), alg)
		assert.True(t, alg.Defined(), alg.String())
	}
	assert.False(t, Algorithm(0x03).Defined())
	assert.False(t, SHA_NA.Defined())
}

func TestUnitDefaultRegistered(t *testing.T) {
	for _, alg := range []Algorithm{SHA1, SHA2_256, RIPEMD160, SHA2_384, SHA2_512} {
		assert.True(t, alg.Registered(), alg.String())
	}
	assert.False(t, SM3.Registered())
	assert.False(t, SHA1.Trusted())
	assert.True(t, SHA2_256.Trusted())
	assert.Equal(t, []Algorithm{SHA1, SHA2_256, RIPEMD160, SHA2_384, SHA2_512}, ListSupported()[:5])
}

func TestUnitRegisterSHA3(t *testing.T) {
	RegisterSHA3()
	hsr, err := SHA3_256.New()
	require.NoError(t, err)

	_, err = hsr.Write([]byte(""))
	require.NoError(t, err)
	imprint, err := hsr.Imprint()
	require.NoError(t, err)
	assert.Equal(t, "a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a", hex.EncodeToString(imprint.Digest()))
}

func TestUnitRegisterUnknownPanics(t *testing.T) {
	assert.Panics(t, func() { RegisterHash(Algorithm(0x55), nil) })
}

func TestUnitByName(t *testing.T) {
	for name, expected := range map[string]Algorithm{
		"sha-256":    SHA2_256,
		"SHA2":       SHA2_256,
		"default":    SHA2_256,
		"ripemd-160": RIPEMD160,
		"sha512":     SHA2_512,
		"sha3-384":   SHA3_384,
		"sm3":        SM3,
	} {
		alg, err := ByName(name)
		require.NoError(t, err, name)
		assert.Equal(t, expected, alg, name)
	}

	alg, err := ByName("md5")
	assert.Equal(t, SHA_NA, alg)
	assert.Equal(t, errors.KsiUnknownHashAlgorithm, errors.KsiErr(err).Code())
}

func TestUnitHasherNotRegistered(t *testing.T) {
	_, err := SM3.New()
	assert.Equal(t, errors.KsiUnknownHashAlgorithm, errors.KsiErr(err).Code())

	_, err = Algorithm(0x55).New()
	assert.Equal(t, errors.KsiUnknownHashAlgorithm, errors.KsiErr(err).Code())
}

func TestUnitHasherCompute(t *testing.T) {
	hsr, err := SHA2_256.New()
	require.NoError(t, err)
	assert.Equal(t, 32, hsr.Size())

	_, err = hsr.Write([]byte("Hello "))
	require.NoError(t, err)
	_, err = hsr.Write([]byte("World!"))
	require.NoError(t, err)

	imprint, err := hsr.Imprint()
	require.NoError(t, err)
	assert.Equal(t, "SHA-256:7f83b1657ff1fc53b92dc18148a1d65dfc2d4b1fa3d677284addd200126d9069", imprint.String())

	hsr.Reset()
	imprint, err = hsr.Imprint()
	require.NoError(t, err)
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", hex.EncodeToString(imprint.Digest()))
}

func TestUnitNotInitializedHasher(t *testing.T) {
	var nilHasher *DataHasher
	n, err := nilHasher.Write([]byte{0x32})
	assert.Error(t, err)
	assert.Equal(t, -1, n)
	_, err = nilHasher.Imprint()
	assert.Error(t, err)
	assert.Equal(t, -1, nilHasher.Size())
	nilHasher.Reset()

	var empty DataHasher
	n, err = empty.Write([]byte{0x32})
	assert.Error(t, err)
	assert.Equal(t, -1, n)
	empty.Reset()
}

func TestUnitZeroImprint(t *testing.T) {
	zero := SHA2_256.ZeroImprint()
	assert.Len(t, zero, 33)
	assert.Equal(t, byte(SHA2_256), zero[0])
	assert.True(t, zero.IsValid())
	assert.Nil(t, SHA_NA.ZeroImprint())
}
