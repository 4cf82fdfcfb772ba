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

// Package hash implements the hash function identifiers (see Algorithm) used on the KSI wire, together with the
// imprint representation of a hash value (see Imprint).
//
// An imprint consists of a one-octet hash function identifier concatenated with the digest itself. Hash functions
// must be registered before they can be used for computation. SHA-1, SHA-2 and RIPEMD-160 are registered by default,
// the SHA-3 family can be enabled with RegisterSHA3.
package hash

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"sort"
	"strings"
	"sync"

	"golang.org/x/crypto/ripemd160"
	"golang.org/x/crypto/sha3"

	"github.com/guardtime/ksipdu/errors"
)

// Algorithm is the hash function identifier.
type Algorithm int

const (
	// SHA1 is SHA-1 algorithm. Deprecated as of 01.07.2016.
	SHA1 Algorithm = 0x00
	// SHA2_256 is SHA-256 algorithm.
	SHA2_256 Algorithm = 0x01
	// RIPEMD160 is RIPEMD-160 algorithm.
	RIPEMD160 Algorithm = 0x02
	// SHA2_384 is SHA-384 algorithm.
	SHA2_384 Algorithm = 0x04
	// SHA2_512 is SHA-512 algorithm.
	SHA2_512 Algorithm = 0x05
	// SHA3_224 is SHA3-224 algorithm. Available after RegisterSHA3.
	SHA3_224 Algorithm = 0x07
	// SHA3_256 is SHA3-256 algorithm. Available after RegisterSHA3.
	SHA3_256 Algorithm = 0x08
	// SHA3_384 is SHA3-384 algorithm. Available after RegisterSHA3.
	SHA3_384 Algorithm = 0x09
	// SHA3_512 is SHA3-512 algorithm. Available after RegisterSHA3.
	SHA3_512 Algorithm = 0x0a
	// SM3 algorithm. The implementation must be provided via RegisterHash.
	SM3 Algorithm = 0x0b

	// SHA_NA defines an invalid algorithm.
	SHA_NA Algorithm = 0x100
)

// Default is the recommended algorithm for hash and HMAC computation.
const Default = SHA2_256

type hashFuncInfo struct {
	// User registered hasher constructor.
	newHash func() hash.Hash
	// Digest bit count.
	size int
	// Underlying block bit count.
	blockSize int
	// Set for algorithms that must not be used for new computations.
	deprecated bool
	// Accepted names, the first one is canonical.
	names []string
}

var (
	hashInfoMu  sync.RWMutex
	hashInfoMap = map[Algorithm]hashFuncInfo{
		SHA1:      {sha1.New, 160, 512, true, []string{"SHA-1", "SHA1"}},
		SHA2_256:  {sha256.New, 256, 512, false, []string{"SHA-256", "SHA2-256", "SHA-2", "SHA2", "SHA256", "DEFAULT"}},
		RIPEMD160: {ripemd160.New, 160, 512, false, []string{"RIPEMD-160", "RIPEMD160"}},
		SHA2_384:  {sha512.New384, 384, 1024, false, []string{"SHA-384", "SHA384", "SHA2-384"}},
		SHA2_512:  {sha512.New, 512, 1024, false, []string{"SHA-512", "SHA512", "SHA2-512"}},
		SHA3_224:  {nil, 224, 1152, false, []string{"SHA3-224"}},
		SHA3_256:  {nil, 256, 1088, false, []string{"SHA3-256"}},
		SHA3_384:  {nil, 384, 832, false, []string{"SHA3-384"}},
		SHA3_512:  {nil, 512, 576, false, []string{"SHA3-512"}},
		SM3:       {nil, 256, 512, false, []string{"SM-3", "SM3"}},
	}
)

func lookup(a Algorithm) (hashFuncInfo, bool) {
	hashInfoMu.RLock()
	defer hashInfoMu.RUnlock()
	info, ok := hashInfoMap[a]
	return info, ok
}

// RegisterHash registers a function that returns a new instance of the given hash function.
// Panics if the algorithm is not defined.
func RegisterHash(a Algorithm, f func() hash.Hash) {
	hashInfoMu.Lock()
	defer hashInfoMu.Unlock()

	info, ok := hashInfoMap[a]
	if !ok {
		panic(fmt.Sprintf("RegisterHash() unknown hash function: %d.", a))
	}
	info.newHash = f
	hashInfoMap[a] = info
}

// RegisterSHA3 registers the SHA-3 family. The functions are not registered automatically in order to stay in sync
// with the algorithm set accepted by the KSI servers.
func RegisterSHA3() {
	RegisterHash(SHA3_224, sha3.New224)
	RegisterHash(SHA3_256, sha3.New256)
	RegisterHash(SHA3_384, sha3.New384)
	RegisterHash(SHA3_512, sha3.New512)
}

// Defined reports whether the given hash function is defined by the library.
func (a Algorithm) Defined() bool {
	_, ok := lookup(a)
	return ok
}

// Registered reports whether the hash value can be calculated using the algorithm.
func (a Algorithm) Registered() bool {
	info, ok := lookup(a)
	return ok && info.newHash != nil
}

// Trusted reports whether the algorithm may be used for new computations.
func (a Algorithm) Trusted() bool {
	info, ok := lookup(a)
	return ok && !info.deprecated
}

// String returns the canonical name of the algorithm, or empty string in case of unknown algorithm.
func (a Algorithm) String() string {
	if info, ok := lookup(a); ok {
		return info.names[0]
	}
	return ""
}

// ByName returns the hash function specified by the case insensitive name (eg. "sha-256", "sha2", "ripemd160",
// "sha3-512", "default").
// Returns KsiUnknownHashAlgorithm error in case of unrecognized name.
func ByName(name string) (Algorithm, error) {
	hashInfoMu.RLock()
	defer hashInfoMu.RUnlock()

	for algo, info := range hashInfoMap {
		for _, v := range info.names {
			if strings.EqualFold(v, name) {
				return algo, nil
			}
		}
	}
	return SHA_NA, errors.New(errors.KsiUnknownHashAlgorithm).
		AppendMessage(fmt.Sprintf("Unknown hash algorithm: %s.", name))
}

// HashFunc returns a new instance of the underlying hash function.
func (a Algorithm) HashFunc() (hash.Hash, error) {
	info, ok := lookup(a)
	if !ok {
		return nil, errors.New(errors.KsiUnknownHashAlgorithm).
			AppendMessage(fmt.Sprintf("Hash algorithm is not supported: %d.", a))
	}
	if info.newHash == nil {
		return nil, errors.New(errors.KsiUnknownHashAlgorithm).
			AppendMessage(fmt.Sprintf("Hash algorithm is not registered: %s.", a))
	}
	return info.newHash(), nil
}

// Size returns the resulting digest length in bytes.
// In case of unknown algorithm, a negative value is returned.
func (a Algorithm) Size() int {
	if info, ok := lookup(a); ok {
		return info.size >> 3
	}
	return -1
}

// BlockSize returns the size of the data block the underlying hash algorithm operates upon in bytes.
// In case of unknown algorithm, a negative value is returned.
func (a Algorithm) BlockSize() int {
	if info, ok := lookup(a); ok {
		return info.blockSize >> 3
	}
	return -1
}

// ZeroImprint returns an all zero imprint for the given algorithm, or nil for unknown algorithm.
func (a Algorithm) ZeroImprint() Imprint {
	if !a.Defined() {
		return nil
	}
	tmp := make(Imprint, 1+a.Size())
	tmp[0] = byte(a)
	return tmp
}

// ListSupported returns the registered hash functions in ascending order of identifier.
func ListSupported() []Algorithm {
	hashInfoMu.RLock()
	var tmp []Algorithm
	for algo, info := range hashInfoMap {
		if info.newHash != nil {
			tmp = append(tmp, algo)
		}
	}
	hashInfoMu.RUnlock()

	sort.Slice(tmp, func(i, j int) bool { return tmp[i] < tmp[j] })
	return tmp
}
