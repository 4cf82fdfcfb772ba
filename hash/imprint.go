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
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"github.com/guardtime/ksipdu/errors"
)

// Imprint represents a hash value and consists of a one-octet hash function identifier concatenated with
// the hash value itself.
type Imprint []byte

// NewImprint wraps the digest into an imprint of the given algorithm.
//
// Possible return errors:
//   - KsiUnknownHashAlgorithm error in case the algorithm is not defined;
//   - KsiInvalidFormatError error in case the length of the digest does not match the algorithm.
func NewImprint(a Algorithm, digest []byte) (Imprint, error) {
	if !a.Defined() {
		return nil, errors.New(errors.KsiUnknownHashAlgorithm).
			AppendMessage(fmt.Sprintf("Hash algorithm is not supported: %d.", a))
	}
	if a.Size() != len(digest) {
		return nil, errors.New(errors.KsiInvalidFormatError).
			AppendMessage(fmt.Sprintf("Digest length mismatch: expected %d, got %d.", a.Size(), len(digest)))
	}
	tmp := make(Imprint, 1+len(digest))
	tmp[0] = byte(a)
	copy(tmp[1:], digest)
	return tmp, nil
}

// ParseImprint parses the textual representation "<algorithm>:<hex digest>" as returned by (Imprint).String().
func ParseImprint(s string) (Imprint, error) {
	name, digestHex, ok := strings.Cut(s, ":")
	if !ok {
		return nil, errors.New(errors.KsiInvalidArgumentError).
			AppendMessage(fmt.Sprintf("Imprint must be in form <algorithm>:<hex>, got: %q.", s))
	}
	alg, err := ByName(name)
	if err != nil {
		return nil, err
	}
	digest, err := hex.DecodeString(digestHex)
	if err != nil {
		return nil, errors.New(errors.KsiInvalidArgumentError).SetExtError(err).
			AppendMessage("Imprint digest is not a valid hex string.")
	}
	return NewImprint(alg, digest)
}

// String implements Stringer interface.
// Returns empty string in case of invalid imprint.
func (i Imprint) String() string {
	if !i.IsValid() {
		return ""
	}
	return Algorithm(i[0]).String() + ":" + hex.EncodeToString(i[1:])
}

// IsValid validates imprint internal consistency.
func (i Imprint) IsValid() bool {
	return len(i) != 0 &&
		Algorithm(i[0]).Defined() &&
		len(i) == Algorithm(i[0]).Size()+1
}

// Algorithm returns the hash function used to generate the digest.
// Returns SHA_NA in case the imprint is not valid.
func (i Imprint) Algorithm() Algorithm {
	if !i.IsValid() {
		return SHA_NA
	}
	return Algorithm(i[0])
}

// Digest returns the binary hash value.
// Returns nil in case the imprint is not valid.
func (i Imprint) Digest() []byte {
	if !i.IsValid() {
		return nil
	}
	return i[1:]
}

// Equal returns true if, and only if, the two imprints are equal. The time taken is a function of the length of
// the slices and is independent of the contents.
func Equal(l, r Imprint) bool {
	return subtle.ConstantTimeCompare(l, r) == 1
}

// DataHasher accumulates data and produces its imprint.
type DataHasher struct {
	alg Algorithm
	h   hash.Hash
}

// New returns a hasher of the algorithm. Fails with KsiUnknownHashAlgorithm if no hash function is registered.
func (a Algorithm) New() (*DataHasher, error) {
	h, err := a.HashFunc()
	if err != nil {
		return nil, err
	}
	return &DataHasher{alg: a, h: h}, nil
}

// Sum returns the imprint of the concatenated parts.
func (a Algorithm) Sum(parts ...[]byte) (Imprint, error) {
	hsr, err := a.New()
	if err != nil {
		return nil, err
	}
	for _, p := range parts {
		if _, err := hsr.Write(p); err != nil {
			return nil, err
		}
	}
	return hsr.Imprint()
}

func (h *DataHasher) ready() error {
	if h == nil || h.h == nil {
		return errors.New(errors.KsiInvalidStateError).AppendMessage("Hasher is not initialized.")
	}
	return nil
}

// Write adds data to the running hash. The count is -1 if the hasher is not initialized.
func (h *DataHasher) Write(p []byte) (int, error) {
	if err := h.ready(); err != nil {
		return -1, err
	}
	n, err := h.h.Write(p)
	if err != nil {
		return n, errors.New(errors.KsiCryptoFailure).SetExtError(err)
	}
	return n, nil
}

// Imprint returns the imprint of the data written so far. The running hash is not changed.
func (h *DataHasher) Imprint() (Imprint, error) {
	if err := h.ready(); err != nil {
		return nil, err
	}
	return NewImprint(h.alg, h.h.Sum(nil))
}

// Reset drops the data written so far.
func (h *DataHasher) Reset() {
	if h.ready() == nil {
		h.h.Reset()
	}
}

// Size is the digest length, or -1 if the hasher is not initialized.
func (h *DataHasher) Size() int {
	if h.ready() != nil {
		return -1
	}
	return h.h.Size()
}
