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

// Package hmac implements the keyed-hash message authentication code computation used to authenticate PDUs.
//
// The computed HMAC is represented as an imprint (see hash.Imprint): the algorithm identifier followed by the
// digest.
package hmac

import (
	"crypto/hmac"
	"fmt"
	"hash"

	"github.com/guardtime/ksipdu/errors"
	ksihash "github.com/guardtime/ksipdu/hash"
)

// Hasher is the message authentication computation object.
type Hasher struct {
	algo ksihash.Algorithm
	hsr  hash.Hash
}

// New returns a new HMAC hasher using the given algorithm and key.
func New(alg ksihash.Algorithm, key []byte) (h *Hasher, e error) {
	probe, err := alg.HashFunc()
	if err != nil {
		return nil, errors.KsiErr(err).AppendMessage("HMAC algorithm is not supported.")
	}
	if probe == nil {
		return nil, errors.New(errors.KsiCryptoFailure).
			AppendMessage(fmt.Sprintf("Hash function constructor of %s returned nil.", alg))
	}

	// crypto/hmac panics on misbehaving hash constructors.
	defer func() {
		if r := recover(); r != nil {
			h = nil
			e = errors.New(errors.KsiCryptoFailure).
				AppendMessage(fmt.Sprintf("Panicked during HMAC initialization: %v", r))
		}
	}()
	return &Hasher{
		algo: alg,
		hsr: hmac.New(func() hash.Hash {
			hFunc, _ := alg.HashFunc()
			return hFunc
		}, key),
	}, nil
}

// Sum is a shorthand for computing the HMAC of the concatenation of the given chunks.
func Sum(alg ksihash.Algorithm, key []byte, chunks ...[]byte) (ksihash.Imprint, error) {
	hsr, err := New(alg, key)
	if err != nil {
		return nil, err
	}
	for _, c := range chunks {
		if _, err := hsr.Write(c); err != nil {
			return nil, err
		}
	}
	return hsr.Imprint()
}

// Imprint returns the imprint of the current computation. It does not change the underlying hash state.
func (h *Hasher) Imprint() (ksihash.Imprint, error) {
	if h == nil || h.hsr == nil {
		return nil, errors.New(errors.KsiInvalidArgumentError)
	}
	imprint := make(ksihash.Imprint, 1, 1+h.hsr.Size())
	imprint[0] = byte(h.algo)
	return h.hsr.Sum(imprint), nil
}

// Write (via the embedded io.Writer interface) adds more data to the running hash.
// In case the hasher is not initialized, function returns non standard -1 as count of bytes written.
func (h *Hasher) Write(p []byte) (int, error) {
	if h == nil || h.hsr == nil {
		return -1, errors.New(errors.KsiInvalidArgumentError)
	}
	n, err := h.hsr.Write(p)
	if err != nil {
		return n, errors.New(errors.KsiCryptoFailure).SetExtError(err)
	}
	return n, nil
}

// Size returns the resulting digest length in bytes.
func (h *Hasher) Size() int {
	if h == nil || h.hsr == nil {
		return 0
	}
	return h.hsr.Size()
}

// Reset resets the hasher to its initial state.
func (h *Hasher) Reset() {
	if h == nil || h.hsr == nil {
		return
	}
	h.hsr.Reset()
}
