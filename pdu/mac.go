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
	"encoding/hex"
	"fmt"

	"github.com/guardtime/ksipdu/errors"
	"github.com/guardtime/ksipdu/hash"
	"github.com/guardtime/ksipdu/hmac"
)

// zeroPayload stands in for the payload of a PDU that carries none.
var zeroPayload = []byte{0x00, 0x00, 0x00, 0x00}

// ComputeMAC returns the HMAC of the encoded header followed by the encoded payload. An empty payload is replaced
// by four zero octets.
func ComputeMAC(alg hash.Algorithm, key, header, payload []byte) (hash.Imprint, error) {
	if len(payload) == 0 {
		payload = zeroPayload
	}
	return hmac.Sum(alg, key, header, payload)
}

// VerifyMAC recomputes the header and payload MAC and compares it to the received one in constant time.
// All failures are reported as KsiHmacMismatch error.
func VerifyMAC(received hash.Imprint, alg hash.Algorithm, key, header, payload []byte) error {
	computed, err := ComputeMAC(alg, key, header, payload)
	if err != nil {
		return macFailure()
	}
	return compareMAC(received, computed)
}

// ComputePduMAC returns the HMAC over the PDU bytes up to (excluding) the digest of the trailing MAC element: the
// PDU header, all children preceding the MAC, the MAC element header and the algorithm octet of the MAC imprint.
// The raw PDU must end with a MAC element of the given algorithm.
func ComputePduMAC(alg hash.Algorithm, key, raw []byte) (hash.Imprint, error) {
	size := alg.Size()
	if size <= 0 || len(raw) <= size {
		return nil, errors.New(errors.KsiInvalidArgumentError).
			AppendMessage("PDU is too short to contain the MAC.")
	}
	return hmac.Sum(alg, key, raw[:len(raw)-size])
}

// VerifyPduMAC recomputes the MAC of a raw PDU (see ComputePduMAC) and compares it to the received one in
// constant time. All failures are reported as KsiHmacMismatch error.
func VerifyPduMAC(received hash.Imprint, alg hash.Algorithm, key, raw []byte) error {
	// The received imprint locates the digest at the end of the PDU.
	digestLen := len(received) - 1
	if digestLen <= 0 || len(raw) <= digestLen {
		return macFailure()
	}
	computed, err := hmac.Sum(alg, key, raw[:len(raw)-digestLen])
	if err != nil {
		return macFailure()
	}
	return compareMAC(received, computed)
}

func compareMAC(received, computed hash.Imprint) error {
	if !hash.Equal(received, computed) {
		return errors.New(errors.KsiHmacMismatch).AppendMessage(
			fmt.Sprintf("MAC mismatch: expected '%s', computed '%s'.", imprintText(received), imprintText(computed)))
	}
	return nil
}

func macFailure() error {
	return errors.New(errors.KsiHmacMismatch).AppendMessage("Unable to verify the MAC.")
}

func imprintText(i hash.Imprint) string {
	if i.IsValid() {
		return i.String()
	}
	return hex.EncodeToString(i)
}
