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
	"fmt"

	"github.com/guardtime/ksipdu/errors"
	"github.com/guardtime/ksipdu/tlv"
)

// service distinguishes the status code tables of the aggregator and the extender.
type service byte

const (
	aggregator service = iota
	extender
)

func (s service) String() string {
	if s == extender {
		return "extender"
	}
	return "aggregator"
}

var errPayloadSchema = tlv.NewSchema("error payload",
	tlv.Field{Tag: tagErrStatus, Name: "status", Required: true},
	tlv.Field{Tag: tagErrMessage, Name: "error message"},
)

// serverError maps the server status to the error reported to the caller. The status itself is kept as the
// extended error code and the server message as the extended message.
func (s service) serverError(status uint64, msg string) *errors.KsiError {
	var code errors.ErrorCode
	switch status {
	case 0x0101:
		code = errors.KsiServiceInvalidRequest
	case 0x0102:
		code = errors.KsiServiceAuthenticationFailure
	case 0x0103:
		code = errors.KsiServiceInvalidPayload
	case 0x0200:
		code = errors.KsiServiceInternalError
	case 0x0300:
		code = errors.KsiServiceUpstreamError
	case 0x0301:
		code = errors.KsiServiceUpstreamTimeout
	default:
		if s == aggregator {
			code = aggregatorStatus(status)
		} else {
			code = extenderStatus(status)
		}
	}
	return errors.New(code).
		SetExtErrorCode(int(status)).
		SetExtMessage(msg).
		AppendMessage(fmt.Sprintf("The %s returned error status 0x%x: %s", s, status, msg))
}

func aggregatorStatus(status uint64) errors.ErrorCode {
	switch status {
	case 0x0104:
		return errors.KsiServiceAggrRequestTooLarge
	case 0x0105:
		return errors.KsiServiceAggrRequestOverQuota
	case 0x0106:
		return errors.KsiServiceAggrTooManyRequests
	case 0x0107:
		return errors.KsiServiceAggrInputTooLong
	}
	return errors.KsiServiceUnknownError
}

func extenderStatus(status uint64) errors.ErrorCode {
	switch status {
	case 0x0104:
		return errors.KsiServiceExtenderInvalidTimeRange
	case 0x0105:
		return errors.KsiServiceExtenderRequestTimeTooOld
	case 0x0106:
		return errors.KsiServiceExtenderRequestTimeTooNew
	case 0x0107:
		return errors.KsiServiceExtenderRequestTimeInFuture
	case 0x0201:
		return errors.KsiServiceExtenderDatabaseMissing
	case 0x0202:
		return errors.KsiServiceExtenderDatabaseCorrupt
	}
	return errors.KsiServiceUnknownError
}

// errorPayload converts the reduced error payload into the server error.
func (s service) errorPayload(t *tlv.Tlv) error {
	rec, err := t.Read(errPayloadSchema)
	if err != nil {
		return errors.KsiErr(err).AppendMessage(fmt.Sprintf("Unable to read the %s error payload.", s))
	}
	status, err := rec.Uint64(tagErrStatus)
	if err != nil {
		return err
	}
	msg, err := rec.Utf8(tagErrMessage)
	if err != nil {
		return err
	}
	var text string
	if msg != nil {
		text = *msg
	}
	return s.serverError(*status, text)
}
