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

// Package pdu implements the KSI aggregation and extension protocol data units: the message header, the request and
// response payloads, the service configuration, the PDU MAC and the version aware PDU factory.
//
// A PDU is built and read through a Factory bound to one protocol generation (see Legacy and Current). Both
// generations share the same assembly and validation algorithm, they differ only in the tag table, the presence of
// the standalone header on responses and in the bytes covered by the MAC.
package pdu

import (
	"fmt"
	"slices"
	"time"

	"github.com/guardtime/ksipdu/errors"
	"github.com/guardtime/ksipdu/hash"
	"github.com/guardtime/ksipdu/log"
	"github.com/guardtime/ksipdu/tlv"
)

// MaxLevel is the highest aggregation tree level of a request hash.
const MaxLevel = 0xff

// Factory builds request PDUs and validates response PDUs of one protocol generation.
// A Factory is immutable and safe for concurrent use.
type Factory struct {
	v *Version
}

// NewFactory returns a PDU factory for the given protocol generation.
func NewFactory(v *Version) (*Factory, error) {
	if v == nil {
		return nil, errors.New(errors.KsiInvalidArgumentError).AppendMessage("Missing protocol version.")
	}
	return &Factory{v: v}, nil
}

// Version returns the protocol generation of the factory.
func (f *Factory) Version() *Version {
	if f == nil {
		return nil
	}
	return f.v
}

// CreateAggregationRequest returns the encoded aggregation request PDU for the hash h at the given aggregation
// tree level.
func (f *Factory) CreateAggregationRequest(ctx *RequestContext, h hash.Imprint, level int) ([]byte, error) {
	if f == nil || ctx == nil {
		return nil, errors.New(errors.KsiInvalidArgumentError).AppendMessage("Missing request context.")
	}
	if !h.IsValid() {
		return nil, errors.New(errors.KsiInvalidArgumentError).AppendMessage("Invalid request hash.")
	}
	if level < 0 || level > MaxLevel {
		return nil, errors.New(errors.KsiInvalidArgumentError).
			AppendMessage(fmt.Sprintf("Aggregation level must be in range [0..%d]: %d.", MaxLevel, level))
	}

	req := &AggrReq{requestID: ctx.requestID, requestHash: h, level: uint8(level)}
	payload, err := req.encode(f.v.aggrReqPayload)
	if err != nil {
		return nil, errors.KsiErr(err).AppendMessage("Unable to encode aggregation request payload.")
	}
	return f.assemble(ctx, f.v.aggrReqPdu, payload)
}

// CreateExtensionRequest returns the encoded extension request PDU. A zero pubTime requests extension to the head
// of the calendar.
func (f *Factory) CreateExtensionRequest(ctx *RequestContext, aggrTime, pubTime time.Time) ([]byte, error) {
	if f == nil || ctx == nil {
		return nil, errors.New(errors.KsiInvalidArgumentError).AppendMessage("Missing request context.")
	}
	if aggrTime.IsZero() {
		return nil, errors.New(errors.KsiInvalidArgumentError).AppendMessage("Missing aggregation time.")
	}

	req := &ExtReq{requestID: ctx.requestID, aggrTime: aggrTime}
	if !pubTime.IsZero() {
		if aggrTime.After(pubTime) {
			return nil, errors.New(errors.KsiExtendNoSuitablePublication).
				AppendMessage("There is no suitable publication yet.").
				AppendMessage(fmt.Sprintf("Aggregation time %d is after publication time %d.",
					aggrTime.Unix(), pubTime.Unix()))
		}
		req.pubTime = &pubTime
	}
	payload, err := req.encode(f.v.extReqPayload)
	if err != nil {
		return nil, errors.KsiErr(err).AppendMessage("Unable to encode extension request payload.")
	}
	return f.assemble(ctx, f.v.extReqPdu, payload)
}

// CreateAggregatorConfigRequest returns the encoded aggregator configuration request PDU.
func (f *Factory) CreateAggregatorConfigRequest(ctx *RequestContext) ([]byte, error) {
	return f.createConfigRequest(ctx, aggregator)
}

// CreateExtenderConfigRequest returns the encoded extender configuration request PDU.
func (f *Factory) CreateExtenderConfigRequest(ctx *RequestContext) ([]byte, error) {
	return f.createConfigRequest(ctx, extender)
}

func (f *Factory) createConfigRequest(ctx *RequestContext, s service) ([]byte, error) {
	if f == nil || ctx == nil {
		return nil, errors.New(errors.KsiInvalidArgumentError).AppendMessage("Missing request context.")
	}
	if !f.v.SupportsConfig() {
		return nil, errors.New(errors.KsiNotImplemented).
			AppendMessage(fmt.Sprintf("The %s protocol has no %s configuration request.", f.v, s))
	}
	payload, err := tlv.ConstructNested(f.v.configPayload, nil)
	if err != nil {
		return nil, err
	}
	return f.assemble(ctx, f.v.pduTags(s).req, payload)
}

// assemble wraps the payload into a PDU with the header of the context and appends the MAC.
func (f *Factory) assemble(ctx *RequestContext, pduTag uint16, payload *tlv.Tlv) ([]byte, error) {
	creds := ctx.creds
	if creds == nil {
		return nil, errors.New(errors.KsiInvalidArgumentError).AppendMessage("Missing credentials.")
	}
	alg := creds.HmacAlgorithm()
	if !alg.Registered() {
		return nil, errors.New(errors.KsiUnknownHashAlgorithm).
			AppendMessage(fmt.Sprintf("HMAC algorithm is not supported: %d.", alg))
	}

	hdr, err := ctx.header()
	if err != nil {
		return nil, err
	}
	hdrTlv, err := hdr.Encode()
	if err != nil {
		return nil, errors.KsiErr(err).AppendMessage("Unable to encode PDU header.")
	}

	var mac hash.Imprint
	switch f.v.mac {
	case macHeaderPayload:
		if mac, err = ComputeMAC(alg, creds.LoginKey(), hdrTlv.Bytes(), payload.Bytes()); err != nil {
			return nil, errors.KsiErr(err).AppendMessage("Unable to compute PDU MAC.")
		}
	case macPduPrefix:
		draft, err := f.wrap(pduTag, hdrTlv, payload, alg.ZeroImprint())
		if err != nil {
			return nil, err
		}
		if mac, err = ComputePduMAC(alg, creds.LoginKey(), draft.Bytes()); err != nil {
			return nil, errors.KsiErr(err).AppendMessage("Unable to compute PDU MAC.")
		}
	}

	pdu, err := f.wrap(pduTag, hdrTlv, payload, mac)
	if err != nil {
		return nil, err
	}
	log.Debug(fmt.Sprintf("Request PDU (%s):\n%s", f.v, pdu))
	return pdu.Bytes(), nil
}

func (f *Factory) wrap(pduTag uint16, hdr, payload *tlv.Tlv, mac hash.Imprint) (*tlv.Tlv, error) {
	macTlv, err := tlv.ConstructImprint(tagMac, mac)
	if err != nil {
		return nil, errors.KsiErr(err).AppendMessage("Unable to encode PDU MAC.")
	}
	pdu, err := tlv.ConstructNested(pduTag, []*tlv.Tlv{hdr, payload, macTlv})
	if err != nil {
		return nil, errors.KsiErr(err).AppendMessage("Unable to encode PDU.")
	}
	return pdu, nil
}

// ReadAggregationResponse validates the aggregation response PDU and returns its payload.
func (f *Factory) ReadAggregationResponse(ctx *RequestContext, raw []byte) (*AggrResp, error) {
	in, err := f.read(ctx, raw, aggregator, false)
	if err != nil {
		return nil, err
	}
	resp, err := f.v.parseAggrResp(in.payload)
	if err != nil {
		return nil, errors.KsiErr(err).AppendMessage("Unable to read aggregation response payload.")
	}
	if err := checkStatus(aggregator, resp.status, resp.errorMsg); err != nil {
		return nil, err
	}
	if err := correlate(ctx, resp.requestID); err != nil {
		return nil, err
	}
	resp.header, resp.config = in.header, in.config
	return resp, nil
}

// ReadExtensionResponse validates the extension response PDU and returns its payload.
func (f *Factory) ReadExtensionResponse(ctx *RequestContext, raw []byte) (*ExtResp, error) {
	in, err := f.read(ctx, raw, extender, false)
	if err != nil {
		return nil, err
	}
	resp, err := f.v.parseExtResp(in.payload)
	if err != nil {
		return nil, errors.KsiErr(err).AppendMessage("Unable to read extension response payload.")
	}
	if err := checkStatus(extender, resp.status, resp.errorMsg); err != nil {
		return nil, err
	}
	if err := correlate(ctx, resp.requestID); err != nil {
		return nil, err
	}
	resp.header, resp.config = in.header, in.config
	return resp, nil
}

// ReadAggregatorConfigResponse validates the aggregator configuration response PDU and returns the configuration.
func (f *Factory) ReadAggregatorConfigResponse(ctx *RequestContext, raw []byte) (*Config, error) {
	return f.readConfig(ctx, raw, aggregator)
}

// ReadExtenderConfigResponse validates the extender configuration response PDU and returns the configuration.
func (f *Factory) ReadExtenderConfigResponse(ctx *RequestContext, raw []byte) (*Config, error) {
	return f.readConfig(ctx, raw, extender)
}

func (f *Factory) readConfig(ctx *RequestContext, raw []byte, s service) (*Config, error) {
	if f != nil && !f.v.SupportsConfig() {
		return nil, errors.New(errors.KsiNotImplemented).
			AppendMessage(fmt.Sprintf("The %s protocol has no %s configuration response.", f.v, s))
	}
	in, err := f.read(ctx, raw, s, true)
	if err != nil {
		return nil, err
	}
	return in.config, nil
}

// inbound is a response PDU that passed the structural and the MAC checks.
type inbound struct {
	header  *Header
	payload *tlv.Tlv
	config  *Config
}

// read performs the service independent part of the response validation:
//  1. a single pass over the PDU children; an error payload fails immediately with the server error, a second
//     occurrence of any captured element fails with KsiTlvDuplicate, unknown children follow the critical flag rule;
//  2. the header must be present if the generation requires it;
//  3. the MAC must be present;
//  4. the MAC must verify;
//  5. the domain payload must be present (the configuration payload if wantConfig is set).
func (f *Factory) read(ctx *RequestContext, raw []byte, s service, wantConfig bool) (*inbound, error) {
	if f == nil || ctx == nil {
		return nil, errors.New(errors.KsiInvalidArgumentError).AppendMessage("Missing request context.")
	}
	if ctx.creds == nil {
		return nil, errors.New(errors.KsiInvalidArgumentError).AppendMessage("Missing credentials.")
	}
	if len(raw) == 0 {
		return nil, errors.New(errors.KsiInvalidArgumentError).AppendMessage("Empty response PDU.")
	}

	pdu, err := tlv.Parse(raw)
	if err != nil {
		return nil, errors.KsiErr(err).AppendMessage(fmt.Sprintf("Unable to parse %s response PDU.", s))
	}
	log.Debug(fmt.Sprintf("Response PDU (%s):\n%s", f.v, pdu))

	tags := f.v.pduTags(s)
	if pdu.Tag() != tags.resp {
		return nil, errors.New(errors.KsiInvalidFormatError).
			AppendMessage(fmt.Sprintf("Unexpected %s response PDU TLV[0x%x], expected TLV[0x%x].", s, pdu.Tag(), tags.resp))
	}
	children, err := pdu.Nested()
	if err != nil {
		return nil, errors.KsiErr(err).AppendMessage(fmt.Sprintf("Unable to parse %s response PDU.", s))
	}

	var (
		hdrTlv, payload, macTlv, cfgTlv *tlv.Tlv
		// Domain payload accompanying a configuration response.
		domain  *tlv.Tlv
		macLast bool
	)
	domainDst := &payload
	if wantConfig {
		domainDst = &domain
	}
	capture := func(dst **tlv.Tlv, c *tlv.Tlv, name string) error {
		if *dst != nil {
			return errors.New(errors.KsiTlvDuplicate).
				AppendMessage(fmt.Sprintf("Duplicate %s TLV[0x%x] in %s response PDU.", name, c.Tag(), s))
		}
		*dst = c
		return nil
	}
	for i, c := range children {
		switch tag := c.Tag(); {
		case tag == tags.errPayload:
			return nil, s.errorPayload(c)
		case tag == tags.respPayload:
			err = capture(domainDst, c, "payload")
		case tag == tagHeader:
			err = capture(&hdrTlv, c, "header")
		case tag == tagMac:
			err = capture(&macTlv, c, "MAC")
			macLast = i == len(children)-1
		case f.v.configPayload != 0 && tag == f.v.configPayload:
			err = capture(&cfgTlv, c, "config")
		case s == aggregator && slices.Contains(f.v.aggrIgnored, tag):
			// Acknowledgment, not used by the client.
		case c.NonCritical():
		default:
			return nil, errors.New(errors.KsiTlvUnknownCritical).
				AppendMessage(fmt.Sprintf("Unknown critical TLV[0x%x] in %s response PDU.", tag, s))
		}
		if err != nil {
			return nil, err
		}
	}

	if f.v.headerRequired && hdrTlv == nil {
		return nil, errors.New(errors.KsiPduMissingHeader).
			AppendMessage(fmt.Sprintf("Missing header in %s response PDU.", s))
	}
	if macTlv == nil {
		return nil, errors.New(errors.KsiPduMissingMac).
			AppendMessage(fmt.Sprintf("Missing MAC in %s response PDU.", s))
	}
	if wantConfig {
		payload = cfgTlv
	}
	if err := f.verify(ctx.creds, pdu, hdrTlv, payload, macTlv, macLast); err != nil {
		return nil, err
	}

	in := &inbound{payload: payload}
	if hdrTlv != nil {
		if in.header, err = ParseHeader(hdrTlv); err != nil {
			return nil, errors.KsiErr(err).AppendMessage(fmt.Sprintf("Unable to read %s response header.", s))
		}
	}
	if payload == nil {
		return nil, errors.New(errors.KsiPduMissingPayload).
			AppendMessage(fmt.Sprintf("Missing payload in %s response PDU.", s))
	}
	if cfgTlv != nil {
		if in.config, err = parseConfig(cfgTlv); err != nil {
			return nil, errors.KsiErr(err).AppendMessage(fmt.Sprintf("Unable to read %s configuration.", s))
		}
	}
	return in, nil
}

func (f *Factory) verify(creds Credentials, pdu, hdr, payload, macTlv *tlv.Tlv, macLast bool) error {
	mac, err := macTlv.Imprint()
	if err != nil {
		return macFailure()
	}
	alg := creds.HmacAlgorithm()
	if mac.Algorithm() != alg {
		return errors.New(errors.KsiHmacMismatch).
			AppendMessage(fmt.Sprintf("MAC algorithm mismatch: expected %s, received %s.", alg, mac.Algorithm()))
	}

	switch f.v.mac {
	case macHeaderPayload:
		return VerifyMAC(mac, alg, creds.LoginKey(), hdr.Bytes(), payload.Bytes())
	case macPduPrefix:
		if !macLast {
			return errors.New(errors.KsiHmacMismatch).AppendMessage("MAC is not the last element of the PDU.")
		}
		return VerifyPduMAC(mac, alg, creds.LoginKey(), pdu.Bytes())
	}
	return macFailure()
}

func checkStatus(s service, status *uint64, msg *string) error {
	if status == nil || *status == 0 {
		return nil
	}
	var text string
	if msg != nil {
		text = *msg
	}
	return s.serverError(*status, text)
}

func correlate(ctx *RequestContext, received uint64) error {
	if sent, ok := ctx.RequestID(); ok && sent != received {
		return errors.New(errors.KsiRequestIdMismatch).
			AppendMessage(fmt.Sprintf("Request IDs do not match, sent '%d' received '%d'.", sent, received))
	}
	return nil
}
