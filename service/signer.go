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

package service

import (
	"context"

	"github.com/guardtime/ksipdu/errors"
	"github.com/guardtime/ksipdu/hash"
	"github.com/guardtime/ksipdu/pdu"
)

// Signer is the abstraction of the aggregator service.
type Signer struct {
	*basicService
}

// NewSigner creates a new signer instance.
// At least the endpoint (OptEndpoint or OptNetClient) and the credentials (OptCredentials) must be provided.
func NewSigner(opts ...Option) (*Signer, error) {
	srv, err := newService("aggregator", opts...)
	if err != nil {
		return nil, err
	}
	return &Signer{basicService: srv}, nil
}

// Sign sends an aggregation request for the hash h at the given aggregation tree level and returns the validated
// response. A configuration pushed by the server along with the response is handed to the config listener.
func (s *Signer) Sign(ctx context.Context, h hash.Imprint, level int) (*pdu.AggrResp, error) {
	if s == nil || s.basicService == nil {
		return nil, errors.New(errors.KsiInvalidArgumentError)
	}

	var resp *pdu.AggrResp
	err := s.send(ctx, "sign",
		func(c *pdu.RequestContext) ([]byte, error) {
			return s.factory.CreateAggregationRequest(c, h, level)
		},
		func(c *pdu.RequestContext, raw []byte) (err error) {
			resp, err = s.factory.ReadAggregationResponse(c, raw)
			return err
		},
	)
	if err != nil {
		return nil, err
	}
	if err := s.pushConfig(resp.Config()); err != nil {
		return nil, err
	}
	return resp, nil
}

// Config requests the aggregator configuration.
func (s *Signer) Config(ctx context.Context) (*pdu.Config, error) {
	if s == nil || s.basicService == nil {
		return nil, errors.New(errors.KsiInvalidArgumentError)
	}

	var conf *pdu.Config
	err := s.send(ctx, "config",
		s.factory.CreateAggregatorConfigRequest,
		func(c *pdu.RequestContext, raw []byte) (err error) {
			conf, err = s.factory.ReadAggregatorConfigResponse(c, raw)
			return err
		},
	)
	if err != nil {
		return nil, err
	}
	return conf, nil
}
