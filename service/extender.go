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
	"time"

	"github.com/guardtime/ksipdu/errors"
	"github.com/guardtime/ksipdu/pdu"
)

// Extender is the abstraction of the extender service.
type Extender struct {
	*basicService
}

// NewExtender creates a new extender instance.
// At least the endpoint (OptEndpoint or OptNetClient) and the credentials (OptCredentials) must be provided.
func NewExtender(opts ...Option) (*Extender, error) {
	srv, err := newService("extender", opts...)
	if err != nil {
		return nil, err
	}
	return &Extender{basicService: srv}, nil
}

// Extend sends an extension request for the aggregation time and returns the validated response. A zero pubTime
// extends to the head of the calendar.
func (e *Extender) Extend(ctx context.Context, aggrTime, pubTime time.Time) (*pdu.ExtResp, error) {
	if e == nil || e.basicService == nil {
		return nil, errors.New(errors.KsiInvalidArgumentError)
	}

	var resp *pdu.ExtResp
	err := e.send(ctx, "extend",
		func(c *pdu.RequestContext) ([]byte, error) {
			return e.factory.CreateExtensionRequest(c, aggrTime, pubTime)
		},
		func(c *pdu.RequestContext, raw []byte) (err error) {
			resp, err = e.factory.ReadExtensionResponse(c, raw)
			return err
		},
	)
	if err != nil {
		return nil, err
	}
	if err := e.pushConfig(resp.Config()); err != nil {
		return nil, err
	}
	return resp, nil
}

// Config requests the extender configuration.
func (e *Extender) Config(ctx context.Context) (*pdu.Config, error) {
	if e == nil || e.basicService == nil {
		return nil, errors.New(errors.KsiInvalidArgumentError)
	}

	var conf *pdu.Config
	err := e.send(ctx, "config",
		e.factory.CreateExtenderConfigRequest,
		func(c *pdu.RequestContext, raw []byte) (err error) {
			conf, err = e.factory.ReadExtenderConfigResponse(c, raw)
			return err
		},
	)
	if err != nil {
		return nil, err
	}
	return conf, nil
}
