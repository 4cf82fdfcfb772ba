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

// Package service implements the KSI aggregator (Signer) and extender (Extender) clients.
//
// A service binds together the credentials, the PDU factory of the selected protocol generation, the identifier
// provider and a network client. Every call builds a fresh request context, sends the request PDU and validates the
// response PDU against that context.
//
// Example:
//
//	signer, err := service.NewSigner(
//		service.OptEndpoint("http://signingservice.example.com:8080/gt-signingservice"),
//		service.OptCredentials(creds),
//	)
//	if err != nil {
//		return err
//	}
//	resp, err := signer.Sign(ctx, imprint, 0)
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/guardtime/ksipdu/errors"
	"github.com/guardtime/ksipdu/ident"
	"github.com/guardtime/ksipdu/log"
	"github.com/guardtime/ksipdu/net"
	"github.com/guardtime/ksipdu/pdu"
)

// ConfigListener is a server configuration listener. It is invoked with the configuration the server pushes along
// with a response. Note that the implementation must be thread safe.
type ConfigListener func(*pdu.Config) error

// basicService is the abstraction of the KSI service.
type basicService struct {
	name string

	// Service endpoint.
	netClient net.Client
	// PDU factory of the selected protocol generation.
	factory *pdu.Factory
	creds   pdu.Credentials
	ids     pdu.IdentifierProvider
	// Server push configuration listener callback.
	confListener ConfigListener
}

// Option is a functional option setter of Signer and Extender.
type Option func(*basicService) error

func newService(name string, opts ...Option) (*basicService, error) {
	if len(opts) == 0 {
		return nil, errors.New(errors.KsiInvalidArgumentError).AppendMessage("Missing service options.")
	}

	factory, err := pdu.NewFactory(pdu.Current)
	if err != nil {
		return nil, err
	}
	s := &basicService{name: name, factory: factory}

	for _, optSetter := range opts {
		if optSetter == nil {
			return nil, errors.New(errors.KsiInvalidArgumentError).AppendMessage("Provided option is nil.")
		}
		if err := optSetter(s); err != nil {
			return nil, errors.KsiErr(err).AppendMessage("Unable to initialize new service.")
		}
	}

	if s.netClient == nil {
		return nil, errors.New(errors.KsiInvalidStateError).AppendMessage("Network client has not been created.")
	}
	if s.creds == nil {
		return nil, errors.New(errors.KsiInvalidStateError).AppendMessage("Service credentials are not set.")
	}
	if s.ids == nil {
		p, err := ident.New()
		if err != nil {
			return nil, err
		}
		s.ids = p
	}
	return s, nil
}

// OptEndpoint is configuration method for the service endpoint. The uri scheme selects the transport, see
// net.NewClient() for the supported formats.
func OptEndpoint(uri string, opts ...net.ClientOpt) Option {
	return func(s *basicService) error {
		client, err := net.NewClient(uri, opts...)
		if err != nil {
			return err
		}
		s.netClient = client
		return nil
	}
}

// OptNetClient is setter for the custom network client which implements the net.Client interface.
// For alternative, see OptEndpoint.
func OptNetClient(client net.Client) Option {
	return func(s *basicService) error {
		if client == nil {
			return errors.New(errors.KsiInvalidArgumentError).AppendMessage("Missing network client.")
		}
		s.netClient = client
		return nil
	}
}

// OptCredentials sets the login ID, the key and the HMAC algorithm used for the PDU MAC.
func OptCredentials(creds pdu.Credentials) Option {
	return func(s *basicService) error {
		if creds == nil {
			return errors.New(errors.KsiInvalidArgumentError).AppendMessage("Missing credentials.")
		}
		s.creds = creds
		return nil
	}
}

// OptProtocol selects the protocol generation. Defaults to pdu.Current.
func OptProtocol(v *pdu.Version) Option {
	return func(s *basicService) error {
		f, err := pdu.NewFactory(v)
		if err != nil {
			return err
		}
		s.factory = f
		return nil
	}
}

// OptIdentifierProvider sets the source of the instance, message and request IDs. Services sharing a process should
// share the provider. By default every service gets its own ident.Provider.
func OptIdentifierProvider(p pdu.IdentifierProvider) Option {
	return func(s *basicService) error {
		if p == nil {
			return errors.New(errors.KsiInvalidArgumentError).AppendMessage("Missing identifier provider.")
		}
		s.ids = p
		return nil
	}
}

// OptConfigListener is setter for the server configuration listener.
func OptConfigListener(l ConfigListener) Option {
	return func(s *basicService) error {
		s.confListener = l
		return nil
	}
}

// Protocol returns the protocol generation of the service.
func (s *basicService) Protocol() *pdu.Version {
	if s == nil {
		return nil
	}
	return s.factory.Version()
}

type (
	buildFunc func(*pdu.RequestContext) ([]byte, error)
	readFunc  func(*pdu.RequestContext, []byte) error
)

// send builds the request in a fresh context, exchanges it over the network client and reads the response.
func (s *basicService) send(ctx context.Context, request string, build buildFunc, read readFunc) (err error) {
	if s == nil || s.netClient == nil {
		return errors.New(errors.KsiInvalidStateError).AppendMessage("Service is not initialized.")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	defer func() {
		recordRequest(s.name, request, err, time.Since(start))
	}()

	reqCtx, err := pdu.NewRequestContext(s.creds, pdu.CtxOptProvider(s.ids))
	if err != nil {
		return err
	}
	reqRaw, err := build(reqCtx)
	if err != nil {
		return err
	}

	// The KSI error payload in the response body takes precedence over the transport error. Fall back to the
	// transport error only if the body is not a valid KSI response PDU.
	respRaw, respErr := s.netClient.Receive(ctx, reqRaw)
	if respErr != nil && len(respRaw) == 0 {
		return errors.KsiErr(respErr, errors.KsiNetworkError).AppendMessage("Network client returned error.")
	}
	if err := read(reqCtx, respRaw); err != nil {
		if respErr != nil && errors.KindOf(err) != errors.KindServer {
			return errors.KsiErr(respErr, errors.KsiNetworkError).AppendMessage("Network client returned error.")
		}
		return err
	}
	if respErr != nil {
		log.Warning(fmt.Sprintf("%s %s request succeeded despite transport error: %v", s.name, request, respErr))
	}
	return nil
}

// pushConfig hands the configuration pushed along with a response over to the listener.
func (s *basicService) pushConfig(conf *pdu.Config) error {
	if conf == nil || s.confListener == nil {
		return nil
	}
	log.Debug(fmt.Sprintf("Server pushed %s configuration: %s", s.name, conf))
	if err := s.confListener(conf); err != nil {
		return errors.KsiErr(err).AppendMessage("Config listener returned error.")
	}
	return nil
}
