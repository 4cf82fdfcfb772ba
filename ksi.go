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

/*
Package ksipdu implements the client side of the KSI aggregation and extension protocols: the TLV encoding, the
protocol data units of both protocol generations, the PDU MAC and the service clients built on top of them.

Note that the following tutorial is incremental, meaning the parameter names used in example code blocks are defined
in previous example blocks.


Logging

The subpackage log defines logging interface type log.Logger and a zap backed implementation writing console lines
to an io.Writer.

By default logging is disabled. In order to enable logging of the API internals, an implementation to a logger has
to be registered in the log package, e.g. setting default logger:

	// Create an instance of default logger. Write log output to stdout.
	logger, err := log.New(log.DEBUG, nil)
	if err != nil {
		return err
	}
	// Register the logger
	log.SetLogger(logger)

In order to disable logging, set logger to nil.


Errors

Every method of the API returns an error parameter alongside with a value (if applicable). All returned errors are
of type errors.KsiError. For troubleshooting, the KsiError provides following information:
	error code     - for error verification and recovery logic;
	error kind     - the category of the code (validation, protocol, authentication, server, correlation, system);
	error message  - a stack of human readable descriptive messages;
	stack trace    - the stack trace of the error registration;
	extended error - the server status and message, or an error from e.g. std library.

Callers are expected to branch on the kind:
	switch errors.KindOf(err) {
	case errors.KindServer:
		// The request was rejected, see errors.KsiErr(err).ExtCode() for the server status.
	case errors.KindSystem:
		// Network or environment failure, the request may be retried.
	}


Protocol generation

Two wire generations are supported, pdu.Legacy and pdu.Current. They differ in the tag table, in the presence of
the header on responses and in the bytes covered by the MAC. Everything else is selected by the factory:
	factory, err := pdu.NewFactory(pdu.Current)


Request context

Every exchange has its own request context holding the credentials and the identifiers. The identifiers are
drawn from a provider shared by the whole process:
	ids, err := ident.New()
	creds, err := pdu.NewCredentials("anon", []byte("anon"), hash.SHA2_256)
	ctx, err := pdu.NewRequestContext(creds, pdu.CtxOptProvider(ids))


Building and reading PDUs

	req, err := factory.CreateAggregationRequest(ctx, imprint, 0)
	...
	resp, err := factory.ReadAggregationResponse(ctx, raw)

The response is only returned after it has been fully validated: the header and the MAC are present and valid, the
server status is 0 and the request ID matches the one in the context.


Services

The service package takes care of the above for live exchanges:
	signer, err := service.NewSigner(
		service.OptEndpoint("http://signingservice.example.com:8080/gt-signingservice"),
		service.OptCredentials(creds),
		service.OptProtocol(pdu.Current),
		service.OptIdentifierProvider(ids),
	)
	resp, err := signer.Sign(context.Background(), imprint, 0)

Many hashes can be signed with a single request by aggregating them locally first (see package treebuilder):
	tree, err := treebuilder.New()
	err = tree.AddNode(first)
	err = tree.AddNode(second)
	root, level, err := tree.Aggregate()
	resp, err := signer.Sign(context.Background(), root, int(level))

Extending works alike:
	extender, err := service.NewExtender(...)
	resp, err := extender.Extend(context.Background(), aggrTime, pubTime)
*/
package ksipdu
