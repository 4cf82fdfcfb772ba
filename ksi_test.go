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

package ksipdu

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardtime/ksipdu/errors"
	"github.com/guardtime/ksipdu/hash"
	"github.com/guardtime/ksipdu/ident"
	"github.com/guardtime/ksipdu/log"
	"github.com/guardtime/ksipdu/pdu"
	"github.com/guardtime/ksipdu/service"
	"github.com/guardtime/ksipdu/test"
	"github.com/guardtime/ksipdu/test/utils/mock"
	"github.com/guardtime/ksipdu/treebuilder"
)

func TestUnitTutorial(t *testing.T) {
	test.InitLogger(t, t.TempDir(), log.DEBUG)

	test.Suite{
		{Func: testFactoryExchange},
		{Func: testServiceWithLocalAggregation},
		{Func: testErrorKinds},
	}.Runner(t)
}

func sha256Of(t *testing.T, data string) hash.Imprint {
	t.Helper()
	h, err := hash.SHA2_256.New()
	require.NoError(t, err)
	_, err = h.Write([]byte(data))
	require.NoError(t, err)
	imprint, err := h.Imprint()
	require.NoError(t, err)
	return imprint
}

func testFactoryExchange(t *testing.T, _ ...interface{}) {
	srv := mock.NewService("anon", []byte("anon"))
	ids, err := ident.New()
	require.NoError(t, err)
	creds, err := pdu.NewCredentials("anon", []byte("anon"), hash.SHA2_256)
	require.NoError(t, err)

	for _, v := range []*pdu.Version{pdu.Legacy, pdu.Current} {
		factory, err := pdu.NewFactory(v)
		require.NoError(t, err)
		ctx, err := pdu.NewRequestContext(creds, pdu.CtxOptProvider(ids))
		require.NoError(t, err)

		req, err := factory.CreateAggregationRequest(ctx, sha256Of(t, "record"), 0)
		require.NoError(t, err)
		raw, err := srv.Handle(req)
		require.NoError(t, err)
		resp, err := factory.ReadAggregationResponse(ctx, raw)
		require.NoError(t, err, v.String())

		reqID, _ := ctx.RequestID()
		assert.Equal(t, reqID, resp.RequestID())
	}
}

func testServiceWithLocalAggregation(t *testing.T, _ ...interface{}) {
	srv := mock.NewService("anon", []byte("anon"))
	creds, err := pdu.NewCredentials("anon", []byte("anon"), hash.SHA2_256)
	require.NoError(t, err)

	signer, err := service.NewSigner(
		service.OptNetClient(mock.NewClient("mock://aggregator", srv.Handle)),
		service.OptCredentials(creds),
	)
	require.NoError(t, err)

	tree, err := treebuilder.New()
	require.NoError(t, err)
	for _, rec := range []string{"first", "second", "third", "fourth"} {
		require.NoError(t, tree.AddNode(sha256Of(t, rec)))
	}
	root, level, err := tree.Aggregate()
	require.NoError(t, err)
	assert.Equal(t, byte(2), level)

	_, err = signer.Sign(context.Background(), root, int(level))
	require.NoError(t, err)

	extender, err := service.NewExtender(
		service.OptNetClient(mock.NewClient("mock://extender", srv.Handle)),
		service.OptCredentials(creds),
	)
	require.NoError(t, err)
	_, err = extender.Extend(context.Background(), time.Unix(1400000000, 0), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 2, srv.Requests())
}

func testErrorKinds(t *testing.T, _ ...interface{}) {
	srv := mock.NewService("anon", []byte("anon"))
	srv.FailWith(0x0200)
	creds, err := pdu.NewCredentials("anon", []byte("anon"), hash.SHA2_256)
	require.NoError(t, err)

	signer, err := service.NewSigner(
		service.OptNetClient(mock.NewClient("mock://aggregator", srv.Handle)),
		service.OptCredentials(creds),
	)
	require.NoError(t, err)

	_, err = signer.Sign(context.Background(), sha256Of(t, "record"), 0)
	require.Error(t, err)
	assert.Equal(t, errors.KindServer, errors.KindOf(err))
	assert.Equal(t, errors.KsiServiceInternalError, errors.KsiErr(err).Code())
	assert.Equal(t, 0x0200, errors.KsiErr(err).ExtCode())
}
