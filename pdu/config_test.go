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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardtime/ksipdu/errors"
	"github.com/guardtime/ksipdu/hash"
	"github.com/guardtime/ksipdu/tlv"
)

func testConfigPayload(t *testing.T) *tlv.Tlv {
	return mustNested(t, Current.configPayload,
		mustUint(t, tagCfgMaxLevel, 20),
		mustUint(t, tagCfgAggrAlgo, uint64(hash.SHA2_256)),
		mustUint(t, tagCfgAggrPeriod, 400),
		mustUint(t, tagCfgMaxReq, 10),
		mustUtf8(t, tagCfgParentURI, "tcp://parent-1:3333"),
		mustUtf8(t, tagCfgParentURI, "tcp://parent-2:3333"),
	)
}

func TestUnitReadAggregatorConfigResponse(t *testing.T) {
	f, err := NewFactory(Current)
	require.NoError(t, err)

	raw := newPduBuilder(Current, aggregator, testConfigPayload(t)).build(t)
	cfg, err := f.ReadAggregatorConfigResponse(testContext(t), raw)
	require.NoError(t, err)

	lvl, ok := cfg.MaxLevel()
	assert.True(t, ok)
	assert.Equal(t, uint64(20), lvl)
	alg, ok := cfg.AggrAlgo()
	assert.True(t, ok)
	assert.Equal(t, hash.SHA2_256, alg)
	period, ok := cfg.AggrPeriod()
	assert.True(t, ok)
	assert.Equal(t, uint64(400), period)
	maxReq, ok := cfg.MaxReq()
	assert.True(t, ok)
	assert.Equal(t, uint64(10), maxReq)
	assert.Equal(t, []string{"tcp://parent-1:3333", "tcp://parent-2:3333"}, cfg.ParentURI())
	_, ok = cfg.CalFirst()
	assert.False(t, ok)
}

func TestUnitReadExtenderConfigResponse(t *testing.T) {
	f, err := NewFactory(Current)
	require.NoError(t, err)

	raw := newPduBuilder(Current, extender, mustNested(t, Current.configPayload,
		mustUint(t, tagCfgMaxReq, 4),
		mustUint(t, tagCfgCalFirst, 1136073600),
		mustUint(t, tagCfgCalLast, 1500000000),
	)).build(t)
	cfg, err := f.ReadExtenderConfigResponse(testContext(t), raw)
	require.NoError(t, err)

	first, ok := cfg.CalFirst()
	assert.True(t, ok)
	assert.Equal(t, uint64(1136073600), first)
	last, ok := cfg.CalLast()
	assert.True(t, ok)
	assert.Equal(t, uint64(1500000000), last)
}

func TestUnitConfigPushedWithResponse(t *testing.T) {
	f, err := NewFactory(Current)
	require.NoError(t, err)

	raw := newPduBuilder(Current, aggregator,
		respPayload(t, Current, aggregator, testRequestID),
		testConfigPayload(t),
		// Acknowledgment.
		mustNested(t, 0x05),
	).build(t)
	resp, err := f.ReadAggregationResponse(testContext(t, CtxOptRequestID(testRequestID)), raw)
	require.NoError(t, err)
	require.NotNil(t, resp.Config())
	lvl, _ := resp.Config().MaxLevel()
	assert.Equal(t, uint64(20), lvl)
}

func TestUnitConfigResponseMissingPayload(t *testing.T) {
	f, err := NewFactory(Current)
	require.NoError(t, err)

	// An aggregation response without the configuration.
	raw := newPduBuilder(Current, aggregator, respPayload(t, Current, aggregator, 1)).build(t)
	_, err = f.ReadAggregatorConfigResponse(testContext(t), raw)
	assertCode(t, err, errors.KsiPduMissingPayload)
}

func TestUnitConfigDuplicateField(t *testing.T) {
	f, err := NewFactory(Current)
	require.NoError(t, err)

	raw := newPduBuilder(Current, aggregator, mustNested(t, Current.configPayload,
		mustUint(t, tagCfgMaxLevel, 20),
		mustUint(t, tagCfgMaxLevel, 21),
	)).build(t)
	_, err = f.ReadAggregatorConfigResponse(testContext(t), raw)
	assertCode(t, err, errors.KsiTlvDuplicate)
}

func TestUnitConfigResponseDuplicateConfig(t *testing.T) {
	f, err := NewFactory(Current)
	require.NoError(t, err)

	for _, s := range []service{aggregator, extender} {
		raw := newPduBuilder(Current, s, testConfigPayload(t), testConfigPayload(t)).build(t)
		_, err = f.readConfig(testContext(t), raw, s)
		assertCode(t, err, errors.KsiTlvDuplicate)
	}
}

func TestUnitConfigResponseDuplicateDomainPayload(t *testing.T) {
	f, err := NewFactory(Current)
	require.NoError(t, err)

	raw := newPduBuilder(Current, aggregator,
		respPayload(t, Current, aggregator, 1),
		respPayload(t, Current, aggregator, 2),
		testConfigPayload(t),
	).build(t)
	_, err = f.ReadAggregatorConfigResponse(testContext(t), raw)
	assertCode(t, err, errors.KsiTlvDuplicate)
}

func TestUnitConfigResponseWithDomainPayload(t *testing.T) {
	f, err := NewFactory(Current)
	require.NoError(t, err)

	raw := newPduBuilder(Current, extender,
		respPayload(t, Current, extender, 1),
		testConfigPayload(t),
	).build(t)
	cfg, err := f.ReadExtenderConfigResponse(testContext(t), raw)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	maxReq, ok := cfg.MaxReq()
	assert.True(t, ok)
	assert.Equal(t, uint64(10), maxReq)
}
