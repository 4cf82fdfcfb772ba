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
	"strings"

	"github.com/guardtime/ksipdu/hash"
	"github.com/guardtime/ksipdu/tlv"
)

const (
	tagCfgMaxLevel   = 0x01
	tagCfgAggrAlgo   = 0x02
	tagCfgAggrPeriod = 0x03
	tagCfgMaxReq     = 0x04
	tagCfgParentURI  = 0x10
	tagCfgCalFirst   = 0x11
	tagCfgCalLast    = 0x12
)

var configSchema = tlv.NewSchema("config",
	tlv.Field{Tag: tagCfgMaxLevel, Name: "maximum level"},
	tlv.Field{Tag: tagCfgAggrAlgo, Name: "aggregation algorithm"},
	tlv.Field{Tag: tagCfgAggrPeriod, Name: "aggregation period"},
	tlv.Field{Tag: tagCfgMaxReq, Name: "maximum requests"},
	tlv.Field{Tag: tagCfgParentURI, Name: "parent uri", Multiple: true},
	tlv.Field{Tag: tagCfgCalFirst, Name: "calendar first time"},
	tlv.Field{Tag: tagCfgCalLast, Name: "calendar last time"},
)

// Config is the service configuration, either requested by the client or pushed by the server next to a
// response payload. All values are optional.
type Config struct {
	maxLevel   *uint64
	aggrAlgo   *uint64
	aggrPeriod *uint64
	maxReq     *uint64
	parentURI  []string
	calFirst   *uint64
	calLast    *uint64
}

func parseConfig(t *tlv.Tlv) (*Config, error) {
	rec, err := t.Read(configSchema)
	if err != nil {
		return nil, err
	}

	c := &Config{}
	for tag, dst := range map[uint16]**uint64{
		tagCfgMaxLevel:   &c.maxLevel,
		tagCfgAggrAlgo:   &c.aggrAlgo,
		tagCfgAggrPeriod: &c.aggrPeriod,
		tagCfgMaxReq:     &c.maxReq,
		tagCfgCalFirst:   &c.calFirst,
		tagCfgCalLast:    &c.calLast,
	} {
		if *dst, err = rec.Uint64(tag); err != nil {
			return nil, err
		}
	}
	for _, u := range rec.All(tagCfgParentURI) {
		uri, err := u.Utf8()
		if err != nil {
			return nil, err
		}
		c.parentURI = append(c.parentURI, uri)
	}
	return c, nil
}

func optional(v *uint64) (uint64, bool) {
	if v == nil {
		return 0, false
	}
	return *v, true
}

// MaxLevel returns the maximum level value that the nodes in the client's aggregation tree are allowed to have.
func (c *Config) MaxLevel() (uint64, bool) {
	if c == nil {
		return 0, false
	}
	return optional(c.maxLevel)
}

// AggrAlgo returns the recommended hash function for the client to aggregate its requests.
func (c *Config) AggrAlgo() (hash.Algorithm, bool) {
	if c == nil || c.aggrAlgo == nil {
		return hash.SHA_NA, false
	}
	return hash.Algorithm(*c.aggrAlgo), true
}

// AggrPeriod returns the recommended duration of the client's aggregation round, in milliseconds.
func (c *Config) AggrPeriod() (uint64, bool) {
	if c == nil {
		return 0, false
	}
	return optional(c.aggrPeriod)
}

// MaxReq returns the maximum number of requests the client is allowed to send within one aggregation period.
func (c *Config) MaxReq() (uint64, bool) {
	if c == nil {
		return 0, false
	}
	return optional(c.maxReq)
}

// ParentURI returns the parent server URIs.
func (c *Config) ParentURI() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.parentURI...)
}

// CalFirst returns the aggregation time of the oldest calendar record the extender has.
func (c *Config) CalFirst() (uint64, bool) {
	if c == nil {
		return 0, false
	}
	return optional(c.calFirst)
}

// CalLast returns the aggregation time of the newest calendar record the extender has.
func (c *Config) CalLast() (uint64, bool) {
	if c == nil {
		return 0, false
	}
	return optional(c.calLast)
}

// String implements Stringer interface.
func (c *Config) String() string {
	if c == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("Config:\n")
	if v, ok := c.MaxLevel(); ok {
		fmt.Fprintf(&b, "  Maximum level: %d\n", v)
	}
	if v, ok := c.AggrAlgo(); ok {
		fmt.Fprintf(&b, "  Aggregation hash algorithm: %s\n", v)
	}
	if v, ok := c.AggrPeriod(); ok {
		fmt.Fprintf(&b, "  Aggregation period: %d\n", v)
	}
	if v, ok := c.MaxReq(); ok {
		fmt.Fprintf(&b, "  Maximum requests: %d\n", v)
	}
	if v, ok := c.CalFirst(); ok {
		fmt.Fprintf(&b, "  Calendar first time: %d\n", v)
	}
	if v, ok := c.CalLast(); ok {
		fmt.Fprintf(&b, "  Calendar last time: %d\n", v)
	}
	if len(c.parentURI) > 0 {
		b.WriteString("  Parent URI:\n")
		for i, uri := range c.parentURI {
			fmt.Fprintf(&b, "  %d: %s\n", i, uri)
		}
	}
	return b.String()
}
