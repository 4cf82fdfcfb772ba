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

package tlv

import (
	"fmt"
	"time"

	"github.com/guardtime/ksipdu/errors"
	"github.com/guardtime/ksipdu/hash"
)

// Field describes one child element recognized by a Schema.
type Field struct {
	// Tag of the child element.
	Tag uint16
	// Name is used in error messages.
	Name string
	// Required fields must occur at least once.
	Required bool
	// Multiple fields may occur more than once. All other fields are single-valued.
	Multiple bool
}

// Schema is the set of child elements a reader recognizes for a nested element.
// A schema is immutable and may be shared between goroutines.
type Schema struct {
	name   string
	fields map[uint16]Field
	order  []uint16
}

// NewSchema returns a schema recognizing the given fields. Panics on a duplicate tag, as schemas are static
// program data.
func NewSchema(name string, fields ...Field) *Schema {
	s := &Schema{
		name:   name,
		fields: make(map[uint16]Field, len(fields)),
	}
	for _, f := range fields {
		if _, ok := s.fields[f.Tag]; ok {
			panic(fmt.Sprintf("tlv: schema %s declares tag 0x%x twice", name, f.Tag))
		}
		s.fields[f.Tag] = f
		s.order = append(s.order, f.Tag)
	}
	return s
}

// Name returns the schema name.
func (s *Schema) Name() string {
	if s == nil {
		return ""
	}
	return s.name
}

// Knows reports whether the schema recognizes the tag.
func (s *Schema) Knows(tag uint16) bool {
	if s == nil {
		return false
	}
	_, ok := s.fields[tag]
	return ok
}

// Record is the result of reading a nested element with a Schema.
type Record struct {
	schema   *Schema
	tlv      *Tlv
	fields   map[uint16][]*Tlv
	elements []*Tlv
}

// Read decodes the children of the receiver in a single pass and validates them against the schema:
//   - an unrecognized child is dropped if it is non-critical, otherwise KsiTlvUnknownCritical error is returned;
//   - a second occurrence of a single-valued field fails with KsiTlvDuplicate error;
//   - a missing required field fails with KsiTlvMissing error.
func (t *Tlv) Read(s *Schema) (*Record, error) {
	if t == nil || s == nil {
		return nil, errors.New(errors.KsiInvalidArgumentError)
	}
	children, err := t.Nested()
	if err != nil {
		return nil, err
	}

	r := &Record{
		schema: s,
		tlv:    t,
		fields: make(map[uint16][]*Tlv, len(s.fields)),
	}
	for _, c := range children {
		f, known := s.fields[c.tag]
		if !known {
			if c.NonCritical() {
				continue
			}
			return nil, errors.New(errors.KsiTlvUnknownCritical).
				AppendMessage(fmt.Sprintf("Unknown critical TLV[0x%x] in %s.", c.tag, s.name))
		}
		if !f.Multiple && len(r.fields[c.tag]) > 0 {
			return nil, errors.New(errors.KsiTlvDuplicate).
				AppendMessage(fmt.Sprintf("Duplicate %s TLV[0x%x] in %s.", f.Name, c.tag, s.name))
		}
		r.fields[c.tag] = append(r.fields[c.tag], c)
		r.elements = append(r.elements, c)
	}

	for _, tag := range s.order {
		if f := s.fields[tag]; f.Required && len(r.fields[tag]) == 0 {
			return nil, errors.New(errors.KsiTlvMissing).
				AppendMessage(fmt.Sprintf("Missing %s TLV[0x%x] in %s.", f.Name, tag, s.name))
		}
	}
	return r, nil
}

// Tlv returns the element the record was read from.
func (r *Record) Tlv() *Tlv {
	if r == nil {
		return nil
	}
	return r.tlv
}

// Elements returns the recognized children in wire order.
func (r *Record) Elements() []*Tlv {
	if r == nil {
		return nil
	}
	return append([]*Tlv(nil), r.elements...)
}

// Has reports whether the field occurred.
func (r *Record) Has(tag uint16) bool {
	return r != nil && len(r.fields[tag]) > 0
}

// Get returns the first occurrence of the field, or nil if absent.
func (r *Record) Get(tag uint16) *Tlv {
	if !r.Has(tag) {
		return nil
	}
	return r.fields[tag][0]
}

// All returns all occurrences of the field in wire order.
func (r *Record) All(tag uint16) []*Tlv {
	if r == nil {
		return nil
	}
	return append([]*Tlv(nil), r.fields[tag]...)
}

func (r *Record) wrap(tag uint16, err error) error {
	return errors.KsiErr(err).AppendMessage(
		fmt.Sprintf("Unable to read %s TLV[0x%x] in %s.", r.schema.fields[tag].Name, tag, r.schema.name))
}

// Uint64 returns the integer value of the field, or nil if absent.
func (r *Record) Uint64(tag uint16) (*uint64, error) {
	t := r.Get(tag)
	if t == nil {
		return nil, nil
	}
	v, err := t.Uint64()
	if err != nil {
		return nil, r.wrap(tag, err)
	}
	return &v, nil
}

// Utf8 returns the string value of the field, or nil if absent.
func (r *Record) Utf8(tag uint16) (*string, error) {
	t := r.Get(tag)
	if t == nil {
		return nil, nil
	}
	v, err := t.Utf8()
	if err != nil {
		return nil, r.wrap(tag, err)
	}
	return &v, nil
}

// Time returns the time value of the field, or nil if absent.
func (r *Record) Time(tag uint16) (*time.Time, error) {
	t := r.Get(tag)
	if t == nil {
		return nil, nil
	}
	v, err := t.Time()
	if err != nil {
		return nil, r.wrap(tag, err)
	}
	return &v, nil
}

// Imprint returns the imprint value of the field, or nil if absent.
func (r *Record) Imprint(tag uint16) (hash.Imprint, error) {
	t := r.Get(tag)
	if t == nil {
		return nil, nil
	}
	v, err := t.Imprint()
	if err != nil {
		return nil, r.wrap(tag, err)
	}
	return v, nil
}
