// Licensed to the Apache Software Foundation (ASF) under one or more
// contributor license agreements.  See the NOTICE file distributed with
// this work for additional information regarding copyright ownership.
// The ASF licenses this file to You under the Apache License, Version 2.0
// (the "License"); you may not use this file except in compliance with
// the License.  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package coders turns elements into canonical byte sequences and back.
//
// Two structurally equal values always encode to identical bytes, which is
// what lets grouping coalesce keys of arbitrary user types: the executor
// groups on the encoded form, then decodes one representative back.
package coders

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-json-experiment/json"
)

// Coder encodes and decodes values of a single type.
type Coder[E any] interface {
	Encode(enc *Encoder, v E)
	Decode(dec *Decoder) E
}

// Encoder accumulates encoded bytes.
type Encoder struct {
	data []byte
}

// NewEncoder returns an empty encoder.
func NewEncoder() *Encoder { return &Encoder{} }

// Data returns the bytes written so far.
func (e *Encoder) Data() []byte { return e.data }

func (e *Encoder) Bool(v bool) {
	if v {
		e.data = append(e.data, 1)
	} else {
		e.data = append(e.data, 0)
	}
}

func (e *Encoder) Varint(v int64)   { e.data = binary.AppendVarint(e.data, v) }
func (e *Encoder) Uvarint(v uint64) { e.data = binary.AppendUvarint(e.data, v) }

func (e *Encoder) Double(v float64) {
	e.data = binary.BigEndian.AppendUint64(e.data, math.Float64bits(v))
}

// Bytes writes a length-prefixed byte slice.
func (e *Encoder) Bytes(v []byte) {
	e.Uvarint(uint64(len(v)))
	e.data = append(e.data, v...)
}

// StringUtf8 writes a length-prefixed string.
func (e *Encoder) StringUtf8(v string) {
	e.Uvarint(uint64(len(v)))
	e.data = append(e.data, v...)
}

// Decoder consumes bytes produced by an Encoder. Malformed input panics:
// decoders only ever read what this package's encoders wrote.
type Decoder struct {
	data []byte
	off  int
}

// NewDecoder returns a decoder over data.
func NewDecoder(data []byte) *Decoder { return &Decoder{data: data} }

func (d *Decoder) Bool() bool {
	b := d.data[d.off]
	d.off++
	return b != 0
}

func (d *Decoder) Varint() int64 {
	v, n := binary.Varint(d.data[d.off:])
	if n <= 0 {
		panic(fmt.Sprintf("coders: bad varint at offset %d", d.off))
	}
	d.off += n
	return v
}

func (d *Decoder) Uvarint() uint64 {
	v, n := binary.Uvarint(d.data[d.off:])
	if n <= 0 {
		panic(fmt.Sprintf("coders: bad uvarint at offset %d", d.off))
	}
	d.off += n
	return v
}

func (d *Decoder) Double() float64 {
	v := binary.BigEndian.Uint64(d.data[d.off:])
	d.off += 8
	return math.Float64frombits(v)
}

func (d *Decoder) Bytes() []byte {
	n := int(d.Uvarint())
	b := d.data[d.off : d.off+n]
	d.off += n
	return append([]byte(nil), b...)
}

func (d *Decoder) StringUtf8() string {
	n := int(d.Uvarint())
	s := string(d.data[d.off : d.off+n])
	d.off += n
	return s
}

type fnCoder[E any] struct {
	enc func(*Encoder, E)
	dec func(*Decoder) E
}

func (c fnCoder[E]) Encode(e *Encoder, v E) { c.enc(e, v) }
func (c fnCoder[E]) Decode(d *Decoder) E   { return c.dec(d) }

// MakeCoder builds a coder for E. Booleans, integers, floats, complex
// numbers, strings, and byte slices get compact binary forms; everything
// else round trips through a deterministic JSON row encoding.
func MakeCoder[E any]() Coder[E] {
	var zero E
	switch any(zero).(type) {
	case bool:
		return fnCoder[E]{
			enc: func(e *Encoder, v E) { e.Bool(any(v).(bool)) },
			dec: func(d *Decoder) E { return any(d.Bool()).(E) },
		}
	case int:
		return varintCoder[E](func(v E) int64 { return int64(any(v).(int)) }, func(v int64) any { return int(v) })
	case int8:
		return varintCoder[E](func(v E) int64 { return int64(any(v).(int8)) }, func(v int64) any { return int8(v) })
	case int16:
		return varintCoder[E](func(v E) int64 { return int64(any(v).(int16)) }, func(v int64) any { return int16(v) })
	case int32:
		return varintCoder[E](func(v E) int64 { return int64(any(v).(int32)) }, func(v int64) any { return int32(v) })
	case int64:
		return varintCoder[E](func(v E) int64 { return any(v).(int64) }, func(v int64) any { return v })
	case uint:
		return uvarintCoder[E](func(v E) uint64 { return uint64(any(v).(uint)) }, func(v uint64) any { return uint(v) })
	case uint8:
		return uvarintCoder[E](func(v E) uint64 { return uint64(any(v).(uint8)) }, func(v uint64) any { return uint8(v) })
	case uint16:
		return uvarintCoder[E](func(v E) uint64 { return uint64(any(v).(uint16)) }, func(v uint64) any { return uint16(v) })
	case uint32:
		return uvarintCoder[E](func(v E) uint64 { return uint64(any(v).(uint32)) }, func(v uint64) any { return uint32(v) })
	case uint64:
		return uvarintCoder[E](func(v E) uint64 { return any(v).(uint64) }, func(v uint64) any { return v })
	case float32:
		return fnCoder[E]{
			enc: func(e *Encoder, v E) { e.Double(float64(any(v).(float32))) },
			dec: func(d *Decoder) E { return any(float32(d.Double())).(E) },
		}
	case float64:
		return fnCoder[E]{
			enc: func(e *Encoder, v E) { e.Double(any(v).(float64)) },
			dec: func(d *Decoder) E { return any(d.Double()).(E) },
		}
	case complex64:
		return fnCoder[E]{
			enc: func(e *Encoder, v E) {
				c := any(v).(complex64)
				e.Double(float64(real(c)))
				e.Double(float64(imag(c)))
			},
			dec: func(d *Decoder) E {
				re, im := d.Double(), d.Double()
				return any(complex(float32(re), float32(im))).(E)
			},
		}
	case complex128:
		return fnCoder[E]{
			enc: func(e *Encoder, v E) {
				c := any(v).(complex128)
				e.Double(real(c))
				e.Double(imag(c))
			},
			dec: func(d *Decoder) E {
				re, im := d.Double(), d.Double()
				return any(complex(re, im)).(E)
			},
		}
	case string:
		return fnCoder[E]{
			enc: func(e *Encoder, v E) { e.StringUtf8(any(v).(string)) },
			dec: func(d *Decoder) E { return any(d.StringUtf8()).(E) },
		}
	case []byte:
		return fnCoder[E]{
			enc: func(e *Encoder, v E) { e.Bytes(any(v).([]byte)) },
			dec: func(d *Decoder) E { return any(d.Bytes()).(E) },
		}
	}
	return jsonCoder[E]{}
}

func varintCoder[E any](to func(E) int64, from func(int64) any) Coder[E] {
	return fnCoder[E]{
		enc: func(e *Encoder, v E) { e.Varint(to(v)) },
		dec: func(d *Decoder) E { return from(d.Varint()).(E) },
	}
}

func uvarintCoder[E any](to func(E) uint64, from func(uint64) any) Coder[E] {
	return fnCoder[E]{
		enc: func(e *Encoder, v E) { e.Uvarint(to(v)) },
		dec: func(d *Decoder) E { return from(d.Uvarint()).(E) },
	}
}

// jsonCoder handles rows: structs, maps, slices, and pointer types. The
// json package writes map keys deterministically, keeping the encoded form
// canonical.
type jsonCoder[E any] struct{}

func (jsonCoder[E]) Encode(e *Encoder, v E) {
	data, err := json.Marshal(&v, json.Deterministic(true))
	if err != nil {
		panic(fmt.Sprintf("coders: cannot encode %T: %v", v, err))
	}
	e.Bytes(data)
}

func (jsonCoder[E]) Decode(d *Decoder) E {
	var v E
	if err := json.Unmarshal(d.Bytes(), &v); err != nil {
		panic(fmt.Sprintf("coders: cannot decode %T: %v", v, err))
	}
	return v
}

// EncodeBytes returns v's full canonical encoding under c.
func EncodeBytes[E any](c Coder[E], v E) []byte {
	e := NewEncoder()
	c.Encode(e, v)
	return e.Data()
}

// DecodeBytes decodes a value from a full canonical encoding under c.
func DecodeBytes[E any](c Coder[E], data []byte) E {
	return c.Decode(NewDecoder(data))
}
