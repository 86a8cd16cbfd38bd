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

package coders

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func roundTripMakeCoder[T any](v T) struct {
	val   any
	coder func(v any) any
} {
	return struct {
		val   any
		coder func(v any) any
	}{
		val: v,
		coder: func(v any) any {
			c := MakeCoder[T]()
			e := NewEncoder()
			c.Encode(e, v.(T))
			d := NewDecoder(e.Data())
			return c.Decode(d)
		},
	}
}

func TestMakeCoder(t *testing.T) {
	tests := []struct {
		val   any
		coder func(any) any
	}{
		roundTripMakeCoder(bool(false)),
		roundTripMakeCoder(bool(true)),
		roundTripMakeCoder(int8(3)),
		roundTripMakeCoder(int16(4)),
		roundTripMakeCoder(int32(5)),
		roundTripMakeCoder(int64(6)),
		roundTripMakeCoder(uint8(7)),
		roundTripMakeCoder(uint16(8)),
		roundTripMakeCoder(uint32(9)),
		roundTripMakeCoder(uint64(10)),
		roundTripMakeCoder(uint(11)),
		roundTripMakeCoder(int(12)),
		roundTripMakeCoder(int(-12)),
		roundTripMakeCoder(float32(13)),
		roundTripMakeCoder(float64(14)),
		roundTripMakeCoder(complex64(15 + 15i)),
		roundTripMakeCoder(complex128(16 + 16i)),
		roundTripMakeCoder("squeamish ossifrage"),
		roundTripMakeCoder([]byte{8, 3, 7, 4, 6, 0, 9}),

		// Row coder tests
		roundTripMakeCoder(struct{ T time.Time }{T: time.Unix(173, 0).UTC()}),
		roundTripMakeCoder(struct{ S string }{S: "pajamas"}),
		roundTripMakeCoder(struct{ I int }{I: -42}),
		roundTripMakeCoder(map[string]int{"a": 1, "b": 2}),
		roundTripMakeCoder([]string{"x", "y"}),
	}
	for _, test := range tests {
		t.Run(reflect.TypeOf(test.val).Name(), func(t *testing.T) {
			got, want := test.coder(test.val), test.val
			if d := cmp.Diff(want, got); d != "" {
				t.Errorf("MakeCoder[%T]() round trip failed. got %v want %v, diff (-want, +got):\n%v", test.val, got, want, d)
			}
		})
	}
}

func TestEncodeBytesCanonical(t *testing.T) {
	type key struct {
		Name string
		N    int
	}
	c := MakeCoder[key]()
	a := EncodeBytes(c, key{Name: "k", N: 3})
	b := EncodeBytes(c, key{Name: "k", N: 3})
	if string(a) != string(b) {
		t.Errorf("structurally equal keys encoded differently: %q vs %q", a, b)
	}
	back := DecodeBytes(c, a)
	if d := cmp.Diff(key{Name: "k", N: 3}, back); d != "" {
		t.Errorf("decode(encode(k)) diff (-want, +got):\n%v", d)
	}
}

func TestEncoderMixed(t *testing.T) {
	e := NewEncoder()
	e.Bool(true)
	e.Varint(-77)
	e.Uvarint(88)
	e.Double(3.5)
	e.StringUtf8("mixed")
	e.Bytes([]byte{1, 2, 3})

	d := NewDecoder(e.Data())
	if got := d.Bool(); got != true {
		t.Errorf("Bool() = %v, want true", got)
	}
	if got := d.Varint(); got != -77 {
		t.Errorf("Varint() = %v, want -77", got)
	}
	if got := d.Uvarint(); got != 88 {
		t.Errorf("Uvarint() = %v, want 88", got)
	}
	if got := d.Double(); got != 3.5 {
		t.Errorf("Double() = %v, want 3.5", got)
	}
	if got := d.StringUtf8(); got != "mixed" {
		t.Errorf("StringUtf8() = %q, want %q", got, "mixed")
	}
	if got := d.Bytes(); !reflect.DeepEqual(got, []byte{1, 2, 3}) {
		t.Errorf("Bytes() = %v, want [1 2 3]", got)
	}
}
