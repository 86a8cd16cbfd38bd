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

package textio

import (
	"context"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
	_ "gocloud.dev/blob/fileblob"
)

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	bucketURL := "file://" + t.TempDir()

	w, err := NewSink(bucketURL, "lines.txt").NewWriter(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"the first line", "", "the third line"}
	for _, line := range want {
		if err := w.Write(line); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := NewSource(bucketURL, "lines.txt").NewReader(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for {
		line, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, line)
	}
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("round tripped lines diff (-want, +got):\n%v", d)
	}
}

func TestMissingBlob(t *testing.T) {
	ctx := context.Background()
	bucketURL := "file://" + t.TempDir()
	if _, err := NewSource(bucketURL, "no-such-key").NewReader(ctx); err == nil {
		t.Error("reading a missing blob did not error")
	}
}
