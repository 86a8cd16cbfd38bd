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

// Package textio provides line oriented pipeline sources and sinks over
// blob storage. Bucket URLs follow gocloud.dev/blob: file:// for local
// directories, with other providers available through their drivers.
package textio

import (
	"bufio"
	"context"
	"io"

	"github.com/pkg/errors"
	"gocloud.dev/blob"

	flume "driftline.dev/flume-go"
)

// Source reads a blob as newline separated elements.
type Source struct {
	bucketURL string
	key       string
}

var _ flume.Source[string] = (*Source)(nil)

// NewSource returns a source reading the lines of the blob at key within
// the bucket.
func NewSource(bucketURL, key string) *Source {
	return &Source{bucketURL: bucketURL, key: key}
}

func (s *Source) NewReader(ctx context.Context) (flume.Reader[string], error) {
	bkt, err := blob.OpenBucket(ctx, s.bucketURL)
	if err != nil {
		return nil, errors.Wrapf(err, "opening bucket %v", s.bucketURL)
	}
	r, err := bkt.NewReader(ctx, s.key, nil)
	if err != nil {
		bkt.Close()
		return nil, errors.Wrapf(err, "opening blob %v", s.key)
	}
	return &lineReader{bucket: bkt, blob: r, scan: bufio.NewScanner(r)}, nil
}

type lineReader struct {
	bucket *blob.Bucket
	blob   *blob.Reader
	scan   *bufio.Scanner
}

func (r *lineReader) Next() (string, error) {
	if r.scan.Scan() {
		return r.scan.Text(), nil
	}
	if err := r.scan.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (r *lineReader) Close() error {
	err := r.blob.Close()
	if cerr := r.bucket.Close(); err == nil {
		err = cerr
	}
	return err
}

// Sink writes elements to a blob, one line each.
type Sink struct {
	bucketURL string
	key       string
}

var _ flume.Sink[string] = (*Sink)(nil)

// NewSink returns a sink writing lines to the blob at key within the
// bucket. The blob is replaced on each write.
func NewSink(bucketURL, key string) *Sink {
	return &Sink{bucketURL: bucketURL, key: key}
}

func (s *Sink) NewWriter(ctx context.Context) (flume.Writer[string], error) {
	bkt, err := blob.OpenBucket(ctx, s.bucketURL)
	if err != nil {
		return nil, errors.Wrapf(err, "opening bucket %v", s.bucketURL)
	}
	w, err := bkt.NewWriter(ctx, s.key, nil)
	if err != nil {
		bkt.Close()
		return nil, errors.Wrapf(err, "opening blob %v for write", s.key)
	}
	return &lineWriter{bucket: bkt, blob: w}, nil
}

type lineWriter struct {
	bucket *blob.Bucket
	blob   *blob.Writer
}

func (w *lineWriter) Write(line string) error {
	if _, err := io.WriteString(w.blob, line); err != nil {
		return err
	}
	_, err := w.blob.Write([]byte{'\n'})
	return err
}

func (w *lineWriter) Close() error {
	err := w.blob.Close()
	if cerr := w.bucket.Close(); err == nil {
		err = cerr
	}
	return err
}
