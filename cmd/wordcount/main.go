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

// wordcount runs the classic word counting pipeline: it reads a text
// blob, counts occurrences per word, and writes "word: count" lines back
// out, reporting the word volume aggregator when done.
//
// The job is configured with a small YAML file:
//
//	name: wordcount
//	bucket: file:///tmp/wordcount
//	input: input.txt
//	output: counts.txt
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	_ "gocloud.dev/blob/fileblob"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v2"

	flume "driftline.dev/flume-go"
	"driftline.dev/flume-go/counters"
	"driftline.dev/flume-go/io/textio"
)

type config struct {
	Name   string `yaml:"name"`
	Bucket string `yaml:"bucket"`
	Input  string `yaml:"input"`
	Output string `yaml:"output"`
}

func loadConfig(path string) (*config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &config{Name: "wordcount"}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %v: %w", path, err)
	}
	if cfg.Bucket == "" || cfg.Input == "" || cfg.Output == "" {
		return nil, fmt.Errorf("%v must set bucket, input, and output", path)
	}
	return cfg, nil
}

// extractWordsFn splits lines into lowercased words, tracking the total
// word volume through the "words" aggregator.
type extractWordsFn struct {
	Words flume.PCol[string]
}

func (fn *extractWordsFn) ProcessElement(pc *flume.ProcessContext, line string) error {
	words := strings.Fields(line)
	pc.Aggregate("words", counters.Sum, int64(len(words)))
	for _, w := range words {
		fn.Words.Emit(pc, strings.ToLower(strings.Trim(w, ".,:;!?\"'()")))
	}
	return nil
}

func main() {
	cfgPath := flag.String("config", "wordcount.yaml", "path to the job configuration")
	flag.Parse()

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		slog.Error("bad configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pr, err := flume.Run(ctx, func(s *flume.Scope) error {
		lines := flume.Read[string](s, textio.NewSource(cfg.Bucket, cfg.Input), flume.Name("read"))
		split := flume.ParDo(s, lines, &extractWordsFn{}, flume.Name("split"))
		keyed := flume.Map(s, split.Words, func(w string) flume.KV[string, int] {
			return flume.KV[string, int]{Key: w, Value: 1}
		}, flume.Name("pair"))
		counted := flume.CombinePerKey(s, keyed, flume.CountFn[int]{}, flume.Name("count"))
		formatted := flume.Map(s, counted, func(kv flume.KV[string, int64]) string {
			return fmt.Sprintf("%s: %d", kv.Key, kv.Value)
		}, flume.Name("format"))
		flume.Write(s, formatted, textio.NewSink(cfg.Bucket, cfg.Output), flume.Name("write"))
		return nil
	}, flume.Name(cfg.Name))
	if err != nil {
		slog.Error("pipeline failed", "error", err)
		os.Exit(1)
	}

	p := message.NewPrinter(language.English)
	p.Printf("pipeline %s finished: %v (job %s)\n", cfg.Name, pr.State(), pr.JobID())
	for step, v := range pr.AggregatedValues("words") {
		if v.IsInt() {
			p.Printf("  step %s saw %d words\n", step, v.Num().Int64())
		}
	}
}
