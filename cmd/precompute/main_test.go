// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRun(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "reviews.db")
	dumps := filepath.Join(dir, "dumps")
	if err := os.MkdirAll(dumps, 0o750); err != nil {
		t.Fatal(err)
	}
	store := []string{"--db", db, "--driver", "sqlite"}
	absent := filepath.Join(dir, "missing", "reviews.db")
	absentStore := []string{"--db", absent, "--driver", "sqlite"}

	tests := []struct {
		name     string
		args     []string
		setup    func(t *testing.T)
		wantCode int
		wantOut  string
	}{
		{name: "no command", wantCode: exitUsage},
		{name: "unknown command", args: []string{"dance"}, wantCode: exitUsage},
		{name: "bad flag", args: []string{"clusters", "--k", "many"}, wantCode: exitUsage},
		{name: "stray argument", args: append([]string{"nlp", "extra"}, store...), wantCode: exitUsage},
		{name: "invalid k", args: append([]string{"clusters", "--k", "0"}, store...), wantCode: exitUsage},
		{name: "min-rows below floor", args: append([]string{"train", "--min-rows", "10"}, store...), wantCode: exitUsage},
		{name: "nlp without store", args: append([]string{"nlp"}, absentStore...), wantCode: exitFatal},
		{name: "clusters without store", args: append([]string{"clusters"}, absentStore...), wantCode: exitFatal},
		{name: "train without store", args: append([]string{"train"}, absentStore...), wantCode: exitFatal},
		{name: "all without store", args: append([]string{"all"}, absentStore...), wantCode: exitFatal},
		{name: "migrate", args: append([]string{"migrate"}, store...), wantCode: exitOK, wantOut: "1  "},
		{
			name:     "ingest missing dumps",
			args:     append([]string{"ingest", "--dir", dumps}, store...),
			wantCode: exitFatal,
		},
		{
			name: "ingest",
			args: append([]string{"ingest", "--dir", dumps}, store...),
			setup: func(t *testing.T) {
				write := func(name, body string) {
					if err := os.WriteFile(filepath.Join(dumps, name), []byte(body), 0o600); err != nil {
						t.Fatal(err)
					}
				}
				write("yelp_academic_dataset_business.json", `{"business_id":"b1","name":"Diner","stars":4,"review_count":1,"city":"Reno"}`+"\n")
				write("yelp_academic_dataset_user.json", `{"user_id":"u1","review_count":1,"average_stars":4}`+"\n")
				write("yelp_academic_dataset_review.json", `{"review_id":"r1","business_id":"b1","user_id":"u1","stars":5,"text":"great pancakes"}`+"\n")
			},
			wantCode: exitOK,
			wantOut:  "ingest: 3 ok",
		},
		{name: "nlp", args: append([]string{"nlp"}, store...), wantCode: exitOK, wantOut: "nlp: 1 ok"},
		{name: "clusters with too few users", args: append([]string{"clusters", "--k", "5"}, store...), wantCode: exitInsufficient},
		{name: "train with too few reviews", args: append([]string{"train", "--model", filepath.Join(dir, "m.model")}, store...), wantCode: exitInsufficient},
	}

	// Cases share one store and run in order.
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setup != nil {
				tt.setup(t)
			}
			var stdout, stderr bytes.Buffer
			code := run(context.Background(), tt.args, &stdout, &stderr)
			if code != tt.wantCode {
				t.Fatalf("exit = %d, want %d\nstdout: %s\nstderr: %s", code, tt.wantCode, stdout.String(), stderr.String())
			}
			if tt.wantOut != "" && !strings.Contains(stdout.String(), tt.wantOut) {
				t.Errorf("stdout = %q, want it to contain %q", stdout.String(), tt.wantOut)
			}
		})
	}

	if _, err := os.Stat(filepath.Dir(absent)); !os.IsNotExist(err) {
		t.Errorf("batch jobs must not create a missing store, stat err = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "m.model")); !os.IsNotExist(err) {
		t.Errorf("no artifact may be written without enough data, stat err = %v", err)
	}
}
