// Lexicographus - Document Relatedness Analysis and Content Routing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lexicographus

package tokens

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Document
		wantErr bool
	}{
		{
			name:  "valid map",
			input: `{"cat":3,"dog":5}`,
			want:  Document{"cat": 3, "dog": 5},
		},
		{
			name:  "empty object",
			input: `{}`,
			want:  Document{},
		},
		{
			name:  "null document",
			input: `null`,
			want:  Document{},
		},
		{
			name:    "empty input",
			input:   ``,
			wantErr: true,
		},
		{
			name:    "not an object",
			input:   `[1,2,3]`,
			wantErr: true,
		},
		{
			name:    "non-integer value",
			input:   `{"cat":"three"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got == nil {
				t.Fatal("Parse() returned nil map")
			}
			if tt.wantErr {
				if len(got) != 0 {
					t.Errorf("Parse() on error returned %d entries, want 0", len(got))
				}
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("got[%q] = %d, want %d", k, got[k], v)
				}
			}
		})
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "doc.json")
	if err := os.WriteFile(path, []byte(`{"cat":3}`), 0o600); err != nil {
		t.Fatal(err)
	}

	doc, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if doc["cat"] != 3 {
		t.Errorf("doc[cat] = %d, want 3", doc["cat"])
	}

	doc, err = ParseFile(filepath.Join(dir, "missing.json"))
	if err == nil {
		t.Fatal("ParseFile() on missing file: want error")
	}
	if len(doc) != 0 {
		t.Errorf("ParseFile() on missing file returned %d entries, want 0", len(doc))
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"cat":`), 0o600); err != nil {
		t.Fatal(err)
	}
	doc, err = ParseFile(bad)
	if err == nil {
		t.Fatal("ParseFile() on malformed file: want error")
	}
	if len(doc) != 0 {
		t.Errorf("ParseFile() on malformed file returned %d entries, want 0", len(doc))
	}
}

func TestSum(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
		want int64
	}{
		{"empty", Document{}, 0},
		{"single", Document{"cat": 3}, 3},
		{"several", Document{"cat": 3, "dog": 5, "xx": 10}, 18},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.doc.Sum(); got != tt.want {
				t.Errorf("Sum() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNorm(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
		want float64
	}{
		{"empty", Document{}, 0},
		{"unit", Document{"cat": 1}, 1},
		{"pythagorean", Document{"a": 3, "b": 4}, 5},
		{"reference corpus", Document{"cat": 3, "dog": 5, "xx": 10}, math.Sqrt(134)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.doc.Norm(); !almostEqual(got, tt.want) {
				t.Errorf("Norm() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterPredicate(t *testing.T) {
	doc := Document{
		"ab":                3,   // survives
		"verylongtokenname": 100, // 17 chars, over the length cap
		"cd":                2,   // below the frequency floor
		"AB":                9,   // uppercase
	}

	got := doc.Filter(14, 3)
	if len(got) != 1 {
		t.Fatalf("len(Filter()) = %d, want 1", len(got))
	}
	if got[0].Token != "ab" || got[0].Frequency != 3 {
		t.Errorf("survivor = %+v, want token ab freq 3", got[0])
	}
}

func TestFilterBoundaries(t *testing.T) {
	tests := []struct {
		name  string
		token string
		count int64
		keep  bool
	}{
		{"length fourteen kept", "abcdefghijklmn", 3, true},
		{"length fifteen rejected", "abcdefghijklmno", 100, false},
		{"frequency at floor kept", "cat", 3, true},
		{"frequency below floor rejected", "abcdefghijklmn", 2, false},
		{"digits rejected", "abc1", 50, false},
		{"hyphen rejected", "ab-cd", 50, false},
		{"empty token rejected", "", 50, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := Document{tt.token: tt.count}
			got := doc.Filter(14, 3)
			if kept := len(got) == 1; kept != tt.keep {
				t.Errorf("Filter() kept = %v, want %v", kept, tt.keep)
			}
		})
	}
}

func TestFilterWeights(t *testing.T) {
	doc := Document{"cat": 3, "dog": 5, "xx": 10}
	norm := math.Sqrt(134)

	got := doc.Filter(14, 3)
	if len(got) != 3 {
		t.Fatalf("len(Filter()) = %d, want 3", len(got))
	}

	want := []WeightedToken{
		{Token: "cat", Frequency: 3, Weight: 3 / norm},
		{Token: "dog", Frequency: 5, Weight: 5 / norm},
		{Token: "xx", Frequency: 10, Weight: 10 / norm},
	}
	for i, w := range want {
		if got[i].Token != w.Token {
			t.Errorf("got[%d].Token = %q, want %q", i, got[i].Token, w.Token)
		}
		if got[i].Frequency != w.Frequency {
			t.Errorf("got[%d].Frequency = %d, want %d", i, got[i].Frequency, w.Frequency)
		}
		if !almostEqual(got[i].Weight, w.Weight) {
			t.Errorf("got[%d].Weight = %v, want %v", i, got[i].Weight, w.Weight)
		}
	}
}

func TestFilterZeroNorm(t *testing.T) {
	// A zero count contributes nothing to the norm, so a map whose only
	// surviving weight would divide by zero must emit weight 0 instead.
	doc := Document{}
	if got := doc.Filter(14, 3); len(got) != 0 {
		t.Fatalf("Filter() on empty doc = %v, want empty", got)
	}

	zero := Document{"cat": 0}
	got := zero.Filter(14, 0)
	if len(got) != 1 {
		t.Fatalf("len(Filter()) = %d, want 1", len(got))
	}
	if got[0].Weight != 0 {
		t.Errorf("Weight = %v, want 0", got[0].Weight)
	}
}

func TestFilterOrderingDeterministic(t *testing.T) {
	doc := Document{"zebra": 5, "apple": 5, "mango": 5, "berry": 5}

	first := doc.Filter(14, 3)
	for i := 0; i < 10; i++ {
		again := doc.Filter(14, 3)
		for j := range first {
			if again[j].Token != first[j].Token {
				t.Fatalf("run %d: got[%d] = %q, want %q", i, j, again[j].Token, first[j].Token)
			}
		}
	}

	wantOrder := []string{"apple", "berry", "mango", "zebra"}
	for i, w := range wantOrder {
		if first[i].Token != w {
			t.Errorf("order[%d] = %q, want %q", i, first[i].Token, w)
		}
	}
}

// BenchmarkFilter benchmarks the ingestion predicate over a map the size
// of a typical document fingerprint.
func BenchmarkFilter(b *testing.B) {
	doc := make(Document, 2000)
	for i := 0; i < 2000; i++ {
		token := ""
		for n := i; ; n = n / 26 {
			token += string(rune('a' + n%26))
			if n < 26 {
				break
			}
		}
		doc[token] = int64(i%20 + 1)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = doc.Filter(14, 3)
	}
}
