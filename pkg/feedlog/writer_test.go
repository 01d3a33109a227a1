package feedlog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines
}

func TestWriteFeedDropsInvalidRecords(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "feed.jsonl")

	w, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	cases := []FeedRecord{
		{TsUS: 0, Symbol: "AAPL", Book: json.RawMessage(`{}`)},
		{TsUS: -5, Symbol: "AAPL", Book: json.RawMessage(`{}`)},
		{TsUS: 1, Symbol: "", Book: json.RawMessage(`{}`)},
		{TsUS: 1, Symbol: "AAPL", Book: nil},
	}
	for _, c := range cases {
		if err := w.WriteFeed(c); err != nil {
			t.Fatalf("WriteFeed: %v", err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	lines := readLines(t, path)
	if len(lines) != 0 {
		t.Errorf("expected all invalid records dropped, got %d lines", len(lines))
	}
	w.Close()
}

func TestWriteFeedValidRecordRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feed.jsonl")

	w, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	rec := FeedRecord{TsUS: 123, Symbol: "AAPL", Processed: 7, Depth: 10, Book: json.RawMessage(`{"bids":[]}`)}
	if err := w.WriteFeed(rec); err != nil {
		t.Fatalf("WriteFeed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	lines := readLines(t, path)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}

	var got FeedRecord
	if err := json.Unmarshal([]byte(lines[0]), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.TsUS != 123 || got.Symbol != "AAPL" || got.Processed != 7 {
		t.Errorf("got %+v", got)
	}
	if !bytes.Contains(got.Book, []byte(`"bids"`)) {
		t.Errorf("book field not preserved verbatim: %s", got.Book)
	}
}

func TestWriteBenchAppendsAcrossOpens(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bench.jsonl")

	w1, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := w1.WriteBench(BenchRecord{Host: "h1", Port: 9000}); err != nil {
		t.Fatalf("WriteBench: %v", err)
	}
	w1.Close()

	w2, err := Open(path)
	if err != nil {
		t.Fatalf("Open (reopen): %v", err)
	}
	if err := w2.WriteBench(BenchRecord{Host: "h2", Port: 9001}); err != nil {
		t.Fatalf("WriteBench: %v", err)
	}
	w2.Close()

	lines := readLines(t, path)
	if len(lines) != 2 {
		t.Fatalf("expected append mode to preserve both sessions' lines, got %d", len(lines))
	}
}
