package engine

import (
	"context"
	"testing"
	"time"
)

func TestCacheKey(t *testing.T) {
	a := CacheKey("search", "go concurrency")
	b := CacheKey("search", "go concurrency")
	c := CacheKey("videos", "go concurrency")

	if a != b {
		t.Error("same inputs must produce the same key")
	}
	if a == c {
		t.Error("different modes must produce different keys")
	}
}

func TestCacheRoundTrip(t *testing.T) {
	InitCache("", time.Minute, 100, time.Minute)
	t.Cleanup(func() { searchCache = nil })

	ctx := context.Background()
	key := CacheKey("search", "cache round trip")

	records := []Record{
		ArticleRecord{URL: "https://a.com/1", Title: "one", Text: "body", Status: ExtractionOK},
		VideoRecord{URL: "https://www.youtube.com/watch?v=abcdefghijk", VideoID: "abcdefghijk", TranscriptText: "hi", TranscriptSource: TranscriptNativeCaptions, Status: StatusOK},
	}

	if _, ok := CacheGetRecords(ctx, key); ok {
		t.Fatal("unexpected hit before set")
	}

	CacheSetRecords(ctx, key, records)

	got, ok := CacheGetRecords(ctx, key)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if a, ok := got[0].(ArticleRecord); !ok || a.Text != "body" {
		t.Errorf("article did not round-trip: %+v", got[0])
	}
	if v, ok := got[1].(VideoRecord); !ok || v.TranscriptText != "hi" {
		t.Errorf("video did not round-trip: %+v", got[1])
	}
}

func TestCacheExpiry(t *testing.T) {
	InitCache("", 10*time.Millisecond, 100, time.Minute)
	t.Cleanup(func() { searchCache = nil })

	ctx := context.Background()
	key := CacheKey("search", "cache expiry")

	CacheSetRecords(ctx, key, []Record{ArticleRecord{URL: "https://a.com/1", Status: ExtractionOK}})
	time.Sleep(30 * time.Millisecond)

	if _, ok := CacheGetRecords(ctx, key); ok {
		t.Error("expected expired entry to miss")
	}
}
