package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNormalizeLimit(t *testing.T) {
	if got := NormalizeLimit(0); got != DefaultLimit {
		t.Fatalf("expected default limit, got %d", got)
	}
	if got := NormalizeLimit(-5); got != DefaultLimit {
		t.Fatalf("expected default limit for negatives, got %d", got)
	}
	if got := NormalizeLimit(MaxLimit + 50); got != MaxLimit {
		t.Fatalf("expected cap at max, got %d", got)
	}
	if got := NormalizeLimit(10); got != 10 {
		t.Fatalf("expected passthrough, got %d", got)
	}
	if got := LimitWithBuffer(10); got != 11 {
		t.Fatalf("expected buffered limit 11, got %d", got)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	cursor := Cursor{
		CreatedAt: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		ID:        uuid.New(),
	}

	parsed, err := ParseCursor(EncodeCursor(cursor))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if parsed == nil {
		t.Fatal("expected cursor, got nil")
	}
	if !parsed.CreatedAt.Equal(cursor.CreatedAt) || parsed.ID != cursor.ID {
		t.Fatalf("round trip mismatch: %+v vs %+v", parsed, cursor)
	}
}

func TestParseCursor_Invalid(t *testing.T) {
	if got, err := ParseCursor(""); err != nil || got != nil {
		t.Fatalf("empty cursor should be nil, got %v %v", got, err)
	}
	if _, err := ParseCursor("not-base64!!!"); err == nil {
		t.Fatal("expected decode error")
	}
	if _, err := ParseCursor("bm8tcGlwZQ=="); err == nil {
		t.Fatal("expected format error")
	}
}
