package maker

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/shopspring/decimal"
)

func frame(payload string) []byte {
	var buf bytes.Buffer
	var lenPrefix [4]byte
	binary.BigEndian.PutUint32(lenPrefix[:], uint32(len(payload)))
	buf.Write(lenPrefix[:])
	buf.WriteString(payload)
	return buf.Bytes()
}

func TestSplitFramesSingle(t *testing.T) {
	t.Parallel()

	data := frame(`{"a":1}`)
	frames := splitFrames(data)
	if len(frames) != 1 || string(frames[0]) != `{"a":1}` {
		t.Fatalf("splitFrames() = %v", frames)
	}
}

func TestSplitFramesMultipleBatched(t *testing.T) {
	t.Parallel()

	var data []byte
	data = append(data, frame(`{"a":1}`)...)
	data = append(data, frame(`{"b":2}`)...)

	frames := splitFrames(data)
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d: %v", len(frames), frames)
	}
	if string(frames[0]) != `{"a":1}` || string(frames[1]) != `{"b":2}` {
		t.Fatalf("frames decoded incorrectly: %v", frames)
	}
}

func TestSplitFramesTolerateMissingLengthPrefix(t *testing.T) {
	t.Parallel()

	data := []byte(`not-length-prefixed`)
	frames := splitFrames(data)
	if len(frames) != 1 || string(frames[0]) != string(data) {
		t.Fatalf("expected the raw message to pass through unchanged, got %v", frames)
	}
}

func TestSplitFramesTruncatedLengthIsDropped(t *testing.T) {
	t.Parallel()

	var lenPrefix [4]byte
	binary.BigEndian.PutUint32(lenPrefix[:], 100) // claims 100 bytes but supplies none
	frames := splitFrames(lenPrefix[:])
	if len(frames) != 0 {
		t.Fatalf("expected a truncated frame to be dropped, got %v", frames)
	}
}

func TestParseLevelsSkipsMalformedEntries(t *testing.T) {
	t.Parallel()

	levels := parseLevels([]wireLevel{
		{Price: "101.5", Size: "10"},
		{Price: "not-a-number", Size: "10"},
		{Price: "99.5", Size: "bad"},
	})

	if len(levels) != 1 {
		t.Fatalf("expected only the well-formed level to survive, got %d: %+v", len(levels), levels)
	}
	if !levels[0].Price.Equal(decimal.RequireFromString("101.5")) {
		t.Fatalf("unexpected price: %s", levels[0].Price)
	}
}
