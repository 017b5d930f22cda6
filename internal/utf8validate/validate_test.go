package utf8validate

import (
	"testing"
	"unicode/utf8"
)

func TestValidAgainstStdlib(t *testing.T) {
	tests := []struct {
		name string
		b    []byte
	}{
		{"empty", []byte{}},
		{"ascii", []byte("hello, world")},
		{"two-byte", []byte("héllo")},
		{"three-byte", []byte("日本語")},
		{"four-byte", []byte("𝄞 clef")},
		{"overlong two-byte", []byte{0xC0, 0x80}},
		{"overlong three-byte", []byte{0xE0, 0x80, 0x80}},
		{"surrogate high", []byte{0xED, 0xA0, 0x80}},
		{"surrogate low", []byte{0xED, 0xBF, 0xBF}},
		{"truncated two-byte", []byte{0xC2}},
		{"lone continuation", []byte{0x80}},
		{"beyond max code point", []byte{0xF4, 0x90, 0x80, 0x80}},
		{"5-byte lead invalid", []byte{0xF8, 0x80, 0x80, 0x80, 0x80}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := utf8.Valid(tt.b)
			got := Valid(tt.b)
			if got != want {
				t.Fatalf("Valid(%v) = %v, want %v (stdlib)", tt.b, got, want)
			}
		})
	}
}

func TestIncrementalAcrossFeeds(t *testing.T) {
	// "日本語" split mid-codepoint across two Feed calls must validate the
	// same as feeding it whole, supporting a TEXT frame fragmented right
	// in the middle of a multi-byte rune.
	full := []byte("日本語")

	var whole State
	if !whole.Feed(full) || !whole.Complete() {
		t.Fatal("whole buffer should be valid")
	}

	for split := 1; split < len(full); split++ {
		var s State
		ok1 := s.Feed(full[:split])
		ok2 := s.Feed(full[split:])
		if !ok1 || !ok2 || !s.Complete() {
			t.Fatalf("split at %d: feed results (%v,%v) complete=%v, want all true", split, ok1, ok2, s.Complete())
		}
	}
}

func TestIncompleteSequenceNotComplete(t *testing.T) {
	var s State
	if !s.Feed([]byte{0xE4}) {
		t.Fatal("a valid lead byte alone should not fail Feed")
	}
	if s.Complete() {
		t.Fatal("Complete should be false with continuation bytes still pending")
	}
}

func TestStickyInvalid(t *testing.T) {
	var s State
	if s.Feed([]byte{0xFF}) {
		t.Fatal("0xFF is never a valid lead byte")
	}
	if s.Feed([]byte("hello")) {
		t.Fatal("State must stay invalid once Feed has failed")
	}
}

func TestReset(t *testing.T) {
	var s State
	s.Feed([]byte{0xFF})
	s.Reset()
	if !s.Feed([]byte("ok")) || !s.Complete() {
		t.Fatal("Reset should clear sticky invalid state")
	}
}
