package dates

import (
	"testing"
	"time"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"2026-06-01", "01-06-2026"},
		{"01-06-2026", "01-06-2026"},
		{"", ""},
		// Unrecognized formats pass through.
		{"1.6.2026", "1.6.2026"},
		{"06/01/2026", "06/01/2026"},
		{"2026-6-1", "2026-6-1"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToISO(t *testing.T) {
	if got := ToISO("31-12-2025"); got != "2025-12-31" {
		t.Errorf("ToISO = %q, want 2025-12-31", got)
	}
	if got := ToISO("2025-12-31"); got != "2025-12-31" {
		t.Errorf("ToISO should pass through ISO input, got %q", got)
	}
}

func TestParse(t *testing.T) {
	want := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)

	got, ok := Parse("01-06-2026")
	if !ok || !got.Equal(want) {
		t.Errorf("Parse(01-06-2026) = %v, %v", got, ok)
	}

	got, ok = Parse("2026-06-01")
	if !ok || !got.Equal(want) {
		t.Errorf("Parse(2026-06-01) = %v, %v", got, ok)
	}

	if _, ok := Parse("31-02-2026"); ok {
		t.Error("expected invalid calendar date to fail")
	}
	if _, ok := Parse(""); ok {
		t.Error("expected empty date to fail")
	}
	if _, ok := Parse("next week"); ok {
		t.Error("expected free text to fail")
	}
}
