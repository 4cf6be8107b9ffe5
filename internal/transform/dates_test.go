package transform

import (
	"testing"
	"time"
)

func TestStandardDate(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		in   string
		want string
	}{
		{"Tue, 02 Jan 2024 15:04:05 +0000", "2024-01-02"},
		{"Tue, 2 Jan 2024 15:04:05 EST", "2024-01-02"},
		{"2024-01-02T15:04:05Z", "2024-01-02"},
		{"2024-01-02", "2024-01-02"},
		{"2004", "2004-01-01"},
		{"2004-07", "2004-07-01"},
		{"Jan 2, 2024", "2024-01-02"},
		{"3 days ago", "2024-06-12"},
		{"5 hours ago", "2024-06-15"},
		{"2 days 13 hours ago", "2024-06-12"},
		{"13 hours 2 days ago", "2024-06-12"},
		{"not a date", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := standardDateAt(tt.in, now); got != tt.want {
			t.Errorf("standardDateAt(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStandardDuration(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"01:02:03", "01:02:03"},
		{"1:02:03", "01:02:03"},
		{"42:10", "00:42:10"},
		{"3600000", "01:00:00"},
		{"125000", "00:02:05"},
		{"abc", ""},
		{"1:99:00", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := StandardDuration(tt.in); got != tt.want {
			t.Errorf("StandardDuration(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMillisToDuration(t *testing.T) {
	if got := MillisToDuration(3725000); got != "01:02:05" {
		t.Errorf("MillisToDuration(3725000) = %q", got)
	}
}
