package cli

import "testing"

func TestFormatTime(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{0, "0:00"},
		{9.4, "0:09"},
		{59.9, "0:59"},
		{60, "1:00"},
		{125, "2:05"},
		{-3, "0:00"},
		{3725, "62:05"},
	}
	for _, c := range cases {
		if got := FormatTime(c.seconds); got != c.want {
			t.Errorf("FormatTime(%v) = %q, want %q", c.seconds, got, c.want)
		}
	}
}
