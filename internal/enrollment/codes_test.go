package enrollment

import "testing"

func TestFormatCode(t *testing.T) {
	if got := formatCode("3", 2025, 1); got != "3-2025-0001" {
		t.Errorf("formatCode = %q", got)
	}
	if got := formatCode("cs101", 2026, 42); got != "cs101-2026-0042" {
		t.Errorf("formatCode = %q", got)
	}
}

func TestNextSeq(t *testing.T) {
	cases := []struct {
		last string
		want int
	}{
		{"", 1},
		{"3-2025-0001", 2},
		{"3-2025-0004", 5},
		{"3-2025-0099", 100},
		{"cs101-2026-9999", 10000},
	}
	for _, c := range cases {
		got, err := nextSeq(c.last)
		if err != nil {
			t.Errorf("nextSeq(%q): %v", c.last, err)
			continue
		}
		if got != c.want {
			t.Errorf("nextSeq(%q) = %d, want %d", c.last, got, c.want)
		}
	}
}

func TestNextSeqMalformed(t *testing.T) {
	for _, last := range []string{"nonsense", "3-2025-", "3-2025-abcd"} {
		if _, err := nextSeq(last); err == nil {
			t.Errorf("nextSeq(%q): want error", last)
		}
	}
}
