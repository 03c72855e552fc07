package lib

import "testing"

func TestContentFilter(t *testing.T) {
	filter := NewContentFilter([]string{"Spam", " scam "})

	cases := []struct {
		text  string
		clean bool
	}{
		{"great coffee here", true},
		{"total SPAM post", false},
		{"scam!", false},
		{"spammy but allowed", true},
		{"", true},
	}
	for i, c := range cases {
		if got := filter.IsClean(c.text); got != c.clean {
			t.Fatalf("case %d (%q) expected %v, got %v", i, c.text, c.clean, got)
		}
	}

	if err := filter.Check("title", "scam"); err == nil {
		t.Fatal("expected error for blocked word")
	}
}
