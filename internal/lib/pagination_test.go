package lib

import "testing"

func TestNormalizeTake(t *testing.T) {
	cases := map[int]int{0: DefaultTake, -3: DefaultTake, 5: 5, 50: 50, 500: MaxTake}
	for in, want := range cases {
		if got := NormalizeTake(in); got != want {
			t.Fatalf("NormalizeTake(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestTrim(t *testing.T) {
	items, hasMore := Trim([]int{1, 2, 3, 4}, 3)
	if !hasMore || len(items) != 3 {
		t.Fatalf("expected 3 items with more, got %v %v", items, hasMore)
	}

	items, hasMore = Trim([]int{1, 2, 3}, 3)
	if hasMore || len(items) != 3 {
		t.Fatalf("expected 3 items without more, got %v %v", items, hasMore)
	}
}

func TestOrderClause(t *testing.T) {
	if got := OrderNewest.Clause("post"); got != "post.created_at DESC, post.id DESC" {
		t.Fatalf("unexpected newest clause %q", got)
	}
	if got := OrderTop.Clause("comment"); got != "comment.points DESC, comment.created_at DESC, comment.id DESC" {
		t.Fatalf("unexpected top clause %q", got)
	}
}
