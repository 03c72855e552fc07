package lib

import (
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestValidateVoteValue(t *testing.T) {
	for _, value := range []int{-1, 0, 1} {
		if err := ValidateVoteValue(value); err != nil {
			t.Fatalf("value %d expected ok, got %v", value, err)
		}
	}
	for _, value := range []int{-2, 2, 10} {
		err := ValidateVoteValue(value)
		if status.Code(err) != codes.InvalidArgument {
			t.Fatalf("value %d expected InvalidArgument, got %v", value, err)
		}
	}
}

func TestPredictVote(t *testing.T) {
	cases := []struct {
		name        string
		hasPrevious bool
		previous    int
		clicked     int
		want        Prediction
	}{
		{"first upvote", false, 0, 1, Prediction{Value: 1, Delta: 1}},
		{"first downvote", false, 0, -1, Prediction{Value: -1, Delta: -1}},
		{"toggle upvote off", true, 1, 1, Prediction{Value: 0, Delta: -1}},
		{"toggle downvote off", true, -1, -1, Prediction{Value: 0, Delta: 1}},
		{"switch up to down", true, 1, -1, Prediction{Value: -1, Delta: -2}},
		{"switch down to up", true, -1, 1, Prediction{Value: 1, Delta: 2}},
		{"revote after withdraw", true, 0, 1, Prediction{Value: 1, Delta: 1}},
	}

	for _, c := range cases {
		got := PredictVote(c.hasPrevious, c.previous, c.clicked)
		if got != c.want {
			t.Fatalf("%s: expected %+v, got %+v", c.name, c.want, got)
		}
	}
}

func TestPredictVoteToggleLaw(t *testing.T) {
	points := 5
	first := PredictVote(false, 0, 1)
	points += first.Delta
	second := PredictVote(true, first.Value, 1)
	points += second.Delta

	if second.Value != 0 {
		t.Fatalf("expected withdrawn vote, got %d", second.Value)
	}
	if points != 5 {
		t.Fatalf("expected points back at 5, got %d", points)
	}
}
