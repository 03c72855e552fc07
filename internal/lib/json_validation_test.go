package lib

import (
	"strings"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestValidateRequestVote(t *testing.T) {
	cases := []struct {
		body string
		ok   bool
	}{
		{`{"value": 1}`, true},
		{`{"value": 0}`, true},
		{`{"value": -1}`, true},
		{`{"value": 2}`, false},
		{`{"value": "1"}`, false},
		{`{}`, false},
		{`not json`, false},
		{``, false},
	}
	for i, c := range cases {
		err := ValidateRequest([]byte(c.body), VoteSchema)
		if c.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !c.ok && status.Code(err) != codes.InvalidArgument {
			t.Fatalf("case %d expected InvalidArgument, got %v", i, err)
		}
	}
}

func TestValidateRequestCreatePost(t *testing.T) {
	valid := `{"title": "Sunset", "content": "Look at this view over the bay", "latitude": 37.8, "longitude": -122.4}`
	if err := ValidateRequest([]byte(valid), CreatePostSchema); err != nil {
		t.Fatalf("expected valid post, got %v", err)
	}

	short := `{"title": "Sun", "latitude": 37.8, "longitude": -122.4}`
	err := ValidateRequest([]byte(short), CreatePostSchema)
	if err == nil || !strings.Contains(status.Convert(err).Message(), "title") {
		t.Fatalf("expected title violation, got %v", err)
	}

	offMap := `{"title": "Sunset", "latitude": 137.8, "longitude": -122.4}`
	if err := ValidateRequest([]byte(offMap), CreatePostSchema); err == nil {
		t.Fatal("expected latitude violation")
	}

	onePoll := `{"title": "Lunch?", "latitude": 1, "longitude": 1, "poll": {"votingLength": 24, "options": ["pizza"]}}`
	if err := ValidateRequest([]byte(onePoll), CreatePostSchema); err == nil {
		t.Fatal("expected poll options violation")
	}
}

func TestValidateRequestPollVote(t *testing.T) {
	if err := ValidateRequest([]byte(`{"optionId": "c1f8e4d9-8b9a-4b7c-8c6f-4e2b0e1d7a3e"}`), PollVoteSchema); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := ValidateRequest([]byte(`{"optionId": "7"}`), PollVoteSchema); err == nil {
		t.Fatal("expected pattern violation")
	}
}
