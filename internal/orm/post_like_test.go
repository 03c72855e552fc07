package orm

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func assertPostPointsMatchLikes(t *testing.T, client *PostgresClient, postID uuid.UUID) int {
	t.Helper()
	ctx := context.Background()

	post, err := client.SelectPostByID(ctx, postID.String())
	if err != nil {
		t.Fatal(err)
	}
	sum, err := client.SumPostLikes(ctx, postID)
	if err != nil {
		t.Fatal(err)
	}
	if int64(post.Points) != sum {
		t.Fatalf("points %d drifted from like sum %d", post.Points, sum)
	}
	return post.Points
}

func TestVotePostTransitions(t *testing.T) {
	client := requireDatabase(t)
	ctx := context.Background()

	author := createUser(t, client)
	voter := createUser(t, client)
	post := createPost(t, client, author, 10, 10)

	steps := []struct {
		value     int
		delta     int
		points    int
		likeValue *int
	}{
		{0, 0, 0, nil},
		{1, 1, 1, intPointer(1)},
		{1, 0, 1, intPointer(1)},
		{-1, -2, -1, intPointer(-1)},
		{0, 1, 0, intPointer(0)},
		{0, 0, 0, intPointer(0)},
		{1, 1, 1, intPointer(1)},
	}

	for i, step := range steps {
		result, err := client.VotePost(ctx, post.ID, voter.ID, step.value)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if result.Delta != step.delta {
			t.Fatalf("step %d: expected delta %d, got %d", i, step.delta, result.Delta)
		}
		if result.Post.Points != step.points {
			t.Fatalf("step %d: expected points %d, got %d", i, step.points, result.Post.Points)
		}
		switch {
		case step.likeValue == nil && result.Like != nil:
			t.Fatalf("step %d: expected no like, got %+v", i, result.Like)
		case step.likeValue != nil && (result.Like == nil || result.Like.Value != *step.likeValue):
			t.Fatalf("step %d: expected like value %d, got %+v", i, *step.likeValue, result.Like)
		}
		assertPostPointsMatchLikes(t, client, post.ID)
	}
}

func TestVotePostWorkedExample(t *testing.T) {
	client := requireDatabase(t)
	ctx := context.Background()

	author := createUser(t, client)
	post := createPost(t, client, author, 11, 11)

	// Five other users bring the post to 5 points.
	for i := 0; i < 5; i++ {
		if _, err := client.VotePost(ctx, post.ID, createUser(t, client).ID, 1); err != nil {
			t.Fatal(err)
		}
	}

	voter := createUser(t, client)
	result, err := client.VotePost(ctx, post.ID, voter.ID, 1)
	if err != nil {
		t.Fatal(err)
	}
	if result.Post.Points != 6 {
		t.Fatalf("expected 6, got %d", result.Post.Points)
	}

	result, err = client.VotePost(ctx, post.ID, voter.ID, 1)
	if err != nil {
		t.Fatal(err)
	}
	if result.Post.Points != 6 {
		t.Fatalf("repeat vote must be a no-op, got %d", result.Post.Points)
	}

	result, err = client.VotePost(ctx, post.ID, voter.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if result.Post.Points != 5 || result.Like.Value != 0 {
		t.Fatalf("expected withdrawn vote at 5 points, got %d / %+v", result.Post.Points, result.Like)
	}
}

func TestVotePostConcurrentVotersDoNotLoseUpdates(t *testing.T) {
	client := requireDatabase(t)
	ctx := context.Background()

	author := createUser(t, client)
	post := createPost(t, client, author, 12, 12)

	const voters = 12
	users := make([]*User, voters)
	for i := range users {
		users[i] = createUser(t, client)
	}

	var waitGroup sync.WaitGroup
	errs := make(chan error, voters)
	for i, user := range users {
		waitGroup.Add(1)
		go func(i int, user *User) {
			defer waitGroup.Done()
			value := 1
			if i%3 == 0 {
				value = -1
			}
			if _, err := client.VotePost(ctx, post.ID, user.ID, value); err != nil {
				errs <- err
			}
		}(i, user)
	}
	waitGroup.Wait()
	close(errs)

	for err := range errs {
		t.Fatal(err)
	}

	points := assertPostPointsMatchLikes(t, client, post.ID)
	if points != 4 {
		t.Fatalf("expected 8 up and 4 down = 4, got %d", points)
	}
}

func TestVotePostOnDeletedPost(t *testing.T) {
	client := requireDatabase(t)
	ctx := context.Background()

	author := createUser(t, client)
	post := createPost(t, client, author, 13, 13)
	if err := client.SoftDeletePost(ctx, post); err != nil {
		t.Fatal(err)
	}

	_, err := client.VotePost(ctx, post.ID, author.ID, 1)
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	_, err = client.VotePost(ctx, uuid.New(), author.ID, 1)
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not found for missing post, got %v", err)
	}
}

func TestSelectPostLikesByUser(t *testing.T) {
	client := requireDatabase(t)
	ctx := context.Background()

	author := createUser(t, client)
	voter := createUser(t, client)
	liked := createPost(t, client, author, 14, 14)
	untouched := createPost(t, client, author, 14, 14)

	if _, err := client.VotePost(ctx, liked.ID, voter.ID, -1); err != nil {
		t.Fatal(err)
	}
	if _, err := client.VotePost(ctx, liked.ID, author.ID, 1); err != nil {
		t.Fatal(err)
	}

	likes, err := client.SelectPostLikesByUser(ctx, voter.ID, []uuid.UUID{liked.ID, untouched.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(likes) != 1 || likes[liked.ID].Value != -1 {
		t.Fatalf("expected only the voter's own like, got %+v", likes)
	}
}

func intPointer(value int) *int {
	return &value
}
