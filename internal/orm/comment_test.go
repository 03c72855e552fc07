package orm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/geofeed/backend/internal/lib"
)

func TestInsertCommentUpdatesCounters(t *testing.T) {
	client := requireDatabase(t)
	ctx := context.Background()

	author := createUser(t, client)
	post := createPost(t, client, author, 20, 20)

	parent := createComment(t, client, post, author, nil)
	createComment(t, client, post, author, parent)
	reply := createComment(t, client, post, author, parent)

	if reply.Author.ID != author.ID {
		t.Fatalf("expected author to be loaded, got %+v", reply.Author)
	}

	loadedPost, err := client.SelectPostByID(ctx, post.ID.String())
	if err != nil {
		t.Fatal(err)
	}
	if loadedPost.CommentsCount != 3 {
		t.Fatalf("expected 3 comments, got %d", loadedPost.CommentsCount)
	}

	loadedParent, err := client.SelectCommentByID(ctx, post.ID.String(), parent.ID.String())
	if err != nil {
		t.Fatal(err)
	}
	if loadedParent.RepliesCount != 2 {
		t.Fatalf("expected 2 replies, got %d", loadedParent.RepliesCount)
	}

	if err := client.SoftDeleteComment(ctx, reply); err != nil {
		t.Fatal(err)
	}
	if err := client.SoftDeleteComment(ctx, reply); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected second delete to report not found, got %v", err)
	}

	loadedPost, _ = client.SelectPostByID(ctx, post.ID.String())
	loadedParent, _ = client.SelectCommentByID(ctx, post.ID.String(), parent.ID.String())
	if loadedPost.CommentsCount != 2 || loadedParent.RepliesCount != 1 {
		t.Fatalf("expected counters 2/1, got %d/%d", loadedPost.CommentsCount, loadedParent.RepliesCount)
	}
}

func TestInsertCommentRejectsForeignParent(t *testing.T) {
	client := requireDatabase(t)
	ctx := context.Background()

	author := createUser(t, client)
	post := createPost(t, client, author, 21, 21)
	other := createPost(t, client, author, 21, 21)
	parent := createComment(t, client, other, author, nil)

	comment := &Comment{PostID: post.ID, AuthorID: author.ID, Content: "x", ParentCommentID: &parent.ID}
	if err := client.InsertComment(ctx, comment); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestVoteCommentScopedToPost(t *testing.T) {
	client := requireDatabase(t)
	ctx := context.Background()

	author := createUser(t, client)
	voter := createUser(t, client)
	post := createPost(t, client, author, 22, 22)
	other := createPost(t, client, author, 22, 22)
	comment := createComment(t, client, post, author, nil)

	result, err := client.VoteComment(ctx, post.ID, comment.ID, voter.ID, -1)
	if err != nil {
		t.Fatal(err)
	}
	if result.Comment.Points != -1 || result.Like.Value != -1 {
		t.Fatalf("unexpected result %+v", result)
	}

	if _, err := client.VoteComment(ctx, other.ID, comment.ID, voter.ID, 1); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not found for comment on another post, got %v", err)
	}

	result, err = client.VoteComment(ctx, post.ID, comment.ID, voter.ID, 1)
	if err != nil {
		t.Fatal(err)
	}
	if result.Delta != 2 || result.Comment.Points != 1 {
		t.Fatalf("expected switch to +1, got %+v", result)
	}

	sum, err := client.SumCommentLikes(ctx, comment.ID)
	if err != nil {
		t.Fatal(err)
	}
	if sum != 1 {
		t.Fatalf("expected like sum 1, got %d", sum)
	}

	likes, err := client.SelectCommentLikesByUser(ctx, voter.ID, []uuid.UUID{comment.ID})
	if err != nil {
		t.Fatal(err)
	}
	if likes[comment.ID] == nil || likes[comment.ID].Value != 1 {
		t.Fatalf("unexpected likes %+v", likes)
	}
}

func TestVoteCommentWaitsForPostDelete(t *testing.T) {
	client := requireDatabase(t)
	ctx := context.Background()

	author := createUser(t, client)
	voter := createUser(t, client)
	post := createPost(t, client, author, 23, 23)
	comment := createComment(t, client, post, author, nil)

	deleting := client.database.WithContext(ctx).Begin()
	if deleting.Error != nil {
		t.Fatal(deleting.Error)
	}
	defer deleting.Rollback()
	if err := deleting.Model(&Post{}).Where("id = ?", post.ID).Update("is_deleted", true).Error; err != nil {
		t.Fatal(err)
	}

	voted := make(chan error, 1)
	go func() {
		_, err := client.VoteComment(ctx, post.ID, comment.ID, voter.ID, 1)
		voted <- err
	}()

	select {
	case err := <-voted:
		t.Fatalf("vote must wait for the pending delete, got %v", err)
	case <-time.After(200 * time.Millisecond):
	}

	if err := deleting.Commit().Error; err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-voted:
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			t.Fatalf("expected not found once the post is deleted, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("vote did not finish after the delete committed")
	}

	sum, err := client.SumCommentLikes(ctx, comment.ID)
	if err != nil {
		t.Fatal(err)
	}
	if sum != 0 {
		t.Fatalf("no like may land on a deleted post, got sum %d", sum)
	}
}

func TestSelectCommentsPagination(t *testing.T) {
	client := requireDatabase(t)
	ctx := context.Background()

	author := createUser(t, client)
	voter := createUser(t, client)
	post := createPost(t, client, author, 23, 23)

	var created []*Comment
	for i := 0; i < 5; i++ {
		created = append(created, createComment(t, client, post, author, nil))
	}
	createComment(t, client, post, author, created[0])

	// Newest first, two per page.
	seen := map[uuid.UUID]bool{}
	cursor := ""
	pages := 0
	for {
		comments, hasMore, err := client.SelectComments(ctx, post.ID.String(), nil, lib.OrderNewest, cursor, 2)
		if err != nil {
			t.Fatal(err)
		}
		pages++
		for _, comment := range comments {
			if comment.ParentCommentID != nil {
				t.Fatal("replies must not appear in the top level listing")
			}
			if seen[comment.ID] {
				t.Fatalf("comment %s returned twice", comment.ID)
			}
			seen[comment.ID] = true
		}
		if !hasMore {
			break
		}
		cursor = comments[len(comments)-1].ID.String()
	}
	if len(seen) != 5 || pages != 3 {
		t.Fatalf("expected 5 comments over 3 pages, got %d over %d", len(seen), pages)
	}

	// Top sorts by points.
	if _, err := client.VoteComment(ctx, post.ID, created[2].ID, voter.ID, 1); err != nil {
		t.Fatal(err)
	}
	top, _, err := client.SelectComments(ctx, post.ID.String(), nil, lib.OrderTop, "", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 1 || top[0].ID != created[2].ID {
		t.Fatalf("expected the voted comment first, got %+v", top)
	}

	replies, hasMore, err := client.SelectComments(ctx, post.ID.String(), &created[0].ID, lib.OrderNewest, "", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(replies) != 1 || hasMore {
		t.Fatalf("expected one reply, got %d (hasMore=%v)", len(replies), hasMore)
	}

	// A deleted parent with replies stays listed.
	if err := client.SoftDeleteComment(ctx, created[0]); err != nil {
		t.Fatal(err)
	}
	all, _, err := client.SelectComments(ctx, post.ID.String(), nil, lib.OrderNewest, "", 10)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, comment := range all {
		if comment.ID == created[0].ID {
			found = comment.IsDeleted
		}
	}
	if !found {
		t.Fatal("expected deleted parent with replies in listing")
	}
}
