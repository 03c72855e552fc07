package comment

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"

	"github.com/geofeed/backend/internal/lib"
	"github.com/geofeed/backend/internal/middleware"
	"github.com/geofeed/backend/internal/orm"
	"github.com/geofeed/backend/internal/services"
)

type memoryCommentStore struct {
	posts     map[uuid.UUID]*orm.Post
	comments  map[uuid.UUID]*orm.Comment
	likes     map[uuid.UUID]*orm.CommentLike
	lastOrder lib.Order
	lastLimit int
}

func newMemoryCommentStore() *memoryCommentStore {
	return &memoryCommentStore{
		posts:    map[uuid.UUID]*orm.Post{},
		comments: map[uuid.UUID]*orm.Comment{},
		likes:    map[uuid.UUID]*orm.CommentLike{},
	}
}

func (s *memoryCommentStore) SelectPostByID(ctx context.Context, id string) (*orm.Post, error) {
	post, ok := s.posts[uuid.MustParse(id)]
	if !ok || post.IsDeleted {
		return nil, gorm.ErrRecordNotFound
	}
	return post, nil
}

func (s *memoryCommentStore) SelectCommentByID(ctx context.Context, postID string, id string) (*orm.Comment, error) {
	comment, ok := s.comments[uuid.MustParse(id)]
	if !ok || comment.IsDeleted || comment.PostID.String() != postID {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *comment
	return &copied, nil
}

func (s *memoryCommentStore) SelectComments(ctx context.Context, postID string, parentID *uuid.UUID, order lib.Order, cursor string, limit int) ([]*orm.Comment, bool, error) {
	s.lastOrder = order
	s.lastLimit = limit

	var comments []*orm.Comment
	for _, comment := range s.comments {
		if comment.PostID.String() != postID {
			continue
		}
		if (parentID == nil) != (comment.ParentCommentID == nil) {
			continue
		}
		if parentID != nil && *parentID != *comment.ParentCommentID {
			continue
		}
		if comment.IsDeleted && comment.RepliesCount == 0 {
			continue
		}
		copied := *comment
		comments = append(comments, &copied)
	}
	comments, hasMore := lib.Trim(comments, limit)
	return comments, hasMore, nil
}

func (s *memoryCommentStore) InsertComment(ctx context.Context, comment *orm.Comment) error {
	post, ok := s.posts[comment.PostID]
	if !ok || post.IsDeleted {
		return gorm.ErrRecordNotFound
	}
	if comment.ParentCommentID != nil {
		parent, ok := s.comments[*comment.ParentCommentID]
		if !ok || parent.IsDeleted || parent.PostID != comment.PostID {
			return gorm.ErrRecordNotFound
		}
		parent.RepliesCount++
	}
	comment.ID = uuid.New()
	post.CommentsCount++
	s.comments[comment.ID] = comment
	return nil
}

func (s *memoryCommentStore) UpdateCommentContent(ctx context.Context, comment *orm.Comment) error {
	s.comments[comment.ID].Content = comment.Content
	return nil
}

func (s *memoryCommentStore) SoftDeleteComment(ctx context.Context, comment *orm.Comment) error {
	stored := s.comments[comment.ID]
	if stored.IsDeleted {
		return gorm.ErrRecordNotFound
	}
	stored.IsDeleted = true
	s.posts[stored.PostID].CommentsCount--
	if stored.ParentCommentID != nil {
		s.comments[*stored.ParentCommentID].RepliesCount--
	}
	return nil
}

func (s *memoryCommentStore) SelectCommentLikesByUser(ctx context.Context, userID uuid.UUID, commentIDs []uuid.UUID) (map[uuid.UUID]*orm.CommentLike, error) {
	result := map[uuid.UUID]*orm.CommentLike{}
	for _, id := range commentIDs {
		if like, ok := s.likes[id]; ok && like.UserID == userID {
			result[id] = like
		}
	}
	return result, nil
}

func authenticated(userID uuid.UUID) context.Context {
	return middleware.SetUserID(context.Background(), userID.String())
}

func setup() (*memoryCommentStore, services.CommentService, *orm.Post) {
	store := newMemoryCommentStore()
	post := &orm.Post{ID: uuid.New()}
	store.posts[post.ID] = post
	return store, NewCommentService(store, lib.DefaultContentFilter(), zap.NewNop()), post
}

func TestCreateCommentAndReply(t *testing.T) {
	store, service, post := setup()
	authorID := uuid.New()

	root, err := service.CreateComment(authenticated(authorID), post.ID.String(), "", "  first!  ")
	if err != nil {
		t.Fatal(err)
	}
	if root.Comment.Content != "first!" {
		t.Fatalf("expected trimmed content, got %q", root.Comment.Content)
	}

	reply, err := service.CreateComment(authenticated(uuid.New()), post.ID.String(), root.Comment.ID.String(), "agreed")
	if err != nil {
		t.Fatal(err)
	}
	if *reply.Comment.ParentCommentID != root.Comment.ID {
		t.Fatalf("reply must point at its parent")
	}
	if post.CommentsCount != 2 || store.comments[root.Comment.ID].RepliesCount != 1 {
		t.Fatalf("unexpected counters: comments %d, replies %d", post.CommentsCount, store.comments[root.Comment.ID].RepliesCount)
	}
}

func TestCreateCommentErrors(t *testing.T) {
	_, service, post := setup()

	cases := []struct {
		name    string
		ctx     context.Context
		postID  string
		parent  string
		content string
		code    codes.Code
	}{
		{"anonymous", context.Background(), post.ID.String(), "", "hi", codes.Unauthenticated},
		{"blank", authenticated(uuid.New()), post.ID.String(), "", "   ", codes.InvalidArgument},
		{"filtered", authenticated(uuid.New()), post.ID.String(), "", "total spam", codes.InvalidArgument},
		{"bad post id", authenticated(uuid.New()), "x", "", "hi", codes.InvalidArgument},
		{"missing post", authenticated(uuid.New()), uuid.NewString(), "", "hi", codes.NotFound},
		{"missing parent", authenticated(uuid.New()), post.ID.String(), uuid.NewString(), "hi", codes.NotFound},
	}
	for _, c := range cases {
		_, err := service.CreateComment(c.ctx, c.postID, c.parent, c.content)
		if status.Code(err) != c.code {
			t.Fatalf("%s: expected %s, got %v", c.name, c.code, err)
		}
	}
}

func TestListComments(t *testing.T) {
	store, service, post := setup()
	userID := uuid.New()

	live := &orm.Comment{ID: uuid.New(), PostID: post.ID, Content: "live"}
	deletedWithReplies := &orm.Comment{ID: uuid.New(), PostID: post.ID, Content: "secret", IsDeleted: true, RepliesCount: 1}
	deletedAlone := &orm.Comment{ID: uuid.New(), PostID: post.ID, Content: "gone", IsDeleted: true}
	for _, comment := range []*orm.Comment{live, deletedWithReplies, deletedAlone} {
		store.comments[comment.ID] = comment
	}
	store.likes[live.ID] = &orm.CommentLike{UserID: userID, CommentID: live.ID, Value: -1}

	page, err := service.ListComments(authenticated(userID), post.ID.String(), services.CommentQuery{Sort: "top", Take: 500})
	if err != nil {
		t.Fatal(err)
	}
	if store.lastOrder != lib.OrderTop || store.lastLimit != lib.MaxTake {
		t.Fatalf("unexpected order %v / limit %d", store.lastOrder, store.lastLimit)
	}
	if len(page.Comments) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(page.Comments))
	}
	for _, item := range page.Comments {
		switch item.Comment.ID {
		case live.ID:
			if item.Like == nil || item.Like.Value != -1 {
				t.Fatalf("expected own like on live comment, got %+v", item.Like)
			}
		case deletedWithReplies.ID:
			if item.Comment.Content != "" {
				t.Fatalf("deleted comment content must be blanked, got %q", item.Comment.Content)
			}
		default:
			t.Fatalf("unexpected comment %s", item.Comment.ID)
		}
	}

	_, err = service.ListComments(context.Background(), post.ID.String(), services.CommentQuery{Sort: "hot"})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument for unknown sort, got %v", err)
	}

	post.IsDeleted = true
	_, err = service.ListComments(context.Background(), post.ID.String(), services.CommentQuery{})
	if status.Code(err) != codes.NotFound {
		t.Fatalf("expected NotFound for deleted post, got %v", err)
	}
}

func TestUpdateAndDeleteComment(t *testing.T) {
	store, service, post := setup()
	authorID := uuid.New()

	root, err := service.CreateComment(authenticated(authorID), post.ID.String(), "", "draft")
	if err != nil {
		t.Fatal(err)
	}
	id := root.Comment.ID.String()

	_, err = service.UpdateComment(authenticated(uuid.New()), post.ID.String(), id, "hijack")
	if status.Code(err) != codes.PermissionDenied {
		t.Fatalf("expected PermissionDenied, got %v", err)
	}

	item, err := service.UpdateComment(authenticated(authorID), post.ID.String(), id, "final")
	if err != nil {
		t.Fatal(err)
	}
	if item.Comment.Content != "final" {
		t.Fatalf("expected updated content, got %q", item.Comment.Content)
	}

	if err := service.DeleteComment(authenticated(authorID), post.ID.String(), id); err != nil {
		t.Fatal(err)
	}
	if post.CommentsCount != 0 || !store.comments[root.Comment.ID].IsDeleted {
		t.Fatalf("expected deleted comment and zero count, got %d", post.CommentsCount)
	}

	err = service.DeleteComment(authenticated(authorID), post.ID.String(), id)
	if status.Code(err) != codes.NotFound {
		t.Fatalf("expected NotFound on second delete, got %v", err)
	}
}
