package comment

import (
	"context"
	"errors"
	"strings"

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

type CommentServiceImpl struct {
	db     services.CommentStore
	filter *lib.ContentFilter
	log    *zap.Logger
}

func NewCommentService(db services.CommentStore, filter *lib.ContentFilter, log *zap.Logger) services.CommentService {
	return &CommentServiceImpl{
		db:     db,
		filter: filter,
		log:    log,
	}
}

func (s *CommentServiceImpl) CreateComment(ctx context.Context, postID string, parentCommentID string, content string) (*services.CommentItem, error) {
	userID, err := middleware.GetUserUUID(ctx)
	if err != nil {
		return nil, status.Errorf(codes.Unauthenticated, "Unauthorized")
	}

	postUUID, err := uuid.Parse(postID)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid post id")
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, status.Errorf(codes.InvalidArgument, "content is required")
	}
	if err := s.filter.Check("content", content); err != nil {
		return nil, err
	}

	comment := &orm.Comment{
		PostID:   postUUID,
		AuthorID: userID,
		Content:  content,
	}

	if parentCommentID != "" {
		parentUUID, err := uuid.Parse(parentCommentID)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "invalid parent comment id")
		}
		comment.ParentCommentID = &parentUUID
	}

	if err := s.db.InsertComment(ctx, comment); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if comment.ParentCommentID != nil {
				return nil, status.Errorf(codes.NotFound, "post or parent comment not found")
			}
			return nil, status.Errorf(codes.NotFound, "post not found")
		}
		s.log.Error("error inserting comment", zap.Error(err))
		return nil, status.Errorf(codes.Internal, "could not create comment")
	}

	return &services.CommentItem{Comment: comment}, nil
}

func (s *CommentServiceImpl) GetComment(ctx context.Context, postID string, commentID string) (*services.CommentItem, error) {
	comment, err := s.selectComment(ctx, postID, commentID)
	if err != nil {
		return nil, err
	}

	items, err := s.annotate(ctx, []*orm.Comment{comment})
	if err != nil {
		return nil, err
	}
	return items[0], nil
}

func (s *CommentServiceImpl) ListComments(ctx context.Context, postID string, query services.CommentQuery) (*services.CommentPage, error) {
	if _, err := uuid.Parse(postID); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid post id")
	}

	order, err := parseSort(query.Sort)
	if err != nil {
		return nil, err
	}

	var parentID *uuid.UUID
	if query.ParentCommentID != "" {
		parsed, err := uuid.Parse(query.ParentCommentID)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "invalid parent comment id")
		}
		parentID = &parsed
	}

	if _, err := s.db.SelectPostByID(ctx, postID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, status.Errorf(codes.NotFound, "post not found")
		}
		s.log.Error("error selecting post by id", zap.Error(err))
		return nil, status.Errorf(codes.Internal, "database error")
	}

	comments, hasMore, err := s.db.SelectComments(ctx, postID, parentID, order, query.Cursor, lib.NormalizeTake(query.Take))
	if err != nil {
		if _, ok := status.FromError(err); ok {
			return nil, err
		}
		s.log.Error("error selecting comments", zap.Error(err))
		return nil, status.Errorf(codes.Internal, "database error")
	}

	items, err := s.annotate(ctx, comments)
	if err != nil {
		return nil, err
	}

	return &services.CommentPage{
		Comments: items,
		HasMore:  hasMore,
	}, nil
}

func (s *CommentServiceImpl) UpdateComment(ctx context.Context, postID string, commentID string, content string) (*services.CommentItem, error) {
	comment, err := s.selectOwnComment(ctx, postID, commentID)
	if err != nil {
		return nil, err
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, status.Errorf(codes.InvalidArgument, "content is required")
	}
	if err := s.filter.Check("content", content); err != nil {
		return nil, err
	}

	comment.Content = content
	if err := s.db.UpdateCommentContent(ctx, comment); err != nil {
		s.log.Error("error updating comment", zap.Error(err))
		return nil, status.Errorf(codes.Internal, "could not update comment")
	}

	return s.GetComment(ctx, postID, commentID)
}

func (s *CommentServiceImpl) DeleteComment(ctx context.Context, postID string, commentID string) error {
	comment, err := s.selectOwnComment(ctx, postID, commentID)
	if err != nil {
		return err
	}

	if err := s.db.SoftDeleteComment(ctx, comment); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return status.Errorf(codes.NotFound, "comment not found")
		}
		s.log.Error("error deleting comment", zap.Error(err))
		return status.Errorf(codes.Internal, "could not delete comment")
	}
	return nil
}

func parseSort(sort string) (lib.Order, error) {
	switch sort {
	case "", "new":
		return lib.OrderNewest, nil
	case "top":
		return lib.OrderTop, nil
	default:
		return 0, status.Errorf(codes.InvalidArgument, "sort must be one of new, top")
	}
}

func (s *CommentServiceImpl) selectComment(ctx context.Context, postID string, commentID string) (*orm.Comment, error) {
	if _, err := uuid.Parse(postID); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid post id")
	}
	if _, err := uuid.Parse(commentID); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid comment id")
	}

	comment, err := s.db.SelectCommentByID(ctx, postID, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, status.Errorf(codes.NotFound, "comment not found")
		}
		s.log.Error("error selecting comment by id", zap.Error(err))
		return nil, status.Errorf(codes.Internal, "database error")
	}
	return comment, nil
}

func (s *CommentServiceImpl) selectOwnComment(ctx context.Context, postID string, commentID string) (*orm.Comment, error) {
	userID, err := middleware.GetUserUUID(ctx)
	if err != nil {
		return nil, status.Errorf(codes.Unauthenticated, "Unauthorized")
	}

	comment, err := s.selectComment(ctx, postID, commentID)
	if err != nil {
		return nil, err
	}

	if comment.AuthorID != userID {
		return nil, status.Errorf(codes.PermissionDenied, "not an author")
	}
	return comment, nil
}

// annotate blanks deleted comments and attaches the caller's own like.
func (s *CommentServiceImpl) annotate(ctx context.Context, comments []*orm.Comment) ([]*services.CommentItem, error) {
	items := make([]*services.CommentItem, len(comments))
	ids := make([]uuid.UUID, 0, len(comments))
	for i, comment := range comments {
		if comment.IsDeleted {
			comment.Content = ""
		}
		items[i] = &services.CommentItem{Comment: comment}
		ids = append(ids, comment.ID)
	}

	userID, err := middleware.GetUserUUID(ctx)
	if err != nil || len(ids) == 0 {
		return items, nil
	}

	likes, err := s.db.SelectCommentLikesByUser(ctx, userID, ids)
	if err != nil {
		s.log.Error("error selecting comment likes", zap.Error(err))
		return nil, status.Errorf(codes.Internal, "database error")
	}

	for _, item := range items {
		item.Like = likes[item.Comment.ID]
	}
	return items, nil
}
