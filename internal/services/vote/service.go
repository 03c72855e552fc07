package vote

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"

	eventpkg "github.com/geofeed/backend/internal/event"
	"github.com/geofeed/backend/internal/lib"
	metricspkg "github.com/geofeed/backend/internal/metrics"
	"github.com/geofeed/backend/internal/middleware"
	"github.com/geofeed/backend/internal/services"
)

type VoteServiceImpl struct {
	db      services.VoteStore
	broker  eventpkg.Publisher
	metrics *metricspkg.Metrics
	log     *zap.Logger
}

func NewVoteService(db services.VoteStore, broker eventpkg.Publisher, metrics *metricspkg.Metrics, log *zap.Logger) services.VoteService {
	return &VoteServiceImpl{
		db:      db,
		broker:  broker,
		metrics: metrics,
		log:     log,
	}
}

func (s *VoteServiceImpl) VotePost(ctx context.Context, postID string, value int) (*services.PostVoteResult, error) {
	userID, err := middleware.GetUserUUID(ctx)
	if err != nil {
		return nil, status.Errorf(codes.Unauthenticated, "Unauthorized")
	}

	if err := lib.ValidateVoteValue(value); err != nil {
		return nil, err
	}

	postUUID, err := uuid.Parse(postID)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid post id")
	}

	result, err := s.db.VotePost(ctx, postUUID, userID, value)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, status.Errorf(codes.NotFound, "post not found")
		}
		s.log.Error("error voting on post", zap.Error(err), zap.String("post_id", postID))
		return nil, status.Errorf(codes.Internal, "could not vote on post")
	}

	s.observe("post", result.Delta)

	if result.Delta != 0 {
		s.publish(ctx, eventpkg.POST_VOTED, eventpkg.VoteMessage{
			TargetID: result.Post.ID.String(),
			PostID:   result.Post.ID.String(),
			AuthorID: result.Post.AuthorID.String(),
			UserID:   userID.String(),
			Value:    value,
			Delta:    result.Delta,
			Points:   result.Post.Points,
		})
	}

	return &services.PostVoteResult{
		Like: result.Like,
		Post: result.Post,
	}, nil
}

func (s *VoteServiceImpl) VoteComment(ctx context.Context, postID string, commentID string, value int) (*services.CommentVoteResult, error) {
	userID, err := middleware.GetUserUUID(ctx)
	if err != nil {
		return nil, status.Errorf(codes.Unauthenticated, "Unauthorized")
	}

	if err := lib.ValidateVoteValue(value); err != nil {
		return nil, err
	}

	postUUID, err := uuid.Parse(postID)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid post id")
	}
	commentUUID, err := uuid.Parse(commentID)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid comment id")
	}

	result, err := s.db.VoteComment(ctx, postUUID, commentUUID, userID, value)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, status.Errorf(codes.NotFound, "comment not found")
		}
		s.log.Error("error voting on comment", zap.Error(err), zap.String("comment_id", commentID))
		return nil, status.Errorf(codes.Internal, "could not vote on comment")
	}

	s.observe("comment", result.Delta)

	if result.Delta != 0 {
		s.publish(ctx, eventpkg.COMMENT_VOTED, eventpkg.VoteMessage{
			TargetID: result.Comment.ID.String(),
			PostID:   result.Comment.PostID.String(),
			AuthorID: result.Comment.AuthorID.String(),
			UserID:   userID.String(),
			Value:    value,
			Delta:    result.Delta,
			Points:   result.Comment.Points,
		})
	}

	return &services.CommentVoteResult{
		Like:    result.Like,
		Comment: result.Comment,
	}, nil
}

func (s *VoteServiceImpl) observe(target string, delta int) {
	outcome := "changed"
	if delta == 0 {
		outcome = "unchanged"
	}
	s.metrics.Votes.WithLabelValues(target, outcome).Inc()
}

// publish is best effort: the vote is already committed.
func (s *VoteServiceImpl) publish(ctx context.Context, event string, message eventpkg.VoteMessage) {
	err := s.broker.WriteMessage(ctx, event, message)
	s.metrics.EventsPublished.WithLabelValues(event, metricspkg.Result(err)).Inc()
	if err != nil {
		s.log.Error("error publishing vote event", zap.Error(err), zap.String("event", event))
	}
}
