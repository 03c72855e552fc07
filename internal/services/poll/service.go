package poll

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"

	eventpkg "github.com/geofeed/backend/internal/event"
	metricspkg "github.com/geofeed/backend/internal/metrics"
	"github.com/geofeed/backend/internal/middleware"
	"github.com/geofeed/backend/internal/orm"
	"github.com/geofeed/backend/internal/services"
)

type PollServiceImpl struct {
	db      services.PollStore
	broker  eventpkg.Publisher
	metrics *metricspkg.Metrics
	log     *zap.Logger
}

func NewPollService(db services.PollStore, broker eventpkg.Publisher, metrics *metricspkg.Metrics, log *zap.Logger) services.PollService {
	return &PollServiceImpl{
		db:      db,
		broker:  broker,
		metrics: metrics,
		log:     log,
	}
}

func (s *PollServiceImpl) VotePoll(ctx context.Context, postID string, optionID string) (*services.PollVoteResult, error) {
	userID, err := middleware.GetUserUUID(ctx)
	if err != nil {
		return nil, status.Errorf(codes.Unauthenticated, "Unauthorized")
	}

	postUUID, err := uuid.Parse(postID)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid post id")
	}
	optionUUID, err := uuid.Parse(optionID)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid option id")
	}

	vote, poll, option, err := s.db.VotePoll(ctx, postUUID, userID, optionUUID)
	if err != nil {
		switch {
		case errors.Is(err, orm.ErrPollClosed):
			return nil, status.Errorf(codes.FailedPrecondition, "poll is closed")
		case errors.Is(err, orm.ErrAlreadyVoted):
			return nil, status.Errorf(codes.AlreadyExists, "already voted in this poll")
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, status.Errorf(codes.NotFound, "poll or option not found")
		}
		s.log.Error("error voting in poll", zap.Error(err), zap.String("post_id", postID))
		return nil, status.Errorf(codes.Internal, "could not vote in poll")
	}

	s.metrics.PollVotes.Inc()

	err = s.broker.WriteMessage(ctx, eventpkg.POLL_VOTED, eventpkg.PollVoteMessage{
		PollID:   poll.ID.String(),
		PostID:   postID,
		OptionID: option.ID.String(),
		UserID:   userID.String(),
	})
	s.metrics.EventsPublished.WithLabelValues(eventpkg.POLL_VOTED, metricspkg.Result(err)).Inc()
	if err != nil {
		s.log.Error("error publishing poll vote event", zap.Error(err))
	}

	return &services.PollVoteResult{
		Vote:   vote,
		Poll:   poll,
		Option: option,
	}, nil
}
