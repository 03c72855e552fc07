package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/geofeed/backend/internal/orm"
)

type PollVoteResult struct {
	Vote   *orm.PollVote
	Poll   *orm.Poll
	Option *orm.PollOption
}

type PollService interface {
	VotePoll(ctx context.Context, postID string, optionID string) (*PollVoteResult, error)
}

type PollStore interface {
	VotePoll(ctx context.Context, postID uuid.UUID, userID uuid.UUID, optionID uuid.UUID) (*orm.PollVote, *orm.Poll, *orm.PollOption, error)
}
