package lib

import (
	"context"

	"github.com/google/uuid"
)

// Reputationable is an interface for entities that have a reputation.
type Reputationable interface {
	GetID() uuid.UUID
}

// ReputationStore defines the methods for accessing reputation-related data.
type ReputationStore interface {
	SumPostPointsByAuthor(ctx context.Context, authorID uuid.UUID) (int64, error)
	SumCommentPointsByAuthor(ctx context.Context, authorID uuid.UUID) (int64, error)
}

// CalculateUserReputation sums the points of everything the user authored.
// Comment points weigh half as much as post points.
func CalculateUserReputation(ctx context.Context, store ReputationStore, user Reputationable) (int64, error) {
	postPoints, err := store.SumPostPointsByAuthor(ctx, user.GetID())
	if err != nil {
		return 0, err
	}

	commentPoints, err := store.SumCommentPointsByAuthor(ctx, user.GetID())
	if err != nil {
		return 0, err
	}

	return postPoints + commentPoints/2, nil
}
