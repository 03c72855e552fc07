package orm

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrPollClosed   = errors.New("poll is closed")
	ErrAlreadyVoted = errors.New("already voted in this poll")
)

type Poll struct {
	ID                uuid.UUID    `gorm:"type:uuid;primaryKey"`
	PostID            uuid.UUID    `gorm:"type:uuid;uniqueIndex"`
	VotingLength      int          `gorm:"not null"`
	ParticipantsCount int          `gorm:"not null;default:0"`
	Options           []PollOption `gorm:"foreignKey:PollID"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (p *Poll) TableName() string {
	return "poll"
}

func (p *Poll) BeforeCreate(transaction *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// EndsAt is the moment the poll stops accepting votes.
func (p *Poll) EndsAt() time.Time {
	return p.CreatedAt.Add(time.Duration(p.VotingLength) * time.Hour)
}

func (p *Poll) IsClosed(now time.Time) bool {
	return !now.Before(p.EndsAt())
}

type PollOption struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	PollID    uuid.UUID `gorm:"type:uuid;index"`
	Text      string
	Order     int `gorm:"column:position"`
	VoteCount int `gorm:"not null;default:0"`
}

func (o *PollOption) TableName() string {
	return "poll_option"
}

func (o *PollOption) BeforeCreate(transaction *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

type PollVote struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID       uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_poll_vote_user_poll"`
	PollID       uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_poll_vote_user_poll"`
	PollOptionID uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt    time.Time
}

func (v *PollVote) TableName() string {
	return "poll_vote"
}

func (v *PollVote) BeforeCreate(transaction *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// SelectPollVotesByUser returns the user's votes keyed by poll id.
func (c *PostgresClient) SelectPollVotesByUser(ctx context.Context, userID uuid.UUID, pollIDs []uuid.UUID) (map[uuid.UUID]*PollVote, error) {
	result := make(map[uuid.UUID]*PollVote, len(pollIDs))
	if len(pollIDs) == 0 {
		return result, nil
	}

	var votes []*PollVote
	tx := c.database.
		WithContext(ctx).
		Where("user_id = ? AND poll_id IN ?", userID, pollIDs).
		Find(&votes)
	if tx.Error != nil {
		return nil, tx.Error
	}

	for _, vote := range votes {
		result[vote.PollID] = vote
	}
	return result, nil
}

// VotePoll records a single vote per user on the poll attached to the post.
// The poll row is locked so counters stay consistent with poll_vote rows.
func (c *PostgresClient) VotePoll(ctx context.Context, postID uuid.UUID, userID uuid.UUID, optionID uuid.UUID) (*PollVote, *Poll, *PollOption, error) {
	var vote PollVote
	var poll Poll
	var option PollOption

	err := c.database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&Post{}).Where("id = ? AND is_deleted = ?", postID, false).Count(&count).Error
		if err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}

		err = tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("post_id = ?", postID).
			First(&poll).Error
		if err != nil {
			return err
		}

		if poll.IsClosed(time.Now()) {
			return ErrPollClosed
		}

		err = tx.Where("id = ? AND poll_id = ?", optionID, poll.ID).First(&option).Error
		if err != nil {
			return err
		}

		err = tx.Model(&PollVote{}).Where("user_id = ? AND poll_id = ?", userID, poll.ID).Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadyVoted
		}

		vote = PollVote{
			UserID:       userID,
			PollID:       poll.ID,
			PollOptionID: option.ID,
		}
		if err := tx.Create(&vote).Error; err != nil {
			return err
		}

		err = tx.Model(&PollOption{}).
			Where("id = ?", option.ID).
			UpdateColumn("vote_count", gorm.Expr("vote_count + 1")).Error
		if err != nil {
			return err
		}

		err = tx.Model(&Poll{}).
			Where("id = ?", poll.ID).
			UpdateColumn("participants_count", gorm.Expr("participants_count + 1")).Error
		if err != nil {
			return err
		}

		err = tx.
			Preload("Options", func(db *gorm.DB) *gorm.DB {
				return db.Order("position ASC")
			}).
			Where("id = ?", poll.ID).
			First(&poll).Error
		if err != nil {
			return err
		}

		return tx.Where("id = ?", option.ID).First(&option).Error
	})
	if err != nil {
		return nil, nil, nil, err
	}

	return &vote, &poll, &option, nil
}
