package orm

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/geofeed/backend/internal/lib"
)

type CommentLike struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_comment_like_user_comment"`
	CommentID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_comment_like_user_comment;index"`
	Value     int       `gorm:"not null;check:value BETWEEN -1 AND 1"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (l *CommentLike) TableName() string {
	return "comment_like"
}

func (l *CommentLike) BeforeCreate(transaction *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

type CommentVote struct {
	Like    *CommentLike
	Comment *Comment
	Delta   int
}

// VoteComment is VotePost for comments. The comment must belong to postID and
// both must be live.
func (c *PostgresClient) VoteComment(ctx context.Context, postID uuid.UUID, commentID uuid.UUID, userID uuid.UUID, value int) (*CommentVote, error) {
	result := &CommentVote{}

	err := c.database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Share lock keeps the post from being deleted until the vote commits.
		var post Post
		err := tx.
			Clauses(clause.Locking{Strength: "SHARE"}).
			Select("id").
			Where("id = ? AND is_deleted = ?", postID, false).
			First(&post).Error
		if err != nil {
			return err
		}

		var comment Comment
		err = tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND post_id = ? AND is_deleted = ?", commentID, postID, false).
			First(&comment).Error
		if err != nil {
			return err
		}

		var like CommentLike
		err = tx.Where("user_id = ? AND comment_id = ?", userID, commentID).First(&like).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if value == 0 {
				result.Comment = &comment
				return nil
			}
			like = CommentLike{UserID: userID, CommentID: commentID, Value: value}
			if err := tx.Create(&like).Error; err != nil {
				return err
			}
			result.Delta = value
		case err != nil:
			return err
		case like.Value == value:
			result.Like = &like
			result.Comment = &comment
			return nil
		default:
			result.Delta = lib.VoteDelta(like.Value, value)
			if err := tx.Model(&like).Update("value", value).Error; err != nil {
				return err
			}
			like.Value = value
		}
		result.Like = &like

		err = tx.Model(&Comment{}).
			Where("id = ?", commentID).
			UpdateColumn("points", gorm.Expr("points + ?", result.Delta)).Error
		if err != nil {
			return err
		}

		var updated Comment
		if err := tx.Where("id = ?", commentID).First(&updated).Error; err != nil {
			return err
		}
		result.Comment = &updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// SelectCommentLikesByUser returns the user's likes on the given comments keyed
// by comment id.
func (c *PostgresClient) SelectCommentLikesByUser(ctx context.Context, userID uuid.UUID, commentIDs []uuid.UUID) (map[uuid.UUID]*CommentLike, error) {
	result := make(map[uuid.UUID]*CommentLike, len(commentIDs))
	if len(commentIDs) == 0 {
		return result, nil
	}

	var likes []*CommentLike
	tx := c.database.
		WithContext(ctx).
		Where("user_id = ? AND comment_id IN ?", userID, commentIDs).
		Find(&likes)
	if tx.Error != nil {
		return nil, tx.Error
	}

	for _, like := range likes {
		result[like.CommentID] = like
	}
	return result, nil
}

func (c *PostgresClient) SumCommentLikes(ctx context.Context, commentID uuid.UUID) (int64, error) {
	var sum int64
	tx := c.database.
		WithContext(ctx).
		Model(&CommentLike{}).
		Select("COALESCE(SUM(value), 0)").
		Where("comment_id = ?", commentID).
		Scan(&sum)
	return sum, tx.Error
}
