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

// PostLike is a user's vote on a post. A withdrawn vote keeps its row with
// value 0.
type PostLike struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_post_like_user_post"`
	PostID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_post_like_user_post;index"`
	Value     int       `gorm:"not null;check:value BETWEEN -1 AND 1"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (l *PostLike) TableName() string {
	return "post_like"
}

func (l *PostLike) BeforeCreate(transaction *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// PostVote is the outcome of VotePost. Like is nil when the user has never
// cast a non-zero vote on the post.
type PostVote struct {
	Like  *PostLike
	Post  *Post
	Delta int
}

// VotePost sets the user's like on the post to value and moves the post's
// points by the difference, all in one transaction. The post row is locked
// first so concurrent votes on the same post apply one after another.
func (c *PostgresClient) VotePost(ctx context.Context, postID uuid.UUID, userID uuid.UUID, value int) (*PostVote, error) {
	result := &PostVote{}

	err := c.database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post Post
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND is_deleted = ?", postID, false).
			First(&post).Error
		if err != nil {
			return err
		}

		var like PostLike
		err = tx.Where("user_id = ? AND post_id = ?", userID, postID).First(&like).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if value == 0 {
				result.Post = &post
				return nil
			}
			like = PostLike{UserID: userID, PostID: postID, Value: value}
			if err := tx.Create(&like).Error; err != nil {
				return err
			}
			result.Delta = value
		case err != nil:
			return err
		case like.Value == value:
			result.Like = &like
			result.Post = &post
			return nil
		default:
			result.Delta = lib.VoteDelta(like.Value, value)
			if err := tx.Model(&like).Update("value", value).Error; err != nil {
				return err
			}
			like.Value = value
		}
		result.Like = &like

		err = tx.Model(&Post{}).
			Where("id = ?", postID).
			UpdateColumn("points", gorm.Expr("points + ?", result.Delta)).Error
		if err != nil {
			return err
		}

		var updated Post
		if err := tx.Where("id = ?", postID).First(&updated).Error; err != nil {
			return err
		}
		result.Post = &updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// SelectPostLikesByUser returns the user's likes on the given posts keyed by
// post id.
func (c *PostgresClient) SelectPostLikesByUser(ctx context.Context, userID uuid.UUID, postIDs []uuid.UUID) (map[uuid.UUID]*PostLike, error) {
	result := make(map[uuid.UUID]*PostLike, len(postIDs))
	if len(postIDs) == 0 {
		return result, nil
	}

	var likes []*PostLike
	tx := c.database.
		WithContext(ctx).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Find(&likes)
	if tx.Error != nil {
		return nil, tx.Error
	}

	for _, like := range likes {
		result[like.PostID] = like
	}
	return result, nil
}

// SumPostLikes recomputes a post's points from its like rows.
func (c *PostgresClient) SumPostLikes(ctx context.Context, postID uuid.UUID) (int64, error) {
	var sum int64
	tx := c.database.
		WithContext(ctx).
		Model(&PostLike{}).
		Select("COALESCE(SUM(value), 0)").
		Where("post_id = ?", postID).
		Scan(&sum)
	return sum, tx.Error
}
