package orm

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/geofeed/backend/internal/lib"
)

type Comment struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ParentCommentID *uuid.UUID `gorm:"type:uuid;index"`
	PostID          uuid.UUID  `gorm:"type:uuid;index"`
	AuthorID        uuid.UUID  `gorm:"type:uuid;index"`
	Author          User       `gorm:"foreignKey:AuthorID"`
	Content         string
	Points          int       `gorm:"not null;default:0"`
	RepliesCount    int       `gorm:"not null;default:0"`
	IsDeleted       bool      `gorm:"not null;default:false"`
	CreatedAt       time.Time `gorm:"index"`
	UpdatedAt       time.Time
}

func (c *Comment) TableName() string {
	return "comment"
}

func (c *Comment) BeforeCreate(transaction *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (c Comment) GetID() uuid.UUID {
	return c.ID
}

func (c Comment) GetCreatedAt() time.Time {
	return c.CreatedAt
}

func (c Comment) GetPoints() int {
	return c.Points
}

// SelectCommentByID returns a live comment that belongs to the post.
func (c *PostgresClient) SelectCommentByID(ctx context.Context, postID string, id string) (*Comment, error) {
	var comment Comment
	tx := c.database.
		WithContext(ctx).
		Where("id = ? AND post_id = ? AND is_deleted = ?", id, postID, false).
		Preload("Author").
		First(&comment)

	if tx.Error != nil {
		return nil, tx.Error
	}

	return &comment, nil
}

// SelectComments pages through the comments of a post. Without parentID only
// top level comments are returned, otherwise the direct replies of parentID.
// Deleted comments are kept in the listing while they still have replies so
// threads stay navigable.
func (c *PostgresClient) SelectComments(ctx context.Context, postID string, parentID *uuid.UUID, order lib.Order, cursor string, limit int) ([]*Comment, bool, error) {
	database := c.database.WithContext(ctx)

	query := database.
		Model(&Comment{}).
		Where("comment.post_id = ?", postID).
		Where("comment.is_deleted = ? OR comment.replies_count > 0", false).
		Preload("Author")

	if parentID != nil {
		query = query.Where("comment.parent_comment_id = ?", *parentID)
	} else {
		query = query.Where("comment.parent_comment_id IS NULL")
	}

	paginatedQuery, err := lib.Paginate[Comment](database, query, "comment", order, cursor, limit)
	if err != nil {
		return nil, false, err
	}

	var comments []*Comment
	tx := paginatedQuery.Find(&comments)
	if tx.Error != nil {
		return nil, false, tx.Error
	}

	comments, hasMore := lib.Trim(comments, limit)
	return comments, hasMore, nil
}

// InsertComment stores the comment and bumps the post's comment count and the
// parent's reply count in one transaction. The post row is locked so counters
// cannot drift under concurrent writers.
func (c *PostgresClient) InsertComment(ctx context.Context, comment *Comment) error {
	return c.database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post Post
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ? AND is_deleted = ?", comment.PostID, false).
			First(&post).Error
		if err != nil {
			return err
		}

		if comment.ParentCommentID != nil {
			var parent Comment
			err := tx.
				Clauses(clause.Locking{Strength: "UPDATE"}).
				Select("id").
				Where("id = ? AND post_id = ? AND is_deleted = ?", *comment.ParentCommentID, comment.PostID, false).
				First(&parent).Error
			if err != nil {
				return err
			}
		}

		if err := tx.Omit("Author").Create(comment).Error; err != nil {
			return err
		}

		err = tx.Model(&Post{}).
			Where("id = ?", comment.PostID).
			UpdateColumn("comments_count", gorm.Expr("comments_count + 1")).Error
		if err != nil {
			return err
		}

		if comment.ParentCommentID != nil {
			err = tx.Model(&Comment{}).
				Where("id = ?", *comment.ParentCommentID).
				UpdateColumn("replies_count", gorm.Expr("replies_count + 1")).Error
			if err != nil {
				return err
			}
		}

		return tx.Preload("Author").Where("id = ?", comment.ID).First(comment).Error
	})
}

func (c *PostgresClient) UpdateCommentContent(ctx context.Context, comment *Comment) error {
	tx := c.database.
		WithContext(ctx).
		Model(comment).
		Select("content", "updated_at").
		Updates(comment)
	return tx.Error
}

// SoftDeleteComment marks the comment deleted and keeps the post's comment
// count and the parent's reply count equal to the live comments beneath them.
// The post row is locked before the comment, the same order votes use.
func (c *PostgresClient) SoftDeleteComment(ctx context.Context, comment *Comment) error {
	return c.database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post Post
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ?", comment.PostID).
			First(&post).Error
		if err != nil {
			return err
		}

		result := tx.Model(&Comment{}).
			Where("id = ? AND is_deleted = ?", comment.ID, false).
			Update("is_deleted", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		err = tx.Model(&Post{}).
			Where("id = ?", comment.PostID).
			UpdateColumn("comments_count", gorm.Expr("GREATEST(comments_count - 1, 0)")).Error
		if err != nil {
			return err
		}

		if comment.ParentCommentID != nil {
			err = tx.Model(&Comment{}).
				Where("id = ?", *comment.ParentCommentID).
				UpdateColumn("replies_count", gorm.Expr("GREATEST(replies_count - 1, 0)")).Error
			if err != nil {
				return err
			}
		}

		comment.IsDeleted = true
		return nil
	})
}
