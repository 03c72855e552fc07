package orm

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username            string    `gorm:"uniqueIndex"`
	Email               string    `gorm:"uniqueIndex"`
	Password            string
	Image               *string
	VerificationToken   string `gorm:"index"`
	IsVerified          bool   `gorm:"default:false"`
	ResetToken          string `gorm:"index"`
	ResetTokenExpiresAt *time.Time
	Reputation          int64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// TableName returns the name of the table for the User model
func (u *User) TableName() string {
	return "user"
}

func (u *User) GetID() uuid.UUID {
	return u.ID
}

func (u *User) BeforeCreate(transaction *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

var userColumns = []string{
	"id",
	"username",
	"email",
	"password",
	"image",
	"verification_token",
	"is_verified",
	"reset_token",
	"reset_token_expires_at",
	"reputation",
	"created_at",
	"updated_at",
}

func (c *PostgresClient) selectUser(ctx context.Context, column string, value any) (*User, error) {
	var user User
	tx := c.database.
		WithContext(ctx).
		Select(userColumns).
		Where(column+" = ?", value).
		First(&user)

	if tx.Error != nil {
		return nil, tx.Error
	}

	return &user, nil
}

func (c *PostgresClient) SelectUserByID(ctx context.Context, id string) (*User, error) {
	return c.selectUser(ctx, "id", id)
}

func (c *PostgresClient) SelectUserByUsername(ctx context.Context, username string) (*User, error) {
	return c.selectUser(ctx, "username", username)
}

func (c *PostgresClient) SelectUserByEmail(ctx context.Context, email string) (*User, error) {
	return c.selectUser(ctx, "email", email)
}

func (c *PostgresClient) SelectUserByVerificationToken(ctx context.Context, verificationToken string) (*User, error) {
	return c.selectUser(ctx, "verification_token", verificationToken)
}

func (c *PostgresClient) SelectUserByResetToken(ctx context.Context, resetToken string) (*User, error) {
	return c.selectUser(ctx, "reset_token", resetToken)
}

func (c *PostgresClient) InsertUser(ctx context.Context, user *User) error {
	tx := c.database.WithContext(ctx).Create(user)
	return tx.Error
}

// UpdateUser writes every column, so cleared tokens and false flags persist.
func (c *PostgresClient) UpdateUser(ctx context.Context, user *User) error {
	tx := c.database.WithContext(ctx).Model(user).Select("*").Omit("created_at").Updates(user)
	return tx.Error
}

func (c *PostgresClient) UpdateUserReputation(ctx context.Context, userID uuid.UUID, reputation int64) error {
	tx := c.database.
		WithContext(ctx).
		Model(&User{}).
		Where("id = ?", userID).
		UpdateColumn("reputation", reputation)
	return tx.Error
}

// SumPostPointsByAuthor returns the point total of the author's live posts.
func (c *PostgresClient) SumPostPointsByAuthor(ctx context.Context, authorID uuid.UUID) (int64, error) {
	var sum int64
	tx := c.database.
		WithContext(ctx).
		Model(&Post{}).
		Select("COALESCE(SUM(points), 0)").
		Where("author_id = ? AND is_deleted = ?", authorID, false).
		Scan(&sum)
	return sum, tx.Error
}

// SumCommentPointsByAuthor returns the point total of the author's live comments.
func (c *PostgresClient) SumCommentPointsByAuthor(ctx context.Context, authorID uuid.UUID) (int64, error) {
	var sum int64
	tx := c.database.
		WithContext(ctx).
		Model(&Comment{}).
		Select("COALESCE(SUM(points), 0)").
		Where("author_id = ? AND is_deleted = ?", authorID, false).
		Scan(&sum)
	return sum, tx.Error
}
