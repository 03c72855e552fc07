package orm

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Session struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID           uuid.UUID `gorm:"type:uuid;index"`
	User             User
	UserAgent        string
	IpAddress        string
	RefreshTokenHash string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (s *Session) TableName() string {
	return "session"
}

func (s *Session) BeforeCreate(transaction *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (c *PostgresClient) SelectSessionByID(ctx context.Context, id string) (*Session, error) {
	var session Session
	tx := c.database.
		WithContext(ctx).
		Select([]string{
			"id",
			"user_id",
			"user_agent",
			"ip_address",
			"refresh_token_hash",
			"created_at",
			"updated_at",
		}).
		Where("id = ?", id).
		First(&session)

	if tx.Error != nil {
		return nil, tx.Error
	}

	return &session, nil
}

func (c *PostgresClient) InsertSession(ctx context.Context, session *Session) error {
	tx := c.database.WithContext(ctx).Create(session)
	return tx.Error
}

func (c *PostgresClient) UpdateSession(ctx context.Context, session *Session) error {
	tx := c.database.WithContext(ctx).Model(session).Omit("User").Updates(session)
	return tx.Error
}

// RotateSessionToken replaces the refresh digest only while it still equals
// previousHash. It reports false when another refresh already rotated it.
func (c *PostgresClient) RotateSessionToken(ctx context.Context, session *Session, previousHash string) (bool, error) {
	tx := c.database.
		WithContext(ctx).
		Model(&Session{}).
		Where("id = ? AND refresh_token_hash = ?", session.ID, previousHash).
		Updates(map[string]any{
			"refresh_token_hash": session.RefreshTokenHash,
			"user_agent":         session.UserAgent,
			"ip_address":         session.IpAddress,
			"updated_at":         time.Now(),
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}

// TouchSession bumps updated_at so idle sessions can be expired.
func (c *PostgresClient) TouchSession(ctx context.Context, id string) error {
	tx := c.database.
		WithContext(ctx).
		Model(&Session{}).
		Where("id = ?", id).
		UpdateColumn("updated_at", time.Now())
	return tx.Error
}

func (c *PostgresClient) DeleteSession(ctx context.Context, session *Session) error {
	tx := c.database.WithContext(ctx).Delete(session)
	return tx.Error
}

func (c *PostgresClient) DeleteSessionsByUserID(ctx context.Context, userID uuid.UUID) error {
	tx := c.database.WithContext(ctx).Where("user_id = ?", userID).Delete(&Session{})
	return tx.Error
}

// DeleteExpiredSessions removes sessions idle for longer than ttl.
func (c *PostgresClient) DeleteExpiredSessions(ctx context.Context, ttl time.Duration) (int64, error) {
	tx := c.database.
		WithContext(ctx).
		Where("updated_at < ?", time.Now().Add(-ttl)).
		Delete(&Session{})

	return tx.RowsAffected, tx.Error
}
