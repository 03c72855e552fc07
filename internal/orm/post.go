package orm

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/geofeed/backend/internal/lib"
)

type Post struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	AuthorID         uuid.UUID `gorm:"type:uuid;index"`
	Author           User      `gorm:"foreignKey:AuthorID"`
	Title            string
	Content          *string
	Latitude         float64 `gorm:"index:idx_post_location,priority:1"`
	Longitude        float64 `gorm:"index:idx_post_location,priority:2"`
	LocationName     *string
	FullLocationName *string
	Images           pq.StringArray `gorm:"type:text[]"`
	Points           int            `gorm:"not null;default:0"`
	CommentsCount    int            `gorm:"not null;default:0"`
	IsDeleted        bool           `gorm:"not null;default:false"`
	Poll             *Poll          `gorm:"foreignKey:PostID"`
	CreatedAt        time.Time      `gorm:"index"`
	UpdatedAt        time.Time
}

func (p *Post) TableName() string {
	return "post"
}

func (p *Post) BeforeCreate(transaction *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Images == nil {
		p.Images = pq.StringArray{}
	}
	return nil
}

func (p Post) GetID() uuid.UUID {
	return p.ID
}

func (p Post) GetCreatedAt() time.Time {
	return p.CreatedAt
}

func (p Post) GetPoints() int {
	return p.Points
}

// SelectPostByID returns a post that has not been deleted.
func (c *PostgresClient) SelectPostByID(ctx context.Context, id string) (*Post, error) {
	var post Post
	tx := c.database.
		WithContext(ctx).
		Where("id = ? AND is_deleted = ?", id, false).
		Preload("Author").
		Preload("Poll").
		Preload("Poll.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&post)

	if tx.Error != nil {
		return nil, tx.Error
	}

	return &post, nil
}

// SelectPostsNearby pages through live posts inside the bounding box, newest
// first. It returns up to limit posts and whether more exist.
func (c *PostgresClient) SelectPostsNearby(ctx context.Context, box lib.BoundingBox, cursor string, limit int) ([]*Post, bool, error) {
	database := c.database.WithContext(ctx)

	query := database.
		Model(&Post{}).
		Where("post.is_deleted = ?", false).
		Where("post.latitude BETWEEN ? AND ?", box.MinLatitude, box.MaxLatitude).
		Preload("Author").
		Preload("Poll").
		Preload("Poll.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})

	ranges := box.LongitudeRanges()
	longitudes := database.Where("post.longitude BETWEEN ? AND ?", ranges[0][0], ranges[0][1])
	for _, r := range ranges[1:] {
		longitudes = longitudes.Or("post.longitude BETWEEN ? AND ?", r[0], r[1])
	}
	query = query.Where(longitudes)

	paginatedQuery, err := lib.Paginate[Post](database, query, "post", lib.OrderNewest, cursor, limit)
	if err != nil {
		return nil, false, err
	}

	var posts []*Post
	tx := paginatedQuery.Find(&posts)
	if tx.Error != nil {
		return nil, false, tx.Error
	}

	posts, hasMore := lib.Trim(posts, limit)
	return posts, hasMore, nil
}

// InsertPost stores the post together with its poll and options.
func (c *PostgresClient) InsertPost(ctx context.Context, post *Post) error {
	tx := c.database.WithContext(ctx).Omit("Author").Create(post)
	return tx.Error
}

// UpdatePostContent writes title and content only. Points and counters are
// owned by the vote and comment transactions.
func (c *PostgresClient) UpdatePostContent(ctx context.Context, post *Post) error {
	tx := c.database.
		WithContext(ctx).
		Model(post).
		Select("title", "content", "updated_at").
		Updates(post)
	return tx.Error
}

// SoftDeletePost marks the post deleted. Deleted posts cannot be voted or
// commented on.
func (c *PostgresClient) SoftDeletePost(ctx context.Context, post *Post) error {
	tx := c.database.
		WithContext(ctx).
		Model(post).
		Update("is_deleted", true)
	return tx.Error
}
