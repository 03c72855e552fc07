package lib

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultTake = 10
	MaxTake     = 50
)

// Paginatable defines the interface for models that can be paginated.
// The model must have an ID and a CreatedAt field.
type Paginatable interface {
	GetID() uuid.UUID
	GetCreatedAt() time.Time
}

// Rankable models can additionally be paginated by their point tally.
type Rankable interface {
	Paginatable
	GetPoints() int
}

// Order selects the keyset used for pagination.
type Order int

const (
	// OrderNewest orders by created_at DESC, id DESC.
	OrderNewest Order = iota
	// OrderTop orders by points DESC, created_at DESC, id DESC.
	OrderTop
)

func (o Order) Clause(table string) string {
	if o == OrderTop {
		return table + ".points DESC, " + table + ".created_at DESC, " + table + ".id DESC"
	}
	return table + ".created_at DESC, " + table + ".id DESC"
}

// NormalizeTake clamps a requested page size.
func NormalizeTake(take int) int {
	if take <= 0 {
		return DefaultTake
	}
	if take > MaxTake {
		return MaxTake
	}
	return take
}

// Paginate applies cursor-based keyset pagination to a GORM query.
// The cursor is the ID of the last item from the previous page. One extra row
// beyond limit is requested so callers can compute hasMore with Trim.
func Paginate[T Rankable](db *gorm.DB, query *gorm.DB, table string, order Order, cursor string, limit int) (*gorm.DB, error) {
	query = query.Order(order.Clause(table)).Limit(limit + 1)
	if cursor == "" {
		return query, nil
	}

	if _, err := uuid.Parse(cursor); err != nil {
		return nil, InvalidArgumentError("invalid cursor")
	}

	var cursorModel T
	err := db.Model(&cursorModel).Where("id = ?", cursor).First(&cursorModel).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			// If cursor is not found, return no results
			return query.Where("1 = 0"), nil
		}
		return nil, err
	}

	createdAt := cursorModel.GetCreatedAt()
	id := cursorModel.GetID()

	if order == OrderTop {
		points := cursorModel.GetPoints()
		return query.Where(
			"("+table+".points < ?) OR ("+table+".points = ? AND "+table+".created_at < ?) OR ("+table+".points = ? AND "+table+".created_at = ? AND "+table+".id < ?)",
			points,
			points, createdAt,
			points, createdAt, id,
		), nil
	}

	return query.Where(
		"("+table+".created_at < ?) OR ("+table+".created_at = ? AND "+table+".id < ?)",
		createdAt,
		createdAt,
		id,
	), nil
}

// Trim drops the look-ahead row fetched by Paginate and reports whether more
// rows exist.
func Trim[T any](items []T, limit int) ([]T, bool) {
	if len(items) > limit {
		return items[:limit], true
	}
	return items, false
}
