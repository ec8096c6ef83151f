// Package pagination implements keyset pagination over a (timestamp, id) order
// with opaque cursors. Every listing in the service goes through it.
package pagination

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"encore/internal/models"

	"gorm.io/gorm"
)

// Direction of the composite (timestamp, id) order.
type Direction int

const (
	Descending Direction = iota
	Ascending
)

// Limits holds the default and maximum page sizes.
type Limits struct {
	Default int
	Max     int
}

// DefaultLimits matches the configured defaults.
var DefaultLimits = Limits{Default: 20, Max: 100}

// Parse turns a raw query value into a page size. Missing or non-numeric input
// yields the default; numbers are clamped to [1, Max].
func (l Limits) Parse(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return l.Default
	}
	if n < 1 {
		return 1
	}
	if n > l.Max {
		return l.Max
	}
	return n
}

// Request is a page request as received from a client.
type Request struct {
	Limit  int
	Cursor string
}

// Page is one slice of an ordered listing.
type Page[T any] struct {
	Items      []T     `json:"items"`
	NextCursor *string `json:"next_cursor"`
	HasMore    bool    `json:"has_more"`
}

// Empty returns a valid page with no items.
func Empty[T any]() Page[T] {
	return Page[T]{Items: []T{}}
}

// Map converts the items of a page, keeping the cursor.
func Map[T, U any](p Page[T], fn func(T) U) Page[U] {
	out := Page[U]{Items: make([]U, 0, len(p.Items)), NextCursor: p.NextCursor, HasMore: p.HasMore}
	for _, item := range p.Items {
		out.Items = append(out.Items, fn(item))
	}
	return out
}

var errMalformedCursor = errors.New("malformed cursor")

// EncodeCursor wraps the id of the last item of a page.
func EncodeCursor(id uint) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatUint(uint64(id), 10)))
}

// DecodeCursor reverses EncodeCursor.
func DecodeCursor(cursor string) (uint, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, errMalformedCursor
	}
	id, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, errMalformedCursor
	}
	return uint(id), nil
}

// Keyset describes the table and columns a listing is ordered by.
type Keyset struct {
	Table      string
	TimeColumn string
	IDColumn   string
	Direction  Direction
}

// NewKeyset orders table by created_at then id.
func NewKeyset(table string, dir Direction) Keyset {
	return Keyset{Table: table, TimeColumn: "created_at", IDColumn: "id", Direction: dir}
}

func (k Keyset) col(name string) string {
	return k.Table + "." + name
}

// Order applies the composite order to db.
func (k Keyset) Order(db *gorm.DB) *gorm.DB {
	dir := "DESC"
	if k.Direction == Ascending {
		dir = "ASC"
	}
	return db.Order(fmt.Sprintf("%s %s, %s %s", k.col(k.TimeColumn), dir, k.col(k.IDColumn), dir))
}

// After restricts db to rows strictly past the anchor row in listing order.
// The anchor's timestamp is read in SQL so it never loses precision in transit.
func (k Keyset) After(db *gorm.DB, anchorID uint) *gorm.DB {
	cmp := "<"
	if k.Direction == Ascending {
		cmp = ">"
	}
	anchorTime := fmt.Sprintf("(SELECT anchor.%s FROM %s anchor WHERE anchor.%s = ?)", k.TimeColumn, k.Table, k.IDColumn)
	predicate := fmt.Sprintf("(%[1]s %[2]s %[3]s OR (%[1]s = %[3]s AND %[4]s %[2]s ?))",
		k.col(k.TimeColumn), cmp, anchorTime, k.col(k.IDColumn))
	return db.Where(predicate, anchorID, anchorID, anchorID)
}

// Paginate runs query (already scoped to one listing) and returns one page.
// A cursor that does not decode or names no row of k.Table is a validation
// error. An anchor that still exists but has since left the listing (an
// unfollowed author, say) resumes from its position.
func Paginate[T any](ctx context.Context, query *gorm.DB, k Keyset, req Request, idOf func(T) uint) (Page[T], error) {
	limit := req.Limit
	if limit < 1 {
		limit = DefaultLimits.Default
	}
	base := query.WithContext(ctx).Session(&gorm.Session{})

	scoped := base
	if req.Cursor != "" {
		anchorID, err := DecodeCursor(req.Cursor)
		if err != nil {
			return Page[T]{}, models.NewValidationError("invalid cursor")
		}

		var n int64
		if err := query.Session(&gorm.Session{NewDB: true}).WithContext(ctx).
			Table(k.Table).
			Where(k.IDColumn+" = ?", anchorID).
			Count(&n).Error; err != nil {
			return Page[T]{}, fmt.Errorf("resolve cursor: %w", err)
		}
		if n == 0 {
			return Page[T]{}, models.NewValidationError("invalid cursor")
		}
		scoped = k.After(base, anchorID)
	}

	var rows []T
	if err := k.Order(scoped).Limit(limit + 1).Find(&rows).Error; err != nil {
		return Page[T]{}, fmt.Errorf("fetch page: %w", err)
	}

	return NewPage(rows, limit, idOf), nil
}

// NewPage trims a limit+1 fetch into a page.
func NewPage[T any](rows []T, limit int, idOf func(T) uint) Page[T] {
	if rows == nil {
		rows = []T{}
	}
	if len(rows) <= limit {
		return Page[T]{Items: rows}
	}

	rows = rows[:limit]
	next := EncodeCursor(idOf(rows[len(rows)-1]))
	return Page[T]{Items: rows, NextCursor: &next, HasMore: true}
}
