package announcements

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

const (
	defaultLimit = 10
	maxLimit     = 100
	maxTitle     = 200
)

var (
	// ErrTitleRequired is returned when creating an announcement without a title.
	ErrTitleRequired = errors.New("title is required")
	// ErrTitleTooLong is returned when a title exceeds maxTitle bytes.
	ErrTitleTooLong = errors.New("title too long")
)

// Announcement is a panel-wide notice shown to operators.
type Announcement struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:200;not null" json:"title"`
	Body      string    `gorm:"type:text" json:"body"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName keeps extension tables out of the host's naming space.
func (Announcement) TableName() string { return "extension_announcements" }

// Store persists announcements through gorm.
type Store struct {
	db *gorm.DB
}

// NewStore migrates the announcements table and returns a Store.
func NewStore(ctx context.Context, db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("announcements: no database handle")
	}
	if err := db.WithContext(ctx).AutoMigrate(&Announcement{}); err != nil {
		return nil, fmt.Errorf("migrating announcements: %w", err)
	}
	return &Store{db: db}, nil
}

// Latest returns up to limit announcements, newest first. A non-positive
// limit selects the default and large limits are capped.
func (s *Store) Latest(ctx context.Context, limit int) ([]Announcement, error) {
	limit = clampLimit(limit)

	out := []Announcement{}
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("listing announcements: %w", err)
	}
	return out, nil
}

// Create stores a new announcement.
func (s *Store) Create(ctx context.Context, title, body string) (*Announcement, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if len(title) > maxTitle {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrTitleTooLong, maxTitle)
	}

	a := &Announcement{Title: title, Body: body}
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return nil, fmt.Errorf("creating announcement: %w", err)
	}
	return a, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultLimit
	case limit > maxLimit:
		return maxLimit
	default:
		return limit
	}
}
