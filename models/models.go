package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Category struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"not null;uniqueIndex" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Show struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string    `gorm:"not null;index" json:"title"`
	Synopsis    *string   `json:"synopsis"`
	PosterURL   *string   `json:"poster_url"`
	BackdropURL *string   `json:"backdrop_url"`
	CreatedAt   time.Time `json:"created_at"`
}

type Episode struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ShowID        uuid.UUID `gorm:"type:uuid;not null;index:idx_episodes_show_number" json:"show_id"`
	Title         string    `json:"title"`
	EpisodeNumber int       `gorm:"not null;index:idx_episodes_show_number" json:"episode_number"`
	Duration      *int      `json:"duration"` // minutes
	ThumbnailURL  *string   `json:"thumbnail_url"`
	CreatedAt     time.Time `json:"created_at"`
}

// ShowCategory links a show to one category.
type ShowCategory struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ShowID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_show_categories_pair" json:"show_id"`
	CategoryID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_show_categories_pair;index" json:"category_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Favorite marks a show as favorited by a user. The row's existence is the
// whole state; there is at most one per (user, show).
type Favorite struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_favorites_user_show" json:"user_id"`
	ShowID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_favorites_user_show" json:"show_id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string    `gorm:"not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session is a signed-in session. Its ID is carried as the token's jti, so
// deleting the row revokes the token.
type Session struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	ExpiresAt time.Time `gorm:"not null"`
	CreatedAt time.Time
}

// CategoryWithShows is the aggregated home-screen row. It is never stored.
type CategoryWithShows struct {
	Category
	Shows []Show `json:"shows"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error { c.ID = ensureID(c.ID); return nil }
func (s *Show) BeforeCreate(tx *gorm.DB) error { s.ID = ensureID(s.ID); return nil }
func (e *Episode) BeforeCreate(tx *gorm.DB) error { e.ID = ensureID(e.ID); return nil }
func (sc *ShowCategory) BeforeCreate(tx *gorm.DB) error { sc.ID = ensureID(sc.ID); return nil }
func (f *Favorite) BeforeCreate(tx *gorm.DB) error { f.ID = ensureID(f.ID); return nil }
func (u *User) BeforeCreate(tx *gorm.DB) error { u.ID = ensureID(u.ID); return nil }
func (s *Session) BeforeCreate(tx *gorm.DB) error { s.ID = ensureID(s.ID); return nil }

func ensureID(id uuid.UUID) uuid.UUID {
	if id == uuid.Nil {
		return uuid.New()
	}
	return id
}

// All lists every stored model, in migration order.
func All() []interface{} {
	return []interface{}{
		&Category{},
		&Show{},
		&Episode{},
		&ShowCategory{},
		&User{},
		&Favorite{},
		&Session{},
	}
}
