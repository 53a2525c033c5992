package models

import (
	"strings"
	"time"
)

// Category is a named grouping of photos shown as a portfolio section.
// The ID is a URL slug and doubles as the storage path prefix for uploads.
type Category struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Tag       string    `json:"tag"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Photo represents a single gallery photo.
type Photo struct {
	ID          string    `json:"id"`
	CategoryID  string    `json:"category_id"`
	URL         string    `json:"url"`
	Title       string    `json:"title,omitempty"`
	Placeholder string    `json:"placeholder,omitempty"`
	Views       int       `json:"views"`
	Likes       int       `json:"likes"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Admin is an admin-console account.
type Admin struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// CategoryCover pairs a category with its most recent photo, used to
// populate the portfolio overview in a single round trip.
type CategoryCover struct {
	CategoryID string `json:"category_id"`
	Photo      Photo  `json:"photo"`
}

// Counter field names accepted by the engagement update path.
const (
	CounterViews = "views"
	CounterLikes = "likes"
)

// Filter tags shown on the portfolio page.
const (
	TagSessions  = "Sessions"
	TagWedding   = "Wedding"
	TagEvents    = "Events"
	TagChildren  = "Children"
	TagMaternity = "Maternity"
)

// DeriveTag picks a filter tag from a category's slug and label. Keyword
// stems cover both the Portuguese and English category names the studio
// has used.
func DeriveTag(slug, label string) string {
	text := strings.ToLower(slug + " " + label)
	switch {
	case strings.Contains(text, "grav") || strings.Contains(text, "matern"):
		return TagMaternity
	case strings.Contains(text, "infan") || strings.Contains(text, "crianc") || strings.Contains(text, "child"):
		return TagChildren
	case strings.Contains(text, "casa") || strings.Contains(text, "wedd"):
		return TagWedding
	case strings.Contains(text, "event") || strings.Contains(text, "batiz") || strings.Contains(text, "anivers") || strings.Contains(text, "birthday"):
		return TagEvents
	default:
		return TagSessions
	}
}
