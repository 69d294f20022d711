package model

import "time"

// UncategorizedSection is the per-user fallback section. It is created when
// the user is provisioned and can never be deleted.
const UncategorizedSection = "Uncategorized"

type Model struct {
	CreatedAt time.Time
	UpdatedAt time.Time
}

type User struct {
	Model
	ID           int64
	UID          string
	Email        string
	Name         string
	GoogleID     string
	PasswordHash string
}

type Section struct {
	Model
	ID     int64
	UserID int64
	Name   string
	Ord    int
}

type Link struct {
	Model
	ID          int64
	UserID      int64
	SectionID   int64
	Title       string
	URL         string
	Description string
	FaviconURL  string
	Pinned      bool
}

// SectionLinks is a section together with its unpinned links, as rendered on
// the dashboard.
type SectionLinks struct {
	Section
	Links []Link
}

type Dashboard struct {
	Pinned   []Link
	Sections []SectionLinks
}
