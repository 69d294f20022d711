package store

type InsertUserRequest struct {
	UID          string
	Email        string
	Name         string
	GoogleID     string
	PasswordHash string
}

type InsertSectionRequest struct {
	UserID int64
	Name   string
	Ord    int
}

// SectionRef identifies a section within its owner's scope. Lookups through
// it cannot see other users' sections.
type SectionRef struct {
	ID     int64
	UserID int64
}

type GetSectionByNameRequest struct {
	UserID int64
	Name   string
}

// UpdateSectionRequest applies a partial update: nil fields are left
// untouched.
type UpdateSectionRequest struct {
	ID     int64
	UserID int64
	Name   *string
	Ord    *int
}

type ReassignLinksRequest struct {
	UserID        int64
	FromSectionID int64
	ToSectionID   int64
}

type InsertLinkRequest struct {
	UserID      int64
	SectionID   int64
	Title       string
	URL         string
	Description string
	FaviconURL  string
	Pinned      bool
}

type LinkRef struct {
	ID     int64
	UserID int64
}

// UpdateLinkRequest applies a partial update: nil fields are left untouched.
type UpdateLinkRequest struct {
	ID          int64
	UserID      int64
	SectionID   *int64
	Title       *string
	URL         *string
	Description *string
	FaviconURL  *string
	Pinned      *bool
}
