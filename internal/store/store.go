package store

import (
	"context"
	"errors"

	"github.com/bryanfernandez-eng/linkvault/internal/model"
)

var (
	ErrNotFound = errors.New("not found")
	ErrExists   = errors.New("already exists")
)

type Store interface {
	InsertUser(ctx context.Context, r InsertUserRequest) (model.User, error)
	GetUser(ctx context.Context, id int64) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	GetUserByGoogleID(ctx context.Context, googleID string) (model.User, error)

	InsertSection(ctx context.Context, r InsertSectionRequest) (model.Section, error)
	ListSections(ctx context.Context, userID int64) ([]model.Section, error)
	GetSection(ctx context.Context, r SectionRef) (model.Section, error)
	GetSectionByName(ctx context.Context, r GetSectionByNameRequest) (model.Section, error)
	MaxSectionOrder(ctx context.Context, userID int64) (int, error)
	UpdateSection(ctx context.Context, r UpdateSectionRequest) (model.Section, error)
	DeleteSection(ctx context.Context, r SectionRef) error
	ReassignLinks(ctx context.Context, r ReassignLinksRequest) error

	InsertLink(ctx context.Context, r InsertLinkRequest) (model.Link, error)
	ListLinks(ctx context.Context, userID int64) ([]model.Link, error)
	ListPinnedLinks(ctx context.Context, userID int64) ([]model.Link, error)
	GetLink(ctx context.Context, r LinkRef) (model.Link, error)
	UpdateLink(ctx context.Context, r UpdateLinkRequest) (model.Link, error)
	DeleteLink(ctx context.Context, r LinkRef) error

	WithinTx(ctx context.Context, fn func(tx Store) error) error
}
