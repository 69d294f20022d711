package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/bryanfernandez-eng/linkvault/internal/model"
	"github.com/bryanfernandez-eng/linkvault/internal/pkg/serr"
	"github.com/bryanfernandez-eng/linkvault/internal/store"
)

const maxSectionNameLen = 100

// Sections manages a user's sections and their ordering.
type Sections struct {
	store store.Store
}

func NewSections(st store.Store) *Sections {
	return &Sections{store: st}
}

func (s *Sections) List(ctx context.Context, userID int64) ([]model.Section, error) {
	sections, err := s.store.ListSections(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}

	return sections, nil
}

// Uncategorized returns the user's fallback section. Every account gets
// one at provisioning, so its absence means the account is corrupt.
func (s *Sections) Uncategorized(ctx context.Context, userID int64) (model.Section, error) {
	sec, err := s.store.GetSectionByName(ctx, store.GetSectionByNameRequest{
		UserID: userID,
		Name:   model.UncategorizedSection,
	})
	if err != nil {
		sErr := serr.NewServiceError(err, http.StatusInternalServerError, "fallback section missing")
		sErr.Env["user_id"] = fmt.Sprint(userID)
		return model.Section{}, sErr
	}

	return sec, nil
}

type CreateSectionRequest struct {
	UserID int64
	Name   string
}

// Create appends a section at the end of the user's ordering.
func (s *Sections) Create(ctx context.Context, r CreateSectionRequest) (model.Section, error) {
	name, err := validSectionName(r.Name)
	if err != nil {
		return model.Section{}, err
	}

	var sec model.Section
	err = s.store.WithinTx(ctx, func(tx store.Store) error {
		maxOrd, err := tx.MaxSectionOrder(ctx, r.UserID)
		if err != nil {
			return fmt.Errorf("max section order: %w", err)
		}

		sec, err = tx.InsertSection(ctx, store.InsertSectionRequest{
			UserID: r.UserID,
			Name:   name,
			Ord:    maxOrd + 1,
		})
		if err != nil {
			return fmt.Errorf("insert section: %w", err)
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrExists) {
			return model.Section{}, serr.NewServiceError(err, http.StatusConflict, "section already exists")
		}

		return model.Section{}, err
	}

	return sec, nil
}

type UpdateSectionRequest struct {
	ID     int64
	UserID int64
	Name   *string
}

// Update renames a section. The Uncategorized section keeps its name.
func (s *Sections) Update(ctx context.Context, r UpdateSectionRequest) (model.Section, error) {
	sec, err := s.store.GetSection(ctx, store.SectionRef{ID: r.ID, UserID: r.UserID})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Section{}, serr.NewServiceError(err, http.StatusNotFound, "section not found")
		}

		return model.Section{}, fmt.Errorf("get section: %w", err)
	}

	if r.Name == nil {
		return sec, nil
	}

	if sec.Name == model.UncategorizedSection {
		return model.Section{}, serr.NewServiceError(nil, http.StatusForbidden,
			"the %s section cannot be renamed", model.UncategorizedSection)
	}

	name, err := validSectionName(*r.Name)
	if err != nil {
		return model.Section{}, err
	}

	sec, err = s.store.UpdateSection(ctx, store.UpdateSectionRequest{
		ID:     r.ID,
		UserID: r.UserID,
		Name:   &name,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Section{}, serr.NewServiceError(err, http.StatusNotFound, "section not found")
		}

		return model.Section{}, fmt.Errorf("update section: %w", err)
	}

	return sec, nil
}

// Delete removes a section after moving its links into Uncategorized.
// The Uncategorized section itself cannot be deleted.
func (s *Sections) Delete(ctx context.Context, ref store.SectionRef) error {
	sec, err := s.store.GetSection(ctx, ref)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return serr.NewServiceError(err, http.StatusNotFound, "section not found")
		}

		return fmt.Errorf("get section: %w", err)
	}

	if sec.Name == model.UncategorizedSection {
		return serr.NewServiceError(nil, http.StatusForbidden,
			"the %s section cannot be deleted", model.UncategorizedSection)
	}

	fallback, err := s.Uncategorized(ctx, ref.UserID)
	if err != nil {
		return err
	}

	err = s.store.WithinTx(ctx, func(tx store.Store) error {
		err := tx.ReassignLinks(ctx, store.ReassignLinksRequest{
			UserID:        ref.UserID,
			FromSectionID: sec.ID,
			ToSectionID:   fallback.ID,
		})
		if err != nil {
			return fmt.Errorf("reassign links: %w", err)
		}

		if err := tx.DeleteSection(ctx, ref); err != nil {
			return fmt.Errorf("delete section: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("within tx: %w", err)
	}

	return nil
}

// SectionOrder assigns an explicit position to one section.
type SectionOrder struct {
	ID  int64
	Ord int
}

type ReorderRequest struct {
	UserID int64
	Orders []SectionOrder
}

// Reorder writes the supplied position of each entry. Entries the user
// does not own are skipped without failing the rest.
func (s *Sections) Reorder(ctx context.Context, r ReorderRequest) ([]model.Section, error) {
	err := s.store.WithinTx(ctx, func(tx store.Store) error {
		for _, o := range r.Orders {
			ord := o.Ord
			_, err := tx.UpdateSection(ctx, store.UpdateSectionRequest{
				ID:     o.ID,
				UserID: r.UserID,
				Ord:    &ord,
			})
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					continue
				}

				return fmt.Errorf("update section %d: %w", o.ID, err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("within tx: %w", err)
	}

	return s.List(ctx, r.UserID)
}

func validSectionName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", serr.NewServiceError(nil, http.StatusBadRequest, "section name is required")
	}

	if utf8.RuneCountInString(name) > maxSectionNameLen {
		return "", serr.NewServiceError(nil, http.StatusBadRequest,
			"section name is longer than %d characters", maxSectionNameLen)
	}

	return name, nil
}
