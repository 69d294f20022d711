package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/bryanfernandez-eng/linkvault/internal/metadata"
	"github.com/bryanfernandez-eng/linkvault/internal/model"
	"github.com/bryanfernandez-eng/linkvault/internal/pkg/serr"
	"github.com/bryanfernandez-eng/linkvault/internal/store"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 500
)

type metadataFetcher interface {
	Fetch(ctx context.Context, url string) (metadata.Metadata, error)
}

// Links manages saved links and enriches them with page metadata.
type Links struct {
	store    store.Store
	sections *Sections
	fetcher  metadataFetcher
}

func NewLinks(st store.Store, sections *Sections, fetcher metadataFetcher) *Links {
	return &Links{
		store:    st,
		sections: sections,
		fetcher:  fetcher,
	}
}

func (s *Links) List(ctx context.Context, userID int64) ([]model.Link, error) {
	links, err := s.store.ListLinks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}

	return links, nil
}

func (s *Links) ListPinned(ctx context.Context, userID int64) ([]model.Link, error) {
	links, err := s.store.ListPinnedLinks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list pinned links: %w", err)
	}

	return links, nil
}

// Dashboard assembles the landing view: pinned links first, then every
// section in order with its unpinned links.
func (s *Links) Dashboard(ctx context.Context, userID int64) (model.Dashboard, error) {
	sections, err := s.sections.List(ctx, userID)
	if err != nil {
		return model.Dashboard{}, err
	}

	links, err := s.List(ctx, userID)
	if err != nil {
		return model.Dashboard{}, err
	}

	var dash model.Dashboard
	bySection := make(map[int64][]model.Link)
	for _, l := range links {
		if l.Pinned {
			dash.Pinned = append(dash.Pinned, l)
			continue
		}

		bySection[l.SectionID] = append(bySection[l.SectionID], l)
	}

	dash.Sections = make([]model.SectionLinks, 0, len(sections))
	for _, sec := range sections {
		grouped := bySection[sec.ID]
		if sec.Name == model.UncategorizedSection {
			// Links that lost their section keep showing up in the fallback.
			grouped = append(grouped, bySection[0]...)
		}

		dash.Sections = append(dash.Sections, model.SectionLinks{
			Section: sec,
			Links:   grouped,
		})
	}

	return dash, nil
}

type CreateLinkRequest struct {
	UserID      int64
	SectionID   int64
	Title       string
	URL         string
	Description string
	Pinned      bool
}

// Create saves a link, placing it into Uncategorized when no section is
// given. The page is fetched to fill in missing metadata; a page that
// cannot be read never fails the save.
func (s *Links) Create(ctx context.Context, r CreateLinkRequest) (model.Link, error) {
	rawURL := strings.TrimSpace(r.URL)
	if rawURL == "" {
		return model.Link{}, serr.NewServiceError(nil, http.StatusBadRequest, "url is required")
	}

	target, err := validLinkURL(rawURL)
	if err != nil {
		return model.Link{}, err
	}

	sec, err := s.resolveSection(ctx, r.UserID, r.SectionID)
	if err != nil {
		return model.Link{}, err
	}

	title := strings.TrimSpace(r.Title)
	description := strings.TrimSpace(r.Description)
	var faviconURL string

	md, err := s.fetcher.Fetch(ctx, target)
	if err == nil {
		// A user title that just repeats the URL counts as absent.
		if title == "" || title == rawURL || title == target {
			if md.Title != "" {
				title = md.Title
			}
			if description == "" {
				description = md.Description
			}
		}

		faviconURL = md.FaviconURL
	}

	if title == "" {
		title = target
	}

	link, err := s.store.InsertLink(ctx, store.InsertLinkRequest{
		UserID:      r.UserID,
		SectionID:   sec.ID,
		Title:       metadata.Truncate(title, maxTitleLen),
		URL:         target,
		Description: metadata.Truncate(description, maxDescriptionLen),
		FaviconURL:  faviconURL,
		Pinned:      r.Pinned,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Link{}, serr.NewServiceError(err, http.StatusNotFound, "section not found")
		}

		return model.Link{}, fmt.Errorf("insert link: %w", err)
	}

	return link, nil
}

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

// Update patches a link in place. Changing the URL does not re-fetch
// metadata; the caller's values win.
func (s *Links) Update(ctx context.Context, r UpdateLinkRequest) (model.Link, error) {
	if r.SectionID != nil {
		if _, err := s.resolveSection(ctx, r.UserID, *r.SectionID); err != nil {
			return model.Link{}, err
		}
	}

	if r.Title != nil {
		t := metadata.Truncate(strings.TrimSpace(*r.Title), maxTitleLen)
		if t == "" {
			return model.Link{}, serr.NewServiceError(nil, http.StatusBadRequest, "title cannot be empty")
		}
		r.Title = &t
	}

	if r.URL != nil {
		if strings.TrimSpace(*r.URL) == "" {
			return model.Link{}, serr.NewServiceError(nil, http.StatusBadRequest, "url cannot be empty")
		}
		u, err := validLinkURL(*r.URL)
		if err != nil {
			return model.Link{}, err
		}
		r.URL = &u
	}

	if r.Description != nil {
		d := metadata.Truncate(strings.TrimSpace(*r.Description), maxDescriptionLen)
		r.Description = &d
	}

	link, err := s.store.UpdateLink(ctx, store.UpdateLinkRequest{
		ID:          r.ID,
		UserID:      r.UserID,
		SectionID:   r.SectionID,
		Title:       r.Title,
		URL:         r.URL,
		Description: r.Description,
		FaviconURL:  r.FaviconURL,
		Pinned:      r.Pinned,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Link{}, serr.NewServiceError(err, http.StatusNotFound, "link not found")
		}

		return model.Link{}, fmt.Errorf("update link: %w", err)
	}

	return link, nil
}

func (s *Links) Delete(ctx context.Context, ref store.LinkRef) error {
	if err := s.store.DeleteLink(ctx, ref); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return serr.NewServiceError(err, http.StatusNotFound, "link not found")
		}

		return fmt.Errorf("delete link: %w", err)
	}

	return nil
}

// validLinkURL normalizes raw and rejects values that still do not parse
// as an absolute URL afterwards.
func validLinkURL(raw string) (string, error) {
	target := metadata.NormalizeURL(raw)
	u, err := url.ParseRequestURI(target)
	if err != nil || u.Host == "" {
		sErr := serr.NewServiceError(err, http.StatusBadRequest, "invalid url")
		sErr.Env["url"] = raw
		return "", sErr
	}

	return target, nil
}

// resolveSection maps a requested section to one the user owns, falling
// back to Uncategorized when none is given. Another user's section looks
// exactly like a missing one.
func (s *Links) resolveSection(ctx context.Context, userID, sectionID int64) (model.Section, error) {
	if sectionID == 0 {
		return s.sections.Uncategorized(ctx, userID)
	}

	sec, err := s.store.GetSection(ctx, store.SectionRef{ID: sectionID, UserID: userID})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			sErr := serr.NewServiceError(err, http.StatusNotFound, "section not found")
			sErr.Env["section_id"] = fmt.Sprint(sectionID)
			return model.Section{}, sErr
		}

		return model.Section{}, fmt.Errorf("get section: %w", err)
	}

	return sec, nil
}
