package rest

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/bryanfernandez-eng/linkvault/internal/model"
	"github.com/bryanfernandez-eng/linkvault/internal/pkg/httpx"
	"github.com/bryanfernandez-eng/linkvault/internal/pkg/middleware"
	"github.com/bryanfernandez-eng/linkvault/internal/pkg/serr"
	"github.com/bryanfernandez-eng/linkvault/internal/service"
	"github.com/bryanfernandez-eng/linkvault/internal/store"
)

type accountService interface {
	Me(ctx context.Context, userID int64) (model.User, error)
}

type sectionsService interface {
	List(ctx context.Context, userID int64) ([]model.Section, error)
	Create(ctx context.Context, r service.CreateSectionRequest) (model.Section, error)
	Update(ctx context.Context, r service.UpdateSectionRequest) (model.Section, error)
	Delete(ctx context.Context, ref store.SectionRef) error
	Reorder(ctx context.Context, r service.ReorderRequest) ([]model.Section, error)
}

type linksService interface {
	List(ctx context.Context, userID int64) ([]model.Link, error)
	Dashboard(ctx context.Context, userID int64) (model.Dashboard, error)
	Create(ctx context.Context, r service.CreateLinkRequest) (model.Link, error)
	Update(ctx context.Context, r service.UpdateLinkRequest) (model.Link, error)
	Delete(ctx context.Context, ref store.LinkRef) error
}

// VaultAPI serves the authenticated surface: the current account, sections
// and links. It expects the auth middleware to have placed the user id in
// the request context.
type VaultAPI struct {
	account  accountService
	sections sectionsService
	links    linksService
	mux      *http.ServeMux
}

func NewVaultAPI(account accountService, sections sectionsService, links linksService) *VaultAPI {
	api := &VaultAPI{
		account:  account,
		sections: sections,
		links:    links,
		mux:      http.NewServeMux(),
	}
	api.mount()
	return api
}

func (a *VaultAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

func (a *VaultAPI) mount() {
	a.mux.HandleFunc("GET /me", a.handleMe)

	a.mux.HandleFunc("GET /sections", a.handleListSections)
	a.mux.HandleFunc("POST /sections", a.handleCreateSection)
	a.mux.HandleFunc("POST /sections/reorder", a.handleReorderSections)
	a.mux.HandleFunc("PATCH /sections/{id}", a.handleUpdateSection)
	a.mux.HandleFunc("DELETE /sections/{id}", a.handleDeleteSection)

	a.mux.HandleFunc("GET /links", a.handleListLinks)
	a.mux.HandleFunc("GET /links/dashboard", a.handleDashboard)
	a.mux.HandleFunc("POST /links", a.handleCreateLink)
	a.mux.HandleFunc("PATCH /links/{id}", a.handleUpdateLink)
	a.mux.HandleFunc("DELETE /links/{id}", a.handleDeleteLink)
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type sectionResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"created_at"`
}

type linkResponse struct {
	ID          int64     `json:"id"`
	SectionID   int64     `json:"section_id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	FaviconURL  string    `json:"favicon_url"`
	IsPinned    bool      `json:"is_pinned"`
	CreatedAt   time.Time `json:"created_at"`
}

type sectionLinksResponse struct {
	sectionResponse
	Links []linkResponse `json:"links"`
}

type dashboardResponse struct {
	PinnedLinks []linkResponse         `json:"pinned_links"`
	Sections    []sectionLinksResponse `json:"sections"`
}

func toSectionResponse(s model.Section) sectionResponse {
	return sectionResponse{
		ID:        s.ID,
		Name:      s.Name,
		Order:     s.Ord,
		CreatedAt: s.CreatedAt,
	}
}

func toSectionResponses(sections []model.Section) []sectionResponse {
	out := make([]sectionResponse, 0, len(sections))
	for _, s := range sections {
		out = append(out, toSectionResponse(s))
	}
	return out
}

func toLinkResponse(l model.Link) linkResponse {
	return linkResponse{
		ID:          l.ID,
		SectionID:   l.SectionID,
		Title:       l.Title,
		URL:         l.URL,
		Description: l.Description,
		FaviconURL:  l.FaviconURL,
		IsPinned:    l.Pinned,
		CreatedAt:   l.CreatedAt,
	}
}

func toLinkResponses(links []model.Link) []linkResponse {
	out := make([]linkResponse, 0, len(links))
	for _, l := range links {
		out = append(out, toLinkResponse(l))
	}
	return out
}

func (a *VaultAPI) handleMe(w http.ResponseWriter, r *http.Request) {
	usr, err := a.account.Me(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	resp := userResponse{
		ID:    usr.UID,
		Email: usr.Email,
		Name:  usr.Name,
	}
	if err := httpx.WriteJSON(w, http.StatusOK, resp); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("write response json: %w", err))
	}
}

func (a *VaultAPI) handleListSections(w http.ResponseWriter, r *http.Request) {
	sections, err := a.sections.List(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusOK, toSectionResponses(sections)); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("write response json: %w", err))
	}
}

type createSectionRequest struct {
	Name string `json:"name"`
}

func (a *VaultAPI) handleCreateSection(w http.ResponseWriter, r *http.Request) {
	var req createSectionRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("read request json: %w", err))
		return
	}

	sec, err := a.sections.Create(r.Context(), service.CreateSectionRequest{
		UserID: middleware.UserIDFromContext(r.Context()),
		Name:   req.Name,
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusCreated, toSectionResponse(sec)); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("write response json: %w", err))
	}
}

type updateSectionRequest struct {
	Name *string `json:"name"`
}

func (a *VaultAPI) handleUpdateSection(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	var req updateSectionRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("read request json: %w", err))
		return
	}

	sec, err := a.sections.Update(r.Context(), service.UpdateSectionRequest{
		ID:     id,
		UserID: middleware.UserIDFromContext(r.Context()),
		Name:   req.Name,
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusOK, toSectionResponse(sec)); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("write response json: %w", err))
	}
}

func (a *VaultAPI) handleDeleteSection(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	err = a.sections.Delete(r.Context(), store.SectionRef{
		ID:     id,
		UserID: middleware.UserIDFromContext(r.Context()),
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type sectionOrderRequest struct {
	ID    int64 `json:"id"`
	Order int   `json:"order"`
}

func (a *VaultAPI) handleReorderSections(w http.ResponseWriter, r *http.Request) {
	var req []sectionOrderRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("read request json: %w", err))
		return
	}

	orders := make([]service.SectionOrder, 0, len(req))
	for _, e := range req {
		orders = append(orders, service.SectionOrder{ID: e.ID, Ord: e.Order})
	}

	sections, err := a.sections.Reorder(r.Context(), service.ReorderRequest{
		UserID: middleware.UserIDFromContext(r.Context()),
		Orders: orders,
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusOK, toSectionResponses(sections)); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("write response json: %w", err))
	}
}

func (a *VaultAPI) handleListLinks(w http.ResponseWriter, r *http.Request) {
	links, err := a.links.List(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusOK, toLinkResponses(links)); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("write response json: %w", err))
	}
}

func (a *VaultAPI) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := a.links.Dashboard(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	resp := dashboardResponse{
		PinnedLinks: toLinkResponses(dash.Pinned),
		Sections:    make([]sectionLinksResponse, 0, len(dash.Sections)),
	}
	for _, s := range dash.Sections {
		resp.Sections = append(resp.Sections, sectionLinksResponse{
			sectionResponse: toSectionResponse(s.Section),
			Links:           toLinkResponses(s.Links),
		})
	}

	if err := httpx.WriteJSON(w, http.StatusOK, resp); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("write response json: %w", err))
	}
}

type createLinkRequest struct {
	SectionID   int64  `json:"section_id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	IsPinned    bool   `json:"is_pinned"`
}

func (a *VaultAPI) handleCreateLink(w http.ResponseWriter, r *http.Request) {
	var req createLinkRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("read request json: %w", err))
		return
	}

	link, err := a.links.Create(r.Context(), service.CreateLinkRequest{
		UserID:      middleware.UserIDFromContext(r.Context()),
		SectionID:   req.SectionID,
		Title:       req.Title,
		URL:         req.URL,
		Description: req.Description,
		Pinned:      req.IsPinned,
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusCreated, toLinkResponse(link)); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("write response json: %w", err))
	}
}

type updateLinkRequest struct {
	SectionID   *int64  `json:"section_id"`
	Title       *string `json:"title"`
	URL         *string `json:"url"`
	Description *string `json:"description"`
	FaviconURL  *string `json:"favicon_url"`
	IsPinned    *bool   `json:"is_pinned"`
}

func (a *VaultAPI) handleUpdateLink(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	var req updateLinkRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("read request json: %w", err))
		return
	}

	link, err := a.links.Update(r.Context(), service.UpdateLinkRequest{
		ID:          id,
		UserID:      middleware.UserIDFromContext(r.Context()),
		SectionID:   req.SectionID,
		Title:       req.Title,
		URL:         req.URL,
		Description: req.Description,
		FaviconURL:  req.FaviconURL,
		Pinned:      req.IsPinned,
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusOK, toLinkResponse(link)); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("write response json: %w", err))
	}
}

func (a *VaultAPI) handleDeleteLink(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	err = a.links.Delete(r.Context(), store.LinkRef{
		ID:     id,
		UserID: middleware.UserIDFromContext(r.Context()),
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, serr.NewServiceError(err, http.StatusBadRequest, "invalid id %q", raw)
	}

	return id, nil
}
