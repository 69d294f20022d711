package service

import (
	"context"
	"errors"

	"github.com/bryanfernandez-eng/linkvault/internal/metadata"
	"github.com/bryanfernandez-eng/linkvault/internal/model"
	"github.com/bryanfernandez-eng/linkvault/internal/oauth"
	"github.com/bryanfernandez-eng/linkvault/internal/store"
	"github.com/bryanfernandez-eng/linkvault/internal/token"
)

// mockStore implements store.Store through optional func fields. Methods
// without a func return zero values, and WithinTx runs the callback
// against the mock itself.
type mockStore struct {
	insertUser        func(ctx context.Context, r store.InsertUserRequest) (model.User, error)
	getUser           func(ctx context.Context, id int64) (model.User, error)
	getUserByEmail    func(ctx context.Context, email string) (model.User, error)
	getUserByGoogleID func(ctx context.Context, googleID string) (model.User, error)

	insertSection    func(ctx context.Context, r store.InsertSectionRequest) (model.Section, error)
	listSections     func(ctx context.Context, userID int64) ([]model.Section, error)
	getSection       func(ctx context.Context, r store.SectionRef) (model.Section, error)
	getSectionByName func(ctx context.Context, r store.GetSectionByNameRequest) (model.Section, error)
	maxSectionOrder  func(ctx context.Context, userID int64) (int, error)
	updateSection    func(ctx context.Context, r store.UpdateSectionRequest) (model.Section, error)
	deleteSection    func(ctx context.Context, r store.SectionRef) error
	reassignLinks    func(ctx context.Context, r store.ReassignLinksRequest) error

	insertLink      func(ctx context.Context, r store.InsertLinkRequest) (model.Link, error)
	listLinks       func(ctx context.Context, userID int64) ([]model.Link, error)
	listPinnedLinks func(ctx context.Context, userID int64) ([]model.Link, error)
	getLink         func(ctx context.Context, r store.LinkRef) (model.Link, error)
	updateLink      func(ctx context.Context, r store.UpdateLinkRequest) (model.Link, error)
	deleteLink      func(ctx context.Context, r store.LinkRef) error

	withinTx func(ctx context.Context, fn func(tx store.Store) error) error
}

func (m *mockStore) InsertUser(ctx context.Context, r store.InsertUserRequest) (model.User, error) {
	if m.insertUser == nil {
		return model.User{}, nil
	}
	return m.insertUser(ctx, r)
}

func (m *mockStore) GetUser(ctx context.Context, id int64) (model.User, error) {
	if m.getUser == nil {
		return model.User{}, nil
	}
	return m.getUser(ctx, id)
}

func (m *mockStore) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	if m.getUserByEmail == nil {
		return model.User{}, nil
	}
	return m.getUserByEmail(ctx, email)
}

func (m *mockStore) GetUserByGoogleID(ctx context.Context, googleID string) (model.User, error) {
	if m.getUserByGoogleID == nil {
		return model.User{}, nil
	}
	return m.getUserByGoogleID(ctx, googleID)
}

func (m *mockStore) InsertSection(ctx context.Context, r store.InsertSectionRequest) (model.Section, error) {
	if m.insertSection == nil {
		return model.Section{}, nil
	}
	return m.insertSection(ctx, r)
}

func (m *mockStore) ListSections(ctx context.Context, userID int64) ([]model.Section, error) {
	if m.listSections == nil {
		return nil, nil
	}
	return m.listSections(ctx, userID)
}

func (m *mockStore) GetSection(ctx context.Context, r store.SectionRef) (model.Section, error) {
	if m.getSection == nil {
		return model.Section{}, nil
	}
	return m.getSection(ctx, r)
}

func (m *mockStore) GetSectionByName(ctx context.Context, r store.GetSectionByNameRequest) (model.Section, error) {
	if m.getSectionByName == nil {
		return model.Section{}, nil
	}
	return m.getSectionByName(ctx, r)
}

func (m *mockStore) MaxSectionOrder(ctx context.Context, userID int64) (int, error) {
	if m.maxSectionOrder == nil {
		return 0, nil
	}
	return m.maxSectionOrder(ctx, userID)
}

func (m *mockStore) UpdateSection(ctx context.Context, r store.UpdateSectionRequest) (model.Section, error) {
	if m.updateSection == nil {
		return model.Section{}, nil
	}
	return m.updateSection(ctx, r)
}

func (m *mockStore) DeleteSection(ctx context.Context, r store.SectionRef) error {
	if m.deleteSection == nil {
		return nil
	}
	return m.deleteSection(ctx, r)
}

func (m *mockStore) ReassignLinks(ctx context.Context, r store.ReassignLinksRequest) error {
	if m.reassignLinks == nil {
		return nil
	}
	return m.reassignLinks(ctx, r)
}

func (m *mockStore) InsertLink(ctx context.Context, r store.InsertLinkRequest) (model.Link, error) {
	if m.insertLink == nil {
		return model.Link{}, nil
	}
	return m.insertLink(ctx, r)
}

func (m *mockStore) ListLinks(ctx context.Context, userID int64) ([]model.Link, error) {
	if m.listLinks == nil {
		return nil, nil
	}
	return m.listLinks(ctx, userID)
}

func (m *mockStore) ListPinnedLinks(ctx context.Context, userID int64) ([]model.Link, error) {
	if m.listPinnedLinks == nil {
		return nil, nil
	}
	return m.listPinnedLinks(ctx, userID)
}

func (m *mockStore) GetLink(ctx context.Context, r store.LinkRef) (model.Link, error) {
	if m.getLink == nil {
		return model.Link{}, nil
	}
	return m.getLink(ctx, r)
}

func (m *mockStore) UpdateLink(ctx context.Context, r store.UpdateLinkRequest) (model.Link, error) {
	if m.updateLink == nil {
		return model.Link{}, nil
	}
	return m.updateLink(ctx, r)
}

func (m *mockStore) DeleteLink(ctx context.Context, r store.LinkRef) error {
	if m.deleteLink == nil {
		return nil
	}
	return m.deleteLink(ctx, r)
}

func (m *mockStore) WithinTx(ctx context.Context, fn func(tx store.Store) error) error {
	if m.withinTx == nil {
		return fn(m)
	}
	return m.withinTx(ctx, fn)
}

type mockFetcher struct {
	fetch func(ctx context.Context, url string) (metadata.Metadata, error)
}

func (m *mockFetcher) Fetch(ctx context.Context, url string) (metadata.Metadata, error) {
	if m.fetch == nil {
		return metadata.Metadata{}, errors.New("fetch not configured")
	}
	return m.fetch(ctx, url)
}

type mockAuthenticator struct {
	loginURL func(env oauth.Env, provider string) (string, error)
	exchange func(ctx context.Context, env oauth.Env, provider, code, state string) (oauth.User, error)
}

func (m *mockAuthenticator) LoginURL(env oauth.Env, provider string) (string, error) {
	if m.loginURL == nil {
		return "", nil
	}
	return m.loginURL(env, provider)
}

func (m *mockAuthenticator) Exchange(ctx context.Context, env oauth.Env, provider, code, state string) (oauth.User, error) {
	if m.exchange == nil {
		return oauth.User{}, nil
	}
	return m.exchange(ctx, env, provider, code, state)
}

type mockIssuer struct {
	issue    func(claims token.UserClaims) (string, error)
	validate func(tokenStr string) (token.UserClaims, error)
}

func (m *mockIssuer) Issue(claims token.UserClaims) (string, error) {
	if m.issue == nil {
		return "token", nil
	}
	return m.issue(claims)
}

func (m *mockIssuer) Validate(tokenStr string) (token.UserClaims, error) {
	if m.validate == nil {
		return token.UserClaims{}, nil
	}
	return m.validate(tokenStr)
}

type mockOTC struct {
	create func(ctx context.Context, ts TokenPair) (string, error)
	redeem func(ctx context.Context, code string) (TokenPair, error)
}

func (m *mockOTC) CreateCode(ctx context.Context, ts TokenPair) (string, error) {
	if m.create == nil {
		return "code", nil
	}
	return m.create(ctx, ts)
}

func (m *mockOTC) RedeemCode(ctx context.Context, code string) (TokenPair, error) {
	if m.redeem == nil {
		return TokenPair{}, nil
	}
	return m.redeem(ctx, code)
}

type memEnv struct {
	store map[string]string
}

func newMemEnv() *memEnv {
	return &memEnv{store: make(map[string]string)}
}

func (m *memEnv) Save(key, val string) error {
	m.store[key] = val
	return nil
}

func (m *memEnv) Load(key string) (string, error) {
	val, ok := m.store[key]
	if !ok {
		return "", errors.New("key not found")
	}
	return val, nil
}
