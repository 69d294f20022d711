// Package service implements the application logic behind the REST API:
// account management, section ordering and link enrichment.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/bryanfernandez-eng/linkvault/internal/model"
	"github.com/bryanfernandez-eng/linkvault/internal/oauth"
	"github.com/bryanfernandez-eng/linkvault/internal/pkg/serr"
	"github.com/bryanfernandez-eng/linkvault/internal/store"
	"github.com/bryanfernandez-eng/linkvault/internal/token"
)

const (
	minPasswordLen = 8

	// Fixed ord given to Uncategorized at provisioning. Sections created
	// afterwards take max(ord)+1 and land below it.
	uncategorizedOrd = 999
)

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type tokenIssuer interface {
	Issue(claims token.UserClaims) (string, error)
	Validate(token string) (token.UserClaims, error)
}

type authenticator interface {
	LoginURL(env oauth.Env, provider string) (string, error)
	Exchange(ctx context.Context, env oauth.Env, provider, code, state string) (oauth.User, error)
}

type oneTimeCodeProvider interface {
	CreateCode(ctx context.Context, ts TokenPair) (string, error)
	RedeemCode(ctx context.Context, code string) (TokenPair, error)
}

// Auth handles registration, password and OAuth logins, and token
// management.
type Auth struct {
	auth         authenticator
	store        store.Store
	accessToken  tokenIssuer
	refreshToken tokenIssuer
	otc          oneTimeCodeProvider
}

type AuthOption func(*Auth) *Auth

func WithAuthenticator(a authenticator) AuthOption {
	return func(s *Auth) *Auth {
		s.auth = a
		return s
	}
}

func WithStore(st store.Store) AuthOption {
	return func(s *Auth) *Auth {
		s.store = st
		return s
	}
}

func WithAccessToken(iss tokenIssuer) AuthOption {
	return func(s *Auth) *Auth {
		s.accessToken = iss
		return s
	}
}

func WithRefreshToken(iss tokenIssuer) AuthOption {
	return func(s *Auth) *Auth {
		s.refreshToken = iss
		return s
	}
}

func WithOTC(p oneTimeCodeProvider) AuthOption {
	return func(s *Auth) *Auth {
		s.otc = p
		return s
	}
}

func NewAuth(opts ...AuthOption) *Auth {
	s := &Auth{}
	for _, opt := range opts {
		s = opt(s)
	}

	if s.auth == nil {
		panic("oauth authenticator is required")
	}

	if s.store == nil {
		panic("store is required")
	}

	if s.accessToken == nil {
		panic("access token issuer is required")
	}

	if s.refreshToken == nil {
		panic("refresh token issuer is required")
	}

	if s.otc == nil {
		panic("one time code provider is required")
	}

	return s
}

type RegisterRequest struct {
	Email    string
	Name     string
	Password string
}

// Register creates a password-based account and signs the user in.
func (s *Auth) Register(ctx context.Context, r RegisterRequest) (TokenPair, error) {
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return TokenPair{}, serr.NewServiceError(err, http.StatusBadRequest, "invalid email address")
	}

	if len(r.Password) < minPasswordLen {
		return TokenPair{}, serr.NewServiceError(nil, http.StatusBadRequest,
			"password must be at least %d characters", minPasswordLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), bcrypt.DefaultCost)
	if err != nil {
		return TokenPair{}, fmt.Errorf("hash password: %w", err)
	}

	usr, err := s.provisionUser(ctx, store.InsertUserRequest{
		UID:          uuid.NewString(),
		Email:        r.Email,
		Name:         r.Name,
		PasswordHash: string(hash),
	})
	if err != nil {
		if errors.Is(err, store.ErrExists) {
			sErr := serr.NewServiceError(err, http.StatusConflict, "email already registered")
			sErr.Env["email"] = r.Email
			return TokenPair{}, sErr
		}

		return TokenPair{}, fmt.Errorf("provision user: %w", err)
	}

	return s.issuePair(usr.ID)
}

type PasswordLoginRequest struct {
	Email    string
	Password string
}

// Login verifies an email/password pair. All failure modes look the same
// to the caller so account existence cannot be probed.
func (s *Auth) Login(ctx context.Context, r PasswordLoginRequest) (TokenPair, error) {
	usr, err := s.store.GetUserByEmail(ctx, r.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return TokenPair{}, serr.NewServiceError(err, http.StatusUnauthorized, "invalid credentials")
		}

		return TokenPair{}, fmt.Errorf("get user by email: %w", err)
	}

	if usr.PasswordHash == "" {
		return TokenPair{}, serr.NewServiceError(nil, http.StatusUnauthorized, "invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(usr.PasswordHash), []byte(r.Password)); err != nil {
		return TokenPair{}, serr.NewServiceError(err, http.StatusUnauthorized, "invalid credentials")
	}

	return s.issuePair(usr.ID)
}

type LoginURLRequest struct {
	Provider    string
	RedirectURL string
}

// LoginURL starts the OAuth flow and returns the provider URL to send the
// browser to.
func (s *Auth) LoginURL(env oauth.Env, r LoginURLRequest) (string, error) {
	if err := env.Save("redirect_url", r.RedirectURL); err != nil {
		return "", fmt.Errorf("save redirect url: %w", err)
	}

	url, err := s.auth.LoginURL(env, r.Provider)
	if err != nil {
		if errors.Is(err, oauth.ErrProviderNotFound) {
			sErr := serr.NewServiceError(err, http.StatusNotFound, "oauth provider not found")
			sErr.Env["provider"] = r.Provider
			return "", sErr
		}

		return "", fmt.Errorf("login url: %w", err)
	}

	return url, nil
}

type CallbackRequest struct {
	Provider string
	Code     string
	State    string
}

type CallbackResponse struct {
	User        model.User
	RedirectURL string
	OTC         string
}

// Callback finishes the OAuth flow: it exchanges the authorization code,
// provisions the account on first login, and stashes the issued tokens
// behind a one-time code carried on the redirect URL.
func (s *Auth) Callback(ctx context.Context, env oauth.Env, r CallbackRequest) (CallbackResponse, error) {
	usr, err := s.auth.Exchange(ctx, env, r.Provider, r.Code, r.State)
	if err != nil {
		if errors.Is(err, oauth.ErrProviderNotFound) {
			sErr := serr.NewServiceError(err, http.StatusNotFound, "oauth provider not found")
			sErr.Env["provider"] = r.Provider
			return CallbackResponse{}, sErr
		}

		if errors.Is(err, oauth.ErrAuthFailed) {
			sErr := serr.NewServiceError(err, http.StatusUnauthorized, "authentication failed")
			sErr.Env["provider"] = r.Provider
			return CallbackResponse{}, sErr
		}

		return CallbackResponse{}, fmt.Errorf("exchange: %w", err)
	}

	acc, err := s.getOrCreateUser(ctx, usr)
	if err != nil {
		return CallbackResponse{}, fmt.Errorf("get or create user: %w", err)
	}

	pair, err := s.issuePair(acc.ID)
	if err != nil {
		return CallbackResponse{}, err
	}

	code, err := s.otc.CreateCode(ctx, pair)
	if err != nil {
		return CallbackResponse{}, fmt.Errorf("create exchange code: %w", err)
	}

	redirectURL, err := env.Load("redirect_url")
	if err != nil {
		return CallbackResponse{}, fmt.Errorf("load redirect url: %w", err)
	}

	return CallbackResponse{
		User:        acc,
		RedirectURL: fmt.Sprintf("%s?otc=%s", redirectURL, code),
		OTC:         code,
	}, nil
}

// Refresh issues a new access token from a valid refresh token.
func (s *Auth) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.refreshToken.Validate(refreshToken)
	if err != nil {
		return "", serr.NewServiceError(err, http.StatusUnauthorized, "invalid refresh token")
	}

	if claims.Type != token.TypeRefresh {
		return "", serr.NewServiceError(nil, http.StatusUnauthorized, "invalid refresh token")
	}

	usr, err := s.store.GetUser(ctx, claims.UserID)
	if err != nil {
		return "", serr.NewServiceError(err, http.StatusUnauthorized, "invalid refresh token")
	}

	at, err := s.accessToken.Issue(token.UserClaims{
		UserID: usr.ID,
		Type:   token.TypeAccess,
	})
	if err != nil {
		return "", fmt.Errorf("issue access token: %w", err)
	}

	return at, nil
}

// RedeemCode trades a one-time code for the token pair it guards.
func (s *Auth) RedeemCode(ctx context.Context, code string) (TokenPair, error) {
	ts, err := s.otc.RedeemCode(ctx, code)
	if err != nil {
		return TokenPair{}, serr.NewServiceError(err, http.StatusUnauthorized, "invalid or expired code")
	}

	return ts, nil
}

// Me returns the account of the authenticated user.
func (s *Auth) Me(ctx context.Context, userID int64) (model.User, error) {
	usr, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.User{}, serr.NewServiceError(err, http.StatusNotFound, "user not found")
		}

		return model.User{}, fmt.Errorf("get user: %w", err)
	}

	return usr, nil
}

func (s *Auth) getOrCreateUser(ctx context.Context, usr oauth.User) (model.User, error) {
	acc, err := s.store.GetUserByGoogleID(ctx, usr.ID)
	if err == nil {
		return acc, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return model.User{}, fmt.Errorf("get user by google id: %w", err)
	}

	acc, err = s.provisionUser(ctx, store.InsertUserRequest{
		UID:      uuid.NewString(),
		Email:    usr.VerifiedEmail(),
		Name:     usr.Name,
		GoogleID: usr.ID,
	})
	if err != nil {
		if errors.Is(err, store.ErrExists) {
			sErr := serr.NewServiceError(err, http.StatusConflict, "email already registered")
			sErr.Env["email"] = usr.Email
			return model.User{}, sErr
		}

		return model.User{}, fmt.Errorf("provision user: %w", err)
	}

	return acc, nil
}

// provisionUser creates the account together with its Uncategorized
// section. Either both exist afterwards or neither does.
func (s *Auth) provisionUser(ctx context.Context, r store.InsertUserRequest) (model.User, error) {
	var usr model.User
	err := s.store.WithinTx(ctx, func(tx store.Store) error {
		var err error
		usr, err = tx.InsertUser(ctx, r)
		if err != nil {
			return fmt.Errorf("insert user: %w", err)
		}

		_, err = tx.InsertSection(ctx, store.InsertSectionRequest{
			UserID: usr.ID,
			Name:   model.UncategorizedSection,
			Ord:    uncategorizedOrd,
		})
		if err != nil {
			return fmt.Errorf("insert fallback section: %w", err)
		}

		return nil
	})
	if err != nil {
		return model.User{}, err
	}

	return usr, nil
}

func (s *Auth) issuePair(userID int64) (TokenPair, error) {
	at, err := s.accessToken.Issue(token.UserClaims{
		UserID: userID,
		Type:   token.TypeAccess,
	})
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}

	rt, err := s.refreshToken.Issue(token.UserClaims{
		UserID: userID,
		Type:   token.TypeRefresh,
	})
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}

	return TokenPair{
		AccessToken:  at,
		RefreshToken: rt,
	}, nil
}
