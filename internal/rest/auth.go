// Package rest exposes the application services over HTTP. Each API owns
// its mux and converts between JSON wire types and service requests.
package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bryanfernandez-eng/linkvault/internal/oauth"
	"github.com/bryanfernandez-eng/linkvault/internal/pkg/httpx"
	"github.com/bryanfernandez-eng/linkvault/internal/service"
)

type authService interface {
	Register(ctx context.Context, r service.RegisterRequest) (service.TokenPair, error)
	Login(ctx context.Context, r service.PasswordLoginRequest) (service.TokenPair, error)
	LoginURL(env oauth.Env, r service.LoginURLRequest) (string, error)
	Callback(ctx context.Context, env oauth.Env, r service.CallbackRequest) (service.CallbackResponse, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	RedeemCode(ctx context.Context, code string) (service.TokenPair, error)
}

type AuthAPI struct {
	srv authService
	mux *http.ServeMux
}

func NewAuthAPI(srv authService) *AuthAPI {
	api := &AuthAPI{
		srv: srv,
		mux: http.NewServeMux(),
	}
	api.mount()
	return api
}

func (a *AuthAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

func (a *AuthAPI) mount() {
	a.mux.HandleFunc("POST /register", a.handleRegister)
	a.mux.HandleFunc("POST /login", a.handleLogin)
	a.mux.HandleFunc("GET /{provider}/login", a.handleOAuthLogin)
	a.mux.HandleFunc("GET /{provider}/callback", a.handleOAuthCallback)
	a.mux.HandleFunc("POST /exchange", a.handleExchange)
	a.mux.HandleFunc("POST /refresh", a.handleRefresh)
}

type tokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func toTokenPairResponse(ts service.TokenPair) tokenPairResponse {
	return tokenPairResponse{
		AccessToken:  ts.AccessToken,
		RefreshToken: ts.RefreshToken,
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (a *AuthAPI) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("read request json: %w", err))
		return
	}

	pair, err := a.srv.Register(r.Context(), service.RegisterRequest{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusCreated, toTokenPairResponse(pair)); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("write response json: %w", err))
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *AuthAPI) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("read request json: %w", err))
		return
	}

	pair, err := a.srv.Login(r.Context(), service.PasswordLoginRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusOK, toTokenPairResponse(pair)); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("write response json: %w", err))
	}
}

func (a *AuthAPI) handleOAuthLogin(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")
	url, err := a.srv.LoginURL(oauth.NewHTTPEnv(provider, w, r), service.LoginURLRequest{
		Provider:    provider,
		RedirectURL: r.URL.Query().Get("redirect_url"),
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	http.Redirect(w, r, url, http.StatusFound)
}

func (a *AuthAPI) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")
	resp, err := a.srv.Callback(r.Context(), oauth.NewHTTPEnv(provider, w, r), service.CallbackRequest{
		Provider: provider,
		Code:     r.URL.Query().Get("code"),
		State:    r.URL.Query().Get("state"),
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	http.Redirect(w, r, resp.RedirectURL, http.StatusFound)
}

type exchangeRequest struct {
	Code string `json:"code"`
}

func (a *AuthAPI) handleExchange(w http.ResponseWriter, r *http.Request) {
	var req exchangeRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("read request json: %w", err))
		return
	}

	pair, err := a.srv.RedeemCode(r.Context(), req.Code)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusOK, toTokenPairResponse(pair)); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("write response json: %w", err))
	}
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken string `json:"access_token"`
}

func (a *AuthAPI) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("read request json: %w", err))
		return
	}

	accessToken, err := a.srv.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusOK, refreshResponse{AccessToken: accessToken}); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("write response json: %w", err))
	}
}
