// Package provider holds concrete identity providers for the oauth
// authenticator.
package provider

import (
	"context"
	"crypto/sha1"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/bryanfernandez-eng/linkvault/internal/oauth"
)

const (
	googleScopeEmail   string = "email"
	googleScopeProfile string = "profile"
)

// Google implements OAuth login through Google's OIDC endpoint.
type Google struct {
	cfg      *oauth2.Config
	verifier *oidc.IDTokenVerifier
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type userClaims struct {
	Sub      string `json:"sub,omitempty"`
	Email    string `json:"email,omitempty"`
	Verified bool   `json:"email_verified,omitempty"`
	Name     string `json:"name,omitempty"`
	Picture  string `json:"picture,omitempty"`
}

func NewGoogle(ctx context.Context, google GoogleConfig) (*Google, error) {
	p, err := oidc.NewProvider(ctx, "https://accounts.google.com")
	if err != nil {
		return nil, fmt.Errorf("new oidc provider: %w", err)
	}

	return &Google{
		cfg: &oauth2.Config{
			ClientID:     google.ClientID,
			ClientSecret: google.ClientSecret,
			RedirectURL:  google.RedirectURL,
			Scopes:       []string{oidc.ScopeOpenID, googleScopeProfile, googleScopeEmail},
			Endpoint:     endpoints.Google,
		},
		verifier: p.Verifier(&oidc.Config{ClientID: google.ClientID}),
	}, nil
}

func (g *Google) LoginURL(state, nonce string) (string, error) {
	return g.cfg.AuthCodeURL(state, oidc.Nonce(nonce)), nil
}

func (g *Google) Exchange(ctx context.Context, code string) (oauth.User, error) {
	tok, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return oauth.User{}, err
	}

	raw, ok := tok.Extra("id_token").(string)
	if !ok {
		return oauth.User{}, fmt.Errorf("token response carries no id_token")
	}

	idTok, err := g.verifier.Verify(ctx, raw)
	if err != nil {
		return oauth.User{}, fmt.Errorf("verify id token: %w", err)
	}

	var usr userClaims
	if err := idTok.Claims(&usr); err != nil {
		return oauth.User{}, fmt.Errorf("read claims: %w", err)
	}

	return oauth.User{
		Nonce:         idTok.Nonce,
		ID:            usr.Sub,
		Email:         usr.Email,
		EmailVerified: usr.Verified,
		Picture:       usr.Picture,
		Name:          nameOrDefault(usr.Name, defaultName(usr)),
	}, nil
}

func nameOrDefault(name, def string) string {
	if name != "" {
		return name
	}
	return def
}

// defaultName derives a stable placeholder from the subject so accounts
// without a profile name still get one.
func defaultName(usr userClaims) string {
	id := sha1.New().Sum([]byte(usr.Sub))[:8]
	return fmt.Sprintf("google_%x", id)
}
