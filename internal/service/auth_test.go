package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/bryanfernandez-eng/linkvault/internal/model"
	"github.com/bryanfernandez-eng/linkvault/internal/oauth"
	"github.com/bryanfernandez-eng/linkvault/internal/pkg/serr"
	"github.com/bryanfernandez-eng/linkvault/internal/store"
	"github.com/bryanfernandez-eng/linkvault/internal/token"
)

// typedIssuer labels tokens with the claim type so tests can tell the
// access and refresh legs apart.
func typedIssuer() *mockIssuer {
	return &mockIssuer{
		issue: func(claims token.UserClaims) (string, error) {
			return fmt.Sprintf("%s:%d", claims.Type, claims.UserID), nil
		},
	}
}

func newAuthService(st store.Store, opts ...AuthOption) *Auth {
	base := []AuthOption{
		WithAuthenticator(&mockAuthenticator{}),
		WithStore(st),
		WithAccessToken(typedIssuer()),
		WithRefreshToken(typedIssuer()),
		WithOTC(&mockOTC{}),
	}
	return NewAuth(append(base, opts...)...)
}

func assertStatus(t *testing.T, err error, status int) {
	t.Helper()
	var sErr *serr.ServiceError
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, status, sErr.StatusCode)
}

func TestRegister(t *testing.T) {
	var inserted store.InsertUserRequest
	var section store.InsertSectionRequest
	st := &mockStore{
		insertUser: func(ctx context.Context, r store.InsertUserRequest) (model.User, error) {
			inserted = r
			return model.User{ID: 7, UID: r.UID, Email: r.Email}, nil
		},
		insertSection: func(ctx context.Context, r store.InsertSectionRequest) (model.Section, error) {
			section = r
			return model.Section{ID: 1, UserID: r.UserID, Name: r.Name, Ord: r.Ord}, nil
		},
	}

	auth := newAuthService(st)
	pair, err := auth.Register(context.Background(), RegisterRequest{
		Email:    "new@example.com",
		Name:     "New User",
		Password: "correct horse",
	})

	require.NoError(t, err)
	assert.Equal(t, "access:7", pair.AccessToken)
	assert.Equal(t, "refresh:7", pair.RefreshToken)

	assert.Equal(t, "new@example.com", inserted.Email)
	assert.NotEmpty(t, inserted.UID)
	assert.Empty(t, inserted.GoogleID)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(inserted.PasswordHash), []byte("correct horse")))

	assert.Equal(t, int64(7), section.UserID)
	assert.Equal(t, model.UncategorizedSection, section.Name)
	assert.Equal(t, 999, section.Ord)
}

func TestRegister_InvalidEmail(t *testing.T) {
	auth := newAuthService(&mockStore{})

	_, err := auth.Register(context.Background(), RegisterRequest{
		Email:    "not-an-email",
		Password: "correct horse",
	})

	assertStatus(t, err, http.StatusBadRequest)
}

func TestRegister_ShortPassword(t *testing.T) {
	auth := newAuthService(&mockStore{})

	_, err := auth.Register(context.Background(), RegisterRequest{
		Email:    "new@example.com",
		Password: "short",
	})

	assertStatus(t, err, http.StatusBadRequest)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	st := &mockStore{
		insertUser: func(ctx context.Context, r store.InsertUserRequest) (model.User, error) {
			return model.User{}, store.ErrExists
		},
	}

	auth := newAuthService(st)
	_, err := auth.Register(context.Background(), RegisterRequest{
		Email:    "taken@example.com",
		Password: "correct horse",
	})

	assertStatus(t, err, http.StatusConflict)
}

func passwordUser(t *testing.T, id int64, password string) model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return model.User{ID: id, Email: "user@example.com", PasswordHash: string(hash)}
}

func TestLogin(t *testing.T) {
	usr := passwordUser(t, 7, "correct horse")
	st := &mockStore{
		getUserByEmail: func(ctx context.Context, email string) (model.User, error) {
			require.Equal(t, "user@example.com", email)
			return usr, nil
		},
	}

	auth := newAuthService(st)
	pair, err := auth.Login(context.Background(), PasswordLoginRequest{
		Email:    "user@example.com",
		Password: "correct horse",
	})

	require.NoError(t, err)
	assert.Equal(t, "access:7", pair.AccessToken)
	assert.Equal(t, "refresh:7", pair.RefreshToken)
}

func TestLogin_UnknownEmail(t *testing.T) {
	st := &mockStore{
		getUserByEmail: func(ctx context.Context, email string) (model.User, error) {
			return model.User{}, store.ErrNotFound
		},
	}

	auth := newAuthService(st)
	_, err := auth.Login(context.Background(), PasswordLoginRequest{
		Email:    "nobody@example.com",
		Password: "correct horse",
	})

	assertStatus(t, err, http.StatusUnauthorized)
}

func TestLogin_WrongPassword(t *testing.T) {
	usr := passwordUser(t, 7, "correct horse")
	st := &mockStore{
		getUserByEmail: func(ctx context.Context, email string) (model.User, error) {
			return usr, nil
		},
	}

	auth := newAuthService(st)
	_, err := auth.Login(context.Background(), PasswordLoginRequest{
		Email:    "user@example.com",
		Password: "wrong password",
	})

	assertStatus(t, err, http.StatusUnauthorized)
}

func TestLogin_OAuthOnlyAccount(t *testing.T) {
	st := &mockStore{
		getUserByEmail: func(ctx context.Context, email string) (model.User, error) {
			return model.User{ID: 7, GoogleID: "google-sub"}, nil
		},
	}

	auth := newAuthService(st)
	_, err := auth.Login(context.Background(), PasswordLoginRequest{
		Email:    "user@example.com",
		Password: "whatever pass",
	})

	assertStatus(t, err, http.StatusUnauthorized)
}

func TestLoginURL(t *testing.T) {
	auth := newAuthService(&mockStore{}, WithAuthenticator(&mockAuthenticator{
		loginURL: func(env oauth.Env, provider string) (string, error) {
			require.Equal(t, "google", provider)
			return "https://accounts.example.com/login", nil
		},
	}))

	env := newMemEnv()
	url, err := auth.LoginURL(env, LoginURLRequest{
		Provider:    "google",
		RedirectURL: "https://app.example.com/auth",
	})

	require.NoError(t, err)
	assert.Equal(t, "https://accounts.example.com/login", url)
	assert.Equal(t, "https://app.example.com/auth", env.store["redirect_url"])
}

func TestLoginURL_ProviderNotFound(t *testing.T) {
	auth := newAuthService(&mockStore{}, WithAuthenticator(&mockAuthenticator{
		loginURL: func(env oauth.Env, provider string) (string, error) {
			return "", oauth.ErrProviderNotFound
		},
	}))

	_, err := auth.LoginURL(newMemEnv(), LoginURLRequest{Provider: "unknown"})

	assertStatus(t, err, http.StatusNotFound)
}

func TestCallback_NewUser(t *testing.T) {
	var inserted store.InsertUserRequest
	var section store.InsertSectionRequest
	st := &mockStore{
		getUserByGoogleID: func(ctx context.Context, googleID string) (model.User, error) {
			return model.User{}, store.ErrNotFound
		},
		insertUser: func(ctx context.Context, r store.InsertUserRequest) (model.User, error) {
			inserted = r
			return model.User{ID: 9, UID: r.UID, Email: r.Email, GoogleID: r.GoogleID}, nil
		},
		insertSection: func(ctx context.Context, r store.InsertSectionRequest) (model.Section, error) {
			section = r
			return model.Section{ID: 1, UserID: r.UserID, Name: r.Name}, nil
		},
	}

	var stored TokenPair
	auth := newAuthService(st,
		WithAuthenticator(&mockAuthenticator{
			exchange: func(ctx context.Context, env oauth.Env, provider, code, state string) (oauth.User, error) {
				return oauth.User{
					ID:            "google-sub",
					Email:         "user@example.com",
					EmailVerified: true,
					Name:          "Test User",
				}, nil
			},
		}),
		WithOTC(&mockOTC{
			create: func(ctx context.Context, ts TokenPair) (string, error) {
				stored = ts
				return "one-time-code", nil
			},
		}),
	)

	env := newMemEnv()
	require.NoError(t, env.Save("redirect_url", "https://app.example.com/auth"))

	resp, err := auth.Callback(context.Background(), env, CallbackRequest{
		Provider: "google",
		Code:     "auth-code",
		State:    "state",
	})

	require.NoError(t, err)
	assert.Equal(t, "one-time-code", resp.OTC)
	assert.Equal(t, "https://app.example.com/auth?otc=one-time-code", resp.RedirectURL)
	assert.Equal(t, int64(9), resp.User.ID)

	assert.Equal(t, "google-sub", inserted.GoogleID)
	assert.Equal(t, "user@example.com", inserted.Email)
	assert.Empty(t, inserted.PasswordHash)
	assert.Equal(t, model.UncategorizedSection, section.Name)

	assert.Equal(t, "access:9", stored.AccessToken)
	assert.Equal(t, "refresh:9", stored.RefreshToken)
}

func TestCallback_ExistingUser(t *testing.T) {
	st := &mockStore{
		getUserByGoogleID: func(ctx context.Context, googleID string) (model.User, error) {
			require.Equal(t, "google-sub", googleID)
			return model.User{ID: 9, GoogleID: googleID}, nil
		},
		insertUser: func(ctx context.Context, r store.InsertUserRequest) (model.User, error) {
			t.Fatal("existing user must not be re-provisioned")
			return model.User{}, nil
		},
	}

	auth := newAuthService(st, WithAuthenticator(&mockAuthenticator{
		exchange: func(ctx context.Context, env oauth.Env, provider, code, state string) (oauth.User, error) {
			return oauth.User{ID: "google-sub", EmailVerified: true}, nil
		},
	}))

	env := newMemEnv()
	require.NoError(t, env.Save("redirect_url", "https://app.example.com/auth"))

	resp, err := auth.Callback(context.Background(), env, CallbackRequest{Provider: "google"})

	require.NoError(t, err)
	assert.Equal(t, int64(9), resp.User.ID)
}

func TestCallback_AuthFailed(t *testing.T) {
	auth := newAuthService(&mockStore{}, WithAuthenticator(&mockAuthenticator{
		exchange: func(ctx context.Context, env oauth.Env, provider, code, state string) (oauth.User, error) {
			return oauth.User{}, oauth.ErrAuthFailed
		},
	}))

	_, err := auth.Callback(context.Background(), newMemEnv(), CallbackRequest{Provider: "google"})

	assertStatus(t, err, http.StatusUnauthorized)
}

func TestRefresh(t *testing.T) {
	st := &mockStore{
		getUser: func(ctx context.Context, id int64) (model.User, error) {
			require.Equal(t, int64(7), id)
			return model.User{ID: 7}, nil
		},
	}

	auth := newAuthService(st, WithRefreshToken(&mockIssuer{
		validate: func(tokenStr string) (token.UserClaims, error) {
			require.Equal(t, "refresh:7", tokenStr)
			return token.UserClaims{UserID: 7, Type: token.TypeRefresh}, nil
		},
	}))

	at, err := auth.Refresh(context.Background(), "refresh:7")

	require.NoError(t, err)
	assert.Equal(t, "access:7", at)
}

func TestRefresh_AccessTokenRejected(t *testing.T) {
	auth := newAuthService(&mockStore{}, WithRefreshToken(&mockIssuer{
		validate: func(tokenStr string) (token.UserClaims, error) {
			return token.UserClaims{UserID: 7, Type: token.TypeAccess}, nil
		},
	}))

	_, err := auth.Refresh(context.Background(), "access:7")

	assertStatus(t, err, http.StatusUnauthorized)
}

func TestRefresh_InvalidToken(t *testing.T) {
	auth := newAuthService(&mockStore{}, WithRefreshToken(&mockIssuer{
		validate: func(tokenStr string) (token.UserClaims, error) {
			return token.UserClaims{}, errors.New("bad signature")
		},
	}))

	_, err := auth.Refresh(context.Background(), "garbage")

	assertStatus(t, err, http.StatusUnauthorized)
}

func TestRefresh_UnknownUser(t *testing.T) {
	st := &mockStore{
		getUser: func(ctx context.Context, id int64) (model.User, error) {
			return model.User{}, store.ErrNotFound
		},
	}

	auth := newAuthService(st, WithRefreshToken(&mockIssuer{
		validate: func(tokenStr string) (token.UserClaims, error) {
			return token.UserClaims{UserID: 404, Type: token.TypeRefresh}, nil
		},
	}))

	_, err := auth.Refresh(context.Background(), "refresh:404")

	assertStatus(t, err, http.StatusUnauthorized)
}

func TestRedeemCode(t *testing.T) {
	auth := newAuthService(&mockStore{}, WithOTC(&mockOTC{
		redeem: func(ctx context.Context, code string) (TokenPair, error) {
			require.Equal(t, "one-time-code", code)
			return TokenPair{AccessToken: "at", RefreshToken: "rt"}, nil
		},
	}))

	pair, err := auth.RedeemCode(context.Background(), "one-time-code")

	require.NoError(t, err)
	assert.Equal(t, "at", pair.AccessToken)
	assert.Equal(t, "rt", pair.RefreshToken)
}

func TestRedeemCode_Invalid(t *testing.T) {
	auth := newAuthService(&mockStore{}, WithOTC(&mockOTC{
		redeem: func(ctx context.Context, code string) (TokenPair, error) {
			return TokenPair{}, errors.New("code not found")
		},
	}))

	_, err := auth.RedeemCode(context.Background(), "expired")

	assertStatus(t, err, http.StatusUnauthorized)
}

func TestMe(t *testing.T) {
	st := &mockStore{
		getUser: func(ctx context.Context, id int64) (model.User, error) {
			return model.User{ID: id, Email: "user@example.com"}, nil
		},
	}

	auth := newAuthService(st)
	usr, err := auth.Me(context.Background(), 7)

	require.NoError(t, err)
	assert.Equal(t, "user@example.com", usr.Email)
}

func TestMe_NotFound(t *testing.T) {
	st := &mockStore{
		getUser: func(ctx context.Context, id int64) (model.User, error) {
			return model.User{}, store.ErrNotFound
		},
	}

	auth := newAuthService(st)
	_, err := auth.Me(context.Background(), 404)

	assertStatus(t, err, http.StatusNotFound)
}
