package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dom/habit-proofs/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestNewGoogleProvider_RequiresCredentials(t *testing.T) {
	assert.Nil(t, NewGoogleProvider(&config.Config{}))
	assert.Nil(t, NewGoogleProvider(&config.Config{GoogleClientID: "id"}))

	p := NewGoogleProvider(&config.Config{
		GoogleClientID:     "id",
		GoogleClientSecret: "secret",
		GoogleCallbackURL:  "http://localhost:8080/auth/google/callback",
	})
	require.NotNil(t, p)
	assert.Contains(t, p.AuthCodeURL("xyz"), "state=xyz")
}

func TestGoogleProvider_Exchange(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.Form.Get("code") != "good" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "at-123",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(googleUserInfo{
			Sub:     "10987",
			Name:    "Frank",
			Email:   "frank@example.com",
			Picture: "https://img.example/frank.png",
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := &GoogleProvider{
		oauth: &oauth2.Config{
			ClientID:     "id",
			ClientSecret: "secret",
			Endpoint: oauth2.Endpoint{
				AuthURL:  srv.URL + "/auth",
				TokenURL: srv.URL + "/token",
			},
		},
		userInfoURL: srv.URL + "/userinfo",
	}

	profile, err := p.Exchange(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "10987", profile.ExternalID)
	assert.Equal(t, "Frank", profile.DisplayName)
	assert.Equal(t, "frank@example.com", profile.Email)
	assert.Equal(t, "https://img.example/frank.png", profile.Avatar)

	_, err = p.Exchange(context.Background(), "bad")
	assert.Error(t, err)
}
