package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dom/habit-proofs/internal/config"
	"github.com/dom/habit-proofs/internal/domain"
	"github.com/dom/habit-proofs/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const oauthStateTTL = 10 * time.Minute

var (
	ErrInvalidState          = errors.New("invalid or expired oauth state")
	ErrProviderNotConfigured = errors.New("identity provider is not configured")
	ErrDevLoginDisabled      = errors.New("dev login is only available in development")
	ErrDisplayNameRequired   = errors.New("display name is required")
)

// IdentityProvider performs the OAuth exchange with the external provider.
type IdentityProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*domain.Profile, error)
}

type AuthService struct {
	userRepo       repository.UserRepository
	membershipRepo repository.MembershipRepository
	provider       IdentityProvider
	states         *cache.Cache
	cfg            *config.Config
}

func NewAuthService(userRepo repository.UserRepository, membershipRepo repository.MembershipRepository, provider IdentityProvider, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo:       userRepo,
		membershipRepo: membershipRepo,
		provider:       provider,
		states:         cache.New(oauthStateTTL, 2*oauthStateTTL),
		cfg:            cfg,
	}
}

type AuthResult struct {
	User        *domain.User
	AccessToken string
}

// BeginLogin returns the provider URL the browser is redirected to.
func (s *AuthService) BeginLogin() (string, error) {
	if s.provider == nil {
		return "", ErrProviderNotConfigured
	}
	return s.provider.AuthCodeURL(s.newState()), nil
}

// CompleteLogin finishes the OAuth callback and signs the user in.
func (s *AuthService) CompleteLogin(ctx context.Context, state, code string) (*AuthResult, error) {
	if s.provider == nil {
		return nil, ErrProviderNotConfigured
	}
	if !s.consumeState(state) {
		return nil, ErrInvalidState
	}

	profile, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return nil, domain.Upstream("identity exchange", err)
	}

	return s.SignIn(ctx, profile)
}

// SignIn finds or creates the local user for a provider profile and issues
// a session token.
func (s *AuthService) SignIn(ctx context.Context, profile *domain.Profile) (*AuthResult, error) {
	if profile == nil || profile.ExternalID == "" {
		return nil, domain.ErrUnauthenticated
	}

	user, err := s.userRepo.GetByGoogleID(ctx, profile.ExternalID)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		user = &domain.User{
			ID:          uuid.New(),
			GoogleID:    profile.ExternalID,
			DisplayName: profile.DisplayName,
			Email:       profile.Email,
			Avatar:      profile.Avatar,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, domain.Upstream("create user", err)
		}
	case err != nil:
		return nil, domain.Upstream("find user", err)
	default:
		if refreshProfile(user, profile) {
			if err := s.userRepo.Update(ctx, user); err != nil {
				return nil, domain.Upstream("update user", err)
			}
		}
	}

	token, err := s.generateAccessToken(user)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, AccessToken: token}, nil
}

// DevSignIn signs in a synthetic account keyed by display name. It is only
// available when running in development.
func (s *AuthService) DevSignIn(ctx context.Context, displayName string) (*AuthResult, error) {
	if !s.cfg.IsDevelopment() {
		return nil, ErrDevLoginDisabled
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, ErrDisplayNameRequired
	}

	return s.SignIn(ctx, &domain.Profile{
		ExternalID:  "dev:" + strings.ToLower(displayName),
		DisplayName: displayName,
	})
}

func (s *AuthService) generateAccessToken(user *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":  user.ID.String(),
		"name": user.DisplayName,
		"exp":  time.Now().Add(time.Duration(s.cfg.JWTExpirationHours) * time.Hour).Unix(),
		"iat":  time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AuthService) ValidateToken(tokenString string) (*jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.cfg.JWTSecret), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return &claims, nil
	}

	return nil, errors.New("invalid token")
}

// UserIDFromToken validates the token and returns its subject.
func (s *AuthService) UserIDFromToken(tokenString string) (uuid.UUID, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return uuid.Nil, err
	}

	sub, ok := (*claims)["sub"].(string)
	if !ok {
		return uuid.Nil, errors.New("missing 'sub' claim in token")
	}

	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user id in token: %w", err)
	}
	return userID, nil
}

// Authenticate resolves a session token to a user that still exists. Token
// and lookup misses match domain.ErrUnauthenticated.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (uuid.UUID, error) {
	userID, err := s.UserIDFromToken(tokenString)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return uuid.Nil, fmt.Errorf("%w: user %s no longer exists", domain.ErrUnauthenticated, userID)
		}
		return uuid.Nil, domain.Upstream("get user", err)
	}
	return userID, nil
}

// CurrentUser loads the user with their joined habits.
func (s *AuthService) CurrentUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("get user", err)
	}

	joined, err := s.membershipRepo.HabitIDs(ctx, id)
	if err != nil {
		return nil, storeError("list joined habits", err)
	}
	user.JoinedHabits = nonNil(joined)

	return user, nil
}

func (s *AuthService) newState() string {
	buf := make([]byte, 16)
	rand.Read(buf)
	state := hex.EncodeToString(buf)
	s.states.SetDefault(state, struct{}{})
	return state
}

func (s *AuthService) consumeState(state string) bool {
	if state == "" {
		return false
	}
	if _, found := s.states.Get(state); !found {
		return false
	}
	s.states.Delete(state)
	return true
}

func refreshProfile(user *domain.User, profile *domain.Profile) bool {
	changed := false
	if profile.DisplayName != "" && profile.DisplayName != user.DisplayName {
		user.DisplayName = profile.DisplayName
		changed = true
	}
	if profile.Email != "" && profile.Email != user.Email {
		user.Email = profile.Email
		changed = true
	}
	if profile.Avatar != "" && profile.Avatar != user.Avatar {
		user.Avatar = profile.Avatar
		changed = true
	}
	return changed
}
