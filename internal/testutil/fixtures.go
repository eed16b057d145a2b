package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"testing"
	"time"

	"github.com/dom/habit-proofs/internal/config"
	"github.com/dom/habit-proofs/internal/domain"
	"github.com/dom/habit-proofs/internal/service"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	displayName string
	googleID    string
}

// NewUserBuilder creates a new UserBuilder with default values
func NewUserBuilder() *UserBuilder {
	suffix := uuid.New().String()[:8]
	return &UserBuilder{
		displayName: fmt.Sprintf("testuser_%s", suffix),
		googleID:    fmt.Sprintf("google-%s", suffix),
	}
}

// WithDisplayName sets the display name
func (b *UserBuilder) WithDisplayName(name string) *UserBuilder {
	b.displayName = name
	return b
}

// WithGoogleID sets the external identity
func (b *UserBuilder) WithGoogleID(id string) *UserBuilder {
	b.googleID = id
	return b
}

// Build creates the user in the database
func (b *UserBuilder) Build(t *testing.T, db *gorm.DB) *domain.User {
	t.Helper()

	user := &domain.User{
		ID:          uuid.New(),
		GoogleID:    b.googleID,
		DisplayName: b.displayName,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user
}

// AuthResponse matches the dev-login response
type AuthResponse struct {
	User  domain.User `json:"user"`
	Token string      `json:"token"`
}

// BuildAndAuthenticate signs the user in through dev-login and returns the
// user with its session token.
func (b *UserBuilder) BuildAndAuthenticate(t *testing.T, ts *TestServer) (*domain.User, string) {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"displayName": b.displayName})

	resp, err := http.Post(ts.BaseURL()+"/auth/dev-login", "application/json", bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("failed to sign in: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status code: %d", resp.StatusCode)
	}

	var authResp AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	return &authResp.User, authResp.Token
}

// HabitBuilder creates test habits with a builder pattern
type HabitBuilder struct {
	creator     *domain.User
	title       string
	description string
	members     []*domain.User
}

// NewHabitBuilder creates a new HabitBuilder with default values
func NewHabitBuilder() *HabitBuilder {
	return &HabitBuilder{
		title:       "Morning run",
		description: "5k before work",
	}
}

// WithCreator sets the habit creator
func (b *HabitBuilder) WithCreator(user *domain.User) *HabitBuilder {
	b.creator = user
	return b
}

// WithTitle sets the title
func (b *HabitBuilder) WithTitle(title string) *HabitBuilder {
	b.title = title
	return b
}

// WithMember adds a member besides the creator
func (b *HabitBuilder) WithMember(user *domain.User) *HabitBuilder {
	b.members = append(b.members, user)
	return b
}

// Build creates the habit and its memberships in the database
func (b *HabitBuilder) Build(t *testing.T, db *gorm.DB) *domain.Habit {
	t.Helper()

	if b.creator == nil {
		b.creator = NewUserBuilder().Build(t, db)
	}

	habit := &domain.Habit{
		ID:          uuid.New(),
		Title:       b.title,
		Description: b.description,
		CreatorID:   b.creator.ID,
		CreatedAt:   time.Now(),
	}
	if err := db.Omit("Creator").Create(habit).Error; err != nil {
		t.Fatalf("failed to create habit: %v", err)
	}

	habit.Members = []uuid.UUID{b.creator.ID}
	for _, u := range append([]*domain.User{b.creator}, b.members...) {
		member := &domain.HabitMember{HabitID: habit.ID, UserID: u.ID, JoinedAt: time.Now()}
		if err := db.Create(member).Error; err != nil {
			t.Fatalf("failed to create membership: %v", err)
		}
		if u != b.creator {
			habit.Members = append(habit.Members, u.ID)
		}
	}

	return habit
}

// BuildProof stores a proof for habit submitted by user
func BuildProof(t *testing.T, db *gorm.DB, habit *domain.Habit, user *domain.User) *domain.Proof {
	t.Helper()

	proof := &domain.Proof{
		ID:         uuid.New(),
		HabitID:    habit.ID,
		UserID:     user.ID,
		MediaURL:   "https://blobs.test/proofs/" + uuid.NewString() + ".png",
		MediaType:  domain.MediaKindImage,
		VerifiedBy: datatypes.JSONSlice[uuid.UUID]{},
		RejectedBy: datatypes.JSONSlice[uuid.UUID]{},
		CreatedAt:  time.Now(),
	}
	if err := db.Omit("User", "Habit").Create(proof).Error; err != nil {
		t.Fatalf("failed to create proof: %v", err)
	}
	return proof
}

// DoJSON sends a JSON request with an optional bearer token
func DoJSON(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

// UploadProof posts a multipart proof upload with the given media field
// contents. An empty fieldName sends a form without any file.
func UploadProof(t *testing.T, url, token, fieldName, filename, contentType string, data []byte) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if fieldName != "" {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, fieldName, filename))
		header.Set("Content-Type", contentType)
		part, err := mw.CreatePart(header)
		if err != nil {
			t.Fatalf("failed to create part: %v", err)
		}
		part.Write(data)
	} else {
		mw.WriteField("note", "no file")
	}
	mw.Close()

	req, err := http.NewRequest(http.MethodPost, url, &buf)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	return resp
}

// TokenForMissingUser signs a session token with cfg's secret for a user that
// exists only in a throwaway store.
func TokenForMissingUser(t *testing.T, cfg *config.Config) string {
	t.Helper()

	repos, _ := NewMemoryRepositories()
	auth := service.NewAuthService(repos.User, repos.Membership, nil, cfg)
	result, err := auth.DevSignIn(context.Background(), "Ghost")
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return result.AccessToken
}
