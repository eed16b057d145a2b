package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

// APIClient handles HTTP communication with the backend
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates a new API client
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Response types matching backend

type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

type AuthResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

type Habit struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	CreatorID   string   `json:"creatorId"`
	Members     []string `json:"members"`
}

type Proof struct {
	ID         string   `json:"id"`
	HabitID    string   `json:"habitId"`
	UserID     string   `json:"userId"`
	MediaURL   string   `json:"mediaUrl"`
	MediaType  string   `json:"mediaType"`
	VerifiedBy []string `json:"verifiedBy"`
	RejectedBy []string `json:"rejectedBy"`
}

// SignIn signs in through the development login endpoint
func (c *APIClient) SignIn(displayName string) (*User, string, error) {
	resp, err := c.post("/auth/dev-login", map[string]string{"displayName": displayName}, "")
	if err != nil {
		return nil, "", fmt.Errorf("sign in request failed: %w", err)
	}
	defer resp.Body.Close()

	var result AuthResponse
	if err := decode(resp, &result); err != nil {
		return nil, "", fmt.Errorf("sign in: %w", err)
	}

	return &result.User, result.Token, nil
}

func (c *APIClient) CreateHabit(token, title, description string) (*Habit, error) {
	resp, err := c.post("/api/habits", map[string]string{
		"title":       title,
		"description": description,
	}, token)
	if err != nil {
		return nil, fmt.Errorf("create habit request failed: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Habit Habit `json:"habit"`
	}
	if err := decode(resp, &result); err != nil {
		return nil, fmt.Errorf("create habit: %w", err)
	}
	return &result.Habit, nil
}

func (c *APIClient) JoinHabit(token, habitID string) (*Habit, error) {
	resp, err := c.post("/api/habits/"+habitID+"/join", nil, token)
	if err != nil {
		return nil, fmt.Errorf("join request failed: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Habit Habit `json:"habit"`
	}
	if err := decode(resp, &result); err != nil {
		return nil, fmt.Errorf("join habit: %w", err)
	}
	return &result.Habit, nil
}

// SubmitProof uploads data as the habit's proof media
func (c *APIClient) SubmitProof(token, habitID, filename, contentType string, data []byte) (*Proof, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="media"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/api/habits/"+habitID+"/proof", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Proof Proof `json:"proof"`
	}
	if err := decode(resp, &result); err != nil {
		return nil, fmt.Errorf("submit proof: %w", err)
	}
	return &result.Proof, nil
}

func (c *APIClient) Vote(token, proofID, action string) (*Proof, error) {
	resp, err := c.post("/api/proofs/"+proofID+"/verify", map[string]string{"action": action}, token)
	if err != nil {
		return nil, fmt.Errorf("vote request failed: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Proof Proof `json:"proof"`
	}
	if err := decode(resp, &result); err != nil {
		return nil, fmt.Errorf("vote: %w", err)
	}
	return &result.Proof, nil
}

// WebSocketURL returns the realtime endpoint for token
func (c *APIClient) WebSocketURL(token string) string {
	return "ws" + strings.TrimPrefix(c.baseURL, "http") + "/ws?token=" + token
}

// HTTP helpers

func decode(resp *http.Response, v interface{}) error {
	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(bodyBytes))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *APIClient) post(path string, body interface{}, token string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest("POST", c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.httpClient.Do(req)
}
