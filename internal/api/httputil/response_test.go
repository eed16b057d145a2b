package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteErrorResponse(t *testing.T) {
	tests := []struct {
		name        string
		details     error
		wantDetails string
	}{
		{name: "without details"},
		{name: "with details", details: errors.New("bucket unreachable"), wantDetails: "bucket unreachable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteErrorResponse(rec, http.StatusInternalServerError, CodeInternal, "upload failed", tt.details)

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, CodeInternal, body.Code)
			assert.Equal(t, "upload failed", body.Message)
			assert.Equal(t, tt.wantDetails, body.Details)
		})
	}
}

func TestWriteJSONResponse(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSONResponse(rec, http.StatusCreated, map[string]any{"habits": []string{}})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"habits":[]}`, rec.Body.String())
}

func TestDecodeJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"action":"verify"}`))

	var body struct {
		Action string `json:"action"`
	}
	require.NoError(t, DecodeJSON(req, &body))
	assert.Equal(t, "verify", body.Action)

	bad := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	assert.Error(t, DecodeJSON(bad, &body))
}

func TestDecodeOptionalJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{name: "object", body: `{"action":"reject"}`, want: "reject"},
		{name: "empty body", body: "", want: "keep"},
		{name: "whitespace", body: " \n", want: "keep"},
		{name: "malformed", body: `{"action":`, want: "keep", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			body := struct {
				Action string `json:"action"`
			}{Action: "keep"}

			err := DecodeOptionalJSON(req, &body)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, body.Action)
		})
	}
}
