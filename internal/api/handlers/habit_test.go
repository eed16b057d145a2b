package handlers_test

import (
	"net/http"
	"testing"

	"github.com/dom/habit-proofs/internal/api/handlers"
	"github.com/dom/habit-proofs/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createHabit(t *testing.T, ts *testutil.TestServer, token, title string) *handlers.HabitResponse {
	t.Helper()

	resp := testutil.DoJSON(t, http.MethodPost, ts.APIURL("/habits"), token, map[string]string{
		"title":       title,
		"description": "daily",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body handlers.HabitResponse
	testutil.AssertJSONResponse(t, resp, &body)
	return &body
}

func TestHabitHandler_Create(t *testing.T) {
	ts := testutil.NewTestServer(t)
	user, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	tests := []struct {
		name           string
		token          string
		body           map[string]string
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "successful creation",
			token:          token,
			body:           map[string]string{"title": "Meditate", "description": "10 minutes"},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing title",
			token:          token,
			body:           map[string]string{"description": "no title"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "BAD_REQUEST",
		},
		{
			name:           "unauthenticated",
			body:           map[string]string{"title": "Meditate"},
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "UNAUTHENTICATED",
		},
		{
			name:           "user no longer exists",
			token:          testutil.TokenForMissingUser(t, ts.Config),
			body:           map[string]string{"title": "Meditate"},
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "UNAUTHENTICATED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := testutil.DoJSON(t, http.MethodPost, ts.APIURL("/habits"), tt.token, tt.body)
			defer resp.Body.Close()

			if tt.expectedCode != "" {
				testutil.AssertErrorResponse(t, resp, tt.expectedStatus, tt.expectedCode)
				return
			}

			testutil.AssertStatusCode(t, resp, tt.expectedStatus)
			var body handlers.HabitResponse
			testutil.AssertJSONResponse(t, resp, &body)
			assert.Equal(t, "Meditate", body.Habit.Title)
			assert.Equal(t, user.ID, body.Habit.CreatorID)
			assert.Equal(t, []uuid.UUID{user.ID}, body.Habit.Members)
			assert.Zero(t, body.Habit.Streak)
		})
	}
}

func TestHabitHandler_ListAndGet(t *testing.T) {
	ts := testutil.NewTestServer(t)
	creator, token := testutil.NewUserBuilder().WithDisplayName("Dana").BuildAndAuthenticate(t, ts)

	t.Run("empty list", func(t *testing.T) {
		resp := testutil.DoJSON(t, http.MethodGet, ts.APIURL("/habits"), "", nil)
		defer resp.Body.Close()

		var body handlers.HabitListResponse
		testutil.AssertJSONResponse(t, resp, &body)
		assert.NotNil(t, body.Habits)
		assert.Empty(t, body.Habits)
	})

	created := createHabit(t, ts, token, "Stretch")

	t.Run("list includes creator summary", func(t *testing.T) {
		resp := testutil.DoJSON(t, http.MethodGet, ts.APIURL("/habits"), "", nil)
		defer resp.Body.Close()

		var body handlers.HabitListResponse
		testutil.AssertJSONResponse(t, resp, &body)
		require.Len(t, body.Habits, 1)
		require.NotNil(t, body.Habits[0].Creator)
		assert.Equal(t, "Dana", body.Habits[0].Creator.DisplayName)
		testutil.AssertContainsUser(t, body.Habits[0].Members, creator.ID)
	})

	t.Run("get by id", func(t *testing.T) {
		resp := testutil.DoJSON(t, http.MethodGet, ts.APIURL("/habits/"+created.Habit.ID.String()), "", nil)
		defer resp.Body.Close()

		var body handlers.HabitResponse
		testutil.AssertJSONResponse(t, resp, &body)
		assert.Equal(t, created.Habit.ID, body.Habit.ID)
	})

	t.Run("unknown id", func(t *testing.T) {
		resp := testutil.DoJSON(t, http.MethodGet, ts.APIURL("/habits/"+uuid.NewString()), "", nil)
		defer resp.Body.Close()
		testutil.AssertErrorResponse(t, resp, http.StatusNotFound, "NOT_FOUND")
	})

	t.Run("malformed id", func(t *testing.T) {
		resp := testutil.DoJSON(t, http.MethodGet, ts.APIURL("/habits/not-a-uuid"), "", nil)
		defer resp.Body.Close()
		testutil.AssertErrorResponse(t, resp, http.StatusNotFound, "NOT_FOUND")
	})
}

func TestHabitHandler_Join(t *testing.T) {
	ts := testutil.NewTestServer(t)
	_, ownerToken := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	joiner, joinerToken := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	habit := createHabit(t, ts, ownerToken, "Journal").Habit
	joinURL := ts.APIURL("/habits/" + habit.ID.String() + "/join")

	for i := 0; i < 2; i++ {
		resp := testutil.DoJSON(t, http.MethodPost, joinURL, joinerToken, nil)
		testutil.AssertStatusCode(t, resp, http.StatusOK)

		var body handlers.HabitResponse
		testutil.AssertJSONResponse(t, resp, &body)
		resp.Body.Close()

		assert.Len(t, body.Habit.Members, 2)
		testutil.AssertContainsUser(t, body.Habit.Members, joiner.ID)
	}
	assert.Equal(t, 1, ts.Store.MembershipCount(habit.ID, joiner.ID))

	t.Run("unknown habit", func(t *testing.T) {
		resp := testutil.DoJSON(t, http.MethodPost, ts.APIURL("/habits/"+uuid.NewString()+"/join"), joinerToken, nil)
		defer resp.Body.Close()
		testutil.AssertErrorResponse(t, resp, http.StatusNotFound, "NOT_FOUND")
	})

	t.Run("unauthenticated", func(t *testing.T) {
		resp := testutil.DoJSON(t, http.MethodPost, joinURL, "", nil)
		defer resp.Body.Close()
		testutil.AssertErrorResponse(t, resp, http.StatusUnauthorized, "UNAUTHENTICATED")
	})
}
