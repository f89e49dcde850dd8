package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lmarban/tasklane-be/internal/api"
	"github.com/lmarban/tasklane-be/internal/auth"
	"github.com/lmarban/tasklane-be/internal/database"
	"github.com/lmarban/tasklane-be/internal/models"
	"github.com/lmarban/tasklane-be/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRouter wires the full stack against a fresh in-memory database.
func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()

	db, err := database.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })

	manager := auth.NewManager("test-secret", time.Hour, 24*time.Hour)
	userService := services.NewUserService(db)
	tokenService := services.NewTokenService(db, manager, userService)
	activityService := services.NewActivityService(db, nil)
	taskService := services.NewTaskService(db, activityService)

	return api.NewRouter(manager, nil, userService, tokenService, taskService, activityService, "http://localhost:3000")
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

// registerAndLogin creates an account and returns its access token and id.
func registerAndLogin(t *testing.T, router http.Handler, username string) (token, userID string) {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/api/auth/register/", "", map[string]string{
		"username":         username,
		"email":            username + "@example.com",
		"password":         "pass12345",
		"password_confirm": "pass12345",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var user struct {
		ID string `json:"id"`
	}
	decode(t, rec, &user)

	rec = doJSON(t, router, http.MethodPost, "/api/auth/token/", "", map[string]string{
		"username": username,
		"password": "pass12345",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var pair struct {
		Access string `json:"access"`
	}
	decode(t, rec, &pair)
	require.NotEmpty(t, pair.Access)

	return pair.Access, user.ID
}

func TestRegisterEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/auth/register/", "", map[string]string{
		"username":         "tester",
		"email":            "tester@example.com",
		"password":         "pass12345",
		"password_confirm": "pass12345",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]interface{}
	decode(t, rec, &body)
	assert.NotEmpty(t, body["id"])
	assert.Equal(t, "tester", body["username"])
	assert.Equal(t, "tester@example.com", body["email"])
	assert.NotContains(t, body, "password")
	assert.NotContains(t, body, "password_hash")
}

func TestRegisterPasswordMismatch(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/auth/register/", "", map[string]string{
		"username":         "tester",
		"email":            "tester@example.com",
		"password":         "abcdefgh",
		"password_confirm": "zyxwvuts",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string][]string
	decode(t, rec, &body)
	assert.Contains(t, body, "password")

	// No user was persisted: logging in fails.
	rec = doJSON(t, router, http.MethodPost, "/api/auth/token/", "", map[string]string{
		"username": "tester",
		"password": "abcdefgh",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	router := newTestRouter(t)
	registerAndLogin(t, router, "first")

	rec := doJSON(t, router, http.MethodPost, "/api/auth/register/", "", map[string]string{
		"username":         "second",
		"email":            "first@example.com",
		"password":         "pass12345",
		"password_confirm": "pass12345",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string][]string
	decode(t, rec, &body)
	assert.Contains(t, body, "email")
}

func TestTokenEndpointRejectsBadCredentials(t *testing.T) {
	router := newTestRouter(t)
	registerAndLogin(t, router, "tester")

	rec := doJSON(t, router, http.MethodPost, "/api/auth/token/", "", map[string]string{
		"username": "tester",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTokenRefreshEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/auth/register/", "", map[string]string{
		"username":         "tester",
		"email":            "tester@example.com",
		"password":         "pass12345",
		"password_confirm": "pass12345",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/auth/token/", "", map[string]string{
		"username": "tester",
		"password": "pass12345",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var pair struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	decode(t, rec, &pair)
	require.NotEmpty(t, pair.Refresh)

	t.Run("valid refresh", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/auth/token/refresh/", "", map[string]string{
			"refresh": pair.Refresh,
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Access string `json:"access"`
		}
		decode(t, rec, &body)
		assert.NotEmpty(t, body.Access)
	})

	t.Run("access token is not accepted as refresh", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/auth/token/refresh/", "", map[string]string{
			"refresh": pair.Access,
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage refresh", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/auth/token/refresh/", "", map[string]string{
			"refresh": "not-a-token",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestTaskRoutesRequireAuth(t *testing.T) {
	router := newTestRouter(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/tasks/"},
		{http.MethodPost, "/api/tasks/"},
		{http.MethodGet, "/api/tasks/some-id/"},
		{http.MethodPatch, "/api/tasks/some-id/"},
		{http.MethodPut, "/api/tasks/some-id/"},
		{http.MethodDelete, "/api/tasks/some-id/"},
		{http.MethodGet, "/api/activity/"},
	}

	for _, p := range paths {
		rec := doJSON(t, router, p.method, p.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", p.method, p.path)
	}
}

// The register → token → create → list flow, end to end.
func TestTaskScenario(t *testing.T) {
	router := newTestRouter(t)
	token, userID := registerAndLogin(t, router, "tester")

	rec := doJSON(t, router, http.MethodGet, "/api/tasks/", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/api/tasks/", token, map[string]string{
		"title": "Test task",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created models.Task
	decode(t, rec, &created)
	assert.Equal(t, "Test task", created.Title)
	assert.Equal(t, userID, created.OwnerID)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	rec = doJSON(t, router, http.MethodGet, "/api/tasks/", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var tasks []models.Task
	decode(t, rec, &tasks)
	require.Len(t, tasks, 1)
	assert.Equal(t, created.ID, tasks[0].ID)
}

func TestCreateTaskIgnoresServerAssignedFields(t *testing.T) {
	router := newTestRouter(t)
	token, userID := registerAndLogin(t, router, "tester")

	rec := doJSON(t, router, http.MethodPost, "/api/tasks/", token, map[string]interface{}{
		"title":      "sneaky",
		"id":         "client-chosen-id",
		"owner":      "someone-else",
		"created_at": "1999-01-01T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Task
	decode(t, rec, &created)
	assert.NotEqual(t, "client-chosen-id", created.ID)
	assert.Equal(t, userID, created.OwnerID)
	assert.NotEqual(t, 1999, created.CreatedAt.Year())
}

func TestCreateTaskValidation(t *testing.T) {
	router := newTestRouter(t)
	token, _ := registerAndLogin(t, router, "tester")

	rec := doJSON(t, router, http.MethodPost, "/api/tasks/", token, map[string]string{
		"description": "no title",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string][]string
	decode(t, rec, &body)
	assert.Contains(t, body, "title")
}

func TestCrossUserAccessIsNotFound(t *testing.T) {
	router := newTestRouter(t)
	aliceToken, _ := registerAndLogin(t, router, "alice")
	bobToken, _ := registerAndLogin(t, router, "bob")

	rec := doJSON(t, router, http.MethodPost, "/api/tasks/", bobToken, map[string]string{
		"title": "bob's task",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var bobsTask models.Task
	decode(t, rec, &bobsTask)

	// Alice sees 404 — never 403 — on every verb.
	rec = doJSON(t, router, http.MethodGet, "/api/tasks/"+bobsTask.ID+"/", aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodPatch, "/api/tasks/"+bobsTask.ID+"/", aliceToken, map[string]string{"title": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/api/tasks/"+bobsTask.ID+"/", aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Bob still reaches his task, and Alice's list stays empty.
	rec = doJSON(t, router, http.MethodGet, "/api/tasks/"+bobsTask.ID+"/", bobToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/tasks/", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestUpdateAndDeleteTask(t *testing.T) {
	router := newTestRouter(t)
	token, _ := registerAndLogin(t, router, "tester")

	rec := doJSON(t, router, http.MethodPost, "/api/tasks/", token, map[string]string{
		"title": "orig",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var task models.Task
	decode(t, rec, &task)

	rec = doJSON(t, router, http.MethodPatch, "/api/tasks/"+task.ID+"/", token, map[string]bool{
		"completed": true,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.Task
	decode(t, rec, &updated)
	assert.True(t, updated.Completed)
	assert.Equal(t, "orig", updated.Title)

	rec = doJSON(t, router, http.MethodDelete, "/api/tasks/"+task.ID+"/", token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = doJSON(t, router, http.MethodGet, "/api/tasks/"+task.ID+"/", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPutBehavesAsFullUpdate(t *testing.T) {
	router := newTestRouter(t)
	token, _ := registerAndLogin(t, router, "tester")

	rec := doJSON(t, router, http.MethodPost, "/api/tasks/", token, map[string]string{
		"title":       "orig",
		"description": "old",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var task models.Task
	decode(t, rec, &task)

	rec = doJSON(t, router, http.MethodPut, "/api/tasks/"+task.ID+"/", token, map[string]interface{}{
		"title":       "replaced",
		"description": "new",
		"completed":   true,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.Task
	decode(t, rec, &updated)
	assert.Equal(t, "replaced", updated.Title)
	assert.Equal(t, "new", updated.Description)
	assert.True(t, updated.Completed)
}

func TestRoutesWorkWithoutTrailingSlash(t *testing.T) {
	router := newTestRouter(t)
	token, _ := registerAndLogin(t, router, "tester")

	rec := doJSON(t, router, http.MethodGet, "/api/tasks", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestActivityFeed(t *testing.T) {
	router := newTestRouter(t)
	aliceToken, _ := registerAndLogin(t, router, "alice")
	bobToken, _ := registerAndLogin(t, router, "bob")

	rec := doJSON(t, router, http.MethodPost, "/api/tasks/", aliceToken, map[string]string{
		"title": "alice's task",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/activity/", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var aliceFeed []models.Activity
	decode(t, rec, &aliceFeed)
	require.Len(t, aliceFeed, 1)
	assert.Equal(t, "task.created", aliceFeed[0].Type)

	// Bob's feed does not leak Alice's entries.
	rec = doJSON(t, router, http.MethodGet, "/api/activity/", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}
