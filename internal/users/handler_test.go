package users

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imsolutions/chatdesk/internal/store"
	"github.com/imsolutions/chatdesk/pkg/logging"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	logger := logging.Default()
	st := store.New(nil, store.NewFileStore(t.TempDir(), logger), logger)
	h := NewHandler(st, logger)
	h.now = func() time.Time { return time.Date(2024, 6, 5, 12, 0, 0, 0, time.UTC) }
	return h
}

func postUser(t *testing.T, h *Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/users", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	h.Store(rec, req)
	return rec
}

func TestStoreUser(t *testing.T) {
	h := newTestHandler(t)

	rec := postUser(t, h, map[string]string{
		"name":    "Priya",
		"email":   "priya@example.com",
		"phone":   "+911234567890",
		"company": "Acme",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "User data stored successfully", resp["message"])

	users, fromPrimary, err := h.store.ListFormUsers(t.Context())
	require.NoError(t, err)
	assert.False(t, fromPrimary)
	require.Len(t, users, 1)
	assert.Equal(t, "Priya", users[0].Name)
	assert.Equal(t, "priya@example.com", users[0].Email)
	assert.Equal(t, "chatbot_form", users[0].Source)
	assert.Equal(t, "2024-06-05T12:00:00Z", users[0].Timestamp)
}

func TestStoreUserBadBody(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/users", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	h.Store(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["success"])
}

func TestListUsers(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/users", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"users":[]}`, rec.Body.String())

	postUser(t, h, map[string]string{"name": "A", "email": "a@example.com"})
	postUser(t, h, map[string]string{"name": "B", "phone": "+15550000000"})

	rec = httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/users", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Users []store.FormUser `json:"users"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Users, 2)
	assert.Equal(t, "A", resp.Users[0].Name)
	assert.Equal(t, "B", resp.Users[1].Name)
}
