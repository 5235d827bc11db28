package appointments

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imsolutions/chatdesk/internal/sessions"
	"github.com/imsolutions/chatdesk/internal/store"
	"github.com/imsolutions/chatdesk/pkg/logging"
)

func newTestRouter(t *testing.T, sessionStore sessions.Store) *chi.Mux {
	t.Helper()
	svc, _ := newTestService(t)
	h := NewHandler(svc, sessionStore, logging.New("error", "text"))

	r := chi.NewRouter()
	r.Post("/appointments", h.Schedule)
	r.Get("/appointments", h.List)
	r.Post("/appointments/{id}/cancel", h.Cancel)
	return r
}

func postJSON(t *testing.T, router http.Handler, path string, body map[string]string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestScheduleEndpoint(t *testing.T) {
	router := newTestRouter(t, nil)

	w := postJSON(t, router, "/appointments", map[string]string{
		"title": "Consult",
		"time":  "2024-06-01T10:00:00Z",
		"notes": "first visit",
	}, nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Message       string            `json:"message"`
		AppointmentID string            `json:"appointment_id"`
		Appointment   store.Appointment `json:"appointment"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Appointment scheduled successfully", resp.Message)
	assert.Regexp(t, apptIDPattern, resp.AppointmentID)
	assert.Equal(t, store.StatusScheduled, resp.Appointment.Status)
}

func TestScheduleEndpointMissingFields(t *testing.T) {
	router := newTestRouter(t, nil)

	w := postJSON(t, router, "/appointments", map[string]string{"notes": "no title or time"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Missing required fields")
}

func TestScheduleEndpointConflict(t *testing.T) {
	router := newTestRouter(t, nil)

	w := postJSON(t, router, "/appointments", map[string]string{
		"title": "Consult", "time": "2024-06-01T10:00:00Z",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = postJSON(t, router, "/appointments", map[string]string{
		"title": "Other", "time": "2024-06-01T10:00:00Z",
	}, nil)
	require.Equal(t, http.StatusConflict, w.Code)

	var resp struct {
		Error    string            `json:"error"`
		Existing store.Appointment `json:"existing_appointment"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "already booked")
	assert.Equal(t, "Consult", resp.Existing.Title)
}

func TestScheduleEndpointUsesSessionContact(t *testing.T) {
	sessionStore := sessions.NewMemoryStore(time.Hour)
	require.NoError(t, sessionStore.Save(context.Background(), "sess-1", sessions.UserContext{
		Name: "Jane", Email: "jane@x.com", Phone: "+15550001111",
	}))
	router := newTestRouter(t, sessionStore)

	header := http.Header{}
	header.Set(sessions.SessionHeader, "sess-1")
	w := postJSON(t, router, "/appointments", map[string]string{
		"title": "Consult", "time": "2024-06-01T10:00:00Z",
	}, header)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Appointment store.Appointment `json:"appointment"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Jane", resp.Appointment.User.Name)
	assert.Equal(t, "jane@x.com", resp.Appointment.User.Email)
}

func TestListEndpointEmpty(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/appointments", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"appointments":[]}`, w.Body.String())
}

func TestCancelEndpoint(t *testing.T) {
	router := newTestRouter(t, nil)

	w := postJSON(t, router, "/appointments", map[string]string{
		"title": "Consult", "time": "2024-06-01T10:00:00Z",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var created struct {
		AppointmentID string `json:"appointment_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = postJSON(t, router, "/appointments/"+created.AppointmentID+"/cancel", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Message     string            `json:"message"`
		Appointment store.Appointment `json:"appointment"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Appointment cancelled successfully", resp.Message)
	assert.Equal(t, store.StatusCancelled, resp.Appointment.Status)
}

func TestCancelEndpointUnknownID(t *testing.T) {
	router := newTestRouter(t, nil)

	w := postJSON(t, router, "/appointments/APT-1-1234/cancel", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"cancelled"`)
}
