package dashboard

import (
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

func TestDataEndpoint(t *testing.T) {
	fs := &fakeStore{
		available: true,
		leads: []store.Lead{
			{ID: "l1", Email: "a@x.com", CreatedAt: testNow.UnixMilli()},
		},
	}
	h := NewHandler(newTestAggregator(fs), logging.New("error", "text"))

	req := httptest.NewRequest(http.MethodGet, "/dashboard/data", nil)
	w := httptest.NewRecorder()
	h.Data(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var view View
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.True(t, view.StoreAvailable)
	assert.Equal(t, 1, view.Metrics.TotalLeads)
	assert.Len(t, view.LeadsChart.Labels, 7)
}

func TestPageEndpoint(t *testing.T) {
	fs := &fakeStore{
		available: true,
		appts: []store.Appointment{
			{ID: "a1", Title: "Consult", Time: testNow.Add(time.Hour).Format(time.RFC3339), Status: store.StatusScheduled},
		},
	}
	h := NewHandler(newTestAggregator(fs), logging.New("error", "text"))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	w := httptest.NewRecorder()
	h.Page(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "ChatDesk Dashboard")
	assert.Contains(t, body, "Consult")
}

func TestPageEndpointStoreUnavailable(t *testing.T) {
	h := NewHandler(newTestAggregator(&fakeStore{}), logging.New("error", "text"))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	w := httptest.NewRecorder()
	h.Page(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "not configured")
}
