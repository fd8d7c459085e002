package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"dealwatch-service/internal/domain/entity"
	"dealwatch-service/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStatus struct {
	routes   []*entity.Route
	degraded bool
}

func (f *fakeStatus) Routes() []*entity.Route { return f.routes }
func (f *fakeStatus) Degraded() bool          { return f.degraded }

type echoHandler struct{ prefix string }

func (h echoHandler) CanHandle(text string) bool { return len(text) >= len(h.prefix) && text[:len(h.prefix)] == h.prefix }
func (h echoHandler) Process(_ context.Context, msg entity.InboundMessage) (string, error) {
	return h.prefix + ":" + msg.ChatID, nil
}

func TestCommandRouterFirstMatchWins(t *testing.T) {
	r := NewCommandRouter(logger.NewNopLogger())
	r.Register(echoHandler{prefix: "/list"})
	r.Register(echoHandler{prefix: "/l"})

	h := r.GetHandler("/list now")
	require.NotNil(t, h)
	reply, err := h.Process(context.Background(), entity.InboundMessage{ChatID: "7"})
	require.NoError(t, err)
	assert.Equal(t, "/list:7", reply)

	assert.Nil(t, r.GetHandler("/start"))
}

func TestHTTPRouterEndpoints(t *testing.T) {
	status := &fakeStatus{routes: []*entity.Route{
		{ID: "a", ChatID: "1", Origin: "KTM", Destination: "BKK", TripType: entity.TripOneWay},
		{ID: "b", ChatID: "2", Origin: "KTM", Destination: "DEL", TripType: entity.TripOneWay},
	}}
	h := NewHTTPRouter(status, prometheus.NewRegistry())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/routes?chat=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var got []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "DEL", got[0]["destination"])

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	status.degraded = true
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
