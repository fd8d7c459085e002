package router

import (
	"encoding/json"
	"net/http"

	"dealwatch-service/internal/domain/entity"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatusSource exposes read-only snapshots for the ops endpoints
type StatusSource interface {
	Routes() []*entity.Route
	Degraded() bool
}

type routeStatus struct {
	ID          string                        `json:"id"`
	ChatID      string                        `json:"chatId"`
	Origin      string                        `json:"origin"`
	Destination string                        `json:"destination"`
	TripType    entity.TripType               `json:"tripType"`
	MinDays     int                           `json:"minDays"`
	MaxDays     int                           `json:"maxDays"`
	HorizonDays int                           `json:"horizonDays"`
	Thresholds  map[entity.CabinClass]float64 `json:"thresholds"`
	Schedule    entity.Schedule               `json:"schedule"`
}

// NewHTTPRouter builds the ops router: /health, /metrics and /routes
func NewHTTPRouter(status StatusSource, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		if status.Degraded() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("Degraded"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Healthy"))
	})

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Get("/routes", func(w http.ResponseWriter, req *http.Request) {
		chatID := req.URL.Query().Get("chat")
		out := make([]routeStatus, 0)
		for _, route := range status.Routes() {
			if chatID != "" && route.ChatID != chatID {
				continue
			}
			out = append(out, routeStatus{
				ID:          route.ID,
				ChatID:      route.ChatID,
				Origin:      route.Origin,
				Destination: route.Destination,
				TripType:    route.TripType,
				MinDays:     route.MinDays,
				MaxDays:     route.MaxDays,
				HorizonDays: route.HorizonDays,
				Thresholds:  route.Thresholds,
				Schedule:    route.Schedule,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(out)
	})

	return r
}
