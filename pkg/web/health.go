package web

import (
	"context"
	"net/http"

	"github.com/gitgate/gitgate/pkg/db"
	"github.com/gorilla/mux"
)

// HealthController registers the liveness and readiness probes.
func HealthController(_ context.Context, r *mux.Router) {
	r.HandleFunc("/livez", getLiveness)
	r.HandleFunc("/readyz", getReadiness)
}

func getLiveness(w http.ResponseWriter, _ *http.Request) {
	renderStatus(http.StatusOK)(w, nil)
}

// getReadiness reports ready only while the database answers pings.
func getReadiness(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := db.FromContext(ctx).PingContext(ctx); err != nil {
		renderStatus(http.StatusServiceUnavailable)(w, nil)
		return
	}
	renderStatus(http.StatusOK)(w, nil)
}
