// internal/handlers/stats.go
package handlers

import (
	"encoding/json"
	"net/http"
)

// StatsHandler serves the live counters plus the in-process room and session
// gauges as JSON.
func StatsHandler(s *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counters, err := s.Stats.Snapshot(r.Context())
		if err != nil {
			s.Logger.Warnf("stats snapshot failed: %v", err)
			http.Error(w, "stats unavailable", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"liveRooms":    s.Registry.Len(),
			"liveSessions": s.Binder.Len(),
			"counters":     counters,
		})
	}
}
