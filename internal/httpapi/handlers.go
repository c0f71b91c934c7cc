package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/MimeLyc/dvr-mirror/internal/reconcile"
	"github.com/MimeLyc/dvr-mirror/pkg/log"
)

const (
	healthOK       = "ok"
	healthStarting = "starting"
	healthDegraded = "degraded"
)

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.status.Read().Encode())
}

type healthResponse struct {
	Status     string                 `json:"status"`
	ActiveJobs int                    `json:"active_jobs"`
	LastCycle  *reconcile.CycleResult `json:"last_cycle,omitempty"`
	NextRun    *time.Time             `json:"next_run,omitempty"`
}

// handleHealth always answers 200 while the process is up; a failed last
// cycle is reported as degraded in the body.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	resp := healthResponse{
		Status:     healthStarting,
		ActiveJobs: len(s.status.Read()),
	}
	if s.cycles != nil {
		if last, ok := s.cycles.LastCycle(); ok {
			resp.LastCycle = &last
			resp.Status = healthOK
			if last.Error != "" {
				resp.Status = healthDegraded
			}
		}
	}
	if s.schedule != nil {
		info, err := s.schedule.TriggerInfo()
		if err != nil {
			log.Warn("Failed to compute next reconciliation run: %v", err)
		} else {
			resp.NextRun = &info.Next
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func getOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}
