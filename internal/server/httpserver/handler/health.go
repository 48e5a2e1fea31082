package handler

import (
	"net/http"
	"time"

	"github.com/yndnr/aerosense-go/internal/core/domain"
	"github.com/yndnr/aerosense-go/internal/infra/buildinfo"
	"github.com/yndnr/aerosense-go/internal/storage/health"
)

// StationStatus is the body of GET /status.
type StationStatus struct {
	Station string      `json:"station,omitempty"`
	Time    string      `json:"time"`
	Ring    RingView    `json:"ring"`
	Card    SessionView `json:"card"`
}

// RingView is the ring part of StationStatus.
type RingView struct {
	Mode          string `json:"mode"`
	Capacity      uint16 `json:"capacity"`
	Stored        uint16 `json:"stored"`
	LifetimeCount uint32 `json:"lifetime_count"`
	LastSequence  uint32 `json:"last_sequence"`
	DownloadID    string `json:"download_id,omitempty"`
	TotalBytes    uint64 `json:"total_bytes"`
	UsedBytes     uint64 `json:"used_bytes"`
}

// SessionView is the card part of StationStatus.
type SessionView struct {
	State         string `json:"state"`
	CurrentFlight uint16 `json:"current_flight,omitempty"`
	OpenRecords   uint32 `json:"open_records"`
	TotalFlights  uint32 `json:"total_flights"`
	TotalRecords  uint32 `json:"total_records"`
	SizeMB        uint64 `json:"size_mb"`
	UsedMB        uint64 `json:"used_mb"`
}

// handleHealth handles GET /health. The process answering is the check.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": buildinfo.Short(),
		"time":    h.now().UTC().Format(time.RFC3339),
	})
}

// handleReady handles GET /ready: the card must pass its probe, since
// flights cannot be recorded otherwise.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	state := h.sessions.Status().State
	if state != health.Ready {
		h.writeError(w, r, http.StatusServiceUnavailable,
			domain.ErrStorageUnavailable.WithDetails("card "+state.String()))
		return
	}
	h.writeJSON(w, r, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   h.now().UTC().Format(time.RFC3339),
	})
}

// handleStatus handles GET /status.
func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	rs := h.ring.Status()
	ss := h.sessions.Status()

	h.writeJSON(w, r, http.StatusOK, StationStatus{
		Station: h.station,
		Time:    h.now().UTC().Format(time.RFC3339),
		Ring: RingView{
			Mode:          rs.Mode.String(),
			Capacity:      rs.Capacity,
			Stored:        rs.StoredCount,
			LifetimeCount: rs.LifetimeCount,
			LastSequence:  rs.LastSequence,
			DownloadID:    rs.DownloadID,
			TotalBytes:    rs.TotalBytes,
			UsedBytes:     rs.UsedBytes,
		},
		Card: SessionView{
			State:         ss.State.String(),
			CurrentFlight: ss.CurrentFlight,
			OpenRecords:   ss.OpenRecords,
			TotalFlights:  ss.TotalFlights,
			TotalRecords:  ss.TotalRecords,
			SizeMB:        ss.SizeMB,
			UsedMB:        ss.UsedMB,
		},
	})
}
