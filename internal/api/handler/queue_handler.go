package handler

import (
	"net/http"

	"github.com/remindly/issue-reminder/internal/repository"
)

// QueueHandler serves a human-readable JSON snapshot of the issue queue.
// Raw Prometheus metrics (counters, histograms) are available at /metrics
// via promhttp.Handler and are separate from this endpoint.
type QueueHandler struct {
	repo repository.IssueRepository
}

func NewQueueHandler(repo repository.IssueRepository) *QueueHandler {
	return &QueueHandler{repo: repo}
}

// GetQueue handles GET /api/v1/queue
func (h *QueueHandler) GetQueue(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.Stats(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to read queue stats")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"queue": map[string]int{
			"pending":  stats.Pending,
			"reminded": stats.Reminded,
			"total":    stats.Pending + stats.Reminded,
		},
	})
}
