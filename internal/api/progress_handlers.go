package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/JakeFAU/idiom-dictionary-crawler/internal/progress/sinks"
)

// SnapshotSource provides the current run snapshot. sinks.SnapshotSink
// satisfies it.
type SnapshotSource interface {
	Snapshot() sinks.Snapshot
}

// ProgressHandler exposes the read-only progress endpoint.
type ProgressHandler struct {
	source SnapshotSource
	logger *zap.Logger
}

// NewProgressHandler wires the snapshot source and logger.
func NewProgressHandler(source SnapshotSource, logger *zap.Logger) *ProgressHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressHandler{source: source, logger: logger}
}

// Current handles GET /progress. It returns {"progress": {...}} or 503 when
// no source is wired.
func (h *ProgressHandler) Current(w http.ResponseWriter, _ *http.Request) {
	if h.source == nil {
		writeError(w, http.StatusServiceUnavailable, "progress unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"progress": h.source.Snapshot()})
}
