package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"pricemovers/internal/analysis"
	"pricemovers/internal/cache"
)

// Handlers serves the inspection API endpoints.
type Handlers struct {
	svc         *analysis.Service
	store       *cache.Store
	startupTime time.Time
	log         zerolog.Logger
}

// NewHandlers creates the inspection API handlers.
func NewHandlers(svc *analysis.Service, store *cache.Store, log zerolog.Logger) *Handlers {
	return &Handlers{
		svc:         svc,
		store:       store,
		startupTime: time.Now(),
		log:         log.With().Str("handler", "inspection").Logger(),
	}
}

// HandleHealth handles GET /api/health
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeData(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int(time.Since(h.startupTime).Seconds()),
	})
}

// HandleCacheKeys handles GET /api/cache/keys
// Returns every cached entry with its expiry, expired ones included.
func (h *Handlers) HandleCacheKeys(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.Keys()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list cache keys")
		h.writeError(w, http.StatusInternalServerError, "failed to list cache keys")
		return
	}

	now := time.Now()
	keys := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		keys = append(keys, map[string]interface{}{
			"key":        entry.Key,
			"expires_at": entry.ExpiresAt.Format(time.RFC3339),
			"expired":    entry.Expired(now),
		})
	}

	h.writeData(w, http.StatusOK, map[string]interface{}{
		"keys":  keys,
		"count": len(keys),
	})
}

// HandleCacheClear handles DELETE /api/cache
func (h *Handlers) HandleCacheClear(w http.ResponseWriter, r *http.Request) {
	removed, err := h.store.Clear()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to clear cache")
		h.writeError(w, http.StatusInternalServerError, "failed to clear cache")
		return
	}

	h.writeData(w, http.StatusOK, map[string]interface{}{"removed": removed})
}

// HandleCacheDelete handles DELETE /api/cache/{key}
func (h *Handlers) HandleCacheDelete(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	found, err := h.store.Delete(key)
	if err != nil {
		h.log.Error().Err(err).Str("key", key).Msg("Failed to delete cache entry")
		h.writeError(w, http.StatusInternalServerError, "failed to delete cache entry")
		return
	}
	if !found {
		h.writeError(w, http.StatusNotFound, "cache key not found")
		return
	}

	h.writeData(w, http.StatusOK, map[string]interface{}{"key": key})
}

// HandleSystemStatus handles GET /api/system/status
func (h *Handlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	// 100ms sample keeps the endpoint fast for pollers
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}
	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	memUsed := 0.0
	if memStat, err := mem.VirtualMemory(); err == nil {
		memUsed = memStat.UsedPercent
	} else {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
	}

	h.writeData(w, http.StatusOK, map[string]interface{}{
		"cpu_percent":    cpuAvg,
		"memory_percent": memUsed,
		"uptime_seconds": int(time.Since(h.startupTime).Seconds()),
	})
}

// HandleAnalysis handles GET /api/analysis/{ticker}
// Returns the daily technical indicator report as JSON.
func (h *Handlers) HandleAnalysis(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	report, err := h.svc.TechnicalIndicators(r.Context(), ticker)
	if err != nil {
		if analysis.IsUnavailable(err) {
			h.writeError(w, http.StatusNotFound, "no data for ticker")
			return
		}
		h.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to compute technical report")
		h.writeError(w, http.StatusInternalServerError, "failed to compute technical report")
		return
	}

	h.writeData(w, http.StatusOK, report)
}

func (h *Handlers) writeData(w http.ResponseWriter, status int, data interface{}) {
	h.writeJSON(w, status, map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]interface{}{
		"error": message,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
