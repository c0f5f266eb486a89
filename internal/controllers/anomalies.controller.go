package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"netsentry/internal/anomaly"
	"netsentry/internal/cache"
	"netsentry/internal/metrics"
	"netsentry/internal/storage"
)

// AnomalyController serves the persisted anomaly ledger and the live
// per-device summary
type AnomalyController struct {
	store  *storage.Store
	engine *anomaly.Engine
	cache  *cache.SummaryCache
}

// NewAnomalyController creates the anomaly controller. cache may be nil,
// which disables summary caching.
func NewAnomalyController(store *storage.Store, engine *anomaly.Engine, summaryCache *cache.SummaryCache) *AnomalyController {
	return &AnomalyController{store: store, engine: engine, cache: summaryCache}
}

// HandleListAnomalies returns persisted events newest-first, optionally
// filtered by device_id
func (ac *AnomalyController) HandleListAnomalies(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit < 1 || limit > 1000 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 1000"})
		return
	}

	var deviceID *int64
	if raw := c.Query("device_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid device_id"})
			return
		}
		deviceID = &id
	}

	events, err := ac.store.ListEvents(c.Request.Context(), limit, deviceID)
	if err != nil {
		log.Printf("[ANOMALY] list failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list anomalies"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"anomalies": events, "count": len(events)})
}

// HandleAcknowledge marks one event as acknowledged
func (ac *AnomalyController) HandleAcknowledge(c *gin.Context) {
	eventID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid anomaly id"})
		return
	}

	if err := ac.store.Acknowledge(c.Request.Context(), eventID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "anomaly not found"})
			return
		}
		log.Printf("[ANOMALY] acknowledge %d failed: %v", eventID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to acknowledge anomaly"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "acknowledged", "id": eventID})
}

// HandlePurge removes events older than the given age in days
func (ac *AnomalyController) HandlePurge(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil || days < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
		return
	}

	removed, err := ac.store.PurgeOlderThan(c.Request.Context(), time.Duration(days)*24*time.Hour)
	if err != nil {
		log.Printf("[ANOMALY] purge failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to purge anomalies"})
		return
	}

	log.Printf("[ANOMALY] purged %d events older than %d days", removed, days)
	c.JSON(http.StatusOK, gin.H{"status": "purged", "removed": removed})
}

// HandleRecentForDevice returns a device's latest events. The Redis mirror
// is consulted first; on a miss or when caching is off, it falls back to
// the ledger.
func (ac *AnomalyController) HandleRecentForDevice(c *gin.Context) {
	deviceID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid device id"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 1000 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 1000"})
		return
	}

	ctx := c.Request.Context()
	events, err := ac.cache.RecentEvents(ctx, deviceID, limit)
	if err != nil {
		log.Printf("[ANOMALY] cached recent events failed for device %d: %v", deviceID, err)
	}
	if len(events) == 0 {
		events, err = ac.store.ListEvents(ctx, limit, &deviceID)
		if err != nil {
			log.Printf("[ANOMALY] recent events failed for device %d: %v", deviceID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list anomalies"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"anomalies": events, "count": len(events)})
}

// HandleSummary recomputes the live anomaly summary for one device. The
// result is cached briefly; the scanner invalidates it whenever a new event
// is persisted.
func (ac *AnomalyController) HandleSummary(c *gin.Context) {
	deviceID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid device id"})
		return
	}

	ctx := c.Request.Context()
	if cached, err := ac.cache.GetSummary(ctx, deviceID); err != nil {
		log.Printf("[ANOMALY] summary cache read failed for device %d: %v", deviceID, err)
	} else if cached != nil {
		metrics.CacheHits.WithLabelValues("hit").Inc()
		c.JSON(http.StatusOK, cached)
		return
	}
	metrics.CacheHits.WithLabelValues("miss").Inc()

	summary, err := ac.engine.Summarize(ctx, deviceID)
	if err != nil {
		log.Printf("[ANOMALY] summary failed for device %d: %v", deviceID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute summary"})
		return
	}

	if err := ac.cache.PutSummary(ctx, summary); err != nil {
		log.Printf("[ANOMALY] summary cache write failed for device %d: %v", deviceID, err)
	}
	c.JSON(http.StatusOK, summary)
}
