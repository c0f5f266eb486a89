package controllers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"netsentry/internal/metrics"
	"netsentry/internal/models"
	"netsentry/internal/storage"
)

// IngestController receives metric samples and ping results from agents
type IngestController struct {
	store *storage.Store
}

// NewIngestController creates the ingestion controller
func NewIngestController(store *storage.Store) *IngestController {
	return &IngestController{store: store}
}

type metricsPayload struct {
	MAC        string     `json:"mac" binding:"required"`
	Name       string     `json:"name"`
	DeviceType string     `json:"device_type"`
	Timestamp  *time.Time `json:"timestamp"`
	CPU        *float64   `json:"cpu"`
	RAM        *float64   `json:"ram"`
	Disk       *float64   `json:"disk"`
	NetSent    *float64   `json:"net_sent"`
	NetRecv    *float64   `json:"net_recv"`
}

// HandleMetrics ingests one metric sample, registering the device on first
// contact
func (ic *IngestController) HandleMetrics(c *gin.Context) {
	var payload metricsPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid metrics payload: " + err.Error()})
		return
	}

	ctx := c.Request.Context()
	deviceID, err := ic.store.GetOrCreateDevice(ctx, payload.MAC, payload.Name, payload.DeviceType)
	if err != nil {
		log.Printf("[INGEST] device registration failed for %s: %v", payload.MAC, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register device"})
		return
	}

	rec := models.MetricRecord{
		DeviceID: deviceID,
		CPU:      payload.CPU,
		RAM:      payload.RAM,
		Disk:     payload.Disk,
		NetSent:  payload.NetSent,
		NetRecv:  payload.NetRecv,
	}
	if payload.Timestamp != nil {
		rec.Timestamp = *payload.Timestamp
	}

	if err := ic.store.SaveMetrics(ctx, rec); err != nil {
		log.Printf("[INGEST] save metrics failed for device %d: %v", deviceID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save metrics"})
		return
	}

	if err := ic.store.UpdateDeviceSeen(ctx, deviceID, c.ClientIP()); err != nil {
		log.Printf("[INGEST] update last seen failed for device %d: %v", deviceID, err)
	}

	metrics.MetricsReceived.Inc()
	c.JSON(http.StatusOK, gin.H{"status": "ok", "device_id": deviceID})
}

type pingPayload struct {
	MAC       string     `json:"mac" binding:"required"`
	Name      string     `json:"name"`
	IP        string     `json:"ip"`
	Online    bool       `json:"online"`
	LatencyMS *float64   `json:"latency_ms"`
	Timestamp *time.Time `json:"timestamp"`
}

// HandlePing ingests one reachability result
func (ic *IngestController) HandlePing(c *gin.Context) {
	var payload pingPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ping payload: " + err.Error()})
		return
	}

	ctx := c.Request.Context()
	deviceID, err := ic.store.GetOrCreateDevice(ctx, payload.MAC, payload.Name, "")
	if err != nil {
		log.Printf("[INGEST] device registration failed for %s: %v", payload.MAC, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register device"})
		return
	}

	ping := models.PingLog{
		DeviceID:  deviceID,
		IP:        payload.IP,
		Online:    payload.Online,
		LatencyMS: payload.LatencyMS,
	}
	if payload.Timestamp != nil {
		ping.Timestamp = *payload.Timestamp
	}

	if err := ic.store.SavePing(ctx, ping); err != nil {
		log.Printf("[INGEST] save ping failed for device %d: %v", deviceID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save ping"})
		return
	}

	metrics.PingsReceived.Inc()
	c.JSON(http.StatusOK, gin.H{"status": "ok", "device_id": deviceID})
}
