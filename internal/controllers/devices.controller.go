package controllers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"netsentry/internal/services"
	"netsentry/internal/storage"
)

// DeviceController serves the device inventory and agent token issuance
type DeviceController struct {
	store *storage.Store
}

// NewDeviceController creates the device controller
func NewDeviceController(store *storage.Store) *DeviceController {
	return &DeviceController{store: store}
}

// HandleListDevices returns every registered device
func (dc *DeviceController) HandleListDevices(c *gin.Context) {
	devices, err := dc.store.ListDevices(c.Request.Context())
	if err != nil {
		log.Printf("[DEVICES] list failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list devices"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"devices": devices, "count": len(devices)})
}

// HandleRecentMetrics returns the latest ingested samples across all devices
func (dc *DeviceController) HandleRecentMetrics(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit < 1 || limit > 1000 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 1000"})
		return
	}

	records, err := dc.store.RecentMetrics(c.Request.Context(), limit)
	if err != nil {
		log.Printf("[DEVICES] recent metrics failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch metrics"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"metrics": records, "count": len(records)})
}

// HandleRecentPings returns the latest reachability results
func (dc *DeviceController) HandleRecentPings(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit < 1 || limit > 1000 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 1000"})
		return
	}

	pings, err := dc.store.RecentPings(c.Request.Context(), limit)
	if err != nil {
		log.Printf("[DEVICES] recent pings failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch pings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pings": pings, "count": len(pings)})
}

// HandleGetToken issues a JWT for an agent, keyed by device MAC
func (dc *DeviceController) HandleGetToken(c *gin.Context) {
	mac := c.Query("mac")
	if mac == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mac query parameter required"})
		return
	}
	name := c.DefaultQuery("name", mac)

	token, err := services.GenerateToken(mac, name)
	if err != nil {
		log.Printf("[AUTH] token generation failed for %s: %v", mac, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	log.Printf("[AUTH] token issued for device %s (%s) from IP %s", name, mac, c.ClientIP())
	c.JSON(http.StatusOK, gin.H{
		"token":  token,
		"device": name,
		"mac":    mac,
	})
}
