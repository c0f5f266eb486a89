package pinger

import (
	"context"
	"log"
	"time"

	"netsentry/internal/metrics"
	"netsentry/internal/models"
	"netsentry/internal/storage"
)

// Prober periodically pings every device the server has an address for and
// records the results in the ping log
type Prober struct {
	store    *storage.Store
	pinger   *Pinger
	Interval time.Duration
}

// NewProber creates a prober sweeping at the given interval
func NewProber(store *storage.Store, pinger *Pinger, interval time.Duration) *Prober {
	return &Prober{store: store, pinger: pinger, Interval: interval}
}

// Run blocks, probing all devices every Interval until ctx is cancelled
func (p *Prober) Run(ctx context.Context) {
	log.Printf("[PING] reachability prober started (interval: %v)", p.Interval)

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[PING] reachability prober stopped")
			return
		case <-ticker.C:
			p.probeAll(ctx)
		}
	}
}

func (p *Prober) probeAll(ctx context.Context) {
	devices, err := p.store.ListDevices(ctx)
	if err != nil {
		log.Printf("[PING] list devices failed: %v", err)
		return
	}

	for _, d := range devices {
		if d.LastIP == "" {
			// Never heard from this device, nothing to probe
			continue
		}
		if ctx.Err() != nil {
			return
		}

		online, latency := p.pinger.Ping(ctx, d.LastIP)
		err := p.store.SavePing(ctx, models.PingLog{
			DeviceID:  d.ID,
			IP:        d.LastIP,
			Online:    online,
			LatencyMS: latency,
		})
		if err != nil {
			log.Printf("[PING] save result for %s failed: %v", d.Name, err)
			continue
		}
		metrics.PingsReceived.Inc()
	}
}
