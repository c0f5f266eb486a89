package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"netsentry/internal/agent"
)

func main() {
	serverURL := flag.String("server", "http://localhost:5000", "monitoring server base URL")
	token := flag.String("token", "", "agent auth token (optional)")
	name := flag.String("name", "", "device display name (defaults to Device-<mac suffix>)")
	interval := flag.Duration("interval", 5*time.Second, "reporting interval")
	diskPath := flag.String("disk", "/", "path whose filesystem usage is reported")
	flag.Parse()

	mac, err := agent.MACAddress()
	if err != nil {
		log.Fatalf("[AGENT] %v", err)
	}
	if *name == "" {
		suffix := mac
		if len(mac) > 5 {
			suffix = mac[len(mac)-5:]
		}
		*name = fmt.Sprintf("Device-%s", suffix)
	}
	ip := agent.LocalIP()

	log.Printf("[AGENT] starting: mac=%s name=%s ip=%s server=%s", mac, *name, ip, *serverURL)

	collector := agent.NewCollector(*diskPath)
	client := agent.NewClient(*serverURL, *token)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for {
		sample, err := collector.Collect()
		if err != nil {
			log.Printf("[AGENT] collection failed: %v", err)
		} else if err := client.SendMetrics(ctx, mac, *name, ip, sample); err != nil {
			log.Printf("[AGENT] send failed: %v", err)
		} else {
			log.Printf("[AGENT] cpu=%.1f%% ram=%.1f%% disk=%.1f%% sent=%.0fB/s recv=%.0fB/s",
				sample.CPU, sample.RAM, sample.Disk, sample.NetSent, sample.NetRecv)
		}

		select {
		case <-ctx.Done():
			log.Println("[AGENT] stopped")
			return
		case <-ticker.C:
		}
	}
}
