package agent

import (
	"fmt"
	stdnet "net"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"
)

// Sample is one collected metric set, ready to post
type Sample struct {
	CPU     float64
	RAM     float64
	Disk    float64
	NetSent float64
	NetRecv float64
}

// Collector gathers host metrics. Network counters are cumulative, so the
// collector keeps the previous reading and reports byte rates per second.
type Collector struct {
	DiskPath string

	lastNetSent uint64
	lastNetRecv uint64
	lastCheck   time.Time
}

// NewCollector creates a collector sampling disk usage at the given path
func NewCollector(diskPath string) *Collector {
	if diskPath == "" {
		diskPath = "/"
	}
	return &Collector{DiskPath: diskPath}
}

// Collect gathers one sample. The first call reports zero network rates
// since there is no previous reading to diff against.
func (c *Collector) Collect() (*Sample, error) {
	cpuPercent, err := cpu.Percent(time.Second, false)
	if err != nil {
		return nil, fmt.Errorf("cpu usage: %w", err)
	}

	virtualMemory, err := mem.VirtualMemory()
	if err != nil {
		return nil, fmt.Errorf("memory usage: %w", err)
	}

	diskUsage, err := disk.Usage(c.DiskPath)
	if err != nil {
		return nil, fmt.Errorf("disk usage for %s: %w", c.DiskPath, err)
	}

	counters, err := net.IOCounters(false)
	if err != nil {
		return nil, fmt.Errorf("network counters: %w", err)
	}

	now := time.Now()
	var sentRate, recvRate float64
	if len(counters) > 0 {
		sent := counters[0].BytesSent
		recv := counters[0].BytesRecv
		if !c.lastCheck.IsZero() {
			elapsed := now.Sub(c.lastCheck).Seconds()
			if elapsed > 0 {
				sentRate = float64(sent-c.lastNetSent) / elapsed
				recvRate = float64(recv-c.lastNetRecv) / elapsed
			}
		}
		c.lastNetSent = sent
		c.lastNetRecv = recv
	}
	c.lastCheck = now

	return &Sample{
		CPU:     cpuPercent[0],
		RAM:     virtualMemory.UsedPercent,
		Disk:    diskUsage.UsedPercent,
		NetSent: sentRate,
		NetRecv: recvRate,
	}, nil
}

// MACAddress returns the hardware address of the first non-loopback
// interface that has one
func MACAddress() (string, error) {
	ifaces, err := stdnet.Interfaces()
	if err != nil {
		return "", fmt.Errorf("list interfaces: %w", err)
	}
	for _, iface := range ifaces {
		if iface.Flags&stdnet.FlagLoopback != 0 {
			continue
		}
		mac := iface.HardwareAddr.String()
		if mac != "" {
			return strings.ToLower(mac), nil
		}
	}
	return "", fmt.Errorf("no interface with a hardware address found")
}

// LocalIP returns the host's outbound IP address. Dialing UDP does not send
// packets, it only resolves the route.
func LocalIP() string {
	conn, err := stdnet.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return ""
	}
	defer conn.Close()
	addr, ok := conn.LocalAddr().(*stdnet.UDPAddr)
	if !ok {
		return ""
	}
	return addr.IP.String()
}
