package pinger

import (
	"context"
	"os/exec"
	"runtime"
	"strconv"
	"time"
)

// Pinger wraps the system ping command for reachability probes. Shelling out
// avoids raw ICMP sockets, which need elevated privileges on most systems.
type Pinger struct {
	Timeout time.Duration
}

// NewPinger creates a pinger with the given per-probe timeout
func NewPinger(timeout time.Duration) *Pinger {
	if timeout <= 0 {
		timeout = time.Second
	}
	return &Pinger{Timeout: timeout}
}

// Ping sends a single probe to ip. Returns reachability and, when reachable,
// the observed round trip in milliseconds.
func (p *Pinger) Ping(ctx context.Context, ip string) (bool, *float64) {
	countFlag, timeoutFlag := "-c", "-W"
	timeoutArg := strconv.Itoa(secondsCeil(p.Timeout))
	if runtime.GOOS == "windows" {
		countFlag, timeoutFlag = "-n", "-w"
		timeoutArg = strconv.FormatInt(p.Timeout.Milliseconds(), 10)
	}

	// Give the process slightly longer than the ping timeout before killing it
	cmdCtx, cancel := context.WithTimeout(ctx, p.Timeout+time.Second)
	defer cancel()

	started := time.Now()
	cmd := exec.CommandContext(cmdCtx, "ping", countFlag, "1", timeoutFlag, timeoutArg, ip)
	if err := cmd.Run(); err != nil {
		return false, nil
	}

	latency := float64(time.Since(started).Microseconds()) / 1000.0
	return true, &latency
}

// secondsCeil converts a duration to whole seconds, rounding up so 500ms
// becomes 1s rather than 0s
func secondsCeil(d time.Duration) int {
	s := int(d / time.Second)
	if d%time.Second != 0 {
		s++
	}
	if s < 1 {
		s = 1
	}
	return s
}
