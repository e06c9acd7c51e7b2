package probe

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mesh-intelligence/keepitup/pkg/types"
)

// CommandRunner runs an external command and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// PingStats is the summary parsed from ping output.
type PingStats struct {
	Transmitted int
	Received    int
	Min         time.Duration
	Avg         time.Duration
	Max         time.Duration
}

// Loss returns the packet loss in percent.
func (s PingStats) Loss() float64 {
	if s.Transmitted == 0 {
		return 100
	}
	return float64(s.Transmitted-s.Received) * 100 / float64(s.Transmitted)
}

var (
	packetsRe = regexp.MustCompile(`(\d+) packets transmitted, (\d+) (?:packets )?received`)
	rttRe     = regexp.MustCompile(`(?:rtt|round-trip) min/avg/max/(?:mdev|stddev) = ([\d.]+)/([\d.]+)/([\d.]+)/[\d.]+ ms`)
)

// ErrNoPingSummary is returned when ping output lacks the packet summary.
var ErrNoPingSummary = errors.New("ping output has no packet summary")

// ParsePingOutput extracts the packet counts and round trip times printed by
// iputils and BSD ping. Round trip times are zero when ping printed none.
func ParsePingOutput(out string) (PingStats, error) {
	var stats PingStats
	m := packetsRe.FindStringSubmatch(out)
	if m == nil {
		return stats, ErrNoPingSummary
	}
	stats.Transmitted, _ = strconv.Atoi(m[1])
	stats.Received, _ = strconv.Atoi(m[2])

	if r := rttRe.FindStringSubmatch(out); r != nil {
		stats.Min = parseMillis(r[1])
		stats.Avg = parseMillis(r[2])
		stats.Max = parseMillis(r[3])
	}
	return stats, nil
}

func parseMillis(s string) time.Duration {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return time.Duration(f * float64(time.Millisecond))
}

// Pinger runs the system ping binary.
type Pinger struct {
	binary    string
	replyWait time.Duration
	run       CommandRunner
}

// PingOption configures a Pinger.
type PingOption func(*Pinger)

// WithRunner replaces the command runner.
func WithRunner(run CommandRunner) PingOption {
	return func(p *Pinger) { p.run = run }
}

// WithPingBinary replaces the ping executable name.
func WithPingBinary(name string) PingOption {
	return func(p *Pinger) { p.binary = name }
}

// NewPinger returns a Pinger using "ping" from PATH.
func NewPinger(opts ...PingOption) *Pinger {
	p := &Pinger{binary: "ping", replyWait: 5 * time.Second, run: execRunner}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Args returns the ping arguments for task and data.
func (p *Pinger) Args(task *types.NetworkTask, data *types.AccessTypeData) []string {
	return []string{
		"-c", strconv.Itoa(data.PingCount),
		"-s", strconv.Itoa(data.PingPackageSize),
		"-W", strconv.Itoa(int(p.replyWait / time.Second)),
		task.Address,
	}
}

// Probe succeeds when at least one echo reply was received.
func (p *Pinger) Probe(ctx context.Context, task *types.NetworkTask, data *types.AccessTypeData) Result {
	// Every packet may wait replyWait, plus one second per interval.
	wait := time.Duration(data.PingCount) * (p.replyWait + time.Second)
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	start := time.Now()
	out, runErr := p.run(ctx, p.binary, p.Args(task, data)...)
	elapsed := time.Since(start)

	stats, err := ParsePingOutput(string(out))
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if runErr != nil {
			msg = strings.TrimSpace(fmt.Sprintf("%v %s", runErr, msg))
		}
		return Result{Message: "Ping failed: " + msg, Duration: elapsed}
	}

	res := Result{Success: stats.Received > 0, Duration: elapsed}
	if res.Success {
		res.Message = fmt.Sprintf("%d of %d packets received, %.0f%% loss, average round trip %s",
			stats.Received, stats.Transmitted, stats.Loss(), stats.Avg)
	} else {
		res.Message = fmt.Sprintf("Ping failed: %d of %d packets received", stats.Received, stats.Transmitted)
	}
	return res
}
