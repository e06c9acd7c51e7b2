package probe

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/mesh-intelligence/keepitup/pkg/types"
)

// DialFunc opens a network connection.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Connector opens TCP connections to host:port.
type Connector struct {
	timeout time.Duration
	dial    DialFunc
}

// ConnectOption configures a Connector.
type ConnectOption func(*Connector)

// WithDialer replaces the dial function.
func WithDialer(dial DialFunc) ConnectOption {
	return func(c *Connector) { c.dial = dial }
}

// WithConnectTimeout changes the per attempt timeout.
func WithConnectTimeout(d time.Duration) ConnectOption {
	return func(c *Connector) { c.timeout = d }
}

// NewConnector returns a connector with a 10 second timeout per attempt.
func NewConnector(opts ...ConnectOption) *Connector {
	c := &Connector{timeout: 10 * time.Second}
	c.dial = (&net.Dialer{}).DialContext
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Probe makes ConnectCount attempts and succeeds if any attempt connects.
// With StopOnSuccess the first successful attempt ends the probe.
func (c *Connector) Probe(ctx context.Context, task *types.NetworkTask, data *types.AccessTypeData) Result {
	target := task.Target()
	var (
		successes int
		attempts  int
		total     time.Duration
		lastErr   error
	)

	start := time.Now()
	for range data.ConnectCount {
		if ctx.Err() != nil {
			lastErr = ctx.Err()
			break
		}
		attempts++
		d, err := c.attempt(ctx, target)
		if err != nil {
			lastErr = err
			continue
		}
		successes++
		total += d
		if data.StopOnSuccess {
			break
		}
	}
	res := Result{Success: successes > 0, Duration: time.Since(start)}

	switch {
	case successes == 0:
		res.Message = fmt.Sprintf("Connection to %s failed: %d of %d attempts failed, last error: %v",
			target, attempts, attempts, lastErr)
	default:
		avg := total / time.Duration(successes)
		res.Message = fmt.Sprintf("Connection to %s successful: %d of %d attempts, average connect time %s",
			target, successes, attempts, avg.Round(time.Microsecond))
	}
	return res
}

func (c *Connector) attempt(ctx context.Context, target string) (time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	conn, err := c.dial(ctx, "tcp", target)
	if err != nil {
		return 0, err
	}
	elapsed := time.Since(start)
	conn.Close()
	return elapsed, nil
}
