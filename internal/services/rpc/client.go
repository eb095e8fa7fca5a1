// Package rpc holds the gRPC connection handling shared by the detector and
// face-embedding clients.
package rpc

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/proto"
)

// ErrBackoff is returned while the client waits out a failure backoff.
var ErrBackoff = fmt.Errorf("in backoff period after consecutive failures")

// Options configures a Client.
type Options struct {
	// Name identifies the remote service in logs and health checks.
	Name           string
	Endpoint       string
	Timeout        time.Duration
	BackoffInitial time.Duration
	BackoffMax     time.Duration
}

// Client manages one gRPC connection with lazy (re)connect and exponential backoff.
type Client struct {
	opts Options

	mu       sync.RWMutex
	conn     *grpc.ClientConn
	endpoint string

	// Retry management
	lastFailTime     time.Time
	consecutiveFails int
	now              func() time.Time
}

func NewClient(opts Options) *Client {
	if opts.BackoffInitial <= 0 {
		opts.BackoffInitial = time.Second
	}
	if opts.BackoffMax <= 0 {
		opts.BackoffMax = 30 * time.Second
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	return &Client{opts: opts, now: time.Now}
}

// Connect establishes the gRPC connection. The initial health check runs in
// the background so startup is never blocked by a slow service.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil && c.endpoint == c.opts.Endpoint {
		return nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	target, creds, err := ParseEndpoint(c.opts.Endpoint)
	if err != nil {
		return fmt.Errorf("failed to parse %s endpoint %s: %w", c.opts.Name, c.opts.Endpoint, err)
	}

	log.Info().
		Str("service", c.opts.Name).
		Str("original_endpoint", c.opts.Endpoint).
		Str("normalized_endpoint", target).
		Bool("use_tls", creds.Info().SecurityProtocol == "tls").
		Msg("Connecting to gRPC service")

	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(creds))
	if err != nil {
		return fmt.Errorf("failed to connect to %s at %s: %w", c.opts.Name, target, err)
	}

	c.conn = conn
	c.endpoint = c.opts.Endpoint
	c.consecutiveFails = 0

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.opts.Timeout)
		defer cancel()
		if err := c.checkHealth(ctx, conn); err != nil {
			log.Warn().Err(err).Str("service", c.opts.Name).Str("endpoint", target).Msg("Initial health check failed - will retry on next call")
			return
		}
		log.Info().Str("service", c.opts.Name).Str("endpoint", target).Msg("gRPC service health check passed")
	}()

	return nil
}

// Close closes the connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
		c.endpoint = ""
		log.Info().Str("service", c.opts.Name).Msg("gRPC connection closed")
	}
}

// IsConnected reports whether the connection is usable.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.conn == nil {
		return false
	}
	state := c.conn.GetState()
	return state == connectivity.Ready || state == connectivity.Idle || state == connectivity.Connecting
}

// State returns the current connectivity state.
func (c *Client) State() connectivity.State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.conn == nil {
		return connectivity.Shutdown
	}
	return c.conn.GetState()
}

// Name returns the configured service name.
func (c *Client) Name() string { return c.opts.Name }

// EnsureConnected (re)connects when needed, honouring the failure backoff.
func (c *Client) EnsureConnected() error {
	if !c.shouldRetry() {
		return ErrBackoff
	}

	needsConnection := false
	c.mu.RLock()
	if c.conn == nil || c.endpoint != c.opts.Endpoint {
		needsConnection = true
	} else {
		state := c.conn.GetState()
		if state == connectivity.TransientFailure || state == connectivity.Shutdown {
			needsConnection = true
		}
	}
	c.mu.RUnlock()

	if needsConnection {
		if err := c.Connect(); err != nil {
			c.recordFailure()
			return fmt.Errorf("failed to ensure connection: %w", err)
		}
	}
	return nil
}

// Invoke performs a unary call with the configured timeout.
func (c *Client) Invoke(ctx context.Context, method string, req, resp proto.Message) error {
	if err := c.EnsureConnected(); err != nil {
		return err
	}

	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil {
		return fmt.Errorf("%s client not connected", c.opts.Name)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	if err := conn.Invoke(callCtx, method, req, resp); err != nil {
		c.recordFailure()
		return fmt.Errorf("%s call %s failed: %w", c.opts.Name, method, err)
	}

	c.mu.Lock()
	c.consecutiveFails = 0
	c.mu.Unlock()
	return nil
}

// HealthCheck queries the standard gRPC health service.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.EnsureConnected(); err != nil {
		return err
	}
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil {
		return fmt.Errorf("%s client not connected", c.opts.Name)
	}
	return c.checkHealth(ctx, conn)
}

func (c *Client) checkHealth(ctx context.Context, conn *grpc.ClientConn) error {
	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return err
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("%s reports status %s", c.opts.Name, resp.GetStatus())
	}
	return nil
}

// backoff returns the wait after n consecutive failures: initial, 2x, 4x ... capped at max.
func (c *Client) backoff(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	d := c.opts.BackoffInitial
	for i := 1; i < n; i++ {
		d *= 2
		if d >= c.opts.BackoffMax {
			return c.opts.BackoffMax
		}
	}
	if d > c.opts.BackoffMax {
		d = c.opts.BackoffMax
	}
	return d
}

func (c *Client) shouldRetry() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.consecutiveFails == 0 {
		return true
	}
	return c.now().Sub(c.lastFailTime) >= c.backoff(c.consecutiveFails)
}

func (c *Client) recordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.consecutiveFails++
	c.lastFailTime = c.now()

	if c.consecutiveFails <= 5 {
		log.Warn().
			Str("service", c.opts.Name).
			Int("consecutive_fails", c.consecutiveFails).
			Msg("gRPC failure recorded")
	}
}

// ParseEndpoint normalizes host[:port] or URL endpoints and picks transport
// credentials: TLS for https and the usual TLS ports, plaintext otherwise.
func ParseEndpoint(endpoint string) (string, credentials.TransportCredentials, error) {
	if !strings.Contains(endpoint, "://") {
		if strings.Contains(endpoint, ".") && !strings.Contains(endpoint, ":") {
			endpoint = "https://" + endpoint + ":443"
		} else if strings.Contains(endpoint, ":") {
			parts := strings.Split(endpoint, ":")
			if len(parts) == 2 {
				if port, err := strconv.Atoi(parts[1]); err == nil && (port == 443 || port == 8443 || port == 9443) {
					endpoint = "https://" + endpoint
				} else {
					endpoint = "http://" + endpoint
				}
			}
		} else {
			endpoint = "https://" + endpoint + ":443"
		}
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", nil, fmt.Errorf("invalid endpoint URL: %w", err)
	}

	host := u.Host
	if u.Port() == "" {
		switch u.Scheme {
		case "https":
			host = u.Hostname() + ":443"
		case "http":
			host = u.Hostname() + ":80"
		default:
			return "", nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
		}
	}

	var creds credentials.TransportCredentials
	switch u.Scheme {
	case "https":
		creds = credentials.NewTLS(&tls.Config{ServerName: u.Hostname()})
	case "http":
		creds = insecure.NewCredentials()
	default:
		return "", nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}

	return host, creds, nil
}
