package sensors

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/metrics"
	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/types"
)

// ErrTransientIO wraps connect/reconnect failures against the sensor
// endpoint, distinct from a malformed-input parse error.
var ErrTransientIO = errors.New("sensors: transient I/O failure")

// Reconnect/staleness constants, ported from
// original_source/src/acquisition/wits_parser.rs.
const (
	maxReconnectAttempts   = 10
	initialReconnectDelay  = 2 * time.Second
	maxReconnectDelay      = 60 * time.Second
	staleConnectionTimeout = 300 * time.Second
	readTimeout            = 120 * time.Second
)

// Client is a reconnecting TCP client speaking the ASCII line
// protocol. Its reconnect loop is grounded on teacher
// CRun/src/infrastructure/websocket/manager.go's exponential-backoff
// Manager.Run, generalized from a websocket read-loop to a
// net.Conn/bufio.Scanner read-loop per spec.md §6, with the
// staleness/attempt-cap/backoff constants carried over verbatim from
// wits_parser.rs's WitsClient.
type Client struct {
	addr        string
	bitDiameter float64
	metrics     *metrics.Registry

	conn         net.Conn
	scanner      *bufio.Scanner
	parser       *RecordParser
	lastDataTime time.Time

	dialer func(ctx context.Context, network, addr string) (net.Conn, error)
}

// NewClient builds a client dialing addr ("host:port") on the first
// NextPacket call.
// reg may be nil, in which case reconnect/staleness counters are not
// exported.
func NewClient(addr string, bitDiameterInches float64, reg *metrics.Registry) *Client {
	d := net.Dialer{}
	return &Client{
		addr:        addr,
		bitDiameter: bitDiameterInches,
		metrics:     reg,
		parser:      NewRecordParser(bitDiameterInches),
		dialer:      d.DialContext,
	}
}

func (c *Client) recordReconnect() {
	if c.metrics != nil {
		c.metrics.SensorReconnects.Inc()
	}
}

func (c *Client) recordStale() {
	if c.metrics != nil {
		c.metrics.SensorStale.Inc()
	}
}

// connect dials the sensor endpoint, replacing any existing connection.
func (c *Client) connect(ctx context.Context) error {
	c.close()
	dialCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	conn, err := c.dialer(dialCtx, "tcp", c.addr)
	if err != nil {
		return fmt.Errorf("sensors: connect %s: %w", c.addr, err)
	}
	c.conn = conn
	c.scanner = bufio.NewScanner(conn)
	c.lastDataTime = time.Now()
	log.Info().Str("addr", c.addr).Msg("sensor connection established")
	return nil
}

func (c *Client) close() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
		c.scanner = nil
	}
}

// reconnect retries connect with exponential backoff (2s -> 60s cap),
// up to maxReconnectAttempts, returning an error once all attempts are
// exhausted.
func (c *Client) reconnect(ctx context.Context) error {
	delay := initialReconnectDelay
	for attempt := 1; attempt <= maxReconnectAttempts; attempt++ {
		log.Warn().Str("addr", c.addr).Int("attempt", attempt).Dur("delay", delay).
			Msg("sensor reconnecting after failure")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		if err := c.connect(ctx); err == nil {
			c.recordReconnect()
			log.Info().Str("addr", c.addr).Int("attempt", attempt).Msg("sensor reconnection successful")
			return nil
		}

		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
	return fmt.Errorf("%w: reconnect to %s: exhausted %d attempts", ErrTransientIO, c.addr, maxReconnectAttempts)
}

// NextPacket returns the next complete WitsPacket, connecting (or
// forcing a reconnect, on staleness or a read failure) as needed.
func (c *Client) NextPacket(ctx context.Context) (types.WitsPacket, error) {
	if c.conn != nil && time.Since(c.lastDataTime) > staleConnectionTimeout {
		log.Warn().Str("addr", c.addr).Dur("silent_for", time.Since(c.lastDataTime)).
			Msg("sensor connection stale, forcing reconnect")
		c.recordStale()
		if err := c.reconnect(ctx); err != nil {
			return types.WitsPacket{}, err
		}
	}

	if c.conn == nil {
		if err := c.connect(ctx); err != nil {
			if err := c.reconnect(ctx); err != nil {
				return types.WitsPacket{}, err
			}
		}
	}

	for {
		_ = c.conn.SetReadDeadline(time.Now().Add(readTimeout))
		if !c.scanner.Scan() {
			if err := c.scanner.Err(); err != nil {
				log.Warn().Err(err).Str("addr", c.addr).Msg("sensor read failed, reconnecting")
			} else {
				log.Warn().Str("addr", c.addr).Msg("sensor connection closed by peer, reconnecting")
			}
			if err := c.reconnect(ctx); err != nil {
				return types.WitsPacket{}, err
			}
			continue
		}

		now := time.Now()
		packet, ok := c.parser.Feed(c.scanner.Text(), now.Unix())
		if !ok {
			continue
		}
		c.lastDataTime = now
		return packet, nil
	}
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.scanner = nil
	return err
}
