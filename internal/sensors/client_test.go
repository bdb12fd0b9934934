package sensors

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/metrics"
)

func TestClient_NextPacket_ReadsOneRecordOverTCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = conn.Write([]byte("&&\r\n01085000\r\n01135\r\n!!\r\n"))
		time.Sleep(50 * time.Millisecond)
	}()

	reg := metrics.NewRegistry(prometheus.NewRegistry())
	c := NewClient(ln.Addr().String(), 8.5, reg)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	packet, err := c.NextPacket(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5000.0, packet.BitDepth)
	assert.Equal(t, 5.0, packet.ROP)
}

func TestClient_ReconnectReturnsErrorWhenContextExpiresDuringBackoff(t *testing.T) {
	c := NewClient("127.0.0.1:1", 8.5, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := c.reconnect(ctx)
	assert.Error(t, err)
}
