package main

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/ir-dns/internal/dns/common/log"
	"github.com/haukened/ir-dns/internal/dns/config"
	"github.com/haukened/ir-dns/internal/dns/domain"
	"github.com/haukened/ir-dns/internal/dns/gateways/wire"
)

// TestE2E_BlockedQuery drives a real query through the UDP socket, the wire
// codec, and the resolver's blocklist path. Blocked names are answered
// locally so the test needs no network beyond loopback.
func TestE2E_BlockedQuery(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E test in short mode")
	}

	dir := t.TempDir()
	list := filepath.Join(dir, "blocklist.txt")
	blocklist := "ads.example.com\n*.tracker.example\n"
	require.NoError(t, os.WriteFile(list, []byte(blocklist), 0644))

	addr := freeUDPAddr(t)
	t.Setenv("DNS_LISTEN", addr)
	t.Setenv("DNS_LOG_LEVEL", "error") // Reduce noise
	t.Setenv("DNS_BLOCKLIST", list)
	t.Setenv("DNS_BLOCKLIST_DB", filepath.Join(dir, "block.db"))

	cfg, err := config.Load()
	require.NoError(t, err)

	app, err := buildApplication(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appErr := make(chan error, 1)
	go func() {
		appErr <- app.Run(ctx)
	}()
	waitForServer(t, addr)

	codec := wire.NewMessageCodec(log.NewNoopLogger())

	t.Run("blocked name gets NXDOMAIN", func(t *testing.T) {
		resp := exchangeRaw(t, addr, encodeQuery(t, codec, 0x1111, "ads.example.com"))
		msg, err := codec.DecodeMessage(resp)
		require.NoError(t, err)
		assert.Equal(t, uint16(0x1111), msg.ID)
		assert.True(t, msg.Response)
		assert.Equal(t, domain.NXDOMAIN, msg.RCode)
		assert.Empty(t, msg.Answers)
	})

	t.Run("blocked suffix covers subdomains", func(t *testing.T) {
		resp := exchangeRaw(t, addr, encodeQuery(t, codec, 0x2222, "cdn.tracker.example"))
		msg, err := codec.DecodeMessage(resp)
		require.NoError(t, err)
		assert.Equal(t, uint16(0x2222), msg.ID)
		assert.Equal(t, domain.NXDOMAIN, msg.RCode)
	})

	t.Run("two questions get FORMERR", func(t *testing.T) {
		m := domain.Message{
			ID: 0x3333,
			Questions: []domain.Question{
				{Name: "a.example", Type: domain.RRTypeA, Class: domain.RRClassIN},
				{Name: "b.example", Type: domain.RRTypeA, Class: domain.RRClassIN},
			},
		}
		data, err := codec.EncodeMessage(m)
		require.NoError(t, err)

		resp := exchangeRaw(t, addr, data)
		msg, err := codec.DecodeMessage(resp)
		require.NoError(t, err)
		assert.Equal(t, uint16(0x3333), msg.ID)
		assert.Equal(t, domain.FORMERR, msg.RCode)
	})

	t.Run("runt packet is dropped silently", func(t *testing.T) {
		conn, err := net.Dial("udp", addr)
		require.NoError(t, err)
		defer conn.Close()

		_, err = conn.Write([]byte{0x00, 0x01, 0x02})
		require.NoError(t, err)

		require.NoError(t, conn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
		buf := make([]byte, 512)
		_, err = conn.Read(buf)
		var netErr net.Error
		require.ErrorAs(t, err, &netErr)
		assert.True(t, netErr.Timeout())
	})

	// Shutdown
	cancel()
	select {
	case err := <-appErr:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Application failed to shutdown")
	}
}

// waitForServer polls until the server holds the address. UDP dials succeed
// with no listener present, so it probes by trying to rebind instead.
func waitForServer(t *testing.T, addr string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.ListenPacket("udp", addr)
		if err != nil {
			return
		}
		require.NoError(t, conn.Close())
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("Server failed to start")
}

func encodeQuery(t *testing.T, codec wire.DNSCodec, id uint16, name string) []byte {
	t.Helper()
	q := domain.Question{Name: name, Type: domain.RRTypeA, Class: domain.RRClassIN}
	msg, err := domain.NewQueryMessage(id, q)
	require.NoError(t, err)
	data, err := codec.EncodeMessage(msg)
	require.NoError(t, err)
	return data
}

func exchangeRaw(t *testing.T, addr string, query []byte) []byte {
	t.Helper()
	conn, err := net.Dial("udp", addr)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write(query)
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 4096)
	n, err := conn.Read(buf)
	require.NoError(t, err)
	return buf[:n]
}
