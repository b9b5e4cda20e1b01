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

	"github.com/haukened/ir-dns/internal/dns/config"
)

// freeUDPAddr binds an ephemeral UDP port and returns the address so the
// server under test has somewhere free to listen.
func freeUDPAddr(t testing.TB) string {
	t.Helper()
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := conn.LocalAddr().String()
	require.NoError(t, conn.Close())
	return addr
}

// TestApplication_Integration tests the full application lifecycle
func TestApplication_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	addr := freeUDPAddr(t)
	t.Setenv("DNS_LISTEN", addr)
	t.Setenv("DNS_LOG_LEVEL", "debug")
	t.Setenv("DNS_CACHE_SIZE", "100")

	// Build application
	cfg, err := config.Load()
	require.NoError(t, err)

	app, err := buildApplication(cfg)
	require.NoError(t, err)
	assert.NotNil(t, app)

	// Test application startup and shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start application in goroutine
	appErr := make(chan error, 1)
	go func() {
		appErr <- app.Run(ctx)
	}()

	// Wait for server to start (or timeout)
	timeout := time.After(2 * time.Second)
	for {
		select {
		case <-timeout:
			t.Fatal("Server failed to start within timeout")
		case err := <-appErr:
			if err != nil {
				t.Fatalf("Server failed to start: %v", err)
			}
		default:
			// Check if server is listening
			conn, err := net.Dial("udp", addr)
			if err == nil {
				require.NoError(t, conn.Close())
				goto serverStarted
			}
			time.Sleep(10 * time.Millisecond)
		}
	}

serverStarted:
	// Test graceful shutdown
	cancel()

	select {
	case err := <-appErr:
		assert.NoError(t, err, "Application should shutdown gracefully")
	case <-time.After(5 * time.Second):
		t.Fatal("Application failed to shutdown within timeout")
	}
}

// TestBuildApplication_ConfigurationVariations tests different configurations
func TestBuildApplication_ConfigurationVariations(t *testing.T) {
	tests := []struct {
		name          string
		setupEnv      func(t *testing.T)
		wantErr       bool
		errorContains string
	}{
		{
			name:     "minimal valid config",
			setupEnv: func(t *testing.T) {},
			wantErr:  false,
		},
		{
			name: "missing root hints file",
			setupEnv: func(t *testing.T) {
				t.Setenv("DNS_ROOT_HINTS", "/nonexistent/named.root")
			},
			wantErr:       true,
			errorContains: "failed to load root hints",
		},
		{
			name: "missing blocklist file",
			setupEnv: func(t *testing.T) {
				t.Setenv("DNS_BLOCKLIST", "/nonexistent/blocklist.txt")
				t.Setenv("DNS_BLOCKLIST_DB", filepath.Join(t.TempDir(), "block.db"))
			},
			wantErr:       true,
			errorContains: "failed to load blocklist file",
		},
		{
			name: "cache disabled",
			setupEnv: func(t *testing.T) {
				t.Setenv("DNS_DISABLE_CACHE", "true")
			},
			wantErr: false,
		},
		{
			name: "blocklist enabled",
			setupEnv: func(t *testing.T) {
				dir := t.TempDir()
				list := filepath.Join(dir, "blocklist.txt")
				require.NoError(t, os.WriteFile(list, []byte("ads.example.com\n*.tracker.example\n"), 0644))
				t.Setenv("DNS_BLOCKLIST", list)
				t.Setenv("DNS_BLOCKLIST_DB", filepath.Join(dir, "block.db"))
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DNS_LISTEN", freeUDPAddr(t))
			tt.setupEnv(t)

			cfg, err := config.Load()
			require.NoError(t, err)

			app, err := buildApplication(cfg)

			if tt.wantErr {
				assert.Error(t, err)
				if tt.errorContains != "" {
					assert.Contains(t, err.Error(), tt.errorContains)
				}
				assert.Nil(t, app)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, app)
			}
		})
	}
}

// TestBuildApplication_RootHintsFile verifies a configured hints file is used
func TestBuildApplication_RootHintsFile(t *testing.T) {
	dir := t.TempDir()
	hintsFile := filepath.Join(dir, "named.root")
	hints := "; custom hints\na.root-servers.net. 198.41.0.4\n"
	require.NoError(t, os.WriteFile(hintsFile, []byte(hints), 0644))

	t.Setenv("DNS_LISTEN", freeUDPAddr(t))
	t.Setenv("DNS_ROOT_HINTS", hintsFile)

	cfg, err := config.Load()
	require.NoError(t, err)

	app, err := buildApplication(cfg)
	require.NoError(t, err)
	assert.NotNil(t, app)
}

// TestApplication_ComponentIntegration tests that all components work together
func TestApplication_ComponentIntegration(t *testing.T) {
	dir := t.TempDir()
	list := filepath.Join(dir, "blocklist.txt")
	require.NoError(t, os.WriteFile(list, []byte("ads.example.com\n"), 0644))

	t.Setenv("DNS_LISTEN", freeUDPAddr(t))
	t.Setenv("DNS_CACHE_SIZE", "50")
	t.Setenv("DNS_BLOCKLIST", list)
	t.Setenv("DNS_BLOCKLIST_DB", filepath.Join(dir, "block.db"))

	cfg, err := config.Load()
	require.NoError(t, err)

	app, err := buildApplication(cfg)
	require.NoError(t, err)

	// Verify components are wired correctly
	assert.NotNil(t, app.config)
	assert.NotNil(t, app.transport)
	assert.NotNil(t, app.resolver)
	assert.Len(t, app.cleanup, 1)

	assert.Equal(t, uint(50), app.config.CacheSize)
	assert.Equal(t, list, app.config.Blocklist)

	// Release the bolt store
	for _, fn := range app.cleanup {
		assert.NoError(t, fn())
	}
}
