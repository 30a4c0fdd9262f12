package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/comigor/jack-go/internal/config"
	"github.com/comigor/jack-go/internal/health"
	"github.com/comigor/jack-go/internal/logger"
	"github.com/comigor/jack-go/pkg/gateway"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestQuietLogsWhileMonitorRuns(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()
	c := gateway.NewClient(config.APIConfig{BaseURL: srv.URL, Timeout: time.Second})

	logger.SetLevel("debug")
	t.Cleanup(func() {
		logger.SetLevel("info")
		logger.SetOutput(os.Stderr)
	})

	monitor := health.NewMonitor(c, config.HealthConfig{Interval: time.Millisecond, Timeout: time.Second})
	stop := monitor.Start(context.Background())
	defer stop()

	var sink syncBuffer
	for i := 0; i < 100; i++ {
		quietLogs()
		logger.SetOutput(&sink)
	}
	require.Eventually(t, func() bool {
		return strings.Contains(sink.String(), "health probe")
	}, time.Second, 5*time.Millisecond)
}

func TestWantsTUI_OnlyForChatCommands(t *testing.T) {
	require.Equal(t, "true", rootCmd.Annotations[annotationTUI])
	require.Equal(t, "true", chatCmd.Annotations[annotationTUI])
	require.False(t, wantsTUI(askCmd))
	require.False(t, wantsTUI(&cobra.Command{Use: "x"}))
}
