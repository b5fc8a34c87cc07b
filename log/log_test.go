//go:build unit
// +build unit

package log

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/qgrid-team/qgrid/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMetricsLogTask(t *testing.T) {
	sc := core.SCWithUnimplementedContainer()
	defer sc.TearDown()

	dir := t.TempDir()
	m := &MetricsLogTaskImpl{}
	require.Nil(t, m.SetParams(map[string]interface{}{"file_dir": dir}))
	require.Nil(t, m.Setup())
	m.dl.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	m.Task()
	m.Cleanup()

	b, err := os.ReadFile(filepath.Join(dir, "metrics-2026-01-02.log"))
	require.Nil(t, err)
	assert.Contains(t, string(b), `"msg":"Metrics"`)
	assert.Contains(t, string(b), `"queue_length":0`)
	assert.Contains(t, string(b), `"session_count":0`)
}

func TestMetricsLogTaskSetup(t *testing.T) {
	tests := []struct {
		name    string
		params  interface{}
		wantErr bool
	}{
		{name: "missing dir", params: map[string]interface{}{"file_dir": "/nonexistent/qgrid"}, wantErr: true},
		{name: "no params", params: nil, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &MetricsLogTaskImpl{}
			require.Nil(t, m.SetParams(tt.params))
			err := m.Setup()
			assert.Equal(t, tt.wantErr, err != nil)
		})
	}
	assert.NotNil(t, (&MetricsLogTaskImpl{}).SetParams("file_dir"))
}

func TestDailyLoggerRollsOver(t *testing.T) {
	dir := t.TempDir()
	dl := newDailyLogger(dir)
	day := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
	dl.now = func() time.Time { return day }

	_, err := dl.Write([]byte("first\n"))
	require.Nil(t, err)
	day = day.Add(2 * time.Minute)
	_, err = dl.Write([]byte("second\n"))
	require.Nil(t, err)
	require.Nil(t, dl.Close())

	first, err := os.ReadFile(filepath.Join(dir, "metrics-2026-03-01.log"))
	require.Nil(t, err)
	assert.Equal(t, "first\n", string(first))
	second, err := os.ReadFile(filepath.Join(dir, "metrics-2026-03-02.log"))
	require.Nil(t, err)
	assert.Equal(t, "second\n", string(second))
}

func TestVersionLogTask(t *testing.T) {
	obs, logs := observer.New(zap.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(obs))
	defer restore()

	core.Version = "1.2.3"
	defer func() { core.Version = "" }()

	(&VersionLogTaskImpl{}).Task()
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "qgrid version:1.2.3/user agent:qgrid/1.2.3", logs.All()[0].Message)
}

func TestMetricsServer(t *testing.T) {
	m := &MetricsServer{}
	require.Nil(t, m.SetParams(map[string]interface{}{"host": "127.0.0.1", "port": "0"}))
	require.Nil(t, m.Setup())
	done := make(chan error)
	go func() { done <- m.Serve() }()

	res, err := http.Get("http://" + m.Addr() + "/metrics")
	require.Nil(t, err)
	body, err := io.ReadAll(res.Body)
	res.Body.Close()
	require.Nil(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(body), "go_goroutines")

	m.Shutdown()
	assert.Nil(t, <-done)
}
