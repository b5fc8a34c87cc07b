package log

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	MetricsServerName = "metrics"

	defaultMetricsPort = "9090"
	shutdownTimeout    = 5 * time.Second
)

// MetricsServer serves the prometheus registry on /metrics.
type MetricsServer struct {
	Host string `toml:"host"`
	Port string `toml:"port"`

	listener net.Listener
	server   *http.Server
}

func (m *MetricsServer) GetEmptyParams() interface{} {
	return m
}

func (m *MetricsServer) SetParams(p interface{}) error {
	if p == nil {
		zap.L().Debug("no params for metrics server")
		return nil
	}
	mp, ok := p.(map[string]interface{})
	if !ok {
		err := fmt.Errorf("failed to set params for metrics server/params: %v", p)
		zap.L().Error(err.Error())
		return err
	}
	if host, ok := mp["host"].(string); ok {
		m.Host = host
	}
	if port, ok := mp["port"].(string); ok {
		m.Port = port
	}
	return nil
}

func (m *MetricsServer) Setup() error {
	port := m.Port
	if port == "" {
		port = defaultMetricsPort
	}
	lis, err := net.Listen("tcp", net.JoinHostPort(m.Host, port))
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to listen for metrics/reason:%s", err))
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	m.listener = lis
	m.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	zap.L().Info(fmt.Sprintf("[MetricsServer] listening on %s", lis.Addr()))
	return nil
}

func (m *MetricsServer) Addr() string {
	return m.listener.Addr().String()
}

func (m *MetricsServer) Serve() error {
	err := m.server.Serve(m.listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (m *MetricsServer) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := m.server.Shutdown(ctx); err != nil {
		zap.L().Error(fmt.Sprintf("failed to shut down metrics server/reason:%s", err))
	}
}
