package utils

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNewServerDefaults(t *testing.T) {
	srv := NewServer("127.0.0.1:0", http.NotFoundHandler(), ServerOptions{ReadTimeout: time.Second}, zap.NewNop())

	assert.Equal(t, 30*time.Second, srv.shutdownTimeout)
	assert.Equal(t, time.Second, srv.ReadTimeout)
	assert.Equal(t, "127.0.0.1:0", srv.Addr)
}

func TestGracefulStopIsIdempotent(t *testing.T) {
	srv := NewServer("127.0.0.1:0", http.NotFoundHandler(), ServerOptions{ShutdownTimeout: time.Second}, zap.NewNop())

	assert.NotPanics(t, func() {
		srv.GracefulStop()
		srv.GracefulStop()
	})
	select {
	case <-srv.shutdownChan:
	default:
		t.Fatal("shutdown channel not closed")
	}
}
