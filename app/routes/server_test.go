package routes

import (
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"inkwell/app/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerGracefulShutdown(t *testing.T) {
	// Find an available port.
	listener, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	srv := NewServer(fmt.Sprintf("localhost:%d", port), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Simulate work.
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}), config.Server{ReadTimeout: time.Second, WriteTimeout: time.Second})

	errCh := make(chan error, 1)
	go srv.StartServer(errCh)

	// Allow the server time to start.
	time.Sleep(50 * time.Millisecond)

	status := make(chan int, 1)
	go func() {
		resp, err := http.Get(fmt.Sprintf("http://localhost:%d/", port))
		if err != nil {
			status <- 0
			return
		}
		resp.Body.Close()
		status <- resp.StatusCode
	}()

	// Let the request reach the handler before shutting down.
	time.Sleep(30 * time.Millisecond)
	require.NoError(t, srv.ShutdownGracefully(time.Second))
	assert.NoError(t, <-errCh)
	assert.Equal(t, http.StatusOK, <-status, "in-flight request completes")
}
