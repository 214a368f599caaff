package main

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServe_GracefulShutdown(t *testing.T) {
	app, err := newApplication(context.Background(), testConfig(), testLogger(), nil)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}

	_, err = http.Get("http://" + addr + "/health")
	assert.Error(t, err, "listener should be closed after shutdown")
}

func TestServe_ReaperAlreadyStarted(t *testing.T) {
	app, err := newApplication(context.Background(), testConfig(), testLogger(), nil)
	require.NoError(t, err)
	require.NoError(t, app.reaper.Start())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	err = app.serve(context.Background(), ln)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reaper")
}
