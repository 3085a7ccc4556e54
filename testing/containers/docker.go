//go:build integration

// Package containers starts throwaway redis and rabbitmq servers for
// integration tests. Build with -tags integration; tests are skipped when
// no Docker daemon is reachable.
package containers

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
)

const defaultStartupTimeout = 60 * time.Second

// requireDocker skips t when the Docker daemon cannot be contacted.
func requireDocker(ctx context.Context, t *testing.T) {
	t.Helper()

	provider, err := testcontainers.NewDockerProvider()
	if err != nil {
		t.Skipf("Docker is not available - skipping integration test: %v", err)
	}
	defer provider.Close()

	if _, err := provider.DaemonHost(ctx); err != nil {
		t.Skipf("Docker daemon unreachable - skipping integration test: %v", err)
	}
}

// terminateOnCleanup registers c for removal when t finishes.
func terminateOnCleanup(t *testing.T, name string, c testcontainers.Container) {
	t.Helper()
	t.Cleanup(func() {
		if err := c.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate %s container: %v", name, err)
		}
	})
}
