//go:build integration

package containers

import (
	"context"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"
)

// RabbitMQImage is the image started by StartRabbitMQ.
const RabbitMQImage = "rabbitmq:3.13-management-alpine"

// RabbitMQ is a running broker container.
type RabbitMQ struct {
	// BrokerURL is the amqp:// URL for celery.broker_url.
	BrokerURL string
}

// StartRabbitMQ starts a broker container that is removed when t finishes.
func StartRabbitMQ(ctx context.Context, t *testing.T) *RabbitMQ {
	t.Helper()
	requireDocker(ctx, t)

	c, err := rabbitmq.Run(ctx, RabbitMQImage,
		rabbitmq.WithAdminUsername("guest"),
		rabbitmq.WithAdminPassword("guest"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("Server startup complete").
				WithStartupTimeout(defaultStartupTimeout),
		),
	)
	if err != nil {
		t.Fatalf("failed to start rabbitmq container: %v", err)
	}
	terminateOnCleanup(t, "rabbitmq", c)

	url, err := c.AmqpURL(ctx)
	if err != nil {
		t.Fatalf("failed to get rabbitmq url: %v", err)
	}

	t.Logf("RabbitMQ container started at %s", url)
	return &RabbitMQ{BrokerURL: url}
}
