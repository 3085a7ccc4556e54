package mocks

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/kitsune-sumo/settings/messaging"
)

// MockPublisher provides a testify-based mock implementation of messaging.Publisher.
// Published messages are also recorded so tests can replay them into a worker.
//
// Example usage:
//
//	pub := mocks.NewMockPublisher()
//	pub.ExpectPublish("celery")
//	... dispatch ...
//	msgs := pub.Published("celery")
type MockPublisher struct {
	mock.Mock

	mu        sync.Mutex
	published map[string][]messaging.Message
}

var _ messaging.Publisher = (*MockPublisher)(nil)

// NewMockPublisher creates a new mock publisher
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{published: make(map[string][]messaging.Message)}
}

// Publish implements messaging.Publisher
func (m *MockPublisher) Publish(ctx context.Context, queue string, msg messaging.Message) error {
	err := m.Called(ctx, queue, msg).Error(0)
	if err == nil {
		m.mu.Lock()
		m.published[queue] = append(m.published[queue], msg)
		m.mu.Unlock()
	}
	return err
}

// Close implements messaging.Publisher
func (m *MockPublisher) Close() error {
	return m.Called().Error(0)
}

// ExpectPublish sets up a successful publish to queue with any message.
func (m *MockPublisher) ExpectPublish(queue string) *mock.Call {
	return m.On("Publish", mock.Anything, queue, mock.Anything).Return(nil)
}

// ExpectPublishError sets up a failing publish to queue.
func (m *MockPublisher) ExpectPublishError(queue string, err error) *mock.Call {
	return m.On("Publish", mock.Anything, queue, mock.Anything).Return(err)
}

// Published returns the messages successfully published to queue.
func (m *MockPublisher) Published(queue string) []messaging.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]messaging.Message(nil), m.published[queue]...)
}
