package search

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kitsune-sumo/settings/config"
	"github.com/kitsune-sumo/settings/tasks"
	"github.com/kitsune-sumo/settings/testing/mocks"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) IndexDocument(ctx context.Context, index, id string, doc any) error {
	raw, _ := json.Marshal(doc)
	return m.Called(index, id, string(raw)).Error(0)
}

func (m *mockBackend) DeleteDocument(ctx context.Context, index, id string) error {
	return m.Called(index, id).Error(0)
}

func newIndexer(t *testing.T, live bool, backend Backend) *Indexer {
	t.Helper()
	cfg := testSearchConfig()
	cfg.LiveIndexing = live
	indexes := NewIndexes(cfg)

	registry := tasks.NewRegistry()
	require.NoError(t, RegisterTasks(registry, indexes, backend))

	d, err := tasks.NewDispatcher(config.TasksConfig{AlwaysEager: true}, registry, nil, nil)
	require.NoError(t, err)

	return NewIndexer(cfg, indexes, d, nil)
}

func TestIndexerLiveEagerWritesImmediately(t *testing.T) {
	backend := &mockBackend{}
	backend.On("IndexDocument", "sumotest_test_default", "42", `{"title":"Firefox"}`).Return(nil).Once()

	ix := newIndexer(t, true, backend)
	pushed, err := ix.Index(context.Background(), "default", "42", map[string]string{"title": "Firefox"})
	require.NoError(t, err)
	assert.True(t, pushed)
	backend.AssertExpectations(t)
}

func TestIndexerLiveIndexingDisabled(t *testing.T) {
	backend := &mockBackend{}
	ix := newIndexer(t, false, backend)
	assert.False(t, ix.Live())

	pushed, err := ix.Index(context.Background(), "default", "42", map[string]string{"title": "Firefox"})
	require.NoError(t, err)
	assert.False(t, pushed)

	pushed, err = ix.Unindex(context.Background(), "default", "42")
	require.NoError(t, err)
	assert.False(t, pushed)

	backend.AssertNotCalled(t, "IndexDocument", mock.Anything, mock.Anything, mock.Anything)
	backend.AssertNotCalled(t, "DeleteDocument", mock.Anything, mock.Anything)
}

func TestIndexerUnknownRole(t *testing.T) {
	ix := newIndexer(t, false, &mockBackend{})
	_, err := ix.Index(context.Background(), "questions", "1", nil)
	assert.ErrorIs(t, err, ErrUnknownIndex)
}

func TestIndexerUnindex(t *testing.T) {
	backend := &mockBackend{}
	backend.On("DeleteDocument", "sumotest_test_other", "9").Return(nil).Once()

	ix := newIndexer(t, true, backend)
	pushed, err := ix.Unindex(context.Background(), "other", "9")
	require.NoError(t, err)
	assert.True(t, pushed)
	backend.AssertExpectations(t)
}

func TestIndexerQueuedRoundTrip(t *testing.T) {
	backend := &mockBackend{}
	backend.On("IndexDocument", "sumotest_test_other", "5", `{"n":1}`).Return(nil).Once()

	pub := mocks.NewMockPublisher()
	pub.ExpectPublish("celery").Once()

	cfg := testSearchConfig()
	cfg.LiveIndexing = true
	indexes := NewIndexes(cfg)
	registry := tasks.NewRegistry()
	require.NoError(t, RegisterTasks(registry, indexes, backend))
	d, err := tasks.NewDispatcher(config.TasksConfig{Queue: "celery"}, registry, pub, nil)
	require.NoError(t, err)

	pushed, err := NewIndexer(cfg, indexes, d, nil).Index(context.Background(), "other", "5", map[string]int{"n": 1})
	require.NoError(t, err)
	assert.True(t, pushed)
	backend.AssertNotCalled(t, "IndexDocument", mock.Anything, mock.Anything, mock.Anything)

	w := tasks.NewWorker(registry, nil)
	for _, msg := range pub.Published("celery") {
		require.NoError(t, w.Handle(context.Background(), msg.Body))
	}
	backend.AssertExpectations(t)
	pub.AssertExpectations(t)
}
