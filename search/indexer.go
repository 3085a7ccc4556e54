package search

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kitsune-sumo/settings/config"
	"github.com/kitsune-sumo/settings/logger"
	"github.com/kitsune-sumo/settings/tasks"
)

// Task names registered by RegisterTasks.
const (
	TaskIndex   = "search.index"
	TaskUnindex = "search.unindex"
)

// Dispatcher is the subset of tasks.Dispatcher the indexer needs.
type Dispatcher interface {
	Delay(ctx context.Context, name string, payload any) (*tasks.Result, error)
}

// DocumentPayload is the task payload for TaskIndex and TaskUnindex.
type DocumentPayload struct {
	Role string          `json:"role"`
	ID   string          `json:"id"`
	Doc  json.RawMessage `json:"doc,omitempty"`
}

// RegisterTasks registers the handlers that write to backend.
func RegisterTasks(registry *tasks.Registry, indexes *Indexes, backend Backend) error {
	if err := registry.Register(TaskIndex, func(ctx context.Context, raw json.RawMessage) error {
		p, index, err := decodePayload(indexes, raw)
		if err != nil {
			return err
		}
		return backend.IndexDocument(ctx, index, p.ID, p.Doc)
	}); err != nil {
		return err
	}

	return registry.Register(TaskUnindex, func(ctx context.Context, raw json.RawMessage) error {
		p, index, err := decodePayload(indexes, raw)
		if err != nil {
			return err
		}
		return backend.DeleteDocument(ctx, index, p.ID)
	})
}

func decodePayload(indexes *Indexes, raw json.RawMessage) (DocumentPayload, string, error) {
	var p DocumentPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, "", fmt.Errorf("search: decode payload: %w", err)
	}
	index, err := indexes.WriteIndex(p.Role)
	if err != nil {
		return p, "", err
	}
	return p, index, nil
}

// Indexer pushes documents through the task dispatcher, gated by
// es.live_indexing.
type Indexer struct {
	live       bool
	indexes    *Indexes
	dispatcher Dispatcher
	log        logger.Logger
}

// NewIndexer creates an indexer.
func NewIndexer(cfg config.SearchConfig, indexes *Indexes, dispatcher Dispatcher, log logger.Logger) *Indexer {
	if log == nil {
		log = logger.Nop()
	}
	return &Indexer{
		live:       cfg.LiveIndexing,
		indexes:    indexes,
		dispatcher: dispatcher,
		log:        log,
	}
}

// Live reports whether documents are pushed on write.
func (ix *Indexer) Live() bool {
	return ix.live
}

// Index schedules doc for the write index of role. It returns false
// without dispatching anything when live indexing is off.
func (ix *Indexer) Index(ctx context.Context, role, id string, doc any) (bool, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return false, fmt.Errorf("search: encode document %s/%s: %w", role, id, err)
	}
	return ix.dispatch(ctx, TaskIndex, DocumentPayload{Role: role, ID: id, Doc: body})
}

// Unindex schedules removal of id from the write index of role. Same
// gating as Index.
func (ix *Indexer) Unindex(ctx context.Context, role, id string) (bool, error) {
	return ix.dispatch(ctx, TaskUnindex, DocumentPayload{Role: role, ID: id})
}

func (ix *Indexer) dispatch(ctx context.Context, task string, p DocumentPayload) (bool, error) {
	if _, err := ix.indexes.WriteIndex(p.Role); err != nil {
		return false, err
	}

	if !ix.live {
		ix.log.Debug().
			Str("task", task).
			Str("role", p.Role).
			Str("id", p.ID).
			Msg("Live indexing disabled, skipping")
		return false, nil
	}

	if _, err := ix.dispatcher.Delay(ctx, task, p); err != nil {
		return false, err
	}
	return true, nil
}
