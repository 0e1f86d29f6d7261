package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/medrecords-api/internal/model"
	"github.com/jwalitptl/medrecords-api/pkg/messaging"
)

const (
	ReindexChannel     = "medrecords:rag:reindex"
	ReindexMessageType = "reindex"

	// InProcessSyncTimeout bounds a sync run without a worker. It replaces
	// the caller's deadline, which is sized for a single request.
	InProcessSyncTimeout = 10 * time.Minute
)

// ReindexRequest is the payload published on ReindexChannel.
type ReindexRequest struct {
	RequestedBy int64 `json:"requested_by"`
}

// Reindexer hands index syncs to the worker over the broker, or runs them
// in-process when no broker is configured.
type Reindexer struct {
	broker  messaging.Broker
	indexer *Indexer
}

func NewReindexer(broker messaging.Broker, indexer *Indexer) *Reindexer {
	return &Reindexer{broker: broker, indexer: indexer}
}

// Trigger returns queued=true when the request was published, or the sync
// result when it ran in-process.
func (r *Reindexer) Trigger(ctx context.Context, requestedBy int64) (bool, *model.SyncResult, error) {
	if r.broker != nil {
		msg := messaging.Message{Type: ReindexMessageType, Payload: ReindexRequest{RequestedBy: requestedBy}}
		if err := r.broker.Publish(ctx, ReindexChannel, msg); err != nil {
			return false, nil, fmt.Errorf("publish reindex request: %w", err)
		}
		return true, nil, nil
	}
	syncCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), InProcessSyncTimeout)
	defer cancel()
	res, err := r.indexer.Sync(syncCtx)
	return false, res, err
}

// ListenForReindex runs sync for every reindex message until ctx is done.
func ListenForReindex(ctx context.Context, broker messaging.Broker, sync func(ctx context.Context), logger zerolog.Logger) error {
	msgs, err := broker.Subscribe(ctx, ReindexChannel)
	if err != nil {
		return err
	}
	for raw := range msgs {
		var msg messaging.Message
		if err := json.Unmarshal(raw, &msg); err != nil || msg.Type != ReindexMessageType {
			logger.Warn().Str("channel", ReindexChannel).Msg("ignoring malformed reindex message")
			continue
		}
		sync(ctx)
	}
	return nil
}
