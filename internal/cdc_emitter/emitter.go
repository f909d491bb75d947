package cdc_emitter

import (
	v1 "github.com/litetable/litetable-cdc/go/v1"
	"github.com/litetable/litetable-extract/internal/litetable"
	"github.com/rs/zerolog/log"
)

type CDCParams struct {
	Operation litetable.Operation
	RowKey    string
	Family    string
	Qualifier string
	Column    litetable.TimestampedValue
}

// Emit pushes a CDC event to the channel. This is how consumers get notified of a CDC event.
// Events emitted after Stop are dropped.
func (m *Manager) Emit(params *CDCParams) {
	select {
	case m.emitChan <- params:
	case <-m.procCtx.Done():
	}
}

func (m *Manager) dispatchLoop() {
	defer close(m.done)
	for {
		select {
		case p := <-m.emitChan:
			m.raiseCDCEvent(p)
		case <-m.procCtx.Done():
			// flush what is already queued
			for {
				select {
				case p := <-m.emitChan:
					m.raiseCDCEvent(p)
				default:
					return
				}
			}
		}
	}
}

// raiseCDCEvent sends the event to every subscriber, dropping the ones that fail.
func (m *Manager) raiseCDCEvent(params *CDCParams) {
	event := toEvent(params)

	m.streamsMux.Lock()
	defer m.streamsMux.Unlock()

	for id, stream := range m.streams {
		if err := stream.Send(event); err != nil {
			log.Warn().Err(err).Str("client", id).Msg("removing gRPC stream due to send error")
			delete(m.streams, id)
		}
	}
}

func toEvent(params *CDCParams) *v1.CDCEvent {
	event := &v1.CDCEvent{
		RowKey:        params.RowKey,
		Family:        params.Family,
		Qualifier:     params.Qualifier,
		Value:         params.Column.Value,
		TimestampUnix: params.Column.Timestamp,
		Tombstone:     params.Column.IsTombstone,
	}

	switch params.Operation {
	case litetable.OperationRead:
		event.Operation = v1.LitetableOperation_READ
	case litetable.OperationWrite:
		event.Operation = v1.LitetableOperation_WRITE
	case litetable.OperationDelete:
		event.Operation = v1.LitetableOperation_DELETE
	}
	return event
}
