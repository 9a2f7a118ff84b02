package wallet

import (
	"context"

	"zondwallet/pkg/models"

	"go.uber.org/zap"
)

// CheckConnection queries node liveness. Failures read as disconnected.
func (e *Engine) CheckConnection(ctx context.Context) models.ConnectionState {
	e.opMu.Lock()
	defer e.opMu.Unlock()
	return e.checkConnection(ctx)
}

func (e *Engine) checkConnection(ctx context.Context) (state models.ConnectionState) {
	e.publish(EventConnectionUpdated, func(s *models.Snapshot) {
		s.Connection.IsLoading = true
	})

	connected := false
	defer func() {
		snap := e.publish(EventConnectionUpdated, func(s *models.Snapshot) {
			s.Connection.IsConnected = connected
			s.Connection.IsLoading = false
		})
		state = snap.Connection
		e.metrics.ConnectionChecked(connected)
	}()

	network, node := e.current()
	if node == nil {
		return
	}
	listening, err := node.IsListening(ctx)
	if err != nil {
		e.logger.Warn("liveness check failed", zap.String("network", network.ID), zap.Error(err))
		return
	}
	connected = listening
	return
}
