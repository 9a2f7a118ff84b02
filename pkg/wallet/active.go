package wallet

import (
	"context"
	"fmt"

	"zondwallet/pkg/models"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// SetActiveAccount selects address for signing. A non-empty address is
// first added to the account list and only becomes active once the list
// holds it. The empty address clears the selection.
func (e *Engine) SetActiveAccount(ctx context.Context, address string) error {
	if address != "" && !common.IsHexAddress(address) {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	e.opMu.Lock()
	defer e.opMu.Unlock()

	network, _ := e.current()
	if address == "" {
		if err := e.registry.SetActiveAccount(ctx, network.ID, ""); err != nil {
			return fmt.Errorf("failed to persist active account: %w", err)
		}
		e.publish(EventActiveAccountUpdated, func(s *models.Snapshot) {
			s.ActiveAccount = ""
		})
		return nil
	}

	if err := e.appendAccount(ctx, address); err != nil {
		return err
	}
	if err := e.refreshAccounts(ctx); err != nil {
		return err
	}
	if err := e.registry.SetActiveAccount(ctx, network.ID, address); err != nil {
		return fmt.Errorf("failed to persist active account: %w", err)
	}
	return e.validateActiveAccount(ctx)
}

// RemoveActiveAccount clears the active selection without touching the
// account list.
func (e *Engine) RemoveActiveAccount(ctx context.Context) error {
	return e.SetActiveAccount(ctx, "")
}

// validateActiveAccount keeps the persisted active address only when it is
// part of the current account set.
func (e *Engine) validateActiveAccount(ctx context.Context) error {
	network, _ := e.current()
	stored, err := e.registry.GetActiveAccount(ctx, network.ID)
	if err != nil {
		return fmt.Errorf("failed to read active account: %w", err)
	}

	active := ""
	if stored != "" && e.hasAccount(stored) {
		active = stored
	}
	e.publish(EventActiveAccountUpdated, func(s *models.Snapshot) {
		s.ActiveAccount = active
	})

	if stored != "" && active == "" {
		if err := e.registry.ClearActiveAccount(ctx, network.ID); err != nil {
			return fmt.Errorf("failed to clear active account: %w", err)
		}
		e.logger.Info("cleared active account missing from account list",
			zap.String("network", network.ID), zap.String("address", stored))
	}
	return nil
}

func (e *Engine) hasAccount(address string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, a := range e.state.Accounts.Accounts {
		if a.Address == address {
			return true
		}
	}
	return false
}
