package wallet

import (
	"context"
	"errors"
	"fmt"

	"zondwallet/pkg/models"
	"zondwallet/pkg/registry"
	"zondwallet/pkg/rpc"
	"zondwallet/pkg/utils"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func unitOf(n models.Network) string {
	if n.Symbol == "" {
		return utils.DefaultUnit
	}
	return n.Symbol
}

func placeholder(address, unit string) models.Account {
	return models.Account{
		Address: address,
		Balance: utils.FormatAmountWithUnit("0", unit),
		Status:  models.BalanceUnavailable,
	}
}

// RefreshAccounts re-reads the account list, refetches every balance and
// revalidates the active account.
func (e *Engine) RefreshAccounts(ctx context.Context) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()
	if err := e.refreshAccounts(ctx); err != nil {
		return err
	}
	return e.validateActiveAccount(ctx)
}

// AddAccount appends address to the current network's account list.
// Adding a known address is a no-op apart from the refresh.
func (e *Engine) AddAccount(ctx context.Context, address string) error {
	if !common.IsHexAddress(address) {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	e.opMu.Lock()
	defer e.opMu.Unlock()

	if err := e.appendAccount(ctx, address); err != nil {
		return err
	}
	if err := e.refreshAccounts(ctx); err != nil {
		return err
	}
	return e.validateActiveAccount(ctx)
}

func (e *Engine) appendAccount(ctx context.Context, address string) error {
	network, _ := e.current()
	list, err := e.registry.GetAccountList(ctx, network.ID)
	if err != nil {
		return fmt.Errorf("failed to read account list: %w", err)
	}
	list = registry.Dedup(append(list, address))
	if err := e.registry.SetAccountList(ctx, network.ID, list); err != nil {
		return fmt.Errorf("failed to persist account list: %w", err)
	}
	return nil
}

// AccountBalance returns the display balance of a known account, or a
// formatted zero for an unknown one.
func (e *Engine) AccountBalance(address string) string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, a := range e.state.Accounts.Accounts {
		if a.Address == address {
			return a.Balance
		}
	}
	return utils.FormatAmountWithUnit("0", unitOf(e.network))
}

// refreshAccounts rebuilds the account set from the registry. The address
// list survives any fetch failure; missing balances become zero placeholders.
func (e *Engine) refreshAccounts(ctx context.Context) error {
	e.publish(EventAccountsLoading, func(s *models.Snapshot) {
		s.Accounts.IsLoading = true
	})
	defer e.publish(EventAccountsLoading, func(s *models.Snapshot) {
		s.Accounts.IsLoading = false
	})

	network, node := e.current()
	stored, err := e.registry.GetAccountList(ctx, network.ID)
	if err != nil {
		return fmt.Errorf("failed to read account list: %w", err)
	}
	addresses := registry.Dedup(stored)
	unit := unitOf(network)

	accounts := make([]models.Account, len(addresses))
	for i, addr := range addresses {
		accounts[i] = placeholder(addr, unit)
	}

	if node == nil || ctx.Err() != nil {
		if len(addresses) > 0 {
			e.logger.Warn("balance refresh degraded, using zero placeholders",
				zap.String("network", network.ID), zap.Int("accounts", len(addresses)))
		}
	} else {
		e.fetchBalances(ctx, node, accounts, unit)
	}

	e.publish(EventAccountsUpdated, func(s *models.Snapshot) {
		s.Accounts.Accounts = accounts
	})
	e.metrics.SetAccounts(len(accounts))
	return nil
}

// fetchBalances fills accounts in place. Each fetch is independent; a
// failing address keeps its placeholder.
func (e *Engine) fetchBalances(ctx context.Context, node rpc.Node, accounts []models.Account, unit string) {
	var g errgroup.Group
	g.SetLimit(e.maxFetches)
	for i := range accounts {
		g.Go(func() error {
			addr := accounts[i].Address
			bal, err := node.GetBalance(ctx, addr)
			if err != nil || bal == nil {
				if err == nil {
					err = errors.New("node returned no balance")
				}
				e.logger.Warn("failed to fetch balance", zap.String("address", addr), zap.Error(err))
				e.metrics.BalanceFetched(false)
				return nil
			}
			accounts[i].Balance = utils.FormatAmountWithUnit(utils.FromBaseUnits(bal, utils.NativeDecimals), unit)
			accounts[i].Status = models.BalanceOK
			e.metrics.BalanceFetched(true)
			return nil
		})
	}
	_ = g.Wait()
}
