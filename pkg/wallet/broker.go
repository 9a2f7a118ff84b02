package wallet

import (
	"context"
	"errors"
	"fmt"

	"zondwallet/pkg/models"
	"zondwallet/pkg/utils"

	"go.uber.org/zap"
)

// Flat fee parameters applied to every native transfer.
const (
	TransferGasLimit       = 21000
	TransferMaxFee         = 21000
	TransferMaxPriorityFee = 21000
)

// Send signs a transfer of value native coins with the secret derived from
// mnemonic and broadcasts it. The result holds either a receipt or an error
// message, never both. Secret material is wiped before Send returns.
func (e *Engine) Send(ctx context.Context, from, to string, value float64, mnemonic string) (res models.TransactionResult) {
	defer func() {
		if r := recover(); r != nil {
			res = models.TransactionResult{Error: failure(fmt.Errorf("%v", r))}
		}
		e.metrics.TransactionSent(res.OK())
	}()

	receipt, err := e.send(ctx, from, to, value, mnemonic)
	if err != nil {
		e.logger.Warn("transaction failed", zap.String("from", from), zap.String("to", to), zap.Error(err))
		return models.TransactionResult{Error: failure(err)}
	}
	e.logger.Info("transaction mined", zap.String("from", from), zap.String("tx", receipt.TxHash),
		zap.Uint64("block", receipt.BlockNumber))
	return models.TransactionResult{Receipt: receipt}
}

func failure(err error) string {
	return "Transaction could not be completed. " + err.Error()
}

func (e *Engine) send(ctx context.Context, from, to string, value float64, mnemonic string) (*models.Receipt, error) {
	_, node := e.current()
	if node == nil {
		return nil, ErrNotConnected
	}
	amount, err := utils.ToBaseUnits(value, utils.NativeDecimals)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	secret, err := e.deriver.DeriveSecret(mnemonic)
	if err != nil {
		return nil, err
	}
	defer clear(secret)

	payload, err := node.SignTransaction(ctx, models.TransferRequest{
		From:                 from,
		To:                   to,
		Value:                amount.String(),
		GasLimit:             TransferGasLimit,
		MaxFeePerGas:         TransferMaxFee,
		MaxPriorityFeePerGas: TransferMaxPriorityFee,
	}, secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCouldNotSign, err)
	}
	if len(payload) == 0 {
		return nil, ErrCouldNotSign
	}

	receipt, err := node.SendSignedTransaction(ctx, payload)
	if err != nil {
		return nil, err
	}
	if receipt == nil {
		return nil, errors.New("node returned no receipt")
	}
	return receipt, nil
}
