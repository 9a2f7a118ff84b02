package wallet

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"zondwallet/pkg/models"
	"zondwallet/pkg/rpc"
	"zondwallet/pkg/utils"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

type tokenMeta struct {
	name     string
	symbol   string
	decimals uint8
}

// DescribeToken reads ERC20 metadata for contract together with the active
// account's balance. Any failed read discards the partial result.
func (e *Engine) DescribeToken(ctx context.Context, contract string) (models.TokenDetails, error) {
	details, err := e.describeToken(ctx, contract)
	e.metrics.TokenLookedUp(err == nil)
	if err != nil {
		e.logger.Warn("token lookup failed", zap.String("contract", contract), zap.Error(err))
		return models.TokenDetails{}, fmt.Errorf("%w: %v", ErrTokenUnavailable, err)
	}
	return details, nil
}

func (e *Engine) describeToken(ctx context.Context, contract string) (models.TokenDetails, error) {
	network, node := e.current()
	if node == nil {
		return models.TokenDetails{}, ErrNotConnected
	}
	active := e.Snapshot().ActiveAccount
	if active == "" {
		return models.TokenDetails{}, ErrNoActiveAccount
	}

	meta, err := e.tokenMeta(ctx, node, network.ID, contract)
	if err != nil {
		return models.TokenDetails{}, err
	}
	supply, err := callBig(ctx, node, contract, "totalSupply")
	if err != nil {
		return models.TokenDetails{}, err
	}
	balance, err := callBig(ctx, node, contract, "balanceOf", active)
	if err != nil {
		return models.TokenDetails{}, err
	}

	return models.TokenDetails{
		Contract:    contract,
		Name:        meta.name,
		Symbol:      meta.symbol,
		Decimals:    meta.decimals,
		TotalSupply: utils.ScaleToFloat(supply, int(meta.decimals)),
		Balance:     utils.ScaleToFloat(balance, int(meta.decimals)),
	}, nil
}

// tokenMeta returns the immutable token fields, served from cache when
// they were read recently on the same network.
func (e *Engine) tokenMeta(ctx context.Context, node rpc.Node, networkID, contract string) (tokenMeta, error) {
	key := networkID + ":" + strings.ToLower(contract)
	if e.tokenCache != nil {
		if v, ok := e.tokenCache.Get(key); ok {
			return v.(tokenMeta), nil
		}
	}

	var meta tokenMeta
	var err error
	if meta.name, err = callString(ctx, node, contract, "name"); err != nil {
		return tokenMeta{}, err
	}
	if meta.symbol, err = callString(ctx, node, contract, "symbol"); err != nil {
		return tokenMeta{}, err
	}
	v, err := node.Call(ctx, contract, "decimals")
	if err != nil {
		return tokenMeta{}, err
	}
	d, ok := v.(uint8)
	if !ok {
		return tokenMeta{}, fmt.Errorf("decimals: unexpected type %T", v)
	}
	meta.decimals = d

	if e.tokenCache != nil {
		e.tokenCache.Set(key, meta, cache.DefaultExpiration)
	}
	return meta, nil
}

func callString(ctx context.Context, node rpc.Node, contract, method string) (string, error) {
	v, err := node.Call(ctx, contract, method)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s: unexpected type %T", method, v)
	}
	return s, nil
}

func callBig(ctx context.Context, node rpc.Node, contract, method string, args ...interface{}) (*big.Int, error) {
	v, err := node.Call(ctx, contract, method, args...)
	if err != nil {
		return nil, err
	}
	b, ok := v.(*big.Int)
	if !ok || b == nil {
		return nil, fmt.Errorf("%s: unexpected type %T", method, v)
	}
	return b, nil
}
