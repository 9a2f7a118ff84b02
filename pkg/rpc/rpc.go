package rpc

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"zondwallet/pkg/models"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
)

var (
	CallTimeout    = 15 * time.Second
	ReceiptTimeout = 2 * time.Minute
	ReceiptPoll    = time.Second
)

// Node is the subset of a JSON-RPC node the wallet engine talks to.
type Node interface {
	IsListening(ctx context.Context) (bool, error)
	GetBalance(ctx context.Context, address string) (*big.Int, error)
	SignTransaction(ctx context.Context, tx models.TransferRequest, secret []byte) ([]byte, error)
	SendSignedTransaction(ctx context.Context, payload []byte) (*models.Receipt, error)
	Call(ctx context.Context, contract, method string, args ...interface{}) (interface{}, error)
	Close()
}

// Dialer opens a Node for an RPC endpoint.
type Dialer func(ctx context.Context, url string) (Node, error)

// EthNode implements Node over go-ethereum's ethclient.
type EthNode struct {
	client  *ethclient.Client
	raw     *gethrpc.Client
	timeout time.Duration
}

// Dial connects to url with the package default call timeout.
func Dial(ctx context.Context, url string) (Node, error) {
	return DialNode(ctx, url, CallTimeout)
}

// NewDialer returns a Dialer applying timeout to every call.
func NewDialer(timeout time.Duration) Dialer {
	return func(ctx context.Context, url string) (Node, error) {
		return DialNode(ctx, url, timeout)
	}
}

func DialNode(ctx context.Context, url string, timeout time.Duration) (*EthNode, error) {
	raw, err := gethrpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}
	return &EthNode{client: ethclient.NewClient(raw), raw: raw, timeout: timeout}, nil
}

func (n *EthNode) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if n.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, n.timeout)
}

func (n *EthNode) Close() {
	n.client.Close()
}

// IsListening asks the node whether it is accepting peer connections.
func (n *EthNode) IsListening(ctx context.Context) (bool, error) {
	ctx, cancel := n.withTimeout(ctx)
	defer cancel()
	var listening bool
	if err := n.raw.CallContext(ctx, &listening, "net_listening"); err != nil {
		return false, err
	}
	return listening, nil
}

func (n *EthNode) ChainID(ctx context.Context) (*big.Int, error) {
	ctx, cancel := n.withTimeout(ctx)
	defer cancel()
	return n.client.ChainID(ctx)
}

// GetBalance returns the latest balance of address in base units.
func (n *EthNode) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid address %q", address)
	}
	ctx, cancel := n.withTimeout(ctx)
	defer cancel()
	return n.client.BalanceAt(ctx, common.HexToAddress(address), nil)
}

// SignTransaction builds a dynamic-fee transfer and signs it with secret, the
// raw secp256k1 private key of tx.From. The returned payload is the binary
// encoding of the signed transaction.
func (n *EthNode) SignTransaction(ctx context.Context, tx models.TransferRequest, secret []byte) ([]byte, error) {
	key, err := crypto.ToECDSA(secret)
	if err != nil {
		return nil, fmt.Errorf("invalid secret: %w", err)
	}
	from := crypto.PubkeyToAddress(key.PublicKey)
	if !strings.EqualFold(from.Hex(), tx.From) {
		return nil, fmt.Errorf("secret does not belong to %s", tx.From)
	}
	if !common.IsHexAddress(tx.To) {
		return nil, fmt.Errorf("invalid recipient %q", tx.To)
	}
	to := common.HexToAddress(tx.To)
	value, ok := new(big.Int).SetString(tx.Value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid value %q", tx.Value)
	}

	ctx, cancel := n.withTimeout(ctx)
	defer cancel()
	chainID, err := n.client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain id: %w", err)
	}
	nonce, err := n.client.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}

	unsigned := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: big.NewInt(tx.MaxPriorityFeePerGas),
		GasFeeCap: big.NewInt(tx.MaxFeePerGas),
		Gas:       tx.GasLimit,
		To:        &to,
		Value:     value,
	})
	signed, err := types.SignTx(unsigned, types.LatestSignerForChainID(chainID), key)
	if err != nil {
		return nil, err
	}
	return signed.MarshalBinary()
}

// SendSignedTransaction broadcasts payload and waits for its receipt.
func (n *EthNode) SendSignedTransaction(ctx context.Context, payload []byte) (*models.Receipt, error) {
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(payload); err != nil {
		return nil, fmt.Errorf("malformed signed transaction: %w", err)
	}

	sendCtx, cancel := n.withTimeout(ctx)
	err := n.client.SendTransaction(sendCtx, tx)
	cancel()
	if err != nil {
		return nil, err
	}
	return n.waitReceipt(ctx, tx.Hash())
}

func (n *EthNode) waitReceipt(ctx context.Context, hash common.Hash) (*models.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, ReceiptTimeout)
	defer cancel()

	ticker := time.NewTicker(ReceiptPoll)
	defer ticker.Stop()

	for {
		receipt, err := n.client.TransactionReceipt(ctx, hash)
		if err == nil {
			out := &models.Receipt{
				TxHash:  receipt.TxHash.Hex(),
				GasUsed: receipt.GasUsed,
				Status:  receipt.Status,
			}
			if receipt.BlockNumber != nil {
				out.BlockNumber = receipt.BlockNumber.Uint64()
			}
			return out, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for receipt of %s: %w", hash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}

// Call performs a read-only ERC20 method call against contract and returns
// its first output. Hex address strings in args are converted to addresses.
func (n *EthNode) Call(ctx context.Context, contract, method string, args ...interface{}) (interface{}, error) {
	if !common.IsHexAddress(contract) {
		return nil, fmt.Errorf("invalid contract address %q", contract)
	}
	parsed := erc20()
	args = append([]interface{}(nil), args...)
	for i, a := range args {
		if s, ok := a.(string); ok && common.IsHexAddress(s) {
			args[i] = common.HexToAddress(s)
		}
	}
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}

	to := common.HexToAddress(contract)
	ctx, cancel := n.withTimeout(ctx)
	defer cancel()
	out, err := n.client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, err
	}
	values, err := parsed.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s returned no data", method)
	}
	return values[0], nil
}

// Probe checks liveness and chain id of a configured network.
func Probe(ctx context.Context, network models.Network, timeout time.Duration) models.ProbeResult {
	res := models.ProbeResult{NetworkID: network.ID, Name: network.Name, URL: network.RPCURL}
	node, err := DialNode(ctx, network.RPCURL, timeout)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	defer node.Close()

	listening, err := node.IsListening(ctx)
	if err != nil {
		res.Error = fmt.Sprintf("liveness check failed: %v", err)
		return res
	}
	res.Listening = listening

	id, err := node.ChainID(ctx)
	if err != nil {
		res.Error = fmt.Sprintf("failed to get chain id: %v", err)
		return res
	}
	res.ChainID = id.Int64()
	return res
}
