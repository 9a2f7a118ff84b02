package rpc

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"zondwallet/pkg/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type rpcHandler func(req rpcRequest) (interface{}, *rpcError)

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// newMockNode serves a JSON-RPC endpoint that dispatches to handler.
func newMockNode(t *testing.T, handler rpcHandler) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		result, rpcErr := handler(req)
		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
		}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)
	return server
}

func dialMock(t *testing.T, url string) *EthNode {
	t.Helper()
	node, err := DialNode(context.Background(), url, 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(node.Close)
	return node
}

func TestIsListening(t *testing.T) {
	server := newMockNode(t, func(req rpcRequest) (interface{}, *rpcError) {
		if req.Method == "net_listening" {
			return true, nil
		}
		return nil, &rpcError{Code: -32601, Message: "method not found"}
	})

	listening, err := dialMock(t, server.URL).IsListening(context.Background())
	require.NoError(t, err)
	assert.True(t, listening)
}

func TestIsListening_Error(t *testing.T) {
	server := newMockNode(t, func(req rpcRequest) (interface{}, *rpcError) {
		return nil, &rpcError{Code: -32000, Message: "boom"}
	})

	_, err := dialMock(t, server.URL).IsListening(context.Background())
	assert.Error(t, err)
}

func TestGetBalance(t *testing.T) {
	server := newMockNode(t, func(req rpcRequest) (interface{}, *rpcError) {
		if req.Method == "eth_getBalance" {
			return "0x22B1C8C1227A0000", nil
		}
		return "0x0", nil
	})
	node := dialMock(t, server.URL)

	bal, err := node.GetBalance(context.Background(), "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B")
	require.NoError(t, err)
	assert.Equal(t, "2500000000000000000", bal.String())

	_, err = node.GetBalance(context.Background(), "not-an-address")
	assert.Error(t, err)
}

func TestSignAndSendTransaction(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	from := crypto.PubkeyToAddress(key.PublicKey)
	to := common.HexToAddress("0x1234567890123456789012345678901234567890")

	var sentHash string
	server := newMockNode(t, func(req rpcRequest) (interface{}, *rpcError) {
		switch req.Method {
		case "eth_chainId":
			return "0x7", nil
		case "eth_getTransactionCount":
			return "0x3", nil
		case "eth_sendRawTransaction":
			var raw string
			_ = json.Unmarshal(req.Params[0], &raw)
			tx := new(types.Transaction)
			if err := tx.UnmarshalBinary(hexutil.MustDecode(raw)); err != nil {
				return nil, &rpcError{Code: -32000, Message: err.Error()}
			}
			sentHash = tx.Hash().Hex()
			return sentHash, nil
		case "eth_getTransactionReceipt":
			return map[string]interface{}{
				"type":              "0x2",
				"status":            "0x1",
				"cumulativeGasUsed": "0x5208",
				"gasUsed":           "0x5208",
				"logsBloom":         "0x" + strings.Repeat("00", 256),
				"logs":              []interface{}{},
				"transactionHash":   sentHash,
				"transactionIndex":  "0x0",
				"blockHash":         "0x0000000000000000000000000000000000000000000000000000000000000001",
				"blockNumber":       "0x10",
				"contractAddress":   nil,
				"effectiveGasPrice": "0x5208",
			}, nil
		}
		return nil, &rpcError{Code: -32601, Message: "method not found"}
	})
	node := dialMock(t, server.URL)
	ctx := context.Background()

	payload, err := node.SignTransaction(ctx, models.TransferRequest{
		From:                 from.Hex(),
		To:                   to.Hex(),
		Value:                "1000000000000000000",
		GasLimit:             21000,
		MaxFeePerGas:         21000,
		MaxPriorityFeePerGas: 21000,
	}, crypto.FromECDSA(key))
	require.NoError(t, err)
	require.NotEmpty(t, payload)

	decoded := new(types.Transaction)
	require.NoError(t, decoded.UnmarshalBinary(payload))
	sender, err := types.Sender(types.LatestSignerForChainID(big.NewInt(7)), decoded)
	require.NoError(t, err)
	assert.Equal(t, from, sender)
	assert.Equal(t, uint64(3), decoded.Nonce())
	assert.Equal(t, uint64(21000), decoded.Gas())
	assert.Equal(t, int64(21000), decoded.GasFeeCap().Int64())
	assert.Equal(t, int64(21000), decoded.GasTipCap().Int64())

	receipt, err := node.SendSignedTransaction(ctx, payload)
	require.NoError(t, err)
	assert.Equal(t, decoded.Hash().Hex(), receipt.TxHash)
	assert.Equal(t, uint64(16), receipt.BlockNumber)
	assert.Equal(t, uint64(1), receipt.Status)
}

func TestSignTransaction_WrongSecret(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	node := &EthNode{}

	_, err = node.SignTransaction(context.Background(), models.TransferRequest{
		From:  "0x1234567890123456789012345678901234567890",
		To:    "0x1234567890123456789012345678901234567890",
		Value: "1",
	}, crypto.FromECDSA(key))
	assert.ErrorContains(t, err, "does not belong")

	_, err = node.SignTransaction(context.Background(), models.TransferRequest{}, nil)
	assert.Error(t, err)
}

func TestSendSignedTransaction_Malformed(t *testing.T) {
	node := &EthNode{}
	_, err := node.SendSignedTransaction(context.Background(), []byte{0x01, 0x02})
	assert.Error(t, err)
}

func TestCall_ERC20(t *testing.T) {
	parsed := erc20()
	holder := common.HexToAddress("0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B")

	server := newMockNode(t, func(req rpcRequest) (interface{}, *rpcError) {
		if req.Method != "eth_call" {
			return nil, &rpcError{Code: -32601, Message: "method not found"}
		}
		var call map[string]string
		_ = json.Unmarshal(req.Params[0], &call)
		input := call["input"]
		if input == "" {
			input = call["data"]
		}
		data := hexutil.MustDecode(input)
		method, err := parsed.MethodById(data[:4])
		if err != nil {
			return nil, &rpcError{Code: -32000, Message: "execution reverted"}
		}
		var out []byte
		switch method.Name {
		case "name":
			out, _ = method.Outputs.Pack("Test Token")
		case "symbol":
			out, _ = method.Outputs.Pack("TST")
		case "decimals":
			out, _ = method.Outputs.Pack(uint8(6))
		case "totalSupply":
			out, _ = method.Outputs.Pack(big.NewInt(1000000000))
		case "balanceOf":
			args, _ := method.Inputs.Unpack(data[4:])
			if args[0].(common.Address) != holder {
				out, _ = method.Outputs.Pack(big.NewInt(0))
			} else {
				out, _ = method.Outputs.Pack(big.NewInt(500000000))
			}
		}
		return hexutil.Encode(out), nil
	})
	node := dialMock(t, server.URL)
	ctx := context.Background()
	contract := "0x1234567890123456789012345678901234567890"

	name, err := node.Call(ctx, contract, "name")
	require.NoError(t, err)
	assert.Equal(t, "Test Token", name)

	decimals, err := node.Call(ctx, contract, "decimals")
	require.NoError(t, err)
	assert.Equal(t, uint8(6), decimals)

	supply, err := node.Call(ctx, contract, "totalSupply")
	require.NoError(t, err)
	assert.Equal(t, "1000000000", supply.(*big.Int).String())

	bal, err := node.Call(ctx, contract, "balanceOf", holder.Hex())
	require.NoError(t, err)
	assert.Equal(t, "500000000", bal.(*big.Int).String())

	_, err = node.Call(ctx, "nope", "name")
	assert.Error(t, err)

	_, err = node.Call(ctx, contract, "transfer")
	assert.Error(t, err)
}

func TestCall_EmptyResult(t *testing.T) {
	server := newMockNode(t, func(req rpcRequest) (interface{}, *rpcError) {
		return "0x", nil
	})
	_, err := dialMock(t, server.URL).Call(context.Background(), "0x1234567890123456789012345678901234567890", "symbol")
	assert.Error(t, err)
}

func TestProbe(t *testing.T) {
	server := newMockNode(t, func(req rpcRequest) (interface{}, *rpcError) {
		switch req.Method {
		case "net_listening":
			return true, nil
		case "eth_chainId":
			return "0x7e7e", nil
		}
		return nil, &rpcError{Code: -32601, Message: "method not found"}
	})

	res := Probe(context.Background(), models.Network{ID: "DEV", Name: "Dev", RPCURL: server.URL}, time.Second)
	assert.Empty(t, res.Error)
	assert.True(t, res.Listening)
	assert.Equal(t, int64(0x7e7e), res.ChainID)

	res = Probe(context.Background(), models.Network{ID: "BAD", RPCURL: "ftp://nowhere"}, time.Second)
	assert.NotEmpty(t, res.Error)
}
