package models

import (
	"time"
)

// Network describes a selectable blockchain network.
type Network struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	RPCURL string `json:"rpc_url"`
	Symbol string `json:"symbol,omitempty"`
}

// ConnectionState is rebuilt on every (re)initialization of the engine.
type ConnectionState struct {
	IsConnected bool   `json:"is_connected"`
	IsLoading   bool   `json:"is_loading"`
	NetworkName string `json:"network_name"`
	NetworkID   string `json:"network_id"`
}

// BalanceStatus tells a fetched balance apart from a zero placeholder.
type BalanceStatus string

const (
	BalanceOK          BalanceStatus = "ok"
	BalanceUnavailable BalanceStatus = "unavailable"
)

// Account holds a known address and its display balance.
type Account struct {
	Address string        `json:"address"`
	Balance string        `json:"balance"`
	Status  BalanceStatus `json:"status"`
}

// AccountsState is the account registry as seen by readers.
type AccountsState struct {
	Accounts  []Account `json:"accounts"`
	IsLoading bool      `json:"is_loading"`
}

// Snapshot is an immutable copy of the engine state.
type Snapshot struct {
	Connection    ConnectionState `json:"connection"`
	Accounts      AccountsState   `json:"accounts"`
	ActiveAccount string          `json:"active_account"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Accounts.Accounts = append([]Account(nil), s.Accounts.Accounts...)
	return out
}

// Receipt is the subset of a mined transaction receipt surfaced to callers.
type Receipt struct {
	TxHash      string `json:"tx_hash"`
	BlockNumber uint64 `json:"block_number"`
	GasUsed     uint64 `json:"gas_used"`
	Status      uint64 `json:"status"`
}

// TransferRequest is a native-coin transfer in base units.
type TransferRequest struct {
	From                 string
	To                   string
	Value                string // base units, decimal
	GasLimit             uint64
	MaxFeePerGas         int64
	MaxPriorityFeePerGas int64
}

// TransactionResult carries either a receipt or an error message.
type TransactionResult struct {
	Receipt *Receipt `json:"receipt,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// OK reports whether the transaction produced a receipt.
func (r TransactionResult) OK() bool {
	return r.Receipt != nil && r.Error == ""
}

// TokenDetails holds ERC20 metadata and the active account's balance.
type TokenDetails struct {
	Contract    string  `json:"contract"`
	Name        string  `json:"name"`
	Symbol      string  `json:"symbol"`
	Decimals    uint8   `json:"decimals"`
	TotalSupply float64 `json:"total_supply"`
	Balance     float64 `json:"balance"`
}

// ProbeResult holds the outcome of probing a configured network.
type ProbeResult struct {
	NetworkID string `json:"network_id"`
	Name      string `json:"name"`
	URL       string `json:"url"`
	Listening bool   `json:"listening"`
	ChainID   int64  `json:"chain_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// CheckReport holds the results of probing every configured network.
type CheckReport struct {
	ConfigPath string        `json:"config_path"`
	Networks   []ProbeResult `json:"networks"`
	Healthy    bool          `json:"healthy"`
}
