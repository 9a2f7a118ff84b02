package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"zondwallet/pkg/models"
	"zondwallet/pkg/utils"
	"zondwallet/pkg/wallet"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"
)

func listenForEngine(sub wallet.Subscriber) tea.Cmd {
	if sub == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-sub
		if !ok {
			return nil
		}
		return ev
	}
}

// run executes an engine operation off the UI loop and reports its outcome.
func (m model) run(action string, fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return opResultMsg{action: action, err: fn(ctx)}
	}
}

func (m model) describeToken(contract string) tea.Cmd {
	ctx, e := m.ctx, m.engine
	return func() tea.Msg {
		details, err := e.DescribeToken(ctx, contract)
		return tokenResultMsg{details: details, err: err}
	}
}

func (m model) send(from, to string, value float64, mnemonic string) tea.Cmd {
	ctx, e := m.ctx, m.engine
	return func() tea.Msg {
		return txResultMsg(e.Send(ctx, from, to, value, mnemonic))
	}
}

func clearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return clearStatusMsg{} })
}

func (m *model) setStatus(msg string, isErr bool) tea.Cmd {
	m.statusMessage = msg
	m.statusIsError = isErr
	return clearStatusAfter(3 * time.Second)
}

func wrapIndex(i, delta, n int) int {
	if n == 0 {
		return 0
	}
	return ((i+delta)%n + n) % n
}

func clampIndex(i, n int) int {
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

func (m model) accounts() []models.Account {
	return m.snapshot.Accounts.Accounts
}

func (m model) selectedAccount() (models.Account, bool) {
	accs := m.accounts()
	if len(accs) == 0 {
		return models.Account{}, false
	}
	return accs[clampIndex(m.cursor, len(accs))], true
}

func networkIndex(networks []models.Network, id string) int {
	for i, n := range networks {
		if n.ID == id {
			return i
		}
	}
	return 0
}

const maxHistory = 120

// recordBalances samples every fetched balance of a freshly built account
// list. Loading toggles arrive as EventAccountsLoading and are not sampled.
func (m *model) recordBalances(snap models.Snapshot) {
	if m.balanceHistory == nil {
		m.balanceHistory = make(map[string][]float64)
	}
	for _, acc := range snap.Accounts.Accounts {
		if acc.Status != models.BalanceOK {
			continue
		}
		v, err := strconv.ParseFloat(utils.RawAmount(acc.Balance), 64)
		if err != nil {
			continue
		}
		hist := append(m.balanceHistory[acc.Address], v)
		if len(hist) > maxHistory {
			hist = hist[len(hist)-maxHistory:]
		}
		m.balanceHistory[acc.Address] = hist
	}
}

var (
	errNoRecipient = errors.New("recipient is not a valid address")
	errNoMnemonic  = errors.New("mnemonic phrase is required")
)

// parseSendForm validates the send form before anything is signed.
func parseSendForm(to, amount, mnemonic string) (float64, error) {
	if !common.IsHexAddress(strings.TrimSpace(to)) {
		return 0, errNoRecipient
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(amount), 64)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("invalid amount %q", amount)
	}
	if strings.TrimSpace(mnemonic) == "" {
		return 0, errNoMnemonic
	}
	return value, nil
}

// actionLabel turns an operation name into a status line.
func actionLabel(action string, err error) string {
	if err != nil {
		return fmt.Sprintf("%s failed: %v", action, err)
	}
	switch action {
	case "initialize":
		return ""
	case "refresh":
		return "Accounts refreshed"
	case "add account":
		return "Account added"
	case "set active":
		return "Active account updated"
	case "clear active":
		return "Active account cleared"
	case "switch network":
		return "Network switched"
	}
	return action + " done"
}
