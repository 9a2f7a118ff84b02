package tui

import (
	"context"
	"strings"
	"time"

	"zondwallet/pkg/models"
	"zondwallet/pkg/wallet"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case wallet.Event:
		cmds = append(cmds, listenForEngine(m.sub))
		m.snapshot = msg.Snapshot
		m.lastUpdate = msg.Snapshot.UpdatedAt
		m.cursor = clampIndex(m.cursor, len(m.accounts()))
		switch msg.Type {
		case wallet.EventNetworkSwitched:
			m.token = nil
			m.balanceHistory = make(map[string][]float64)
		case wallet.EventAccountsUpdated:
			m.recordBalances(msg.Snapshot)
		}

	case opResultMsg:
		m.busy = false
		if label := actionLabel(msg.action, msg.err); label != "" {
			cmds = append(cmds, m.setStatus(label, msg.err != nil))
		}

	case tokenResultMsg:
		m.busy = false
		if msg.err != nil {
			m.token = nil
			cmds = append(cmds, m.setStatus(msg.err.Error(), true))
		} else {
			details := msg.details
			m.token = &details
		}

	case txResultMsg:
		m.busy = false
		res := models.TransactionResult(msg)
		m.lastTx = &res
		if res.OK() {
			cmds = append(cmds, m.setStatus("Transaction mined in block", false))
		} else {
			cmds = append(cmds, m.setStatus(res.Error, true))
		}

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch {
		case m.adding:
			return m.updateAdding(msg)
		case m.lookingUpToken:
			return m.updateToken(msg)
		case m.sending:
			return m.updateSending(msg)
		case m.choosingNetwork:
			return m.updateNetworkChooser(msg)
		}

		if msg.String() == "?" {
			m.showHelp = !m.showHelp
			return m, nil
		}
		if m.showHelp {
			if msg.String() == "q" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}
		if m.showGraph {
			switch msg.String() {
			case "g", "q", "esc":
				m.showGraph = false
			case "tab", "down", "j":
				m.cursor = wrapIndex(m.cursor, 1, len(m.accounts()))
			case "shift+tab", "up", "k":
				m.cursor = wrapIndex(m.cursor, -1, len(m.accounts()))
			}
			return m, nil
		}

		switch msg.String() {
		case "q", "esc":
			if m.token != nil || m.lastTx != nil {
				m.token = nil
				m.lastTx = nil
				return m, nil
			}
			return m, tea.Quit

		case "tab", "down", "j":
			m.cursor = wrapIndex(m.cursor, 1, len(m.accounts()))
		case "shift+tab", "up", "k":
			m.cursor = wrapIndex(m.cursor, -1, len(m.accounts()))

		case "P":
			m.privacyMode = !m.privacyMode

		case "g":
			if len(m.accounts()) > 0 {
				m.showGraph = true
			}

		case "r":
			if !m.busy {
				m.busy = true
				cmds = append(cmds, m.run("refresh", m.engine.RefreshAccounts), m.spinner.Tick)
			}

		case "enter":
			if acc, ok := m.selectedAccount(); ok && !m.busy {
				m.busy = true
				addr := acc.Address
				cmds = append(cmds, m.run("set active", func(ctx context.Context) error {
					return m.engine.SetActiveAccount(ctx, addr)
				}), m.spinner.Tick)
			}

		case "x":
			if m.snapshot.ActiveAccount != "" && !m.busy {
				m.busy = true
				cmds = append(cmds, m.run("clear active", m.engine.RemoveActiveAccount), m.spinner.Tick)
			}

		case "a":
			m.adding = true
			m.addressInput.SetValue("")
			cmd := m.addressInput.Focus()
			return m, cmd

		case "n":
			m.choosingNetwork = true
			m.networkIdx = networkIndex(m.networks, m.snapshot.Connection.NetworkID)

		case "t":
			if m.snapshot.ActiveAccount == "" {
				cmds = append(cmds, m.setStatus("Select an active account first", true))
				break
			}
			m.lookingUpToken = true
			m.tokenInput.SetValue("")
			cmd := m.tokenInput.Focus()
			return m, cmd

		case "s":
			if m.snapshot.ActiveAccount == "" {
				cmds = append(cmds, m.setStatus("Select an active account first", true))
				break
			}
			m.sending = true
			m.sendFocus = sendTo
			for i := range m.sendInputs {
				m.sendInputs[i].SetValue("")
				m.sendInputs[i].Blur()
			}
			cmd := m.sendInputs[sendTo].Focus()
			return m, cmd

		case "c":
			if acc, ok := m.selectedAccount(); ok {
				if err := clipboard.WriteAll(acc.Address); err != nil {
					cmds = append(cmds, m.setStatus("Failed to copy to clipboard", true))
				} else if m.privacyMode {
					cmds = append(cmds, m.setStatus("Full address copied (Privacy Mode active)!", false))
				} else {
					cmds = append(cmds, m.setStatus("Full address copied to clipboard!", false))
				}
			}
		}

	case uiTickMsg:
		cmds = append(cmds, tea.Tick(time.Second, func(t time.Time) tea.Msg { return uiTickMsg(t) }))

	case clearStatusMsg:
		m.statusMessage = ""
		m.statusIsError = false
	}

	if m.loading() {
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m model) loading() bool {
	return m.busy || m.snapshot.Connection.IsLoading || m.snapshot.Accounts.IsLoading
}

func (m model) updateAdding(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.adding = false
		m.addressInput.Blur()
		return m, nil
	case "enter":
		addr := strings.TrimSpace(m.addressInput.Value())
		m.adding = false
		m.addressInput.Blur()
		if addr == "" {
			return m, nil
		}
		m.busy = true
		return m, tea.Batch(m.run("add account", func(ctx context.Context) error {
			return m.engine.AddAccount(ctx, addr)
		}), m.spinner.Tick)
	}
	var cmd tea.Cmd
	m.addressInput, cmd = m.addressInput.Update(msg)
	return m, cmd
}

func (m model) updateToken(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.lookingUpToken = false
		m.tokenInput.Blur()
		return m, nil
	case "enter":
		contract := strings.TrimSpace(m.tokenInput.Value())
		m.lookingUpToken = false
		m.tokenInput.Blur()
		if contract == "" {
			return m, nil
		}
		m.busy = true
		m.token = nil
		return m, tea.Batch(m.describeToken(contract), m.spinner.Tick)
	}
	var cmd tea.Cmd
	m.tokenInput, cmd = m.tokenInput.Update(msg)
	return m, cmd
}

func (m model) updateSending(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.sending = false
		m.clearSendForm()
		return m, nil
	case "tab", "down":
		cmd := m.focusSendField(wrapIndex(m.sendFocus, 1, len(m.sendInputs)))
		return m, cmd
	case "shift+tab", "up":
		cmd := m.focusSendField(wrapIndex(m.sendFocus, -1, len(m.sendInputs)))
		return m, cmd
	case "enter":
		if m.sendFocus < sendMnemonic {
			cmd := m.focusSendField(m.sendFocus + 1)
			return m, cmd
		}
		to := m.sendInputs[sendTo].Value()
		value, err := parseSendForm(to, m.sendInputs[sendAmount].Value(), m.sendInputs[sendMnemonic].Value())
		if err != nil {
			cmd := m.setStatus(err.Error(), true)
			return m, cmd
		}
		mnemonic := m.sendInputs[sendMnemonic].Value()
		m.sending = false
		m.clearSendForm()
		m.busy = true
		m.lastTx = nil
		cmds := []tea.Cmd{
			m.send(m.snapshot.ActiveAccount, strings.TrimSpace(to), value, mnemonic),
			m.spinner.Tick,
			m.setStatus("Signing and broadcasting...", false),
		}
		return m, tea.Batch(cmds...)
	}
	var cmd tea.Cmd
	m.sendInputs[m.sendFocus], cmd = m.sendInputs[m.sendFocus].Update(msg)
	return m, cmd
}

func (m *model) focusSendField(i int) tea.Cmd {
	m.sendInputs[m.sendFocus].Blur()
	m.sendFocus = i
	return m.sendInputs[i].Focus()
}

// clearSendForm drops the mnemonic from the form as soon as it is not needed.
func (m *model) clearSendForm() {
	inputs := make([]textinput.Model, len(m.sendInputs))
	copy(inputs, m.sendInputs)
	for i := range inputs {
		inputs[i].SetValue("")
		inputs[i].Blur()
	}
	m.sendInputs = inputs
	m.sendFocus = sendTo
}

func (m model) updateNetworkChooser(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "n":
		m.choosingNetwork = false
	case "up", "k":
		m.networkIdx = wrapIndex(m.networkIdx, -1, len(m.networks))
	case "down", "j", "tab":
		m.networkIdx = wrapIndex(m.networkIdx, 1, len(m.networks))
	case "enter":
		m.choosingNetwork = false
		if len(m.networks) == 0 {
			return m, nil
		}
		id := m.networks[m.networkIdx].ID
		m.busy = true
		m.cursor = 0
		return m, tea.Batch(m.run("switch network", func(ctx context.Context) error {
			return m.engine.SwitchNetwork(ctx, id)
		}), m.spinner.Tick)
	}
	return m, nil
}
