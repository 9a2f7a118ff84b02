package tui

import (
	"fmt"
	"strings"
	"time"

	"zondwallet/pkg/models"
	"zondwallet/pkg/utils"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

func (m model) View() string {
	if m.showHelp {
		return m.viewHelp()
	}
	if m.adding {
		return m.viewModal("Add Account", "Enter account address:", m.addressInput.View())
	}
	if m.lookingUpToken {
		return m.viewModal("Token Lookup", "Enter ERC20 contract address:", m.tokenInput.View())
	}
	if m.sending {
		return m.viewSend()
	}
	if m.choosingNetwork {
		return m.viewNetworks()
	}
	if m.showGraph {
		return m.viewBalanceGraph()
	}

	conn := m.snapshot.Connection
	title := fmt.Sprintf("Zond Wallet - %s", conn.NetworkName)
	if n := len(m.accounts()); n > 1 {
		title = fmt.Sprintf("Zond Wallet - %s (%d/%d)", conn.NetworkName, clampIndex(m.cursor, n)+1, n)
	}
	header := titleStyle.Render(title)

	targetWidth := m.width - 4
	if targetWidth < 0 {
		targetWidth = 0
	}

	sections := []string{header, "\n", m.viewAccounts()}

	active := subtleStyle.Render("No active account")
	if m.snapshot.ActiveAccount != "" {
		active = "Active: " + activeStyle.Render(m.maskAddress(m.snapshot.ActiveAccount))
	}
	sections = append(sections, "\n", active)

	if m.token != nil {
		sections = append(sections, "\n", m.viewToken())
	}
	if m.lastTx != nil {
		sections = append(sections, "\n", m.viewTx())
	}

	content := boxStyle.Width(targetWidth).Align(lipgloss.Center).Render(
		lipgloss.JoinVertical(lipgloss.Center, sections...),
	)

	// Footer
	line1 := "enter:use • x:clear • a:add • r:ref • c:cpy • ?:hlp • q:quit"
	if len(m.accounts()) > 1 {
		line1 = "Tab:cycle • " + line1
	}
	line2 := fmt.Sprintf("n:net • s:send • t:token • g:graph • P:prv • v%s", Version)

	var footer string
	if m.width > 0 {
		l1 := subtleStyle.Width(m.width).Align(lipgloss.Center).Render(line1)
		l2 := subtleStyle.Width(m.width).Align(lipgloss.Center).Render(line2)
		footer = lipgloss.JoinVertical(lipgloss.Center, l1, l2)
	} else {
		footer = subtleStyle.Render(line1 + "\n" + line2)
	}
	if m.statusMessage != "" {
		style := infoStyle
		if m.statusIsError {
			style = errStyle
		}
		footer = lipgloss.JoinVertical(lipgloss.Center, style.Render(m.statusMessage), footer)
	}

	h := m.height - 1
	if h < 0 {
		h = 0
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.viewTopBar(),
		lipgloss.Place(
			m.width,
			h,
			lipgloss.Center,
			lipgloss.Center,
			lipgloss.JoinVertical(lipgloss.Center, content, "\n", footer),
		),
	)
}

func (m model) viewTopBar() string {
	conn := m.snapshot.Connection
	var status string
	switch {
	case conn.IsLoading:
		status = warnStyle.Render("● Connecting")
	case conn.IsConnected:
		status = infoStyle.Render("● Connected")
	default:
		status = errStyle.Render("● Disconnected")
	}
	leftBlock := lipgloss.JoinHorizontal(lipgloss.Top,
		subtleStyle.Render(" "+conn.NetworkID+" "),
		status,
	)

	right := "Never updated"
	if !m.lastUpdate.IsZero() {
		right = fmt.Sprintf("Updated %s ago", time.Since(m.lastUpdate).Round(time.Second))
	}
	if m.loading() {
		right = m.spinner.View() + " " + right
	}
	if m.privacyMode {
		right = "🔒 " + right
	}
	rightBlock := subtleStyle.Render(right + " ")

	gap := m.width - lipgloss.Width(leftBlock) - lipgloss.Width(rightBlock)
	if gap < 0 {
		gap = 0
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, leftBlock, strings.Repeat(" ", gap), rightBlock)
}

func (m model) viewAccounts() string {
	accs := m.accounts()
	if len(accs) == 0 {
		if m.snapshot.Accounts.IsLoading {
			return subtleStyle.Render("Loading accounts...")
		}
		return subtleStyle.Render("No accounts yet. Press 'a' to add one.")
	}

	rows := []string{tableHeaderStyle.Render(fmt.Sprintf("  %-44s %22s", "ADDRESS", "BALANCE"))}
	cursor := clampIndex(m.cursor, len(accs))
	for i, acc := range accs {
		marker := " "
		if acc.Address == m.snapshot.ActiveAccount {
			marker = "★"
		}
		bal := m.displayBalance(acc)
		row := fmt.Sprintf("%s %-44s %22s", marker, m.maskAddress(acc.Address), bal)
		switch {
		case i == cursor:
			row = selectedStyle.Render(row)
		case acc.Address == m.snapshot.ActiveAccount:
			row = activeStyle.Render(row)
		}
		if acc.Status == models.BalanceUnavailable {
			row += " " + errStyle.Render("(unavailable)")
		}
		rows = append(rows, row)
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m model) viewToken() string {
	t := m.token
	lines := []string{
		subtleStyle.Render("Token " + utils.ShortAddress(t.Contract)),
		fmt.Sprintf("%-14s %s (%s)", "Name", t.Name, t.Symbol),
		fmt.Sprintf("%-14s %d", "Decimals", t.Decimals),
		fmt.Sprintf("%-14s %s", "Total supply", m.maskFloat(t.TotalSupply)),
		fmt.Sprintf("%-14s %s %s", "Balance", m.maskFloat(t.Balance), t.Symbol),
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m model) viewTx() string {
	tx := m.lastTx
	if !tx.OK() {
		return errStyle.Render(utils.TruncateString(tx.Error, 80))
	}
	r := tx.Receipt
	return lipgloss.JoinVertical(lipgloss.Left,
		subtleStyle.Render("Last transaction"),
		fmt.Sprintf("%-8s %s", "Hash", utils.TruncateString(r.TxHash, 66)),
		fmt.Sprintf("%-8s %d", "Block", r.BlockNumber),
		fmt.Sprintf("%-8s %d", "Gas", r.GasUsed),
	)
}

func (m model) viewBalanceGraph() string {
	acc, _ := m.selectedAccount()
	header := titleStyle.Render(fmt.Sprintf("Balance History: %s", m.maskAddress(acc.Address)))

	var graph string
	hist := m.balanceHistory[acc.Address]
	switch {
	case m.privacyMode:
		graph = "Hidden in Privacy Mode."
	case len(hist) < 2:
		graph = "Not enough data to draw graph. Refresh with 'r' to sample balances."
	default:
		width := m.width - 16
		if width < 10 {
			width = 10
		}
		height := m.height - 12
		if height < 3 {
			height = 3
		}
		graph = asciigraph.Plot(hist,
			asciigraph.Height(height),
			asciigraph.Width(width),
			asciigraph.Caption(fmt.Sprintf("Balance per refresh (%s)", m.unit())),
		)
	}

	content := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Center, header, "\n", graph))
	footer := subtleStyle.Render("Tab: next account • g/q/esc: back")
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, lipgloss.JoinVertical(lipgloss.Center, content, "\n", footer))
}

func (m model) viewModal(title, prompt, input string) string {
	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render(title),
			"\n",
			prompt,
			input,
			"\n",
			subtleStyle.Render("Enter to confirm • Esc to cancel"),
		)),
	)
}

func (m model) viewSend() string {
	labels := []string{"To", "Amount", "Mnemonic"}
	var inputs []string
	for i, label := range labels {
		inputs = append(inputs, fmt.Sprintf("%-10s %s", label, m.sendInputs[i].View()))
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Send "+m.unit()),
		"\n",
		"From: "+m.maskAddress(m.snapshot.ActiveAccount),
		"\n",
		strings.Join(inputs, "\n"),
		"\n",
		subtleStyle.Render("Tab to move • Enter to next/send • Esc to cancel"),
	)
	if m.statusMessage != "" && m.statusIsError {
		body = lipgloss.JoinVertical(lipgloss.Left, body, errStyle.Render(m.statusMessage))
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, boxStyle.Render(body))
}

func (m model) viewNetworks() string {
	var rows []string
	for i, n := range m.networks {
		marker := "  "
		if n.ID == m.snapshot.Connection.NetworkID {
			marker = "★ "
		}
		row := fmt.Sprintf("%s%-10s %-18s %s", marker, n.ID, n.Name, utils.TruncateString(n.RPCURL, 40))
		if i == m.networkIdx {
			row = selectedStyle.Render(row)
		}
		rows = append(rows, row)
	}
	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Select Network"),
			"\n",
			strings.Join(rows, "\n"),
			"\n",
			subtleStyle.Render("↑/↓ to move • Enter to switch • Esc to cancel"),
		)),
	)
}

func (m model) viewHelp() string {
	shortcuts := []string{
		"Tab/j/Down: Next Account",
		"S-Tab/k/Up: Prev Account",
		"enter: Use As Active Account",
		"x: Clear Active Account",
		"a: Add Account",
		"r: Refresh Balances",
		"c: Copy Address",
		"n: Switch Network",
		"s: Send From Active Account",
		"t: Token Lookup",
		"g: Balance History",
		"P: Toggle Privacy",
		"q/esc: Quit",
		"?: Toggle Help",
	}

	header := titleStyle.Render("Help: Main View")
	content := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, "\n", strings.Join(shortcuts, "\n")))
	footer := subtleStyle.Render("Press '?' or 'esc' to close")

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, content, "\n", footer),
	)
}

func (m model) unit() string {
	id := m.snapshot.Connection.NetworkID
	for _, n := range m.networks {
		if n.ID == id && n.Symbol != "" {
			return n.Symbol
		}
	}
	return utils.DefaultUnit
}
