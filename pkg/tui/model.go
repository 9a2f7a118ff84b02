package tui

import (
	"context"
	"time"

	"zondwallet/pkg/models"
	"zondwallet/pkg/wallet"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Version is set by Start()
var Version = "dev"

// --- Messages ---

type clearStatusMsg struct{}
type uiTickMsg time.Time

// opResultMsg reports the outcome of an engine operation run off the UI loop.
type opResultMsg struct {
	action string
	err    error
}

type tokenResultMsg struct {
	details models.TokenDetails
	err     error
}

type txResultMsg models.TransactionResult

// Send form fields.
const (
	sendTo = iota
	sendAmount
	sendMnemonic
)

// --- Model ---

type model struct {
	ctx      context.Context
	engine   *wallet.Engine
	sub      wallet.Subscriber
	snapshot models.Snapshot
	networks []models.Network

	cursor        int
	width         int
	height        int
	busy          bool
	spinner       spinner.Model
	statusMessage string
	statusIsError bool
	lastUpdate    time.Time
	privacyMode   bool
	showHelp      bool
	showGraph     bool

	// balance samples per address, one per completed refresh
	balanceHistory map[string][]float64

	adding       bool
	addressInput textinput.Model

	choosingNetwork bool
	networkIdx      int

	lookingUpToken bool
	tokenInput     textinput.Model
	token          *models.TokenDetails

	sending    bool
	sendFocus  int
	sendInputs []textinput.Model
	lastTx     *models.TransactionResult
}

func initialModel(ctx context.Context, e *wallet.Engine) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ai := textinput.New()
	ai.Placeholder = "0x..."
	ai.Width = 46

	ti := textinput.New()
	ti.Placeholder = "Token contract address"
	ti.Width = 46

	sis := make([]textinput.Model, 3)
	for i := range sis {
		sis[i] = textinput.New()
		sis[i].Width = 50
	}
	sis[sendTo].Placeholder = "Recipient address"
	sis[sendAmount].Placeholder = "Amount (e.g. 1.5)"
	sis[sendMnemonic].Placeholder = "Mnemonic phrase"
	sis[sendMnemonic].EchoMode = textinput.EchoPassword
	sis[sendMnemonic].EchoCharacter = '*'

	m := model{
		ctx:            ctx,
		engine:         e,
		spinner:        s,
		busy:           true,
		balanceHistory: make(map[string][]float64),
		addressInput:   ai,
		tokenInput:     ti,
		sendInputs:     sis,
	}
	if e != nil {
		m.sub = e.Subscribe()
		m.snapshot = e.Snapshot()
		m.networks = e.ListNetworks()
	}
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		listenForEngine(m.sub),
		m.spinner.Tick,
		m.run("initialize", m.engine.Initialize),
		tea.Tick(time.Second, func(t time.Time) tea.Msg { return uiTickMsg(t) }),
	)
}
