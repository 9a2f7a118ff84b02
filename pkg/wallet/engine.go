// Package wallet implements the wallet session engine: it owns the selected
// network, the node connection, the account registry and the active account,
// and publishes immutable snapshots of that state to subscribers.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"zondwallet/pkg/config"
	"zondwallet/pkg/metrics"
	"zondwallet/pkg/models"
	"zondwallet/pkg/registry"
	"zondwallet/pkg/rpc"
	"zondwallet/pkg/secret"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

var (
	ErrUnknownNetwork   = errors.New("unknown network")
	ErrInvalidAddress   = errors.New("invalid address")
	ErrNotConnected     = errors.New("no node connection")
	ErrNoActiveAccount  = errors.New("no active account")
	ErrCouldNotSign     = errors.New("transaction could not be signed")
	ErrTokenUnavailable = errors.New("could not retrieve the token with the entered contract address")
)

// Options configures a new Engine.
type Options struct {
	Networks             []models.Network
	DefaultNetwork       string
	Registry             registry.Registry
	Dialer               rpc.Dialer
	Deriver              secret.Deriver
	Logger               *zap.Logger
	Metrics              *metrics.Metrics
	MaxConcurrentFetches int
	TokenCacheTTL        time.Duration
}

// OptionsFromConfig fills the configuration-derived options.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		Networks:             cfg.Networks,
		DefaultNetwork:       cfg.DefaultNetwork,
		Dialer:               rpc.NewDialer(cfg.RPCTimeout()),
		Deriver:              secret.Bip39{},
		MaxConcurrentFetches: cfg.MaxConcurrentFetches,
		TokenCacheTTL:        cfg.TokenCacheTTL(),
	}
}

// Engine is the single source of truth for a wallet session. Mutating
// operations are serialized; readers always observe a complete snapshot.
type Engine struct {
	networks       []models.Network
	defaultNetwork models.Network
	registry       registry.Registry
	dial           rpc.Dialer
	deriver        secret.Deriver
	logger         *zap.Logger
	metrics        *metrics.Metrics
	maxFetches     int
	tokenCache     *cache.Cache

	opMu sync.Mutex

	mu          sync.RWMutex
	network     models.Network
	node        rpc.Node
	state       models.Snapshot
	subscribers []Subscriber
}

// New creates an engine. Call Initialize to load the persisted session.
func New(opts Options) (*Engine, error) {
	if opts.Registry == nil {
		return nil, errors.New("registry is required")
	}
	if len(opts.Networks) == 0 {
		return nil, errors.New("at least one network is required")
	}
	if opts.Dialer == nil {
		opts.Dialer = rpc.Dial
	}
	if opts.Deriver == nil {
		opts.Deriver = secret.Bip39{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.MaxConcurrentFetches <= 0 {
		opts.MaxConcurrentFetches = 8
	}

	e := &Engine{
		networks:   append([]models.Network(nil), opts.Networks...),
		registry:   opts.Registry,
		dial:       opts.Dialer,
		deriver:    opts.Deriver,
		logger:     opts.Logger.Named("wallet"),
		metrics:    opts.Metrics,
		maxFetches: opts.MaxConcurrentFetches,
	}
	if opts.TokenCacheTTL > 0 {
		e.tokenCache = cache.New(opts.TokenCacheTTL, 2*opts.TokenCacheTTL)
	}

	e.defaultNetwork = e.networks[0]
	if n, ok := e.lookupNetwork(opts.DefaultNetwork); ok {
		e.defaultNetwork = n
	}
	e.network = e.defaultNetwork
	e.state = models.Snapshot{
		Connection: models.ConnectionState{NetworkName: e.network.Name, NetworkID: e.network.ID},
		Accounts:   models.AccountsState{Accounts: []models.Account{}},
		UpdatedAt:  time.Now(),
	}
	return e, nil
}

func (e *Engine) lookupNetwork(id string) (models.Network, bool) {
	for _, n := range e.networks {
		if n.ID == id {
			return n, true
		}
	}
	return models.Network{}, false
}

// Subscribe adds a new subscriber and returns a channel to receive events.
func (e *Engine) Subscribe() Subscriber {
	e.mu.Lock()
	defer e.mu.Unlock()
	ch := make(Subscriber, 100)
	e.subscribers = append(e.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscriber.
func (e *Engine) Unsubscribe(ch Subscriber) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, sub := range e.subscribers {
		if sub == ch {
			e.subscribers = append(e.subscribers[:i], e.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

func (e *Engine) notify(event Event) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, sub := range e.subscribers {
		select {
		case sub <- event:
		default:
			// slow subscribers miss intermediate states; the next event carries the full snapshot
		}
	}
}

// publish applies fn to the state under the write lock and broadcasts the
// resulting snapshot.
func (e *Engine) publish(typ EventType, fn func(s *models.Snapshot)) models.Snapshot {
	e.mu.Lock()
	fn(&e.state)
	e.state.UpdatedAt = time.Now()
	snap := e.state.Clone()
	e.mu.Unlock()

	e.notify(Event{Type: typ, Snapshot: snap})
	return snap
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() models.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Clone()
}

// Network returns the selected network.
func (e *Engine) Network() models.Network {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.network
}

// ListNetworks returns the configured network catalogue.
func (e *Engine) ListNetworks() []models.Network {
	return append([]models.Network(nil), e.networks...)
}

func (e *Engine) current() (models.Network, rpc.Node) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.network, e.node
}

// Initialize loads the persisted network selection, connects to it and
// rebuilds connection, accounts and active account in that order.
func (e *Engine) Initialize(ctx context.Context) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()
	return e.initialize(ctx)
}

// SwitchNetwork persists a new network selection and re-initializes the
// session against it. An unknown id leaves the session untouched.
func (e *Engine) SwitchNetwork(ctx context.Context, id string) error {
	if _, ok := e.lookupNetwork(id); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNetwork, id)
	}
	e.opMu.Lock()
	defer e.opMu.Unlock()
	if err := e.registry.SetNetwork(ctx, id); err != nil {
		return fmt.Errorf("failed to persist network selection: %w", err)
	}
	return e.initialize(ctx)
}

func (e *Engine) initialize(ctx context.Context) error {
	id, err := e.registry.GetNetwork(ctx)
	if err != nil {
		return fmt.Errorf("failed to read network selection: %w", err)
	}
	network, ok := e.lookupNetwork(id)
	if !ok {
		if id != "" {
			e.logger.Warn("persisted network is not configured, using default",
				zap.String("network", id), zap.String("default", e.defaultNetwork.ID))
		}
		network = e.defaultNetwork
	}

	e.mu.Lock()
	old := e.node
	e.node = nil
	e.network = network
	e.mu.Unlock()
	if old != nil {
		old.Close()
	}

	e.publish(EventNetworkSwitched, func(s *models.Snapshot) {
		s.Connection = models.ConnectionState{NetworkName: network.Name, NetworkID: network.ID}
		s.Accounts = models.AccountsState{Accounts: []models.Account{}}
		s.ActiveAccount = ""
	})
	e.logger.Info("initializing network", zap.String("network", network.ID), zap.String("url", network.RPCURL))

	node, err := e.dial(ctx, network.RPCURL)
	if err != nil {
		e.logger.Warn("failed to connect to node", zap.String("network", network.ID), zap.Error(err))
	} else {
		e.mu.Lock()
		e.node = node
		e.mu.Unlock()
	}

	e.checkConnection(ctx)
	if err := e.refreshAccounts(ctx); err != nil {
		return err
	}
	return e.validateActiveAccount(ctx)
}

// Close releases the node connection.
func (e *Engine) Close() {
	e.mu.Lock()
	node := e.node
	e.node = nil
	e.mu.Unlock()
	if node != nil {
		node.Close()
	}
}
