package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"zondwallet/pkg/config"
	"zondwallet/pkg/logging"
	"zondwallet/pkg/metrics"
	"zondwallet/pkg/models"
	"zondwallet/pkg/registry"
	"zondwallet/pkg/rpc"
	"zondwallet/pkg/secret"
	"zondwallet/pkg/server"
	"zondwallet/pkg/tui"
	"zondwallet/pkg/wallet"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/term"
)

var jsonFlag = &cli.BoolFlag{Name: "json", Usage: "Output results as JSON"}

// session bundles everything a command needs to talk to the wallet engine.
type session struct {
	cfg      config.Config
	path     string
	logger   *zap.Logger
	metrics  *metrics.Metrics
	registry registry.Registry
	engine   *wallet.Engine
}

func configPath(c *cli.Context, env config.Env) (string, error) {
	custom := c.String("config")
	if custom == "" {
		custom = env.ConfigPath
	}
	path, err := config.GetConfigPath(custom)
	if err != nil {
		return "", fmt.Errorf("error determining config path: %w", err)
	}
	return path, nil
}

func loadConfig(c *cli.Context) (config.Config, string, error) {
	env, err := config.LoadEnv()
	if err != nil {
		return config.Config{}, "", err
	}
	path, err := configPath(c, env)
	if err != nil {
		return config.Config{}, "", err
	}
	cfg, err := config.LoadConfigFromFile(path)
	if err != nil {
		return config.Config{}, "", fmt.Errorf("error loading config from %s: %w", path, err)
	}
	cfg.ApplyEnv(env)
	if lvl := c.String("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, "", err
	}
	return cfg, path, nil
}

func openSession(c *cli.Context, interactive bool) (*session, error) {
	cfg, path, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	var logger *zap.Logger
	if interactive {
		logger, err = logging.ForTUI(cfg.LogLevel, cfg.LogFile)
	} else {
		logger, err = logging.New(cfg.LogLevel, cfg.LogFile)
	}
	if err != nil {
		return nil, err
	}

	reg, err := registry.Open(cfg, path, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	m := metrics.New()
	opts := wallet.OptionsFromConfig(cfg)
	opts.Registry = reg
	opts.Logger = logger
	opts.Metrics = m
	engine, err := wallet.New(opts)
	if err != nil {
		_ = reg.Close()
		return nil, err
	}

	return &session{cfg: cfg, path: path, logger: logger, metrics: m, registry: reg, engine: engine}, nil
}

func (s *session) Close() {
	s.engine.Close()
	if err := s.registry.Close(); err != nil {
		s.logger.Warn("failed to close registry", zap.Error(err))
	}
	_ = s.logger.Sync()
}

// withEngine opens a session, loads the persisted state and runs fn.
func withEngine(c *cli.Context, fn func(s *session) error) error {
	s, err := openSession(c, false)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.engine.Initialize(c.Context); err != nil {
		return err
	}
	return fn(s)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func requireArg(c *cli.Context, name string) (string, error) {
	arg := strings.TrimSpace(c.Args().First())
	if arg == "" {
		return "", cli.Exit(fmt.Sprintf("missing %s argument", name), 2)
	}
	return arg, nil
}

func runTUI(c *cli.Context) error {
	s, err := openSession(c, true)
	if err != nil {
		return err
	}
	defer s.Close()
	return tui.Start(c.Context, s.engine, Version)
}

func runServe(c *cli.Context) error {
	s, err := openSession(c, false)
	if err != nil {
		return err
	}
	defer s.Close()

	port := s.cfg.Port
	if c.IsSet("port") {
		port = c.Int("port")
	}
	if err := s.engine.Initialize(c.Context); err != nil {
		return err
	}
	s.logger.Info("running in server mode", zap.Int("port", port), zap.String("network", s.engine.Network().ID))
	return server.NewServer(s.engine, s.metrics, s.logger).Start(c.Context, port)
}

func runCheck(c *cli.Context) error {
	cfg, path, err := loadConfig(c)
	if err != nil {
		return err
	}
	asJSON := c.Bool("json")
	out := c.App.Writer

	report := models.CheckReport{ConfigPath: path, Healthy: true}
	if !asJSON {
		fmt.Fprintf(out, "Testing configuration at: %s\n", path)
		fmt.Fprintf(out, "Found %d networks.\n", len(cfg.Networks))
	}
	for _, n := range cfg.Networks {
		if !asJSON {
			fmt.Fprintf(out, "  %s (%s) %s ... ", n.ID, n.Name, n.RPCURL)
		}
		res := rpc.Probe(c.Context, n, cfg.RPCTimeout())
		if !res.Listening {
			report.Healthy = false
		}
		if !asJSON {
			switch {
			case res.Error != "":
				fmt.Fprintf(out, "Failed: %s\n", res.Error)
			case !res.Listening:
				fmt.Fprintf(out, "Not listening (ChainID: %d)\n", res.ChainID)
			default:
				fmt.Fprintf(out, "OK (ChainID: %d)\n", res.ChainID)
			}
		}
		report.Networks = append(report.Networks, res)
	}

	if asJSON {
		if err := printJSON(out, report); err != nil {
			return err
		}
	}
	if !report.Healthy {
		return cli.Exit("one or more networks are unreachable", 1)
	}
	return nil
}

func printAccounts(w io.Writer, snap models.Snapshot) {
	fmt.Fprintf(w, "Network: %s (%s) connected=%t\n", snap.Connection.NetworkName, snap.Connection.NetworkID, snap.Connection.IsConnected)
	if len(snap.Accounts.Accounts) == 0 {
		fmt.Fprintln(w, "No accounts.")
		return
	}
	for _, a := range snap.Accounts.Accounts {
		marker := " "
		if a.Address == snap.ActiveAccount {
			marker = "*"
		}
		line := fmt.Sprintf("%s %s  %s", marker, a.Address, a.Balance)
		if a.Status == models.BalanceUnavailable {
			line += "  (unavailable)"
		}
		fmt.Fprintln(w, line)
	}
}

func runAccountsList(c *cli.Context) error {
	return withEngine(c, func(s *session) error {
		snap := s.engine.Snapshot()
		if c.Bool("json") {
			return printJSON(c.App.Writer, snap)
		}
		printAccounts(c.App.Writer, snap)
		return nil
	})
}

func runAccountsAdd(c *cli.Context) error {
	addr, err := requireArg(c, "ADDRESS")
	if err != nil {
		return err
	}
	return withEngine(c, func(s *session) error {
		if err := s.engine.AddAccount(c.Context, addr); err != nil {
			return err
		}
		printAccounts(c.App.Writer, s.engine.Snapshot())
		return nil
	})
}

func runAccountsUse(c *cli.Context) error {
	addr, err := requireArg(c, "ADDRESS")
	if err != nil {
		return err
	}
	return withEngine(c, func(s *session) error {
		if err := s.engine.SetActiveAccount(c.Context, addr); err != nil {
			return err
		}
		printAccounts(c.App.Writer, s.engine.Snapshot())
		return nil
	})
}

func runAccountsClear(c *cli.Context) error {
	return withEngine(c, func(s *session) error {
		if err := s.engine.RemoveActiveAccount(c.Context); err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, "Active account cleared.")
		return nil
	})
}

// runAccountsNewMnemonic prints a new phrase. Nothing is stored.
func runAccountsNewMnemonic(c *cli.Context) error {
	phrase, err := secret.NewMnemonic()
	if err != nil {
		return fmt.Errorf("failed to generate mnemonic: %w", err)
	}
	if c.Bool("json") {
		return printJSON(c.App.Writer, map[string]string{"mnemonic": phrase})
	}
	fmt.Fprintln(c.App.Writer, phrase)
	return nil
}

func runNetworkShow(c *cli.Context) error {
	return withEngine(c, func(s *session) error {
		snap := s.engine.Snapshot()
		if c.Bool("json") {
			return printJSON(c.App.Writer, map[string]interface{}{
				"connection": snap.Connection,
				"networks":   s.engine.ListNetworks(),
			})
		}
		for _, n := range s.engine.ListNetworks() {
			marker := " "
			if n.ID == snap.Connection.NetworkID {
				marker = "*"
			}
			fmt.Fprintf(c.App.Writer, "%s %-10s %-18s %s\n", marker, n.ID, n.Name, n.RPCURL)
		}
		fmt.Fprintf(c.App.Writer, "connected=%t\n", snap.Connection.IsConnected)
		return nil
	})
}

func runNetworkSwitch(c *cli.Context) error {
	id, err := requireArg(c, "ID")
	if err != nil {
		return err
	}
	return withEngine(c, func(s *session) error {
		if err := s.engine.SwitchNetwork(c.Context, id); err != nil {
			return err
		}
		printAccounts(c.App.Writer, s.engine.Snapshot())
		return nil
	})
}

func readMnemonic(c *cli.Context) (string, error) {
	if file := c.String("mnemonic-file"); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read mnemonic file: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	if f, ok := c.App.Reader.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(c.App.ErrWriter, "Enter mnemonic: ")
		defer fmt.Fprintln(c.App.ErrWriter)
		raw, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", fmt.Errorf("failed to read mnemonic: %w", err)
		}
		defer clear(raw)
		return strings.TrimSpace(string(raw)), nil
	}
	line, err := bufio.NewReader(c.App.Reader).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func runSend(c *cli.Context) error {
	return withEngine(c, func(s *session) error {
		from := c.String("from")
		if from == "" {
			from = s.engine.Snapshot().ActiveAccount
		}
		if from == "" {
			return wallet.ErrNoActiveAccount
		}
		mnemonic, err := readMnemonic(c)
		if err != nil {
			return err
		}

		res := s.engine.Send(c.Context, from, c.String("to"), c.Float64("amount"), mnemonic)
		if c.Bool("json") {
			if err := printJSON(c.App.Writer, res); err != nil {
				return err
			}
		} else if res.OK() {
			fmt.Fprintf(c.App.Writer, "Transaction %s mined in block %d (gas used %d)\n",
				res.Receipt.TxHash, res.Receipt.BlockNumber, res.Receipt.GasUsed)
		}
		if !res.OK() {
			return cli.Exit(res.Error, 1)
		}
		return nil
	})
}

func runToken(c *cli.Context) error {
	contract, err := requireArg(c, "CONTRACT")
	if err != nil {
		return err
	}
	return withEngine(c, func(s *session) error {
		details, err := s.engine.DescribeToken(c.Context, contract)
		if err != nil {
			return err
		}
		if c.Bool("json") {
			return printJSON(c.App.Writer, details)
		}
		fmt.Fprintf(c.App.Writer, "%s (%s)\n  decimals:     %d\n  total supply: %g\n  balance:      %g\n",
			details.Name, details.Symbol, details.Decimals, details.TotalSupply, details.Balance)
		return nil
	})
}

func runConfigInit(c *cli.Context) error {
	env, err := config.LoadEnv()
	if err != nil {
		return err
	}
	path, err := configPath(c, env)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return cli.Exit(fmt.Sprintf("%s already exists, use --force to overwrite", path), 1)
	}
	if err := config.SaveConfig(config.Default(), path); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Configuration written to %s\n", path)
	return nil
}

func runConfigRestore(c *cli.Context) error {
	env, err := config.LoadEnv()
	if err != nil {
		return err
	}
	path, err := configPath(c, env)
	if err != nil {
		return err
	}
	if err := config.RestoreLastBackup(path); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Configuration restored at %s\n", path)
	return nil
}
