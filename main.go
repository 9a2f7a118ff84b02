package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
)

// Version should be set during build
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "zondwallet",
		Usage:   "Zond wallet session manager",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Path to configuration file"},
			&cli.StringFlag{Name: "log-level", Usage: "Override the configured log level"},
		},
		Action: runTUI,
		Commands: []*cli.Command{
			{
				Name:   "tui",
				Usage:  "Run the interactive wallet (default)",
				Action: runTUI,
			},
			{
				Name:  "serve",
				Usage: "Run in headless server mode",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "port", Usage: "Port for API server"},
				},
				Action: runServe,
			},
			{
				Name:   "check",
				Usage:  "Probe every configured network and exit",
				Flags:  []cli.Flag{jsonFlag},
				Action: runCheck,
			},
			{
				Name:  "accounts",
				Usage: "Manage accounts of the selected network",
				Subcommands: []*cli.Command{
					{Name: "list", Usage: "List accounts with balances", Flags: []cli.Flag{jsonFlag}, Action: runAccountsList},
					{Name: "add", Usage: "Add an account", ArgsUsage: "ADDRESS", Action: runAccountsAdd},
					{Name: "use", Usage: "Select the active account", ArgsUsage: "ADDRESS", Action: runAccountsUse},
					{Name: "clear", Usage: "Clear the active account", Action: runAccountsClear},
					{Name: "new-mnemonic", Usage: "Generate a fresh 24-word recovery phrase", Flags: []cli.Flag{jsonFlag}, Action: runAccountsNewMnemonic},
				},
			},
			{
				Name:  "network",
				Usage: "Show or switch the selected network",
				Subcommands: []*cli.Command{
					{Name: "show", Usage: "Show the network catalogue and connection", Flags: []cli.Flag{jsonFlag}, Action: runNetworkShow},
					{Name: "switch", Usage: "Switch to another network", ArgsUsage: "ID", Action: runNetworkSwitch},
				},
			},
			{
				Name:  "send",
				Usage: "Send native coins from the active account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "from", Usage: "Sender address (defaults to the active account)"},
					&cli.StringFlag{Name: "to", Required: true, Usage: "Recipient address"},
					&cli.Float64Flag{Name: "amount", Required: true, Usage: "Amount in display units"},
					&cli.StringFlag{Name: "mnemonic-file", Usage: "Read the mnemonic from a file instead of stdin"},
					jsonFlag,
				},
				Action: runSend,
			},
			{
				Name:      "token",
				Usage:     "Describe an ERC20 token for the active account",
				ArgsUsage: "CONTRACT",
				Flags:     []cli.Flag{jsonFlag},
				Action:    runToken,
			},
			{
				Name:  "config",
				Usage: "Manage the configuration file",
				Subcommands: []*cli.Command{
					{
						Name:   "init",
						Usage:  "Write the default configuration",
						Flags:  []cli.Flag{&cli.BoolFlag{Name: "force", Usage: "Overwrite an existing file"}},
						Action: runConfigInit,
					},
					{Name: "restore", Usage: "Restore the last configuration backup", Action: runConfigRestore},
				},
			},
		},
	}
}
