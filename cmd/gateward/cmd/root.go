// Package cmd provides the CLI commands for Gateward.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gateward/gateward/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "gateward",
	Short: "Gateward - MCP gateway control plane",
	Long: `Gateward is the control plane for an MCP gateway deployment.

It enforces token-scope authorization on gateway requests (team
membership, resource visibility, server/IP/time restrictions,
permission rules, optional CEL guard) and brokers elicitation
round trips between upstream servers and downstream clients.

Quick start:
  1. Create a config file: gateward.yaml
  2. Run: gateward start

Configuration:
  Config is loaded from gateward.yaml in the current directory,
  $HOME/.gateward/, or /etc/gateward/.

  Environment variables can override config values with the GATEWARD_
  prefix. Example: GATEWARD_SERVER_HTTP_ADDR=:9090

Commands:
  start       Start the control-plane server
  version     Print version information`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./gateward.yaml)")
}

func initConfig() {
	config.InitViper(cfgFile)
}
