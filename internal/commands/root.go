// Package commands defines the logward CLI.
package commands

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "logward",
	Short: "Multi-tenant log management service",
	Long: `logward ingests application and device logs for multiple tenants,
correlates failed login attempts into alerts, and enforces storage
retention, all behind a role-scoped REST API.`,
	Version: "0.1.0",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
}
