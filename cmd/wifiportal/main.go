// Wifiportal runs a captive-portal WiFi provisioning service.
//
// On a fresh device it starts an access point with captive DNS and serves a
// form where the user enters WiFi credentials. The credentials are stored
// and the device reboots into station mode (joining that network) or
// hotspot mode (broadcasting its own). If the network cannot be joined
// within the connect window the device falls back to the form.
//
// Usage:
//
//	wifiportal [command] [flags]
//
// Running without arguments boots the portal.
// See 'wifiportal --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/wifiportal/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Global flags
var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "wifiportal",
	Short: "Captive-portal WiFi provisioning",
	Long: `A captive-portal WiFi provisioning service.

The device boots into one of three modes stored alongside the credentials:
  SETTINGS  access point "Wemos" with the configuration form
  HOTSPOT   access point with the stored SSID and password
  STATION   joins the stored network, falling back to SETTINGS after 30s

If no command is specified, the portal is booted (same as 'run').`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPortal(cmd, args)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Settings file (default $XDG_CONFIG_HOME/wifiportal/settings.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the settings file")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "wifiportal %s\n%s\n", version.Full(), version.Platform())
	},
}
