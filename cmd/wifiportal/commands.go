package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/wifiportal/internal/boot"
	"github.com/muurk/wifiportal/internal/discovery"
	"github.com/muurk/wifiportal/internal/logging"
	"github.com/muurk/wifiportal/internal/portalclient"
	"github.com/muurk/wifiportal/internal/record"
	"github.com/muurk/wifiportal/internal/settings"
	"github.com/muurk/wifiportal/internal/ui"
	"github.com/muurk/wifiportal/internal/version"
	"github.com/muurk/wifiportal/internal/wizard/tui"
)

func init() {
	addRunFlags(rootCmd)
	addRunFlags(runCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(provisionCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(initConfigCmd)
}

// loadSettings reads the settings file and applies the global flags.
func loadSettings() (*settings.Settings, error) {
	s, err := settings.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		s.Logging.Level = logLevel
	}
	return s, nil
}

// initLogging starts the logger. The portal logs at info by default; the
// other commands stay silent unless asked and never claim the serial
// console or the log file.
func initLogging(s *settings.Settings, daemon bool) error {
	opts := logging.Options{Level: s.Logging.Level}
	if daemon {
		opts.ConsolePort = s.Logging.ConsolePort
		opts.ConsoleBaud = s.Logging.ConsoleBaud
		opts.File = s.Logging.File
		opts.FileMaxMB = s.Logging.FileMaxMB
		if opts.Level == "" && os.Getenv(logging.LogLevelEnvVar) == "" {
			opts.Level = "info"
		}
	}
	return logging.InitializeWithOptions(opts)
}

// Run command flags
type runOptions struct {
	radio       string
	iface       string
	httpAddr    string
	dnsAddr     string
	storage     string
	pages       string
	restart     string
	logFile     string
	console     string
	noDiscovery bool
}

var runOpts runOptions

func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&runOpts.radio, "radio", "", "Radio backend (simulated, networkmanager)")
	f.StringVar(&runOpts.iface, "interface", "", "Wireless interface for the networkmanager backend")
	f.StringVar(&runOpts.httpAddr, "http", "", "Portal listen address (default :80)")
	f.StringVar(&runOpts.dnsAddr, "dns", "", "Captive DNS listen address (default :53)")
	f.StringVar(&runOpts.storage, "storage", "", "Storage image holding the record")
	f.StringVar(&runOpts.pages, "pages", "", "Directory with config.html, index.html and error.html (default built-in)")
	f.StringVar(&runOpts.restart, "restart", "", "Restart strategy (inprocess, exec)")
	f.StringVar(&runOpts.logFile, "log-file", "", "Also log to this file, rotated")
	f.StringVar(&runOpts.console, "console", "", "Mirror the log to this serial port at 115200 baud")
	f.BoolVar(&runOpts.noDiscovery, "no-discovery", false, "Do not advertise over mDNS in station mode")
}

// apply overrides the settings with the flags that were given.
func (o runOptions) apply(s *settings.Settings) {
	if o.radio != "" {
		s.Radio.Backend = o.radio
	}
	if o.iface != "" {
		s.Radio.Interface = o.iface
	}
	if o.httpAddr != "" {
		s.HTTP.Addr = o.httpAddr
	}
	if o.dnsAddr != "" {
		s.DNS.Addr = o.dnsAddr
	}
	if o.storage != "" {
		s.Storage.Path = o.storage
	}
	if o.pages != "" {
		s.Pages.Dir = o.pages
	}
	if o.restart != "" {
		s.Restart = o.restart
	}
	if o.logFile != "" {
		s.Logging.File = o.logFile
	}
	if o.console != "" {
		s.Logging.ConsolePort = o.console
	}
	if o.noDiscovery {
		s.Discovery.Enabled = false
	}
}

// runCmd boots the portal
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Boot the portal",
	Long: `Boot the portal and serve until interrupted.

The stored mode decides what happens: SETTINGS and HOTSPOT start an access
point with captive DNS, STATION joins the stored network. Submitting the
form stores the new configuration and restarts the boot.`,
	Example: `  # Development host, no radio, unprivileged ports
  wifiportal run --radio simulated --http :8080 --dns :5353

  # Linux host with NetworkManager
  sudo wifiportal run --radio networkmanager --interface wlan0

  # Restart by re-executing the binary
  wifiportal run --restart exec`,
	RunE: runPortal,
}

func runPortal(cmd *cobra.Command, args []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	runOpts.apply(s)

	if err := initLogging(s, true); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Close()

	st, err := boot.OpenStore(s)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() { _ = st.Close() }()

	r, err := boot.OpenRadio(s)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	b, err := boot.New(s, st, r)
	if err != nil {
		return err
	}
	restarter, err := boot.NewRestarter(s.Restart)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info("Starting WiFi portal",
		zap.String("version", version.Version),
		zap.String("radio", s.Radio.Backend),
		zap.String("http", s.HTTP.Addr),
		zap.String("dns", s.DNS.Addr),
		zap.String("restart", s.Restart),
	)

	if err := boot.Supervise(ctx, b, restarter); err != nil {
		logging.Error("Portal stopped", zap.Error(err))
		return err
	}

	logging.Info("Portal stopped")
	return nil
}

// Show command flags
var (
	showPass   bool
	showFormat string
)

// showCmd prints the stored record
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored configuration",
	Long: `Display the record in the storage image: boot mode, SSID and password.

The storage image is only read. A missing or corrupt record is reported as
Fresh, which is what the next boot would see.`,
	Example: `  # Show with the password masked
  wifiportal show

  # Reveal the password
  wifiportal show --show-pass

  # JSON output for scripting
  wifiportal show --format json`,
	RunE: runShow,
}

func init() {
	showCmd.Flags().BoolVar(&showPass, "show-pass", false, "Print the password in clear text")
	showCmd.Flags().StringVar(&showFormat, "format", "detailed", "Output format (detailed, json)")
	showCmd.Flags().StringVar(&runOpts.storage, "storage", "", "Storage image holding the record")
}

// storedRecord is the JSON form of the stored record
type storedRecord struct {
	Mode   string `json:"mode"`
	SSID   string `json:"ssid"`
	Pass   string `json:"pass,omitempty"`
	Status string `json:"status"`
}

func runShow(cmd *cobra.Command, args []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	runOpts.apply(s)
	if err := initLogging(s, false); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	rec, status, err := inspect(s)
	if err != nil {
		return err
	}

	switch showFormat {
	case "json":
		out := storedRecord{Mode: rec.Mode.String(), SSID: rec.SSID, Status: status}
		if showPass {
			out.Pass = rec.Pass
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	default:
		ui.NewPrinter(cmd.OutOrStdout()).PrintRecord(rec, status, showPass)
	}
	return nil
}

// inspect reads the stored record without writing or creating the image.
// A missing image or an invalid record reads as the defaults with status
// Fresh.
func inspect(s *settings.Settings) (record.Record, string, error) {
	st, err := boot.OpenStoreReadOnly(s)
	if errors.Is(err, os.ErrNotExist) {
		logging.Debug("No storage image", zap.Error(err))
		return record.Default(), "Fresh", nil
	}
	if err != nil {
		return record.Record{}, "", fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() { _ = st.Close() }()

	rec, err := st.Inspect()
	if err != nil {
		logging.Debug("No valid record", zap.Error(err))
		return record.Default(), "Fresh", nil
	}
	return rec, "Loaded", nil
}

// Reset command flags
var (
	resetYes  bool
	resetWipe bool
)

// resetCmd forces settings mode in storage
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Force the next boot into settings mode",
	Long: `Rewrite the stored record so the next boot starts the configuration
access point. This is what GET /reconf does on a running portal.

The SSID and password are kept unless --wipe is given.`,
	Example: `  # Ask before resetting
  wifiportal reset

  # Reset and clear the credentials without asking
  wifiportal reset --wipe --yes`,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "Do not ask for confirmation")
	resetCmd.Flags().BoolVar(&resetWipe, "wipe", false, "Also clear the SSID and password")
	resetCmd.Flags().StringVar(&runOpts.storage, "storage", "", "Storage image holding the record")
}

func runReset(cmd *cobra.Command, args []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	runOpts.apply(s)
	if err := initLogging(s, false); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	if !resetYes && !ui.ConfirmReset(cmd.InOrStdin(), cmd.OutOrStdout()) {
		return nil
	}

	rec, err := resetStore(s, resetWipe)
	if err != nil {
		ui.NewPrinter(cmd.OutOrStdout()).PrintError("Reset failed", err)
		return err
	}

	path, _ := s.StoragePath()
	ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Configuration reset",
		ui.Field{Key: "Mode", Value: ui.RenderMode(rec.Mode.String())},
		ui.Field{Key: "SSID", Value: rec.SSID},
		ui.Field{Key: "Storage", Value: path},
	)
	return nil
}

// resetStore writes settings mode to storage and returns the new record.
func resetStore(s *settings.Settings, wipe bool) (record.Record, error) {
	st, err := boot.OpenStore(s)
	if err != nil {
		return record.Record{}, fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() { _ = st.Close() }()

	rec, err := st.Inspect()
	if err != nil || wipe {
		rec = record.Default()
	}

	from := rec.Mode
	rec.Mode = record.ModeSettings
	if err := st.Save(rec); err != nil {
		return record.Record{}, err
	}
	logging.LogModeChange(from.String(), rec.Mode.String(), "reset command")
	return rec, nil
}

// Provision command flags
var (
	provisionPortal  string
	provisionMode    string
	provisionSSID    string
	provisionPass    string
	provisionTimeout int
)

// provisionCmd submits credentials to a running portal
var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Submit WiFi credentials to a running portal",
	Long: `Send a mode and credentials to a running portal, as the configuration
form does. The portal stores them and restarts.

Without --ssid an interactive form is shown. Connect to the device's
access point first; the portal answers on its address (default
http://192.168.1.1:80).`,
	Example: `  # Interactive form
  wifiportal provision

  # Join a network
  wifiportal provision --ssid HomeNet --pass secret123

  # Run a hotspot instead
  wifiportal provision --mode hotspot --ssid Workshop --pass password1

  # Send a station-mode portal found by 'scan' back to settings
  wifiportal provision --portal http://10.0.0.7:80 --mode settings`,
	RunE: runProvision,
}

func init() {
	provisionCmd.Flags().StringVar(&provisionPortal, "portal", "", "Portal base URL (default from the access point settings)")
	provisionCmd.Flags().StringVar(&provisionMode, "mode", "station", "Mode to submit (station, hotspot, settings)")
	provisionCmd.Flags().StringVar(&provisionSSID, "ssid", "", "WiFi SSID (skips the interactive form)")
	provisionCmd.Flags().StringVar(&provisionPass, "pass", "", "WiFi password")
	provisionCmd.Flags().IntVar(&provisionTimeout, "timeout", 10, "Request timeout in seconds")
}

// defaultPortalURL is the portal as seen from a client of its access point.
func defaultPortalURL(s *settings.Settings) string {
	port := "80"
	if _, p, err := net.SplitHostPort(s.HTTP.Addr); err == nil && p != "" {
		port = p
	}
	return "http://" + net.JoinHostPort(s.AccessPoint.Address, port)
}

func runProvision(cmd *cobra.Command, args []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	if err := initLogging(s, false); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	mode, err := record.ParseMode(provisionMode)
	if err != nil {
		return err
	}

	base := provisionPortal
	if base == "" {
		base = defaultPortalURL(s)
	}

	client := portalclient.NewClientWithURL(base)
	client.SetTimeout(time.Duration(provisionTimeout) * time.Second)

	printer := ui.NewPrinter(cmd.OutOrStdout())
	printer.PrintHeader("Provision", "wifiportal provision", ui.Field{Key: "Portal", Value: client.BaseURL})

	settingsMode, err := client.Ping()
	if err != nil {
		printer.PrintError("Portal unreachable", err)
		return err
	}
	if !settingsMode {
		printer.PrintWarning("Portal is not in settings mode",
			ui.Field{Key: "Note", Value: "submitting still replaces its stored configuration"})
	}

	interactive := provisionSSID == "" && mode != record.ModeSettings
	ssid := provisionSSID
	if interactive {
		outcome, err := tui.Run(client, client.BaseURL, mode)
		if err != nil {
			return err
		}
		if outcome.Cancelled {
			return nil
		}
		mode, ssid, err = outcome.Mode, outcome.SSID, outcome.Err
		if err != nil {
			printer.PrintError("Provisioning failed", err)
			return err
		}
	} else if err := client.Apply(mode, provisionSSID, provisionPass); err != nil {
		printer.PrintError("Provisioning failed", err)
		return err
	}

	details := []ui.Field{{Key: "Mode", Value: ui.RenderMode(mode.String())}}
	if mode != record.ModeSettings {
		details = append(details, ui.Field{Key: "SSID", Value: ssid})
	}
	details = append(details, ui.Field{Key: "Next", Value: nextStep(mode)})
	printer.PrintSuccess("Configuration submitted", details...)
	return nil
}

// nextStep tells the user where the device will be after its restart.
func nextStep(mode record.Mode) string {
	switch mode {
	case record.ModeStation:
		return "the device joins the network; find it with 'wifiportal scan'"
	case record.ModeHotspot:
		return "join the new access point to reach the device"
	default:
		return "rejoin the configuration access point"
	}
}

var scanTimeout int

// scanCmd finds portals on the LAN
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for portals on the network",
	Long: `Browse mDNS for portals running in station mode.

A portal that has joined a network advertises itself as an _http._tcp
service with a "wifiportal" TXT marker. Portals in settings or hotspot mode
are reached on their access point instead.`,
	Example: `  # Scan for 10 seconds (default)
  wifiportal scan

  # Quick 3-second scan
  wifiportal scan --timeout 3`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanTimeout, "timeout", 10, "Scan timeout in seconds")
}

func runScan(cmd *cobra.Command, args []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	if err := initLogging(s, false); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Scanning for portals (timeout: %ds)...\n\n", scanTimeout)

	portals, err := discovery.ScanForPortals(time.Duration(scanTimeout) * time.Second)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	ui.NewPrinter(cmd.OutOrStdout()).PrintPortals(portals)
	return nil
}

var initConfigForce bool

// initConfigCmd writes a settings file with the defaults
var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Write a settings file with the default values",
	Example: `  # Write $XDG_CONFIG_HOME/wifiportal/settings.yaml
  wifiportal init-config

  # Write elsewhere, replacing an existing file
  wifiportal init-config --config ./settings.yaml --force`,
	RunE: runInitConfig,
}

func init() {
	initConfigCmd.Flags().BoolVar(&initConfigForce, "force", false, "Overwrite an existing file")
}

func runInitConfig(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		p, err := settings.DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}

	if _, err := os.Stat(path); err == nil && !initConfigForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("cannot access %s: %w", path, err)
	}

	if err := settings.Default().Save(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}
