package radio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/muurk/wifiportal/internal/fault"
	"github.com/muurk/wifiportal/internal/logging"
	"go.uber.org/zap"
)

// Runner runs a command and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return out, fmt.Errorf("%w: %s", err, msg)
		}
		return out, err
	}
	return out, nil
}

// NetworkManager drives a Linux host's WiFi through nmcli. Station and
// access point share one connection profile so each boot replaces the
// previous mode.
type NetworkManager struct {
	Interface  string // e.g. wlan0
	Connection string // profile name
	Run        Runner
}

var _ Radio = (*NetworkManager)(nil)

// NewNetworkManager returns a NetworkManager radio using ExecRunner.
func NewNetworkManager(iface, connection string) *NetworkManager {
	return &NetworkManager{Interface: iface, Connection: connection, Run: ExecRunner}
}

// JoinStation deletes the profile and issues a connect for ssid. nmcli
// returns once activation starts or fails.
func (n *NetworkManager) JoinStation(ctx context.Context, ssid, pass string) error {
	n.deleteProfile(ctx)

	args := []string{"--wait", "0", "device", "wifi", "connect", ssid,
		"ifname", n.Interface, "name", n.Connection}
	if pass != "" {
		args = append(args, "password", pass)
	}

	logging.Info("Joining network", zap.String("ssid", ssid), zap.String("interface", n.Interface))
	if _, err := n.Run(ctx, "nmcli", args...); err != nil {
		return fault.NewRadioError("station join", err)
	}
	return nil
}

// Connected checks the device state column of nmcli.
func (n *NetworkManager) Connected(ctx context.Context) (bool, error) {
	out, err := n.Run(ctx, "nmcli", "-t", "-f", "DEVICE,STATE", "device", "status")
	if err != nil {
		return false, fault.NewRadioError("device status", err)
	}
	return deviceConnected(string(out), n.Interface), nil
}

// StartAccessPoint creates a shared-mode hotspot profile with a static
// address and brings it up.
func (n *NetworkManager) StartAccessPoint(ctx context.Context, ap AccessPoint) error {
	n.deleteProfile(ctx)

	ones, _ := ap.Netmask.Size()
	addr := fmt.Sprintf("%s/%d", ap.Address, ones)

	steps := [][]string{
		{"connection", "add", "type", "wifi", "ifname", n.Interface, "con-name", n.Connection,
			"autoconnect", "no", "ssid", ap.SSID},
		{"connection", "modify", n.Connection,
			"802-11-wireless.mode", "ap", "802-11-wireless.band", "bg",
			"ipv4.method", "shared", "ipv4.addresses", addr},
	}
	if ap.Pass != "" {
		steps = append(steps, []string{"connection", "modify", n.Connection,
			"wifi-sec.key-mgmt", "wpa-psk", "wifi-sec.psk", ap.Pass})
	}
	steps = append(steps, []string{"connection", "up", n.Connection})

	logging.Info("Starting access point",
		zap.String("ssid", ap.SSID),
		zap.String("address", addr),
		zap.Bool("open", ap.Pass == ""),
	)
	for _, args := range steps {
		if _, err := n.Run(ctx, "nmcli", args...); err != nil {
			return fault.NewRadioError("access point "+args[1], err)
		}
	}
	return nil
}

// Close takes the profile down.
func (n *NetworkManager) Close() error {
	_, err := n.Run(context.Background(), "nmcli", "connection", "down", n.Connection)
	if err != nil {
		logging.Debug("Connection down failed", zap.Error(err))
	}
	return nil
}

// deleteProfile removes a previous profile; a missing one is not an error.
func (n *NetworkManager) deleteProfile(ctx context.Context) {
	if _, err := n.Run(ctx, "nmcli", "connection", "delete", n.Connection); err != nil {
		logging.Debug("No previous connection profile", zap.String("connection", n.Connection))
	}
}

// deviceConnected parses `nmcli -t -f DEVICE,STATE device status` output.
func deviceConnected(out, iface string) bool {
	for _, line := range strings.Split(out, "\n") {
		dev, state, ok := strings.Cut(strings.TrimSpace(line), ":")
		if ok && dev == iface {
			return state == "connected"
		}
	}
	return false
}
