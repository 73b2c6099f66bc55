// Package settings provides the service settings for the WiFi portal.
//
// Settings are read from a YAML file and describe how the host runs the
// portal: listener addresses, the access point address, the station join
// timing, where the storage image lives, the radio backend and the log sinks.
// They never hold WiFi credentials; those live in the persisted record.
//
// # File Location
//
//   - Linux: $XDG_CONFIG_HOME/wifiportal/settings.yaml or $HOME/.config/wifiportal/settings.yaml
//   - macOS: $HOME/.config/wifiportal/settings.yaml
//   - Windows: %LOCALAPPDATA%\wifiportal\settings.yaml
//
// A missing file is not an error. Every key is optional and falls back to
// the device defaults:
//
//	version: 1
//	http:
//	  addr: ":80"
//	dns:
//	  addr: ":53"
//	access_point:
//	  address: 192.168.1.1
//	  netmask: 255.255.255.0
//	  default_ssid: Wemos
//	station:
//	  connect_timeout: 30s
//	  poll_interval: 500ms
//	storage:
//	  offset: 0
//	  size: 128
//	radio:
//	  backend: simulated
//
// Writes go to a temporary file first and are renamed into place.
package settings
