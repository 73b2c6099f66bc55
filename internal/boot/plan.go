package boot

import (
	"github.com/muurk/wifiportal/internal/record"
	"github.com/muurk/wifiportal/internal/store"
)

// Action is what the device does with the radio on this boot.
type Action int

const (
	// ActionSettings starts the access point with the default SSID and
	// serves the configuration form.
	ActionSettings Action = iota
	// ActionHotspot starts the access point with the stored credentials.
	ActionHotspot
	// ActionStation joins the stored network.
	ActionStation
)

// String returns the action name
func (a Action) String() string {
	switch a {
	case ActionSettings:
		return "settings"
	case ActionHotspot:
		return "hotspot"
	case ActionStation:
		return "station"
	default:
		return "unknown"
	}
}

// Plan is the outcome of mode selection.
type Plan struct {
	Action Action
	SSID   string
	Pass   string
}

// AccessPoint reports whether the plan runs the access point and captive DNS.
func (p Plan) AccessPoint() bool {
	return p.Action != ActionStation
}

// Select maps the loaded record to a boot plan. A fresh store always gives
// settings mode, whatever the record holds.
func Select(rec record.Record, status store.Status, defaultSSID, defaultPass string) Plan {
	if status == store.StatusFresh {
		return Plan{Action: ActionSettings, SSID: defaultSSID, Pass: defaultPass}
	}

	switch rec.Mode {
	case record.ModeStation:
		return Plan{Action: ActionStation, SSID: rec.SSID, Pass: rec.Pass}
	case record.ModeHotspot:
		return Plan{Action: ActionHotspot, SSID: rec.SSID, Pass: rec.Pass}
	default:
		return Plan{Action: ActionSettings, SSID: defaultSSID, Pass: defaultPass}
	}
}
