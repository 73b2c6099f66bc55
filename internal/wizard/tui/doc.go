// Package tui implements the interactive provisioning form for the
// wifiportal CLI.
//
// The form follows the Bubble Tea Model-Update-View pattern. It has three
// rows:
//   - Mode: STATION, HOTSPOT or SETTINGS, cycled with the arrow keys
//   - SSID: network to join or broadcast
//   - Password: masked, empty for an open hotspot
//
// Settings mode needs no credentials, so the form skips those rows. On
// submit the credentials are checked with portalclient.ValidateCredentials
// and then posted in the background while a spinner runs. The portal
// restarts after a successful submit, so the program quits once the answer
// arrives.
//
// # Usage Example
//
//	client := portalclient.NewClient("192.168.1.1", 80)
//	outcome, err := tui.Run(client, client.BaseURL, record.ModeStation)
//	if err != nil {
//	    return err
//	}
//	if outcome.Cancelled {
//	    return nil
//	}
//	if outcome.Err != nil {
//	    return outcome.Err
//	}
//
// Tests drive ProvisionModel.Update directly with key messages and do not
// start a program.
package tui
