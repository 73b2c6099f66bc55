// Package boot selects the device mode and runs the portal for one boot.
//
// A boot loads the stored record, picks a Plan with Select and brings the
// radio up accordingly:
//
//   - STATION joins the stored network. If the link is not up within the
//     connect timeout the record is rewritten to SETTINGS and the boot ends
//     with ErrRestart.
//   - HOTSPOT broadcasts the stored SSID and runs captive DNS.
//   - SETTINGS, and any boot without a valid record, broadcasts the default
//     SSID and runs captive DNS.
//
// The portal and DNS listeners accept in the background, but their work is
// handed to a single loop in Run that serves one DNS query or one HTTP
// request at a time. The record is only ever touched from that loop.
//
// New configuration never takes effect in place. A handler that changes the
// record makes Run return ErrRestart, and Supervise applies the restart
// with a Restarter before booting again:
//
//	b, err := boot.New(s, st, r)
//	if err != nil {
//	    return err
//	}
//	restarter, err := boot.NewRestarter(s.Restart)
//	if err != nil {
//	    return err
//	}
//	return boot.Supervise(ctx, b, restarter)
package boot
