// Package portalclient drives a running WiFi portal over HTTP.
//
// It posts the same forms as the portal's configuration page, so a device
// can be provisioned from a terminal:
//
//	client := portalclient.NewClient("192.168.1.1", 80)
//	if err := client.Connect("HomeNet", "secret123"); err != nil {
//	    log.Fatal(err)
//	}
//
// Credentials are validated locally before anything is sent. Only Ping is
// retried: the mutating calls make the portal restart, after which it may
// be on another network.
package portalclient
