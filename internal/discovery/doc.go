// Package discovery advertises and finds WiFi portals over mDNS.
//
// Once a portal has joined a network in station mode it has an address
// the user no longer knows. The portal therefore registers itself as an
// "_http._tcp" service with a "wifiportal" TXT marker, and the CLI browses
// for that marker to list portals on the LAN.
//
// # Advertising
//
//	ad, err := discovery.Advertise(discovery.AdvertiseConfig{
//	    Port: 80,
//	    Mode: "STATION",
//	})
//	if err != nil {
//	    return err
//	}
//	defer ad.Shutdown()
//
// The instance name defaults to the host name without its domain.
//
// # Scanning
//
//	portals, err := discovery.ScanForPortals(5 * time.Second)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, p := range portals {
//	    fmt.Printf("Found: %s (%s)\n", p.Instance, p.BaseURL())
//	}
//
// Each portal carries:
//   - Instance: advertised instance name
//   - Hostname: mDNS host name
//   - IP: IPv4 address, IPv6 if none
//   - Port: HTTP port (typically 80)
//   - Mode: boot mode from the TXT record
//
// Other _http._tcp services on the network are ignored.
package discovery
