// Package portal serves the captive configuration portal.
//
// The route table is fixed:
//
//	GET  /         config.html in settings mode, index.html otherwise
//	POST /connect  save ssid and pass, switch to station mode, restart
//	POST /ap       save ssid and pass, switch to hotspot mode, restart
//	GET  /reconf   switch to settings mode, restart
//	*              error.html
//
// Every response is text/html with status 200, including the not-found page
// and the "Internal server error" body served when a page cannot be read.
// Existing clients depend on that.
//
// A mutating route saves the record before anything else. If the save
// fails the in-memory record is left as it was and no restart is requested.
// Otherwise the handler acknowledges the request and RestartRequested turns
// true; the poll loop then stops and the device restarts into the new mode.
//
// # Concurrency
//
// Server accepts connections with net/http but funnels each request through
// Exchanges. The poll loop receives one Exchange at a time and calls Serve,
// so Portal handlers never run concurrently and the record needs no lock.
//
// Pages are read from an fs.FS (the embedded defaults or a directory) into
// a bounded buffer of DefaultBufferSize bytes.
package portal
