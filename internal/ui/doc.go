// Package ui renders terminal output for the wifiportal CLI.
//
// Components use Lipgloss and follow a "print once" pattern: a Header
// before the command runs, then a Result box (success, failure or
// warning) with ordered detail fields. Printer ties them to a writer and
// adds the record and scan views used by show and scan.
//
//	p := ui.NewPrinter(os.Stdout)
//	p.PrintHeader("Provision", "wifiportal provision",
//	    ui.Field{Key: "Portal", Value: url})
//	if err := client.Connect(ssid, pass); err != nil {
//	    p.PrintError("Provisioning failed", err)
//	    return err
//	}
//	p.PrintSuccess("Credentials submitted", ui.Field{Key: "SSID", Value: ssid})
//
// Failure boxes take their troubleshooting tips from fault.Hint.
//
// Logging is silent unless WIFIPORTAL_LOG_LEVEL or --log-level is set, so
// this output is all the user sees.
package ui
