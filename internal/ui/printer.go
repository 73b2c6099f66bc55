package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/wifiportal/internal/discovery"
	"github.com/muurk/wifiportal/internal/fault"
	"github.com/muurk/wifiportal/internal/record"
)

// Printer writes styled output for CLI commands.
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a new Printer that writes to the given writer.
// If w is nil, os.Stdout is used.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{out: w, width: GetTerminalWidth()}
}

// SetWidth overrides the detected terminal width
func (p *Printer) SetWidth(width int) *Printer {
	p.width = width
	return p
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// Newline prints an empty line
func (p *Printer) Newline() {
	_, _ = fmt.Fprintln(p.out)
}

// PrintHeader prints a command header box
func (p *Printer) PrintHeader(title, command string, params ...Field) {
	p.Println(NewHeader(title, command, params...).SetWidth(p.width).Render())
}

// PrintSuccess prints a success result box
func (p *Printer) PrintSuccess(title string, details ...Field) {
	p.Println(NewSuccessResult(title, details...).SetWidth(p.width).Render())
}

// PrintWarning prints a warning result box
func (p *Printer) PrintWarning(title string, details ...Field) {
	p.Println(NewWarningResult(title, details...).SetWidth(p.width).Render())
}

// PrintError prints a failure box. The troubleshooting tips come from the
// error's kind.
func (p *Printer) PrintError(title string, err error) {
	p.Println(NewFailureResult(title, err, fault.Hint(err)).SetWidth(p.width).Render())
}

// PrintRecord prints the stored record. The password is masked unless
// showPass is set.
func (p *Printer) PrintRecord(rec record.Record, status string, showPass bool) {
	pass := "(none)"
	if rec.Pass != "" {
		pass = strings.Repeat("*", len(rec.Pass))
		if showPass {
			pass = rec.Pass
		}
	}
	ssid := rec.SSID
	if ssid == "" {
		ssid = "(none)"
	}

	result := NewSuccessResult("Stored configuration",
		Field{"Mode", RenderMode(rec.Mode.String())},
		Field{"SSID", ssid},
		Field{"Password", pass},
		Field{"Storage", status},
	)
	p.Println(result.SetWidth(p.width).Render())
}

// PrintPortals prints a table of discovered portals.
func (p *Printer) PrintPortals(portals []*discovery.Portal) {
	if len(portals) == 0 {
		p.Println(NewWarningResult("No portals found",
			Field{"Hint", "portals advertise only once joined to a network"},
		).SetWidth(p.width).Render())
		return
	}

	header := lipgloss.NewStyle().Foreground(MutedColor).Bold(true)
	rows := []string{header.Render(fmt.Sprintf("  %-20s %-10s %s", "INSTANCE", "MODE", "URL"))}
	for _, portal := range portals {
		mode := portal.Mode
		if mode == "" {
			mode = "?"
		}
		rows = append(rows, fmt.Sprintf("  %-20s %-10s %s", portal.Instance, mode, portal.BaseURL()))
	}

	p.Println(HeaderBorderStyle(p.width).Render(strings.Join(rows, "\n")))
}
