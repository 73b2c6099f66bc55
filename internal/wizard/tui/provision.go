package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/wifiportal/internal/portalclient"
	"github.com/muurk/wifiportal/internal/record"
)

// Submitter sends the chosen configuration to a portal.
// *portalclient.Client implements it.
type Submitter interface {
	Apply(mode record.Mode, ssid, pass string) error
}

// field is a focusable row of the form
type field int

const (
	fieldMode field = iota
	fieldSSID
	fieldPass
)

// modeOrder is the order the mode selector cycles through
var modeOrder = []record.Mode{record.ModeStation, record.ModeHotspot, record.ModeSettings}

// submitDoneMsg carries the portal's answer
type submitDoneMsg struct {
	err error
}

// provisionKeyMap defines key bindings for the form
type provisionKeyMap struct {
	Next   key.Binding
	Prev   key.Binding
	Toggle key.Binding
	Submit key.Binding
	Quit   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k provisionKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Toggle, k.Submit, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k provisionKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.Toggle},
		{k.Submit, k.Quit},
	}
}

// Outcome is how the wizard ended.
type Outcome struct {
	Mode      record.Mode
	SSID      string
	Err       error // submission error
	Cancelled bool
}

// ProvisionModel is a form that collects a mode and credentials and submits
// them to a portal.
type ProvisionModel struct {
	Portal string // shown in the header
	Client Submitter

	Mode      record.Mode
	SSIDInput textinput.Model
	PassInput textinput.Model
	Focus     field

	Spinner    spinner.Model
	Submitting bool
	Done       bool
	Cancelled  bool
	Err        error
	Invalid    []error // validation errors from the last submit

	Width int
	Help  help.Model
	Keys  provisionKeyMap
}

// NewProvisionModel creates a form preset to mode.
func NewProvisionModel(client Submitter, portal string, mode record.Mode) ProvisionModel {
	ssid := textinput.New()
	ssid.Placeholder = "Network name"
	ssid.CharLimit = record.MaxCredentialLen
	ssid.Width = 40

	pass := textinput.New()
	pass.Placeholder = "Password (empty for open)"
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '•'
	pass.CharLimit = record.MaxCredentialLen
	pass.Width = 40

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	keys := provisionKeyMap{
		Next: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab/↓", "next"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab/↑", "previous"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("left", "right", " "),
			key.WithHelp("←/→", "mode"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "next/submit"),
		),
		Quit: key.NewBinding(
			key.WithKeys("esc", "ctrl+c"),
			key.WithHelp("esc", "quit"),
		),
	}

	m := ProvisionModel{
		Portal:    portal,
		Client:    client,
		Mode:      mode,
		SSIDInput: ssid,
		PassInput: pass,
		Spinner:   s,
		Help:      help.New(),
		Keys:      keys,
	}
	if mode == record.ModeSettings {
		m.Focus = fieldMode
	} else {
		m.Focus = fieldSSID
		m.SSIDInput.Focus()
	}
	return m
}

// Init initializes the form
func (m ProvisionModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles key input and the submission result
func (m ProvisionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Help.Width = msg.Width
		return m, nil

	case submitDoneMsg:
		m.Submitting = false
		m.Done = true
		m.Err = msg.err
		return m, tea.Quit

	case spinner.TickMsg:
		if !m.Submitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.Cancelled = true
			return m, tea.Quit
		}
		if m.Submitting || m.Done {
			return m, nil
		}

		switch {
		case key.Matches(msg, m.Keys.Quit):
			m.Cancelled = true
			return m, tea.Quit

		case key.Matches(msg, m.Keys.Next):
			return m.setFocus(m.next(1))

		case key.Matches(msg, m.Keys.Prev):
			return m.setFocus(m.next(-1))

		case m.Focus == fieldMode && key.Matches(msg, m.Keys.Toggle):
			m.Mode = cycleMode(m.Mode, msg.String() != "left")
			m.Invalid = nil
			return m, nil

		case key.Matches(msg, m.Keys.Submit):
			if m.Focus == fieldPass || m.Mode == record.ModeSettings {
				return m.submit()
			}
			return m.setFocus(m.next(1))
		}
	}

	var cmd tea.Cmd
	switch m.Focus {
	case fieldSSID:
		m.SSIDInput, cmd = m.SSIDInput.Update(msg)
	case fieldPass:
		m.PassInput, cmd = m.PassInput.Update(msg)
	}
	return m, cmd
}

// next returns the field dir steps away, skipping the credentials when the
// mode ignores them.
func (m ProvisionModel) next(dir int) field {
	if m.Mode == record.ModeSettings {
		return fieldMode
	}
	f := int(m.Focus) + dir
	if f < int(fieldMode) {
		f = int(fieldPass)
	}
	if f > int(fieldPass) {
		f = int(fieldMode)
	}
	return field(f)
}

func (m ProvisionModel) setFocus(f field) (tea.Model, tea.Cmd) {
	m.Focus = f
	m.SSIDInput.Blur()
	m.PassInput.Blur()

	switch f {
	case fieldSSID:
		return m, m.SSIDInput.Focus()
	case fieldPass:
		return m, m.PassInput.Focus()
	}
	return m, nil
}

func (m ProvisionModel) submit() (tea.Model, tea.Cmd) {
	ssid := strings.TrimSpace(m.SSIDInput.Value())
	pass := m.PassInput.Value()

	m.Invalid = nil
	if m.Mode != record.ModeSettings {
		if errs := portalclient.ValidateCredentials(m.Mode, ssid, pass); len(errs) > 0 {
			m.Invalid = errs
			return m, nil
		}
	}

	m.Submitting = true
	return m, tea.Batch(m.Spinner.Tick, submitCmd(m.Client, m.Mode, ssid, pass))
}

// submitCmd runs the request off the UI goroutine
func submitCmd(client Submitter, mode record.Mode, ssid, pass string) tea.Cmd {
	return func() tea.Msg {
		return submitDoneMsg{err: client.Apply(mode, ssid, pass)}
	}
}

func cycleMode(mode record.Mode, forward bool) record.Mode {
	i := 0
	for j, m := range modeOrder {
		if m == mode {
			i = j
		}
	}
	if forward {
		i = (i + 1) % len(modeOrder)
	} else {
		i = (i + len(modeOrder) - 1) % len(modeOrder)
	}
	return modeOrder[i]
}

// Outcome reports the result once the program has quit
func (m ProvisionModel) Outcome() Outcome {
	return Outcome{
		Mode:      m.Mode,
		SSID:      strings.TrimSpace(m.SSIDInput.Value()),
		Err:       m.Err,
		Cancelled: m.Cancelled,
	}
}

// View renders the form
func (m ProvisionModel) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render(AppName))
	b.WriteString("\n")
	b.WriteString(SubtitleStyle.Render(fmt.Sprintf("Portal %s · %s", m.Portal, AppVersion())))
	b.WriteString("\n\n")

	b.WriteString(m.label(fieldMode, "Mode"))
	for _, mode := range modeOrder {
		if mode == m.Mode {
			b.WriteString(SelectedOptionStyle.Render("[" + mode.String() + "]"))
		} else {
			b.WriteString(OptionStyle.Render(" " + mode.String() + " "))
		}
		b.WriteString(" ")
	}
	b.WriteString("\n\n")

	if m.Mode == record.ModeSettings {
		b.WriteString(DisabledStyle.Render("SSID and password are not used in settings mode"))
		b.WriteString("\n")
	} else {
		b.WriteString(m.label(fieldSSID, "SSID"))
		b.WriteString(m.SSIDInput.View())
		b.WriteString("\n")
		b.WriteString(m.label(fieldPass, "Password"))
		b.WriteString(m.PassInput.View())
		b.WriteString("\n")
	}

	for _, err := range m.Invalid {
		b.WriteString("\n")
		b.WriteString(RenderError(err.Error()))
	}

	switch {
	case m.Submitting:
		b.WriteString("\n")
		b.WriteString(m.Spinner.View() + " Submitting...")
	case m.Done && m.Err != nil:
		b.WriteString("\n")
		b.WriteString(RenderError(m.Err.Error()))
	case m.Done:
		b.WriteString("\n")
		b.WriteString(RenderSuccess("Submitted, the device is restarting"))
	}

	content := FormBoxStyle.Render(b.String())
	return lipgloss.JoinVertical(lipgloss.Left, content, HelpStyle.Render(m.Help.View(m.Keys)))
}

func (m ProvisionModel) label(f field, text string) string {
	if m.Focus == f {
		return FocusedLabelStyle.Render("› " + text)
	}
	return LabelStyle.Render("  " + text)
}

// Run shows the wizard and returns how it ended.
func Run(client Submitter, portal string, mode record.Mode) (Outcome, error) {
	final, err := tea.NewProgram(NewProvisionModel(client, portal, mode)).Run()
	if err != nil {
		return Outcome{}, fmt.Errorf("wizard failed: %w", err)
	}
	return final.(ProvisionModel).Outcome(), nil
}
