// Package setup is the first-run form that points the client at a portal.
package setup

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/lms-notify/internal/credential"
	"github.com/nhle/lms-notify/internal/model"
	"github.com/nhle/lms-notify/internal/theme"
)

// Mode represents the current state of the setup view.
type Mode int

const (
	ModeForm       Mode = iota // Collecting server, role and token
	ModeValidating             // Probing the portal
	ModeResult                 // Probe failed; offer retry
)

// DoneMsg signals that a working configuration was saved.
type DoneMsg struct {
	Config *model.AppConfig
}

// CancelMsg signals the user aborted setup.
type CancelMsg struct{}

// validatedMsg carries the result of a probe.
type validatedMsg struct {
	err error
}

// Validator checks that the portal answers with notification props for the
// given settings.
type Validator func(ctx context.Context, cfg *model.AppConfig, token string) error

// Model is the Bubble Tea model for the setup form.
type Model struct {
	mode       Mode
	form       *huh.Form
	cfg        *model.AppConfig
	configPath string
	validate   Validator
	saveToken  func(key, value string) error
	saveConfig func(path string, cfg *model.AppConfig) error
	spinner    spinner.Model
	err        error

	// Form field values (huh binds to these)
	fields *fields

	width, height int
}

// fields lives behind a pointer so the form keeps writing to the same
// values after the model is copied.
type fields struct {
	URL   string
	Role  string
	Token string
}

// New creates a setup view seeded from cfg. The result is written to
// configPath once validation passes.
func New(cfg *model.AppConfig, configPath string, validate Validator, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		cfg:        cfg,
		configPath: configPath,
		validate:   validate,
		saveToken:  credential.Set,
		saveConfig: model.SaveConfig,
		spinner:    sp,
		fields: &fields{
			URL:  cfg.Server.URL,
			Role: string(cfg.RoleOrDefault()),
		},
		width:  width,
		height: height,
	}
	m.form = m.buildForm()
	return m
}

// Init starts the form.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

func (m Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Portal URL").
				Description("Address of the attendance portal").
				Placeholder("https://absensi.kampus.ac.id").
				Value(&m.fields.URL).
				Validate(validateURL),
			huh.NewSelect[string]().
				Title("Role").
				Description("Which dashboard to follow").
				Options(
					huh.NewOption("Mahasiswa", string(model.RoleUser)),
					huh.NewOption("Dosen", string(model.RoleDosen)),
					huh.NewOption("Admin", string(model.RoleAdmin)),
				).
				Value(&m.fields.Role),
			huh.NewInput().
				Title("API Token").
				Description("Personal access token; leave empty to rely on session cookies").
				EchoMode(huh.EchoModePassword).
				Value(&m.fields.Token),
		),
	).WithWidth(m.formWidth())
}

// Update handles messages for the setup view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case validatedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.mode = ModeResult
			return m, nil
		}
		return m.persist()

	case spinner.TickMsg:
		if m.mode == ModeValidating {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeValidating:
			return m, nil
		case ModeResult:
			switch msg.String() {
			case "r":
				return m.startValidation()
			case "e":
				m.mode = ModeForm
				m.form = m.buildForm()
				return m, m.form.Init()
			case "esc", "q":
				return m, func() tea.Msg { return CancelMsg{} }
			}
			return m, nil
		}
	}

	if m.mode != ModeForm || m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		return m.startValidation()
	case huh.StateAborted:
		return m, func() tea.Msg { return CancelMsg{} }
	}
	return m, cmd
}

// candidate returns a copy of the config carrying the form values.
func (m Model) candidate() *model.AppConfig {
	cfg := *m.cfg
	cfg.Server.URL = strings.TrimRight(strings.TrimSpace(m.fields.URL), "/")
	cfg.Server.Role = m.fields.Role
	return &cfg
}

func (m Model) startValidation() (Model, tea.Cmd) {
	m.mode = ModeValidating
	m.err = nil
	cfg := m.candidate()
	token := strings.TrimSpace(m.fields.Token)
	validate := m.validate
	return m, tea.Batch(
		m.spinner.Tick,
		func() tea.Msg {
			if validate == nil {
				return validatedMsg{}
			}
			return validatedMsg{err: validate(context.Background(), cfg, token)}
		},
	)
}

// persist stores the token in the keyring and writes the config file.
func (m Model) persist() (Model, tea.Cmd) {
	cfg := m.candidate()

	if token := strings.TrimSpace(m.fields.Token); token != "" {
		key := credential.TokenKey(cfg.Server.URL, cfg.Server.Role)
		if err := m.saveToken(key, token); err != nil {
			m.err = fmt.Errorf("saving token: %w", err)
			m.mode = ModeResult
			return m, nil
		}
	}
	if err := m.saveConfig(m.configPath, cfg); err != nil {
		m.err = fmt.Errorf("saving config: %w", err)
		m.mode = ModeResult
		return m, nil
	}

	m.cfg = cfg
	return m, func() tea.Msg { return DoneMsg{Config: cfg} }
}

// View renders the setup UI based on the current mode.
func (m Model) View() string {
	style := lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height)

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)
	title := titleStyle.Render("Portal Setup")

	switch m.mode {
	case ModeValidating:
		return style.Render(title + "\n" + m.spinner.View() + " Connecting to " + m.candidate().Server.URL + "...")

	case ModeResult:
		errStyle := lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorRed)
		msg := ""
		if m.err != nil {
			msg = m.err.Error()
		}
		return style.Render(title + "\n" +
			errStyle.Render("Connection failed") + "\n\n" +
			msg + "\n\n" +
			lipgloss.NewStyle().Foreground(theme.ColorGray).Render("r retry | e edit | esc quit"))

	default:
		if m.form == nil {
			return ""
		}
		return style.Render(title + "\n" + m.form.View())
	}
}

// Mode returns the current setup state.
func (m Model) Mode() Mode {
	return m.mode
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func validateURL(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("URL is required")
	}
	parsed, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" || parsed.Host == "" {
		return fmt.Errorf("URL must include scheme and host (e.g., https://absensi.kampus.ac.id)")
	}
	return nil
}
