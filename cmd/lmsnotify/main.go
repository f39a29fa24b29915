package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/DavidGamba/go-getoptions"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/nhle/lms-notify/internal/app"
	"github.com/nhle/lms-notify/internal/model"
	"github.com/nhle/lms-notify/internal/store"
)

// commandLineOptionValues holds the values passed on the command line.
type commandLineOptionValues struct {
	Config string
	Role   string
	Server string
	Debug  bool
}

func parseCommandLine() *commandLineOptionValues {
	optionValues := &commandLineOptionValues{}
	opt := getoptions.New()

	opt.Bool("help", false, opt.Alias("h", "?"))
	opt.StringVar(&optionValues.Config, "config", model.DefaultConfigPath(),
		opt.Alias("c"),
		opt.Description("the path to the configuration file"))
	opt.StringVar(&optionValues.Role, "role", "",
		opt.Alias("r"),
		opt.Description("portal role: user, dosen or admin"))
	opt.StringVar(&optionValues.Server, "server", "",
		opt.Alias("s"),
		opt.Description("portal origin, e.g. https://absensi.kampus.ac.id"))
	opt.BoolVar(&optionValues.Debug, "debug", false,
		opt.Description("log at debug level"))

	_, err := opt.Parse(os.Args[1:])
	if opt.Called("help") {
		fmt.Fprint(os.Stderr, opt.Help())
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n\n", err)
		fmt.Fprint(os.Stderr, opt.Help(getoptions.HelpSynopsis))
		os.Exit(1)
	}

	return optionValues
}

// newLogger writes to the configured file; the terminal belongs to the UI.
func newLogger(cfg model.LogConfig, debug bool) (*logrus.Entry, func(), error) {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	if debug {
		level = logrus.DebugLevel
	}
	log.SetLevel(level)

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	log.SetOutput(f)

	return logrus.NewEntry(log).WithField("service", "lmsnotify"), func() { f.Close() }, nil
}

func run() error {
	optionValues := parseCommandLine()

	if err := model.LoadEnvFiles(".env", filepath.Join(model.ConfigDir(), ".env")); err != nil {
		return err
	}

	cfg, err := model.LoadConfig(optionValues.Config)
	if err != nil {
		return err
	}
	if optionValues.Server != "" {
		cfg.Server.URL = optionValues.Server
	}
	if optionValues.Role != "" {
		role, err := model.ParseRole(optionValues.Role)
		if err != nil {
			return err
		}
		cfg.Server.Role = string(role)
	}

	log, closeLog, err := newLogger(cfg.Log, optionValues.Debug)
	if err != nil {
		return err
	}
	defer closeLog()

	prefs, err := store.NewSQLiteStore(model.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("opening preferences: %w", err)
	}
	defer prefs.Close()

	log.WithFields(logrus.Fields{
		"server": cfg.Server.URL,
		"role":   cfg.RoleOrDefault(),
	}).Info("starting")

	m := app.New(app.Options{
		Config:     cfg,
		ConfigPath: optionValues.Config,
		Prefs:      prefs,
		Connector:  app.NewConnector(prefs, log),
		Probe:      app.Probe(log),
		Log:        log,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		log.WithError(err).Error("ui exited")
		return err
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "lmsnotify: %v\n", err)
		os.Exit(1)
	}
}
