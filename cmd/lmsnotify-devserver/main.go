package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/DavidGamba/go-getoptions"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/nhle/lms-notify/internal/devserver"
)

type commandLineOptionValues struct {
	Listen    string
	Token     string
	Version   string
	SoundFile string
	Origins   string
	Empty     bool
	Debug     bool
}

func parseCommandLine() *commandLineOptionValues {
	optionValues := &commandLineOptionValues{}
	opt := getoptions.New()

	opt.Bool("help", false, opt.Alias("h", "?"))
	opt.StringVar(&optionValues.Listen, "listen", envOr("LMSNOTIFY_DEV_LISTEN", ":8080"),
		opt.Alias("l"),
		opt.Description("address to listen on"))
	opt.StringVar(&optionValues.Token, "token", os.Getenv("LMSNOTIFY_DEV_TOKEN"),
		opt.Description("require this Bearer token on every request"))
	opt.StringVar(&optionValues.Version, "asset-version", "dev",
		opt.Description("Inertia asset version"))
	opt.StringVar(&optionValues.SoundFile, "sound", "",
		opt.Description("file served at /sounds/notification.mp3"))
	opt.StringVar(&optionValues.Origins, "origins", "",
		opt.Description("comma separated CORS origins (default: any)"))
	opt.BoolVar(&optionValues.Empty, "empty", false,
		opt.Description("start without demo notifications"))
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

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: reading .env: %v\n", err)
	}

	optionValues := parseCommandLine()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if optionValues.Debug {
		log.SetLevel(logrus.DebugLevel)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	entry := logrus.NewEntry(log).WithField("service", "lmsnotify-devserver")

	var origins []string
	if optionValues.Origins != "" {
		origins = strings.Split(optionValues.Origins, ",")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	inbox := devserver.NewInbox()
	if !optionValues.Empty {
		devserver.SeedDemo(inbox, time.Now())
	}

	srv := devserver.New(ctx, inbox, devserver.Options{
		Version:        optionValues.Version,
		Token:          optionValues.Token,
		SoundFile:      optionValues.SoundFile,
		SoundPath:      "/sounds/notification.mp3",
		AllowedOrigins: origins,
		Log:            entry,
	})

	entry.WithField("listen", optionValues.Listen).Info("serving")
	if err := srv.ListenAndServe(ctx, optionValues.Listen); err != nil {
		entry.WithError(err).Fatal("server stopped")
	}
}
