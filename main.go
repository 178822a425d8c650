// SPDX-License-Identifier: GPL-3.0-or-later
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/CrawX/go-mail-receptionist/config"
	"github.com/CrawX/go-mail-receptionist/container"
	"github.com/CrawX/go-mail-receptionist/domain"
	"github.com/CrawX/go-mail-receptionist/embedding"
	"github.com/CrawX/go-mail-receptionist/log"
	"github.com/CrawX/go-mail-receptionist/scheduler"
	"github.com/CrawX/go-mail-receptionist/triage"
	"github.com/CrawX/go-mail-receptionist/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"go.uber.org/dig"
)

type app struct {
	dig.In

	Config    *config.Config
	Embedder  domain.Embedder
	Triage    *triage.Triage
	Scheduler *scheduler.Scheduler
	Cache     domain.EmbeddingCache `optional:"true"`
}

func main() {
	configFile := pflag.StringP("config", "c", "config.toml", "path to the config file")
	once := pflag.Bool("once", false, "run a single triage cycle and exit")
	dryRun := pflag.Bool("dry-run", false, "classify and log only, never change the mailbox or send replies")
	withTui := pflag.Bool("tui", false, "show the interactive control surface")
	loglevel := pflag.String("loglevel", "", "log level, overrides the config file")
	logFile := pflag.String("log-file", "mail-receptionist.log", "file receiving the log while the control surface is shown")
	storePassword := pflag.String("store-password", "", "read the mailbox password of this login from stdin and store it in the keyring")
	pflag.Parse()

	log.InitLogging("info")
	logger := log.Logger(log.LOG_MAIN)

	if len(*storePassword) > 0 {
		err := storeInKeyring(*storePassword)
		if err != nil {
			logger.WithField("error", err).Fatal("Could not store password")
		}
		logger.WithField("login", *storePassword).Info("Stored password in keyring")
		return
	}

	conf, err := config.ReadConfig(*configFile)
	if err != nil {
		logger.WithField("error", err).Fatal("Could not load config")
	}

	if conf.Loglevel != nil {
		log.SetLogLevel(*conf.Loglevel)
	}
	if len(*loglevel) > 0 {
		log.SetLogLevel(*loglevel)
	}
	if *dryRun {
		conf.DryRun = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := container.BuildContainer(ctx, conf)
	if err != nil {
		logger.WithField("error", err).Fatal("Could not set up components")
	}

	err = c.Invoke(func(a app) {
		if a.Cache != nil {
			defer a.Cache.Close()
		}

		logger.WithFields(logrus.Fields{"model": a.Embedder.Model(), "provider": conf.Embedding.Provider}).Info("Loading embedding model")
		err := embedding.Probe(ctx, a.Embedder)
		if err != nil {
			logger.WithField("error", err).Fatal("Embedding model unusable")
		}

		logger.WithFields(logrus.Fields{"server": conf.ImapServer, "folder": conf.SourceFolder, "dryrun": conf.DryRun}).Info("Checking mailbox")
		if conf.DryRun {
			logger.Warn("Skipping moving, tagging and replies due to dry-run")
		}
		err = a.Triage.Preflight(ctx)
		if err != nil {
			logger.WithField("error", err).Fatal("Preflight failed")
		}

		switch {
		case *once:
			runOnce(ctx, logger, a.Triage)
		case *withTui:
			runTui(ctx, logger, a.Scheduler, *logFile)
		default:
			runScheduler(ctx, logger, a.Scheduler)
		}
	})
	if err != nil {
		logger.WithField("error", err).Fatal("Could not start receptionist")
	}
}

func runOnce(ctx context.Context, logger *logrus.Logger, t *triage.Triage) {
	report, err := t.RunCycle(ctx, nil)
	if err != nil {
		logger.WithField("error", err).Error("Cycle aborted")
		os.Exit(1)
	}
	if report.Failed > 0 {
		logger.WithField("failed", report.Failed).Warn("Some mails could not be processed, they are retried next run")
	}
}

func runScheduler(ctx context.Context, logger *logrus.Logger, s *scheduler.Scheduler) {
	go s.Start()

	err := s.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.WithField("error", err).Fatal("Scheduler failed")
	}
	logger.Info("Shut down")
}

func runTui(ctx context.Context, logger *logrus.Logger, s *scheduler.Scheduler, logFile string) {
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		logger.WithField("error", err).Fatal("Could not open log file")
	}
	defer f.Close()
	log.SetOutput(f)

	go s.Run(ctx)
	go s.Start()

	_, err = tea.NewProgram(tui.NewModel(s), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	s.Shutdown()
	<-s.Done()

	log.SetOutput(os.Stderr)
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		logger.WithField("error", err).Fatal("Control surface failed")
	}
	logger.Info("Shut down")
}

func storeInKeyring(login string) error {
	fmt.Fprintf(os.Stderr, "Password for %s: ", login)
	password, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && len(password) == 0 {
		return fmt.Errorf("could not read password: %w", err)
	}
	password = strings.TrimRight(password, "\r\n")
	if len(password) == 0 {
		return errors.New("password is empty")
	}

	return config.NewKeyring(config.KeyringService).Set(login, password)
}
