package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/huonw/external-mixin/pkg/ctxlog"
	"github.com/huonw/external-mixin/pkg/mixin"
)

// session is everything a command needs to run expansions.
type session struct {
	ctx      context.Context
	log      *slog.Logger
	config   loadedConfig
	registry *mixin.Registry
	printer  *diagPrinter
	stop     context.CancelFunc
}

// openSession loads configuration, sets up logging and registers every
// extension. The context is cancelled on SIGINT and SIGTERM, which kills any
// running mixin process tree.
func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(flagConfigs, flagNoBuiltins)
	if err != nil {
		return nil, err
	}
	level, format, root := effectiveSettings(cmd, cfg)

	lvl, err := ctxlog.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("--log-level: %w", err)
	}
	logger := ctxlog.New(lvl, format, os.Stderr)
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("configuration loaded", "files", cfg.Files, "extensions", len(cfg.Definitions))

	printer := newDiagPrinter(cmd.ErrOrStderr())
	reg := mixin.NewRegistry()
	n := reg.RegisterAll(cfg.Definitions, mixin.Config{SandboxRoot: root}, printer)
	if n < len(cfg.Definitions) {
		stop()
		_ = reg.Close()
		return nil, fmt.Errorf("%d of %d extensions could not be registered", len(cfg.Definitions)-n, len(cfg.Definitions))
	}
	for _, name := range reg.Names() {
		ext, _ := reg.Lookup(name)
		logger.Debug("registered extension", "name", name, "sandbox", ext.SandboxDir())
	}

	return &session{
		ctx:      ctx,
		log:      logger,
		config:   cfg,
		registry: reg,
		printer:  printer,
		stop:     stop,
	}, nil
}

// Close removes every sandbox.
func (s *session) Close() error {
	defer s.stop()
	return s.registry.Close()
}

// jobs is the number of templates to expand concurrently: the flag when
// given, else the configured value, else one per CPU.
func (s *session) jobs(flag int) int {
	if flag > 0 {
		return flag
	}
	if s.config.Settings.Jobs != nil {
		return *s.config.Settings.Jobs
	}
	return runtime.NumCPU()
}

// effectiveSettings applies flags over configured settings. A flag only wins
// when it was set explicitly.
func effectiveSettings(cmd *cobra.Command, cfg loadedConfig) (level, format, sandboxRoot string) {
	level, format, sandboxRoot = flagLogLevel, flagLogFormat, flagSandboxRoot
	flags, s := cmd.Flags(), cfg.Settings
	if s.LogLevel != nil && !flags.Changed("log-level") {
		level = *s.LogLevel
	}
	if s.LogFormat != nil && !flags.Changed("log-format") {
		format = *s.LogFormat
	}
	if s.SandboxRoot != nil && !flags.Changed("sandbox-root") {
		sandboxRoot = *s.SandboxRoot
	}
	return level, format, sandboxRoot
}
