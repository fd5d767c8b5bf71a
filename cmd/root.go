package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"reci/internal/api"
	"reci/internal/config"
	"reci/internal/intake"
	"reci/internal/logging"
	"reci/internal/preview"
	"reci/internal/submit"
	"reci/internal/ui"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		// Env files come first so the endpoint overrides see them.
		loadDotEnv(".env")
		loadDotEnv(".env.local")

		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) logLevel() string {
	if c.logLevelFlag == nil {
		return ""
	}
	return *c.logLevelFlag
}

// logger opens the file logger. Callers must run the returned close func.
func (c *commandContext) logger() (*slog.Logger, func() error, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, func() error { return nil }, err
	}
	return logging.NewFromConfig(cfg, c.logLevel())
}

// Execute runs the root command.
func Execute(version string) error {
	return newRootCommand(version).Execute()
}

func newRootCommand(version string) *cobra.Command {
	var configFlag string
	var logLevelFlag string

	ctx := newCommandContext(&configFlag, &logLevelFlag)

	rootCmd := &cobra.Command{
		Use:           "reci",
		Short:         "Browse and contribute recipes from the terminal",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(ctx)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level override (debug, info, warn, error, off)")

	rootCmd.AddCommand(newListCommand(ctx))
	rootCmd.AddCommand(newAddCommand(ctx))
	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}

func runTUI(ctx *commandContext) error {
	if !stdinIsTerminal() {
		return errors.New("the interactive catalog needs a terminal; use 'reci list' or 'reci add' instead")
	}

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if !cfg.Configured() {
		if err := runOnboarding(cfg, ctx.configPath); err != nil {
			return fmt.Errorf("failed to run onboarding: %w", err)
		}
		if err := cfg.RequireEndpoints(); err != nil {
			return err
		}
	}

	logger, closeLog, err := ctx.logger()
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	defer closeLog()

	client := api.NewClient(cfg.API.ListURL, cfg.API.CreateURL, cfg.Timeout())
	previews, err := preview.New(client, cfg.UI.PreviewCacheSize, logger)
	if err != nil {
		return fmt.Errorf("failed to create preview cache: %w", err)
	}

	app := ui.New(ui.Options{
		Lister:         client,
		Submitter:      submit.New(client, logger),
		Images:         intake.New(cfg.Images.MaxSourceBytes, logger),
		Previews:       previews,
		Timeout:        cfg.Timeout(),
		SubmitCooldown: cfg.SubmitCooldown(),
		PageCooldown:   cfg.PageCooldown(),
		ToastDuration:  cfg.ToastDuration(),
		Logger:         logger,
	})

	logger.Info("starting catalog", "list_url", cfg.API.ListURL, "create_url", cfg.API.CreateURL)
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running app: %w", err)
	}
	return nil
}

func stdinIsTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func loadDotEnv(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" {
			continue
		}

		value = strings.Trim(value, `"'`)
		if os.Getenv(key) == "" {
			_ = os.Setenv(key, value)
		}
	}
}
