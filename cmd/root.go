// File: cmd/root.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/xkilldash9x/dailyembed/internal/config"
	"github.com/xkilldash9x/dailyembed/internal/observability"
	"go.uber.org/zap"
)

// ctxKey is an unexported type for context keys to prevent collisions.
type ctxKey int

const configKey ctxKey = iota

// annotationSkipValidation marks commands that never open the admin site
// and so do not need credentials.
const annotationSkipValidation = "skip-validation"

var (
	cfgFile string
	envFile string
)

// NewRootCommand builds a fresh command tree. Every call returns an
// independent instance, which keeps flag state from leaking between runs.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "dailyembed",
		Short:         "Embeds the latest channel video into the day's admin entry.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			config.SetDefaults(v)

			if err := initializeConfig(cmd, v); err != nil {
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "dailyembed"})
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			load := config.NewConfigFromViper
			if cmd.Annotations[annotationSkipValidation] == "true" {
				load = config.LoadFromViper
			}
			cfg, err := load(v)
			if err != nil {
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "dailyembed"})
				return err
			}

			observability.InitializeLogger(cfg.Logger())
			logStartup(observability.GetLogger(), time.Now())

			cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./dailyembed.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file holding DAILYEMBED_* variables")
	rootCmd.SetVersionTemplate(`{{printf "%s version %s\n" .Name .Version}}`)

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newLatestCmd())
	return rootCmd
}

// Execute runs the command tree under ctx, logging any failure.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCommand()
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		logger := observability.GetLogger()
		if errors.Is(err, context.Canceled) {
			logger.Warn("Run aborted by signal.")
		} else {
			logger.Error("Command execution failed.", zap.Error(err))
			fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
		}
	}
	observability.Sync()
	return err
}

// initializeConfig layers the config file, the dotenv file and the
// environment onto v. Existing environment variables win over the dotenv
// file.
func initializeConfig(cmd *cobra.Command, v *viper.Viper) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error reading env file %s: %w", envFile, err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("dailyembed")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(config.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed with defaults/env vars
	}
	return nil
}

// configFrom returns the configuration stored by the root pre-run hook.
func configFrom(ctx context.Context) (*config.Config, error) {
	cfg, ok := ctx.Value(configKey).(*config.Config)
	if !ok || cfg == nil {
		return nil, errors.New("configuration not initialized")
	}
	return cfg, nil
}

// logStartup records the clock the run reasons about, since the target day
// depends on it.
func logStartup(logger *zap.Logger, now time.Time) {
	zone, offset := now.Zone()
	logger.Info("Starting dailyembed",
		zap.String("version", Version),
		zap.String("timezone", zone),
		zap.Duration("utc_offset", time.Duration(offset)*time.Second),
		zap.Time("local_time", now),
		zap.Time("utc_time", now.UTC()),
		zap.Int("pid", os.Getpid()),
	)
}
