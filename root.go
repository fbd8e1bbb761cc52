package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/satriahrh/diet-coach/adapters/storage"
	"github.com/satriahrh/diet-coach/config"
	"github.com/satriahrh/diet-coach/utils/log"
	"github.com/satriahrh/diet-coach/utils/retry"
)

var settings = config.New()

func Execute() {
	defer log.Sync()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "diet-coach",
		Short:        "Diet coaching server with a streaming Gemini proxy",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "Config file path (optional).")
	cmd.PersistentFlags().String("log-level", "", "Logging level: debug|info|warn|error.")
	cmd.PersistentFlags().Bool("debug", false, "Use the development log encoder.")
	cmd.PersistentFlags().String("db", "", "Database DSN (defaults to diet_coach.sqlite).")
	_ = settings.BindPFlag("config", cmd.PersistentFlags().Lookup("config"))
	_ = settings.BindPFlag("logging.level", cmd.PersistentFlags().Lookup("log-level"))
	_ = settings.BindPFlag("logging.debug", cmd.PersistentFlags().Lookup("debug"))
	_ = settings.BindPFlag("db.dsn", cmd.PersistentFlags().Lookup("db"))

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newSeedCmd())
	cmd.AddCommand(newRecordsCmd())
	cmd.AddCommand(newChatCmd())
	cmd.AddCommand(newWatchCmd())
	return cmd
}

// loadConfig resolves settings and configures the logger. It runs inside each
// command so that flags are already parsed.
func loadConfig(v *viper.Viper) (config.Config, error) {
	if err := config.ReadFile(v, v.GetString("config")); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return config.Config{}, err
	}
	if err := log.Init(cfg.Logging.Level, cfg.Logging.Debug); err != nil {
		return config.Config{}, fmt.Errorf("init logger: %w", err)
	}
	return cfg, nil
}

func storageConfig(c config.DBConfig) storage.Config {
	sc := storage.DefaultConfig()
	sc.Driver = c.Driver
	sc.DSN = c.DSN
	sc.Pool.MaxOpenConns = c.MaxOpenConns
	sc.Pool.MaxIdleConns = c.MaxIdleConns
	sc.Pool.ConnMaxLifetime = c.ConnMaxLifetime
	sc.SQLite.BusyTimeoutMs = c.BusyTimeoutMs
	sc.SQLite.WAL = c.WAL
	sc.AutoMigrate = c.AutoMigrate
	sc.EncryptionKey = c.EncryptionKey
	return sc
}

func retryPolicy(c config.RetryConfig) retry.Policy {
	p := retry.DefaultPolicy()
	p.MaxRetries = c.MaxRetries
	p.InitialDelay = c.InitialBackoff
	p.Multiplier = c.Multiplier
	p.MaxDelay = c.MaxBackoff
	return p
}
