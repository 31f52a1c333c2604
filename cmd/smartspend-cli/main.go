package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"smartspend/internal/backend"
	"smartspend/internal/cli"
	"smartspend/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "smartspend-cli",
	Short: "SmartSpend maintenance commands",
	RunE: func(cmd *cobra.Command, _ []string) error {
		// Show help when no subcommand is provided
		return cmd.Help()
	},
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (default is ./smartspend.yaml if present)")
	rootCmd.PersistentFlags().String("backend", "", "Data backend: memory, sqlite, postgres, mongo")
	rootCmd.PersistentFlags().String("sqlite-path", "", "SQLite database path")
	rootCmd.PersistentFlags().String("database-url", "", "PostgreSQL connection URL")
	rootCmd.PersistentFlags().String("mongo-uri", "", "MongoDB connection URI")
	rootCmd.PersistentFlags().StringP("user", "u", "", "User id the command acts on")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	_ = viper.BindPFlag("data_backend", rootCmd.PersistentFlags().Lookup("backend"))
	_ = viper.BindPFlag("sqlite_db_path", rootCmd.PersistentFlags().Lookup("sqlite-path"))
	_ = viper.BindPFlag("database_url", rootCmd.PersistentFlags().Lookup("database-url"))
	_ = viper.BindPFlag("mongo_uri", rootCmd.PersistentFlags().Lookup("mongo-uri"))
	_ = viper.BindPFlag("user", rootCmd.PersistentFlags().Lookup("user"))

	rootCmd.AddCommand(seedCmd(), summaryCmd(), exportCmd())
}

func initConfig() {
	cli.LoadEnvFile()
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("smartspend")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}
	// DATA_BACKEND, SQLITE_DB_PATH, ... share their names with the server.
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		newLogger().Debug("using config file", "file", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		fmt.Fprintln(os.Stderr, "read config:", err)
		os.Exit(1)
	}
}

func newLogger() *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "smartspend",
		Level:           level,
	})
}

// loadConfig starts from the server's environment configuration and
// applies config file and flag overrides on top.
func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	override := func(key string, dst *string) {
		if v := viper.GetString(key); v != "" {
			*dst = v
		}
	}
	override("data_backend", &cfg.DataBackend)
	override("sqlite_db_path", &cfg.SQLiteDBPath)
	override("database_url", &cfg.DatabaseURL)
	override("mongo_uri", &cfg.MongoURI)
	override("mongo_database", &cfg.MongoDatabase)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openStore opens the configured backend. The caller runs the returned
// cleanup when done.
func openStore(ctx context.Context, logger *log.Logger) (*backend.BackendResult, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if backend.BackendType(cfg.DataBackend) == backend.MemoryBackend {
		logger.Warn("memory backend selected, changes are lost when the command exits")
	}
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	return backend.NewFactory(slog.New(logger)).CreateBackend(ctx, bc)
}

func requireUser() (string, error) {
	user := strings.TrimSpace(viper.GetString("user"))
	if user == "" {
		return "", fmt.Errorf("--user is required")
	}
	return user, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
