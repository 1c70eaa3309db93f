package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aweris/keeper"
)

var rootCmd = &cobra.Command{
	Use:           "keeper",
	Short:         "Disk-backed key-value cache CLI",
	Long:          "CLI for reading and maintaining a keeper cache directory.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "keeper:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default: ~/.config/keeper/config.yaml)")
	flags.String("cache-dir", "", "cache directory (default: ~/.cache/keeper)")
	flags.Int("workers", keeper.DefaultStoreWorkers, "number of store workers")
	flags.Duration("cleanup-interval", keeper.DefaultCleanupInterval, "time between background sweeps")
	flags.Int("compression-level", 0, "zstd level 1-3 for new entries (0 disables compression)")
	flags.String("log-level", "warn", "log level")
	flags.Bool("log-json", false, "log as JSON")

	viper.BindPFlag("cache_dir", flags.Lookup("cache-dir"))
	viper.BindPFlag("workers", flags.Lookup("workers"))
	viper.BindPFlag("cleanup_interval", flags.Lookup("cleanup-interval"))
	viper.BindPFlag("compression_level", flags.Lookup("compression-level"))
	viper.BindPFlag("log_level", flags.Lookup("log-level"))
	viper.BindPFlag("log_json", flags.Lookup("log-json"))
}

func initConfig() {
	if cfg := rootCmd.PersistentFlags().Lookup("config").Value.String(); cfg != "" {
		viper.SetConfigFile(cfg)
	} else {
		viper.AddConfigPath(configDir())
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("KEEPER")
	viper.AutomaticEnv()
	viper.SetDefault("cache_dir", defaultCacheDir())

	viper.ReadInConfig()
}

func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "keeper")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "keeper")
	}
	return ".keeper"
}

func defaultCacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "keeper")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "keeper")
	}
	return ".keeper"
}

func getCacheDir() string {
	if dir := viper.GetString("cache_dir"); dir != "" {
		return dir
	}
	return defaultCacheDir()
}

func newLogger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(viper.GetString("log_level"))
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetOutput(os.Stderr)
	if viper.GetBool("log_json") {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	}
	return logger, nil
}

// openKeeper opens the configured cache. Callers must Close it.
func openKeeper() (*keeper.Keeper, error) {
	logger, err := newLogger()
	if err != nil {
		return nil, err
	}

	opts := []keeper.OpenOption{
		keeper.WithLogger(logger),
		keeper.WithStoreWorkers(viper.GetInt("workers")),
		keeper.WithCleanupInterval(viper.GetDuration("cleanup_interval")),
	}
	if level := viper.GetInt("compression_level"); level > 0 {
		opts = append(opts, keeper.WithCompression(level))
	}
	return keeper.Open(getCacheDir(), opts...)
}

// withKeeper runs fn against an open keeper and closes it afterwards.
func withKeeper(fn func(k *keeper.Keeper) error) (err error) {
	k, err := openKeeper()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := k.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(k)
}
