package main

import (
	"fmt"

	"github.com/chris9740/swiftdns/config"
	"github.com/semihalev/zlog/v2"
	"github.com/spf13/cobra"
)

const version = "1.0.0"

var (
	cfgPath  string
	logLevel string

	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:               "swiftdns",
		Short:             "filtering DNS proxy over DNS-over-HTTPS",
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "swiftdns v"+version)
		},
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgPath, "config", "c", config.DefaultPath, "location of the config file, if not found it will be generated")
	flags.StringVar(&logLevel, "loglevel", "", "override the configured log level (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
}

// setup loads the config and installs the logger. Commands annotated as
// quiet log warnings only, unless a level is forced on the command line.
func setup(cmd *cobra.Command, args []string) error {
	level := "info"
	if cmd.Annotations[annotationQuiet] != "" {
		level = "warn"
	}
	if logLevel != "" {
		level = logLevel
	}

	if err := setupLogger(level); err != nil {
		return err
	}

	var err error
	if cfg, err = config.Load(cfgPath); err != nil {
		zlog.Error("Config loading failed", "error", err.Error())
		return err
	}

	if logLevel == "" && cmd.Annotations[annotationQuiet] == "" {
		return setupLogger(cfg.LogLevel)
	}

	return nil
}

func setupLogger(level string) error {
	lvl, err := parseLevel(level)
	if err != nil {
		return err
	}

	logger := zlog.NewStructured()
	logger.SetWriter(zlog.StdoutTerminal())
	logger.SetLevel(lvl)
	zlog.SetDefault(logger)

	return nil
}

func parseLevel(level string) (zlog.Level, error) {
	switch level {
	case "debug":
		return zlog.LevelDebug, nil
	case "info":
		return zlog.LevelInfo, nil
	case "warn":
		return zlog.LevelWarn, nil
	case "error":
		return zlog.LevelError, nil
	}

	return 0, fmt.Errorf("log verbosity level unknown: %q", level)
}

const annotationQuiet = "quiet"
