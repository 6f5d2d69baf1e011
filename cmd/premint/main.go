package main

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/compose-network/premint/configs"
	"github.com/compose-network/premint/internal/cli"
	"github.com/compose-network/premint/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const appName = "premint"

var rootCmd = &cobra.Command{
	Use:          appName,
	Short:        "CLI for preparing, signing, submitting and redeeming premints",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.InitializeWith(os.Stderr, slog.LevelInfo, logger.FormatJSON)

		viper.SetConfigName("config")
		viper.SetConfigType("yaml")

		if execPath, err := os.Executable(); err == nil {
			execDir := filepath.Dir(execPath)
			viper.AddConfigPath(execDir)
		}
		viper.AddConfigPath(".")
		viper.AddConfigPath("./configs")

		// Try to read config file, but don't fail if it doesn't exist
		// Flags can provide all necessary configuration
		if err := viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				slog.Debug("no config file found, will rely on flags and defaults")
			} else {
				const errMsg = "error reading config file"
				slog.With("err", err.Error()).Error(errMsg)
				return errors.Join(err, errors.New(errMsg))
			}
		}

		if err := viper.Unmarshal(&configs.Values); err != nil {
			const errMsg = "unable to decode application config"
			slog.With("err", err.Error()).Error(errMsg)
			return errors.Join(err, errors.New(errMsg))
		}
		if len(configs.Values.Premint.AllowedVersions) == 0 {
			configs.Values.Premint.AllowedVersions = configs.MustDefaultConfig().Premint.AllowedVersions
		}

		level, err := logger.ParseLevel(configs.Values.Log.Level)
		if err != nil {
			return err
		}
		logger.InitializeWith(os.Stderr, level, configs.Values.Log.Format)

		if used := viper.ConfigFileUsed(); used != "" {
			slog.With("config_file", used).Debug("config file loaded")
		}
		slog.With("config", configs.Values).Debug("configuration loaded")

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		cli.LogMetricsSummary()
	},
}

func main() {
	if err := cli.DeclareFlags(rootCmd.PersistentFlags()); err != nil {
		panic(err.Error())
	}

	rootCmd.AddCommand(cli.NetworksCMD)
	rootCmd.AddCommand(cli.PayloadCMD)
	rootCmd.AddCommand(cli.RecoverCMD)
	rootCmd.AddCommand(cli.SubmitCMD)
	rootCmd.AddCommand(cli.RedeemCMD)
	rootCmd.AddCommand(cli.ListCMD)
	rootCmd.AddCommand(cli.CostCMD)
	rootCmd.AddCommand(cli.AllowListCMD)

	if err := rootCmd.Execute(); err != nil {
		slog.With("err", err.Error()).Error("failed to execute root command")
		os.Exit(1)
	}
}
