package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Alturino/flowerbelle/internal/config"
	"github.com/Alturino/flowerbelle/internal/constants"
	"github.com/Alturino/flowerbelle/internal/log"
	saleCmd "github.com/Alturino/flowerbelle/sale/cmd"
)

const (
	flagConfig  = "config"
	flagLogPath = "log-path"
	flagEnv     = "env"
)

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "flowerbelle",
		Short: "Point-of-sale cart and checkout service",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logPath, _ := cmd.Flags().GetString(flagLogPath)
			env, _ := cmd.Flags().GetString(flagEnv)
			logger := log.Get(logPath, env).
				With().
				Str(log.KeyAppName, constants.APP_MAIN_POS).
				Logger()
			cmd.SetContext(logger.WithContext(cmd.Context()))
		},
	}
	rootCmd.PersistentFlags().String(flagConfig, constants.APP_SALE_SERVICE, "config file name under ./env without extension")
	rootCmd.PersistentFlags().String(flagLogPath, "/var/log/flowerbelle.log", "log file path")
	rootCmd.PersistentFlags().String(flagEnv, os.Getenv("APPLICATION_ENV"), "environment, development enables trace logging")

	commands := []*cobra.Command{
		{
			Use:   "serve",
			Short: "Run sale service",
			Run: func(cmd *cobra.Command, args []string) {
				configName, _ := cmd.Flags().GetString(flagConfig)
				saleCmd.RunSaleService(cmd.Context(), configName)
			},
		},
		{
			Use:   "config",
			Short: "Print the resolved configuration",
			RunE: func(cmd *cobra.Command, args []string) error {
				configName, _ := cmd.Flags().GetString(flagConfig)
				cfg, err := config.Load(cmd.Context(), configName)
				if err != nil {
					return err
				}
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(cfg)
			},
		},
		{
			Use:   "version",
			Short: "Print the version",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintln(cmd.OutOrStdout(), constants.APP_VERSION)
			},
		},
	}
	rootCmd.AddCommand(commands...)
	return rootCmd
}

func Start() {
	logger := zerolog.New(os.Stderr).
		With().
		Timestamp().
		Str(log.KeyAppName, constants.APP_MAIN_POS).
		Str(log.KeyTag, "main Start").
		Logger()

	logger.Info().Msg("adding listener for SIGINT and SIGTERM")
	c, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger.Info().Msg("added listener for SIGINT and SIGTERM")

	if err := newRootCommand().ExecuteContext(logger.WithContext(c)); err != nil {
		logger.Fatal().Err(err).Msgf("error when executing command=%s", err.Error())
	}
}
