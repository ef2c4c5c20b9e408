package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/echosync/internal/buildinfo"
	"github.com/dmitrijs2005/echosync/internal/server"
	"github.com/dmitrijs2005/echosync/internal/server/auth"
	"github.com/dmitrijs2005/echosync/internal/server/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "echo-relay",
		Short:   "echosync relay server",
		Long:    `echo-relay forwards encrypted clipboard frames between the devices of an account.`,
		Version: buildinfo.Version,
	}
	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (yaml, json or toml)")

	root.AddCommand(newServeCmd(), newTokenCmd())
	return root
}

func newServeCmd() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the relay",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v, cfgFile)
			if err != nil {
				return err
			}
			app, err := server.NewApp(cfg)
			if err != nil {
				return err
			}
			return app.Run(cmd.Context())
		},
	}
	if err := config.BindFlags(cmd, v); err != nil {
		panic(err)
	}
	return cmd
}

func newTokenCmd() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "token <account-id>",
		Short: "Issue a bearer token for an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v, cfgFile)
			if err != nil {
				return err
			}
			tok, err := auth.GenerateToken(args[0], []byte(cfg.SecretKey), cfg.TokenValidity)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	if err := config.BindFlags(cmd, v); err != nil {
		panic(err)
	}
	return cmd
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
