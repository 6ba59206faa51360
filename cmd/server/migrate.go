package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/pr-poehali-dev/telegram-copy-project/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the messenger tables if they do not exist",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()

		gw, err := database.Init(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer gw.Close()

		if err := database.Migrate(ctx, gw.DB()); err != nil {
			return err
		}
		log.Info("database: Schema applied", "statements", len(database.Statements()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
