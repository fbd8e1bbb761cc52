package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satriahrh/diet-coach/adapters/storage"
	"github.com/satriahrh/diet-coach/utils/log"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(settings)
			if err != nil {
				return err
			}
			sc := storageConfig(cfg.DB)
			sc.AutoMigrate = false
			db, err := storage.Open(sc)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}
			if err := storage.AutoMigrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			log.With().Info("schema migrated")
			return nil
		},
	}
}
