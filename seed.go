package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/satriahrh/diet-coach/adapters/storage"
	"github.com/satriahrh/diet-coach/usecase"
	"github.com/satriahrh/diet-coach/utils/log"
)

func newSeedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load food nutrition rows from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(settings)
			if err != nil {
				return err
			}

			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()
			foods, err := storage.ParseFoodSeed(f)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}

			db, err := storage.Open(storageConfig(cfg.DB))
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}

			n, err := usecase.NewFoodService(storage.NewFoodNutritionRepository(db)).Seed(cmd.Context(), foods)
			if err != nil {
				return err
			}
			log.With().Info("food nutrition seeded", zap.String("file", file), zap.Int("rows", n))
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d foods from %s\n", n, file)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "data/foods.yaml", "YAML file with a top-level foods list.")
	return cmd
}
