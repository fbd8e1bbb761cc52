package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/satriahrh/diet-coach/adapters/storage"
	"github.com/satriahrh/diet-coach/domain"
	"github.com/satriahrh/diet-coach/usecase"
)

const recordDateLayout = "20060102"

func newRecordsCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "records",
		Short: "List every member's food records for one day",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateRecordDate(date); err != nil {
				return err
			}
			cfg, err := loadConfig(settings)
			if err != nil {
				return err
			}
			db, err := storage.Open(storageConfig(cfg.DB))
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}

			svc := usecase.NewFoodRecordService(
				storage.NewFoodRecordRepository(db),
				storage.NewFoodNutritionRepository(db),
				nil,
			)
			records, err := svc.ByDate(cmd.Context(), date)
			if err != nil {
				return err
			}
			return writeRecords(cmd.OutOrStdout(), date, records)
		},
	}
	cmd.Flags().StringVar(&date, "date", time.Now().Format(recordDateLayout), "Day to list, as yyyyMMdd.")
	return cmd
}

func validateRecordDate(date string) error {
	if len(date) != len(recordDateLayout) {
		return fmt.Errorf("date %q is not yyyyMMdd", date)
	}
	if _, err := time.Parse(recordDateLayout, date); err != nil {
		return fmt.Errorf("date %q is not yyyyMMdd", date)
	}
	return nil
}

func writeRecords(w io.Writer, date string, records []domain.FoodRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintf(w, "no food records on %s\n", date)
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RECORD\tMEMBER\tFOOD ID\tFOOD")
	for _, r := range records {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", r.RecordID, r.UserID, r.FoodID, r.FoodList)
	}
	return tw.Flush()
}
