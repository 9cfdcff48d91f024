package cmd

import (
	"fmt"
	"time"

	"microbench/bench"

	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var (
		store    string
		filePath string
		unitName string
		last     int
	)

	cmd := &cobra.Command{
		Use:   "history <suite>",
		Short: "Show saved runs of a suite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if filePath != "" {
				cfg.StoreFile = filePath
			}
			unit, err := bench.ParseUnit(unitName)
			if err != nil {
				return err
			}

			s, err := newStoreFunc(ctx, store, cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer s.Close()

			runs, err := s.LoadAll(ctx, args[0])
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No saved runs for %q.\n", args[0])
				return nil
			}
			if last > 0 && len(runs) > last {
				runs = runs[len(runs)-last:]
			}

			printer := bench.NewPrinter(cmd.OutOrStdout(), bench.FormatTable)
			for _, run := range runs {
				title := fmt.Sprintf("%s  %s  (times=%d, order=%s)",
					run.Suite, run.Timestamp.Local().Format(time.DateTime), run.Times, run.Order)
				if err := printer.PrintSummaries(title, run.Summaries, unit); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&store, "store", storeFile, "Result store: file, postgres or mysql")
	cmd.Flags().StringVar(&filePath, "store-file", "", "Path of the file store (overrides MICROBENCH_STORE_FILE)")
	cmd.Flags().StringVarP(&unitName, "unit", "u", "", "Display unit: ns, us, ms, s, eps, relative or auto")
	cmd.Flags().IntVar(&last, "last", 0, "Only show the most recent N runs (0 = all)")
	return cmd
}
