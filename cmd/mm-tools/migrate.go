package main

import (
	"fmt"

	"github.com/Sadisms/mm-tools/internal/logutil"
	"github.com/Sadisms/mm-tools/migrate"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newMigrateURLCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate-url",
		Short: "Rewrite callback URLs in previously-sent messages to a new base URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			newBase, err := cmd.Flags().GetString("new-base-url")
			if err != nil {
				return err
			}

			migrator, err := migratorFromViper()
			if err != nil {
				return err
			}

			outcomes, err := migrator.Run(cmd.Context(), newBase)
			if err != nil {
				return err
			}
			printOutcomes(cmd, outcomes)
			return nil
		},
	}
	cmd.Flags().String("new-base-url", "", "New public callback base URL (required).")
	_ = cmd.MarkFlagRequired("new-base-url")
	return cmd
}

func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Drop UI records whose messages no longer exist on the platform",
		RunE: func(cmd *cobra.Command, args []string) error {
			migrator, err := migratorFromViper()
			if err != nil {
				return err
			}

			outcomes, err := migrator.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			printOutcomes(cmd, outcomes)
			return nil
		},
	}
}

func migratorFromViper() (*migrate.Migrator, error) {
	logger, err := logutil.LoggerFromViper()
	if err != nil {
		return nil, err
	}
	gdb, err := openDBFromViper()
	if err != nil {
		return nil, err
	}
	return migrate.NewMigrator(
		migrate.NewGormRecordStore(gdb),
		platformClientFromViper(),
		logger,
		migrate.WithWorkers(viper.GetInt("migrate.workers")),
		migrate.WithRecordTimeout(viper.GetDuration("migrate.record_timeout")),
	), nil
}

// printOutcomes reports each record's result; a record-level failure is
// operator information, not a command failure.
func printOutcomes(cmd *cobra.Command, outcomes []migrate.Outcome) {
	for _, o := range outcomes {
		if o.Err != nil {
			cmd.Printf("%s\t%s\t%v\n", o.MessageID, o.Status, o.Err)
			continue
		}
		cmd.Printf("%s\t%s\n", o.MessageID, o.Status)
	}
	summary := migrate.Summarize(outcomes)
	cmd.Println()
	fmt.Fprintf(cmd.OutOrStdout(), "total=%d", len(outcomes))
	for _, status := range []migrate.Status{
		migrate.StatusMigrated,
		migrate.StatusSkippedCurrent,
		migrate.StatusSkippedGone,
		migrate.StatusAlive,
		migrate.StatusFailed,
	} {
		if count, ok := summary[status]; ok {
			fmt.Fprintf(cmd.OutOrStdout(), " %s=%d", status, count)
		}
	}
	fmt.Fprintln(cmd.OutOrStdout())
}
