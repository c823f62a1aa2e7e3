package cli

import (
	"context"
	"fmt"

	"resumescreen/internal/common"
	"resumescreen/internal/types"

	"github.com/spf13/cobra"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Query and manage stored screening results",
}

var resultsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored resumes, newest first",
	Args:  cobra.NoArgs,
	RunE:  runResultsList,
}

var resultsShowCmd = &cobra.Command{
	Use:   "show [resume-id]",
	Short: "Show one resume with its engine scores and explanations",
	Args:  cobra.ExactArgs(1),
	RunE:  runResultsShow,
}

var resultsDeleteCmd = &cobra.Command{
	Use:   "delete [resume-id...]",
	Short: "Delete stored resumes",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runResultsDelete,
}

var resultsPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete every stored resume",
	Args:  cobra.NoArgs,
	RunE:  runResultsPurge,
}

var (
	listConfig common.CommandConfig
	listFilter types.ListFilter
	showConfig common.CommandConfig
	purgeYes   bool
)

func init() {
	addOutputFlags(resultsListCmd, &listConfig)
	resultsListCmd.Flags().StringVar(&listFilter.Status, "status", "", "Only resumes with this status (e.g. PROCESSED, INVALID_RESUME)")
	resultsListCmd.Flags().StringVar(&listFilter.JDHash, "jd-hash", "", "Only resumes screened against this job description hash")
	resultsListCmd.Flags().IntVarP(&listFilter.Limit, "limit", "n", 50, "Maximum number of resumes (0 for all)")

	addOutputFlags(resultsShowCmd, &showConfig)

	resultsPurgeCmd.Flags().BoolVar(&purgeYes, "yes", false, "Confirm deleting every stored resume")

	resultsCmd.AddCommand(resultsListCmd, resultsShowCmd, resultsDeleteCmd, resultsPurgeCmd)
}

func runResultsList(cmd *cobra.Command, args []string) error {
	logger, err := getLoggerFromContext(cmd.Context())
	if err != nil {
		return err
	}
	return withServices(cmd, func(ctx context.Context, svc *common.Services) error {
		return common.RunCommand(ctx, logger, listConfig,
			func(ctx context.Context) ([]types.ResumeRecord, error) {
				records, err := svc.Store.List(ctx, listFilter)
				if records == nil {
					records = []types.ResumeRecord{}
				}
				return records, err
			}, nil)
	})
}

func runResultsShow(cmd *cobra.Command, args []string) error {
	logger, err := getLoggerFromContext(cmd.Context())
	if err != nil {
		return err
	}
	return withServices(cmd, func(ctx context.Context, svc *common.Services) error {
		return common.RunCommand(ctx, logger, showConfig,
			func(ctx context.Context) (types.ResumeDetail, error) {
				detail, err := svc.Store.Get(ctx, args[0])
				if err != nil {
					return types.ResumeDetail{}, err
				}
				return *detail, nil
			}, nil)
	})
}

func runResultsDelete(cmd *cobra.Command, args []string) error {
	return withServices(cmd, func(ctx context.Context, svc *common.Services) error {
		for _, id := range args {
			if err := svc.Store.Delete(ctx, id); err != nil {
				return err
			}
			svc.Logger.Info("Resume deleted", "resume_id", id)
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
		}
		return nil
	})
}

func runResultsPurge(cmd *cobra.Command, args []string) error {
	if !purgeYes {
		return fmt.Errorf("refusing to delete every stored resume without --yes")
	}
	return withServices(cmd, func(ctx context.Context, svc *common.Services) error {
		n, err := svc.Store.Purge(ctx)
		if err != nil {
			return err
		}
		svc.Logger.Info("Stored resumes purged", "count", n)
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %d resumes\n", n)
		return nil
	})
}
