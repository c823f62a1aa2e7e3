package cli

import (
	"context"
	"fmt"

	"resumescreen/internal/common"
	"resumescreen/internal/types"
	"resumescreen/internal/worker"

	"github.com/spf13/cobra"
)

var batchCmd = &cobra.Command{
	Use:   "batch [resume-files or directories...]",
	Short: "Screen many resumes concurrently",
	Long: `Screen every given resume, and every supported file inside given
directories, against one job description using a bounded worker pool.

With --watch the command keeps running after the initial files and screens each
new or rewritten file that appears in the watched directory, until interrupted.
A summary of every resume screened is printed at the end.`,
	RunE: runBatch,
}

var (
	batchConfig      common.CommandConfig
	batchJD          jdSource
	batchWatchDir    string
	batchConcurrency int
)

func init() {
	addOutputFlags(batchCmd, &batchConfig)
	batchJD.addFlags(batchCmd)
	batchCmd.Flags().StringVar(&batchWatchDir, "watch", "", "Directory to watch for new resumes until interrupted")
	batchCmd.Flags().IntVarP(&batchConcurrency, "concurrency", "c", 0, "Resumes screened at once (default from config)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && batchWatchDir == "" {
		return fmt.Errorf("no resumes given: pass files, directories or --watch")
	}
	logger, err := getLoggerFromContext(cmd.Context())
	if err != nil {
		return err
	}

	return withServices(cmd, func(ctx context.Context, svc *common.Services) error {
		cfg := svc.Config
		concurrency := cfg.Worker.Concurrency
		if batchConcurrency != 0 {
			concurrency = batchConcurrency
		}
		if err := common.ValidateConcurrency(concurrency); err != nil {
			return err
		}

		return common.RunCommand(ctx, logger, batchConfig,
			func(ctx context.Context) (types.BatchSummary, error) {
				profile, err := svc.LoadProfile(ctx, batchJD.file, batchJD.text)
				if err != nil {
					return types.BatchSummary{}, err
				}

				files, err := common.NewFileProcessor(logger).CollectResumes(args, cfg.Worker.Inbox.Extensions)
				if err != nil {
					return types.BatchSummary{}, err
				}

				pool := worker.NewPool(ctx, worker.NewScreenProcessor(svc.Runner, profile),
					concurrency, cfg.Worker.QueueSize, logger)

				summary := types.BatchSummary{JDHash: profile.Hash}
				done := make(chan struct{})
				go func() {
					defer close(done)
					for res := range pool.Results() {
						summary.Add(res.Outcome.Detail.ResumeRecord)
					}
				}()

				runErr := feedPool(ctx, svc, pool, files)
				closeErr := pool.Close()
				<-done

				logger.Info("Batch finished",
					"total", summary.Total,
					"processed", summary.Processed,
					"invalid", summary.Invalid,
					"errors", summary.Errors)
				if runErr != nil {
					return summary, runErr
				}
				return summary, closeErr
			},
			func(cfg common.CommandConfig) {
				logger.Info("Starting batch screening",
					"inputs", len(args),
					"watch", batchWatchDir,
					"concurrency", concurrency,
					"output_format", cfg.OutputFormat)
			})
	})
}

// feedPool submits files and, in watch mode, every settled inbox file until ctx
// is done.
func feedPool(ctx context.Context, svc *common.Services, pool *worker.Pool, files []string) error {
	for _, f := range files {
		if err := pool.Submit(f); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}

	if batchWatchDir == "" {
		return nil
	}

	inbox, err := worker.NewInbox(batchWatchDir, svc.Config.Worker.Inbox, svc.Metrics, svc.Logger)
	if err != nil {
		return err
	}
	svc.Logger.Info("Watching for new resumes, interrupt to finish", "directory", batchWatchDir)
	return inbox.Run(ctx, pool.Submit)
}
