package cli

import (
	"context"

	"resumescreen/internal/common"
	"resumescreen/internal/types"

	"github.com/spf13/cobra"
)

var screenCmd = &cobra.Command{
	Use:   "screen [resume-file]",
	Short: "Screen one resume against a job description",
	Long: `Screen a single resume (PDF, DOCX, text, markdown or HTML) against a job
description. The resume passes through the structural quality gate and, if it is
accepted, is scored for skills, experience, education and semantic fit. The
result is stored and printed.`,
	Args: cobra.ExactArgs(1),
	RunE: runScreen,
}

var (
	screenConfig common.CommandConfig
	screenJD     jdSource
)

func init() {
	addOutputFlags(screenCmd, &screenConfig)
	screenJD.addFlags(screenCmd)
}

func runScreen(cmd *cobra.Command, args []string) error {
	logger, err := getLoggerFromContext(cmd.Context())
	if err != nil {
		return err
	}

	return withServices(cmd, func(ctx context.Context, svc *common.Services) error {
		return common.RunCommand(ctx, logger, screenConfig,
			func(ctx context.Context) (types.ResumeDetail, error) {
				profile, err := svc.LoadProfile(ctx, screenJD.file, screenJD.text)
				if err != nil {
					return types.ResumeDetail{}, err
				}
				out := svc.Runner.Run(ctx, args[0], profile)
				logger.Info("Resume screened",
					"file", args[0],
					"resume_id", out.Detail.ID,
					"status", out.Status,
					"decision", out.Detail.Decision)
				return out.Detail, nil
			},
			func(cfg common.CommandConfig) {
				logger.Info("Starting resume screening", "file", args[0], "output_format", cfg.OutputFormat)
			})
	})
}

// jdSource holds the job description flags shared by screen, batch and jd.
type jdSource struct {
	file string
	text string
}

func (s *jdSource) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.file, "jd", "", "Job description file (text, markdown or HTML)")
	cmd.Flags().StringVar(&s.text, "jd-text", "", "Job description text")
	cmd.MarkFlagsMutuallyExclusive("jd", "jd-text")
}
