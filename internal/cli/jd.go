package cli

import (
	"context"

	"resumescreen/internal/common"
	"resumescreen/internal/jd"

	"github.com/spf13/cobra"
)

var jdCmd = &cobra.Command{
	Use:   "jd [job-description-file]",
	Short: "Show how a job description is interpreted",
	Long: `Analyze a job description and print the profile resumes are scored
against: mandatory and optional skills, the experience range and whether a degree
is required.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runJD,
}

var (
	jdConfig common.CommandConfig
	jdText   string
)

func init() {
	addOutputFlags(jdCmd, &jdConfig)
	jdCmd.Flags().StringVar(&jdText, "text", "", "Job description text instead of a file")
}

func runJD(cmd *cobra.Command, args []string) error {
	logger, err := getLoggerFromContext(cmd.Context())
	if err != nil {
		return err
	}
	var file string
	if len(args) == 1 {
		file = args[0]
	}

	return withServices(cmd, func(ctx context.Context, svc *common.Services) error {
		return common.RunCommand(ctx, logger, jdConfig,
			func(ctx context.Context) (*jd.Profile, error) {
				return svc.LoadProfile(ctx, file, jdText)
			},
			func(cfg common.CommandConfig) {
				logger.Info("Starting job description analysis", "file", file, "output_format", cfg.OutputFormat)
			})
	})
}
