package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var previewOut string

// previewCmd 只生成报告不发送，邮件配置缺失时也能使用
var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Run a duplicate check and write the HTML report without emailing it",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}

		s, err := newScheduler(cfg, "", nil, log)
		if err != nil {
			return err
		}

		out := s.RunOnce(cmd.Context())
		if out.RenderErr != nil {
			return out.RenderErr
		}

		if previewOut == "" {
			_, err = fmt.Fprint(cmd.OutOrStdout(), out.Body)
			return err
		}
		if err := os.WriteFile(previewOut, []byte(out.Body), 0o644); err != nil {
			return fmt.Errorf("write report %s: %w", previewOut, err)
		}
		log.WithField("path", previewOut).Info("report written")
		return nil
	},
}

func init() {
	previewCmd.Flags().StringVarP(&previewOut, "output", "o", "", "write the report to this file instead of stdout")
}
