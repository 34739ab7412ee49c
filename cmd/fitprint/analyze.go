package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/yungbote/fitprint-backend/internal/app"
	"github.com/yungbote/fitprint-backend/internal/modules/analysis"
)

type analyzeOptions struct {
	userID string
	file   string
	trace  bool
}

func (o analyzeOptions) validate() error {
	if strings.TrimSpace(o.userID) == "" {
		return errors.New("--user is required")
	}
	if strings.TrimSpace(o.file) == "" {
		return errors.New("--file is required")
	}
	return nil
}

func newAnalyzeCommand() *cobra.Command {
	var opts analyzeOptions
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run one outfit analysis and print the result as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			data, err := os.ReadFile(opts.file)
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}

			a, err := app.New(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Services.Analyzer.Analyze(cmd.Context(), analysis.Request{
				UserID:   opts.userID,
				Image:    data,
				Filename: filepath.Base(opts.file),
			})
			if err != nil {
				return err
			}
			if opts.trace {
				writeTrace(cmd.ErrOrStderr(), res.Stages)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	cmd.Flags().StringVar(&opts.userID, "user", "", "User the clothing item belongs to")
	cmd.Flags().StringVar(&opts.file, "file", "", "Path to the outfit photo")
	cmd.Flags().BoolVar(&opts.trace, "trace", false, "Print the per-stage trace to stderr")
	return cmd
}

func writeTrace(w io.Writer, stages []analysis.StageRecord) {
	for _, s := range stages {
		line := fmt.Sprintf("%-24s %8s", s.State, s.Duration.Round(time.Millisecond))
		if s.Fallback {
			line += "  fallback"
		}
		for _, d := range s.Degradations {
			line += "  " + string(d)
		}
		fmt.Fprintln(w, line)
	}
}
