package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/basketloom-cli/internal/dataset"
	"github.com/KaramelBytes/basketloom-cli/internal/export"
	"github.com/KaramelBytes/basketloom-cli/internal/pipeline"
	"github.com/KaramelBytes/basketloom-cli/internal/project"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var (
	batchOpts  mineFlags
	batchTable tableFlags
	batchQuiet bool
)

var mineBatchCmd = &cobra.Command{
	Use:   "mine-batch <files...>",
	Short: "Mine multiple CSV/TSV/XLSX files with the same parameters",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := expandInputs(args)
		if err != nil {
			return err
		}
		opt, err := batchTable.options()
		if err != nil {
			return err
		}
		proj, err := batchOpts.openProject()
		if err != nil {
			return err
		}
		params, err := batchOpts.params(cmd.Flags(), proj, opt)
		if err != nil {
			return err
		}
		outDir := batchOpts.outputDir(proj)

		var bar *progressbar.ProgressBar
		if !batchQuiet {
			bar = newProgressBar(len(files), os.Stderr)
		}
		var lines []string
		failed := 0
		for _, path := range files {
			if bar != nil {
				bar.Describe(fmt.Sprintf("[cyan]%s[reset]", filepath.Base(path)))
			}
			line, err := mineOne(cmd, path, params, opt, outDir, proj)
			if err != nil {
				failed++
				slog.Error("Mining failed", "file", path, "error", err)
				line = fmt.Sprintf("✗ %s: %v", filepath.Base(path), err)
			}
			lines = append(lines, line)
			if bar != nil {
				if err := bar.Add(1); err != nil {
					slog.Warn("Failed to update progress bar", "error", err)
				}
			}
			if err := cmd.Context().Err(); err != nil {
				return err
			}
		}
		for _, l := range lines {
			fmt.Println(l)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d files failed", failed, len(files))
		}
		return nil
	},
}

// mineOne runs the pipeline for a single file and returns its status line.
func mineOne(cmd *cobra.Command, path string, params pipeline.Params, opt dataset.Options, outDir string, proj *project.Project) (string, error) {
	t, err := dataset.Load(path, opt)
	if err != nil {
		return "", err
	}
	res, err := pipeline.Run(cmd.Context(), t, params)
	if err != nil {
		return "", err
	}
	line := fmt.Sprintf("✓ %s: %d transactions, %d itemsets, %d rules",
		filepath.Base(path), res.Matrix.Rows(), res.Frequent.Len(), len(res.Rules))
	if !batchOpts.noExport {
		paths, err := exportResult(res, outDir, export.BaseName(path))
		if err != nil {
			return "", err
		}
		line += fmt.Sprintf(" → %s, %s", filepath.Base(paths[0]), filepath.Base(paths[1]))
	}
	if proj != nil {
		id, err := recordRun(cmd.Context(), proj, res)
		if err != nil {
			return "", err
		}
		line += fmt.Sprintf(" (run %s)", shortID(id))
	}
	return line, nil
}

func newProgressBar(n int, w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Mining datasets...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(w); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
}

func init() {
	rootCmd.AddCommand(mineBatchCmd)
	batchOpts.register(mineBatchCmd.Flags())
	batchTable.register(mineBatchCmd.Flags())
	mineBatchCmd.Flags().BoolVar(&batchQuiet, "quiet", false, "suppress the progress bar")
}
