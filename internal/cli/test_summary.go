package cli

import (
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/AndreyAkinshin/phpbuild/internal/errors"
	"github.com/AndreyAkinshin/phpbuild/internal/testparser"
	"github.com/AndreyAkinshin/phpbuild/internal/testrun"
)

// reportPattern selects Surefire reports inside a directory argument.
const reportPattern = "**/*.xml"

func (a *app) testSummaryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "test-summary [report-or-dir...]",
		Short: "Summarize Surefire XML reports",
		Long: `Parses Surefire XML reports and prints the per-suite lines and totals.
Directories are searched recursively for *.xml files. Without arguments the
project's reports directory is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				proj, err := a.loadProject()
				if err != nil {
					return err
				}
				args = []string{proj.Paths().Reports}
			}
			files, err := collectReports(args)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return errors.NotFound("test reports", filepath.Join(args[0], reportPattern))
			}
			counts, err := a.summarizeReports(files)
			if err != nil {
				return err
			}
			if counts.Failed() {
				return &testrun.Error{Counts: counts}
			}
			return nil
		},
	}
}

// collectReports expands directory arguments into their report files.
// File arguments are kept as given.
func collectReports(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, errors.IOf(err, "read %s", arg)
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		matches, err := doublestar.Glob(os.DirFS(arg), reportPattern)
		if err != nil {
			return nil, errors.IOf(err, "search %s", arg)
		}
		for _, m := range matches {
			files = append(files, filepath.Join(arg, filepath.FromSlash(m)))
		}
	}
	return files, nil
}

// summarizeReports prints every suite of files followed by the totals.
func (a *app) summarizeReports(files []string) (testparser.TestCounts, error) {
	var counts testparser.TestCounts
	a.out.TestsBanner()
	for _, f := range files {
		results, err := testparser.ParseReportFile(f)
		if err != nil {
			return counts, err
		}
		for _, r := range results {
			counts.AddResult(r)
			a.out.SuiteResult(r)
		}
	}
	a.out.TestResults(counts)
	return counts, nil
}
