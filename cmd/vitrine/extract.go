package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/vitrine/internal/app"
	"github.com/five82/vitrine/internal/conflicts"
	"github.com/five82/vitrine/internal/gallery"
)

func newExtractCmd(opts *app.Options) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "extract <path>...",
		Short: "Extract generation metadata into sidecar files",
		Long: `extract asks the server to write the embedded prompt and workflow of
each image next to it. Existing sidecars are reported as conflicts and
resolved interactively unless --force is given.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := app.Open(ctx, *opts)
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			out := cmd.OutOrStdout()
			sum, queue, err := svc.Library.Extract(ctx, args, force)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Extracted %d", len(sum.Succeeded))
			if sum.Conflicts > 0 {
				fmt.Fprintf(out, ", %d conflicts", sum.Conflicts)
			}
			fmt.Fprintln(out)
			printFailures(out, sum.Failed)

			if queue == nil {
				return nil
			}
			report, err := resolveConflicts(ctx, queue, cmd.InOrStdin(), out)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Conflicts: %d overwritten, %d skipped, %d cancelled\n",
				len(report.Overwritten), len(report.Skipped), len(report.Cancelled))
			printFailures(out, report.Failed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing sidecars without asking")
	return cmd
}

// resolveConflicts asks about each conflict on in until the queue is done.
// End of input cancels the remaining conflicts.
func resolveConflicts(ctx context.Context, q *conflicts.Queue, in io.Reader, out io.Writer) (conflicts.Report, error) {
	scanner := bufio.NewScanner(in)
	for {
		c, ok := q.Current()
		if !ok {
			return q.Report(), nil
		}
		fmt.Fprintf(out, "%s: %s\n  [o]verwrite, [s]kip, [a]bort all? ", c.Path, c.Reason)

		choice := conflicts.CancelAll
		if scanner.Scan() {
			var known bool
			choice, known = parseChoice(scanner.Text())
			if !known {
				fmt.Fprintln(out, "  please answer o, s or a")
				continue
			}
		}
		if err := q.Resolve(ctx, choice); err != nil {
			return q.Report(), err
		}
	}
}

func parseChoice(s string) (conflicts.Choice, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "o", "overwrite":
		return conflicts.Overwrite, true
	case "s", "skip", "":
		return conflicts.Skip, true
	case "a", "abort":
		return conflicts.CancelAll, true
	}
	return conflicts.Skip, false
}

func printFailures(out io.Writer, failed []gallery.FailedItem) {
	for _, f := range failed {
		fmt.Fprintf(out, "  failed %s: %s\n", f.Path, f.Error)
	}
}
