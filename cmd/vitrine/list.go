package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/five82/vitrine/internal/app"
	"github.com/five82/vitrine/internal/gallery"
	"github.com/five82/vitrine/internal/state"
)

// listFlags holds the filter flags of the list command.
type listFlags struct {
	trash    bool
	search   string
	scope    string
	sort     string
	workflow bool
	prompt   bool
	edited   bool
	tags     bool
	folders  []string
	formats  []string
	from     string
	to       string
}

// dateLayout is the calendar form accepted by --from and --to.
const dateLayout = "2006-01-02"

func (f listFlags) patch() (*state.FilterPatch, error) {
	from, err := parseDate(f.from, false)
	if err != nil {
		return nil, fmt.Errorf("--from: %w", err)
	}
	to, err := parseDate(f.to, true)
	if err != nil {
		return nil, fmt.Errorf("--to: %w", err)
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, fmt.Errorf("--to %s is before --from %s", f.to, f.from)
	}
	return &state.FilterPatch{
		ShowTrashed: state.Set(f.trash),
		Search:      state.Set(f.search),
		SearchIn:    state.Set(gallery.SearchScope(f.scope)),
		Sort:        state.Set(gallery.SortOrder(f.sort)),
		HasWorkflow: state.Set(f.workflow),
		HasPrompt:   state.Set(f.prompt),
		HasEdits:    state.Set(f.edited),
		HasTags:     state.Set(f.tags),
		Folders:     state.Set(f.folders),
		Formats:     state.Set(f.formats),
		Range:       state.Set(state.DateRange{From: from, To: to}),
	}, nil
}

// parseDate reads a local calendar day or an RFC 3339 timestamp. A bare day
// used as the upper bound covers the whole day.
func parseDate(s string, endOfDay bool) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return nil, fmt.Errorf("want YYYY-MM-DD or RFC 3339, got %q", s)
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &t, nil
}

func newListCmd(opts *app.Options) *cobra.Command {
	var lf listFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the images matching a filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			patch, err := lf.patch()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			svc, err := app.Open(ctx, *opts)
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			if _, err := svc.Library.SetFilters(ctx, patch); err != nil {
				return err
			}

			st := svc.Store.GetState()
			out := cmd.OutOrStdout()
			if len(st.Images) == 0 {
				fmt.Fprintln(out, "No images match.")
				return nil
			}
			fmt.Fprintln(out, imageTable(st.Images))
			fmt.Fprintf(out, "%d of %d images\n", st.Counts.Filtered, st.Counts.Total)
			return nil
		},
	}

	f := cmd.Flags()
	f.BoolVar(&lf.trash, "trash", false, "list trashed images")
	f.StringVar(&lf.search, "search", "", "free-text search")
	f.StringVar(&lf.scope, "in", string(gallery.SearchFilename), "search scope: filename, prompt or workflow")
	f.StringVar(&lf.sort, "sort", string(gallery.SortNewest), "sort order: newest, oldest or name")
	f.BoolVar(&lf.workflow, "workflow", false, "only images with an embedded workflow")
	f.BoolVar(&lf.prompt, "prompt", false, "only images with an embedded prompt")
	f.BoolVar(&lf.edited, "edited", false, "only images with saved edits")
	f.BoolVar(&lf.tags, "tags", false, "only images with tags")
	f.StringSliceVar(&lf.folders, "folder", nil, "only images in these subfolders (repeatable)")
	f.StringSliceVar(&lf.formats, "format", nil, "only these formats, e.g. png,webp (repeatable)")
	f.StringVar(&lf.from, "from", "", "only images modified on or after this day (YYYY-MM-DD)")
	f.StringVar(&lf.to, "to", "", "only images modified on or before this day (YYYY-MM-DD)")
	return cmd
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func imageTable(images []gallery.Image) string {
	rows := make([][]string, 0, len(images))
	for _, img := range images {
		modified := ""
		if t := img.ModifiedTime(); !t.IsZero() {
			modified = t.Local().Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{img.Filename, img.Subfolder, img.Format, modified, imageFlags(img)})
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("NAME", "FOLDER", "FORMAT", "MODIFIED", "FLAGS").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		String()
}

func imageFlags(img gallery.Image) string {
	var flags []string
	if img.HasWorkflow {
		flags = append(flags, "workflow")
	}
	if img.HasPrompt {
		flags = append(flags, "prompt")
	}
	if img.HasEdit {
		flags = append(flags, "edited")
	}
	if img.Trashed {
		flags = append(flags, "trashed")
	}
	return strings.Join(flags, ",")
}
