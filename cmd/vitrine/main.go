package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/five82/vitrine/internal/app"
)

// version is set at build time with -ldflags.
var version = "dev"

func main() {
	if err := fang.Execute(
		context.Background(),
		newRootCmd(),
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt, os.Kill),
	); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts app.Options

	cmd := &cobra.Command{
		Use:   "vitrine",
		Short: "Browse, edit and curate a generated-image gallery from the terminal",
		Long: `vitrine connects to a gallery server and shows its images as a
thumbnail grid. Images can be opened, zoomed, adjusted, trashed, restored
and have their generation metadata extracted.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(cmd.Context(), opts)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.ConfigPath, "config", "", "config file path (default ~/.config/vitrine/config.toml)")
	flags.StringVar(&opts.PrefsPath, "prefs", "", "preferences file path")
	flags.StringVar(&opts.APIURL, "api-url", "", "gallery server URL, overrides the config file")
	flags.BoolVar(&opts.Debug, "debug", false, "write debug logs")
	flags.BoolVar(&opts.NoCache, "no-cache", false, "disable the on-disk thumbnail cache")

	cmd.AddCommand(newListCmd(&opts), newExtractCmd(&opts))
	return cmd
}
