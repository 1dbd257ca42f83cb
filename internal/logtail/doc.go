// Package logtail reads the tail of vitrine's own log for the in-app log
// overlay.
//
// Read keeps a ring buffer of the last N lines, so memory stays bounded by
// N rather than by the file size. Parse and Filter understand the
// key=value lines written by slog's text handler and let the overlay show
// only warnings and errors.
//
//	lines, err := logtail.Read(cfg.LogPath(), 400)
//	if err != nil {
//		return err
//	}
//	for _, e := range logtail.Filter(lines, slog.LevelWarn) {
//		fmt.Println(e.Level, e.Message)
//	}
package logtail
