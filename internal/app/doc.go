// Package app is the composition root of vitrine.
//
// # Overview
//
// Open loads the configuration, opens the log file and the thumbnail
// cache, and builds the gallery client together with the store, the event
// bus and the controllers that operate on them. Run hands those services
// to the TUI; the CLI subcommands use Open directly.
//
// # Startup
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()          Read ~/.config/vitrine/config.toml
//	       ├─────> openLogger()           slog text handler on <log_dir>/vitrine.log
//	       ├─────> gallery.NewClient()    Paced HTTP client
//	       ├─────> thumbcache.Open()      SQLite cache, pruned on open
//	       ├─────> prefs.Load()           Theme, cell width, trash, sort
//	       ├─────> StartPoller()          Background stats refresh
//	       └─────> ui.Run()               TUI (blocks)
//
// # Polling
//
// The poller only refreshes aggregate counts. Failures are logged at debug
// level and retried with exponential backoff capped at 30 seconds, so a
// restarting server never interrupts the UI.
//
// # Error handling
//
// Configuration and client construction errors are fatal. An unavailable
// cache, an unwritable log directory or an unreachable server are not: vitrine
// runs without the cache, discards logs, or shows the error in its status line.
package app
