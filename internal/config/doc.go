// Package config loads vitrine's TOML configuration.
//
// # Discovery
//
// Load reads the given path, or ~/.config/vitrine/config.toml when the path
// is empty. A missing file is not an error: every field has a default, and
// fields that are absent or empty in the file keep theirs.
//
// # Keys
//
//	api_url = "http://127.0.0.1:8188"          # gallery server
//	log_dir = "~/.local/share/vitrine/logs"   # vitrine.log lives here
//	cache_dir = "~/.cache/vitrine"            # thumbs.sqlite lives here
//	prioritize_debounce_ms = 250              # visibility quiet period
//	prioritize_batch = 50                     # paths per prioritize request
//	exit_animation_ms = 300                   # placeholder exit duration
//	poll_seconds = 10                         # stats refresh interval
//	thumbnail_rate = 20                       # thumbnail requests per second, 0 = unpaced
//
// Paths starting with ~ are expanded against the user's home directory and
// relative paths are made absolute.
package config
