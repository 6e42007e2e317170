// Package config loads the syncer configuration file.
//
// # Resolution
//
// Load reads ~/.config/syncer/config.toml unless a path is given. A missing
// file is not an error. After the file, SYNCER_* environment variables
// override individual fields (for example SYNCER_DEVTOOLS_ADDR or
// SYNCER_TAB_MATCH). Empty or zero fields then fall back to defaults.
//
// # Fields
//
//	devtools_addr       = "127.0.0.1:9222"
//	tab_match           = ""
//	state_path          = "~/.local/share/syncer/state.db"
//	log_path            = "~/.local/share/syncer/syncer.log"
//	log_level           = "info"
//	nudge_small         = 1.0
//	nudge_big           = 5.0
//	live_edge_buffer    = 0.5
//	placeholder_pattern = "(?i)blank\\.mp4"
//	poll_seconds        = 2.0
//
// Paths support tilde expansion and are returned absolute. Negative or
// non-finite numbers are rejected.
package config
