// Package logtail reads the end of the syncer log file for the UI log panel.
//
// Read keeps a ring buffer of maxLines entries, so memory stays bounded no
// matter how large the file grows, and returns the lines oldest first. A
// missing file is not an error.
//
// Parse understands the key=value lines written by the slog text handler and
// pulls out level and msg so the panel can color lines by severity.
package logtail
