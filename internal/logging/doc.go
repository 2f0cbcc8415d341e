// Package logging builds the slog loggers used across seedpipe. The console
// handler renders a compact human-readable line; the JSON handler emits
// machine-parseable records. Commands that mutate the remote store add a
// per-run timestamped log file so every group decision and batch outcome is
// reconstructable from disk.
package logging
