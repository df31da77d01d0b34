// Package logtail reads and parses molar's own log file for the Logs view.
//
// # Overview
//
// The TUI owns the terminal, so logs go to a rotating file. This package
// extracts the last N lines of that file and splits each line written by the
// nested logrus formatter into time, caller, level, [key:value] fields and
// message so the UI can colour and filter them.
//
// # Reading Log Files
//
// Read keeps a ring buffer of maxLines entries while scanning the file once:
//
//   - O(maxLines) memory regardless of file size
//   - lines returned in chronological order
//   - a missing file yields no lines and no error
//
//	lines, err := logtail.Read(cfg.LogPath(), 400)
//	if err != nil {
//		return err
//	}
//
// # Parsing
//
// A formatted line looks like:
//
//	19 Oct 26 - 10:11:12 [client.go:301][send()] [DEBU] [path:/capture-only] [request_id:…] dashboard request
//
// Parse returns an Entry for it. Lines that do not match keep their text in
// Message with an empty Level; Filter attaches them to the preceding entry so
// multi-line output stays together.
//
// # Filtering
//
// Filter(lines, "warn", "scan_1") keeps WARN and above whose raw text contains
// "scan_1", ignoring case.
package logtail
