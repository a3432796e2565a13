// Package logging provides file-based logging with rotation for Watchpost,
// plus the append-only change audit trail. Service logs are structured JSON
// written to ~/.watchpost/logs/server.log; every watch decision (recorded,
// suppressed, flushed, sent, failed) is additionally appended to
// ~/.watchpost/logs/changes.jsonl so the full notification history can be
// reconstructed after the fact.
//
// The --debug flag raises the level to debug; without it logging stays at
// info and mirrors to stderr unless the dashboard owns the terminal.
package logging
