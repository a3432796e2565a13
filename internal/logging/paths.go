package logging

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultLogDir returns the default log directory (~/.watchpost/logs/).
// Falls back to temp directory if home directory is unavailable.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".watchpost", "logs")
	}
	return filepath.Join(home, ".watchpost", "logs")
}

// DefaultLogPath returns the default service log path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "server.log")
}

// DefaultTrailPath returns the default audit trail path.
func DefaultTrailPath() string {
	return filepath.Join(DefaultLogDir(), "changes.jsonl")
}

// LogSource represents the source of logs to view.
type LogSource string

const (
	// LogSourceServer is the service logs (default).
	LogSourceServer LogSource = "server"
	// LogSourceChanges is the append-only change audit trail.
	LogSourceChanges LogSource = "changes"
	// LogSourceAll combines all log sources.
	LogSourceAll LogSource = "all"
)

// FindLogFile attempts to find the log file for viewing.
// Priority:
// 1. Explicit path (if provided)
// 2. ~/.watchpost/logs/server.log (global)
//
// Returns an error if no log file is found.
func FindLogFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit, nil
		}
		return "", fmt.Errorf("log file not found: %s", explicit)
	}

	// Try global path
	globalPath := DefaultLogPath()
	if _, err := os.Stat(globalPath); err == nil {
		return globalPath, nil
	}

	return "", fmt.Errorf("no log file found. Service may not have run yet.\nExpected at: %s", globalPath)
}

// FindLogFileBySource finds log files based on the source type.
// Returns a list of log file paths that exist.
func FindLogFileBySource(source LogSource, explicit string) ([]string, error) {
	// Explicit path takes precedence
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return []string{explicit}, nil
		}
		return nil, fmt.Errorf("log file not found: %s", explicit)
	}

	var paths []string
	var checked []string

	switch source {
	case LogSourceServer:
		serverPath := DefaultLogPath()
		checked = append(checked, serverPath)
		if _, err := os.Stat(serverPath); err == nil {
			paths = append(paths, serverPath)
		}

	case LogSourceChanges:
		trailPath := DefaultTrailPath()
		checked = append(checked, trailPath)
		if _, err := os.Stat(trailPath); err == nil {
			paths = append(paths, trailPath)
		}

	case LogSourceAll:
		serverPath := DefaultLogPath()
		trailPath := DefaultTrailPath()
		checked = append(checked, serverPath, trailPath)

		if _, err := os.Stat(serverPath); err == nil {
			paths = append(paths, serverPath)
		}
		if _, err := os.Stat(trailPath); err == nil {
			paths = append(paths, trailPath)
		}

	default:
		return nil, fmt.Errorf("unknown log source: %s (use: server, changes, all)", source)
	}

	if len(paths) == 0 {
		hint := getLogHint(source)
		return nil, fmt.Errorf("no log files found for source '%s'.\nChecked: %v\n\n%s", source, checked, hint)
	}

	return paths, nil
}

// ParseLogSource parses a string into a LogSource.
func ParseLogSource(s string) LogSource {
	switch s {
	case "changes":
		return LogSourceChanges
	case "all":
		return LogSourceAll
	default:
		return LogSourceServer
	}
}

// EnsureLogDir creates the log directory if it doesn't exist.
func EnsureLogDir() error {
	dir := DefaultLogDir()
	return os.MkdirAll(dir, 0o755)
}

// getLogHint returns a helpful message on how to generate logs for the given source.
func getLogHint(source LogSource) string {
	switch source {
	case LogSourceServer:
		return "To generate service logs:\n  watchpost watch"
	case LogSourceChanges:
		return "The audit trail is written once the service observes changes:\n  watchpost watch"
	case LogSourceAll:
		return "To generate logs:\n  watchpost watch"
	default:
		return ""
	}
}
