package organizer

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// MoveRecord describes one organized file.
type MoveRecord struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Category string `json:"category"`
}

// OrganizeReport summarizes one organize run.
type OrganizeReport struct {
	Moved      []MoveRecord   `json:"moved"`
	ByCategory map[string]int `json:"by_category"`
	Skipped    int            `json:"skipped"`
}

// Organize moves every file in srcDir (non-recursive) into
// destDir/<category>/. Name collisions get a numeric suffix before the
// extension. Subdirectories are left alone.
func Organize(srcDir, destDir string) (*OrganizeReport, error) {
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return nil, fmt.Errorf("read source directory: %w", err)
	}

	report := &OrganizeReport{ByCategory: make(map[string]int)}
	for _, entry := range entries {
		if entry.IsDir() {
			report.Skipped++
			continue
		}

		src := filepath.Join(srcDir, entry.Name())
		category := Classify(src)
		targetDir := filepath.Join(destDir, category)
		if err := os.MkdirAll(targetDir, 0o755); err != nil {
			return nil, fmt.Errorf("create category directory: %w", err)
		}

		dst, err := conflictFreePath(filepath.Join(targetDir, entry.Name()))
		if err != nil {
			return nil, err
		}
		if err := os.Rename(src, dst); err != nil {
			slog.Warn("failed to move file",
				slog.String("from", src),
				slog.String("error", err.Error()))
			report.Skipped++
			continue
		}

		report.Moved = append(report.Moved, MoveRecord{From: src, To: dst, Category: category})
		report.ByCategory[category]++
	}
	return report, nil
}

// conflictFreePath returns path, or the first name_N variant that does
// not exist yet.
func conflictFreePath(path string) (string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path, nil
	}

	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for i := 1; i < 10000; i++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, i, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("could not find a free name for %s", path)
}
