package organizer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
)

// DedupeReport summarizes one dedupe run.
type DedupeReport struct {
	// Kept maps each content hash with duplicates to the path kept.
	Kept map[string]string `json:"kept"`

	// Removed lists the duplicate paths that were deleted.
	Removed []string `json:"removed"`

	// BytesFreed is the total size of removed duplicates.
	BytesFreed int64 `json:"bytes_freed"`
}

// Dedupe removes files whose contents duplicate another file in dir.
// For each duplicate group the oldest file survives; ties break on
// path order. With dryRun set, nothing is deleted and the report shows
// what would go.
func Dedupe(ctx context.Context, dir string, dryRun bool) (*DedupeReport, error) {
	files, err := Inventory(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("inventory for dedupe: %w", err)
	}

	byHash := make(map[string][]FileInfo)
	for _, f := range files {
		byHash[f.Hash] = append(byHash[f.Hash], f)
	}

	report := &DedupeReport{Kept: make(map[string]string)}
	for hash, group := range byHash {
		if len(group) < 2 {
			continue
		}

		sort.Slice(group, func(i, j int) bool {
			if group[i].ModifiedAt.Equal(group[j].ModifiedAt) {
				return group[i].Path < group[j].Path
			}
			return group[i].ModifiedAt.Before(group[j].ModifiedAt)
		})

		report.Kept[hash] = group[0].Path
		for _, dup := range group[1:] {
			if !dryRun {
				if err := os.Remove(dup.Path); err != nil {
					slog.Warn("failed to remove duplicate",
						slog.String("path", dup.Path),
						slog.String("error", err.Error()))
					continue
				}
			}
			report.Removed = append(report.Removed, dup.Path)
			report.BytesFreed += dup.Size
		}
	}

	sort.Strings(report.Removed)
	return report, nil
}
