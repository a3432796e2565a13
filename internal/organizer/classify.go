// Package organizer sorts, inventories and deduplicates files on disk.
// Classification goes by extension first, then by content sniffing for
// files whose extension says nothing.
package organizer

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
)

// File categories used for organizing and inventory.
const (
	CategoryDocuments    = "documents"
	CategoryImages       = "images"
	CategorySpreadsheets = "spreadsheets"
	CategoryArchives     = "archives"
	CategoryAudio        = "audio"
	CategoryVideo        = "video"
	CategoryCode         = "code"
	CategoryData         = "data"
	CategoryOther        = "other"
)

// categoryByExt maps lowercase extensions to categories.
var categoryByExt = map[string]string{
	".pdf": CategoryDocuments, ".doc": CategoryDocuments, ".docx": CategoryDocuments,
	".txt": CategoryDocuments, ".md": CategoryDocuments, ".rtf": CategoryDocuments,
	".odt": CategoryDocuments, ".ppt": CategoryDocuments, ".pptx": CategoryDocuments,

	".jpg": CategoryImages, ".jpeg": CategoryImages, ".png": CategoryImages,
	".gif": CategoryImages, ".bmp": CategoryImages, ".svg": CategoryImages,
	".webp": CategoryImages, ".tiff": CategoryImages, ".heic": CategoryImages,

	".xls": CategorySpreadsheets, ".xlsx": CategorySpreadsheets,
	".csv": CategorySpreadsheets, ".ods": CategorySpreadsheets,

	".zip": CategoryArchives, ".tar": CategoryArchives, ".gz": CategoryArchives,
	".bz2": CategoryArchives, ".xz": CategoryArchives, ".rar": CategoryArchives,
	".7z": CategoryArchives,

	".mp3": CategoryAudio, ".wav": CategoryAudio, ".flac": CategoryAudio,
	".ogg": CategoryAudio, ".m4a": CategoryAudio,

	".mp4": CategoryVideo, ".mkv": CategoryVideo, ".avi": CategoryVideo,
	".mov": CategoryVideo, ".webm": CategoryVideo,

	".go": CategoryCode, ".py": CategoryCode, ".js": CategoryCode,
	".ts": CategoryCode, ".c": CategoryCode, ".h": CategoryCode,
	".java": CategoryCode, ".rb": CategoryCode, ".sh": CategoryCode,
	".rs": CategoryCode,

	".json": CategoryData, ".yaml": CategoryData, ".yml": CategoryData,
	".xml": CategoryData, ".toml": CategoryData, ".sql": CategoryData,
	".db": CategoryData, ".parquet": CategoryData,
}

// Classify returns the category for a file. Extension wins; unknown
// extensions fall back to content sniffing; everything else is other.
func Classify(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if category, ok := categoryByExt[ext]; ok {
		return category
	}
	return sniffCategory(path)
}

// sniffCategory detects the category from the file's magic bytes.
func sniffCategory(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return CategoryOther
	}
	defer f.Close()

	// filetype needs at most 262 bytes to match.
	head := make([]byte, 262)
	n, err := f.Read(head)
	if err != nil && err != io.EOF {
		return CategoryOther
	}
	kind, err := filetype.Match(head[:n])
	if err != nil || kind == filetype.Unknown {
		return CategoryOther
	}

	switch kind.MIME.Type {
	case "image":
		return CategoryImages
	case "audio":
		return CategoryAudio
	case "video":
		return CategoryVideo
	case "application":
		switch kind.MIME.Subtype {
		case "pdf", "msword",
			"vnd.openxmlformats-officedocument.wordprocessingml.document":
			return CategoryDocuments
		case "zip", "x-tar", "gzip", "x-bzip2", "x-xz", "x-rar-compressed", "x-7z-compressed":
			return CategoryArchives
		}
	}
	return CategoryOther
}
