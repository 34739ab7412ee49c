package analysis

import (
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	reportIDPrefix   = "rep"
	compactTimestamp = "20060102_150405"
	defaultImageExt  = "jpg"
)

func shortSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// NewReportID returns rep_<YYYYMMDD_HHMMSS>_<8 hex>.
func NewReportID(now time.Time) string {
	return reportIDPrefix + "_" + now.UTC().Format(compactTimestamp) + "_" + shortSuffix()
}

// ImageExtension infers the stored object's extension from the upload name.
func ImageExtension(filename string) string {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(strings.TrimSpace(filename))), ".")
	if ext == "" {
		return defaultImageExt
	}
	return ext
}

// ObjectKey returns outfits/<user>/<YYYYMMDD_HHMMSS>_<8 hex>.<ext>.
func ObjectKey(userID, filename string, now time.Time) string {
	user := strings.NewReplacer("/", "_", "\\", "_").Replace(strings.TrimSpace(userID))
	return "outfits/" + user + "/" + now.UTC().Format(compactTimestamp) + "_" + shortSuffix() + "." + ImageExtension(filename)
}
