package ingestion

import (
	"fmt"
	"strings"
)

const (
	SourceSuffix     = "-source.mp4"
	VideoContentType = "video/mp4"
	keyNamespace     = "videos"
)

// KeyStrategy decides where a source video lives in the bucket.
type KeyStrategy string

const (
	// KeyFlat places objects at videos/<pid>/<pid>-source.mp4.
	KeyFlat KeyStrategy = "flat"
	// KeyPerUser places objects at videos/<username>/<pid>/<pid>-source.mp4.
	KeyPerUser KeyStrategy = "per_user"
)

// ParseKeyStrategy maps a config value to a KeyStrategy.
func ParseKeyStrategy(raw string) (KeyStrategy, error) {
	switch KeyStrategy(strings.ToLower(strings.TrimSpace(raw))) {
	case KeyFlat, "":
		return KeyFlat, nil
	case KeyPerUser:
		return KeyPerUser, nil
	default:
		return "", fmt.Errorf("unknown key strategy %q", raw)
	}
}

// StorageKey derives the object key for a process.
func (s KeyStrategy) StorageKey(processID, username string) string {
	file := processID + SourceSuffix
	if s == KeyPerUser {
		return strings.Join([]string{keyNamespace, username, processID, file}, "/")
	}
	return strings.Join([]string{keyNamespace, processID, file}, "/")
}
