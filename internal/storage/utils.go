package storage

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// GenerateFileName generates a UUID-based file name keeping the extension of the original name
func GenerateFileName(extension string) string {
	extension = strings.ToLower(extension)
	if extension != "" && extension[0] != '.' {
		extension = "." + extension
	}
	return uuid.NewString() + extension
}

// OwnedBy reports whether relPath lies in the YYYY/MM/user_<userID>/ partition written by Save
func OwnedBy(relPath string, userID int) bool {
	if userID <= 0 || relPath == "" || strings.Contains(relPath, "\\") || strings.Contains(relPath, "..") {
		return false
	}
	if path.Clean(relPath) != relPath || path.IsAbs(relPath) {
		return false
	}

	segments := strings.Split(relPath, "/")
	if len(segments) != 4 {
		return false
	}
	year, month, owner, name := segments[0], segments[1], segments[2], segments[3]
	return len(year) == 4 && isDigits(year) &&
		len(month) == 2 && isDigits(month) &&
		owner == fmt.Sprintf("user_%d", userID) &&
		name != ""
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// sizeWriter counts the bytes written through it
type sizeWriter struct {
	size int64
}

// Write implements io.Writer interface
func (sw *sizeWriter) Write(p []byte) (int, error) {
	sw.size += int64(len(p))
	return len(p), nil
}

// Size returns the total number of bytes written
func (sw *sizeWriter) Size() int64 {
	return sw.size
}

// NewSizeWriter creates a new SizeWriter instance
func NewSizeWriter() *sizeWriter {
	return &sizeWriter{}
}
