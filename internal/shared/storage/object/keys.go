package object

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"path"
	"strings"

	"github.com/google/uuid"
)

const maxFileNameLen = 120

// ErrInvalidFileName is returned for names that are empty or try to escape
// the user namespace.
var ErrInvalidFileName = errors.New("invalid file name")

// UserNamespace is the key prefix owned by a user. Raw ids such as
// "guest:<uuid>" never appear in storage paths.
func UserNamespace(userID string) string {
	sum := sha256.Sum256([]byte(userID))
	return hex.EncodeToString(sum[:])
}

// UploadKey places an original COA upload under the user's namespace.
func UploadKey(userID, fileName string) (string, error) {
	name, err := CleanFileName(fileName)
	if err != nil {
		return "", err
	}
	return path.Join(UserNamespace(userID), "uploads", uuid.NewString()+"_"+name), nil
}

// RenderedKey is the storage key for a rendered certificate PDF.
func RenderedKey(userID, certificateID string) string {
	return path.Join(UserNamespace(userID), "rendered", certificateID+".pdf")
}

// ExtractedTextKey holds the text layer pulled from an upload.
func ExtractedTextKey(uploadKey string) string {
	return uploadKey + ".extracted.txt"
}

// CleanFileName keeps the base name of a client-supplied file name, collapses
// whitespace and caps the length while keeping the extension.
func CleanFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrInvalidFileName
	}
	s := path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	s = strings.Join(strings.Fields(s), "_")
	if s == "" || s == "." || s == "/" {
		return "", ErrInvalidFileName
	}
	if len(s) > maxFileNameLen {
		ext := path.Ext(s)
		if len(ext) > 10 {
			ext = ""
		}
		s = s[:maxFileNameLen-len(ext)] + ext
	}
	return s, nil
}
