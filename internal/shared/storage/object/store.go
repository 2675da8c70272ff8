// Package object stores uploaded resumes and rendered exports.
package object

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"path"
	"strings"
)

var (
	// ErrInvalidKey is returned for storage keys that escape the store root.
	ErrInvalidKey = errors.New("invalid storage key")
	// ErrInvalidName is returned for upload names that are blank or contain "..".
	ErrInvalidName = errors.New("invalid file name")
)

// ObjectStore saves and retrieves binary objects.
type ObjectStore interface {
	// Save writes an upload under the owner's namespace and returns the generated key.
	Save(ctx context.Context, ownerID string, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	// SaveWithKey writes r at an exact key, replacing any previous object.
	SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
}

// UploadKey builds "<hashed owner>/<random>_<name>". Owner ids are hashed so
// guest ids and emails never appear in object paths.
func UploadKey(ownerID, fileName, randomPrefix string) (string, error) {
	name, err := SafeName(fileName)
	if err != nil {
		return "", err
	}
	return path.Join(OwnerDir(ownerID), randomPrefix+"_"+name), nil
}

// OwnerDir is the hex sha256 of ownerID.
func OwnerDir(ownerID string) string {
	sum := sha256.Sum256([]byte(ownerID))
	return hex.EncodeToString(sum[:])
}

// SafeName flattens separators in an uploaded file name.
func SafeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.Contains(name, "..") {
		return "", ErrInvalidName
	}
	return strings.NewReplacer("/", "_", "\\", "_").Replace(name), nil
}

// ExtractedKey is where the plain text pulled from an upload is kept.
func ExtractedKey(sessionID string) string {
	return path.Join("extracted", sessionID, "resume.txt")
}

// ExportKey is where a rendered download for a session is kept.
func ExportKey(sessionID, fileName string) string {
	return path.Join("exports", sessionID, fileName)
}

// CleanKey rejects absolute keys and parent traversal.
func CleanKey(storageKey string) (string, error) {
	clean := path.Clean(strings.ReplaceAll(storageKey, "\\", "/"))
	if clean == "." || strings.HasPrefix(clean, "/") || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", ErrInvalidKey
	}
	return clean, nil
}
