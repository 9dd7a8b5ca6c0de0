// Package storage manages contact-form attachments on the local filesystem.
//
// Uploads arrive in a staging directory (the OS temp dir by default) and are
// moved into the permanent upload directory exactly once, after validation.
// There is no cleanup of moved files if a later step fails.
package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrTooLarge is returned when a staged upload exceeds the size cap.
var ErrTooLarge = errors.New("upload exceeds maximum size")

// Uploads stores attachments under Dir.
type Uploads struct {
	Dir      string
	StageDir string // "" means os.TempDir(); keep it on the same filesystem as Dir
	MaxBytes int64  // 0 means unlimited
}

// New returns Uploads rooted at dir, creating it and its staging
// subdirectory when missing.
func New(dir string, maxBytes int64) (*Uploads, error) {
	stage := filepath.Join(dir, ".staging")
	if err := os.MkdirAll(stage, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Uploads{Dir: dir, StageDir: stage, MaxBytes: maxBytes}, nil
}

// Stage copies a multipart file into a temporary file and returns its path.
func (u *Uploads) Stage(fh *multipart.FileHeader) (string, error) {
	if u.MaxBytes > 0 && fh.Size > u.MaxBytes {
		return "", ErrTooLarge
	}
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.CreateTemp(u.StageDir, "contactform-*")
	if err != nil {
		return "", err
	}
	var r io.Reader = src
	if u.MaxBytes > 0 {
		r = io.LimitReader(src, u.MaxBytes+1)
	}
	n, err := io.Copy(dst, r)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err == nil && u.MaxBytes > 0 && n > u.MaxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(dst.Name())
		return "", err
	}
	return dst.Name(), nil
}

// PermanentName derives the stored file name for an upload: a random hex
// stem followed by the lower-cased last five characters of the original
// name, which keeps the extension for both 3- and 4-letter suffixes.
func PermanentName(original string) string {
	stem := strings.ReplaceAll(uuid.NewString(), "-", "")
	tail := original
	if len(tail) > 5 {
		tail = tail[len(tail)-5:]
	}
	tail = strings.ToLower(filepath.Base(tail))
	return stem + tail
}

// Move renames the staged file into Dir under a fresh permanent name and
// tries to make it group readable. The chmod is best effort.
func (u *Uploads) Move(stagedPath, originalName string) (string, error) {
	name := PermanentName(originalName)
	dst := filepath.Join(u.Dir, name)
	if err := os.Rename(stagedPath, dst); err != nil {
		return "", fmt.Errorf("move upload: %w", err)
	}
	_ = os.Chmod(dst, 0o664)
	return name, nil
}

// Path returns the absolute location of a stored file name.
func (u *Uploads) Path(name string) string {
	return filepath.Join(u.Dir, filepath.Base(name))
}

// Discard removes a staged file that was never moved.
func Discard(stagedPath string) {
	if stagedPath != "" {
		_ = os.Remove(stagedPath)
	}
}
