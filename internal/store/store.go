// SPDX-License-Identifier: MIT

// Package store manages the on-disk workspace: a "raw" area of imported
// images and a "processed" area of numbered {image, caption} set pairs.
package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"

	"github.com/imgcapt/imgcapt/internal/log"
)

// ErrNotFound is returned when a referenced file or set does not exist.
var ErrNotFound = errors.New("store: not found")

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
}

// IsImage reports whether name has a recognised image extension.
func IsImage(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

// Store provides access to the raw and processed areas under one data
// directory. Methods are safe for concurrent use by HTTP handlers; directory
// mutation during a concurrent listing may observe partial state, which is
// accepted.
type Store struct {
	rawDir       string
	processedDir string
	logger       zerolog.Logger
}

// Open prepares the data directory, creating the raw and processed areas if
// needed.
func Open(dataDir string) (*Store, error) {
	abs, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	s := &Store{
		rawDir:       filepath.Join(abs, "raw"),
		processedDir: filepath.Join(abs, "processed"),
		logger:       log.WithComponent("store"),
	}
	for _, dir := range []string{s.rawDir, s.processedDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return s, nil
}

// RawDir returns the absolute path of the raw area.
func (s *Store) RawDir() string { return s.rawDir }

// ProcessedDir returns the absolute path of the processed area.
func (s *Store) ProcessedDir() string { return s.processedDir }

// RawImages lists the image files in the raw area, sorted by name.
func (s *Store) RawImages() ([]string, error) {
	entries, err := os.ReadDir(s.rawDir)
	if err != nil {
		return nil, fmt.Errorf("list raw images: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && IsImage(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// RawImagePath resolves name inside the raw area, rejecting traversal, and
// verifies the file exists.
func (s *Store) RawImagePath(name string) (string, error) {
	path, err := confine(s.rawDir, name)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", ErrNotFound
	}
	return path, nil
}

// SaveRawImage writes an imported image into the raw area. The stored name
// is the base of name: uploads from directory pickers carry path prefixes.
func (s *Store) SaveRawImage(name string, r io.Reader) error {
	base := filepath.Base(filepath.Clean(name))
	path, err := confine(s.rawDir, base)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o640) // #nosec G304 -- confined above
	if err != nil {
		return fmt.Errorf("create raw image %s: %w", base, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return fmt.Errorf("write raw image %s: %w", base, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close raw image %s: %w", base, err)
	}
	return nil
}

// DeleteRawImage removes one image from the raw area.
func (s *Store) DeleteRawImage(name string) error {
	path, err := s.RawImagePath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete raw image %s: %w", name, err)
	}
	return nil
}

// ClearRaw removes every image file from the raw area and returns how many
// were deleted. The operation is non-transactional: concurrent listings may
// observe a partial state.
func (s *Store) ClearRaw() (int, error) {
	names, err := s.RawImages()
	if err != nil {
		return 0, err
	}
	count := 0
	for _, name := range names {
		if err := os.Remove(filepath.Join(s.rawDir, name)); err != nil {
			return count, fmt.Errorf("clear raw area: %w", err)
		}
		count++
	}
	return count, nil
}

// writeAtomic writes data to path with fsync-before-rename durability.
func writeAtomic(path string, data []byte) error {
	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o640))
	if err != nil {
		return fmt.Errorf("create pending file: %w", err)
	}
	defer func() {
		_ = pending.Cleanup()
	}()
	if _, err := pending.Write(data); err != nil {
		return fmt.Errorf("write pending file: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace %s: %w", path, err)
	}
	return nil
}
