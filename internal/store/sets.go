// SPDX-License-Identifier: MIT

package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Set is one processed {image, caption} pair sharing a numeric base name.
type Set struct {
	BaseName    string    `json:"base_name"`
	ImageFile   string    `json:"image_file"`
	CaptionFile string    `json:"caption_file"`
	Caption     string    `json:"caption"`
	Created     time.Time `json:"created"`
}

// Sets lists the processed sets, sorted by base name. A missing or
// unreadable caption file yields an empty caption, not an error.
func (s *Store) Sets() ([]Set, error) {
	entries, err := os.ReadDir(s.processedDir)
	if err != nil {
		return nil, fmt.Errorf("list processed sets: %w", err)
	}

	sets := make([]Set, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.EqualFold(filepath.Ext(e.Name()), ".png") {
			continue
		}
		base := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		set := Set{
			BaseName:    base,
			ImageFile:   e.Name(),
			CaptionFile: base + ".txt",
		}
		if info, err := e.Info(); err == nil {
			set.Created = info.ModTime()
		}
		if caption, err := s.Caption(base); err == nil {
			set.Caption = caption
		} else if !errors.Is(err, ErrNotFound) {
			s.logger.Warn().Err(err).Str("base_name", base).Msg("could not read caption")
		}
		sets = append(sets, set)
	}
	sort.Slice(sets, func(i, j int) bool { return sets[i].BaseName < sets[j].BaseName })
	return sets, nil
}

// NextBaseName assigns the next unused sequence number: one past the highest
// numeric base currently present. Numbers are never reused after deletion,
// so gaps are expected and preserved.
func (s *Store) NextBaseName() (string, error) {
	entries, err := os.ReadDir(s.processedDir)
	if err != nil {
		return "", fmt.Errorf("scan processed sets: %w", err)
	}
	max := 0
	for _, e := range entries {
		if !strings.EqualFold(filepath.Ext(e.Name()), ".png") {
			continue
		}
		base := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		if n, err := strconv.Atoi(base); err == nil && n > max {
			max = n
		}
	}
	return fmt.Sprintf("%03d", max+1), nil
}

// SetImagePath resolves the image file of a set, verifying it exists.
func (s *Store) SetImagePath(base string) (string, error) {
	path, err := confine(s.processedDir, base+".png")
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

// SaveSetImage writes the image half of a set atomically.
func (s *Store) SaveSetImage(base string, r io.Reader) error {
	path, err := confine(s.processedDir, base+".png")
	if err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read image data: %w", err)
	}
	if err := writeAtomic(path, data); err != nil {
		return fmt.Errorf("save set image %s: %w", base, err)
	}
	return nil
}

// Caption reads the caption text of a set, trimmed of surrounding
// whitespace.
func (s *Store) Caption(base string) (string, error) {
	path, err := confine(s.processedDir, base+".txt")
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path) // #nosec G304 -- confined above
	if os.IsNotExist(err) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read caption %s: %w", base, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// UpdateCaption overwrites the caption text of a set atomically. It is a
// full overwrite, never an append.
func (s *Store) UpdateCaption(base, caption string) error {
	path, err := confine(s.processedDir, base+".txt")
	if err != nil {
		return err
	}
	if err := writeAtomic(path, []byte(caption)); err != nil {
		return fmt.Errorf("update caption %s: %w", base, err)
	}
	return nil
}

// BackupCaption renames the caption of a set to a BKUP_-prefixed file. It
// returns false without error when there is no caption to back up or a
// backup already exists.
func (s *Store) BackupCaption(base string) (bool, error) {
	src, err := confine(s.processedDir, base+".txt")
	if err != nil {
		return false, err
	}
	dst, err := confine(s.processedDir, "BKUP_"+base+".txt")
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(src); os.IsNotExist(err) {
		return false, nil
	}
	if _, err := os.Stat(dst); err == nil {
		return false, nil
	}
	if err := os.Rename(src, dst); err != nil {
		return false, fmt.Errorf("backup caption %s: %w", base, err)
	}
	return true, nil
}

// DeleteSet removes whichever files of the pair exist and returns their
// names. It fails with ErrNotFound only when neither file exists; a partial
// pair is deleted without error.
func (s *Store) DeleteSet(base string) ([]string, error) {
	var deleted []string
	for _, ext := range []string{".png", ".txt"} {
		path, err := confine(s.processedDir, base+ext)
		if err != nil {
			return nil, err
		}
		if err := os.Remove(path); err == nil {
			deleted = append(deleted, base+ext)
		} else if !os.IsNotExist(err) {
			return deleted, fmt.Errorf("delete set %s: %w", base, err)
		}
	}
	if len(deleted) == 0 {
		return nil, ErrNotFound
	}
	return deleted, nil
}
