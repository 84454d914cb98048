// SPDX-License-Identifier: MIT

package store

import (
	"fmt"
	"path/filepath"
	"strings"
)

// confine joins name onto root and rejects anything that would escape it:
// absolute paths, traversal sequences, and separators hidden in the name.
func confine(root, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty file name")
	}
	if strings.ContainsRune(name, 0) {
		return "", fmt.Errorf("invalid file name")
	}
	cleaned := filepath.Clean(name)
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the workspace", name)
	}
	joined := filepath.Join(root, cleaned)
	rel, err := filepath.Rel(root, joined)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the workspace", name)
	}
	return joined, nil
}
