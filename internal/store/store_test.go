// SPDX-License-Identifier: MIT

package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestOpenCreatesAreas(t *testing.T) {
	s := newStore(t)
	for _, dir := range []string{s.RawDir(), s.ProcessedDir()} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestRawImageLifecycle(t *testing.T) {
	s := newStore(t)

	require.NoError(t, s.SaveRawImage("b.png", strings.NewReader("png-bytes")))
	require.NoError(t, s.SaveRawImage("a.jpg", strings.NewReader("jpg-bytes")))
	// Directory-picker uploads carry path prefixes that must be stripped.
	require.NoError(t, s.SaveRawImage("album/c.webp", strings.NewReader("webp-bytes")))

	names, err := s.RawImages()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg", "b.png", "c.webp"}, names)

	path, err := s.RawImagePath("a.jpg")
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "jpg-bytes", string(data))

	require.NoError(t, s.DeleteRawImage("a.jpg"))
	_, err = s.RawImagePath("a.jpg")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRawImagesIgnoresNonImages(t *testing.T) {
	s := newStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.RawDir(), "notes.txt"), []byte("x"), 0o600))
	require.NoError(t, s.SaveRawImage("ok.png", strings.NewReader("x")))

	names, err := s.RawImages()
	require.NoError(t, err)
	assert.Equal(t, []string{"ok.png"}, names)
}

func TestClearRaw(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.SaveRawImage("a.png", strings.NewReader("x")))
	require.NoError(t, s.SaveRawImage("b.png", strings.NewReader("x")))

	n, err := s.ClearRaw()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	names, err := s.RawImages()
	require.NoError(t, err)
	assert.Empty(t, names)

	n, err = s.ClearRaw()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestConfineRejectsTraversal(t *testing.T) {
	s := newStore(t)
	for _, name := range []string{"../escape.png", "/etc/passwd", "..", "a/../../b.png"} {
		_, err := s.RawImagePath(name)
		assert.Error(t, err, name)
	}
}

func TestSetRoundTrip(t *testing.T) {
	s := newStore(t)

	base, err := s.NextBaseName()
	require.NoError(t, err)
	assert.Equal(t, "001", base)

	require.NoError(t, s.SaveSetImage(base, strings.NewReader("image-bytes")))
	require.NoError(t, s.UpdateCaption(base, "a dog on a beach"))

	caption, err := s.Caption(base)
	require.NoError(t, err)
	assert.Equal(t, "a dog on a beach", caption)

	require.NoError(t, s.UpdateCaption(base, "a cat indoors"))
	caption, err = s.Caption(base)
	require.NoError(t, err)
	assert.Equal(t, "a cat indoors", caption, "update is a full overwrite")

	sets, err := s.Sets()
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Equal(t, "001", sets[0].BaseName)
	assert.Equal(t, "001.png", sets[0].ImageFile)
	assert.Equal(t, "a cat indoors", sets[0].Caption)
}

func TestNextBaseNameIsGapTolerant(t *testing.T) {
	s := newStore(t)

	for i := 0; i < 3; i++ {
		base, err := s.NextBaseName()
		require.NoError(t, err)
		require.NoError(t, s.SaveSetImage(base, strings.NewReader("x")))
	}

	_, err := s.DeleteSet("002")
	require.NoError(t, err)

	base, err := s.NextBaseName()
	require.NoError(t, err)
	assert.Equal(t, "004", base, "deleted numbers are never reused")
}

func TestDeleteSetPartialPairs(t *testing.T) {
	s := newStore(t)

	// Both halves present.
	require.NoError(t, s.SaveSetImage("001", strings.NewReader("x")))
	require.NoError(t, s.UpdateCaption("001", "c"))
	deleted, err := s.DeleteSet("001")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"001.png", "001.txt"}, deleted)

	// Image only.
	require.NoError(t, s.SaveSetImage("002", strings.NewReader("x")))
	deleted, err = s.DeleteSet("002")
	require.NoError(t, err)
	assert.Equal(t, []string{"002.png"}, deleted)

	// Caption only.
	require.NoError(t, s.UpdateCaption("003", "orphan"))
	deleted, err = s.DeleteSet("003")
	require.NoError(t, err)
	assert.Equal(t, []string{"003.txt"}, deleted)

	// Neither: not found.
	_, err = s.DeleteSet("004")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBackupCaption(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.UpdateCaption("001", "original"))

	ok, err := s.BackupCaption("001")
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := os.ReadFile(filepath.Join(s.ProcessedDir(), "BKUP_001.txt"))
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))

	// Second backup attempt is a no-op while the first backup exists.
	require.NoError(t, s.UpdateCaption("001", "new"))
	ok, err = s.BackupCaption("001")
	require.NoError(t, err)
	assert.False(t, ok)

	// Nothing to back up.
	ok, err = s.BackupCaption("999")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCaptionTrimsWhitespace(t *testing.T) {
	s := newStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.ProcessedDir(), "001.txt"), []byte("  padded \n"), 0o600))
	caption, err := s.Caption("001")
	require.NoError(t, err)
	assert.Equal(t, "padded", caption)
}
