package static

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dchest/uniuri"
	"github.com/indigo-web/liso/http/status"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func writeFile(t *testing.T, dir, name, content string, perm os.FileMode) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, os.Chmod(path, perm))

	return path
}

func TestStat(t *testing.T) {
	dir := t.TempDir()

	t.Run("regular file", func(t *testing.T) {
		path := writeFile(t, dir, "index.html", "<h1>Hello</h1>", 0o644)
		file, err := Stat(path)
		require.NoError(t, err)
		require.Equal(t, int64(len("<h1>Hello</h1>")), file.Size)
		require.Nil(t, file.Content())
		require.NoError(t, file.Close())
	})

	t.Run("missing", func(t *testing.T) {
		_, err := Stat(filepath.Join(dir, "missing.html"))
		require.ErrorIs(t, err, status.ErrNotFound)
	})

	t.Run("file used as a directory", func(t *testing.T) {
		path := writeFile(t, dir, "plain.txt", "text", 0o644)
		_, err := Stat(filepath.Join(path, "nested"))
		require.ErrorIs(t, err, status.ErrNotFound)
	})

	t.Run("directory", func(t *testing.T) {
		_, err := Stat(dir)
		require.ErrorIs(t, err, status.ErrForbidden)
	})

	t.Run("not readable by owner", func(t *testing.T) {
		path := writeFile(t, dir, "secret.txt", "secret", 0o200)
		_, err := Stat(path)
		require.ErrorIs(t, err, status.ErrForbidden)
	})

	t.Run("FIFO", func(t *testing.T) {
		path := filepath.Join(dir, "stat.pipe")
		require.NoError(t, unix.Mkfifo(path, 0o644))
		_, err := Stat(path)
		require.ErrorIs(t, err, status.ErrForbidden)
	})
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	t.Run("mapped content", func(t *testing.T) {
		content := uniuri.NewLen(64 * 1024)
		path := writeFile(t, dir, "big.txt", content, 0o644)
		file, err := Open(path)
		require.NoError(t, err)
		require.Equal(t, int64(len(content)), file.Size)
		require.Equal(t, content, string(file.Content()))
		require.NoError(t, file.Close())
		require.Nil(t, file.Content())
		require.NoError(t, file.Close())
	})

	t.Run("empty file", func(t *testing.T) {
		path := writeFile(t, dir, "empty.txt", "", 0o644)
		file, err := Open(path)
		require.NoError(t, err)
		require.Zero(t, file.Size)
		require.Empty(t, file.Content())
		require.NoError(t, file.Close())
	})

	t.Run("missing", func(t *testing.T) {
		_, err := Open(filepath.Join(dir, "missing.txt"))
		require.ErrorIs(t, err, status.ErrNotFound)
	})

	t.Run("directory", func(t *testing.T) {
		_, err := Open(dir)
		require.ErrorIs(t, err, status.ErrForbidden)
	})

	t.Run("FIFO without a writer", func(t *testing.T) {
		path := filepath.Join(dir, "open.pipe")
		require.NoError(t, unix.Mkfifo(path, 0o644))

		done := make(chan error, 1)
		go func() {
			_, err := Open(path)
			done <- err
		}()

		select {
		case err := <-done:
			require.ErrorIs(t, err, status.ErrForbidden)
		case <-time.After(2 * time.Second):
			require.Fail(t, "opening a FIFO blocked")
		}
	})

	t.Run("not readable by owner", func(t *testing.T) {
		path := writeFile(t, dir, "locked.txt", "secret", 0o200)
		_, err := Open(path)
		require.ErrorIs(t, err, status.ErrForbidden)
	})
}
