package netreq

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilenameFromURLPrefersExplicit(t *testing.T) {
	require.Equal(t, "explicit.zip", filenameFromURL("https://x.com/a.zip", "explicit.zip", ""))
}

func TestFilenameFromURLFallsBackToBasename(t *testing.T) {
	require.Equal(t, "a.zip", filenameFromURL("https://x.com/path/a.zip", "", ""))
}

func TestFilenameFromURLUsesDispositionQueryParam(t *testing.T) {
	u := `https://x.com/download?response-content-disposition=attachment%3B%20filename%3D%22report.pdf%22`
	require.Equal(t, "report.pdf", filenameFromURL(u, "", ""))
}

func TestFilenameFromURLSanitizesForbiddenChars(t *testing.T) {
	require.Equal(t, "weird-name.txt", sanitizeFilename(`weird:"/name.txt`))
}

func TestFilenameFromURLDefaultsToDownload(t *testing.T) {
	require.Equal(t, "download", filenameFromURL("https://x.com/", "", ""))
}

func TestResolveOutputPathOverwriteSkipsSuffixing(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "f.bin")
	require.NoError(t, os.WriteFile(existing, []byte("x"), 0o644))

	cfg := &DownloadConfig{SaveDir: dir, SaveFileName: "f.bin", Overwrite: true}
	got, err := resolveOutputPath("https://x.com/f.bin", cfg, nil)
	require.NoError(t, err)
	require.Equal(t, existing, got)
}

func TestResolveOutputPathAddsNumericSuffixOnConflict(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "f.bin"), []byte("x"), 0o644))

	cfg := &DownloadConfig{SaveDir: dir, SaveFileName: "f.bin", Overwrite: false}
	got, err := resolveOutputPath("https://x.com/f.bin", cfg, nil)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "f_1.bin"), got)
}

func TestResolveOutputPathReturnsFirstFreeName(t *testing.T) {
	dir := t.TempDir()
	cfg := &DownloadConfig{SaveDir: dir, SaveFileName: "f.bin"}
	got, err := resolveOutputPath("https://x.com/f.bin", cfg, nil)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "f.bin"), got)
}
