package netreq

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateRejectsMalformedURL(t *testing.T) {
	ctx := NewContext(Get, "not-a-url")
	require.Error(t, ctx.Validate())
}

func TestValidateRejectsUnsupportedScheme(t *testing.T) {
	ctx := NewContext(Get, "ws://example.com")
	require.Error(t, ctx.Validate())
}

func TestValidateRejectsFTPWithPost(t *testing.T) {
	ctx := NewContext(Post, "ftp://example.com/file")
	require.Error(t, ctx.Validate())
}

func TestValidateRequiresUploadConfig(t *testing.T) {
	ctx := NewContext(Upload, "https://example.com/upload")
	require.Error(t, ctx.Validate())

	ctx.UploadConfig = &UploadConfig{InlineBytes: []byte("x")}
	require.NoError(t, ctx.Validate())
}

func TestValidateRequiresDownloadSaveDir(t *testing.T) {
	ctx := NewContext(Download, "https://example.com/file.zip")
	require.Error(t, ctx.Validate())

	ctx.DownloadConfig = &DownloadConfig{SaveDir: "/tmp"}
	require.NoError(t, ctx.Validate())
}

func TestValidateDefaultsBehavior(t *testing.T) {
	ctx := NewContext(Get, "https://example.com")
	ctx.Behavior.MaxRedirects = 0
	ctx.Behavior.TransferTimeout = 0
	require.NoError(t, ctx.Validate())
	require.Equal(t, 3, ctx.Behavior.MaxRedirects)
	require.NotZero(t, ctx.Behavior.TransferTimeout)
}

func TestDownloadConfigResolvedThreadCount(t *testing.T) {
	c := &DownloadConfig{ThreadCount: 0}
	require.GreaterOrEqual(t, c.resolvedThreadCount(), 2)

	c = &DownloadConfig{ThreadCount: 1}
	require.Equal(t, 2, c.resolvedThreadCount())

	c = &DownloadConfig{ThreadCount: 16}
	require.Equal(t, 16, c.resolvedThreadCount())
}
