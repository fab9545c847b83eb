package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodgram-project/backend/internal/testhelpers"
)

func TestImageStoreLocal(t *testing.T) {
	dir := t.TempDir()
	svc := NewImageService(nil, dir, "/media")

	url, err := svc.Store(context.Background(), testhelpers.TestImagePayload)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/media/"), "got %q", url)
	assert.True(t, strings.HasSuffix(url, ".png"), "got %q", url)

	// The decoded bytes landed on disk.
	rel := strings.TrimPrefix(url, "/media/")
	data, err := os.ReadFile(filepath.Join(dir, rel))
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestImageStoreRejectsBadPayload(t *testing.T) {
	svc := NewImageService(nil, t.TempDir(), "/media")

	_, err := svc.Store(context.Background(), "data:image/png;base64,!!!not-base64!!!")
	assert.Error(t, err)

	_, err = svc.Store(context.Background(), "")
	assert.Error(t, err)
}
