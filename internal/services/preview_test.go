package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveWithoutPreview(t *testing.T) {
	store := newTestStore(t, 0)
	previews := NewPreviewResolver(store, nil)

	url, ok := previews.Resolve("kit-a.zip")
	assert.False(t, ok)
	assert.Empty(t, url)
}

func TestSetPreviewReplacesOtherExtensions(t *testing.T) {
	store := newTestStore(t, 0)
	previews := NewPreviewResolver(store, nil)

	url, err := previews.SetPreview("kit-a.zip", strings.NewReader("png bytes"), ".png")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/template-kits/previews/kit-a.png", url)

	url, err = previews.SetPreview("kit-a.zip", strings.NewReader("jpg bytes"), "JPG")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/template-kits/previews/kit-a.jpg", url)

	assert.NoFileExists(t, filepath.Join(store.PreviewDir(), "kit-a.png"))
	data, err := os.ReadFile(filepath.Join(store.PreviewDir(), "kit-a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpg bytes", string(data))

	resolved, ok := previews.Resolve("kit-a.zip")
	assert.True(t, ok)
	assert.Equal(t, url, resolved)
}

func TestResolvePrefersJPG(t *testing.T) {
	store := newTestStore(t, 0)
	previews := NewPreviewResolver(store, nil)
	writeFile(t, filepath.Join(store.PreviewDir(), "kit.jpeg"), []byte("a"))
	writeFile(t, filepath.Join(store.PreviewDir(), "kit.png"), []byte("b"))

	url, ok := previews.Resolve("kit.zip")
	require.True(t, ok)
	assert.Equal(t, "/uploads/template-kits/previews/kit.png", url)

	writeFile(t, filepath.Join(store.PreviewDir(), "kit.jpg"), []byte("c"))
	url, _ = previews.Resolve("kit.zip")
	assert.Equal(t, "/uploads/template-kits/previews/kit.jpg", url)
}

func TestSetPreviewRejectsUnknownExtension(t *testing.T) {
	previews := NewPreviewResolver(newTestStore(t, 0), nil)

	_, err := previews.SetPreview("kit.zip", strings.NewReader("gif"), "gif")
	require.Error(t, err)
	assert.Equal(t, KindInvalidInput, KindOf(err))
	assert.Equal(t, "Invalid image.", MessageOf(err))
}

func TestSetPreviewFromFile(t *testing.T) {
	store := newTestStore(t, 0)
	previews := NewPreviewResolver(store, nil)

	src := filepath.Join(t.TempDir(), "photo.PNG")
	writeFile(t, src, []byte("image"))

	url, err := previews.SetPreviewFromFile("kit-a.zip", src)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/template-kits/previews/kit-a.png", url)

	_, err = previews.SetPreviewFromFile("kit-a.zip", filepath.Join(t.TempDir(), "missing.png"))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, "Image file not found.", MessageOf(err))
}

func TestExtractFromArchive(t *testing.T) {
	store := newTestStore(t, 0)
	previews := NewPreviewResolver(store, nil)

	archive := filepath.Join(t.TempDir(), "kit-a.zip")
	writeFile(t, archive, buildZip(t,
		[2]string{"manifest.json", `{"title":"Kit"}`},
		[2]string{"assets/Screenshot.PNG", "first"},
		[2]string{"preview.jpg", "second"},
	))

	extracted, err := previews.ExtractFromArchive(archive, "kit-a.zip")
	require.NoError(t, err)
	assert.True(t, extracted)

	data, err := os.ReadFile(filepath.Join(store.PreviewDir(), "kit-a.png"))
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
	assert.NoFileExists(t, filepath.Join(store.PreviewDir(), "kit-a.jpg"))
}

func TestExtractFromArchiveWithoutPreview(t *testing.T) {
	previews := NewPreviewResolver(newTestStore(t, 0), nil)

	archive := filepath.Join(t.TempDir(), "kit.zip")
	writeFile(t, archive, buildZip(t, [2]string{"templates/hero.json", `{"content":[]}`}))

	extracted, err := previews.ExtractFromArchive(archive, "kit.zip")
	require.NoError(t, err)
	assert.False(t, extracted)
}

func TestExtractFromCorruptArchive(t *testing.T) {
	previews := NewPreviewResolver(newTestStore(t, 0), nil)

	archive := filepath.Join(t.TempDir(), "kit.zip")
	writeFile(t, archive, []byte("this is not a zip"))

	_, err := previews.ExtractFromArchive(archive, "kit.zip")
	assert.Equal(t, KindCorruptArchive, KindOf(err))
	assert.Equal(t, "Invalid ZIP file.", MessageOf(err))
}
