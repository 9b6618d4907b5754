package main

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestKitCommands(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATABASE_PATH", filepath.Join(dir, "kits.db"))
	t.Setenv("UPLOADS_ROOT", filepath.Join(dir, "uploads"))
	t.Setenv("SCRATCH_DIR", dir)
	t.Setenv("LOG_LEVEL", "ERROR")
	t.Setenv("ENVIRONMENT", "development")

	out, err := runCommand(t, "kits", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "(no kits)")

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("hero.json")
	require.NoError(t, err)
	_, err = w.Write([]byte(`{"title":"Hero","content":[]}`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	src := filepath.Join(dir, "My Kit.zip")
	require.NoError(t, os.WriteFile(src, buf.Bytes(), 0644))

	out, err = runCommand(t, "kits", "upload", src)
	require.NoError(t, err)
	assert.Contains(t, out, "Stored My-Kit.zip")

	out, err = runCommand(t, "kits", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "My Kit")

	out, err = runCommand(t, "kits", "import", "My-Kit.zip", "--author", "tester")
	require.NoError(t, err)
	assert.Contains(t, out, "1 imported, 0 skipped")

	_, err = runCommand(t, "kits", "import", "My-Kit.rar")
	assert.Error(t, err)

	out, err = runCommand(t, "kits", "delete", "My-Kit.zip")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted My-Kit.zip")

	_, err = runCommand(t, "kits", "delete", "My-Kit.zip")
	assert.Error(t, err)
}

func TestAdminAndMediaCommands(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATABASE_PATH", filepath.Join(dir, "kits.db"))
	t.Setenv("UPLOADS_ROOT", filepath.Join(dir, "uploads"))
	t.Setenv("LOG_LEVEL", "ERROR")
	t.Setenv("ENVIRONMENT", "development")

	_, err := runCommand(t, "admins", "add", "Owner@Example.com")
	require.NoError(t, err)

	out, err := runCommand(t, "admins", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "owner@example.com")
	assert.Contains(t, out, "added by cli")

	_, err = runCommand(t, "admins", "add", "nope")
	assert.Error(t, err)

	_, err = runCommand(t, "admins", "remove", "owner@example.com")
	require.NoError(t, err)
	_, err = runCommand(t, "admins", "remove", "owner@example.com")
	assert.Error(t, err)

	img := filepath.Join(dir, "shot.png")
	require.NoError(t, os.WriteFile(img, []byte("png"), 0644))
	out, err = runCommand(t, "media", "add", img, "--url", "/media/shot.png")
	require.NoError(t, err)
	assert.Equal(t, "1", strings.TrimSpace(out))

	_, err = runCommand(t, "media", "add", filepath.Join(dir, "missing.png"))
	assert.Error(t, err)
}
