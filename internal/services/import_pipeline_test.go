package services

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"templateKitManager/internal/models"
)

type fakeWriter struct {
	mu    sync.Mutex
	posts []models.TemplatePost
	err   error
}

func (w *fakeWriter) CreateTemplate(ctx context.Context, post models.TemplatePost) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return 0, w.err
	}
	w.posts = append(w.posts, post)
	return int64(100 + len(w.posts)), nil
}

type importFixture struct {
	store    *ArchiveStore
	writer   *fakeWriter
	scratch  string
	pipeline *ImportPipeline
}

func newImportFixture(t *testing.T) *importFixture {
	t.Helper()
	store := newTestStore(t, 0)
	writer := &fakeWriter{}
	scratch := t.TempDir()
	return &importFixture{
		store:    store,
		writer:   writer,
		scratch:  scratch,
		pipeline: NewImportPipeline(store, writer, scratch, nil),
	}
}

func (f *importFixture) save(t *testing.T, name string, data []byte) string {
	t.Helper()
	stored, err := f.store.SaveArchive(bytes.NewReader(data), name)
	require.NoError(t, err)
	return stored
}

func (f *importFixture) assertScratchClean(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(f.scratch)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch directory was not removed")
}

func TestImportKit(t *testing.T) {
	f := newImportFixture(t)
	kit := f.save(t, "kit-a.zip", buildZip(t,
		[2]string{"templates/hero.json", `{"title":"Hero","type":"section","content":[ {"id": "1"} ]}`},
		[2]string{"templates/broken.json", `{"title":"No content"}`},
		[2]string{"readme.txt", "not a template"},
		[2]string{"Footer.JSON", `{"content":{"x": 1}}`},
		[2]string{"templates/numbered.json", `{"title":2024,"type":"page","content":[]}`},
	))

	report, err := f.pipeline.Import(context.Background(), kit, "admin@example.com")
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.Equal(t, "kit-a.zip", report.Kit)
	require.Len(t, report.Imported, 3)
	assert.Equal(t, models.ImportedTemplate{Title: "Footer", Type: "page", ID: 101}, report.Imported[0])
	assert.Equal(t, models.ImportedTemplate{Title: "Hero", Type: "section", ID: 102}, report.Imported[1])
	assert.Equal(t, models.ImportedTemplate{Title: "2024", Type: "page", ID: 103}, report.Imported[2])

	require.Len(t, report.Results, 4)
	assert.Equal(t, "Footer.JSON", report.Results[0].File)
	assert.Equal(t, "templates/broken.json", report.Results[1].File)
	assert.Equal(t, models.OutcomeSkipped, report.Results[1].Outcome)
	assert.NotEmpty(t, report.Results[1].Reason)
	assert.Equal(t, "templates/hero.json", report.Results[2].File)
	assert.Equal(t, "templates/numbered.json", report.Results[3].File)
	assert.Len(t, report.Skipped(), 1)

	require.Len(t, f.writer.posts, 3)
	assert.Equal(t, models.DefaultTemplateTitle, f.writer.posts[0].Title)
	assert.Equal(t, "2024", f.writer.posts[2].Title)
	assert.Equal(t, `{"x":1}`, f.writer.posts[0].Content)
	assert.Equal(t, `[{"id":"1"}]`, f.writer.posts[1].Content)
	assert.Equal(t, "admin@example.com", f.writer.posts[1].Author)

	f.assertScratchClean(t)
	assert.True(t, f.store.Exists(kit), "import must not remove the archive")
}

func TestImportNoTemplates(t *testing.T) {
	f := newImportFixture(t)
	kit := f.save(t, "empty.zip", buildZip(t,
		[2]string{"readme.txt", "hello"},
		[2]string{"bad.json", `{not json`},
		[2]string{"null.json", `{"content":null}`},
	))

	report, err := f.pipeline.Import(context.Background(), kit, "admin")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoValidTemplates))
	assert.Equal(t, "No valid templates found in the ZIP file.", MessageOf(err))

	require.NotNil(t, report)
	assert.Empty(t, report.Imported)
	assert.Len(t, report.Results, 2)
	assert.Empty(t, f.writer.posts)
	f.assertScratchClean(t)
}

func TestImportMissingKit(t *testing.T) {
	f := newImportFixture(t)

	_, err := f.pipeline.Import(context.Background(), "missing.zip", "admin")
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestImportInvalidName(t *testing.T) {
	f := newImportFixture(t)

	_, err := f.pipeline.Import(context.Background(), "kit.txt", "admin")
	assert.Equal(t, KindInvalidInput, KindOf(err))
}

func TestImportCorruptArchive(t *testing.T) {
	f := newImportFixture(t)
	kit := f.save(t, "corrupt.zip", []byte("definitely not a zip file"))

	_, err := f.pipeline.Import(context.Background(), kit, "admin")
	assert.Equal(t, KindCorruptArchive, KindOf(err))
	assert.Equal(t, "Invalid ZIP file.", MessageOf(err))
	f.assertScratchClean(t)
}

func TestImportSkipsEntriesOutsideScratch(t *testing.T) {
	f := newImportFixture(t)
	kit := f.save(t, "evil.zip", buildZip(t,
		[2]string{"../evil.json", `{"content":[]}`},
		[2]string{"ok/good.json", `{"title":"Good","content":[]}`},
	))

	report, err := f.pipeline.Import(context.Background(), kit, "admin")
	require.NoError(t, err)
	require.Len(t, report.Imported, 1)
	assert.Equal(t, "Good", report.Imported[0].Title)

	assert.NoFileExists(t, filepath.Join(f.scratch, "evil.json"))
	f.assertScratchClean(t)
}

func TestImportWriterFailure(t *testing.T) {
	f := newImportFixture(t)
	f.writer.err = errors.New("database is locked")
	kit := f.save(t, "kit.zip", buildZip(t, [2]string{"a.json", `{"content":[]}`}))

	report, err := f.pipeline.Import(context.Background(), kit, "admin")
	assert.True(t, errors.Is(err, ErrNoValidTemplates))
	require.Len(t, report.Results, 1)
	assert.Equal(t, models.OutcomeFailed, report.Results[0].Outcome)
	assert.Contains(t, report.Results[0].Reason, "database is locked")
}

func TestImportCancelled(t *testing.T) {
	f := newImportFixture(t)
	kit := f.save(t, "kit.zip", buildZip(t, [2]string{"a.json", `{"content":[]}`}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.pipeline.Import(ctx, kit, "admin")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, f.writer.posts)
	f.assertScratchClean(t)
}

func TestParseDefinitionDefaults(t *testing.T) {
	def, err := parseDefinition([]byte(`{"title":"","type":null,"content":"raw"}`))
	require.NoError(t, err)
	assert.Equal(t, models.DefaultTemplateTitle, def.Title)
	assert.True(t, def.Untitled)
	assert.Equal(t, models.DefaultTemplateType, def.Type)
	assert.Equal(t, `"raw"`, string(def.Content))
}

func TestParseDefinitionScalarFields(t *testing.T) {
	def, err := parseDefinition([]byte(`{"title":1.5,"type":true,"content":[]}`))
	require.NoError(t, err)
	assert.Equal(t, "1.5", def.Title)
	assert.False(t, def.Untitled)
	assert.Equal(t, "1", def.Type)

	_, err = parseDefinition([]byte(`{"title":["a"],"content":[]}`))
	assert.Error(t, err)
}

func TestDefinitionFileTitle(t *testing.T) {
	assert.Equal(t, "Footer", definitionFileTitle("Footer.JSON"))
	assert.Equal(t, "hero", definitionFileTitle("templates/hero.json"))
	assert.Equal(t, "notes.txt", definitionFileTitle("notes.txt"))
}
