package docstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T) Store {
	t.Helper()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "documents.db"))
	require.NoError(t, store.Initialize(context.Background()))
	t.Cleanup(func() { store.Close() })
	return store
}

func newMongoStore(t *testing.T) Store {
	t.Helper()
	uri := os.Getenv("MONGO_URL")
	if uri == "" {
		t.Skip("MONGO_URL not set")
	}
	store := NewMongoStore(uri, "readaloud_test", "pdfs_"+uuid.NewString()[:8])
	require.NoError(t, store.Initialize(context.Background()))
	t.Cleanup(func() {
		store.documents.Drop(context.Background())
		store.Close()
	})
	return store
}

func TestStores(t *testing.T) {
	stores := map[string]func(*testing.T) Store{
		"sqlite": newSQLiteStore,
		"mongo":  newMongoStore,
	}

	for name, open := range stores {
		t.Run(name, func(t *testing.T) {
			t.Run("create and get", func(t *testing.T) { testCreateAndGet(t, open(t)) })
			t.Run("list order", func(t *testing.T) { testListOrder(t, open(t)) })
			t.Run("search by name", func(t *testing.T) { testSearchByName(t, open(t)) })
			t.Run("update", func(t *testing.T) { testUpdate(t, open(t)) })
			t.Run("extracted text", func(t *testing.T) { testExtractedText(t, open(t)) })
			t.Run("delete", func(t *testing.T) { testDelete(t, open(t)) })
		})
	}
}

func sampleDocument(name string, uploaded time.Time) *Document {
	return &Document{
		Filename:     "1700000000-" + name,
		OriginalName: name,
		Size:         2048,
		Path:         "uploads/" + name,
		BlobID:       "blob-" + name,
		ContentHash:  "abc123",
		UploadDate:   uploaded,
	}
}

func testCreateAndGet(t *testing.T, store Store) {
	ctx := context.Background()
	uploaded := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	doc := sampleDocument("Chapter One.pdf", uploaded)
	require.NoError(t, store.Create(ctx, doc))
	assert.NotEmpty(t, doc.ID)

	got, err := store.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.OriginalName, got.OriginalName)
	assert.Equal(t, doc.Filename, got.Filename)
	assert.Equal(t, doc.Size, got.Size)
	assert.Equal(t, doc.BlobID, got.BlobID)
	assert.True(t, uploaded.Equal(got.UploadDate), "upload date = %v", got.UploadDate)
	assert.Empty(t, got.Pages)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func testListOrder(t *testing.T, store Store) {
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		doc := sampleDocument(fmt.Sprintf("doc-%d.pdf", i), base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, store.Create(ctx, doc))
	}

	docs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "doc-2.pdf", docs[0].OriginalName)
	assert.Equal(t, "doc-0.pdf", docs[2].OriginalName)
}

func testSearchByName(t *testing.T, store Store) {
	ctx := context.Background()
	now := time.Now().UTC()

	for _, name := range []string{"Biology Notes.pdf", "biology_100%.pdf", "History.pdf"} {
		require.NoError(t, store.Create(ctx, sampleDocument(name, now)))
	}

	docs, err := store.SearchByName(ctx, "BIOLOGY")
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	docs, err = store.SearchByName(ctx, "100%")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "biology_100%.pdf", docs[0].OriginalName)

	docs, err = store.SearchByName(ctx, "y_1")
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	docs, err = store.SearchByName(ctx, "chemistry")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func testUpdate(t *testing.T, store Store) {
	ctx := context.Background()
	doc := sampleDocument("draft.pdf", time.Now().UTC())
	require.NoError(t, store.Create(ctx, doc))

	name := "final.pdf"
	updated, err := store.Update(ctx, doc.ID, Changes{OriginalName: &name})
	require.NoError(t, err)
	assert.Equal(t, "final.pdf", updated.OriginalName)
	assert.Equal(t, doc.Filename, updated.Filename)

	got, err := store.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "final.pdf", got.OriginalName)

	_, err = store.Update(ctx, "missing", Changes{OriginalName: &name})
	assert.ErrorIs(t, err, ErrNotFound)
}

func testExtractedText(t *testing.T, store Store) {
	ctx := context.Background()
	doc := sampleDocument("pages.pdf", time.Now().UTC())
	require.NoError(t, store.Create(ctx, doc))

	pages := []string{"First page.", "Second page."}
	updated, err := store.SetExtractedText(ctx, doc.ID, "First page. Second page.", pages)
	require.NoError(t, err)
	assert.Equal(t, "First page. Second page.", updated.ExtractedText)
	assert.Equal(t, pages, updated.Pages)

	got, err := store.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, pages, got.Pages)

	_, err = store.SetExtractedText(ctx, "missing", "text", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func testDelete(t *testing.T, store Store) {
	ctx := context.Background()
	doc := sampleDocument("gone.pdf", time.Now().UTC())
	require.NoError(t, store.Create(ctx, doc))

	deleted, err := store.Delete(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "gone.pdf", deleted.OriginalName)

	_, err = store.Get(ctx, doc.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Delete(ctx, doc.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpen(t *testing.T) {
	store, err := Open(Options{Driver: DriverSQLite, Path: "x.db"})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, store)

	store, err = Open(Options{Driver: DriverMongo, MongoURI: "mongodb://localhost:27017"})
	require.NoError(t, err)
	mongoStore := store.(*MongoStore)
	assert.Equal(t, "readaloud", mongoStore.database)
	assert.Equal(t, "pdfs", mongoStore.collection)

	_, err = Open(Options{Driver: DriverMongo})
	assert.Error(t, err)

	_, err = Open(Options{Driver: "postgres"})
	assert.Error(t, err)
}
