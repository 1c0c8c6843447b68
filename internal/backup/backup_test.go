package backup_test

import (
	"archive/zip"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quayside/steelinspect/internal"
	"github.com/quayside/steelinspect/internal/backup"
	"github.com/quayside/steelinspect/internal/repository"
)

type testFixture struct {
	manager      *backup.Manager
	databasePath string
	storagePath  string
	backupDir    string
	close        func()
}

func newFixture(t *testing.T, keep int, signingKey []byte) *testFixture {
	t.Helper()

	dir := t.TempDir()
	databasePath := filepath.Join(dir, "steelinspect.db")
	storagePath := filepath.Join(dir, "storage")
	backupDir := filepath.Join(dir, "backups")

	db, err := repository.Open(databasePath, "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, internal.RunMigrations(db))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &testFixture{
		manager:      backup.NewManager(db, databasePath, storagePath, backupDir, keep, signingKey, logger),
		databasePath: databasePath,
		storagePath:  storagePath,
		backupDir:    backupDir,
		close:        func() { db.Close() },
	}
}

func (f *testFixture) writeStorageFile(t *testing.T, rel, content string) {
	t.Helper()
	path := filepath.Join(f.storagePath, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func archiveNames(t *testing.T, path string) map[string]bool {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	names := make(map[string]bool)
	for _, file := range zr.File {
		names[file.Name] = true
	}
	return names
}

func TestBackupCreateArchiveMembers(t *testing.T) {
	fixture := newFixture(t, 0, []byte("signing-key"))
	fixture.writeStorageFile(t, "photos/insp-1/pho-1.jpg", "jpeg-bytes")
	fixture.writeStorageFile(t, "signatures/ins-1.png", "png-bytes")

	info, err := fixture.manager.Create(context.Background())
	require.NoError(t, err)
	assert.Positive(t, info.Size)

	names := archiveNames(t, info.Path)
	assert.True(t, names["database.db"])
	assert.True(t, names["backup_info.txt"])
	assert.True(t, names["photos/insp-1/pho-1.jpg"])
	assert.True(t, names["signatures/ins-1.png"])
}

func TestBackupRestoreRoundTrip(t *testing.T) {
	fixture := newFixture(t, 0, []byte("signing-key"))
	fixture.writeStorageFile(t, "photos/insp-1/pho-1.jpg", "original")

	info, err := fixture.manager.Create(context.Background())
	require.NoError(t, err)

	// Mutate state after the backup
	fixture.writeStorageFile(t, "photos/insp-1/pho-1.jpg", "changed")
	fixture.close()
	require.NoError(t, os.Remove(fixture.databasePath))

	require.NoError(t, fixture.manager.Restore(info.Path))

	restored, err := os.ReadFile(filepath.Join(fixture.storagePath, "photos/insp-1/pho-1.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "original", string(restored))

	// The restored database opens and still holds the seeded catalog
	db, err := repository.Open(fixture.databasePath, "")
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM product_types").Scan(&count))
	assert.Equal(t, 6, count)
}

func TestBackupRestoreRejectsTamperedArchive(t *testing.T) {
	fixture := newFixture(t, 0, []byte("signing-key"))

	info, err := fixture.manager.Create(context.Background())
	require.NoError(t, err)

	// Rebuild the archive with a modified database member
	tampered := filepath.Join(t.TempDir(), "tampered.zip")
	zr, err := zip.OpenReader(info.Path)
	require.NoError(t, err)
	defer zr.Close()

	out, err := os.Create(tampered)
	require.NoError(t, err)
	zw := zip.NewWriter(out)
	for _, file := range zr.File {
		w, err := zw.Create(file.Name)
		require.NoError(t, err)
		if file.Name == "database.db" {
			_, err = w.Write([]byte("not the real database"))
			require.NoError(t, err)
			continue
		}
		src, err := file.Open()
		require.NoError(t, err)
		_, err = io.Copy(w, src)
		src.Close()
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, out.Close())

	fixture.close()
	err = fixture.manager.Restore(tampered)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "signature mismatch")
}

func TestBackupRestoreRequiresDatabaseMember(t *testing.T) {
	fixture := newFixture(t, 0, nil)
	require.NoError(t, os.MkdirAll(fixture.backupDir, 0o755))

	empty := filepath.Join(fixture.backupDir, "steelinspect-backup-empty.zip")
	out, err := os.Create(empty)
	require.NoError(t, err)
	zw := zip.NewWriter(out)
	w, err := zw.Create("backup_info.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("created: now\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, out.Close())

	err = fixture.manager.Restore(empty)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no database.db member")
}

func TestBackupListAndPrune(t *testing.T) {
	fixture := newFixture(t, 2, nil)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := fixture.manager.Create(ctx)
		require.NoError(t, err)
	}

	backups, err := fixture.manager.List()
	require.NoError(t, err)
	assert.Len(t, backups, 2)

	// Newest first
	assert.GreaterOrEqual(t, backups[0].Filename, backups[1].Filename)

	pruned, err := fixture.manager.Prune()
	require.NoError(t, err)
	assert.Zero(t, pruned)
}
