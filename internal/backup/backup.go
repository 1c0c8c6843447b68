// Package backup creates and restores zip archives of the database and the
// photo and signature directories.
//
// Archives contain the members database.db, photos/, signatures/ and a
// backup_info.txt with metadata and an HMAC of the database snapshot. The
// database member is produced with sqlite's VACUUM INTO, so it is a
// consistent standalone copy even while the application keeps writing.
package backup

import (
	"archive/zip"
	"bufio"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/quayside/steelinspect/internal/metrics"
)

const (
	filePrefix    = "steelinspect-backup-"
	databaseEntry = "database.db"
	infoEntry     = "backup_info.txt"
	schemaVersion = 3
)

// dataPrefixes are the storage subtrees included in an archive.
var dataPrefixes = []string{"photos", "signatures"}

// Info describes one backup archive on disk.
type Info struct {
	Filename  string
	Path      string
	Size      int64
	CreatedAt time.Time
}

// Manager creates, lists, prunes and restores backup archives.
type Manager struct {
	db           *sql.DB
	databasePath string
	storagePath  string
	backupDir    string
	keep         int
	signingKey   []byte
	logger       *slog.Logger

	mu sync.Mutex
}

// NewManager creates a backup manager. keep limits how many archives Prune
// retains; zero or negative keeps all. signingKey may be nil to disable
// archive signing.
func NewManager(db *sql.DB, databasePath, storagePath, backupDir string, keep int, signingKey []byte, logger *slog.Logger) *Manager {
	return &Manager{
		db:           db,
		databasePath: databasePath,
		storagePath:  storagePath,
		backupDir:    backupDir,
		keep:         keep,
		signingKey:   signingKey,
		logger:       logger,
	}
}

// =============================================================================
// Create
// =============================================================================

// Create writes a new backup archive and prunes old ones per the retention
// setting. Only one Create or Restore runs at a time.
func (m *Manager) Create(ctx context.Context) (*Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.MkdirAll(m.backupDir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}

	// Consistent snapshot of the live database
	snapshot := filepath.Join(m.backupDir, fmt.Sprintf(".snapshot-%d.db", time.Now().UnixNano()))
	defer os.Remove(snapshot)

	if _, err := m.db.ExecContext(ctx, fmt.Sprintf(`VACUUM INTO '%s'`, strings.ReplaceAll(snapshot, "'", "''"))); err != nil {
		return nil, fmt.Errorf("vacuum into: %w", err)
	}

	signature, err := m.signFile(snapshot)
	if err != nil {
		return nil, err
	}

	ts := time.Now().Format("2006-01-02T15-04-05")
	filename := filePrefix + ts + ".zip"
	destPath := filepath.Join(m.backupDir, filename)

	// If file exists, add a counter suffix
	counter := 1
	for {
		if _, err := os.Stat(destPath); os.IsNotExist(err) {
			break
		}
		filename = fmt.Sprintf("%s%s-%d.zip", filePrefix, ts, counter)
		destPath = filepath.Join(m.backupDir, filename)
		counter++
	}

	if err := m.writeArchive(destPath, snapshot, signature); err != nil {
		os.Remove(destPath)
		return nil, err
	}

	stat, err := os.Stat(destPath)
	if err != nil {
		return nil, fmt.Errorf("stat archive: %w", err)
	}

	if pruned, err := m.prune(); err != nil {
		m.logger.Warn("backup pruning failed", slog.Any("error", err))
	} else if pruned > 0 {
		m.logger.Info("pruned old backups", slog.Int("count", pruned))
	}

	metrics.BackupsCreated.Inc()
	m.logger.Info("backup created",
		slog.String("filename", filename),
		slog.Int64("size_bytes", stat.Size()),
	)

	return &Info{
		Filename:  filename,
		Path:      destPath,
		Size:      stat.Size(),
		CreatedAt: stat.ModTime(),
	}, nil
}

func (m *Manager) writeArchive(destPath, snapshot, signature string) error {
	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)

	if err := m.addFile(zw, databaseEntry, snapshot); err != nil {
		zw.Close()
		return err
	}

	for _, prefix := range dataPrefixes {
		if err := m.addTree(zw, prefix); err != nil {
			zw.Close()
			return err
		}
	}

	if err := m.addInfo(zw, signature); err != nil {
		zw.Close()
		return err
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}
	return out.Close()
}

func (m *Manager) addFile(zw *zip.Writer, name, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer src.Close()

	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create entry %s: %w", name, err)
	}
	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("write entry %s: %w", name, err)
	}
	return nil
}

// addTree archives one storage subtree. A missing subtree is not an error,
// a fresh installation has no photos yet.
func (m *Manager) addTree(zw *zip.Writer, prefix string) error {
	root := filepath.Join(m.storagePath, prefix)
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil
	}

	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(m.storagePath, path)
		if err != nil {
			return err
		}
		return m.addFile(zw, filepath.ToSlash(rel), path)
	})
}

func (m *Manager) addInfo(zw *zip.Writer, signature string) error {
	hostname, _ := os.Hostname()

	w, err := zw.Create(infoEntry)
	if err != nil {
		return fmt.Errorf("create entry %s: %w", infoEntry, err)
	}
	_, err = fmt.Fprintf(w, "created: %s\napp: steelinspect\nschema: %d\nhost: %s\ndatabase_hmac: %s\n",
		time.Now().UTC().Format(time.RFC3339), schemaVersion, hostname, signature)
	if err != nil {
		return fmt.Errorf("write entry %s: %w", infoEntry, err)
	}
	return nil
}

// signFile computes the hex HMAC-SHA256 of a file, or "" without a key.
func (m *Manager) signFile(path string) (string, error) {
	if len(m.signingKey) == 0 {
		return "", nil
	}
	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open snapshot: %w", err)
	}
	defer src.Close()

	mac := hmac.New(sha256.New, m.signingKey)
	if _, err := io.Copy(mac, src); err != nil {
		return "", fmt.Errorf("sign snapshot: %w", err)
	}
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// =============================================================================
// List / Prune
// =============================================================================

// List returns backup archives, newest first.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read backup dir: %w", err)
	}

	var backups []Info
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, ".zip") {
			continue
		}
		stat, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, Info{
			Filename:  name,
			Path:      filepath.Join(m.backupDir, name),
			Size:      stat.Size(),
			CreatedAt: stat.ModTime(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Filename > backups[j].Filename
	})
	return backups, nil
}

// Prune removes archives beyond the retention count, oldest first.
func (m *Manager) Prune() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prune()
}

func (m *Manager) prune() (int, error) {
	if m.keep <= 0 {
		return 0, nil
	}
	backups, err := m.List()
	if err != nil {
		return 0, err
	}
	if len(backups) <= m.keep {
		return 0, nil
	}

	pruned := 0
	for _, backup := range backups[m.keep:] {
		if err := os.Remove(backup.Path); err != nil {
			return pruned, fmt.Errorf("remove %s: %w", backup.Filename, err)
		}
		pruned++
	}
	return pruned, nil
}

// =============================================================================
// Restore
// =============================================================================

// Restore replaces the database and storage trees with the archive contents.
// The caller must close all database connections before calling Restore and
// reopen them afterwards.
func (m *Manager) Restore(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	zr, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer zr.Close()

	tmpDir, err := os.MkdirTemp(m.backupDir, ".restore-*")
	if err != nil {
		return fmt.Errorf("create restore dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	var hasDatabase bool
	for _, file := range zr.File {
		name := filepath.ToSlash(file.Name)
		if name == databaseEntry {
			hasDatabase = true
		}
		if err := extractFile(file, tmpDir); err != nil {
			return err
		}
	}
	if !hasDatabase {
		return fmt.Errorf("archive %s has no %s member", filepath.Base(path), databaseEntry)
	}

	if err := m.verify(tmpDir); err != nil {
		return err
	}

	if err := m.swapDatabase(filepath.Join(tmpDir, databaseEntry)); err != nil {
		return err
	}

	for _, prefix := range dataPrefixes {
		if err := mergeTree(filepath.Join(tmpDir, prefix), filepath.Join(m.storagePath, prefix)); err != nil {
			return err
		}
	}

	metrics.BackupsRestored.Inc()
	m.logger.Info("backup restored", slog.String("archive", filepath.Base(path)))
	return nil
}

// verify checks the archive HMAC against the extracted database snapshot.
func (m *Manager) verify(tmpDir string) error {
	if len(m.signingKey) == 0 {
		return nil
	}

	recorded, err := readInfoValue(filepath.Join(tmpDir, infoEntry), "database_hmac")
	if err != nil {
		return fmt.Errorf("archive is not signed: %w", err)
	}

	computed, err := m.signFile(filepath.Join(tmpDir, databaseEntry))
	if err != nil {
		return err
	}
	if !hmac.Equal([]byte(recorded), []byte(computed)) {
		return fmt.Errorf("archive signature mismatch")
	}
	return nil
}

// swapDatabase atomically replaces the database file and removes stale
// WAL sidecar files.
func (m *Manager) swapDatabase(snapshot string) error {
	dir := filepath.Dir(m.databasePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create database dir: %w", err)
	}

	// Stage next to the target so the rename stays on one filesystem
	staged := filepath.Join(dir, ".restore-"+filepath.Base(m.databasePath))
	if err := copyFile(snapshot, staged); err != nil {
		return err
	}

	if err := os.Rename(staged, m.databasePath); err != nil {
		os.Remove(staged)
		return fmt.Errorf("swap database: %w", err)
	}

	os.Remove(m.databasePath + "-wal")
	os.Remove(m.databasePath + "-shm")
	return nil
}

// =============================================================================
// Helpers
// =============================================================================

func extractFile(file *zip.File, destDir string) error {
	name := filepath.ToSlash(file.Name)
	if strings.Contains(name, "..") || strings.HasPrefix(name, "/") {
		return fmt.Errorf("archive member %q has an unsafe path", file.Name)
	}
	if file.FileInfo().IsDir() {
		return nil
	}

	target := filepath.Join(destDir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("extract %s: %w", name, err)
	}

	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("extract %s: %w", name, err)
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("extract %s: %w", name, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("extract %s: %w", name, err)
	}
	return dst.Close()
}

// mergeTree moves files from src into dst, overwriting on conflict.
func mergeTree(src, dst string) error {
	if _, err := os.Stat(src); os.IsNotExist(err) {
		return nil
	}

	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("copy to %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy to %s: %w", dst, err)
	}
	return out.Close()
}

// readInfoValue reads one "key: value" line from backup_info.txt.
func readInfoValue(path, key string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if value, ok := strings.CutPrefix(line, key+": "); ok {
			return strings.TrimSpace(value), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("missing %s entry", key)
}
