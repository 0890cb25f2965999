package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bidmap-converter/backend/internal/logging"
	"github.com/bidmap-converter/backend/internal/models"
	"github.com/google/uuid"
)

var logger = logging.New("storage")

// ErrNotFound is returned for unknown or expired files.
var ErrNotFound = errors.New("file not found")

// DefaultRetention is how long files are kept when no retention is set.
const DefaultRetention = time.Hour

// Store defines the interface for temporary artifact storage.
type Store interface {
	StoreUpload(name string, r io.Reader) (*models.FileInfo, error)
	StoreConverted(uploadID string, r io.Reader, customName string) (*models.FileInfo, error)
	Get(id string) (*models.FileInfo, error)
	GetFilePath(id string) (string, error)
	List(limit int) ([]*models.FileInfo, error)
	Delete(id string) error
	CleanupExpired() int
}

// LocalStore keeps artifacts in one directory with in-memory metadata.
// Metadata does not survive a restart; files expire long before that
// matters.
type LocalStore struct {
	mu        sync.RWMutex
	dir       string
	retention time.Duration
	files     map[string]*models.FileInfo
	now       func() time.Time
}

// NewLocalStore creates a new LocalStore.
func NewLocalStore(dir string, retention time.Duration) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	if retention <= 0 {
		retention = DefaultRetention
	}

	return &LocalStore{
		dir:       dir,
		retention: retention,
		files:     make(map[string]*models.FileInfo),
		now:       time.Now,
	}, nil
}

// StoreUpload saves an uploaded map.
func (s *LocalStore) StoreUpload(name string, r io.Reader) (*models.FileInfo, error) {
	return s.save(SanitizeFilename(name), models.ArtifactUpload, "", r)
}

// StoreConverted saves a conversion output. Its name is customName with a
// .pdf extension, or the upload's name with a _deployment suffix.
func (s *LocalStore) StoreConverted(uploadID string, r io.Reader, customName string) (*models.FileInfo, error) {
	var name string
	if custom := strings.TrimSpace(customName); custom != "" {
		name = SanitizeFilename(custom)
		if strings.HasSuffix(strings.ToLower(name), ".pdf") {
			name = name[:len(name)-4]
		}
		name += ".pdf"
	} else {
		base := "converted"
		if up, err := s.Get(uploadID); err == nil {
			base = strings.TrimSuffix(up.Name, filepath.Ext(up.Name))
		}
		name = base + "_deployment.pdf"
	}
	return s.save(name, models.ArtifactConverted, uploadID, r)
}

func (s *LocalStore) save(name string, kind models.ArtifactKind, uploadID string, r io.Reader) (*models.FileInfo, error) {
	id := uuid.New().String()
	path := s.path(id, name)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("writing file: %w", err)
	}

	now := s.now()
	info := &models.FileInfo{
		ID:        id,
		Name:      name,
		Size:      size,
		Kind:      kind,
		UploadID:  uploadID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.retention),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[id] = info

	logger.Infof("stored %s %s (%d bytes)", kind, id, size)
	return info, nil
}

func (s *LocalStore) path(id, name string) string {
	return filepath.Join(s.dir, id+"_"+name)
}

// Get returns file metadata. Expired entries and entries whose file has
// vanished are removed and reported as not found.
func (s *LocalStore) Get(id string) (*models.FileInfo, error) {
	s.mu.RLock()
	info, ok := s.files[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if info.Expired(s.now()) {
		s.remove(id)
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if _, err := os.Stat(s.path(id, info.Name)); err != nil {
		s.mu.Lock()
		delete(s.files, id)
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return info, nil
}

// GetFilePath returns the on-disk path of a live file.
func (s *LocalStore) GetFilePath(id string) (string, error) {
	info, err := s.Get(id)
	if err != nil {
		return "", err
	}
	return s.path(id, info.Name), nil
}

// List returns the most recent files.
func (s *LocalStore) List(limit int) ([]*models.FileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	var list []*models.FileInfo
	for _, info := range s.files {
		if !info.Expired(now) {
			list = append(list, info)
		}
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})

	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}

	return list, nil
}

// Delete removes a file from storage.
func (s *LocalStore) Delete(id string) error {
	s.mu.RLock()
	_, ok := s.files[id]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.remove(id)
}

func (s *LocalStore) remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, ok := s.files[id]
	if !ok {
		return nil
	}
	delete(s.files, id)

	if err := os.Remove(s.path(id, info.Name)); err != nil && !os.IsNotExist(err) {
		logger.Errorf("removing %s: %v", id, err)
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}

// CleanupExpired removes every expired file and returns how many went.
func (s *LocalStore) CleanupExpired() int {
	now := s.now()
	s.mu.RLock()
	var expired []string
	for id, info := range s.files {
		if info.Expired(now) {
			expired = append(expired, id)
		}
	}
	s.mu.RUnlock()

	for _, id := range expired {
		_ = s.remove(id)
	}
	if len(expired) > 0 {
		logger.Infof("cleaned up %d expired files", len(expired))
	}
	return len(expired)
}

// SanitizeFilename strips directories and characters that could escape
// the storage directory.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	for _, bad := range []string{"..", "\x00"} {
		name = strings.ReplaceAll(name, bad, "_")
	}
	if name == "" {
		name = "upload.pdf"
	}
	return name
}
