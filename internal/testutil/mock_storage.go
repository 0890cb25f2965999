// mock_storage.go - Mock storage implementation for testing
package testutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/bidmap-converter/backend/internal/models"
	"github.com/bidmap-converter/backend/internal/storage"
)

// MockStorage implements storage.Store for testing. Files are written to a
// temp directory so handlers can hand real paths to the converter, but
// nothing expires and names are not sanitized.
type MockStorage struct {
	mu    sync.RWMutex
	dir   string
	files map[string]*models.FileInfo

	// WriteErr, when set, fails every store operation.
	WriteErr error
}

// NewMockStorage creates a mock storage that writes into dir
func NewMockStorage(dir string) *MockStorage {
	return &MockStorage{
		dir:   dir,
		files: make(map[string]*models.FileInfo),
	}
}

// Ensure MockStorage implements storage.Store
var _ storage.Store = (*MockStorage)(nil)

func (m *MockStorage) StoreUpload(name string, r io.Reader) (*models.FileInfo, error) {
	return m.save(generateTestID(), name, models.ArtifactUpload, "", r)
}

func (m *MockStorage) StoreConverted(uploadID string, r io.Reader, customName string) (*models.FileInfo, error) {
	name := customName
	if name == "" {
		name = "converted_deployment.pdf"
	}
	return m.save(generateTestID(), name, models.ArtifactConverted, uploadID, r)
}

func (m *MockStorage) save(id, name string, kind models.ArtifactKind, uploadID string, r io.Reader) (*models.FileInfo, error) {
	if m.WriteErr != nil {
		return nil, m.WriteErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return m.put(id, name, kind, uploadID, data)
}

func (m *MockStorage) put(id, name string, kind models.ArtifactKind, uploadID string, data []byte) (*models.FileInfo, error) {
	if err := os.WriteFile(filepath.Join(m.dir, id+"_"+name), data, 0644); err != nil {
		return nil, err
	}

	now := time.Now()
	file := &models.FileInfo{
		ID:        id,
		Name:      name,
		Size:      int64(len(data)),
		Kind:      kind,
		UploadID:  uploadID,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[id] = file
	return file, nil
}

func (m *MockStorage) Get(id string) (*models.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	file, ok := m.files[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	return file, nil
}

// GetFilePath returns the actual file path on disk
func (m *MockStorage) GetFilePath(id string) (string, error) {
	file, err := m.Get(id)
	if err != nil {
		return "", err
	}
	return filepath.Join(m.dir, id+"_"+file.Name), nil
}

func (m *MockStorage) List(limit int) ([]*models.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var files []*models.FileInfo
	for _, file := range m.files {
		files = append(files, file)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].ID < files[j].ID })
	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}
	return files, nil
}

func (m *MockStorage) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	file, ok := m.files[id]
	if !ok {
		return errors.New("file not found")
	}
	delete(m.files, id)
	return os.Remove(filepath.Join(m.dir, id+"_"+file.Name))
}

func (m *MockStorage) CleanupExpired() int {
	return 0
}

// Test Helper Methods

// AddFile writes the file to disk and adds it to the mock
func (m *MockStorage) AddFile(id string, name string, kind models.ArtifactKind, data []byte) *models.FileInfo {
	file, err := m.put(id, name, kind, "", data)
	if err != nil {
		panic(fmt.Sprintf("failed to write test file: %v", err))
	}
	return file
}

// GetFileData returns the file content
func (m *MockStorage) GetFileData(id string) ([]byte, error) {
	path, err := m.GetFilePath(id)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// GetFileCount returns the number of stored files
func (m *MockStorage) GetFileCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.files)
}

// generateTestID generates a simple test ID
var testIDCounter int
var testIDMutex sync.Mutex

func generateTestID() string {
	testIDMutex.Lock()
	defer testIDMutex.Unlock()
	testIDCounter++
	return fmt.Sprintf("test-id-%d", testIDCounter)
}
