// Package avatar stores profile images on disk and keeps the user's
// avatar column pointing at the current file.
package avatar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/MarkussPinkovskis/ColorGen/user"
	"github.com/google/uuid"
)

var (
	ErrNoFile          = errors.New("no file uploaded")
	ErrInvalidFileType = errors.New("invalid file type")
)

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

type Manager struct {
	dir   string
	users user.Repository

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewManager(dir string, users user.Repository) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating avatar directory: %w", err)
	}
	return &Manager{
		dir:   dir,
		users: users,
		locks: make(map[uuid.UUID]*sync.Mutex),
	}, nil
}

// Upload validates the file, writes it under a fresh random name,
// repoints the user record and only then deletes the previous file.
// Uploads for the same user are serialized so two concurrent requests
// can't delete each other's freshly written file.
func (m *Manager) Upload(ctx context.Context, userID uuid.UUID, file io.Reader, filename string) (string, error) {
	if filename == "" {
		return "", ErrNoFile
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return "", ErrInvalidFileType
	}

	lock := m.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	current, err := m.users.GetByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("fetching user: %w", err)
	}
	if current == nil {
		return "", errors.New("user not found")
	}

	newName := uuid.NewString() + ext
	if err := m.writeFile(newName, file); err != nil {
		return "", err
	}

	if err := m.users.UpdateAvatar(ctx, userID, newName); err != nil {
		// The orphaned new file is hygiene, not a safety issue; remove it
		// on the spot since we still hold the lock.
		os.Remove(filepath.Join(m.dir, newName))
		return "", fmt.Errorf("updating avatar reference: %w", err)
	}

	if current.Avatar != "" {
		if err := os.Remove(filepath.Join(m.dir, current.Avatar)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("removing previous avatar: %w", err)
		}
	}

	return newName, nil
}

// Path returns the on-disk location of a stored avatar file.
func (m *Manager) Path(filename string) string {
	return filepath.Join(m.dir, filename)
}

func (m *Manager) Dir() string {
	return m.dir
}

func (m *Manager) writeFile(name string, src io.Reader) error {
	dst, err := os.Create(filepath.Join(m.dir, name))
	if err != nil {
		return fmt.Errorf("creating avatar file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return fmt.Errorf("writing avatar file: %w", err)
	}
	return dst.Close()
}

func (m *Manager) userLock(userID uuid.UUID) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[userID] = lock
	}
	return lock
}
