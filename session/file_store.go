package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Sadisms/mm-tools/internal/fsstore"
)

const userFileVersion = 1

type userFile struct {
	Version  int                  `json:"version"`
	Sessions map[string]fileEntry `json:"sessions"`
}

type fileEntry struct {
	Data      map[string]any `json:"data"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// FileStore keeps one JSON file per user under root, written atomically and
// serialized by an advisory lock so several processes can share the
// directory.
type FileStore struct {
	root string
	mu   sync.Mutex
}

func NewFileStore(root string) *FileStore {
	return &FileStore{root: strings.TrimSpace(root)}
}

func (s *FileStore) Ensure(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fsstore.EnsureDir(s.root)
}

func (s *FileStore) Get(ctx context.Context, userID, sessionID string) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.loadLocked(userID)
	if err != nil {
		return nil, err
	}
	entry, ok := file.Sessions[sessionID]
	if !ok || entry.Data == nil {
		return map[string]any{}, nil
	}
	return entry.Data, nil
}

func (s *FileStore) Set(ctx context.Context, userID, sessionID string, data map[string]any) error {
	if data == nil {
		data = map[string]any{}
	}
	return s.update(ctx, userID, func(file *userFile) {
		file.Sessions[sessionID] = fileEntry{Data: data, UpdatedAt: time.Now().UTC()}
	})
}

func (s *FileStore) Clear(ctx context.Context, userID, sessionID string) error {
	return s.update(ctx, userID, func(file *userFile) {
		delete(file.Sessions, sessionID)
	})
}

func (s *FileStore) ClearAll(ctx context.Context, userID string) error {
	return s.update(ctx, userID, func(file *userFile) {
		file.Sessions = map[string]fileEntry{}
	})
}

func (s *FileStore) update(ctx context.Context, userID string, mutate func(*userFile)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return fsstore.WithLock(ctx, s.lockPath(userID), func() error {
		file, err := s.loadLocked(userID)
		if err != nil {
			return err
		}
		mutate(file)
		return fsstore.WriteJSON(s.userPath(userID), file)
	})
}

// loadLocked reads the user's file; a corrupt file is removed and treated
// as absent.
func (s *FileStore) loadLocked(userID string) (*userFile, error) {
	file := &userFile{Version: userFileVersion, Sessions: map[string]fileEntry{}}
	path := s.userPath(userID)
	found, err := fsstore.ReadJSON(path, file)
	if err != nil {
		_ = fsstore.Remove(path)
		return &userFile{Version: userFileVersion, Sessions: map[string]fileEntry{}}, nil
	}
	if !found || file.Sessions == nil {
		file.Sessions = map[string]fileEntry{}
	}
	return file, nil
}

func (s *FileStore) userPath(userID string) string {
	return filepath.Join(s.root, fileKey(userID)+".json")
}

func (s *FileStore) lockPath(userID string) string {
	return filepath.Join(s.root, ".locks", fileKey(userID)+".lck")
}

// fileKey maps a user id onto a safe filename, hashing anything that is not
// plain lowercase alnum.
func fileKey(userID string) string {
	safe := true
	for _, r := range userID {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			continue
		}
		safe = false
		break
	}
	if safe && userID != "" && len(userID) <= 64 {
		return userID
	}
	sum := sha256.Sum256([]byte(userID))
	return hex.EncodeToString(sum[:8])
}
