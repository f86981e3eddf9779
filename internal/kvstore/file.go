package kvstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"calsync/pkg/logging"
)

// DefaultStorageDir is the directory under the user's home holding store files.
const DefaultStorageDir = ".config/calsync/storage"

const (
	fileExt = ".json"
	// defaultDebounce coalesces the write+rename event pairs of one Set.
	defaultDebounce = 100 * time.Millisecond
)

// FileStore keeps one JSON file per key in a directory.
//
// SECURITY: the store holds bearer credentials. The directory is created
// with 0700 and files with 0600 permissions. Values are never logged.
type FileStore struct {
	mu       sync.RWMutex
	dir      string
	debounce time.Duration
}

// FileStoreOption configures a FileStore.
type FileStoreOption func(*FileStore)

// WithDebounce sets how long Watch waits for further events on a key
// before emitting a change.
func WithDebounce(d time.Duration) FileStoreOption {
	return func(s *FileStore) {
		s.debounce = d
	}
}

// NewFileStore creates a FileStore rooted at dir, creating the directory if
// needed. An empty dir means ~/.config/calsync/storage.
func NewFileStore(dir string, opts ...FileStoreOption) (*FileStore, error) {
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to determine home directory: %w", err)
		}
		dir = filepath.Join(homeDir, DefaultStorageDir)
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	s := &FileStore{dir: dir, debounce: defaultDebounce}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the directory backing the store.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+fileExt)
}

func (s *FileStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if err := ValidateKey(key); err != nil {
		return nil, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	// #nosec G304 -- path is built from a validated key
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: failed to read %s: %w", ErrStoreUnavailable, key, err)
	}
	return data, true, nil
}

// Set writes value to a temporary file and renames it over the target so
// readers never observe a partial document.
func (s *FileStore) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, "."+key+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: failed to create temp file for %s: %w", ErrStoreUnavailable, key, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if err := tmp.Chmod(0600); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("%w: failed to set permissions for %s: %w", ErrStoreUnavailable, key, err)
	}
	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("%w: failed to write %s: %w", ErrStoreUnavailable, key, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("%w: failed to write %s: %w", ErrStoreUnavailable, key, err)
	}
	if err := os.Rename(tmpName, s.path(key)); err != nil {
		cleanup()
		return fmt.Errorf("%w: failed to replace %s: %w", ErrStoreUnavailable, key, err)
	}
	return nil
}

func (s *FileStore) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: failed to remove %s: %w", ErrStoreUnavailable, key, err)
	}
	return nil
}

// Watch reports changes to store files, including those written by other
// processes such as the browser-side auth listener.
func (s *FileStore) Watch(ctx context.Context, keys ...string) (<-chan Change, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", s.dir, err)
	}

	out := make(chan Change, 16)
	go s.processEvents(ctx, watcher, keys, out)

	logging.Debug("FileStore", "Watching %s for changes", s.dir)
	return out, nil
}

func (s *FileStore) processEvents(ctx context.Context, watcher *fsnotify.Watcher, keys []string, out chan<- Change) {
	defer close(out)
	defer watcher.Close()

	type debounceEntry struct {
		timer *time.Timer
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]*debounceEntry)
		wg      sync.WaitGroup
	)
	defer func() {
		mu.Lock()
		for key, entry := range pending {
			if entry.timer.Stop() {
				wg.Done()
			}
			delete(pending, key)
		}
		mu.Unlock()
		wg.Wait()
	}()

	emit := func(key string, entry *debounceEntry) {
		defer wg.Done()
		mu.Lock()
		if pending[key] == entry {
			delete(pending, key)
		}
		mu.Unlock()

		op := OpSet
		if _, err := os.Stat(s.path(key)); errors.Is(err, os.ErrNotExist) {
			op = OpRemove
		}
		select {
		case out <- Change{Key: key, Op: op}:
		case <-ctx.Done():
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			key, ok := keyFromPath(event.Name)
			if !ok || !matchesKeys(key, keys) {
				continue
			}

			mu.Lock()
			if entry, exists := pending[key]; exists && entry.timer.Stop() {
				entry.timer.Reset(s.debounce)
				mu.Unlock()
				continue
			}
			entry := &debounceEntry{}
			wg.Add(1)
			entry.timer = time.AfterFunc(s.debounce, func() { emit(key, entry) })
			pending[key] = entry
			mu.Unlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logging.Warn("FileStore", "Watcher error: %v", err)
		}
	}
}

// keyFromPath maps a store file name back to its key, ignoring temp files.
func keyFromPath(path string) (string, bool) {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || filepath.Ext(base) != fileExt {
		return "", false
	}
	key := strings.TrimSuffix(base, fileExt)
	if ValidateKey(key) != nil {
		return "", false
	}
	return key, true
}
