package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileStorage keeps all slots in one JSON file, optionally encrypted with a
// passphrase. Every write replaces the file atomically.
type FileStorage struct {
	path       string
	passphrase string

	mu   sync.Mutex
	salt []byte
	key  []byte
}

func NewFileStorage(path, passphrase string) *FileStorage {
	return &FileStorage{path: path, passphrase: passphrase}
}

func (f *FileStorage) Get(_ context.Context, slot string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	slots, err := f.load()
	if err != nil {
		return "", false, err
	}
	v, ok := slots[slot]
	return v, ok, nil
}

func (f *FileStorage) Set(_ context.Context, slot, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	slots, err := f.load()
	if err != nil {
		if !Unreadable(err) {
			return err
		}
		slots = map[string]string{}
	}
	slots[slot] = value
	return f.save(slots)
}

func (f *FileStorage) Remove(_ context.Context, slots ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, err := f.load()
	if err != nil {
		if Unreadable(err) {
			return f.removeFile()
		}
		return err
	}
	changed := false
	for _, s := range slots {
		if _, ok := current[s]; ok {
			delete(current, s)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	if len(current) == 0 {
		return f.removeFile()
	}
	return f.save(current)
}

func (f *FileStorage) Close() error { return nil }

func (f *FileStorage) load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}
	if f.passphrase != "" {
		salt, rest, err := splitSealed(data)
		if err != nil {
			return nil, err
		}
		if data, err = unseal(rest, f.keyFor(salt)); err != nil {
			return nil, err
		}
	}
	slots := map[string]string{}
	if err := json.Unmarshal(data, &slots); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return slots, nil
}

func (f *FileStorage) save(slots map[string]string) error {
	data, err := json.Marshal(slots)
	if err != nil {
		return fmt.Errorf("encode session file: %w", err)
	}
	if f.passphrase != "" {
		if f.salt == nil {
			salt, err := newSalt()
			if err != nil {
				return err
			}
			f.keyFor(salt)
		}
		if data, err = seal(data, f.key, f.salt); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".session-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

func (f *FileStorage) removeFile() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// keyFor derives the key for salt, reusing the last derivation when the salt
// is unchanged.
func (f *FileStorage) keyFor(salt []byte) []byte {
	if f.key != nil && string(f.salt) == string(salt) {
		return f.key
	}
	f.salt = append([]byte(nil), salt...)
	f.key = deriveKey(f.passphrase, f.salt)
	return f.key
}
