// Package repo persists the session slots between process runs.
package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ovaphlow/pitchfork/todo-client-go/pkg/database"
)

// Storage is durable key/value storage addressed by slot name.
type Storage interface {
	// Get returns the value of slot and whether it was present.
	Get(ctx context.Context, slot string) (string, bool, error)
	Set(ctx context.Context, slot, value string) error
	// Remove deletes the given slots; missing slots are ignored.
	Remove(ctx context.Context, slots ...string) error
	Close() error
}

const (
	DriverFile     = "file"
	DriverMemory   = "memory"
	DriverSQLite   = database.DriverSQLite
	DriverPostgres = database.DriverPostgres
)

var ErrUnknownDriver = errors.New("unknown storage driver")

type Config struct {
	Driver string
	// Path of the session file for the file driver.
	Path string
	// Passphrase, when set, encrypts the session file.
	Passphrase string
	DB         database.Config
}

// ConfigFromEnv reads storage config from environment variables.
func ConfigFromEnv() Config {
	driver := os.Getenv("STORAGE_DRIVER")
	if driver == "" {
		driver = DriverFile
	}
	path := os.Getenv("STORAGE_PATH")
	if path == "" {
		path = defaultPath()
	}
	return Config{
		Driver:     driver,
		Path:       path,
		Passphrase: os.Getenv("STORAGE_PASSPHRASE"),
		DB:         database.ConfigFromEnv(),
	}
}

func defaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "todo-session.json"
	}
	return filepath.Join(dir, "pitchfork-todo", "session.json")
}

// Open builds the Storage selected by cfg.Driver.
func Open(cfg Config) (Storage, error) {
	switch cfg.Driver {
	case DriverMemory:
		return NewMemoryStorage(), nil
	case DriverFile:
		return NewFileStorage(cfg.Path, cfg.Passphrase), nil
	case DriverSQLite, DriverPostgres:
		dbCfg := cfg.DB
		dbCfg.Driver = cfg.Driver
		db, err := database.Connect(dbCfg)
		if err != nil {
			return nil, err
		}
		return NewSQLStorage(db), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
