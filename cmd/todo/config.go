package main

import (
	"flag"
	"io"

	"github.com/ovaphlow/pitchfork/todo-client-go/internal/apiclient"
	"github.com/ovaphlow/pitchfork/todo-client-go/internal/session/repo"
	"github.com/ovaphlow/pitchfork/todo-client-go/pkg/utilities"
)

type Config struct {
	API     apiclient.Config
	Storage repo.Config
	Log     utilities.Config
}

// ParseGlobal reads the flags before the command name. Unset flags fall
// back to the environment. It returns the remaining arguments.
func ParseGlobal(args []string, stderr io.Writer) (Config, []string, error) {
	cfg := Config{
		API:     apiclient.ConfigFromEnv(),
		Storage: repo.ConfigFromEnv(),
		Log:     utilities.ConfigFromEnv(),
	}

	var baseURL, driver, path, dsn, level string
	fs := flag.NewFlagSet("todo", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&baseURL, "api", "", "API base URL (or TODO_API_BASE_URL)")
	fs.StringVar(&driver, "storage", "", "session storage: file, sqlite, postgres or memory (or STORAGE_DRIVER)")
	fs.StringVar(&path, "storage-path", "", "session file for the file driver (or STORAGE_PATH)")
	fs.StringVar(&dsn, "storage-dsn", "", "database DSN for the sqlite and postgres drivers (or STORAGE_DSN)")
	fs.StringVar(&level, "log-level", "", "debug, info, warn or error (or LOG_LEVEL)")
	fs.Usage = func() { usage(fs) }

	if err := fs.Parse(args); err != nil {
		return Config{}, nil, err
	}

	if baseURL != "" {
		cfg.API.BaseURL = baseURL
	}
	if driver != "" {
		cfg.Storage.Driver = driver
		cfg.Storage.DB.Driver = driver
	}
	if path != "" {
		cfg.Storage.Path = path
	}
	if dsn != "" {
		cfg.Storage.DB.DSN = dsn
	}
	if level != "" {
		cfg.Log.Level = level
	}
	return cfg, fs.Args(), nil
}
