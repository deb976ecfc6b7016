package results

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vigilsec/argus/internal/config"
	"github.com/vigilsec/argus/internal/core"
)

// NewStore creates the configured persistence sink. The path is a
// directory for the JSON backend and a database file for SQLite.
func NewStore(cfg config.ResultsConfig) (core.PersistenceSink, error) {
	switch cfg.Backend {
	case "json":
		return NewJSONStore(cfg.Path)
	case "sqlite", "":
		path := cfg.Path
		if !strings.HasSuffix(path, ".db") {
			path = strings.TrimSuffix(path, filepath.Ext(path)) + ".db"
		}
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown results backend %q", cfg.Backend)
	}
}
