// Package results provides persistence backends for orphaned workflow
// results: one JSON file per result, or a single SQLite database.
package results

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/vigilsec/argus/internal/core"
)

// JSONStore implements core.PersistenceSink with one file per result.
type JSONStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewJSONStore creates a JSON-backed result store rooted at baseDir.
func NewJSONStore(baseDir string) (*JSONStore, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating results directory: %w", err)
	}
	return &JSONStore{baseDir: baseDir}, nil
}

// resultEnvelope wraps a result with integrity metadata.
type resultEnvelope struct {
	Version  int                  `json:"version"`
	Checksum string               `json:"checksum"`
	SavedAt  time.Time            `json:"saved_at"`
	Result   *core.OrphanedResult `json:"result"`
}

func (s *JSONStore) resultPath(id core.WorkflowID) string {
	// Workflow IDs are caller-supplied; keep them out of path syntax.
	name := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(string(id))
	return filepath.Join(s.baseDir, name+".json")
}

// Save persists one result atomically. Saving the same workflow ID
// twice overwrites the previous file.
func (s *JSONStore) Save(_ context.Context, result core.OrphanedResult) (core.WorkflowID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if result.WorkflowID == "" {
		return "", core.ErrState(core.CodeSinkUnavailable, "result has no workflow ID")
	}

	resultBytes, err := json.Marshal(&result)
	if err != nil {
		return "", fmt.Errorf("marshaling result: %w", err)
	}
	hash := sha256.Sum256(resultBytes)

	envelope := resultEnvelope{
		Version:  1,
		Checksum: hex.EncodeToString(hash[:]),
		SavedAt:  time.Now().UTC(),
		Result:   &result,
	}
	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling envelope: %w", err)
	}

	if err := atomicWriteFile(s.resultPath(result.WorkflowID), data, 0o644); err != nil {
		return "", fmt.Errorf("writing result file: %w", err)
	}
	return result.WorkflowID, nil
}

// Load retrieves a result by workflow ID, verifying its checksum.
func (s *JSONStore) Load(_ context.Context, id core.WorkflowID) (*core.OrphanedResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.resultPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.ErrState(core.CodeResultNotFound,
				fmt.Sprintf("no persisted result for %s", id))
		}
		return nil, fmt.Errorf("reading result file: %w", err)
	}

	var envelope resultEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("unmarshaling envelope: %w", err)
	}
	if envelope.Result == nil {
		return nil, core.ErrState(core.CodeStateCorrupted, "envelope has no result")
	}

	resultBytes, err := json.Marshal(envelope.Result)
	if err != nil {
		return nil, fmt.Errorf("marshaling result for checksum: %w", err)
	}
	hash := sha256.Sum256(resultBytes)
	if hex.EncodeToString(hash[:]) != envelope.Checksum {
		return nil, core.ErrState(core.CodeStateCorrupted, "checksum mismatch")
	}

	return envelope.Result, nil
}

// List returns the IDs of all persisted results for a tenant. An empty
// tenant matches everything.
func (s *JSONStore) List(_ context.Context, tenant string) ([]core.WorkflowID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("reading results directory: %w", err)
	}

	var ids []core.WorkflowID
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name()))
		if err != nil {
			continue
		}
		var envelope resultEnvelope
		if err := json.Unmarshal(data, &envelope); err != nil || envelope.Result == nil {
			continue
		}
		if tenant == "" || envelope.Result.Tenant == tenant {
			ids = append(ids, envelope.Result.WorkflowID)
		}
	}
	return ids, nil
}

// Close implements core.PersistenceSink. JSON files need no cleanup.
func (s *JSONStore) Close() error { return nil }

var _ core.PersistenceSink = (*JSONStore)(nil)
