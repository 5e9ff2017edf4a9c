// Package artifact saves files produced by tool responses.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/papercomputeco/toolrelay/pkg/dispatch"
)

// DirSaver writes artifacts into a directory. Saves are keyed by response ID:
// each response is written at most once no matter how often Save is called.
type DirSaver struct {
	dir    string
	logger *zap.Logger

	mu    sync.Mutex
	saved map[uuid.UUID]string
}

// NewDirSaver creates a saver writing into dir.
func NewDirSaver(dir string, logger *zap.Logger) *DirSaver {
	if dir == "" {
		dir = "."
	}
	return &DirSaver{
		dir:    dir,
		logger: logger,
		saved:  make(map[uuid.UUID]string),
	}
}

// Save writes the response's artifact and returns its path. Responses without
// an artifact return an empty path. A response that was already saved
// returns the earlier path without touching the file.
func (s *DirSaver) Save(_ context.Context, resp *dispatch.Response) (string, error) {
	if resp == nil || resp.Artifact == nil {
		return "", nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if path, ok := s.saved[resp.ID]; ok {
		s.logger.Debug("artifact already saved",
			zap.String("response_id", resp.ID.String()),
			zap.String("path", path),
		)
		return path, nil
	}

	name := filepath.Base(resp.Artifact.Filename)
	if name == "." || name == string(filepath.Separator) {
		return "", errors.New("artifact has no usable filename")
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create artifact directory: %w", err)
	}

	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, resp.Artifact.Content, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}

	s.saved[resp.ID] = path
	s.logger.Info("artifact saved",
		zap.String("response_id", resp.ID.String()),
		zap.String("path", path),
		zap.Int("bytes", len(resp.Artifact.Content)),
	)
	return path, nil
}
