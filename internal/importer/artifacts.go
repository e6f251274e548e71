package importer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ArtifactStore keeps uploaded source files on disk and routes them to the
// processed or error area once a run reaches a terminal state. Directories
// are explicit construction-time values scoped to the process.
type ArtifactStore struct {
	incomingDir  string
	processedDir string
	errorDir     string
}

// NewArtifactStore creates the store and its directories.
func NewArtifactStore(incomingDir, processedDir, errorDir string) (*ArtifactStore, error) {
	for _, dir := range []string{incomingDir, processedDir, errorDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create artifact directory %s: %w", dir, err)
		}
	}
	return &ArtifactStore{
		incomingDir:  incomingDir,
		processedDir: processedDir,
		errorDir:     errorDir,
	}, nil
}

// Save writes the uploaded payload into the incoming area under a run-unique
// name and returns its path.
func (s *ArtifactStore) Save(runID uuid.UUID, fileName string, payload []byte) (string, error) {
	name := runID.String() + "_" + filepath.Base(fileName)
	path := filepath.Join(s.incomingDir, name)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", fmt.Errorf("failed to save artifact: %w", err)
	}
	return path, nil
}

// MoveProcessed relocates a finished artifact to the processed area.
func (s *ArtifactStore) MoveProcessed(path string) error {
	return moveTo(path, s.processedDir)
}

// MoveFailed relocates a failed artifact to the error area.
func (s *ArtifactStore) MoveFailed(path string) error {
	return moveTo(path, s.errorDir)
}

func moveTo(path, dir string) error {
	target := filepath.Join(dir, filepath.Base(path))
	if err := os.Rename(path, target); err != nil {
		return fmt.Errorf("failed to move artifact to %s: %w", dir, err)
	}
	return nil
}
