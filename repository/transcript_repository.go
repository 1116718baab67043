package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"lectura/model"
)

// TranscriptRepository is the durable persistence layer for transcripts,
// one record per video id.
type TranscriptRepository interface {
	Exists(id string) bool
	Load(id string) (*model.Transcript, error)
	Save(id string, transcript *model.Transcript) error
}

// fileTranscriptRepository stores transcripts as one UTF-8 JSON file per id.
type fileTranscriptRepository struct {
	dir string
}

// NewFileTranscriptRepository creates a file-backed repository rooted at dir.
func NewFileTranscriptRepository(dir string) TranscriptRepository {
	return &fileTranscriptRepository{dir: dir}
}

func (r *fileTranscriptRepository) path(id string) string {
	return filepath.Join(r.dir, id+".json")
}

// Exists checks the durable layer for a persisted transcript.
func (r *fileTranscriptRepository) Exists(id string) bool {
	_, err := os.Stat(r.path(id))
	return err == nil
}

// Load reads the transcript file for id.
func (r *fileTranscriptRepository) Load(id string) (*model.Transcript, error) {
	data, err := os.ReadFile(r.path(id))
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript file for %s: %w", id, err)
	}

	var t model.Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse transcript file for %s: %w", id, err)
	}
	return &t, nil
}

// Save writes the transcript file for id. The write goes through a temporary
// file and a rename so a reader never observes a partial transcript.
func (r *fileTranscriptRepository) Save(id string, transcript *model.Transcript) error {
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return fmt.Errorf("failed to create transcript directory %s: %w", r.dir, err)
	}

	data, err := json.MarshalIndent(transcript, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal transcript for %s: %w", id, err)
	}

	tmp, err := os.CreateTemp(r.dir, id+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary transcript file for %s: %w", id, err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write transcript for %s: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close transcript file for %s: %w", id, err)
	}

	if err := os.Rename(tmp.Name(), r.path(id)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to publish transcript file for %s: %w", id, err)
	}
	return nil
}
