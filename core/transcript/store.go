package transcript

import (
	"strings"
	"sync"

	"lectura/model"
	"lectura/repository"
)

const (
	// lookaheadSeconds extends the context window slightly past the playback
	// position so the sentence currently being spoken is included.
	lookaheadSeconds = 10.0

	// maxContextChars bounds the context handed to the Q&A model, counted in
	// characters, not bytes; transcripts are mostly Korean. Truncation keeps
	// the trailing characters: the most recent material is the most relevant
	// to a question asked at that point of the lecture.
	maxContextChars = 2000
)

// Store is the read/write surface for completed transcripts: a durable
// repository fronted by a never-evicted in-memory cache. Transcripts are
// written once per video id and immutable afterwards.
type Store struct {
	repo repository.TranscriptRepository

	mu    sync.RWMutex
	cache map[string]*model.Transcript
}

// NewStore creates a Store over the given durable repository.
func NewStore(repo repository.TranscriptRepository) *Store {
	return &Store{
		repo:  repo,
		cache: make(map[string]*model.Transcript),
	}
}

// Exists reports whether a transcript for id has been persisted.
func (s *Store) Exists(id string) bool {
	s.mu.RLock()
	_, cached := s.cache[id]
	s.mu.RUnlock()
	if cached {
		return true
	}
	return s.repo.Exists(id)
}

// Load returns the transcript for id, reading through to the durable layer
// on a cache miss and mirroring the result into the cache.
func (s *Store) Load(id string) (*model.Transcript, error) {
	s.mu.RLock()
	t, cached := s.cache[id]
	s.mu.RUnlock()
	if cached {
		return t, nil
	}

	t, err := s.repo.Load(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[id] = t
	s.mu.Unlock()
	return t, nil
}

// Save persists the transcript and mirrors it into the cache. When the
// durable write fails the cache is left untouched and the save counts as
// failed.
func (s *Store) Save(id string, t *model.Transcript) error {
	if err := s.repo.Save(id, t); err != nil {
		return err
	}

	s.mu.Lock()
	s.cache[id] = t
	s.mu.Unlock()
	return nil
}

// Warm inserts an already-loaded transcript into the cache without touching
// the durable layer. Used by the preheater.
func (s *Store) Warm(id string, t *model.Transcript) {
	s.mu.Lock()
	s.cache[id] = t
	s.mu.Unlock()
}

// ContextAt returns the transcript text heard up to atSeconds of playback
// (plus a short lookahead), joined with single spaces and truncated to the
// trailing maxContextChars. Returns "" for unknown ids.
func (s *Store) ContextAt(id string, atSeconds float64) string {
	t, err := s.Load(id)
	if err != nil {
		return ""
	}

	var parts []string
	for _, seg := range t.Segments {
		if seg.End <= atSeconds+lookaheadSeconds {
			parts = append(parts, seg.Text)
		}
	}

	context := strings.Join(parts, " ")
	if runes := []rune(context); len(runes) > maxContextChars {
		context = string(runes[len(runes)-maxContextChars:])
	}
	return context
}
