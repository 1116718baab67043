package transcript

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"lectura/model"
)

// fakeRepo is an in-memory transcript repository that counts reads.
type fakeRepo struct {
	data  map[string]*model.Transcript
	loads int
	fail  bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{data: make(map[string]*model.Transcript)}
}

func (r *fakeRepo) Exists(id string) bool {
	_, ok := r.data[id]
	return ok
}

func (r *fakeRepo) Load(id string) (*model.Transcript, error) {
	r.loads++
	if r.fail {
		return nil, errors.New("storage failure")
	}
	t, ok := r.data[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return t, nil
}

func (r *fakeRepo) Save(id string, t *model.Transcript) error {
	if r.fail {
		return errors.New("storage failure")
	}
	r.data[id] = t
	return nil
}

// TestStoreSaveLoadExists checks the basic write-once read path.
func TestStoreSaveLoadExists(t *testing.T) {
	repo := newFakeRepo()
	store := NewStore(repo)

	if store.Exists("v1") {
		t.Fatal("Exists before save = true, want false")
	}

	want := &model.Transcript{FullText: "hello world"}
	if err := store.Save("v1", want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !store.Exists("v1") {
		t.Fatal("Exists after save = false, want true")
	}

	got, err := store.Load("v1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.FullText != "hello world" {
		t.Fatalf("full text = %q", got.FullText)
	}
}

// TestStoreCacheFirst checks that reads after a save never hit the durable
// layer.
func TestStoreCacheFirst(t *testing.T) {
	repo := newFakeRepo()
	store := NewStore(repo)

	if err := store.Save("v1", &model.Transcript{FullText: "cached"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := store.Load("v1"); err != nil {
			t.Fatalf("Load() error = %v", err)
		}
	}
	if repo.loads != 0 {
		t.Fatalf("durable loads = %d, want 0", repo.loads)
	}
}

// TestStoreReadThroughMirrorsIntoCache checks a cache miss populates the
// cache so the durable layer is read at most once.
func TestStoreReadThroughMirrorsIntoCache(t *testing.T) {
	repo := newFakeRepo()
	repo.data["v1"] = &model.Transcript{FullText: "durable"}
	store := NewStore(repo)

	for i := 0; i < 3; i++ {
		got, err := store.Load("v1")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got.FullText != "durable" {
			t.Fatalf("full text = %q", got.FullText)
		}
	}
	if repo.loads != 1 {
		t.Fatalf("durable loads = %d, want 1", repo.loads)
	}
}

// TestStoreSaveFailureLeavesCacheCold checks a failed durable write does not
// populate the cache.
func TestStoreSaveFailureLeavesCacheCold(t *testing.T) {
	repo := newFakeRepo()
	repo.fail = true
	store := NewStore(repo)

	if err := store.Save("v1", &model.Transcript{FullText: "x"}); err == nil {
		t.Fatal("expected save error")
	}

	repo.fail = false
	if store.Exists("v1") {
		t.Fatal("Exists = true after failed save, want false")
	}
}

// TestContextAtWindow checks segment selection around the playback position.
func TestContextAtWindow(t *testing.T) {
	repo := newFakeRepo()
	store := NewStore(repo)
	store.Warm("v1", &model.Transcript{
		Segments: []model.Segment{
			{Start: 0, End: 10, Text: "intro"},
			{Start: 10, End: 40, Text: "first topic"},
			{Start: 40, End: 70, Text: "second topic"},
			{Start: 70, End: 100, Text: "conclusion"},
		},
	})

	// Segments ending at or before at+10 are included; 40 <= 30+10 so the
	// first two segments make the cut.
	got := store.ContextAt("v1", 30)
	if got != "intro first topic" {
		t.Fatalf("ContextAt(30) = %q, want %q", got, "intro first topic")
	}

	got = store.ContextAt("v1", 95)
	if got != "intro first topic second topic conclusion" {
		t.Fatalf("ContextAt(95) = %q", got)
	}

	got = store.ContextAt("v1", 0)
	if got != "intro" {
		t.Fatalf("ContextAt(0) = %q, want %q", got, "intro")
	}
}

// TestContextAtUnknownID checks the empty result for ids never transcribed.
func TestContextAtUnknownID(t *testing.T) {
	store := NewStore(newFakeRepo())
	if got := store.ContextAt("missing", 30); got != "" {
		t.Fatalf("ContextAt for unknown id = %q, want empty", got)
	}
}

// TestContextAtTruncatesTrailing checks that long contexts keep the trailing
// characters.
func TestContextAtTruncatesTrailing(t *testing.T) {
	repo := newFakeRepo()
	store := NewStore(repo)

	long := strings.Repeat("a", 3000)
	store.Warm("v1", &model.Transcript{
		Segments: []model.Segment{
			{Start: 0, End: 10, Text: long},
			{Start: 10, End: 20, Text: "tail marker"},
		},
	})

	got := store.ContextAt("v1", 60)
	if len(got) != maxContextChars {
		t.Fatalf("context length = %d, want %d", len(got), maxContextChars)
	}
	if !strings.HasSuffix(got, "tail marker") {
		t.Fatalf("context should keep the trailing text, got suffix %q", got[len(got)-20:])
	}
}

// TestContextAtKoreanUnderLimit checks that multi-byte text shorter than the
// character limit is returned whole. The limit counts characters, so a
// Korean context well under 2000 characters must never be cut even though
// its byte length exceeds 2000.
func TestContextAtKoreanUnderLimit(t *testing.T) {
	store := NewStore(newFakeRepo())

	korean := strings.Repeat("강의", 751) // 1502 characters, 4506 bytes
	store.Warm("v1", &model.Transcript{
		Segments: []model.Segment{{Start: 0, End: 10, Text: korean}},
	})

	got := store.ContextAt("v1", 60)
	if !utf8.ValidString(got) {
		t.Fatal("context is not valid UTF-8")
	}
	if got != korean {
		t.Fatalf("rune count = %d, want %d", utf8.RuneCountInString(got), utf8.RuneCountInString(korean))
	}
}

// TestContextAtKoreanTruncation checks that over-limit multi-byte text is
// truncated on character boundaries.
func TestContextAtKoreanTruncation(t *testing.T) {
	store := NewStore(newFakeRepo())

	korean := strings.Repeat("수업", 1500) // 3000 characters
	store.Warm("v1", &model.Transcript{
		Segments: []model.Segment{
			{Start: 0, End: 10, Text: korean},
			{Start: 10, End: 20, Text: "마지막 표시"},
		},
	})

	got := store.ContextAt("v1", 60)
	if !utf8.ValidString(got) {
		t.Fatal("context is not valid UTF-8")
	}
	if n := utf8.RuneCountInString(got); n != maxContextChars {
		t.Fatalf("rune count = %d, want %d", n, maxContextChars)
	}
	if !strings.HasSuffix(got, "마지막 표시") {
		t.Fatal("context should keep the trailing text")
	}
}
