package transcript

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"lectura/logger"
	"lectura/model"

	"github.com/fsnotify/fsnotify"
)

// Preheater warms the in-memory cache from the transcript directory: once at
// startup for existing files, then continuously as new transcript files
// appear. This keeps first reads after a restart off the disk path.
type Preheater struct {
	store   *Store
	dir     string
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewPreheater creates a Preheater over dir feeding store.
func NewPreheater(store *Store, dir string) *Preheater {
	return &Preheater{store: store, dir: dir, done: make(chan struct{})}
}

// Start performs the initial warm-up scan and begins watching the directory.
func (p *Preheater) Start() error {
	if err := os.MkdirAll(p.dir, 0755); err != nil {
		return err
	}

	p.warmExisting()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(p.dir); err != nil {
		watcher.Close()
		return err
	}
	p.watcher = watcher

	go p.loop()
	return nil
}

// Stop ends the watch loop.
func (p *Preheater) Stop() {
	if p.watcher != nil {
		p.watcher.Close()
	}
	<-p.done
}

func (p *Preheater) loop() {
	defer close(p.done)
	for {
		select {
		case event, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			// Renames cover the temp-file publish done by the file repository.
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				p.warmFile(event.Name)
			}
		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("transcript watcher error", logger.ErrorField(err))
		}
	}
}

func (p *Preheater) warmExisting() {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		logger.Warn("could not scan transcript directory for preheat", logger.ErrorField(err))
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		p.warmFile(filepath.Join(p.dir, entry.Name()))
	}
}

func (p *Preheater) warmFile(path string) {
	if !strings.HasSuffix(path, ".json") {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	var t model.Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		// Ignore partially written or foreign files.
		return
	}

	id := strings.TrimSuffix(filepath.Base(path), ".json")
	p.store.Warm(id, &t)
	logger.Debug("preheated transcript", logger.String("id", id))
}
