// Package filesystem feeds documents from a local directory into a study
// session, both once at start-up and as files appear.
package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/studybuddy/internal/core/domain"
	"github.com/custodia-labs/studybuddy/internal/logger"
)

// DefaultDebounce is how long a file must stay quiet before it is read.
// Editors and copies emit several writes per file.
const DefaultDebounce = 300 * time.Millisecond

// Connector reads supported documents from a single directory.
// Subdirectories and hidden files are ignored.
type Connector struct {
	rootPath   string
	extensions []string
	debounce   time.Duration

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	pending map[string]*time.Timer
}

// New creates a connector for rootPath accepting the given extensions,
// such as ".pdf". An empty extension list accepts every file.
func New(rootPath string, extensions []string) *Connector {
	exts := make([]string, len(extensions))
	for i, ext := range extensions {
		exts[i] = strings.ToLower(ext)
	}
	return &Connector{
		rootPath:   rootPath,
		extensions: exts,
		debounce:   DefaultDebounce,
		pending:    make(map[string]*time.Timer),
	}
}

// Validate checks that the root path is an existing directory.
func (c *Connector) Validate() error {
	if c.rootPath == "" {
		return fmt.Errorf("%w: watch directory is required", domain.ErrInvalidInput)
	}
	info, err := os.Stat(c.rootPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", domain.ErrNotFound, c.rootPath)
		}
		return fmt.Errorf("stat %s: %w", c.rootPath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, c.rootPath)
	}
	return nil
}

// Scan returns the supported documents currently in the directory, sorted by name.
func (c *Connector) Scan(ctx context.Context) ([]domain.UploadedDocument, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(c.rootPath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.rootPath, err)
	}

	var docs []domain.UploadedDocument
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !c.accepts(entry.Name()) {
			continue
		}
		doc, err := c.read(filepath.Join(c.rootPath, entry.Name()))
		if err != nil {
			logger.Warn("Skipping %s: %v", entry.Name(), err)
			continue
		}
		docs = append(docs, *doc)
	}
	return docs, nil
}

// Watch emits a document each time a supported file is created or written.
// The channel is closed when ctx is cancelled or the connector is closed.
func (c *Connector) Watch(ctx context.Context) (<-chan domain.UploadedDocument, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(c.rootPath); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", c.rootPath, err)
	}

	c.mu.Lock()
	c.watcher = w
	c.mu.Unlock()

	out := make(chan domain.UploadedDocument)
	go c.loop(ctx, w, out)
	return out, nil
}

func (c *Connector) loop(ctx context.Context, w *fsnotify.Watcher, out chan<- domain.UploadedDocument) {
	var wg sync.WaitGroup
	defer func() {
		c.stopPending(&wg)
		wg.Wait()
		close(out)
	}()

	emit := func(name string) {
		defer wg.Done()
		event := fsnotify.Event{Name: name, Op: fsnotify.Write}
		doc := c.handleFsEvent(event)
		if doc == nil {
			return
		}
		select {
		case out <- *doc:
		case <-ctx.Done():
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			c.schedule(event.Name, &wg, emit)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// schedule restarts the quiet period for name.
func (c *Connector) schedule(name string, wg *sync.WaitGroup, emit func(string)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if timer, ok := c.pending[name]; ok && timer.Stop() {
		wg.Done()
	}
	wg.Add(1)
	c.pending[name] = time.AfterFunc(c.debounce, func() {
		c.mu.Lock()
		delete(c.pending, name)
		c.mu.Unlock()
		emit(name)
	})
}

func (c *Connector) stopPending(wg *sync.WaitGroup) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for name, timer := range c.pending {
		if timer.Stop() {
			wg.Done()
		}
		delete(c.pending, name)
	}
}

// handleFsEvent converts a filesystem event into a document, or returns nil
// when the event does not describe a readable supported file.
func (c *Connector) handleFsEvent(event fsnotify.Event) *domain.UploadedDocument {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return nil
	}
	if isHidden(event.Name) || !c.accepts(event.Name) {
		return nil
	}
	info, err := os.Stat(event.Name)
	if err != nil || info.IsDir() {
		return nil
	}
	doc, err := c.read(event.Name)
	if err != nil {
		logger.Warn("Skipping %s: %v", event.Name, err)
		return nil
	}
	return doc
}

func (c *Connector) read(path string) (*domain.UploadedDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", domain.ErrDocumentFormat)
	}
	return &domain.UploadedDocument{Name: filepath.Base(path), Data: data}, nil
}

func (c *Connector) accepts(name string) bool {
	if isHidden(name) {
		return false
	}
	if len(c.extensions) == 0 {
		return true
	}
	return slices.Contains(c.extensions, strings.ToLower(filepath.Ext(name)))
}

// Close stops watching. Pending events are dropped.
func (c *Connector) Close() error {
	c.mu.Lock()
	w := c.watcher
	c.watcher = nil
	c.mu.Unlock()

	if w == nil {
		return nil
	}
	return w.Close()
}

// isHidden reports whether the final path element starts with a dot.
// An empty path and the "." and ".." elements are not hidden.
func isHidden(path string) bool {
	if path == "" {
		return false
	}
	name := filepath.Base(path)
	if name == "." || name == ".." {
		return false
	}
	return strings.HasPrefix(name, ".")
}
