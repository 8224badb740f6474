package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	indexFileName       = "index.json"
	currentIndexVersion = 1
)

// Index is the marketplace index of installed plugins. The file on disk
// is the source of truth: Load before querying and Save after mutating.
// Entries keep their insertion order, on disk as well as in memory.
type Index struct {
	path      string
	logger    hclog.Logger
	version   int
	updatedAt time.Time
	order     []string
	plugins   map[string]*InstalledPlugin
}

// NewIndex creates an Index backed by path. It starts empty.
func NewIndex(path string, logger hclog.Logger) *Index {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Index{
		path:    path,
		logger:  logger,
		version: currentIndexVersion,
		plugins: make(map[string]*InstalledPlugin),
	}
}

// Path returns the index file path.
func (ix *Index) Path() string { return ix.path }

// Load replaces the in-memory state with the file contents. A missing
// file is an empty index; an unreadable or corrupt file is logged and
// also treated as empty.
func (ix *Index) Load() {
	ix.reset()

	data, err := os.ReadFile(ix.path)
	if err != nil {
		if !os.IsNotExist(err) {
			ix.logger.Warn("cannot read marketplace index, treating as empty", "path", ix.path, "error", err)
		}
		return
	}
	if !gjson.ValidBytes(data) {
		ix.logger.Warn("marketplace index is not valid JSON, treating as empty", "path", ix.path)
		return
	}

	doc := gjson.ParseBytes(data)
	if v := doc.Get("version"); v.Exists() {
		ix.version = int(v.Int())
	}
	if ix.version > currentIndexVersion {
		ix.logger.Warn("marketplace index was written by a newer sindri", "version", ix.version)
	}
	if t, err := time.Parse(time.RFC3339, doc.Get("updated_at").String()); err == nil {
		ix.updatedAt = t
	}

	// ForEach walks the object in document order.
	doc.Get("plugins").ForEach(func(key, value gjson.Result) bool {
		var p InstalledPlugin
		if err := json.Unmarshal([]byte(value.Raw), &p); err != nil {
			ix.logger.Warn("skipping corrupt index entry", "name", key.String(), "error", err)
			return true
		}
		if p.Metadata.Name == "" {
			p.Metadata.Name = key.String()
		}
		ix.put(&p)
		return true
	})
}

func (ix *Index) reset() {
	ix.version = currentIndexVersion
	ix.updatedAt = time.Time{}
	ix.order = nil
	ix.plugins = make(map[string]*InstalledPlugin)
}

// Save writes the whole index atomically.
func (ix *Index) Save() error {
	ix.updatedAt = time.Now().UTC()

	doc := []byte(`{}`)
	var err error
	if doc, err = sjson.SetBytes(doc, "version", currentIndexVersion); err != nil {
		return fmt.Errorf("encoding index: %w", err)
	}
	if doc, err = sjson.SetBytes(doc, "updated_at", ix.updatedAt.Format(time.RFC3339)); err != nil {
		return fmt.Errorf("encoding index: %w", err)
	}
	if doc, err = sjson.SetRawBytes(doc, "plugins", []byte(`{}`)); err != nil {
		return fmt.Errorf("encoding index: %w", err)
	}
	for _, name := range ix.order {
		raw, err := json.Marshal(ix.plugins[name])
		if err != nil {
			return fmt.Errorf("encoding index entry %q: %w", name, err)
		}
		// sjson appends new keys, which keeps insertion order.
		if doc, err = sjson.SetRawBytes(doc, "plugins."+escapeJSONKey(name), raw); err != nil {
			return fmt.Errorf("encoding index entry %q: %w", name, err)
		}
	}

	var out bytes.Buffer
	if err := json.Indent(&out, doc, "", "  "); err != nil {
		return fmt.Errorf("encoding index: %w", err)
	}
	out.WriteByte('\n')

	if err := writeFileAtomic(ix.path, out.Bytes()); err != nil {
		return fmt.Errorf("saving marketplace index: %w", err)
	}
	return nil
}

// UpdatedAt returns the last save time recorded in the file.
func (ix *Index) UpdatedAt() time.Time { return ix.updatedAt }

// Exists reports whether a plugin with name is installed.
func (ix *Index) Exists(name string) bool {
	_, ok := ix.plugins[name]
	return ok
}

// Get returns the entry for name.
func (ix *Index) Get(name string) (*InstalledPlugin, bool) {
	p, ok := ix.plugins[name]
	return p, ok
}

// Put inserts or replaces an entry. Replacing keeps the original position.
func (ix *Index) Put(p *InstalledPlugin) {
	ix.put(p)
}

func (ix *Index) put(p *InstalledPlugin) {
	name := p.Metadata.Name
	if _, ok := ix.plugins[name]; !ok {
		ix.order = append(ix.order, name)
	}
	ix.plugins[name] = p
}

// Remove deletes an entry and reports whether it existed.
func (ix *Index) Remove(name string) bool {
	if _, ok := ix.plugins[name]; !ok {
		return false
	}
	delete(ix.plugins, name)
	for i, n := range ix.order {
		if n == name {
			ix.order = append(ix.order[:i], ix.order[i+1:]...)
			break
		}
	}
	return true
}

// List returns all entries in insertion order.
func (ix *Index) List() []*InstalledPlugin {
	out := make([]*InstalledPlugin, 0, len(ix.order))
	for _, name := range ix.order {
		out = append(out, ix.plugins[name])
	}
	return out
}

// Len returns the number of entries.
func (ix *Index) Len() int { return len(ix.order) }

// FindByPath returns the entry whose installed file is path.
func (ix *Index) FindByPath(path string) (*InstalledPlugin, bool) {
	for _, name := range ix.order {
		if p := ix.plugins[name]; p.InstalledPath == path {
			return p, true
		}
	}
	return nil, false
}

// escapeJSONKey escapes a key for use in a gjson/sjson path.
func escapeJSONKey(key string) string {
	var b strings.Builder
	for _, c := range key {
		switch c {
		case '.', '*', '?', '#', '|', '\\', '@', '!', ':':
			b.WriteRune('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}
