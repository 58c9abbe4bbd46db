package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pevans/postcrawl/processor"
)

// Index file names inside the index directory.
const (
	CategoriesFile = "categories.json"
	TagsFile       = "tags.json"
)

// Entry is one category or tag with the number of posts referencing it.
type Entry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	Count       int    `json:"count"`
}

// Index is a category or tag index held in memory. Names are unique.
type Index struct {
	path     string
	describe func(name string) string
	entries  []Entry
	byName   map[string]int
}

// CategoryDescription is the description given to new category entries.
func CategoryDescription(name string) string {
	return name + " 相關的文章"
}

// LoadIndex reads the index at path. A missing file is an empty index.
// describe, if non-nil, supplies the description of new entries.
func LoadIndex(path string, describe func(name string) string) (*Index, error) {
	idx := &Index{
		path:     path,
		describe: describe,
		entries:  []Entry{},
		byName:   make(map[string]int),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return idx, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}

	if err := json.Unmarshal(data, &idx.entries); err != nil {
		return nil, fmt.Errorf("failed to parse index %s: %w", filepath.Base(path), err)
	}
	if idx.entries == nil {
		idx.entries = []Entry{}
	}
	for i, e := range idx.entries {
		idx.byName[e.Name] = i
	}

	return idx, nil
}

// Add counts one reference to each name, creating entries on first use.
func (idx *Index) Add(names ...string) {
	for _, name := range names {
		if i, ok := idx.byName[name]; ok {
			idx.entries[i].Count++
			continue
		}

		entry := Entry{
			ID:    uuid.NewString(),
			Name:  name,
			Slug:  processor.Slugify(name),
			Count: 1,
		}
		if idx.describe != nil {
			entry.Description = idx.describe(name)
		}
		idx.byName[name] = len(idx.entries)
		idx.entries = append(idx.entries, entry)
	}
}

// Get returns the entry for name.
func (idx *Index) Get(name string) (Entry, bool) {
	i, ok := idx.byName[name]
	if !ok {
		return Entry{}, false
	}
	return idx.entries[i], true
}

// Entries returns a copy of the entries in creation order.
func (idx *Index) Entries() []Entry {
	return append([]Entry{}, idx.entries...)
}

// Save rewrites the whole index file.
func (idx *Index) Save() error {
	if err := os.MkdirAll(filepath.Dir(idx.path), 0o755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	data, err := json.MarshalIndent(idx.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}

	if err := os.WriteFile(idx.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}
	return nil
}

// Indices updates the category and tag index files in one directory.
type Indices struct {
	dir string
}

// NewIndices returns the indices stored in dir.
func NewIndices(dir string) *Indices {
	return &Indices{dir: dir}
}

// Record counts a post's categories and tags. Each index is read, updated
// and rewritten in full; a failure on one index does not stop the other.
func (in *Indices) Record(categories, tags []string) error {
	catErr := update(filepath.Join(in.dir, CategoriesFile), CategoryDescription, categories)
	tagErr := update(filepath.Join(in.dir, TagsFile), nil, tags)
	return errors.Join(catErr, tagErr)
}

// Categories loads the category index.
func (in *Indices) Categories() (*Index, error) {
	return LoadIndex(filepath.Join(in.dir, CategoriesFile), CategoryDescription)
}

// Tags loads the tag index.
func (in *Indices) Tags() (*Index, error) {
	return LoadIndex(filepath.Join(in.dir, TagsFile), nil)
}

func update(path string, describe func(string) string, names []string) error {
	idx, err := LoadIndex(path, describe)
	if err != nil {
		return err
	}
	idx.Add(names...)
	return idx.Save()
}
