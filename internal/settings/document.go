package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/angeloszaimis/api-health-checker/internal/endpoint"
)

const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Document is a read-only view over a layered settings tree.
type Document struct {
	v     *viper.Viper
	order []string
}

// New wraps an already populated viper instance. order lists top-level
// keys in document order; keys viper knows about but order omits are
// appended alphabetically by Sections.
func New(v *viper.Viper, order []string) *Document {
	if v == nil {
		panic("settings: nil viper instance")
	}
	return &Document{v: v, order: order}
}

// Empty returns a document with no keys.
func Empty() *Document {
	return New(viper.New(), nil)
}

// Load reads a JSON or YAML settings file, choosing the format from the
// file extension. A missing file is not an error and yields an empty
// document.
func Load(path string) (*Document, error) {
	format, err := formatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Empty(), nil
		}
		return nil, fmt.Errorf("read settings file: %w", err)
	}

	return Parse(format, data)
}

// Parse builds a document from raw JSON or YAML.
func Parse(format string, data []byte) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Empty(), nil
	}

	v := viper.New()
	v.SetConfigType(format)
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("parse %s settings: %w", format, err)
	}

	var (
		order []string
		err   error
	)
	switch format {
	case FormatJSON:
		order, err = jsonKeyOrder(data)
	case FormatYAML:
		order, err = yamlKeyOrder(data)
	default:
		return nil, fmt.Errorf("unsupported settings format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s key order: %w", format, err)
	}

	return New(v, order), nil
}

// IsSet reports whether key holds any value.
func (d *Document) IsSet(key string) bool {
	return d.v.IsSet(key)
}

// String returns the string value at key, or "" if absent.
func (d *Document) String(key string) string {
	return d.v.GetString(key)
}

// Strings returns the string list at key, or nil if absent.
func (d *Document) Strings(key string) []string {
	if !d.v.IsSet(key) {
		return nil
	}
	return d.v.GetStringSlice(key)
}

// IsSection reports whether key holds a nested key-value section.
func (d *Document) IsSection(key string) bool {
	_, ok := d.v.Get(key).(map[string]interface{})
	return ok
}

// Endpoints binds the list at key to endpoints. An absent key or a value
// that cannot be bound to a list yields nil. Entries are passed through as
// written, including ones without a URL.
func (d *Document) Endpoints(key string) []endpoint.Endpoint {
	if !d.v.IsSet(key) {
		return nil
	}

	var endpoints []endpoint.Endpoint
	if err := d.v.UnmarshalKey(key, &endpoints); err != nil {
		return nil
	}
	return endpoints
}

// Sections returns the top-level keys that hold nested sections, in
// document order.
func (d *Document) Sections() []string {
	var sections []string
	for _, key := range d.Keys() {
		if d.IsSection(key) {
			sections = append(sections, key)
		}
	}
	return sections
}

// Keys returns every top-level key in document order.
func (d *Document) Keys() []string {
	present := make(map[string]bool)
	for key := range d.v.AllSettings() {
		present[key] = true
	}

	keys := make([]string, 0, len(present))
	seen := make(map[string]bool, len(present))
	for _, key := range d.order {
		lower := strings.ToLower(key)
		if !present[lower] || seen[lower] {
			continue
		}
		seen[lower] = true
		keys = append(keys, key)
	}

	var rest []string
	for key := range present {
		if !seen[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)

	return append(keys, rest...)
}

func formatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported settings file extension %q", filepath.Ext(path))
	}
}

func yamlKeyOrder(data []byte) ([]string, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, nil
	}

	mapping := root.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return nil, nil
	}

	keys := make([]string, 0, len(mapping.Content)/2)
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		keys = append(keys, mapping.Content[i].Value)
	}
	return keys, nil
}

// jsonKeyOrder walks the token stream of the top-level object, skipping
// nested values.
func jsonKeyOrder(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil
	}

	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		keys = append(keys, key)

		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}

	if _, err := dec.Token(); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return keys, nil
}
