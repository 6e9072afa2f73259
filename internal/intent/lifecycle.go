package intent

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Clock supplies the current time to lifecycle operations, injected so
// tests can pin timestamps.
type Clock interface {
	Now() string
}

// SystemClock is the default Clock, returning RFC3339 timestamps in UTC.
type SystemClock struct{}

// Now returns the current time as an ISO-8601 string.
func (SystemClock) Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// Lifecycle mutates the catalog file in place, preserving field ordering
// and human comments via a CST-preserving YAML parser. It invalidates the
// given Catalog's cache after every successful write.
type Lifecycle struct {
	path    string
	catalog *Catalog
	clock   Clock
}

// NewLifecycle returns a Lifecycle writing to the same file the given
// Catalog reads from.
func NewLifecycle(path string, catalog *Catalog) *Lifecycle {
	return &Lifecycle{path: path, catalog: catalog, clock: SystemClock{}}
}

// WithClock overrides the Lifecycle's clock, for test determinism.
func (l *Lifecycle) WithClock(c Clock) *Lifecycle {
	l.clock = c
	return l
}

// TransitionIntent moves the named intent to newStatus. It fails with
// ErrIllegalTransition if the move is not in the allowed set and leaves
// the file untouched.
func (l *Lifecycle) TransitionIntent(id string, newStatus Status) error {
	doc, entryMap, err := l.loadDocument()
	if err != nil {
		return err
	}

	entry, ok := entryMap[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrIntentNotFound, id)
	}

	current := Status(fieldValue(entry, "status"))
	if !IsTransitionAllowed(current, newStatus) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, current, newStatus)
	}

	setField(entry, "status", string(newStatus))
	setField(entry, "updated_at", l.clock.Now())

	if err := l.writeDocument(doc); err != nil {
		return err
	}
	l.catalog.Reload()
	return nil
}

// UpdateIntentField overwrites a single scalar or sequence field on the
// named intent. value must be a string or a []string.
func (l *Lifecycle) UpdateIntentField(id, field string, value interface{}) error {
	doc, entryMap, err := l.loadDocument()
	if err != nil {
		return err
	}

	entry, ok := entryMap[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrIntentNotFound, id)
	}

	switch v := value.(type) {
	case string:
		setField(entry, field, v)
	case []string:
		setSequenceField(entry, field, v)
	default:
		return fmt.Errorf("updateIntentField: unsupported value type %T", value)
	}
	setField(entry, "updated_at", l.clock.Now())

	if err := l.writeDocument(doc); err != nil {
		return err
	}
	l.catalog.Reload()
	return nil
}

// loadDocument reads and parses the catalog file as a raw node tree and
// indexes each intent mapping node by its id field.
func (l *Lifecycle) loadDocument() (*yaml.Node, map[string]*yaml.Node, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrCatalogParse, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrCatalogParse, err)
	}

	entries := make(map[string]*yaml.Node)
	for _, seqNode := range intentSequenceNodes(&doc) {
		for _, item := range seqNode.Content {
			if item.Kind != yaml.MappingNode {
				continue
			}
			id := fieldValue(item, "id")
			if id != "" {
				entries[id] = item
			}
		}
	}
	return &doc, entries, nil
}

func (l *Lifecycle) writeDocument(doc *yaml.Node) error {
	out, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCatalogParse, err)
	}
	return os.WriteFile(l.path, out, 0644)
}

// intentSequenceNodes returns the sequence nodes bound to active_intents
// and/or intents at the top level of the document.
func intentSequenceNodes(doc *yaml.Node) []*yaml.Node {
	if len(doc.Content) == 0 {
		return nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil
	}

	var seqs []*yaml.Node
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i]
		val := root.Content[i+1]
		if (key.Value == "active_intents" || key.Value == "intents") && val.Kind == yaml.SequenceNode {
			seqs = append(seqs, val)
		}
	}
	return seqs
}

// fieldValue returns the scalar string value of a key within a mapping
// node, or "" if absent.
func fieldValue(mapping *yaml.Node, key string) string {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1].Value
		}
	}
	return ""
}

// setField sets key's scalar value within mapping, appending a new
// key/value pair if the key is absent.
func setField(mapping *yaml.Node, key, value string) {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			mapping.Content[i+1].Value = value
			mapping.Content[i+1].Tag = "!!str"
			return
		}
	}
	mapping.Content = append(mapping.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Value: value, Tag: "!!str"},
	)
}

// setSequenceField replaces (or appends) key's sequence value within
// mapping with a fresh sequence built from values.
func setSequenceField(mapping *yaml.Node, key string, values []string) {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, v := range values {
		seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: v, Tag: "!!str"})
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			mapping.Content[i+1] = seq
			return
		}
	}
	mapping.Content = append(mapping.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: key},
		seq,
	)
}
