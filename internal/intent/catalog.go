package intent

import (
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// CacheTTL is the duration a loaded catalog stays valid before the next
// Load call re-reads the file from disk.
const CacheTTL = 5 * time.Second

type rawCatalogFile struct {
	ActiveIntents []rawIntent `yaml:"active_intents"`
	Intents       []rawIntent `yaml:"intents"`
}

// Catalog loads, caches, and validates the intent catalog file. It fails
// open: any parse problem yields an empty catalog and a logged warning
// rather than an error returned to the caller.
type Catalog struct {
	path string

	mu        sync.Mutex
	intents   []Intent
	loadedAt  time.Time
	hasLoaded bool
}

// NewCatalog returns a Catalog reading from path.
func NewCatalog(path string) *Catalog {
	return &Catalog{path: path}
}

// Load returns the current set of intents, re-reading the file if the
// cache has expired or never been populated.
func (c *Catalog) Load() []Intent {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.hasLoaded && time.Since(c.loadedAt) < CacheTTL {
		return c.intents
	}

	c.intents = c.readFile()
	c.loadedAt = time.Now()
	c.hasLoaded = true
	return c.intents
}

// Reload invalidates the cache unconditionally, forcing the next Load to
// re-read the file.
func (c *Catalog) Reload() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hasLoaded = false
}

// Find returns the intent with the given id, if present.
func (c *Catalog) Find(id string) (*Intent, bool) {
	for _, in := range c.Load() {
		if in.ID == id {
			return &in, true
		}
	}
	return nil, false
}

func (c *Catalog) readFile() []Intent {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", c.path).Msg("intent: catalog read failed, using empty catalog")
		}
		return nil
	}

	var raw rawCatalogFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		log.Warn().Err(err).Str("path", c.path).Msg("intent: catalog parse failed, using empty catalog")
		return nil
	}

	entries := raw.ActiveIntents
	if len(raw.Intents) > 0 {
		entries = append(entries, raw.Intents...)
	}

	seen := make(map[string]bool, len(entries))
	intents := make([]Intent, 0, len(entries))
	for _, r := range entries {
		in, errs, warns := validateRaw(r)
		for _, w := range warns {
			log.Warn().Str("path", c.path).Msg(w.Error())
		}
		if len(errs) > 0 {
			for _, e := range errs {
				log.Warn().Str("path", c.path).Msg("intent dropped: " + e.Error())
			}
			continue
		}
		if seen[in.ID] {
			log.Warn().Str("path", c.path).Msg("intent dropped: duplicate id " + in.ID)
			continue
		}
		seen[in.ID] = true
		intents = append(intents, *in)
	}
	return intents
}
