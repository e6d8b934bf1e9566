package world

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dumblo/adventure-api/internal/errors"
)

// Load reads and validates a world catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from operator config
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read world catalog %s", path)
	}
	return Parse(data)
}

// Parse decodes and validates a world catalog from YAML bytes.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrap(err, "failed to parse world catalog")
	}

	// Backfill ids from map keys so entries don't have to repeat them.
	for id, loc := range c.Locations {
		if loc.ID == "" {
			loc.ID = id
			c.Locations[id] = loc
		}
	}
	for id, e := range c.Enemies {
		if e.ID == "" {
			e.ID = id
			c.Enemies[id] = e
		}
		if e.Stats.MaxHP == 0 {
			e.Stats.MaxHP = e.Stats.HP
			c.Enemies[id] = e
		}
	}
	for id, ch := range c.Chests {
		if ch.ID == "" {
			ch.ID = id
			c.Chests[id] = ch
		}
	}
	for id, n := range c.NPCs {
		if n.ID == "" {
			n.ID = id
			c.NPCs[id] = n
		}
	}
	for id, it := range c.Items {
		if it.ID == "" {
			it.ID = id
			c.Items[id] = it
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
