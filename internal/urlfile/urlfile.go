// Package urlfile loads batch input files listing post URLs.
package urlfile

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// entry accepts either a bare URL string or a map with a url key and an
// optional free-form description.
type entry struct {
	URL         string
	Description string
}

func (e *entry) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return node.Decode(&e.URL)
	}
	var m struct {
		URL         string `yaml:"url"`
		Description string `yaml:"description"`
	}
	if err := node.Decode(&m); err != nil {
		return err
	}
	e.URL = m.URL
	e.Description = m.Description
	return nil
}

type document struct {
	URLs []entry `yaml:"urls"`
}

// Load reads a YAML file with a top-level urls list and returns the post
// URLs it names. Entries that do not point at instagram.com are logged and
// dropped; a malformed file is an error.
func Load(path string, log *slog.Logger) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read url file: %w", err)
	}

	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse url file %s: %w", path, err)
	}
	if len(doc.URLs) == 0 {
		return nil, fmt.Errorf("url file %s has no urls entry", path)
	}

	urls := make([]string, 0, len(doc.URLs))
	for _, e := range doc.URLs {
		if e.URL == "" {
			log.Warn("skipping empty url entry", "file", path)
			continue
		}
		if !strings.Contains(e.URL, "instagram.com") {
			log.Warn("skipping non-instagram url", "url", e.URL)
			continue
		}
		urls = append(urls, e.URL)
	}
	return urls, nil
}
