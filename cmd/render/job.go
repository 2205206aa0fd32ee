package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"mars_poster/internal/app"
	"mars_poster/internal/domain"
	"mars_poster/internal/upload"
)

// jobFile is one listing to render. JSON is valid YAML, so both parse here.
type jobFile struct {
	LayoutID domain.LayoutID      `yaml:"layout_id"`
	Scale    float64              `yaml:"scale"`
	Image    string               `yaml:"image"`
	Defaults bool                 `yaml:"defaults"`
	Fields   map[string]yaml.Node `yaml:"fields"`
}

type job struct {
	path   string
	layout domain.LayoutID
	scale  float64
	record domain.ListingRecord
	image  *domain.UploadedImage
}

// loadJob parses path; image paths are relative to the job file.
func loadJob(path string, dec *upload.Decoder) (job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return job{}, err
	}
	var f jobFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return job{}, fmt.Errorf("%s: %w", path, err)
	}
	if f.LayoutID == 0 {
		f.LayoutID = 1
	}
	base := domain.ListingRecord{}
	if f.Defaults {
		base = domain.DefaultListing()
	}
	fields := make(map[string]any, len(f.Fields))
	for k, n := range f.Fields {
		fields[k] = plain(&n)
	}
	rec, err := app.MapRecord(base, fields)
	if err != nil {
		return job{}, fmt.Errorf("%s: %w", path, err)
	}
	j := job{path: path, layout: f.LayoutID, scale: f.Scale, record: rec}

	if f.Image != "" {
		ip := f.Image
		if !filepath.IsAbs(ip) {
			ip = filepath.Join(filepath.Dir(path), ip)
		}
		fh, err := os.Open(ip)
		if err != nil {
			return job{}, fmt.Errorf("%s: image: %w", path, err)
		}
		defer fh.Close()
		if j.image, err = dec.Read(fh); err != nil {
			return job{}, fmt.Errorf("%s: image %s: %w", path, f.Image, err)
		}
	}
	return j, nil
}

// plain turns a node into strings, slices and maps. Scalars keep their
// source text, so 0123 stays "0123" rather than an octal number.
func plain(n *yaml.Node) any {
	switch n.Kind {
	case yaml.AliasNode:
		return plain(n.Alias)
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return nil
		}
		return n.Value
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			out = append(out, plain(c))
		}
		return out
	case yaml.MappingNode:
		out := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			out[n.Content[i].Value] = plain(n.Content[i+1])
		}
		return out
	}
	return nil
}

// names hands out output file names, suffixing repeats within one run.
type names struct {
	mu   sync.Mutex
	seen map[string]int
}

func (n *names) claim(name string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.seen == nil {
		n.seen = map[string]int{}
	}
	c := n.seen[name]
	n.seen[name] = c + 1
	if c == 0 {
		return name
	}
	stem := strings.TrimSuffix(name, ".png")
	return fmt.Sprintf("%s_%d.png", stem, c+1)
}
