package prompt

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/go-yaml/yaml"

	"pantry-scan/api/internal/vision/types"
)

//go:embed prompts.yaml
var defaultPrompts []byte

// Table holds the instruction text per request kind. Read-only after Load.
type Table struct {
	prompts map[types.Kind]string
}

// Load decodes the embedded defaults and, if path is set, overlays entries from that file.
func Load(path string) (*Table, error) {
	t := &Table{prompts: map[types.Kind]string{}}
	if err := t.merge(defaultPrompts); err != nil {
		return nil, fmt.Errorf("bad embedded prompts: %w", err)
	}
	if path = strings.TrimSpace(path); path == "" {
		return t, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts %s: %w", path, err)
	}
	if err := t.merge(b); err != nil {
		return nil, fmt.Errorf("bad prompts %s: %w", path, err)
	}
	return t, nil
}

func (t *Table) merge(raw []byte) error {
	var m map[string]string
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return err
	}
	for k, v := range m {
		kind, err := types.ParseKind(k)
		if err != nil {
			return err
		}
		if v = strings.TrimSpace(v); v != "" {
			t.prompts[kind] = v
		}
	}
	return nil
}

// Build returns the instruction for kind.
func (t *Table) Build(kind types.Kind) (string, error) {
	p, ok := t.prompts[kind]
	if !ok {
		return "", fmt.Errorf("no prompt for type %q", kind)
	}
	return p, nil
}
