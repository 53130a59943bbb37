package radio

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

//go:embed templates/intro_templates.json
var defaultTemplates []byte

// Template is one style exemplar for the intro prompt
type Template struct {
	Script string `json:"script"`
}

// Templates is the on-disk exemplar file
type Templates struct {
	IntroTemplates []Template `json:"intro_templates"`
}

// DefaultTemplates returns the built-in exemplars
func DefaultTemplates() Templates {
	t, err := parseTemplates(defaultTemplates)
	if err != nil {
		panic(fmt.Sprintf("embedded intro templates: %v", err))
	}
	return t
}

// LoadTemplates reads exemplars from path. A missing file yields the
// built-in set; an unreadable or empty one is an error.
func LoadTemplates(path string) (Templates, error) {
	if path == "" {
		return DefaultTemplates(), nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultTemplates(), nil
	}
	if err != nil {
		return Templates{}, fmt.Errorf("read templates: %w", err)
	}
	t, err := parseTemplates(data)
	if err != nil {
		return Templates{}, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

func parseTemplates(data []byte) (Templates, error) {
	var t Templates
	if err := json.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("decode templates: %w", err)
	}
	if len(t.IntroTemplates) == 0 {
		return t, errors.New("no intro templates")
	}
	return t, nil
}
