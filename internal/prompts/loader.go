// Package prompts holds the LLM prompt templates, embedded at compile time
// as one JSON file per stage mapping prompt keys to template text.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"strings"
	"sync"
)

//go:embed *.json
var files embed.FS

// load parses every embedded file exactly once. The files ship inside the
// binary, so a parse failure is a build defect and every Get reports it.
var load = sync.OnceValues(parseAll)

func parseAll() (map[string]map[string]string, error) {
	names, err := fs.Glob(files, "*.json")
	if err != nil {
		return nil, fmt.Errorf("listing prompt files: %w", err)
	}

	all := make(map[string]map[string]string, len(names))
	for _, name := range names {
		data, err := files.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("reading prompt file %s: %w", name, err)
		}
		var templates map[string]string
		if err := json.Unmarshal(data, &templates); err != nil {
			return nil, fmt.Errorf("parsing prompt file %s: %w", name, err)
		}
		all[name] = templates
	}
	return all, nil
}

// Get returns the template stored under key in the named embedded file.
func Get(filename, key string) (string, error) {
	all, err := load()
	if err != nil {
		return "", err
	}
	templates, ok := all[filename]
	if !ok {
		return "", fmt.Errorf("no prompt file %s", filename)
	}
	tmpl, ok := templates[key]
	if !ok {
		return "", fmt.Errorf("prompt file %s has no key %q", filename, key)
	}
	return tmpl, nil
}

// Format substitutes {{.Name}} placeholders with the given values. Plain
// string replacement; the templates carry no logic.
func Format(tmpl string, values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	for name, value := range values {
		pairs = append(pairs, "{{."+name+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
