// Package docs holds the help topics of cfl, one embedded markdown file per topic.
package docs

import (
	"embed"
	"fmt"
	"io/fs"
	"slices"
	"strings"
)

//go:embed *.md
var files embed.FS

// Index is the topic listing all the others.
const Index = "readme"

// All stands for every topic but the index.
const All = "*"

// Names returns the topics in alphabetical order, the index excluded.
func Names() []string {
	matches, _ := fs.Glob(files, "*.md") // the pattern is valid
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		if name := strings.TrimSuffix(m, ".md"); name != Index {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// Get returns the markdown of the named topics, in order, separated by a blank line.
func Get(names ...string) (string, error) {
	var b strings.Builder
	for _, name := range names {
		if name == All {
			all, _ := Get(Names()...)
			b.WriteString(all)
			continue
		}
		content, err := files.ReadFile(name + ".md")
		if err != nil || strings.ContainsAny(name, `/\`) {
			return "", fmt.Errorf("unknown topic %q, 'cfl topic' lists them", name)
		}
		b.Write(content)
		b.WriteString("\n")
	}
	return b.String(), nil
}
