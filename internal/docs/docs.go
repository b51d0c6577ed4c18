// Package docs embeds the user documentation printed by "qleany docs".
package docs

import (
	"embed"
	"errors"
	"fmt"
	"strings"
)

//go:embed topics/*.md
var topicFS embed.FS

// ErrUnknownTopic is returned for a topic that is not embedded.
var ErrUnknownTopic = errors.New("unknown documentation topic")

// Topic is one documentation page.
type Topic struct {
	Name  string
	Title string
}

// order is the reading order of the topics.
var order = []string{
	"manifest",
	"fields",
	"relationships",
	"features",
	"generation",
	"undo-redo",
	"configuration",
}

// Topics lists the embedded topics in reading order.
func Topics() []Topic {
	out := make([]Topic, 0, len(order))
	for _, name := range order {
		body, err := Get(name)
		if err != nil {
			continue
		}
		out = append(out, Topic{Name: name, Title: title(body)})
	}
	return out
}

// Get returns the markdown of topic name.
func Get(name string) (string, error) {
	data, err := topicFS.ReadFile("topics/" + name + ".md")
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownTopic, name)
	}
	return string(data), nil
}

// All concatenates every topic in reading order.
func All() string {
	var parts []string
	for _, t := range Topics() {
		body, _ := Get(t.Name)
		parts = append(parts, strings.TrimRight(body, "\n"))
	}
	return strings.Join(parts, "\n\n") + "\n"
}

func title(body string) string {
	first, _, _ := strings.Cut(body, "\n")
	return strings.TrimSpace(strings.TrimLeft(first, "#"))
}
