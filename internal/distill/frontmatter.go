package distill

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// frontMatter is the YAML header written above a manually added
// instruction's text when it is persisted standalone (e.g. surfaced via
// get_project_instructions), matching the front-matter convention used
// for per-instruction provenance.
type frontMatter struct {
	Category  string `yaml:"category"`
	CreatedAt string `yaml:"created_at"`
}

// RenderInstructionWithFrontMatter renders a manual instruction as
// `---\n<yaml>\n---\n<text>`.
func RenderInstructionWithFrontMatter(category, createdAtRFC3339, text string) (string, error) {
	fm := frontMatter{Category: category, CreatedAt: createdAtRFC3339}
	data, err := yaml.Marshal(fm)
	if err != nil {
		return "", fmt.Errorf("distill: marshal front matter: %w", err)
	}
	var b strings.Builder
	b.WriteString("---\n")
	b.Write(data)
	b.WriteString("---\n")
	b.WriteString(text)
	b.WriteString("\n")
	return b.String(), nil
}

// ParseInstructionFrontMatter splits a `---\n<yaml>\n---\n<text>` document
// back into its category/created_at/text parts.
func ParseInstructionFrontMatter(doc string) (category, createdAt, text string, err error) {
	const delim = "---\n"
	if !strings.HasPrefix(doc, delim) {
		return "", "", doc, nil
	}
	rest := doc[len(delim):]
	end := strings.Index(rest, delim)
	if end == -1 {
		return "", "", doc, nil
	}
	var fm frontMatter
	if err := yaml.Unmarshal([]byte(rest[:end]), &fm); err != nil {
		return "", "", "", fmt.Errorf("distill: parse front matter: %w", err)
	}
	body := strings.TrimPrefix(rest[end+len(delim):], "\n")
	return fm.Category, fm.CreatedAt, strings.TrimSuffix(body, "\n"), nil
}
