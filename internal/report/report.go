// Package report turns the result of a find query into a Markdown document and
// renders it as HTML (goldmark) or for the terminal (glamour).
package report

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/CageChen/pathquery/internal/pathquery"
)

// Query describes the find query a report was produced from.
type Query struct {
	Root     string `json:"root"`
	Suffix   string `json:"suffix"`
	Ancestor string `json:"ancestor,omitempty"`
}

// Title is the report heading for q.
func (q Query) Title() string {
	title := fmt.Sprintf("Entries ending in %q under %s", q.Suffix, q.Root)
	if q.Ancestor != "" {
		title += fmt.Sprintf(" inside %q", q.Ancestor)
	}
	return title
}

// Build returns the Markdown report for files, grouped by parent directory.
// Groups are sorted; entries keep their order within a group.
func Build(q Query, files []string) string {
	groups := make(map[string][]string)
	var dirs []string
	for _, f := range files {
		dir := filepath.Dir(f)
		if _, seen := groups[dir]; !seen {
			dirs = append(dirs, dir)
		}
		groups[dir] = append(groups[dir], filepath.Base(f))
	}
	sort.Strings(dirs)

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", q.Title())
	fmt.Fprintf(&b, "**%d** %s in **%d** %s.\n\n",
		len(files), plural(len(files), "match", "matches"),
		len(dirs), plural(len(dirs), "directory", "directories"))

	for _, dir := range dirs {
		fmt.Fprintf(&b, "## %s\n\n", dir)
		if q.Ancestor != "" {
			b.WriteString("| Name | Ancestor |\n|---|---|\n")
		} else {
			b.WriteString("| Name |\n|---|\n")
		}
		for _, name := range groups[dir] {
			if q.Ancestor != "" {
				ancestor, _ := pathquery.GetAncestor(filepath.Join(dir, name), q.Ancestor)
				fmt.Fprintf(&b, "| %s | %s |\n", cell(name), cell(ancestor))
			} else {
				fmt.Fprintf(&b, "| %s |\n", cell(name))
			}
		}
		b.WriteString("\n")
	}

	data, _ := json.MarshalIndent(q, "", "  ")
	fmt.Fprintf(&b, "## Query\n\n```json\n%s\n```\n", data)

	return b.String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// cell escapes a value for a GFM table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return "`" + strings.ReplaceAll(s, "`", "'") + "`"
}
