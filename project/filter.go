package project

import (
	"slices"
	"strconv"
	"strings"

	trackpro "github.com/chimerakang/trackpro-go"
)

// Mode is a project field a search query can match.
type Mode string

const (
	ModeName     Mode = "project_name"
	ModeUsername Mode = "username"
	ModeStatus   Mode = "status"
	ModePrice    Mode = "price"
)

// Filter is a selectable search field with its display label.
type Filter struct {
	Label string
	Mode  Mode
}

// Available lists every filter in display order.
var Available = []Filter{
	{Label: "Project Name", Mode: ModeName},
	{Label: "Owner", Mode: ModeUsername},
	{Label: "Status", Mode: ModeStatus},
	{Label: "Price", Mode: ModePrice},
}

// Lookup returns the filter for a mode.
func Lookup(m Mode) (Filter, bool) {
	i := slices.IndexFunc(Available, func(f Filter) bool { return f.Mode == m })
	if i < 0 {
		return Filter{}, false
	}
	return Available[i], true
}

// Filters is the ordered set of enabled search fields. The zero value
// searches every field.
type Filters struct {
	enabled []Filter
}

// Add enables f. Adding an enabled mode is a no-op.
func (fs *Filters) Add(f Filter) {
	if fs.Has(f.Mode) {
		return
	}
	fs.enabled = append(fs.enabled, f)
}

// Remove disables every filter with f's mode.
func (fs *Filters) Remove(f Filter) {
	fs.enabled = slices.DeleteFunc(fs.enabled, func(e Filter) bool { return e.Mode == f.Mode })
}

// Has reports whether mode m is enabled.
func (fs *Filters) Has(m Mode) bool {
	return slices.ContainsFunc(fs.enabled, func(e Filter) bool { return e.Mode == m })
}

// Enabled returns the enabled filters in the order they were added.
func (fs *Filters) Enabled() []Filter {
	return slices.Clone(fs.enabled)
}

// Match reports whether p contains query, case-insensitively, in any enabled
// field. An empty query matches everything.
func (fs *Filters) Match(p trackpro.Project, query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	modes := make([]Mode, 0, len(Available))
	for _, f := range fs.enabled {
		modes = append(modes, f.Mode)
	}
	if len(modes) == 0 {
		for _, f := range Available {
			modes = append(modes, f.Mode)
		}
	}
	for _, m := range modes {
		if strings.Contains(strings.ToLower(field(p, m)), query) {
			return true
		}
	}
	return false
}

// Apply returns the projects matching query, preserving order.
func (fs *Filters) Apply(projects []trackpro.Project, query string) []trackpro.Project {
	out := make([]trackpro.Project, 0, len(projects))
	for _, p := range projects {
		if fs.Match(p, query) {
			out = append(out, p)
		}
	}
	return out
}

func field(p trackpro.Project, m Mode) string {
	switch m {
	case ModeName:
		return p.Name
	case ModeUsername:
		return p.Username
	case ModeStatus:
		return string(p.Status)
	case ModePrice:
		return strconv.FormatFloat(p.Price, 'f', -1, 64)
	}
	return ""
}
