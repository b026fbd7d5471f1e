package models

import "strings"

// LineType classifies a single line of a diff hunk.
type LineType int

const (
	LineContext LineType = iota
	LineAdded
	LineRemoved
	LineEmpty
	LineNoNewline
)

// Indicator returns the marker character used for the line in unified diff output.
func (t LineType) Indicator() string {
	switch t {
	case LineAdded:
		return "+"
	case LineRemoved:
		return "-"
	case LineNoNewline:
		return "\\"
	case LineEmpty:
		return ""
	default:
		return " "
	}
}

// ClassName returns the CSS class suffix used when rendering the line.
func (t LineType) ClassName() string {
	switch t {
	case LineAdded:
		return "plus"
	case LineRemoved:
		return "minus"
	case LineNoNewline:
		return "nonl"
	default:
		return "none"
	}
}

func (t LineType) String() string {
	switch t {
	case LineAdded:
		return "added"
	case LineRemoved:
		return "removed"
	case LineEmpty:
		return "empty"
	case LineNoNewline:
		return "no-newline"
	default:
		return "context"
	}
}

// DiffLine is one line of a hunk. Line numbers are 1-based; zero means the
// line has no position on that side.
type DiffLine struct {
	Value        string   `json:"value"`
	Type         LineType `json:"type"`
	SourceLineNo int      `json:"source_line_no,omitempty"`
	TargetLineNo int      `json:"target_line_no,omitempty"`
}

// Hunk is a contiguous block of changed lines within a file.
type Hunk struct {
	Header string     `json:"header,omitempty"`
	Lines  []DiffLine `json:"lines"`
}

// FileChange describes the changes made to a single file.
type FileChange struct {
	Path     string `json:"path"`
	OldPath  string `json:"old_path,omitempty"`
	IsBinary bool   `json:"is_binary"`
	IsNew    bool   `json:"is_new,omitempty"`
	IsDelete bool   `json:"is_delete,omitempty"`
	IsRename bool   `json:"is_rename,omitempty"`
	Hunks    []Hunk `json:"hunks"`
}

// Header holds the fields extracted from the patch email header block.
type Header struct {
	Intro string `json:"intro"`
	From  string `json:"from"`
	Date  string `json:"date"`
	Title string `json:"title"`
	Log   string `json:"log"`
	Stat  string `json:"stat"`
}

// SHA returns the commit hash, which is the first token of the intro line.
func (h Header) SHA() string {
	sha, _, _ := strings.Cut(h.Intro, " ")
	return sha
}

// Fields returns the header as a name to value mapping.
func (h Header) Fields() map[string]string {
	return map[string]string{
		"intro": h.Intro,
		"from":  h.From,
		"date":  h.Date,
		"title": h.Title,
		"log":   h.Log,
		"stat":  h.Stat,
	}
}

// ParsedPatch is a patch email split into its header fields and parsed diff.
type ParsedPatch struct {
	Header Header        `json:"header"`
	Diff   []*FileChange `json:"diff"`
}

// Added returns the number of added lines across all files.
func (p *ParsedPatch) Added() int {
	return p.count(LineAdded)
}

// Removed returns the number of removed lines across all files.
func (p *ParsedPatch) Removed() int {
	return p.count(LineRemoved)
}

func (p *ParsedPatch) count(t LineType) int {
	n := 0
	for _, f := range p.Diff {
		for _, h := range f.Hunks {
			for _, l := range h.Lines {
				if l.Type == t {
					n++
				}
			}
		}
	}
	return n
}
