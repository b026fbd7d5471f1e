package core

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/kilupskalvis/gitnotify/internal/models"
)

// Output size limits. Exceeding one truncates the rendered diff and adds a
// notice; it is never an error.
const (
	// MaxHunkMarkup is the markup length after which a hunk stops emitting rows.
	MaxHunkMarkup = 10000
	// MaxHunksPerFile is the number of hunks rendered per file.
	MaxHunksPerFile = 10
	// MaxFiles is the number of files rendered per patch.
	MaxFiles = 20
)

const (
	ellipsisRow      = "<tr><td>...</td><td></td><td></td><td></td></tr>\n"
	tooManyHunks     = "<div>... (too many hunks.)</div>\n"
	tooManyFiles     = "<div>... (too many files.)</div>\n"
	binaryMarker     = "    <div class=\"gn-binary\">(binary file)</div>\n"
	branchRefPrefix  = "refs/heads/"
	spaceMarker      = "&#xB7;"
	tabMarker        = "&rarr;"
	whitespaceCutset = " \t"
)

var shaPrefixLengths = []int{4, 6, 8, 10, 12, 14, 16}

// RenderContext names the repository and ref a patch belongs to.
type RenderContext struct {
	RepoName string
	RefName  string
}

// Rendered is the output of Render.
type Rendered struct {
	Title  string // HTML-escaped commit title
	Author string // raw From header, usable as a reply-to address
	HTML   string
}

// Render formats a parsed patch and substitutes it into the template.
func Render(p *models.ParsedPatch, tmpl string, rc RenderContext) (*Rendered, error) {
	vars := Variables(p, rc)

	out, err := Substitute(tmpl, vars)
	if err != nil {
		return nil, err
	}

	return &Rendered{
		Title:  vars["title"],
		Author: p.Header.From,
		HTML:   out,
	}, nil
}

// Variables computes the escaped template variables for a patch.
func Variables(p *models.ParsedPatch, rc RenderContext) map[string]string {
	esc := html.EscapeString
	sha := p.Header.SHA()

	vars := map[string]string{
		"sha":    esc(sha),
		"title":  esc(p.Header.Title),
		"from":   esc(p.Header.From),
		"date":   esc(p.Header.Date),
		"log":    strings.ReplaceAll(esc(p.Header.Log), "\n", "<br>"),
		"stat":   strings.ReplaceAll(FormatStat(p.Header.Stat), "\n", "<br>"),
		"repo":   esc(rc.RepoName),
		"branch": esc(strings.TrimPrefix(rc.RefName, branchRefPrefix)),
		"diff":   FormatDiff(p.Diff),
	}
	for _, n := range shaPrefixLengths {
		vars["sha"+strconv.Itoa(n)] = esc(truncate(sha, n))
	}
	return vars
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// FormatStat renders the "---" summary block as a table of changed files
// followed by the trailing summary lines.
func FormatStat(stat string) string {
	var b strings.Builder
	b.WriteString(`<table class="gn-statfile">`)

	lines := strings.Split(strings.TrimSuffix(stat, "\n"), "\n")
	i := 0
	for ; i < len(lines); i++ {
		path, mod, ok := strings.Cut(lines[i], " | ")
		if !ok {
			break
		}
		writeStatRow(&b, i, strings.TrimSpace(path), mod)
	}

	b.WriteString("</table>")
	b.WriteString(html.EscapeString(strings.Join(lines[i:], "\n")))
	return b.String()
}

func writeStatRow(b *strings.Builder, fileno int, path, mod string) {
	fields := strings.Fields(mod)
	count, marks := "", ""
	if len(fields) > 0 {
		count = fields[0]
		marks = strings.Join(fields[1:], " ")
	}

	fmt.Fprintf(b, `<tr><td><a href="#f%d">%s</a></td><td> %s</td><td>`, fileno, html.EscapeString(path), html.EscapeString(count))
	if count == "Bin" {
		// binary files report sizes instead of marks
		b.WriteString(html.EscapeString(marks))
	} else {
		b.WriteString(`<span class="gn-statadd">`)
		b.WriteString(strings.Repeat("+", strings.Count(marks, "+")))
		b.WriteString(`</span><span class="gn-statrm">`)
		b.WriteString(strings.Repeat("-", strings.Count(marks, "-")))
		b.WriteString(`</span>`)
	}
	b.WriteString("</td></tr>")
}

// FormatDiff renders every file of the diff, up to MaxFiles.
func FormatDiff(files []*models.FileChange) string {
	var b strings.Builder
	b.WriteString("<div class=\"gn-diff\">\n")
	for i, f := range files {
		if i >= MaxFiles {
			b.WriteString(tooManyFiles)
			break
		}
		b.WriteString(formatFile(f, i))
	}
	b.WriteString("</div>\n")
	return b.String()
}

func formatFile(f *models.FileChange, fileno int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  <div class=\"gn-filediff\"><a id=\"f%d\"></a>\n", fileno)
	fmt.Fprintf(&b, "    <div class=\"gn-filename\">%s</div>\n", html.EscapeString(f.Path))

	if f.IsBinary {
		b.WriteString(binaryMarker)
	} else {
		for i, h := range f.Hunks {
			if i >= MaxHunksPerFile {
				b.WriteString(tooManyHunks)
				break
			}
			b.WriteString(formatHunk(h))
		}
	}

	b.WriteString("  </div>\n")
	return b.String()
}

func formatHunk(h models.Hunk) string {
	var b strings.Builder
	b.WriteString("    <table class=\"gn-hunk\">\n")
	for _, l := range h.Lines {
		if b.Len() > MaxHunkMarkup {
			b.WriteString(ellipsisRow)
			break
		}
		b.WriteString(formatLine(l))
	}
	b.WriteString("    </table>\n")
	return b.String()
}

func formatLine(l models.DiffLine) string {
	return fmt.Sprintf("    <tr class=\"gn-line\">\n"+
		"      <td class=\"gn-slineno\">%s</td><td class=\"gn-tlineno\">%s</td>"+
		"<td class=\"gn-linetype\">%s</td><td class=\"gn-linestr gn-line%s\">%s</td>\n"+
		"    </tr>\n",
		lineNo(l.SourceLineNo),
		lineNo(l.TargetLineNo),
		html.EscapeString(l.Type.Indicator()),
		l.Type.ClassName(),
		MarkWhitespace(html.EscapeString(l.Value)))
}

func lineNo(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}

// MarkWhitespace makes leading and trailing runs of spaces and tabs visible.
// Interior whitespace is left alone.
func MarkWhitespace(s string) string {
	rest := strings.TrimLeft(s, whitespaceCutset)
	lead := s[:len(s)-len(rest)]
	body := strings.TrimRight(rest, whitespaceCutset)
	trail := rest[len(body):]

	if lead == "" && trail == "" {
		return s
	}

	var b strings.Builder
	if lead != "" {
		writeWhitespaceSpan(&b, lead)
	}
	b.WriteString(body)
	if trail != "" {
		writeWhitespaceSpan(&b, trail)
	}
	return b.String()
}

func writeWhitespaceSpan(b *strings.Builder, run string) {
	b.WriteString(`<span class="gn-sp">`)
	for _, c := range run {
		if c == '\t' {
			b.WriteString(tabMarker)
		} else {
			b.WriteString(spaceMarker)
		}
	}
	b.WriteString(`</span>`)
}
