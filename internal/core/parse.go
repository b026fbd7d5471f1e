// Package core implements the patch email parser, the HTML renderer, and the
// notification cycle that feeds revisions through both.
package core

import (
	"fmt"
	"mime"
	"regexp"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
	"github.com/kilupskalvis/gitnotify/internal/models"
)

const (
	introPrefix   = "From "
	fromPrefix    = "From: "
	datePrefix    = "Date: "
	subjectPrefix = "Subject: "
	summaryMarker = "---"

	noNewlineText = " No newline at end of file"
)

// patchTag matches the "[PATCH]" style tag git puts in front of the subject,
// including numbered and prefixed variants such as "[RFC PATCH v2 1/3]".
var patchTag = regexp.MustCompile(`^\[[^\]]*PATCH[^\]]*\]\s?`)

// extraHeader matches header lines git may emit after Subject, such as
// MIME-Version and Content-Type for non-ASCII patches.
var extraHeader = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9-]*: `)

// lineKind classifies a raw header line.
type lineKind int

const (
	lineOther lineKind = iota
	lineBlank
	lineIntro
	lineFrom
	lineDate
	lineSubject
)

func classifyLine(line string) lineKind {
	switch {
	case line == "":
		return lineBlank
	case strings.HasPrefix(line, fromPrefix):
		return lineFrom
	case strings.HasPrefix(line, introPrefix):
		return lineIntro
	case strings.HasPrefix(line, datePrefix):
		return lineDate
	case strings.HasPrefix(line, subjectPrefix):
		return lineSubject
	}
	return lineOther
}

// headerState is the position of the header state machine.
type headerState int

const (
	expectIntro headerState = iota
	expectFrom
	expectDate
	expectSubject
	inSubject
)

var expected = map[headerState]struct {
	kind   lineKind
	prefix string
}{
	expectIntro:   {lineIntro, introPrefix},
	expectFrom:    {lineFrom, fromPrefix},
	expectDate:    {lineDate, datePrefix},
	expectSubject: {lineSubject, subjectPrefix},
}

// bucket is the body section currently being accumulated.
type bucket int

const (
	bucketLog bucket = iota
	bucketStat
	bucketDiff
)

// ParsePatch splits a raw mbox-style patch into header fields and a parsed diff.
func ParsePatch(raw string) (*models.ParsedPatch, error) {
	lines := strings.Split(raw, "\n")

	header, next, err := parseHeader(lines)
	if err != nil {
		return nil, err
	}

	diffText, err := splitBody(&header, lines, next)
	if err != nil {
		return nil, err
	}

	files, err := parseDiff(diffText)
	if err != nil {
		return nil, err
	}

	if len(files) == 0 && strings.Contains(header.Stat, " | ") {
		return nil, &MalformedDiffError{Err: fmt.Errorf("summary lists changed files but the diff has none")}
	}

	return &models.ParsedPatch{Header: header, Diff: files}, nil
}

// parseHeader consumes the fixed header block and returns the index of the
// first body line.
func parseHeader(lines []string) (models.Header, int, error) {
	var h models.Header
	var title strings.Builder

	state := expectIntro
	for i, raw := range lines {
		line := strings.TrimSuffix(raw, "\r")
		kind := classifyLine(line)

		if state == inSubject {
			switch {
			case kind == lineBlank:
				h.Title = decodeHeader(title.String())
				return h, i + 1, nil
			case extraHeader.MatchString(line):
				// MIME headers following Subject are not part of the title
			default:
				title.WriteString(line)
			}
			continue
		}

		want := expected[state]
		if kind != want.kind {
			return h, 0, &MalformedPatchError{Line: i, Reason: fmt.Sprintf("expected %q line, got %q", want.prefix, line)}
		}
		value := strings.TrimPrefix(line, want.prefix)

		switch state {
		case expectIntro:
			h.Intro = value
		case expectFrom:
			h.From = decodeHeader(value)
		case expectDate:
			h.Date = value
		case expectSubject:
			title.WriteString(patchTag.ReplaceAllString(value, ""))
			state = inSubject
			continue
		}
		state++
	}

	return h, 0, &MalformedPatchError{Line: -1, Reason: "patch ends inside the header block"}
}

// splitBody sorts the lines after the header into the log, stat and diff
// sections and returns the diff text.
func splitBody(h *models.Header, lines []string, start int) (string, error) {
	var log, stat strings.Builder

	state := bucketLog
	for i := start; i < len(lines); i++ {
		line := strings.TrimSuffix(lines[i], "\r")

		switch state {
		case bucketLog:
			if strings.HasPrefix(line, summaryMarker) {
				state = bucketStat
				continue
			}
			log.WriteString(line)
			log.WriteByte('\n')
		case bucketStat:
			if line == "" {
				h.Log = log.String()
				h.Stat = stat.String()
				return strings.Join(lines[i+1:], "\n"), nil
			}
			stat.WriteString(line)
			stat.WriteByte('\n')
		}
	}

	if state == bucketLog {
		return "", &MalformedPatchError{Line: -1, Err: ErrNoSummary}
	}

	h.Log = log.String()
	h.Stat = stat.String()
	return "", nil
}

// decodeHeader decodes RFC 2047 encoded words, returning the input
// unchanged if it cannot be decoded.
func decodeHeader(s string) string {
	dec := new(mime.WordDecoder)
	out, err := dec.DecodeHeader(s)
	if err != nil {
		return s
	}
	return out
}

func parseDiff(text string) ([]*models.FileChange, error) {
	files, _, err := gitdiff.Parse(strings.NewReader(text))
	if err != nil {
		return nil, &MalformedDiffError{Err: err}
	}

	changes := make([]*models.FileChange, 0, len(files))
	for _, f := range files {
		changes = append(changes, convertFile(f))
	}
	return changes, nil
}

func convertFile(f *gitdiff.File) *models.FileChange {
	fc := &models.FileChange{
		Path:     f.NewName,
		OldPath:  f.OldName,
		IsBinary: f.IsBinary,
		IsNew:    f.IsNew,
		IsDelete: f.IsDelete,
		IsRename: f.IsRename,
		Hunks:    []models.Hunk{},
	}
	if f.IsDelete || fc.Path == "" {
		fc.Path = f.OldName
	}

	if fc.IsBinary {
		return fc
	}

	for _, frag := range f.TextFragments {
		fc.Hunks = append(fc.Hunks, convertFragment(frag))
	}
	return fc
}

func convertFragment(frag *gitdiff.TextFragment) models.Hunk {
	hunk := models.Hunk{
		Header: fmt.Sprintf("@@ -%d,%d +%d,%d @@", frag.OldPosition, frag.OldLines, frag.NewPosition, frag.NewLines),
		Lines:  make([]models.DiffLine, 0, len(frag.Lines)),
	}
	if frag.Comment != "" {
		hunk.Header += " " + frag.Comment
	}

	src, tgt := int(frag.OldPosition), int(frag.NewPosition)
	for _, l := range frag.Lines {
		line := models.DiffLine{Value: strings.TrimSuffix(l.Line, "\n")}

		switch l.Op {
		case gitdiff.OpAdd:
			line.Type = models.LineAdded
			line.TargetLineNo = tgt
			tgt++
		case gitdiff.OpDelete:
			line.Type = models.LineRemoved
			line.SourceLineNo = src
			src++
		default:
			line.Type = models.LineContext
			if line.Value == "" {
				line.Type = models.LineEmpty
			}
			line.SourceLineNo = src
			line.TargetLineNo = tgt
			src++
			tgt++
		}

		hunk.Lines = append(hunk.Lines, line)
		if !strings.HasSuffix(l.Line, "\n") {
			hunk.Lines = append(hunk.Lines, models.DiffLine{Value: noNewlineText, Type: models.LineNoNewline})
		}
	}
	return hunk
}
