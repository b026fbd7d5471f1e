package core

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/kilupskalvis/gitnotify/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==================== Header Tests ====================

func TestParsePatch_Header(t *testing.T) {
	p, err := ParsePatch(samplePatch)
	require.NoError(t, err)

	h := p.Header
	assert.Equal(t, "3f2a9c1d8e7b6a5f4e3d2c1b0a9f8e7d6c5b4a39 Mon Sep 17 00:00:00 2001", h.Intro)
	assert.Equal(t, "3f2a9c1d8e7b6a5f4e3d2c1b0a9f8e7d6c5b4a39", h.SHA())
	assert.Equal(t, "Jane Doe <jane@example.com>", h.From)
	assert.Equal(t, "Tue, 3 Jan 2023 10:00:00 +0100", h.Date)
	assert.Equal(t, "Fix parser handling of <tags> & entities", h.Title)
	assert.Equal(t, "Longer description with <b>markup</b> & ampersands.\n\nSecond paragraph.\n", h.Log)
	assert.Equal(t, " README.md   | 3 ++-\n src/main.go | 2 +-\n 2 files changed, 3 insertions(+), 2 deletions(-)\n", h.Stat)

	fields := h.Fields()
	for _, key := range []string{"intro", "from", "date", "title", "log", "stat"} {
		assert.Contains(t, fields, key)
	}
}

func TestParsePatch_SHAIsTokenBeforeFirstSpace(t *testing.T) {
	for _, sha := range []string{"abc", "0123456789abcdef0123456789abcdef01234567"} {
		p, err := ParsePatch(makePatch(sha, "title"))
		require.NoError(t, err)
		assert.Equal(t, sha, p.Header.SHA())
	}
}

func TestParsePatch_WrappedSubject(t *testing.T) {
	raw := strings.Replace(makePatch("abc", "A very long subject that"),
		"Subject: [PATCH] A very long subject that\n",
		"Subject: [PATCH] A very long subject that\n wraps onto a second line\n", 1)

	p, err := ParsePatch(raw)
	require.NoError(t, err)
	assert.Equal(t, "A very long subject that wraps onto a second line", p.Header.Title)
	assert.NotContains(t, p.Header.Title, "\n")
}

func TestParsePatch_NumberedPatchTag(t *testing.T) {
	raw := strings.Replace(makePatch("abc", "x"), "Subject: [PATCH] x", "Subject: [PATCH 2/5] Second part", 1)

	p, err := ParsePatch(raw)
	require.NoError(t, err)
	assert.Equal(t, "Second part", p.Header.Title)
}

func TestParsePatch_EncodedSubjectAndMIMEHeaders(t *testing.T) {
	raw := strings.Replace(makePatch("abc", "x"),
		"Subject: [PATCH] x\n",
		"Subject: [PATCH] =?UTF-8?q?Caf=C3=A9=20fix?=\nMIME-Version: 1.0\nContent-Type: text/plain; charset=UTF-8\nContent-Transfer-Encoding: 8bit\n", 1)
	raw = strings.Replace(raw, "From: Jane Doe", "From: =?UTF-8?q?Ren=C3=A9?= Doe", 1)

	p, err := ParsePatch(raw)
	require.NoError(t, err)
	assert.Equal(t, "Café fix", p.Header.Title)
	assert.Equal(t, "René Doe <jane@example.com>", p.Header.From)
}

func TestParsePatch_EmptyLog(t *testing.T) {
	p, err := ParsePatch(makePatch("abc", "no body"))
	require.NoError(t, err)
	assert.Equal(t, "", p.Header.Log)
	assert.Contains(t, p.Header.Stat, "file.txt | 2 +-")
}

func TestParsePatch_MissingHeaderLines(t *testing.T) {
	tests := []struct {
		name    string
		mangle  string
		replace string
		line    int
	}{
		{"intro", "From abc Mon", "Frm abc Mon", 0},
		{"from", "From: Jane", "Author: Jane", 1},
		{"date", "Date: Tue", "When: Tue", 2},
		{"subject", "Subject: [PATCH]", "Title: [PATCH]", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := strings.Replace(makePatch("abc", "x"), tt.mangle, tt.replace, 1)

			_, err := ParsePatch(raw)
			var perr *MalformedPatchError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.line, perr.Line)
		})
	}
}

func TestParsePatch_TruncatedHeader(t *testing.T) {
	_, err := ParsePatch("From abc Mon Sep 17 00:00:00 2001\nFrom: Jane <j@x>\n")
	var perr *MalformedPatchError
	assert.ErrorAs(t, err, &perr)
}

func TestParsePatch_NoSummaryLine(t *testing.T) {
	raw := "From abc Mon Sep 17 00:00:00 2001\n" +
		"From: Jane Doe <jane@example.com>\n" +
		"Date: Tue, 3 Jan 2023 10:00:00 +0100\n" +
		"Subject: [PATCH] No stat\n" +
		"\n" +
		"Just a log message.\n" +
		"And nothing else.\n"

	_, err := ParsePatch(raw)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoSummary))

	var perr *MalformedPatchError
	assert.ErrorAs(t, err, &perr)
}

func TestParsePatch_InstancesDoNotShareState(t *testing.T) {
	first, err := ParsePatch(makePatch("aaa", "first"))
	require.NoError(t, err)
	second, err := ParsePatch(samplePatch)
	require.NoError(t, err)

	assert.Equal(t, "first", first.Header.Title)
	assert.Equal(t, "", first.Header.Log)
	assert.Len(t, first.Diff, 1)
	assert.Len(t, second.Diff, 2)
}

// ==================== Diff Tests ====================

func TestParsePatch_Diff(t *testing.T) {
	p, err := ParsePatch(samplePatch)
	require.NoError(t, err)
	require.Len(t, p.Diff, 2)

	readme := p.Diff[0]
	assert.Equal(t, "README.md", readme.Path)
	assert.False(t, readme.IsBinary)
	require.Len(t, readme.Hunks, 1)
	assert.Equal(t, []models.DiffLine{
		{Value: "# Title", Type: models.LineContext, SourceLineNo: 1, TargetLineNo: 1},
		{Value: "old line", Type: models.LineRemoved, SourceLineNo: 2},
		{Value: "new line", Type: models.LineAdded, TargetLineNo: 2},
		{Value: "another line", Type: models.LineAdded, TargetLineNo: 3},
	}, readme.Hunks[0].Lines)

	main := p.Diff[1]
	assert.Equal(t, "src/main.go", main.Path)
	require.Len(t, main.Hunks, 1)
	assert.Equal(t, "@@ -10,3 +10,3 @@ func main() {", main.Hunks[0].Header)
	lines := main.Hunks[0].Lines
	require.Len(t, lines, 4)
	assert.Equal(t, "\ta := 1", lines[0].Value)
	assert.Equal(t, 10, lines[0].SourceLineNo)
	assert.Equal(t, 11, lines[1].SourceLineNo)
	assert.Equal(t, 11, lines[2].TargetLineNo)
	assert.Equal(t, 12, lines[3].TargetLineNo)

	assert.Equal(t, 3, p.Added())
	assert.Equal(t, 2, p.Removed())
}

func TestParsePatch_PreservesFileOrder(t *testing.T) {
	p, err := ParsePatch(wrapDiff(makeDiff(5)))
	require.NoError(t, err)
	require.Len(t, p.Diff, 5)
	for i, f := range p.Diff {
		assert.Equal(t, fmt.Sprintf("dir/file%02d.txt", i), f.Path)
	}
}

func TestParsePatch_BinaryFile(t *testing.T) {
	diff := "diff --git a/img.png b/img.png\n" +
		"new file mode 100644\n" +
		"index 0000000..1234567\n" +
		"Binary files /dev/null and b/img.png differ\n"

	p, err := ParsePatch(wrapDiff(diff))
	require.NoError(t, err)
	require.Len(t, p.Diff, 1)

	f := p.Diff[0]
	assert.Equal(t, "img.png", f.Path)
	assert.True(t, f.IsBinary)
	assert.True(t, f.IsNew)
	assert.Empty(t, f.Hunks)
}

func TestParsePatch_BinaryFileWithNames(t *testing.T) {
	diff := "diff --git a/img.png b/img.png\n" +
		"index 1111111..2222222 100644\n" +
		"Binary files a/img.png and b/img.png differ\n"

	p, err := ParsePatch(wrapDiff(diff))
	require.NoError(t, err)
	require.Len(t, p.Diff, 1)

	f := p.Diff[0]
	assert.Equal(t, "img.png", f.Path)
	assert.True(t, f.IsBinary)
	assert.False(t, f.IsNew)
	assert.Empty(t, f.Hunks)

	assert.Contains(t, FormatDiff(p.Diff), "(binary file)")
}

func TestParsePatch_DeletedFileUsesOldPath(t *testing.T) {
	diff := "diff --git a/gone.txt b/gone.txt\n" +
		"deleted file mode 100644\n" +
		"index 1111111..0000000\n" +
		"--- a/gone.txt\n" +
		"+++ /dev/null\n" +
		"@@ -1,2 +0,0 @@\n" +
		"-one\n" +
		"-two\n"

	p, err := ParsePatch(wrapDiff(diff))
	require.NoError(t, err)
	require.Len(t, p.Diff, 1)
	assert.Equal(t, "gone.txt", p.Diff[0].Path)
	assert.True(t, p.Diff[0].IsDelete)
	assert.Equal(t, 1, p.Diff[0].Hunks[0].Lines[0].SourceLineNo)
	assert.Equal(t, 2, p.Diff[0].Hunks[0].Lines[1].SourceLineNo)
}

func TestParsePatch_NoNewlineAtEOF(t *testing.T) {
	diff := "diff --git a/f.txt b/f.txt\n" +
		"index 1111111..2222222 100644\n" +
		"--- a/f.txt\n" +
		"+++ b/f.txt\n" +
		"@@ -1 +1 @@\n" +
		"-old\n" +
		"\\ No newline at end of file\n" +
		"+new\n" +
		"\\ No newline at end of file\n"

	p, err := ParsePatch(wrapDiff(diff))
	require.NoError(t, err)

	lines := p.Diff[0].Hunks[0].Lines
	require.Len(t, lines, 4)
	assert.Equal(t, models.LineRemoved, lines[0].Type)
	assert.Equal(t, "old", lines[0].Value)
	assert.Equal(t, models.LineNoNewline, lines[1].Type)
	assert.Equal(t, 0, lines[1].SourceLineNo)
	assert.Equal(t, models.LineAdded, lines[2].Type)
	assert.Equal(t, models.LineNoNewline, lines[3].Type)
}

func TestParsePatch_MalformedDiff(t *testing.T) {
	diff := "diff --git a/f.txt b/f.txt\n" +
		"index 1111111..2222222 100644\n" +
		"--- a/f.txt\n" +
		"+++ b/f.txt\n" +
		"@@ -1,5 +1,5 @@\n" +
		" a\n" +
		"-b\n" +
		"+c\n"

	_, err := ParsePatch(wrapDiff(diff))
	var derr *MalformedDiffError
	assert.ErrorAs(t, err, &derr)
}

func TestParsePatch_SummaryWithoutDiff(t *testing.T) {
	_, err := ParsePatch(wrapDiff("-- \n2.39.0\n"))
	var derr *MalformedDiffError
	assert.ErrorAs(t, err, &derr)
}
