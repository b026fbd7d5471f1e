package core

import (
	"fmt"
	"strings"
)

const samplePatch = `From 3f2a9c1d8e7b6a5f4e3d2c1b0a9f8e7d6c5b4a39 Mon Sep 17 00:00:00 2001
From: Jane Doe <jane@example.com>
Date: Tue, 3 Jan 2023 10:00:00 +0100
Subject: [PATCH] Fix parser handling of <tags> & entities

Longer description with <b>markup</b> & ampersands.

Second paragraph.
---
 README.md   | 3 ++-
 src/main.go | 2 +-
 2 files changed, 3 insertions(+), 2 deletions(-)

diff --git a/README.md b/README.md
index 1111111..2222222 100644
--- a/README.md
+++ b/README.md
@@ -1,2 +1,3 @@
 # Title
-old line
+new line
+another line
diff --git a/src/main.go b/src/main.go
index 3333333..4444444 100644
--- a/src/main.go
+++ b/src/main.go
@@ -10,3 +10,3 @@ func main() {
 	a := 1
-	b := 2
+	b := 3
 	c := 4
--
2.39.0

`

const sampleTemplate = `<html><body>
<h1>[$repo/$branch] $title</h1>
<p>$sha8 by $from on $date</p>
<div class="log">$log</div>
<div class="stat">$stat</div>
$diff
</body></html>
`

// makePatch builds a minimal single-file patch for the given commit.
func makePatch(sha, title string) string {
	return fmt.Sprintf(`From %s Mon Sep 17 00:00:00 2001
From: Jane Doe <jane@example.com>
Date: Tue, 3 Jan 2023 10:00:00 +0100
Subject: [PATCH] %s

---
 file.txt | 2 +-
 1 file changed, 1 insertion(+), 1 deletion(-)

diff --git a/file.txt b/file.txt
index 1111111..2222222 100644
--- a/file.txt
+++ b/file.txt
@@ -1 +1 @@
-before %s
+after %s
--
2.39.0
`, sha, title, sha, sha)
}

// makeDiff builds a diff body touching n files with one hunk each.
func makeDiff(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("dir/file%02d.txt", i)
		fmt.Fprintf(&b, "diff --git a/%s b/%s\n", name, name)
		fmt.Fprintf(&b, "index 1111111..2222222 100644\n--- a/%s\n+++ b/%s\n", name, name)
		b.WriteString("@@ -1 +1 @@\n-old\n+new\n")
	}
	return b.String()
}

// wrapDiff puts a diff body behind a valid header block.
func wrapDiff(diff string) string {
	return "From abc123 Mon Sep 17 00:00:00 2001\n" +
		"From: Jane Doe <jane@example.com>\n" +
		"Date: Tue, 3 Jan 2023 10:00:00 +0100\n" +
		"Subject: [PATCH] Generated change\n" +
		"\n" +
		"---\n" +
		" generated | 1 +\n" +
		"\n" +
		diff
}
