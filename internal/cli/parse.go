package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kilupskalvis/gitnotify/internal/core"
	"github.com/kilupskalvis/gitnotify/internal/models"
)

var parseCmd = &cobra.Command{
	Use:   "parse <patch-file>",
	Short: "Show what a patch file parses to",
	Long:  `Parse a patch in mbox format and print its header and a per-file summary.`,
	Args:  cobra.ExactArgs(1),
	Run:   runParse,
}

var parseHunks bool

func init() {
	parseCmd.Flags().BoolVar(&parseHunks, "hunks", false, "List hunk headers under each file")
}

func runParse(cmd *cobra.Command, args []string) {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		exitError("failed to read patch: %v", err)
	}

	patch, err := core.ParsePatch(string(raw))
	if err != nil {
		exitError("failed to parse patch: %v", err)
	}

	displayPatch(patch)
}

func displayPatch(p *models.ParsedPatch) {
	yellow := color.New(color.FgYellow)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	cyan := color.New(color.FgCyan)
	magenta := color.New(color.FgMagenta)

	h := p.Header
	yellow.Printf("commit %s\n", h.SHA())
	fmt.Printf("Author: %s\n", h.From)
	fmt.Printf("Date:   %s\n", h.Date)
	fmt.Printf("\n    %s\n", h.Title)
	if h.Log != "" {
		fmt.Println()
		for _, line := range strings.Split(h.Log, "\n") {
			fmt.Printf("    %s\n", line)
		}
	}
	fmt.Println()

	for _, f := range p.Diff {
		added, removed := 0, 0
		for _, hunk := range f.Hunks {
			for _, l := range hunk.Lines {
				switch l.Type {
				case models.LineAdded:
					added++
				case models.LineRemoved:
					removed++
				}
			}
		}

		switch {
		case f.IsNew:
			green.Print(" new    ")
		case f.IsDelete:
			red.Print(" delete ")
		case f.IsRename:
			cyan.Print(" rename ")
		default:
			fmt.Print("        ")
		}
		fmt.Print(f.Path)
		if f.IsRename && f.OldPath != "" {
			fmt.Printf(" (from %s)", f.OldPath)
		}

		if f.IsBinary {
			magenta.Println(" [binary]")
		} else {
			fmt.Print(" ")
			green.Printf("+%d", added)
			fmt.Print(" ")
			red.Printf("-%d", removed)
			fmt.Println()
		}

		if parseHunks {
			for _, hunk := range f.Hunks {
				cyan.Printf("        @@ %s (%d lines)\n", strings.TrimSpace(hunk.Header), len(hunk.Lines))
			}
		}
	}

	fmt.Printf("\n %d files changed, ", len(p.Diff))
	green.Printf("%d insertions(+)", p.Added())
	fmt.Print(", ")
	red.Printf("%d deletions(-)\n", p.Removed())
}
