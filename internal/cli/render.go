package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilupskalvis/gitnotify/internal/core"
	"github.com/kilupskalvis/gitnotify/internal/remote"
)

var renderCmd = &cobra.Command{
	Use:   "render <patch-file>",
	Short: "Render a patch file to HTML",
	Long: `Render a patch in mbox format (as produced by git format-patch or
GitHub's .patch URLs) with a template and print the HTML.`,
	Args: cobra.ExactArgs(1),
	Run:  runRender,
}

var (
	renderTemplate string
	renderOutput   string
	renderRepo     string
	renderRef      string
)

func init() {
	f := renderCmd.Flags()
	f.StringVarP(&renderTemplate, "template", "t", "", "Template file or URL (default: configured template)")
	f.StringVarP(&renderOutput, "output", "o", "", "Write HTML to a file instead of stdout")
	f.StringVar(&renderRepo, "repo", "", "Repository name for $repo (default: configured repository)")
	f.StringVar(&renderRef, "ref", "", "Ref for $branch (default: configured ref)")
}

func runRender(cmd *cobra.Command, args []string) {
	c := initContext(cmd)
	cfg := c.Config

	raw, err := os.ReadFile(args[0])
	if err != nil {
		exitError("failed to read patch: %v", err)
	}

	patch, err := core.ParsePatch(string(raw))
	if err != nil {
		exitError("failed to parse patch: %v", err)
	}

	location := firstNonEmpty(renderTemplate, cfg.Template)
	if location == "" {
		exitError("no template given, use --template or set template in the config")
	}
	gh := remote.NewHTTPClient(cfg.GitHub.APIURL, cfg.GitHub.WebURL, cfg.GitHub.Token)
	tmpl, err := remote.FetchTemplate(context.Background(), gh, location)
	if err != nil {
		exitError("failed to load template: %v", err)
	}

	out, err := core.Render(patch, tmpl, core.RenderContext{
		RepoName: firstNonEmpty(renderRepo, cfg.Repository),
		RefName:  firstNonEmpty(renderRef, cfg.Ref),
	})
	if err != nil {
		exitError("failed to render patch: %v", err)
	}

	if renderOutput == "" {
		fmt.Print(out.HTML)
		return
	}
	if err := os.WriteFile(renderOutput, []byte(out.HTML), 0644); err != nil {
		exitError("failed to write output: %v", err)
	}
	c.Logger.Info("rendered patch", "title", patch.Header.Title, "output", renderOutput)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
