package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kilupskalvis/gitnotify/internal/core"
)

var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Inspect or move the last notified revision",
	Long: `Inspect or move the checkpoint that records the last revision notified
about for a ref. The next run notifies about every commit after it.`,
}

var checkpointGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the checkpoint of a ref",
	Args:  cobra.NoArgs,
	Run:   runCheckpointGet,
}

var checkpointSetCmd = &cobra.Command{
	Use:   "set <revision>",
	Short: "Move the checkpoint of a ref",
	Args:  cobra.ExactArgs(1),
	Run:   runCheckpointSet,
}

var checkpointListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all checkpoints (sqlite backend)",
	Args:  cobra.NoArgs,
	Run:   runCheckpointList,
}

var checkpointHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show how the checkpoint of a ref moved (sqlite backend)",
	Args:  cobra.NoArgs,
	Run:   runCheckpointHistory,
}

var (
	checkpointRef   string
	checkpointLimit int
)

func init() {
	checkpointCmd.PersistentFlags().StringVar(&checkpointRef, "ref", "", "Ref to use (default: configured ref)")
	checkpointHistoryCmd.Flags().IntVarP(&checkpointLimit, "n", "n", 20, "Limit the number of entries to show")

	checkpointCmd.AddCommand(checkpointGetCmd, checkpointSetCmd, checkpointListCmd, checkpointHistoryCmd)
}

func checkpointKey(c *cmdContext) string {
	ref := firstNonEmpty(checkpointRef, c.Config.Ref)
	if ref == "" {
		exitError("no ref given, use --ref or set GITHUB_REF")
	}
	return core.CheckpointKey(ref)
}

func runCheckpointGet(cmd *cobra.Command, args []string) {
	c := initRemoteContext(cmd)
	defer c.Close()

	key := checkpointKey(c)
	rev, ok, err := c.Checkpoints.GetCheckpoint(context.Background(), key)
	if err != nil {
		exitError("failed to read checkpoint: %v", err)
	}
	if !ok {
		fmt.Printf("No checkpoint for %s\n", key)
		return
	}
	fmt.Println(rev)
}

func runCheckpointSet(cmd *cobra.Command, args []string) {
	c := initRemoteContext(cmd)
	defer c.Close()

	key := checkpointKey(c)
	if err := c.Checkpoints.SetCheckpoint(context.Background(), key, args[0]); err != nil {
		exitError("failed to save checkpoint: %v", err)
	}
	color.New(color.FgGreen).Printf("Checkpoint %s set to %s\n", key, shortID(args[0]))
}

func requireStore(c *cmdContext) {
	if c.Store == nil {
		exitError("this command needs the sqlite checkpoint backend (checkpoint.backend = \"sqlite\")")
	}
}

func runCheckpointList(cmd *cobra.Command, args []string) {
	c := initRemoteContext(cmd)
	defer c.Close()
	requireStore(c)

	cps, err := c.Store.ListCheckpoints(context.Background())
	if err != nil {
		exitError("failed to list checkpoints: %v", err)
	}
	if len(cps) == 0 {
		fmt.Println("No checkpoints yet")
		return
	}

	yellow := color.New(color.FgYellow)
	for _, cp := range cps {
		yellow.Printf("%s ", cp.ShortRevision())
		fmt.Printf("%-40s %s\n", cp.Key, cp.UpdatedAt.Local().Format("Mon Jan 2 15:04:05 2006"))
	}
}

func runCheckpointHistory(cmd *cobra.Command, args []string) {
	c := initRemoteContext(cmd)
	defer c.Close()
	requireStore(c)

	key := checkpointKey(c)
	history, err := c.Store.CheckpointHistory(context.Background(), key, checkpointLimit)
	if err != nil {
		exitError("failed to read checkpoint history: %v", err)
	}
	if len(history) == 0 {
		fmt.Printf("No history for %s\n", key)
		return
	}

	yellow := color.New(color.FgYellow)
	for i, cp := range history {
		yellow.Printf("%s", cp.ShortRevision())
		if i == 0 {
			color.New(color.FgCyan).Print(" (current)")
		}
		fmt.Printf("  %s\n", cp.UpdatedAt.Local().Format("Mon Jan 2 15:04:05 2006"))
	}
}
