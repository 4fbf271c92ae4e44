package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/danieljhkim/reorg/internal/engine"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage saved operations",
	Long:  `List, inspect and delete the operations saved with 'reorg plan --save'.`,
}

var historyLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List saved operations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		infos, err := eng.ListHistory(context.Background())
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(infos)
		}

		if len(infos) == 0 {
			PrintSection("History")
			PrintEmptyState("No saved operations")
			return nil
		}

		PrintSection("History")
		renderHistoryTable(os.Stdout, infos)
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show the arguments of a saved operation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		rec, err := eng.ShowHistory(context.Background(), args[0])
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(rec)
		}

		PrintSection(rec.Label)
		PrintLabelValue("ID", rec.ID)
		PrintLabelValue("Policy", rec.Policy)
		PrintLabelValue("Model", rec.Model)
		PrintLabelValue("Created", rec.CreatedAt.Local().Format(time.RFC3339))

		keys := make([]string, 0, len(rec.Arguments))
		for k := range rec.Arguments {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		PrintSubsection("Arguments:")
		for _, k := range keys {
			PrintLabelValue("  "+k, rec.Arguments[k])
		}
		return nil
	},
}

var historyRmYes bool

var historyRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a saved operation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		ctx := context.Background()
		rec, err := eng.ShowHistory(ctx, args[0])
		if err != nil {
			if jsonOutput {
				return outputResultJSON(nil, err)
			}
			return err
		}

		if !historyRmYes && !jsonOutput {
			c := newPromptConfirmer(false)
			if !c.ask(fmt.Sprintf("Delete %s (%s)?", rec.ID, rec.Label)) {
				return fmt.Errorf("deletion cancelled by user")
			}
		}

		err = eng.DeleteHistory(ctx, rec.ID)
		if jsonOutput {
			return outputResultJSON(map[string]string{"id": rec.ID}, err)
		}
		if err != nil {
			return err
		}
		PrintSuccess(fmt.Sprintf("Deleted %s", rec.ID))
		return nil
	},
}

func init() {
	historyRmCmd.Flags().BoolVarP(&historyRmYes, "yes", "y", false, "Delete without prompting")

	historyCmd.AddCommand(historyLsCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyRmCmd)
}

func renderHistoryTable(w io.Writer, infos []engine.HistoryInfo) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Policy", "Label", "Items", "Created"})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, info := range infos {
		table.Append([]string{
			shortID(info.ID),
			info.Policy,
			info.Label,
			fmt.Sprintf("%d", info.Items),
			info.CreatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	table.Render()
}

// shortID abbreviates an id to a prefix that is still accepted by the
// history commands as long as it stays unique.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
