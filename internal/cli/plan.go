package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/reorg/internal/engine"
	"github.com/danieljhkim/reorg/internal/status"
)

var (
	planModel      string
	planSelect     []string
	planDest       string
	planLocation   string
	planReferences bool
	planQualified  bool
	planPatterns   string
	planCreate     bool
	planSave       bool
	planDiff       bool
	planYes        bool
)

var planCmd = &cobra.Command{
	Use:   "plan <copy|move>",
	Short: "Plan a copy or move of the selected items",
	Long: `Choose the policy for the selection, validate the destination and build the
change tree of a copy or move. Nothing in the model file is modified.

Elements are selected by handle (for example =P/src<p{A.java) and resources by
path (for example /P/docs/readme.txt). Member destinations take a location of
on, before or after.

Every flag can also be set through REORG_PLAN_<FLAG>, for example
REORG_PLAN_MODEL=workspace.yaml.`,
	Example: `  reorg plan move --model ws.yaml --select '=P/src<p{A.java' --dest '=P/src<q' --diff
  reorg plan copy --model ws.yaml --select /P/docs/readme.txt --dest /P/other --save`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"copy", "move"},
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return checkEnvironmentVariables(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		ctx := context.Background()
		modelPath, err := absModelPath(planModel)
		if err != nil {
			return err
		}

		req := &engine.PlanRequest{
			ModelPath:     modelPath,
			Operation:     args[0],
			Select:        planSelect,
			Destination:   planDest,
			Location:      planLocation,
			CreateMissing: planCreate,
			Confirmer:     newPromptConfirmer(planYes),
			Preview:       planDiff,
			Save:          planSave,
		}
		if cmd.Flags().Changed("references") {
			req.UpdateReferences = &planReferences
		}
		if cmd.Flags().Changed("qualified") {
			req.UpdateQualifiedNames = &planQualified
		}
		if cmd.Flags().Changed("patterns") {
			req.FilePatterns = &planPatterns
		}

		result, err := eng.Plan(ctx, req)
		if jsonOutput {
			return outputResultJSON(result, err)
		}
		if err != nil {
			if result != nil {
				printStatus(result.Status)
			}
			return err
		}

		printPlan(result)
		return nil
	},
}

func init() {
	planCmd.Flags().StringVarP(&planModel, "model", "m", "", "Workspace model file (YAML)")
	planCmd.Flags().StringSliceVarP(&planSelect, "select", "s", nil, "Handle of an element or resource to copy or move (repeatable)")
	planCmd.Flags().StringVarP(&planDest, "dest", "d", "", "Handle of the destination element or resource")
	planCmd.Flags().StringVarP(&planLocation, "location", "l", "on", "Location relative to a member destination (on, before, after)")
	planCmd.Flags().BoolVar(&planReferences, "references", true, "Update references to moved elements")
	planCmd.Flags().BoolVar(&planQualified, "qualified", false, "Update fully qualified names in non-source files")
	planCmd.Flags().StringVar(&planPatterns, "patterns", "", "Comma separated file name patterns for qualified name updates")
	planCmd.Flags().BoolVar(&planCreate, "create", false, "Create the destination when it does not exist")
	planCmd.Flags().BoolVar(&planSave, "save", false, "Save the operation to the history")
	planCmd.Flags().BoolVar(&planDiff, "diff", false, "Show a diff of every changed file")
	planCmd.Flags().BoolVarP(&planYes, "yes", "y", false, "Approve every confirmation without prompting")
}

// absModelPath makes the model path absolute so saved descriptors can be
// replayed from any directory.
func absModelPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("failed to resolve model path: %w", err)
	}
	return abs, nil
}

// printPlan prints the outcome of a plan or replay.
func printPlan(result *engine.PlanResult) {
	PrintSection(result.Label)
	PrintLabelValue("Policy", result.Policy)
	PrintLabelValue("Destination", result.Destination)
	PrintLabelValue("Selection", PrintCount(len(result.Selection), "item", "items"))
	PrintList(result.Selection, 1)
	printStatus(result.Status)

	PrintSubsection("Changes:")
	for _, line := range strings.Split(strings.TrimRight(result.Tree, "\n"), "\n") {
		PrintInfo("  " + line)
	}

	for _, p := range result.Previews {
		fmt.Println()
		printDiff(p.Diff)
	}

	if result.HistoryID != "" {
		fmt.Println()
		PrintLabelValue("History ID", result.HistoryID)
	}
}

// printStatus prints warnings and errors of a validation status.
func printStatus(entries []status.Entry) {
	for _, e := range entries {
		switch e.Severity {
		case status.SeverityFatal, status.SeverityError:
			PrintError(e.Message)
		case status.SeverityWarning:
			PrintWarning(e.Message)
		case status.SeverityInfo:
			PrintEmptyState(e.Message)
		}
	}
}

// printDiff colors the added and removed lines of a preview.
func printDiff(diff string) {
	for _, line := range strings.Split(strings.TrimRight(diff, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			_, _ = labelColor.Println(line)
		case strings.HasPrefix(line, "+"):
			_, _ = successColor.Println(line)
		case strings.HasPrefix(line, "-"):
			_, _ = errorColor.Println(line)
		default:
			fmt.Println(line)
		}
	}
}
