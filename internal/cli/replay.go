package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/reorg/internal/engine"
)

var (
	replayModel string
	replayDiff  bool
	replayYes   bool
)

var replayCmd = &cobra.Command{
	Use:   "replay <id>",
	Short: "Rebuild a saved operation against the current model",
	Long: `Restore a saved descriptor, validate it against the model again and build its
change tree. The model recorded with the descriptor is used unless --model is
given. Ids may be abbreviated to any unique prefix.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return checkEnvironmentVariables(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		ctx := context.Background()
		modelPath, err := absModelPath(replayModel)
		if err != nil {
			return err
		}

		result, err := eng.Replay(ctx, &engine.ReplayRequest{
			ID:        args[0],
			ModelPath: modelPath,
			Confirmer: newPromptConfirmer(replayYes),
			Preview:   replayDiff,
		})
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
	replayCmd.Flags().StringVarP(&replayModel, "model", "m", "", "Workspace model file (defaults to the recorded model)")
	replayCmd.Flags().BoolVar(&replayDiff, "diff", false, "Show a diff of every changed file")
	replayCmd.Flags().BoolVarP(&replayYes, "yes", "y", false, "Approve every confirmation without prompting")
}
