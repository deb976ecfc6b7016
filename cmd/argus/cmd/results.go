package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vigilsec/argus/internal/adapters/results"
	"github.com/vigilsec/argus/internal/core"
	"github.com/vigilsec/argus/internal/render"
)

var resultsCmd = &cobra.Command{
	Use:   "results [workflow-id]",
	Short: "List or show orphaned run results",
	Long: `Show reports that finished after their session went away.

Without arguments, lists the stored workflow IDs. With a workflow ID,
prints that run's report.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResults,
}

var (
	resultsTenant string
	resultsFormat string
)

func init() {
	rootCmd.AddCommand(resultsCmd)

	resultsCmd.Flags().StringVar(&resultsTenant, "tenant", "",
		"filter listed results by tenant")
	resultsCmd.Flags().StringVar(&resultsFormat, "format", "term",
		"report output format (term, markdown, json)")
}

func runResults(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	sink, err := results.NewStore(cfg.Results)
	if err != nil {
		return fmt.Errorf("opening results store: %w", err)
	}
	defer func() {
		if closeErr := sink.Close(); closeErr != nil {
			log.Warn("closing results store", "error", closeErr)
		}
	}()

	ctx := cmd.Context()

	if len(args) == 0 {
		ids, err := sink.List(ctx, resultsTenant)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			cmd.Println("no orphaned results")
			return nil
		}
		for _, id := range ids {
			cmd.Println(string(id))
		}
		return nil
	}

	result, err := sink.Load(ctx, core.WorkflowID(args[0]))
	if err != nil {
		return err
	}

	switch resultsFormat {
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "markdown":
		cmd.Println(render.Markdown(result.Report))
	default:
		cmd.Printf("Orphaned %s (tenant %s): %s\n\n", result.WorkflowID, result.Tenant, result.Reason)
		cmd.Print(render.New(render.WithColor(!noColor)).Render(result.Report))
	}
	return nil
}
