package cmd

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vigilsec/argus/internal/core"
	"github.com/vigilsec/argus/internal/service"
)

var runCmd = &cobra.Command{
	Use:   "run <url>",
	Short: "Run the analysis pipeline against a content URL",
	Long: `Run a content URL through the workflow pipeline at the chosen depth
tier and print the synthesized report.

Examples:
  # Standard four-stage analysis
  argus run https://videotube.example/v/abc123

  # Deep analysis with threat scoring, JSON output
  argus run --depth deep --format json https://videotube.example/v/abc123

  # Inspect the derived plan without running anything
  argus run --dump-plan https://videotube.example/v/abc123`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

var (
	runDepth     string
	runTenant    string
	runWorkspace string
	runFormat    string
	runDumpPlan  bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runDepth, "depth", "d", "standard",
		"depth tier (standard, deep, comprehensive, experimental)")
	runCmd.Flags().StringVar(&runTenant, "tenant", "default",
		"tenant the run belongs to")
	runCmd.Flags().StringVar(&runWorkspace, "workspace", "",
		"directory for run artifacts and the results store (overrides results.path)")
	runCmd.Flags().StringVar(&runFormat, "format", "term",
		"report output format (term, markdown, json)")
	runCmd.Flags().BoolVar(&runDumpPlan, "dump-plan", false,
		"print the derived workflow plan as YAML and exit")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	if runWorkspace != "" {
		cfg.Results.Path = filepath.Join(runWorkspace, "results")
	}

	tier, err := core.ParseTier(runDepth)
	if err != nil {
		return err
	}

	req := core.WorkflowRequest{
		ID:      core.WorkflowID(uuid.NewString()),
		URL:     args[0],
		Tier:    tier,
		Tenant:  runTenant,
		Session: "cli",
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if runDumpPlan {
		validator := buildValidator(cfg, log)
		planner := service.NewPlanner(*cfg, log)

		flags := validator.Snapshot(ctx)
		plan, err := planner.Plan(req, flags)
		if err != nil {
			return err
		}

		out, err := yaml.Marshal(plan)
		if err != nil {
			return fmt.Errorf("encoding plan: %w", err)
		}
		cmd.Print(string(out))
		return nil
	}

	channel := newCLIChannel(cmd.OutOrStdout(), runFormat, quiet)
	orch, sink, err := buildOrchestrator(cfg, channel, nil, log)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := sink.Close(); closeErr != nil {
			log.Warn("closing results store", "error", closeErr)
		}
	}()

	outcome, err := orch.Run(ctx, req)
	if err != nil && outcome == nil {
		return err
	}
	if outcome.State == core.RunStateFailed {
		return fmt.Errorf("run failed: %w", err)
	}
	return nil
}
