package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"ui_probe/application/scenarios"
	"ui_probe/domain/entities"

	"github.com/spf13/cobra"
)

// AppFactory builds the app when a command runs, so help output needs no environment
type AppFactory func() (*App, error)

// NewRootCommand - builds the command tree
func NewRootCommand(newApp AppFactory) *cobra.Command {
	root := &cobra.Command{
		Use:           "ui_probe",
		Short:         "Drive a headless browser through UI verification probes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	for _, name := range scenarios.Names() {
		root.AddCommand(builtinCommand(name, newApp))
	}

	root.AddCommand(&cobra.Command{
		Use:   "all",
		Short: "Run every built-in probe",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			reports, err := app.RunAll(cmd.Context())
			for _, report := range reports {
				printReport(cmd.OutOrStdout(), report)
			}
			return err
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "run <probe.yaml>",
		Short: "Run a probe defined in a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			report, err := app.RunFile(cmd.Context(), args[0])
			printReport(cmd.OutOrStdout(), report)
			return err
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the built-in probes, their steps and last results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			for _, p := range scenarios.All(app.settings()) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n", p.Name)
				last, ok, err := app.LastRun(p.Name)
				if err != nil {
					return err
				}
				if ok {
					fmt.Fprintf(cmd.OutOrStdout(), "  last run: %s at %s\n", last.Status, last.FinishedAt.Format(time.RFC3339))
				}
				for i, step := range p.Steps {
					fmt.Fprintf(cmd.OutOrStdout(), "  %d. %s\n", i+1, step.Describe())
				}
			}
			return nil
		},
	})

	return root
}

func builtinCommand(name string, newApp AppFactory) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: fmt.Sprintf("Run the %s probe", name),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			report, err := app.RunBuiltin(cmd.Context(), name)
			printReport(cmd.OutOrStdout(), report)
			return err
		},
	}
}

// Execute - runs the command line, the returned error decides the exit code
func Execute(ctx context.Context, args []string) error {
	root := NewRootCommand(NewApp)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func printReport(w io.Writer, report entities.Report) {
	if report.Probe == "" {
		return
	}
	fmt.Fprintf(w, "%s: %s\n", report.Probe, report.Status)
	for _, ev := range report.Evidence {
		fmt.Fprintf(w, "  screenshot %s (%d bytes)\n", ev.Path, ev.Bytes)
	}
	if report.MarkupDump != "" {
		fmt.Fprintf(w, "  page content %s\n", report.MarkupDump)
	}
}
