package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rahul/chainsmith/internal/compare"
	"github.com/rahul/chainsmith/internal/model"
	"github.com/rahul/chainsmith/internal/observability"
	"github.com/rahul/chainsmith/internal/results"
	"github.com/rahul/chainsmith/internal/workbench"
)

var (
	planPath   string
	target     string
	assigns    []string
	addTargets []string
	allTargets bool
	simulateAs string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a plan's step chain against one target",
	RunE:  runRun,
}

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Run a plan against several targets concurrently",
	Long: `Runs the plan for --target first, then opens a comparison seeded with
that result. The persisted target selection is extended with --add (or
--all) and every selected target without a cached result is generated.`,
	RunE: runCompare,
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a plan, then preview how a target would answer the result",
	RunE:  runSimulate,
}

func init() {
	for _, c := range []*cobra.Command{runCmd, compareCmd, simulateCmd} {
		c.Flags().StringVarP(&planPath, "plan", "p", "plan.yaml", "YAML plan with steps and values")
		c.Flags().StringVarP(&target, "target", "t", "", "target to generate for (required)")
		c.Flags().StringArrayVar(&assigns, "set", nil, "placeholder value as KEY=VALUE (repeatable)")
		_ = c.MarkFlagRequired("target")
	}
	compareCmd.Flags().StringSliceVar(&addTargets, "add", nil, "targets to add to the selection")
	compareCmd.Flags().BoolVar(&allTargets, "all", false, "select every known target")
	simulateCmd.Flags().StringVar(&simulateAs, "as", "", "target to emulate (defaults to --target)")
}

func eventWriter(cmd *cobra.Command) io.Writer {
	if verbose {
		return observability.NewTermWriter()
	}
	return io.Discard
}

func loadDraft() (workbench.Draft, error) {
	d, err := workbench.LoadPlan(planPath)
	if err != nil {
		return d, err
	}
	values, err := workbench.ParseAssignments(assigns)
	if err != nil {
		return d, err
	}
	for k, v := range values {
		d = d.SetValue(k, v)
	}
	return d, nil
}

func newWorkbench(cmd *cobra.Command) (*app, *workbench.Workbench, error) {
	a, err := loadApp(eventWriter(cmd))
	if err != nil {
		return nil, nil, err
	}
	if err := a.catalog.Validate([]string{target}); err != nil {
		return nil, nil, err
	}
	d, err := loadDraft()
	if err != nil {
		return nil, nil, err
	}
	wb := workbench.New(a.executor, a.simulator, d)
	wb.Policy = a.policy
	return a, wb, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	_, wb, err := newWorkbench(cmd)
	if err != nil {
		return err
	}
	res, err := wb.Run(cmd.Context(), target)
	if err != nil {
		return err
	}
	printResult(cmd.OutOrStdout(), target, res)
	return nil
}

func runSimulate(cmd *cobra.Command, args []string) error {
	a, wb, err := newWorkbench(cmd)
	if err != nil {
		return err
	}
	as := simulateAs
	if as == "" {
		as = target
	}
	if err := a.catalog.Validate([]string{as}); err != nil {
		return err
	}

	res, err := wb.Run(cmd.Context(), target)
	if err != nil {
		return err
	}
	printResult(cmd.OutOrStdout(), target, res)

	reply, err := wb.Simulate(cmd.Context(), as)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n== Simulated reply (%s) ==\n%s\n", as, reply)
	return nil
}

func runCompare(cmd *cobra.Command, args []string) error {
	a, wb, err := newWorkbench(cmd)
	if err != nil {
		return err
	}
	if err := a.catalog.Validate(addTargets); err != nil {
		return err
	}

	if _, err := wb.Run(cmd.Context(), target); err != nil {
		return err
	}

	sel, err := openSelection(a.cfg)
	if err != nil {
		return err
	}
	defer sel.Close()

	session, err := wb.OpenComparison(compare.SessionConfig{
		Catalog:   a.catalog,
		Selection: sel,
		Logger:    a.logger,
		Current:   target,
	})
	if err != nil {
		return err
	}
	defer session.Close()

	if allTargets {
		session.SelectAll()
	}
	if len(addTargets) > 0 {
		if err := session.Select(addTargets...); err != nil {
			return err
		}
	}

	batch, err := session.Generate(cmd.Context())
	if err != nil {
		return err
	}
	waitWithProgress(cmd, batch)

	out := cmd.OutOrStdout()
	snapshot := session.Store().Snapshot()
	for _, id := range session.Selected() {
		st := snapshot[id]
		switch st.Status {
		case results.Succeeded:
			printResult(out, id, st.Result)
		case results.Failed:
			fmt.Fprintf(out, "\n== %s ==\nerror: %v\n", id, st.Err)
		default:
			fmt.Fprintf(out, "\n== %s ==\n(%s)\n", id, st.Status)
		}
	}
	return nil
}

// waitWithProgress redraws the progress line until the batch settles. The
// chains are not canceled if the command is interrupted.
func waitWithProgress(cmd *cobra.Command, b *compare.Batch) {
	if !b.InProgress() {
		return
	}
	w := cmd.ErrOrStderr()
	ticker := time.NewTicker(150 * time.Millisecond)
	defer ticker.Stop()

	for frame := 0; ; frame++ {
		select {
		case <-b.Done():
			observability.PrintProgress(w, observability.GetActivity(), frame)
			fmt.Fprintln(w)
			return
		case <-cmd.Context().Done():
			fmt.Fprintln(w)
			return
		case <-ticker.C:
			observability.PrintProgress(w, observability.GetActivity(), frame)
		}
	}
}

func printResult(w io.Writer, target string, res *model.Result) {
	fmt.Fprintf(w, "\n== %s ==\n%s\n", target, res.Prompt)
	if len(res.Analysis) == 0 {
		return
	}
	fmt.Fprintln(w, "\nAnalysis:")
	for _, item := range res.Analysis {
		fmt.Fprintf(w, "- %s: %s\n", item.Technique, item.Reasoning)
		if item.Excerpt != "" {
			fmt.Fprintf(w, "  > %s\n", strings.ReplaceAll(item.Excerpt, "\n", "\n  > "))
		}
	}
}
