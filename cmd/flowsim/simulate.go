package main

import (
	"fmt"
	"time"

	"github.com/cuemby/flowsim/pkg/simulator"
	"github.com/cuemby/flowsim/pkg/storage"
	"github.com/cuemby/flowsim/pkg/trace"
	"github.com/cuemby/flowsim/pkg/types"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run one simulation of a flow against a calendar and a demand",
	RunE:  runSimulate,
}

func init() {
	simulateCmd.Flags().StringP("flow", "f", "", "Flow YAML file (alternative to --flow-name)")
	simulateCmd.Flags().StringP("calendar", "c", "", "Calendar YAML file (alternative to --calendar-name)")
	simulateCmd.Flags().StringP("demand", "d", "", "Demand YAML file (alternative to --demand-name)")
	simulateCmd.Flags().String("flow-name", "", "Name of a Flow staged in --store via 'flowsim apply' (alternative to --flow)")
	simulateCmd.Flags().String("calendar-name", "", "Name of a Calendar staged in --store via 'flowsim apply' (alternative to --calendar)")
	simulateCmd.Flags().String("demand-name", "", "Name of a Demand staged in --store via 'flowsim apply' (alternative to --demand)")
	simulateCmd.Flags().String("start", "", "Run start instant, RFC3339 (defaults to now)")
	simulateCmd.Flags().String("store", "", "BoltDB file to read staged --*-name documents from, and/or persist the run's result into under a fresh run id")
	simulateCmd.Flags().Bool("watch", false, "Print each task-instance as it completes instead of only the final summary")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	flowPath, _ := cmd.Flags().GetString("flow")
	calPath, _ := cmd.Flags().GetString("calendar")
	demandPath, _ := cmd.Flags().GetString("demand")
	flowName, _ := cmd.Flags().GetString("flow-name")
	calName, _ := cmd.Flags().GetString("calendar-name")
	demandName, _ := cmd.Flags().GetString("demand-name")
	startStr, _ := cmd.Flags().GetString("start")
	storePath, _ := cmd.Flags().GetString("store")
	watch, _ := cmd.Flags().GetBool("watch")

	flowDef, err := resolveFlowDefinition(flowPath, flowName, storePath)
	if err != nil {
		return err
	}
	calDef, err := resolveCalendarDefinition(calPath, calName, storePath)
	if err != nil {
		return err
	}
	demand, err := resolveDemand(demandPath, demandName, storePath)
	if err != nil {
		return err
	}

	start, err := parseStart(startStr)
	if err != nil {
		return err
	}

	var opts []simulator.Option
	var stopWatch func()
	if watch {
		opts, stopWatch = watchTrace()
	}

	result, err := runSimulation(flowDef.Spec, calDef.Spec, demand.Spec, start, opts...)
	if stopWatch != nil {
		stopWatch()
	}
	if err != nil {
		return fmt.Errorf("simulating: %w", err)
	}

	printResult(result)

	if storePath != "" {
		if err := persistResult(storePath, result); err != nil {
			return err
		}
	}
	return nil
}

// watchTrace subscribes a printer to a fresh trace.Recorder and returns
// the simulator.Option that wires it into the run plus a function that
// unsubscribes and waits for the printer to drain. Completed instances
// print as they happen rather than only in the final summary.
func watchTrace() ([]simulator.Option, func()) {
	tr := trace.New()
	sub := tr.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for inst := range sub {
			fmt.Printf("watch: %s (unit %d) %s -> %s reason=%s\n",
				inst.TaskID, inst.UnitIndex, inst.Start.Format(time.RFC3339), inst.End.Format(time.RFC3339), inst.Reason)
		}
	}()
	stop := func() {
		tr.Unsubscribe(sub)
		<-done
	}
	return []simulator.Option{simulator.WithTrace(tr)}, stop
}

// parseStart resolves the run's start instant. The core simulator has
// no notion of "now" — this flag is the only place a real wall clock
// enters the picture, and it defaults to the invocation time purely for
// CLI convenience.
func parseStart(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing --start %q: %w", s, err)
	}
	return t, nil
}

func printResult(result *types.SimulationResult) {
	fmt.Printf("makespan: %s -> %s (%.1f minutes)\n", result.Makespan.Start.Format(time.RFC3339), result.Makespan.End.Format(time.RFC3339), result.Makespan.Minutes())
	fmt.Printf("instances: %d\n", len(result.Instances))
	if result.Bottleneck.Resource != "" {
		fmt.Printf("bottleneck: %s (%d wait hit(s))\n", result.Bottleneck.Resource, result.Bottleneck.WaitHits)
	}
}

// persistResult stores result under a fresh uuid run id, following the
// storage package's append-only convention.
func persistResult(path string, result *types.SimulationResult) error {
	store, err := storage.Open(path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	runID := uuid.NewString()
	if err := store.PutResult(runID, result); err != nil {
		return fmt.Errorf("persisting result: %w", err)
	}
	fmt.Printf("stored result as run %s\n", runID)
	return nil
}
