package main

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/cuemby/flowsim/pkg/calendar"
	"github.com/cuemby/flowsim/pkg/log"
	"github.com/cuemby/flowsim/pkg/metrics"
	"github.com/cuemby/flowsim/pkg/optimiser"
	"github.com/cuemby/flowsim/pkg/simulator"
	"github.com/cuemby/flowsim/pkg/storage"
	"github.com/cuemby/flowsim/pkg/types"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var optimiseCmd = &cobra.Command{
	Use:   "optimise",
	Short: "Search for the cheapest worker counts that meet a deadline",
	RunE:  runOptimise,
}

func init() {
	optimiseCmd.Flags().StringP("flow", "f", "", "Flow YAML file (alternative to --flow-name)")
	optimiseCmd.Flags().StringP("calendar", "c", "", "Calendar YAML file (alternative to --calendar-name)")
	optimiseCmd.Flags().StringP("demand", "d", "", "Demand YAML file (alternative to --demand-name)")
	optimiseCmd.Flags().String("flow-name", "", "Name of a Flow staged in --store via 'flowsim apply' (alternative to --flow)")
	optimiseCmd.Flags().String("calendar-name", "", "Name of a Calendar staged in --store via 'flowsim apply' (alternative to --calendar)")
	optimiseCmd.Flags().String("demand-name", "", "Name of a Demand staged in --store via 'flowsim apply' (alternative to --demand)")
	optimiseCmd.Flags().String("start", "", "Run start instant, RFC3339 (defaults to now)")
	optimiseCmd.Flags().Duration("deadline", 0, "Deadline relative to start, e.g. 90m (required)")
	optimiseCmd.Flags().StringSlice("workers", nil, "Tunable role search bound, role=min:max (repeatable)")
	optimiseCmd.Flags().String("store", "", "BoltDB file to read staged --*-name documents from, and/or persist the winning result into")
	optimiseCmd.Flags().String("metrics-addr", "", "If set, serve Prometheus metrics on this address for the duration of the search")
	_ = optimiseCmd.MarkFlagRequired("deadline")
	_ = optimiseCmd.MarkFlagRequired("workers")
}

func runOptimise(cmd *cobra.Command, args []string) error {
	flowPath, _ := cmd.Flags().GetString("flow")
	calPath, _ := cmd.Flags().GetString("calendar")
	demandPath, _ := cmd.Flags().GetString("demand")
	flowName, _ := cmd.Flags().GetString("flow-name")
	calName, _ := cmd.Flags().GetString("calendar-name")
	demandName, _ := cmd.Flags().GetString("demand-name")
	startStr, _ := cmd.Flags().GetString("start")
	deadlineRel, _ := cmd.Flags().GetDuration("deadline")
	workerFlags, _ := cmd.Flags().GetStringSlice("workers")
	storePath, _ := cmd.Flags().GetString("store")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

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

	searchSpace, err := parseSearchSpace(workerFlags)
	if err != nil {
		return err
	}

	cal, err := calendar.New(calDef.Spec)
	if err != nil {
		return fmt.Errorf("building calendar: %w", err)
	}
	units, err := expandedUnits(demand.Spec)
	if err != nil {
		return err
	}

	if metricsAddr != "" {
		srv := &http.Server{Addr: metricsAddr, Handler: metrics.Handler()}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.WithComponent("cli").Warn().Err(err).Msg("metrics server stopped")
			}
		}()
		defer srv.Close()
	}

	evaluate := func(vector types.WorkerCountVector) (*types.SimulationResult, error) {
		scaled := scaleFlow(flowDef.Spec, vector)
		classified, err := buildClassified(scaled)
		if err != nil {
			return nil, err
		}
		return simulator.Run(classified, cal, units, start)
	}

	req := types.OptimiserRequest{
		Deadline:    start.Add(deadlineRel),
		SearchSpace: searchSpace,
	}

	progress := func(p optimiser.ProgressRecord) {
		fmt.Printf("candidate %d: %s feasible=%v\n", p.CandidatesEvaluated, formatVector(p.Vector), p.Feasible)
	}

	result, err := optimiser.Run(req, evaluate, progress, nil)
	if err != nil {
		var infeasible *types.InfeasibleError
		var cancelled *types.CancelledError
		switch {
		case errors.As(err, &infeasible):
			return fmt.Errorf("no feasible worker configuration within deadline (%d candidate(s) evaluated)", infeasible.CandidatesEvaluated)
		case errors.As(err, &cancelled):
			if cancelled.BestFeasible != nil {
				fmt.Printf("cancelled; best feasible so far: %s, makespan %.1f minutes\n", formatVector(cancelled.BestFeasible.Vector), cancelled.BestFeasible.Makespan.Minutes())
			}
			return err
		default:
			return fmt.Errorf("optimising: %w", err)
		}
	}

	fmt.Printf("winning vector: %s\n", formatVector(result.Vector))
	fmt.Printf("makespan: %.1f minutes, %d candidate(s) evaluated\n", result.Makespan.Minutes(), result.CandidatesEvaluated)

	if storePath != "" {
		store, err := storage.Open(storePath)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer store.Close()
		runID := uuid.NewString()
		if err := store.PutResult(runID, &types.SimulationResult{Makespan: result.Makespan}); err != nil {
			return fmt.Errorf("persisting result: %w", err)
		}
		fmt.Printf("stored result as run %s\n", runID)
	}
	return nil
}

// parseSearchSpace parses repeated "role=min:max" flags into an
// optimiser search space.
func parseSearchSpace(flags []string) (map[string][2]int, error) {
	space := make(map[string][2]int, len(flags))
	for _, f := range flags {
		role, bounds, ok := strings.Cut(f, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --workers entry %q, want role=min:max", f)
		}
		lo, hi, ok := strings.Cut(bounds, ":")
		if !ok {
			return nil, fmt.Errorf("invalid --workers entry %q, want role=min:max", f)
		}
		loN, err := strconv.Atoi(lo)
		if err != nil {
			return nil, fmt.Errorf("invalid lower bound in %q: %w", f, err)
		}
		hiN, err := strconv.Atoi(hi)
		if err != nil {
			return nil, fmt.Errorf("invalid upper bound in %q: %w", f, err)
		}
		space[role] = [2]int{loN, hiN}
	}
	return space, nil
}

func formatVector(v types.WorkerCountVector) string {
	roles := make([]string, 0, len(v))
	for r := range v {
		roles = append(roles, r)
	}
	sort.Strings(roles)
	parts := make([]string, 0, len(roles))
	for _, r := range roles {
		parts = append(parts, fmt.Sprintf("%s=%d", r, v[r]))
	}
	return strings.Join(parts, ",")
}
