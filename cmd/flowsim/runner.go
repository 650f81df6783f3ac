package main

import (
	"fmt"
	"time"

	"github.com/cuemby/flowsim/pkg/calendar"
	"github.com/cuemby/flowsim/pkg/flow"
	"github.com/cuemby/flowsim/pkg/lotexpander"
	"github.com/cuemby/flowsim/pkg/simulator"
	"github.com/cuemby/flowsim/pkg/storage"
	"github.com/cuemby/flowsim/pkg/types"
	"github.com/cuemby/flowsim/pkg/validator"
)

// resolveFlowDefinition loads a Flow document from a file, or by stored
// name when filePath is empty and the flow was staged earlier with
// "flowsim apply".
func resolveFlowDefinition(filePath, name, storePath string) (*types.FlowDefinition, error) {
	if filePath != "" {
		return readFlowDefinition(filePath)
	}
	if name == "" {
		return nil, fmt.Errorf("one of --flow or --flow-name is required")
	}
	if storePath == "" {
		return nil, fmt.Errorf("--store is required when using --flow-name")
	}
	store, err := storage.Open(storePath)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()
	def, err := store.GetFlow(name)
	if err != nil {
		return nil, fmt.Errorf("loading flow %q: %w", name, err)
	}
	return def, nil
}

// resolveCalendarDefinition is resolveFlowDefinition's Calendar counterpart.
func resolveCalendarDefinition(filePath, name, storePath string) (*types.CalendarDefinition, error) {
	if filePath != "" {
		return readCalendarDefinition(filePath)
	}
	if name == "" {
		return nil, fmt.Errorf("one of --calendar or --calendar-name is required")
	}
	if storePath == "" {
		return nil, fmt.Errorf("--store is required when using --calendar-name")
	}
	store, err := storage.Open(storePath)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()
	def, err := store.GetCalendar(name)
	if err != nil {
		return nil, fmt.Errorf("loading calendar %q: %w", name, err)
	}
	return def, nil
}

// resolveDemand is resolveFlowDefinition's Demand counterpart.
func resolveDemand(filePath, name, storePath string) (*types.Demand, error) {
	if filePath != "" {
		return readDemand(filePath)
	}
	if name == "" {
		return nil, fmt.Errorf("one of --demand or --demand-name is required")
	}
	if storePath == "" {
		return nil, fmt.Errorf("--store is required when using --demand-name")
	}
	store, err := storage.Open(storePath)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()
	d, err := store.GetDemand(name)
	if err != nil {
		return nil, fmt.Errorf("loading demand %q: %w", name, err)
	}
	return d, nil
}

// buildClassified runs a FlowSpec through the arena builder and the
// validator, the same two steps every entry point needs before a flow
// can be handed to the simulator.
func buildClassified(spec types.FlowSpec) (*validator.Classified, error) {
	f, err := flow.Build(spec)
	if err != nil {
		return nil, fmt.Errorf("building flow: %w", err)
	}
	classified, err := validator.Validate(f)
	if err != nil {
		return nil, err
	}
	return classified, nil
}

// expandedUnits flattens every product plan's unit seeds into one
// ordered slice, ready for simulator.Run. Lot priority ordering is
// already baked into the seeds' indices by lotexpander.Expand.
func expandedUnits(spec types.DemandSpec) ([]simulator.UnitSeed, error) {
	plans, err := lotexpander.Expand(spec)
	if err != nil {
		return nil, fmt.Errorf("expanding demand: %w", err)
	}
	var units []simulator.UnitSeed
	for _, p := range plans {
		units = append(units, p.Units...)
	}
	return units, nil
}

// runSimulation wires flow, calendar, and demand specs together and
// executes one simulator run starting at start.
func runSimulation(flowSpec types.FlowSpec, calSpec types.CalendarSpec, demandSpec types.DemandSpec, start time.Time, opts ...simulator.Option) (*types.SimulationResult, error) {
	classified, err := buildClassified(flowSpec)
	if err != nil {
		return nil, err
	}

	cal, err := calendar.New(calSpec)
	if err != nil {
		return nil, fmt.Errorf("building calendar: %w", err)
	}

	units, err := expandedUnits(demandSpec)
	if err != nil {
		return nil, err
	}

	return simulator.Run(classified, cal, units, start, opts...)
}
