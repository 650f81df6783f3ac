package lotexpander

import (
	"fmt"
	"sort"

	"github.com/cuemby/flowsim/pkg/simulator"
	"github.com/cuemby/flowsim/pkg/types"
)

// ProductPlan is one product's slice of the expanded demand: the unit
// seeds the simulator should instantiate against that product's Flow
// template. ProductCode is empty when the Demand was a flat unit count
// rather than a lot list, since there is only one product in play.
type ProductPlan struct {
	ProductCode string
	Units       []simulator.UnitSeed
}

// Expand turns spec into an ordered sequence of ProductPlans. Across
// lots, order is by declared priority (lower runs first) then by the
// lot's position in the input list; within a lot, units are independent
// and the simulator is free to run them in parallel, so they differ
// only in their unit-index, never in a staggered start time. A flat
// unit count (no lots) always expands to unit indices 0..U-1 under a
// single empty-code ProductPlan. Demand = 0 expands to no plans at all,
// which the caller wires straight to an empty simulator run.
func Expand(spec types.DemandSpec) ([]ProductPlan, error) {
	if len(spec.Lots) == 0 {
		if spec.Units < 0 {
			return nil, fmt.Errorf("lotexpander: negative unit count %d", spec.Units)
		}
		if spec.Units == 0 {
			return nil, nil
		}
		units := make([]simulator.UnitSeed, spec.Units)
		for i := range units {
			units[i] = simulator.UnitSeed{Index: i}
		}
		return []ProductPlan{{Units: units}}, nil
	}

	type ordered struct {
		lot types.Lot
		pos int
	}
	lots := make([]ordered, len(spec.Lots))
	for i, l := range spec.Lots {
		if l.Units < 0 {
			return nil, fmt.Errorf("lotexpander: lot %q has negative unit count %d", l.ProductCode, l.Units)
		}
		lots[i] = ordered{lot: l, pos: i}
	}
	sort.SliceStable(lots, func(i, j int) bool {
		if lots[i].lot.Priority != lots[j].lot.Priority {
			return lots[i].lot.Priority < lots[j].lot.Priority
		}
		return lots[i].pos < lots[j].pos
	})

	var plans []ProductPlan
	nextIndex := 0
	for _, o := range lots {
		if o.lot.Units == 0 {
			continue
		}
		units := make([]simulator.UnitSeed, o.lot.Units)
		for i := range units {
			units[i] = simulator.UnitSeed{Index: nextIndex}
			nextIndex++
		}
		plans = append(plans, ProductPlan{ProductCode: o.lot.ProductCode, Units: units})
	}
	return plans, nil
}

// TotalUnits reports the number of units across every plan — the count
// a caller compares against a product library before deciding whether a
// simulation run has anything to do.
func TotalUnits(plans []ProductPlan) int {
	n := 0
	for _, p := range plans {
		n += len(p.Units)
	}
	return n
}
