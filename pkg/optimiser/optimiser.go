package optimiser

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/cuemby/flowsim/pkg/log"
	"github.com/cuemby/flowsim/pkg/metrics"
	"github.com/cuemby/flowsim/pkg/types"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// maxDescentRounds bounds the coordinate-descent loop over multiple
// roles. One pass already converges for additive, non-interacting
// roles; a handful of extra rounds absorbs any role-to-role interaction
// without risking an unbounded loop.
const maxDescentRounds = 6

// CandidateFunc builds the flow implied by vector, runs the simulator
// against it, and returns the resulting SimulationResult. The optimiser
// treats every candidate as independent: it never inspects or mutates a
// Flow itself.
type CandidateFunc func(vector types.WorkerCountVector) (*types.SimulationResult, error)

// ProgressRecord is reported to a ProgressSink after every candidate
// evaluation, win or lose, so a caller can drive a progress bar or log
// line without the optimiser importing any UI concern.
type ProgressRecord struct {
	CandidatesEvaluated int
	Vector              types.WorkerCountVector
	Feasible            bool
}

// ProgressSink receives a ProgressRecord between candidates. A nil sink
// is a valid no-op.
type ProgressSink func(ProgressRecord)

// errAborted is returned internally when the caller's Abort func fires
// mid-search; Run translates it into a *types.CancelledError.
var errAborted = errors.New("optimiser: aborted")

type candidateOutcome struct {
	vector   types.WorkerCountVector
	result   *types.SimulationResult
	feasible bool
}

// search holds one Run call's shared, mutex-guarded state so a round's
// per-role binary searches can run concurrently via errgroup.
type search struct {
	deadline    func(*types.SimulationResult) bool
	evaluate    CandidateFunc
	progress    ProgressSink
	abort       func() bool
	searchSpace map[string][2]int
	roles       []string
	logger      zerolog.Logger

	mu      sync.Mutex
	cache   map[string]*candidateOutcome
	evalCnt int
	best    *candidateOutcome
}

// Run searches req's worker-count space for the minimal-cost vector
// (lowest total worker count) whose simulated makespan meets req's
// deadline, invoking evaluate once per distinct candidate vector. It
// returns *types.InfeasibleError if no vector in the space is feasible,
// or *types.CancelledError (carrying the best feasible vector found so
// far, if any) if abort reports true before the search concludes.
func Run(req types.OptimiserRequest, evaluate CandidateFunc, progress ProgressSink, abort func() bool) (*types.OptimiserResult, error) {
	if evaluate == nil {
		return nil, fmt.Errorf("optimiser: Evaluate is required")
	}
	if len(req.SearchSpace) == 0 {
		return nil, fmt.Errorf("optimiser: SearchSpace must name at least one role")
	}
	for role, bounds := range req.SearchSpace {
		if bounds[0] < 0 || bounds[1] < bounds[0] {
			return nil, fmt.Errorf("optimiser: invalid search bound for role %q: [%d,%d]", role, bounds[0], bounds[1])
		}
	}

	s := &search{
		evaluate:    evaluate,
		progress:    progress,
		abort:       abort,
		searchSpace: req.SearchSpace,
		logger:      log.WithComponent("optimiser"),
		cache:       make(map[string]*candidateOutcome),
	}
	for role := range req.SearchSpace {
		s.roles = append(s.roles, role)
	}
	sort.Strings(s.roles)
	s.deadline = func(r *types.SimulationResult) bool {
		return !r.Makespan.End.After(req.Deadline)
	}

	floor := make(types.WorkerCountVector, len(s.roles))
	ceiling := make(types.WorkerCountVector, len(s.roles))
	for _, role := range s.roles {
		floor[role] = req.SearchSpace[role][0]
		ceiling[role] = req.SearchSpace[role][1]
	}

	// One probe at the all-ceiling vector is enough to prove the whole
	// space infeasible by monotonicity, without ever touching the
	// floor directly — matching the bisection below, which only visits
	// values bracketing the minimal feasible point.
	ceilingOC, err := s.evalVector(ceiling)
	if err != nil {
		return nil, s.translateErr(err)
	}
	if !ceilingOC.feasible {
		return nil, &types.InfeasibleError{CandidatesEvaluated: s.evalCnt}
	}

	current := copyVector(floor)
	if req.InitialGuess != nil {
		for _, role := range s.roles {
			if v, ok := req.InitialGuess[role]; ok {
				current[role] = clamp(v, req.SearchSpace[role][0], req.SearchSpace[role][1])
			}
		}
	}

	for round := 0; round < maxDescentRounds; round++ {
		base := copyVector(current)
		vals := make([]int, len(s.roles))
		founds := make([]bool, len(s.roles))

		g := new(errgroup.Group)
		g.SetLimit(4)
		for i, role := range s.roles {
			i, role := i, role
			g.Go(func() error {
				val, found, err := s.binarySearchRole(role, base)
				vals[i], founds[i] = val, found
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return nil, s.translateErr(err)
		}

		changed := false
		for i, role := range s.roles {
			if !founds[i] {
				if current[role] != ceiling[role] {
					current[role] = ceiling[role]
					changed = true
				}
				continue
			}
			if current[role] != vals[i] {
				current[role] = vals[i]
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	final, err := s.evalVector(current)
	if err != nil {
		return nil, s.translateErr(err)
	}
	if !final.feasible {
		// Coordinate descent never found every role simultaneously
		// feasible even though the all-ceiling vector is; declare
		// infeasible rather than report a misleading vector.
		return nil, &types.InfeasibleError{CandidatesEvaluated: s.evalCnt}
	}
	return s.result(final), nil
}

func (s *search) result(oc *candidateOutcome) *types.OptimiserResult {
	return &types.OptimiserResult{
		Vector:              copyVector(oc.vector),
		Makespan:            oc.result.Makespan,
		CandidatesEvaluated: s.evalCnt,
	}
}

func (s *search) translateErr(err error) error {
	if errors.Is(err, errAborted) {
		s.mu.Lock()
		defer s.mu.Unlock()
		var best *types.OptimiserResult
		if s.best != nil {
			best = s.result(s.best)
		}
		return &types.CancelledError{BestFeasible: best}
	}
	return err
}

// binarySearchRole finds the smallest value in [lo,hi] for role such
// that (fixed, role=value) is feasible, holding every other role at
// fixed's current value. It relies on monotonicity: adding workers
// never increases the makespan, so feasibility is monotone non-decreasing
// across the range and a classic minimal-feasible-integer bisection
// applies without needing to touch every value in between.
func (s *search) binarySearchRole(role string, fixed types.WorkerCountVector) (int, bool, error) {
	lo, hi := s.searchSpace[role][0], s.searchSpace[role][1]
	best := -1
	for lo <= hi {
		mid := lo + (hi-lo)/2
		vec := copyVector(fixed)
		vec[role] = mid
		oc, err := s.evalVector(vec)
		if err != nil {
			return best, best >= 0, err
		}
		if oc.feasible {
			best = mid
			hi = mid - 1
		} else {
			lo = mid + 1
		}
	}
	return best, best >= 0, nil
}

func (s *search) evalVector(vector types.WorkerCountVector) (*candidateOutcome, error) {
	key := vectorKey(s.roles, vector)

	s.mu.Lock()
	if oc, ok := s.cache[key]; ok {
		s.mu.Unlock()
		return oc, nil
	}
	s.mu.Unlock()

	if s.abort != nil && s.abort() {
		return nil, errAborted
	}

	timer := metrics.NewTimer()
	result, err := s.evaluate(vector)
	timer.ObserveDuration(metrics.OptimiserCandidateDuration)
	if err != nil {
		return nil, fmt.Errorf("optimiser: evaluating %s: %w", key, err)
	}

	oc := &candidateOutcome{vector: copyVector(vector), result: result, feasible: s.deadline(result)}

	s.mu.Lock()
	s.cache[key] = oc
	s.evalCnt++
	cnt := s.evalCnt
	if oc.feasible && (s.best == nil || vectorCost(oc.vector) < vectorCost(s.best.vector)) {
		s.best = oc
	}
	s.mu.Unlock()

	metrics.OptimiserCandidatesTotal.Inc()
	s.logger.Debug().Str("vector", key).Bool("feasible", oc.feasible).Msg("optimiser candidate evaluated")
	if s.progress != nil {
		s.progress(ProgressRecord{CandidatesEvaluated: cnt, Vector: copyVector(oc.vector), Feasible: oc.feasible})
	}
	return oc, nil
}

func copyVector(v types.WorkerCountVector) types.WorkerCountVector {
	out := make(types.WorkerCountVector, len(v))
	for k, n := range v {
		out[k] = n
	}
	return out
}

func vectorCost(v types.WorkerCountVector) int {
	total := 0
	for _, n := range v {
		total += n
	}
	return total
}

// vectorKey renders vector deterministically over roles (already
// sorted) so the cache and progress log are independent of Go's random
// map iteration order.
func vectorKey(roles []string, v types.WorkerCountVector) string {
	parts := make([]string, len(roles))
	for i, r := range roles {
		parts[i] = r + "=" + strconv.Itoa(v[r])
	}
	return strings.Join(parts, ",")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
