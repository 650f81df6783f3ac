package simulator

import (
	"sort"
	"time"

	"github.com/cuemby/flowsim/pkg/calendar"
	"github.com/cuemby/flowsim/pkg/cyclecontroller"
	"github.com/cuemby/flowsim/pkg/eventqueue"
	"github.com/cuemby/flowsim/pkg/flow"
	"github.com/cuemby/flowsim/pkg/ledger"
	"github.com/cuemby/flowsim/pkg/log"
	"github.com/cuemby/flowsim/pkg/metrics"
	"github.com/cuemby/flowsim/pkg/reassignment"
	"github.com/cuemby/flowsim/pkg/trace"
	"github.com/cuemby/flowsim/pkg/types"
	"github.com/cuemby/flowsim/pkg/validator"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// UnitSeed is one unit of work the simulator instantiates: an ordinal
// index used to label every task-instance it produces, and an optional
// delay before its roots may start. A lotexpander.ProductPlan carries an
// ordered slice of these from a flat unit count or a prioritized lot
// list.
type UnitSeed struct {
	Index         int
	EarliestStart time.Duration
}

type instKey struct {
	unit int
	task int
	iter int
}

type readyPayload struct {
	unit, task, iter int
}

type completePayload struct {
	unit, task, iter int
	inst             *types.TaskInstance
}

type reassignPayload struct {
	rule *types.ReassignmentRule
	unit int
}

type iterAdvancePayload struct {
	unit      int
	group     string
	tailTask  int
	iteration int
	at        time.Time
}

// Option configures an optional aspect of a Run call.
type Option func(*runConfig)

type runConfig struct {
	tr *trace.Recorder
}

// WithTrace supplies a caller-owned trace.Recorder in place of Run's
// private one, so the caller can Subscribe before Run starts and observe
// completed instances as they happen instead of only in the returned
// SimulationResult.
func WithTrace(tr *trace.Recorder) Option {
	return func(c *runConfig) { c.tr = tr }
}

// sim holds one run's mutable state. It is built and consumed entirely
// inside Run; nothing here is safe for concurrent use.
type sim struct {
	f        *flow.Flow
	cal      *calendar.Calendar
	ledger   *ledger.Ledger
	cyc      *cyclecontroller.Controller
	reassign *reassignment.Controller
	q        *eventqueue.Queue
	tr       *trace.Recorder
	logger   zerolog.Logger

	unitFloor map[int]time.Time

	dynWorkers map[int][]string       // taskIdx -> currently assigned workers, mutated by reassignment
	groupNext  map[string]map[int]int // GroupKey -> position -> taskIdx, for sequential chains

	doneAt     map[instKey]time.Time // per (unit,task,iteration) completion time
	dispatched map[instKey]bool      // guards against double-scheduling a ready-check

	dailyDone map[string]map[string]map[string]bool // worker -> "2006-01-02" -> taskID -> done

	rulesBySource map[string][]int // source task id -> indices of tasks owning a rule keyed to it

	feederGroups map[string][]string // feeder task id -> names of cycle groups it gates

	firstErr error
}

// Run drives a discrete-event simulation of cls.Flow for the given
// units, starting no earlier than start, and returns the completed
// SimulationResult. An empty units slice is a no-op: empty trace, zero
// makespan, no error.
func Run(cls *validator.Classified, cal *calendar.Calendar, units []UnitSeed, start time.Time, opts ...Option) (*types.SimulationResult, error) {
	cfg := runConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	tr := cfg.tr
	if tr == nil {
		tr = trace.New()
	}

	timer := metrics.NewTimer()
	logger := log.WithComponent("simulator")

	if len(units) == 0 {
		metrics.SimulationsTotal.WithLabelValues("empty").Inc()
		return &types.SimulationResult{}, nil
	}

	logger.Debug().Int("units", len(units)).Msg("starting simulation run")

	f := cls.Flow
	s := &sim{
		f:             f,
		cal:           cal,
		ledger:        ledger.New(),
		q:             eventqueue.New(),
		tr:            tr,
		logger:        logger,
		unitFloor:     make(map[int]time.Time, len(units)),
		dynWorkers:    make(map[int][]string, len(f.Tasks)),
		groupNext:     make(map[string]map[int]int),
		doneAt:        make(map[instKey]time.Time),
		dispatched:    make(map[instKey]bool),
		dailyDone:     make(map[string]map[string]map[string]bool),
		rulesBySource: make(map[string][]int),
		feederGroups:  make(map[string][]string),
	}
	s.cyc = cyclecontroller.New(f)
	s.reassign = reassignment.New(s.ledger)

	for _, cg := range f.CycleGroups {
		if cg.BoundKind == types.CycleBoundUntilFeeder {
			s.feederGroups[cg.FeederTaskID] = append(s.feederGroups[cg.FeederTaskID], cg.Name)
		}
	}

	for i := range f.Tasks {
		t := f.Task(i)
		s.dynWorkers[i] = append([]string(nil), t.Workers...)
		if t.GroupKey != "" {
			if s.groupNext[t.GroupKey] == nil {
				s.groupNext[t.GroupKey] = make(map[int]int)
			}
			s.groupNext[t.GroupKey][t.GroupPosition] = i
		}
		if t.Reassignment != nil {
			s.rulesBySource[t.Reassignment.SourceTaskID] = append(s.rulesBySource[t.Reassignment.SourceTaskID], i)
		}
	}

	var cycleHeads []int
	for gi := range f.CycleGroups {
		if hi := f.IndexOf(f.CycleGroups[gi].HeadTaskID); hi >= 0 {
			cycleHeads = append(cycleHeads, hi)
		}
	}

	type seed struct {
		unit, task, iter int
		at               time.Time
	}
	var seeds []seed
	for _, u := range units {
		floor := start.Add(u.EarliestStart)
		s.unitFloor[u.Index] = floor
		for _, r := range f.Roots() {
			seeds = append(seeds, seed{u.Index, r, 0, floor})
		}
		for _, hi := range cycleHeads {
			s.cyc.Start(u.Index, f.CycleGroupOf(hi).Name)
			seeds = append(seeds, seed{u.Index, hi, 1, floor})
		}
	}
	sort.SliceStable(seeds, func(i, j int) bool {
		if !seeds[i].at.Equal(seeds[j].at) {
			return seeds[i].at.Before(seeds[j].at)
		}
		if seeds[i].unit != seeds[j].unit {
			return seeds[i].unit < seeds[j].unit
		}
		if seeds[i].iter != seeds[j].iter {
			return seeds[i].iter < seeds[j].iter
		}
		return f.Task(seeds[i].task).Order < f.Task(seeds[j].task).Order
	})
	for _, sd := range seeds {
		s.q.Push(sd.at, eventqueue.KindReadyCheck, readyPayload{unit: sd.unit, task: sd.task, iter: sd.iter})
	}

	for s.q.Len() > 0 && s.firstErr == nil {
		ev := s.q.Pop()
		switch ev.Kind {
		case eventqueue.KindReadyCheck:
			p := ev.Payload.(readyPayload)
			s.readyCheck(p.unit, p.task, p.iter)
		case eventqueue.KindTaskComplete:
			p := ev.Payload.(completePayload)
			s.onComplete(p, ev.At)
		case eventqueue.KindReassignmentTrigger:
			p := ev.Payload.(reassignPayload)
			s.onReassignTrigger(p, ev.At)
		case eventqueue.KindIterationAdvance:
			p := ev.Payload.(iterAdvancePayload)
			s.onIterationAdvance(p)
		}
	}
	if s.firstErr != nil {
		metrics.SimulationsTotal.WithLabelValues("error").Inc()
		logger.Error().Err(s.firstErr).Msg("simulation aborted")
		return nil, s.firstErr
	}

	if blocked := s.blockedTasks(units); len(blocked) > 0 {
		metrics.SimulationsTotal.WithLabelValues("deadlock").Inc()
		logger.Warn().Strs("blocked", blocked).Msg("simulation ended with unresolved tasks")
		return nil, &types.DeadlockError{BlockedTaskIDs: blocked}
	}

	result := s.assembleResult()
	metrics.SimulationsTotal.WithLabelValues("completed").Inc()
	metrics.MakespanMinutes.Observe(result.Makespan.Minutes())
	for _, inst := range result.Instances {
		metrics.TaskInstancesTotal.WithLabelValues(string(inst.Reason)).Inc()
	}
	recordResourceMetrics(result)
	timer.ObserveDuration(metrics.SimulationDuration)
	logger.Debug().Float64("makespan_minutes", result.Makespan.Minutes()).Int("instances", len(result.Instances)).Msg("simulation run completed")
	return result, nil
}

// recordResourceMetrics publishes per-resource utilization and the
// winning bottleneck from a completed result's already-computed
// occupancy data.
func recordResourceMetrics(result *types.SimulationResult) {
	makespanMinutes := result.Makespan.Minutes()
	for worker, occ := range result.WorkerOccupancy {
		metrics.WorkerUtilization.WithLabelValues(worker).Set(occupiedRatio(occ, makespanMinutes))
	}
	for machine, occ := range result.MachineOccupancy {
		metrics.MachineUtilization.WithLabelValues(machine).Set(occupiedRatio(occ, makespanMinutes))
	}
	for worker := range result.WorkerOccupancy {
		metrics.BottleneckResource.WithLabelValues(worker).Set(0)
	}
	for machine := range result.MachineOccupancy {
		metrics.BottleneckResource.WithLabelValues(machine).Set(0)
	}
	if result.Bottleneck.Resource != "" {
		metrics.BottleneckResource.WithLabelValues(result.Bottleneck.Resource).Set(1)
	}
}

func occupiedRatio(occ []types.OccupancyInterval, makespanMinutes float64) float64 {
	if makespanMinutes <= 0 {
		return 0
	}
	var occupied float64
	for _, iv := range occ {
		occupied += iv.End.Sub(iv.Start).Minutes()
	}
	return occupied / makespanMinutes
}

// blockedTasks reports, for every unit, the task or cycle group that
// never reached completion once the event queue drained — the
// termination check for ErrDeadlockDetected.
func (s *sim) blockedTasks(units []UnitSeed) []string {
	var blocked []string
	groupChecked := make(map[cyclecontroller.Key]bool)
	for _, u := range units {
		for i := range s.f.Tasks {
			if cg := s.f.CycleGroupOf(i); cg != nil {
				key := cyclecontroller.Key{Unit: u.Index, Group: cg.Name}
				if groupChecked[key] {
					continue
				}
				groupChecked[key] = true
				st := s.cyc.State(u.Index, cg.Name)
				if st == nil || st.Status != cyclecontroller.StatusClosed {
					blocked = append(blocked, cg.Name)
				}
				continue
			}
			if _, done := s.doneAt[instKey{u.Index, i, 0}]; !done {
				blocked = append(blocked, s.f.Task(i).ID)
			}
		}
	}
	return blocked
}

// emitReady pushes a ready-check for (unit,task,iter) at time at. Callers
// that emit several ready-checks for the same instant must push them in
// (unit, iteration, declared Order) order first, since the event queue's
// tie-break is insertion sequence.
func (s *sim) emitReady(unit, task, iter int, at time.Time) {
	s.q.Push(at, eventqueue.KindReadyCheck, readyPayload{unit: unit, task: task, iter: iter})
}

// emitReadyBatch sorts a set of successor task indices by declared Order
// and pushes a ready-check for each, all at the same instant and unit.
// With iter 0 (a completion outside any cycle), a successor that belongs
// to a cycle group is checked at that group's currently open iteration.
func (s *sim) emitReadyBatch(unit int, tasks []int, iter int, at time.Time) {
	ordered := append([]int(nil), tasks...)
	sort.Slice(ordered, func(i, j int) bool { return s.f.Task(ordered[i]).Order < s.f.Task(ordered[j]).Order })
	for _, ti := range ordered {
		it := iter
		if cg := s.f.CycleGroupOf(ti); it == 0 && cg != nil {
			if st := s.cyc.State(unit, cg.Name); st != nil {
				it = st.Iteration
			}
		}
		s.emitReady(unit, ti, it, at)
	}
}

func dayKey(t time.Time) string { return t.Format("2006-01-02") }

// readyCheck evaluates whether (unit,task,iter) may begin. If not, it
// does nothing further: it will be retried either by a predecessor's
// completion, a cycle-iteration advance, or a reassignment landing a
// worker on it. If so, it reserves resources, computes the instance's
// wait reason, and schedules its completion.
func (s *sim) readyCheck(unit, task, iter int) {
	key := instKey{unit, task, iter}
	if _, done := s.doneAt[key]; done {
		return
	}
	if s.dispatched[key] {
		return
	}

	t := s.f.Task(task)
	group := s.f.CycleGroupOf(task)
	if group != nil && !s.cyc.IsOpenForIteration(unit, group.Name, iter) {
		return
	}

	predTime := s.unitFloor[unit]
	for _, p := range s.f.Predecessors(task) {
		predIter := iter
		if pg := s.f.CycleGroupOf(p); pg == nil && group != nil {
			// an ordinary predecessor outside the cycle group feeds the
			// head's first iteration only.
			predIter = 0
		}
		pt, done := s.doneAt[instKey{unit, p, predIter}]
		if !done {
			return
		}
		if pt.After(predTime) {
			predTime = pt
		}
	}

	if t.GroupKey != "" && t.GroupPosition > 0 {
		prevIdx, ok := s.groupNext[t.GroupKey][t.GroupPosition-1]
		if ok {
			pt, done := s.doneAt[instKey{unit, prevIdx, 0}]
			if !done {
				return
			}
			if pt.After(predTime) {
				predTime = pt
			}
		}
	}

	workers := append([]string(nil), s.dynWorkers[task]...)
	needsWorker := t.Kind != types.TaskKindMechanicalProc
	if needsWorker && len(workers) == 0 {
		return // waiting on a reassignment to staff this task
	}

	if t.Kind == types.TaskKindPreparation && t.DailyPreparation {
		if skipWorker, skip := s.dailyGate(workers, t.ID, predTime); skip {
			s.completeSkippedPrep(unit, task, iter, predTime, skipWorker)
			return
		}
	}

	workerReady := predTime
	bindingWorker := ""
	for _, w := range workers {
		if a := s.ledger.EarliestAvailable(w, predTime); a.After(workerReady) {
			workerReady = a
			bindingWorker = w
		}
	}
	machineReady := predTime
	if t.Machine != "" {
		if a := s.ledger.EarliestAvailable(t.Machine, predTime); a.After(machineReady) {
			machineReady = a
		}
	}
	resourceReady := workerReady
	if machineReady.After(resourceReady) {
		resourceReady = machineReady
	}

	start, end, err := s.cal.Advance(resourceReady, t.DurationMinutes)
	if err != nil {
		s.firstErr = err
		return
	}

	reason := classifyReason(predTime, resourceReady, workerReady, machineReady, start, end, s.cal)
	bindingResource := ""
	switch reason {
	case types.ReasonWaitedOnWorker:
		bindingResource = bindingWorker
	case types.ReasonWaitedOnMachine:
		bindingResource = t.Machine
	}

	for _, w := range workers {
		_ = s.ledger.Reserve(w, start, end, t.ID)
	}
	if t.Machine != "" {
		_ = s.ledger.Reserve(t.Machine, start, end, t.ID)
	}

	if t.Kind == types.TaskKindPreparation && t.DailyPreparation {
		s.markDailyDone(workers, start, t.ID)
	}

	groupName := ""
	if group != nil {
		groupName = group.Name
	}
	inst := &types.TaskInstance{
		ID:             uuid.NewString(),
		TaskID:         t.ID,
		UnitIndex:      unit,
		IterationIndex: iter,
		Start:          start,
		End:            end,
		Workers:        workers,
		Machine:        t.Machine,
		Status:         types.StatusCompleted,
		CycleGroup:     groupName,
		Reason:         reason,
	}

	s.dispatched[key] = true
	s.tr.RecordReason(types.ReasonLogEntry{At: start, TaskID: t.ID, Unit: unit, Reason: reason, Resource: bindingResource})

	s.fireReassignments(types.TriggerOnStart, task, unit, iter, start)
	s.q.Push(end, eventqueue.KindTaskComplete, completePayload{unit: unit, task: task, iter: iter, inst: inst})
}

// dailyGate reports whether any candidate worker has already been
// dispatched on this daily preparation step today, and if so which
// worker gated it. Gating is keyed off dispatch time, not completion, so
// two units whose ready-checks land in the same instant cannot both slip
// through before either one finishes.
func (s *sim) dailyGate(workers []string, taskID string, at time.Time) (string, bool) {
	day := dayKey(at)
	for _, w := range workers {
		if s.dailyDone[w] != nil && s.dailyDone[w][day] != nil && s.dailyDone[w][day][taskID] {
			return w, true
		}
	}
	return "", false
}

// markDailyDone records that workers performed taskID's daily step on
// start's calendar day.
func (s *sim) markDailyDone(workers []string, start time.Time, taskID string) {
	day := dayKey(start)
	for _, w := range workers {
		if s.dailyDone[w] == nil {
			s.dailyDone[w] = make(map[string]map[string]bool)
		}
		if s.dailyDone[w][day] == nil {
			s.dailyDone[w][day] = make(map[string]bool)
		}
		s.dailyDone[w][day][taskID] = true
	}
}

// completeSkippedPrep records a zero-duration, reservation-free instance
// for a daily preparation step already performed today, then cascades
// readiness to its successors exactly as a normal completion would.
func (s *sim) completeSkippedPrep(unit, task, iter int, at time.Time, worker string) {
	t := s.f.Task(task)
	ready, err := s.cal.NextWorkingMinute(at)
	if err != nil {
		s.firstErr = err
		return
	}
	key := instKey{unit, task, iter}
	s.dispatched[key] = true
	inst := types.TaskInstance{
		ID:             uuid.NewString(),
		TaskID:         t.ID,
		UnitIndex:      unit,
		IterationIndex: iter,
		Start:          ready,
		End:            ready,
		Workers:        []string{worker},
		Status:         types.StatusCompleted,
		Reason:         types.ReasonDailyPrepSkipped,
	}
	s.tr.RecordReason(types.ReasonLogEntry{At: ready, TaskID: t.ID, Unit: unit, Reason: types.ReasonDailyPrepSkipped, Resource: worker})
	s.finishInstance(unit, task, iter, inst)
}

// classifyReason picks the single reason tag that best explains why an
// instance starts when it does. Crossing a calendar boundary takes
// priority even over an otherwise on-time start, since a task whose
// duration spans a break or an off-shift night still "waited on the
// calendar" for part of its run.
func classifyReason(predTime, resourceReady, workerReady, machineReady, start, end time.Time, cal *calendar.Calendar) types.ReasonTag {
	if cal.CrossesBoundary(start, end) {
		return types.ReasonWaitedOnCalendar
	}
	if !start.Equal(resourceReady) {
		return types.ReasonWaitedOnCalendar
	}
	if workerReady.After(predTime) && !workerReady.Before(machineReady) {
		return types.ReasonWaitedOnWorker
	}
	if machineReady.After(predTime) {
		return types.ReasonWaitedOnMachine
	}
	return types.ReasonWaitedOnPredecessor
}

// onComplete finishes a dispatched instance: records it, fires any
// on-complete reassignments, and cascades readiness to
// whatever comes next (in-group successors, a cycle-tail's iteration
// advance, or ordinary/sequential-group successors).
func (s *sim) onComplete(p completePayload, at time.Time) {
	s.finishInstance(p.unit, p.task, p.iter, *p.inst)
}

func (s *sim) finishInstance(unit, task, iter int, inst types.TaskInstance) {
	t := s.f.Task(task)
	key := instKey{unit, task, iter}
	s.doneAt[key] = inst.End
	s.tr.RecordInstance(inst)

	for _, groupName := range s.feederGroups[t.ID] {
		s.cyc.OnFeederComplete(unit, groupName)
	}

	s.fireReassignments(types.TriggerOnComplete, task, unit, iter, inst.End)

	group := s.f.CycleGroupOf(task)
	if group == nil {
		s.emitReadyBatch(unit, s.f.Successors(task), 0, inst.End)
		if t.GroupKey != "" {
			if nextIdx, ok := s.groupNext[t.GroupKey][t.GroupPosition+1]; ok {
				s.emitReady(unit, nextIdx, 0, inst.End)
			}
		}
		return
	}

	if group.TailTaskID != t.ID {
		s.emitReadyBatch(unit, s.f.Successors(task), iter, inst.End)
		return
	}

	// tail of its cycle group: push an iteration-advance event so the
	// decision to reopen or close goes through the main dispatch loop.
	s.q.Push(inst.End, eventqueue.KindIterationAdvance, iterAdvancePayload{
		unit: unit, group: group.Name, tailTask: task, iteration: iter, at: inst.End,
	})
}

func (s *sim) onIterationAdvance(p iterAdvancePayload) {
	next, closed, err := s.cyc.OnTailComplete(p.unit, p.group, p.iteration)
	if err != nil {
		s.firstErr = err
		return
	}
	metrics.CycleIterationsTotal.WithLabelValues(p.group).Inc()
	s.fireReassignments(types.TriggerOnIterationK, p.tailTask, p.unit, p.iteration, p.at)

	cg := s.f.CycleGroupOf(p.tailTask)
	if closed {
		s.emitReadyBatch(p.unit, s.f.Successors(p.tailTask), 0, p.at)
		return
	}
	headIdx := s.f.IndexOf(cg.HeadTaskID)
	s.emitReady(p.unit, headIdx, next, p.at)
}

// fireReassignments enqueues a reassignment-trigger event for every rule
// keyed to (trigger, sourceIdx) at the given instant.
func (s *sim) fireReassignments(trigger types.ReassignTrigger, sourceIdx, unit, iter int, at time.Time) {
	sourceID := s.f.Task(sourceIdx).ID
	for _, ownerIdx := range s.rulesBySource[sourceID] {
		rule := s.f.Task(ownerIdx).Reassignment
		if rule == nil || !reassignment.ShouldFire(rule, trigger, iter) {
			continue
		}
		s.q.Push(at, eventqueue.KindReassignmentTrigger, reassignPayload{rule: rule, unit: unit})
	}
}

func (s *sim) onReassignTrigger(p reassignPayload, at time.Time) {
	staffed := func(targetID string) bool {
		idx := s.f.IndexOf(targetID)
		if idx < 0 {
			return false
		}
		return len(s.dynWorkers[idx]) > 0
	}

	outcome, resumeAt := s.reassign.Apply(p.rule, at, staffed)
	switch outcome {
	case reassignment.OutcomeApplied:
		metrics.ReassignmentsTotal.Inc()
		srcIdx := s.f.IndexOf(p.rule.SourceTaskID)
		tgtIdx := s.f.IndexOf(p.rule.TargetTaskID)
		if srcIdx >= 0 {
			s.dynWorkers[srcIdx] = removeWorker(s.dynWorkers[srcIdx], p.rule.Worker)
		}
		if tgtIdx >= 0 {
			s.dynWorkers[tgtIdx] = append(s.dynWorkers[tgtIdx], p.rule.Worker)
			s.emitReady(p.unit, tgtIdx, 0, at)
		}
	case reassignment.OutcomeDeferred:
		s.tr.RecordReason(types.ReasonLogEntry{At: at, TaskID: p.rule.TargetTaskID, Unit: p.unit, Reason: types.ReasonReassignmentDeferred, Resource: p.rule.Worker})
		s.q.Push(resumeAt, eventqueue.KindReassignmentTrigger, p)
	case reassignment.OutcomeSuppressed:
		metrics.ReassignmentsSuppressedTotal.Inc()
		s.tr.RecordReason(types.ReasonLogEntry{At: at, TaskID: p.rule.TargetTaskID, Unit: p.unit, Reason: types.ReasonReassignmentDeferred, Resource: p.rule.Worker})
	}
}

func removeWorker(workers []string, name string) []string {
	out := make([]string, 0, len(workers))
	removed := false
	for _, w := range workers {
		if !removed && w == name {
			removed = true
			continue
		}
		out = append(out, w)
	}
	return out
}

// assembleResult builds the final SimulationResult from the recorder and
// ledger once the run has quiesced cleanly.
func (s *sim) assembleResult() *types.SimulationResult {
	instances := s.tr.Instances()
	reasonLog := s.tr.ReasonLog()

	var makespan types.Makespan
	for i, inst := range instances {
		if i == 0 || inst.Start.Before(makespan.Start) {
			makespan.Start = inst.Start
		}
		if i == 0 || inst.End.After(makespan.End) {
			makespan.End = inst.End
		}
	}

	workerOcc := make(map[string][]types.OccupancyInterval)
	machineOcc := make(map[string][]types.OccupancyInterval)
	machines := make(map[string]bool)
	for i := range s.f.Tasks {
		if m := s.f.Task(i).Machine; m != "" {
			machines[m] = true
		}
	}
	for _, resource := range s.ledger.Resources() {
		occ := s.ledger.Occupancy(resource)
		if machines[resource] {
			machineOcc[resource] = occ
		} else {
			workerOcc[resource] = occ
		}
	}

	return &types.SimulationResult{
		Makespan:         makespan,
		Instances:        instances,
		WorkerOccupancy:  workerOcc,
		MachineOccupancy: machineOcc,
		Bottleneck:       trace.Bottleneck(reasonLog),
		ReasonLog:        reasonLog,
	}
}
