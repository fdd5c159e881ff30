package motionplan

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// InvocationCounters is used to count the number of times a method has been invoked and the
// accumulated time spent in that function.
type InvocationCounters struct {
	calls     atomic.Int64
	timeNanos atomic.Int64
}

// PlanMeta collects timing of the stages of planning runs.
type PlanMeta struct {
	timingMu sync.Mutex
	Timing   map[string]*InvocationCounters
}

// NewPlanMeta constructs PlanMeta.
func NewPlanMeta() *PlanMeta {
	return &PlanMeta{
		Timing: make(map[string]*InvocationCounters),
	}
}

// DeferTiming can be used as a one-liner for tracking a function invocation. Expected usage at the
// top of a function is:
//
//	defer planMeta.DeferTiming("functionName", time.Now())
func (pm *PlanMeta) DeferTiming(opName string, start time.Time) {
	pm.AddTiming(opName, time.Since(start))
}

// AddTiming will increment the invocation count and time spent for an "operation".
func (pm *PlanMeta) AddTiming(opName string, dur time.Duration) {
	pm.timingMu.Lock()
	defer pm.timingMu.Unlock()

	counters, exists := pm.Timing[opName]
	if !exists {
		counters = &InvocationCounters{}
		pm.Timing[opName] = counters
	}
	counters.calls.Inc()
	counters.timeNanos.Add(dur.Nanoseconds())
}

// Counters returns the counters of an operation, nil when it never ran.
func (pm *PlanMeta) Counters(opName string) *InvocationCounters {
	pm.timingMu.Lock()
	defer pm.timingMu.Unlock()
	return pm.Timing[opName]
}

// OutputTiming prints one line per operation, sorted by name.
func (pm *PlanMeta) OutputTiming(outputWriter io.Writer) {
	pm.timingMu.Lock()
	defer pm.timingMu.Unlock()
	names := make([]string, 0, len(pm.Timing))
	for name := range pm.Timing {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		//nolint:errcheck
		fmt.Fprintf(outputWriter, "%-24s %v\n", name+":", pm.Timing[name])
	}
}

// Calls returns the number of times a function was called.
func (ic *InvocationCounters) Calls() int64 {
	if ic == nil {
		return 0
	}

	return ic.calls.Load()
}

// TotalTimeNanos returns the total accumulated runtime of a function as a time in nanoseconds.
func (ic *InvocationCounters) TotalTimeNanos() int64 {
	if ic == nil {
		return 0
	}

	return ic.timeNanos.Load()
}

// TotalTime returns the total accumulated runtime of a function as a time.Duration.
func (ic *InvocationCounters) TotalTime() time.Duration {
	return time.Duration(ic.TotalTimeNanos())
}

// Average returns the average time spent per function invocation. Returns a zero-value when a
// function was not called.
func (ic *InvocationCounters) Average() time.Duration {
	calls := ic.Calls()
	if calls == 0 {
		return time.Duration(0)
	}

	return time.Duration(ic.TotalTimeNanos() / calls)
}

// String is a pretty-formated string representation of the number of calls/total time/average.
func (ic *InvocationCounters) String() string {
	// Calls is fixed at three spaces, right aligned.
	// Total time is fixed at thirteen spaces, left aligned.
	return fmt.Sprintf("Calls: %3d Total time: %-13s Average time: %v",
		ic.Calls(), ic.TotalTime(), ic.Average())
}
