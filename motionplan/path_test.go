package motionplan

import (
	"math"
	"testing"

	"go.viam.com/test"

	"go.viam.com/planctx/referenceframe"
)

func TestPathGeometric(t *testing.T) {
	si := armSpaceInformation(t, false)
	start := inputs(0, 0, 0)
	p := NewPathGeometric(si, start, inputs(1, 0, 0), inputs(1, 2, 0))
	start[0].Value = 5
	test.That(t, p.State(0)[0].Value, test.ShouldEqual, 0)
	test.That(t, p.StateCount(), test.ShouldEqual, 3)
	test.That(t, p.Length(), test.ShouldAlmostEqual, 3)
	test.That(t, p.Check(), test.ShouldBeTrue)
	test.That(t, p.String(), test.ShouldContainSubstring, "2:")

	cp := p.Copy()
	cp.Reverse()
	test.That(t, cp.State(0), test.ShouldResemble, inputs(1, 2, 0))
	test.That(t, p.State(0), test.ShouldResemble, inputs(0, 0, 0))

	cp.Append(inputs(4, 0, 0))
	test.That(t, cp.Check(), test.ShouldBeFalse)
	test.That(t, NewPathGeometric(si).Check(), test.ShouldBeFalse)
}

func TestPathInterpolate(t *testing.T) {
	si := armSpaceInformation(t, false)
	p := NewPathGeometric(si, inputs(0, 0, 0), inputs(1, 0, 0), inputs(1, 3, 0))
	length := p.Length()

	p.Interpolate(2)
	test.That(t, p.StateCount(), test.ShouldEqual, 3)

	p.Interpolate(11)
	test.That(t, p.StateCount(), test.ShouldEqual, 11)
	test.That(t, p.Length(), test.ShouldAlmostEqual, length)
	test.That(t, p.State(0), test.ShouldResemble, inputs(0, 0, 0))
	test.That(t, p.State(10), test.ShouldResemble, inputs(1, 3, 0))
	// the longer segment gets three times the states: two on the first segment, then the corner
	onFirst := 0
	for _, s := range p.States()[1:10] {
		if s[1].Value == 0 {
			onFirst++
		}
	}
	test.That(t, onFirst, test.ShouldEqual, 3)
	test.That(t, p.State(3), test.ShouldResemble, inputs(1, 0, 0))
}

func TestComputeFastTimeParametrization(t *testing.T) {
	si := armSpaceInformation(t, false)
	states := make([][]referenceframe.Input, 0, 21)
	for i := 0; i <= 20; i++ {
		states = append(states, inputs(float64(i)*0.1, 0, 0))
	}
	p := NewPathGeometric(si, states...)

	times := p.ComputeFastTimeParametrization(1, 1, 50)
	test.That(t, len(times), test.ShouldEqual, 21)
	test.That(t, times[0], test.ShouldEqual, 0)
	for i := 1; i < len(times); i++ {
		dt := times[i] - times[i-1]
		test.That(t, dt, test.ShouldBeGreaterThan, 0)
		// never faster than the velocity limit
		test.That(t, 0.1/dt, test.ShouldBeLessThanOrEqualTo, 1+1e-9)
	}
	// starting from rest takes longer than cruising
	test.That(t, times[1]-times[0], test.ShouldBeGreaterThan, times[11]-times[10])
	test.That(t, times[20], test.ShouldBeGreaterThan, 2)

	faster := p.ComputeFastTimeParametrization(2, 4, 50)
	test.That(t, faster[20], test.ShouldBeLessThan, times[20])

	// unset limits behave like 1
	defaults := p.ComputeFastTimeParametrization(0, -1, 50)
	test.That(t, defaults[20], test.ShouldAlmostEqual, times[20])

	single := NewPathGeometric(si, inputs(0, 0, 0))
	test.That(t, single.ComputeFastTimeParametrization(1, 1, 50), test.ShouldResemble, []float64{0})

	repeated := NewPathGeometric(si, inputs(0, 0, 0), inputs(0, 0, 0), inputs(1, 0, 0))
	rt := repeated.ComputeFastTimeParametrization(1, 1, 50)
	test.That(t, rt[1], test.ShouldEqual, 0)
	test.That(t, math.IsNaN(rt[2]), test.ShouldBeFalse)
	test.That(t, rt[2], test.ShouldBeGreaterThan, 0)
}

func TestPathSimplifier(t *testing.T) {
	si := armSpaceInformation(t, true)
	// a detour over the wall with needless zig-zags
	p := NewPathGeometric(si,
		inputs(0, 0, 0),
		inputs(0.1, 0.3, 0.2),
		inputs(0.2, 0.6, -0.2),
		inputs(0.4, 1.2, 0.3),
		inputs(0.6, 1.3, -0.3),
		inputs(0.8, 1.2, 0.3),
		inputs(1.0, 1.1, -0.3),
		inputs(1.2, 0.5, 0.2),
		inputs(1.5, 0, 0),
	)
	test.That(t, p.Check(), test.ShouldBeTrue)
	before := p.Length()

	ps := NewPathSimplifier(si)
	ps.SimplifyMax(p)
	test.That(t, p.Check(), test.ShouldBeTrue)
	test.That(t, p.Length(), test.ShouldBeLessThan, before)
	test.That(t, p.State(0), test.ShouldResemble, inputs(0, 0, 0))
	test.That(t, p.State(p.StateCount()-1), test.ShouldResemble, inputs(1.5, 0, 0))

	t.Run("free space collapses to the endpoints", func(t *testing.T) {
		free := armSpaceInformation(t, false)
		p := NewPathGeometric(free, inputs(0, 0, 0), inputs(0.5, 0.5, 0), inputs(1, 0, 0), inputs(1.5, 0.5, 0), inputs(2, 0, 0))
		test.That(t, NewPathSimplifier(free).ReduceVertices(p, 1), test.ShouldBeTrue)
		NewPathSimplifier(free).SimplifyMax(p)
		test.That(t, p.StateCount(), test.ShouldEqual, 2)
		test.That(t, p.Length(), test.ShouldAlmostEqual, 2)
	})

	t.Run("terminated simplification leaves the path alone", func(t *testing.T) {
		p := NewPathGeometric(si, inputs(0, 0, 0), inputs(0.1, 0.1, 0), inputs(0.2, 0, 0))
		ptc := NewTerminationCondition(nil)
		ptc.Terminate()
		NewPathSimplifier(si).Simplify(p, ptc)
		test.That(t, p.StateCount(), test.ShouldEqual, 3)
	})
}
