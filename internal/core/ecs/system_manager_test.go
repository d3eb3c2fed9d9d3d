package ecs

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSystem struct {
	name        SystemType
	phase       Phase
	calls       int
	shouldError bool
	sleep       time.Duration
	mutex       sync.Mutex
}

func newMockSystem(name SystemType, phase Phase) *mockSystem {
	return &mockSystem{name: name, phase: phase}
}

func (s *mockSystem) Name() SystemType { return s.name }
func (s *mockSystem) Phase() Phase     { return s.phase }

func (s *mockSystem) Update(world *World, dt float64) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.sleep > 0 {
		time.Sleep(s.sleep)
	}
	s.calls++
	if s.shouldError {
		return errors.New("mock system error")
	}
	return nil
}

func (s *mockSystem) callCount() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.calls
}

func newTestScheduler() *Scheduler {
	return NewScheduler(DefaultWorldConfig(), zerolog.Nop())
}

func runEmptyFrame(t *testing.T, s *Scheduler, dt time.Duration) {
	t.Helper()
	noop := func(time.Duration, SystemType) error { return nil }
	require.NoError(t, s.ExecuteFrame(dt, noop, noop, nil))
}

func TestScheduler_RegisterSystem_DuplicateNameRejected(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.RegisterSystem(newMockSystem("a", PhaseFixed)))
	err := s.RegisterSystem(newMockSystem("a", PhaseFixed))
	require.Error(t, err)
	ecsErr, ok := AsECSError(err)
	require.True(t, ok)
	assert.Equal(t, ErrDuplicateName.Code, ecsErr.Code)
}

func TestScheduler_RegisterSystem_UnknownDependencyIsIgnoredNotRejected(t *testing.T) {
	s := newTestScheduler()
	err := s.RegisterSystem(newMockSystem("a", PhaseFixed), "does-not-exist")
	require.NoError(t, err)
}

func TestScheduler_TopologicalOrder_RespectsDependencies(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.RegisterSystem(newMockSystem("physics", PhaseFixed)))
	require.NoError(t, s.RegisterSystem(newMockSystem("movement", PhaseFixed), "physics"))
	require.NoError(t, s.RegisterSystem(newMockSystem("rendering", PhaseVariable), "movement"))

	physicsIdx, movementIdx, renderingIdx := -1, -1, -1
	for i, name := range s.order {
		switch name {
		case "physics":
			physicsIdx = i
		case "movement":
			movementIdx = i
		case "rendering":
			renderingIdx = i
		}
	}
	assert.Less(t, physicsIdx, movementIdx)
	assert.Less(t, movementIdx, renderingIdx)
}

func TestScheduler_CyclicDependency_IsDetectedAndOldOrderKept(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.RegisterSystem(newMockSystem("a", PhaseFixed)))
	require.NoError(t, s.RegisterSystem(newMockSystem("b", PhaseFixed), "a"))

	s.mutex.Lock()
	s.records["a"].dependencies = append(s.records["a"].dependencies, "b")
	err := s.recomputeOrderLocked()
	s.mutex.Unlock()

	require.Error(t, err)
	ecsErr, ok := AsECSError(err)
	require.True(t, ok)
	assert.Equal(t, ErrCyclicDependency.Code, ecsErr.Code)
	assert.Len(t, s.order, 2, "prior valid order must survive a failed recompute")
}

func TestScheduler_UnregisterSystem_DropsItFromOrderAndDependencies(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.RegisterSystem(newMockSystem("a", PhaseFixed)))
	require.NoError(t, s.RegisterSystem(newMockSystem("b", PhaseFixed), "a"))

	require.NoError(t, s.UnregisterSystem("a"))
	assert.NotContains(t, s.order, SystemType("a"))
	assert.Empty(t, s.records["b"].dependencies)
}

func TestScheduler_ExecuteFrame_RunsFixedSystemsPerAccumulatedStep(t *testing.T) {
	s := newTestScheduler()
	sys := newMockSystem("a", PhaseFixed)
	require.NoError(t, s.RegisterSystem(sys))

	noop := func(dt time.Duration, name SystemType) error { return sys.Update(nil, dt.Seconds()) }
	require.NoError(t, s.ExecuteFrame(s.fixedDT*3, noop, func(time.Duration, SystemType) error { return nil }, nil))

	assert.Equal(t, 3, sys.callCount())
}

func TestScheduler_ExecuteFrame_ClampsToMaxDT(t *testing.T) {
	s := newTestScheduler()
	s.fixedDT = time.Second / 60
	s.maxDT = time.Second / 10

	runEmptyFrame(t, s, time.Second)
	hist := s.Stats().DTHistorySeconds
	require.NotEmpty(t, hist)
	assert.InDelta(t, s.maxDT.Seconds(), hist[len(hist)-1], 0.0001)
}

func TestScheduler_Pause_StopsFixedButNotVariable(t *testing.T) {
	s := newTestScheduler()
	fixed := newMockSystem("fixed", PhaseFixed)
	variable := newMockSystem("variable", PhaseVariable)
	require.NoError(t, s.RegisterSystem(fixed))
	require.NoError(t, s.RegisterSystem(variable))

	s.Pause()
	runFixed := func(dt time.Duration, name SystemType) error { return fixed.Update(nil, dt.Seconds()) }
	runVariable := func(dt time.Duration, name SystemType) error { return variable.Update(nil, dt.Seconds()) }
	require.NoError(t, s.ExecuteFrame(s.fixedDT, runFixed, runVariable, nil))

	assert.Equal(t, 0, fixed.callCount())
	assert.Equal(t, 1, variable.callCount(), "variable phase keeps running while paused")
}

func TestScheduler_Step_RunsExactlyOneFixedIterationWhilePaused(t *testing.T) {
	s := newTestScheduler()
	fixed := newMockSystem("fixed", PhaseFixed)
	require.NoError(t, s.RegisterSystem(fixed))

	s.Pause()
	s.Step()
	runFixed := func(dt time.Duration, name SystemType) error { return fixed.Update(nil, dt.Seconds()) }
	runVariable := func(time.Duration, SystemType) error { return nil }
	require.NoError(t, s.ExecuteFrame(s.fixedDT, runFixed, runVariable, nil))

	assert.Equal(t, 1, fixed.callCount())
	assert.True(t, s.IsPaused(), "Step does not implicitly resume")
}

func TestScheduler_RunTimed_TracksMetricsAndErrors(t *testing.T) {
	s := newTestScheduler()
	sys := newMockSystem("a", PhaseFixed)
	sys.shouldError = true
	require.NoError(t, s.RegisterSystem(sys))

	run := func(dt time.Duration, name SystemType) error { return sys.Update(nil, dt.Seconds()) }
	err := s.ExecuteFrame(s.fixedDT, run, func(time.Duration, SystemType) error { return nil }, nil)
	require.Error(t, err)

	stats := s.Stats()
	require.Len(t, stats.Systems, 1)
	assert.EqualValues(t, 1, stats.Systems[0].ErrorCount)
}

func TestScheduler_DTHistory_IsBoundedByConfiguredCap(t *testing.T) {
	cfg := DefaultWorldConfig()
	cfg.DTHistorySize = 3
	s := NewScheduler(cfg, zerolog.Nop())

	for i := 0; i < 10; i++ {
		runEmptyFrame(t, s, time.Millisecond)
	}
	assert.Len(t, s.Stats().DTHistorySeconds, 3)
}
