package core

import (
	"context"
	"fmt"

	"github.com/qgrid-team/qgrid/ir"
	"go.uber.org/dig"
)

const MockPlotImage = "iVBORw0KGgo="

type UnimplementedSimulator struct{}

func (u *UnimplementedSimulator) Setup(*Conf) error { return nil }
func (u *UnimplementedSimulator) Simulate(context.Context, ir.Document, []byte) (*SimulationResult, error) {
	return &SimulationResult{PlotImage: MockPlotImage}, nil
}
func (u *UnimplementedSimulator) TearDown() {}

// UnimplementedPropagator echoes the document back.
type UnimplementedPropagator struct{}

func (u *UnimplementedPropagator) Setup(*Conf) error { return nil }
func (u *UnimplementedPropagator) Propagate(_ context.Context, doc ir.Document) (ir.Document, error) {
	return doc, nil
}
func (u *UnimplementedPropagator) TearDown() {}

type failingPropagatorForTest struct {
	UnimplementedPropagator
}

func (failingPropagatorForTest) Propagate(context.Context, ir.Document) (ir.Document, error) {
	return nil, fmt.Errorf("%w/reason:exit status 1", ErrorExternalServiceFailure)
}

// InlineScheduler runs every task on the caller's goroutine.
type InlineScheduler struct {
	Submitted int
}

func (s *InlineScheduler) Setup(*Conf) error { return nil }
func (s *InlineScheduler) Start() error      { return nil }
func (s *InlineScheduler) Submit(ctx context.Context, task Task) error {
	s.Submitted++
	return task(ctx)
}
func (s *InlineScheduler) GetCurrentQueueSize() int { return 0 }
func (s *InlineScheduler) TearDown()                {}

type unimplementedSessionStore struct{}

func (u *unimplementedSessionStore) Setup(*Conf) error { return nil }
func (u *unimplementedSessionStore) Len() int          { return 0 }
func (u *unimplementedSessionStore) TearDown()         {}

func SCWithUnimplementedContainer() *SystemComponents {
	c := dig.New()
	c.Provide(func() Simulator { return &UnimplementedSimulator{} })
	c.Provide(func() Propagator { return &UnimplementedPropagator{} })
	c.Provide(func() Scheduler { return &InlineScheduler{} })
	c.Provide(func() SessionStore { return &unimplementedSessionStore{} })
	s := NewSystemComponents(c)
	s.Setup(&Conf{})
	return s
}

func SCWithFailingPropagatorContainer() *SystemComponents {
	c := dig.New()
	c.Provide(func() Simulator { return &UnimplementedSimulator{} })
	c.Provide(func() Propagator { return &failingPropagatorForTest{} })
	c.Provide(func() Scheduler { return &InlineScheduler{} })
	c.Provide(func() SessionStore { return &unimplementedSessionStore{} })
	s := NewSystemComponents(c)
	s.Setup(&Conf{})
	return s
}

func SCWithScheduler(sc Scheduler) *SystemComponents {
	c := dig.New()
	c.Provide(func() Simulator { return &UnimplementedSimulator{} })
	c.Provide(func() Propagator { return &UnimplementedPropagator{} })
	c.Provide(func() Scheduler { return sc })
	c.Provide(func() SessionStore { return &unimplementedSessionStore{} })
	s := NewSystemComponents(c)
	s.Setup(&Conf{QueueMaxSize: 1000})
	return s
}

// SCWithBackends wires sim and p behind an InlineScheduler.
func SCWithBackends(sim Simulator, p Propagator) *SystemComponents {
	c := dig.New()
	c.Provide(func() Simulator { return sim })
	c.Provide(func() Propagator { return p })
	c.Provide(func() Scheduler { return &InlineScheduler{} })
	c.Provide(func() SessionStore { return &unimplementedSessionStore{} })
	s := NewSystemComponents(c)
	s.Setup(&Conf{})
	return s
}
