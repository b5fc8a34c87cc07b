package core

import (
	"context"
	"time"

	"github.com/qgrid-team/qgrid/grid"
	"github.com/qgrid-team/qgrid/ir"
	"go.uber.org/dig"
	"go.uber.org/zap"
)

var systemComponents *SystemComponents

type SimulationResult struct {
	PlotImage string `json:"plotImage"`
}

type Simulator interface {
	Setup(*Conf) error
	Simulate(ctx context.Context, doc ir.Document, noiseModel []byte) (*SimulationResult, error)
	TearDown()
}

type Propagator interface {
	Setup(*Conf) error
	Propagate(ctx context.Context, doc ir.Document) (ir.Document, error)
	TearDown()
}

// Task is a unit of backend work run by the Scheduler.
type Task func(ctx context.Context) error

type Scheduler interface {
	Setup(*Conf) error
	Start() error
	Submit(ctx context.Context, task Task) error
	GetCurrentQueueSize() int
	TearDown()
}

type SessionStore interface {
	Setup(*Conf) error
	Len() int
	TearDown()
}

type SystemComponents struct {
	*dig.Container
}

func NewSystemComponents(con *dig.Container) *SystemComponents {
	return &SystemComponents{
		con,
	}
}

func GetSystemComponents() *SystemComponents {
	return systemComponents
}

func (s *SystemComponents) Setup(conf *Conf) error {
	zap.L().Debug("Setting up simulator")
	err := s.Invoke(
		func(sim Simulator) error {
			return sim.Setup(conf)
		})
	if err != nil {
		return err
	}

	zap.L().Debug("Setting up propagator")
	err = s.Invoke(
		func(p Propagator) error {
			return p.Setup(conf)
		})
	if err != nil {
		return err
	}

	zap.L().Debug("Setting up scheduler")
	err = s.Invoke(
		func(sc Scheduler) error {
			return sc.Setup(conf)
		})
	if err != nil {
		return err
	}

	zap.L().Debug("Setting up session store")
	err = s.Invoke(
		func(ss SessionStore) error {
			return ss.Setup(conf)
		})
	if err != nil {
		return err
	}
	systemComponents = s
	return nil
}

func (s *SystemComponents) TearDown() {
	_ = s.Invoke(
		func(ss SessionStore) {
			ss.TearDown()
		})
	_ = s.Invoke(
		func(sc Scheduler) {
			sc.TearDown()
		})
	_ = s.Invoke(
		func(p Propagator) {
			p.TearDown()
		})
	_ = s.Invoke(
		func(sim Simulator) {
			sim.TearDown()
		})
}

func (s *SystemComponents) StartContainer() error {
	return s.Container.Invoke(
		func(sc Scheduler) error {
			return sc.Start()
		})
}

func (s *SystemComponents) GetCurrentQueueSize() int {
	var size int
	s.Invoke(
		func(sc Scheduler) {
			size = sc.GetCurrentQueueSize()
		})
	return size
}

func (s *SystemComponents) GetSessionCount() int {
	var count int
	s.Invoke(
		func(ss SessionStore) {
			count = ss.Len()
		})
	return count
}

func BackendTimeout(c *Conf) time.Duration {
	return time.Duration(c.BackendTimeoutSec) * time.Second
}

func GridConfig(c *Conf) grid.Config {
	return grid.Config{
		MaxRows:    c.GridMaxRows,
		MaxColumns: c.GridMaxColumns,
		MinColumns: c.GridMinColumns,
	}
}
