package core

import (
	"context"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/oklog/run"
	"github.com/qgrid-team/qgrid/common"
	"go.uber.org/zap"
)

var runContext *RunContext

const (
	PERIODIC_TASKS = "periodic_tasks"
	API_SERVERS    = "api_servers"
)

type PeriodicTaskImplMap map[string]PeriodicTaskImpl
type APIServerImplMap map[string]APIServerImpl

type PeriodicTaskMap map[string]*PeriodicTask
type APIServerMap map[string]*APIServer

type ImplMaps struct {
	PeriodicTaskImplMap PeriodicTaskImplMap
	APIServerImplMap    APIServerImplMap
}

type Runner interface {
	*PeriodicTask | *APIServer
	GetParams() interface{}
}

type RunnerImpl interface {
	GetEmptyParams() interface{}
	SetParams(interface{}) error
	Setup() error
}

type RunContext struct {
	*run.Group
	context.Context

	settingsPath string

	RunGroupMaps *RunGroupMaps `toml:"run_group,omitempty"`
}

type RunGroupMaps struct {
	PeriodicTasks PeriodicTaskMap `toml:"periodic_tasks"`
	APIServers    APIServerMap    `toml:"api_servers"`
}

type runGroupSetting struct {
	Entries map[string]interface{} `toml:"run_group,omitempty"`
}

func newRunGroupMaps() *RunGroupMaps {
	return &RunGroupMaps{
		PeriodicTasks: make(PeriodicTaskMap),
		APIServers:    make(APIServerMap),
	}
}

func NewRunContext() *RunContext {
	return &RunContext{
		Group:        &run.Group{},
		Context:      context.Background(),
		RunGroupMaps: newRunGroupMaps(),
	}
}

// NewRunContextWithSettingPath builds the run group declared in the [run_group] tables.
// Runner names must exist in im. Each runner gets its params decoded, set and
// set up before it joins the group.
func NewRunContextWithSettingPath(settingsPath string, im *ImplMaps) (*RunContext, error) {
	tomlString, err := common.ReadSettingsFile(settingsPath)
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to read settings file/reason:%s", err))
		return nil, err
	}
	rc, err := newRunContextFromTOML(tomlString, im)
	if err != nil {
		return nil, err
	}
	rc.settingsPath = settingsPath
	zap.L().Info("Successfully initialized RunContext", zap.Any("RunGroupMaps", rc.RunGroupMaps))
	return rc, nil
}

func newRunContextFromTOML(tomlString string, im *ImplMaps) (*RunContext, error) {
	s := &runGroupSetting{Entries: make(map[string]interface{})}
	if metadata, err := toml.Decode(tomlString, s); err != nil {
		zap.L().Error(fmt.Sprintf("failed to decode run group setting/reason:%s/metadata:%v", err, metadata))
		return nil, err
	}
	rgm, err := parseRunGroupSettings(s.Entries, im)
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to parse run group settings/reason:%s", err))
		return nil, err
	}
	rc := NewRunContext()
	rc.RunGroupMaps = rgm

	// toml.Decode replaces the runner values, so the impls are stashed and restored
	ptImpls := make(PeriodicTaskImplMap)
	for name, task := range rgm.PeriodicTasks {
		ptImpls[name] = task.PeriodicTaskImpl
	}
	asImpls := make(APIServerImplMap)
	for name, server := range rgm.APIServers {
		asImpls[name] = server.APIServerImpl
	}
	if metadata, err := toml.Decode(tomlString, rc); err != nil {
		zap.L().Error(fmt.Sprintf("failed to decode run group/reason:%s/metadata:%v", err, metadata))
		return nil, err
	}
	for name, task := range rc.RunGroupMaps.PeriodicTasks {
		task.PeriodicTaskImpl = ptImpls[name]
	}
	for name, server := range rc.RunGroupMaps.APIServers {
		server.APIServerImpl = asImpls[name]
	}

	if err := setParametersToImpl[*PeriodicTask](rc.RunGroupMaps.PeriodicTasks); err != nil {
		return nil, err
	}
	if err := setParametersToImpl[*APIServer](rc.RunGroupMaps.APIServers); err != nil {
		return nil, err
	}
	if err := setupImplAndAddToRunContext[*PeriodicTask](rc.RunGroupMaps.PeriodicTasks, rc.AddPeriodicTask); err != nil {
		return nil, err
	}
	if err := setupImplAndAddToRunContext[*APIServer](rc.RunGroupMaps.APIServers, rc.AddAPIServer); err != nil {
		return nil, err
	}
	return rc, nil
}

func parseRunGroupSettings(settings map[string]interface{}, im *ImplMaps) (*RunGroupMaps, error) {
	rgm := newRunGroupMaps()
	for group, value := range settings {
		entries, ok := value.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("run group %s must be a table", group)
		}
		switch group {
		case PERIODIC_TASKS:
			ptm, err := parseRunnerSettings[*PeriodicTask, PeriodicTaskImpl](entries, im.PeriodicTaskImplMap)
			if err != nil {
				return nil, err
			}
			rgm.PeriodicTasks = ptm
		case API_SERVERS:
			asm, err := parseRunnerSettings[*APIServer, APIServerImpl](entries, im.APIServerImplMap)
			if err != nil {
				return nil, err
			}
			rgm.APIServers = asm
		default:
			msg := fmt.Sprintf("unknown run group type/group:%s/value:%v", group, value)
			zap.L().Error(msg)
			return nil, fmt.Errorf("%s", msg)
		}
	}
	return rgm, nil
}

func parseRunnerSettings[R Runner, I RunnerImpl](settings map[string]interface{}, implMap map[string]I) (map[string]R, error) {
	runnerMap := make(map[string]R)
	for runnerName := range settings {
		impl, ok := implMap[runnerName]
		if !ok {
			msg := fmt.Sprintf("failed to find %s implementation", runnerName)
			zap.L().Error(msg)
			return nil, fmt.Errorf("%s", msg)
		}
		runner, err := newRunner[R, I](impl)
		if err != nil {
			zap.L().Error(fmt.Sprintf("failed to set implementation/name:%s/reason:%s", runnerName, err))
			return nil, err
		}
		runnerMap[runnerName] = runner
	}
	return runnerMap, nil
}

func newRunner[R Runner, I RunnerImpl](impl I) (runner R, err error) {
	switch any(runner).(type) {
	case *PeriodicTask:
		i, ok := any(impl).(PeriodicTaskImpl)
		if !ok {
			return runner, fmt.Errorf("failed to cast to PeriodicTaskImpl/impl:%v", impl)
		}
		return any(&PeriodicTask{PeriodicTaskImpl: i}).(R), nil
	case *APIServer:
		i, ok := any(impl).(APIServerImpl)
		if !ok {
			return runner, fmt.Errorf("failed to cast to APIServerImpl/impl:%v", impl)
		}
		return any(&APIServer{APIServerImpl: i}).(R), nil
	default:
		return runner, fmt.Errorf("unknown runner type:%T", runner)
	}
}

func setParametersToImpl[R Runner](runners map[string]R) error {
	for name, runner := range runners {
		if err := any(runner).(RunnerImpl).SetParams(runner.GetParams()); err != nil {
			zap.L().Error(fmt.Sprintf("failed to set parameters/name:%s/reason:%s", name, err))
			return err
		}
	}
	return nil
}

func setupImplAndAddToRunContext[R Runner](runners map[string]R, addFunc func(R, string) error) error {
	for name, runner := range runners {
		if err := any(runner).(RunnerImpl).Setup(); err != nil {
			zap.L().Error(fmt.Sprintf("failed to setup/name:%s/reason:%s", name, err))
			return err
		}
		if err := addFunc(runner, name); err != nil {
			zap.L().Error(fmt.Sprintf("failed to add runner/name:%s/reason:%s", name, err))
			return err
		}
		zap.L().Info(fmt.Sprintf("successfully added runner/name:%s", name))
	}
	return nil
}

func GetRunContext() *RunContext {
	return runContext
}

func SetRunContext(rc *RunContext) {
	runContext = rc
}

type PeriodicTask struct {
	Period time.Duration `toml:"period"`
	Params interface{}   `toml:"params,omitempty"`
	PeriodicTaskImpl
}

func (t *PeriodicTask) GetParams() interface{} {
	return t.Params
}

type PeriodicTaskImpl interface {
	RunnerImpl
	RequirePeriodUpdate() (ok bool, duration time.Duration)
	Task()
	Cleanup()
}

type DefaultTaskImpl struct{}

func (v *DefaultTaskImpl) Setup() error {
	return nil
}

func (v *DefaultTaskImpl) GetEmptyParams() interface{} {
	return v
}

func (v *DefaultTaskImpl) SetParams(p interface{}) error {
	return nil
}

func (v *DefaultTaskImpl) RequirePeriodUpdate() (bool, time.Duration) {
	return false, 0
}

func (v *DefaultTaskImpl) Task() {}

func (v *DefaultTaskImpl) Cleanup() {}

func (rc *RunContext) AddPeriodicTask(t *PeriodicTask, taskName string) error {
	if t.Period <= 0 {
		return fmt.Errorf("period of %s must be positive", taskName)
	}
	ctx, cancel := context.WithCancel(rc.Context)
	lastPeriod := t.Period
	rc.Group.Add(
		func() error {
			ticker := time.NewTicker(t.Period)
			zap.L().Info(fmt.Sprintf("[PeriodicTask/%s/Start]", taskName))
			t.PeriodicTaskImpl.Task()
			for {
				select {
				case <-ctx.Done():
					ticker.Stop()
					t.PeriodicTaskImpl.Cleanup()
					zap.L().Info(fmt.Sprintf("[PeriodicTask/%s/TearDown]cleaned up periodic task", taskName))
					return ctx.Err()
				case <-ticker.C:
					t.PeriodicTaskImpl.Task()
					ok, newPeriod := t.RequirePeriodUpdate()
					if ok && newPeriod > 0 && newPeriod != lastPeriod {
						zap.L().Info(fmt.Sprintf("[PeriodicTask/%s/ResetPeriod]from %v to %v",
							taskName, lastPeriod, newPeriod))
						ticker.Reset(newPeriod)
						lastPeriod = newPeriod
					}
				}
			}
		},
		func(error) {
			zap.L().Info(fmt.Sprintf("[PeriodicTask/%s/TearDown]cancelling periodic task", taskName))
			cancel()
		},
	)
	return nil
}

type APIServer struct {
	Params interface{} `toml:"params,omitempty"`
	APIServerImpl
}

func (s *APIServer) GetParams() interface{} {
	return s.Params
}

type APIServerImpl interface {
	RunnerImpl
	Serve() error
	Shutdown()
}

func NewAPIServer(impl APIServerImpl) *APIServer {
	return &APIServer{
		Params:        impl.GetEmptyParams(),
		APIServerImpl: impl,
	}
}

func (rc *RunContext) AddAPIServer(s *APIServer, serverName string) error {
	rc.Group.Add(
		func() error {
			zap.L().Info(fmt.Sprintf("[APIServer/%s/Start]", serverName))
			if err := s.Serve(); err != nil {
				zap.L().Error(fmt.Sprintf("[APIServer/%s/Error]failed to serve/reason:%s", serverName, err))
				return err
			}
			return nil
		},
		func(error) {
			zap.L().Info(fmt.Sprintf("[APIServer/%s/TearDown]shutting down api server", serverName))
			s.Shutdown()
		},
	)
	return nil
}
