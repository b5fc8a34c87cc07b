package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	flags "github.com/jessevdk/go-flags"
	"github.com/massn/envordot"
	"github.com/oklog/run"

	"github.com/qgrid-team/qgrid/api"
	"github.com/qgrid-team/qgrid/backend"
	"github.com/qgrid-team/qgrid/core"
	"github.com/qgrid-team/qgrid/log"
	"github.com/qgrid-team/qgrid/scheduler"
	"github.com/qgrid-team/qgrid/session"

	"go.uber.org/dig"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	rotate "github.com/lestrrat-go/file-rotatelogs"
)

var versionByBuildFlag string
var parser *flags.Parser
var qgrid *QGrid

func init() {
	if err := envordot.Load(false, ".env"); err != nil {
		fmt.Printf("Not found \".env\" file. Use only environment variables. Reason:%s\n", err.Error())
	} else {
		fmt.Println("Found \".env\" file. Environment variables are preferred, " +
			"but non-conflicting variables are those in the \".env\" file.")
	}
	qgrid = &QGrid{}
	setParser(qgrid)
}

type QGrid struct {
	DIContainerParameters *DIContainerParameters
	Conf                  *core.Conf
}

type DIContainerParameters struct {
	Simulator  string `long:"simulator" description:"simulator-type" default:"subprocess" choice:"subprocess" choice:"gateway" choice:"dummy" env:"QGRID_SIMULATOR_TYPE"`
	Propagator string `long:"propagator" description:"propagator-type" default:"subprocess" choice:"subprocess" choice:"gateway" choice:"local" env:"QGRID_PROPAGATOR_TYPE"`
	Scheduler  string `long:"scheduler" description:"scheduler-type" default:"normal" env:"QGRID_SCHEDULER_TYPE"`
}

func setParser(q *QGrid) {
	parser = flags.NewParser(q, flags.Default)
	parser.ShortDescription = "qgrid"
	parser.LongDescription = "the circuit designer server of the qgrid quantum circuit grid."
	parser.AddCommand("serve", "start server", "start the circuit api server", newServeCmd())
	parser.AddCommand("propagate", "propagate errors", "run one error propagation step on a circuit IR file", newPropagateCmd())
	parser.AddCommand("show", "show circuit", "print a circuit IR file as a grid", newShowCmd())
	parser.AddCommand("validate-noise", "validate noise models", "check noise model files against the completeness relation", newValidateNoiseCmd())
}

func parse() {
	if _, err := parser.Parse(); err != nil {
		code := 1
		if fe, ok := err.(*flags.Error); ok {
			if fe.Type == flags.ErrHelp {
				code = 0
			}
		}
		if code == 1 {
			fmt.Printf("failed to parse flags, because %s\n", err)
		}
		os.Exit(code)
	}
}

func (q *QGrid) newSimulator() (core.Simulator, error) {
	switch q.DIContainerParameters.Simulator {
	case "subprocess":
		return &backend.SubprocessSimulator{}, nil
	case "gateway":
		return backend.NewGateway(), nil
	case "dummy":
		return &backend.DummySimulator{}, nil
	default:
		return &backend.DummySimulator{}, fmt.Errorf("%s is an unknown Simulator", q.DIContainerParameters.Simulator)
	}
}

func (q *QGrid) newPropagator(conf *core.Conf) (core.Propagator, error) {
	var p core.Propagator
	switch q.DIContainerParameters.Propagator {
	case "subprocess":
		p = &backend.SubprocessPropagator{}
	case "gateway":
		p = backend.NewGateway()
	case "local":
		p = &backend.LocalPropagator{}
	default:
		return &backend.LocalPropagator{}, fmt.Errorf("%s is an unknown Propagator", q.DIContainerParameters.Propagator)
	}
	if conf.PropagateCacheSize > 0 {
		return backend.NewCachingPropagator(p), nil
	}
	return p, nil
}

func (q *QGrid) provideDIContainer(conf *core.Conf) (c *dig.Container, err error) {
	c = dig.New()
	err = c.Provide(q.newSimulator)
	if err != nil {
		return &dig.Container{}, err
	}
	err = c.Provide(func() (core.Propagator, error) {
		return q.newPropagator(conf)
	})
	if err != nil {
		return &dig.Container{}, err
	}
	err = c.Provide(func() (core.Scheduler, error) {
		switch q.DIContainerParameters.Scheduler {
		case "normal":
			return &scheduler.NormalScheduler{}, nil
		default:
			return &scheduler.NormalScheduler{}, fmt.Errorf("%s is an unknown Scheduler", q.DIContainerParameters.Scheduler)
		}
	})
	if err != nil {
		return &dig.Container{}, err
	}
	err = c.Provide(func() *session.MemoryStore { return &session.MemoryStore{} })
	if err != nil {
		return &dig.Container{}, err
	}
	err = c.Provide(func(m *session.MemoryStore) core.SessionStore { return m })
	if err != nil {
		return &dig.Container{}, err
	}
	return
}

func (q *QGrid) startCore(conf *core.Conf) error {
	err := core.GetSystemComponents().StartContainer()
	if err != nil {
		return err
	}
	core.SetInfo(conf)
	return nil
}

func zapLogger(conf *core.Conf) (*zap.Logger, error) {
	var encoder zapcore.Encoder
	if conf.DevMode {
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	} else {
		c := zap.NewProductionEncoderConfig()
		c.EncodeTime = zapcore.ISO8601TimeEncoder //Not use UnixTime
		c.TimeKey = "timestamp"
		encoder = zapcore.NewJSONEncoder(c)
	}
	var level zap.AtomicLevel
	switch conf.LogLevel {
	case "debug":
		level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	cores := []zapcore.Core{}
	if conf.EnableFileLog {
		rotater, err := makeRotator(conf.LogDir, conf.LogRotationMaxDays)
		if err != nil {
			return &zap.Logger{}, err
		}
		syncer := zapcore.AddSync(rotater)
		rotateCore := zapcore.NewCore(
			encoder,
			syncer,
			level)
		cores = append(cores, rotateCore)
	}
	if !conf.DisableStdoutLog {
		stdoutCore := zapcore.NewCore(
			encoder,
			zapcore.Lock(os.Stdout),
			level)
		cores = append(cores, stdoutCore)
	}
	core := zapcore.NewTee(cores...)
	return zap.New(core, zap.AddCaller()), nil
}

func makeRotator(dirPath string, rotationMaxDays int) (*rotate.RotateLogs, error) {
	info, err := os.Stat(dirPath)
	if err != nil {
		return &rotate.RotateLogs{}, fmt.Errorf("directory:%s is not found", dirPath)
	}
	if info.Mode().Perm()&(1<<uint(7)) == 0 {
		return &rotate.RotateLogs{}, fmt.Errorf("%s is not a writable directory", dirPath)
	}
	rotator, err := rotate.New(
		filepath.Join(dirPath, "qgrid-%Y-%m-%d.log"),
		rotate.WithMaxAge(time.Duration(rotationMaxDays)*24*time.Hour),
		rotate.WithRotationTime(time.Hour))
	if err != nil {
		return &rotate.RotateLogs{}, err
	}
	return rotator, nil
}

func main() {
	parse()
}

type serveCmd struct{}

func newServeCmd() *serveCmd {
	return &serveCmd{}
}

func (c *serveCmd) Execute(args []string) error {
	logger := setZap(qgrid.Conf)
	defer logger.Sync()

	core.ResetSetting()
	registerSetting()
	zap.L().Debug("Registered setting")
	if err := core.ParseSettingFromPath(qgrid.Conf.SettingPath); err != nil {
		zap.L().Error(fmt.Sprintf("failed to parse settings/reason:%s", err))
		return err
	}

	s, err := setupSystemComponents(qgrid.Conf)
	if err != nil {
		return err
	}
	defer s.TearDown()

	im := &core.ImplMaps{
		PeriodicTaskImplMap: core.PeriodicTaskImplMap{
			log.VersionLogTaskName: &log.VersionLogTaskImpl{},
			log.MetricsLogTaskName: &log.MetricsLogTaskImpl{},
		},
		APIServerImplMap: core.APIServerImplMap{
			api.CircuitServerName: &api.CircuitServer{},
			log.MetricsServerName: &log.MetricsServer{},
		},
	}
	rc, err := core.NewRunContextWithSettingPath(qgrid.Conf.SettingPath, im)
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to setup run context/reason:%s", err.Error()))
		return err
	}

	if err := qgrid.startCore(qgrid.Conf); err != nil {
		zap.L().Error(fmt.Sprintf("failed to start core/reason:%s", err))
		return err
	}

	zap.L().Debug("Setting up run-group")
	c.setupRunGroup(rc)

	if err := rc.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "execution error:%v\n", err)
		os.Exit(1)
	}
	return nil
}

func (c *serveCmd) setupRunGroup(rc *core.RunContext) {
	rc.Add(
		run.SignalHandler(
			rc.Context,
			os.Interrupt))
	core.SetRunContext(rc)
}

func setZap(conf *core.Conf) *zap.Logger {
	logger, err := zapLogger(conf)
	if err != nil {
		fmt.Printf("Failed to setup logger. Reason:%s\n", err)
		panic(err)
	}
	zap.ReplaceGlobals(logger)
	zap.L().Info("Starting logger")
	zap.L().Info(fmt.Sprintf("DevMode is %t", conf.DevMode))
	zap.L().Info(fmt.Sprintf("Log rotation max days is %d", conf.LogRotationMaxDays))
	return logger
}

func setupSystemComponents(conf *core.Conf) (*core.SystemComponents, error) {
	core.SetVersion(conf, versionByBuildFlag)
	zap.L().Debug(fmt.Sprintf("Providing DI Container with parameters %+v", qgrid.DIContainerParameters))

	container, err := qgrid.provideDIContainer(conf)
	if err != nil {
		zap.L().Error(fmt.Sprintf("Failed to setting up DI-Container. Reason:%s", err.Error()))
		return nil, err
	}
	zap.L().Debug("Setting up System Components")
	s := core.NewSystemComponents(container)
	if err := s.Setup(conf); err != nil {
		zap.L().Error(fmt.Sprintf("Failed to setting up Container. Reason:%s", err.Error()))
		return nil, err
	}
	return s, nil
}

func registerSetting() {
	core.RegisterSetting(backend.GatewaySettingName, backend.DefaultGatewaySetting())
}
