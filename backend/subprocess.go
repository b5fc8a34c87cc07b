package backend

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/go-faster/errors"
	jsoniter "github.com/json-iterator/go"
	"github.com/qgrid-team/qgrid/core"
	"github.com/qgrid-team/qgrid/ir"
	"go.uber.org/zap"
)

var jsonIter = jsoniter.ConfigCompatibleWithStandardLibrary

// waitDelay bounds how long output pipes are drained after the script is killed.
const waitDelay = time.Second

// scriptRunner runs `<python> <script> <args...>` and returns stdout.
type scriptRunner struct {
	python  string
	script  string
	timeout time.Duration
}

func newScriptRunner(conf *core.Conf, script string) (*scriptRunner, error) {
	if conf.PythonPath == "" {
		return nil, fmt.Errorf("python path is empty")
	}
	if _, err := os.Stat(script); err != nil {
		return nil, fmt.Errorf("script %s is not available/reason:%s", script, err)
	}
	timeout := core.BackendTimeout(conf)
	if timeout <= 0 {
		return nil, fmt.Errorf("backend timeout must be positive, got %s", timeout)
	}
	return &scriptRunner{
		python:  conf.PythonPath,
		script:  script,
		timeout: timeout,
	}, nil
}

func (r *scriptRunner) run(ctx context.Context, op string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.python, append([]string{r.script}, args...)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	start := time.Now()
	zap.L().Debug(fmt.Sprintf("running %s %s", r.python, r.script))
	err := cmd.Run()
	backendCallDuration.WithLabelValues("subprocess", op).Observe(time.Since(start).Seconds())
	if err != nil {
		msg := fmt.Sprintf("%s %s/stderr:%s", r.python, r.script, strings.TrimSpace(stderr.String()))
		return nil, core.ExternalError(ctx, err, msg)
	}
	if stderr.Len() > 0 {
		zap.L().Debug(fmt.Sprintf("%s wrote to stderr:%s", r.script, strings.TrimSpace(stderr.String())))
	}
	return stdout.Bytes(), nil
}

type simulatorOutput struct {
	PlotImage string `json:"plot_image"`
	Error     string `json:"error"`
}

// SubprocessSimulator runs the simulation script with the IR as the first
// argument and an optional noise model as the second.
type SubprocessSimulator struct {
	runner *scriptRunner
}

func (s *SubprocessSimulator) Setup(conf *core.Conf) (err error) {
	s.runner, err = newScriptRunner(conf, conf.SimulateScriptPath)
	return err
}

func (s *SubprocessSimulator) TearDown() {}

func (s *SubprocessSimulator) Simulate(ctx context.Context, doc ir.Document, noiseModel []byte) (*core.SimulationResult, error) {
	ctx, span := startSpan(ctx, "subprocess.Simulate", len(doc))
	defer span.End()

	res, err := s.simulate(ctx, doc, noiseModel)
	observeBackendCall("subprocess", "simulate", err)
	if err != nil {
		recordSpanError(span, err)
		zap.L().Error(fmt.Sprintf("failed to simulate/reason:%s", err))
		return nil, err
	}
	return res, nil
}

func (s *SubprocessSimulator) simulate(ctx context.Context, doc ir.Document, noiseModel []byte) (*core.SimulationResult, error) {
	in, err := doc.MarshalJSON()
	if err != nil {
		return nil, err
	}
	args := []string{string(in)}
	if len(noiseModel) > 0 {
		args = append(args, string(noiseModel))
	}
	stdout, err := s.runner.run(ctx, "simulate", args...)
	if err != nil {
		return nil, err
	}
	out := simulatorOutput{}
	if err := jsonIter.Unmarshal(bytes.TrimSpace(stdout), &out); err != nil {
		return nil, errors.Wrapf(core.ErrorExternalServiceFailure, "unreadable simulator output/reason:%s", err)
	}
	if out.Error != "" {
		return nil, errors.Wrapf(core.ErrorExternalServiceFailure, "simulator reported/reason:%s", out.Error)
	}
	if out.PlotImage == "" {
		return nil, errors.Wrap(core.ErrorExternalServiceFailure, "simulator returned no plot image")
	}
	return &core.SimulationResult{PlotImage: out.PlotImage}, nil
}

// SubprocessPropagator runs the propagation script with the IR as its only
// argument and reads the propagated IR from stdout.
type SubprocessPropagator struct {
	runner *scriptRunner
}

func (p *SubprocessPropagator) Setup(conf *core.Conf) (err error) {
	p.runner, err = newScriptRunner(conf, conf.PropagateScriptPath)
	return err
}

func (p *SubprocessPropagator) TearDown() {}

func (p *SubprocessPropagator) Propagate(ctx context.Context, doc ir.Document) (ir.Document, error) {
	ctx, span := startSpan(ctx, "subprocess.Propagate", len(doc))
	defer span.End()

	out, err := p.propagate(ctx, doc)
	observeBackendCall("subprocess", "propagate", err)
	if err != nil {
		recordSpanError(span, err)
		zap.L().Error(fmt.Sprintf("failed to propagate/reason:%s", err))
		return nil, err
	}
	return out, nil
}

func (p *SubprocessPropagator) propagate(ctx context.Context, doc ir.Document) (ir.Document, error) {
	in, err := doc.MarshalJSON()
	if err != nil {
		return nil, err
	}
	stdout, err := p.runner.run(ctx, "propagate", string(in))
	if err != nil {
		return nil, err
	}
	out, err := ir.Parse(bytes.TrimSpace(stdout))
	if err != nil {
		return nil, errors.Wrapf(core.ErrorExternalServiceFailure, "unreadable propagator output/reason:%s", err)
	}
	return out, nil
}
