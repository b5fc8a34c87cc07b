package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/markkurossi/tabulate"
	"github.com/qgrid-team/qgrid/common"
	"github.com/qgrid-team/qgrid/core"
	"github.com/qgrid-team/qgrid/gate"
	"github.com/qgrid-team/qgrid/grid"
	"github.com/qgrid-team/qgrid/ir"
	"github.com/qgrid-team/qgrid/noise"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// setToolZap keeps stdout for command output.
func setToolZap(conf *core.Conf) *zap.Logger {
	level := zap.WarnLevel
	if conf.LogLevel == "debug" {
		level = zap.DebugLevel
	}
	logger := zap.New(zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.Lock(os.Stderr),
		level))
	zap.ReplaceGlobals(logger)
	return logger
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func singleArg(args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("expected one file argument, got %d", len(args))
	}
	return args[0], nil
}

type propagateCmd struct {
	Steps int `long:"steps" description:"number of propagation steps" default:"1"`

	out io.Writer
}

func newPropagateCmd() *propagateCmd {
	return &propagateCmd{out: os.Stdout}
}

func (c *propagateCmd) Execute(args []string) error {
	logger := setToolZap(qgrid.Conf)
	defer logger.Sync()

	path, err := singleArg(args)
	if err != nil {
		return err
	}
	core.ResetSetting()
	registerSetting()
	if err := core.ParseSettingFromPath(qgrid.Conf.SettingPath); err != nil {
		zap.L().Warn(fmt.Sprintf("using default settings/reason:%s", err))
	}

	p, err := qgrid.newPropagator(qgrid.Conf)
	if err != nil {
		return err
	}
	if err := p.Setup(qgrid.Conf); err != nil {
		return err
	}
	defer p.TearDown()
	return c.run(context.Background(), p, path)
}

func (c *propagateCmd) run(ctx context.Context, p core.Propagator, path string) error {
	if c.Steps < 1 {
		return fmt.Errorf("steps must be positive, got %d", c.Steps)
	}
	b, err := readInput(path)
	if err != nil {
		return err
	}
	doc, err := ir.Parse(b)
	if err != nil {
		return err
	}
	for i := 0; i < c.Steps; i++ {
		if doc, err = p.Propagate(ctx, doc); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	out, err := doc.MarshalJSON()
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(c.out, common.PrettyJSON(out))
	return err
}

type showCmd struct {
	out io.Writer
}

func newShowCmd() *showCmd {
	return &showCmd{out: os.Stdout}
}

func (c *showCmd) Execute(args []string) error {
	logger := setToolZap(qgrid.Conf)
	defer logger.Sync()

	path, err := singleArg(args)
	if err != nil {
		return err
	}
	return c.run(path)
}

func (c *showCmd) run(path string) error {
	b, err := readInput(path)
	if err != nil {
		return err
	}
	doc, err := ir.Parse(b)
	if err != nil {
		return err
	}
	g, err := ir.Decode(doc)
	if err != nil {
		return err
	}
	renderGrid(c.out, g)
	return nil
}

// renderGrid prints one row per wire and one column per layer, followed by
// the layer types. Error gates carry a trailing '*'.
func renderGrid(w io.Writer, g *grid.Grid) {
	tab := tabulate.New(tabulate.UnicodeLight)
	tab.Header("Wire").SetAlign(tabulate.ML)
	for l := 0; l < g.NumLayers(); l++ {
		tab.Header(fmt.Sprintf("L%d", l)).SetAlign(tabulate.MC)
	}
	for wire := 0; wire < g.NumWires(); wire++ {
		row := tab.Row()
		row.Column(fmt.Sprintf("q%d", wire))
		for l := 0; l < g.NumLayers(); l++ {
			cell, _ := g.Cell(wire, l)
			row.Column(cellLabel(cell))
		}
	}
	row := tab.Row()
	row.Column("type").SetFormat(tabulate.FmtItalic)
	for _, lt := range g.LayerTypes() {
		row.Column(lt.String()).SetFormat(tabulate.FmtItalic)
	}
	tab.Print(w)
}

func cellLabel(c grid.Cell) string {
	switch {
	case c.Gate == nil && c.OccupiedBy != "":
		return "⊕"
	case c.Gate == nil:
		return ""
	case c.Gate.Kind == gate.CX:
		return "●"
	case c.Gate.Error:
		return c.Gate.Symbol() + "*"
	default:
		return c.Gate.Symbol()
	}
}

type validateNoiseCmd struct {
	out io.Writer
}

func newValidateNoiseCmd() *validateNoiseCmd {
	return &validateNoiseCmd{out: os.Stdout}
}

func (c *validateNoiseCmd) Execute(args []string) error {
	logger := setToolZap(qgrid.Conf)
	defer logger.Sync()

	if len(args) == 0 {
		return fmt.Errorf("expected at least one noise model file")
	}
	return c.run(args)
}

// run checks every file and reports all failures together.
func (c *validateNoiseCmd) run(paths []string) error {
	var errs error
	for _, path := range paths {
		b, err := readInput(path)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		m, err := noise.ParseAndValidate(b)
		if err != nil {
			fmt.Fprintf(c.out, "%s: invalid: %s\n", path, err)
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		fmt.Fprintf(c.out, "%s: ok (%d operators, dimension %d)\n", path, len(m.Operators), m.Dimension())
	}
	return errs
}
