// Package seqmodel evaluates the exported sequence model and feature scaler.
//
// Both artifacts are JSON exports of the fitted Keras and scikit-learn objects.
// Weight matrices use the Keras layout: an LSTM kernel is (inputs, 4*units),
// its recurrent kernel (units, 4*units) and its bias 4*units, with gates
// ordered input, forget, cell, output.
package seqmodel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/pable/valorant-egr/internal/model"
)

// Layer types understood by LoadLSTM.
const (
	LayerLSTM    = "lstm"
	LayerDense   = "dense"
	LayerDropout = "dropout"
)

// ErrShape is returned when weights or inputs disagree on dimensions.
var ErrShape = errors.New("shape mismatch")

// LayerSpec is one layer of the JSON export.
type LayerSpec struct {
	Type                string      `json:"type"`
	Units               int         `json:"units"`
	Activation          string      `json:"activation,omitempty"`
	RecurrentActivation string      `json:"recurrent_activation,omitempty"`
	ReturnSequences     bool        `json:"return_sequences,omitempty"`
	Kernel              [][]float64 `json:"kernel,omitempty"`
	RecurrentKernel     [][]float64 `json:"recurrent_kernel,omitempty"`
	Bias                []float64   `json:"bias,omitempty"`
}

// Spec is the JSON export of a masked recurrent regressor.
type Spec struct {
	InputFeatures int         `json:"input_features"`
	MaskValue     *float64    `json:"mask_value,omitempty"`
	Layers        []LayerSpec `json:"layers"`
}

type lstmLayer struct {
	units     int
	kernel    *mat.Dense // (in, 4u)
	recurrent *mat.Dense // (u, 4u)
	bias      []float64  // 4u
	act       activation
	recAct    activation
	sequences bool
}

type denseLayer struct {
	kernel *mat.Dense // (in, units)
	bias   []float64
	act    activation
}

// LSTM is a stack of LSTM layers followed by dense layers producing one score
// per sequence. Timesteps whose features all equal the mask value leave the
// recurrent state untouched.
type LSTM struct {
	features  int
	mask      float64
	masked    bool
	recurrent []lstmLayer
	head      []denseLayer
}

// LoadLSTM reads a JSON model export from path.
func LoadLSTM(path string) (*LSTM, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	var spec Spec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("decode model %s: %w", path, err)
	}
	m, err := NewLSTM(spec)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", path, err)
	}
	return m, nil
}

// NewLSTM validates a model export and builds the evaluator.
func NewLSTM(spec Spec) (*LSTM, error) {
	m := &LSTM{features: spec.InputFeatures}
	if spec.MaskValue != nil {
		m.mask, m.masked = *spec.MaskValue, true
	}
	in := spec.InputFeatures
	for i, l := range spec.Layers {
		switch l.Type {
		case LayerLSTM:
			if len(m.head) > 0 {
				return nil, fmt.Errorf("layer %d: lstm after dense layers is not supported", i)
			}
			if in == 0 && len(l.Kernel) > 0 {
				in = len(l.Kernel)
				m.features = in
			}
			if in <= 0 {
				return nil, fmt.Errorf("layer %d: input feature count unknown", i)
			}
			layer, err := newLSTMLayer(l, in)
			if err != nil {
				return nil, fmt.Errorf("layer %d: %w", i, err)
			}
			m.recurrent = append(m.recurrent, layer)
			in = l.Units
		case LayerDense:
			if len(m.recurrent) == 0 {
				return nil, fmt.Errorf("layer %d: dense layer before any lstm layer", i)
			}
			layer, err := newDenseLayer(l, in)
			if err != nil {
				return nil, fmt.Errorf("layer %d: %w", i, err)
			}
			m.head = append(m.head, layer)
			in = l.Units
		case LayerDropout:
		default:
			return nil, fmt.Errorf("layer %d: unsupported layer type %q", i, l.Type)
		}
	}
	if len(m.recurrent) == 0 {
		return nil, errors.New("model has no lstm layer")
	}
	if last := m.recurrent[len(m.recurrent)-1]; last.sequences {
		return nil, errors.New("last lstm layer must not return sequences")
	}
	for _, l := range m.recurrent[:len(m.recurrent)-1] {
		if !l.sequences {
			return nil, errors.New("stacked lstm layers must return sequences")
		}
	}
	if in != 1 {
		return nil, fmt.Errorf("model produces %d outputs per sequence, want 1: %w", in, ErrShape)
	}
	return m, nil
}

func newLSTMLayer(l LayerSpec, in int) (lstmLayer, error) {
	u := l.Units
	if u <= 0 {
		return lstmLayer{}, fmt.Errorf("lstm units must be positive, got %d", u)
	}
	kernel, err := denseFrom(l.Kernel, in, 4*u)
	if err != nil {
		return lstmLayer{}, fmt.Errorf("kernel: %w", err)
	}
	recurrent, err := denseFrom(l.RecurrentKernel, u, 4*u)
	if err != nil {
		return lstmLayer{}, fmt.Errorf("recurrent kernel: %w", err)
	}
	bias, err := biasFrom(l.Bias, 4*u)
	if err != nil {
		return lstmLayer{}, err
	}
	act, err := lookupActivation(l.Activation, "tanh")
	if err != nil {
		return lstmLayer{}, err
	}
	recAct, err := lookupActivation(l.RecurrentActivation, "sigmoid")
	if err != nil {
		return lstmLayer{}, err
	}
	return lstmLayer{
		units:     u,
		kernel:    kernel,
		recurrent: recurrent,
		bias:      bias,
		act:       act,
		recAct:    recAct,
		sequences: l.ReturnSequences,
	}, nil
}

func newDenseLayer(l LayerSpec, in int) (denseLayer, error) {
	if l.Units <= 0 {
		return denseLayer{}, fmt.Errorf("dense units must be positive, got %d", l.Units)
	}
	kernel, err := denseFrom(l.Kernel, in, l.Units)
	if err != nil {
		return denseLayer{}, fmt.Errorf("kernel: %w", err)
	}
	bias, err := biasFrom(l.Bias, l.Units)
	if err != nil {
		return denseLayer{}, err
	}
	act, err := lookupActivation(l.Activation, "linear")
	if err != nil {
		return denseLayer{}, err
	}
	return denseLayer{kernel: kernel, bias: bias, act: act}, nil
}

// Features returns the number of input features per timestep.
func (m *LSTM) Features() int { return m.features }

// Predict scores every round of a padded batch and returns one value per round.
func (m *LSTM) Predict(ctx context.Context, b model.PaddedBatch) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if b.Features != m.features {
		return nil, fmt.Errorf("batch has %d features, model expects %d: %w", b.Features, m.features, ErrShape)
	}
	if b.Rounds == 0 || b.Timesteps == 0 {
		return nil, nil
	}

	// active[t][r] marks timesteps that are not entirely padding.
	active := make([][]bool, b.Timesteps)
	seq := make([]*mat.Dense, b.Timesteps)
	for t := 0; t < b.Timesteps; t++ {
		active[t] = make([]bool, b.Rounds)
		x := mat.NewDense(b.Rounds, b.Features, nil)
		for r := 0; r < b.Rounds; r++ {
			step := b.Step(r, t)
			x.SetRow(r, step)
			active[t][r] = !m.masked || !allEqual(step, m.mask)
		}
		seq[t] = x
	}

	var last *mat.Dense
	for _, l := range m.recurrent {
		seq, last = l.forward(seq, active)
	}
	out := last
	for _, d := range m.head {
		out = d.forward(out)
	}
	scores := make([]float64, b.Rounds)
	for r := range scores {
		scores[r] = out.At(r, 0)
	}
	return scores, nil
}

// forward runs one LSTM layer over the whole sequence for every round at once.
// Masked rows carry their previous hidden and cell state forward.
func (l lstmLayer) forward(seq []*mat.Dense, active [][]bool) ([]*mat.Dense, *mat.Dense) {
	rounds, _ := seq[0].Dims()
	u := l.units
	h := mat.NewDense(rounds, u, nil)
	c := mat.NewDense(rounds, u, nil)
	var z, zr mat.Dense
	var outputs []*mat.Dense
	if l.sequences {
		outputs = make([]*mat.Dense, len(seq))
	}

	for t, x := range seq {
		z.Mul(x, l.kernel)
		zr.Mul(h, l.recurrent)
		z.Add(&z, &zr)
		for r := 0; r < rounds; r++ {
			if !active[t][r] {
				continue
			}
			row := z.RawRowView(r)
			for k := 0; k < u; k++ {
				i := l.recAct(row[k] + l.bias[k])
				f := l.recAct(row[u+k] + l.bias[u+k])
				g := l.act(row[2*u+k] + l.bias[2*u+k])
				o := l.recAct(row[3*u+k] + l.bias[3*u+k])
				cell := f*c.At(r, k) + i*g
				c.Set(r, k, cell)
				h.Set(r, k, o*l.act(cell))
			}
		}
		if l.sequences {
			outputs[t] = mat.DenseCopyOf(h)
		}
	}
	return outputs, h
}

func (d denseLayer) forward(x *mat.Dense) *mat.Dense {
	var y mat.Dense
	y.Mul(x, d.kernel)
	rows, cols := y.Dims()
	for r := 0; r < rows; r++ {
		for k := 0; k < cols; k++ {
			y.Set(r, k, d.act(y.At(r, k)+d.bias[k]))
		}
	}
	return &y
}

type activation func(float64) float64

func lookupActivation(name, fallback string) (activation, error) {
	if name == "" {
		name = fallback
	}
	switch name {
	case "linear":
		return func(v float64) float64 { return v }, nil
	case "relu":
		return func(v float64) float64 { return math.Max(0, v) }, nil
	case "sigmoid":
		return func(v float64) float64 { return 1 / (1 + math.Exp(-v)) }, nil
	case "hard_sigmoid":
		return func(v float64) float64 { return math.Max(0, math.Min(1, 0.2*v+0.5)) }, nil
	case "tanh":
		return math.Tanh, nil
	}
	return nil, fmt.Errorf("unsupported activation %q", name)
}

func denseFrom(rows [][]float64, r, c int) (*mat.Dense, error) {
	if len(rows) != r {
		return nil, fmt.Errorf("got %d rows, want %d: %w", len(rows), r, ErrShape)
	}
	data := make([]float64, 0, r*c)
	for i, row := range rows {
		if len(row) != c {
			return nil, fmt.Errorf("row %d has %d columns, want %d: %w", i, len(row), c, ErrShape)
		}
		data = append(data, row...)
	}
	return mat.NewDense(r, c, data), nil
}

func biasFrom(b []float64, n int) ([]float64, error) {
	if b == nil {
		return make([]float64, n), nil
	}
	if len(b) != n {
		return nil, fmt.Errorf("bias has %d values, want %d: %w", len(b), n, ErrShape)
	}
	return b, nil
}

func allEqual(v []float64, x float64) bool {
	for _, e := range v {
		if e != x {
			return false
		}
	}
	return true
}
