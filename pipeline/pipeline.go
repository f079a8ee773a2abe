// Package pipeline assembles the feature blocks and the regression model
// into a single fit/predict unit.
package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"taxifare/encoders"
	"taxifare/models"
	"taxifare/regression"
)

// DistMode selects which distance feature family feeds the model.
type DistMode string

const (
	DistModeDist     DistMode = "dist"
	DistModeToCenter DistMode = "dist_to_center"
	DistModeBoth     DistMode = "both"
)

// DefaultDistMode is used when a config leaves the mode empty.
const DefaultDistMode = DistModeBoth

// Block names, in union order.
const (
	BlockDistance         = "distance"
	BlockDistanceToCenter = "distance_to_center"
	BlockTime             = "time"
)

var coordinateColumns = []string{
	models.ColPickupLatitude,
	models.ColPickupLongitude,
	models.ColDropoffLatitude,
	models.ColDropoffLongitude,
}

// Config is the model configuration a pipeline is assembled from.
type Config struct {
	Model    regression.Config `json:"model"`
	DistMode DistMode          `json:"dist_mode"`
	TimeZone string            `json:"time_zone,omitempty"`
}

func (c Config) withDefaults() Config {
	if c.DistMode == "" {
		c.DistMode = DefaultDistMode
	}
	if c.TimeZone == "" {
		c.TimeZone = encoders.DefaultTimeZoneName
	}
	if c.Model.Name == "" {
		c.Model.Name = regression.Linear
	}
	return c
}

// Block routes a fixed set of input columns through a chain of encoders.
type Block struct {
	Name    string
	Columns []string
	Steps   []encoders.Encoder
}

func (b *Block) fitTransform(X models.Frame, y []float64) (*models.Table, error) {
	var (
		in  models.Frame = columnView{Frame: X, cols: b.Columns}
		out *models.Table
		err error
	)
	for _, step := range b.Steps {
		if out, err = encoders.FitTransform(step, in, y); err != nil {
			return nil, fmt.Errorf("step %s: %w", step.Kind(), err)
		}
		in = out
	}
	return out, nil
}

func (b *Block) transform(X models.Frame) (*models.Table, error) {
	var (
		in  models.Frame = columnView{Frame: X, cols: b.Columns}
		out *models.Table
		err error
	)
	for _, step := range b.Steps {
		if out, err = step.Transform(in); err != nil {
			return nil, fmt.Errorf("step %s: %w", step.Kind(), err)
		}
		in = out
	}
	return out, nil
}

// Pipeline is a feature union followed by a regressor. It is built unfitted
// by Assemble and must not be refitted once Fit succeeded.
type Pipeline struct {
	cfg      Config
	blocks   []*Block
	model    regression.Regressor
	features []string
	fitted   bool
}

// Assemble builds a new unfitted pipeline from cfg. It performs no I/O.
func Assemble(cfg Config) (*Pipeline, error) {
	cfg = cfg.withDefaults()
	model, err := regression.New(cfg.Model)
	if err != nil {
		return nil, err
	}

	var blocks []*Block
	switch cfg.DistMode {
	case DistModeDist:
		blocks = append(blocks, distanceBlock())
	case DistModeToCenter:
		blocks = append(blocks, distanceToCenterBlock())
	case DistModeBoth:
		blocks = append(blocks, distanceBlock(), distanceToCenterBlock())
	default:
		return nil, fmt.Errorf("%w: unknown dist_mode %q", models.ErrInvalidConfig, cfg.DistMode)
	}
	blocks = append(blocks, &Block{
		Name:    BlockTime,
		Columns: []string{encoders.DefaultTimeColumn},
		Steps: []encoders.Encoder{
			encoders.NewTimeFeaturesEncoder(encoders.DefaultTimeColumn, cfg.TimeZone),
			encoders.NewOneHotEncoder(),
		},
	})

	return &Pipeline{cfg: cfg, blocks: blocks, model: model}, nil
}

func distanceBlock() *Block {
	return &Block{
		Name:    BlockDistance,
		Columns: coordinateColumns,
		Steps:   []encoders.Encoder{encoders.NewDistanceTransformer(), encoders.NewStandardScaler()},
	}
}

func distanceToCenterBlock() *Block {
	return &Block{
		Name:    BlockDistanceToCenter,
		Columns: coordinateColumns,
		Steps:   []encoders.Encoder{encoders.NewDistanceToCenter(), encoders.NewStandardScaler()},
	}
}

// Config returns the configuration the pipeline was assembled from.
func (p *Pipeline) Config() Config { return p.cfg }

// Blocks returns the names of the feature blocks in union order.
func (p *Pipeline) Blocks() []string {
	names := make([]string, len(p.blocks))
	for i, b := range p.blocks {
		names[i] = b.Name
	}
	return names
}

// Block returns the named feature block.
func (p *Pipeline) Block(name string) (*Block, bool) {
	for _, b := range p.blocks {
		if b.Name == name {
			return b, true
		}
	}
	return nil, false
}

// Model returns the final regressor.
func (p *Pipeline) Model() regression.Regressor { return p.model }

// Fitted reports whether Fit has completed.
func (p *Pipeline) Fitted() bool { return p.fitted }

// FeatureNames returns the union's output columns. Empty before Fit.
func (p *Pipeline) FeatureNames() []string {
	return append([]string(nil), p.features...)
}

// Fit fits every block and then the regressor on the union of block outputs.
// All failures are reported as models.ErrFit.
func (p *Pipeline) Fit(X models.Frame, y []float64) error {
	if p.fitted {
		return fmt.Errorf("%w: pipeline is already fitted", models.ErrFit)
	}
	if X.Len() == 0 {
		return fmt.Errorf("%w: empty training set", models.ErrFit)
	}
	if X.Len() != len(y) {
		return fmt.Errorf("%w: %d rows but %d targets", models.ErrFit, X.Len(), len(y))
	}

	tables := make([]*models.Table, len(p.blocks))
	for i, b := range p.blocks {
		out, err := b.fitTransform(X, y)
		if err != nil {
			return fmt.Errorf("%w: block %s: %w", models.ErrFit, b.Name, err)
		}
		tables[i] = out
	}
	union, err := models.HStack(p.prefixes(), tables)
	if err != nil {
		return fmt.Errorf("%w: %w", models.ErrFit, err)
	}
	if err := p.model.Fit(union.Dense(), y); err != nil {
		return fmt.Errorf("%w: model %s: %w", models.ErrFit, p.model.Kind(), err)
	}
	p.features = union.Columns()
	p.fitted = true
	return nil
}

// Transform runs X through the fitted blocks and returns the feature union.
func (p *Pipeline) Transform(X models.Frame) (*models.Table, error) {
	if !p.fitted {
		return nil, models.ErrNotFitted
	}
	tables := make([]*models.Table, len(p.blocks))
	for i, b := range p.blocks {
		out, err := b.transform(X)
		if err != nil {
			return nil, fmt.Errorf("block %s: %w", b.Name, err)
		}
		tables[i] = out
	}
	return models.HStack(p.prefixes(), tables)
}

// Predict returns one fare per row of X. It never mutates the pipeline.
func (p *Pipeline) Predict(X models.Frame) ([]float64, error) {
	union, err := p.Transform(X)
	if err != nil {
		return nil, err
	}
	if X.Len() == 0 {
		return []float64{}, nil
	}
	return p.model.Predict(union.Dense())
}

// Params flattens the configuration into string key/values for tracking.
func (p *Pipeline) Params() map[string]string {
	params := map[string]string{
		"dist_mode": string(p.cfg.DistMode),
		"blocks":    strings.Join(p.Blocks(), ","),
		"time_zone": p.cfg.TimeZone,
	}
	for k, v := range p.model.Params() {
		params[k] = v
	}
	return params
}

// String describes the pipeline, e.g. "ridge(alpha=0.05)/both".
func (p *Pipeline) String() string {
	params := p.model.Params()
	keys := make([]string, 0, len(params))
	for k := range params {
		if k != "model" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	args := make([]string, len(keys))
	for i, k := range keys {
		args[i] = k + "=" + params[k]
	}
	return fmt.Sprintf("%s(%s)/%s", p.model.Kind(), strings.Join(args, ","), p.cfg.DistMode)
}

func (p *Pipeline) prefixes() []string {
	prefixes := make([]string, len(p.blocks))
	for i, b := range p.blocks {
		prefixes[i] = b.Name + "__"
	}
	return prefixes
}

// columnView restricts a frame to the columns a block consumes.
type columnView struct {
	models.Frame
	cols []string
}

func (v columnView) Columns() []string {
	return append([]string(nil), v.cols...)
}

func (v columnView) allowed(col string) error {
	for _, c := range v.cols {
		if c == col {
			return nil
		}
	}
	return fmt.Errorf("%w: %q is not routed to this block", models.ErrUnknownColumn, col)
}

func (v columnView) Float(col string, row int) (float64, error) {
	if err := v.allowed(col); err != nil {
		return 0, err
	}
	return v.Frame.Float(col, row)
}

func (v columnView) String(col string, row int) (string, error) {
	if err := v.allowed(col); err != nil {
		return "", err
	}
	return v.Frame.String(col, row)
}
