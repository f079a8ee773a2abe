package pipeline

import (
	"encoding/json"
	"fmt"

	"taxifare/encoders"
	"taxifare/models"
)

type stepSnapshot struct {
	Kind  string          `json:"kind"`
	State json.RawMessage `json:"state"`
}

type blockSnapshot struct {
	Name    string         `json:"name"`
	Columns []string       `json:"columns"`
	Steps   []stepSnapshot `json:"steps"`
}

type snapshot struct {
	Config       Config          `json:"config"`
	Fitted       bool            `json:"fitted"`
	FeatureNames []string        `json:"feature_names"`
	Blocks       []blockSnapshot `json:"blocks"`
	Model        stepSnapshot    `json:"model"`
}

// restorer is implemented by encoders that rebuild derived state after
// their exported fields were decoded.
type restorer interface {
	Restore() error
}

// MarshalJSON captures the configuration and every fitted parameter.
func (p *Pipeline) MarshalJSON() ([]byte, error) {
	snap := snapshot{
		Config:       p.cfg,
		Fitted:       p.fitted,
		FeatureNames: p.features,
		Blocks:       make([]blockSnapshot, len(p.blocks)),
	}
	for i, b := range p.blocks {
		bs := blockSnapshot{Name: b.Name, Columns: b.Columns}
		for _, step := range b.Steps {
			state, err := json.Marshal(step)
			if err != nil {
				return nil, fmt.Errorf("encode %s/%s: %w", b.Name, step.Kind(), err)
			}
			bs.Steps = append(bs.Steps, stepSnapshot{Kind: step.Kind(), State: state})
		}
		snap.Blocks[i] = bs
	}
	state, err := json.Marshal(p.model)
	if err != nil {
		return nil, fmt.Errorf("encode model: %w", err)
	}
	snap.Model = stepSnapshot{Kind: p.model.Kind(), State: state}
	return json.Marshal(snap)
}

// UnmarshalJSON rebuilds a pipeline from its snapshot. The layout is
// reassembled from the stored config and must match the stored blocks.
func (p *Pipeline) UnmarshalJSON(data []byte) error {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("%w: %w", models.ErrCorruptArtifact, err)
	}
	fresh, err := Assemble(snap.Config)
	if err != nil {
		return fmt.Errorf("%w: %w", models.ErrCorruptArtifact, err)
	}
	if len(snap.Blocks) != len(fresh.blocks) {
		return fmt.Errorf("%w: %d blocks stored, config implies %d", models.ErrCorruptArtifact, len(snap.Blocks), len(fresh.blocks))
	}
	for i, b := range fresh.blocks {
		stored := snap.Blocks[i]
		if stored.Name != b.Name || len(stored.Steps) != len(b.Steps) {
			return fmt.Errorf("%w: block %d is %q, want %q", models.ErrCorruptArtifact, i, stored.Name, b.Name)
		}
		for j, step := range b.Steps {
			if err := decodeStep(stored.Steps[j], step); err != nil {
				return fmt.Errorf("%w: block %s: %w", models.ErrCorruptArtifact, b.Name, err)
			}
		}
	}
	if snap.Model.Kind != fresh.model.Kind() {
		return fmt.Errorf("%w: model is %q, config implies %q", models.ErrCorruptArtifact, snap.Model.Kind, fresh.model.Kind())
	}
	if err := json.Unmarshal(snap.Model.State, fresh.model); err != nil {
		return fmt.Errorf("%w: model: %w", models.ErrCorruptArtifact, err)
	}
	fresh.features = snap.FeatureNames
	fresh.fitted = snap.Fitted
	*p = *fresh
	return nil
}

func decodeStep(stored stepSnapshot, step encoders.Encoder) error {
	if stored.Kind != step.Kind() {
		return fmt.Errorf("step is %q, want %q", stored.Kind, step.Kind())
	}
	if err := json.Unmarshal(stored.State, step); err != nil {
		return fmt.Errorf("step %s: %w", stored.Kind, err)
	}
	if r, ok := step.(restorer); ok {
		return r.Restore()
	}
	return nil
}
