package bot

import (
	"fmt"
	"math/rand"
	"sync"

	gonnx "github.com/advancedclimatesystems/gonnx"
	"github.com/rs/zerolog/log"
	"gorgonia.org/tensor"

	"github.com/freeeve/hexciv/pkg/civ"
)

// Policy model tensor layout. The model reads a [1, NumFeatures] float32
// "features" input and writes one logit per action slot to "action_logits".
const (
	NumFeatures    = 8
	policyInput    = "features"
	policyOutput   = "action_logits"
	slotFoundCity  = 0
	slotBuild      = 1
	slotTrain      = 2
	slotMove       = 3
	numActionSlots = 4
)

// PolicyStrategy runs an ONNX policy network (via gonnx, a pure Go ONNX
// runtime) that decides which kinds of action to take this turn. The
// concrete choice for each kind comes from TacticalStrategy.
type PolicyStrategy struct {
	tactical TacticalStrategy
	model    *gonnx.Model
	mu       sync.Mutex
}

// NewPolicyStrategy loads the policy model at path.
func NewPolicyStrategy(path string, cat *civ.Catalog) (*PolicyStrategy, error) {
	model, err := gonnx.NewModelFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load policy model: %w", err)
	}
	return &PolicyStrategy{tactical: TacticalStrategy{Catalog: cat}, model: model}, nil
}

func (s *PolicyStrategy) Name() string { return "hard" }

func (s *PolicyStrategy) Decide(view civ.PlayerView, turn int, rng *rand.Rand) []civ.Action {
	if view.Player == nil {
		return nil
	}
	logits, err := s.run(EncodeView(view, turn))
	if err != nil {
		log.Warn().Err(err).Str("playerId", view.Player.ID).Msg("bot/policy: inference failed, falling back to medium")
		return s.tactical.Decide(view, turn, rng)
	}
	return s.fromLogits(view, logits, source(rng))
}

// fromLogits turns a positive logit into the tactical choice for that slot.
func (s *PolicyStrategy) fromLogits(view civ.PlayerView, logits []float32, rng *rand.Rand) []civ.Action {
	var actions []civ.Action
	if logits[slotFoundCity] > 0 && len(view.FoundingSites) > 0 {
		actions = append(actions, civ.FoundCity{Name: colonyName(view), At: s.tactical.bestSite(view)})
	}
	if logits[slotBuild] > 0 {
		if a := s.tactical.nextBuilding(view); a != nil {
			actions = append(actions, a)
		}
	}
	if logits[slotTrain] > 0 {
		if a := s.tactical.nextUnit(view); a != nil {
			actions = append(actions, a)
		}
	}
	if logits[slotMove] > 0 {
		if a := outwardStep(view, rng); a != nil {
			actions = append(actions, *a)
		}
	}
	return finish(view, actions, s.tactical.research(view), rng)
}

func (s *PolicyStrategy) run(features []float32) ([]float32, error) {
	in := tensor.New(
		tensor.WithShape(1, NumFeatures),
		tensor.Of(tensor.Float32),
		tensor.WithBacking(features),
	)
	s.mu.Lock()
	outputs, err := s.model.Run(gonnx.Tensors{policyInput: in})
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("policy run: %w", err)
	}
	out, ok := outputs[policyOutput]
	if !ok {
		return nil, fmt.Errorf("output %q not found", policyOutput)
	}
	logits, err := toFloat32(out.Data())
	if err != nil {
		return nil, err
	}
	if len(logits) < numActionSlots {
		return nil, fmt.Errorf("policy output too short: %d", len(logits))
	}
	return logits, nil
}

func toFloat32(data any) ([]float32, error) {
	switch d := data.(type) {
	case []float32:
		return d, nil
	case []float64:
		f32 := make([]float32, len(d))
		for i, v := range d {
			f32[i] = float32(v)
		}
		return f32, nil
	}
	return nil, fmt.Errorf("unexpected output type %T", data)
}

// EncodeView flattens a player view into the policy feature vector. Counts
// are scaled to roughly [0,1].
func EncodeView(view civ.PlayerView, turn int) []float32 {
	f := make([]float32, NumFeatures)
	f[0] = float32(turn) / 100
	f[1] = float32(len(view.Cities)) / 10
	f[2] = float32(len(view.Units)) / 20
	f[3] = float32(len(view.FoundingSites)) / 50
	f[4] = float32(len(view.Available)) / 10
	buildings, settlers := 0, 0
	for _, c := range view.Cities {
		buildings += len(c.Buildings)
	}
	for _, u := range view.Units {
		if u.Type == "settler" {
			settlers++
		}
	}
	f[5] = float32(buildings) / 20
	f[6] = float32(settlers) / 5
	if view.Player != nil {
		f[7] = float32(len(view.Player.Research.Completed)) / 24
	}
	return f
}
