package augment

import (
	"image"
	"math/rand/v2"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/boxaug/pkg/coco"
	"github.com/matzehuels/boxaug/pkg/errors"
)

// Stage is one step of a [Pipeline]: a transform and the probability that it
// fires for a given image.
type Stage struct {
	Transform   Transform
	Probability float64
}

// Pipeline applies stages in order, each firing independently.
type Pipeline struct {
	stages []Stage
}

// Result is the outcome of running a [Pipeline] on one image.
type Result struct {
	Image       *image.NRGBA
	Annotations []coco.Annotation

	// Fired records, per stage, whether the stage was applied.
	Fired []bool

	// Dropped is the number of input annotations missing from the output.
	Dropped int
}

// Applied returns the names of the stages that fired, in order.
func (r *Result) Applied(p *Pipeline) []string {
	var names []string
	for i, fired := range r.Fired {
		if fired && i < len(p.stages) {
			names = append(names, p.stages[i].Transform.Name())
		}
	}
	return names
}

// NewPipeline validates and assembles stages.
func NewPipeline(stages ...Stage) (*Pipeline, error) {
	for i, s := range stages {
		if s.Transform == nil {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "stage %d: transform is nil", i)
		}
		if err := errors.ValidateProbability(s.Transform.Name()+"_prob", s.Probability); err != nil {
			return nil, err
		}
	}
	return &Pipeline{stages: append([]Stage(nil), stages...)}, nil
}

// Stages returns a copy of the pipeline's stages.
func (p *Pipeline) Stages() []Stage {
	return append([]Stage(nil), p.stages...)
}

// Apply runs every stage on img and anns. For each stage one uniform draw
// from rng decides whether it fires: it fires when the draw is below its
// probability, so 0 never fires and 1 always does. The draw is consumed even
// for stages with probability 0 or 1, which keeps the random stream aligned
// across configurations.
func (p *Pipeline) Apply(img *image.NRGBA, anns []coco.Annotation, rng *rand.Rand) (*Result, error) {
	res := &Result{
		Image:       imaging.Clone(img),
		Annotations: coco.CloneAll(anns),
		Fired:       make([]bool, len(p.stages)),
	}
	for i, s := range p.stages {
		if rng.Float64() >= s.Probability {
			continue
		}
		out, outAnns, err := s.Transform.Modify(res.Image, res.Annotations, rng)
		if err != nil {
			code := errors.GetCode(err)
			if code == "" {
				code = errors.ErrCodeInternal
			}
			return nil, errors.Wrap(code, err, "%s", s.Transform.Name())
		}
		res.Image, res.Annotations = out, outAnns
		res.Fired[i] = true
	}
	res.Dropped = len(anns) - len(res.Annotations)
	return res, nil
}
