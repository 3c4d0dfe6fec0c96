package classify

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/mask-contour-mcp/internal/raster"
)

// Policy names accepted by PolicyByName.
const (
	PolicyHeuristic = "heuristic"
	PolicyLargest   = "largest"
)

// Decision is the classification of one instance of a working set.
type Decision struct {
	// Index is the instance's position in the area-sorted working set.
	Index int    `json:"index"`
	Name  string `json:"name,omitempty"`
	Classification
}

// BackgroundPolicy decides which instances of a working set are background.
// Decide returns exactly one decision per instance, in input order.
type BackgroundPolicy interface {
	Name() string
	Decide(instances []raster.Instance) ([]Decision, error)
}

// HeuristicPolicy classifies every instance independently with Classify.
type HeuristicPolicy struct {
	Params Params

	// Workers bounds the number of instances classified concurrently.
	// Zero or negative means runtime.NumCPU().
	Workers int
}

// Name returns "heuristic".
func (p HeuristicPolicy) Name() string { return PolicyHeuristic }

// Decide classifies the instances concurrently. The result does not depend on
// scheduling: each decision lands in the slot of its instance.
func (p HeuristicPolicy) Decide(instances []raster.Instance) ([]Decision, error) {
	if err := p.Params.Validate(); err != nil {
		return nil, err
	}

	if err := checkMasks(instances); err != nil {
		return nil, err
	}

	out := make([]Decision, len(instances))

	var g errgroup.Group
	g.SetLimit(workerLimit(p.Workers))
	for i := range instances {
		i := i // per-iteration copy; go.mod targets go 1.21
		in := instances[i]
		g.Go(func() error {
			out[i] = Decision{
				Index:          in.Index,
				Name:           in.Name,
				Classification: classify(computeStatistics(in.Mask, p.Params), p.Params),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// LargestIsBackgroundPolicy treats the first instance of an area-sorted
// working set as the background and keeps the rest. Statistics are still
// computed for every instance.
type LargestIsBackgroundPolicy struct {
	Params Params
}

// Name returns "largest".
func (p LargestIsBackgroundPolicy) Name() string { return PolicyLargest }

// Decide marks instance 0 as background with reason "largest".
func (p LargestIsBackgroundPolicy) Decide(instances []raster.Instance) ([]Decision, error) {
	if err := p.Params.Validate(); err != nil {
		return nil, err
	}

	if err := checkMasks(instances); err != nil {
		return nil, err
	}

	out := make([]Decision, len(instances))
	for i, in := range instances {
		c := Classification{Reason: ReasonKept, Stats: computeStatistics(in.Mask, p.Params)}
		if i == 0 {
			c.IsBackground = true
			c.Reason = ReasonLargest
			c.Detail = fmt.Sprintf("largest of %d masks", len(instances))
		}
		out[i] = Decision{Index: in.Index, Name: in.Name, Classification: c}
	}
	return out, nil
}

// PolicyByName returns the policy registered under name.
func PolicyByName(name string, params Params, workers int) (BackgroundPolicy, error) {
	switch name {
	case PolicyHeuristic:
		return HeuristicPolicy{Params: params, Workers: workers}, nil
	case PolicyLargest:
		return LargestIsBackgroundPolicy{Params: params}, nil
	default:
		return nil, fmt.Errorf("%w: unknown background policy %q (want %q or %q)",
			raster.ErrInvalidParameter, name, PolicyHeuristic, PolicyLargest)
	}
}

// Partition splits instances into kept and dropped sets according to
// decisions, preserving order. decisions must be the output of Decide for the
// same instances.
func Partition(instances []raster.Instance, decisions []Decision) (kept, dropped []raster.Instance, err error) {
	if len(instances) != len(decisions) {
		return nil, nil, fmt.Errorf("%w: %d decisions for %d instances", raster.ErrInvalidParameter, len(decisions), len(instances))
	}
	kept = make([]raster.Instance, 0, len(instances))
	dropped = make([]raster.Instance, 0, len(instances))
	for i, in := range instances {
		if decisions[i].IsBackground {
			dropped = append(dropped, in)
		} else {
			kept = append(kept, in)
		}
	}
	return kept, dropped, nil
}

func checkMasks(instances []raster.Instance) error {
	for _, in := range instances {
		if in.Mask == nil {
			return fmt.Errorf("%w: instance %d (%s) has no mask", raster.ErrInvalidRaster, in.Index, in.Name)
		}
	}
	return nil
}

func workerLimit(n int) int {
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}
