// Package selector implements the Selector (C4): matching a job's
// resource requirements against the cached catalog and prices to
// produce a minimum-cost tie set of placements.
package selector

import (
	"sort"

	"github.com/rvalieris/hyperdrive/pkg/cache"
	"github.com/rvalieris/hyperdrive/pkg/hderrors"
)

// ebsGBHour is the EBS prorate constant: a flat $0.10/GiB-month figure
// prorated to an hourly rate over a 30-day month (§4.4, §12).
const ebsGBHour = 0.1 / (24 * 30)

// Requirements is a job's resource ask (§4.4 input).
type Requirements struct {
	CPUs     int
	MemMB    int
	DiskGB   int
	Features map[string]float64
}

// Placement is one candidate the Selector may return.
type Placement struct {
	Shape           string
	AZ              string
	Cost            float64
	ExtraEBS        int
	InstanceStorage int
}

// Select returns the full minimum-cost tie set of placements for req,
// given the cached shapes and quotes. NoFeasibleShape if no shape
// meets the cpu/mem/feature floor; AllBackedOff if every matching
// (shape,zone) has backoff >= 1.
func Select(shapes []cache.InstanceShape, features []cache.ITFeature, quotes []cache.SpotQuote, req Requirements) ([]Placement, error) {
	featureIndex := map[string]map[string]float64{}
	for _, f := range features {
		if featureIndex[f.Shape] == nil {
			featureIndex[f.Shape] = map[string]float64{}
		}
		featureIndex[f.Shape][f.Key] = f.Value
	}

	eligible := map[string]cache.InstanceShape{}
	for _, s := range shapes {
		if s.CPUs < req.CPUs || s.MemMB < req.MemMB {
			continue
		}
		ok := true
		for k, min := range req.Features {
			if featureIndex[s.Shape][k] < min {
				ok = false
				break
			}
		}
		if ok {
			eligible[s.Shape] = s
		}
	}
	if len(eligible) == 0 {
		return nil, hderrors.NewError().WithCode(hderrors.CodeNoFeasibleShape).
			WithMessage("no cached instance shape meets the requested cpu/mem/feature floor")
	}

	var candidates []Placement
	for _, q := range quotes {
		shape, ok := eligible[q.Shape]
		if !ok || q.Backoff >= 1 {
			continue
		}
		extraEBS := req.DiskGB - shape.StorageGB
		if extraEBS < 0 {
			extraEBS = 0
		}
		cost := q.Price + float64(extraEBS)*ebsGBHour
		candidates = append(candidates, Placement{
			Shape:           shape.Shape,
			AZ:              q.AZ,
			Cost:            cost,
			ExtraEBS:        extraEBS,
			InstanceStorage: shape.StorageGB,
		})
	}
	if len(candidates) == 0 {
		return nil, hderrors.NewError().WithCode(hderrors.CodeAllBackedOff).
			WithMessage("every matching (shape,zone) is currently backed off")
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Cost < candidates[j].Cost })
	min := candidates[0].Cost
	var tieSet []Placement
	for _, c := range candidates {
		if c.Cost == min {
			tieSet = append(tieSet, c)
		}
	}
	return tieSet, nil
}
