package impact

import "impactgraph/internal/engine/parser"

type Options struct {
	Depth             int
	MaxAffected       int
	MaxCriticalPaths  int
	MaxWarnings       int
	CriticalityFactor float64
	BaseWeight        float64
	Significant       []parser.Classification
}

func DefaultOptions() Options {
	return Options{
		Depth:             3,
		MaxAffected:       50,
		MaxCriticalPaths:  5,
		MaxWarnings:       100,
		CriticalityFactor: 2,
		BaseWeight:        1,
		Significant:       []parser.Classification{parser.ClassPage},
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Depth <= 0 {
		o.Depth = def.Depth
	}
	if o.MaxAffected <= 0 {
		o.MaxAffected = def.MaxAffected
	}
	if o.MaxCriticalPaths <= 0 {
		o.MaxCriticalPaths = def.MaxCriticalPaths
	}
	if o.MaxWarnings <= 0 {
		o.MaxWarnings = def.MaxWarnings
	}
	if o.CriticalityFactor < 1 {
		o.CriticalityFactor = def.CriticalityFactor
	}
	if o.BaseWeight <= 0 {
		o.BaseWeight = def.BaseWeight
	}
	if o.Significant == nil {
		o.Significant = def.Significant
	}
	return o
}

func (o Options) significant(c parser.Classification) bool {
	for _, s := range o.Significant {
		if s == c {
			return true
		}
	}
	return false
}
