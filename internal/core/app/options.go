package app

import (
	"impactgraph/internal/core/config"
	"impactgraph/internal/engine/impact"
	"impactgraph/internal/engine/parser"
	"impactgraph/internal/engine/resolver"
	"impactgraph/internal/engine/resolver/drivers"
)

// ImpactOptions maps the analysis section of the config onto the propagator.
func (a *App) ImpactOptions() impact.Options {
	c := a.Config.Analysis
	significant := make([]parser.Classification, 0, len(c.Significant))
	for _, s := range c.Significant {
		significant = append(significant, parser.Classification(s))
	}
	return impact.Options{
		Depth:             c.Depth,
		MaxAffected:       c.MaxAffectedFiles,
		MaxCriticalPaths:  c.MaxCriticalPaths,
		MaxWarnings:       c.MaxWarnings,
		CriticalityFactor: c.CriticalityFactor,
		BaseWeight:        c.BaseWeight,
		Significant:       significant,
	}
}

func resolveOptions(cfg *config.Config) resolver.Options {
	aliases := make([]drivers.Alias, 0, len(cfg.Resolve.Aliases))
	for _, al := range cfg.Resolve.Aliases {
		aliases = append(aliases, drivers.Alias{Prefix: al.Prefix, Target: al.Target})
	}
	return resolver.Options{
		Extensions: cfg.Resolve.Extensions,
		IndexFiles: cfg.Resolve.IndexFiles,
		Roots:      cfg.Resolve.Roots,
		Aliases:    aliases,
	}
}
