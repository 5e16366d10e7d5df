package editor

import "quiltcore/pkg/design"

// NewRulesEngine constructs an empty engine instance.
func NewRulesEngine() *RulesEngine {
	return design.NewRulesEngine()
}

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(NewPaletteIntegrityRule())
	engine.Register(NewGridOccupancyRule())
	engine.Register(NewDocumentStructureRule())
	engine.Register(NewBlockReferenceRule())
	return engine
}
