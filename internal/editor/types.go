package editor

import "quiltcore/pkg/design"

type (
	EntityType         = design.EntityType
	Severity           = design.Severity
	Base               = design.Base
	BlockDesign        = design.BlockDesign
	PatternDesign      = design.PatternDesign
	Change             = design.Change
	Action             = design.Action
	Violation          = design.Violation
	Result             = design.Result
	RuleViolationError = design.RuleViolationError
	ErrNotFound        = design.ErrNotFound
	Rule               = design.Rule
	RulesEngine        = design.RulesEngine
	Transaction        = design.Transaction
	TransactionView    = design.TransactionView
	PersistentStore    = design.PersistentStore
)

const (
	EntityBlockDesign   = design.EntityBlockDesign
	EntityPatternDesign = design.EntityPatternDesign
)

const (
	SeverityBlock = design.SeverityBlock
	SeverityWarn  = design.SeverityWarn
	SeverityLog   = design.SeverityLog
)

const (
	ActionCreate = design.ActionCreate
	ActionUpdate = design.ActionUpdate
	ActionDelete = design.ActionDelete
)
