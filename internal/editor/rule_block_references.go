package editor

import (
	"context"
	"fmt"

	"quiltcore/pkg/design"
)

// NewBlockReferenceRule returns the rule requiring every pattern instance to
// place a block design that exists in the store.
func NewBlockReferenceRule() design.Rule {
	return blockReferenceRule{}
}

type blockReferenceRule struct{}

func (blockReferenceRule) Name() string { return "block_references" }

func (blockReferenceRule) Evaluate(_ context.Context, view design.RuleView, _ []design.Change) (design.Result, error) {
	res := design.Result{}
	for _, record := range view.ListPatternDesigns() {
		for _, instance := range record.Document.Instances {
			if _, ok := view.FindBlockDesign(instance.BlockID); ok {
				continue
			}
			res.Violations = append(res.Violations, design.Violation{
				Rule:     "block_references",
				Severity: design.SeverityBlock,
				Message:  fmt.Sprintf("pattern design %s instance %s places missing block design %q", record.Name, instance.ID, instance.BlockID),
				Entity:   design.EntityPatternDesign,
				EntityID: record.ID,
			})
		}
	}
	return res, nil
}
