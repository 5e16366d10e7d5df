package editor

import (
	"context"
	"fmt"

	"quiltcore/pkg/design"
)

// NewGridOccupancyRule returns the rule checking that stored documents keep
// every unit and instance inside grid bounds with no overlapping footprints.
// The editors already prevent both at placement time, so a violation here
// means the document arrived from outside the editing flow; it warns rather
// than blocks so such documents can still be saved and repaired.
func NewGridOccupancyRule() design.Rule {
	return gridOccupancyRule{}
}

type gridOccupancyRule struct{}

func (gridOccupancyRule) Name() string { return "grid_occupancy" }

func (gridOccupancyRule) Evaluate(_ context.Context, view design.RuleView, _ []design.Change) (design.Result, error) {
	res := design.Result{}

	for _, record := range view.ListBlockDesigns() {
		doc := record.Document
		covered := make(map[design.Position]string)
		for _, unit := range doc.Units {
			if !design.InBounds(unit.Position, unit.Span, doc.Size, doc.Size) {
				res.Violations = append(res.Violations, occupancyViolation(design.EntityBlockDesign, record.ID,
					fmt.Sprintf("block design %s unit %s lies outside the %dx%d grid", record.Name, unit.ID, doc.Size, doc.Size)))
				continue
			}
			for _, cell := range design.CellsCovered(unit.Position, unit.Span) {
				if other, taken := covered[cell]; taken {
					res.Violations = append(res.Violations, occupancyViolation(design.EntityBlockDesign, record.ID,
						fmt.Sprintf("block design %s units %s and %s overlap at row %d col %d", record.Name, other, unit.ID, cell.Row, cell.Col)))
					continue
				}
				covered[cell] = unit.ID
			}
		}
	}

	for _, record := range view.ListPatternDesigns() {
		doc := record.Document
		occupied := make(map[design.Position]string)
		for _, instance := range doc.Instances {
			if !doc.InBounds(instance.Position) {
				res.Violations = append(res.Violations, occupancyViolation(design.EntityPatternDesign, record.ID,
					fmt.Sprintf("pattern design %s instance %s lies outside the %dx%d grid", record.Name, instance.ID, doc.Rows, doc.Cols)))
				continue
			}
			if other, taken := occupied[instance.Position]; taken {
				res.Violations = append(res.Violations, occupancyViolation(design.EntityPatternDesign, record.ID,
					fmt.Sprintf("pattern design %s instances %s and %s share row %d col %d", record.Name, other, instance.ID, instance.Position.Row, instance.Position.Col)))
				continue
			}
			occupied[instance.Position] = instance.ID
		}
	}

	return res, nil
}

func occupancyViolation(entity design.EntityType, id, message string) design.Violation {
	return design.Violation{
		Rule:     "grid_occupancy",
		Severity: design.SeverityWarn,
		Message:  message,
		Entity:   entity,
		EntityID: id,
	}
}
