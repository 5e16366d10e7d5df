// Command design-check validates design document JSON files against the
// document schema, the string caps external documents must respect, and the
// default rule set. Files are checked together as one bundle, so pattern
// documents may place blocks defined by sibling files.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"quiltcore/internal/editor"
	"quiltcore/pkg/design"
)

var exitFunc = os.Exit

// main runs the command-line interface using the program arguments and exits
// the process with the status code returned by cli.
func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

func cli(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("design-check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var strict bool
	fs.BoolVar(&strict, "strict", false, "treat warnings as failures")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, "usage: design-check [-strict] file.json ...")
		return 2
	}

	result, err := run(fs.Args())
	if err != nil {
		fmt.Fprintf(stderr, "Design check failed: %v\n", err)
		return 1
	}
	for _, v := range result.Violations {
		if _, writeErr := fmt.Fprintf(stdout, "[%s] %s: %s\n", v.Severity, v.Rule, v.Message); writeErr != nil {
			return 1
		}
	}
	if result.HasBlocking() {
		fmt.Fprintln(stderr, "Design check failed: blocking violations present.")
		return 1
	}
	if strict && len(result.Violations) > 0 {
		fmt.Fprintln(stderr, "Design check failed: violations present in strict mode.")
		return 1
	}
	if _, writeErr := fmt.Fprintln(stdout, "Design check passed."); writeErr != nil {
		return 1
	}
	return 0
}

// validatePath ensures a document path stays within the working tree and is
// not an absolute or path-traversing reference. This mitigates G304 concerns
// around variable-based file inclusion.
func validatePath(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", fmt.Errorf("empty path")
	}
	if filepath.IsAbs(p) {
		return "", fmt.Errorf("absolute paths not allowed: %s", p)
	}
	clean := filepath.Clean(p)
	if strings.Contains(clean, "..") { // prevents traversal outside working dir
		return "", fmt.Errorf("path traversal not allowed: %s", p)
	}
	return clean, nil
}

// run loads every document into one bundle and evaluates the default rules
// over it. Path validation, decoding, and rule errors abort the check;
// violations are returned for the caller to report.
func run(paths []string) (design.Result, error) {
	bundle := newBundle()
	for _, path := range paths {
		if err := bundle.load(path); err != nil {
			return design.Result{}, err
		}
	}
	return editor.NewDefaultRulesEngine().Evaluate(context.Background(), bundle, nil)
}

// bundle implements design.RuleView over documents loaded from files. Listing
// order follows load order so violation output is stable.
type bundle struct {
	blocks     map[string]design.BlockDesign
	patterns   map[string]design.PatternDesign
	blockIDs   []string
	patternIDs []string
}

func newBundle() *bundle {
	return &bundle{
		blocks:   make(map[string]design.BlockDesign),
		patterns: make(map[string]design.PatternDesign),
	}
}

func (b *bundle) load(path string) error {
	safePath, err := validatePath(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(safePath) // #nosec G304: path validated by validatePath
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	id := recordID(safePath)
	if _, dup := b.blocks[id]; dup {
		return fmt.Errorf("duplicate document id %q from %s", id, path)
	}
	if _, dup := b.patterns[id]; dup {
		return fmt.Errorf("duplicate document id %q from %s", id, path)
	}

	kind, err := sniffDocumentKind(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	switch kind {
	case design.EntityBlockDesign:
		doc, err := design.DecodeBlockDocument(data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := validateBlockDocument(doc); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		record := design.BlockDesign{Name: id, Document: doc}
		record.ID = id
		b.blocks[id] = record
		b.blockIDs = append(b.blockIDs, id)
	case design.EntityPatternDesign:
		doc, err := design.DecodePatternDocument(data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := validatePatternDocument(doc); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		record := design.PatternDesign{Name: id, Document: doc}
		record.ID = id
		b.patterns[id] = record
		b.patternIDs = append(b.patternIDs, id)
	}
	return nil
}

// String caps applied to externally supplied documents before they reach the
// rule evaluation. The editors never produce values near these limits.
const (
	maxIDLength    = 64
	maxNameLength  = 120
	maxColorLength = 32
)

func validatePaletteStrings(palette []design.Role) error {
	for i, role := range palette {
		if role.ID == "" {
			return fmt.Errorf("palette[%d]: empty role id", i)
		}
		if len(role.ID) > maxIDLength {
			return fmt.Errorf("palette[%d]: role id exceeds %d characters", i, maxIDLength)
		}
		if len(role.Name) > maxNameLength {
			return fmt.Errorf("palette[%d]: role name exceeds %d characters", i, maxNameLength)
		}
		if len(role.Color) > maxColorLength {
			return fmt.Errorf("palette[%d]: role color exceeds %d characters", i, maxColorLength)
		}
	}
	return nil
}

func validateBlockDocument(doc design.BlockDocument) error {
	if err := validatePaletteStrings(doc.Palette); err != nil {
		return err
	}
	for i, unit := range doc.Units {
		if unit.ID == "" {
			return fmt.Errorf("units[%d]: empty unit id", i)
		}
		if len(unit.ID) > maxIDLength {
			return fmt.Errorf("units[%d]: unit id exceeds %d characters", i, maxIDLength)
		}
		for part, roleID := range unit.Roles {
			if len(roleID) > maxIDLength {
				return fmt.Errorf("units[%d]: part %q role id exceeds %d characters", i, part, maxIDLength)
			}
		}
	}
	return nil
}

func validatePatternDocument(doc design.PatternDocument) error {
	if err := validatePaletteStrings(doc.Palette); err != nil {
		return err
	}
	for i, instance := range doc.Instances {
		if instance.ID == "" {
			return fmt.Errorf("instances[%d]: empty instance id", i)
		}
		if len(instance.ID) > maxIDLength {
			return fmt.Errorf("instances[%d]: instance id exceeds %d characters", i, maxIDLength)
		}
		if len(instance.BlockID) > maxIDLength {
			return fmt.Errorf("instances[%d]: block reference exceeds %d characters", i, maxIDLength)
		}
		for roleID, color := range instance.Overrides {
			if len(roleID) > maxIDLength {
				return fmt.Errorf("instances[%d]: override role id %q exceeds %d characters", i, roleID, maxIDLength)
			}
			if len(color) > maxColorLength {
				return fmt.Errorf("instances[%d]: override color for role %q exceeds %d characters", i, roleID, maxColorLength)
			}
		}
	}
	if doc.Borders == nil {
		return nil
	}
	for i, border := range doc.Borders.Borders {
		if border.ID == "" {
			return fmt.Errorf("borders[%d]: empty border id", i)
		}
		if len(border.ID) > maxIDLength {
			return fmt.Errorf("borders[%d]: border id exceeds %d characters", i, maxIDLength)
		}
	}
	return nil
}

func (b *bundle) ListBlockDesigns() []design.BlockDesign {
	out := make([]design.BlockDesign, 0, len(b.blockIDs))
	for _, id := range b.blockIDs {
		out = append(out, b.blocks[id])
	}
	return out
}

func (b *bundle) ListPatternDesigns() []design.PatternDesign {
	out := make([]design.PatternDesign, 0, len(b.patternIDs))
	for _, id := range b.patternIDs {
		out = append(out, b.patterns[id])
	}
	return out
}

func (b *bundle) FindBlockDesign(id string) (design.BlockDesign, bool) {
	record, ok := b.blocks[id]
	return record, ok
}

func (b *bundle) FindPatternDesign(id string) (design.PatternDesign, bool) {
	record, ok := b.patterns[id]
	return record, ok
}

// recordID derives a stable record id from the file name. Patterns placing a
// block reference it by this id.
func recordID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// sniffDocumentKind distinguishes block from pattern documents by their
// envelope fields. Block documents carry a square size and units; pattern
// documents carry a rows/cols grid and instances.
func sniffDocumentKind(data []byte) (design.EntityType, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return "", fmt.Errorf("decode document: %w", err)
	}
	_, hasSize := probe["size"]
	_, hasUnits := probe["units"]
	_, hasRows := probe["rows"]
	_, hasCols := probe["cols"]
	_, hasInstances := probe["instances"]
	blockLike := hasSize || hasUnits
	patternLike := hasRows || hasCols || hasInstances
	switch {
	case blockLike && !patternLike:
		return design.EntityBlockDesign, nil
	case patternLike && !blockLike:
		return design.EntityPatternDesign, nil
	case blockLike && patternLike:
		return "", errors.New("document mixes block and pattern fields")
	default:
		return "", errors.New("document is neither a block nor a pattern")
	}
}
