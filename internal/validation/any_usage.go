// Package validation holds source-level guards run by repository tooling.
// The any-usage guard keeps type erasure deliberate: every `any` written as
// a type outside a generic constraint must be covered by an allowlist entry
// recording why the erased type is needed there.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Error locates one guard finding in a source file.
type Error struct {
	File    string
	Line    int
	Message string
	Code    string
}

// AnyAllowlist captures the approved any-usage locations.
type AnyAllowlist struct {
	Version      int                 `json:"version"`
	ExcludeGlobs []string            `json:"exclude_globs"`
	Entries      []AnyAllowlistEntry `json:"entries"`
}

// AnyAllowlistEntry approves any usage in one file. An entry with symbols
// covers only the named top-level declarations; without symbols it covers the
// whole file.
type AnyAllowlistEntry struct {
	Path      string   `json:"path"`
	Symbols   []string `json:"symbols,omitempty"`
	Rationale string   `json:"rationale"`
}

// LoadAnyAllowlist loads and validates the any-usage allowlist from disk.
func LoadAnyAllowlist(listPath string) (AnyAllowlist, error) {
	// #nosec G304 -- allowlist path is provided by repo tooling during linting
	data, err := os.ReadFile(listPath)
	if err != nil {
		return AnyAllowlist{}, fmt.Errorf("read any allowlist: %w", err)
	}
	var allowlist AnyAllowlist
	if err := json.Unmarshal(data, &allowlist); err != nil {
		return AnyAllowlist{}, fmt.Errorf("parse any allowlist: %w", err)
	}
	if err := validateAllowlist(&allowlist); err != nil {
		return AnyAllowlist{}, err
	}
	return allowlist, nil
}

// ValidateAnyUsageFromFile loads the allowlist and validates any usage under
// the roots.
func ValidateAnyUsageFromFile(listPath, baseDir string, roots []string) ([]Error, error) {
	allowlist, err := LoadAnyAllowlist(listPath)
	if err != nil {
		return nil, err
	}
	return ValidateAnyUsage(allowlist, baseDir, roots)
}

// ValidateAnyUsage reports any usage under the roots that is not allowlisted.
// Paths in findings and allowlist entries are relative to baseDir.
func ValidateAnyUsage(allowlist AnyAllowlist, baseDir string, roots []string) ([]Error, error) {
	if len(roots) == 0 {
		return nil, errors.New("no roots provided for any usage validation")
	}
	if err := validateAllowlist(&allowlist); err != nil {
		return nil, err
	}
	baseAbs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve base dir: %w", err)
	}
	index := buildUsageIndex(allowlist)
	var violations []Error

	for _, root := range roots {
		root = strings.TrimSpace(root)
		if root == "" {
			continue
		}
		rootPath := root
		if !filepath.IsAbs(rootPath) {
			rootPath = filepath.Join(baseAbs, rootPath)
		}
		info, err := os.Stat(rootPath)
		if err != nil {
			return nil, fmt.Errorf("stat root %s: %w", root, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("root %s is not a directory", root)
		}
		if err := filepath.WalkDir(rootPath, func(path string, entry fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if entry.IsDir() || !strings.HasSuffix(path, ".go") {
				return nil
			}
			rel, err := filepath.Rel(baseAbs, path)
			if err != nil {
				return err
			}
			rel = normalizePath(rel)
			if shouldExclude(rel, allowlist.ExcludeGlobs) {
				return nil
			}
			if index.wholeFile[rel] {
				return nil
			}
			fileViolations, err := scanFile(path, rel, index)
			if err != nil {
				return err
			}
			violations = append(violations, fileViolations...)
			return nil
		}); err != nil {
			return nil, err
		}
	}

	return violations, nil
}

func validateAllowlist(allowlist *AnyAllowlist) error {
	if allowlist.Version <= 0 {
		return errors.New("any allowlist version must be >= 1")
	}
	for i, entry := range allowlist.Entries {
		entry.Path = strings.TrimSpace(entry.Path)
		if entry.Path == "" {
			return fmt.Errorf("any allowlist entry %d missing path", i)
		}
		entry.Path = normalizePath(entry.Path)
		entry.Rationale = strings.TrimSpace(entry.Rationale)
		if entry.Rationale == "" {
			return fmt.Errorf("any allowlist entry %d missing rationale", i)
		}
		entry.Symbols = normalizeSymbols(entry.Symbols)
		allowlist.Entries[i] = entry
	}
	for i, glob := range allowlist.ExcludeGlobs {
		allowlist.ExcludeGlobs[i] = strings.TrimSpace(glob)
	}
	return nil
}

func normalizePath(p string) string {
	cleaned := filepath.Clean(strings.TrimSpace(p))
	cleaned = filepath.ToSlash(cleaned)
	return strings.TrimPrefix(cleaned, "./")
}

func normalizeSymbols(symbols []string) []string {
	if len(symbols) == 0 {
		return nil
	}
	out := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		symbol = strings.TrimSpace(symbol)
		if symbol != "" {
			out = append(out, symbol)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// usageIndex resolves whether a usage is approved: either its whole file is
// allowlisted, or the top-level symbol enclosing it is.
type usageIndex struct {
	wholeFile map[string]bool
	symbols   map[string]map[string]struct{}
}

func buildUsageIndex(allowlist AnyAllowlist) usageIndex {
	index := usageIndex{
		wholeFile: make(map[string]bool),
		symbols:   make(map[string]map[string]struct{}),
	}
	for _, entry := range allowlist.Entries {
		if len(entry.Symbols) == 0 {
			index.wholeFile[entry.Path] = true
			continue
		}
		symbolSet, ok := index.symbols[entry.Path]
		if !ok {
			symbolSet = make(map[string]struct{})
			index.symbols[entry.Path] = symbolSet
		}
		for _, symbol := range entry.Symbols {
			symbolSet[symbol] = struct{}{}
		}
	}
	return index
}

func (index usageIndex) allows(relPath, symbol string) bool {
	if index.wholeFile[relPath] {
		return true
	}
	if symbol == "" {
		return false
	}
	symbols, ok := index.symbols[relPath]
	if !ok {
		return false
	}
	_, ok = symbols[symbol]
	return ok
}

func scanFile(path, relPath string, index usageIndex) ([]Error, error) {
	// #nosec G304 -- path comes from walking validated roots
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, content, parser.ParseComments)
	if err != nil {
		return nil, err
	}
	constraints := collectTypeParamRanges(file)
	symbols := buildSymbolRanges(file)
	uses := collectAnyUsages(file, constraints)
	if len(uses) == 0 {
		return nil, nil
	}
	lines := strings.Split(string(content), "\n")
	var violations []Error
	for _, pos := range uses {
		position := fset.Position(pos)
		if index.allows(relPath, symbolForPos(symbols, pos)) {
			continue
		}
		code := ""
		if position.Line > 0 && position.Line <= len(lines) {
			code = strings.TrimSpace(lines[position.Line-1])
		}
		violations = append(violations, Error{
			File:    relPath,
			Line:    position.Line,
			Message: "disallowed any usage; add an allowlist entry or use a concrete type",
			Code:    code,
		})
	}
	return violations, nil
}

type typeParamRange struct {
	start token.Pos
	end   token.Pos
}

// collectTypeParamRanges gathers the source ranges of generic type parameter
// lists. `any` used as a constraint there is ordinary Go, not type erasure.
func collectTypeParamRanges(file *ast.File) []typeParamRange {
	var ranges []typeParamRange
	ast.Inspect(file, func(n ast.Node) bool {
		switch node := n.(type) {
		case *ast.FuncType:
			ranges = append(ranges, typeParamRanges(node.TypeParams)...)
		case *ast.TypeSpec:
			ranges = append(ranges, typeParamRanges(node.TypeParams)...)
		}
		return true
	})
	return ranges
}

func typeParamRanges(fields *ast.FieldList) []typeParamRange {
	if fields == nil {
		return nil
	}
	var ranges []typeParamRange
	for _, field := range fields.List {
		if field == nil || field.Type == nil {
			continue
		}
		ranges = append(ranges, typeParamRange{
			start: field.Type.Pos(),
			end:   field.Type.End(),
		})
	}
	return ranges
}

func collectAnyUsages(file *ast.File, constraints []typeParamRange) []token.Pos {
	var uses []token.Pos
	var stack []ast.Node
	ast.Inspect(file, func(n ast.Node) bool {
		if n == nil {
			stack = stack[:len(stack)-1]
			return true
		}
		stack = append(stack, n)
		ident, ok := n.(*ast.Ident)
		if ok && ident.Name == "any" && isTypeIdent(stack) && !inRange(ident.Pos(), constraints) {
			uses = append(uses, ident.Pos())
		}
		return true
	})
	return uses
}

func inRange(pos token.Pos, ranges []typeParamRange) bool {
	for _, r := range ranges {
		if pos >= r.start && pos <= r.end {
			return true
		}
	}
	return false
}

// isTypeIdent reports whether the identifier on top of the stack occupies a
// type position in its parent node, as opposed to naming a value or field.
func isTypeIdent(stack []ast.Node) bool {
	if len(stack) < 2 {
		return false
	}
	parent := stack[len(stack)-2]
	child := stack[len(stack)-1]
	switch node := parent.(type) {
	case *ast.ArrayType:
		return node.Elt == child
	case *ast.MapType:
		return node.Key == child || node.Value == child
	case *ast.ChanType:
		return node.Value == child
	case *ast.StarExpr:
		return node.X == child
	case *ast.Ellipsis:
		return node.Elt == child
	case *ast.Field:
		return node.Type == child
	case *ast.ValueSpec:
		return node.Type == child
	case *ast.TypeSpec:
		return node.Type == child
	case *ast.TypeAssertExpr:
		return node.Type == child
	case *ast.IndexExpr:
		return node.Index == child
	case *ast.IndexListExpr:
		for _, index := range node.Indices {
			if index == child {
				return true
			}
		}
	case *ast.CallExpr:
		return node.Fun == child
	}
	return false
}

type symbolRange struct {
	name  string
	start token.Pos
	end   token.Pos
}

// buildSymbolRanges maps top-level declarations to their source extents so a
// usage can be attributed to the symbol it lives in. Methods attribute to
// their receiver type.
func buildSymbolRanges(file *ast.File) []symbolRange {
	var ranges []symbolRange
	for _, decl := range file.Decls {
		switch node := decl.(type) {
		case *ast.GenDecl:
			for _, spec := range node.Specs {
				switch spec := spec.(type) {
				case *ast.TypeSpec:
					ranges = append(ranges, symbolRange{name: spec.Name.Name, start: spec.Pos(), end: spec.End()})
				case *ast.ValueSpec:
					for _, name := range spec.Names {
						ranges = append(ranges, symbolRange{name: name.Name, start: spec.Pos(), end: spec.End()})
					}
				}
			}
		case *ast.FuncDecl:
			name := node.Name.Name
			if node.Recv != nil && len(node.Recv.List) > 0 {
				if recvName := receiverTypeName(node.Recv.List[0].Type); recvName != "" {
					name = recvName
				}
			}
			ranges = append(ranges, symbolRange{name: name, start: node.Pos(), end: node.End()})
		}
	}
	return ranges
}

func receiverTypeName(expr ast.Expr) string {
	switch node := expr.(type) {
	case *ast.Ident:
		return node.Name
	case *ast.StarExpr:
		return receiverTypeName(node.X)
	case *ast.IndexExpr:
		return receiverTypeName(node.X)
	case *ast.IndexListExpr:
		return receiverTypeName(node.X)
	}
	return ""
}

func symbolForPos(ranges []symbolRange, pos token.Pos) string {
	for _, r := range ranges {
		if pos >= r.start && pos <= r.end {
			return r.name
		}
	}
	return ""
}

func shouldExclude(relPath string, globs []string) bool {
	for _, glob := range globs {
		if glob == "" {
			continue
		}
		matched, err := matchGlob(glob, relPath)
		if err == nil && matched {
			return true
		}
	}
	return false
}

// matchGlob supports ** for any path run alongside the usual * and ? within
// one segment.
func matchGlob(pattern, value string) (bool, error) {
	pattern = normalizePath(pattern)
	value = normalizePath(value)
	escaped := regexp.QuoteMeta(pattern)
	escaped = strings.ReplaceAll(escaped, `\*\*`, "<<ANY>>")
	escaped = strings.ReplaceAll(escaped, `\*`, `[^/]*`)
	escaped = strings.ReplaceAll(escaped, `\?`, `[^/]`)
	escaped = strings.ReplaceAll(escaped, "<<ANY>>", ".*")
	expr := "^" + escaped + "$"
	re, err := regexp.Compile(expr)
	if err != nil {
		return false, err
	}
	return re.MatchString(value), nil
}
