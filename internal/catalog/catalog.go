// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog holds the recognition rules used to segment and annotate
// contract text. Rules are data: the default set is an embedded YAML file
// and a replacement can be loaded from disk without touching the segmenter
// or the node builder.
//
// Ordering contract: within a rule list, rules are tried in declaration
// order. Single-answer lookups return the first rule that matches. Scans
// collect every match and resolve overlapping matches in favour of the
// earlier-declared rule. Match length never decides.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/clause-engine/pkg/types"
)

//go:embed catalog.yaml
var defaultYAML []byte

// Rule is one named pattern. Kind is used by section and header rules,
// Value by rules whose match maps to a canonical name (parties, verbs,
// external documents).
type Rule struct {
	Name    string            `yaml:"name"`
	Pattern string            `yaml:"pattern"`
	Kind    types.ContentKind `yaml:"kind,omitempty"`
	Value   string            `yaml:"value,omitempty"`

	re *regexp.Regexp
}

// CategoryRule maps trigger word prefixes to a category.
type CategoryRule struct {
	Category types.Category `yaml:"category"`
	Triggers []string       `yaml:"triggers"`

	re *regexp.Regexp
}

// ImportanceRule is one row of the importance table. Every condition that
// is set must hold for the row to match.
type ImportanceRule struct {
	Name           string           `yaml:"name"`
	Importance     types.Importance `yaml:"importance"`
	Category       types.Category   `yaml:"category,omitempty"`
	Keywords       []string         `yaml:"keywords,omitempty"`
	Clauses        []string         `yaml:"clauses,omitempty"`
	MinObligations int              `yaml:"min_obligations,omitempty"`

	re *regexp.Regexp
}

// Catalog is a compiled, immutable rule set. It is safe for concurrent use.
type Catalog struct {
	DefaultKind        types.ContentKind `yaml:"default_kind"`
	Sections           []Rule            `yaml:"sections"`
	ClauseHeaders      []Rule            `yaml:"clause_headers"`
	SubClauseHeaders   []Rule            `yaml:"sub_clause_headers"`
	Parties            []Rule            `yaml:"parties"`
	ObligationVerbs    []Rule            `yaml:"obligation_verbs"`
	Conditions         []Rule            `yaml:"conditions"`
	CrossReferences    []Rule            `yaml:"cross_references"`
	ExternalReferences []Rule            `yaml:"external_references"`
	Stopwords          []string          `yaml:"stopwords"`
	DefaultCategory    types.Category    `yaml:"default_category"`
	CategoryScanChars  int               `yaml:"category_scan_chars"`
	Categories         []CategoryRule    `yaml:"categories"`
	DefaultImportance  types.Importance  `yaml:"default_importance"`
	Importance         []ImportanceRule  `yaml:"importance"`

	stop map[string]bool
}

var loadDefault = sync.OnceValues(func() (*Catalog, error) {
	return Parse(defaultYAML)
})

// Default returns the embedded catalog. It panics if the embedded file does
// not compile, which only a broken build can cause.
func Default() *Catalog {
	c, err := loadDefault()
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// DefaultYAML returns the raw embedded catalog file.
func DefaultYAML() []byte {
	out := make([]byte, len(defaultYAML))
	copy(out, defaultYAML)
	return out
}

// Load reads and compiles a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse compiles a catalog from YAML.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	if err := c.compile(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) compile() error {
	if c.DefaultKind == "" {
		c.DefaultKind = types.KindGeneralConditions
	}
	if !c.DefaultKind.Valid() {
		return fmt.Errorf("default_kind: unknown content kind %q", c.DefaultKind)
	}
	if c.DefaultCategory == "" {
		c.DefaultCategory = types.CategoryAdministrative
	}
	if !c.DefaultCategory.Valid() {
		return fmt.Errorf("default_category: unknown category %q", c.DefaultCategory)
	}
	if c.DefaultImportance == "" {
		c.DefaultImportance = types.ImportanceLow
	}
	if !c.DefaultImportance.Valid() {
		return fmt.Errorf("default_importance: unknown importance %q", c.DefaultImportance)
	}
	if len(c.ClauseHeaders)+len(c.SubClauseHeaders) == 0 {
		return fmt.Errorf("catalog defines no header rules")
	}

	lists := []struct {
		name     string
		rules    []Rule
		groups   int
		needKind bool
		verbs    bool
	}{
		{"sections", c.Sections, 0, true, false},
		{"clause_headers", c.ClauseHeaders, 1, false, false},
		{"sub_clause_headers", c.SubClauseHeaders, 1, false, false},
		{"parties", c.Parties, 0, false, false},
		{"obligation_verbs", c.ObligationVerbs, 0, false, true},
		{"conditions", c.Conditions, 0, false, false},
		{"cross_references", c.CrossReferences, 0, false, false},
		{"external_references", c.ExternalReferences, 0, false, false},
	}
	for _, l := range lists {
		for i := range l.rules {
			r := &l.rules[i]
			re, err := regexp.Compile(r.Pattern)
			if err != nil {
				return fmt.Errorf("%s[%d] %q: %w", l.name, i, r.Name, err)
			}
			if re.NumSubexp() < l.groups {
				return fmt.Errorf("%s[%d] %q: pattern needs a capture group for the clause number", l.name, i, r.Name)
			}
			if l.needKind && !r.Kind.Valid() {
				return fmt.Errorf("%s[%d] %q: unknown content kind %q", l.name, i, r.Name, r.Kind)
			}
			if r.Kind != "" && !r.Kind.Valid() {
				return fmt.Errorf("%s[%d] %q: unknown content kind %q", l.name, i, r.Name, r.Kind)
			}
			if l.verbs && !types.ActionVerb(r.Value).Valid() {
				return fmt.Errorf("%s[%d] %q: unknown action verb %q", l.name, i, r.Name, r.Value)
			}
			r.re = re
		}
	}

	for i := range c.Categories {
		cr := &c.Categories[i]
		if !cr.Category.Valid() {
			return fmt.Errorf("categories[%d]: unknown category %q", i, cr.Category)
		}
		re, err := prefixPattern(cr.Triggers)
		if err != nil {
			return fmt.Errorf("categories[%d] %s: %w", i, cr.Category, err)
		}
		cr.re = re
	}

	for i := range c.Importance {
		ir := &c.Importance[i]
		if !ir.Importance.Valid() {
			return fmt.Errorf("importance[%d] %q: unknown importance %q", i, ir.Name, ir.Importance)
		}
		if ir.Category != "" && !ir.Category.Valid() {
			return fmt.Errorf("importance[%d] %q: unknown category %q", i, ir.Name, ir.Category)
		}
		if len(ir.Keywords) > 0 {
			re, err := prefixPattern(ir.Keywords)
			if err != nil {
				return fmt.Errorf("importance[%d] %q: %w", i, ir.Name, err)
			}
			ir.re = re
		}
	}

	c.stop = make(map[string]bool, len(c.Stopwords))
	for _, w := range c.Stopwords {
		c.stop[strings.ToLower(w)] = true
	}
	return nil
}

// prefixPattern builds a case-insensitive regexp matching any of words at
// a word start. Words are prefixes: "indemnit" matches "indemnity".
func prefixPattern(words []string) (*regexp.Regexp, error) {
	if len(words) == 0 {
		return nil, fmt.Errorf("no trigger words")
	}
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(strings.ToLower(strings.TrimSpace(w)))
	}
	return regexp.Compile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)`)
}

// HeaderLevel distinguishes clause headers from sub-clause headers. A
// clause header outranks a sub-clause header when spans are closed.
type HeaderLevel int

const (
	HeaderSubClause HeaderLevel = iota + 1
	HeaderClause
)

func (l HeaderLevel) String() string {
	switch l {
	case HeaderClause:
		return "clause"
	case HeaderSubClause:
		return "sub-clause"
	}
	return "unknown"
}

// Header is a matched clause or sub-clause header line.
type Header struct {
	Rule   string
	Level  HeaderLevel
	Number string
	Title  string

	// Kind is the rule's own content kind, empty when the rule defers to
	// the active section.
	Kind types.ContentKind
}

// MatchHeader tries clause header rules, then sub-clause header rules, on
// a single trimmed line.
func (c *Catalog) MatchHeader(line string) (Header, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Header{}, false
	}
	if h, ok := matchHeader(c.ClauseHeaders, line, HeaderClause); ok {
		return h, true
	}
	return matchHeader(c.SubClauseHeaders, line, HeaderSubClause)
}

func matchHeader(rules []Rule, line string, level HeaderLevel) (Header, bool) {
	for _, r := range rules {
		m := r.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		h := Header{Rule: r.Name, Level: level, Number: m[1], Kind: r.Kind}
		if len(m) > 2 {
			h.Title = strings.TrimSpace(m[2])
		}
		return h, true
	}
	return Header{}, false
}

// MatchSection returns the first section rule matching a trimmed line.
func (c *Catalog) MatchSection(line string) (Rule, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Rule{}, false
	}
	for _, r := range c.Sections {
		if r.re.MatchString(line) {
			return r, true
		}
	}
	return Rule{}, false
}

// Match is one rule hit inside a text. Start and End are byte offsets.
type Match struct {
	Rule  string
	Value string
	Text  string
	Start int
	End   int
}

// first returns the leftmost match of the first rule that matches at all.
func first(rules []Rule, text string) (Match, bool) {
	for _, r := range rules {
		if loc := r.re.FindStringIndex(text); loc != nil {
			return Match{Rule: r.Name, Value: r.Value, Text: text[loc[0]:loc[1]], Start: loc[0], End: loc[1]}, true
		}
	}
	return Match{}, false
}

// scan collects every match of every rule and drops matches that overlap
// a match of an earlier-declared rule. The result is ordered by position.
func scan(rules []Rule, text string) []Match {
	type cand struct {
		Match
		order int
	}
	var cands []cand
	for i, r := range rules {
		for _, loc := range r.re.FindAllStringIndex(text, -1) {
			if loc[0] == loc[1] {
				continue
			}
			cands = append(cands, cand{
				Match: Match{Rule: r.Name, Value: r.Value, Text: text[loc[0]:loc[1]], Start: loc[0], End: loc[1]},
				order: i,
			})
		}
	}
	sort.SliceStable(cands, func(a, b int) bool {
		if cands[a].order != cands[b].order {
			return cands[a].order < cands[b].order
		}
		return cands[a].Start < cands[b].Start
	})

	var kept []Match
	for _, cd := range cands {
		overlaps := false
		for _, k := range kept {
			if cd.Start < k.End && k.Start < cd.End {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, cd.Match)
		}
	}
	sort.Slice(kept, func(a, b int) bool { return kept[a].Start < kept[b].Start })
	return kept
}

// FindParties returns every party mention in text, ordered by position.
func (c *Catalog) FindParties(text string) []Match {
	return scan(c.Parties, text)
}

// FirstVerb returns the obligation verb of a sentence: the leftmost hit of
// the first verb rule that matches anywhere in it.
func (c *Catalog) FirstVerb(sentence string) (Match, bool) {
	return first(c.ObligationVerbs, sentence)
}

// FirstCondition returns the qualifier clause of a sentence, if any.
func (c *Catalog) FirstCondition(sentence string) (Match, bool) {
	return first(c.Conditions, sentence)
}

// FindExternalReferences returns every external document mention in text.
func (c *Catalog) FindExternalReferences(text string) []Match {
	return scan(c.ExternalReferences, text)
}

var numberRe = regexp.MustCompile(`\d+(?:\.\d+)*`)

// CrossReferenceNumbers returns the clause numbers referenced in text, in
// order of appearance, canonicalised and without duplicates.
func (c *Catalog) CrossReferenceNumbers(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range scan(c.CrossReferences, text) {
		for _, raw := range numberRe.FindAllString(m.Text, -1) {
			n := types.CanonicalNumber(raw)
			if n == "" || seen[n] {
				continue
			}
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

// IsStopword reports whether a lowercased term is excluded from keywords.
func (c *Catalog) IsStopword(term string) bool {
	return c.stop[term]
}

// Categorize returns the first category whose triggers appear in the title
// or the leading CategoryScanChars characters of body.
func (c *Catalog) Categorize(title, body string) types.Category {
	if c.CategoryScanChars > 0 {
		body = headRunes(body, c.CategoryScanChars)
	}
	text := title + "\n" + body
	for _, cr := range c.Categories {
		if cr.re.MatchString(text) {
			return cr.Category
		}
	}
	return c.DefaultCategory
}

// ImportanceInput is what the importance table is evaluated against.
type ImportanceInput struct {
	Number      string
	Title       string
	Body        string
	Category    types.Category
	Obligations int
}

// Rate returns the importance of the first table row that matches.
func (c *Catalog) Rate(in ImportanceInput) types.Importance {
	root := in.Number
	if i := strings.IndexByte(root, '.'); i >= 0 {
		root = root[:i]
	}
	text := in.Title + "\n" + in.Body
	for _, ir := range c.Importance {
		if ir.Category != "" && ir.Category != in.Category {
			continue
		}
		if ir.re != nil && !ir.re.MatchString(text) {
			continue
		}
		if len(ir.Clauses) > 0 && !contains(ir.Clauses, root) {
			continue
		}
		if in.Obligations < ir.MinObligations {
			continue
		}
		return ir.Importance
	}
	return c.DefaultImportance
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func headRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
