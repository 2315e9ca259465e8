// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"strconv"
	"strings"
)

// ContentKind tags which part of the source document a node came from.
// Guidance text about a clause is not the clause itself, so the kind is
// carried on every node and never inferred from the number alone.
type ContentKind string

const (
	KindGeneralConditions ContentKind = "general_conditions"
	KindGuidance          ContentKind = "guidance"
	KindForm              ContentKind = "form"
	KindAnnex             ContentKind = "annex"
	KindUnknown           ContentKind = "unknown"
)

// Valid reports whether k is one of the known content kinds.
func (k ContentKind) Valid() bool {
	switch k {
	case KindGeneralConditions, KindGuidance, KindForm, KindAnnex, KindUnknown:
		return true
	}
	return false
}

// Operative reports whether spans of this kind carry contract text.
func (k ContentKind) Operative() bool {
	return k == KindGeneralConditions
}

// Category classifies a clause by subject matter.
type Category string

const (
	CategoryAdministrative Category = "administrative"
	CategoryTechnical      Category = "technical"
	CategoryFinancial      Category = "financial"
	CategoryLegal          Category = "legal"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryAdministrative, CategoryTechnical, CategoryFinancial, CategoryLegal:
		return true
	}
	return false
}

// Importance ranks a clause for downstream retrieval.
type Importance string

const (
	ImportanceHigh   Importance = "high"
	ImportanceMedium Importance = "medium"
	ImportanceLow    Importance = "low"
)

// Valid reports whether i is one of the known importance levels.
func (i Importance) Valid() bool {
	return i.rank() > 0
}

func (i Importance) rank() int {
	switch i {
	case ImportanceLow:
		return 1
	case ImportanceMedium:
		return 2
	case ImportanceHigh:
		return 3
	}
	return 0
}

// MaxImportance returns the higher of a and b.
func MaxImportance(a, b Importance) Importance {
	if b.rank() > a.rank() {
		return b
	}
	return a
}

// ActionVerb is the modal verb that makes a sentence an obligation.
type ActionVerb string

const (
	VerbShall  ActionVerb = "shall"
	VerbMust   ActionVerb = "must"
	VerbMay    ActionVerb = "may"
	VerbShould ActionVerb = "should"
)

// Valid reports whether v is one of the known action verbs.
func (v ActionVerb) Valid() bool {
	switch v {
	case VerbShall, VerbMust, VerbMay, VerbShould:
		return true
	}
	return false
}

// PartyUnspecified is recorded when an obligation sentence names no party
// before its verb.
const PartyUnspecified = "Unspecified"

// Obligation is one detected shall/must/may/should statement.
type Obligation struct {
	Party       string     `json:"party" yaml:"party"`
	ActionVerb  ActionVerb `json:"actionVerb" yaml:"action_verb"`
	Description string     `json:"description" yaml:"description"`

	// Condition holds the if/when/unless qualifier text. Nil when the
	// sentence carries no qualifier.
	Condition *string `json:"condition,omitempty" yaml:"condition,omitempty"`
}

// NodeMetadata holds the derived classification of a clause.
type NodeMetadata struct {
	Category     Category   `json:"category" yaml:"category"`
	Importance   Importance `json:"importance" yaml:"importance"`
	ExternalRefs []string   `json:"externalRefs" yaml:"external_refs"`
}

// ClauseNode is one clause or sub-clause of a document.
type ClauseNode struct {
	// ID is unique within a document: the bare number for operative
	// clauses, "<kind>:<number>" for every other content kind.
	ID     string `json:"id" yaml:"id"`
	Number string `json:"number" yaml:"number"`
	Title  string `json:"title" yaml:"title"`

	// Level is the count of dot-separated segments in Number.
	Level int `json:"level" yaml:"level"`

	FullText          string      `json:"fullText" yaml:"full_text"`
	FullTextTruncated bool        `json:"fullTextTruncated" yaml:"full_text_truncated"`
	Summary           string      `json:"summary" yaml:"summary"`
	ContentKind       ContentKind `json:"contentKind" yaml:"content_kind"`

	// Page is the page the header appeared on. Zero when the input had
	// no page markers.
	Page int `json:"page,omitempty" yaml:"page,omitempty"`

	Obligations    []Obligation `json:"obligations" yaml:"obligations"`
	RelatedClauses []string     `json:"relatedClauses" yaml:"related_clauses"`
	Keywords       []string     `json:"keywords" yaml:"keywords"`
	Parties        []string     `json:"parties" yaml:"parties"`
	Metadata       NodeMetadata `json:"metadata" yaml:"metadata"`

	// Parent is the id of the enclosing node, empty for roots.
	Parent   string   `json:"parent,omitempty" yaml:"parent,omitempty"`
	Children []string `json:"children" yaml:"children"`
}

// NodeID builds the document-unique id for a number within a content kind.
func NodeID(kind ContentKind, number string) string {
	if kind.Operative() || kind == "" {
		return number
	}
	return string(kind) + ":" + number
}

// LevelOf returns the number of dot-separated segments in number.
func LevelOf(number string) int {
	if number == "" {
		return 0
	}
	return len(strings.Split(number, "."))
}

// CanonicalNumber strips whitespace, trailing dots, and leading zeros from
// each segment ("04.1." becomes "4.1"). It returns "" for input that is not
// a dotted number.
func CanonicalNumber(raw string) string {
	raw = strings.TrimRight(strings.TrimSpace(raw), ".")
	if raw == "" {
		return ""
	}
	parts := strings.Split(raw, ".")
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return ""
		}
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".")
}

// CompareNumbers orders dotted numbers segment by segment numerically,
// shorter prefixes first. Non-numeric segments compare lexically.
func CompareNumbers(a, b string) int {
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		an, aerr := strconv.Atoi(as[i])
		bn, berr := strconv.Atoi(bs[i])
		if aerr == nil && berr == nil {
			if an != bn {
				if an < bn {
					return -1
				}
				return 1
			}
			continue
		}
		if c := strings.Compare(as[i], bs[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(as) < len(bs):
		return -1
	case len(as) > len(bs):
		return 1
	}
	return 0
}

// ParentNumbers returns the proper prefixes of number, longest first.
// "4.1.2" yields ["4.1", "4"].
func ParentNumbers(number string) []string {
	parts := strings.Split(number, ".")
	var out []string
	for i := len(parts) - 1; i > 0; i-- {
		out = append(out, strings.Join(parts[:i], "."))
	}
	return out
}
