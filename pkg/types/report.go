// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// PageMarker records that the text starting at Offset (a byte offset into
// the document text) belongs to Page.
type PageMarker struct {
	Offset int `json:"offset" yaml:"offset"`
	Page   int `json:"page" yaml:"page"`
}

// UnresolvedReference is a cross reference to a clause number that is not
// present in the extracted node set.
type UnresolvedReference struct {
	From   string `json:"from" yaml:"from"`
	Number string `json:"number" yaml:"number"`
}

// Orphan is a node whose number has no proper prefix in the node set.
type Orphan struct {
	ID            string `json:"id" yaml:"id"`
	Number        string `json:"number" yaml:"number"`
	MissingParent string `json:"missingParent" yaml:"missing_parent"`
}

// IssueKind names a numbering inconsistency.
type IssueKind string

const (
	IssueLevelMismatch IssueKind = "level_mismatch"
	IssueSkippedLevel  IssueKind = "skipped_level"
	IssueOutOfOrder    IssueKind = "out_of_order"
)

// NumberingIssue is a reported, never corrected, numbering inconsistency.
type NumberingIssue struct {
	ID     string    `json:"id" yaml:"id"`
	Kind   IssueKind `json:"kind" yaml:"kind"`
	Detail string    `json:"detail" yaml:"detail"`
}

// ResolveReport collects the hierarchy and reference problems found while
// assembling the node forest.
type ResolveReport struct {
	Orphans              []Orphan              `json:"orphans" yaml:"orphans"`
	UnresolvedReferences []UnresolvedReference `json:"unresolvedReferences" yaml:"unresolved_references"`
	NumberingIssues      []NumberingIssue      `json:"numberingIssues" yaml:"numbering_issues"`
}

// DiagnosticKind names a recoverable problem found while building nodes.
type DiagnosticKind string

const (
	DiagMissingTitle  DiagnosticKind = "missing_title"
	DiagEmptyBody     DiagnosticKind = "empty_body"
	DiagHeaderDepth   DiagnosticKind = "header_depth"
	DiagDuplicate     DiagnosticKind = "duplicate"
	DiagInvalidNumber DiagnosticKind = "invalid_number"
)

// Diagnostic is a MalformedSpan or duplicate-header note. Diagnostics are
// logged and returned, never raised.
type Diagnostic struct {
	ID     string         `json:"id" yaml:"id"`
	Kind   DiagnosticKind `json:"kind" yaml:"kind"`
	Detail string         `json:"detail" yaml:"detail"`
}
