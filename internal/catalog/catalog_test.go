// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/clause-engine/pkg/types"
)

func TestDefaultCompiles(t *testing.T) {
	c := Default()
	require.NotNil(t, c)
	assert.Equal(t, types.KindGeneralConditions, c.DefaultKind)
	assert.NotEmpty(t, c.ClauseHeaders)
	assert.NotEmpty(t, c.SubClauseHeaders)
	assert.Same(t, c, Default())
}

func TestMatchHeader(t *testing.T) {
	c := Default()
	tests := []struct {
		name      string
		line      string
		wantOK    bool
		wantLevel HeaderLevel
		wantNum   string
		wantTitle string
	}{
		{"clause with title", "Clause 1 General Provisions", true, HeaderClause, "1", "General Provisions"},
		{"clause upper case", "CLAUSE 20 CLAIMS, DISPUTES AND ARBITRATION", true, HeaderClause, "20", "CLAIMS, DISPUTES AND ARBITRATION"},
		{"clause without title", "Clause 7", true, HeaderClause, "7", ""},
		{"sub-clause", "Sub-Clause 4.1 Contractor's General Obligations", true, HeaderSubClause, "4.1", "Contractor's General Obligations"},
		{"numbered heading", "14.7 Payment", true, HeaderSubClause, "14.7", "Payment"},
		{"surrounding whitespace", "   Clause 5 Variations  ", true, HeaderClause, "5", "Variations"},
		{"prose mentioning a clause", "as described in Clause 4 the Contractor shall", false, 0, "", ""},
		{"clause reference sentence", "Clause 4 applies.", false, 0, "", ""},
		{"bare number", "14.7", false, 0, "", ""},
		{"blank", "   ", false, 0, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, ok := c.MatchHeader(tt.line)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.wantLevel, h.Level)
			assert.Equal(t, tt.wantNum, h.Number)
			assert.Equal(t, tt.wantTitle, h.Title)
		})
	}
}

func TestMatchSection(t *testing.T) {
	c := Default()
	tests := []struct {
		line string
		want types.ContentKind
		ok   bool
	}{
		{"General Conditions", types.KindGeneralConditions, true},
		{"Guidance for the Preparation of Particular Conditions", types.KindGuidance, true},
		{"LETTER OF TENDER", types.KindForm, true},
		{"Annex A", types.KindAnnex, true},
		{"Annex A Form of Parent Company Guarantee", types.KindAnnex, true},
		{"the Letter of Tender shall be signed", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			r, ok := c.MatchSection(tt.line)
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, r.Kind)
		})
	}
}

func TestFindParties(t *testing.T) {
	c := Default()
	got := c.FindParties("The Employer's Personnel and the Contractor shall notify the Engineer and the Nominated Subcontractor.")
	var values []string
	for _, m := range got {
		values = append(values, m.Value)
	}
	assert.Equal(t, []string{"Employer", "Contractor", "Engineer", "Subcontractor"}, values)
	for i := 1; i < len(got); i++ {
		assert.Less(t, got[i-1].Start, got[i].Start)
	}
}

func TestFirstVerbRuleOrder(t *testing.T) {
	c := Default()
	// "may" appears first in the text but "shall" is declared first.
	m, ok := c.FirstVerb("The Engineer may instruct and the Contractor shall comply.")
	require.True(t, ok)
	assert.Equal(t, "shall", m.Value)

	_, ok = c.FirstVerb("The Works are described in the Specification.")
	assert.False(t, ok)
}

func TestFirstCondition(t *testing.T) {
	c := Default()
	m, ok := c.FirstCondition("The Contractor shall pay the costs if the Engineer so instructs.")
	require.True(t, ok)
	assert.Equal(t, "if the Engineer so instructs", m.Text)

	m, ok = c.FirstCondition("Payment shall be made, provided that the invoice is correct.")
	require.True(t, ok)
	assert.Equal(t, "provided-that", m.Rule)

	_, ok = c.FirstCondition("The Contractor shall submit a Performance Security.")
	assert.False(t, ok)
}

func TestCrossReferenceNumbers(t *testing.T) {
	c := Default()
	got := c.CrossReferenceNumbers("Subject to Sub-Clause 04.1 and Sub-Clauses 8.2, 8.3 and 8.4, see Clause 20. Refer to sub-clause 4.1 again.")
	assert.Equal(t, []string{"4.1", "8.2", "8.3", "8.4", "20"}, got)
	assert.Empty(t, c.CrossReferenceNumbers("No references here."))
}

func TestFindExternalReferences(t *testing.T) {
	c := Default()
	got := c.FindExternalReferences("as stated in the Appendix to Tender, the Specification and the Drawings")
	var values []string
	for _, m := range got {
		values = append(values, m.Value)
	}
	assert.Equal(t, []string{"Appendix to Tender", "Specification", "Drawings"}, values)
}

// Overlapping rules must resolve by declaration order, never by length.
func TestScanOverlapPrefersEarlierRule(t *testing.T) {
	data := []byte(`
clause_headers:
  - name: clause
    pattern: '^Clause (\d+)'
parties:
  - name: short
    pattern: 'Board'
    value: Short
  - name: long
    pattern: 'Dispute Adjudication Board'
    value: Long
`)
	c, err := Parse(data)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		got := c.FindParties("the Dispute Adjudication Board decides")
		require.Len(t, got, 1)
		assert.Equal(t, "Short", got[0].Value)
		assert.Equal(t, "Board", got[0].Text)
	}

	swapped := []byte(`
clause_headers:
  - name: clause
    pattern: '^Clause (\d+)'
parties:
  - name: long
    pattern: 'Dispute Adjudication Board'
    value: Long
  - name: short
    pattern: 'Board'
    value: Short
`)
	c, err = Parse(swapped)
	require.NoError(t, err)
	got := c.FindParties("the Dispute Adjudication Board decides")
	require.Len(t, got, 1)
	assert.Equal(t, "Long", got[0].Value)
}

func TestHeaderRuleOrder(t *testing.T) {
	data := []byte(`
clause_headers:
  - name: first
    pattern: '^Clause (\d+)'
    kind: annex
  - name: second
    pattern: '^Clause (\d+) (.+)$'
`)
	c, err := Parse(data)
	require.NoError(t, err)
	h, ok := c.MatchHeader("Clause 3 Title")
	require.True(t, ok)
	assert.Equal(t, "first", h.Rule)
	assert.Equal(t, types.KindAnnex, h.Kind)
	assert.Empty(t, h.Title)
}

func TestCategorize(t *testing.T) {
	c := Default()
	tests := []struct {
		title string
		body  string
		want  types.Category
	}{
		{"Payment", "The Employer shall pay the Contractor.", types.CategoryFinancial},
		{"Termination by Employer", "The Employer shall be entitled to terminate.", types.CategoryLegal},
		{"Tests on Completion", "The Contractor shall carry out the tests.", types.CategoryTechnical},
		{"Notices", "Each notice shall be in writing.", types.CategoryAdministrative},
		{"Interpretation", "Words indicating persons include firms.", types.CategoryAdministrative},
		{"Insurance", "", types.CategoryLegal},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Categorize(tt.title, tt.body))
		})
	}
}

func TestCategorizeScansLeadingBodyOnly(t *testing.T) {
	c := Default()
	body := ""
	for len(body) < 600 {
		body += "words words "
	}
	body += "payment"
	assert.Equal(t, types.CategoryAdministrative, c.Categorize("Interpretation", body))
}

func TestRate(t *testing.T) {
	c := Default()
	tests := []struct {
		name string
		in   ImportanceInput
		want types.Importance
	}{
		{"payment keyword", ImportanceInput{Number: "2.4", Title: "Employer's Financial Arrangements", Body: "evidence of payment"}, types.ImportanceHigh},
		{"key clause", ImportanceInput{Number: "8.1", Title: "Commencement of Works"}, types.ImportanceHigh},
		{"financial category", ImportanceInput{Number: "13.8", Category: types.CategoryFinancial}, types.ImportanceHigh},
		{"many obligations", ImportanceInput{Number: "6.1", Obligations: 4}, types.ImportanceHigh},
		{"legal", ImportanceInput{Number: "17.1", Category: types.CategoryLegal}, types.ImportanceMedium},
		{"some obligations", ImportanceInput{Number: "6.2", Obligations: 2}, types.ImportanceMedium},
		{"default", ImportanceInput{Number: "1.2", Title: "Interpretation"}, types.ImportanceLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Rate(tt.in))
		})
	}
}

func TestIsStopword(t *testing.T) {
	c := Default()
	assert.True(t, c.IsStopword("the"))
	assert.True(t, c.IsStopword("shall"))
	assert.True(t, c.IsStopword("no"))
	assert.False(t, c.IsStopword("contractor"))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		errMsg string
	}{
		{"bad yaml", "clause_headers: [", "parsing catalog"},
		{"no headers", "parties: []", "no header rules"},
		{"bad regex", "clause_headers:\n  - name: x\n    pattern: '(\\d+'", `clause_headers[0] "x"`},
		{"missing group", "clause_headers:\n  - name: x\n    pattern: '^Clause \\d+'", "capture group"},
		{"bad kind", "clause_headers:\n  - name: x\n    pattern: '(\\d+)'\n    kind: preamble", "unknown content kind"},
		{"bad verb", "clause_headers:\n  - name: x\n    pattern: '(\\d+)'\nobligation_verbs:\n  - name: will\n    pattern: 'will'\n    value: will", "unknown action verb"},
		{"bad category", "clause_headers:\n  - name: x\n    pattern: '(\\d+)'\ncategories:\n  - category: misc\n    triggers: [a]", "unknown category"},
		{"bad importance", "clause_headers:\n  - name: x\n    pattern: '(\\d+)'\nimportance:\n  - name: r\n    importance: urgent", "unknown importance"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(path, DefaultYAML(), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, c.Parties, len(Default().Parties))

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading catalog")
}
