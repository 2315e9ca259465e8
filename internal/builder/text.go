// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package builder

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pdiddy/clause-engine/pkg/types"
)

var (
	// paragraphBreak separates paragraphs: a blank line.
	paragraphBreak = regexp.MustCompile(`\n[ \t\r]*\n`)

	// wordPattern matches candidate keyword tokens.
	wordPattern = regexp.MustCompile(`[A-Za-z][A-Za-z'\-]*[A-Za-z]|[A-Za-z]`)
)

const descriptionTrim = " \t,;:.!?-"

// obligations returns one obligation per sentence that contains a verb.
func (b *Builder) obligations(text string) []types.Obligation {
	out := []types.Obligation{}
	for _, s := range sentences(text) {
		verb, ok := b.cat.FirstVerb(s)
		if !ok {
			continue
		}

		party := types.PartyUnspecified
		for _, m := range b.cat.FindParties(s) {
			if m.End > verb.Start {
				break
			}
			party = m.Value
		}

		start, end := verb.End, len(s)
		var condition *string
		if c, ok := b.cat.FirstCondition(s); ok {
			if qualifier := strings.Trim(c.Text, descriptionTrim); qualifier != "" {
				condition = &qualifier
			}
			if c.Start >= verb.End {
				// "shall, if instructed, carry out": the action follows the
				// qualifier when nothing but punctuation precedes it.
				if strings.Trim(s[verb.End:c.Start], descriptionTrim) == "" {
					start = c.End
				} else {
					end = c.Start
				}
			}
		}

		desc := strings.Trim(s[start:end], descriptionTrim)
		desc, _ = truncateRunes(desc, b.cfg.DescriptionMaxLen)

		out = append(out, types.Obligation{
			Party:       party,
			ActionVerb:  types.ActionVerb(verb.Value),
			Description: strings.TrimSpace(desc),
			Condition:   condition,
		})
	}
	return out
}

// sentences splits text into sentences. Paragraph breaks always end a
// sentence; inside a paragraph a sentence ends at '.', '!' or '?' followed
// by whitespace. Whitespace runs collapse to single spaces.
func sentences(text string) []string {
	var out []string
	for _, para := range paragraphs(text) {
		start := 0
		for i := 0; i < len(para); i++ {
			switch para[i] {
			case '.', '!', '?':
				if i+1 < len(para) && para[i+1] == ' ' {
					if s := strings.TrimSpace(para[start : i+1]); s != "" {
						out = append(out, s)
					}
					start = i + 1
				}
			}
		}
		if s := strings.TrimSpace(para[start:]); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// paragraphs splits on blank lines and collapses whitespace in each part.
func paragraphs(text string) []string {
	var out []string
	for _, p := range paragraphBreak.Split(strings.TrimSpace(text), -1) {
		if p = strings.Join(strings.Fields(p), " "); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// keywords ranks stoplist-filtered terms by frequency, ties broken by first
// occurrence, and keeps the top KeywordLimit.
func (b *Builder) keywords(text string) []string {
	type term struct {
		word  string
		count int
		first int
	}
	byWord := make(map[string]*term)
	var terms []*term

	for i, tok := range wordPattern.FindAllString(text, -1) {
		w := normalizeTerm(tok)
		if utf8.RuneCountInString(w) < 3 || b.cat.IsStopword(w) {
			continue
		}
		if t, ok := byWord[w]; ok {
			t.count++
			continue
		}
		t := &term{word: w, count: 1, first: i}
		byWord[w] = t
		terms = append(terms, t)
	}

	sort.SliceStable(terms, func(i, j int) bool {
		if terms[i].count != terms[j].count {
			return terms[i].count > terms[j].count
		}
		return terms[i].first < terms[j].first
	})
	if len(terms) > b.cfg.KeywordLimit {
		terms = terms[:b.cfg.KeywordLimit]
	}
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = t.word
	}
	return out
}

func normalizeTerm(tok string) string {
	w := strings.ToLower(tok)
	w = strings.TrimSuffix(w, "'s")
	return strings.Trim(w, "'-")
}

// summarize returns the first paragraph when it fits, otherwise as many of
// its leading sentences as fit, otherwise a hard cut. Non-operative text is
// labelled with its content kind.
func summarize(kind types.ContentKind, text string, max int) string {
	paras := paragraphs(text)
	if len(paras) == 0 {
		return ""
	}
	first := paras[0]

	var s string
	if utf8.RuneCountInString(first) <= max {
		s = first
	} else {
		for _, sent := range sentences(first) {
			next := sent
			if s != "" {
				next = s + " " + sent
			}
			if utf8.RuneCountInString(next) > max {
				break
			}
			s = next
		}
		if s == "" {
			cut, _ := truncateRunes(first, max-3)
			s = strings.TrimRightFunc(cut, unicode.IsSpace) + "..."
		}
	}

	if label := kindLabel(kind); label != "" {
		s = label + ": " + s
	}
	return s
}

func kindLabel(kind types.ContentKind) string {
	switch kind {
	case types.KindGuidance:
		return "Guidance"
	case types.KindForm:
		return "Form"
	case types.KindAnnex:
		return "Annex"
	case types.KindUnknown:
		return "Unclassified"
	}
	return ""
}

// truncateRunes cuts s to at most n runes and reports whether it did.
func truncateRunes(s string, n int) (string, bool) {
	if n < 0 {
		n = 0
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i], true
		}
		count++
	}
	return s, false
}
