// Package namecheck implements heuristic person-name detection and
// redaction. Search snippets frequently surface recruiter contacts
// ("call Sarah Jones today"), and the ranking stage must never mistake a
// person for a hiring organization.
package namecheck

import (
	"regexp"
	"strings"
)

// Checker detects person names and redacts them from free text. Callers
// depend on the interface so the rule set can be swapped for a stricter
// named-entity heuristic without touching call sites.
type Checker interface {
	IsLikelyPerson(name string) bool
	Redact(text string) string
}

// legalSuffixes are entity markers that disqualify a person-name match.
// A two-token capitalized string ending in one of these is a company.
var legalSuffixes = []string{
	"ltd", "ltd.", "limited", "plc", "llp", "llc", "inc", "inc.", "gmbh",
	"group", "holdings", "services", "solutions", "systems", "engineering",
	"manufacturing", "industries", "technologies", "company", "co", "co.",
	"recruitment", "associates", "partners", "brothers", "sons",
}

// honorifics mark an unambiguous person reference.
var honorifics = []string{"mr", "mrs", "ms", "miss", "dr", "prof", "sir"}

// personPattern matches a capitalized two-token human name, optionally
// preceded by an honorific.
var personPattern = regexp.MustCompile(`^(?:(?:Mr|Mrs|Ms|Miss|Dr|Prof|Sir)\.?\s+)?[A-Z][a-z]+(?:[-'][A-Z][a-z]+)?\s+[A-Z][a-z]+(?:[-'][A-Z][a-z]+)?$`)

// redactPattern matches honorific-prefixed names and contact-style name
// mentions inside running text.
var redactPattern = regexp.MustCompile(`\b(?:Mr|Mrs|Ms|Miss|Dr|Prof|Sir)\.?\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)?\b`)

// contactPattern matches "contact/call/speak to/email <First Last>" phrasing.
var contactPattern = regexp.MustCompile(`\b((?i:contact|call|ask for|speak to|email))\s+[A-Z][a-z]+\s+[A-Z][a-z]+\b`)

const redactedToken = "[redacted]"

// RuleChecker is the default pattern-based Checker.
type RuleChecker struct {
	suffixes   map[string]bool
	honorifics map[string]bool
}

// New creates a RuleChecker with the default suffix and honorific sets.
func New() *RuleChecker {
	c := &RuleChecker{
		suffixes:   make(map[string]bool, len(legalSuffixes)),
		honorifics: make(map[string]bool, len(honorifics)),
	}
	for _, s := range legalSuffixes {
		c.suffixes[s] = true
	}
	for _, h := range honorifics {
		c.honorifics[h] = true
	}
	return c
}

// IsLikelyPerson reports whether the name looks like a human name: a
// capitalized two-token name, optionally with an honorific, and without any
// legal-entity suffix.
func (c *RuleChecker) IsLikelyPerson(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}

	// Any legal-entity token anywhere in the name disqualifies it.
	for _, tok := range strings.Fields(strings.ToLower(name)) {
		if c.suffixes[strings.Trim(tok, ",.")] {
			return false
		}
	}

	// Honorific prefix is decisive on its own.
	first := strings.ToLower(strings.TrimSuffix(strings.Fields(name)[0], "."))
	rest := strings.Fields(name)
	if c.honorifics[first] && len(rest) >= 2 {
		return true
	}

	return personPattern.MatchString(name)
}

// Redact replaces person-name mentions in free text with a neutral token.
// Names carrying a legal-entity suffix are left intact: "call Acme
// Engineering" is a company mention, not a contact.
func (c *RuleChecker) Redact(text string) string {
	if text == "" {
		return ""
	}
	out := redactPattern.ReplaceAllString(text, redactedToken)
	out = contactPattern.ReplaceAllStringFunc(out, func(m string) string {
		fields := strings.Fields(m)
		last := strings.ToLower(strings.Trim(fields[len(fields)-1], ",."))
		if c.suffixes[last] {
			return m
		}
		// Keep the leading verb phrase, drop the name tokens.
		return strings.Join(fields[:len(fields)-2], " ") + " " + redactedToken
	})
	return out
}
