// Package command turns what the operator types at the order prompt into
// structured intents.
package command

import (
	"context"
	"regexp"
	"strings"

	"github.com/hammamikhairi/ottopos/internal/domain"
	"github.com/hammamikhairi/ottopos/internal/logger"
)

// Compile-time interface check.
var _ domain.CommandParser = (*KeywordParser)(nil)

// KeywordParser matches input against a keyword table. The first word picks
// the intent and the rest of the line becomes its payload.
type KeywordParser struct {
	log      *logger.Logger
	patterns []patternRule
}

type patternRule struct {
	regex  *regexp.Regexp
	intent domain.IntentType
}

// NewKeywordParser creates a keyword-based command parser.
func NewKeywordParser(log *logger.Logger) *KeywordParser {
	p := &KeywordParser{log: log}
	p.patterns = []patternRule{
		{regexp.MustCompile(`(?i)^(new|start)$`), domain.IntentNewOrder},
		{regexp.MustCompile(`(?i)^(append|resume|open)(\s+(.*))?$`), domain.IntentAppendOrder},
		{regexp.MustCompile(`(?i)^(table|t)(\s+(.*))?$`), domain.IntentSelectTable},
		{regexp.MustCompile(`(?i)^(name|customer)(\s+(.*))?$`), domain.IntentSetName},
		{regexp.MustCompile(`(?i)^(phone|tel)(\s+(.*))?$`), domain.IntentSetPhone},
		{regexp.MustCompile(`(?i)^(guests|covers|pax)(\s+(.*))?$`), domain.IntentSetGuests},
		{regexp.MustCompile(`(?i)^(menu|m|dishes)$`), domain.IntentShowMenu},
		{regexp.MustCompile(`(?i)^(add|a|\+)(\s+(.*))?$`), domain.IntentAddItem},
		{regexp.MustCompile(`(?i)^(remove|rm|del|-)(\s+(.*))?$`), domain.IntentRemoveItem},
		{regexp.MustCompile(`(?i)^(cart|c|ls|show)$`), domain.IntentShowCart},
		{regexp.MustCompile(`(?i)^(submit|send|place)(\s+(.*))?$`), domain.IntentSubmit},
		{regexp.MustCompile(`(?i)^(cancel|clear|discard)$`), domain.IntentCancel},
		{regexp.MustCompile(`(?i)^(help|h|\?)$`), domain.IntentHelp},
		{regexp.MustCompile(`(?i)^(quit|exit|q)$`), domain.IntentQuit},
	}
	return p
}

// Parse converts operator input into an intent. Unrecognised input yields
// IntentUnknown with the input as payload.
func (p *KeywordParser) Parse(ctx context.Context, input string) (*domain.Intent, error) {
	trimmed := strings.Join(strings.Fields(input), " ")
	if trimmed == "" {
		return &domain.Intent{Type: domain.IntentUnknown}, nil
	}

	p.log.Debug("parsing input: %q", trimmed)

	// A bare number adds that menu entry.
	if isDigits(trimmed) {
		return &domain.Intent{Type: domain.IntentAddItem, Payload: trimmed, Args: []string{trimmed}}, nil
	}

	for _, rule := range p.patterns {
		m := rule.regex.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		p.log.Debug("matched intent: %s", rule.intent)
		var payload string
		if len(m) > 3 {
			payload = strings.TrimSpace(m[3])
		}
		return &domain.Intent{Type: rule.intent, Payload: payload, Args: strings.Fields(payload)}, nil
	}

	p.log.Debug("no match, returning unknown intent")
	return &domain.Intent{Type: domain.IntentUnknown, Payload: trimmed}, nil
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}
