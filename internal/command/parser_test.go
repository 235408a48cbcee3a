package command

import (
	"context"
	"strings"
	"testing"

	"github.com/hammamikhairi/ottopos/internal/domain"
	"github.com/hammamikhairi/ottopos/internal/logger"
)

func TestKeywordParser(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	parser := NewKeywordParser(log)
	ctx := context.Background()

	tests := []struct {
		input       string
		wantType    domain.IntentType
		wantPayload string
	}{
		{"new", domain.IntentNewOrder, ""},
		{"append 1042", domain.IntentAppendOrder, "1042"},
		{"RESUME  ab-7", domain.IntentAppendOrder, "ab-7"},
		{"append", domain.IntentAppendOrder, ""},
		{"table 5", domain.IntentSelectTable, "5"},
		{"t Patio 2", domain.IntentSelectTable, "Patio 2"},
		{"name Ana Lima", domain.IntentSetName, "Ana Lima"},
		{"phone 555 0101", domain.IntentSetPhone, "555 0101"},
		{"guests 4", domain.IntentSetGuests, "4"},
		{"menu", domain.IntentShowMenu, ""},
		{"add 3 2 no onion", domain.IntentAddItem, "3 2 no onion"},
		{"+ pho", domain.IntentAddItem, "pho"},
		{"7", domain.IntentAddItem, "7"},
		{"remove 2", domain.IntentRemoveItem, "2"},
		{"cart", domain.IntentShowCart, ""},
		{"submit", domain.IntentSubmit, ""},
		{"submit card", domain.IntentSubmit, "card"},
		{"cancel", domain.IntentCancel, ""},
		{"?", domain.IntentHelp, ""},
		{"q", domain.IntentQuit, ""},
		{"", domain.IntentUnknown, ""},
		{"tablecloth", domain.IntentUnknown, "tablecloth"},
		{"make it spicy", domain.IntentUnknown, "make it spicy"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			intent, err := parser.Parse(ctx, tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if intent.Type != tt.wantType {
				t.Errorf("Parse(%q) type = %s, want %s", tt.input, intent.Type, tt.wantType)
			}
			if intent.Payload != tt.wantPayload {
				t.Errorf("Parse(%q) payload = %q, want %q", tt.input, intent.Payload, tt.wantPayload)
			}
			if got := strings.Join(intent.Args, " "); tt.wantType != domain.IntentUnknown && got != tt.wantPayload {
				t.Errorf("Parse(%q) args = %v", tt.input, intent.Args)
			}
		})
	}
}
