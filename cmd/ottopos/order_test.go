package main

import "testing"

func TestAddArgs(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantQuery string
		wantQty   int
		wantNotes string
		wantErr   bool
	}{
		{"dish only", []string{"3"}, "3", 1, "", false},
		{"with qty", []string{"brik", "2"}, "brik", 2, "", false},
		{"x qty", []string{"brik", "x4"}, "brik", 4, "", false},
		{"qty and notes", []string{"tagine", "1", "no", "olives"}, "tagine", 1, "no olives", false},
		{"notes without qty", []string{"tea", "extra", "mint"}, "tea", 1, "extra mint", false},
		{"zero qty passes through", []string{"tea", "0"}, "tea", 0, "", false},
		{"empty", nil, "", 0, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, n, notes, err := addArgs(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if q != tt.wantQuery || n != tt.wantQty || notes != tt.wantNotes {
				t.Fatalf("got (%q, %d, %q), want (%q, %d, %q)", q, n, notes, tt.wantQuery, tt.wantQty, tt.wantNotes)
			}
		})
	}
}
