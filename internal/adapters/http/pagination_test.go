package http

import "testing"

func TestPaginationWindow(t *testing.T) {
	tests := []struct {
		name               string
		offset, limit, n   int
		wantStart, wantEnd int
		wantLimit          int
	}{
		{"first page", 0, 5, 7, 0, 5, 5},
		{"short last page", 5, 5, 7, 5, 7, 5},
		{"past the end", 10, 5, 7, 7, 7, 5},
		{"negative offset", -3, 5, 7, 0, 5, 5},
		{"zero limit uses default", 0, 0, 70, 0, defaultLimit, defaultLimit},
		{"limit above max uses default", 0, maxLimit + 1, 70, 0, defaultLimit, defaultLimit},
		{"empty", 0, 10, 0, 0, 0, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPagination(tt.offset, tt.limit, tt.n)
			start, end := p.Window()
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("Window() = [%d,%d), want [%d,%d)", start, end, tt.wantStart, tt.wantEnd)
			}
			if p.Limit != tt.wantLimit {
				t.Errorf("Limit = %d, want %d", p.Limit, tt.wantLimit)
			}
		})
	}
}
