package pagination

import "testing"

func TestNormalizeClampsBounds(t *testing.T) {
	cases := []struct {
		name        string
		in          Params
		wantPage    int
		wantPerPage int
	}{
		{"zero values", Params{}, 1, DefaultPerPage},
		{"negative page", Params{Page: -3, PerPage: 10}, 1, 10},
		{"over max", Params{Page: 2, PerPage: 5000}, 2, MaxPerPage},
		{"in range", Params{Page: 4, PerPage: 25}, 4, 25},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.in.Normalize()
			if got.Page != tc.wantPage || got.PerPage != tc.wantPerPage {
				t.Fatalf("got %+v, want page=%d per_page=%d", got, tc.wantPage, tc.wantPerPage)
			}
		})
	}
}

func TestOffset(t *testing.T) {
	if got := (Params{Page: 3, PerPage: 20}).Offset(); got != 40 {
		t.Fatalf("expected offset 40, got %d", got)
	}
	if got := (Params{}).Offset(); got != 0 {
		t.Fatalf("expected zero offset for defaults, got %d", got)
	}
}

func TestNewMeta(t *testing.T) {
	meta := NewMeta(Params{Page: 2, PerPage: 10}, 35)
	if meta.TotalPages != 4 {
		t.Fatalf("expected 4 pages, got %d", meta.TotalPages)
	}
	if meta.Total != 35 || meta.Page != 2 || meta.PerPage != 10 {
		t.Fatalf("unexpected meta %+v", meta)
	}

	empty := NewMeta(Params{}, 0)
	if empty.TotalPages != 1 {
		t.Fatalf("empty result should still report 1 page, got %d", empty.TotalPages)
	}
}
