package pagination

import (
	"net/url"
	"testing"
)

func TestDefaults(t *testing.T) {
	p := PageRequest{}
	p.Defaults()
	if p.Page != 1 || p.PerPage != 20 {
		t.Errorf("defaults = %+v", p)
	}

	p = PageRequest{Page: 3, PerPage: 500}
	p.Defaults()
	if p.PerPage != 100 {
		t.Errorf("per_page should be capped at 100, got %d", p.PerPage)
	}
	if p.Offset() != 200 {
		t.Errorf("offset = %d, want 200", p.Offset())
	}
}

func TestNewPageResponse(t *testing.T) {
	tests := []struct {
		name       string
		items      int
		page       int
		perPage    int
		total      int64
		wantLast   int
		wantFrom   int
		wantTo     int
	}{
		{name: "first_page", items: 20, page: 1, perPage: 20, total: 45, wantLast: 3, wantFrom: 1, wantTo: 20},
		{name: "last_partial", items: 5, page: 3, perPage: 20, total: 45, wantLast: 3, wantFrom: 41, wantTo: 45},
		{name: "empty", items: 0, page: 1, perPage: 20, total: 0, wantLast: 1},
		{name: "exact_multiple", items: 10, page: 2, perPage: 10, total: 20, wantLast: 2, wantFrom: 11, wantTo: 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := NewPageResponse(make([]int, tt.items), tt.page, tt.perPage, tt.total)
			if resp.Meta.LastPage != tt.wantLast {
				t.Errorf("last_page = %d, want %d", resp.Meta.LastPage, tt.wantLast)
			}
			if resp.Meta.From != tt.wantFrom || resp.Meta.To != tt.wantTo {
				t.Errorf("from/to = %d/%d, want %d/%d", resp.Meta.From, resp.Meta.To, tt.wantFrom, tt.wantTo)
			}
		})
	}

	if resp := NewPageResponse[int](nil, 1, 20, 0); resp.Data == nil {
		t.Error("nil data should become an empty slice")
	}
}

func TestWithLinks(t *testing.T) {
	u, _ := url.Parse("http://localhost:8080/api/v1/drafts?status=pending&page=2")

	resp := NewPageResponse(make([]int, 10), 2, 10, 30).WithLinks(u)
	if resp.Links.Prev == nil || resp.Links.Next == nil {
		t.Fatalf("middle page needs both links: %+v", resp.Links)
	}
	prev, _ := url.Parse(*resp.Links.Prev)
	if prev.Query().Get("page") != "1" || prev.Query().Get("status") != "pending" {
		t.Errorf("prev link = %s", *resp.Links.Prev)
	}
	next, _ := url.Parse(*resp.Links.Next)
	if next.Query().Get("page") != "3" {
		t.Errorf("next link = %s", *resp.Links.Next)
	}

	first := NewPageResponse(make([]int, 10), 1, 10, 10).WithLinks(u)
	if first.Links.Prev != nil || first.Links.Next != nil {
		t.Errorf("single page should have no links: %+v", first.Links)
	}
}
