package utils

import "testing"

func TestNewPagePageCounts(t *testing.T) {
	for n := 0; n <= 45; n++ {
		lastLen := n % PostsPerPage
		if lastLen == 0 && n > 0 {
			lastLen = PostsPerPage
		}
		wantPages := (n + PostsPerPage - 1) / PostsPerPage
		if wantPages == 0 {
			wantPages = 1
		}

		page := NewPage(int64(n), PostsPerPage, "")
		if page.NumPages != wantPages {
			t.Fatalf("n=%d: NumPages = %d, want %d", n, page.NumPages, wantPages)
		}
		last := NewPage(int64(n), PostsPerPage, "999")
		if last.Number != wantPages {
			t.Fatalf("n=%d: out of range page = %d, want %d", n, last.Number, wantPages)
		}
		if last.Len() != lastLen {
			t.Fatalf("n=%d: last page holds %d, want %d", n, last.Len(), lastLen)
		}
	}
}

func TestNewPageNumberParsing(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{"", 1},
		{"abc", 1},
		{"1", 1},
		{"2", 2},
		{" 2 ", 2},
		{"3", 2},
		{"0", 2},
		{"-4", 2},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			page := NewPage(13, PostsPerPage, tc.raw)
			if page.Number != tc.want {
				t.Errorf("page %q -> %d, want %d", tc.raw, page.Number, tc.want)
			}
		})
	}
}

func TestPageNavigation(t *testing.T) {
	first := NewPage(25, PostsPerPage, "1")
	if !first.HasNext() || first.HasPrevious() || first.NextPageNumber() != 2 {
		t.Errorf("first page navigation wrong: %+v", first)
	}
	middle := NewPage(25, PostsPerPage, "2")
	if !middle.HasNext() || !middle.HasPrevious() || middle.PreviousPageNumber() != 1 {
		t.Errorf("middle page navigation wrong: %+v", middle)
	}
	last := NewPage(25, PostsPerPage, "3")
	if last.HasNext() || !last.HasPrevious() || last.Offset() != 20 || last.Len() != 5 {
		t.Errorf("last page navigation wrong: %+v", last)
	}
	if got := len(last.PageRange()); got != 3 {
		t.Errorf("PageRange has %d entries", got)
	}
	if EmptyPage().HasOtherPages() {
		t.Error("empty page reports other pages")
	}
}

func TestPaginateSlices(t *testing.T) {
	items := make([]int, 13)
	for i := range items {
		items[i] = i
	}

	page, window := Paginate(items, "")
	if page.Number != 1 || len(window) != 10 || window[0] != 0 {
		t.Errorf("first window = %v (page %d)", window, page.Number)
	}
	page, window = Paginate(items, "2")
	if page.Number != 2 || len(window) != 3 || window[0] != 10 {
		t.Errorf("second window = %v (page %d)", window, page.Number)
	}
	_, window = Paginate([]int{}, "5")
	if len(window) != 0 {
		t.Errorf("empty window = %v", window)
	}
}
