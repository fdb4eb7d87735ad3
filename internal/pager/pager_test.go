package pager

import (
	"testing"

	"github.com/yildizm/BlogView/internal/common"
	"github.com/yildizm/BlogView/internal/dom"
)

func newCollection(n int) *common.Collection {
	models := make([]*common.Model, 0, n)
	for i := 1; i <= n; i++ {
		models = append(models, common.NewModel(map[string]any{"id": float64(i)}))
	}
	c := common.NewCollection("http://blog.test/v1/posts")
	c.Reset(models)
	return c
}

func ids(models []*common.Model) []int {
	out := make([]int, 0, len(models))
	for _, m := range models {
		out = append(out, m.ID)
	}
	return out
}

func TestPaginateSlices(t *testing.T) {
	tests := []struct {
		name    string
		n       int
		perPage int
		calls   int
	}{
		{"exact pages", 30, 15, 3},
		{"partial last page", 32, 15, 4},
		{"fewer than a page", 4, 15, 2},
		{"empty collection", 0, 15, 2},
		{"page of one", 3, 1, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewController(newCollection(tt.n), tt.perPage)
			seen := make(map[int]bool)

			for k := 1; k <= tt.calls; k++ {
				got := ids(c.Paginate())

				lo := (k - 1) * tt.perPage
				hi := k * tt.perPage
				if hi > tt.n {
					hi = tt.n
				}
				var want []int
				for id := lo + 1; id <= hi; id++ {
					want = append(want, id)
				}

				if len(got) != len(want) {
					t.Fatalf("call %d: expected %v, got %v", k, want, got)
				}
				for i := range want {
					if got[i] != want[i] {
						t.Fatalf("call %d: expected %v, got %v", k, want, got)
					}
					if seen[got[i]] {
						t.Fatalf("call %d: model %d materialized twice", k, got[i])
					}
					seen[got[i]] = true
				}
			}
			if c.Page() != tt.calls {
				t.Errorf("Expected page %d, got %d", tt.calls, c.Page())
			}
		})
	}
}

func TestResetRestartsFromTop(t *testing.T) {
	c := NewController(newCollection(20), 15)
	c.Paginate()
	c.Paginate()
	if !c.Exhausted() {
		t.Error("Expected exhausted after two pages of 15 over 20")
	}

	c.Reset()
	if c.Page() != 0 {
		t.Fatalf("Expected page 0 after reset, got %d", c.Page())
	}
	if got := ids(c.Paginate()); len(got) != 15 || got[0] != 1 {
		t.Errorf("Expected first page again, got %v", got)
	}
}

func TestSkip(t *testing.T) {
	c := NewController(newCollection(40), 15)
	c.Skip(1)
	if got := ids(c.Paginate()); got[0] != 16 {
		t.Errorf("Expected second page after skip, got %v", got)
	}
}

func TestDefaultPerPage(t *testing.T) {
	if c := NewController(newCollection(1), 0); c.PerPage != DefaultPerPage {
		t.Errorf("Expected default per page %d, got %d", DefaultPerPage, c.PerPage)
	}
}

func TestShouldLoadMargin(t *testing.T) {
	const doc, view = 1000, 200
	tests := []struct {
		scrollTop int
		want      bool
	}{
		{doc - view - 51, false},
		{doc - view - 50, true},
		{doc - view, true},
		{0, false},
	}
	for _, tt := range tests {
		pos := Position{ScrollTop: tt.scrollTop, DocumentHeight: doc, ViewportHeight: view}
		if got := ShouldLoad(pos, DefaultMargin); got != tt.want {
			t.Errorf("ShouldLoad(scrollTop=%d) = %v, want %v", tt.scrollTop, got, tt.want)
		}
	}
}

func TestInfiniteScrollTriggersOneLoad(t *testing.T) {
	window := dom.NewWindow()
	loads := 0
	s := NewInfiniteScroll(window, DefaultMargin, func() { loads++ })
	s.Enable()

	window.Trigger(dom.EventScroll, Position{ScrollTop: 749, DocumentHeight: 1000, ViewportHeight: 200})
	if loads != 0 {
		t.Fatalf("Expected no load at margin 51, got %d", loads)
	}

	window.Trigger(dom.EventScroll, Position{ScrollTop: 750, DocumentHeight: 1000, ViewportHeight: 200})
	if loads != 1 {
		t.Errorf("Expected exactly one load at margin 50, got %d", loads)
	}
}

func TestInfiniteScrollListenerDoesNotStack(t *testing.T) {
	window := dom.NewWindow()
	loads := 0
	s := NewInfiniteScroll(window, DefaultMargin, func() { loads++ })

	s.Enable()
	s.Enable()
	if n := window.Listeners(dom.EventScroll); n != 1 {
		t.Fatalf("Expected one listener after enabling twice, got %d", n)
	}

	s.Disable()
	if n := window.Listeners(dom.EventScroll); n != 0 {
		t.Fatalf("Expected zero listeners after disable, got %d", n)
	}
	if s.Enabled() {
		t.Error("Expected disabled")
	}

	window.Trigger(dom.EventScroll, Position{ScrollTop: 1000, DocumentHeight: 1000, ViewportHeight: 200})
	if loads != 0 {
		t.Errorf("Expected no loads while disabled, got %d", loads)
	}
}

func TestSeekRewindsCursor(t *testing.T) {
	c := NewController(newCollection(40), 15)
	c.Paginate()
	c.Paginate()
	c.Seek(1)
	if got := ids(c.Paginate()); got[0] != 16 {
		t.Errorf("Expected second page after seek, got %v", got)
	}
	c.Seek(-1)
	if c.Page() != 2 {
		t.Errorf("Expected negative seek ignored, got page %d", c.Page())
	}
}
