package catalog_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/vitrinecli/vitrine/internal/api"
	"github.com/vitrinecli/vitrine/internal/catalog"
	"github.com/vitrinecli/vitrine/internal/errs"
)

// fakeRemote is an in-memory catalog service: one page, filter by title
// substring, ids assigned in creation order.
type fakeRemote struct {
	mu         sync.Mutex
	items      []api.Product
	totalPages int
	nextID     int

	listCalls int
	listErr   error
	updateErr error
	thumbErr  error
}

func newFakeRemote(items ...api.Product) *fakeRemote {
	return &fakeRemote{items: items, totalPages: 1, nextID: len(items) + 1}
}

func (g *fakeRemote) ListProducts(ctx context.Context, filter string, page int) (api.ProductPage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listCalls++
	if g.listErr != nil {
		return api.ProductPage{}, g.listErr
	}
	var out []api.Product
	for _, p := range g.items {
		if filter == "" || strings.Contains(p.Title, filter) {
			out = append(out, p)
		}
	}
	if page < 1 {
		page = 1
	}
	return api.ProductPage{Items: out, Page: page, TotalPages: g.totalPages}, nil
}

func (g *fakeRemote) CreateProduct(ctx context.Context, req api.CreateProductRequest) (api.Product, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p := api.Product{
		ID:          fmt.Sprintf("p%d", g.nextID),
		Title:       req.Title,
		Description: req.Description,
		Thumbnail:   req.Thumbnail,
		Status:      req.Status,
		UpdatedAt:   time.Now(),
	}
	g.nextID++
	g.items = append(g.items, p)
	return p, nil
}

func (g *fakeRemote) CreateProductFile(ctx context.Context, req api.CreateProductRequest, filename string, file io.Reader) (api.Product, error) {
	req.Thumbnail = "https://cdn.example/" + filename
	return g.CreateProduct(ctx, req)
}

func (g *fakeRemote) UpdateProduct(ctx context.Context, id string, fields api.ProductFields) (api.Product, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.updateErr != nil {
		return api.Product{}, g.updateErr
	}
	for i := range g.items {
		if g.items[i].ID == id {
			if v, ok := fields["title"].(string); ok {
				g.items[i].Title = v
			}
			if v, ok := fields["description"].(string); ok {
				g.items[i].Description = v
			}
			if v, ok := fields["status"].(bool); ok {
				g.items[i].Status = v
			}
			g.items[i].UpdatedAt = time.Now()
			return g.items[i], nil
		}
	}
	return api.Product{}, &errs.RemoteError{Status: 404, Message: "product not found"}
}

func (g *fakeRemote) ReplaceThumbnailURL(ctx context.Context, id, thumbnailURL string) (api.Product, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.thumbErr != nil {
		return api.Product{}, g.thumbErr
	}
	for i := range g.items {
		if g.items[i].ID == id {
			g.items[i].Thumbnail = thumbnailURL
			return g.items[i], nil
		}
	}
	return api.Product{}, &errs.RemoteError{Status: 404, Message: "product not found"}
}

func (g *fakeRemote) ReplaceThumbnailFile(ctx context.Context, id, filename string, file io.Reader) (api.Product, error) {
	return g.ReplaceThumbnailURL(ctx, id, "https://cdn.example/"+filename)
}

func (g *fakeRemote) DeleteProduct(ctx context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range g.items {
		if g.items[i].ID == id {
			g.items = append(g.items[:i], g.items[i+1:]...)
			return nil
		}
	}
	return &errs.RemoteError{Status: 404, Message: "product not found"}
}

func product(id, title string) api.Product {
	return api.Product{ID: id, Title: title, Description: "d-" + id, Status: true, UpdatedAt: time.Unix(1_700_000_000, 0)}
}

func titles(items []api.Product) []string {
	out := make([]string, len(items))
	for i, p := range items {
		out[i] = p.Title
	}
	return out
}

func TestFetchReplacesPageAtomically(t *testing.T) {
	gw := newFakeRemote(product("p1", "alpha"), product("p2", "beta"))
	gw.totalPages = 3
	s := catalog.New(gw, "pt-BR", nil)

	if err := s.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got := len(s.Items()); got != 2 {
		t.Errorf("items = %d, want 2", got)
	}
	if s.Page() != 1 || s.TotalPages() != 3 {
		t.Errorf("page %d/%d, want 1/3", s.Page(), s.TotalPages())
	}
	if s.Loading() {
		t.Error("loading should be false after fetch")
	}
}

func TestSearchResetsToPageOne(t *testing.T) {
	gw := newFakeRemote(product("p1", "alpha"), product("p2", "beta"))
	gw.totalPages = 5
	s := catalog.New(gw, "pt-BR", nil)
	ctx := context.Background()

	if err := s.Fetch(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.ChangePage(ctx, 3); err != nil {
		t.Fatal(err)
	}
	if s.Page() != 3 {
		t.Fatalf("page = %d, want 3", s.Page())
	}

	if err := s.Search(ctx, "alpha"); err != nil {
		t.Fatal(err)
	}
	if s.Page() != 1 {
		t.Errorf("page = %d after search, want 1", s.Page())
	}
	if s.Filter() != "alpha" {
		t.Errorf("filter = %q", s.Filter())
	}
	if got := titles(s.Items()); len(got) != 1 || got[0] != "alpha" {
		t.Errorf("items = %v", got)
	}
}

func TestChangePageValidatesBounds(t *testing.T) {
	gw := newFakeRemote(product("p1", "alpha"))
	gw.totalPages = 2
	s := catalog.New(gw, "pt-BR", nil)
	ctx := context.Background()
	if err := s.Fetch(ctx); err != nil {
		t.Fatal(err)
	}
	calls := gw.listCalls

	for _, n := range []int{0, -1, 3} {
		err := s.ChangePage(ctx, n)
		var vErr *errs.ValidationError
		if !errors.As(err, &vErr) {
			t.Errorf("ChangePage(%d): got %v, want ValidationError", n, err)
		}
	}
	if gw.listCalls != calls {
		t.Errorf("out-of-range pages reached the gateway")
	}
}

func TestFetchErrorKeepsStoreUsable(t *testing.T) {
	gw := newFakeRemote(product("p1", "alpha"))
	s := catalog.New(gw, "pt-BR", nil)
	ctx := context.Background()

	gw.listErr = &errs.RemoteError{Status: 500, Message: "upstream exploded"}
	if err := s.Fetch(ctx); err == nil {
		t.Fatal("want error")
	}
	if s.LastError() != "upstream exploded" {
		t.Errorf("lastError = %q", s.LastError())
	}

	gw.listErr = nil
	if err := s.Fetch(ctx); err != nil {
		t.Fatalf("fetch after error: %v", err)
	}
	if s.LastError() != "" {
		t.Errorf("lastError = %q, want cleared", s.LastError())
	}
	s.ClearError()
}

func TestCreateValidatesBeforeNetwork(t *testing.T) {
	gw := newFakeRemote()
	s := catalog.New(gw, "pt-BR", nil)
	ctx := context.Background()

	cases := []catalog.CreateInput{
		{Description: "d", ThumbnailURL: "u"},                                  // no title
		{Title: "t", ThumbnailURL: "u"},                                        // no description
		{Title: "t", Description: "d"},                                         // no thumbnail
		{Title: "t", Description: "d", ThumbnailURL: "u", ThumbnailFile: "f"},  // both
	}
	for i, in := range cases {
		err := s.Create(ctx, in)
		var vErr *errs.ValidationError
		if !errors.As(err, &vErr) {
			t.Errorf("case %d: got %v, want ValidationError", i, err)
		}
	}
	if gw.listCalls != 0 {
		t.Errorf("invalid creates caused %d gateway calls", gw.listCalls)
	}
}

func TestCreateRefetchesCurrentPage(t *testing.T) {
	gw := newFakeRemote(product("p1", "alpha"))
	s := catalog.New(gw, "pt-BR", nil)
	ctx := context.Background()
	if err := s.Fetch(ctx); err != nil {
		t.Fatal(err)
	}

	in := catalog.CreateInput{
		Title:        "novo produto",
		Description:  "uma descrição",
		ThumbnailURL: "https://cdn.example/novo.png",
		Status:       true,
	}
	if err := s.Create(ctx, in); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// The created record shows up via the re-fetch, with input fields
	// intact modulo the server-assigned id and timestamp.
	var found *api.Product
	for _, p := range s.Items() {
		if p.Title == in.Title {
			found = &p
			break
		}
	}
	if found == nil {
		t.Fatalf("created record not in local view: %v", titles(s.Items()))
	}
	if found.Description != in.Description || found.Thumbnail != in.ThumbnailURL || !found.Status {
		t.Errorf("round-tripped record = %+v", *found)
	}
	if found.ID == "" || found.UpdatedAt.IsZero() {
		t.Error("server-assigned fields missing")
	}
}

func TestUpdateMergesReturnedRecord(t *testing.T) {
	gw := newFakeRemote(product("p1", "alpha"), product("p2", "beta"))
	s := catalog.New(gw, "pt-BR", nil)
	ctx := context.Background()
	if err := s.Fetch(ctx); err != nil {
		t.Fatal(err)
	}

	title := "X"
	if err := s.Update(ctx, "p1", catalog.UpdateInput{Title: &title}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	for _, p := range s.Items() {
		if p.ID == "p1" && p.Title != "X" {
			t.Errorf("title = %q, want X", p.Title)
		}
	}
	if gw.listCalls != 1 {
		t.Errorf("update must merge locally, not re-fetch (list calls = %d)", gw.listCalls)
	}
}

func TestUpdateThumbnailFailureAfterFieldSuccessIsPartial(t *testing.T) {
	gw := newFakeRemote(product("p1", "alpha"))
	s := catalog.New(gw, "pt-BR", nil)
	ctx := context.Background()
	if err := s.Fetch(ctx); err != nil {
		t.Fatal(err)
	}
	before := s.Items()[0].Thumbnail

	gw.thumbErr = &errs.RemoteError{Status: 500, Message: "image service down"}
	title := "X"
	err := s.Update(ctx, "p1", catalog.UpdateInput{
		Title:        &title,
		ThumbnailURL: "https://cdn.example/new.png",
	})

	var partial *errs.PartialError
	if !errors.As(err, &partial) {
		t.Fatalf("got %v, want PartialError", err)
	}
	got := s.Items()[0]
	if got.Title != "X" {
		t.Errorf("field update must be retained, title = %q", got.Title)
	}
	if got.Thumbnail != before {
		t.Errorf("thumbnail changed to %q despite failure", got.Thumbnail)
	}
	if !strings.Contains(s.LastError(), "not saved") {
		t.Errorf("lastError = %q, want the partial-failure message", s.LastError())
	}
}

func TestUpdateFullFailureIsNotPartial(t *testing.T) {
	gw := newFakeRemote(product("p1", "alpha"))
	s := catalog.New(gw, "pt-BR", nil)
	ctx := context.Background()
	if err := s.Fetch(ctx); err != nil {
		t.Fatal(err)
	}

	gw.updateErr = &errs.RemoteError{Status: 500, Message: "nope"}
	title := "X"
	err := s.Update(ctx, "p1", catalog.UpdateInput{Title: &title, ThumbnailURL: "https://x/y.png"})
	var partial *errs.PartialError
	if errors.As(err, &partial) {
		t.Fatal("a first-step failure must not be reported as partial")
	}
	if s.Items()[0].Title != "alpha" {
		t.Errorf("local title changed after failed update")
	}
}

func TestRemoveConfirmedThenIdempotentFailure(t *testing.T) {
	gw := newFakeRemote(product("p1", "alpha"), product("p2", "beta"))
	s := catalog.New(gw, "pt-BR", nil)
	ctx := context.Background()
	if err := s.Fetch(ctx); err != nil {
		t.Fatal(err)
	}

	if err := s.Remove(ctx, "p1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if got := titles(s.Items()); len(got) != 1 || got[0] != "beta" {
		t.Fatalf("items = %v", got)
	}

	// Second removal of the same id: reported failure, local view
	// unchanged from the first successful removal.
	err := s.Remove(ctx, "p1")
	if !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("second remove: got %v, want not-found", err)
	}
	if got := titles(s.Items()); len(got) != 1 || got[0] != "beta" {
		t.Errorf("items changed by failed remove: %v", got)
	}
}

func TestRemoveFailureKeepsRecord(t *testing.T) {
	gw := newFakeRemote(product("p1", "alpha"))
	s := catalog.New(gw, "pt-BR", nil)
	ctx := context.Background()
	if err := s.Fetch(ctx); err != nil {
		t.Fatal(err)
	}

	// Sabotage: remote rejects while the record exists locally.
	gw.mu.Lock()
	gw.items = nil
	gw.mu.Unlock()

	if err := s.Remove(ctx, "p1"); err == nil {
		t.Fatal("want error")
	}
	if len(s.Items()) != 1 {
		t.Error("record must stay in the local view on failure")
	}
	if s.LastError() == "" {
		t.Error("lastError should be set")
	}
}

// ── Staleness ────────────

// blockingRemote releases ListProducts responses on demand so completion
// order can be controlled independently of issue order.
type blockingRemote struct {
	mu    sync.Mutex
	calls []*blockedCall
}

type blockedCall struct {
	filter  string
	page    int
	release chan api.ProductPage
}

func (g *blockingRemote) ListProducts(ctx context.Context, filter string, page int) (api.ProductPage, error) {
	c := &blockedCall{filter: filter, page: page, release: make(chan api.ProductPage)}
	g.mu.Lock()
	g.calls = append(g.calls, c)
	g.mu.Unlock()
	return <-c.release, nil
}

func (g *blockingRemote) waitCalls(t rapid.TB, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		g.mu.Lock()
		got := len(g.calls)
		g.mu.Unlock()
		if got >= n {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("gateway saw %d calls, want %d", got, n)
		}
		time.Sleep(time.Millisecond)
	}
}

func (g *blockingRemote) CreateProduct(context.Context, api.CreateProductRequest) (api.Product, error) {
	return api.Product{}, nil
}
func (g *blockingRemote) CreateProductFile(context.Context, api.CreateProductRequest, string, io.Reader) (api.Product, error) {
	return api.Product{}, nil
}
func (g *blockingRemote) UpdateProduct(context.Context, string, api.ProductFields) (api.Product, error) {
	return api.Product{}, nil
}
func (g *blockingRemote) ReplaceThumbnailURL(context.Context, string, string) (api.Product, error) {
	return api.Product{}, nil
}
func (g *blockingRemote) ReplaceThumbnailFile(context.Context, string, string, io.Reader) (api.Product, error) {
	return api.Product{}, nil
}
func (g *blockingRemote) DeleteProduct(context.Context, string) error { return nil }

func TestSlowEarlierFetchCannotOverwriteLaterOne(t *testing.T) {
	gw := &blockingRemote{}
	s := catalog.New(gw, "pt-BR", nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); _ = s.Search(ctx, "old") }()
	gw.waitCalls(t, 1)
	go func() { defer wg.Done(); _ = s.Search(ctx, "new") }()
	gw.waitCalls(t, 2)

	// The later request completes first; the earlier one lands afterwards
	// and must be discarded.
	gw.calls[1].release <- api.ProductPage{Items: []api.Product{product("p2", "new")}, Page: 1, TotalPages: 1}
	gw.calls[0].release <- api.ProductPage{Items: []api.Product{product("p1", "old")}, Page: 1, TotalPages: 1}
	wg.Wait()

	if got := titles(s.Items()); len(got) != 1 || got[0] != "new" {
		t.Errorf("items = %v, want the later request's page", got)
	}
	if s.Filter() != "new" {
		t.Errorf("filter = %q, want %q", s.Filter(), "new")
	}
}

// For any interleaving of completions, the applied state is the most
// recently issued fetch — never one made stale by a newer issue.
func TestFetchOrderingUnderArbitraryCompletionOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(2, 6).Draw(t, "fetches")

		gw := &blockingRemote{}
		s := catalog.New(gw, "pt-BR", nil)
		ctx := context.Background()

		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_ = s.Search(ctx, fmt.Sprintf("f%d", i))
			}(i)
			gw.waitCalls(t, i+1)
		}

		// Draw a completion order over the issued calls.
		remaining := make([]int, n)
		for i := range remaining {
			remaining[i] = i
		}
		for len(remaining) > 0 {
			k := rapid.IntRange(0, len(remaining)-1).Draw(t, "next")
			idx := remaining[k]
			remaining = append(remaining[:k], remaining[k+1:]...)
			gw.calls[idx].release <- api.ProductPage{
				Items:      []api.Product{product(fmt.Sprintf("p%d", idx), fmt.Sprintf("f%d", idx))},
				Page:       1,
				TotalPages: 1,
			}
		}
		wg.Wait()

		want := fmt.Sprintf("f%d", n-1)
		if got := titles(s.Items()); len(got) != 1 || got[0] != want {
			t.Fatalf("items = %v, want page of last-issued fetch %q", got, want)
		}
	})
}
