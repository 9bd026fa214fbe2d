package ui

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"

	"github.com/abelbrown/shelf/internal/catalog"
	"github.com/abelbrown/shelf/internal/fetch"
)

func sampleProducts() []catalog.Product {
	return []catalog.Product{
		{ID: "1", Name: "Laptop", Category: "Electronics", Price: 1000},
		{ID: "2", Name: "Shirt", Category: "Clothing", Price: 50},
		{ID: "3", Name: "Headphones", Category: "Electronics", Price: 150},
	}
}

type loadCall struct {
	seq    uint64
	params catalog.ViewParameters
}

// mockLoader records every load the App issues.
type mockLoader struct {
	calls []loadCall
}

func (m *mockLoader) load(seq uint64, params catalog.ViewParameters) tea.Cmd {
	m.calls = append(m.calls, loadCall{seq: seq, params: params})
	return func() tea.Msg {
		return ProductsLoaded{Seq: seq, Products: sampleProducts()}
	}
}

func update(t *testing.T, a App, msg tea.Msg) (App, tea.Cmd) {
	t.Helper()
	m, cmd := a.Update(msg)
	app, ok := m.(App)
	if !ok {
		t.Fatalf("Update returned %T, want App", m)
	}
	return app, cmd
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func names(products []catalog.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.Name
	}
	return out
}

// loaded returns an App that has completed its first load.
func loaded(t *testing.T, serverFilter bool) (App, *mockLoader) {
	t.Helper()
	mock := &mockLoader{}
	app := NewApp(AppConfig{Load: mock.load, ServerFilter: serverFilter})
	app, _ = update(t, app, ProductsLoaded{Seq: app.Seq(), Products: sampleProducts()})
	return app, mock
}

func TestAppInit(t *testing.T) {
	mock := &mockLoader{}
	app := NewApp(AppConfig{Load: mock.load})

	if !app.Loading() {
		t.Error("app should start loading when a loader is set")
	}
	if cmd := app.Init(); cmd == nil {
		t.Fatal("Init should return a command")
	}
	if len(mock.calls) != 1 || mock.calls[0].seq != 1 {
		t.Fatalf("expected one load with seq 1, got %+v", mock.calls)
	}
	if mock.calls[0].params.Category != catalog.AllCategories {
		t.Errorf("initial category = %q, want All", mock.calls[0].params.Category)
	}
}

func TestAppInitNilLoad(t *testing.T) {
	app := NewApp(AppConfig{})
	if cmd := app.Init(); cmd != nil {
		t.Error("Init should return nil without a loader")
	}
	if app.Loading() {
		t.Error("app without a loader should not be loading")
	}
}

func TestProductsLoaded(t *testing.T) {
	app, _ := loaded(t, false)

	if app.Loading() {
		t.Error("loading should be false after success")
	}
	if diff := cmp.Diff([]string{"Laptop", "Shirt", "Headphones"}, names(app.Display())); diff != "" {
		t.Errorf("display (-want +got):\n%s", diff)
	}
	if app.ErrMessage() != "" {
		t.Errorf("unexpected error %q", app.ErrMessage())
	}
}

func TestStaleResponseDiscarded(t *testing.T) {
	mock := &mockLoader{}
	app := NewApp(AppConfig{Load: mock.load})
	app.Init()

	// A reload supersedes the initial load before it returns.
	app, _ = update(t, app, key("r"))
	if app.Seq() != 2 {
		t.Fatalf("seq = %d, want 2", app.Seq())
	}

	app, _ = update(t, app, ProductsLoaded{Seq: 1, Products: []catalog.Product{{ID: "9", Name: "Old", Category: "X"}}})
	if !app.Loading() {
		t.Error("stale response must not end loading")
	}
	if len(app.Display()) != 0 {
		t.Errorf("stale response was applied: %v", names(app.Display()))
	}

	app, _ = update(t, app, ProductsLoaded{Seq: 2, Products: sampleProducts()})
	if app.Loading() {
		t.Error("current response should end loading")
	}
	if len(app.Display()) != 3 {
		t.Errorf("expected 3 products, got %d", len(app.Display()))
	}
}

func TestLoadServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	src := fetch.NewHTTPSource(srv.URL, fetch.HTTPOptions{})
	load := SourceLoader(context.Background(), src, time.Second)

	app := NewApp(AppConfig{Load: load})
	msg := load(app.Seq(), app.Params())()
	app, _ = update(t, app, msg)

	if app.Loading() {
		t.Error("loading should be false after failure")
	}
	if !strings.Contains(app.ErrMessage(), "500") {
		t.Errorf("error %q should mention 500", app.ErrMessage())
	}
	if len(app.Display()) != 0 {
		t.Errorf("display should be empty, got %v", names(app.Display()))
	}
}

func TestFailedReloadKeepsProducts(t *testing.T) {
	app, _ := loaded(t, false)

	app, _ = update(t, app, key("r"))
	app, _ = update(t, app, ProductsLoaded{Seq: app.Seq(), Err: errors.New("boom")})

	if app.ErrMessage() != "An unexpected error occurred" {
		t.Errorf("unexpected message %q", app.ErrMessage())
	}
	if len(app.Display()) != 3 {
		t.Errorf("previous products should survive a failed reload, got %d", len(app.Display()))
	}
}

func TestClientModeFiltering(t *testing.T) {
	app, mock := loaded(t, false)

	app, cmd := update(t, app, key("c"))
	if cmd != nil {
		t.Error("client mode should not refetch on category change")
	}
	if got := app.Params().Category; got != "Electronics" {
		t.Fatalf("category = %q, want Electronics", got)
	}
	if diff := cmp.Diff([]string{"Laptop", "Headphones"}, names(app.Display())); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	app, _ = update(t, app, key("s"))
	if diff := cmp.Diff([]string{"Headphones", "Laptop"}, names(app.Display())); diff != "" {
		t.Errorf("sorted (-want +got):\n%s", diff)
	}

	app, _ = update(t, app, key("C"))
	if got := app.Params().Category; got != catalog.AllCategories {
		t.Errorf("category after C = %q, want All", got)
	}

	app, _ = update(t, app, key("x"))
	if diff := cmp.Diff(catalog.DefaultViewParameters(), app.Params()); diff != "" {
		t.Errorf("clear (-want +got):\n%s", diff)
	}
	if len(mock.calls) != 0 {
		t.Errorf("client mode issued %d loads", len(mock.calls))
	}
}

func TestCategoryCycleWraps(t *testing.T) {
	app, _ := loaded(t, false)

	want := []string{"Electronics", "Clothing", "All", "Electronics"}
	for _, w := range want {
		app, _ = update(t, app, key("c"))
		if got := app.Params().Category; got != w {
			t.Fatalf("category = %q, want %q", got, w)
		}
	}
}

func TestServerModeRefetches(t *testing.T) {
	app, mock := loaded(t, true)

	app, cmd := update(t, app, key("c"))
	if cmd == nil {
		t.Fatal("server mode should refetch on category change")
	}
	if !app.Loading() || app.Seq() != 2 {
		t.Errorf("loading=%v seq=%d, want true/2", app.Loading(), app.Seq())
	}
	if len(mock.calls) != 1 || mock.calls[0].params.Category != "Electronics" {
		t.Errorf("unexpected loads %+v", mock.calls)
	}
}

func threeCategories() []catalog.Product {
	return []catalog.Product{
		{ID: "1", Name: "Laptop", Category: "Electronics", Price: 1000},
		{ID: "2", Name: "Shirt", Category: "Clothing", Price: 50},
		{ID: "3", Name: "Kettle", Category: "Kitchen", Price: 40},
		{ID: "4", Name: "Headphones", Category: "Electronics", Price: 150},
	}
}

func TestServerModeCategoryCycle(t *testing.T) {
	all := threeCategories()
	mock := &mockLoader{}
	app := NewApp(AppConfig{Load: mock.load, ServerFilter: true})
	app, _ = update(t, app, ProductsLoaded{Seq: app.Seq(), Products: catalog.Derive(all, app.Params())})

	// Each response only carries the products of the selected category.
	want := []string{"Electronics", "Clothing", "Kitchen", "All", "Electronics", "Clothing"}
	for _, w := range want {
		app, _ = update(t, app, key("c"))
		if got := app.Params().Category; got != w {
			t.Fatalf("category = %q, want %q", got, w)
		}
		app, _ = update(t, app, ProductsLoaded{Seq: app.Seq(), Products: catalog.Derive(all, app.Params())})
	}

	if diff := cmp.Diff([]string{"All", "Electronics", "Clothing", "Kitchen"}, app.Categories()); diff != "" {
		t.Errorf("categories (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Shirt"}, names(app.Display())); diff != "" {
		t.Errorf("display (-want +got):\n%s", diff)
	}
}

func TestServerModeCategoryCycleOverHTTP(t *testing.T) {
	all := threeCategories()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		params, err := catalog.ParseViewParameters(r.URL.Query())
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(catalog.Derive(all, params))
	}))
	defer srv.Close()

	src := fetch.NewHTTPSource(srv.URL, fetch.HTTPOptions{ServerFilter: true})
	load := SourceLoader(context.Background(), src, time.Second)

	app := NewApp(AppConfig{Load: load, ServerFilter: true})
	app, _ = update(t, app, load(app.Seq(), app.Params())())

	for _, w := range []string{"Electronics", "Clothing", "Kitchen", "All"} {
		app, _ = update(t, app, key("c"))
		if got := app.Params().Category; got != w {
			t.Fatalf("category = %q, want %q", got, w)
		}
		app, _ = update(t, app, load(app.Seq(), app.Params())())
		if app.ErrMessage() != "" {
			t.Fatalf("load for %q failed: %s", w, app.ErrMessage())
		}
	}
	if len(app.Display()) != len(all) {
		t.Errorf("All shows %d products, want %d", len(app.Display()), len(all))
	}
}

func TestServerModeFailedRefetchClearsRows(t *testing.T) {
	app, _ := loaded(t, true)

	app, _ = update(t, app, key("c"))
	app, _ = update(t, app, ProductsLoaded{Seq: app.Seq(), Err: errors.New("boom")})

	if app.ErrMessage() == "" {
		t.Error("expected an error message")
	}
	if len(app.Display()) != 0 {
		t.Errorf("rows from the previous query are still shown: %v", names(app.Display()))
	}
	if app.Cursor() != 0 {
		t.Errorf("cursor = %d, want 0", app.Cursor())
	}
}

func TestSearchInput(t *testing.T) {
	app, _ := loaded(t, false)

	app, _ = update(t, app, key("/"))
	app, _ = update(t, app, key("s"))
	app, _ = update(t, app, key("H"))

	if got := app.Params().Search; got != "sH" {
		t.Fatalf("search = %q, want sH", got)
	}
	if diff := cmp.Diff([]string{"Shirt"}, names(app.Display())); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if app.Params().Sort != catalog.SortNone {
		t.Error("typing s in the search box must not change the sort")
	}

	app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyEsc})
	_, cmd := update(t, app, key("q"))
	if cmd == nil {
		t.Fatal("q should quit once search is blurred")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should return tea.Quit")
	}
}

func TestAppNavigation(t *testing.T) {
	app, _ := loaded(t, false)

	tests := []struct {
		key  string
		want int
	}{
		{"j", 1},
		{"j", 2},
		{"j", 2},
		{"k", 1},
		{"G", 2},
		{"g", 0},
		{"k", 0},
	}
	for _, tt := range tests {
		app, _ = update(t, app, key(tt.key))
		if app.Cursor() != tt.want {
			t.Errorf("after %q cursor = %d, want %d", tt.key, app.Cursor(), tt.want)
		}
	}
}

func TestCursorClampedAfterFilter(t *testing.T) {
	app, _ := loaded(t, false)
	app, _ = update(t, app, key("G"))
	app, _ = update(t, app, key("c"))
	app, _ = update(t, app, key("c"))

	if app.Cursor() != 0 {
		t.Errorf("cursor = %d, want 0 with one product shown", app.Cursor())
	}
}

func TestViewRendersRows(t *testing.T) {
	app, _ := loaded(t, false)
	app, _ = update(t, app, tea.WindowSizeMsg{Width: 120, Height: 20})

	view := app.View()
	for _, want := range []string{"Laptop - Electronics - $1000", "Shirt - Clothing - $50", "Unsorted"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestViewShowsLoading(t *testing.T) {
	mock := &mockLoader{}
	app := NewApp(AppConfig{Load: mock.load})
	app, _ = update(t, app, tea.WindowSizeMsg{Width: 120, Height: 20})

	if !strings.Contains(app.View(), "Loading products") {
		t.Error("view should show the loading indicator")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"Laptop", 10, "Laptop"},
		{"Laptop", 0, "Laptop"},
		{"Laptop Sleeve", 7, "Laptop…"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.limit); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
		}
	}
}
