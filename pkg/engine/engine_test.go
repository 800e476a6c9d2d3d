package engine_test

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formengine/pkg/engine"
	"github.com/goliatone/go-formengine/pkg/logging"
	"github.com/goliatone/go-formengine/pkg/persistence"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/state"
)

func abForm() schema.FormSchema {
	return schema.FormSchema{
		FormID: "ab",
		Title:  "A/B",
		Fields: []schema.FieldSpec{
			{ID: "A", Label: "A", Kind: schema.KindSelect, Required: true, Options: []string{"X", "Y"}},
			{
				ID:         "B",
				Label:      "B",
				Kind:       schema.KindText,
				Required:   true,
				Visibility: &schema.Visibility{DependsOn: "A", Condition: schema.ConditionEquals, Value: "X"},
			},
		},
	}
}

func nestedForm() schema.FormSchema {
	return schema.FormSchema{
		FormID: "nested",
		Title:  "Nested",
		Fields: []schema.FieldSpec{
			{ID: "country", Label: "Country", Kind: schema.KindSelect, Options: []string{"USA", "Canada"}},
			{
				ID:    "address",
				Label: "Address",
				Kind:  schema.KindGroup,
				Children: []schema.FieldSpec{
					{
						ID:             "state",
						Label:          "State",
						Kind:           schema.KindSelect,
						Required:       true,
						DynamicOptions: &schema.DynamicOptions{DependsOn: "country", Endpoint: "/states", Method: "GET"},
					},
					{
						ID:             "city",
						Label:          "City",
						Kind:           schema.KindSelect,
						DynamicOptions: &schema.DynamicOptions{DependsOn: "state", Endpoint: "/cities", Method: "GET"},
					},
				},
			},
			{
				ID:         "extra",
				Label:      "Extra",
				Kind:       schema.KindGroup,
				Visibility: &schema.Visibility{DependsOn: "country", Condition: schema.ConditionEquals, Value: "Canada"},
				Children: []schema.FieldSpec{
					{ID: "province_code", Label: "Code", Kind: schema.KindText, Required: true},
				},
			},
			{
				ID:             "zip_hint",
				Label:          "Zip hint",
				Kind:           schema.KindRadio,
				DynamicOptions: &schema.DynamicOptions{DependsOn: "country", Endpoint: "/zips", Method: "GET"},
			},
			{ID: "coverage", Label: "Coverage", Kind: schema.KindCheckbox, Options: []string{"Fire", "Flood"}},
		},
	}
}

type call struct {
	Endpoint string
	Value    string
}

// recordingFetcher answers from a table keyed by endpoint and records calls.
type recordingFetcher struct {
	mu      sync.Mutex
	calls   []call
	answers map[string][]string
	err     error
}

func (f *recordingFetcher) FetchOptions(_ context.Context, dyn schema.DynamicOptions, value state.Value) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{Endpoint: dyn.Endpoint, Value: value.Text()})
	if f.err != nil {
		return nil, f.err
	}
	return f.answers[dyn.Endpoint], nil
}

func (f *recordingFetcher) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

func newEngine(t *testing.T, form schema.FormSchema, opts ...engine.Option) *engine.Engine {
	t.Helper()
	opts = append([]engine.Option{engine.WithLogger(logging.Discard())}, opts...)
	e, err := engine.New(context.Background(), form, opts...)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	return e
}

func TestNew_InitialMappingCoversLeaves(t *testing.T) {
	t.Parallel()

	for _, form := range []schema.FormSchema{abForm(), nestedForm()} {
		e := newEngine(t, form)
		got := e.Values().Keys()
		want := schema.LeafIDs(form.Fields)
		sort.Strings(want)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("%s: keys mismatch (-want +got):\n%s", form.FormID, diff)
		}
		for _, id := range got {
			if !e.Value(id).IsEmpty() {
				t.Fatalf("%s: %s should start empty", form.FormID, id)
			}
		}
		if e.Restored() {
			t.Fatal("fresh engine should not report a restore")
		}
	}
}

func TestNew_RejectsInvalidSchema(t *testing.T) {
	t.Parallel()

	form := abForm()
	form.Fields[1].ID = "A"
	if _, err := engine.New(context.Background(), form); !errors.Is(err, schema.ErrInvalidSchema) {
		t.Fatalf("expected ErrInvalidSchema, got %v", err)
	}
}

func TestVisibilityAndSubmitGate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e := newEngine(t, abForm())

	if e.HasErrors() {
		t.Fatal("HasErrors must be false before any submit attempt")
	}
	if e.FieldError("A") != "" {
		t.Fatal("no field errors before a submit attempt")
	}
	if e.IsFieldVisible("B") {
		t.Fatal("B should be hidden while A is empty")
	}

	called := false
	handler := func(context.Context, state.Values) error {
		called = true
		return nil
	}

	err := e.Submit(ctx, handler)
	var verr *engine.ValidationError
	if !errors.As(err, &verr) || !errors.Is(err, engine.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if diff := cmp.Diff([]string{"A"}, verr.Fields); diff != "" {
		t.Fatalf("blocked fields mismatch (-want +got):\n%s", diff)
	}
	if called {
		t.Fatal("handler must not run when validation fails")
	}
	if got := e.FieldError("A"); got != engine.RequiredMessage {
		t.Fatalf("A error = %q", got)
	}
	if got := e.FieldError("B"); got != "" {
		t.Fatalf("hidden B must not show an error, got %q", got)
	}
	if !e.HasErrors() {
		t.Fatal("HasErrors should be true after a blocked submit")
	}

	if err := e.HandleChange(ctx, "A", state.Text("X")); err != nil {
		t.Fatalf("HandleChange: %v", err)
	}
	if !e.IsFieldVisible("B") {
		t.Fatal("B should be visible once A = X")
	}
	err = e.Submit(ctx, handler)
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if diff := cmp.Diff([]string{"B"}, verr.Fields); diff != "" {
		t.Fatalf("blocked fields mismatch (-want +got):\n%s", diff)
	}
	if got := e.FieldError("B"); got != engine.RequiredMessage {
		t.Fatalf("B error = %q", got)
	}
	if e.FieldError("A") != "" {
		t.Fatal("A is filled and should have no error")
	}
}

func TestHasErrors_SkipsHiddenGroups(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e := newEngine(t, nestedForm())

	_ = e.Submit(ctx, nil)
	if diff := cmp.Diff(map[string]string{"state": engine.RequiredMessage}, e.Errors()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}

	if err := e.HandleChange(ctx, "country", state.Text("Canada")); err != nil {
		t.Fatalf("HandleChange: %v", err)
	}
	e.Wait()
	want := map[string]string{"state": engine.RequiredMessage, "province_code": engine.RequiredMessage}
	if diff := cmp.Diff(want, e.Errors()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleChange_ResetsDirectDependentsAndFetchesOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fetcher := &recordingFetcher{answers: map[string][]string{
		"/states": {"NY", "CA"},
		"/zips":   {"1xxxx"},
		"/cities": {"Albany"},
	}}
	e := newEngine(t, nestedForm(), engine.WithFetcher(fetcher))

	if err := e.HandleChange(ctx, "country", state.Text("USA")); err != nil {
		t.Fatalf("HandleChange: %v", err)
	}
	e.Wait()
	if err := e.HandleChange(ctx, "state", state.Text("NY")); err != nil {
		t.Fatalf("HandleChange: %v", err)
	}
	e.Wait()
	if err := e.HandleChange(ctx, "city", state.Text("Albany")); err != nil {
		t.Fatalf("HandleChange: %v", err)
	}

	if err := e.HandleChange(ctx, "country", state.Text("Canada")); err != nil {
		t.Fatalf("HandleChange: %v", err)
	}
	if !e.Value("state").IsEmpty() || !e.Value("zip_hint").IsEmpty() {
		t.Fatal("direct dependents must be reset in the same update")
	}
	if got := e.Value("city").Text(); got != "Albany" {
		t.Fatalf("indirect dependent should keep its value, got %q", got)
	}
	e.Wait()

	got := fetcher.Calls()
	want := []call{
		{Endpoint: "/states", Value: "USA"},
		{Endpoint: "/zips", Value: "USA"},
		{Endpoint: "/cities", Value: "NY"},
		{Endpoint: "/states", Value: "Canada"},
		{Endpoint: "/zips", Value: "Canada"},
	}
	// fetches for one change run concurrently, so only membership is checked
	if len(got) != len(want) {
		t.Fatalf("calls mismatch: got %+v want %+v", got, want)
	}
	for _, c := range want {
		if !slices.Contains(got, c) {
			t.Fatalf("missing call %+v in %+v", c, got)
		}
	}
	if diff := cmp.Diff([]string{"NY", "CA"}, e.Options("state")); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleChange_Errors(t *testing.T) {
	t.Parallel()

	e := newEngine(t, nestedForm())
	for _, id := range []string{"nope", "address"} {
		if err := e.HandleChange(context.Background(), id, state.Text("x")); !errors.Is(err, engine.ErrUnknownField) {
			t.Fatalf("%s: expected ErrUnknownField, got %v", id, err)
		}
	}
}

func TestHandleChange_CoercesCheckbox(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e := newEngine(t, nestedForm())

	if err := e.HandleChange(ctx, "coverage", state.Text("Fire")); err != nil {
		t.Fatalf("HandleChange: %v", err)
	}
	if v := e.Value("coverage"); !v.IsList() || !v.Contains("Fire") {
		t.Fatalf("checkbox value should be a list, got %v", v)
	}
	if err := e.Toggle(ctx, "coverage", "Flood"); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if err := e.Toggle(ctx, "coverage", "Fire"); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if diff := cmp.Diff([]string{"Flood"}, e.Value("coverage").Items()); diff != "" {
		t.Fatalf("toggle mismatch (-want +got):\n%s", diff)
	}

	if err := e.HandleChange(ctx, "coverage", state.List()); err != nil {
		t.Fatalf("HandleChange: %v", err)
	}
	if !e.Value("coverage").IsEmpty() {
		t.Fatal("empty list counts as empty")
	}
}

func TestFetchFailureYieldsEmptyOptions(t *testing.T) {
	t.Parallel()

	fetcher := &recordingFetcher{err: errors.New("boom")}
	e := newEngine(t, nestedForm(), engine.WithFetcher(fetcher))
	if err := e.HandleChange(context.Background(), "country", state.Text("USA")); err != nil {
		t.Fatalf("HandleChange: %v", err)
	}
	e.Wait()
	if got := e.Options("state"); got == nil || len(got) != 0 {
		t.Fatalf("expected empty, non-nil options, got %#v", got)
	}
	if e.Loading("state") {
		t.Fatal("loading flag must clear after a failure")
	}
}

// gatedFetcher blocks each call until the test releases it.
type gatedFetcher struct {
	started chan string
	release map[string]chan []string
}

func (f *gatedFetcher) FetchOptions(ctx context.Context, _ schema.DynamicOptions, value state.Value) ([]string, error) {
	f.started <- value.Text()
	select {
	case opts := <-f.release[value.Text()]:
		return opts, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestStaleFetchIsDiscarded(t *testing.T) {
	t.Parallel()

	form := schema.FormSchema{
		FormID: "stale",
		Title:  "Stale",
		Fields: []schema.FieldSpec{
			{ID: "make", Label: "Make", Kind: schema.KindText},
			{ID: "model", Label: "Model", Kind: schema.KindSelect, DynamicOptions: &schema.DynamicOptions{DependsOn: "make", Endpoint: "/models"}},
		},
	}
	fetcher := &gatedFetcher{
		started: make(chan string, 2),
		release: map[string]chan []string{"ford": make(chan []string), "fiat": make(chan []string)},
	}
	e := newEngine(t, form, engine.WithFetcher(fetcher))
	ctx := context.Background()

	if err := e.HandleChange(ctx, "make", state.Text("ford")); err != nil {
		t.Fatalf("HandleChange: %v", err)
	}
	<-fetcher.started
	if err := e.HandleChange(ctx, "make", state.Text("fiat")); err != nil {
		t.Fatalf("HandleChange: %v", err)
	}
	<-fetcher.started

	fetcher.release["fiat"] <- []string{"Panda"}
	// the newer fetch settles first, then the stale one arrives
	deadline := time.After(5 * time.Second)
	for e.Loading("model") {
		select {
		case <-deadline:
			t.Fatal("fiat fetch did not settle")
		case <-time.After(time.Millisecond):
		}
	}
	fetcher.release["ford"] <- []string{"Focus"}
	e.Wait()

	if diff := cmp.Diff([]string{"Panda"}, e.Options("model")); diff != "" {
		t.Fatalf("stale response leaked (-want +got):\n%s", diff)
	}
}

func TestView_LoadingState(t *testing.T) {
	t.Parallel()

	form := schema.FormSchema{
		FormID: "loading",
		Title:  "Loading",
		Fields: []schema.FieldSpec{
			{ID: "make", Label: "Make", Kind: schema.KindText},
			{ID: "model", Label: "Model", Kind: schema.KindSelect, DynamicOptions: &schema.DynamicOptions{DependsOn: "make", Endpoint: "/models"}},
		},
	}
	fetcher := &gatedFetcher{
		started: make(chan string, 1),
		release: map[string]chan []string{"ford": make(chan []string)},
	}
	e := newEngine(t, form, engine.WithFetcher(fetcher))

	if err := e.HandleChange(context.Background(), "make", state.Text("ford")); err != nil {
		t.Fatalf("HandleChange: %v", err)
	}
	<-fetcher.started

	model, ok := e.View().Field("model")
	if !ok {
		t.Fatal("model should be visible")
	}
	if !model.Loading || !model.Disabled || model.Placeholder != engine.LoadingMessage || len(model.Options) != 0 {
		t.Fatalf("unexpected loading view %+v", model)
	}

	fetcher.release["ford"] <- []string{"Focus"}
	e.Wait()
	model, _ = e.View().Field("model")
	if model.Loading || model.Disabled || model.Placeholder != "" {
		t.Fatalf("loading flags should clear, got %+v", model)
	}
	if diff := cmp.Diff([]string{"Focus"}, model.Options); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestView_TreeAndErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e := newEngine(t, nestedForm())
	_ = e.Submit(ctx, nil)

	view := e.View()
	if !view.Submitted || !view.HasErrors {
		t.Fatalf("unexpected flags %+v", view)
	}
	var ids []string
	for _, f := range view.Flatten() {
		ids = append(ids, f.ID)
	}
	if diff := cmp.Diff([]string{"country", "address", "state", "city", "zip_hint", "coverage"}, ids); diff != "" {
		t.Fatalf("visible tree mismatch (-want +got):\n%s", diff)
	}
	stateView, _ := view.Field("state")
	if stateView.Error != engine.RequiredMessage || stateView.Depth != 1 {
		t.Fatalf("unexpected state view %+v", stateView)
	}
}

func TestSubmit_PassesHiddenFieldsAndResets(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := persistence.NewMemoryStore()
	bridge := persistence.NewBridge(store)
	e := newEngine(t, abForm(), engine.WithPersistence(bridge))

	if err := e.HandleChange(ctx, "A", state.Text("X")); err != nil {
		t.Fatalf("HandleChange: %v", err)
	}
	if err := e.HandleChange(ctx, "B", state.Text("kept")); err != nil {
		t.Fatalf("HandleChange: %v", err)
	}
	// hide B again; its value stays and is still submitted
	if err := e.HandleChange(ctx, "A", state.Text("Y")); err != nil {
		t.Fatalf("HandleChange: %v", err)
	}

	var got map[string]any
	err := e.Submit(ctx, func(_ context.Context, values state.Values) error {
		got = values.Map()
		return nil
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"A": "Y", "B": "kept"}, got); diff != "" {
		t.Fatalf("submitted mapping mismatch (-want +got):\n%s", diff)
	}

	for _, id := range []string{"A", "B"} {
		if !e.Value(id).IsEmpty() {
			t.Fatalf("%s should be reset", id)
		}
	}
	if e.Submitted() || e.HasErrors() {
		t.Fatal("attempt flag should be cleared")
	}
	if _, err := store.Get(ctx, bridge.Key("ab")); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("snapshot should be cleared after success, got %v", err)
	}
}

func TestSubmit_HandlerFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("provider down")
	tests := []struct {
		name      string
		opts      []engine.Option
		wantReset bool
	}{
		{name: "gated", wantReset: false},
		{name: "optimistic", opts: []engine.Option{engine.WithOptimisticReset()}, wantReset: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			store := persistence.NewMemoryStore()
			bridge := persistence.NewBridge(store)
			opts := append([]engine.Option{engine.WithPersistence(bridge)}, tt.opts...)
			e := newEngine(t, abForm(), opts...)

			_ = e.HandleChange(ctx, "A", state.Text("Y"))
			err := e.Submit(ctx, func(context.Context, state.Values) error { return boom })
			if !errors.Is(err, boom) {
				t.Fatalf("expected handler error, got %v", err)
			}

			reset := e.Value("A").IsEmpty()
			if reset != tt.wantReset {
				t.Fatalf("reset = %v, want %v", reset, tt.wantReset)
			}
			_, storeErr := store.Get(ctx, bridge.Key("ab"))
			if tt.wantReset != errors.Is(storeErr, persistence.ErrNotFound) {
				t.Fatalf("snapshot presence mismatch: reset=%v storeErr=%v", tt.wantReset, storeErr)
			}
		})
	}
}

func TestPersistence_RestoreAndPrefetch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := persistence.NewMemoryStore()
	bridge := persistence.NewBridge(store)
	fetcher := &recordingFetcher{answers: map[string][]string{"/states": {"ON", "QC"}, "/zips": {"K"}}}

	first := newEngine(t, nestedForm(), engine.WithPersistence(bridge), engine.WithFetcher(fetcher))
	if err := first.HandleChange(ctx, "country", state.Text("Canada")); err != nil {
		t.Fatalf("HandleChange: %v", err)
	}
	first.Wait()
	if err := first.HandleChange(ctx, "state", state.Text("ON")); err != nil {
		t.Fatalf("HandleChange: %v", err)
	}
	first.Wait()

	second := newEngine(t, nestedForm(), engine.WithPersistence(bridge), engine.WithFetcher(fetcher))
	second.Wait()
	if !second.Restored() {
		t.Fatal("expected a restored engine")
	}
	if !second.Values().Equal(first.Values()) {
		t.Fatalf("restored mapping differs: %v vs %v", second.Values(), first.Values())
	}
	if diff := cmp.Diff([]string{"ON", "QC"}, second.Options("state")); diff != "" {
		t.Fatalf("restored options mismatch (-want +got):\n%s", diff)
	}
}

func TestPersistence_ExpiredSnapshot(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := persistence.NewMemoryStore()
	now := time.UnixMilli(1_700_000_000_000)
	clock := func() time.Time { return now }
	bridge := persistence.NewBridge(store, persistence.WithClock(clock))

	stale := []byte(`{"data":{"A":"X","B":"old"},"timestamp":1699996399999}`)
	if err := store.Put(ctx, "form_ab", stale); err != nil {
		t.Fatalf("Put: %v", err)
	}

	e := newEngine(t, abForm(), engine.WithPersistence(bridge))
	if e.Restored() {
		t.Fatal("expired snapshot must not be adopted")
	}
	if !e.Values().Equal(state.NewValues([]string{"A", "B"})) {
		t.Fatalf("expected empty mapping, got %v", e.Values())
	}
	if _, err := store.Get(ctx, "form_ab"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expired snapshot should be removed, got %v", err)
	}
}

func TestPersistence_SnapshotAdoptedVerbatim(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := persistence.NewMemoryStore()
	bridge := persistence.NewBridge(store)
	if err := bridge.Save(ctx, "ab", state.Values{"A": state.Text("X"), "legacy": state.Text("1")}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	e := newEngine(t, abForm(), engine.WithPersistence(bridge))
	want := state.Values{"A": state.Text("X"), "legacy": state.Text("1")}
	if !e.Values().Equal(want) {
		t.Fatalf("got %v want %v", e.Values(), want)
	}
	if !e.IsFieldVisible("B") {
		t.Fatal("restored A = X should reveal B")
	}
}

func TestObserverEvents(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		events []engine.EventKind
	)
	observer := func(ev engine.Event) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, ev.Kind)
	}
	fetcher := &recordingFetcher{answers: map[string][]string{"/states": {"NY"}}}
	form := nestedForm()
	form.Fields = form.Fields[:2]
	e := newEngine(t, form, engine.WithFetcher(fetcher), engine.WithObserver(observer))
	ctx := context.Background()

	_ = e.HandleChange(ctx, "country", state.Text("USA"))
	e.Wait()
	_ = e.Submit(ctx, nil)
	_ = e.HandleChange(ctx, "state", state.Text("NY"))
	e.Wait()
	_ = e.Submit(ctx, func(context.Context, state.Values) error { return nil })

	mu.Lock()
	defer mu.Unlock()
	want := []engine.EventKind{
		engine.EventValuesChanged, engine.EventOptionsLoading, engine.EventOptionsLoaded,
		engine.EventSubmitBlocked,
		engine.EventValuesChanged, engine.EventOptionsLoading, engine.EventOptionsLoaded,
		engine.EventSubmitted, engine.EventReset,
	}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestWait_ConcurrentWithChanges(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fetcher := &recordingFetcher{answers: map[string][]string{"/states": {"Texas"}, "/zips": {"7"}}}
	e := newEngine(t, nestedForm(), engine.WithFetcher(fetcher))

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range 200 {
				if err := e.HandleChange(ctx, "country", state.Text("USA")); err != nil {
					t.Errorf("HandleChange: %v", err)
					return
				}
			}
		}()
		go func() {
			defer wg.Done()
			for range 200 {
				e.Wait()
			}
		}()
	}
	wg.Wait()
	e.Wait()

	if e.Loading("state") || e.Loading("zip_hint") {
		t.Fatal("fetches still loading after Wait")
	}
	if diff := cmp.Diff([]string{"Texas"}, e.Options("state")); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmit_KeepsChangesMadeDuringHandler(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := persistence.NewMemoryStore()
	bridge := persistence.NewBridge(store)
	e := newEngine(t, abForm(), engine.WithPersistence(bridge))

	_ = e.HandleChange(ctx, "A", state.Text("X"))
	_ = e.HandleChange(ctx, "B", state.Text("first"))

	var submitted string
	err := e.Submit(ctx, func(_ context.Context, values state.Values) error {
		submitted = values.Get("B").Text()
		return e.HandleChange(ctx, "B", state.Text("second"))
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if submitted != "first" {
		t.Fatalf("handler saw %q", submitted)
	}
	if got := e.Value("B").Text(); got != "second" {
		t.Fatalf("edit made during submit was lost: B = %q", got)
	}
	if _, err := store.Get(ctx, bridge.Key("ab")); err != nil {
		t.Fatalf("snapshot should hold the later edit: %v", err)
	}
}
