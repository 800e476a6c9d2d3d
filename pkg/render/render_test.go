package render_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formengine/pkg/engine"
	"github.com/goliatone/go-formengine/pkg/render"
	"github.com/goliatone/go-formengine/pkg/schema"
)

func stubRenderer(name string) render.Renderer {
	return render.RendererFunc{
		RendererName: name,
		Type:         "text/plain",
		Fn: func(_ context.Context, view engine.FormView, _ render.RenderOptions) ([]byte, error) {
			return []byte(view.Title), nil
		},
	}
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	reg := render.NewRegistry()
	if err := reg.Register(stubRenderer("tui")); err != nil {
		t.Fatalf("register tui: %v", err)
	}
	if err := reg.Register(stubRenderer("html")); err != nil {
		t.Fatalf("register html: %v", err)
	}
	if err := reg.Register(stubRenderer("html")); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
	if err := reg.Register(nil); err == nil {
		t.Fatalf("expected nil renderer to fail")
	}

	if diff := cmp.Diff([]string{"html", "tui"}, reg.List()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	if !reg.Has("html") || reg.Has("pdf") {
		t.Fatalf("unexpected Has results")
	}
	if _, err := reg.Get("pdf"); err == nil {
		t.Fatalf("expected missing renderer error")
	}

	r := reg.MustGet("html")
	out, err := r.Render(context.Background(), engine.FormView{Title: "Home"}, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if string(out) != "Home" {
		t.Fatalf("render output = %q", out)
	}
}

func TestSortedHiddenFields(t *testing.T) {
	t.Parallel()

	got := render.SortedHiddenFields(
		render.FormIDField("home"),
		render.CSRFToken("_csrf", "token123"),
		render.Hidden(" version ", 4),
		render.Hidden("  ", "skip"),
		render.CSRFToken("_csrf", "token456"),
	)
	want := []render.HiddenField{
		{Name: "_csrf", Value: "token456"},
		{Name: "formId", Value: "home"},
		{Name: "version", Value: "4"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("hidden fields mismatch (-want +got):\n%s", diff)
	}
	if render.SortedHiddenFields() != nil {
		t.Fatalf("expected nil for no fields")
	}
}

func TestRenderOptionsDefaults(t *testing.T) {
	t.Parallel()

	var opts render.RenderOptions
	if opts.MethodOrDefault() != "POST" || opts.SubmitLabelOrDefault() != "Submit" {
		t.Fatalf("unexpected defaults %q %q", opts.MethodOrDefault(), opts.SubmitLabelOrDefault())
	}
	opts.Method = " get "
	if opts.MethodOrDefault() != "GET" {
		t.Fatalf("method = %q", opts.MethodOrDefault())
	}
}

func TestLocalizeView(t *testing.T) {
	t.Parallel()

	view := engine.FormView{
		FormID: "home",
		Title:  "Home Insurance",
		Fields: []engine.FieldView{
			{
				ID:    "address",
				Label: "Address",
				Kind:  schema.KindGroup,
				Children: []engine.FieldView{
					{ID: "home_state", Label: "State", Kind: schema.KindSelect, Placeholder: engine.LoadingMessage, Loading: true, Options: []string{"CA"}},
				},
			},
			{ID: "home_owner_name", Label: "Owner", Kind: schema.KindText, HelperText: "As on the deed", Error: engine.RequiredMessage},
		},
	}
	opts := render.RenderOptions{
		Locale: "es",
		Translator: render.MapTranslator{"es": {
			render.FormTitleKey("home"):        "Seguro de hogar",
			render.FieldLabelKey("home_state"): "Estado",
			render.FieldLabelKey("address"):    "Dirección",
			render.KeyLoading:                  "Cargando opciones...",
			render.KeyRequired:                 "Campo obligatorio",
			render.KeySubmit:                   "Enviar",
		}},
	}

	got := render.LocalizeView(view, opts)

	if got.Title != "Seguro de hogar" {
		t.Fatalf("title = %q", got.Title)
	}
	state := got.Fields[0].Children[0]
	if state.Label != "Estado" || state.Placeholder != "Cargando opciones..." {
		t.Fatalf("nested field not localized: %+v", state)
	}
	if diff := cmp.Diff([]string{"CA"}, state.Options); diff != "" {
		t.Fatalf("options must not be translated (-want +got):\n%s", diff)
	}
	owner := got.Fields[1]
	if owner.Label != "Owner" || owner.HelperText != "As on the deed" {
		t.Fatalf("missing keys should fall back to schema text: %+v", owner)
	}
	if owner.Error != "Campo obligatorio" {
		t.Fatalf("error = %q", owner.Error)
	}
	if view.Fields[0].Children[0].Label != "State" {
		t.Fatalf("input view was mutated")
	}
	if label := render.LocalizeSubmitLabel(opts); label != "Enviar" {
		t.Fatalf("submit label = %q", label)
	}
}

func TestLocalizeViewOnMissing(t *testing.T) {
	t.Parallel()

	var missing []string
	opts := render.RenderOptions{
		Locale: "fr",
		Translator: render.TranslatorFunc(func(string, string, ...any) (string, error) {
			return "", nil
		}),
		OnMissing: func(locale, key, fallback string, _ error) string {
			missing = append(missing, key)
			return strings.ToUpper(fallback)
		},
	}
	got := render.LocalizeView(engine.FormView{
		FormID: "car",
		Title:  "Car",
		Fields: []engine.FieldView{{ID: "car_year", Label: "Year", Kind: schema.KindNumber}},
	}, opts)

	if got.Title != "CAR" || got.Fields[0].Label != "YEAR" {
		t.Fatalf("unexpected localization: %+v", got)
	}
	if diff := cmp.Diff([]string{"forms.car.title", "fields.car_year.label"}, missing); diff != "" {
		t.Fatalf("missing keys mismatch (-want +got):\n%s", diff)
	}
}

func TestLocalizeViewWithoutTranslator(t *testing.T) {
	t.Parallel()

	view := engine.FormView{FormID: "x", Title: "X", Fields: []engine.FieldView{{ID: "a", Label: "A"}}}
	got := render.LocalizeView(view, render.RenderOptions{Locale: "es"})
	if got.Title != "X" || got.Fields[0].Label != "A" {
		t.Fatalf("view changed without translator: %+v", got)
	}
}
