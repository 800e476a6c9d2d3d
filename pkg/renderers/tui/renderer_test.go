package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formengine/pkg/engine"
	"github.com/goliatone/go-formengine/pkg/logging"
	"github.com/goliatone/go-formengine/pkg/render"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/state"
	"github.com/goliatone/go-formengine/pkg/testsupport"
)

type stubDriver struct {
	inputs       []string
	selectIdx    []int
	multiIdx     [][]int
	infoMessages []string
	prompts      []string
	selectOpts   [][]string
	inputPos     int
	selectPos    int
	multiPos     int
	onInput      func(pos int)
}

func (s *stubDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	s.prompts = append(s.prompts, cfg.Message)
	val := s.inputs[s.inputPos]
	if s.onInput != nil {
		s.onInput(s.inputPos)
	}
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	if s.selectPos >= len(s.selectIdx) {
		return -1, errors.New("no select scripted")
	}
	s.prompts = append(s.prompts, cfg.Message)
	s.selectOpts = append(s.selectOpts, cfg.Options)
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) MultiSelect(_ context.Context, cfg SelectConfig) ([]int, error) {
	if s.multiPos >= len(s.multiIdx) {
		return nil, errors.New("no multiselect scripted")
	}
	s.prompts = append(s.prompts, cfg.Message)
	val := s.multiIdx[s.multiPos]
	s.multiPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

func newTestRenderer(t *testing.T, driver PromptDriver, opts ...Option) *Renderer {
	t.Helper()
	r, err := New(append([]Option{WithPromptDriver(driver)}, opts...)...)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	return r
}

func newTestEngine(t *testing.T, form schema.FormSchema, opts ...engine.Option) *engine.Engine {
	t.Helper()
	opts = append([]engine.Option{engine.WithLogger(logging.Discard())}, opts...)
	eng, err := engine.New(context.Background(), form, opts...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return eng
}

func captureHandler(dst *state.Values) engine.SubmitHandler {
	return func(_ context.Context, values state.Values) error {
		*dst = values
		return nil
	}
}

func TestFill_CarFormWithValidation(t *testing.T) {
	t.Parallel()

	driver := &stubDriver{
		inputs:    []string{"Ada", "1980", "2020", "2", "2024-13-01", "2024-05-01"},
		selectIdx: []int{1},
	}
	eng := newTestEngine(t, testsupport.InsuranceForm(t, "car_insurance_application"))

	var submitted state.Values
	got, err := newTestRenderer(t, driver).Fill(context.Background(), eng, captureHandler(&submitted))
	if err != nil {
		t.Fatalf("fill: %v", err)
	}

	want := map[string]any{
		"car_owner":              "Ada",
		"car_year":               "2020",
		"accidents_last_5_years": "No",
		"accident_count":         "2",
		"policy_start":           "2024-05-01",
	}
	if diff := cmp.Diff(want, got.Map()); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, submitted.Map()); diff != "" {
		t.Fatalf("submitted mismatch (-want +got):\n%s", diff)
	}
	if len(driver.infoMessages) != 2 {
		t.Fatalf("expected two validation messages, got %v", driver.infoMessages)
	}
	if !strings.Contains(driver.infoMessages[0], "must be at least 1990") {
		t.Fatalf("unexpected message %q", driver.infoMessages[0])
	}
	if !eng.Value("car_owner").IsEmpty() {
		t.Fatalf("engine should reset after a successful submit")
	}
}

func TestFill_PromptsRevealedFieldsInOrder(t *testing.T) {
	t.Parallel()

	driver := &stubDriver{
		inputs:    []string{"Ada", "70"},
		selectIdx: []int{0, 1},
		multiIdx:  [][]int{{0}},
	}
	eng := newTestEngine(t, testsupport.InsuranceForm(t, "health_insurance_application"))

	got, err := newTestRenderer(t, driver).Fill(context.Background(), eng, nil)
	if err != nil {
		t.Fatalf("fill: %v", err)
	}

	wantPrompts := []string{"Full Name *", "Age *", "Do you smoke? *", "Smoking Frequency *", "Apply senior discount"}
	if diff := cmp.Diff(wantPrompts, driver.prompts); diff != "" {
		t.Fatalf("prompt order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"== Health Information"}, driver.infoMessages); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}
	want := map[string]any{
		"full_name":         "Ada",
		"age":               "70",
		"smoker":            "Yes",
		"smoking_frequency": "Daily",
		"senior_discount":   []string{"Yes"},
	}
	if diff := cmp.Diff(want, got.Map()); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func addressForm() schema.FormSchema {
	return schema.FormSchema{
		FormID: "address",
		Title:  "Address",
		Fields: []schema.FieldSpec{
			{ID: "country", Label: "Country", Kind: schema.KindSelect, Required: true, Options: []string{"USA", "Canada"}},
			{ID: "state", Label: "State", Kind: schema.KindSelect, Required: true, DynamicOptions: &schema.DynamicOptions{DependsOn: "country", Endpoint: "/api/getStates"}},
			{ID: "note", Label: "Note", Kind: schema.KindSelect, Options: []string{"a", "b"}},
		},
	}
}

func TestFill_WaitsForDynamicOptions(t *testing.T) {
	t.Parallel()

	fetcher := engine.OptionsFetcherFunc(func(_ context.Context, _ schema.DynamicOptions, value state.Value) ([]string, error) {
		if value.Text() == "USA" {
			return []string{"CA", "NY"}, nil
		}
		return nil, nil
	})
	driver := &stubDriver{selectIdx: []int{0, 1, 0}}
	eng := newTestEngine(t, addressForm(), engine.WithFetcher(fetcher))

	got, err := newTestRenderer(t, driver).Fill(context.Background(), eng, nil)
	if err != nil {
		t.Fatalf("fill: %v", err)
	}

	wantOpts := [][]string{{"USA", "Canada"}, {"CA", "NY"}, {"(skip)", "a", "b"}}
	if diff := cmp.Diff(wantOpts, driver.selectOpts); diff != "" {
		t.Fatalf("select options mismatch (-want +got):\n%s", diff)
	}
	want := map[string]any{"country": "USA", "state": "NY", "note": ""}
	if diff := cmp.Diff(want, got.Map()); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestFill_RequiredChoiceWithoutOptions(t *testing.T) {
	t.Parallel()

	fetcher := engine.OptionsFetcherFunc(func(context.Context, schema.DynamicOptions, state.Value) ([]string, error) {
		return nil, errors.New("provider down")
	})
	driver := &stubDriver{selectIdx: []int{0}}
	eng := newTestEngine(t, addressForm(), engine.WithFetcher(fetcher))

	_, err := newTestRenderer(t, driver).Fill(context.Background(), eng, nil)
	if !errors.Is(err, ErrNoOptions) {
		t.Fatalf("err = %v, want ErrNoOptions", err)
	}
}

func TestFill_RepromptsAfterBlockedSubmit(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(t, testsupport.InsuranceForm(t, "car_insurance_application"))
	driver := &stubDriver{
		inputs:    []string{"Ada", "2020", "2", "2024-05-01", "Bob"},
		selectIdx: []int{1},
	}
	driver.onInput = func(pos int) {
		if pos == 3 {
			if err := eng.HandleChange(context.Background(), "car_owner", state.Text("")); err != nil {
				t.Errorf("clear car_owner: %v", err)
			}
		}
	}

	got, err := newTestRenderer(t, driver).Fill(context.Background(), eng, nil)
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	if got.Get("car_owner").Text() != "Bob" {
		t.Fatalf("car_owner = %s", got.Get("car_owner"))
	}
	if diff := cmp.Diff([]string{"! Please complete: car_owner"}, driver.infoMessages); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}
}

func TestFill_HandlerAndDriverErrors(t *testing.T) {
	t.Parallel()

	errBoom := errors.New("boom")
	driver := &stubDriver{inputs: []string{"Ada", "2020", "2", "2024-05-01"}, selectIdx: []int{1}}
	eng := newTestEngine(t, testsupport.InsuranceForm(t, "car_insurance_application"))
	_, err := newTestRenderer(t, driver).Fill(context.Background(), eng, func(context.Context, state.Values) error {
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if eng.Value("car_owner").Text() != "Ada" {
		t.Fatalf("failed submit should keep values")
	}

	aborting := &stubDriver{}
	eng = newTestEngine(t, testsupport.InsuranceForm(t, "car_insurance_application"))
	r := newTestRenderer(t, abortDriver{aborting})
	if _, err := r.Fill(context.Background(), eng, nil); !errors.Is(err, ErrAborted) {
		t.Fatalf("err = %v, want ErrAborted", err)
	}
}

type abortDriver struct{ *stubDriver }

func (abortDriver) Input(context.Context, InputConfig) (string, error) { return "", ErrAborted }

func TestRender_TextView(t *testing.T) {
	t.Parallel()

	view := engine.FormView{
		FormID:      "health",
		Title:       "Health",
		Description: "About you",
		Fields: []engine.FieldView{
			{ID: "full_name", Label: "Full Name", Kind: schema.KindText, Required: true, HelperText: "As shown on your ID", Error: engine.RequiredMessage},
			{
				ID:    "health_info",
				Label: "Health Information",
				Kind:  schema.KindGroup,
				Children: []engine.FieldView{
					{ID: "smoker", Label: "Do you smoke?", Kind: schema.KindRadio, Required: true, Options: []string{"Yes", "No"}, Value: state.Text("No"), Depth: 1},
					{ID: "state", Label: "State", Kind: schema.KindSelect, Loading: true, Placeholder: engine.LoadingMessage, Depth: 1},
				},
			},
		},
	}

	r := newTestRenderer(t, &stubDriver{})
	out, err := r.Render(context.Background(), view, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := strings.Join([]string{
		"Health",
		"About you",
		"Full Name *: -",
		"  As shown on your ID",
		"  ! This field is required",
		"== Health Information",
		"  Do you smoke? *: No",
		"    options: Yes, No",
		"  State: Loading options...",
		"",
	}, "\n")
	if diff := cmp.Diff(want, string(out)); diff != "" {
		t.Fatalf("render mismatch (-want +got):\n%s", diff)
	}
	if r.Name() != "tui" || r.ContentType() != "text/plain; charset=utf-8" {
		t.Fatalf("unexpected metadata %q %q", r.Name(), r.ContentType())
	}
}

func TestEncode(t *testing.T) {
	t.Parallel()

	values := state.Values{
		"name":     state.Text("Ada"),
		"coverage": state.List("Fire", "Flood"),
	}
	tests := []struct {
		format OutputFormat
		want   string
	}{
		{OutputFormatJSON, `{"coverage":["Fire","Flood"],"name":"Ada"}`},
		{OutputFormatFormURLEncoded, "coverage=Fire&coverage=Flood&name=Ada"},
		{OutputFormatPrettyText, "coverage=[Fire, Flood]\nname=\"Ada\"\n"},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			t.Parallel()
			r := newTestRenderer(t, &stubDriver{}, WithOutputFormat(tt.format))
			out, err := r.Encode(values)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			if string(out) != tt.want {
				t.Fatalf("encode = %q, want %q", out, tt.want)
			}
		})
	}

	if _, err := New(WithPromptDriver(&stubDriver{}), WithOutputFormat("xml")); err == nil {
		t.Fatalf("expected unknown format error")
	}
}

func TestPrompt_UnsupportedKind(t *testing.T) {
	t.Parallel()

	driver := &stubDriver{inputs: []string{"typed"}}
	s := &session{r: newTestRenderer(t, driver)}

	if _, err := s.prompt(context.Background(), engine.FieldView{ID: "volume", Kind: "slider"}); err == nil {
		t.Fatal("expected an error for an unknown kind")
	}
	if len(driver.prompts) != 0 {
		t.Fatalf("unknown kinds must not prompt, got %v", driver.prompts)
	}

	got, err := s.prompt(context.Background(), engine.FieldView{ID: "name", Label: "Name", Kind: schema.KindText})
	if err != nil {
		t.Fatalf("prompt text: %v", err)
	}
	if got.Text() != "typed" {
		t.Fatalf("text value = %q", got.Text())
	}
}
