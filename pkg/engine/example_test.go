package engine_test

import (
	"context"
	"fmt"

	"github.com/goliatone/go-formengine/pkg/engine"
	"github.com/goliatone/go-formengine/pkg/logging"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/state"
)

func ExampleEngine() {
	form := schema.FormSchema{
		FormID: "car",
		Title:  "Car insurance",
		Fields: []schema.FieldSpec{
			{ID: "make", Label: "Make", Kind: schema.KindSelect, Required: true, Options: []string{"Ford", "Fiat"}},
			{ID: "model", Label: "Model", Kind: schema.KindSelect, DynamicOptions: &schema.DynamicOptions{DependsOn: "make", Endpoint: "/models"}},
		},
	}
	fetcher := engine.OptionsFetcherFunc(func(_ context.Context, _ schema.DynamicOptions, value state.Value) ([]string, error) {
		return map[string][]string{"Ford": {"Focus", "Fiesta"}}[value.Text()], nil
	})

	ctx := context.Background()
	e, _ := engine.New(ctx, form, engine.WithFetcher(fetcher), engine.WithLogger(logging.Discard()))

	fmt.Println(e.Submit(ctx, nil))
	_ = e.HandleChange(ctx, "make", state.Text("Ford"))
	e.Wait()
	fmt.Println(e.Options("model"))

	_ = e.Submit(ctx, func(_ context.Context, values state.Values) error {
		fmt.Println("submitted", values.Get("make"))
		return nil
	})
	fmt.Println(e.Value("make").IsEmpty())
	// Output:
	// engine: validation failed: make
	// [Focus Fiesta]
	// submitted "Ford"
	// true
}
