package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-formengine/pkg/engine"
	"github.com/goliatone/go-formengine/pkg/render"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/state"
)

// DateLayout is the accepted date input format.
const DateLayout = "2006-01-02"

const skipOption = "(skip)"

// Fill runs an interactive session against eng. Visible leaves are prompted
// in tree order; fields revealed by an answer are prompted as soon as they
// appear, after pending option fetches settle. The form is then submitted
// through handler. A blocked submit re-prompts the failing fields and tries
// again. Fill returns the submitted mapping.
func (r *Renderer) Fill(ctx context.Context, eng *engine.Engine, handler engine.SubmitHandler) (state.Values, error) {
	if eng == nil {
		return nil, errors.New("tui: engine is required")
	}
	s := &session{
		r:         r,
		eng:       eng,
		asked:     make(map[string]bool),
		announced: make(map[string]bool),
	}

	if err := s.pass(ctx, nil); err != nil {
		return nil, err
	}
	for {
		eng.Wait()
		values := eng.Values()
		err := eng.Submit(ctx, handler)
		if err == nil {
			return values, nil
		}
		var verr *engine.ValidationError
		if !errors.As(err, &verr) {
			return nil, err
		}
		_ = r.driver.Info(ctx, r.theme.ErrorPrefix+"Please complete: "+strings.Join(verr.Fields, ", "))
		retry := make(map[string]bool, len(verr.Fields))
		for _, id := range verr.Fields {
			retry[id] = true
		}
		if err := s.pass(ctx, retry); err != nil {
			return nil, err
		}
	}
}

type session struct {
	r         *Renderer
	eng       *engine.Engine
	asked     map[string]bool
	announced map[string]bool
}

// pass prompts until every visible leaf has been asked once and every id in
// retry has been asked again.
func (s *session) pass(ctx context.Context, retry map[string]bool) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.eng.Wait()
		view := render.LocalizeView(s.eng.View(), s.r.renderOpts)

		field, groups, ok := s.next(view.Fields, nil, retry)
		if !ok {
			return nil
		}
		for _, group := range groups {
			if s.announced[group.ID] {
				continue
			}
			s.announced[group.ID] = true
			_ = s.r.driver.Info(ctx, s.r.theme.GroupPrefix+group.Label)
		}

		value, err := s.prompt(ctx, field)
		if err != nil {
			return err
		}
		s.asked[field.ID] = true
		delete(retry, field.ID)
		s.r.logger.Debug("field answered", slog.String("field", field.ID))

		if value.Equal(field.Value) {
			continue
		}
		if err := s.eng.HandleChange(ctx, field.ID, value); err != nil {
			return fmt.Errorf("tui: apply %s: %w", field.ID, err)
		}
	}
}

// next finds the first visible leaf still to prompt, with its enclosing
// groups outermost first.
func (s *session) next(fields []engine.FieldView, parents []engine.FieldView, retry map[string]bool) (engine.FieldView, []engine.FieldView, bool) {
	for _, field := range fields {
		if field.IsGroup() {
			nested := append(append([]engine.FieldView(nil), parents...), field)
			if found, groups, ok := s.next(field.Children, nested, retry); ok {
				return found, groups, true
			}
			continue
		}
		if !s.asked[field.ID] || retry[field.ID] {
			return field, parents, true
		}
	}
	return engine.FieldView{}, nil, false
}

func (s *session) prompt(ctx context.Context, field engine.FieldView) (state.Value, error) {
	switch field.Kind {
	case schema.KindSelect, schema.KindRadio:
		return s.promptChoice(ctx, field)
	case schema.KindCheckbox:
		return s.promptMulti(ctx, field)
	case schema.KindNumber:
		return s.promptInput(ctx, field, numberValidator(field))
	case schema.KindDate:
		return s.promptInput(ctx, field, dateValidator(field))
	case schema.KindText:
		return s.promptInput(ctx, field, textValidator(field))
	default:
		return state.Value{}, fmt.Errorf("tui: field %q has unsupported type %q", field.ID, field.Kind)
	}
}

func (s *session) promptInput(ctx context.Context, field engine.FieldView, validate func(string) error) (state.Value, error) {
	label := fieldLabel(field)
	for {
		response, err := s.r.driver.Input(ctx, InputConfig{
			Message:   label,
			Default:   field.Value.Text(),
			Help:      field.HelperText,
			Validator: validate,
		})
		if err != nil {
			return state.Value{}, err
		}
		response = strings.TrimSpace(response)
		if err := validate(response); err != nil {
			s.invalid(ctx, label, err)
			continue
		}
		return state.Text(response), nil
	}
}

func (s *session) promptChoice(ctx context.Context, field engine.FieldView) (state.Value, error) {
	label := fieldLabel(field)
	if len(field.Options) == 0 {
		if field.Required {
			_ = s.r.driver.Info(ctx, fmt.Sprintf("%s%s: no options available", s.r.theme.ErrorPrefix, label))
			return state.Value{}, fmt.Errorf("%w: %s", ErrNoOptions, field.ID)
		}
		return field.Value, nil
	}

	options := field.Options
	if !field.Required {
		options = append([]string{skipOption}, options...)
	}
	for {
		idx, err := s.r.driver.Select(ctx, SelectConfig{
			Message:      label,
			Options:      options,
			DefaultIndex: indexOf(options, field.Value.Text()),
			Help:         field.HelperText,
		})
		if err != nil {
			return state.Value{}, err
		}
		if idx < 0 || idx >= len(options) {
			s.invalid(ctx, label, errors.New("unknown selection"))
			continue
		}
		if !field.Required && idx == 0 {
			return state.Text(""), nil
		}
		return state.Text(options[idx]), nil
	}
}

func (s *session) promptMulti(ctx context.Context, field engine.FieldView) (state.Value, error) {
	label := fieldLabel(field)
	if len(field.Options) == 0 {
		if field.Required {
			return state.Value{}, fmt.Errorf("%w: %s", ErrNoOptions, field.ID)
		}
		return field.Value, nil
	}
	for {
		indices, err := s.r.driver.MultiSelect(ctx, SelectConfig{
			Message:  label,
			Options:  field.Options,
			Defaults: indicesOf(field.Options, field.Value.Items()),
			Help:     field.HelperText,
		})
		if err != nil {
			return state.Value{}, err
		}
		selected := defaultsFromIndices(field.Options, indices)
		if field.Required && len(selected) == 0 {
			s.invalid(ctx, label, errors.New(engine.RequiredMessage))
			continue
		}
		return state.List(selected...), nil
	}
}

func (s *session) invalid(ctx context.Context, label string, err error) {
	_ = s.r.driver.Info(ctx, fmt.Sprintf("%sInvalid %s: %v", s.r.theme.ErrorPrefix, label, err))
}

func requiredCheck(field engine.FieldView, value string) error {
	if field.Required && value == "" {
		return errors.New(engine.RequiredMessage)
	}
	return nil
}

func textValidator(field engine.FieldView) func(string) error {
	var pattern *regexp.Regexp
	if field.Pattern != "" {
		pattern, _ = regexp.Compile(field.Pattern)
	}
	return func(value string) error {
		value = strings.TrimSpace(value)
		if err := requiredCheck(field, value); err != nil || value == "" {
			return err
		}
		if pattern != nil && !pattern.MatchString(value) {
			return fmt.Errorf("must match %s", field.Pattern)
		}
		return nil
	}
}

func numberValidator(field engine.FieldView) func(string) error {
	return func(value string) error {
		value = strings.TrimSpace(value)
		if err := requiredCheck(field, value); err != nil || value == "" {
			return err
		}
		n, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return errors.New("must be a number")
		}
		if field.Min != nil && n < *field.Min {
			return fmt.Errorf("must be at least %s", strconv.FormatFloat(*field.Min, 'f', -1, 64))
		}
		if field.Max != nil && n > *field.Max {
			return fmt.Errorf("must be at most %s", strconv.FormatFloat(*field.Max, 'f', -1, 64))
		}
		return nil
	}
}

func dateValidator(field engine.FieldView) func(string) error {
	return func(value string) error {
		value = strings.TrimSpace(value)
		if err := requiredCheck(field, value); err != nil || value == "" {
			return err
		}
		if _, err := time.Parse(DateLayout, value); err != nil {
			return fmt.Errorf("must be a date (%s)", DateLayout)
		}
		return nil
	}
}
