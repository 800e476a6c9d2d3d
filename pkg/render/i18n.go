package render

import (
	"errors"
	"strings"

	"github.com/goliatone/go-formengine/pkg/engine"
)

// ErrMissingTranslator is passed to MissingTranslationHandler when a key is
// looked up without a Translator.
var ErrMissingTranslator = errors.New("render: translator is not configured")

// Translator resolves a message key for a locale.
type Translator interface {
	Translate(locale, key string, args ...any) (string, error)
}

// TranslatorFunc adapts a function into a Translator.
type TranslatorFunc func(locale, key string, args ...any) (string, error)

func (f TranslatorFunc) Translate(locale, key string, args ...any) (string, error) {
	return f(locale, key, args...)
}

// MapTranslator serves translations from a locale -> key -> message table.
type MapTranslator map[string]map[string]string

func (m MapTranslator) Translate(locale, key string, _ ...any) (string, error) {
	if msg, ok := m[locale][key]; ok {
		return msg, nil
	}
	return "", errors.New("render: missing translation " + locale + "/" + key)
}

// MissingTranslationHandler returns the text used when key has no
// translation. fallback is the untranslated text from the schema.
type MissingTranslationHandler func(locale, key, fallback string, err error) string

func missingTranslationDefault(_, key, fallback string, _ error) string {
	if strings.TrimSpace(fallback) != "" {
		return fallback
	}
	return key
}

// Message keys looked up by LocalizeView. Field keys are built from the
// field id, form keys from the form id.
const (
	KeyRequired = "engine.required"
	KeyLoading  = "engine.loading"
	KeySubmit   = "form.submit"
)

// FormTitleKey is the key of a form title.
func FormTitleKey(formID string) string { return "forms." + formID + ".title" }

// FormDescriptionKey is the key of a form description.
func FormDescriptionKey(formID string) string { return "forms." + formID + ".description" }

// FieldLabelKey is the key of a field label.
func FieldLabelKey(id string) string { return "fields." + id + ".label" }

// FieldHelperTextKey is the key of a field helper text.
func FieldHelperTextKey(id string) string { return "fields." + id + ".helperText" }

// LocalizeView returns a copy of view with titles, labels, helper texts, the
// loading placeholder and error messages translated for opts.Locale. Option
// values are never translated because they are submitted verbatim. When
// opts.Translator is nil the view is returned unchanged.
func LocalizeView(view engine.FormView, opts RenderOptions) engine.FormView {
	if opts.Translator == nil {
		return view
	}
	onMissing := opts.OnMissing
	if onMissing == nil {
		onMissing = missingTranslationDefault
	}
	tr := func(key, fallback string) string {
		return translate(opts.Locale, key, fallback, opts.Translator, onMissing)
	}

	out := view
	out.Title = tr(FormTitleKey(view.FormID), view.Title)
	if view.Description != "" {
		out.Description = tr(FormDescriptionKey(view.FormID), view.Description)
	}
	out.Fields = localizeFields(view.Fields, tr)
	return out
}

// LocalizeSubmitLabel resolves the submit caption, preferring an explicit
// opts.SubmitLabel.
func LocalizeSubmitLabel(opts RenderOptions) string {
	if opts.SubmitLabel != "" || opts.Translator == nil {
		return opts.SubmitLabelOrDefault()
	}
	onMissing := opts.OnMissing
	if onMissing == nil {
		onMissing = missingTranslationDefault
	}
	return translate(opts.Locale, KeySubmit, opts.SubmitLabelOrDefault(), opts.Translator, onMissing)
}

func localizeFields(fields []engine.FieldView, tr func(key, fallback string) string) []engine.FieldView {
	if fields == nil {
		return nil
	}
	out := make([]engine.FieldView, len(fields))
	for i, field := range fields {
		field.Label = tr(FieldLabelKey(field.ID), field.Label)
		if field.HelperText != "" {
			field.HelperText = tr(FieldHelperTextKey(field.ID), field.HelperText)
		}
		if field.Placeholder == engine.LoadingMessage {
			field.Placeholder = tr(KeyLoading, field.Placeholder)
		}
		if field.Error == engine.RequiredMessage {
			field.Error = tr(KeyRequired, field.Error)
		}
		field.Children = localizeFields(field.Children, tr)
		out[i] = field
	}
	return out
}

func translate(locale, key, fallback string, t Translator, onMissing MissingTranslationHandler) string {
	if t == nil {
		return onMissing(locale, key, fallback, ErrMissingTranslator)
	}
	result, err := t.Translate(locale, key)
	if err == nil && strings.TrimSpace(result) != "" {
		return result
	}
	return onMissing(locale, key, fallback, err)
}
