package provider

import (
	"slices"

	"github.com/goliatone/go-formengine/pkg/schema"
)

// Normalizer post-processes a form fetched from the provider. It receives its
// own copy and returns the adjusted form.
type Normalizer func(schema.FormSchema) schema.FormSchema

// Form ids the insurance portal patches.
const (
	HomeInsuranceForm   = "home_insurance_application"
	CarInsuranceForm    = "car_insurance_application"
	HealthInsuranceForm = "health_insurance_application"
)

// InsuranceNormalizer applies the portal's fix-ups to the remote catalog:
// conditional visibility for the security system type and accident count,
// gender and pregnancy questions in the health info group, and removal of
// nested state fields.
func InsuranceNormalizer(form schema.FormSchema) schema.FormSchema {
	form = form.Clone()

	switch form.FormID {
	case HomeInsuranceForm:
		setVisibility(form.Fields, "security_system_type", "has_security_system", "Yes")
	case CarInsuranceForm:
		setVisibility(form.Fields, "accident_count", "accidents_last_5_years", "Yes")
	case HealthInsuranceForm:
		addPregnancyQuestions(form.Fields)
	}

	for i := range form.Fields {
		if !form.Fields[i].IsGroup() {
			continue
		}
		form.Fields[i].Children = slices.DeleteFunc(form.Fields[i].Children, func(f schema.FieldSpec) bool {
			return f.ID == "state"
		})
	}
	return form
}

func setVisibility(fields []schema.FieldSpec, id, dependsOn, value string) {
	for i := range fields {
		if fields[i].ID == id {
			fields[i].Visibility = &schema.Visibility{
				DependsOn: dependsOn,
				Condition: schema.ConditionEquals,
				Value:     value,
			}
			return
		}
	}
}

func addPregnancyQuestions(fields []schema.FieldSpec) {
	for i := range fields {
		if fields[i].ID != "health_info" || !fields[i].IsGroup() {
			continue
		}
		group := &fields[i]
		if slices.ContainsFunc(group.Children, func(f schema.FieldSpec) bool { return f.ID == "gender" }) {
			return
		}
		gender := schema.FieldSpec{
			ID:       "gender",
			Label:    "Gender",
			Kind:     schema.KindRadio,
			Required: true,
			Options:  []string{"Male", "Female"},
		}
		pregnancy := schema.FieldSpec{
			ID:       "pregnancy_status",
			Label:    "Pregnancy Status",
			Kind:     schema.KindRadio,
			Required: true,
			Options:  []string{"Yes", "No"},
			Visibility: &schema.Visibility{
				DependsOn: "gender",
				Condition: schema.ConditionEquals,
				Value:     "Female",
			},
		}
		group.Children = append([]schema.FieldSpec{gender}, group.Children...)
		group.Children = append(group.Children, pregnancy)
		return
	}
}
