package forms

import "github.com/dealdesk-io/dealdesk-engine/pkg/models"

// Value is an immutable snapshot of a form's field values. Apply returns a
// new snapshot; the original is never mutated.
type Value struct {
	fields map[string]string
}

// NewValue creates a form value from initial field contents.
func NewValue(initial map[string]string) Value {
	fields := make(map[string]string, len(initial))
	for k, v := range initial {
		fields[k] = v
	}
	return Value{fields: fields}
}

// Get returns a field's current value, "" if unset.
func (v Value) Get(name string) string {
	return v.fields[name]
}

// Apply returns a copy of the form with one field changed.
func (v Value) Apply(name, value string) Value {
	next := make(map[string]string, len(v.fields)+1)
	for k, val := range v.fields {
		next[k] = val
	}
	next[name] = value
	return Value{fields: next}
}

// ApplyOpportunityType sets the opportunity type and re-derives the stage:
// when the type actually changes and the current stage is not valid for the
// new type, the stage resets to the new type's first value. A caller
// restoring a previously valid pairing keeps its stage.
func ApplyOpportunityType(form Value, opportunityType string) Value {
	next := form.Apply("opportunity_type", opportunityType)
	if !models.ValidStage(opportunityType, next.Get("stage")) {
		next = next.Apply("stage", models.DefaultStage(opportunityType))
	}
	return next
}

// CredentialsSchema validates the signup/login form.
func CredentialsSchema() Schema {
	return Schema{Fields: []Field{
		{Name: "email", Rules: []Rule{Email()}},
		{Name: "password", Rules: []Rule{MinLength(8)}},
	}}
}

// SolutionSchema validates the solution create/edit form.
func SolutionSchema() Schema {
	return Schema{Fields: []Field{
		{Name: "name", Rules: []Rule{MinLength(2)}},
	}}
}

// OpportunitySchema validates the opportunity create/edit form. The stage
// rule is derived from the currently selected type; an empty stage passes
// here and is re-derived downstream.
func OpportunitySchema(opportunityType string) Schema {
	return Schema{Fields: []Field{
		{Name: "name", Rules: []Rule{MinLength(2)}},
		{Name: "client_name", Rules: []Rule{MinLength(2)}},
		{Name: "opportunity_type", Rules: []Rule{OneOf(models.TypeConcept, models.TypePaidAudit)}},
		{Name: "stage", Rules: []Rule{Optional(OneOf(models.StagesForType(opportunityType)...))}},
		{Name: "estimated_value", Rules: []Rule{OptionalNumber()}},
	}}
}

// SessionSchema validates the discovery session form.
func SessionSchema() Schema {
	return Schema{Fields: []Field{
		{Name: "client_name", Rules: []Rule{MinLength(1)}},
	}}
}

// TemplateSchema validates the discovery template form.
func TemplateSchema() Schema {
	return Schema{Fields: []Field{
		{Name: "name", Rules: []Rule{MinLength(1)}},
	}}
}
