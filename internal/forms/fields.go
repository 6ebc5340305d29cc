// Package forms defines the editable-entity forms of the CMS: declarative
// field definitions with per-field validator chains and a field-name to
// messages error mapping for re-display. Validation is all-or-nothing; no
// form hands partially valid data to the services.
package forms

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
)

// Choice is one selectable option of a radio or checkbox group.
type Choice struct {
	Value string
	Label string
}

// EnumMember names one member of a domain enumeration: Name is the stored
// value, Value the display label. Choice lists built from an enumeration use
// an explicit member list rather than reflection.
type EnumMember struct {
	Name  string
	Value string
}

func choicesFromEnum(members []EnumMember) []Choice {
	choices := make([]Choice, 0, len(members))
	for _, m := range members {
		choices = append(choices, Choice{Value: m.Name, Label: m.Value})
	}
	return choices
}

// FieldValue is what a validator sees of a field.
type FieldValue interface {
	FieldName() string
	FieldLabel() string
	// Empty reports whether the field carries no submitted value.
	Empty() bool
	// String returns the submitted value as a string, for length checks.
	String() string
}

type field struct {
	name       string
	label      string
	hint       string
	validators []Validator
	errs       []string
}

func (f *field) FieldName() string  { return f.name }
func (f *field) FieldLabel() string { return f.label }
func (f *field) Hint() string       { return f.hint }
func (f *field) Errors() []string   { return f.errs }

func (f *field) appendError(msg string) {
	f.errs = append(f.errs, msg)
}

// StringField holds a single text value. Blank submissions populate domain
// fields as absent, never as empty strings.
type StringField struct {
	field
	Data string
}

func NewStringField(name, label, hint string, validators ...Validator) *StringField {
	return &StringField{field: field{name: name, label: label, hint: hint, validators: validators}}
}

func (f *StringField) Empty() bool    { return f.Data == "" }
func (f *StringField) String() string { return f.Data }

// DataOrNil returns the value with blank coalesced to nil, for nullable
// reference columns such as data_source.publisher.
func (f *StringField) DataOrNil() *string {
	if f.Data == "" {
		return nil
	}
	v := f.Data
	return &v
}

// BoolField holds a single checkbox.
type BoolField struct {
	field
	Data bool
}

func NewBoolField(name, label string, validators ...Validator) *BoolField {
	return &BoolField{field: field{name: name, label: label, validators: validators}}
}

func (f *BoolField) Empty() bool { return !f.Data }

func (f *BoolField) String() string {
	if f.Data {
		return "true"
	}
	return ""
}

// RadioField holds a single selection from a fixed choice list.
type RadioField struct {
	field
	Data    string
	Choices []Choice

	// otherField, when set, is required whenever the selected choice's
	// label is "other" (case-insensitive).
	otherField *StringField
}

// RadioOptions configures a RadioField. Choices and Enum are mutually
// exclusive; supplying both is a programming error.
type RadioOptions struct {
	Choices    []Choice
	Enum       []EnumMember
	Validators []Validator
}

func NewRadioField(name, label string, opts RadioOptions) *RadioField {
	if opts.Choices != nil && opts.Enum != nil {
		panic("forms: RadioField: mutually exclusive arguments: enum vs choices")
	}

	choices := opts.Choices
	if opts.Enum != nil {
		choices = choicesFromEnum(opts.Enum)
	}

	f := &RadioField{
		field:   field{name: name, label: label},
		Choices: choices,
	}
	f.validators = append([]Validator{f.validateChoice}, opts.Validators...)
	return f
}

func (f *RadioField) Empty() bool    { return f.Data == "" }
func (f *RadioField) String() string { return f.Data }

// validateChoice heads every radio field's chain: a submitted value must be
// a member of the choice list. Empty values are left to Required.
func (f *RadioField) validateChoice(form *Form, field FieldValue) error {
	if f.Data == "" {
		return nil
	}
	for _, c := range f.Choices {
		if c.Value == f.Data {
			return nil
		}
	}
	return &validationError{message: "Not a valid choice"}
}

// SetOtherField pairs a free-text field with the radio group's "other"
// choice.
func (f *RadioField) SetOtherField(other *StringField) {
	f.otherField = other
}

// SelectedLabel returns the label of the selected choice, or "".
func (f *RadioField) SelectedLabel() string {
	for _, c := range f.Choices {
		if c.Value == f.Data {
			return c.Label
		}
	}
	return ""
}

// DataOrNil returns the selected value with blank coalesced to nil.
func (f *RadioField) DataOrNil() *string {
	if f.Data == "" {
		return nil
	}
	v := f.Data
	return &v
}

// DataUint parses the selected value as a reference-table id, nil if unset.
func (f *RadioField) DataUint() *uint {
	if f.Data == "" {
		return nil
	}
	n, err := strconv.ParseUint(f.Data, 10, 32)
	if err != nil {
		return nil
	}
	v := uint(n)
	return &v
}

// CheckboxField holds a multi-selection from a fixed choice list.
type CheckboxField struct {
	field
	Data    []string
	Choices []Choice
}

// CheckboxOptions configures a CheckboxField. Choices and Enum are mutually
// exclusive; supplying both is a programming error.
type CheckboxOptions struct {
	Choices    []Choice
	Enum       []EnumMember
	Validators []Validator
}

func NewCheckboxField(name, label string, opts CheckboxOptions) *CheckboxField {
	if opts.Choices != nil && opts.Enum != nil {
		panic("forms: CheckboxField: mutually exclusive arguments: enum vs choices")
	}

	choices := opts.Choices
	if opts.Enum != nil {
		choices = choicesFromEnum(opts.Enum)
	}

	f := &CheckboxField{
		field:   field{name: name, label: label},
		Choices: choices,
	}
	f.validators = append([]Validator{f.validateChoices}, opts.Validators...)
	return f
}

// validateChoices heads every checkbox field's chain: each submitted value
// must be a member of the choice list.
func (f *CheckboxField) validateChoices(form *Form, field FieldValue) error {
	for _, v := range f.Data {
		if !f.choiceValue(v) {
			return &validationError{message: fmt.Sprintf("%q is not a valid choice", v)}
		}
	}
	return nil
}

func (f *CheckboxField) choiceValue(value string) bool {
	for _, c := range f.Choices {
		if c.Value == value {
			return true
		}
	}
	return false
}

func (f *CheckboxField) Empty() bool { return len(f.Data) == 0 }

func (f *CheckboxField) String() string {
	if len(f.Data) == 0 {
		return ""
	}
	return f.Data[0]
}

// Contains reports whether a value is selected.
func (f *CheckboxField) Contains(value string) bool {
	for _, v := range f.Data {
		if v == value {
			return true
		}
	}
	return false
}

type boundField interface {
	FieldValue
	Errors() []string
	appendError(msg string)
	bind(values url.Values)
	chain() []Validator
}

func (f *field) chain() []Validator { return f.validators }

func (f *StringField) bind(values url.Values)   { f.Data = values.Get(f.name) }
func (f *RadioField) bind(values url.Values)    { f.Data = values.Get(f.name) }
func (f *CheckboxField) bind(values url.Values) { f.Data = values[f.name] }

func (f *BoolField) bind(values url.Values) {
	v := values.Get(f.name)
	f.Data = v != "" && v != "false" && v != "n"
}

// Form is the base of every concrete form: it owns the field registry, the
// review flag, and the validation run.
type Form struct {
	// SendingToReview switches RequiredForReview validators into strict
	// required mode.
	SendingToReview bool

	fields []boundField
}

func (f *Form) register(fields ...boundField) {
	f.fields = append(f.fields, fields...)
}

// Bind populates every registered field from submitted values.
func (f *Form) Bind(values url.Values) {
	for _, fld := range f.fields {
		fld.bind(values)
	}
}

// Validate runs every field's validator chain. A StopValidation ends the
// field's chain (silently when it carries no message); any other validation
// error is recorded and the chain continues.
func (f *Form) Validate() bool {
	for _, fld := range f.fields {
		for _, v := range fld.chain() {
			err := v(f, fld)
			if err == nil {
				continue
			}

			var stop *StopValidation
			if errors.As(err, &stop) {
				if stop.Message != "" {
					fld.appendError(stop.Message)
				}
				break
			}

			fld.appendError(err.Error())
		}
	}

	return len(f.Errors()) == 0
}

// Errors returns the field-name to messages mapping collected by Validate.
func (f *Form) Errors() map[string][]string {
	errs := make(map[string][]string)
	for _, fld := range f.fields {
		if len(fld.Errors()) > 0 {
			errs[fld.FieldName()] = fld.Errors()
		}
	}
	return errs
}

// IsBlank reports whether no field of the form carries a value.
func (f *Form) IsBlank() bool {
	for _, fld := range f.fields {
		if !fld.Empty() {
			return false
		}
	}
	return true
}
