// Package validation checks the shape of signup and login payloads.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError describes the first field that failed validation.
type FieldError struct {
	Field   string // JSON name of the field
	Label   string // human readable name
	Message string
}

func (e *FieldError) Error() string { return e.Message }

// Validator validates payload structs and passwords. Struct fields use
// `validate` tags for rules and `label` tags for message text.
type Validator struct {
	validate *validator.Validate
	policy   PasswordPolicy
}

// New creates a Validator enforcing policy on passwords.
func New(policy PasswordPolicy) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if label := f.Tag.Get("label"); label != "" {
			return label
		}
		return jsonName(f)
	})
	return &Validator{validate: v, policy: policy}
}

// Policy returns the password policy in force.
func (v *Validator) Policy() PasswordPolicy {
	return v.policy
}

// Struct validates s and reports only the first failing field, in
// declaration order.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate payload: %w", err)
	}

	fe := verrs[0]
	return &FieldError{
		Field:   structJSONName(s, fe.StructField()),
		Label:   fe.Field(),
		Message: message(fe),
	}
}

// Password checks value against the password policy.
func (v *Validator) Password(field, label, value string) error {
	if msg := v.policy.Check(label, value); msg != "" {
		return &FieldError{Field: field, Label: label, Message: msg}
	}
	return nil
}

// UnknownField builds the error reported for a payload key the schema does
// not allow.
func UnknownField(name string) *FieldError {
	return &FieldError{
		Field:   name,
		Label:   name,
		Message: fmt.Sprintf("%q is not allowed", name),
	}
}

func message(fe validator.FieldError) string {
	label := fmt.Sprintf("%q", fe.Field())
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return label + " must be a valid email"
	case "max":
		return fmt.Sprintf("%s length must be less than or equal to %s characters long", label, fe.Param())
	default:
		return fmt.Sprintf("%s failed on the %q rule", label, fe.Tag())
	}
}

func structJSONName(s interface{}, structField string) string {
	t := reflect.TypeOf(s)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return structField
	}
	f, ok := t.FieldByName(structField)
	if !ok {
		return structField
	}
	return jsonName(f)
}

func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}
