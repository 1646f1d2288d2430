package complaint

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	cderrors "complaintdesk/internal/errors"
)

// Form holds the values a citizen provides. Both front ends fill one.
type Form struct {
	Name        string `field:"Name" validate:"required"`
	Mobile      string `field:"Mobile Number" validate:"required,mobile"`
	Location    string `field:"Location" validate:"required"`
	Type        string `field:"Complaint Type" validate:"required"`
	Description string `field:"Complaint Description" validate:"required"`
}

// Question is one form field with the prompt used to ask for it.
type Question struct {
	Field  string
	Prompt string
}

// Questions lists the form fields in the order they are asked.
var Questions = []Question{
	{ColName, "Please say your name."},
	{ColMobile, "Please say your mobile number."},
	{ColLocation, "Please say your location."},
	{ColType, "What type of complaint do you have?"},
	{ColDescription, "Please describe your complaint."},
}

// Get returns a form value by column name.
func (f Form) Get(field string) string {
	switch field {
	case ColName:
		return f.Name
	case ColMobile:
		return f.Mobile
	case ColLocation:
		return f.Location
	case ColType:
		return f.Type
	case ColDescription:
		return f.Description
	}
	return ""
}

// Set stores a form value by column name. It reports false for names that
// are not form fields.
func (f *Form) Set(field, value string) bool {
	switch field {
	case ColName:
		f.Name = value
	case ColMobile:
		f.Mobile = value
	case ColLocation:
		f.Location = value
	case ColType:
		f.Type = value
	case ColDescription:
		f.Description = value
	default:
		return false
	}
	return true
}

// Normalized returns a copy with surrounding whitespace removed and line
// breaks unified to "\n". CSV readers fold CRLF inside quoted fields, so a
// stored value only reads back exactly without carriage returns.
func (f Form) Normalized() Form {
	return Form{
		Name:        normalize(f.Name),
		Mobile:      normalize(f.Mobile),
		Location:    normalize(f.Location),
		Type:        normalize(f.Type),
		Description: normalize(f.Description),
	}
}

var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")

func normalize(s string) string {
	return strings.TrimSpace(lineBreaks.Replace(s))
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func formValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			return fld.Tag.Get("field")
		})
		_ = validate.RegisterValidation("mobile", func(fl validator.FieldLevel) bool {
			return validMobile(fl.Field().String())
		})
	})
	return validate
}

// validMobile accepts exactly 10 digits once spaces, dashes and plus signs
// are removed.
func validMobile(s string) bool {
	cleaned := strings.NewReplacer(" ", "", "-", "", "+", "").Replace(s)
	if len(cleaned) != 10 {
		return false
	}
	for i := 0; i < len(cleaned); i++ {
		if cleaned[i] < '0' || cleaned[i] > '9' {
			return false
		}
	}
	return true
}

// Validate checks the whole form after trimming.
//
// Returns:
//   - MissingFieldError for the first empty field, in question order
//   - InvalidFieldError when the mobile number is malformed
//   - nil when the form can be submitted
func Validate(form Form) error {
	err := formValidator().Struct(form.Normalized())
	return translate(err, "")
}

// ValidateField checks a single answer, used by the voice dialogue to
// re-ask immediately.
func ValidateField(field, value string) error {
	var tag string
	switch field {
	case ColMobile:
		tag = "required,mobile"
	case ColName, ColLocation, ColType, ColDescription:
		tag = "required"
	default:
		return nil
	}
	err := formValidator().Var(strings.TrimSpace(value), tag)
	return translate(err, field)
}

func translate(err error, field string) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	first := verrs[0]
	name := field
	if name == "" {
		name = first.Field()
	}
	switch first.Tag() {
	case "required":
		return cderrors.NewMissingFieldError(name)
	case "mobile":
		return cderrors.NewInvalidFieldError(name, "mobile number should be 10 digits")
	}
	return cderrors.NewInvalidFieldError(name, first.Error())
}
