package form

import (
	"errors"
	"math"
	"reflect"
	"slices"
	"strings"

	"github.com/ashureev/bank-marketing/internal/domain"
	"github.com/go-playground/validator/v10"
)

// FieldIssue is a validation problem attached to one field.
type FieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// record is the typed form of a FormState checked in strict mode.
type record struct {
	Age       int    `json:"age" validate:"min=18,max=100"`
	Job       string `json:"job" validate:"required,vocab=job"`
	Marital   string `json:"marital" validate:"required,vocab=marital"`
	Education string `json:"education" validate:"required,vocab=education"`
	Default   string `json:"default" validate:"required,vocab=default"`
	Balance   int    `json:"balance"`
	Housing   string `json:"housing" validate:"required,vocab=housing"`
	Loan      string `json:"loan" validate:"required,vocab=loan"`
	Contact   string `json:"contact" validate:"required,vocab=contact"`
	Day       int    `json:"day" validate:"min=1,max=31"`
	Month     string `json:"month" validate:"required,vocab=month"`
	Campaign  int    `json:"campaign" validate:"min=1"`
	PDays     int    `json:"pdays" validate:"min=-1"`
	Previous  int    `json:"previous" validate:"min=0"`
	POutcome  string `json:"poutcome" validate:"required,vocab=poutcome"`
}

// maxWholeNumber keeps converted values exactly representable.
const maxWholeNumber = 1 << 53

// Validator checks a FormState before it is submitted.
type Validator struct {
	validate *validator.Validate
}

// NewValidator builds a validator with the vocabulary rule registered.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("vocab", func(fl validator.FieldLevel) bool {
		return domain.InVocabulary(fl.Param(), fl.Field().String())
	}); err != nil {
		panic("form: register vocab validation: " + err.Error())
	}
	return &Validator{validate: v}
}

// Validate returns the issues found in values, in catalog order. An empty
// result means the state can be submitted.
func (v *Validator) Validate(values map[string]string) []FieldIssue {
	var issues []FieldIssue
	flagged := make(map[string]bool)

	whole := func(name string) int {
		raw := strings.TrimSpace(values[name])
		if raw == "" {
			issues = append(issues, FieldIssue{Field: name, Message: "is required"})
			flagged[name] = true
			return 0
		}
		n := domain.ParseNumber(raw)
		f := float64(n)
		if !n.Valid() || math.Trunc(f) != f || math.Abs(f) > maxWholeNumber {
			issues = append(issues, FieldIssue{Field: name, Message: "must be a whole number"})
			flagged[name] = true
			return 0
		}
		return int(f)
	}

	rec := record{
		Age:       whole(domain.FieldAge),
		Job:       values[domain.FieldJob],
		Marital:   values[domain.FieldMarital],
		Education: values[domain.FieldEducation],
		Default:   values[domain.FieldDefault],
		Balance:   whole(domain.FieldBalance),
		Housing:   values[domain.FieldHousing],
		Loan:      values[domain.FieldLoan],
		Contact:   values[domain.FieldContact],
		Day:       whole(domain.FieldDay),
		Month:     values[domain.FieldMonth],
		Campaign:  whole(domain.FieldCampaign),
		PDays:     whole(domain.FieldPDays),
		Previous:  whole(domain.FieldPrevious),
		POutcome:  values[domain.FieldPOutcome],
	}

	var verrs validator.ValidationErrors
	if err := v.validate.Struct(rec); errors.As(err, &verrs) {
		for _, fe := range verrs {
			if flagged[fe.Field()] {
				continue
			}
			issues = append(issues, FieldIssue{Field: fe.Field(), Message: issueMessage(fe)})
			flagged[fe.Field()] = true
		}
	}

	order := domain.FieldNames()
	slices.SortStableFunc(issues, func(a, b FieldIssue) int {
		return slices.Index(order, a.Field) - slices.Index(order, b.Field)
	})
	return issues
}

func issueMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "vocab":
		if def, ok := domain.LookupField(fe.Param()); ok {
			return "must be one of: " + strings.Join(def.Options, ", ")
		}
	}
	return "is invalid"
}

// Check returns the issue for a single field value, or "" when it is valid.
func (v *Validator) Check(name, raw string) string {
	for _, issue := range v.Validate(map[string]string{name: raw}) {
		if issue.Field == name {
			return issue.Message
		}
	}
	return ""
}
