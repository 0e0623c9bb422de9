// Package domain defines the client record collected by the form and the
// prediction types exchanged with the scoring service.
package domain

import "slices"

// FieldKind distinguishes free numeric inputs from closed vocabularies.
type FieldKind string

const (
	// KindNumber is an integer input typed by the user.
	KindNumber FieldKind = "number"
	// KindEnum is a single-select input over a fixed vocabulary.
	KindEnum FieldKind = "enum"
)

// Field names, in form order.
const (
	FieldAge       = "age"
	FieldJob       = "job"
	FieldMarital   = "marital"
	FieldEducation = "education"
	FieldDefault   = "default"
	FieldBalance   = "balance"
	FieldHousing   = "housing"
	FieldLoan      = "loan"
	FieldContact   = "contact"
	FieldDay       = "day"
	FieldMonth     = "month"
	FieldCampaign  = "campaign"
	FieldPDays     = "pdays"
	FieldPrevious  = "previous"
	FieldPOutcome  = "poutcome"
)

var (
	Jobs = []string{
		"admin.", "blue-collar", "entrepreneur", "housemaid", "management",
		"retired", "self-employed", "services", "student", "technician",
		"unemployed", "unknown",
	}
	Maritals   = []string{"married", "single", "divorced"}
	Educations = []string{"primary", "secondary", "tertiary", "unknown"}
	YesNo      = []string{"yes", "no"}
	Contacts   = []string{"cellular", "telephone", "unknown"}
	Months     = []string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"}
	POutcomes  = []string{"unknown", "other", "failure", "success"}
)

// FieldDef describes one input of the form.
type FieldDef struct {
	Name        string    `json:"name"`
	Label       string    `json:"label"`
	Help        string    `json:"help"`
	Kind        FieldKind `json:"kind"`
	Placeholder string    `json:"placeholder,omitempty"`
	Options     []string  `json:"options,omitempty"`
	Min         *int      `json:"min,omitempty"`
	Max         *int      `json:"max,omitempty"`
}

func bound(v int) *int { return &v }

// Catalog lists the fifteen required inputs in display order.
var Catalog = []FieldDef{
	{Name: FieldAge, Label: "Age", Help: "Client's age in years", Kind: KindNumber, Min: bound(18), Max: bound(100)},
	{Name: FieldJob, Label: "Job", Help: "Type of job (e.g. management, student, technician)", Kind: KindEnum, Placeholder: "Select job", Options: Jobs},
	{Name: FieldMarital, Label: "Marital Status", Help: "married, divorced/widowed, or single", Kind: KindEnum, Placeholder: "Select status", Options: Maritals},
	{Name: FieldEducation, Label: "Education", Help: "Level: unknown, secondary, primary, tertiary", Kind: KindEnum, Placeholder: "Select education", Options: Educations},
	{Name: FieldDefault, Label: "Credit in Default?", Help: "Does the client have credit in default?", Kind: KindEnum, Placeholder: "Select", Options: YesNo},
	{Name: FieldBalance, Label: "Balance (€)", Help: "Average yearly account balance (euros)", Kind: KindNumber},
	{Name: FieldHousing, Label: "Housing Loan?", Help: "Does the client have a housing loan?", Kind: KindEnum, Placeholder: "Select", Options: YesNo},
	{Name: FieldLoan, Label: "Personal Loan?", Help: "Does the client have a personal loan?", Kind: KindEnum, Placeholder: "Select", Options: YesNo},
	{Name: FieldContact, Label: "Contact Type", Help: "Type of last contact (cellular, telephone, unknown)", Kind: KindEnum, Placeholder: "Select", Options: Contacts},
	{Name: FieldDay, Label: "Last Contact Day", Help: "Day of month for last contact (1-31)", Kind: KindNumber, Min: bound(1), Max: bound(31)},
	{Name: FieldMonth, Label: "Last Contact Month", Help: "Month of last contact (jan, feb, ... dec)", Kind: KindEnum, Placeholder: "Select", Options: Months},
	{Name: FieldCampaign, Label: "Campaign Contacts", Help: "Total contacts during this campaign", Kind: KindNumber, Min: bound(1)},
	{Name: FieldPDays, Label: "Pdays", Help: "Days since previous contact (-1 means never)", Kind: KindNumber, Min: bound(-1)},
	{Name: FieldPrevious, Label: "Previous Contacts", Help: "Number of previous contacts before this campaign", Kind: KindNumber, Min: bound(0)},
	{Name: FieldPOutcome, Label: "Outcome of Previous Campaign", Help: "unknown, other, failure, or success", Kind: KindEnum, Placeholder: "Select", Options: POutcomes},
}

// FieldNames returns the catalog field names in display order.
func FieldNames() []string {
	names := make([]string, len(Catalog))
	for i, f := range Catalog {
		names[i] = f.Name
	}
	return names
}

// LookupField returns the definition for name.
func LookupField(name string) (FieldDef, bool) {
	for _, f := range Catalog {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDef{}, false
}

// InVocabulary reports whether value belongs to the vocabulary of the named
// enum field. Unknown or numeric fields never match.
func InVocabulary(field, value string) bool {
	def, ok := LookupField(field)
	if !ok || def.Kind != KindEnum {
		return false
	}
	return slices.Contains(def.Options, value)
}
