package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		raw   string
		want  float64
		valid bool
	}{
		{"40", 40, true},
		{" 15 ", 15, true},
		{"-1", -1, true},
		{"+7", 7, true},
		{"1500.5", 1500.5, true},
		{"1e3", 1000, true},
		{".5", 0.5, true},
		{"", 0, false},
		{"abc", 0, false},
		{"12abc", 0, false},
		{"0x10", 0, false},
		{"NaN", 0, false},
		{"inf", 0, false},
		{"1_000", 0, false},
	}

	for _, tt := range tests {
		got := ParseNumber(tt.raw)
		if got.Valid() != tt.valid {
			t.Errorf("ParseNumber(%q).Valid() = %v, want %v", tt.raw, got.Valid(), tt.valid)
			continue
		}
		if tt.valid && float64(got) != tt.want {
			t.Errorf("ParseNumber(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestPayloadJSON(t *testing.T) {
	values := map[string]string{
		FieldAge:       "40",
		FieldJob:       "management",
		FieldMarital:   "married",
		FieldEducation: "tertiary",
		FieldDefault:   "no",
		FieldBalance:   "oops",
		FieldHousing:   "yes",
		FieldLoan:      "no",
		FieldContact:   "cellular",
		FieldDay:       "15",
		FieldMonth:     "may",
		FieldCampaign:  "2",
		FieldPDays:     "-1",
		FieldPrevious:  "0",
		FieldPOutcome:  "unknown",
	}

	body, err := json.Marshal(NewPayload(values))
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}

	want := map[string]any{
		"age":       float64(40),
		"job":       "management",
		"marital":   "married",
		"education": "tertiary",
		"default":   "no",
		"balance":   nil,
		"housing":   "yes",
		"loan":      "no",
		"contact":   "cellular",
		"day":       float64(15),
		"month":     "may",
		"campaign":  float64(2),
		"pdays":     float64(-1),
		"previous":  float64(0),
		"poutcome":  "unknown",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestPredictionResultDisplay(t *testing.T) {
	subscribe := &PredictionResult{Prediction: 1, Probability: []float64{0.22, 0.78}}
	if got := subscribe.Outcome(); got != "Will Subscribe" {
		t.Errorf("Outcome() = %q", got)
	}
	if got := subscribe.SubscribeProbability(); got != "78.00%" {
		t.Errorf("SubscribeProbability() = %q", got)
	}
	if got := subscribe.DeclineProbability(); got != "22.00%" {
		t.Errorf("DeclineProbability() = %q", got)
	}

	decline := &PredictionResult{Prediction: 0, Probability: []float64{0.91, 0.09}}
	if got := decline.Outcome(); got != "Will Not Subscribe" {
		t.Errorf("Outcome() = %q", got)
	}
	if got := decline.SubscribeProbability(); got != "9.00%" {
		t.Errorf("SubscribeProbability() = %q", got)
	}
	if got := decline.DeclineProbability(); got != "91.00%" {
		t.Errorf("DeclineProbability() = %q", got)
	}
}

func TestPredictionResultValidate(t *testing.T) {
	if err := (&PredictionResult{Prediction: 1, Probability: []float64{0.4, 0.6}}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (&PredictionResult{Prediction: 2, Probability: []float64{0.4, 0.6}}).Validate(); err == nil {
		t.Error("expected error for class 2")
	}
	if err := (&PredictionResult{Prediction: 0, Probability: []float64{1}}).Validate(); err == nil {
		t.Error("expected error for short probability vector")
	}
}

func TestCatalog(t *testing.T) {
	if len(Catalog) != 15 {
		t.Fatalf("expected 15 fields, got %d", len(Catalog))
	}
	numeric := 0
	for _, f := range Catalog {
		switch f.Kind {
		case KindNumber:
			numeric++
		case KindEnum:
			for _, opt := range f.Options {
				if !InVocabulary(f.Name, opt) {
					t.Errorf("%s: option %q not in vocabulary", f.Name, opt)
				}
			}
		}
	}
	if numeric != 6 {
		t.Errorf("expected 6 numeric fields, got %d", numeric)
	}
	if len(Jobs) != 12 || len(Months) != 12 {
		t.Errorf("unexpected vocabulary sizes: jobs=%d months=%d", len(Jobs), len(Months))
	}
	if InVocabulary(FieldAge, "40") {
		t.Error("numeric field must not match a vocabulary")
	}
	if InVocabulary(FieldMarital, "widowed") {
		t.Error("widowed is not a marital option")
	}
}
