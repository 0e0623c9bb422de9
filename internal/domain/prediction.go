package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Number is a converted numeric field. A value that could not be parsed is
// NaN and encodes as JSON null.
type Number float64

var decimalPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// ParseNumber converts raw form text as a base-10 number. Empty or malformed
// text yields NaN; it is never an error.
func ParseNumber(raw string) Number {
	s := strings.TrimSpace(raw)
	if !decimalPattern.MatchString(s) {
		return Number(math.NaN())
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Number(math.NaN())
	}
	return Number(f)
}

// Valid reports whether n is a finite number.
func (n Number) Valid() bool {
	f := float64(n)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(n))
}

// Payload is the request body sent to the prediction service.
type Payload struct {
	Age       Number `json:"age"`
	Job       string `json:"job"`
	Marital   string `json:"marital"`
	Education string `json:"education"`
	Default   string `json:"default"`
	Balance   Number `json:"balance"`
	Housing   string `json:"housing"`
	Loan      string `json:"loan"`
	Contact   string `json:"contact"`
	Day       Number `json:"day"`
	Month     string `json:"month"`
	Campaign  Number `json:"campaign"`
	PDays     Number `json:"pdays"`
	Previous  Number `json:"previous"`
	POutcome  string `json:"poutcome"`
}

// NewPayload copies the string fields from values and converts the six
// numeric ones. Missing keys read as empty text.
func NewPayload(values map[string]string) Payload {
	return Payload{
		Age:       ParseNumber(values[FieldAge]),
		Job:       values[FieldJob],
		Marital:   values[FieldMarital],
		Education: values[FieldEducation],
		Default:   values[FieldDefault],
		Balance:   ParseNumber(values[FieldBalance]),
		Housing:   values[FieldHousing],
		Loan:      values[FieldLoan],
		Contact:   values[FieldContact],
		Day:       ParseNumber(values[FieldDay]),
		Month:     values[FieldMonth],
		Campaign:  ParseNumber(values[FieldCampaign]),
		PDays:     ParseNumber(values[FieldPDays]),
		Previous:  ParseNumber(values[FieldPrevious]),
		POutcome:  values[FieldPOutcome],
	}
}

// Class labels returned by the model.
const (
	ClassNotSubscribe = 0
	ClassSubscribe    = 1
)

// PredictionResult is the decoded response of the prediction service.
type PredictionResult struct {
	Prediction  int       `json:"prediction"`
	Probability []float64 `json:"probability"`
}

// Validate checks the class label and the shape of the probability vector.
func (r *PredictionResult) Validate() error {
	if r.Prediction != ClassNotSubscribe && r.Prediction != ClassSubscribe {
		return fmt.Errorf("prediction class %d out of range", r.Prediction)
	}
	if len(r.Probability) != 2 {
		return fmt.Errorf("expected 2 probabilities, got %d", len(r.Probability))
	}
	return nil
}

// Outcome returns the human-readable label for the predicted class.
func (r *PredictionResult) Outcome() string {
	if r.Prediction == ClassSubscribe {
		return "Will Subscribe"
	}
	return "Will Not Subscribe"
}

// SubscribeProbability returns the class-1 probability as a percentage.
func (r *PredictionResult) SubscribeProbability() string {
	return FormatPercent(r.probability(ClassSubscribe))
}

// DeclineProbability returns the class-0 probability as a percentage.
func (r *PredictionResult) DeclineProbability() string {
	return FormatPercent(r.probability(ClassNotSubscribe))
}

func (r *PredictionResult) probability(class int) float64 {
	if class < len(r.Probability) {
		return r.Probability[class]
	}
	return math.NaN()
}

// FormatPercent renders p (0..1) as a percentage with two decimals.
func FormatPercent(p float64) string {
	return strconv.FormatFloat(p*100, 'f', 2, 64) + "%"
}
