package form

import "github.com/ashureev/bank-marketing/internal/domain"

// Status is the display state of a controller.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Snapshot is a point-in-time copy of a controller's state.
type Snapshot struct {
	Seq     uint64
	Values  map[string]string
	Loading bool
	Result  *domain.PredictionResult
	Error   string
	Issues  []FieldIssue
}

// Status derives the display state. Loading hides any outcome, and an error
// and a result never coexist.
func (s Snapshot) Status() Status {
	switch {
	case s.Loading:
		return StatusLoading
	case s.Error != "":
		return StatusError
	case s.Result != nil:
		return StatusSuccess
	default:
		return StatusIdle
	}
}

// View is what the page renders for a snapshot.
type View struct {
	Status               Status            `json:"status"`
	Values               map[string]string `json:"values"`
	Loading              bool              `json:"loading"`
	SubmitLabel          string            `json:"submit_label"`
	Prediction           *int              `json:"prediction,omitempty"`
	Outcome              string            `json:"outcome,omitempty"`
	SubscribeProbability string            `json:"subscribe_probability,omitempty"`
	DeclineProbability   string            `json:"decline_probability,omitempty"`
	Error                string            `json:"error,omitempty"`
	Issues               []FieldIssue      `json:"issues,omitempty"`
}

// View maps the snapshot to its display representation.
func (s Snapshot) View() View {
	v := View{
		Status:      s.Status(),
		Values:      s.Values,
		Loading:     s.Loading,
		SubmitLabel: SubmitLabel,
	}

	switch v.Status {
	case StatusLoading:
		v.SubmitLabel = BusyLabel
	case StatusError:
		v.Error = s.Error
		v.Issues = s.Issues
	case StatusSuccess:
		prediction := s.Result.Prediction
		v.Prediction = &prediction
		v.Outcome = s.Result.Outcome()
		v.SubscribeProbability = s.Result.SubscribeProbability()
		v.DeclineProbability = s.Result.DeclineProbability()
	}
	return v
}

// IssueFor returns the validation message for field, if any.
func (v View) IssueFor(field string) string {
	for _, issue := range v.Issues {
		if issue.Field == field {
			return issue.Message
		}
	}
	return ""
}
