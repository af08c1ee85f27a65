package status

import (
	"math"

	"github.com/pkg/errors"
)

type StepState int

const (
	StepInactive StepState = iota
	StepActive
	StepCompleted
)

var stepStateStrings = []string{"inactive", "active", "completed"}

func (state StepState) String() string {
	if state < StepInactive || state > StepCompleted {
		return stepStateStrings[StepInactive]
	}
	return stepStateStrings[state]
}

func (state StepState) MarshalText() ([]byte, error) {
	return []byte(state.String()), nil
}

func (state *StepState) UnmarshalText(text []byte) error {
	for i, value := range stepStateStrings {
		if value == string(text) {
			*state = StepState(i)
			return nil
		}
	}
	return errors.Errorf("unknown step state %q", text)
}

type Step struct {
	Key   string    `json:"key"`
	Label string    `json:"label"`
	State StepState `json:"state"`
}

type Progress struct {
	StepIndex int    `json:"step_index"`
	Percent   int    `json:"percent"`
	Steps     []Step `json:"steps"`
}

var progressSteps = []struct {
	status EffectiveStatus
	label  string
}{
	{Pending, "placed"},
	{Processing, "processing"},
	{Shipped, "shipped"},
	{Delivered, "delivered"},
}

// StepIndexOf is the position of the status on the progress bar, -1 for
// statuses that are not on it. Completed counts as delivered.
func StepIndexOf(status EffectiveStatus) int {
	if status == Completed {
		status = Delivered
	}
	for i, step := range progressSteps {
		if step.status == status {
			return i
		}
	}
	return -1
}

func ComputeProgress(status EffectiveStatus) Progress {
	current := StepIndexOf(status)
	progress := Progress{
		StepIndex: current,
		Percent:   int(math.Round(float64(current+1) / float64(len(progressSteps)) * 100)),
		Steps:     make([]Step, 0, len(progressSteps)),
	}

	for i, step := range progressSteps {
		state := StepInactive
		if current >= 0 {
			if i < current {
				state = StepCompleted
			} else if i == current {
				state = StepActive
			}
		}
		progress.Steps = append(progress.Steps, Step{
			Key:   step.status.String(),
			Label: step.label,
			State: state,
		})
	}
	return progress
}
