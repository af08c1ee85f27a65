package returns

import "github.com/pkg/errors"

// Step of the return request wizard
type Step int

var stepStrings = []string{
	"policy",
	"items",
	"reason",
}

const (
	Policy Step = iota
	Items
	Reason
)

func (step Step) StepName() string {
	return step.String()
}

func (step Step) StepIndex() int {
	if step < Policy || step > Reason {
		return -1
	}
	return int(step)
}

func (step Step) String() string {
	if step < Policy || step > Reason {
		return ""
	}
	return stepStrings[step]
}

func (step Step) MarshalText() ([]byte, error) {
	return []byte(step.String()), nil
}

func (step *Step) UnmarshalText(text []byte) error {
	for i, value := range stepStrings {
		if value == string(text) {
			*step = Step(i)
			return nil
		}
	}
	return errors.Errorf("unknown return step %q", text)
}
