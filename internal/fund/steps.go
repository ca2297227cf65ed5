package fund

// Step names, in wizard order.
var Steps = []string{
	"Before you start",
	"Basics",
	"Fees",
	"Deposits",
	"Shares transferability",
	"Redemptions",
	"Asset management",
	"Review",
}

// Step indices into Steps.
const (
	StepIntro = iota
	StepBasics
	StepFees
	StepDeposits
	StepTransferability
	StepRedemptions
	StepAssetManagement
	StepReview
)

// Stepper tracks position in the creation wizard. Forward and back
// transitions are always allowed; nothing blocks navigation except the
// terminal submission's validation.
type Stepper struct {
	current int
}

// NewStepper starts at the first step.
func NewStepper() *Stepper {
	return &Stepper{}
}

// Current returns the zero-based step index.
func (s *Stepper) Current() int {
	return s.current
}

// Name returns the current step's display name.
func (s *Stepper) Name() string {
	return Steps[s.current]
}

// Next advances one step, clamped at the review step.
func (s *Stepper) Next() {
	if s.current < len(Steps)-1 {
		s.current++
	}
}

// Back retreats one step, clamped at the first step.
func (s *Stepper) Back() {
	if s.current > 0 {
		s.current--
	}
}

// AtReview reports whether the wizard reached the terminal step.
func (s *Stepper) AtReview() bool {
	return s.current == len(Steps)-1
}
