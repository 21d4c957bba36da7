package domain

// SolveFixture is one entry of the mock data set in data/mock. Exactly one of
// ExpectedEpicenter or ExpectedError is set.
type SolveFixture struct {
	Name    string       `json:"name"`
	Request SolveRequest `json:"request"`

	// TrueEpicenter is the synthetic source the arrival times were generated
	// from. Whole-second lags put the solved epicenter some kilometers away.
	TrueEpicenter *Geo `json:"true_epicenter,omitempty"`

	ExpectedEpicenter    *Geo    `json:"expected_epicenter,omitempty"`
	ExpectedMaxMagnitude float64 `json:"expected_max_magnitude,omitempty"`
	ExpectedError        string  `json:"expected_error,omitempty"` // an ErrorKind label
}
