package seismic

import (
	"fmt"
	"math"
	"time"
)

// EnergyMethod selects the formula used to derive radiated energy.
type EnergyMethod string

const (
	// EnergyFromMoment derives energy as seismic moment / 20000.
	EnergyFromMoment EnergyMethod = "moment"
	// EnergyFromMagnitude derives energy as 10^(11.8 + 1.5*M).
	EnergyFromMagnitude EnergyMethod = "magnitude"
)

// Defaults for Californian crustal rocks.
const (
	DefaultVS         = 3.67 // km/s
	DefaultVP         = 6.34 // km/s
	DefaultTimeLayout = "15:04:05"
)

// Model is the velocity model and parsing configuration shared by every
// station in one solve. Zero fields fall back to the package defaults.
type Model struct {
	VS           float64      `json:"vs"`
	VP           float64      `json:"vp"`
	TimeLayout   string       `json:"time_layout,omitempty"`
	EnergyMethod EnergyMethod `json:"energy_method,omitempty"`
}

// DefaultModel returns the Californian crust model with the moment energy method.
func DefaultModel() Model {
	return Model{
		VS:           DefaultVS,
		VP:           DefaultVP,
		TimeLayout:   DefaultTimeLayout,
		EnergyMethod: EnergyFromMoment,
	}
}

func (m Model) withDefaults() Model {
	if m.VS == 0 {
		m.VS = DefaultVS
	}
	if m.VP == 0 {
		m.VP = DefaultVP
	}
	if m.TimeLayout == "" {
		m.TimeLayout = DefaultTimeLayout
	}
	if m.EnergyMethod == "" {
		m.EnergyMethod = EnergyFromMoment
	}
	return m
}

// Validate reports whether the model can produce distances.
func (m Model) Validate() error {
	m = m.withDefaults()
	if !(m.VS > 0) || !(m.VP > 0) || math.IsInf(m.VS, 0) || math.IsInf(m.VP, 0) {
		return fmt.Errorf("%w: velocities must be positive and finite (vs=%g, vp=%g)", ErrInvalidVelocityModel, m.VS, m.VP)
	}
	if m.VP <= m.VS {
		return fmt.Errorf("%w: vp (%g) must exceed vs (%g)", ErrInvalidVelocityModel, m.VP, m.VS)
	}
	return m.EnergyMethod.validate()
}

// Vsp converts a P-S lag in seconds to kilometers.
func (m Model) Vsp() float64 {
	m = m.withDefaults()
	return (m.VS * m.VP) / (m.VP - m.VS)
}

func (e EnergyMethod) validate() error {
	switch e {
	case EnergyFromMoment, EnergyFromMagnitude:
		return nil
	default:
		return fmt.Errorf("%w: %q (want %q or %q)", ErrUnknownEnergyMethod, string(e), EnergyFromMoment, EnergyFromMagnitude)
	}
}

// WaveArrivalEvent is one seismic recording at one station. The raw readings
// and the quantities derived from them are computed once by
// NewWaveArrivalEvent and never change.
type WaveArrivalEvent struct {
	PArrival    time.Time `json:"p_arrival"`
	SArrival    time.Time `json:"s_arrival"`
	AmplitudeMM float64   `json:"amplitude_mm"`
	Model       Model     `json:"model"`

	DeltaSec      int64   `json:"delta_sec"`
	DistanceKm    float64 `json:"distance_km"`
	Magnitude     float64 `json:"magnitude"`
	SeismicMoment float64 `json:"seismic_moment"` // dyne-cm
	Energy        float64 `json:"energy"`         // ergs
}

// NewWaveArrivalEvent parses the P- and S-wave arrival times with the model's
// time layout and derives distance, magnitude, moment, and energy.
func NewWaveArrivalEvent(pArrival, sArrival string, amplitudeMM float64, m Model) (WaveArrivalEvent, error) {
	m = m.withDefaults()
	if err := m.Validate(); err != nil {
		return WaveArrivalEvent{}, err
	}

	pTime, err := parseArrival(m.TimeLayout, pArrival, "p-wave")
	if err != nil {
		return WaveArrivalEvent{}, err
	}
	sTime, err := parseArrival(m.TimeLayout, sArrival, "s-wave")
	if err != nil {
		return WaveArrivalEvent{}, err
	}

	// Sub-second precision is discarded.
	delta := int64(sTime.Sub(pTime) / time.Second)
	if delta <= 0 {
		return WaveArrivalEvent{}, fmt.Errorf("%w: p=%s s=%s (%ds)", ErrNonPositiveInterval, pArrival, sArrival, delta)
	}
	if math.IsInf(amplitudeMM, 1) {
		return WaveArrivalEvent{}, fmt.Errorf("%w: got %g mm", ErrNonFiniteAmplitude, amplitudeMM)
	}
	if !(amplitudeMM > 0) {
		return WaveArrivalEvent{}, fmt.Errorf("%w: got %g mm", ErrNonPositiveAmplitude, amplitudeMM)
	}

	ev := WaveArrivalEvent{
		PArrival:    pTime,
		SArrival:    sTime,
		AmplitudeMM: amplitudeMM,
		Model:       m,
		DeltaSec:    delta,
	}
	ev.DistanceKm = float64(delta) * m.Vsp()
	ev.Magnitude = localMagnitude(amplitudeMM, delta)
	ev.SeismicMoment = seismicMoment(ev.Magnitude)
	if ev.Energy, err = radiatedEnergy(m.EnergyMethod, ev.Magnitude, ev.SeismicMoment); err != nil {
		return WaveArrivalEvent{}, err
	}
	return ev, nil
}

// EnergyBy returns the radiated energy in ergs computed with the given method.
func (e WaveArrivalEvent) EnergyBy(method EnergyMethod) (float64, error) {
	return radiatedEnergy(method, e.Magnitude, e.SeismicMoment)
}

func (e WaveArrivalEvent) String() string {
	return fmt.Sprintf("%s | Tsp(s): %d, Amp(mm): %g",
		e.PArrival.Format(e.Model.withDefaults().TimeLayout), e.DeltaSec, e.AmplitudeMM)
}

// Report is a human-readable summary of the lag and the distance it implies.
func (e WaveArrivalEvent) Report() string {
	return fmt.Sprintf("The difference between p- and s-wave arrival times was: %d seconds.\n"+
		"The distance to the earthquake is %.3f kilometers.", e.DeltaSec, e.DistanceKm)
}

func parseArrival(layout, value, wave string) (time.Time, error) {
	t, err := time.Parse(layout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s arrival %q: %v", ErrTimeParse, wave, value, err)
	}
	return t, nil
}

func localMagnitude(amplitudeMM float64, deltaSec int64) float64 {
	return math.Log(amplitudeMM) + 3*math.Log(8*float64(deltaSec)) - 2.92
}

func seismicMoment(magnitude float64) float64 {
	return math.Pow(10, 1.5*(magnitude+16))
}

func radiatedEnergy(method EnergyMethod, magnitude, moment float64) (float64, error) {
	switch method {
	case EnergyFromMoment:
		return moment / 20000, nil
	case EnergyFromMagnitude:
		return math.Pow(10, 11.8+1.5*magnitude), nil
	default:
		return 0, method.validate()
	}
}
