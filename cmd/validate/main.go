// Command validate re-solves a fixture file produced by genmock and checks
// that the locator still agrees with it: expected epicenters and magnitudes,
// expected failure kinds, closeness to the synthetic sources, and internal
// consistency of every report.
//
// Usage:
//
//	go run ./cmd/validate -fixtures data/mock/solve_requests.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/couchcryptid/epicenter-locator/internal/domain"
	"github.com/couchcryptid/epicenter-locator/internal/seismic"
	"github.com/jonboulle/clockwork"
)

const (
	// Fixtures store solver output verbatim, so agreement is near-exact.
	epicenterToleranceDeg = 1e-6
	magnitudeTolerance    = 1e-9
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// outcome is one fixture together with what Locate made of it.
type outcome struct {
	fixture domain.SolveFixture
	report  domain.EpicenterReport
	err     error
}

func main() {
	fixturesPath := flag.String("fixtures", "data/mock/solve_requests.json", "path to the solve-request fixture file")
	maxMissKm := flag.Float64("max-miss-km", 50, "allowed distance between a solved and a synthetic source epicenter")
	flag.Parse()

	if code := run(*fixturesPath, *maxMissKm); code != 0 {
		os.Exit(code)
	}
}

func run(fixturesPath string, maxMissKm float64) int {
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2024, time.April, 27, 6, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	fmt.Println("=== Epicenter Fixture Validation ===")
	fmt.Println()

	fixtures, err := loadJSON[domain.SolveFixture](fixturesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load fixtures: %v\n", err)
		return 1
	}

	model := seismic.DefaultModel()
	outcomes := make([]outcome, 0, len(fixtures))
	for _, f := range fixtures {
		report, err := domain.Locate(f.Request, model)
		outcomes = append(outcomes, outcome{fixture: f, report: report, err: err})
	}

	phases := []*phase{
		validateFixtureShape(fixtures),
		validateSolveAgreement(outcomes),
		validateSourceRecovery(outcomes, maxMissKm),
		validateReportConsistency(outcomes, model),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Fixtures: %d (%d solvable)\n", len(fixtures), countSolvable(fixtures))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadJSON[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func countSolvable(fixtures []domain.SolveFixture) int {
	n := 0
	for _, f := range fixtures {
		if f.ExpectedEpicenter != nil {
			n++
		}
	}
	return n
}

// ── Phase 1: Fixture Shape ──

func validateFixtureShape(fixtures []domain.SolveFixture) *phase {
	p := &phase{name: "Fixture shape"}
	ids := map[string]string{}
	names := map[string]bool{}

	for i, f := range fixtures {
		label := fmt.Sprintf("fixture %d (%s)", i+1, f.Name)
		if f.Name == "" {
			p.errorf("fixture %d: missing name", i+1)
		}
		if names[f.Name] {
			p.errorf("%s: duplicate name", label)
		}
		names[f.Name] = true

		if f.Request.ID == "" {
			p.errorf("%s: missing request id", label)
		} else if prev, ok := ids[f.Request.ID]; ok {
			p.errorf("%s: request id %s already used by %s", label, f.Request.ID, prev)
		}
		ids[f.Request.ID] = f.Name

		if len(f.Request.Stations) != 3 {
			p.errorf("%s: %d stations, want 3", label, len(f.Request.Stations))
		}
		if (f.ExpectedEpicenter == nil) == (f.ExpectedError == "") {
			p.errorf("%s: exactly one of expected_epicenter and expected_error must be set", label)
		}
		if f.TrueEpicenter != nil && f.ExpectedEpicenter == nil {
			p.errorf("%s: synthetic source without an expected epicenter", label)
		}
	}
	return p
}

// ── Phase 2: Solve Agreement ──

func validateSolveAgreement(outcomes []outcome) *phase {
	p := &phase{name: "Solve agreement"}
	for _, o := range outcomes {
		f := o.fixture
		if f.ExpectedError != "" {
			if o.err == nil {
				p.errorf("%s: solved, want %s error", f.Name, f.ExpectedError)
				continue
			}
			if kind := domain.ErrorKind(o.err); kind != f.ExpectedError {
				p.errorf("%s: error kind %s, want %s (%v)", f.Name, kind, f.ExpectedError, o.err)
			}
			continue
		}
		if f.ExpectedEpicenter == nil {
			continue
		}
		if o.err != nil {
			p.errorf("%s: unexpected error: %v", f.Name, o.err)
			continue
		}
		got, want := o.report.Epicenter, *f.ExpectedEpicenter
		if math.Abs(got.Lat-want.Lat) > epicenterToleranceDeg || math.Abs(got.Lon-want.Lon) > epicenterToleranceDeg {
			p.errorf("%s: epicenter (%.8f, %.8f), want (%.8f, %.8f)", f.Name, got.Lat, got.Lon, want.Lat, want.Lon)
		}
		if f.ExpectedMaxMagnitude != 0 && math.Abs(o.report.MaxMagnitude-f.ExpectedMaxMagnitude) > magnitudeTolerance {
			p.errorf("%s: max magnitude %.12f, want %.12f", f.Name, o.report.MaxMagnitude, f.ExpectedMaxMagnitude)
		}
	}
	return p
}

// ── Phase 3: Source Recovery ──

func validateSourceRecovery(outcomes []outcome, maxMissKm float64) *phase {
	p := &phase{name: fmt.Sprintf("Synthetic sources within %.0f km", maxMissKm)}
	for _, o := range outcomes {
		if o.fixture.TrueEpicenter == nil || o.err != nil {
			continue
		}
		source := seismic.Point{Lat: o.fixture.TrueEpicenter.Lat, Lon: o.fixture.TrueEpicenter.Lon}
		miss := seismic.GreatCircleDistance(source, o.report.Point())
		if miss > maxMissKm {
			p.errorf("%s: solved %.1f km from the source", o.fixture.Name, miss)
		}
	}
	return p
}

// ── Phase 4: Report Consistency ──

func validateReportConsistency(outcomes []outcome, base seismic.Model) *phase {
	p := &phase{name: "Report consistency"}
	for _, o := range outcomes {
		if o.err != nil {
			continue
		}
		f, r := o.fixture, o.report
		if r.ID != f.Request.ID {
			p.errorf("%s: report id %q, want %q", f.Name, r.ID, f.Request.ID)
		}
		if len(r.Stations) != 3 {
			p.errorf("%s: %d station summaries", f.Name, len(r.Stations))
			continue
		}

		vsp := domain.ResolveModel(base, f.Request.Model).Vsp()
		maxMag := math.Inf(-1)
		for i, st := range r.Stations {
			if st.Name != f.Request.Stations[i].Name {
				p.errorf("%s: station %d is %q, want %q", f.Name, i+1, st.Name, f.Request.Stations[i].Name)
			}
			if st.DeltaSec <= 0 {
				p.errorf("%s: station %s has lag %ds", f.Name, st.Name, st.DeltaSec)
			}
			if want := float64(st.DeltaSec) * vsp; math.Abs(st.DistanceKm-want) > 1e-9 {
				p.errorf("%s: station %s distance %.6f km, want %.6f", f.Name, st.Name, st.DistanceKm, want)
			}
			if math.Abs(st.ResidualKm-(st.DistanceKm-st.EpicenterDistanceKm)) > 1e-9 {
				p.errorf("%s: station %s residual does not match its distances", f.Name, st.Name)
			}
			maxMag = math.Max(maxMag, st.Magnitude)
		}
		if r.MaxMagnitude != maxMag {
			p.errorf("%s: max magnitude %.6f is not the largest station magnitude %.6f", f.Name, r.MaxMagnitude, maxMag)
		}
	}
	return p
}
