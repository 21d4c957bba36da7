// Command genmock generates the solve-request fixtures in data/mock. Synthetic
// cases place a known source among three real towns and derive whole-second
// S-P lags from it; expected epicenters are computed with the domain package
// so the fixtures match real pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock/solve_requests.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/epicenter-locator/internal/domain"
	"github.com/couchcryptid/epicenter-locator/internal/seismic"
)

const timeLayout = "15:04:05"

type town struct {
	name     string
	lat, lon float64
}

// syntheticCase is a source with three recording stations. Station order
// matters: the solver keeps the root on one side of the station plane.
type syntheticCase struct {
	name       string
	stations   [3]town
	source     seismic.Point
	amplitudes [3]float64
	pArrival   string
}

var reference = [3]struct {
	town
	lagSec    int
	amplitude float64
}{
	{town{"Eureka", 40.8021, -124.1637}, 49, 250},
	{town{"Elko", 40.8324, -115.7631}, 72, 50},
	{town{"Las Vegas", 36.1699, -115.1398}, 64, 100},
}

var synthetic = []syntheticCase{
	{
		name:       "japan-honshu",
		stations:   [3]town{{"Tokyo", 35.6762, 139.6503}, {"Sendai", 38.2682, 140.8694}, {"Niigata", 37.9162, 139.0364}},
		source:     seismic.Point{Lat: 37.2, Lon: 141.3},
		amplitudes: [3]float64{120, 45, 80},
		pArrival:   "03:14:07",
	},
	{
		name:       "chile-central",
		stations:   [3]town{{"Santiago", -33.4489, -70.6693}, {"Valparaiso", -33.0472, -71.6127}, {"Mendoza", -32.8895, -68.8458}},
		source:     seismic.Point{Lat: -33.9, Lon: -71.2},
		amplitudes: [3]float64{60, 200, 35},
		pArrival:   "11:52:40",
	},
	{
		name:       "turkey-anatolia",
		stations:   [3]town{{"Ankara", 39.9334, 32.8597}, {"Konya", 37.8746, 32.4932}, {"Kayseri", 38.7312, 35.4787}},
		source:     seismic.Point{Lat: 38.6, Lon: 33.9},
		amplitudes: [3]float64{90, 150, 40},
		pArrival:   "22:05:13",
	},
	{
		name:       "new-zealand",
		stations:   [3]town{{"Wellington", -41.2866, 174.7756}, {"Napier", -39.4928, 176.9120}, {"Christchurch", -43.5321, 172.6362}},
		source:     seismic.Point{Lat: -42.1, Lon: 173.9},
		amplitudes: [3]float64{75, 110, 55},
		pArrival:   "06:30:00",
	},
	{
		name:       "alaska-south",
		stations:   [3]town{{"Anchorage", 61.2181, -149.9003}, {"Valdez", 61.1308, -146.3483}, {"Fairbanks", 64.8378, -147.7164}},
		source:     seismic.Point{Lat: 61.9, Lon: -148.3},
		amplitudes: [3]float64{300, 95, 25},
		pArrival:   "17:45:59",
	},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "data/mock/solve_requests.json", "output path for the fixture file")
	flag.Parse()

	model := seismic.DefaultModel()
	g := &generator{model: model}

	g.add("reference-california", nil, referenceRequest(nil))
	for _, c := range synthetic {
		req, err := syntheticRequest(c, model)
		if err != nil {
			return fmt.Errorf("%s: %w", c.name, err)
		}
		source := domain.Geo{Lat: c.source.Lat, Lon: c.source.Lon}
		g.add(c.name, &source, req)
	}

	magnitudeEnergy := referenceRequest(nil)
	magnitudeEnergy.Model = &domain.ModelOverride{EnergyMethod: string(seismic.EnergyFromMagnitude)}
	g.add("reference-magnitude-energy", nil, magnitudeEnergy)

	// Failure cases.
	g.add("duplicate-station", nil, referenceRequest(func(st []domain.StationReading) {
		st[1].Lat, st[1].Lon = st[0].Lat, st[0].Lon
	}))
	g.add("equatorial-stations", nil, domain.SolveRequest{Stations: []domain.StationReading{
		reading("Null Island", 0, 0, "00:00:00", "00:00:30", 10),
		reading("Gulf of Guinea", 0, 10, "00:00:00", "00:00:40", 10),
		reading("Gabon", 0, 20, "00:00:00", "00:00:50", 10),
	}})
	g.add("swapped-arrivals", nil, referenceRequest(func(st []domain.StationReading) {
		st[0].PArrival, st[0].SArrival = st[0].SArrival, st[0].PArrival
	}))
	g.add("implausible-lag", nil, referenceRequest(func(st []domain.StationReading) {
		st[0].SArrival = "00:40:00"
	}))
	g.add("unparseable-arrival", nil, referenceRequest(func(st []domain.StationReading) {
		st[2].SArrival = "1:04"
	}))
	g.add("zero-amplitude", nil, referenceRequest(func(st []domain.StationReading) {
		st[1].AmplitudeMM = 0
	}))

	if err := writeJSON(*out, g.fixtures); err != nil {
		return fmt.Errorf("writing fixture: %w", err)
	}
	log.Printf("wrote %d fixtures to %s", len(g.fixtures), *out)

	printStats(g.fixtures)
	return nil
}

type generator struct {
	model    seismic.Model
	fixtures []domain.SolveFixture
}

// add assigns the next mock ID and records what Locate makes of the request.
func (g *generator) add(name string, source *domain.Geo, req domain.SolveRequest) {
	req.ID = fmt.Sprintf("mock-%03d", len(g.fixtures)+1)
	f := domain.SolveFixture{Name: name, Request: req, TrueEpicenter: source}

	report, err := domain.Locate(req, g.model)
	if err != nil {
		f.ExpectedError = domain.ErrorKind(err)
	} else {
		epicenter := report.Epicenter
		f.ExpectedEpicenter = &epicenter
		f.ExpectedMaxMagnitude = report.MaxMagnitude
	}
	g.fixtures = append(g.fixtures, f)
}

func referenceRequest(mutate func([]domain.StationReading)) domain.SolveRequest {
	stations := make([]domain.StationReading, 0, len(reference))
	for _, r := range reference {
		stations = append(stations, reading(r.name, r.lat, r.lon, "00:00:00", clockTime(r.lagSec), r.amplitude))
	}
	if mutate != nil {
		mutate(stations)
	}
	return domain.SolveRequest{Stations: stations}
}

// syntheticRequest derives each station's lag from the straight-line distance
// to the source, rounded to whole seconds as a seismograph reading would be.
func syntheticRequest(c syntheticCase, model seismic.Model) (domain.SolveRequest, error) {
	p, err := time.Parse(timeLayout, c.pArrival)
	if err != nil {
		return domain.SolveRequest{}, err
	}

	stations := make([]domain.StationReading, 0, len(c.stations))
	for i, t := range c.stations {
		lag := int(math.Round(chordKm(c.source, seismic.Point{Lat: t.lat, Lon: t.lon}) / model.Vsp()))
		s := p.Add(time.Duration(lag) * time.Second)
		stations = append(stations, reading(t.name, t.lat, t.lon, c.pArrival, s.Format(timeLayout), c.amplitudes[i]))
	}
	return domain.SolveRequest{Stations: stations}, nil
}

// chordKm is the straight-line distance through the Earth between two surface points.
func chordKm(a, b seismic.Point) float64 {
	return 2 * seismic.EarthRadiusKm * math.Sin(seismic.GreatCircleDistance(a, b)/(2*seismic.EarthRadiusKm))
}

func reading(name string, lat, lon float64, p, s string, amplitude float64) domain.StationReading {
	return domain.StationReading{Name: name, Lat: &lat, Lon: &lon, PArrival: p, SArrival: s, AmplitudeMM: amplitude}
}

func clockTime(sec int) string {
	return time.Date(0, 1, 1, 0, 0, sec, 0, time.UTC).Format(timeLayout)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(fixtures []domain.SolveFixture) {
	var solved int
	kinds := map[string]int{}
	for _, f := range fixtures {
		if f.ExpectedError != "" {
			kinds[f.ExpectedError]++
			continue
		}
		solved++
		if f.TrueEpicenter != nil {
			miss := seismic.GreatCircleDistance(
				seismic.Point{Lat: f.TrueEpicenter.Lat, Lon: f.TrueEpicenter.Lon},
				seismic.Point{Lat: f.ExpectedEpicenter.Lat, Lon: f.ExpectedEpicenter.Lon},
			)
			fmt.Printf("  %-28s miss %6.2f km  max magnitude %.3f\n", f.Name, miss, f.ExpectedMaxMagnitude)
		}
	}
	fmt.Printf("\n%d solvable, %d failing\n", solved, len(fixtures)-solved)
	for kind, n := range kinds {
		fmt.Printf("  %-28s %d\n", kind, n)
	}
}
