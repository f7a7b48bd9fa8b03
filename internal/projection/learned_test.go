package projection

import (
	"errors"
	"testing"
	"time"

	"github.com/openvine/budbreak/internal/gdd"
)

// learnedFixture builds a multi-year history for one variety where bud
// break consistently lands at the GDD value thresholdGDD, accumulating at
// a constant daily rate
func learnedFixture(variety string, thresholdGDD float64, rate float64, years ...int) History {
	hist := History{
		Years:      make(map[int]gdd.Series),
		ChillHours: make(map[int]float64),
	}
	for _, year := range years {
		s := makeSeries(year, 150, rate)
		hist.Years[year] = s
		hist.ChillHours[year] = 800
		for _, d := range s.Days {
			if d.Cumulative >= thresholdGDD {
				hist.Observations = append(hist.Observations, gdd.Observation{
					Variety: variety, Year: year, DOY: d.DOY, GDDAtBreak: d.Cumulative,
				})
				break
			}
		}
	}
	return hist
}

func TestLearnedProjectorTrainAndProject(t *testing.T) {
	params := gdd.DefaultParameters()
	proj := NewLearnedProjector(params, testLogger())

	histories := map[string]History{
		"Chardonnay": learnedFixture("Chardonnay", 600, 6, 2018, 2019, 2020, 2021, 2022),
		"Syrah":      learnedFixture("Syrah", 750, 6, 2018, 2019, 2020, 2021, 2022),
	}
	varieties := []Variety{
		{Name: "Chardonnay", HeatSummation: 600},
		{Name: "Syrah", HeatSummation: 750},
	}

	today := time.Date(2023, 2, 19, 0, 0, 0, 0, time.UTC) // DOY 50
	season := Season{
		Year:       2023,
		Today:      today,
		Current:    makeSeries(2023, 50, 6),
		ChillHours: 800,
	}

	if err := proj.Train(varieties, histories, season); err != nil {
		t.Fatalf("Train: %v", err)
	}

	for _, v := range varieties {
		pred, err := proj.Project(v, histories[v.Name], season)
		if err != nil {
			t.Fatalf("Project(%s): %v", v.Name, err)
		}
		if pred.Date.Before(today) {
			t.Errorf("%s: predicted date %v before run date %v", v.Name, pred.Date, today)
		}
		if pred.DOY < 1 || pred.DOY > 366 {
			t.Errorf("%s: predicted DOY %d out of range", v.Name, pred.DOY)
		}
	}

	// With identical conditions every year, the crossing should land near
	// the historical crossing day (DOY 100 for 600 GDD at 6/day)
	pred, _ := proj.Project(varieties[0], histories["Chardonnay"], season)
	if pred.DOY < 90 || pred.DOY > 110 {
		t.Errorf("Chardonnay predicted DOY = %d, want near 100", pred.DOY)
	}
}

func TestLearnedProjectorUntrained(t *testing.T) {
	proj := NewLearnedProjector(gdd.DefaultParameters(), testLogger())
	hist := learnedFixture("Merlot", 600, 6, 2021, 2022)

	_, err := proj.Project(Variety{Name: "Merlot", HeatSummation: 600}, hist, Season{Year: 2023})
	if !errors.Is(err, ErrModelFit) {
		t.Errorf("err = %v, want ErrModelFit", err)
	}
}

func TestLearnedProjectorTooFewExamples(t *testing.T) {
	proj := NewLearnedProjector(gdd.DefaultParameters(), testLogger())

	histories := map[string]History{
		"Merlot": learnedFixture("Merlot", 600, 6, 2021, 2022),
	}
	err := proj.Train([]Variety{{Name: "Merlot", HeatSummation: 600}}, histories, Season{
		Year:  2023,
		Today: time.Date(2023, 2, 19, 0, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, ErrModelFit) {
		t.Errorf("Train err = %v, want ErrModelFit", err)
	}
}

func TestLearnedProjectorInsufficientVarietyHistory(t *testing.T) {
	proj := NewLearnedProjector(gdd.DefaultParameters(), testLogger())

	histories := map[string]History{
		"Chardonnay": learnedFixture("Chardonnay", 600, 6, 2018, 2019, 2020, 2021, 2022),
	}
	season := Season{
		Year:    2023,
		Today:   time.Date(2023, 2, 19, 0, 0, 0, 0, time.UTC),
		Current: makeSeries(2023, 50, 6),
	}
	if err := proj.Train([]Variety{{Name: "Chardonnay", HeatSummation: 600}}, histories, season); err != nil {
		t.Fatalf("Train: %v", err)
	}

	// A variety with a single observation cannot supply break statistics
	thin := learnedFixture("Nebbiolo", 600, 6, 2022)
	_, err := proj.Project(Variety{Name: "Nebbiolo", HeatSummation: 600}, thin, season)
	if err != ErrInsufficientHistory {
		t.Errorf("err = %v, want ErrInsufficientHistory", err)
	}
}

func TestLearnedProjectorZeroRateDoesNotDivide(t *testing.T) {
	proj := NewLearnedProjector(gdd.DefaultParameters(), testLogger())

	histories := map[string]History{
		"Chardonnay": learnedFixture("Chardonnay", 600, 6, 2018, 2019, 2020, 2021, 2022),
	}
	today := time.Date(2023, 2, 19, 0, 0, 0, 0, time.UTC)
	trainSeason := Season{Year: 2023, Today: today, Current: makeSeries(2023, 50, 6)}
	if err := proj.Train([]Variety{{Name: "Chardonnay", HeatSummation: 600}}, histories, trainSeason); err != nil {
		t.Fatalf("Train: %v", err)
	}

	// Cold season: zero accumulation to date and no historical averages.
	// Conversion must neither divide by zero nor predict a past date.
	coldSeason := Season{
		Year:    2023,
		Today:   today,
		Current: makeSeries(2023, 50, 0),
	}
	pred, err := proj.Project(Variety{Name: "Chardonnay", HeatSummation: 600}, histories["Chardonnay"], coldSeason)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if pred.Date.Before(today) {
		t.Errorf("predicted date %v before run date", pred.Date)
	}
	if pred.Date.After(today.AddDate(0, 0, 365)) {
		t.Errorf("predicted date %v beyond the walk cap", pred.Date)
	}
}
