package gdd

import (
	"testing"
)

// seriesWithRate builds a year series accumulating at a constant daily rate
func seriesWithRate(year, days int, rate float64) Series {
	s := Series{Year: year}
	cumulative := 0.0
	for doy := 1; doy <= days; doy++ {
		cumulative += rate
		s.Days = append(s.Days, DailyValue{Year: year, DOY: doy, Daily: rate, Cumulative: cumulative})
	}
	return s
}

func TestExtractBudBreak(t *testing.T) {
	years := []Series{
		seriesWithRate(2020, 120, 10), // crosses 600 at DOY 60
		seriesWithRate(2021, 120, 12), // crosses 600 at DOY 50
		seriesWithRate(2022, 40, 10),  // truncated season, never reaches 600
	}

	obs := ExtractBudBreak("Chardonnay", 600, years)
	if len(obs) != 2 {
		t.Fatalf("len(obs) = %d, want 2 (truncated year dropped)", len(obs))
	}

	if obs[0].Year != 2020 || obs[0].DOY != 60 {
		t.Errorf("obs[0] = %+v, want year 2020 DOY 60", obs[0])
	}
	if obs[1].Year != 2021 || obs[1].DOY != 50 {
		t.Errorf("obs[1] = %+v, want year 2021 DOY 50", obs[1])
	}
	if obs[0].GDDAtBreak < 600 {
		t.Errorf("GDDAtBreak = %.1f, want >= 600", obs[0].GDDAtBreak)
	}
	if obs[0].Variety != "Chardonnay" {
		t.Errorf("variety = %q", obs[0].Variety)
	}
}

func TestExtractBudBreakFirstCrossingWins(t *testing.T) {
	// Threshold reached exactly on a day boundary
	obs := ExtractBudBreak("Syrah", 100, []Series{seriesWithRate(2021, 30, 10)})
	if len(obs) != 1 {
		t.Fatalf("len(obs) = %d, want 1", len(obs))
	}
	if obs[0].DOY != 10 {
		t.Errorf("DOY = %d, want 10 (first day cumulative >= threshold)", obs[0].DOY)
	}
}

func TestExtractBudBreakNoHistory(t *testing.T) {
	if obs := ExtractBudBreak("Merlot", 600, nil); obs != nil {
		t.Errorf("obs = %v, want nil", obs)
	}
}
