package gdd

// DailyContribution returns one day's GDD contribution for an effective
// temperature. Temperatures below the base contribute zero; temperatures
// above the ceiling are capped so extreme heat does not inflate accumulation.
func (p Parameters) DailyContribution(tempF float64) float64 {
	effective := tempF
	if effective > p.CeilingTempF {
		effective = p.CeilingTempF
	}
	if effective <= p.BaseTempF {
		return 0
	}
	return effective - p.BaseTempF
}

// Accumulate converts a year's daily temperatures into a cumulative GDD
// series anchored at the season start. Days with no reading contribute zero
// rather than breaking the series, so a gap delays threshold crossings
// without altering prior cumulative state. Duplicate dates keep the last
// value seen. The result has one entry per calendar day from the anchor
// through the latest observed date.
func Accumulate(p Parameters, year int, temps []DailyTemp) Series {
	anchorDOY := p.SeasonAnchor(year).YearDay()

	byDOY := make(map[int]float64, len(temps))
	lastDOY := anchorDOY
	for _, t := range temps {
		if t.Date.Year() != year {
			continue
		}
		doy := t.Date.YearDay()
		if doy < anchorDOY {
			continue
		}
		byDOY[doy] = t.TempF
		if doy > lastDOY {
			lastDOY = doy
		}
	}

	s := Series{Year: year}
	if len(byDOY) == 0 {
		return s
	}

	s.Days = make([]DailyValue, 0, lastDOY-anchorDOY+1)
	cumulative := 0.0
	for doy := anchorDOY; doy <= lastDOY; doy++ {
		daily := 0.0
		if temp, ok := byDOY[doy]; ok {
			daily = p.DailyContribution(temp)
		}
		cumulative += daily
		s.Days = append(s.Days, DailyValue{
			Year:       year,
			DOY:        doy,
			Daily:      daily,
			Cumulative: cumulative,
		})
	}
	return s
}

// CumulativeAt returns the cumulative GDD at the latest known day at or
// before the given day-of-year. Returns zero before the series begins.
func (s Series) CumulativeAt(doy int) float64 {
	value := 0.0
	for _, d := range s.Days {
		if d.DOY > doy {
			break
		}
		value = d.Cumulative
	}
	return value
}

// Latest returns the most recent day in the series
func (s Series) Latest() (DailyValue, bool) {
	if len(s.Days) == 0 {
		return DailyValue{}, false
	}
	return s.Days[len(s.Days)-1], true
}

// TrailingMeanDaily returns the mean daily GDD over the last windowDays
// entries of the series, weighting recent conditions only
func (s Series) TrailingMeanDaily(windowDays int) float64 {
	if len(s.Days) == 0 || windowDays <= 0 {
		return 0
	}
	start := len(s.Days) - windowDays
	if start < 0 {
		start = 0
	}
	sum := 0.0
	for _, d := range s.Days[start:] {
		sum += d.Daily
	}
	return sum / float64(len(s.Days)-start)
}

// MeanDaily returns the season-to-date mean day-over-day increase
func (s Series) MeanDaily() float64 {
	last, ok := s.Latest()
	if !ok {
		return 0
	}
	return last.Cumulative / float64(len(s.Days))
}
