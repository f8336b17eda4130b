package finance

import (
	"math"
	"time"
)

const daysPerMonth = 30.0

// Project compounds cash and a monthly contribution stream over horizonMonths.
// horizonMonths may be fractional or negative.
func Project(cash, monthly, annualRate, horizonMonths float64) float64 {
	r := annualRate / 12
	if r == 0 {
		return cash + monthly*horizonMonths
	}
	growth := math.Pow(1+r, horizonMonths)
	return cash*growth + monthly*((growth-1)/r)
}

// HorizonMonths counts calendar days from today's date to the expiration date
// and divides by 30. A past expiration yields a negative horizon.
func HorizonMonths(expiration, now time.Time) float64 {
	today := dateOnly(now)
	exp := dateOnly(expiration.In(now.Location()))
	// Unix seconds, not Sub: a Duration saturates after about 292 years.
	days := float64((exp.Unix() - today.Unix()) / 86400)
	return days / daysPerMonth
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SchedulePoint is the projected balance after Month months.
type SchedulePoint struct {
	Month float64
	Value float64
}

// ProjectSchedule returns the balance at month 0, every whole month up to the
// horizon, and the horizon itself when it is fractional. A non-positive horizon
// yields the single starting point plus the horizon value.
func ProjectSchedule(cash, monthly, annualRate, horizonMonths float64) []SchedulePoint {
	points := []SchedulePoint{{Month: 0, Value: Project(cash, monthly, annualRate, 0)}}
	if horizonMonths <= 0 {
		if horizonMonths < 0 {
			points = append(points, SchedulePoint{Month: horizonMonths, Value: Project(cash, monthly, annualRate, horizonMonths)})
		}
		return points
	}
	for m := 1.0; m <= horizonMonths; m++ {
		points = append(points, SchedulePoint{Month: m, Value: Project(cash, monthly, annualRate, m)})
	}
	if last := points[len(points)-1].Month; last < horizonMonths {
		points = append(points, SchedulePoint{Month: horizonMonths, Value: Project(cash, monthly, annualRate, horizonMonths)})
	}
	return points
}
