package services

import (
	"math"
	"time"

	"github.com/ashmitsharp/moneybook-api/internal/models"
)

// DaysPerYear is the day-count basis for simple interest
const DaysPerYear = 365

// daysBetween counts calendar days from start to end. The result is negative
// when end is before start.
func daysBetween(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int(math.Round(e.Sub(s).Hours() / 24))
}

// SimpleInterest computes the interest position of a loan on asOf.
//
//	accrued     = principal * rate/100 * days/365
//	outstanding = principal - total_repaid
//	interest    = max(0, accrued - interest_paid)
//	total       = max(0, outstanding + accrued - interest_paid)
//
// A rate of zero accrues nothing and total due is the outstanding principal.
// An asOf before the start date yields negative days and negative accrual.
func SimpleInterest(l models.Loan, start, asOf time.Time) models.InterestBreakdown {
	days := daysBetween(start, asOf)
	outstanding := l.Principal - l.TotalRepaid

	b := models.InterestBreakdown{
		LoanID:               l.ID,
		AsOf:                 asOf.Format(models.DateLayout),
		Principal:            round2(l.Principal),
		OutstandingPrincipal: round2(outstanding),
		InterestRate:         l.InterestRate,
		DaysElapsed:          days,
		InterestPaid:         round2(l.InterestPaid),
	}

	if l.InterestRate == 0 {
		b.TotalDue = round2(outstanding)
		return b
	}

	accrued := l.Principal * (l.InterestRate / 100) * (float64(days) / DaysPerYear)
	b.AccruedInterest = round2(accrued)
	b.InterestDue = round2(math.Max(0, accrued-l.InterestPaid))
	b.TotalDue = round2(math.Max(0, outstanding+accrued-l.InterestPaid))
	return b
}
