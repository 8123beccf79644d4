package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ashmitsharp/moneybook-api/internal/models"
	"github.com/ashmitsharp/moneybook-api/internal/store"
)

// LoanService tracks money lent and borrowed. Every loan owns an account of
// type loan_receivable (given) or loan_payable (taken) whose opening balance
// is the principal.
//
// Updates and deletes lock the loan id, then the tracking account id, on the
// ledger's lock table so they serialize with transaction writes.
type LoanService struct {
	store store.Store
	locks *keyedMutex
	log   zerolog.Logger
	now   func() time.Time
	newID func() string
}

func NewLoanService(s store.Store, ledger *Ledger, log zerolog.Logger) *LoanService {
	return &LoanService{
		store: s,
		locks: ledger.locks,
		log:   log.With().Str("component", "loans").Logger(),
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.New().String() },
	}
}

func loanAccountName(person string) string {
	return "Loan - " + person
}

func validateLoan(l models.Loan) error {
	if strings.TrimSpace(l.PersonName) == "" {
		return invalidf("person_name is required")
	}
	if !l.LoanType.Valid() {
		return invalidf("unknown loan type %q", l.LoanType)
	}
	if !validAmount(l.Principal) {
		return invalidf("principal must be a non-negative number with at most 2 decimal places")
	}
	if l.InterestRate < 0 || math.IsNaN(l.InterestRate) || math.IsInf(l.InterestRate, 0) {
		return invalidf("interest_rate must be a non-negative number")
	}
	if !validDate(l.StartDate) {
		return invalidf("start_date %q must be formatted as YYYY-MM-DD", l.StartDate)
	}
	if !validAmount(l.TotalRepaid) || !validAmount(l.InterestPaid) {
		return invalidf("total_repaid and interest_paid must be non-negative numbers")
	}
	return nil
}

// CreateLoan stores the loan together with its tracking account
func (s *LoanService) CreateLoan(ctx context.Context, in models.LoanInput) (models.Loan, error) {
	now := s.now()
	l := models.Loan{
		ID:           s.newID(),
		PersonName:   strings.TrimSpace(in.PersonName),
		LoanType:     in.LoanType,
		Principal:    in.Principal,
		InterestRate: in.InterestRate,
		StartDate:    in.StartDate,
		Notes:        in.Notes,
		AccountID:    s.newID(),
		CreatedAt:    now,
	}
	if err := validateLoan(l); err != nil {
		return models.Loan{}, err
	}

	account := models.Account{
		ID:             l.AccountID,
		Name:           loanAccountName(l.PersonName),
		AccountType:    l.LoanType.AccountType(),
		OpeningBalance: l.Principal,
		CurrentBalance: l.Principal,
		Description:    fmt.Sprintf("Loan %s to/from %s", l.LoanType, l.PersonName),
		PersonName:     l.PersonName,
		CreatedAt:      now,
	}
	if err := s.store.CreateLoan(ctx, l, account); err != nil {
		return models.Loan{}, translate(err, "create loan")
	}

	s.log.Info().Str("loan_id", l.ID).Str("account_id", l.AccountID).Str("loan_type", string(l.LoanType)).Msg("Loan created")
	return l, nil
}

func (s *LoanService) GetLoan(ctx context.Context, id string) (models.Loan, error) {
	l, err := s.store.GetLoan(ctx, id)
	if err != nil {
		return models.Loan{}, translate(err, "loan "+id)
	}
	return l, nil
}

func (s *LoanService) ListLoans(ctx context.Context, loanType models.LoanType) ([]models.Loan, error) {
	if loanType != "" && !loanType.Valid() {
		return nil, invalidf("unknown loan type %q", loanType)
	}
	loans, err := s.store.ListLoans(ctx, loanType)
	if err != nil {
		return nil, translate(err, "list loans")
	}
	return loans, nil
}

// UpdateLoan applies patch. Renaming the person renames the tracking account
// and a new principal becomes the account's opening balance; both rows are
// written in one store call.
func (s *LoanService) UpdateLoan(ctx context.Context, id string, patch models.LoanPatch) (models.Loan, error) {
	release := s.locks.lockAll(loanLockKey(id))
	defer release()

	l, err := s.store.GetLoan(ctx, id)
	if err != nil {
		return models.Loan{}, translate(err, "loan "+id)
	}
	original := l

	if patch.PersonName != nil {
		l.PersonName = strings.TrimSpace(*patch.PersonName)
	}
	if patch.Principal != nil {
		l.Principal = *patch.Principal
	}
	if patch.InterestRate != nil {
		l.InterestRate = *patch.InterestRate
	}
	if patch.StartDate != nil {
		l.StartDate = *patch.StartDate
	}
	if patch.Notes != nil {
		l.Notes = *patch.Notes
	}
	if patch.TotalRepaid != nil {
		l.TotalRepaid = *patch.TotalRepaid
	}
	if patch.InterestPaid != nil {
		l.InterestPaid = *patch.InterestPaid
	}
	if err := validateLoan(l); err != nil {
		return models.Loan{}, err
	}

	var account *models.Account
	if l.PersonName != original.PersonName || l.Principal != original.Principal {
		releaseAccount := s.locks.lockAll(l.AccountID)
		defer releaseAccount()
		account = s.trackingAccount(ctx, l)
	}

	if err := s.store.UpdateLoan(ctx, l, account); err != nil {
		return models.Loan{}, translate(err, "loan "+id)
	}
	return l, nil
}

func loanLockKey(id string) string {
	return "loan:" + id
}

// trackingAccount returns the account fields that follow l.
// A missing account is logged and yields nil.
func (s *LoanService) trackingAccount(ctx context.Context, l models.Loan) *models.Account {
	a, err := s.store.GetAccount(ctx, l.AccountID)
	if err != nil {
		s.log.Warn().Err(err).Str("loan_id", l.ID).Str("account_id", l.AccountID).Msg("Loan account missing")
		return nil
	}
	a.Name = loanAccountName(l.PersonName)
	a.PersonName = l.PersonName
	a.OpeningBalance = l.Principal
	return &a
}

// DeleteLoan removes the loan and its tracking account
func (s *LoanService) DeleteLoan(ctx context.Context, id string) error {
	release := s.locks.lockAll(loanLockKey(id))
	defer release()

	l, err := s.store.GetLoan(ctx, id)
	if err != nil {
		return translate(err, "loan "+id)
	}
	releaseAccount := s.locks.lockAll(l.AccountID)
	defer releaseAccount()

	if err := s.store.DeleteLoan(ctx, id); err != nil {
		return translate(err, "loan "+id)
	}
	s.log.Info().Str("loan_id", id).Msg("Loan deleted")
	return nil
}

// CalculateLoanInterest returns the simple-interest position of the loan on
// asOf (YYYY-MM-DD). An empty asOf means today.
func (s *LoanService) CalculateLoanInterest(ctx context.Context, loanID, asOf string) (models.InterestBreakdown, error) {
	var asOfDate time.Time
	if asOf == "" {
		asOfDate = s.now()
	} else {
		d, err := time.Parse(models.DateLayout, asOf)
		if err != nil {
			return models.InterestBreakdown{}, invalidf("as_of %q must be formatted as YYYY-MM-DD", asOf)
		}
		asOfDate = d
	}

	l, err := s.store.GetLoan(ctx, loanID)
	if err != nil {
		return models.InterestBreakdown{}, translate(err, "loan "+loanID)
	}
	start, err := time.Parse(models.DateLayout, l.StartDate)
	if err != nil {
		return models.InterestBreakdown{}, invalidf("loan %s has malformed start_date %q", loanID, l.StartDate)
	}

	return SimpleInterest(l, start, asOfDate), nil
}
