package profile

import (
	"time"

	"github.com/garygangwu/tax-copilot/session"
)

// Field synonyms in priority order.
var (
	totalIncomeKeys   = []string{"total_income", "employment_income", "salary", "annual_salary", "income_amount"}
	incomeComponents  = []string{"employment_income", "investment_income", "rental_income", "self_employment_income"}
	employmentKeys    = []string{"employment_income", "salary", "annual_salary"}
	w2CountKeys       = []string{"w2_count", "employer_count", "number_of_employers"}
	iraKeys           = []string{"ira_contribution", "ira_contributions", "retirement_contribution"}
	studentLoanKeys   = []string{"student_loan_interest", "student_loan", "student_loans"}
	itemizedFlagKeys  = []string{"itemized", "itemizing", "itemize"}
	itemizedTotalKeys = []string{"itemized_total", "itemized_deductions", "total_itemized"}
	itemizedParts     = []string{"charitable_contributions", "mortgage_interest", "state_local_taxes", "medical_expenses"}
	dependentKeys     = []string{"count", "number_of_dependents", "dependent_count"}
	ageKeys           = []string{"ages", "dependent_ages", "children_ages"}
	ctcKeys           = []string{"claiming_child_tax_credit", "child_tax_credit", "claiming_ctc"}
)

// Builder converts organized interview data into a TaxProfile.
type Builder struct {
	now func() time.Time
}

// NewBuilder creates a Builder.
func NewBuilder() *Builder {
	return &Builder{now: time.Now}
}

// Build converts the session's extracted data into a validated profile.
func (b *Builder) Build(sess *session.Session) (*TaxProfile, error) {
	data := sess.ExtractedData
	basic := section(data, string(session.TopicBasicInfo))

	p := &TaxProfile{
		UserID:           sess.UserID,
		TaxYear:          sess.TaxYear,
		FilingStatus:     ParseFilingStatus(basic["filing_status"]),
		State:            ParseState(basic["state"]),
		Income:           buildIncome(section(data, string(session.TopicIncome))),
		Deductions:       buildDeductions(section(data, string(session.TopicDeductions))),
		Dependents:       buildDependents(section(data, string(session.TopicDependents))),
		ConfidenceScores: ConfidenceScores(data),
		CollectedVia:     CollectedDynamicQuestioning,
		SessionID:        sess.ID,
		CreatedAt:        sess.CreatedAt,
		UpdatedAt:        b.now(),
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// firstMoney returns the first synonym that parses to a positive amount.
func firstMoney(m map[string]any, keys []string) (Money, string) {
	for _, k := range keys {
		if v := ParseMoney(m[k]); v > 0 {
			return v, k
		}
	}
	return 0, ""
}

func sumMoney(m map[string]any, keys []string) Money {
	var total Money
	for _, k := range keys {
		total = total.Add(ParseMoney(m[k]))
	}
	return total
}

func firstInt(m map[string]any, keys []string) (int, bool) {
	for _, k := range keys {
		if !present(m, k) {
			continue
		}
		if n, ok := toInt(m[k]); ok && n >= 0 {
			return n, true
		}
	}
	return 0, false
}

func firstBool(m map[string]any, keys []string) (bool, bool) {
	for _, k := range keys {
		if v, ok := toBool(m[k]); ok {
			return v, true
		}
	}
	return false, false
}

func buildIncome(m map[string]any) Income {
	total, _ := firstMoney(m, totalIncomeKeys)
	if total == 0 {
		total = sumMoney(m, incomeComponents)
	}

	w2, ok := firstInt(m, w2CountKeys)
	if !ok {
		if employment, _ := firstMoney(m, employmentKeys); employment > 0 {
			w2 = 1
		}
	}

	ira, _ := firstMoney(m, iraKeys)

	return Income{
		TotalIncome:     total,
		W2Count:         w2,
		IRAContribution: ira,
	}
}

func buildDeductions(m map[string]any) Deductions {
	studentLoan, _ := firstMoney(m, studentLoanKeys)
	itemized, _ := firstBool(m, itemizedFlagKeys)

	total, _ := firstMoney(m, itemizedTotalKeys)
	if total == 0 && itemized {
		total = sumMoney(m, itemizedParts).Add(studentLoan)
	}

	return Deductions{
		StudentLoanInterest: studentLoan,
		Itemized:            itemized,
		ItemizedTotal:       total,
	}
}

func buildDependents(m map[string]any) Dependents {
	var ages []int
	for _, k := range ageKeys {
		if ages = toInts(m[k]); len(ages) > 0 {
			break
		}
	}

	count, ok := firstInt(m, dependentKeys)
	if !ok {
		count = len(ages)
	}

	ctc, _ := firstBool(m, ctcKeys)

	if ages == nil {
		ages = []int{}
	}
	return Dependents{
		Count:                  count,
		Ages:                   ages,
		ClaimingChildTaxCredit: ctc,
	}
}
