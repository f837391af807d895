package profile

import "github.com/garygangwu/tax-copilot/session"

const (
	confidenceExplicit = 0.95
	confidenceStated   = 0.9
	confidenceDerived  = 0.85
	confidenceHedged   = 0.7

	requiredWeight = 0.7
	optionalWeight = 0.3
)

type fieldPath struct {
	section session.Topic
	field   string
}

func (f fieldPath) String() string {
	return string(f.section) + "." + f.field
}

var (
	requiredFields = []fieldPath{
		{session.TopicBasicInfo, "filing_status"},
		{session.TopicIncome, "total_income"},
		{session.TopicIncome, "w2_count"},
	}
	optionalFields = []fieldPath{
		{session.TopicBasicInfo, "state"},
		{session.TopicIncome, "ira_contribution"},
		{session.TopicDeductions, "student_loan_interest"},
		{session.TopicDeductions, "itemized"},
		{session.TopicDependents, "count"},
	}
)

func (f fieldPath) present(data map[string]any) bool {
	return present(section(data, string(f.section)), f.field)
}

// Completeness scores how much of the profile the data covers, in [0,1].
// Required fields carry 70% of the weight and optional fields 30%.
func Completeness(data map[string]any) float64 {
	count := func(fields []fieldPath) float64 {
		n := 0
		for _, f := range fields {
			if f.present(data) {
				n++
			}
		}
		return float64(n) / float64(len(fields))
	}
	return count(requiredFields)*requiredWeight + count(optionalFields)*optionalWeight
}

// MissingFields lists the dotted paths of required fields not yet present.
func MissingFields(data map[string]any) []string {
	missing := []string{}
	for _, f := range requiredFields {
		if !f.present(data) {
			missing = append(missing, f.String())
		}
	}
	return missing
}

// ConfidenceScores assigns an extraction confidence to each present field,
// keyed by dotted path. Hedged values ("around $2,000") score lower; absent
// fields get no entry.
func ConfidenceScores(data map[string]any) map[string]float64 {
	scores := map[string]float64{}

	score := func(path string, v any, base float64) {
		if Hedged(v) {
			scores[path] = confidenceHedged
			return
		}
		scores[path] = base
	}

	basic := section(data, string(session.TopicBasicInfo))
	if ParseFilingStatus(basic["filing_status"]) != FilingUnknown {
		scores["basic_info.filing_status"] = confidenceStated
	}
	if ParseState(basic["state"]) != "" {
		scores["basic_info.state"] = confidenceStated
	}

	income := section(data, string(session.TopicIncome))
	if amount, key := firstMoney(income, totalIncomeKeys); amount > 0 {
		base := confidenceExplicit
		if key != "total_income" {
			base = confidenceStated
		}
		score("income.total_income", income[key], base)
	} else if sumMoney(income, incomeComponents) > 0 {
		scores["income.total_income"] = confidenceDerived
	}
	if _, ok := firstInt(income, w2CountKeys); ok {
		scores["income.w2_count"] = confidenceExplicit
	}
	if amount, key := firstMoney(income, iraKeys); amount > 0 {
		score("income.ira_contribution", income[key], confidenceDerived)
	}

	deductions := section(data, string(session.TopicDeductions))
	if amount, key := firstMoney(deductions, studentLoanKeys); amount > 0 {
		score("deductions.student_loan_interest", deductions[key], confidenceDerived)
	}
	if _, ok := firstBool(deductions, itemizedFlagKeys); ok {
		scores["deductions.itemized"] = confidenceStated
	}

	dependents := section(data, string(session.TopicDependents))
	if _, ok := firstInt(dependents, dependentKeys); ok {
		scores["dependents.count"] = confidenceStated
	}
	for _, k := range ageKeys {
		if len(toInts(dependents[k])) > 0 {
			scores["dependents.ages"] = confidenceDerived
			break
		}
	}

	return scores
}
