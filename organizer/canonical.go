package organizer

import (
	"sort"
	"strings"

	"github.com/garygangwu/tax-copilot/session"
)

// Sections are the four top-level keys of organized data.
var Sections = []session.Topic{
	session.TopicBasicInfo,
	session.TopicIncome,
	session.TopicDeductions,
	session.TopicDependents,
}

// placement is where a field belongs and what it is called there.
type placement struct {
	section session.Topic
	name    string
}

// fieldTable maps every recognized field name, canonical or alias, to its
// canonical placement. Fields not listed stay in the section they arrived in.
var fieldTable = map[string]placement{
	"filing_status":      {session.TopicBasicInfo, "filing_status"},
	"marital_status":     {session.TopicBasicInfo, "filing_status"},
	"state":              {session.TopicBasicInfo, "state"},
	"state_of_residence": {session.TopicBasicInfo, "state"},
	"residence_state":    {session.TopicBasicInfo, "state"},

	"income":                  {session.TopicIncome, "total_income"},
	"total_income":            {session.TopicIncome, "total_income"},
	"income_amount":           {session.TopicIncome, "total_income"},
	"w2_count":                {session.TopicIncome, "w2_count"},
	"employer_count":          {session.TopicIncome, "w2_count"},
	"number_of_employers":     {session.TopicIncome, "w2_count"},
	"employment_income":       {session.TopicIncome, "employment_income"},
	"salary":                  {session.TopicIncome, "employment_income"},
	"annual_salary":           {session.TopicIncome, "employment_income"},
	"wages":                   {session.TopicIncome, "employment_income"},
	"w2_income":               {session.TopicIncome, "employment_income"},
	"investment_income":       {session.TopicIncome, "investment_income"},
	"rental_income":           {session.TopicIncome, "rental_income"},
	"self_employment_income":  {session.TopicIncome, "self_employment_income"},
	"ira_contribution":        {session.TopicIncome, "ira_contribution"},
	"ira_contributions":       {session.TopicIncome, "ira_contribution"},
	"retirement_contribution": {session.TopicIncome, "ira_contribution"},

	"charitable_contributions": {session.TopicDeductions, "charitable_contributions"},
	"charitable_donation":      {session.TopicDeductions, "charitable_contributions"},
	"charitable_donations":     {session.TopicDeductions, "charitable_contributions"},
	"donations":                {session.TopicDeductions, "charitable_contributions"},
	"student_loan_interest":    {session.TopicDeductions, "student_loan_interest"},
	"student_loan":             {session.TopicDeductions, "student_loan_interest"},
	"student_loans":            {session.TopicDeductions, "student_loan_interest"},
	"mortgage_interest":        {session.TopicDeductions, "mortgage_interest"},
	"state_local_taxes":        {session.TopicDeductions, "state_local_taxes"},
	"salt":                     {session.TopicDeductions, "state_local_taxes"},
	"medical_expenses":         {session.TopicDeductions, "medical_expenses"},
	"health_expenses":          {session.TopicDeductions, "medical_expenses"},
	"medical":                  {session.TopicDeductions, "medical_expenses"},
	"taxes_paid":               {session.TopicDeductions, "taxes_paid"},
	"tax_withholding":          {session.TopicDeductions, "tax_withholding"},
	"estimated_tax_payments":   {session.TopicDeductions, "estimated_tax_payments"},
	"itemized":                 {session.TopicDeductions, "itemized"},
	"itemized_total":           {session.TopicDeductions, "itemized_total"},
	"standard_deduction":       {session.TopicDeductions, "standard_deduction"},

	"dependents":                {session.TopicDependents, "count"},
	"number_of_dependents":      {session.TopicDependents, "count"},
	"dependent_count":           {session.TopicDependents, "count"},
	"dependent_ages":            {session.TopicDependents, "ages"},
	"children_ages":             {session.TopicDependents, "ages"},
	"claiming_child_tax_credit": {session.TopicDependents, "claiming_child_tax_credit"},
	"child_tax_credit":          {session.TopicDependents, "claiming_child_tax_credit"},
}

// folded sections are merged into income when they appear at the top level.
var folded = map[string]session.Topic{
	string(session.TopicInvestments): session.TopicIncome,
}

var piiExact = map[string]bool{
	"name": true, "names": true, "tin": true, "itin": true, "ein": true,
	"dob": true, "address": true, "email": true, "phone": true,
}

var piiFragments = []string{"ssn", "social_security", "birth", "address", "phone", "email"}

// IsPII reports whether a field name identifies personal data that organized
// output must not carry.
func IsPII(field string) bool {
	f := strings.ToLower(field)
	if piiExact[f] {
		return true
	}
	if strings.HasSuffix(f, "_name") || strings.HasSuffix(f, "_names") {
		return true
	}
	for _, frag := range piiFragments {
		if strings.Contains(f, frag) {
			return true
		}
	}
	return false
}

// Canonicalize rewrites loosely organized data into the four canonical
// sections. Alias fields take their canonical names, misplaced fields move to
// their home section, a canonical field wins over its aliases, and PII is
// dropped at any depth. The input is not modified.
func Canonicalize(data map[string]any) map[string]any {
	c := canonicalizer{
		out:       make(map[string]any, len(Sections)),
		canonical: map[string]bool{},
	}
	for _, s := range Sections {
		c.out[string(s)] = map[string]any{}
	}

	for _, name := range sectionOrder(data) {
		value := data[name]
		if IsPII(name) {
			continue
		}

		fields, ok := value.(map[string]any)
		if !ok {
			c.place("", name, value)
			continue
		}

		home := session.Topic(name)
		if target, ok := folded[name]; ok {
			home = target
		}
		for _, field := range sortedKeys(fields) {
			c.place(home, field, fields[field])
		}
	}
	return c.out
}

type canonicalizer struct {
	out map[string]any
	// canonical records targets written under their canonical field name.
	canonical map[string]bool
}

func (c *canonicalizer) place(section session.Topic, field string, value any) {
	if IsPII(field) {
		return
	}

	target := placement{section: section, name: field}
	if p, ok := fieldTable[strings.ToLower(field)]; ok {
		target = p
	}
	value = stripPII(value)

	if target.section == "" {
		if _, exists := c.out[target.name]; !exists {
			c.out[target.name] = value
		}
		return
	}

	dst, ok := c.out[string(target.section)].(map[string]any)
	if !ok {
		dst = map[string]any{}
		c.out[string(target.section)] = dst
	}

	id := string(target.section) + "." + target.name
	isCanonical := strings.EqualFold(field, target.name)
	if _, exists := dst[target.name]; exists {
		if !isCanonical || c.canonical[id] {
			return
		}
	}
	dst[target.name] = value
	if isCanonical {
		c.canonical[id] = true
	}
}

func stripPII(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			if IsPII(k) {
				continue
			}
			out[k] = stripPII(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = stripPII(e)
		}
		return out
	default:
		return v
	}
}

// sectionOrder lists the canonical sections first, then the rest sorted,
// so that placement is deterministic.
func sectionOrder(data map[string]any) []string {
	order := make([]string, 0, len(data))
	seen := map[string]bool{}
	for _, s := range Sections {
		if _, ok := data[string(s)]; ok {
			order = append(order, string(s))
			seen[string(s)] = true
		}
	}
	for _, k := range sortedKeys(data) {
		if !seen[k] {
			order = append(order, k)
		}
	}
	return order
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
