package organizer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/garygangwu/tax-copilot/session"
)

const requestText = "Reorganize the extracted tax data into the correct structure."

const promptTemplate = `You are organizing tax interview data into the correct categories.

Raw extracted data (may have data in wrong topics):
%s

Conversation summary:
%s

Reorganize this data into the standard tax profile structure with these exact topic keys:
- basic_info
- income
- deductions
- dependents

basic_info contains only:
- filing_status ("single", "mfj", "mfs", "hoh", or "qss")
- state (two-letter code like "CA")

income contains:
- total_income (total of all income sources, in dollars)
- w2_count (number of W-2 jobs, 1 if there is employment income)
- employment_income, investment_income, rental_income, self_employment_income
- ira_contribution, other_income

deductions contains:
- student_loan_interest, charitable_contributions, mortgage_interest
- state_local_taxes, medical_expenses
- itemized (true/false), itemized_total, standard_deduction

dependents contains:
- count (0 if none)
- ages (array, empty if none)
- claiming_child_tax_credit (true/false)

Rules:
1. When the same value appears under several names (salary, annual_salary, employment_income), keep only the standard name.
2. Move misplaced data to its section. Charitable donations always belong in deductions.
3. Monetary amounts are plain numbers in dollars (70000 for $70,000).
4. Use null for missing data. Never invent values.
5. Drop verification details such as donation_method.
6. Do not include personal identifiers: names, SSNs, dates of birth, addresses, phone numbers, or email addresses.

Return only the JSON object with all four keys present.`

func buildPrompt(sess *session.Session) string {
	raw, err := json.MarshalIndent(sess.ExtractedData, "", "  ")
	if err != nil {
		raw = []byte("{}")
	}
	return fmt.Sprintf(promptTemplate, raw, conversationSummary(sess))
}

func conversationSummary(sess *session.Session) string {
	if len(sess.TopicsCovered) == 0 {
		return "Interview in progress"
	}
	topics := make([]string, len(sess.TopicsCovered))
	for i, t := range sess.TopicsCovered {
		topics[i] = string(t)
	}
	return "Topics discussed: " + strings.Join(topics, ", ")
}
