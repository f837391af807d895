package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/garygangwu/tax-copilot/profile"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))

	agentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7FD1AE"))

	promptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFD166"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

func printAgent(text string) {
	fmt.Println(agentStyle.Render("Agent: ") + text)
}

// renderProfile draws a boxed summary of a tax profile.
func renderProfile(p *profile.TaxProfile) string {
	rows := [][2]string{
		{"User", p.UserID},
		{"Tax year", fmt.Sprint(p.TaxYear)},
		{"Filing status", string(p.FilingStatus)},
		{"State", orDash(p.State)},
		{"Total income", p.Income.TotalIncome.String()},
		{"W-2 forms", fmt.Sprint(p.Income.W2Count)},
		{"IRA contribution", p.Income.IRAContribution.String()},
		{"Student loan interest", p.Deductions.StudentLoanInterest.String()},
		{"Itemized", fmt.Sprint(p.Deductions.Itemized)},
		{"Itemized total", p.Deductions.ItemizedTotal.String()},
		{"Dependents", fmt.Sprint(p.Dependents.Count)},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Tax Profile"))
	for _, row := range rows {
		b.WriteString("\n" + mutedStyle.Render(fmt.Sprintf("%-23s", row[0])) + row[1])
	}
	return boxStyle.Render(b.String())
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
