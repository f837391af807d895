// Package profile normalizes interview data into a validated TaxProfile and
// persists profiles per user and tax year.
//
// Everything upstream of the Builder is loosely typed map data produced by
// the conversation. The Builder is the boundary: it coerces money, resolves
// field synonyms, scores confidence, and returns a typed profile that has
// passed Validate.
package profile

import (
	"fmt"
	"time"
)

// CollectionMethod records how a profile's data was gathered.
type CollectionMethod string

const (
	CollectedDynamicQuestioning CollectionMethod = "dynamic_questioning"
	CollectedJSONImport         CollectionMethod = "json_import"
)

// Income holds the income section of a profile.
type Income struct {
	TotalIncome     Money `json:"total_income"`
	W2Count         int   `json:"w2_count"`
	IRAContribution Money `json:"ira_contribution"`
}

// Deductions holds the deductions section of a profile.
type Deductions struct {
	StudentLoanInterest Money `json:"student_loan_interest"`
	Itemized            bool  `json:"itemized"`
	ItemizedTotal       Money `json:"itemized_total"`
}

// Dependents holds the dependents section of a profile.
type Dependents struct {
	Count                  int   `json:"count"`
	Ages                   []int `json:"ages"`
	ClaimingChildTaxCredit bool  `json:"claiming_child_tax_credit"`
}

// TaxProfile is the validated result of an interview.
type TaxProfile struct {
	UserID           string             `json:"user_id"`
	TaxYear          int                `json:"tax_year"`
	FilingStatus     FilingStatus       `json:"filing_status"`
	State            string             `json:"state,omitempty"`
	Income           Income             `json:"income"`
	Deductions       Deductions         `json:"deductions"`
	Dependents       Dependents         `json:"dependents"`
	ConfidenceScores map[string]float64 `json:"confidence_scores"`
	CollectedVia     CollectionMethod   `json:"collected_via"`
	SessionID        string             `json:"session_id,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at,omitzero"`
}

// Validate checks structural consistency. It says nothing about whether the
// values are correct for tax purposes.
func (p *TaxProfile) Validate() error {
	switch {
	case p.UserID == "":
		return fmt.Errorf("%w: user_id required", ErrInvalidProfile)
	case p.TaxYear < 1900 || p.TaxYear > 2200:
		return fmt.Errorf("%w: tax_year %d out of range", ErrInvalidProfile, p.TaxYear)
	case !p.FilingStatus.Valid():
		return fmt.Errorf("%w: filing_status %q", ErrInvalidProfile, p.FilingStatus)
	case p.State != "" && !validStateCode(p.State):
		return fmt.Errorf("%w: state %q", ErrInvalidProfile, p.State)
	case p.Income.TotalIncome < 0, p.Income.IRAContribution < 0,
		p.Deductions.StudentLoanInterest < 0, p.Deductions.ItemizedTotal < 0:
		return fmt.Errorf("%w: negative money amount", ErrInvalidProfile)
	case p.Income.W2Count < 0 || p.Dependents.Count < 0:
		return fmt.Errorf("%w: negative count", ErrInvalidProfile)
	}

	for _, age := range p.Dependents.Ages {
		if age < 0 || age > 130 {
			return fmt.Errorf("%w: dependent age %d", ErrInvalidProfile, age)
		}
	}
	for path, score := range p.ConfidenceScores {
		if score < 0 || score > 1 {
			return fmt.Errorf("%w: confidence %s=%v", ErrInvalidProfile, path, score)
		}
	}
	return nil
}

// Clone returns a deep copy.
func (p *TaxProfile) Clone() *TaxProfile {
	c := *p
	c.Dependents.Ages = append([]int(nil), p.Dependents.Ages...)
	if p.ConfidenceScores != nil {
		c.ConfidenceScores = make(map[string]float64, len(p.ConfidenceScores))
		for k, v := range p.ConfidenceScores {
			c.ConfidenceScores[k] = v
		}
	}
	return &c
}

// LastModified returns UpdatedAt, or CreatedAt when the profile was never updated.
func (p *TaxProfile) LastModified() time.Time {
	if p.UpdatedAt.IsZero() {
		return p.CreatedAt
	}
	return p.UpdatedAt
}
