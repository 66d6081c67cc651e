package loan

import (
	"fmt"
	"math"
)

// Application is the data-entry form for one loan analysis. Monetary fields
// are INR; the feature vector converts to USD because the model was trained
// on USD amounts.
type Application struct {
	BorrowerName       string  `json:"borrower_name"`
	Age                int     `json:"person_age"`
	IncomeINR          float64 `json:"person_income_inr"`
	HomeOwnership      string  `json:"home_ownership"` // RENT, OWN or MORTGAGE
	EmpLengthYears     float64 `json:"emp_length_years"`
	LoanIntent         string  `json:"loan_intent"`
	LoanAmountINR      float64 `json:"loan_amount_inr"`
	InterestRate       float64 `json:"interest_rate"`
	CreditHistoryYears int     `json:"credit_history_years"`
	CIBILScore         int     `json:"cibil_score"`
	PropertyValueINR   float64 `json:"property_value_inr"`
	TotalDebtINR       float64 `json:"total_debt_inr"`
}

var validOwnership = map[string]struct{}{
	"RENT": {}, "OWN": {}, "MORTGAGE": {},
}

// Validate rejects forms the model cannot score meaningfully.
func (a Application) Validate() error {
	if a.Age < 18 || a.Age > 100 {
		return fmt.Errorf("person_age must be between 18 and 100")
	}
	if a.IncomeINR <= 0 {
		return fmt.Errorf("person_income_inr must be positive")
	}
	if a.LoanAmountINR <= 0 {
		return fmt.Errorf("loan_amount_inr must be positive")
	}
	if _, ok := validOwnership[a.HomeOwnership]; !ok {
		return fmt.Errorf("home_ownership must be RENT, OWN or MORTGAGE")
	}
	if a.LoanIntent == "" {
		return fmt.Errorf("loan_intent is required")
	}
	if a.CIBILScore < 300 || a.CIBILScore > 900 {
		return fmt.Errorf("cibil_score must be between 300 and 900")
	}
	if a.TotalDebtINR < 0 {
		return fmt.Errorf("total_debt_inr must not be negative")
	}
	if a.HomeOwnership != "RENT" && a.PropertyValueINR <= 0 {
		return fmt.Errorf("property_value_inr is required unless renting")
	}
	return nil
}

// Grade maps a CIBIL score onto the model's loan-grade buckets.
func Grade(cibilScore int) string {
	switch {
	case cibilScore < 580:
		return "G"
	case cibilScore < 670:
		return "F"
	case cibilScore < 740:
		return "D"
	case cibilScore < 800:
		return "B"
	default:
		return "A"
	}
}

// LTVRatio is loan amount over property value as a percentage. Renters and
// missing property values score zero rather than an error.
func LTVRatio(loanAmount, propertyValue float64, homeOwnership string) float64 {
	if homeOwnership == "RENT" || propertyValue <= 0 {
		return 0
	}
	return loanAmount / propertyValue * 100
}

// DTIRatio is total existing debt over annual income as a percentage.
func DTIRatio(totalDebt, annualIncome float64) float64 {
	if annualIncome <= 0 {
		return 0
	}
	return totalDebt / annualIncome * 100
}

// round2 keeps converted amounts at two decimals like the training data.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FeatureVector builds the model input: USD-converted amounts plus the
// derived grade and ratios. The borrower name stays out of the vector.
func (a Application) FeatureVector(inrToUSD float64) map[string]interface{} {
	return map[string]interface{}{
		"person_age":                 a.Age,
		"person_income":              round2(a.IncomeINR * inrToUSD),
		"person_home_ownership":      a.HomeOwnership,
		"person_emp_length":          a.EmpLengthYears,
		"loan_intent":                a.LoanIntent,
		"loan_grade":                 Grade(a.CIBILScore),
		"loan_amnt":                  round2(a.LoanAmountINR * inrToUSD),
		"loan_int_rate":              a.InterestRate,
		"cb_person_default_on_file":  "N",
		"cb_person_cred_hist_length": a.CreditHistoryYears,
		"dti_ratio":                  DTIRatio(a.TotalDebtINR, a.IncomeINR),
		"ltv_ratio":                  LTVRatio(a.LoanAmountINR, a.PropertyValueINR, a.HomeOwnership),
		"cibil_score":                a.CIBILScore,
		"total_debt":                 round2(a.TotalDebtINR * inrToUSD),
	}
}
