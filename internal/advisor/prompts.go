package advisor

import (
	"fmt"
	"strings"
)

// The advisor always speaks for the borrower, never for the lender.

// ChatSystemPrompt frames the free-form advisory chat.
const ChatSystemPrompt = `You are a supportive loan advisor dedicated to helping borrowers navigate the loan application process.
1. BORROWER-FOCUSED: you represent the borrower's interests, not the lender's.
2. EDUCATIONAL: explain financial concepts in simple terms without jargon.
3. CONSTRUCTIVE: frame challenges as opportunities for improvement.
4. PRACTICAL: give specific, actionable advice, not vague suggestions.
5. EMPATHETIC: loan applications are stressful; keep a supportive tone.
If you cannot confidently answer a question about loan requirements, say so and suggest the borrower verify with their lender, since requirements vary between institutions.
DO NOT take the perspective of a lender or underwriter evaluating the application.`

const approvedSystemPrompt = `You are a senior loan consultant with 20 years of experience helping borrowers optimize their loan applications.
The model predicts this application is LIKELY TO BE APPROVED. Congratulate the borrower, explain which factors work in their favor, suggest how to maintain their strong position and give tips for the loan process. Address the borrower directly using "you" and "your". Structure the response with clear sections and bullet points.`

const atRiskSystemPrompt = `You are a senior loan consultant with 20 years of experience helping borrowers optimize their loan applications.
The model predicts this application is AT RISK OF REJECTION. Acknowledge the challenges while maintaining hope, give specific actionable steps prioritized by the most impactful factors, and suggest alternative approaches or loan options. Stay empathetic and solution-oriented. Address the borrower directly using "you" and "your". Structure the response with clear sections and bullet points.`

// FallbackInsights is stored when the LLM is unreachable at analysis time,
// so the record never goes out with an empty advisory section.
const FallbackInsights = `Thank you for submitting your loan application. General recommendations while the advisory service is unavailable:

- Your credit score is one of the most important factors in loan approval.
- Debt-to-income ratio significantly impacts your borrowing capacity.
- Consistent employment history demonstrates stability to lenders.
- Consider paying down existing debt before applying.

Use the chat below to ask specific questions about your application.`

// InsightParams is the application summary the insight prompt is built from.
type InsightParams struct {
	BorrowerName    string
	CIBILScore      int
	LoanGrade       string
	AnnualIncomeINR float64
	LoanAmountINR   float64
	LoanIntent      string
	HomeOwnership   string
	DTIRatio        float64
	LTVRatio        float64
	InterestRate    float64
	Approved        bool
	TopFactors      []string
}

// InsightSystemPrompt picks the consultant framing for the predicted outcome.
func InsightSystemPrompt(approved bool) string {
	if approved {
		return approvedSystemPrompt
	}
	return atRiskSystemPrompt
}

// BuildInsightPrompt renders the application summary the initial insights
// are generated from.
func BuildInsightPrompt(p InsightParams) string {
	verdict := "AT RISK OF REJECTION"
	if p.Approved {
		verdict = "LIKELY TO BE APPROVED"
	}

	lti := 0.0
	if p.AnnualIncomeINR > 0 {
		lti = p.LoanAmountINR / p.AnnualIncomeINR * 100
	}

	var sb strings.Builder
	sb.WriteString("Loan application details:\n")
	fmt.Fprintf(&sb, "- Name: %s\n", p.BorrowerName)
	fmt.Fprintf(&sb, "- CIBIL score: %d (grade %s)\n", p.CIBILScore, p.LoanGrade)
	fmt.Fprintf(&sb, "- Annual income: INR %.0f\n", p.AnnualIncomeINR)
	fmt.Fprintf(&sb, "- Requested loan amount: INR %.0f (%.1f%% of annual income)\n", p.LoanAmountINR, lti)
	fmt.Fprintf(&sb, "- Loan purpose: %s\n", p.LoanIntent)
	fmt.Fprintf(&sb, "- Home ownership: %s\n", p.HomeOwnership)
	fmt.Fprintf(&sb, "- Debt-to-income ratio: %.2f%%\n", p.DTIRatio)
	fmt.Fprintf(&sb, "- Loan-to-value ratio: %.2f%%\n", p.LTVRatio)
	fmt.Fprintf(&sb, "- Interest rate: %.2f%%\n", p.InterestRate)
	fmt.Fprintf(&sb, "- Model prediction: %s\n", verdict)

	if len(p.TopFactors) > 0 {
		sb.WriteString("\nMost important factors per the model's attribution analysis:\n")
		for _, f := range p.TopFactors {
			fmt.Fprintf(&sb, "- %s\n", f)
		}
	}

	sb.WriteString("\nBased on these details, explain what the prediction means for the borrower and what they should do next.")
	return sb.String()
}

// BuildChatPrompt wraps the borrower's question with their application
// context so answers reference their actual numbers.
func BuildChatPrompt(analysisContext, question string) string {
	if analysisContext == "" {
		return question
	}
	return fmt.Sprintf(`Loan application analysis for this borrower:
%s

Borrower's question: %s

Use the application data and attribution analysis above to give specific, personalized advice.`, analysisContext, question)
}
