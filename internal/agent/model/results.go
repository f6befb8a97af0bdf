package model

// TrustAssessment is the structured output of the trust classifier. A nil
// TrustLevel means the classifier gave no score.
type TrustAssessment struct {
	TrustLevel *int   `json:"trust_level"`
	Message    string `json:"message"`
	Problem    string `json:"problem"`
}

// Level is the assessed score, or DefaultTrustLevel when none was given.
func (a TrustAssessment) Level() int {
	if a.TrustLevel == nil {
		return DefaultTrustLevel
	}
	return *a.TrustLevel
}

// Validation is the structured output of the response validator.
type Validation struct {
	CanAnswer bool   `json:"can_answer"`
	Reasoning string `json:"reasoning"`
	NextStep  string `json:"next_step"`
}

// QueryPlan is the structured output of the query planner.
type QueryPlan struct {
	Problem        string `json:"problem"`
	ProblemSolving string `json:"problem_solving"`
}

// GeneratedQuery is the structured output of the query generator.
type GeneratedQuery struct {
	Query                string `json:"query"`
	QueryAgain           bool   `json:"query_again"`
	NextQueryDescription string `json:"next_query_description"`
}
