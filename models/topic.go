package models

// TopicDefinition is the structured output of the judge pipeline's first
// step: the legal framing of a case description.
type TopicDefinition struct {
	LegalDomain    string   `json:"legal_domain"`
	LegalIssues    []string `json:"legal_issues"`
	Jurisdictions  []string `json:"jurisdictions"`
	SearchKeywords []string `json:"search_keywords"`
	TopicSummary   string   `json:"topic_summary"`
}

// JudgeResult is the full output of the judge pipeline.
type JudgeResult struct {
	Topic           TopicDefinition `json:"topic"`
	CaseLawAnalysis string          `json:"case_law_analysis"`
	Application     string          `json:"application"`
	Sources         []ExternalCase  `json:"sources"`
	StepsCompleted  int             `json:"steps_completed"`
	Language        string          `json:"language"`
}
