package model

type JobOutlook string

const (
	OutlookDeclining JobOutlook = "declining"
	OutlookStable    JobOutlook = "stable"
	OutlookGrowing   JobOutlook = "growing"
	OutlookBooming   JobOutlook = "booming"
)

type LearningResource struct {
	Title         string  `json:"title" yaml:"title"`
	Type          string  `json:"type" yaml:"type"`
	URL           string  `json:"url,omitempty" yaml:"url,omitempty"`
	Free          bool    `json:"free" yaml:"free"`
	DurationHours float64 `json:"duration_hours,omitempty" yaml:"duration_hours,omitempty"`
}

// swagger:model CareerPath
type CareerPath struct {
	Title             string             `json:"title" yaml:"title"`
	Domain            string             `json:"domain" yaml:"-"`
	Description       string             `json:"description" yaml:"description"`
	MatchScore        int                `json:"match_score" yaml:"match_score"`
	RequiredSkills    []string           `json:"required_skills" yaml:"required_skills"`
	AvgSalaryUSD      int                `json:"avg_salary_usd" yaml:"avg_salary_usd"`
	JobOutlook        JobOutlook         `json:"job_outlook" yaml:"job_outlook"`
	TimeToEntryMonths int                `json:"time_to_entry_months" yaml:"time_to_entry_months"`
	LearningResources []LearningResource `json:"learning_resources" yaml:"learning_resources"`
}

// swagger:model RecommendResponse
type RecommendResponse struct {
	Recommendations []CareerPath `json:"recommendations"`
	AnalysisSummary string       `json:"analysis_summary"`
	FallbackUsed    bool         `json:"fallback_used"`
}

type SkillImportance string

const (
	ImportanceCritical   SkillImportance = "critical"
	ImportanceImportant  SkillImportance = "important"
	ImportanceNiceToHave SkillImportance = "nice_to_have"
)

type SkillGapItem struct {
	Skill              string             `json:"skill"`
	Importance         SkillImportance    `json:"importance"`
	EstimatedTimeWeeks int                `json:"estimated_time_weeks"`
	Resources          []LearningResource `json:"resources"`
}

// swagger:model AnalyzeResponse
type AnalyzeResponse struct {
	TargetCareer          string         `json:"target_career"`
	ExistingSkills        []string       `json:"existing_skills"`
	MissingSkills         []SkillGapItem `json:"missing_skills"`
	Strengths             []string       `json:"strengths"`
	ImprovementAreas      []string       `json:"improvement_areas"`
	OverallReadinessScore int            `json:"overall_readiness_score"`
	RecommendedNextSteps  []string       `json:"recommended_next_steps"`
}
