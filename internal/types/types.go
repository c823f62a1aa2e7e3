package types

import "time"

// Resume lifecycle statuses
const (
	StatusUploaded      = "UPLOADED"
	StatusProcessing    = "PROCESSING"
	StatusInvalidResume = "INVALID_RESUME"
	StatusProcessed     = "PROCESSED"
	StatusError         = "ERROR"
)

// Screening decisions
const (
	DecisionShortlisted = "SHORTLISTED"
	DecisionReview      = "REVIEW"
	DecisionRejected    = "REJECTED"
)

// Engine score names, in the order they are reported
const (
	EngineSkillMatch    = "Skill Match"
	EngineExperience    = "Experience"
	EngineEducation     = "Education"
	EngineSemanticMatch = "Semantic Match"
	EngineQualityGate   = "Quality Gate"
)

// SkillData summarises which required skills a resume evidences
type SkillData struct {
	Matched     []string `json:"matched"`
	Missing     []string `json:"missing"`
	AllJDSkills []string `json:"allJdSkills"`
}

// EngineScore is one named sub-score on a 0-100 scale
type EngineScore struct {
	ID       string  `json:"id"`
	ResumeID string  `json:"resumeId"`
	Engine   string  `json:"engine"`
	Score    float64 `json:"score"`
}

// Explanation is one human-readable reason attached to a decision
type Explanation struct {
	ID       string `json:"id"`
	ResumeID string `json:"resumeId"`
	Message  string `json:"message"`
}

// ResumeRecord is the persisted state of one screened resume
type ResumeRecord struct {
	ID            string     `json:"resumeId"`
	CandidateName string     `json:"candidateName"`
	JDHash        string     `json:"jdHash,omitempty"`
	Status        string     `json:"status"`
	UploadTime    time.Time  `json:"uploadTime"`
	QualityScore  *float64   `json:"qualityScore,omitempty"`
	FinalScore    *float64   `json:"finalScore,omitempty"`
	Decision      string     `json:"decision,omitempty"`
	ErrorMessage  string     `json:"errorMessage,omitempty"`
	ExtractedText string     `json:"extractedText,omitempty"`
	SkillData     *SkillData `json:"skillData,omitempty"`
	FilePath      string     `json:"filePath,omitempty"`
}

// ResumeDetail is a record together with its engine scores and explanations
type ResumeDetail struct {
	ResumeRecord
	EngineScores []EngineScore `json:"engineScores"`
	Explanations []Explanation `json:"explanations"`
}

// ListFilter narrows a resume listing. Empty fields match everything.
type ListFilter struct {
	Status string
	JDHash string
	Limit  int
}

// BatchSummary reports the outcome of screening several resumes
type BatchSummary struct {
	JDHash    string         `json:"jdHash"`
	Total     int            `json:"total"`
	Processed int            `json:"processed"`
	Invalid   int            `json:"invalid"`
	Errors    int            `json:"errors"`
	Results   []ResumeRecord `json:"results"`
}

// Add counts rec in the summary.
func (s *BatchSummary) Add(rec ResumeRecord) {
	s.Total++
	switch rec.Status {
	case StatusProcessed:
		s.Processed++
	case StatusInvalidResume:
		s.Invalid++
	case StatusError:
		s.Errors++
	}
	s.Results = append(s.Results, rec)
}
