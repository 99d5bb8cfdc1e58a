package model

// AnalysisAction is the kind of AI analysis requested for the selection.
type AnalysisAction string

const (
	ActionNone      AnalysisAction = ""
	ActionSummarize AnalysisAction = "SUMMARIZE"
	ActionCompare   AnalysisAction = "COMPARE"
)

// Role is the speaker of a chat turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// ChatMessage is one turn of the follow-up conversation about an analysis.
type ChatMessage struct {
	Role Role   `json:"role"`
	Text string `json:"content"`
}
