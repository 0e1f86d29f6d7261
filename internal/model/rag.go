package model

// Answer is the result of a document QA query.
type Answer struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Sources  []string `json:"sources"`
}

type AskRequest struct {
	Question string `form:"question" binding:"required"`
}

// SyncResult summarizes one index sync.
type SyncResult struct {
	Indexed   int `json:"indexed"`
	Removed   int `json:"removed"`
	Unchanged int `json:"unchanged"`
}
