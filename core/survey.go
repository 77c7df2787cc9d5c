package core

import "time"

// Survey is an interview script definition. Questions are owned by the survey
// and referenced, never copied, by sessions.
type Survey struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	TitleUR       string `json:"title_ur"`
	Description   string `json:"description"`
	DescriptionUR string `json:"description_ur"`
}

// Question is a single scripted survey question. Immutable within a session.
type Question struct {
	ID       int64  `json:"id"`
	SurveyID int64  `json:"survey_id"`
	Ordinal  int    `json:"ordinal"`
	Text     string `json:"text"`
	TextUR   string `json:"text_ur"`
	Kind     string `json:"kind"`
	Required bool   `json:"required"`
	HelpText string `json:"help_text,omitempty"`
}

// Prompt returns the text spoken to the respondent, preferring the Urdu
// rendering when present.
func (q Question) Prompt() string {
	if q.TextUR != "" {
		return q.TextUR
	}
	return q.Text
}

// Respondent identifies the person being interviewed.
type Respondent struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	NameEN      string `json:"name_en"`
	Designation string `json:"designation"`
	Branch      string `json:"branch"`
	Phone       string `json:"phone"`
}

// Response is one durably persisted verbatim answer.
type Response struct {
	ID           int64     `json:"id"`
	SurveyID     int64     `json:"survey_id"`
	QuestionID   int64     `json:"question_id"`
	RespondentID int64     `json:"respondent_id"`
	SessionID    string    `json:"session_id"`
	AnswerText   string    `json:"answer_text"`
	CreatedAt    time.Time `json:"created_at"`
}
