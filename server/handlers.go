package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/voxsurvey/voxsurvey/core"
	"github.com/voxsurvey/voxsurvey/model"
)

type startRequest struct {
	SurveyID     int64 `json:"survey_id"`
	RespondentID int64 `json:"respondent_id"`
}

type startResponse struct {
	SessionID      string `json:"session_id"`
	SurveyID       int64  `json:"survey_id"`
	RespondentID   int64  `json:"respondent_id"`
	RespondentName string `json:"respondent_name"`
	SurveyTitle    string `json:"survey_title"`
	TotalQuestions int    `json:"total_questions"`
	Utterance      string `json:"utterance"`
}

type respondRequest struct {
	Text string `json:"text"`
}

type turnResponse struct {
	Outcome        core.Outcome `json:"outcome"`
	Utterance      string       `json:"utterance"`
	QuestionNumber int          `json:"question_number"`
	TotalQuestions int          `json:"total_questions"`
	IsComplete     bool         `json:"is_complete"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "voxsurvey"})
}

func (s *Server) handleListSurveys(w http.ResponseWriter, r *http.Request) {
	surveys, err := s.surveys.ListSurveys(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not list surveys")
		return
	}

	type surveyItem struct {
		core.Survey
		QuestionCount int `json:"question_count"`
	}
	out := make([]surveyItem, 0, len(surveys))
	for _, sv := range surveys {
		questions, err := s.surveys.GetQuestions(r.Context(), sv.ID)
		if err != nil {
			// A partial listing would silently hide surveys; fail the request.
			s.logger.Error("could not load questions for listing", "survey_id", sv.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "could not load questions")
			return
		}
		out = append(out, surveyItem{Survey: sv, QuestionCount: len(questions)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetSurvey(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	survey, err := s.surveys.GetSurvey(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "survey not found")
		return
	}
	questions, err := s.surveys.GetQuestions(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not load questions")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"survey":    survey,
		"questions": questions,
	})
}

func (s *Server) handleListRespondents(w http.ResponseWriter, r *http.Request) {
	respondents, err := s.surveys.ListRespondents(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not list respondents")
		return
	}
	writeJSON(w, http.StatusOK, respondents)
}

func (s *Server) handleGetRespondent(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	respondent, err := s.surveys.GetRespondent(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "respondent not found")
		return
	}
	writeJSON(w, http.StatusOK, respondent)
}

// handleStart resolves survey material, creates the session and speaks the
// greeting. Every missing precondition is a setup error: nothing is created.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx := r.Context()
	survey, err := s.surveys.GetSurvey(ctx, req.SurveyID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "survey not found")
		return
	}
	respondent, err := s.surveys.GetRespondent(ctx, req.RespondentID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "respondent not found")
		return
	}
	questions, err := s.surveys.GetQuestions(ctx, req.SurveyID)
	if err != nil || len(questions) == 0 {
		writeError(w, http.StatusBadRequest, "survey has no questions")
		return
	}

	sess, err := s.sessions.Create(survey.ID, respondent.ID, respondent.Name, questions)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not create session")
		return
	}

	greeting, err := s.engine.Start(ctx, sess)
	if err != nil {
		s.sessions.Remove(sess.ID)
		writeError(w, http.StatusBadRequest, "could not start session")
		return
	}

	title := survey.TitleUR
	if title == "" {
		title = survey.Title
	}

	writeJSON(w, http.StatusOK, startResponse{
		SessionID:      sess.ID,
		SurveyID:       survey.ID,
		RespondentID:   respondent.ID,
		RespondentName: respondent.Name,
		SurveyTitle:    title,
		TotalQuestions: len(questions),
		Utterance:      greeting,
	})
}

// handleRespond feeds one text-mode respondent turn through the engine.
func (s *Server) handleRespond(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	var req respondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess.BeginTurn()
	outcome, utterance := s.engine.Advance(r.Context(), sess, req.Text)
	sess.EndTurn()

	writeJSON(w, http.StatusOK, s.turnResponse(sess, outcome, utterance))
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	sess.BeginTurn()
	utterance := s.engine.Skip(r.Context(), sess)
	sess.EndTurn()

	outcome := core.OutcomeContinue
	if sess.GetPhase().Terminal() || sess.GetPhase() == core.PhaseClosing {
		outcome = core.OutcomeComplete
	}
	writeJSON(w, http.StatusOK, s.turnResponse(sess, outcome, utterance))
}

// handleClarify routes an off-script respondent question to the LLM
// clarifier. The scripted state machine is untouched; any failure falls back
// to the repeat-request line so the respondent always hears something.
func (s *Server) handleClarify(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	var req respondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	utterance := s.clarify(r, sess, req.Text)
	writeJSON(w, http.StatusOK, map[string]string{"utterance": utterance})
}

func (s *Server) clarify(r *http.Request, sess *core.Session, text string) string {
	fallback := s.prompts.Snapshot().RepeatRequest
	if s.clarifier == nil {
		return fallback
	}

	status := sess.Snapshot()
	instructions := fmt.Sprintf(
		"You are a professional survey agent conducting an Urdu workplace survey. "+
			"Answer the respondent's question briefly and politely in Urdu, then steer back to the survey. "+
			"Interview status: question %d of %d, %d answers recorded.",
		status.QuestionOrdinal, status.TotalQuestions, status.AnswersRecorded)

	reply, err := s.clarifier.Clarify(r.Context(), model.Request{Instructions: instructions, Input: text})
	if err != nil || reply == "" {
		s.logger.Warn("clarifier failed", "session_id", sess.ID, "error", err)
		return fallback
	}
	return reply
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Status(sess))
}

// handleResults returns the answers recorded in session state, joined with
// question text. Durable storage may lag (persistence is non-blocking) so the
// session copy is authoritative for this endpoint.
func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	type resultItem struct {
		QuestionID   int64  `json:"question_id"`
		QuestionText string `json:"question_text"`
		AnswerText   string `json:"answer_text"`
	}

	var results []resultItem
	for _, q := range sess.Questions {
		if answer, ok := sess.Answer(q.ID); ok {
			results = append(results, resultItem{QuestionID: q.ID, QuestionText: q.Prompt(), AnswerText: answer})
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sess.ID,
		"survey_id":  sess.SurveyID,
		"phase":      sess.GetPhase(),
		"responses":  results,
	})
}

func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) (*core.Session, bool) {
	id := mux.Vars(r)["session"]
	sess, err := s.sessions.Get(id)
	if err != nil {
		if errors.Is(err, core.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
		} else {
			writeError(w, http.StatusInternalServerError, "session lookup failed")
		}
		return nil, false
	}
	return sess, true
}

func (s *Server) turnResponse(sess *core.Session, outcome core.Outcome, utterance string) turnResponse {
	status := sess.Snapshot()
	return turnResponse{
		Outcome:        outcome,
		Utterance:      utterance,
		QuestionNumber: status.QuestionOrdinal,
		TotalQuestions: status.TotalQuestions,
		IsComplete:     outcome != core.OutcomeContinue,
	}
}
