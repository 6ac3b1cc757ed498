package models

import "time"

// Recommendation is the screening verdict on whether to continue with a candidate.
type Recommendation string

const (
	RecommendationProceed Recommendation = "PROCEED"
	RecommendationReject  Recommendation = "REJECT"
)

// Candidate is the durable pipeline record for one application. The optional
// blocks are owned by exactly one stage each and are never rewritten by
// another stage.
type Candidate struct {
	ID             string    `db:"id"              json:"id"`
	JobID          string    `db:"job_id"          json:"job_id"`
	FullName       string    `db:"full_name"       json:"full_name"`
	Email          string    `db:"email"           json:"email"`
	Phone          string    `db:"phone"           json:"phone"`
	ResumeKey      string    `db:"resume_key"      json:"resume_key"`
	ResumeText     *string   `db:"resume_text"     json:"resume_text,omitempty"`
	Status         Status    `db:"status"          json:"status"`
	SubmissionDate time.Time `db:"submission_date" json:"submission_date"`
	UpdatedDate    time.Time `db:"updated_date"    json:"updated_date"`

	Screening      *Screening      `db:"screening"       json:"screening,omitempty"`
	Ranking        *Ranking        `db:"ranking"         json:"ranking,omitempty"`
	PhoneInterview *PhoneInterview `db:"phone_interview" json:"phone_interview,omitempty"`
	Interview      *Interview      `db:"interview"       json:"interview,omitempty"`
	Failure        *Failure        `db:"failure"         json:"failure,omitempty"`
}

// Screening is written by the screening stage.
type Screening struct {
	Score          int            `json:"score"`
	Assessment     string         `json:"assessment"`
	MatchingSkills []string       `json:"matching_skills"`
	MissingSkills  []string       `json:"missing_skills"`
	Recommendation Recommendation `json:"recommendation"`
	// Fallback is set when the evaluator output could not be parsed and the
	// conservative default evaluation was substituted.
	Fallback bool `json:"fallback,omitempty"`
}

// Ranking is written by the ranking stage.
type Ranking struct {
	Position       int       `json:"position"`
	IsTopCandidate bool      `json:"is_top_candidate"`
	CohortSize     int       `json:"cohort_size"`
	RankedAt       time.Time `json:"ranked_at"`
}

// PhoneInterview is written in two steps: initiation records the contact and
// script, completion records the outcome.
type PhoneInterview struct {
	ContactID   string     `json:"contact_id"`
	Script      string     `json:"script"`
	InitiatedAt time.Time  `json:"initiated_at"`
	Passed      *bool      `json:"passed,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

const InterviewStatusScheduled = "SCHEDULED"

// Interview is written by the scheduling stage.
type Interview struct {
	Datetime       time.Time `json:"datetime"`
	Formatted      string    `json:"formatted"`
	HiringManager  string    `json:"hiring_manager"`
	TechnicalStaff string    `json:"technical_staff"`
	Status         string    `json:"status"`
	MessageIDs     []string  `json:"message_ids,omitempty"`
}

// Failure records why a candidate left the pipeline through FAILED or REJECTED.
type Failure struct {
	Stage  string    `json:"stage"`
	Reason string    `json:"reason"`
	At     time.Time `json:"at"`
}

// StatusView is the read-only projection served to polling clients.
type StatusView struct {
	CandidateID    string    `json:"candidate_id"`
	JobID          string    `json:"job_id"`
	Status         Status    `json:"status"`
	SubmissionDate time.Time `json:"submission_date"`
	UpdatedDate    time.Time `json:"updated_date"`
}

// View projects c to its status view.
func (c *Candidate) View() StatusView {
	return StatusView{
		CandidateID:    c.ID,
		JobID:          c.JobID,
		Status:         c.Status,
		SubmissionDate: c.SubmissionDate,
		UpdatedDate:    c.UpdatedDate,
	}
}

// HasResumeText reports whether extraction produced non-empty text.
func (c *Candidate) HasResumeText() bool {
	return c.ResumeText != nil && *c.ResumeText != ""
}

// Clone returns a deep copy of c so callers can mutate it without touching
// a stored record.
func (c *Candidate) Clone() *Candidate {
	out := *c
	if c.ResumeText != nil {
		text := *c.ResumeText
		out.ResumeText = &text
	}
	if c.Screening != nil {
		s := *c.Screening
		s.MatchingSkills = append([]string(nil), c.Screening.MatchingSkills...)
		s.MissingSkills = append([]string(nil), c.Screening.MissingSkills...)
		out.Screening = &s
	}
	if c.Ranking != nil {
		r := *c.Ranking
		out.Ranking = &r
	}
	if c.PhoneInterview != nil {
		p := *c.PhoneInterview
		if c.PhoneInterview.Passed != nil {
			passed := *c.PhoneInterview.Passed
			p.Passed = &passed
		}
		if c.PhoneInterview.CompletedAt != nil {
			at := *c.PhoneInterview.CompletedAt
			p.CompletedAt = &at
		}
		out.PhoneInterview = &p
	}
	if c.Interview != nil {
		i := *c.Interview
		i.MessageIDs = append([]string(nil), c.Interview.MessageIDs...)
		out.Interview = &i
	}
	if c.Failure != nil {
		f := *c.Failure
		out.Failure = &f
	}
	return &out
}
