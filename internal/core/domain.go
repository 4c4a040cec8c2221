package core

import (
	"errors"
	"strings"
)

// Disbursement request lifecycle states. Forward transitions happen through
// explicit user actions; REJECTED and NEED_INFO are the sideways exits.
const (
	StatusDraft          Status = "DRAFT"
	StatusSubmitted      Status = "SUBMITTED"
	StatusApproving      Status = "APPROVING"
	StatusApproved       Status = "APPROVED"
	StatusPaymentOrdered Status = "PAYMENT_ORDERED"
	StatusPaid           Status = "PAID"
	StatusRejected       Status = "REJECTED"
	StatusNeedInfo       Status = "NEED_INFO"
)

const (
	ChannelInfo  ChannelType = "info"
	ChannelChat  ChannelType = "chat"
	ChannelVoice ChannelType = "voice"
)

type (
	Status      string
	ChannelType string

	// DisbursementItem is one billable line of a request.
	DisbursementItem struct {
		ID          string `json:"id"`
		Description string `json:"description"`
		Amount      Amount `json:"amount"`
		TaxRate     Amount `json:"taxRate"` // percent, e.g. 8 means 8%
	}

	// DisbursementRequest is a claim for payment against a project for a
	// given period, subject to the approval lifecycle above.
	DisbursementRequest struct {
		ID               string             `json:"id"`
		Code             string             `json:"code"`
		ProjectID        string             `json:"projectId"`
		ProjectName      string             `json:"projectName,omitempty"`
		Period           string             `json:"period"`
		Items            []DisbursementItem `json:"items"`
		Note             string             `json:"note,omitempty"`
		Milestones       []Milestone        `json:"milestones,omitempty"`
		AdvanceDeduction Amount             `json:"advanceDeduction"`
		CompletionPct    Amount             `json:"completionPct"`
		Status           Status             `json:"status"`
		SubmittedAt      string             `json:"submittedAt,omitempty"`
		CreatedAt        string             `json:"createdAt,omitempty"`
	}

	// PlanItem is one planned budget bucket for one calendar month.
	PlanItem struct {
		ID            string `json:"id"`
		Period        string `json:"period"` // YYYY-MM
		PlannedAmount Amount `json:"plannedAmount"`
	}

	// DisbursementPlan is a per-project schedule of planned spending per
	// period. The fleet-wide and per-project-only variants are structurally
	// identical and only differ in which collection stores them.
	DisbursementPlan struct {
		ID        string     `json:"id"`
		ProjectID string     `json:"projectId"`
		Items     []PlanItem `json:"items"`
	}

	Milestone struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
		DueDate     string `json:"dueDate,omitempty"`
		Done        bool   `json:"done,omitempty"`
	}

	PhaseDocument struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		URL  string `json:"url,omitempty"`
	}

	Phase struct {
		ID         string          `json:"id"`
		Name       string          `json:"name"`
		Order      int             `json:"order"`
		Status     string          `json:"status,omitempty"`
		LegalBasis string          `json:"legalBasis,omitempty"`
		Documents  []PhaseDocument `json:"documents,omitempty"`
		Tasks      []ProjectTask   `json:"tasks,omitempty"`
	}

	ProjectTask struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
	}

	// Project is the coarse aggregate every disbursement entity points at.
	Project struct {
		ID          string        `json:"id"`
		Name        string        `json:"name"`
		Description string        `json:"description,omitempty"`
		Budget      Amount        `json:"budget"`
		StartDate   string        `json:"startDate,omitempty"`
		EndDate     string        `json:"endDate,omitempty"`
		Status      string        `json:"status,omitempty"`
		Milestones  []Milestone   `json:"milestones,omitempty"`
		Phases      []Phase       `json:"phases,omitempty"`
		Tasks       []ProjectTask `json:"tasks,omitempty"`
	}

	// ProjectTemplate is a reusable phase/task skeleton for new projects.
	ProjectTemplate struct {
		ID          string  `json:"id"`
		Name        string  `json:"name"`
		Description string  `json:"description,omitempty"`
		Phases      []Phase `json:"phases"`
	}

	Group struct {
		ID          string   `json:"id"`
		Name        string   `json:"name"`
		Description string   `json:"description,omitempty"`
		Members     []string `json:"members"`
		Leader      string   `json:"leader"`
	}

	Channel struct {
		ID        string      `json:"id"`
		Name      string      `json:"name"`
		Type      ChannelType `json:"type"`
		CreatedAt string      `json:"createdAt,omitempty"`
	}

	Message struct {
		ID        string `json:"id"`
		UserID    string `json:"userId"`
		Text      string `json:"text"`
		CreatedAt string `json:"createdAt,omitempty"`
	}
)

var (
	ErrEmptyName         = errors.New("empty name")
	ErrEmptyProjectID    = errors.New("empty project id")
	ErrEmptyCode         = errors.New("empty code")
	ErrEmptyText         = errors.New("empty text")
	ErrInvalidCompletion = errors.New("completion percentage out of range")
	ErrInvalidChannel    = errors.New("invalid channel type")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusApproving, StatusApproved,
		StatusPaymentOrdered, StatusPaid, StatusRejected, StatusNeedInfo:
		return true
	}
	return false
}

// CanTransition reports whether the lifecycle allows moving from s to next.
// The storage layer does not enforce this; the transition endpoints do.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusDraft:
		return next == StatusSubmitted
	case StatusSubmitted:
		return next == StatusApproving || next == StatusApproved ||
			next == StatusRejected || next == StatusNeedInfo
	case StatusApproving:
		return next == StatusApproved || next == StatusRejected || next == StatusNeedInfo
	case StatusApproved:
		return next == StatusPaymentOrdered
	case StatusPaymentOrdered:
		return next == StatusPaid
	case StatusNeedInfo:
		return next == StatusSubmitted
	}
	// REJECTED and PAID are terminal.
	return false
}

func (t ChannelType) Valid() bool {
	return t == ChannelInfo || t == ChannelChat || t == ChannelVoice
}

func (r DisbursementRequest) Validate() error {
	if strings.TrimSpace(r.Code) == "" {
		return ErrEmptyCode
	}
	if strings.TrimSpace(r.ProjectID) == "" {
		return ErrEmptyProjectID
	}
	if pct := r.CompletionPct.Float(); pct < 0 || pct > 100 {
		return ErrInvalidCompletion
	}
	if r.Status != "" && !r.Status.Valid() {
		return errors.New("unknown status: " + string(r.Status))
	}
	return nil
}

func (p DisbursementPlan) Validate() error {
	if strings.TrimSpace(p.ProjectID) == "" {
		return ErrEmptyProjectID
	}
	return nil
}

func (p Project) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (t ProjectTemplate) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (g Group) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (c Channel) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !c.Type.Valid() {
		return ErrInvalidChannel
	}
	return nil
}

func (m Message) Validate() error {
	if strings.TrimSpace(m.Text) == "" {
		return ErrEmptyText
	}
	return nil
}
