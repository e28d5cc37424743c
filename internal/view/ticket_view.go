package view

import (
	"bytes"
	"html"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/xeonx/timeago"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/helpdesk-kit/tickets/internal/domain"
)

// TimeLayout is how absolute timestamps are shown.
const TimeLayout = "2006-01-02 15:04:05"

var (
	markdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(goldmarkhtml.WithHardWraps()),
	)
	sanitizer = bluemonday.UGCPolicy()
)

// TicketView is a ticket prepared for templates.
type TicketView struct {
	ID              int64
	Title           string
	DescriptionHTML string
	Priority        string
	PriorityClass   string
	Status          string
	StatusClass     string
	CreatedAt       string
	CreatedAgo      string
	AssignedUserID  int64
	AssigneeName    string
	Assigned        bool
	CanAdvance      bool
	CanResolve      bool
}

// NewTicketViews converts tickets, rendering relative times against now.
func NewTicketViews(tickets []domain.Ticket, now time.Time) []TicketView {
	views := make([]TicketView, 0, len(tickets))
	for _, t := range tickets {
		v := TicketView{
			ID:              t.ID,
			Title:           t.Title,
			DescriptionHTML: RenderMarkdown(t.Description),
			Priority:        string(t.Priority),
			PriorityClass:   priorityClass(t.Priority),
			Status:          string(t.Status),
			StatusClass:     statusClass(t.Status),
			CreatedAt:       t.CreatedAt.In(time.Local).Format(TimeLayout),
			CreatedAgo:      timeago.English.FormatReference(t.CreatedAt, now),
			CanAdvance:      t.Status != domain.TicketStatusInProgress,
			CanResolve:      t.Status != domain.TicketStatusResolved,
		}
		if t.AssignedUserID != nil {
			v.Assigned = true
			v.AssignedUserID = *t.AssignedUserID
		}
		views = append(views, v)
	}
	return views
}

// WithAssignees fills AssigneeName from names keyed by user id.
func WithAssignees(views []TicketView, names map[int64]string) []TicketView {
	for i := range views {
		if views[i].Assigned {
			views[i].AssigneeName = names[views[i].AssignedUserID]
		}
	}
	return views
}

// RenderMarkdown converts a description to sanitized HTML. When conversion
// fails the escaped source is returned.
func RenderMarkdown(source string) string {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(source), &buf); err != nil {
		return html.EscapeString(source)
	}
	return string(sanitizer.SanitizeBytes(buf.Bytes()))
}

func priorityClass(p domain.TicketPriority) string {
	switch p {
	case domain.TicketPriorityHigh:
		return "danger"
	case domain.TicketPriorityLow:
		return "secondary"
	default:
		return "warning"
	}
}

func statusClass(s domain.TicketStatus) string {
	switch s {
	case domain.TicketStatusInProgress:
		return "info"
	case domain.TicketStatusResolved:
		return "success"
	default:
		return "secondary"
	}
}
