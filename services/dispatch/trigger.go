package dispatch

import (
	"context"

	"github.com/citywatch/alerts/identity"
	"github.com/citywatch/alerts/models"
	"github.com/citywatch/alerts/services/notify"
)

const (
	TaskNotifyNew      = "notify-new"
	TaskNotifyResolved = "notify-resolved"
)

type Notifier interface {
	Notify(ctx context.Context, id identity.Identity, req notify.Request) (notify.Report, error)
}

// Trigger schedules the email fan-out after an issue is created or resolved.
// The issue action has already committed; a notification failure is logged
// by the dispatcher and never reaches the caller.
type Trigger struct {
	dispatcher Dispatcher
	notifier   Notifier
}

func NewTrigger(dispatcher Dispatcher, notifier Notifier) *Trigger {
	return &Trigger{dispatcher: dispatcher, notifier: notifier}
}

func (t *Trigger) IssueCreated(id identity.Identity, issue *models.Issue) {
	t.fire(TaskNotifyNew, id, models.AlertNewIssue, issue)
}

func (t *Trigger) IssueResolved(id identity.Identity, issue *models.Issue) {
	t.fire(TaskNotifyResolved, id, models.AlertResolved, issue)
}

func (t *Trigger) fire(name string, id identity.Identity, kind models.AlertKind, issue *models.Issue) {
	req := notify.Request{
		Kind:    kind,
		City:    issue.City,
		IssueID: issue.ID,
		Title:   issue.Title,
		Type:    issue.Type,
	}
	t.dispatcher.Dispatch(name, func(ctx context.Context) error {
		_, err := t.notifier.Notify(ctx, id, req)
		return err
	})
}
