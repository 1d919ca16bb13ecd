// internal/app/status_poller.go
package app

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"homework_status_bot/internal/domain/homework"
	"homework_status_bot/internal/domain/notification"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Dispatcher delivers one notification text.
type Dispatcher interface {
	Send(text string) error
	ChatID() int64
}

// PollState is the memory carried between cycles. It is only updated after a
// successful dispatch, so an interrupted cycle leaves it consistent.
type PollState struct {
	LastMessage string    // Last status notification actually delivered
	LastError   string    // Last error notification actually delivered
	Since       time.Time // from_date of the next request
	// ChangeSeen is set once Since has moved to a delivered change. From then
	// on an empty response means nothing changed, not a failure.
	ChangeSeen bool
}

// Outcome describes what a cycle did.
type Outcome string

const (
	OutcomeStatusSent       Outcome = "status_sent"
	OutcomeStatusSuppressed Outcome = "status_suppressed"
	OutcomeErrorSent        Outcome = "error_sent"
	OutcomeErrorSuppressed  Outcome = "error_suppressed"
	OutcomeDeliveryFailed   Outcome = "delivery_failed"
)

// CycleResult is returned by RunCycle.
type CycleResult struct {
	ID      string
	Outcome Outcome
	Message string // Candidate notification text
	Err     error  // Cycle failure or delivery failure
}

// StatusPoller fetches the review status, renders it and notifies on change.
// It is not safe for concurrent use; cycles must run one at a time.
type StatusPoller struct {
	source     homework.Source
	dispatcher Dispatcher
	journal    notification.Journal
	interval   time.Duration
	logger     *logrus.Entry

	state PollState
}

func NewStatusPoller(
	source homework.Source,
	dispatcher Dispatcher,
	journal notification.Journal, // may be nil
	interval time.Duration,
	state PollState,
	logger *logrus.Entry,
) *StatusPoller {
	if state.Since.IsZero() {
		state.Since = time.Now()
	}
	return &StatusPoller{
		source:     source,
		dispatcher: dispatcher,
		journal:    journal,
		interval:   interval,
		logger:     logger,
		state:      state,
	}
}

// State returns a copy of the current poll state.
func (p *StatusPoller) State() PollState {
	return p.state
}

// Run executes cycles separated by the poll interval until ctx is cancelled.
func (p *StatusPoller) Run(ctx context.Context) error {
	p.logger.WithField("interval", p.interval.String()).Info("Status poller started")
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Status poller stopped")
			return ctx.Err()
		case <-timer.C:
		}

		p.RunCycle(ctx)
		timer.Reset(p.interval)
	}
}

// RunCycle performs one fetch, validate, format and dispatch pass. Failures
// never escape: they are turned into error notifications.
func (p *StatusPoller) RunCycle(ctx context.Context) CycleResult {
	cycleID := uuid.NewString()
	logCtx := p.logger.WithField("cycle_id", cycleID)
	logCtx.Debug("Cycle started")

	resp, message, err := p.check(ctx)
	if err != nil {
		if homework.KindOf(err) == homework.KindEmptyResult && p.state.ChangeSeen {
			p.state.LastError = ""
			logCtx.Debug("No homework updated since the last change")
			return CycleResult{ID: cycleID, Outcome: OutcomeStatusSuppressed, Message: p.state.LastMessage}
		}
		return p.reportFailure(ctx, cycleID, logCtx, err)
	}

	// The failure condition, if any, has resolved.
	p.state.LastError = ""

	result := CycleResult{ID: cycleID, Message: message}
	if message == p.state.LastMessage {
		logCtx.Debug("Homework status did not change")
		result.Outcome = OutcomeStatusSuppressed
		return result
	}

	if err := p.dispatch(ctx, cycleID, notification.MessageKindStatus, message); err != nil {
		logCtx.WithError(err).Error("Status notification was not delivered, will retry next cycle")
		result.Outcome = OutcomeDeliveryFailed
		result.Err = err
		return result
	}

	p.state.LastMessage = message
	p.state.Since = resp.CurrentDate
	p.state.ChangeSeen = true
	logCtx.WithField("message", message).Info("Status change notification sent")
	result.Outcome = OutcomeStatusSent
	return result
}

func (p *StatusPoller) check(ctx context.Context) (*homework.Response, string, error) {
	body, err := p.source.FetchStatuses(ctx, p.state.Since)
	if err != nil {
		return nil, "", err
	}
	resp, err := homework.ValidateResponse(body)
	if err != nil {
		return nil, "", err
	}
	latest := resp.Latest()
	message, err := homework.FormatStatus(latest)
	if err != nil {
		return nil, "", err
	}
	return resp, message, nil
}

func (p *StatusPoller) reportFailure(ctx context.Context, cycleID string, logCtx *logrus.Entry, cycleErr error) CycleResult {
	kind := homework.KindOf(cycleErr)
	logCtx = logCtx.WithField("error_kind", kind).WithError(cycleErr)

	switch kind {
	case homework.KindTransport, homework.KindRemote, homework.KindEmptyResult:
		logCtx.Warn("Cycle failed")
	default:
		logCtx.Error("Cycle failed")
	}

	message := ErrorMessage(cycleErr)
	result := CycleResult{ID: cycleID, Message: message, Err: cycleErr}
	if message == p.state.LastError {
		logCtx.Debug("Error notification already sent")
		result.Outcome = OutcomeErrorSuppressed
		return result
	}

	if err := p.dispatch(ctx, cycleID, notification.MessageKindError, message); err != nil {
		logCtx.WithField("delivery_error", err.Error()).Error("Error notification was not delivered")
		result.Outcome = OutcomeDeliveryFailed
		result.Err = errors.Join(cycleErr, err)
		return result
	}

	p.state.LastError = message
	logCtx.WithField("message", message).Info("Error notification sent")
	result.Outcome = OutcomeErrorSent
	return result
}

// dispatch sends text and journals the attempt. Journal failures are logged
// and otherwise ignored.
func (p *StatusPoller) dispatch(ctx context.Context, cycleID string, kind notification.MessageKind, text string) error {
	sendErr := p.dispatcher.Send(text)
	if p.journal == nil {
		return sendErr
	}

	entry := &notification.Entry{
		CycleID:   cycleID,
		Kind:      kind,
		ChatID:    p.dispatcher.ChatID(),
		Message:   text,
		Delivered: sendErr == nil,
	}
	if sendErr != nil {
		entry.ErrorText = sql.NullString{String: sendErr.Error(), Valid: true}
	}
	if err := p.journal.Record(ctx, entry); err != nil {
		p.logger.WithField("cycle_id", cycleID).WithError(err).Warn("Failed to record notification in journal")
	}
	return sendErr
}

// ErrorMessage renders a cycle failure as notification text.
func ErrorMessage(err error) string {
	return "Program failure: " + err.Error()
}
