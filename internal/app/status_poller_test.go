package app

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"homework_status_bot/internal/domain/homework"
	"homework_status_bot/internal/domain/notification"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	approvedBody  = `{"current_date":1679996158,"homeworks":[{"homework_name":"X","status":"approved"}]}`
	reviewingBody = `{"current_date":1679990000,"homeworks":[{"homework_name":"X","status":"reviewing"}]}`
	emptyBody     = `{"current_date":1679996158,"homeworks":[]}`
	listBody      = `["current_date", 1679996158, "homeworks", []]`

	approvedMessage  = `Status of review for "X" changed. Работа проверена: ревьюеру всё понравилось. Ура!`
	reviewingMessage = `Status of review for "X" changed. Работа взята на проверку ревьюером.`
)

type fetchReply struct {
	body string
	err  error
}

type fakeSource struct {
	mu      sync.Mutex
	replies []fetchReply
	calls   []time.Time
}

// FetchStatuses returns the queued replies in order and repeats the last one.
func (f *fakeSource) FetchStatuses(_ context.Context, since time.Time) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, since)
	reply := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	if reply.err != nil {
		return nil, reply.err
	}
	return []byte(reply.body), nil
}

type fakeDispatcher struct {
	mu   sync.Mutex
	sent []string
	fail bool
}

func (d *fakeDispatcher) Send(text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail {
		return &homework.DeliveryError{Err: errors.New("network is down")}
	}
	d.sent = append(d.sent, text)
	return nil
}

func (d *fakeDispatcher) ChatID() int64 { return 42 }

func (d *fakeDispatcher) Sent() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.sent...)
}

type fakeJournal struct {
	entries []*notification.Entry
	err     error
}

func (j *fakeJournal) Record(_ context.Context, e *notification.Entry) error {
	j.entries = append(j.entries, e)
	return j.err
}

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func newTestPoller(source *fakeSource, dispatcher *fakeDispatcher, journal notification.Journal, state PollState) *StatusPoller {
	return NewStatusPoller(source, dispatcher, journal, time.Millisecond, state, testLogger())
}

func TestRunCycle_ApprovedScenario(t *testing.T) {
	source := &fakeSource{replies: []fetchReply{{body: approvedBody}}}
	dispatcher := &fakeDispatcher{}
	poller := newTestPoller(source, dispatcher, nil, PollState{})

	result := poller.RunCycle(context.Background())

	assert.Equal(t, OutcomeStatusSent, result.Outcome)
	assert.NoError(t, result.Err)
	assert.NotEmpty(t, result.ID)
	assert.Equal(t, []string{approvedMessage}, dispatcher.Sent())
	assert.Equal(t, approvedMessage, poller.State().LastMessage)
	assert.Equal(t, time.Unix(1679996158, 0), poller.State().Since)
}

func TestRunCycle_SameStatusIsSuppressed(t *testing.T) {
	source := &fakeSource{replies: []fetchReply{{body: reviewingBody}}}
	dispatcher := &fakeDispatcher{}
	poller := newTestPoller(source, dispatcher, nil, PollState{})

	first := poller.RunCycle(context.Background())
	second := poller.RunCycle(context.Background())

	assert.Equal(t, OutcomeStatusSent, first.Outcome)
	assert.Equal(t, OutcomeStatusSuppressed, second.Outcome)
	assert.Equal(t, []string{reviewingMessage}, dispatcher.Sent())
}

func TestRunCycle_StatusChangeIsSent(t *testing.T) {
	source := &fakeSource{replies: []fetchReply{{body: reviewingBody}, {body: approvedBody}}}
	dispatcher := &fakeDispatcher{}
	poller := newTestPoller(source, dispatcher, nil, PollState{})

	poller.RunCycle(context.Background())
	poller.RunCycle(context.Background())

	assert.Equal(t, []string{reviewingMessage, approvedMessage}, dispatcher.Sent())
}

func TestRunCycle_InjectedStateSuppresses(t *testing.T) {
	source := &fakeSource{replies: []fetchReply{{body: approvedBody}}}
	dispatcher := &fakeDispatcher{}
	poller := newTestPoller(source, dispatcher, nil, PollState{LastMessage: approvedMessage})

	result := poller.RunCycle(context.Background())

	assert.Equal(t, OutcomeStatusSuppressed, result.Outcome)
	assert.Empty(t, dispatcher.Sent())
}

func TestRunCycle_FetchesSinceStartThenLastChange(t *testing.T) {
	start := time.Unix(1679000000, 0)
	source := &fakeSource{replies: []fetchReply{{body: approvedBody}, {body: emptyBody}}}
	poller := newTestPoller(source, &fakeDispatcher{}, nil, PollState{Since: start})

	assert.Equal(t, OutcomeStatusSent, poller.RunCycle(context.Background()).Outcome)
	assert.Equal(t, OutcomeStatusSuppressed, poller.RunCycle(context.Background()).Outcome)

	require.Len(t, source.calls, 2)
	assert.Equal(t, start, source.calls[0])
	assert.Equal(t, time.Unix(1679996158, 0), source.calls[1])
}

func TestNewStatusPoller_DefaultsSinceToNow(t *testing.T) {
	before := time.Now()
	poller := newTestPoller(&fakeSource{}, &fakeDispatcher{}, nil, PollState{})
	assert.False(t, poller.State().Since.Before(before))
}

func TestRunCycle_ListBodyScenario(t *testing.T) {
	source := &fakeSource{replies: []fetchReply{{body: listBody}}}
	dispatcher := &fakeDispatcher{}
	poller := newTestPoller(source, dispatcher, nil, PollState{})

	result := poller.RunCycle(context.Background())

	assert.Equal(t, OutcomeErrorSent, result.Outcome)
	assert.Equal(t, homework.KindShape, homework.KindOf(result.Err))
	sent := dispatcher.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, ErrorMessage(result.Err), sent[0])
	assert.Empty(t, poller.State().LastMessage)
}

func TestRunCycle_EmptyHomeworksScenario(t *testing.T) {
	source := &fakeSource{replies: []fetchReply{{body: emptyBody}, {body: emptyBody}, {body: approvedBody}}}
	dispatcher := &fakeDispatcher{}
	poller := newTestPoller(source, dispatcher, nil, PollState{})

	first := poller.RunCycle(context.Background())
	second := poller.RunCycle(context.Background())
	third := poller.RunCycle(context.Background())

	assert.Equal(t, OutcomeErrorSent, first.Outcome)
	assert.Equal(t, homework.KindEmptyResult, homework.KindOf(first.Err))
	assert.Equal(t, OutcomeErrorSuppressed, second.Outcome)
	assert.Equal(t, OutcomeStatusSent, third.Outcome)
	assert.Equal(t, []string{"Program failure: no homeworks found in the response", approvedMessage}, dispatcher.Sent())
}

func TestRunCycle_ErrorDedupIsIndependentOfStatusDedup(t *testing.T) {
	unavailable := &homework.RemoteError{StatusCode: 503}
	source := &fakeSource{replies: []fetchReply{
		{err: unavailable},
		{err: unavailable},
		{err: &homework.RemoteError{StatusCode: 500}},
	}}
	dispatcher := &fakeDispatcher{}
	poller := newTestPoller(source, dispatcher, nil, PollState{LastMessage: approvedMessage})

	outcomes := []Outcome{
		poller.RunCycle(context.Background()).Outcome,
		poller.RunCycle(context.Background()).Outcome,
		poller.RunCycle(context.Background()).Outcome,
	}

	assert.Equal(t, []Outcome{OutcomeErrorSent, OutcomeErrorSuppressed, OutcomeErrorSent}, outcomes)
	assert.Equal(t, []string{
		"Program failure: unexpected status code in response: 503",
		"Program failure: unexpected status code in response: 500",
	}, dispatcher.Sent())
	assert.Equal(t, approvedMessage, poller.State().LastMessage)
}

func TestRunCycle_ErrorNotifiedAgainAfterRecovery(t *testing.T) {
	down := &homework.TransportError{Err: errors.New("dial tcp: connection refused")}
	source := &fakeSource{replies: []fetchReply{{err: down}, {body: approvedBody}, {err: down}}}
	dispatcher := &fakeDispatcher{}
	poller := newTestPoller(source, dispatcher, nil, PollState{})

	poller.RunCycle(context.Background())
	poller.RunCycle(context.Background())
	result := poller.RunCycle(context.Background())

	assert.Equal(t, OutcomeErrorSent, result.Outcome)
	assert.Len(t, dispatcher.Sent(), 3)
}

func TestRunCycle_UnknownVerdictIsNotFatal(t *testing.T) {
	source := &fakeSource{replies: []fetchReply{
		{body: `{"current_date":1679996158,"homeworks":[{"homework_name":"X","status":"on_hold"}]}`},
		{body: approvedBody},
	}}
	dispatcher := &fakeDispatcher{}
	poller := newTestPoller(source, dispatcher, nil, PollState{})

	first := poller.RunCycle(context.Background())
	second := poller.RunCycle(context.Background())

	assert.Equal(t, homework.KindUnknownVerdict, homework.KindOf(first.Err))
	assert.Equal(t, OutcomeErrorSent, first.Outcome)
	assert.Equal(t, OutcomeStatusSent, second.Outcome)
}

func TestRunCycle_DeliveryFailureKeepsMessagePending(t *testing.T) {
	source := &fakeSource{replies: []fetchReply{{body: approvedBody}}}
	dispatcher := &fakeDispatcher{fail: true}
	poller := newTestPoller(source, dispatcher, nil, PollState{})

	failed := poller.RunCycle(context.Background())
	assert.Equal(t, OutcomeDeliveryFailed, failed.Outcome)
	assert.Equal(t, homework.KindDelivery, homework.KindOf(failed.Err))
	assert.Empty(t, poller.State().LastMessage)

	dispatcher.fail = false
	retried := poller.RunCycle(context.Background())
	assert.Equal(t, OutcomeStatusSent, retried.Outcome)
	assert.Equal(t, []string{approvedMessage}, dispatcher.Sent())
}

func TestRunCycle_ErrorDeliveryFailureKeepsErrorPending(t *testing.T) {
	source := &fakeSource{replies: []fetchReply{{body: emptyBody}}}
	dispatcher := &fakeDispatcher{fail: true}
	poller := newTestPoller(source, dispatcher, nil, PollState{})

	failed := poller.RunCycle(context.Background())
	assert.Equal(t, OutcomeDeliveryFailed, failed.Outcome)
	assert.Equal(t, homework.KindEmptyResult, homework.KindOf(failed.Err))
	assert.Empty(t, poller.State().LastError)

	dispatcher.fail = false
	assert.Equal(t, OutcomeErrorSent, poller.RunCycle(context.Background()).Outcome)
	assert.Equal(t, OutcomeErrorSuppressed, poller.RunCycle(context.Background()).Outcome)
}

func TestRunCycle_JournalsEveryAttempt(t *testing.T) {
	source := &fakeSource{replies: []fetchReply{{body: emptyBody}, {body: approvedBody}, {body: approvedBody}}}
	dispatcher := &fakeDispatcher{}
	journal := &fakeJournal{err: errors.New("database is down")}
	poller := newTestPoller(source, dispatcher, journal, PollState{})

	errResult := poller.RunCycle(context.Background())
	dispatcher.fail = true
	poller.RunCycle(context.Background())
	dispatcher.fail = false
	okResult := poller.RunCycle(context.Background())

	require.Len(t, journal.entries, 3)
	assert.Equal(t, notification.MessageKindError, journal.entries[0].Kind)
	assert.Equal(t, errResult.ID, journal.entries[0].CycleID)
	assert.True(t, journal.entries[0].Delivered)

	assert.Equal(t, notification.MessageKindStatus, journal.entries[1].Kind)
	assert.False(t, journal.entries[1].Delivered)
	assert.True(t, journal.entries[1].ErrorText.Valid)

	assert.True(t, journal.entries[2].Delivered)
	assert.Equal(t, okResult.ID, journal.entries[2].CycleID)
	assert.Equal(t, int64(42), journal.entries[2].ChatID)
	assert.Equal(t, OutcomeStatusSent, okResult.Outcome, "journal failures must not affect delivery")
}

func TestRun_StopsOnCancel(t *testing.T) {
	source := &fakeSource{replies: []fetchReply{{body: reviewingBody}}}
	dispatcher := &fakeDispatcher{}
	poller := newTestPoller(source, dispatcher, nil, PollState{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- poller.Run(ctx) }()

	require.Eventually(t, func() bool {
		source.mu.Lock()
		defer source.mu.Unlock()
		return len(source.calls) >= 3
	}, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, []string{reviewingMessage}, dispatcher.Sent())
}

func TestRunCycle_EmptyAfterDeliveredChangeMeansNoChange(t *testing.T) {
	start := time.Unix(1679000000, 0)
	source := &fakeSource{replies: []fetchReply{
		{body: approvedBody}, {body: emptyBody}, {body: approvedBody}, {body: emptyBody},
	}}
	dispatcher := &fakeDispatcher{}
	poller := newTestPoller(source, dispatcher, nil, PollState{Since: start})

	var outcomes []Outcome
	for i := 0; i < 4; i++ {
		result := poller.RunCycle(context.Background())
		assert.NoError(t, result.Err)
		outcomes = append(outcomes, result.Outcome)
	}

	assert.Equal(t, []Outcome{OutcomeStatusSent, OutcomeStatusSuppressed, OutcomeStatusSuppressed, OutcomeStatusSuppressed}, outcomes)
	assert.Equal(t, []string{approvedMessage}, dispatcher.Sent())
	require.Len(t, source.calls, 4)
	assert.Equal(t, start, source.calls[0])
	assert.Equal(t, time.Unix(1679996158, 0), source.calls[1])
	assert.Empty(t, poller.State().LastError)
}

func TestRunCycle_EmptyAfterChangeClearsPendingError(t *testing.T) {
	source := &fakeSource{replies: []fetchReply{
		{err: &homework.RemoteError{StatusCode: 502}}, {body: emptyBody}, {err: &homework.RemoteError{StatusCode: 502}},
	}}
	dispatcher := &fakeDispatcher{}
	poller := newTestPoller(source, dispatcher, nil, PollState{LastMessage: approvedMessage, Since: time.Unix(1679996158, 0), ChangeSeen: true})

	assert.Equal(t, OutcomeErrorSent, poller.RunCycle(context.Background()).Outcome)
	assert.Equal(t, OutcomeStatusSuppressed, poller.RunCycle(context.Background()).Outcome)
	assert.Equal(t, OutcomeErrorSent, poller.RunCycle(context.Background()).Outcome)
	assert.Len(t, dispatcher.Sent(), 2)
}
