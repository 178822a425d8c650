// SPDX-License-Identifier: GPL-3.0-or-later
package triage

import (
	"context"
	"errors"
	"fmt"
	"io/ioutil"
	"testing"

	"github.com/CrawX/go-mail-receptionist/domain"
	"github.com/CrawX/go-mail-receptionist/domain/mocks"
	"github.com/CrawX/go-mail-receptionist/log"
	"github.com/golang/mock/gomock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	TEST_FOLDER   = "Impfanfragen"
	TEST_TAG      = "Impfanfrage"
	TEST_TEMPLATE = "Vielen Dank, wir melden uns."
)

var EXAMPLES = &domain.ExampleSet{
	Positive: []domain.Vector{{1, 0}},
	Negative: []domain.Vector{{0, 1}},
}

type fixture struct {
	ctrl       *gomock.Controller
	opener     *mocks.MockMailboxOpener
	session    *mocks.MockMailboxSession
	corpus     *mocks.MockExampleCorpus
	embedder   *mocks.MockEmbedder
	classifier *mocks.MockClassifier
	responder  *mocks.MockResponder
	guard      *mocks.MockSpamChecker
	notifier   *mocks.MockNotifier
	triage     *Triage
}

func setup(t *testing.T, cfg *configuration) *fixture {
	ctrl := gomock.NewController(t)
	f := &fixture{
		ctrl:       ctrl,
		opener:     mocks.NewMockMailboxOpener(ctrl),
		session:    mocks.NewMockMailboxSession(ctrl),
		corpus:     mocks.NewMockExampleCorpus(ctrl),
		embedder:   mocks.NewMockEmbedder(ctrl),
		classifier: mocks.NewMockClassifier(ctrl),
		responder:  mocks.NewMockResponder(ctrl),
		guard:      mocks.NewMockSpamChecker(ctrl),
		notifier:   mocks.NewMockNotifier(ctrl),
	}

	if cfg.SourceFolder == "" {
		cfg.SourceFolder = DefaultSourceFolder
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = DefaultThreshold
	}

	f.triage = &Triage{
		opener:        f.opener,
		corpus:        f.corpus,
		embedder:      f.embedder,
		classifier:    f.classifier,
		responder:     f.responder,
		configuration: cfg,
		l:             nullLogger(),
	}
	return f
}

func (f *fixture) expectCycle(messages ...*domain.Message) {
	f.opener.EXPECT().Open(gomock.Any()).Return(f.session, nil)
	f.corpus.EXPECT().Build(gomock.Any(), f.session).Return(EXAMPLES, nil)
	f.session.EXPECT().FetchUnseen(DefaultSourceFolder).Return(messages, nil)
	f.session.EXPECT().Close().Return(nil)
}

func (f *fixture) expectDecision(msg *domain.Message, positive bool) {
	vector := domain.Vector{float32(msg.Uid)}
	f.embedder.EXPECT().
		Embed(gomock.Any(), gomock.Eq(msg.Subject+" "+msg.Body)).
		Return(vector, nil)

	score := 10.0
	if positive {
		score = 80
	}
	f.classifier.EXPECT().
		Decide(gomock.Eq(vector), EXAMPLES, gomock.Eq(float64(DefaultThreshold))).
		Return(&domain.Decision{Score: score, IsPositive: positive}, nil)
}

func request(uid uint32) *domain.Message {
	return &domain.Message{
		Uid:       uid,
		Folder:    DefaultSourceFolder,
		MessageId: fmt.Sprintf("%d@example.org", uid),
		Subject:   "Impftermin",
		Body:      fmt.Sprintf("Bitte um Impftermin %d", uid),
		From:      "anna@example.org",
		Raw:       []byte{byte(uid)},
	}
}

func other(uid uint32) *domain.Message {
	return &domain.Message{
		Uid:       uid,
		Folder:    DefaultSourceFolder,
		MessageId: fmt.Sprintf("%d@example.org", uid),
		Subject:   "Rechnung",
		Body:      fmt.Sprintf("Rechnung %d anbei", uid),
		From:      "buchhaltung@example.org",
	}
}

func tagged(msg *domain.Message) *domain.Message {
	copied := *msg
	copied.Uid = 0
	copied.Folder = TEST_FOLDER
	copied.Subject = "[" + TEST_TAG + "] " + msg.Subject
	return &copied
}

func TestNewTriage(t *testing.T) {
	log.InitLogging("error")
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tests := []struct {
		name      string
		responder domain.Responder
		cfgs      []ConfigFunc
		err       string
	}{
		{"move", nil, []ConfigFunc{MoveTo(TEST_FOLDER)}, ""},
		{"tag with reply", mocks.NewMockResponder(ctrl), []ConfigFunc{Tag(TEST_TAG), AutoReply(TEST_TEMPLATE)}, ""},
		{"no action", nil, []ConfigFunc{}, "error applying configuration: invalid configuration: MoveTo or Tag must be set"},
		{"threshold", nil, []ConfigFunc{MoveTo(TEST_FOLDER), Threshold(101)}, "error applying configuration: Threshold must be between 0 and 100, got 101"},
		{"reply without responder", nil, []ConfigFunc{MoveTo(TEST_FOLDER), AutoReply(TEST_TEMPLATE)}, "error applying configuration: invalid configuration: AutoReply needs a responder"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			triage, err := NewTriage(nil, nil, nil, nil, tc.responder, tc.cfgs...)
			if len(tc.err) == 0 {
				assert.NotNil(t, triage)
				assert.NoError(t, err)
				assert.Equal(t, DefaultSourceFolder, triage.configuration.SourceFolder)
				assert.Equal(t, float64(DefaultThreshold), triage.configuration.Threshold)
			} else {
				assert.Nil(t, triage)
				assert.EqualError(t, err, tc.err)
			}
		})
	}
}

func TestTriage_RunCycleTagAndReply(t *testing.T) {
	f := setup(t, &configuration{MoveTo: TEST_FOLDER, Tag: TEST_TAG, AutoReply: true, ReplyTemplate: TEST_TEMPLATE})
	defer f.ctrl.Finish()
	f.triage.configuration.Notifier = f.notifier

	req, oth := request(1), other(2)
	f.expectCycle(req, oth)
	f.expectDecision(req, true)
	f.expectDecision(oth, false)

	gomock.InOrder(
		f.responder.EXPECT().Send(gomock.Any(), req, TEST_TEMPLATE).Return(nil),
		f.session.EXPECT().MarkAnswered(req).Return(nil),
		f.session.EXPECT().TagSubject(req, TEST_TAG, TEST_FOLDER).Return(tagged(req), nil),
		f.session.EXPECT().MarkProcessed(tagged(req)).Return(nil),
	)
	f.session.EXPECT().MarkProcessed(oth).Return(nil)
	f.notifier.EXPECT().
		Notify(gomock.Any(), gomock.Any()).
		Do(func(ctx context.Context, report *domain.CycleReport) {
			assert.Equal(t, []string{"Impftermin"}, report.PositiveSubjects)
		}).
		Return(nil)

	states := []domain.CycleState{}
	report, err := f.triage.RunCycle(context.Background(), func(state domain.CycleState) {
		states = append(states, state)
	})
	require.NoError(t, err)

	assert.Equal(t, []domain.CycleState{
		domain.StateConnecting,
		domain.StateFetchingExamples,
		domain.StateFetchingMessages,
		domain.StateClassifying,
		domain.StateActing,
	}, states)
	assert.NotEmpty(t, report.CycleId)
	assert.Equal(t, 2, report.Checked)
	assert.Equal(t, 1, report.Positive)
	assert.Equal(t, 1, report.Tagged)
	assert.Equal(t, 1, report.Moved)
	assert.Equal(t, 1, report.Replied)
	assert.Equal(t, 0, report.Failed)
}

func TestTriage_RunCycleMoveOnly(t *testing.T) {
	f := setup(t, &configuration{MoveTo: TEST_FOLDER})
	defer f.ctrl.Finish()

	req := request(1)
	movedReq := *req
	movedReq.Folder = TEST_FOLDER
	movedReq.Uid = 0

	f.expectCycle(req)
	f.expectDecision(req, true)
	gomock.InOrder(
		f.session.EXPECT().Move(req, TEST_FOLDER).Return(&movedReq, nil),
		f.session.EXPECT().MarkProcessed(&movedReq).Return(nil),
	)

	report, err := f.triage.RunCycle(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Moved)
	assert.Equal(t, 0, report.Tagged)
	assert.Equal(t, 0, report.Replied)
}

func TestTriage_RunCycleTagInPlace(t *testing.T) {
	f := setup(t, &configuration{Tag: TEST_TAG})
	defer f.ctrl.Finish()

	req := request(1)
	inPlace := tagged(req)
	inPlace.Folder = DefaultSourceFolder

	f.expectCycle(req)
	f.expectDecision(req, true)
	gomock.InOrder(
		f.session.EXPECT().TagSubject(req, TEST_TAG, "").Return(inPlace, nil),
		f.session.EXPECT().MarkProcessed(inPlace).Return(nil),
	)

	report, err := f.triage.RunCycle(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Tagged)
	assert.Equal(t, 0, report.Moved)
}

func TestTriage_RunCycleReplySkipped(t *testing.T) {
	tests := []struct {
		name   string
		modify func(msg *domain.Message)
		guard  *domain.SpamResult
	}{
		{"auto submitted", func(msg *domain.Message) { msg.AutoSubmitted = true }, nil},
		{"answered", func(msg *domain.Message) { msg.Flags = []string{"\\Answered"} }, nil},
		{"spam", func(msg *domain.Message) {}, &domain.SpamResult{IsSpam: true, Score: 12.5}},
		{"guard error", func(msg *domain.Message) {}, &domain.SpamResult{Error: errors.New("connection refused")}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := setup(t, &configuration{MoveTo: TEST_FOLDER, Tag: TEST_TAG, AutoReply: true, ReplyTemplate: TEST_TEMPLATE})
			defer f.ctrl.Finish()

			req := request(1)
			tc.modify(req)
			if tc.guard != nil {
				f.triage.configuration.ReplyGuard = f.guard
				f.guard.EXPECT().Check(gomock.Any(), req.Raw).Return(tc.guard)
			}

			f.expectCycle(req)
			f.expectDecision(req, true)
			f.session.EXPECT().TagSubject(req, TEST_TAG, TEST_FOLDER).Return(tagged(req), nil)
			f.session.EXPECT().MarkProcessed(tagged(req)).Return(nil)

			report, err := f.triage.RunCycle(context.Background(), nil)
			require.NoError(t, err)
			assert.Equal(t, 0, report.Replied)
			assert.Equal(t, 1, report.Tagged)
		})
	}
}

func TestTriage_RunCycleReplyFailureStillMarks(t *testing.T) {
	f := setup(t, &configuration{MoveTo: TEST_FOLDER, AutoReply: true, ReplyTemplate: TEST_TEMPLATE})
	defer f.ctrl.Finish()
	f.triage.configuration.ReplyGuard = f.guard

	req := request(1)
	movedReq := tagged(req)
	movedReq.Subject = req.Subject

	f.expectCycle(req)
	f.expectDecision(req, true)
	gomock.InOrder(
		f.guard.EXPECT().Check(gomock.Any(), req.Raw).Return(&domain.SpamResult{IsSpam: false, Score: 0.4}),
		f.responder.EXPECT().Send(gomock.Any(), req, TEST_TEMPLATE).Return(errors.New("535 authentication failed")),
		f.session.EXPECT().Move(req, TEST_FOLDER).Return(movedReq, nil),
		f.session.EXPECT().MarkProcessed(movedReq).Return(nil),
	)

	report, err := f.triage.RunCycle(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Replied)
	assert.Equal(t, 1, report.Moved)
	assert.Equal(t, 0, report.Failed)
}

func TestTriage_RunCycleMessageLocalErrors(t *testing.T) {
	tests := []struct {
		name    string
		moveErr error
		failed  int
		skipped int
	}{
		{"gone", fmt.Errorf("could not move: %w", domain.ErrMessageGone), 0, 1},
		{"move error", errors.New("NO [TRYCREATE] folder does not exist"), 1, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := setup(t, &configuration{MoveTo: TEST_FOLDER})
			defer f.ctrl.Finish()

			first, second := request(1), request(2)
			movedSecond := *second
			movedSecond.Folder = TEST_FOLDER

			f.expectCycle(first, second)
			f.expectDecision(first, true)
			f.expectDecision(second, true)

			f.session.EXPECT().Move(first, TEST_FOLDER).Return(nil, tc.moveErr)
			f.session.EXPECT().Move(second, TEST_FOLDER).Return(&movedSecond, nil)
			f.session.EXPECT().MarkProcessed(&movedSecond).Return(nil)

			report, err := f.triage.RunCycle(context.Background(), nil)
			require.NoError(t, err)
			assert.Equal(t, 2, report.Positive)
			assert.Equal(t, 1, report.Moved)
			assert.Equal(t, tc.failed, report.Failed)
			assert.Equal(t, tc.skipped, report.Skipped)
		})
	}
}

func TestTriage_RunCycleEmbeddingFailure(t *testing.T) {
	f := setup(t, &configuration{MoveTo: TEST_FOLDER})
	defer f.ctrl.Finish()

	broken, oth := request(1), other(2)
	f.expectCycle(broken, oth)
	f.embedder.EXPECT().
		Embed(gomock.Any(), broken.Subject+" "+broken.Body).
		Return(nil, errors.New("429 too many requests")).
		Times(2)
	f.expectDecision(oth, false)
	f.session.EXPECT().MarkProcessed(oth).Return(nil)

	report, err := f.triage.RunCycle(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Checked)
	assert.Equal(t, 0, report.Positive)
	assert.Equal(t, 1, report.Failed)
}

func TestTriage_RunCycleDryRun(t *testing.T) {
	f := setup(t, &configuration{DryRun: true, MoveTo: TEST_FOLDER, Tag: TEST_TAG, AutoReply: true, ReplyTemplate: TEST_TEMPLATE})
	defer f.ctrl.Finish()
	f.triage.configuration.Notifier = f.notifier

	req, oth := request(1), other(2)
	f.expectCycle(req, oth)
	f.expectDecision(req, true)
	f.expectDecision(oth, false)
	f.responder.EXPECT().Send(gomock.Any(), req, TEST_TEMPLATE).Return(nil)

	report, err := f.triage.RunCycle(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Positive)
	assert.Equal(t, 1, report.Replied)
	assert.Equal(t, 0, report.Tagged)
	assert.Equal(t, 0, report.Moved)
}

func TestTriage_RunCycleNoNewMails(t *testing.T) {
	f := setup(t, &configuration{MoveTo: TEST_FOLDER})
	defer f.ctrl.Finish()
	f.triage.configuration.Notifier = f.notifier

	f.expectCycle()

	report, err := f.triage.RunCycle(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Checked)
}

func TestTriage_RunCycleAborts(t *testing.T) {
	tests := []struct {
		name   string
		expect func(f *fixture)
		err    string
	}{
		{
			"connect",
			func(f *fixture) {
				f.opener.EXPECT().Open(gomock.Any()).Return(nil, errors.New("could not connect to mailbox: dial tcp: i/o timeout"))
			},
			"could not connect to mailbox: dial tcp: i/o timeout",
		},
		{
			"examples",
			func(f *fixture) {
				f.opener.EXPECT().Open(gomock.Any()).Return(f.session, nil)
				f.corpus.EXPECT().Build(gomock.Any(), f.session).Return(nil, fmt.Errorf("%w: no positive examples", domain.ErrEmptyExamples))
				f.session.EXPECT().Close().Return(nil)
			},
			"could not build example set: example set is empty: no positive examples",
		},
		{
			"fetch",
			func(f *fixture) {
				f.opener.EXPECT().Open(gomock.Any()).Return(f.session, nil)
				f.corpus.EXPECT().Build(gomock.Any(), f.session).Return(EXAMPLES, nil)
				f.session.EXPECT().FetchUnseen(DefaultSourceFolder).Return(nil, errors.New("connection reset by peer"))
				f.session.EXPECT().Close().Return(errors.New("already closed"))
			},
			"could not fetch new mails: connection reset by peer",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := setup(t, &configuration{MoveTo: TEST_FOLDER})
			defer f.ctrl.Finish()
			tc.expect(f)

			report, err := f.triage.RunCycle(context.Background(), nil)
			assert.EqualError(t, err, tc.err)
			require.NotNil(t, report)
			assert.Equal(t, 0, report.Checked)
		})
	}
}

func TestTriage_RunCycleCancelledBeforeStart(t *testing.T) {
	f := setup(t, &configuration{MoveTo: TEST_FOLDER})
	defer f.ctrl.Finish()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	states := []domain.CycleState{}
	_, err := f.triage.RunCycle(ctx, func(state domain.CycleState) {
		states = append(states, state)
	})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, []domain.CycleState{domain.StateConnecting}, states)
}

func TestTriage_RunCycleCancelledBetweenMails(t *testing.T) {
	f := setup(t, &configuration{MoveTo: TEST_FOLDER})
	defer f.ctrl.Finish()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first, second := other(1), request(2)
	f.expectCycle(first, second)
	f.expectDecision(first, false)
	f.expectDecision(second, true)

	// the second mail is neither moved nor marked and stays unseen
	f.session.EXPECT().
		MarkProcessed(first).
		Do(func(*domain.Message) { cancel() }).
		Return(nil)

	report, err := f.triage.RunCycle(ctx, nil)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 2, report.Checked)
	assert.Equal(t, 0, report.Moved)
}

func TestTriage_Preflight(t *testing.T) {
	f := setup(t, &configuration{MoveTo: TEST_FOLDER, ExampleFolders: []string{"Beispiele/Positiv", "Beispiele/Negativ"}})
	defer f.ctrl.Finish()

	gomock.InOrder(
		f.opener.EXPECT().Open(gomock.Any()).Return(f.session, nil),
		f.session.EXPECT().EnsureFolders(TEST_FOLDER, "Beispiele/Positiv", "Beispiele/Negativ").Return(nil),
		f.corpus.EXPECT().Build(gomock.Any(), f.session).Return(EXAMPLES, nil),
		f.session.EXPECT().Close().Return(nil),
	)

	assert.NoError(t, f.triage.Preflight(context.Background()))
}

func TestTriage_PreflightEmptyExamples(t *testing.T) {
	f := setup(t, &configuration{DryRun: true, Tag: TEST_TAG})
	defer f.ctrl.Finish()

	f.opener.EXPECT().Open(gomock.Any()).Return(f.session, nil)
	f.corpus.EXPECT().Build(gomock.Any(), f.session).Return(nil, fmt.Errorf("%w: no positive examples", domain.ErrEmptyExamples))
	f.session.EXPECT().Close().Return(nil)

	err := f.triage.Preflight(context.Background())
	assert.True(t, errors.Is(err, domain.ErrEmptyExamples))
}

func nullLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(ioutil.Discard)
	return logger
}
