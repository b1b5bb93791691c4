package pipeline

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-autopilot/internal/discovery"
	"github.com/jonathan/job-autopilot/internal/session"
	"github.com/jonathan/job-autopilot/internal/types"
)

type fakeSearch struct {
	jobs []types.JobCandidate
	err  error
}

func (f *fakeSearch) Search(_ context.Context, _, _ string, _ int) ([]types.JobCandidate, error) {
	return f.jobs, f.err
}

type fakeTailor struct {
	failJobs map[string]bool
}

func (f *fakeTailor) TailorCV(_ context.Context, profile *types.CandidateProfile, job types.JobCandidate) (*types.CVResult, error) {
	if f.failJobs[job.JobID] {
		return nil, fmt.Errorf("generation failed for %s", job.JobID)
	}
	return &types.CVResult{
		JobID:    job.JobID,
		CV:       &types.TailoredCV{Name: profile.Name, Summary: "Tailored for " + job.Company},
		ATSScore: types.ATSScore{Overall: 85},
	}, nil
}

type fakeDiscovery struct {
	emails map[string]string // domain -> address
}

func (f *fakeDiscovery) SearchDomain(_ context.Context, domain string) ([]discovery.Candidate, error) {
	email, ok := f.emails[domain]
	if !ok {
		return nil, nil
	}
	return []discovery.Candidate{{Email: email, Confidence: 80, Department: "Human Resources"}}, nil
}

func (f *fakeDiscovery) VerifyEmail(_ context.Context, _ string) (types.VerifyResult, error) {
	return types.VerifyDeliverable, nil
}

type fakeDrafter struct {
	estimateErr error
}

func (f *fakeDrafter) DraftEmail(_ context.Context, _ *types.CandidateProfile, job types.JobCandidate, _ string) (string, string, error) {
	return "Application for " + job.Title, "Dear team at " + job.Company, nil
}

func (f *fakeDrafter) EstimateHREmail(_ context.Context, _, domain string) (string, error) {
	if f.estimateErr != nil {
		return "", f.estimateErr
	}
	return "careers@" + domain, nil
}

type fakeSender struct {
	mu   sync.Mutex
	sent []types.EmailDraft
	fail map[string]bool // recipient -> fail
}

func (f *fakeSender) Send(_ context.Context, draft types.EmailDraft) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[draft.HREmail] {
		return fmt.Errorf("smtp rejected %s", draft.HREmail)
	}
	f.sent = append(f.sent, draft)
	return nil
}

func (f *fakeSender) sentDrafts() []types.EmailDraft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.EmailDraft(nil), f.sent...)
}

func testProfile() *types.CandidateProfile {
	return &types.CandidateProfile{Name: "Jane Doe", Email: "jane@example.com", Skills: []string{"Go"}}
}

func testJobs() []types.JobCandidate {
	return []types.JobCandidate{
		{JobID: "j1", Title: "Backend Engineer", Company: "Acme Co"},
		{JobID: "j2", Title: "Platform Engineer", Company: "Initech"},
	}
}

func newTestController(deps Deps) (*Controller, *session.Store) {
	store := session.NewStore()
	if deps.Discover == nil {
		deps.Discover = discovery.NewService(&fakeDiscovery{emails: map[string]string{
			"acme.com": "hr@acme.com",
		}})
	}
	return NewController(store, deps), store
}

func waitForState(t *testing.T, c *Controller, ownerID uuid.UUID, want types.State) *types.PipelineSession {
	t.Helper()
	var sess *types.PipelineSession
	require.Eventually(t, func() bool {
		sess = c.Status(ownerID)
		return sess != nil && sess.State == want
	}, 3*time.Second, 5*time.Millisecond, "session never reached %s", want)
	return sess
}

func TestStart_Validation(t *testing.T) {
	c, _ := newTestController(Deps{Search: &fakeSearch{}, Tailor: &fakeTailor{}, Drafter: &fakeDrafter{}})
	ownerID := uuid.New()

	_, err := c.Start(ownerID, nil, "Engineer", "Berlin", 0)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "profile", vErr.Field)

	_, err = c.Start(ownerID, testProfile(), " ", "Berlin", 0)
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "role", vErr.Field)

	_, err = c.Start(ownerID, testProfile(), "Engineer", "", 0)
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "location", vErr.Field)

	// No session was created by any rejected request.
	assert.Nil(t, c.Status(ownerID))
}

func TestStart_RejectsSecondRun(t *testing.T) {
	c, _ := newTestController(Deps{
		Search:  &fakeSearch{jobs: testJobs()},
		Tailor:  &fakeTailor{},
		Drafter: &fakeDrafter{},
	})
	ownerID := uuid.New()

	_, err := c.Start(ownerID, testProfile(), "Engineer", "Berlin", 0)
	require.NoError(t, err)

	_, err = c.Start(ownerID, testProfile(), "Engineer", "Berlin", 0)
	var busy *session.ErrBusy
	require.ErrorAs(t, err, &busy)
}

func TestPipeline_NoJobsFound(t *testing.T) {
	c, _ := newTestController(Deps{
		Search:  &fakeSearch{jobs: nil},
		Tailor:  &fakeTailor{},
		Drafter: &fakeDrafter{},
	})
	ownerID := uuid.New()

	_, err := c.Start(ownerID, testProfile(), "Engineer", "Atlantis", 0)
	require.NoError(t, err)

	sess := waitForState(t, c, ownerID, types.StateError)
	assert.Contains(t, sess.Error, "no jobs found")

	// The error is terminal, so a retry with new inputs succeeds without
	// an explicit reset.
	_, err = c.Start(ownerID, testProfile(), "Engineer", "Berlin", 0)
	require.NoError(t, err)
}

func TestPipeline_SearchFailureIsFatal(t *testing.T) {
	c, _ := newTestController(Deps{
		Search:  &fakeSearch{err: fmt.Errorf("provider quota exhausted")},
		Tailor:  &fakeTailor{},
		Drafter: &fakeDrafter{},
	})
	ownerID := uuid.New()

	_, err := c.Start(ownerID, testProfile(), "Engineer", "Berlin", 0)
	require.NoError(t, err)

	sess := waitForState(t, c, ownerID, types.StateError)
	assert.Contains(t, sess.Error, "quota exhausted")
}

func TestPipeline_ReachesCVReviewWithItemErrors(t *testing.T) {
	c, _ := newTestController(Deps{
		Search:  &fakeSearch{jobs: testJobs()},
		Tailor:  &fakeTailor{failJobs: map[string]bool{"j2": true}},
		Drafter: &fakeDrafter{},
	})
	ownerID := uuid.New()

	_, err := c.Start(ownerID, testProfile(), "Engineer", "Berlin", 0)
	require.NoError(t, err)

	sess := waitForState(t, c, ownerID, types.StateCVReview)
	require.NotNil(t, sess.PendingApproval)
	assert.Equal(t, types.ApprovalCVReview, sess.PendingApproval.ApprovalType)
	assert.Equal(t, types.ResolutionPending, sess.PendingApproval.Resolution)

	require.Len(t, sess.CVResults, 2)
	byID := map[string]types.CVResult{}
	for _, r := range sess.CVResults {
		byID[r.JobID] = r
	}
	assert.NotNil(t, byID["j1"].CV)
	assert.Empty(t, byID["j1"].Error)
	assert.Nil(t, byID["j2"].CV)
	assert.Contains(t, byID["j2"].Error, "generation failed")
}

func TestPipeline_FullRunWithEditedDraft(t *testing.T) {
	sender := &fakeSender{}
	c, _ := newTestController(Deps{
		Search:  &fakeSearch{jobs: testJobs()},
		Tailor:  &fakeTailor{},
		Drafter: &fakeDrafter{},
		Sender:  sender,
	})
	ownerID := uuid.New()

	_, err := c.Start(ownerID, testProfile(), "Engineer", "Berlin", 0)
	require.NoError(t, err)

	sess := waitForState(t, c, ownerID, types.StateCVReview)
	require.NoError(t, c.ApproveCVReview(context.Background(), ownerID, sess.PendingApproval.ApprovalID, nil))

	sess = waitForState(t, c, ownerID, types.StateEmailReview)
	require.NotNil(t, sess.PendingApproval)
	require.Len(t, sess.EmailDrafts, 2)

	byID := map[string]types.EmailDraft{}
	for _, d := range sess.EmailDrafts {
		byID[d.JobID] = d
	}
	// Acme resolves through discovery, Initech through the LLM estimate.
	assert.Equal(t, "hr@acme.com", byID["j1"].HREmail)
	assert.Equal(t, types.EmailSourceDiscovery, byID["j1"].EmailSource)
	assert.True(t, byID["j1"].EmailVerified)
	assert.Equal(t, "careers@initech.com", byID["j2"].HREmail)
	assert.Equal(t, types.EmailSourceEstimate, byID["j2"].EmailSource)
	assert.False(t, byID["j2"].EmailVerified)

	// Edit one draft before approving; the edited text must be what sends.
	edited := []types.EmailDraft{
		{JobID: "j1", Subject: "Revised subject", Body: "Revised body from the reviewer"},
		{JobID: "j2"},
	}
	require.NoError(t, c.ApproveEmailReview(context.Background(), ownerID, sess.PendingApproval.ApprovalID, edited))

	sess = waitForState(t, c, ownerID, types.StateDone)
	assert.Nil(t, sess.PendingApproval)
	require.Len(t, sess.SendResults, 2)
	for _, r := range sess.SendResults {
		assert.True(t, r.Sent, "send failed for %s: %s", r.Company, r.Error)
	}

	sent := sender.sentDrafts()
	require.Len(t, sent, 2)
	sentByID := map[string]types.EmailDraft{}
	for _, d := range sent {
		sentByID[d.JobID] = d
	}
	assert.Equal(t, "Revised subject", sentByID["j1"].Subject)
	assert.Equal(t, "Revised body from the reviewer", sentByID["j1"].Body)
	assert.Equal(t, "Application for Platform Engineer", sentByID["j2"].Subject)
}

// A status poll racing the gate transitions must never see a review state
// without its pending approval, nor a pending approval outside a review
// state. The poller hammers Status across a full run while the gates open
// and resolve.
func TestStatus_ReviewStateAlwaysCarriesApproval(t *testing.T) {
	sender := &fakeSender{}
	c, _ := newTestController(Deps{
		Search:  &fakeSearch{jobs: testJobs()},
		Tailor:  &fakeTailor{},
		Drafter: &fakeDrafter{},
		Sender:  sender,
	})
	ownerID := uuid.New()

	var (
		violations  []string
		violationMu sync.Mutex
	)
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			default:
			}
			sess := c.Status(ownerID)
			if sess == nil {
				continue
			}
			violationMu.Lock()
			if sess.State.Review() && sess.PendingApproval == nil {
				violations = append(violations, fmt.Sprintf("state %s with no pending approval", sess.State))
			}
			if sess.PendingApproval != nil && !sess.State.Review() {
				violations = append(violations, fmt.Sprintf("pending approval lingering in state %s", sess.State))
			}
			violationMu.Unlock()
		}
	}()

	_, err := c.Start(ownerID, testProfile(), "Engineer", "Berlin", 0)
	require.NoError(t, err)

	sess := waitForState(t, c, ownerID, types.StateCVReview)
	require.NoError(t, c.ApproveCVReview(context.Background(), ownerID, sess.PendingApproval.ApprovalID, nil))

	sess = waitForState(t, c, ownerID, types.StateEmailReview)
	require.NoError(t, c.ApproveEmailReview(context.Background(), ownerID, sess.PendingApproval.ApprovalID, nil))

	waitForState(t, c, ownerID, types.StateDone)
	close(stop)
	<-done

	violationMu.Lock()
	defer violationMu.Unlock()
	assert.Empty(t, violations)
}

func TestApproveCVReview_KeepSubset(t *testing.T) {
	sender := &fakeSender{}
	c, _ := newTestController(Deps{
		Search:  &fakeSearch{jobs: testJobs()},
		Tailor:  &fakeTailor{},
		Drafter: &fakeDrafter{},
		Sender:  sender,
	})
	ownerID := uuid.New()

	_, err := c.Start(ownerID, testProfile(), "Engineer", "Berlin", 0)
	require.NoError(t, err)

	sess := waitForState(t, c, ownerID, types.StateCVReview)
	require.NoError(t, c.ApproveCVReview(context.Background(), ownerID, sess.PendingApproval.ApprovalID, []string{"j2"}))

	sess = waitForState(t, c, ownerID, types.StateEmailReview)
	require.Len(t, sess.CVResults, 1)
	assert.Equal(t, "j2", sess.CVResults[0].JobID)
	require.Len(t, sess.EmailDrafts, 1)
	assert.Equal(t, "Initech", sess.EmailDrafts[0].Company)
}

func TestApprove_ExactlyOneConcurrentDecisionWins(t *testing.T) {
	c, _ := newTestController(Deps{
		Search:  &fakeSearch{jobs: testJobs()},
		Tailor:  &fakeTailor{},
		Drafter: &fakeDrafter{},
	})
	ownerID := uuid.New()

	_, err := c.Start(ownerID, testProfile(), "Engineer", "Berlin", 0)
	require.NoError(t, err)

	sess := waitForState(t, c, ownerID, types.StateCVReview)
	approvalID := sess.PendingApproval.ApprovalID

	const attempts = 8
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- c.ApproveCVReview(context.Background(), ownerID, approvalID, nil)
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one concurrent approval must proceed")
}

func TestReject_DiscardsRunAndAllowsRestart(t *testing.T) {
	c, _ := newTestController(Deps{
		Search:  &fakeSearch{jobs: testJobs()},
		Tailor:  &fakeTailor{},
		Drafter: &fakeDrafter{},
	})
	ownerID := uuid.New()

	_, err := c.Start(ownerID, testProfile(), "Engineer", "Berlin", 0)
	require.NoError(t, err)

	sess := waitForState(t, c, ownerID, types.StateCVReview)
	require.NoError(t, c.Reject(ownerID, sess.PendingApproval.ApprovalID))

	sess = c.Status(ownerID)
	assert.Equal(t, types.StateCancelled, sess.State)
	assert.Nil(t, sess.PendingApproval)
	assert.Empty(t, sess.CVResults)

	_, err = c.Start(ownerID, testProfile(), "Engineer", "Berlin", 0)
	require.NoError(t, err)
}

func TestApprove_RejectsWrongApprovalID(t *testing.T) {
	c, _ := newTestController(Deps{
		Search:  &fakeSearch{jobs: testJobs()},
		Tailor:  &fakeTailor{},
		Drafter: &fakeDrafter{},
	})
	ownerID := uuid.New()

	_, err := c.Start(ownerID, testProfile(), "Engineer", "Berlin", 0)
	require.NoError(t, err)

	waitForState(t, c, ownerID, types.StateCVReview)

	var aErr *ApprovalError
	err = c.ApproveCVReview(context.Background(), ownerID, uuid.New(), nil)
	require.ErrorAs(t, err, &aErr)

	err = c.Reject(ownerID, uuid.New())
	require.ErrorAs(t, err, &aErr)
}

func TestGateTTL_ExpiresToCancelled(t *testing.T) {
	c, store := newTestController(Deps{
		Search:  &fakeSearch{jobs: testJobs()},
		Tailor:  &fakeTailor{},
		Drafter: &fakeDrafter{},
		GateTTL: 50 * time.Millisecond,
	})
	ownerID := uuid.New()

	_, err := c.Start(ownerID, testProfile(), "Engineer", "Berlin", 0)
	require.NoError(t, err)

	// Poll the store directly so the read does not itself resolve the gate
	// before we observe the review state.
	require.Eventually(t, func() bool {
		sess := store.Get(ownerID)
		return sess != nil && sess.State == types.StateCVReview
	}, 3*time.Second, 2*time.Millisecond)

	time.Sleep(60 * time.Millisecond)

	sess := c.Status(ownerID)
	assert.Equal(t, types.StateCancelled, sess.State)
	assert.Nil(t, sess.PendingApproval)
}

func TestRunSending_RecordsPerRowFailures(t *testing.T) {
	sender := &fakeSender{fail: map[string]bool{"careers@initech.com": true}}
	c, _ := newTestController(Deps{
		Search:  &fakeSearch{jobs: testJobs()},
		Tailor:  &fakeTailor{},
		Drafter: &fakeDrafter{},
		Sender:  sender,
	})
	ownerID := uuid.New()

	_, err := c.Start(ownerID, testProfile(), "Engineer", "Berlin", 0)
	require.NoError(t, err)

	sess := waitForState(t, c, ownerID, types.StateCVReview)
	require.NoError(t, c.ApproveCVReview(context.Background(), ownerID, sess.PendingApproval.ApprovalID, nil))

	sess = waitForState(t, c, ownerID, types.StateEmailReview)
	require.NoError(t, c.ApproveEmailReview(context.Background(), ownerID, sess.PendingApproval.ApprovalID, nil))

	sess = waitForState(t, c, ownerID, types.StateDone)
	require.Len(t, sess.SendResults, 2)
	byID := map[string]types.SendResult{}
	for _, r := range sess.SendResults {
		byID[r.JobID] = r
	}
	assert.True(t, byID["j1"].Sent)
	assert.False(t, byID["j2"].Sent)
	assert.Contains(t, byID["j2"].Error, "smtp rejected")
}

func TestRunSending_SkipsDraftsWithoutRecipient(t *testing.T) {
	sender := &fakeSender{}
	c, _ := newTestController(Deps{
		Search:  &fakeSearch{jobs: []types.JobCandidate{{JobID: "j1", Title: "Engineer", Company: "Acme Co"}}},
		Tailor:  &fakeTailor{},
		Drafter: &fakeDrafter{estimateErr: fmt.Errorf("estimation unavailable")},
		Sender:  sender,
		Discover: discovery.NewService(&fakeDiscovery{emails: map[string]string{
			// No entry for acme.com: discovery finds nothing.
		}}),
	})
	ownerID := uuid.New()

	_, err := c.Start(ownerID, testProfile(), "Engineer", "Berlin", 0)
	require.NoError(t, err)

	sess := waitForState(t, c, ownerID, types.StateCVReview)
	require.NoError(t, c.ApproveCVReview(context.Background(), ownerID, sess.PendingApproval.ApprovalID, nil))

	sess = waitForState(t, c, ownerID, types.StateEmailReview)
	require.Len(t, sess.EmailDrafts, 1)
	assert.Empty(t, sess.EmailDrafts[0].HREmail)
	assert.Equal(t, types.EmailSourceNone, sess.EmailDrafts[0].EmailSource)

	require.NoError(t, c.ApproveEmailReview(context.Background(), ownerID, sess.PendingApproval.ApprovalID, nil))

	sess = waitForState(t, c, ownerID, types.StateDone)
	require.Len(t, sess.SendResults, 1)
	assert.False(t, sess.SendResults[0].Sent)
	assert.Contains(t, sess.SendResults[0].Error, "no recipient")
	assert.Empty(t, sender.sentDrafts())
}
