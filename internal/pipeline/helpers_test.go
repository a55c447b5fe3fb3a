package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/ranking-reports/internal/gate"
	"github.com/jonathan/ranking-reports/internal/rendering"
	"github.com/jonathan/ranking-reports/internal/reports"
	"github.com/jonathan/ranking-reports/internal/types"
	"github.com/stretchr/testify/require"
)

// fakeJobs is an in-memory JobStore.
type fakeJobs struct {
	mu      sync.Mutex
	jobs    map[uuid.UUID]*types.Job
	apps    map[uuid.UUID][]types.Application
	listErr error
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{
		jobs: make(map[uuid.UUID]*types.Job),
		apps: make(map[uuid.UUID][]types.Application),
	}
}

// addJob registers a closed job owned by owner with one application per score.
func (f *fakeJobs) addJob(owner uuid.UUID, status types.JobStatus, scores ...float64) *types.Job {
	f.mu.Lock()
	defer f.mu.Unlock()

	job := &types.Job{
		ID:           uuid.New(),
		OwnerID:      owner,
		Title:        "Backend Engineer",
		Status:       status,
		ContactEmail: "hiring@acme.test",
	}
	f.jobs[job.ID] = job

	apps := make([]types.Application, 0, len(scores))
	for i, score := range scores {
		score := score
		feedback := `{"matching": 70, "habilidades_clave": ["Go"], "fit_cultural": 60}`
		apps = append(apps, types.Application{
			ID:        uuid.New(),
			JobID:     job.ID,
			Candidate: types.Candidate{ID: uuid.New(), Name: string(rune('A' + i)), YearsExperience: i + 1},
			Score:     &score,
			Feedback:  &feedback,
		})
	}
	f.apps[job.ID] = apps
	return job
}

func (f *fakeJobs) FindJob(_ context.Context, id uuid.UUID) (*types.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return nil, &types.NotFoundError{Resource: "job", ID: id.String()}
	}
	c := *job
	return &c, nil
}

func (f *fakeJobs) ListApplications(_ context.Context, jobID uuid.UUID) ([]types.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]types.Application(nil), f.apps[jobID]...), nil
}

// renderFunc adapts a function to rendering.Renderer.
type renderFunc func(ctx context.Context, r *types.Report) (rendering.Artifact, error)

func (f renderFunc) Render(ctx context.Context, r *types.Report) (rendering.Artifact, error) {
	return f(ctx, r)
}

func okRenderer() rendering.Renderer {
	return renderFunc(func(_ context.Context, r *types.Report) (rendering.Artifact, error) {
		return rendering.Artifact{Location: "/artifacts/" + r.ID.String() + ".html", Format: rendering.FormatHTML}, nil
	})
}

// recordingStore wraps a MemoryStore and records every state each report was
// stored in.
type recordingStore struct {
	*reports.MemoryStore

	mu     sync.Mutex
	states map[uuid.UUID][]types.ReportState
}

func newRecordingStore() *recordingStore {
	return &recordingStore{MemoryStore: reports.NewMemoryStore(), states: make(map[uuid.UUID][]types.ReportState)}
}

func (s *recordingStore) Create(ctx context.Context, r *types.Report) error {
	if err := s.MemoryStore.Create(ctx, r); err != nil {
		return err
	}
	s.record(r.ID, r.State)
	return nil
}

func (s *recordingStore) Update(ctx context.Context, id uuid.UUID, fn func(*types.Report) error) error {
	var state types.ReportState
	err := s.MemoryStore.Update(ctx, id, func(r *types.Report) error {
		if err := fn(r); err != nil {
			return err
		}
		state = r.State
		return nil
	})
	if err == nil {
		s.record(id, state)
	}
	return err
}

func (s *recordingStore) record(id uuid.UUID, state types.ReportState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[id] = append(s.states[id], state)
}

func (s *recordingStore) history(id uuid.UUID) []types.ReportState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.ReportState(nil), s.states[id]...)
}

// eventLog collects progress events in emission order.
type eventLog struct {
	mu     sync.Mutex
	events []ProgressEvent
}

func (l *eventLog) record(e ProgressEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

// index returns the position of the first event for report at step, or -1.
func (l *eventLog) index(reportID uuid.UUID, step string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, e := range l.events {
		if e.ReportID == reportID && e.Step == step {
			return i
		}
	}
	return -1
}

func (l *eventLog) steps(reportID uuid.UUID) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var steps []string
	for _, e := range l.events {
		if e.ReportID == reportID {
			steps = append(steps, e.Step)
		}
	}
	return steps
}

type testEnv struct {
	svc    *Service
	store  *recordingStore
	jobs   *fakeJobs
	gate   *gate.Gate
	events *eventLog
	owner  uuid.UUID
}

func newTestEnv(t *testing.T, capacity int, renderer rendering.Renderer, opts Options) *testEnv {
	t.Helper()

	g, err := gate.New(capacity)
	require.NoError(t, err)

	env := &testEnv{
		store:  newRecordingStore(),
		jobs:   newFakeJobs(),
		gate:   g,
		events: &eventLog{},
		owner:  uuid.New(),
	}
	env.svc, err = NewService(Deps{
		Store:      env.store,
		Jobs:       env.jobs,
		Gate:       g,
		Renderer:   renderer,
		OnProgress: env.events.record,
	}, opts)
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = env.svc.Shutdown(ctx)
	})
	return env
}

func (e *testEnv) request(t *testing.T, job *types.Job) *types.Report {
	t.Helper()
	r, err := e.svc.Request(context.Background(), e.owner, types.GenerateReportRequest{JobID: job.ID.String(), Notify: true})
	require.NoError(t, err)
	return r
}

func (e *testEnv) get(t *testing.T, id uuid.UUID) *types.Report {
	t.Helper()
	r, err := e.store.Get(context.Background(), id)
	require.NoError(t, err)
	return r
}

// notifierFunc adapts a function to notify.Notifier.
type notifierFunc func(ctx context.Context, destination string, r *types.Report) error

func (f notifierFunc) Notify(ctx context.Context, destination string, r *types.Report) error {
	return f(ctx, destination, r)
}

var errBoom = errors.New("boom")
