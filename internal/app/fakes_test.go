package app

import (
	"context"
	"io"
	"slices"
	"sort"
	"sync"
	"time"

	"feedback_portal/internal/domain/digest"
	"feedback_portal/internal/domain/feedback"
	"feedback_portal/internal/domain/summary"
	"feedback_portal/internal/domain/summaryjob"
	"feedback_portal/internal/domain/teacher"
	"feedback_portal/internal/infra/ai"
	idb "feedback_portal/internal/infra/database"

	"github.com/sirupsen/logrus"
)

func testLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// fixedPicker always returns the same index, clamped to n.
type fixedPicker int

func (p fixedPicker) Intn(n int) int {
	if int(p) >= n {
		return n - 1
	}
	return int(p)
}

// seqPicker replays values in order and then repeats the last one.
type seqPicker struct {
	values []int
	i      int
}

func (p *seqPicker) Intn(n int) int {
	v := p.values[len(p.values)-1]
	if p.i < len(p.values) {
		v = p.values[p.i]
		p.i++
	}
	return v % n
}

type passthroughTx struct{ calls int }

func (t *passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

type memJobRepo struct {
	mu     sync.Mutex
	nextID int64
	jobs   map[int64]*summaryjob.Job

	updateErr map[summaryjob.Status]error
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{jobs: map[int64]*summaryjob.Job{}}
}

var _ summaryjob.Repository = (*memJobRepo)(nil)

func (r *memJobRepo) Create(_ context.Context, job *summaryjob.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	job.ID = r.nextID
	now := time.Now()
	job.CreatedAt, job.UpdatedAt = now, now
	c := *job
	r.jobs[job.ID] = &c
	return nil
}

func (r *memJobRepo) GetByID(_ context.Context, id int64) (*summaryjob.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil, idb.ErrJobNotFound
	}
	c := *j
	return &c, nil
}

func (r *memJobRepo) ListByStatus(_ context.Context, status summaryjob.Status, limit int) ([]*summaryjob.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*summaryjob.Job
	for _, j := range r.jobs {
		if j.Status == status {
			c := *j
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memJobRepo) UpdateStatus(_ context.Context, ids []int64, status summaryjob.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.updateErr[status]; err != nil {
		return err
	}
	for _, id := range ids {
		if j, ok := r.jobs[id]; ok {
			j.Status = status
			j.UpdatedAt = time.Now()
		}
	}
	return nil
}

func (r *memJobRepo) DeleteByFeedbackID(_ context.Context, feedbackID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, j := range r.jobs {
		if j.FeedbackID.Valid && j.FeedbackID.Int64 == feedbackID {
			delete(r.jobs, id)
			n++
		}
	}
	return n, nil
}

func (r *memJobRepo) RequeueStale(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, j := range r.jobs {
		if j.Status == summaryjob.StatusProcessing && j.UpdatedAt.Before(cutoff) {
			j.Status = summaryjob.StatusPending
			n++
		}
	}
	return n, nil
}

func (r *memJobRepo) CountByStatus(_ context.Context) (map[summaryjob.Status]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[summaryjob.Status]int{}
	for _, j := range r.jobs {
		out[j.Status]++
	}
	return out, nil
}

func (r *memJobRepo) statusOf(id int64) summaryjob.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.jobs[id].Status
}

func (r *memJobRepo) all() []*summaryjob.Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*summaryjob.Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		c := *j
		out = append(out, &c)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out
}

type memSummaryRepo struct {
	mu      sync.Mutex
	items   map[summaryjob.Key]*summary.Snapshot
	upserts int
}

func newMemSummaryRepo() *memSummaryRepo {
	return &memSummaryRepo{items: map[summaryjob.Key]*summary.Snapshot{}}
}

var _ summary.Repository = (*memSummaryRepo)(nil)

func (r *memSummaryRepo) Get(_ context.Context, kind summaryjob.Kind, target string) (*summary.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.items[summaryjob.Key{Kind: kind, Target: target}]
	if !ok {
		return nil, idb.ErrSnapshotNotFound
	}
	return s.Clone(), nil
}

func (r *memSummaryRepo) Upsert(_ context.Context, s *summary.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserts++
	c := s.Clone()
	c.UpdatedAt = time.Now()
	r.items[s.Key()] = c
	return nil
}

func (r *memSummaryRepo) List(_ context.Context, kind summaryjob.Kind) ([]*summary.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*summary.Snapshot
	for k, s := range r.items {
		if k.Kind == kind {
			out = append(out, s.Clone())
		}
	}
	return out, nil
}

func (r *memSummaryRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

type memFeedbackRepo struct {
	mu      sync.Mutex
	nextID  int64
	items   map[int64]*feedback.Feedback
	history []*feedback.StatusChange
}

func newMemFeedbackRepo() *memFeedbackRepo {
	return &memFeedbackRepo{items: map[int64]*feedback.Feedback{}}
}

var _ feedback.Repository = (*memFeedbackRepo)(nil)

func (r *memFeedbackRepo) add(f *feedback.Feedback) *feedback.Feedback {
	_ = r.Create(context.Background(), f)
	return f
}

func (r *memFeedbackRepo) Create(_ context.Context, f *feedback.Feedback) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	f.ID = r.nextID
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}
	f.UpdatedAt = f.CreatedAt
	c := *f
	r.items[f.ID] = &c
	return nil
}

func (r *memFeedbackRepo) GetByID(_ context.Context, id int64) (*feedback.Feedback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.items[id]
	if !ok {
		return nil, idb.ErrFeedbackNotFound
	}
	c := *f
	return &c, nil
}

func (r *memFeedbackRepo) Update(_ context.Context, f *feedback.Feedback) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[f.ID]; !ok {
		return idb.ErrFeedbackNotFound
	}
	c := *f
	r.items[f.ID] = &c
	return nil
}

func (r *memFeedbackRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return idb.ErrFeedbackNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *memFeedbackRepo) sorted() []*feedback.Feedback {
	out := make([]*feedback.Feedback, 0, len(r.items))
	for _, f := range r.items {
		c := *f
		out = append(out, &c)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out
}

func (r *memFeedbackRepo) ListByStatus(_ context.Context, status feedback.Status) ([]*feedback.Feedback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*feedback.Feedback
	for _, f := range r.sorted() {
		if f.Status == status {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *memFeedbackRepo) ListEligibleTexts(_ context.Context, kind summaryjob.Kind, target string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := summaryjob.Key{Kind: kind, Target: target}
	var out []string
	for _, f := range r.sorted() {
		if f.Eligible() && f.SummaryKey() == want {
			out = append(out, f.Text)
		}
	}
	return out, nil
}

func (r *memFeedbackRepo) ListEligibleCreatedBetween(_ context.Context, from, to time.Time) ([]*feedback.Feedback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*feedback.Feedback
	for _, f := range r.sorted() {
		if f.Eligible() && !f.CreatedAt.Before(from) && f.CreatedAt.Before(to) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *memFeedbackRepo) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items), nil
}

func (r *memFeedbackRepo) RecordStatusChange(_ context.Context, change *feedback.StatusChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *change
	r.history = append(r.history, &c)
	return nil
}

type memTeacherRepo struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]*teacher.Teacher
}

func newMemTeacherRepo() *memTeacherRepo {
	return &memTeacherRepo{items: map[int64]*teacher.Teacher{}}
}

var _ teacher.Repository = (*memTeacherRepo)(nil)

func (r *memTeacherRepo) Create(_ context.Context, t *teacher.Teacher) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	t.ID = r.nextID
	c := *t
	r.items[t.ID] = &c
	return nil
}

func (r *memTeacherRepo) GetByID(_ context.Context, id int64) (*teacher.Teacher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.items[id]
	if !ok {
		return nil, idb.ErrTeacherNotFound
	}
	c := *t
	return &c, nil
}

func (r *memTeacherRepo) Update(_ context.Context, t *teacher.Teacher) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[t.ID]; !ok {
		return idb.ErrTeacherNotFound
	}
	c := *t
	r.items[t.ID] = &c
	return nil
}

func (r *memTeacherRepo) list(activeOnly bool) []*teacher.Teacher {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*teacher.Teacher
	for _, t := range r.items {
		if activeOnly && !t.IsActive {
			continue
		}
		c := *t
		out = append(out, &c)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out
}

func (r *memTeacherRepo) ListActive(_ context.Context) ([]*teacher.Teacher, error) {
	return r.list(true), nil
}

func (r *memTeacherRepo) ListAll(_ context.Context) ([]*teacher.Teacher, error) {
	return r.list(false), nil
}

func (r *memTeacherRepo) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items), nil
}

type memDigestRepo struct {
	mu    sync.Mutex
	items []*digest.Digest
}

var _ digest.Repository = (*memDigestRepo)(nil)

func (r *memDigestRepo) Get(_ context.Context, monthKey string) (*digest.Digest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.items {
		if d.MonthKey == monthKey {
			return d, nil
		}
	}
	return nil, idb.ErrDigestNotFound
}

func (r *memDigestRepo) Create(_ context.Context, d *digest.Digest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.MonthKey == d.MonthKey {
			return idb.ErrDuplicateDigest
		}
	}
	d.GeneratedAt = time.Now()
	r.items = append(r.items, d)
	return nil
}

func (r *memDigestRepo) ListRecent(_ context.Context, limit int) ([]*digest.Digest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := slices.Clone(r.items)
	sort.Slice(out, func(a, b int) bool { return out[a].MonthKey > out[b].MonthKey })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// stubSummarizer records every call and returns reply and err.
type stubSummarizer struct {
	mu      sync.Mutex
	reply   string
	err     error
	calls   int
	prompts []string
	users   []string
}

func (s *stubSummarizer) Name() string { return "stub" }

func (s *stubSummarizer) Summarize(_ context.Context, systemPrompt, userText string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.prompts = append(s.prompts, systemPrompt)
	s.users = append(s.users, userText)
	return s.reply, s.err
}

// keywordScreen uses the built-in word list.
type keywordScreen struct{}

func (keywordScreen) Screen(_ context.Context, text string) ai.Verdict {
	return ai.KeywordScreen(text)
}

type recordingNotifier struct {
	notified []int64
	err      error
}

func (n *recordingNotifier) NotifyEscalation(_ context.Context, f *feedback.Feedback) error {
	n.notified = append(n.notified, f.ID)
	return n.err
}

type stubWorker struct {
	state    WorkerState
	restarts int
}

func (w *stubWorker) State() WorkerState { return w.state }

func (w *stubWorker) Restart(_ context.Context) bool {
	w.restarts++
	w.state = WorkerRunning
	return true
}
