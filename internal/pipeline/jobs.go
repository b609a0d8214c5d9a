package pipeline

import (
	"sync"
	"time"

	"github.com/gafniasaf/bookgen/internal/report"
)

// JobStatus represents the state of a run job.
type JobStatus string

const (
	StatusQueued      JobStatus = "queued"
	StatusOpening     JobStatus = "opening"
	StatusNormalizing JobStatus = "normalizing"
	StatusCompleted   JobStatus = "completed"
	StatusIssues      JobStatus = "issues"
	StatusFailed      JobStatus = "failed"
	StatusQAFailed    JobStatus = "qa_failed"
)

// Done reports whether the status is terminal.
func (s JobStatus) Done() bool {
	switch s {
	case StatusCompleted, StatusIssues, StatusFailed, StatusQAFailed:
		return true
	}
	return false
}

// Job tracks the state of a single uploaded document run.
type Job struct {
	mu sync.Mutex

	ID       string `json:"job_id"`
	Filename string `json:"filename"`

	// Anchor overrides; empty uses the service defaults.
	StartAnchor string `json:"start_anchor,omitempty"`
	EndAnchor   string `json:"end_anchor,omitempty"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	ReportPath  string    `json:"-"`
	OutputPath  string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	errors   []string
}

// Progress tracks pass progress and aggregated counters.
type Progress struct {
	PassesTotal int      `json:"passes_total"`
	PassesDone  int      `json:"passes_done"`
	CurrentPass string   `json:"current_pass,omitempty"`
	Changed     int      `json:"changed"`
	Removed     int      `json:"removed"`
	Failed      int      `json:"failed"`
	Violations  int      `json:"violations"`
	Errors      []string `json:"errors"`
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes expired jobs. Jobs still running are kept.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		expired := job.Status.Done() && now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if expired {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// CurrentStatus returns the status without copying the whole job.
func (j *Job) CurrentStatus() JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.Status
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetPassesTotal records how many passes the run has.
func (j *Job) SetPassesTotal(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.PassesTotal = n
	j.UpdatedAt = time.Now()
}

// RecordPass adds a finished pass to the progress counters.
func (j *Job) RecordPass(res *report.PassResult) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.PassesDone++
	j.Progress.CurrentPass = res.Name
	j.Progress.Changed += res.Changed
	j.Progress.Removed += res.Removed
	j.Progress.Failed += res.Failed
	j.Progress.Violations += len(res.Violations)
	if res.Abort != "" {
		j.errors = append(j.errors, res.Name+": "+res.Abort)
		j.Progress.Errors = j.errors
	}
	j.UpdatedAt = time.Now()
}

// SetContentHash records the checksum of the uploaded bytes.
func (j *Job) SetContentHash(h string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ContentHash = h
}

// SetResult records where the report and the normalized document went.
func (j *Job) SetResult(reportPath, outputPath string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ReportPath = reportPath
	j.OutputPath = outputPath
	j.UpdatedAt = time.Now()
}

// Result returns the report and output paths.
func (j *Job) Result() (reportPath, outputPath string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.ReportPath, j.OutputPath
}

// SetFileData sets the raw file bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// releaseFileData drops the upload once the document has been loaded.
func (j *Job) releaseFileData() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = nil
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string    `json:"job_id"`
	Filename    string    `json:"filename"`
	Status      JobStatus `json:"status"`
	Phase       string    `json:"phase"`
	Progress    Progress  `json:"progress"`
	ContentHash string    `json:"content_hash,omitempty"`
	HasReport   bool      `json:"has_report"`
	HasDocument bool      `json:"has_document"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := append([]string{}, j.Progress.Errors...)
	p := j.Progress
	p.Errors = errs
	return JobSnapshot{
		ID:          j.ID,
		Filename:    j.Filename,
		Status:      j.Status,
		Phase:       j.Phase,
		Progress:    p,
		ContentHash: j.ContentHash,
		HasReport:   j.ReportPath != "",
		HasDocument: j.OutputPath != "",
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}
