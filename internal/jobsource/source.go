// Package jobsource loads jobs and their scored applications from a YAML or JSON
// file, for local runs without a database.
package jobsource

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/jonathan/ranking-reports/internal/types"
	"gopkg.in/yaml.v3"
)

// Source provides the jobs and applications the report pipeline reads.
type Source interface {
	FindJob(ctx context.Context, id uuid.UUID) (*types.Job, error)
	ListApplications(ctx context.Context, jobID uuid.UUID) ([]types.Application, error)
}

type fileJob struct {
	types.Job    `yaml:",inline"`
	Applications []types.Application `json:"applications" yaml:"applications"`
}

type fileContents struct {
	Jobs []fileJob `json:"jobs" yaml:"jobs"`
}

// FileSource is a read-only Source loaded once from disk.
type FileSource struct {
	jobs map[uuid.UUID]fileJob
}

// LoadFile reads a jobs file. Files ending in .json are decoded as JSON,
// everything else as YAML.
func LoadFile(path string) (*FileSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read jobs file: %w", err)
	}

	var contents fileContents
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &contents)
	} else {
		err = yaml.Unmarshal(data, &contents)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse jobs file %s: %w", path, err)
	}

	return newFileSource(contents.Jobs)
}

func newFileSource(jobs []fileJob) (*FileSource, error) {
	src := &FileSource{jobs: make(map[uuid.UUID]fileJob, len(jobs))}
	for i, j := range jobs {
		if j.ID == uuid.Nil {
			return nil, fmt.Errorf("job %d: id is required", i)
		}
		if _, dup := src.jobs[j.ID]; dup {
			return nil, fmt.Errorf("job %s: duplicate id", j.ID)
		}
		if j.Status == "" {
			j.Status = types.JobOpen
		}
		for k := range j.Applications {
			app := &j.Applications[k]
			if app.JobID == uuid.Nil {
				app.JobID = j.ID
			}
			if app.ID == uuid.Nil {
				app.ID = uuid.New()
			}
			if app.Candidate.ID == uuid.Nil {
				app.Candidate.ID = uuid.New()
			}
		}
		src.jobs[j.ID] = j
	}
	return src, nil
}

// FindJob returns the job with the given ID or a *types.NotFoundError.
func (s *FileSource) FindJob(_ context.Context, id uuid.UUID) (*types.Job, error) {
	j, ok := s.jobs[id]
	if !ok {
		return nil, &types.NotFoundError{Resource: "job", ID: id.String()}
	}
	job := j.Job
	return &job, nil
}

// ListApplications returns the job's applications in file order.
func (s *FileSource) ListApplications(_ context.Context, jobID uuid.UUID) ([]types.Application, error) {
	j, ok := s.jobs[jobID]
	if !ok {
		return nil, &types.NotFoundError{Resource: "job", ID: jobID.String()}
	}
	return slices.Clone(j.Applications), nil
}

// Jobs returns all loaded jobs ordered by title.
func (s *FileSource) Jobs() []types.Job {
	jobs := make([]types.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		jobs = append(jobs, j.Job)
	}
	slices.SortFunc(jobs, func(a, b types.Job) int { return strings.Compare(a.Title, b.Title) })
	return jobs
}
