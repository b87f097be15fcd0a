package catalog

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ghodss/yaml"
	"github.com/google/uuid"

	"github.com/notargets/spectralns/InputParameters"
)

// Run records one generated dataset.
type Run struct {
	ID         string
	Title      string
	CreatedAt  time.Time
	Params     InputParameters.GenerationParameters
	Paths      []string
	NumSamples int
	NumTest    int
	Bytes      int64
}

// NewRun stamps a fresh identifier and creation time onto a finished run.
func NewRun(ip *InputParameters.GenerationParameters, paths []string, size int64) Run {
	return Run{
		ID:         uuid.NewString(),
		Title:      ip.Title,
		CreatedAt:  time.Now().UTC(),
		Params:     *ip,
		Paths:      append([]string(nil), paths...),
		NumSamples: ip.NumSamples,
		NumTest:    ip.NumTest,
		Bytes:      size,
	}
}

// Store persists run records.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run Run) error
	GetRun(ctx context.Context, id string) (Run, bool, error)
	ListRuns(ctx context.Context) ([]Run, error)
}

func EncodeRun(run Run) ([]byte, error) {
	return yaml.Marshal(run)
}

func DecodeRun(payload []byte) (run Run, err error) {
	if err = yaml.Unmarshal(payload, &run); err != nil {
		err = fmt.Errorf("decode run: %w", err)
	}
	return
}

func sortRuns(runs []Run) {
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].CreatedAt.Before(runs[j].CreatedAt)
	})
}
