package recorder

import (
	"MarketPulse/internal/model"

	"github.com/google/uuid"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(run *RefreshRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	return nil
}

func (n *NoopRecorder) RecordAnalysis(_ *AnalysisRecord) error { return nil }
func (n *NoopRecorder) RecordNews(_ []model.NewsItem) error    { return nil }
func (n *NoopRecorder) Close() error                           { return nil }
