// internal/export/export.go
package export

import (
	"context"

	custom_errors "commit-miner/internal/errors"
	"commit-miner/internal/model"
)

// NamedSink is a sink that can be identified in errors and logs.
type NamedSink interface {
	Name() string
	Export(ctx context.Context, run model.Run, records []model.CommitRecord) error
}

// Multi fans the same records out to several sinks in order. It stops at the
// first failing sink so later sinks never hold a run that was not fully exported.
type Multi []NamedSink

func (m Multi) Export(ctx context.Context, run model.Run, records []model.CommitRecord) error {
	for _, s := range m {
		if err := s.Export(ctx, run, records); err != nil {
			return &custom_errors.ErrExport{Sink: s.Name(), Err: err}
		}
	}
	return nil
}
