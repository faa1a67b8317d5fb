package memory

import (
	"github.com/mnemo-lab/mnemo/pkg/domain/interfaces"
)

// Memory is an in-memory Repository implementation for development and
// tests. It mirrors the durability contract of the Firestore backend except
// that nothing survives process exit.
type Memory struct {
	records *recordRepository
}

var _ interfaces.Repository = &Memory{}

// New creates an empty in-memory repository
func New() *Memory {
	return &Memory{
		records: newRecordRepository(),
	}
}

// Records returns the record repository
func (m *Memory) Records() interfaces.RecordRepository {
	return m.records
}

// Close is a no-op for the in-memory backend
func (m *Memory) Close() error {
	return nil
}
