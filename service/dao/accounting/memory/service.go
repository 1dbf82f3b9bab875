// Package memory keeps accounting records in process memory.
package memory

import (
	"github.com/viant/minikernel/service/dao/accounting"
	"github.com/viant/minikernel/service/dao/store"
)

// Service is an in-memory accounting store.
type Service struct {
	*store.MemoryStore[string, accounting.Record]
}

var _ accounting.Service = (*Service)(nil)

// New creates an in-memory accounting store.
func New() *Service {
	return &Service{MemoryStore: store.NewMemoryStore[string, accounting.Record](accounting.Key, accounting.Match)}
}
