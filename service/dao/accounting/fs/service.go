// Package fs stores accounting records as JSON documents on any viant/afs
// supported storage (file://, mem://, s3:// ...).
package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/url"
	"github.com/viant/minikernel/service/dao"
	"github.com/viant/minikernel/service/dao/accounting"
)

// Service implements a storage-backed accounting store
type Service struct {
	baseURL string
	fs      afs.Service
	logger  *logrus.Entry
	mu      sync.RWMutex
}

var _ accounting.Service = (*Service)(nil)

// Save persists a record
func (s *Service) Save(ctx context.Context, record *accounting.Record) error {
	if record == nil {
		return dao.ErrNilEntity
	}
	if record.ID == "" {
		return dao.ErrInvalidID
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record %v: %w", record.ID, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	URL := s.recordURL(record.ID)
	if err = s.fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save record to %v: %w", URL, err)
	}
	return nil
}

// Load retrieves a record
func (s *Service) Load(ctx context.Context, id string) (*accounting.Record, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	URL := s.recordURL(id)
	exists, err := s.fs.Exists(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to check record %v: %w", id, err)
	}
	if !exists {
		return nil, fmt.Errorf("record %v: %w", id, dao.ErrNotFound)
	}
	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read record %v: %w", id, err)
	}
	record := &accounting.Record{}
	if err = json.Unmarshal(data, record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record %v: %w", id, err)
	}
	return record, nil
}

// Delete removes a record
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	URL := s.recordURL(id)
	exists, err := s.fs.Exists(ctx, URL)
	if err != nil {
		return fmt.Errorf("failed to check record %v: %w", id, err)
	}
	if !exists {
		return fmt.Errorf("record %v: %w", id, dao.ErrNotFound)
	}
	if err = s.fs.Delete(ctx, URL); err != nil {
		return fmt.Errorf("failed to delete record %v: %w", id, err)
	}
	return nil
}

// List returns the records matching parameters ordered by ended tick
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*accounting.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	objects, err := s.fs.List(ctx, s.baseURL, option.NewRecursive(true))
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	var records []*accounting.Record
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".json") {
			continue
		}
		data, err := s.fs.Download(ctx, object)
		if err != nil {
			s.logger.WithError(err).WithField("url", object.URL()).Warn("failed to read record")
			continue
		}
		record := &accounting.Record{}
		if err := json.Unmarshal(data, record); err != nil {
			s.logger.WithError(err).WithField("url", object.URL()).Warn("failed to unmarshal record")
			continue
		}
		if !accounting.Match(record, parameters) {
			continue
		}
		records = append(records, record)
	}
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].EndedTick == records[j].EndedTick {
			return records[i].PID < records[j].PID
		}
		return records[i].EndedTick < records[j].EndedTick
	})
	return records, nil
}

func (s *Service) recordURL(id string) string {
	return url.Join(s.baseURL, id+".json")
}

// New creates a storage-backed accounting store rooted at baseURL
func New(ctx context.Context, baseURL string, logger *logrus.Entry) (*Service, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("accounting base URL cannot be empty")
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	fs := afs.New()
	baseURL = url.Normalize(baseURL, file.Scheme)
	exists, _ := fs.Exists(ctx, baseURL)
	if !exists {
		if err := fs.Create(ctx, baseURL, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create %v: %w", baseURL, err)
		}
	}
	return &Service{
		baseURL: strings.TrimRight(baseURL, "/"),
		fs:      fs,
		logger:  logger.WithField("component", "accounting"),
	}, nil
}

