// Package meta loads configuration documents through afs, expanding
// ${env.KEY} expressions before decoding them as YAML.
package meta

import (
	"context"
	"fmt"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

// Service loads documents
type Service struct {
	fs afs.Service
}

// Load downloads URL and decodes it into target
func (s *Service) Load(ctx context.Context, URL string, target interface{}) error {
	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return fmt.Errorf("failed to download %v: %w", URL, err)
	}
	if err = yaml.Unmarshal([]byte(Expand(string(data))), target); err != nil {
		return fmt.Errorf("failed to decode %v: %w", URL, err)
	}
	return nil
}

// New creates a meta service
func New(fs afs.Service) *Service {
	if fs == nil {
		fs = afs.New()
	}
	return &Service{fs: fs}
}
