package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"violencedetector/internal/logger"
	"violencedetector/internal/repository"
)

// GB is the unit of MAX_OUTPUT_DIRECTORY_SIZE.
const GB = int64(1) << 30

// annotatedSuffix separates the analysis ID from the extension in output names.
const annotatedSuffix = "_annotated"

// RetentionService keeps the output directory under a size limit by
// removing the oldest annotated videos first.
type RetentionService struct {
	outputDir string
	maxBytes  int64
	analyses  repository.AnalysisRepository
	logger    *logger.Logger
	mu        sync.Mutex
}

// NewRetentionService creates a RetentionService. analyses may be nil; when
// set, records of removed videos lose their output path.
func NewRetentionService(outputDir string, maxBytes int64, analyses repository.AnalysisRepository, logger *logger.Logger) *RetentionService {
	return &RetentionService{
		outputDir: outputDir,
		maxBytes:  maxBytes,
		analyses:  analyses,
		logger:    logger,
	}
}

// Run enforces the limit every interval until ctx is done.
func (s *RetentionService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Enforce(); err != nil {
				s.logger.Error("Retention pass failed: %v", err)
			}
		}
	}
}

// Enforce runs a single pass and returns how many files it removed.
func (s *RetentionService) Enforce() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.outputDir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read output directory: %w", err)
	}

	type file struct {
		name    string
		size    int64
		modTime time.Time
	}

	var files []file
	var total int64
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			s.logger.Warning("Failed to stat %s: %v", entry.Name(), err)
			continue
		}
		files = append(files, file{name: entry.Name(), size: info.Size(), modTime: info.ModTime()})
		total += info.Size()
	}

	if total <= s.maxBytes {
		return 0, nil
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].modTime.Equal(files[j].modTime) {
			return files[i].name < files[j].name
		}
		return files[i].modTime.Before(files[j].modTime)
	})

	removed := 0
	for _, f := range files {
		if total <= s.maxBytes {
			break
		}
		if err := os.Remove(filepath.Join(s.outputDir, f.name)); err != nil {
			s.logger.Error("Error deleting file %s: %v", f.name, err)
			continue
		}
		total -= f.size
		removed++
		s.forget(f.name)
	}

	s.logger.Info("Retention removed %d files from %s", removed, s.outputDir)
	return removed, nil
}

// Size returns the total size of the output directory in bytes.
func (s *RetentionService) Size() (int64, error) {
	var total int64
	err := filepath.WalkDir(s.outputDir, func(_ string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if os.IsNotExist(err) {
		return 0, nil
	}
	return total, err
}

// forget clears the output path of the analysis that produced name.
func (s *RetentionService) forget(name string) {
	if s.analyses == nil {
		return
	}
	id := AnalysisIDFromOutput(name)
	if id == "" {
		return
	}

	a, err := s.analyses.GetByID(id)
	if err != nil || a == nil {
		return
	}
	a.OutputPath = ""
	if err := s.analyses.Update(a); err != nil {
		s.logger.Error("Error updating analysis %s: %v", id, err)
	}
}

// AnalysisIDFromOutput extracts the analysis ID from an output file name
// such as "<id>_annotated.mp4". It returns "" for other names.
func AnalysisIDFromOutput(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if !strings.HasSuffix(base, annotatedSuffix) {
		return ""
	}
	return strings.TrimSuffix(base, annotatedSuffix)
}
