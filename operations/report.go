package operations

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/ksuid"

	"github.com/smartcontractkit/starknet-deployments/internal/fileutils"
)

// Report is the result of an operation.
// It contains the inputs and other metadata that was used to execute the operation.
type Report[IN, OUT any] struct {
	ID        string       `json:"id"`
	Def       Definition   `json:"definition"`
	Output    OUT          `json:"output"`
	Input     IN           `json:"input"`
	Timestamp *time.Time   `json:"timestamp"`
	Err       *ReportError `json:"error"`
	// indicates if the operation was forced to run even if the same op was run previously with the same input.
	Forced bool `json:"forced,omitempty"`
}

// ToGenericReport converts the Report to a generic Report.
func (r Report[IN, OUT]) ToGenericReport() Report[any, any] {
	return genericReport(r)
}

// NewReport creates a new report.
func NewReport[IN, OUT any](def Definition, input IN, output OUT, err error) Report[IN, OUT] {
	now := time.Now()
	r := Report[IN, OUT]{
		ID:        uuid.New().String(),
		Def:       def,
		Output:    output,
		Input:     input,
		Timestamp: &now,
	}
	if err != nil {
		r.Err = &ReportError{Message: err.Error()}
	}

	return r
}

// ReportError represents an error in the Report.
// Its purpose is to have an exported field `Message` for marshalling as the
// native error cant be marshaled to JSON.
type ReportError struct {
	Message string `json:"message"`
}

// Error implements the error interface.
func (o ReportError) Error() string {
	return o.Message
}

var ErrReportNotFound = errors.New("report not found")

// Reporter manages reports. It can store them in memory, in the FS, etc.
type Reporter interface {
	GetReport(id string) (Report[any, any], error)
	GetReports() ([]Report[any, any], error)
	AddReport(report Report[any, any]) error
}

// MemoryReporter stores reports in memory.
// This is thread-safe and can be used in a multi-threaded environment.
type MemoryReporter struct {
	reports []Report[any, any]
	mu      sync.RWMutex
}

type MemoryReporterOption func(*MemoryReporter)

// WithReports is an option to initialize the MemoryReporter with a list of reports.
func WithReports(reports []Report[any, any]) MemoryReporterOption {
	return func(mr *MemoryReporter) {
		mr.reports = reports
	}
}

// NewMemoryReporter creates a new MemoryReporter.
// It can be initialized with a list of reports using the WithReports option.
func NewMemoryReporter(options ...MemoryReporterOption) *MemoryReporter {
	reporter := &MemoryReporter{}
	for _, opt := range options {
		opt(reporter)
	}

	return reporter
}

// AddReport adds a report to the memory reporter.
func (e *MemoryReporter) AddReport(report Report[any, any]) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.reports = append(e.reports, report)

	return nil
}

// GetReports returns all reports.
func (e *MemoryReporter) GetReports() ([]Report[any, any], error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	// Create a copy to avoid data races after returning
	reports := make([]Report[any, any], len(e.reports))
	copy(reports, e.reports)

	return reports, nil
}

// GetReport returns a report by ID.
// Returns ErrReportNotFound if the report is not found.
func (e *MemoryReporter) GetReport(id string) (Report[any, any], error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, report := range e.reports {
		if report.ID == id {
			return report, nil
		}
	}

	return Report[any, any]{}, fmt.Errorf("report_id %s: %w", id, ErrReportNotFound)
}

// FileReporter keeps reports in memory and persists every added report as a JSON file in a
// directory. Files are named with a ksuid so a directory listing is in insertion order, and
// reports of earlier runs are loaded when the reporter is created.
type FileReporter struct {
	*MemoryReporter
	dir string
	mu  sync.Mutex
}

// NewFileReporter creates the directory, with a .gitkeep so it can be committed empty, and loads
// the reports it already holds.
func NewFileReporter(dir string) (*FileReporter, error) {
	if err := fileutils.MkdirAllGitKeep(dir); err != nil {
		return nil, fmt.Errorf("failed to create report directory %s: %w", dir, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read report directory %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	reports := make([]Report[any, any], 0, len(names))
	for _, name := range names {
		data, rerr := os.ReadFile(filepath.Join(dir, name))
		if rerr != nil {
			return nil, fmt.Errorf("failed to read report %s: %w", name, rerr)
		}

		var r Report[any, any]
		if rerr = json.Unmarshal(data, &r); rerr != nil {
			return nil, fmt.Errorf("failed to decode report %s: %w", name, rerr)
		}
		reports = append(reports, r)
	}

	return &FileReporter{
		MemoryReporter: NewMemoryReporter(WithReports(reports)),
		dir:            dir,
	}, nil
}

// AddReport writes the report to disk, then records it in memory.
func (f *FileReporter) AddReport(report Report[any, any]) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report %s: %w", report.ID, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	name := fmt.Sprintf("%s-%s.json", ksuid.New().String(), sanitize(report.Def.ID))
	if err = fileutils.WriteFileAtomic(filepath.Join(f.dir, name), data, 0o600); err != nil {
		return fmt.Errorf("failed to write report %s: %w", report.ID, err)
	}

	return f.MemoryReporter.AddReport(report)
}

func sanitize(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, id)
}

func genericReport[IN, OUT any](r Report[IN, OUT]) Report[any, any] {
	return Report[any, any]{
		ID: r.ID,
		Def: Definition{
			ID:          r.Def.ID,
			Version:     r.Def.Version,
			Description: r.Def.Description,
		},
		Output:    r.Output,
		Input:     r.Input,
		Timestamp: r.Timestamp,
		Err:       r.Err,
		Forced:    r.Forced,
	}
}

// typeReport attempts to convert Report[any,any] type into Report[IN,OUT].
// This is needed when loading Report from disk and need to convert the type during execution
// once the type is known.
func typeReport[IN, OUT any](r Report[any, any]) (Report[IN, OUT], bool) {
	// When marshalling and unmarshalling, the type information is lost.
	// eg int becomes float64, struct becomes map[string]interface{}. So we need to unmarshal it
	// back to the original type as specified by the generic type to avoid data lost.
	inputBytes, err := json.Marshal(r.Input)
	if err != nil {
		return Report[IN, OUT]{}, false
	}
	var input IN
	if err = json.Unmarshal(inputBytes, &input); err != nil {
		return Report[IN, OUT]{}, false
	}

	outputBytes, err := json.Marshal(r.Output)
	if err != nil {
		return Report[IN, OUT]{}, false
	}

	var output OUT
	if err := json.Unmarshal(outputBytes, &output); err != nil {
		return Report[IN, OUT]{}, false
	}

	return Report[IN, OUT]{
		ID:        r.ID,
		Def:       r.Def,
		Output:    output,
		Input:     input,
		Timestamp: r.Timestamp,
		Err:       r.Err,
		Forced:    r.Forced,
	}, true
}
