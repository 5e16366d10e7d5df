// Package export runs asynchronous design export jobs. A worker snapshots a
// stored design, renders it into one artifact per requested format, and
// persists the artifacts through the blob store. Jobs are tracked in memory
// and never touch the editing core concurrently; the worker only reads
// committed state.
package export

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"quiltcore/internal/blob"
	"quiltcore/pkg/design"
)

// Status describes the lifecycle stage of an export job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Format selects an artifact encoding.
type Format string

const (
	// FormatJSON renders the versioned document envelope.
	FormatJSON Format = "json"
	// FormatCSV renders a flat listing of the document's placed pieces.
	FormatCSV Format = "csv"
)

// Artifact captures one stored export output.
type Artifact struct {
	Key         string    `json:"key"`
	Format      Format    `json:"format"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	ETag        string    `json:"etag,omitempty"`
	URL         string    `json:"url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Record tracks an export job and its resulting artifacts.
type Record struct {
	ID          string            `json:"id"`
	Entity      design.EntityType `json:"entity"`
	DesignID    string            `json:"design_id"`
	DesignName  string            `json:"design_name"`
	Formats     []Format          `json:"formats"`
	Status      Status            `json:"status"`
	Error       string            `json:"error,omitempty"`
	Artifacts   []Artifact        `json:"artifacts,omitempty"`
	RequestedBy string            `json:"requested_by,omitempty"`
	Reason      string            `json:"reason,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}

// Input represents an enqueue request for the worker.
type Input struct {
	Entity      design.EntityType
	DesignID    string
	Formats     []Format
	RequestedBy string
	Reason      string
}

// Scheduler queues export requests and exposes job status.
type Scheduler interface {
	Enqueue(ctx context.Context, input Input) (Record, error)
	Get(id string) (Record, bool)
}

// DesignSource resolves stored designs by id. Satisfied by every persistent
// store implementation.
type DesignSource interface {
	GetBlockDesign(id string) (design.BlockDesign, bool)
	GetPatternDesign(id string) (design.PatternDesign, bool)
}

// Worker executes export jobs asynchronously off a bounded queue.
type Worker struct {
	source DesignSource
	store  blob.Store
	audit  AuditLogger

	queue chan task
	mu    sync.RWMutex
	jobs  map[string]*Record

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type task struct {
	id string
}

type renderedArtifact struct {
	artifact Artifact
	payload  []byte
}

// NewWorker constructs an export worker reading designs from source and
// writing artifacts to store. audit may be nil.
func NewWorker(source DesignSource, store blob.Store, audit AuditLogger) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		source: source,
		store:  store,
		audit:  audit,
		queue:  make(chan task, 32),
		jobs:   make(map[string]*Record),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins processing queued jobs.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop signals the worker to halt and waits for the loop to exit. Jobs still
// queued when Stop is called remain in the queued state.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case t := <-w.queue:
			w.process(t)
		}
	}
}

// Enqueue validates the request, registers a queued job, and returns its
// record. The design must exist at enqueue time; the document exported is the
// committed state at processing time.
func (w *Worker) Enqueue(ctx context.Context, input Input) (Record, error) {
	if w.source == nil {
		return Record{}, fmt.Errorf("export source not configured")
	}
	if strings.TrimSpace(input.DesignID) == "" {
		return Record{}, fmt.Errorf("design id required")
	}

	name, err := w.resolveName(input.Entity, input.DesignID)
	if err != nil {
		return Record{}, err
	}

	formats := input.Formats
	if len(formats) == 0 {
		formats = []Format{FormatJSON, FormatCSV}
	}
	uniq := make([]Format, 0, len(formats))
	seen := make(map[Format]struct{})
	for _, format := range formats {
		if _, duplicate := seen[format]; duplicate {
			continue
		}
		if format != FormatJSON && format != FormatCSV {
			return Record{}, fmt.Errorf("unsupported export format %s", format)
		}
		uniq = append(uniq, format)
		seen[format] = struct{}{}
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	record := Record{
		ID:          id,
		Entity:      input.Entity,
		DesignID:    input.DesignID,
		DesignName:  name,
		Formats:     uniq,
		Status:      StatusQueued,
		RequestedBy: input.RequestedBy,
		Reason:      input.Reason,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	w.mu.Lock()
	w.jobs[id] = &record
	queued := record.copy()
	w.mu.Unlock()

	if w.audit != nil {
		w.audit.Record(ctx, AuditEntry{
			ID:         uuid.NewString(),
			Action:     auditAction,
			Actor:      input.RequestedBy,
			Entity:     input.Entity,
			DesignID:   input.DesignID,
			Status:     StatusQueued,
			Reason:     input.Reason,
			OccurredAt: now,
		})
	}

	select {
	case w.queue <- task{id: id}:
	default:
		return Record{}, fmt.Errorf("export queue full")
	}

	return queued, nil
}

// Get returns a snapshot of the job record.
func (w *Worker) Get(id string) (Record, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	record, ok := w.jobs[id]
	if !ok {
		return Record{}, false
	}
	return record.copy(), true
}

func (w *Worker) resolveName(entity design.EntityType, id string) (string, error) {
	switch entity {
	case design.EntityBlockDesign:
		d, ok := w.source.GetBlockDesign(id)
		if !ok {
			return "", design.ErrNotFound{Entity: entity, ID: id}
		}
		return d.Name, nil
	case design.EntityPatternDesign:
		d, ok := w.source.GetPatternDesign(id)
		if !ok {
			return "", design.ErrNotFound{Entity: entity, ID: id}
		}
		return d.Name, nil
	default:
		return "", fmt.Errorf("unsupported export entity %s", entity)
	}
}

func (w *Worker) process(t task) {
	record, ok := w.Get(t.id)
	if !ok {
		return
	}

	w.updateStatus(t.id, StatusRunning, "")

	rendered, err := w.render(record)
	if err != nil {
		w.fail(t.id, err.Error())
		return
	}

	artifacts := make([]Artifact, 0, len(rendered))
	for _, ra := range rendered {
		stored := ra.artifact
		if w.store != nil {
			info, err := w.store.Put(w.ctx, ra.artifact.Key, strings.NewReader(string(ra.payload)), blob.PutOptions{
				ContentType: ra.artifact.ContentType,
				Metadata: map[string]string{
					"entity":      string(record.Entity),
					"design_id":   record.DesignID,
					"design_name": record.DesignName,
					"format":      string(ra.artifact.Format),
				},
			})
			if err != nil {
				w.fail(t.id, fmt.Sprintf("store artifact: %v", err))
				return
			}
			stored.SizeBytes = info.Size
			stored.ETag = info.ETag
			if info.URL != "" {
				stored.URL = info.URL
			}
			if !info.LastModified.IsZero() {
				stored.CreatedAt = info.LastModified
			}
		}
		artifacts = append(artifacts, stored)
	}

	w.complete(t.id, artifacts)
}

func (w *Worker) render(record Record) ([]renderedArtifact, error) {
	out := make([]renderedArtifact, 0, len(record.Formats))
	switch record.Entity {
	case design.EntityBlockDesign:
		d, ok := w.source.GetBlockDesign(record.DesignID)
		if !ok {
			return nil, design.ErrNotFound{Entity: record.Entity, ID: record.DesignID}
		}
		for _, format := range record.Formats {
			payload, err := renderBlock(d.Document, format)
			if err != nil {
				return nil, err
			}
			out = append(out, renderedArtifact{
				artifact: newArtifact(record, format, int64(len(payload))),
				payload:  payload,
			})
		}
	case design.EntityPatternDesign:
		d, ok := w.source.GetPatternDesign(record.DesignID)
		if !ok {
			return nil, design.ErrNotFound{Entity: record.Entity, ID: record.DesignID}
		}
		for _, format := range record.Formats {
			payload, err := renderPattern(d.Document, format)
			if err != nil {
				return nil, err
			}
			out = append(out, renderedArtifact{
				artifact: newArtifact(record, format, int64(len(payload))),
				payload:  payload,
			})
		}
	default:
		return nil, fmt.Errorf("unsupported export entity %s", record.Entity)
	}
	return out, nil
}

func newArtifact(record Record, format Format, size int64) Artifact {
	return Artifact{
		Key:         artifactKey(record.ID, record.DesignID, format),
		Format:      format,
		ContentType: contentTypeFor(format),
		SizeBytes:   size,
		CreatedAt:   time.Now().UTC(),
	}
}

func artifactKey(jobID, designID string, format Format) string {
	return fmt.Sprintf("exports/%s/%s.%s", jobID, designID, format)
}

func contentTypeFor(format Format) string {
	switch format {
	case FormatCSV:
		return "text/csv"
	default:
		return "application/json"
	}
}

func (w *Worker) updateStatus(id string, status Status, message string) {
	now := time.Now().UTC()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = status
		record.Error = message
		record.UpdatedAt = now
	}
	w.mu.Unlock()
	w.recordAudit(id, status, nil)
}

func (w *Worker) complete(id string, artifacts []Artifact) {
	now := time.Now().UTC()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = StatusSucceeded
		record.Error = ""
		record.Artifacts = artifacts
		record.UpdatedAt = now
		record.CompletedAt = &now
	}
	w.mu.Unlock()
	w.recordAudit(id, StatusSucceeded, map[string]any{"artifacts": len(artifacts)})
}

func (w *Worker) fail(id, reason string) {
	now := time.Now().UTC()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = StatusFailed
		record.Error = reason
		record.UpdatedAt = now
		record.CompletedAt = &now
	}
	w.mu.Unlock()
	w.recordAudit(id, StatusFailed, map[string]any{"error": reason})
}

func (w *Worker) recordAudit(id string, status Status, metadata map[string]any) {
	if w.audit == nil {
		return
	}
	record, ok := w.Get(id)
	if !ok {
		return
	}
	w.audit.Record(w.ctx, AuditEntry{
		ID:         uuid.NewString(),
		Action:     auditAction,
		Actor:      record.RequestedBy,
		Entity:     record.Entity,
		DesignID:   record.DesignID,
		Status:     status,
		Reason:     record.Reason,
		Metadata:   metadata,
		OccurredAt: time.Now().UTC(),
	})
}

func (r Record) copy() Record {
	dup := r
	dup.Formats = append([]Format(nil), r.Formats...)
	if len(r.Artifacts) > 0 {
		dup.Artifacts = append([]Artifact(nil), r.Artifacts...)
	}
	if r.CompletedAt != nil {
		at := *r.CompletedAt
		dup.CompletedAt = &at
	}
	return dup
}
