package integration

import (
	"bytes"
	"context"
	"io"
	"reflect"
	"strings"
	"testing"
	"time"

	"quiltcore/internal/adapters/export"
	"quiltcore/internal/blob"
	editor "quiltcore/internal/editor"
	design "quiltcore/pkg/design"
	"quiltcore/pkg/design/unitdef"
)

// TestIntegrationExportFlow runs designs from creation through the export
// worker into every blob adapter. The rendered artifacts must land under the
// job's key prefix, decode back to the stored documents, and leave an audit
// trail behind.
func TestIntegrationExportFlow(t *testing.T) {
	ctx := context.Background()

	blobVariants := []struct {
		name string
		open func(t *testing.T) blob.Store
	}{
		{
			name: "memory-blob",
			open: func(_ *testing.T) blob.Store { return blob.NewMemory() },
		},
		{
			name: "filesystem-blob",
			open: func(t *testing.T) blob.Store {
				fs, err := blob.NewFilesystem(t.TempDir())
				if err != nil {
					t.Fatalf("new filesystem blob: %v", err)
				}
				return fs
			},
		},
		{
			name: "mock-s3-blob",
			open: func(_ *testing.T) blob.Store { return blob.NewMockS3ForTests() },
		},
	}

	for _, bv := range blobVariants {
		t.Run(bv.name, func(t *testing.T) {
			bs := bv.open(t)
			store := editor.NewMemoryStore(editor.NewDefaultRulesEngine())
			svc := editor.NewService(store)

			doc := design.NewBlockDocument(4)
			unit, ok := unitdef.Instantiate(design.UnitSquare, "u-1", design.Position{Row: 0, Col: 0}, "", "background", "feature")
			if !ok {
				t.Fatalf("instantiate square unit")
			}
			doc.Units = append(doc.Units, unit)
			block, _, err := svc.CreateBlockDesign(ctx, editor.BlockDesign{Name: "Churn Dash", Document: doc})
			if err != nil {
				t.Fatalf("create block: %v", err)
			}

			patternDoc := design.NewPatternDocument(2, 2)
			patternDoc.Instances = []design.PlacedInstance{{
				ID:       "inst-1",
				BlockID:  block.ID,
				Position: design.Position{Row: 0, Col: 0},
			}}
			pattern, _, err := svc.CreatePatternDesign(ctx, editor.PatternDesign{Name: "Throw", Document: patternDoc})
			if err != nil {
				t.Fatalf("create pattern: %v", err)
			}

			audit := &export.MemoryAuditLog{}
			worker := export.NewWorker(store, bs, audit)
			worker.Start()
			defer func() {
				stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := worker.Stop(stopCtx); err != nil {
					t.Errorf("stop worker: %v", err)
				}
			}()

			if _, err := worker.Enqueue(ctx, export.Input{
				Entity:   design.EntityBlockDesign,
				DesignID: "missing-design",
			}); err == nil {
				t.Fatalf("expected enqueue to fail for unknown design")
			}

			// Empty format list defaults to every supported format.
			blockJob, err := worker.Enqueue(ctx, export.Input{
				Entity:      design.EntityBlockDesign,
				DesignID:    block.ID,
				RequestedBy: "integration",
			})
			if err != nil {
				t.Fatalf("enqueue block export: %v", err)
			}
			patternJob, err := worker.Enqueue(ctx, export.Input{
				Entity:      design.EntityPatternDesign,
				DesignID:    pattern.ID,
				Formats:     []export.Format{export.FormatJSON},
				RequestedBy: "integration",
			})
			if err != nil {
				t.Fatalf("enqueue pattern export: %v", err)
			}

			blockResult := waitForExport(t, worker, blockJob.ID)
			patternResult := waitForExport(t, worker, patternJob.ID)
			if blockResult.Status != export.StatusSucceeded {
				t.Fatalf("block export failed: %+v", blockResult)
			}
			if patternResult.Status != export.StatusSucceeded {
				t.Fatalf("pattern export failed: %+v", patternResult)
			}
			if len(blockResult.Artifacts) != 2 {
				t.Fatalf("expected json and csv artifacts, got %+v", blockResult.Artifacts)
			}
			if len(patternResult.Artifacts) != 1 || patternResult.Artifacts[0].Format != export.FormatJSON {
				t.Fatalf("expected single json artifact, got %+v", patternResult.Artifacts)
			}

			// Both artifacts sit under the job's key prefix.
			prefix := "exports/" + blockJob.ID + "/"
			infos, err := bs.List(ctx, prefix)
			if err != nil {
				t.Fatalf("list artifacts: %v", err)
			}
			if len(infos) != 2 {
				t.Fatalf("expected 2 stored artifacts under %s, got %+v", prefix, infos)
			}

			// The JSON payload decodes back to the committed document.
			_, rc, err := bs.Get(ctx, prefix+block.ID+".json")
			if err != nil {
				t.Fatalf("get json artifact: %v", err)
			}
			payload, err := io.ReadAll(rc)
			_ = rc.Close()
			if err != nil {
				t.Fatalf("read json artifact: %v", err)
			}
			decoded, err := design.DecodeBlockDocument(payload)
			if err != nil {
				t.Fatalf("decode exported document: %v", err)
			}
			stored, ok := store.GetBlockDesign(block.ID)
			if !ok {
				t.Fatalf("stored block missing")
			}
			if !reflect.DeepEqual(decoded, stored.Document) {
				t.Fatalf("exported document mismatch:\n got %+v\nwant %+v", decoded, stored.Document)
			}

			// The CSV payload carries the unit listing.
			_, rc, err = bs.Get(ctx, prefix+block.ID+".csv")
			if err != nil {
				t.Fatalf("get csv artifact: %v", err)
			}
			csvPayload, err := io.ReadAll(rc)
			_ = rc.Close()
			if err != nil {
				t.Fatalf("read csv artifact: %v", err)
			}
			if !bytes.HasPrefix(csvPayload, []byte("unit_id,")) || !strings.Contains(string(csvPayload), "u-1,square") {
				t.Fatalf("unexpected csv payload: %q", csvPayload)
			}

			// Every job leaves a queued and a terminal audit entry.
			var queued, succeeded int
			for _, entry := range audit.Entries() {
				if entry.Action != "design_export" {
					t.Fatalf("unexpected audit action %q", entry.Action)
				}
				switch entry.Status {
				case export.StatusQueued:
					queued++
				case export.StatusSucceeded:
					succeeded++
				}
			}
			if queued < 2 || succeeded < 2 {
				t.Fatalf("expected audit coverage for both jobs, got queued=%d succeeded=%d entries=%+v", queued, succeeded, audit.Entries())
			}
		})
	}
}

// waitForExport polls the worker until the job reaches a terminal status.
func waitForExport(t *testing.T, worker *export.Worker, id string) export.Record {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		record, ok := worker.Get(id)
		if !ok {
			t.Fatalf("export job %s vanished", id)
		}
		switch record.Status {
		case export.StatusSucceeded, export.StatusFailed:
			return record
		}
		if time.Now().After(deadline) {
			t.Fatalf("export job %s did not finish: %+v", id, record)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
