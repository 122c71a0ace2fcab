package state

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ShayCichocki/o1/internal/artifact"
	"github.com/ShayCichocki/o1/internal/orchestrator"
	"github.com/ShayCichocki/o1/pkg/models"
)

var _ orchestrator.Recorder = (*DB)(nil)

func TestRunCRUD(t *testing.T) {
	db := setupTestDB(t)
	started := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	run := &Run{ID: "run-1", Task: "Design a URL shortener", Pass: 1, StartedAt: started}
	if err := db.CreateRun(run); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}
	if run.Status != RunRunning {
		t.Errorf("default status = %q, want running", run.Status)
	}

	got, err := db.GetRun("run-1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got == nil {
		t.Fatal("GetRun returned nil")
	}
	if got.Task != run.Task || got.Pass != 1 || got.Status != RunRunning {
		t.Errorf("run = %+v", got)
	}
	if !got.StartedAt.Equal(started) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, started)
	}
	if got.FinishedAt != nil {
		t.Error("FinishedAt should be nil for a running pass")
	}

	finished := started.Add(time.Minute)
	if err := db.FinishRun("run-1", nil, finished); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}
	got, _ = db.GetRun("run-1")
	if got.Status != RunCompleted || got.Error != "" {
		t.Errorf("run after finish = %+v", got)
	}
	if got.FinishedAt == nil || !got.FinishedAt.Equal(finished) {
		t.Errorf("FinishedAt = %v", got.FinishedAt)
	}
}

func TestFinishRun_Failure(t *testing.T) {
	db := setupTestDB(t)
	if err := db.CreateRun(&Run{ID: "r", Task: "t", Pass: 2, StartedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}

	if err := db.FinishRun("r", errors.New("pass 2: implement step 3: quota"), time.Now()); err != nil {
		t.Fatal(err)
	}
	got, _ := db.GetRun("r")
	if got.Status != RunFailed || got.Error != "pass 2: implement step 3: quota" {
		t.Errorf("run = %+v", got)
	}
}

func TestFinishRun_Unknown(t *testing.T) {
	db := setupTestDB(t)
	if err := db.FinishRun("missing", nil, time.Now()); err == nil {
		t.Error("expected error finishing an unknown run")
	}
}

func TestGetRun_NotFound(t *testing.T) {
	db := setupTestDB(t)
	got, err := db.GetRun("nope")
	if err != nil || got != nil {
		t.Errorf("GetRun = %v, %v; want nil, nil", got, err)
	}
}

func TestListRuns(t *testing.T) {
	db := setupTestDB(t)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		if err := db.CreateRun(&Run{ID: id, Task: "t", Pass: 1, StartedAt: base.Add(time.Duration(i) * time.Hour)}); err != nil {
			t.Fatal(err)
		}
	}

	all, err := db.ListRuns(0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(all) != 3 || all[0].ID != "c" || all[2].ID != "a" {
		t.Errorf("runs = %+v, want newest first", all)
	}

	limited, err := db.ListRuns(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 || limited[0].ID != "c" {
		t.Errorf("limited = %+v", limited)
	}
}

func TestArtifacts(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := db.CreateRun(&Run{ID: "r", Task: "t", Pass: 1, StartedAt: now}); err != nil {
		t.Fatal(err)
	}

	records := []ArtifactRecord{
		{RunID: "r", Stage: models.StagePlan, Kind: models.ArtifactPlan, Name: "Initial_Plan", Location: "out/p.md", CreatedAt: now},
		{RunID: "r", Stage: models.StageImplement, Kind: models.ArtifactImplementation, Step: 1, Name: "Agent_1_Response", Location: "out/a1.md", CreatedAt: now},
		{RunID: "r", Stage: models.StageSynthesize, Kind: models.ArtifactFinalSummary, Name: "x_Final_Summary", Location: "out/f.md", CreatedAt: now},
	}
	for i := range records {
		if err := db.AddArtifact(&records[i]); err != nil {
			t.Fatalf("AddArtifact failed: %v", err)
		}
	}

	got, err := db.ListArtifacts("r")
	if err != nil {
		t.Fatalf("ListArtifacts failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("artifacts = %d, want 3", len(got))
	}
	for i, want := range records {
		g := got[i]
		if g.RunID != want.RunID || g.Stage != want.Stage || g.Kind != want.Kind ||
			g.Step != want.Step || g.Name != want.Name || g.Location != want.Location ||
			!g.CreatedAt.Equal(want.CreatedAt) {
			t.Errorf("artifact %d = %+v, want %+v", i, g, want)
		}
	}

	if other, _ := db.ListArtifacts("other"); len(other) != 0 {
		t.Errorf("other run artifacts = %d", len(other))
	}
}

func TestRecorderHooks(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now().UTC().Truncate(time.Second)

	if err := db.RunStarted("run-9", 2, "refine me", now); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for step := 1; step <= 4; step++ {
		wg.Add(1)
		go func(step int) {
			defer wg.Done()
			err := db.ArtifactSaved("run-9", artifact.Entry{
				Pass: 2, Stage: models.StageImplement, Kind: models.ArtifactImplementation,
				Step: step, Name: artifact.WorkerName(step), Location: "x", CreatedAt: now,
			})
			if err != nil {
				t.Errorf("ArtifactSaved(%d): %v", step, err)
			}
		}(step)
	}
	wg.Wait()

	if err := db.RunFinished("run-9", nil, now); err != nil {
		t.Fatal(err)
	}

	run, _ := db.GetRun("run-9")
	if run == nil || run.Pass != 2 || run.Status != RunCompleted {
		t.Errorf("run = %+v", run)
	}
	arts, _ := db.ListArtifacts("run-9")
	if len(arts) != 4 {
		t.Errorf("artifacts = %d, want 4", len(arts))
	}
}
