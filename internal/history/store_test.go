package history

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/JNZader/codesentry/internal/issue"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(StoreConfig{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleFiles() []File {
	return []File{
		{
			Path:     "app/db.py",
			Language: "python",
			Issues: []issue.Issue{
				{Severity: issue.SeverityCritical, Category: issue.CategorySecurity, Line: 20, RuleID: "sql-injection",
					Message: "Possible SQL injection", Suggestion: "Use parameterized queries", FilePath: "app/db.py"},
				{Severity: issue.SeverityMedium, Category: issue.CategoryBestPractice, Line: 10, RuleID: "bare-except",
					Message: "Bare except", FilePath: "app/db.py"},
			},
		},
		{
			Path:     "web/app.js",
			Language: "javascript",
			Issues: []issue.Issue{
				{Severity: issue.SeverityHigh, Category: issue.CategorySecurity, Line: 3, Column: 4, RuleID: "hardcoded-secret",
					Message: "Hardcoded secret", Context: `const key = "x"`, FilePath: "web/app.js"},
			},
		},
		{Path: "clean.go", Language: "go"},
	}
}

func TestNewStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := NewStore(StoreConfig{Path: dbPath})
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestSaveRun(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	run, err := store.SaveRun(ctx, "main", sampleFiles())
	if err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	if run.ID == "" {
		t.Error("Run ID was not set")
	}
	if run.Files != 3 || run.Issues != 3 || run.Critical != 1 || run.High != 1 {
		t.Errorf("unexpected counts: %+v", run)
	}

	got, err := store.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.BaseRef != "main" || got.Issues != 3 {
		t.Errorf("stored run mismatch: %+v", got)
	}
	if !got.CreatedAt.Equal(run.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, run.CreatedAt)
	}
}

func TestRunIssuesKeepOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	run, err := store.SaveRun(ctx, "", sampleFiles())
	if err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	records, err := store.RunIssues(ctx, run.ID)
	if err != nil {
		t.Fatalf("RunIssues failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	wantRules := []string{"sql-injection", "bare-except", "hardcoded-secret"}
	for i, rec := range records {
		if rec.RuleID != wantRules[i] {
			t.Errorf("record %d rule = %q, want %q", i, rec.RuleID, wantRules[i])
		}
		if rec.RunID != run.ID {
			t.Errorf("record %d run id = %q", i, rec.RunID)
		}
	}

	js := records[2]
	if js.Language != "javascript" || js.Column != 4 || js.Context != `const key = "x"` {
		t.Errorf("unexpected record: %+v", js)
	}
	if js.Severity != issue.SeverityHigh || js.Category != issue.CategorySecurity {
		t.Errorf("severity/category not round-tripped: %+v", js)
	}
}

func TestRunIssuesUnknownRun(t *testing.T) {
	store := newTestStore(t)

	_, err := store.RunIssues(context.Background(), "missing")
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestListRuns(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Hour)
		store.now = func() time.Time { return at }
		run, err := store.SaveRun(ctx, "main", nil)
		if err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}
		ids = append(ids, run.ID)
	}

	runs, err := store.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != ids[2] || runs[1].ID != ids[1] {
		t.Errorf("runs not newest first: %v", []string{runs[0].ID, runs[1].ID})
	}
}

func TestSearch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.SaveRun(ctx, "main", sampleFiles()); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	tests := []struct {
		name  string
		query SearchQuery
		want  int
	}{
		{"all", SearchQuery{}, 3},
		{"text", SearchQuery{Text: "parameterized"}, 1},
		{"file wildcard", SearchQuery{File: "app/*"}, 2},
		{"severity", SearchQuery{Severity: issue.SeverityHigh}, 1},
		{"rule", SearchQuery{RuleID: "bare-except"}, 1},
		{"combined", SearchQuery{File: "app/*", Severity: issue.SeverityCritical}, 1},
		{"limit", SearchQuery{Limit: 1}, 1},
		{"no match", SearchQuery{RuleID: "nothing"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Search(ctx, tt.query)
			if err != nil {
				t.Fatalf("Search failed: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d records, want %d", len(got), tt.want)
			}
		})
	}
}
