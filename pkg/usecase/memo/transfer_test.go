package memo_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/profmemo/pkg/model"
	"github.com/m-mizutani/profmemo/pkg/usecase/memo"
)

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	uc, _, clock := setup(t)

	gt.True(t, uc.SaveMemo(ctx, "https://x.com/Alice", "likes cats"))
	clock.Advance(1500 * time.Millisecond)
	gt.True(t, uc.SaveMemo(ctx, "https://twitter.com/bob", "line one\nline two"))
	clock.Advance(time.Hour)
	gt.True(t, uc.SaveMemo(ctx, "https://x.com/alice", "likes dogs"))
	gt.True(t, uc.SaveMemo(ctx, "carol", ""))

	exported, err := uc.ExportData(ctx)
	gt.NoError(t, err)

	other, repo, _ := setup(t)
	gt.True(t, other.ImportData(ctx, exported))
	gt.Equal(t, repo.saves, 1)

	gt.Equal(t, other.GetAllMemos(ctx), uc.GetAllMemos(ctx))

	reexported, err := other.ExportData(ctx)
	gt.NoError(t, err)
	gt.Equal(t, reexported, exported)
}

func TestExportFormat(t *testing.T) {
	ctx := context.Background()
	uc, _, _ := setup(t)

	gt.True(t, uc.SaveMemo(ctx, "https://x.com/Alice", "likes cats"))
	exported, err := uc.ExportData(ctx)
	gt.NoError(t, err)

	gt.S(t, exported).Contains("\n  \"alice\": {")

	var doc map[string]map[string]string
	gt.NoError(t, json.Unmarshal([]byte(exported), &doc))
	gt.Equal(t, doc["alice"]["id"], "alice")
	gt.Equal(t, doc["alice"]["sourceUrl"], "https://x.com/Alice")
	gt.Equal(t, doc["alice"]["displayName"], "Alice")
	gt.Equal(t, doc["alice"]["text"], "likes cats")
	gt.Equal(t, doc["alice"]["createdAt"], "2024-06-28T12:00:00.000Z")
	gt.Equal(t, doc["alice"]["updatedAt"], "2024-06-28T12:00:00.000Z")
}

func TestExportEmptyStore(t *testing.T) {
	uc, _, _ := setup(t)

	exported, err := uc.ExportData(context.Background())
	gt.NoError(t, err)
	gt.Equal(t, exported, "{}")
}

func TestImportReplacesStore(t *testing.T) {
	ctx := context.Background()
	uc, _, _ := setup(t)

	gt.True(t, uc.SaveMemo(ctx, "alice", "will be gone"))
	gt.True(t, uc.ImportData(ctx, `{"bob": {"id": "bob", "sourceUrl": "https://x.com/bob", "displayName": "bob", "text": "kept",
		"createdAt": "2024-01-01T00:00:00.000Z", "updatedAt": "2024-01-02T00:00:00.000Z"}}`))

	gt.False(t, uc.HasMemo(ctx, "alice"))
	gt.Equal(t, uc.GetMemo(ctx, "bob").Text, "kept")
	gt.Equal(t, uc.Count(ctx), 1)
}

func TestImportRejectsMalformedInput(t *testing.T) {
	ctx := context.Background()

	inputs := []string{
		`{"bad json`,
		``,
		`null`,
		`[]`,
		`"text"`,
		`{"alice": "likes cats"}`,
		`{"alice": {"text": 1}}`,
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			uc, repo, _ := setup(t)
			gt.True(t, uc.SaveMemo(ctx, "https://x.com/alice", "likes cats"))
			before, err := uc.ExportData(ctx)
			gt.NoError(t, err)

			gt.False(t, uc.ImportData(ctx, input))

			after, err := uc.ExportData(ctx)
			gt.NoError(t, err)
			gt.Equal(t, after, before)
			gt.Equal(t, repo.saves, 1)
		})
	}
}

func TestImportMigratesLegacyRecords(t *testing.T) {
	ctx := context.Background()
	uc, repo, _ := setup(t)

	gt.True(t, uc.ImportData(ctx, `{
		"bob": {"id": "bob", "text": "x", "timestamp": "24/06/28"},
		"https://twitter.com/Carol": {"text": "url keyed"},
		"https://example.com/nobody": {"text": "dropped"}
	}`))

	bob := uc.GetMemo(ctx, "bob")
	gt.Equal(t, model.FormatTime(bob.CreatedAt), "2024-06-28T00:00:00.000Z")
	gt.Equal(t, model.FormatTime(bob.UpdatedAt), "2024-06-28T00:00:00.000Z")

	carol := uc.GetMemo(ctx, "carol")
	gt.Equal(t, carol.Text, "url keyed")
	gt.Equal(t, carol.DisplayName, "Carol")

	gt.Equal(t, uc.Count(ctx), 2)
	gt.Equal(t, len(repo.stored), 2)
}

func TestImportPersistenceFailure(t *testing.T) {
	ctx := context.Background()
	uc, repo, _ := setup(t)
	repo.failSave = true

	gt.True(t, uc.ImportData(ctx, `{"bob": {"id": "bob", "text": "x"}}`))
	gt.Error(t, uc.PersistErr())
	gt.True(t, uc.HasMemo(ctx, "bob"))
}

func TestImportEmptyObjectClearsStore(t *testing.T) {
	ctx := context.Background()
	uc, _, _ := setup(t)

	gt.True(t, uc.SaveMemo(ctx, "alice", "a"))
	gt.True(t, uc.ImportData(ctx, `{}`))
	gt.Equal(t, uc.Count(ctx), 0)
}

func TestMigrationIdempotentThroughImport(t *testing.T) {
	ctx := context.Background()
	uc := memo.New(ctx, newMockRepository())

	gt.True(t, uc.ImportData(ctx, `{"bob": {"id": "bob", "text": "x", "timestamp": "24/06/28"}}`))
	first, err := uc.ExportData(ctx)
	gt.NoError(t, err)

	gt.True(t, uc.ImportData(ctx, first))
	second, err := uc.ExportData(ctx)
	gt.NoError(t, err)

	gt.Equal(t, second, first)
}
