package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/afiuh/BiliVideoAnalyzer/internal/scoring"
)

func tempStorePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "scores.xlsx")
}

func TestCreateAndReopen(t *testing.T) {
	path := tempStorePath(t)

	s, err := Create(path)
	require.NoError(t, err)

	item := Item{
		ID:           "BV1xx411c7mD",
		Title:        "量子力学入门",
		Information:  55.12,
		Rational:     6.01,
		Experiential: 2.5,
		Tier:         scoring.TierS,
	}
	require.NoError(t, s.Upsert(item))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, 1, reopened.Len())
	got, ok := reopened.Get("BV1xx411c7mD")
	require.True(t, ok)
	assert.Equal(t, item.Title, got.Title)
	assert.InDelta(t, item.Information, got.Information, 0.001)
	assert.InDelta(t, item.Rational, got.Rational, 0.001)
	assert.InDelta(t, item.Experiential, got.Experiential, 0.001)
	assert.Equal(t, scoring.TierS, got.Tier)
	assert.True(t, reopened.HasTier("BV1xx411c7mD"))
	assert.False(t, reopened.HasTier("missing"))
}

func TestOpenIndexesColumnsByName(t *testing.T) {
	// A file written by another tool: shuffled column order, extra
	// columns, a foreign sheet name. All of it must still load.
	path := tempStorePath(t)
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName(f.GetSheetName(0), "Sheet1"))

	headers := []string{"notes", ColTier, ColID, ColExperiential, ColRational, ColInformation}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		require.NoError(t, f.SetCellValue("Sheet1", cell, h))
	}
	row := []interface{}{"hand edited", "C", "BV1yy", 1.5, 2.25, 30.0}
	for i, v := range row {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		require.NoError(t, f.SetCellValue("Sheet1", cell, v))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	got, ok := s.Get("BV1yy")
	require.True(t, ok)
	assert.Equal(t, scoring.TierC, got.Tier)
	assert.InDelta(t, 30.0, got.Information, 0.001)
	assert.InDelta(t, 2.25, got.Rational, 0.001)

	// Writes against the foreign layout must round-trip too.
	require.NoError(t, s.Upsert(Item{ID: "BV1yy", Tier: scoring.TierBGeneral, Information: 35}))
	require.NoError(t, s.Close())

	again, err := Open(path)
	require.NoError(t, err)
	defer again.Close()
	got, _ = again.Get("BV1yy")
	assert.Equal(t, scoring.TierBGeneral, got.Tier)
}

func TestUpsertAppendsAfterRowGap(t *testing.T) {
	// A hand-edited file with a blank row between items: the blank row
	// carries no item, but a new row must still land after it, never on
	// top of a later item.
	path := tempStorePath(t)
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	headers := []string{ColID, ColTitle, ColInformation, ColRational, ColExperiential, ColTier}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		require.NoError(t, f.SetCellValue(sheet, cell, h))
	}
	require.NoError(t, f.SetCellValue(sheet, "A2", "BV1aa"))
	require.NoError(t, f.SetCellValue(sheet, "F2", "C"))
	require.NoError(t, f.SetCellValue(sheet, "B3", "row with no id"))
	require.NoError(t, f.SetCellValue(sheet, "A4", "BV1bb"))
	require.NoError(t, f.SetCellValue(sheet, "F4", "D"))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	s, err := Open(path)
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())

	require.NoError(t, s.Upsert(Item{ID: "BV1cc", Tier: scoring.TierS}))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, 3, reopened.Len())
	survivor, ok := reopened.Get("BV1bb")
	require.True(t, ok, "existing item must survive an unrelated upsert")
	assert.Equal(t, scoring.TierD, survivor.Tier)
	added, ok := reopened.Get("BV1cc")
	require.True(t, ok)
	assert.Equal(t, scoring.TierS, added.Tier)
}

func TestOpenSkipsDuplicateIDs(t *testing.T) {
	path := tempStorePath(t)
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	headers := []string{ColID, ColInformation, ColRational, ColExperiential, ColTier}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		require.NoError(t, f.SetCellValue(sheet, cell, h))
	}
	require.NoError(t, f.SetCellValue(sheet, "A2", "BV1aa"))
	require.NoError(t, f.SetCellValue(sheet, "E2", "C"))
	require.NoError(t, f.SetCellValue(sheet, "A3", "BV1aa"))
	require.NoError(t, f.SetCellValue(sheet, "E3", "D"))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, 1, s.Len())
	got, _ := s.Get("BV1aa")
	assert.Equal(t, scoring.TierC, got.Tier, "first row wins")

	// A new item still lands on a fresh row below both occurrences.
	require.NoError(t, s.Upsert(Item{ID: "BV1bb", Tier: scoring.TierS}))
	assert.Equal(t, 2, s.Len())
}

func TestOpenMissingRequiredColumn(t *testing.T) {
	path := tempStorePath(t)
	f := excelize.NewFile()
	headers := []string{ColID, ColTitle, ColInformation, ColRational} // no tier, no experiential
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		require.NoError(t, f.SetCellValue(f.GetSheetName(0), cell, h))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	_, err := Open(path)
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestUpsertRewritesInPlace(t *testing.T) {
	path := tempStorePath(t)
	s, err := Create(path)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Upsert(Item{ID: "BV1aa", Tier: scoring.TierC}))
	require.NoError(t, s.Upsert(Item{ID: "BV1bb", Tier: scoring.TierD}))
	require.NoError(t, s.Upsert(Item{ID: "BV1aa", Tier: scoring.TierAAnalysis, Information: 42}))

	assert.Equal(t, 2, s.Len())
	got, _ := s.Get("BV1aa")
	assert.Equal(t, scoring.TierAAnalysis, got.Tier)

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "BV1aa", items[0].ID)
	assert.Equal(t, "BV1bb", items[1].ID)
}

func TestUpsertPreservesArtifact(t *testing.T) {
	path := tempStorePath(t)
	s, err := Create(path)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Upsert(Item{ID: "BV1aa", Tier: scoring.TierS}))
	require.NoError(t, s.SetArtifact("BV1aa", "reviews/BV1aa.docx", ""))

	// Re-scoring the same item must not clear the review pointer.
	require.NoError(t, s.Upsert(Item{ID: "BV1aa", Tier: scoring.TierS, Information: 60}))

	got, _ := s.Get("BV1aa")
	assert.Equal(t, "reviews/BV1aa.docx", got.Artifact)
}

func TestSetArtifactWithTierOverride(t *testing.T) {
	path := tempStorePath(t)
	s, err := Create(path)
	require.NoError(t, err)

	require.NoError(t, s.Upsert(Item{ID: "BV1aa", Tier: scoring.TierS}))
	require.NoError(t, s.SetArtifact("BV1aa", "reviews/BV1aa.docx", scoring.TierX))
	require.NoError(t, s.Close())

	// Both the artifact and the override must be in the same saved file.
	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, _ := reopened.Get("BV1aa")
	assert.Equal(t, scoring.TierX, got.Tier)
	assert.Equal(t, "reviews/BV1aa.docx", got.Artifact)
}

func TestSetArtifactUnknownItem(t *testing.T) {
	s, err := Create(tempStorePath(t))
	require.NoError(t, err)
	defer s.Close()

	err = s.SetArtifact("BV_nope", "reviews/x.docx", "")
	assert.ErrorIs(t, err, ErrUnknownItem)
}

func TestBackup(t *testing.T) {
	path := tempStorePath(t)
	s, err := Create(path)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Upsert(Item{ID: "BV1aa", Tier: scoring.TierC}))

	dir := filepath.Join(filepath.Dir(path), "backups")
	backup, err := s.Backup(dir)
	require.NoError(t, err)
	assert.FileExists(t, backup)

	copied, err := Open(backup)
	require.NoError(t, err)
	defer copied.Close()
	assert.Equal(t, 1, copied.Len())
}
