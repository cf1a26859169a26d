// Package store persists the per-item pipeline state as a tabular
// spreadsheet file. It is the single source of truth for resumption:
// every stage reads and writes item rows through it, one row at a time.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/afiuh/BiliVideoAnalyzer/internal/scoring"
)

// Column names. Presence is checked by name, never by position.
const (
	ColID           = "id"
	ColTitle        = "title"
	ColInformation  = "information_score"
	ColRational     = "rational_score"
	ColExperiential = "experiential_score"
	ColTier         = "tier"
	ColArtifact     = "artifact_reference"
)

const sheetName = "scores"

var requiredColumns = []string{ColID, ColInformation, ColRational, ColExperiential, ColTier}

// ErrMissingColumn reports a store file whose header row lacks a required
// column. This is a hard configuration error.
var ErrMissingColumn = errors.New("item store: missing required column")

// ErrUnknownItem reports a write against an id the store has no row for.
var ErrUnknownItem = errors.New("item store: unknown item")

// Item is one content item row.
type Item struct {
	ID           string
	Title        string
	Information  float64
	Rational     float64
	Experiential float64
	Tier         scoring.Tier
	Artifact     string
}

// Store wraps the spreadsheet file. Not safe for concurrent use; the
// pipeline is single-worker by design.
type Store struct {
	path  string
	f     *excelize.File
	cols  map[string]int // 1-based column index by header name
	rows  map[string]int // 1-based row index by item id
	items map[string]*Item
	order []string

	// last occupied sheet row, including blank-id rows that carry no
	// item; new rows are appended after it
	lastRow int

	// set when an opened file uses a different sheet name
	sheetOverride string
}

// Create writes a fresh store file with the header row.
func Create(path string) (*Store, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("item store: name sheet: %w", err)
	}

	headers := []string{ColID, ColTitle, ColInformation, ColRational, ColExperiential, ColTier}
	cols := make(map[string]int, len(headers))
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, fmt.Errorf("item store: write header: %w", err)
		}
		cols[h] = i + 1
	}
	_ = f.SetColWidth(sheetName, "A", "B", 18)
	_ = f.SetColWidth(sheetName, "C", "F", 14)

	s := &Store{
		path:    path,
		f:       f,
		cols:    cols,
		rows:    make(map[string]int),
		items:   make(map[string]*Item),
		lastRow: 1,
	}
	if err := s.Save(); err != nil {
		return nil, err
	}
	return s, nil
}

// Open loads an existing store file and indexes its columns by header
// name. A missing required column is a hard error.
func Open(path string) (*Store, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("item store: open %s: %w", path, err)
	}

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("item store: read %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s (empty file)", ErrMissingColumn, ColID)
	}

	cols := make(map[string]int)
	for i, h := range rows[0] {
		if h != "" {
			cols[h] = i + 1
		}
	}
	for _, required := range requiredColumns {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	s := &Store{
		path:    path,
		f:       f,
		cols:    cols,
		rows:    make(map[string]int),
		items:   make(map[string]*Item),
		lastRow: len(rows),
	}

	cell := func(row []string, name string) string {
		idx, ok := cols[name]
		if !ok || idx > len(row) {
			return ""
		}
		return row[idx-1]
	}

	for i, row := range rows[1:] {
		id := cell(row, ColID)
		if id == "" {
			continue
		}
		if _, dup := s.items[id]; dup {
			// Hand-edited files can repeat an id; the first row wins and
			// stays the one the writer methods target.
			continue
		}
		item := &Item{
			ID:           id,
			Title:        cell(row, ColTitle),
			Information:  parseFloat(cell(row, ColInformation)),
			Rational:     parseFloat(cell(row, ColRational)),
			Experiential: parseFloat(cell(row, ColExperiential)),
			Tier:         scoring.Tier(cell(row, ColTier)),
			Artifact:     cell(row, ColArtifact),
		}
		s.rows[id] = i + 2
		s.items[id] = item
		s.order = append(s.order, id)
	}

	// Rename for the writer methods; the original sheet name is kept on
	// disk, only our handle uses it.
	if sheet != sheetName {
		s.sheetOverride = sheet
	}

	return s, nil
}

// OpenOrCreate opens the store file, creating it when absent.
func OpenOrCreate(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return Create(path)
		}
		return nil, fmt.Errorf("item store: stat %s: %w", path, err)
	}
	return Open(path)
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func (s *Store) sheet() string {
	if s.sheetOverride != "" {
		return s.sheetOverride
	}
	return sheetName
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Len returns the number of item rows.
func (s *Store) Len() int { return len(s.order) }

// Items returns the items in row order.
func (s *Store) Items() []Item {
	out := make([]Item, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.items[id])
	}
	return out
}

// Get returns the item with the given id.
func (s *Store) Get(id string) (Item, bool) {
	item, ok := s.items[id]
	if !ok {
		return Item{}, false
	}
	return *item, true
}

// HasTier reports whether the item exists and already carries a tier.
func (s *Store) HasTier(id string) bool {
	item, ok := s.items[id]
	return ok && item.Tier != ""
}

// Upsert writes the item's identity, scores and tier, inserting a new row
// or rewriting the existing one. An existing artifact pointer is never
// cleared by an upsert. The file is saved before returning.
func (s *Store) Upsert(item Item) error {
	row, exists := s.rows[item.ID]
	if !exists {
		// Append after the last occupied row, never over one. Opened
		// files can contain blank-id rows that hold no item but still
		// occupy their sheet row.
		row = s.lastRow + 1
	}

	if existing, ok := s.items[item.ID]; ok && item.Artifact == "" {
		item.Artifact = existing.Artifact
	}

	if err := s.setCell(row, ColID, item.ID); err != nil {
		return err
	}
	if err := s.setCell(row, ColTitle, item.Title); err != nil {
		return err
	}
	if err := s.setCell(row, ColInformation, item.Information); err != nil {
		return err
	}
	if err := s.setCell(row, ColRational, item.Rational); err != nil {
		return err
	}
	if err := s.setCell(row, ColExperiential, item.Experiential); err != nil {
		return err
	}
	if err := s.setCell(row, ColTier, string(item.Tier)); err != nil {
		return err
	}
	if item.Artifact != "" {
		if err := s.setArtifactCell(row, item.Artifact); err != nil {
			return err
		}
	}

	if !exists {
		s.rows[item.ID] = row
		s.order = append(s.order, item.ID)
		s.lastRow = row
	}
	stored := item
	s.items[item.ID] = &stored

	return s.Save()
}

// SetArtifact records the review artifact pointer for an item and, when a
// tier override is supplied, rewrites the tier in the same persisted
// write. The artifact column is appended to the header on first use.
func (s *Store) SetArtifact(id, artifact string, tierOverride scoring.Tier) error {
	row, ok := s.rows[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}

	if err := s.setArtifactCell(row, artifact); err != nil {
		return err
	}
	if tierOverride != "" {
		if err := s.setCell(row, ColTier, string(tierOverride)); err != nil {
			return err
		}
		s.items[id].Tier = tierOverride
	}
	s.items[id].Artifact = artifact

	return s.Save()
}

func (s *Store) setArtifactCell(row int, artifact string) error {
	if _, ok := s.cols[ColArtifact]; !ok {
		idx := len(s.cols) + 1
		cell, _ := excelize.CoordinatesToCellName(idx, 1)
		if err := s.f.SetCellValue(s.sheet(), cell, ColArtifact); err != nil {
			return fmt.Errorf("item store: append artifact column: %w", err)
		}
		s.cols[ColArtifact] = idx
	}
	return s.setCell(row, ColArtifact, artifact)
}

func (s *Store) setCell(row int, col string, value interface{}) error {
	idx, ok := s.cols[col]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMissingColumn, col)
	}
	cell, _ := excelize.CoordinatesToCellName(idx, row)
	if err := s.f.SetCellValue(s.sheet(), cell, value); err != nil {
		return fmt.Errorf("item store: write cell %s: %w", cell, err)
	}
	return nil
}

// Save writes the workbook to disk. A failure here is fatal for the
// pipeline: proceeding with an unpersisted in-memory view risks losing it.
func (s *Store) Save() error {
	if err := s.f.SaveAs(s.path); err != nil {
		return fmt.Errorf("item store: save %s: %w", s.path, err)
	}
	return nil
}

// Close releases the workbook handle.
func (s *Store) Close() error {
	return s.f.Close()
}

// Backup copies the store file into dir under a timestamped name and
// returns the backup path.
func (s *Store) Backup(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("item store: create backup dir: %w", err)
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", fmt.Errorf("item store: read for backup: %w", err)
	}
	backup := filepath.Join(dir, time.Now().Format("20060102_1504")+".xlsx")
	if err := os.WriteFile(backup, data, 0644); err != nil {
		return "", fmt.Errorf("item store: write backup: %w", err)
	}
	return backup, nil
}
