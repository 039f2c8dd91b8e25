package session

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/mcoot/badminton-pairing/internal/model"
)

// Import record results, as reported to metrics
const (
	importImported = "imported"
	importSkipped  = "skipped"
	importRejected = "rejected"
)

// ImportRecord is one player in a bulk import. Counters default to 0.
type ImportRecord struct {
	Name          string `yaml:"name"`
	Level         int    `yaml:"-"`
	GamesPlayed   int    `yaml:"gamesPlayed"`
	WaitingRounds int    `yaml:"waitingRounds"`
}

// ImportIssue describes a record that was not imported
type ImportIssue struct {
	Index  int // Zero-based position in the input list
	Name   string
	Reason string
	Err    error
}

// ImportReport lists what happened to each record of a bulk import
type ImportReport struct {
	Imported []*model.Player
	Skipped  []ImportIssue // Duplicate names
	Rejected []ImportIssue // Records that failed validation
}

// ImportPlayers adds players from a YAML or JSON list of records. Invalid
// records are rejected and duplicate names skipped individually; the rest
// of the batch is still imported. Input that is not a list fails with
// ErrInvalidImport and changes nothing.
func (c *Controller) ImportPlayers(ctx context.Context, data []byte) (*ImportReport, error) {
	items, err := parseImportList(data)
	if err != nil {
		return nil, err
	}

	report := &ImportReport{}
	_, err = c.mutate(ctx, func(s *model.Session) error {
		*report = ImportReport{}
		for i, item := range items {
			rec, err := c.decodeRecord(item)
			if err != nil {
				report.Rejected = append(report.Rejected, ImportIssue{
					Index:  i,
					Name:   rec.Name,
					Reason: err.Error(),
					Err:    err,
				})
				continue
			}

			p := model.NewPlayer(model.PlayerID(c.random.ID()), rec.Name, rec.Level)
			p.GamesPlayed = rec.GamesPlayed
			p.WaitingRounds = rec.WaitingRounds
			if err := s.AddPlayer(p); err != nil {
				report.Skipped = append(report.Skipped, ImportIssue{
					Index:  i,
					Name:   rec.Name,
					Reason: err.Error(),
					Err:    err,
				})
				continue
			}
			report.Imported = append(report.Imported, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.metrics.PlayersAdded(len(report.Imported))
	c.metrics.ImportRecords(importImported, len(report.Imported))
	c.metrics.ImportRecords(importSkipped, len(report.Skipped))
	c.metrics.ImportRecords(importRejected, len(report.Rejected))
	c.logger.Info("players imported",
		slog.Int("imported", len(report.Imported)),
		slog.Int("skipped", len(report.Skipped)),
		slog.Int("rejected", len(report.Rejected)),
	)
	return report, nil
}

// parseImportList returns the elements of a top-level list. JSON input is
// accepted as YAML.
func parseImportList(data []byte) ([]*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidImport, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 || doc.Content[0].Kind != yaml.SequenceNode {
		return nil, model.ErrInvalidImport
	}
	return doc.Content[0].Content, nil
}

// decodeRecord decodes and validates one list element. The returned record
// carries whatever name could be read, even on failure.
func (c *Controller) decodeRecord(node *yaml.Node) (ImportRecord, error) {
	var rec ImportRecord
	if node.Kind != yaml.MappingNode {
		return rec, fmt.Errorf("%w: record is not an object", model.ErrInvalidImport)
	}

	name := mappingValue(node, "name")
	if name == nil || name.Kind != yaml.ScalarNode || name.Tag != "!!str" {
		return rec, fmt.Errorf("%w: name must be a string", model.ErrInvalidName)
	}
	rec.Name = name.Value

	lvl, ok := wholeNumber(mappingValue(node, "level"))
	if !ok {
		return rec, fmt.Errorf("%w: level must be a whole number", model.ErrLevelOutOfRange)
	}

	if err := node.Decode(&rec); err != nil {
		return rec, fmt.Errorf("%w: %v", model.ErrInvalidImport, err)
	}
	rec.Level = lvl

	trimmed, err := c.rules.name(rec.Name)
	if err != nil {
		return rec, err
	}
	rec.Name = trimmed
	if err := c.rules.level(rec.Level); err != nil {
		return rec, err
	}
	if err := c.rules.counter("gamesPlayed", rec.GamesPlayed); err != nil {
		return rec, err
	}
	if err := c.rules.counter("waitingRounds", rec.WaitingRounds); err != nil {
		return rec, err
	}
	return rec, nil
}

// wholeNumber reads an integer scalar. Floats such as 7.0 are accepted
// when they have no fractional part.
func wholeNumber(node *yaml.Node) (int, bool) {
	if node == nil || node.Kind != yaml.ScalarNode {
		return 0, false
	}
	switch node.Tag {
	case "!!int":
		var n int
		if err := node.Decode(&n); err != nil {
			return 0, false
		}
		return n, true
	case "!!float":
		var f float64
		if err := node.Decode(&f); err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
			return 0, false
		}
		return int(f), true
	}
	return 0, false
}

// mappingValue returns the value node for key in a mapping node, or nil
func mappingValue(node *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}
