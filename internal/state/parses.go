package state

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Parse records one parse run over a project.
type Parse struct {
	ID         string
	Project    string
	StartedAt  time.Time
	FinishedAt *time.Time
	ModelCount int
}

// ModelRecord is the persisted state of one parsed model.
type ModelRecord struct {
	Path       string
	Name       string
	Config     map[string]string
	MacroCalls []MacroEdge
}

// MacroEdge links a model to one macro it calls statically.
type MacroEdge struct {
	MacroName string
	ArgTypes  []string
}

// BeginParse opens a new parse run.
func (s *Store) BeginParse(project string) (*Parse, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	p := &Parse{
		ID:        generateID(),
		Project:   project,
		StartedAt: time.Now().UTC(),
	}

	_, err := s.db.Exec(
		`INSERT INTO parses (id, project, started_at) VALUES (?, ?, ?)`,
		p.ID, p.Project, p.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert parse: %w", err)
	}
	return p, nil
}

// FinishParse stamps the parse run as complete.
func (s *Store) FinishParse(p *Parse, modelCount int) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	now := time.Now().UTC()
	_, err := s.db.Exec(
		`UPDATE parses SET finished_at = ?, model_count = ? WHERE id = ?`,
		now, modelCount, p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish parse: %w", err)
	}
	p.FinishedAt = &now
	p.ModelCount = modelCount
	return nil
}

// SaveModel upserts one model's parse state and replaces its macro edges.
func (s *Store) SaveModel(parseID string, rec ModelRecord) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	configJSON, err := json.Marshal(rec.Config)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO model_states (path, name, parse_id, config_json, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET
		     name = excluded.name,
		     parse_id = excluded.parse_id,
		     config_json = excluded.config_json,
		     updated_at = excluded.updated_at`,
		rec.Path, rec.Name, parseID, string(configJSON), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert model state: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM macro_edges WHERE model_path = ?`, rec.Path); err != nil {
		return fmt.Errorf("failed to clear macro edges: %w", err)
	}

	for _, edge := range rec.MacroCalls {
		typesJSON, err := json.Marshal(edge.ArgTypes)
		if err != nil {
			return fmt.Errorf("failed to serialize arg types: %w", err)
		}
		_, err = tx.Exec(
			`INSERT INTO macro_edges (model_path, macro_name, arg_types) VALUES (?, ?, ?)
			 ON CONFLICT(model_path, macro_name) DO UPDATE SET arg_types = excluded.arg_types`,
			rec.Path, edge.MacroName, string(typesJSON),
		)
		if err != nil {
			return fmt.Errorf("failed to insert macro edge: %w", err)
		}
	}

	return tx.Commit()
}

// ModelConfig returns the stored unrendered config for a model path.
// The second return is false when the model has no stored state.
func (s *Store) ModelConfig(path string) (map[string]string, bool, error) {
	if s.db == nil {
		return nil, false, fmt.Errorf("database not opened")
	}

	var configJSON string
	err := s.db.QueryRow(
		`SELECT config_json FROM model_states WHERE path = ?`, path,
	).Scan(&configJSON)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query model state: %w", err)
	}

	var config map[string]string
	if err := json.Unmarshal([]byte(configJSON), &config); err != nil {
		return nil, false, fmt.Errorf("failed to deserialize config: %w", err)
	}
	return config, true, nil
}

// ConfigChanged reports whether a model's config differs from the stored
// snapshot. A model with no stored state counts as changed.
func (s *Store) ConfigChanged(path string, config map[string]string) (bool, error) {
	stored, ok, err := s.ModelConfig(path)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	if len(stored) != len(config) {
		return true, nil
	}
	for k, v := range config {
		if stored[k] != v {
			return true, nil
		}
	}
	return false, nil
}

// MacroCalls returns the stored macro edges for a model path.
func (s *Store) MacroCalls(path string) ([]MacroEdge, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT macro_name, arg_types FROM macro_edges WHERE model_path = ? ORDER BY macro_name`,
		path,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query macro edges: %w", err)
	}
	defer rows.Close()

	var edges []MacroEdge
	for rows.Next() {
		var edge MacroEdge
		var typesJSON string
		if err := rows.Scan(&edge.MacroName, &typesJSON); err != nil {
			return nil, fmt.Errorf("failed to scan macro edge: %w", err)
		}
		if err := json.Unmarshal([]byte(typesJSON), &edge.ArgTypes); err != nil {
			return nil, fmt.Errorf("failed to deserialize arg types: %w", err)
		}
		edges = append(edges, edge)
	}
	return edges, rows.Err()
}

// LastParse returns the most recent parse run, or nil when none exist.
func (s *Store) LastParse() (*Parse, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	var p Parse
	var finished sql.NullTime
	err := s.db.QueryRow(
		`SELECT id, project, started_at, finished_at, model_count
		 FROM parses ORDER BY started_at DESC LIMIT 1`,
	).Scan(&p.ID, &p.Project, &p.StartedAt, &finished, &p.ModelCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query last parse: %w", err)
	}
	if finished.Valid {
		p.FinishedAt = &finished.Time
	}
	return &p, nil
}
