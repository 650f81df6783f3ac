package storage

import (
	"encoding/json"
	"fmt"

	"github.com/cuemby/flowsim/pkg/types"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketFlows     = []byte("flows")
	bucketCalendars = []byte("calendars")
	bucketDemands   = []byte("demands")
	bucketResults   = []byte("results")
)

// Store is a BoltDB-backed persistence convenience for the CLI. It is
// not used by any package under the core scheduling/simulation path.
type Store struct {
	db *bolt.DB
}

// Open creates (if needed) and opens a BoltDB file at path, with every
// document bucket present.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketFlows, bucketCalendars, bucketDemands, bucketResults} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("storage: create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// PutFlow upserts a FlowDefinition keyed by its metadata name.
func (s *Store) PutFlow(def *types.FlowDefinition) error {
	return put(s.db, bucketFlows, def.Metadata.Name, def)
}

// GetFlow returns the FlowDefinition stored under name.
func (s *Store) GetFlow(name string) (*types.FlowDefinition, error) {
	var def types.FlowDefinition
	if err := get(s.db, bucketFlows, name, &def); err != nil {
		return nil, err
	}
	return &def, nil
}

// ListFlows returns every stored FlowDefinition.
func (s *Store) ListFlows() ([]*types.FlowDefinition, error) {
	var out []*types.FlowDefinition
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketFlows).ForEach(func(_, v []byte) error {
			var def types.FlowDefinition
			if err := json.Unmarshal(v, &def); err != nil {
				return err
			}
			out = append(out, &def)
			return nil
		})
	})
	return out, err
}

// PutCalendar upserts a CalendarDefinition keyed by its metadata name.
func (s *Store) PutCalendar(def *types.CalendarDefinition) error {
	return put(s.db, bucketCalendars, def.Metadata.Name, def)
}

// GetCalendar returns the CalendarDefinition stored under name.
func (s *Store) GetCalendar(name string) (*types.CalendarDefinition, error) {
	var def types.CalendarDefinition
	if err := get(s.db, bucketCalendars, name, &def); err != nil {
		return nil, err
	}
	return &def, nil
}

// PutDemand upserts a Demand document keyed by its metadata name.
func (s *Store) PutDemand(d *types.Demand) error {
	return put(s.db, bucketDemands, d.Metadata.Name, d)
}

// GetDemand returns the Demand document stored under name.
func (s *Store) GetDemand(name string) (*types.Demand, error) {
	var d types.Demand
	if err := get(s.db, bucketDemands, name, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// PutResult stores a completed SimulationResult under runID. Results
// are append-only in practice: callers should pass a fresh runID per
// run (the CLI uses a uuid) rather than overwrite history.
func (s *Store) PutResult(runID string, result *types.SimulationResult) error {
	return put(s.db, bucketResults, runID, result)
}

// GetResult returns the SimulationResult stored under runID.
func (s *Store) GetResult(runID string) (*types.SimulationResult, error) {
	var result types.SimulationResult
	if err := get(s.db, bucketResults, runID, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func put(db *bolt.DB, bucket []byte, key string, v any) error {
	return db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("storage: marshal %s/%s: %w", bucket, key, err)
		}
		return tx.Bucket(bucket).Put([]byte(key), data)
	})
}

func get(db *bolt.DB, bucket []byte, key string, v any) error {
	return db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucket).Get([]byte(key))
		if data == nil {
			return fmt.Errorf("storage: %s/%s not found", bucket, key)
		}
		return json.Unmarshal(data, v)
	})
}
