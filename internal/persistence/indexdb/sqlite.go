package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"duelforge.gg/internal/protocol"
	"duelforge.gg/internal/sim/catalogs"
	"duelforge.gg/internal/sim/encounter"
	"duelforge.gg/internal/sim/tuning"
)

// SQLiteIndex is a queryable secondary index over encounter journals.
// Writes are queued to a single writer goroutine; the JSONL journal
// remains the source of truth, so a full queue drops rather than stalls
// the simulation.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropTickTotal       atomic.Uint64
	dropResolutionTotal atomic.Uint64
	dropEncounterTotal  atomic.Uint64
}

type reqKind int

const (
	reqTick reqKind = iota + 1
	reqResolutions
	reqEncounter
)

type req struct {
	kind reqKind

	encounterID string
	tick        encounter.TickLogEntry
	resolutions resolutionBatch
	enc         encounterRow
}

type resolutionBatch struct {
	Tick uint64
	Rows []encounter.Resolution
}

type encounterRow struct {
	ID        string
	Seed      int64
	Agents    []string
	StartedAt string
}

// Stats is a point-in-time view of the writer queue.
type Stats struct {
	QueueDepth          int
	QueueCapacity       int
	DropTickTotal       uint64
	DropResolutionTotal uint64
	DropEncounterTotal  uint64
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		// High buffer: a long duel emits many events per tick without
		// the sim ever waiting on the indexer.
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	// NORMAL is a decent durability/perf tradeoff for a secondary index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS encounters (
			id TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			agents_json TEXT NOT NULL,
			started_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			encounter_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			digest TEXT NOT NULL,
			events INTEGER NOT NULL,
			wounds INTEGER NOT NULL,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (encounter_id, tick)
		);`,
		`CREATE TABLE IF NOT EXISTS resolutions (
			encounter_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			attacker TEXT NOT NULL,
			defender TEXT NOT NULL,
			card TEXT NOT NULL,
			technique TEXT NOT NULL,
			outcome TEXT NOT NULL,
			target_part TEXT,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (encounter_id, tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_resolutions_attacker ON resolutions(attacker, tick);`,
		`CREATE INDEX IF NOT EXISTS idx_resolutions_outcome ON resolutions(outcome);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() Stats {
	return Stats{
		QueueDepth:          len(s.ch),
		QueueCapacity:       cap(s.ch),
		DropTickTotal:       s.dropTickTotal.Load(),
		DropResolutionTotal: s.dropResolutionTotal.Load(),
		DropEncounterTotal:  s.dropEncounterTotal.Load(),
	}
}

// RecordEncounter registers an encounter before its first tick.
func (s *SQLiteIndex) RecordEncounter(id string, seed int64, agentIDs []string) {
	if s == nil || s.closed.Load() {
		return
	}
	r := encounterRow{
		ID:        id,
		Seed:      seed,
		Agents:    agentIDs,
		StartedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	select {
	case s.ch <- req{kind: reqEncounter, enc: r}:
	default:
		s.dropEncounterTotal.Add(1)
	}
}

func (s *SQLiteIndex) WriteTick(encounterID string, entry encounter.TickLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqTick, encounterID: encounterID, tick: entry}:
	default:
		// Drop if the indexer falls behind; the journal remains the
		// source of truth.
		s.dropTickTotal.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) RecordResolutions(encounterID string, tick uint64, rows []encounter.Resolution) {
	if s == nil || s.closed.Load() || len(rows) == 0 {
		return
	}
	select {
	case s.ch <- req{kind: reqResolutions, encounterID: encounterID, resolutions: resolutionBatch{Tick: tick, Rows: rows}}:
	default:
		s.dropResolutionTotal.Add(1)
	}
}

// UpsertCatalogs stores every loaded catalog table with its digest so a
// replay can verify it runs against the same data the journal was
// recorded with.
func (s *SQLiteIndex) UpsertCatalogs(configDir string, cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	add := func(name, digest string) {
		if configDir == "" {
			return
		}
		b, err := os.ReadFile(filepath.Join(configDir, name+".json"))
		if err != nil || len(b) == 0 {
			return
		}
		rows = append(rows, kv{name: name, digest: digest, json: b})
	}
	add("materials", cats.Materials.Digest)
	add("tissue_templates", cats.Tissues.Digest)
	add("body_plans", cats.Plans.Digest)
	add("weapons", cats.Weapons.Digest)
	add("techniques", cats.Techniques.Digest)
	add("armour_pieces", cats.Pieces.Digest)
	add("conditions", cats.Conditions.Digest)
	add("cards", cats.Cards.Digest)

	// Tuning: store the values we actually apply (canonical JSON).
	{
		b, _ := json.Marshal(tune)
		sum := sha256.Sum256(b)
		rows = append(rows, kv{name: "tuning", digest: hex.EncodeToString(sum[:]), json: b})
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if r.name == "" || len(r.json) == 0 {
			continue
		}
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func countWounds(events []protocol.Event) int {
	n := 0
	for _, ev := range events {
		if ev["type"] == protocol.EvWoundInflicted {
			n++
		}
	}
	return n
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertEncounter, _ := s.db.Prepare(`INSERT OR REPLACE INTO encounters(id,seed,agents_json,started_at) VALUES(?,?,?,?)`)
	insertTick, _ := s.db.Prepare(`INSERT OR REPLACE INTO ticks(encounter_id,tick,digest,events,wounds,raw_json) VALUES(?,?,?,?,?,?)`)
	insertResolution, _ := s.db.Prepare(`INSERT OR REPLACE INTO resolutions(encounter_id,tick,seq,attacker,defender,card,technique,outcome,target_part,raw_json) VALUES(?,?,?,?,?,?,?,?,?,?)`)
	defer func() {
		if insertEncounter != nil {
			_ = insertEncounter.Close()
		}
		if insertTick != nil {
			_ = insertTick.Close()
		}
		if insertResolution != nil {
			_ = insertResolution.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			// If we can't start a tx, we can't do much; sleep a bit.
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	flushIfNeeded := func() {
		if tx == nil {
			return
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqEncounter:
			e := r.enc
			agents, _ := json.Marshal(e.Agents)
			if insertEncounter != nil {
				if _, err := tx.Stmt(insertEncounter).Exec(e.ID, e.Seed, string(agents), e.StartedAt); err != nil {
					rollback()
					continue
				}
				opCount++
			}

		case reqTick:
			b, _ := json.Marshal(r.tick)
			if insertTick != nil {
				if _, err := tx.Stmt(insertTick).Exec(
					r.encounterID,
					int64(r.tick.Tick),
					r.tick.Digest,
					len(r.tick.Events),
					countWounds(r.tick.Events),
					string(b),
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}

		case reqResolutions:
			for i, res := range r.resolutions.Rows {
				if insertResolution == nil {
					break
				}
				raw, _ := json.Marshal(res)
				if _, err := tx.Stmt(insertResolution).Exec(
					r.encounterID,
					int64(r.resolutions.Tick),
					i,
					res.AttackerID,
					res.DefenderID,
					res.CardID,
					res.TechniqueID,
					res.Outcome.String(),
					res.TargetPart,
					string(raw),
				); err != nil {
					rollback()
					break
				}
				opCount++
			}
		}
		flushIfNeeded()
	}

	commit()
}
