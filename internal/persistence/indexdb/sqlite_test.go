package indexdb

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"duelforge.gg/internal/protocol"
	"duelforge.gg/internal/sim/combat"
	"duelforge.gg/internal/sim/encounter"
)

func TestSQLiteIndex_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.db")

	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	idx.RecordEncounter("enc-1", 42, []string{"anna", "bruno"})
	if err := idx.WriteTick("enc-1", encounter.TickLogEntry{
		Tick:   1,
		Digest: "abc",
		Events: []protocol.Event{
			{"type": protocol.EvWoundInflicted},
			{"type": protocol.EvCardMoved},
		},
	}); err != nil {
		t.Fatalf("WriteTick: %v", err)
	}
	idx.RecordResolutions("enc-1", 1, []encounter.Resolution{
		{AttackerID: "anna", DefenderID: "bruno", CardID: "card_thrust", TechniqueID: "thrust", Outcome: combat.Hit, TargetPart: "torso"},
	})
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()

	var seed int64
	var agents string
	if err := db.QueryRow(`SELECT seed,agents_json FROM encounters WHERE id='enc-1'`).Scan(&seed, &agents); err != nil {
		t.Fatalf("encounters scan: %v", err)
	}
	if seed != 42 || agents != `["anna","bruno"]` {
		t.Fatalf("encounter row mismatch: seed=%d agents=%s", seed, agents)
	}

	var digest string
	var events, wounds int
	if err := db.QueryRow(`SELECT digest,events,wounds FROM ticks WHERE encounter_id='enc-1' AND tick=1`).Scan(&digest, &events, &wounds); err != nil {
		t.Fatalf("ticks scan: %v", err)
	}
	if digest != "abc" || events != 2 || wounds != 1 {
		t.Fatalf("tick row mismatch: digest=%q events=%d wounds=%d", digest, events, wounds)
	}

	var outcome, part string
	if err := db.QueryRow(`SELECT outcome,target_part FROM resolutions WHERE encounter_id='enc-1' AND tick=1 AND seq=0`).Scan(&outcome, &part); err != nil {
		t.Fatalf("resolutions scan: %v", err)
	}
	if outcome != "hit" || part != "torso" {
		t.Fatalf("resolution row mismatch: outcome=%q part=%q", outcome, part)
	}
}

func TestSQLiteIndex_QueueDropStats(t *testing.T) {
	s := &SQLiteIndex{ch: make(chan req, 1)}
	s.ch <- req{kind: reqTick, tick: encounter.TickLogEntry{Tick: 1}}

	_ = s.WriteTick("enc-1", encounter.TickLogEntry{Tick: 2})
	s.RecordResolutions("enc-1", 2, []encounter.Resolution{{AttackerID: "anna"}})
	s.RecordEncounter("enc-1", 42, nil)

	st := s.Stats()
	if st.DropTickTotal != 1 {
		t.Fatalf("DropTickTotal=%d want=1", st.DropTickTotal)
	}
	if st.DropResolutionTotal != 1 {
		t.Fatalf("DropResolutionTotal=%d want=1", st.DropResolutionTotal)
	}
	if st.DropEncounterTotal != 1 {
		t.Fatalf("DropEncounterTotal=%d want=1", st.DropEncounterTotal)
	}
	if st.QueueDepth != 1 || st.QueueCapacity != 1 {
		t.Fatalf("queue stats mismatch: depth=%d cap=%d", st.QueueDepth, st.QueueCapacity)
	}
}
