package indexdb

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"duelforge.gg/internal/sim/catalogs"
	"duelforge.gg/internal/sim/encounter"
	"duelforge.gg/internal/sim/tuning"
)

// RemoteIndex ships the same rows the SQLite index stores to an HTTP
// ingest endpoint, batched and retried. Best effort: a full queue drops.
type RemoteConfig struct {
	Endpoint      string
	Token         string
	BatchSize     int
	FlushInterval time.Duration
	HTTPTimeout   time.Duration
	Logger        *log.Logger
}

type RemoteIndex struct {
	cfg        RemoteConfig
	httpClient *http.Client

	ch   chan remoteEvent
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type remoteEvent struct {
	Kind        string `json:"kind"`
	EncounterID string `json:"encounter_id,omitempty"`
	Payload     any    `json:"payload"`
}

type remoteTickPayload struct {
	Tick   uint64 `json:"tick"`
	Digest string `json:"digest"`
	Events int    `json:"events"`
	Wounds int    `json:"wounds"`
}

type remoteEncounterPayload struct {
	Seed      int64    `json:"seed"`
	Agents    []string `json:"agents,omitempty"`
	StartedAt string   `json:"started_at"`
}

type remoteResolutionPayload struct {
	Tick       uint64 `json:"tick"`
	Seq        int    `json:"seq"`
	Attacker   string `json:"attacker"`
	Defender   string `json:"defender,omitempty"`
	Card       string `json:"card"`
	Technique  string `json:"technique"`
	Outcome    string `json:"outcome"`
	TargetPart string `json:"target_part,omitempty"`
}

type remoteCatalogPayload struct {
	Name      string `json:"name"`
	Digest    string `json:"digest"`
	JSON      string `json:"json"`
	UpdatedAt string `json:"updated_at"`
}

func OpenRemote(cfg RemoteConfig) (*RemoteIndex, error) {
	cfg.Endpoint = strings.TrimSpace(cfg.Endpoint)
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("empty ingest endpoint")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 128
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 500 * time.Millisecond
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 10 * time.Second
	}

	r := &RemoteIndex{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		ch: make(chan remoteEvent, 32768),
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.loop()
	}()

	return r, nil
}

func (r *RemoteIndex) Close() error {
	if r == nil {
		return nil
	}
	r.once.Do(func() {
		r.closed.Store(true)
		close(r.ch)
		r.wg.Wait()
	})
	return nil
}

func (r *RemoteIndex) RecordEncounter(id string, seed int64, agentIDs []string) {
	if r == nil || r.closed.Load() {
		return
	}
	r.enqueue(remoteEvent{Kind: "encounter", EncounterID: id, Payload: remoteEncounterPayload{
		Seed:      seed,
		Agents:    agentIDs,
		StartedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}})
}

func (r *RemoteIndex) WriteTick(encounterID string, entry encounter.TickLogEntry) error {
	if r == nil || r.closed.Load() {
		return nil
	}
	r.enqueue(remoteEvent{Kind: "tick", EncounterID: encounterID, Payload: remoteTickPayload{
		Tick:   entry.Tick,
		Digest: entry.Digest,
		Events: len(entry.Events),
		Wounds: countWounds(entry.Events),
	}})
	return nil
}

func (r *RemoteIndex) RecordResolutions(encounterID string, tick uint64, rows []encounter.Resolution) {
	if r == nil || r.closed.Load() {
		return
	}
	for i, res := range rows {
		r.enqueue(remoteEvent{Kind: "resolution", EncounterID: encounterID, Payload: remoteResolutionPayload{
			Tick:       tick,
			Seq:        i,
			Attacker:   res.AttackerID,
			Defender:   res.DefenderID,
			Card:       res.CardID,
			Technique:  res.TechniqueID,
			Outcome:    res.Outcome.String(),
			TargetPart: res.TargetPart,
		}})
	}
}

func (r *RemoteIndex) UpsertCatalogs(configDir string, cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if r == nil || r.closed.Load() || cats == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	type row struct {
		name   string
		digest string
		data   []byte
	}
	rows := make([]row, 0, 9)
	add := func(name, digest string) {
		if configDir == "" {
			return
		}
		b, err := os.ReadFile(filepath.Join(configDir, name+".json"))
		if err != nil || len(b) == 0 {
			return
		}
		rows = append(rows, row{name: name, digest: digest, data: b})
	}
	add("materials", cats.Materials.Digest)
	add("tissue_templates", cats.Tissues.Digest)
	add("body_plans", cats.Plans.Digest)
	add("weapons", cats.Weapons.Digest)
	add("techniques", cats.Techniques.Digest)
	add("armour_pieces", cats.Pieces.Digest)
	add("conditions", cats.Conditions.Digest)
	add("cards", cats.Cards.Digest)
	if b, err := json.Marshal(tune); err == nil && len(b) > 0 {
		sum := sha256.Sum256(b)
		rows = append(rows, row{name: "tuning", digest: hex.EncodeToString(sum[:]), data: b})
	}

	for _, rw := range rows {
		if rw.name == "" || rw.digest == "" || len(rw.data) == 0 {
			continue
		}
		r.enqueue(remoteEvent{Kind: "catalog", Payload: remoteCatalogPayload{
			Name:      rw.name,
			Digest:    rw.digest,
			JSON:      string(rw.data),
			UpdatedAt: now,
		}})
	}
	return nil
}

func (r *RemoteIndex) enqueue(ev remoteEvent) {
	if r == nil || r.closed.Load() {
		return
	}
	select {
	case r.ch <- ev:
	default:
		r.printf("remote index queue full; drop kind=%s encounter=%s", ev.Kind, ev.EncounterID)
	}
}

func (r *RemoteIndex) loop() {
	ticker := time.NewTicker(r.cfg.FlushInterval)
	defer ticker.Stop()

	batch := make([]remoteEvent, 0, r.cfg.BatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := r.sendBatch(batch); err != nil {
			r.printf("remote index flush failed batch=%d err=%v", len(batch), err)
		}
		batch = batch[:0]
	}

	for {
		select {
		case ev, ok := <-r.ch:
			if !ok {
				flush()
				return
			}
			batch = append(batch, ev)
			if len(batch) >= r.cfg.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

func (r *RemoteIndex) sendBatch(events []remoteEvent) error {
	if len(events) == 0 {
		return nil
	}

	body := struct {
		Events []remoteEvent `json:"events"`
	}{Events: events}
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		req, err := http.NewRequest(http.MethodPost, r.cfg.Endpoint, bytes.NewReader(buf))
		if err != nil {
			return err
		}
		req.Header.Set("content-type", "application/json")
		if r.cfg.Token != "" {
			req.Header.Set("x-df-index-token", r.cfg.Token)
		}

		resp, err := r.httpClient.Do(req)
		if err == nil {
			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 16*1024))
			_ = resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return nil
			}
			err = fmt.Errorf("status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(respBody)))
		}
		lastErr = err
		time.Sleep(time.Duration(100*(1<<attempt)) * time.Millisecond)
	}
	return lastErr
}

func (r *RemoteIndex) printf(format string, args ...any) {
	if r != nil && r.cfg.Logger != nil {
		r.cfg.Logger.Printf(format, args...)
	}
}
