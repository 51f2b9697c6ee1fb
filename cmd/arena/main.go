package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"duelforge.gg/internal/persistence/indexdb"
	persistlog "duelforge.gg/internal/persistence/log"
	"duelforge.gg/internal/protocol"
	"duelforge.gg/internal/sim/catalogs"
	"duelforge.gg/internal/sim/encounter"
	"duelforge.gg/internal/sim/tuning"
	"duelforge.gg/internal/transport/observer"
)

func main() {
	var (
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")

		matchPath = flag.String("match", "", "path to a match manifest json (empty: built-in duel)")
		encID     = flag.String("encounter", "", "encounter id (default: random uuid)")
		seed      = flag.Int64("seed", 1337, "encounter seed")
		ticks     = flag.Int("ticks", 12, "maximum ticks to run")
		strategy  = flag.String("strategy", "hand", "director for the built-in duel: hand|pool")
		stakes    = flag.String("stakes", "guarded", "stakes for the built-in duel")

		addr      = flag.String("addr", "", "observer http listen address (empty to disable)")
		tickMS    = flag.Int("tick_ms", 0, "pause between ticks in milliseconds")
		disableDB = flag.Bool("disable_db", false, "disable the sqlite index")

		remoteIngest = flag.String("remote_index", "", "remote index ingest endpoint (empty to disable)")
		remoteToken  = flag.String("remote_token", "", "auth token for the remote index")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[arena] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		logger.Fatalf("load tuning: %v", err)
	}

	manifest, err := buildManifest(*matchPath, *encID, *seed, *ticks, *strategy, *stakes)
	if err != nil {
		logger.Fatalf("match manifest: %v", err)
	}
	cfg, err := manifest.Config()
	if err != nil {
		logger.Fatalf("match config: %v", err)
	}

	enc, err := encounter.New(cats, tune, cfg)
	if err != nil {
		logger.Fatalf("encounter: %v", err)
	}

	if err := manifest.Write(*dataDir); err != nil {
		logger.Fatalf("write manifest: %v", err)
	}
	journal := persistlog.NewTickJournal(*dataDir, manifest.EncounterID)
	defer journal.Close()

	var indexes []encounterIndex
	if !*disableDB {
		idx, err := indexdb.OpenSQLite(filepath.Join(*dataDir, "index.db"))
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer idx.Close()
		indexes = append(indexes, idx)
	}
	if strings.TrimSpace(*remoteIngest) != "" {
		remote, err := indexdb.OpenRemote(indexdb.RemoteConfig{
			Endpoint: *remoteIngest,
			Token:    *remoteToken,
			Logger:   logger,
		})
		if err != nil {
			logger.Fatalf("open remote index: %v", err)
		}
		defer remote.Close()
		indexes = append(indexes, remote)
	}
	for _, idx := range indexes {
		if err := idx.UpsertCatalogs(*configDir, cats, tune); err != nil {
			logger.Fatalf("index catalogs: %v", err)
		}
		idx.RecordEncounter(manifest.EncounterID, manifest.Seed, enc.AgentIDs())
	}

	var obs *observer.Server
	if strings.TrimSpace(*addr) != "" {
		obs = observer.NewServer(observerMeta(manifest, cats), logger)
		mux := http.NewServeMux()
		mux.HandleFunc("/v1/observer/bootstrap", obs.BootstrapHandler())
		mux.HandleFunc("/v1/observer/ws", obs.WSHandler())
		srv := &http.Server{Addr: *addr, Handler: mux}
		go func() {
			logger.Printf("observer listening on %s", *addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Printf("observer server: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	enc.SetTickLogger(tickSink{
		encounterID: manifest.EncounterID,
		journal:     journal,
		indexes:     indexes,
		obs:         obs,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Printf("encounter %s seed=%d agents=%s", manifest.EncounterID, manifest.Seed, strings.Join(enc.AgentIDs(), ","))

	for i := 0; i < manifest.Ticks; i++ {
		select {
		case <-ctx.Done():
			logger.Printf("interrupted at tick %d", enc.Tick())
			return
		default:
		}

		res, err := enc.RunTick()
		if err != nil {
			logger.Fatalf("tick %d: %v", res.Tick, err)
		}
		for _, idx := range indexes {
			idx.RecordResolutions(manifest.EncounterID, res.Tick, res.Resolutions)
		}
		logTick(logger, res)

		if winner := soleStanding(enc); winner != "" {
			logger.Printf("encounter over at tick %d: %s stands", res.Tick, winner)
			break
		}
		if *tickMS > 0 {
			time.Sleep(time.Duration(*tickMS) * time.Millisecond)
		}
	}

	for _, id := range enc.AgentIDs() {
		a, _ := enc.Agent(id)
		logger.Printf("%s: vital=%.2f stamina=%.1f focus=%.1f defeated=%v",
			id, a.Body.VitalIntegrity(), a.Stamina(), a.Focus(), a.Defeated())
	}
}

func buildManifest(matchPath, encID string, seed int64, ticks int, strategy, stakes string) (encounter.Manifest, error) {
	if matchPath != "" {
		b, err := os.ReadFile(matchPath)
		if err != nil {
			return encounter.Manifest{}, err
		}
		var m encounter.Manifest
		if err := json.Unmarshal(b, &m); err != nil {
			return encounter.Manifest{}, fmt.Errorf("%s: %w", matchPath, err)
		}
		if m.EncounterID == "" {
			m.EncounterID = uuid.NewString()
		}
		if m.Ticks <= 0 {
			m.Ticks = ticks
		}
		return m, nil
	}

	if encID == "" {
		encID = uuid.NewString()
	}
	spec := encounter.StrategySpec{Kind: strategy, N: 2, Stakes: stakes}
	stats := encounter.StatsManifest{Power: 1, Speed: 1, Agility: 1, Skill: 1}
	return encounter.Manifest{
		EncounterID: encID,
		Seed:        seed,
		Ticks:       ticks,
		Agents: []encounter.AgentManifest{
			{
				ID: "anna", Name: "Anna", PlanID: "humanoid", Stats: stats,
				WeaponID: "arming_sword",
				Armour:   []string{"steel_breastplate", "mail_shirt", "gambeson"},
				Hand:     []string{"card_thrust", "card_swing", "card_parry", "card_feint", "card_overhead"},
				Pool:     []string{"pool_jab", "pool_guard"},
				Strategy: spec,
			},
			{
				ID: "bruno", Name: "Bruno", PlanID: "humanoid", Stats: stats,
				WeaponID: "arming_sword",
				Armour:   []string{"gambeson", "leather_vambrace", "kettle_helm"},
				Hand:     []string{"card_swing", "card_dodge", "card_crushing_blow", "card_block", "card_thrust"},
				Pool:     []string{"pool_jab", "pool_guard"},
				Strategy: spec,
			},
		},
	}, nil
}

func observerMeta(m encounter.Manifest, cats *catalogs.Catalogs) observer.Meta {
	meta := observer.Meta{
		EncounterID: m.EncounterID,
		Seed:        m.Seed,
		Digests: protocol.Digests{
			BodyPlans:    cats.Plans.Digest,
			Materials:    cats.Materials.Digest,
			Weapons:      cats.Weapons.Digest,
			Techniques:   cats.Techniques.Digest,
			ArmourPieces: cats.Pieces.Digest,
			Cards:        cats.Cards.Digest,
		},
	}
	for _, a := range m.Agents {
		meta.Agents = append(meta.Agents, protocol.AgentBrief{
			ID: a.ID, Name: a.Name, PlanID: a.PlanID, AI: true,
		})
	}
	return meta
}

// encounterIndex is the backend surface the tick loop needs; both the
// sqlite index and the remote ingest shipper satisfy it.
type encounterIndex interface {
	RecordEncounter(id string, seed int64, agentIDs []string)
	WriteTick(encounterID string, entry encounter.TickLogEntry) error
	RecordResolutions(encounterID string, tick uint64, rows []encounter.Resolution)
	UpsertCatalogs(configDir string, cats *catalogs.Catalogs, tune tuning.Tuning) error
	Close() error
}

// tickSink fans one resolved tick into the journal, the indexes, and the
// observer stream. The journal write is the only one allowed to fail the
// tick.
type tickSink struct {
	encounterID string
	journal     *persistlog.TickJournal
	indexes     []encounterIndex
	obs         *observer.Server
}

func (s tickSink) WriteTick(entry encounter.TickLogEntry) error {
	for _, idx := range s.indexes {
		_ = idx.WriteTick(s.encounterID, entry)
	}
	if s.obs != nil {
		s.obs.Publish(entry.Tick, entry.Digest, entry.Events)
	}
	return s.journal.WriteTick(entry)
}

func logTick(logger *log.Logger, res encounter.TickResult) {
	for _, r := range res.Resolutions {
		target := r.TargetPart
		if target == "" {
			target = "-"
		}
		logger.Printf("t=%d %s %s -> %s: %s (p=%.2f roll=%.2f) part=%s",
			res.Tick, r.TechniqueID, r.AttackerID, r.DefenderID, r.Outcome, r.HitChance, r.Roll, target)
	}
}

func soleStanding(e *encounter.Encounter) string {
	standing := ""
	for _, id := range e.AgentIDs() {
		a, _ := e.Agent(id)
		if a.Defeated() {
			continue
		}
		if standing != "" {
			return ""
		}
		standing = id
	}
	return standing
}
