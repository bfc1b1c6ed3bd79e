// Command council is the CLI entrypoint for the NFL expert-council
// prediction and virtual-betting platform (§6). It drives one run's
// lifecycle: seed experts, select a weekly council, predict games, settle
// outcomes against the learning loop, and report status.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/gridiron/council/internal/beliefs"
	"github.com/gridiron/council/internal/betting"
	"github.com/gridiron/council/internal/cerrors"
	"github.com/gridiron/council/internal/config"
	"github.com/gridiron/council/internal/consensus"
	"github.com/gridiron/council/internal/council"
	"github.com/gridiron/council/internal/embedding"
	"github.com/gridiron/council/internal/experts"
	"github.com/gridiron/council/internal/learning"
	"github.com/gridiron/council/internal/memory"
	"github.com/gridiron/council/internal/model"
	"github.com/gridiron/council/internal/personality"
	"github.com/gridiron/council/internal/reasoning"
	"github.com/gridiron/council/internal/search"
	"github.com/gridiron/council/internal/storage"
	"github.com/gridiron/council/internal/telemetry"
	"github.com/gridiron/council/migrations"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run0(os.Args[1:]))
}

func run0(args []string) int {
	level := parseLogLevel(os.Getenv("COUNCIL_LOG_LEVEL"))
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger, args); err != nil {
		logger.Error("fatal error", "error", err)
		return cerrors.ExitCode(err)
	}
	return 0
}

func run(ctx context.Context, logger *slog.Logger, args []string) error {
	if len(args) == 0 {
		return usageError()
	}

	// Load .env file if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger.Info("council starting", "version", version, "command", args[0])

	otelShutdown, err := telemetry.Init(ctx, cfg.OTELEndpoint, cfg.ServiceName, version, cfg.OTELInsecure)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	db, err := storage.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer db.Close(ctx)

	if err := db.RunMigrations(ctx, migrations.FS); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	switch args[0] {
	case "init-run":
		return cmdInitRun(ctx, db, cfg, logger, args[1:])
	case "ingest":
		return cmdIngest(ctx, logger, args[1:])
	case "predict":
		return cmdPredict(ctx, db, cfg, logger, args[1:])
	case "settle":
		return cmdSettle(ctx, db, cfg, logger, args[1:])
	case "select-council":
		return cmdSelectCouncil(ctx, db, cfg, args[1:])
	case "status":
		return cmdStatus(ctx, db, args[1:])
	default:
		return usageError()
	}
}

func usageError() error {
	fmt.Fprintln(os.Stderr, `usage: council <command> [args]

commands:
  init-run [run-id]                         seed a run with the 15 personality experts
  ingest <season> <weeks>                   assemble UDV snapshots for a season's weeks
  predict <run-id> <game-id>                run the council's predictions for a game
  settle <run-id> <game-id> <winner:home|away> <spread-error> <total-error>
  select-council <run-id> <week>            pick the top-K council for a week
  status <run-id>                           print run, expert, and bankroll state`)
	return fmt.Errorf("council: missing or unknown command: %w", cerrors.ErrSchemaValidation)
}

// cmdInitRun creates a run and seeds its 15 personality experts with
// starting bankrolls (§6 init-run).
func cmdInitRun(ctx context.Context, db *storage.DB, cfg config.Config, logger *slog.Logger, args []string) error {
	runID := uuid.New()
	if len(args) > 0 {
		parsed, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("init-run: invalid run id %q: %w", args[0], cerrors.ErrSchemaValidation)
		}
		runID = parsed
	}

	now := time.Now()
	run := model.RunMetadata{
		RunID:                 runID,
		StartingUnits:         cfg.DefaultStartingUnits,
		MaxParallelExperts:    cfg.MaxParallelExperts,
		CouncilSize:           cfg.CouncilSize,
		ArchetypeTableVersion: cfg.ArchetypeTableVersion,
		ReflectionEnabled:     cfg.ReflectionEnabled,
		CreatedAt:             now,
	}
	if err := db.CreateRun(ctx, run); err != nil {
		return fmt.Errorf("init-run: %w", err)
	}

	for _, seed := range personality.SeedProfiles() {
		expert := model.Expert{
			ID:          uuid.New(),
			RunID:       runID,
			DisplayName: seed.DisplayName,
			Profile: model.PersonalityProfile{
				Version:     1,
				Archetype:   seed.Archetype,
				AccessFlags: seed.AccessFlags,
				Traits:      seed.Traits,
			},
			Weights:      seed.Weights,
			LearningRate: seed.LearningRate,
			Status:       model.ExpertActive,
			Version:      1,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := db.CreateExpert(ctx, expert); err != nil {
			return fmt.Errorf("init-run: seed expert %s: %w", seed.DisplayName, err)
		}
		if err := db.CreateBankroll(ctx, model.Bankroll{
			ExpertID:      expert.ID,
			RunID:         runID,
			StartingUnits: cfg.DefaultStartingUnits,
		}); err != nil {
			return fmt.Errorf("init-run: seed bankroll for %s: %w", seed.DisplayName, err)
		}
	}

	logger.Info("run initialized", "run_id", runID, "experts", len(personality.SeedProfiles()))
	fmt.Println(runID)
	return nil
}

// cmdIngest assembles and stores UDV snapshots for a season's weeks. The
// concrete odds/weather/injuries/stats/historical adapters are third-party
// adapter internals (§1 Non-goals) and are not wired here; without a meta
// adapter configured there is nothing to fetch, so this reports what it
// would have covered and exits cleanly.
func cmdIngest(_ context.Context, logger *slog.Logger, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("ingest: usage: ingest <season> <weeks>: %w", cerrors.ErrSchemaValidation)
	}
	season := args[0]
	weeks := args[1]
	logger.Warn("ingest: no UDV adapters configured, nothing fetched",
		"season", season, "weeks", weeks,
		"reason", "third-party adapter internals are out of scope; wire internal/udv adapter implementations to enable ingestion")
	return nil
}

// cmdPredict runs every active expert's prediction for one game, sizes a
// bet against each, then aggregates and persists the game's consensus
// bundle (§4.3, §4.8, §4.9).
func cmdPredict(ctx context.Context, db *storage.DB, cfg config.Config, logger *slog.Logger, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("predict: usage: predict <run-id> <game-id>: %w", cerrors.ErrSchemaValidation)
	}
	runID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("predict: invalid run id: %w", cerrors.ErrSchemaValidation)
	}
	gameID := args[1]

	members, err := resolvePredictionMembers(ctx, db, runID)
	if err != nil {
		return fmt.Errorf("predict: %w", err)
	}

	udvSnapshot, err := db.GetUDVSnapshot(ctx, runID, gameID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("predict: %w", err)
		}
		udvSnapshot = model.UDV{GameID: gameID, SnapshotTime: time.Now(), Meta: map[string]model.SectionMeta{}}
	}

	embedder := newEmbeddingProvider(cfg, logger)
	qdrant := newQdrantIndex(cfg, logger)
	var searcher search.Searcher
	var upserter interface {
		Upsert(ctx context.Context, points []search.Point) error
	}
	if qdrant != nil {
		searcher, upserter = qdrant, qdrant
	}
	memStore := memory.New(db, embedder, searcher, upserter, logger)
	agent := experts.New(experts.NoopGenerator{})

	reasoningLog, err := reasoning.NewLog(ctx, db, logger, cfg.ReasoningBufferSize, cfg.ReasoningFlushTimeout, cfg.ReasoningWALDir)
	if err != nil {
		return fmt.Errorf("predict: reasoning log: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := reasoningLog.Close(closeCtx); err != nil {
			logger.Error("predict: reasoning log close failed", "error", err)
		}
	}()

	predictor := &gamePredictor{
		db: db, memStore: memStore, agent: agent, reasoningLog: reasoningLog,
		runID: runID, udv: udvSnapshot, cfg: cfg, logger: logger,
	}
	if err := council.RunGamePredictions(ctx, logger, predictor, gameID, members, cfg.MaxParallelExperts); err != nil {
		return fmt.Errorf("predict: %w", err)
	}

	if err := aggregateConsensus(ctx, db, runID, gameID); err != nil {
		logger.Warn("predict: consensus aggregation failed", "run_id", runID, "game_id", gameID, "error", err)
	}

	logger.Info("predict complete", "run_id", runID, "game_id", gameID, "experts", len(members))
	return nil
}

// aggregateConsensus combines every expert's latest bundle for a game into
// one ConsensusBundle (§4.8) and persists it. It does not apply the weekly
// council selection: any expert with a bundle for the game is counted.
// Vote weight inputs come from each expert's composite ranking score (§4.7), the same
// accuracy/recent-performance/specialization figures the Council Selector
// ranks on.
func aggregateConsensus(ctx context.Context, db *storage.DB, runID uuid.UUID, gameID string) error {
	bundles, err := db.ListPredictionBundlesForGame(ctx, runID, gameID)
	if err != nil {
		return fmt.Errorf("list bundles: %w", err)
	}
	if len(bundles) == 0 {
		return nil
	}

	scores := make(map[uuid.UUID]consensus.MemberScore, len(bundles))
	specialization := make(map[uuid.UUID]map[string]float64, len(bundles))
	for _, b := range bundles {
		cs, err := db.CompositeScore(ctx, b.ExpertID, runID)
		if err != nil {
			return fmt.Errorf("composite score for expert %s: %w", b.ExpertID, err)
		}
		scores[b.ExpertID] = consensus.MemberScore{
			ExpertID: b.ExpertID,
			Accuracy: cs.Accuracy,
			Recent:   cs.RecentPerformance,
		}
		perCategory := make(map[string]float64, len(b.Assertions))
		for cat := range b.Assertions {
			perCategory[cat] = cs.Specialization
		}
		specialization[b.ExpertID] = perCategory
	}

	bundle := consensus.Aggregate(runID, gameID, bundles, scores, specialization, time.Now())
	if err := db.SaveConsensusBundle(ctx, bundle); err != nil {
		return fmt.Errorf("save consensus bundle: %w", err)
	}
	return nil
}

// gamePredictor adapts the per-expert prediction pipeline to
// council.Predictor so RunGamePredictions can fan it out bounded-parallel.
type gamePredictor struct {
	db           *storage.DB
	memStore     *memory.Store
	agent        *experts.Agent
	reasoningLog *reasoning.Log
	runID        uuid.UUID
	udv          model.UDV
	cfg          config.Config
	logger       *slog.Logger
}

func (p *gamePredictor) PredictGame(ctx context.Context, expertID uuid.UUID, gameID string) error {
	expert, err := p.db.GetExpert(ctx, expertID, p.runID)
	if err != nil {
		return fmt.Errorf("load expert: %w", err)
	}

	view := personality.Filter(expert.Profile, expert.Weights, p.udv)
	memories, err := p.memStore.Retrieve(ctx, expertID, p.runID, gameID, p.cfg.MemoryDefaultK, p.cfg.MemoryDefaultAlpha)
	if err != nil {
		p.logger.Warn("predict: memory retrieval failed, continuing without memories", "expert_id", expertID, "error", err)
	}

	prior, err := p.db.LatestPredictionBundle(ctx, expertID, gameID)
	hasPrior := true
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("load prior bundle for expert %s: %w", expertID, err)
		}
		hasPrior = false
	}

	bundle, err := p.agent.Predict(ctx, experts.PredictionRequest{
		ExpertID:       expertID,
		RunID:          p.runID,
		View:           view,
		Memories:       memories,
		ProfileVersion: expert.Profile.Version,
	})
	if err != nil {
		return fmt.Errorf("expert %s: %w", expertID, err)
	}
	if hasPrior {
		bundle.SequenceNumber = prior.SequenceNumber + 1
	}

	if err := p.db.InsertPredictionBundle(ctx, bundle); err != nil {
		return fmt.Errorf("persist bundle for expert %s: %w", expertID, err)
	}

	// A later predict invocation for the same (expert, game) is a revision
	// of the prior cycle's belief (§4.6). Only the current snapshot is at
	// hand, so it is passed as both the prior and the revised UDV: the UDV
	// diff is empty and no data-driven causal chain or trigger is inferred.
	if hasPrior {
		if revision := beliefs.Detect(p.runID, expertID, gameID, prior, bundle, p.udv, p.udv, time.Now()); revision != nil {
			if err := p.db.InsertBeliefRevision(ctx, *revision); err != nil {
				p.logger.Warn("predict: belief revision persist failed", "expert_id", expertID, "error", err)
			}
		}
	}

	factors := experts.ReasoningFactorsFromBundle(bundle)
	chain := reasoning.Build(p.runID, expertID, gameID, bundle.ID, factors, expert.Profile.Version, bundle)
	if err := p.reasoningLog.Record(chain); err != nil {
		p.logger.Warn("predict: reasoning chain record failed", "expert_id", expertID, "error", err)
	}

	odds := -110
	if p.udv.Odds != nil {
		if bundle.Pick == "home" {
			odds = p.udv.Odds.MoneylineHome
		} else {
			odds = p.udv.Odds.MoneylineAway
		}
	}

	_, _, err = betting.PlaceBet(ctx, p.db, betting.SizeRequest{
		RunID:        p.runID,
		ExpertID:     expertID,
		GameID:       gameID,
		Category:     "winner",
		Prediction:   bundle.Pick,
		Confidence:   bundle.OverallConfidence,
		AmericanOdds: odds,
		Archetype:    expert.Profile.Archetype,
		Reasoning:    bundle.Assertions["winner"].Reasoning,
	}, time.Now())
	if err != nil {
		return fmt.Errorf("place bet for expert %s: %w", expertID, err)
	}

	return nil
}

// resolvePredictionMembers returns every active expert of the run; the
// weekly council selection is not consulted.
func resolvePredictionMembers(ctx context.Context, db *storage.DB, runID uuid.UUID) ([]uuid.UUID, error) {
	roster, err := db.ListExperts(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("list experts: %w", err)
	}
	members := make([]uuid.UUID, 0, len(roster))
	for _, e := range roster {
		if e.Status == model.ExpertActive {
			members = append(members, e.ID)
		}
	}
	return members, nil
}

// cmdSettle resolves every pending bet for a game against the supplied
// outcome, feeding the result into the Learning Coordinator (§4.10, §4.11).
// The outcome is supplied on the command line because results ingestion is
// itself a third-party adapter concern (§1 Non-goals).
func cmdSettle(ctx context.Context, db *storage.DB, cfg config.Config, logger *slog.Logger, args []string) error {
	if len(args) < 5 {
		return fmt.Errorf("settle: usage: settle <run-id> <game-id> <winner:home|away> <spread-error> <total-error>: %w", cerrors.ErrSchemaValidation)
	}
	runID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("settle: invalid run id: %w", cerrors.ErrSchemaValidation)
	}
	gameID := args[1]
	winner := args[2]
	spreadErr, err := strconv.ParseFloat(args[3], 64)
	if err != nil {
		return fmt.Errorf("settle: invalid spread error %q: %w", args[3], cerrors.ErrSchemaValidation)
	}
	totalErr, err := strconv.ParseFloat(args[4], 64)
	if err != nil {
		return fmt.Errorf("settle: invalid total error %q: %w", args[4], cerrors.ErrSchemaValidation)
	}

	pending, err := db.ListPendingBets(ctx, runID, gameID)
	if err != nil {
		return fmt.Errorf("settle: %w", err)
	}

	memStore := memory.New(db, newEmbeddingProvider(cfg, logger), nil, nil, logger)
	coordinator := learning.NewCoordinator(memStore, logBroadcaster{logger: logger}, logger, len(pending))
	queued := 0

	for _, bet := range pending {
		outcome := betting.Outcome{
			WinnerCorrect: bet.Prediction == winner,
			SpreadError:   spreadErr,
			TotalError:    totalErr,
		}

		bankroll, err := db.GetBankroll(ctx, bet.ExpertID, runID)
		if err != nil {
			return fmt.Errorf("settle: load bankroll for expert %s: %w", bet.ExpertID, err)
		}

		settledBet, settledBankroll, err := betting.Settle(bet, bankroll, outcome, time.Now())
		if err != nil {
			return fmt.Errorf("settle: bet %s: %w", bet.ID, err)
		}
		if err := db.UpdateBetSettlement(ctx, settledBet); err != nil {
			return fmt.Errorf("settle: persist bet %s: %w", bet.ID, err)
		}
		if err := db.SaveBankroll(ctx, settledBankroll); err != nil {
			return fmt.Errorf("settle: persist bankroll for expert %s: %w", bet.ExpertID, err)
		}

		expert, err := db.GetExpert(ctx, bet.ExpertID, runID)
		if err != nil {
			return fmt.Errorf("settle: load expert %s: %w", bet.ExpertID, err)
		}

		bundle, err := db.LatestPredictionBundle(ctx, bet.ExpertID, gameID)
		if err != nil {
			return fmt.Errorf("settle: load bundle for expert %s: %w", bet.ExpertID, err)
		}
		factors := experts.ReasoningFactorsFromBundle(bundle)
		factorNames := make([]string, len(factors))
		for i, f := range factors {
			factorNames[i] = f.Name
		}

		result := learning.Process(expert, runID, gameID, bundle.ID, outcome, 0, factorNames, time.Now())
		if err := db.InsertLearningEvent(ctx, result.Event); err != nil {
			return fmt.Errorf("settle: persist learning event for expert %s: %w", bet.ExpertID, err)
		}
		if err := db.UpdateExpertWeights(ctx, result.Expert); err != nil {
			return fmt.Errorf("settle: persist updated weights for expert %s: %w", bet.ExpertID, err)
		}
		coordinator.Enqueue(ctx, result)
		queued++
	}

	for i := 0; i < queued; i++ {
		drainCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := coordinator.DrainOne(drainCtx)
		cancel()
		if err != nil {
			logger.Error("settle: failed to drain learning event", "error", err)
		}
	}

	logger.Info("settle complete", "run_id", runID, "game_id", gameID, "bets_settled", len(pending))
	return nil
}

// logBroadcaster satisfies learning.Broadcaster by logging peer-learning
// candidates. A production deployment would publish these to a message
// broker for cross-process expert fleets; this CLI runs every expert
// in-process, so there is no peer to notify over the wire.
type logBroadcaster struct {
	logger *slog.Logger
}

func (b logBroadcaster) Broadcast(_ context.Context, broadcast model.PeerLearningBroadcast) error {
	b.logger.Info("peer-learning broadcast",
		"source_expert_id", broadcast.SourceExpertID, "game_id", broadcast.GameID, "outcome", broadcast.Outcome, "score", broadcast.Score)
	return nil
}

// cmdSelectCouncil picks the top-K eligible experts for a week and
// persists the selection (§4.7).
func cmdSelectCouncil(ctx context.Context, db *storage.DB, cfg config.Config, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("select-council: usage: select-council <run-id> <week>: %w", cerrors.ErrSchemaValidation)
	}
	runID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("select-council: invalid run id: %w", cerrors.ErrSchemaValidation)
	}
	week, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("select-council: invalid week %q: %w", args[1], cerrors.ErrSchemaValidation)
	}

	selection, err := council.Select(ctx, db, runID, week, cfg.CouncilSize)
	if err != nil {
		return fmt.Errorf("select-council: %w", err)
	}
	if err := db.SaveSelection(ctx, selection); err != nil {
		return fmt.Errorf("select-council: %w", err)
	}

	fmt.Printf("week %d council: %d members\n", week, len(selection.Members))
	for _, m := range selection.Members {
		fmt.Println(" -", m)
	}
	return nil
}

// cmdStatus prints a run's experts and bankroll standings.
func cmdStatus(ctx context.Context, db *storage.DB, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("status: usage: status <run-id>: %w", cerrors.ErrSchemaValidation)
	}
	runID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("status: invalid run id: %w", cerrors.ErrSchemaValidation)
	}

	run, err := db.GetRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}
	expertsList, err := db.ListExperts(ctx, runID)
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}

	type row struct {
		DisplayName string `json:"display_name"`
		Archetype   string `json:"archetype"`
		Status      string `json:"status"`
		Bankroll    string `json:"bankroll,omitempty"`
	}
	rows := make([]row, 0, len(expertsList))
	for _, e := range expertsList {
		r := row{DisplayName: e.DisplayName, Archetype: string(e.Profile.Archetype), Status: string(e.Status)}
		if bankroll, err := db.GetBankroll(ctx, e.ID, runID); err == nil {
			r.Bankroll = bankroll.CurrentUnits.String()
		}
		rows = append(rows, r)
	}

	out := struct {
		RunID   uuid.UUID `json:"run_id"`
		Created time.Time `json:"created_at"`
		Experts []row     `json:"experts"`
	}{RunID: run.RunID, Created: run.CreatedAt, Experts: rows}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func parseLogLevel(raw string) slog.Level {
	switch raw {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newEmbeddingProvider selects an embedding provider from configuration.
// Ollama is the default — embeddings stay on-premises with no external API
// cost; noop disables semantic memory retrieval entirely.
func newEmbeddingProvider(cfg config.Config, logger *slog.Logger) embedding.Provider {
	switch cfg.EmbeddingProvider {
	case "noop":
		logger.Info("embedding provider: noop (semantic memory retrieval disabled)")
		return embedding.NewNoopProvider(cfg.EmbeddingDimensions)
	case "ollama":
		fallthrough
	default:
		logger.Info("embedding provider: ollama", "url", cfg.OllamaURL, "model", cfg.EmbeddingModel, "dimensions", cfg.EmbeddingDimensions)
		return embedding.NewOllamaProvider(cfg.OllamaURL, cfg.EmbeddingModel, cfg.EmbeddingDimensions)
	}
}

// newQdrantIndex builds the Qdrant ANN index when QDRANT_URL is configured;
// returns nil otherwise so memory.New runs retrieval-only.
func newQdrantIndex(cfg config.Config, logger *slog.Logger) *search.QdrantIndex {
	if cfg.QdrantURL == "" {
		return nil
	}
	idx, err := search.NewQdrantIndex(search.QdrantConfig{
		URL:        cfg.QdrantURL,
		APIKey:     cfg.QdrantAPIKey,
		Collection: cfg.QdrantCollection,
		Dims:       uint64(cfg.EmbeddingDimensions),
	}, logger)
	if err != nil {
		logger.Warn("qdrant index unavailable, memory retrieval will fall back to substring search", "error", err)
		return nil
	}
	return idx
}
