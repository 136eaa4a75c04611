//go:build integration

package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/freeeve/hexciv/internal/model"
	"github.com/freeeve/hexciv/internal/repository"
	"github.com/freeeve/hexciv/internal/testutil"
	"github.com/freeeve/hexciv/pkg/civ"
)

var testDB *sqlx.DB

func setup(t *testing.T) {
	t.Helper()
	if testDB == nil {
		testDB = testutil.SetupDB(t)
	}
	testutil.CleanupDB(t, testDB)
}

// createTestWorld stores a fresh 20x15 world with two AI players.
func createTestWorld(t *testing.T, repo *WorldRepo) (*model.Session, *civ.World) {
	t.Helper()
	id := uuid.NewString()
	w, m, err := civ.SetupWorld(civ.SetupOptions{
		SessionID: id,
		Width:     20,
		Height:    15,
		Seed:      42,
		AICivs:    []string{"Japan", "China"},
	}, civ.DefaultCatalog())
	if err != nil {
		t.Fatalf("setup world: %v", err)
	}
	s := &model.Session{
		ID:          id,
		Name:        "Test",
		MapType:     string(civ.MapContinents),
		Speed:       string(civ.SpeedStandard),
		Width:       m.Width,
		Height:      m.Height,
		Seed:        42,
		Difficulty:  "easy",
		CurrentTurn: 1,
		Status:      model.StatusOngoing,
		MapHash:     m.Hash,
	}
	if err := repo.CreateWorld(context.Background(), s, w); err != nil {
		t.Fatalf("create world: %v", err)
	}
	return s, w
}

func testRng() *rand.Rand { return rand.New(rand.NewSource(1)) }

// --- SessionRepo Tests ---

func TestSessionFindByID(t *testing.T) {
	setup(t)
	s, _ := createTestWorld(t, NewWorldRepo(testDB))
	repo := NewSessionRepo(testDB)

	got, err := repo.FindByID(context.Background(), s.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got == nil {
		t.Fatal("expected session")
	}
	if got.MapHash != s.MapHash || got.Width != 20 || got.CurrentTurn != 1 {
		t.Fatalf("unexpected session: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Fatal("expected created_at")
	}
}

func TestSessionFindByIDNotFound(t *testing.T) {
	setup(t)
	got, err := NewSessionRepo(testDB).FindByID(context.Background(), uuid.NewString())
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got != nil {
		t.Fatal("expected nil for missing session")
	}
}

func TestSessionSetFinished(t *testing.T) {
	setup(t)
	s, _ := createTestWorld(t, NewWorldRepo(testDB))
	repo := NewSessionRepo(testDB)
	ctx := context.Background()

	if err := repo.SetFinished(ctx, s.ID); err != nil {
		t.Fatalf("set finished: %v", err)
	}
	got, _ := repo.FindByID(ctx, s.ID)
	if got.Status != model.StatusFinished {
		t.Fatalf("expected finished, got %s", got.Status)
	}
	list, err := repo.List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v (%d sessions)", err, len(list))
	}
}

// --- WorldRepo Tests ---

func TestWorldRoundTrip(t *testing.T) {
	setup(t)
	repo := NewWorldRepo(testDB)
	_, w := createTestWorld(t, repo)

	got, err := repo.LoadWorld(context.Background(), w.SessionID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Tiles) != 300 {
		t.Fatalf("expected 300 tiles, got %d", len(got.Tiles))
	}
	if len(got.Players) != 3 || got.Players[0].IsAI || !got.Players[1].IsAI {
		t.Fatalf("unexpected players: %+v", got.Players)
	}
	if len(got.Cities) != 2 {
		t.Fatalf("expected 2 AI capitals, got %d", len(got.Cities))
	}
	if len(got.Units) != 6 {
		t.Fatalf("expected 6 opening units, got %d", len(got.Units))
	}
	for _, u := range got.Units {
		if tile := got.Tile(u.Coord()); tile == nil || tile.UnitID != u.ID {
			t.Fatalf("unit %s lost its tile back-reference", u.ID)
		}
	}
	for _, c := range got.Cities {
		if tile := got.Tile(c.Coord()); tile == nil || tile.CityID != c.ID {
			t.Fatalf("city %s lost its tile back-reference", c.Name)
		}
	}
}

func TestWorldLoadNotFound(t *testing.T) {
	setup(t)
	got, err := NewWorldRepo(testDB).LoadWorld(context.Background(), uuid.NewString())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != nil {
		t.Fatal("expected nil world")
	}
}

func TestWorldSaveQueueAndResearch(t *testing.T) {
	setup(t)
	repo := NewWorldRepo(testDB)
	_, w := createTestWorld(t, repo)
	ctx := context.Background()
	cat := civ.DefaultCatalog()

	city := w.Cities[0]
	owner := w.Player(city.PlayerID)
	if _, err := civ.Enqueue(city, civ.ItemUnit, "warrior", -1, &owner.Research, cat); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := civ.Enqueue(city, civ.ItemBuilding, "monument", -1, &owner.Research, cat); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := civ.StartResearch(&owner.Research, "agriculture", cat); err != nil {
		t.Fatalf("start research: %v", err)
	}
	if err := repo.SaveWorld(ctx, w); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := repo.LoadWorld(ctx, w.SessionID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	gc := got.City(city.ID)
	if len(gc.Queue) != 2 || gc.Queue[0].ItemID != "warrior" || gc.Queue[1].Order != 1 {
		t.Fatalf("unexpected queue: %+v", gc.Queue)
	}
	gp := got.Player(owner.ID)
	if gp.Research.Current == nil || gp.Research.Current.TechID != "agriculture" {
		t.Fatalf("unexpected research: %+v", gp.Research)
	}
}

func TestWorldCommitTurnCAS(t *testing.T) {
	setup(t)
	repo := NewWorldRepo(testDB)
	_, w := createTestWorld(t, repo)
	ctx := context.Background()

	res, err := civ.ResolveTurn(w, civ.TurnInput{PlayerID: w.Players[0].ID, Speed: civ.SpeedStandard, Rng: testRng()}, civ.DefaultCatalog())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if err := repo.CommitTurn(ctx, w, res.Turn, false); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := repo.CommitTurn(ctx, w, res.Turn, false); !errors.Is(err, repository.ErrStaleTurn) {
		t.Fatalf("expected ErrStaleTurn on replay, got %v", err)
	}
	s, _ := NewSessionRepo(testDB).FindByID(ctx, w.SessionID)
	if s.CurrentTurn != 2 {
		t.Fatalf("expected turn 2, got %d", s.CurrentTurn)
	}
}

func TestWorldRemovedUnitsDeleted(t *testing.T) {
	setup(t)
	repo := NewWorldRepo(testDB)
	_, w := createTestWorld(t, repo)
	ctx := context.Background()

	victim := w.Units[0]
	if _, err := civ.CommandUnit(w, victim.ID, civ.CmdDisband, ""); err != nil {
		t.Fatalf("disband: %v", err)
	}
	if err := repo.SaveWorld(ctx, w); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, _ := repo.LoadWorld(ctx, w.SessionID)
	if got.Unit(victim.ID) != nil {
		t.Fatal("disbanded unit still stored")
	}
	if tile := got.Tile(victim.Coord()); tile.UnitID != "" {
		t.Fatalf("tile still references %s", tile.UnitID)
	}
}

// --- MessageRepo / TurnLogRepo Tests ---

func TestMessageCreateAndList(t *testing.T) {
	setup(t)
	s, w := createTestWorld(t, NewWorldRepo(testDB))
	repo := NewMessageRepo(testDB)
	ctx := context.Background()

	for _, content := range []string{"hello", "world", "again"} {
		if _, err := repo.Create(ctx, s.ID, w.Players[0].ID, content); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	msgs, err := repo.ListBySession(ctx, s.ID, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Content != "world" || msgs[1].Content != "again" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
}

func TestTurnLogAppend(t *testing.T) {
	setup(t)
	s, _ := createTestWorld(t, NewWorldRepo(testDB))
	repo := NewTurnLogRepo(testDB)
	ctx := context.Background()

	if err := repo.Append(ctx, s.ID, "p1", 1, json.RawMessage(`{"turn":1}`)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := repo.Append(ctx, s.ID, "p1", 1, json.RawMessage(`{"turn":99}`)); err != nil {
		t.Fatalf("duplicate append: %v", err)
	}
	logs, err := repo.ListBySession(ctx, s.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected 1 log, got %d", len(logs))
	}
	var body map[string]int
	json.Unmarshal(logs[0].Result, &body)
	if body["turn"] != 1 {
		t.Fatalf("first result should win, got %s", logs[0].Result)
	}
}

func TestWorldSaveRejectsStaleTurn(t *testing.T) {
	setup(t)
	repo := NewWorldRepo(testDB)
	_, w := createTestWorld(t, repo)
	ctx := context.Background()

	stale, err := repo.LoadWorld(ctx, w.SessionID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := civ.ResolveTurn(w, civ.TurnInput{PlayerID: w.Players[0].ID, Speed: civ.SpeedStandard, Rng: testRng()}, civ.DefaultCatalog()); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if err := repo.CommitTurn(ctx, w, 1, false); err != nil {
		t.Fatalf("commit: %v", err)
	}

	city := stale.Cities[0]
	owner := stale.Player(city.PlayerID)
	if _, err := civ.Enqueue(city, civ.ItemUnit, "warrior", -1, &owner.Research, civ.DefaultCatalog()); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := repo.SaveWorld(ctx, stale); !errors.Is(err, repository.ErrStaleTurn) {
		t.Fatalf("expected ErrStaleTurn for a turn-1 world, got %v", err)
	}
	got, _ := repo.LoadWorld(ctx, w.SessionID)
	if got.Turn != 2 {
		t.Fatalf("expected committed turn 2, got %d", got.Turn)
	}
	want, have := w.City(city.ID).Queue, got.City(city.ID).Queue
	if len(want) != len(have) {
		t.Fatalf("stale save leaked into queue: want %+v, got %+v", want, have)
	}
	for i := range want {
		if want[i].ItemID != have[i].ItemID {
			t.Fatalf("stale save leaked into queue: want %+v, got %+v", want, have)
		}
	}
}
