package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/freeeve/hexciv/internal/model"
	"github.com/freeeve/hexciv/internal/repository"
	"github.com/freeeve/hexciv/pkg/civ"
)

// insertBatch bounds rows per multi-row INSERT so statements stay under the
// postgres parameter limit.
const insertBatch = 500

// WorldRepo persists session worlds: tiles, players, cities, queues and units.
type WorldRepo struct {
	db *sqlx.DB
}

// NewWorldRepo creates a WorldRepo.
func NewWorldRepo(db *sqlx.DB) *WorldRepo {
	return &WorldRepo{db: db}
}

type playerRow struct {
	ID                string         `db:"id"`
	SessionID         string         `db:"session_id"`
	Name              string         `db:"name"`
	Civilization      string         `db:"civilization"`
	IsAI              bool           `db:"is_ai"`
	Index             int            `db:"player_index"`
	ResearchTech      string         `db:"research_tech"`
	ResearchProgress  int            `db:"research_progress"`
	ResearchCompleted pq.StringArray `db:"research_completed"`
	ResearchTurn      int            `db:"research_turn"`
}

func toPlayerRow(p *civ.Player) playerRow {
	row := playerRow{
		ID:                p.ID,
		SessionID:         p.SessionID,
		Name:              p.Name,
		Civilization:      p.Civilization,
		IsAI:              p.IsAI,
		Index:             p.Index,
		ResearchCompleted: pq.StringArray(p.Research.Completed),
		ResearchTurn:      p.Research.LastResolvedTurn,
	}
	if row.ResearchCompleted == nil {
		row.ResearchCompleted = pq.StringArray{}
	}
	if cur := p.Research.Current; cur != nil {
		row.ResearchTech = cur.TechID
		row.ResearchProgress = cur.Progress
	}
	return row
}

func (row playerRow) player() *civ.Player {
	p := &civ.Player{
		ID:           row.ID,
		SessionID:    row.SessionID,
		Name:         row.Name,
		Civilization: row.Civilization,
		IsAI:         row.IsAI,
		Index:        row.Index,
		Research: civ.ResearchState{
			Completed:        []string(row.ResearchCompleted),
			LastResolvedTurn: row.ResearchTurn,
		},
	}
	if p.Research.Completed == nil {
		p.Research.Completed = []string{}
	}
	if row.ResearchTech != "" {
		p.Research.Current = &civ.ResearchProgress{TechID: row.ResearchTech, Progress: row.ResearchProgress}
	}
	return p
}

type cityRow struct {
	civ.City
	BuildingList pq.StringArray `db:"buildings"`
}

type queueRow struct {
	civ.ProductionItem
	CityID string `db:"city_id"`
}

// CreateWorld inserts a new session together with its whole world in one
// transaction. Player seats are unique per session.
func (r *WorldRepo) CreateWorld(ctx context.Context, s *model.Session, w *civ.World) error {
	err := withTx(ctx, r.db, "create world", func(tx *sqlx.Tx) error {
		if err := insertSession(ctx, tx, s); err != nil {
			return err
		}
		for start := 0; start < len(w.Tiles); start += insertBatch {
			end := min(start+insertBatch, len(w.Tiles))
			_, err := tx.NamedExecContext(ctx,
				`INSERT INTO tiles (session_id, q, r, s, terrain, resource, visible, explored, city_id, unit_id)
				 VALUES (:session_id, :q, :r, :s, :terrain, :resource, :visible, :explored, :city_id, :unit_id)`,
				w.Tiles[start:end])
			if err != nil {
				return fmt.Errorf("insert tiles: %w", err)
			}
		}
		return r.saveEntities(ctx, tx, w)
	})
	if err != nil {
		return err
	}
	w.ClearDirty()
	return nil
}

// LoadWorld reads the world of a session, or nil when the session does not
// exist.
func (r *WorldRepo) LoadWorld(ctx context.Context, sessionID string) (*civ.World, error) {
	var meta struct {
		Width  int `db:"width"`
		Height int `db:"height"`
		Turn   int `db:"current_turn"`
	}
	err := r.db.GetContext(ctx, &meta,
		`SELECT width, height, current_turn FROM sessions WHERE id = $1`, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session meta: %w", err)
	}

	var tiles []*civ.Tile
	if err := r.db.SelectContext(ctx, &tiles,
		`SELECT session_id, q, r, s, terrain, resource, visible, explored, city_id, unit_id
		 FROM tiles WHERE session_id = $1 ORDER BY r, q`, sessionID); err != nil {
		return nil, fmt.Errorf("load tiles: %w", err)
	}
	w := civ.NewWorld(sessionID, meta.Width, meta.Height, tiles)
	w.Turn = meta.Turn

	var players []playerRow
	if err := r.db.SelectContext(ctx, &players,
		`SELECT id, session_id, name, civilization, is_ai, player_index,
		        research_tech, research_progress, research_completed, research_turn
		 FROM players WHERE session_id = $1 ORDER BY player_index`, sessionID); err != nil {
		return nil, fmt.Errorf("load players: %w", err)
	}
	for _, p := range players {
		w.Players = append(w.Players, p.player())
	}

	var cities []cityRow
	if err := r.db.SelectContext(ctx, &cities,
		`SELECT id, session_id, player_id, name, q, r, s, population, hp, defense,
		        food, production, gold, science, culture, faith, happiness,
		        food_to_next_pop, culture_to_next_border, specialization, last_produced_turn, buildings
		 FROM cities WHERE session_id = $1 ORDER BY seq`, sessionID); err != nil {
		return nil, fmt.Errorf("load cities: %w", err)
	}
	byID := make(map[string]*civ.City, len(cities))
	for i := range cities {
		c := cities[i].City
		c.Buildings = []string(cities[i].BuildingList)
		if c.Buildings == nil {
			c.Buildings = []string{}
		}
		c.Queue = []civ.ProductionItem{}
		city := &c
		byID[city.ID] = city
		w.Cities = append(w.Cities, city)
	}

	var queue []queueRow
	if err := r.db.SelectContext(ctx, &queue,
		`SELECT q.id, q.city_id, q.item_type, q.item_id, q.queue_order, q.remaining
		 FROM production_queue q JOIN cities c ON c.id = q.city_id
		 WHERE c.session_id = $1 ORDER BY q.city_id, q.queue_order`, sessionID); err != nil {
		return nil, fmt.Errorf("load production queue: %w", err)
	}
	for _, item := range queue {
		if c := byID[item.CityID]; c != nil {
			c.Queue = append(c.Queue, item.ProductionItem)
		}
	}
	for _, c := range w.Cities {
		civ.SortQueue(c)
	}

	if err := r.db.SelectContext(ctx, &w.Units,
		`SELECT id, session_id, player_id, unit_type, q, r, s, hp, movement, max_movement, status, charges
		 FROM units WHERE session_id = $1 ORDER BY seq`, sessionID); err != nil {
		return nil, fmt.Errorf("load units: %w", err)
	}
	return w, nil
}

// SaveWorld writes the world without advancing the turn. It returns
// repository.ErrStaleTurn when the stored turn is no longer w.Turn.
func (r *WorldRepo) SaveWorld(ctx context.Context, w *civ.World) error {
	err := withTx(ctx, r.db, "save world", func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE sessions SET updated_at = now() WHERE id = $1 AND current_turn = $2`,
			w.SessionID, w.Turn)
		if err != nil {
			return fmt.Errorf("touch session: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("touch session: %w", err)
		}
		if n == 0 {
			return repository.ErrStaleTurn
		}
		if err := r.saveTiles(ctx, tx, w); err != nil {
			return err
		}
		return r.saveEntities(ctx, tx, w)
	})
	if err != nil {
		return err
	}
	w.ClearDirty()
	return nil
}

// CommitTurn advances the session turn with a compare-and-swap on
// current_turn and saves the world in the same transaction.
func (r *WorldRepo) CommitTurn(ctx context.Context, w *civ.World, expectedTurn int, finished bool) error {
	status := model.StatusOngoing
	if finished {
		status = model.StatusFinished
	}
	err := withTx(ctx, r.db, "turn", func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE sessions SET current_turn = $1, status = $2, updated_at = now()
			 WHERE id = $3 AND current_turn = $4`,
			w.Turn, status, w.SessionID, expectedTurn)
		if err != nil {
			return fmt.Errorf("advance turn: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("advance turn: %w", err)
		}
		if n == 0 {
			return repository.ErrStaleTurn
		}
		if err := r.saveTiles(ctx, tx, w); err != nil {
			return err
		}
		return r.saveEntities(ctx, tx, w)
	})
	if err != nil {
		return err
	}
	w.ClearDirty()
	return nil
}

func (r *WorldRepo) saveTiles(ctx context.Context, tx *sqlx.Tx, w *civ.World) error {
	for _, t := range w.DirtyTiles() {
		_, err := tx.ExecContext(ctx,
			`UPDATE tiles SET visible = $1, explored = $2, city_id = $3, unit_id = $4
			 WHERE session_id = $5 AND q = $6 AND r = $7 AND s = $8`,
			t.Visible, t.Explored, t.CityID, t.UnitID, w.SessionID, t.Q, t.R, t.S)
		if err != nil {
			return fmt.Errorf("update tile: %w", err)
		}
	}
	return nil
}

// saveEntities upserts players, cities and units, rewrites production queues
// and deletes removed units.
func (r *WorldRepo) saveEntities(ctx context.Context, tx *sqlx.Tx, w *civ.World) error {
	for _, p := range w.Players {
		_, err := tx.NamedExecContext(ctx,
			`INSERT INTO players (id, session_id, name, civilization, is_ai, player_index,
			                      research_tech, research_progress, research_completed, research_turn)
			 VALUES (:id, :session_id, :name, :civilization, :is_ai, :player_index,
			         :research_tech, :research_progress, :research_completed, :research_turn)
			 ON CONFLICT (id) DO UPDATE SET
			   research_tech = EXCLUDED.research_tech,
			   research_progress = EXCLUDED.research_progress,
			   research_completed = EXCLUDED.research_completed,
			   research_turn = EXCLUDED.research_turn`,
			toPlayerRow(p))
		if err != nil {
			return fmt.Errorf("save player %s: %w", p.ID, err)
		}
	}

	cityIDs := make([]string, 0, len(w.Cities))
	for _, c := range w.Cities {
		row := cityRow{City: *c, BuildingList: pq.StringArray(c.Buildings)}
		if row.BuildingList == nil {
			row.BuildingList = pq.StringArray{}
		}
		_, err := tx.NamedExecContext(ctx,
			`INSERT INTO cities (id, session_id, player_id, name, q, r, s, population, hp, defense,
			                     food, production, gold, science, culture, faith, happiness,
			                     food_to_next_pop, culture_to_next_border, specialization, last_produced_turn, buildings)
			 VALUES (:id, :session_id, :player_id, :name, :q, :r, :s, :population, :hp, :defense,
			         :food, :production, :gold, :science, :culture, :faith, :happiness,
			         :food_to_next_pop, :culture_to_next_border, :specialization, :last_produced_turn, :buildings)
			 ON CONFLICT (id) DO UPDATE SET
			   name = EXCLUDED.name, population = EXCLUDED.population, hp = EXCLUDED.hp,
			   defense = EXCLUDED.defense, food = EXCLUDED.food, production = EXCLUDED.production,
			   gold = EXCLUDED.gold, science = EXCLUDED.science, culture = EXCLUDED.culture,
			   faith = EXCLUDED.faith, happiness = EXCLUDED.happiness,
			   food_to_next_pop = EXCLUDED.food_to_next_pop,
			   culture_to_next_border = EXCLUDED.culture_to_next_border,
			   specialization = EXCLUDED.specialization,
			   last_produced_turn = EXCLUDED.last_produced_turn,
			   buildings = EXCLUDED.buildings`,
			row)
		if err != nil {
			return fmt.Errorf("save city %s: %w", c.ID, err)
		}
		cityIDs = append(cityIDs, c.ID)
	}

	if len(cityIDs) > 0 {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM production_queue WHERE city_id = ANY($1)`, pq.Array(cityIDs)); err != nil {
			return fmt.Errorf("clear production queue: %w", err)
		}
	}
	var queue []queueRow
	for _, c := range w.Cities {
		for _, item := range c.Queue {
			queue = append(queue, queueRow{ProductionItem: item, CityID: c.ID})
		}
	}
	for start := 0; start < len(queue); start += insertBatch {
		end := min(start+insertBatch, len(queue))
		_, err := tx.NamedExecContext(ctx,
			`INSERT INTO production_queue (id, city_id, item_type, item_id, queue_order, remaining)
			 VALUES (:id, :city_id, :item_type, :item_id, :queue_order, :remaining)`,
			queue[start:end])
		if err != nil {
			return fmt.Errorf("insert production queue: %w", err)
		}
	}

	for _, u := range w.Units {
		_, err := tx.NamedExecContext(ctx,
			`INSERT INTO units (id, session_id, player_id, unit_type, q, r, s, hp, movement, max_movement, status, charges)
			 VALUES (:id, :session_id, :player_id, :unit_type, :q, :r, :s, :hp, :movement, :max_movement, :status, :charges)
			 ON CONFLICT (id) DO UPDATE SET
			   q = EXCLUDED.q, r = EXCLUDED.r, s = EXCLUDED.s, hp = EXCLUDED.hp,
			   movement = EXCLUDED.movement, status = EXCLUDED.status, charges = EXCLUDED.charges`,
			u)
		if err != nil {
			return fmt.Errorf("save unit %s: %w", u.ID, err)
		}
	}
	if removed := w.RemovedUnits(); len(removed) > 0 {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM units WHERE id = ANY($1)`, pq.Array(removed)); err != nil {
			return fmt.Errorf("delete removed units: %w", err)
		}
	}
	return nil
}
