package model

import (
	"encoding/json"
	"time"
)

// Session statuses.
const (
	StatusOngoing  = "ongoing"
	StatusFinished = "finished"
)

// Session represents one game: its map parameters and turn counter.
type Session struct {
	ID            string    `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	MapType       string    `json:"map_type" db:"map_type"`
	Speed         string    `json:"speed" db:"speed"`
	Width         int       `json:"width" db:"width"`
	Height        int       `json:"height" db:"height"`
	Seed          int64     `json:"seed" db:"seed"`
	Difficulty    string    `json:"difficulty" db:"difficulty"`
	CurrentTurn   int       `json:"current_turn" db:"current_turn"`
	CurrentPlayer string    `json:"current_player,omitempty" db:"current_player"`
	Status        string    `json:"status" db:"status"` // ongoing, finished
	MapHash       string    `json:"map_hash" db:"map_hash"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// ChatMessage is a plain text message posted to a session.
type ChatMessage struct {
	ID        string    `json:"id" db:"id"`
	SessionID string    `json:"session_id" db:"session_id"`
	PlayerID  string    `json:"player_id" db:"player_id"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TurnLog records the outcome of one resolved turn.
type TurnLog struct {
	ID         string          `json:"id" db:"id"`
	SessionID  string          `json:"session_id" db:"session_id"`
	Turn       int             `json:"turn" db:"turn"`
	PlayerID   string          `json:"player_id" db:"player_id"`
	Result     json.RawMessage `json:"result" db:"result"`
	ResolvedAt time.Time       `json:"resolved_at" db:"resolved_at"`
}
