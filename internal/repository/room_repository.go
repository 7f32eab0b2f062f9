package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/campushq/scheduling-api/internal/models"
)

// RoomRepository reads the room catalog. Rooms are managed elsewhere; the
// scheduling engine only needs lookups.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository creates a new room repository.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

func (r *RoomRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// FindByID loads a room by id.
func (r *RoomRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Room, error) {
	const query = `SELECT id, name, building, capacity, created_at FROM rooms WHERE id = $1`
	var room models.Room
	if err := sqlx.GetContext(ctx, r.exec(exec), &room, query, id); err != nil {
		return nil, err
	}
	return &room, nil
}

// List returns all rooms ordered by building and name.
func (r *RoomRepository) List(ctx context.Context) ([]models.Room, error) {
	const query = `SELECT id, name, building, capacity, created_at FROM rooms ORDER BY building ASC, name ASC`
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}
