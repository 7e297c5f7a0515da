package rooms

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// RoomDTO is the persisted registry record linking a drawing room to the
// background image it was created with.
type RoomDTO struct {
	ID      string `json:"id"`
	ImageID string `json:"image_id"`
}

var (
	ErrRoomNotFound = errors.New("room not found")
)

type IRoomService interface {
	CreateRoom(ctx context.Context, imageID string) (*RoomDTO, error)
	GetImageConnectedToRoom(ctx context.Context, roomID string) (*RoomDTO, error)
	DeleteRoom(ctx context.Context, roomID string) (*RoomDTO, error)
}

type roomService struct {
	db *sql.DB
}

func NewRoomService(db *sql.DB) IRoomService {
	return &roomService{db: db}
}

// CreateRoom inserts a fresh registry row keyed by a generated token.
// Collisions are resolved by regenerating the token until the insert lands.
func (svc *roomService) CreateRoom(ctx context.Context, imageID string) (*RoomDTO, error) {
	const insQ = `
	  INSERT INTO rooms (id, image_id)
	       VALUES ($1, $2)
	  ON CONFLICT (id) DO NOTHING
	  RETURNING id, image_id`

	for {
		roomID := uuid.NewString()
		dto := &RoomDTO{}
		err := svc.db.QueryRowContext(ctx, insQ, roomID, imageID).
			Scan(&dto.ID, &dto.ImageID)
		if errors.Is(err, sql.ErrNoRows) {
			continue // token already taken, roll again
		}
		if err != nil {
			return nil, err
		}
		return dto, nil
	}
}

func (svc *roomService) GetImageConnectedToRoom(ctx context.Context, roomID string) (*RoomDTO, error) {
	const q = `SELECT id, coalesce(image_id,'') FROM rooms WHERE id = $1 LIMIT 1`

	dto := &RoomDTO{}
	err := svc.db.QueryRowContext(ctx, q, roomID).Scan(&dto.ID, &dto.ImageID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	return dto, nil
}

func (svc *roomService) DeleteRoom(ctx context.Context, roomID string) (*RoomDTO, error) {
	const q = `DELETE FROM rooms WHERE id = $1 RETURNING id, coalesce(image_id,'')`

	dto := &RoomDTO{}
	err := svc.db.QueryRowContext(ctx, q, roomID).Scan(&dto.ID, &dto.ImageID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	return dto, nil
}
