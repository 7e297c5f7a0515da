package rooms

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRoom(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO rooms`).
		WithArgs(sqlmock.AnyArg(), "img1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "image_id"}).AddRow("room token", "img1"))

	svc := NewRoomService(db)
	dto, err := svc.CreateRoom(context.Background(), "img1")

	require.NoError(t, err)
	assert.Equal(t, "room token", dto.ID)
	assert.Equal(t, "img1", dto.ImageID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRoom_RetriesOnTokenCollision(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// first insert loses the ON CONFLICT race and returns no row
	mock.ExpectQuery(`INSERT INTO rooms`).
		WithArgs(sqlmock.AnyArg(), "img1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "image_id"}))
	mock.ExpectQuery(`INSERT INTO rooms`).
		WithArgs(sqlmock.AnyArg(), "img1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "image_id"}).AddRow("second", "img1"))

	svc := NewRoomService(db)
	dto, err := svc.CreateRoom(context.Background(), "img1")

	require.NoError(t, err)
	assert.Equal(t, "second", dto.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetImageConnectedToRoom(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, coalesce\(image_id,''\) FROM rooms`).
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "image_id"}).AddRow("r1", "img1"))

	svc := NewRoomService(db)
	dto, err := svc.GetImageConnectedToRoom(context.Background(), "r1")

	require.NoError(t, err)
	assert.Equal(t, "img1", dto.ImageID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetImageConnectedToRoom_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, coalesce\(image_id,''\) FROM rooms`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "image_id"}))

	svc := NewRoomService(db)
	_, err = svc.GetImageConnectedToRoom(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestDeleteRoom(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`DELETE FROM rooms`).
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "image_id"}).AddRow("r1", "img1"))

	svc := NewRoomService(db)
	dto, err := svc.DeleteRoom(context.Background(), "r1")

	require.NoError(t, err)
	assert.Equal(t, "r1", dto.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteRoom_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`DELETE FROM rooms`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "image_id"}))

	svc := NewRoomService(db)
	_, err = svc.DeleteRoom(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrRoomNotFound)
}
