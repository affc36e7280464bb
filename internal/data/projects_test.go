package data

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func newMock(t *testing.T) (ProjectModel, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return ProjectModel{DB: db}, mock
}

func TestProjectCreate(t *testing.T) {
	m, mock := newMock(t)

	id := uuid.New()
	now := time.Now()
	req := json.RawMessage(`{"project_name":"warehouse"}`)
	res := json.RawMessage(`{"feasible":true}`)

	mock.ExpectQuery(`INSERT INTO projects`).
		WithArgs("warehouse", "planner@example.com", req, res, true, 100).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(id, now, now))

	p := &Project{
		Name:         "warehouse",
		ContactEmail: "planner@example.com",
		Request:      req,
		Result:       res,
		Feasible:     true,
		TotalDevices: 100,
	}
	err := m.Create(context.Background(), p)
	assert.NoError(t, err)
	assert.Equal(t, id, p.ID)
	assert.Equal(t, now, p.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectGetByID(t *testing.T) {
	m, mock := newMock(t)

	id := uuid.New()
	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "name", "contact_email", "request", "result",
		"feasible", "total_devices", "created_at", "updated_at",
	}).AddRow(id, "warehouse", "", []byte(`{}`), []byte(`{}`), true, 100, now, now)

	mock.ExpectQuery(`SELECT (.+) FROM projects`).WithArgs(id).WillReturnRows(rows)

	p, err := m.GetByID(context.Background(), id)
	assert.NoError(t, err)
	assert.Equal(t, "warehouse", p.Name)
	assert.Equal(t, 100, p.TotalDevices)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectGetByID_NotFound(t *testing.T) {
	m, mock := newMock(t)

	id := uuid.New()
	mock.ExpectQuery(`SELECT (.+) FROM projects`).WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := m.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestProjectList(t *testing.T) {
	m, mock := newMock(t)

	now := time.Now()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM projects`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`SELECT (.+) FROM projects`).
		WithArgs(50, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "contact_email", "request", "result",
			"feasible", "total_devices", "created_at", "updated_at",
		}).
			AddRow(uuid.New(), "b", "", []byte(`{}`), []byte(`{}`), true, 10, now, now).
			AddRow(uuid.New(), "a", "", []byte(`{}`), []byte(`{}`), false, 20, now, now))

	out, total, err := m.List(context.Background(), ProjectFilter{}, 50, 0)
	assert.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, out, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectList_NameFilter(t *testing.T) {
	m, mock := newMock(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM projects`).
		WithArgs("%ware%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT (.+) FROM projects`).
		WithArgs("%ware%", 50, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "contact_email", "request", "result",
			"feasible", "total_devices", "created_at", "updated_at",
		}))

	out, total, err := m.List(context.Background(), ProjectFilter{Name: "ware"}, 50, 0)
	assert.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectSoftDelete(t *testing.T) {
	m, mock := newMock(t)

	id := uuid.New()
	mock.ExpectExec(`UPDATE projects SET deleted_at`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, m.SoftDelete(context.Background(), id))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectSoftDelete_AlreadyGone(t *testing.T) {
	m, mock := newMock(t)

	id := uuid.New()
	mock.ExpectExec(`UPDATE projects SET deleted_at`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, m.SoftDelete(context.Background(), id), ErrRecordNotFound)
}
