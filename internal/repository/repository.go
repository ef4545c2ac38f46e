package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/rioastal/wastesense/internal/domain"
)

// Store is the persistence contract shared by the REST gateway and the MQTT
// subscriber. Implementations must be safe for concurrent use; atomicity per
// record is all the callers rely on.
type Store interface {
	List(ctx context.Context, sensor domain.Sensor) ([]domain.Record, error)
	Create(ctx context.Context, fields domain.Fields) (domain.Record, error)
	UpdateByID(ctx context.Context, id string, fields domain.Fields) (domain.Record, error)
	DeleteByID(ctx context.Context, id string) (domain.Record, error)
	DeleteAll(ctx context.Context, sensor domain.Sensor) (int64, error)
}

// Postgres implements Store on a records table.
type Postgres struct {
	db *sqlx.DB
}

func NewPostgres(db *sqlx.DB) *Postgres { return &Postgres{db: db} }

func sensorClause(sensor domain.Sensor) string {
	switch sensor {
	case domain.SensorRain:
		return " WHERE gvalue IS NOT NULL"
	case domain.SensorGas:
		return " WHERE mvalue IS NOT NULL"
	}
	return ""
}

func (p *Postgres) List(ctx context.Context, sensor domain.Sensor) ([]domain.Record, error) {
	out := []domain.Record{}
	q := `SELECT id, gvalue, gdate, mvalue, mdate FROM records` + sensorClause(sensor) + ` ORDER BY seq`
	if err := p.db.SelectContext(ctx, &out, q); err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return out, nil
}

func (p *Postgres) Create(ctx context.Context, f domain.Fields) (domain.Record, error) {
	rec := domain.Record{
		ID:     uuid.NewString(),
		Gvalue: f.Gvalue,
		Gdate:  f.Gdate,
		Mvalue: f.Mvalue,
		Mdate:  f.Mdate,
	}
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO records(id, gvalue, gdate, mvalue, mdate) VALUES ($1,$2,$3,$4,$5)`,
		rec.ID, rec.Gvalue, rec.Gdate, rec.Mvalue, rec.Mdate)
	if err != nil {
		return domain.Record{}, fmt.Errorf("insert record: %w", err)
	}
	return rec, nil
}

// UpdateByID replaces all four fields; omitted fields go to null, not left
// unchanged.
func (p *Postgres) UpdateByID(ctx context.Context, id string, f domain.Fields) (domain.Record, error) {
	var rec domain.Record
	err := p.db.GetContext(ctx, &rec,
		`UPDATE records SET gvalue=$2, gdate=$3, mvalue=$4, mdate=$5 WHERE id=$1
		 RETURNING id, gvalue, gdate, mvalue, mdate`,
		id, f.Gvalue, f.Gdate, f.Mvalue, f.Mdate)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Record{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Record{}, fmt.Errorf("update record: %w", err)
	}
	return rec, nil
}

func (p *Postgres) DeleteByID(ctx context.Context, id string) (domain.Record, error) {
	var rec domain.Record
	err := p.db.GetContext(ctx, &rec,
		`DELETE FROM records WHERE id=$1 RETURNING id, gvalue, gdate, mvalue, mdate`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Record{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Record{}, fmt.Errorf("delete record: %w", err)
	}
	return rec, nil
}

func (p *Postgres) DeleteAll(ctx context.Context, sensor domain.Sensor) (int64, error) {
	res, err := p.db.ExecContext(ctx, `DELETE FROM records`+sensorClause(sensor))
	if err != nil {
		return 0, fmt.Errorf("delete records: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete records: %w", err)
	}
	return n, nil
}
