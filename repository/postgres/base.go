package postgres

import (
	"github.com/omni/amb-bridge/db"
)

type basePostgresRepo struct {
	table string
	db    db.Querier
}

func newBasePostgresRepo(table string, db db.Querier) *basePostgresRepo {
	return &basePostgresRepo{
		table: table,
		db:    db,
	}
}
