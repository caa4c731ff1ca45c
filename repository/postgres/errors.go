package postgres

import (
	"database/sql"
	"fmt"

	"github.com/omni/amb-bridge/db"
)

func requireInserted(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("can't get affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, db.ErrConflict)
	}
	return nil
}
