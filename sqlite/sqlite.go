package sqlite

import (
	"context"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/sharingd/sharingd/kit/platform/errors"
)

// InmemPath is the path to use for an in-memory database.
const InmemPath = ":memory:"

// SqlStore is a wrapper around the catalog metadata database. Services
// built on it serialize their write transactions through Mu; sqlite allows
// only one writer at a time and surfaces a "database is locked" error
// otherwise.
type SqlStore struct {
	Mu   sync.RWMutex
	DB   *sqlx.DB
	log  *zap.Logger
	path string
}

// NewSqlStore opens (creating if needed) the sqlite database at path.
func NewSqlStore(path string, log *zap.Logger) (*SqlStore, error) {
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	log.Info("Resource catalog store opened", zap.String("path", path))

	// Multiple open connections would defeat the write mutex and, for an
	// in-memory database, would each see a separate empty database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		return nil, err
	}

	return &SqlStore{
		DB:   db,
		log:  log,
		path: path,
	}, nil
}

// Close the connection to the sqlite database.
func (s *SqlStore) Close() error {
	return s.DB.Close()
}

// userVersion returns the current value of the user_version pragma, which
// tracks the applied migration level.
func (s *SqlStore) userVersion() (int, error) {
	var v int
	if err := s.DB.Get(&v, "PRAGMA user_version"); err != nil {
		return 0, &errors.Error{
			Code: errors.EInternal,
			Msg:  "error reading database migration version",
			Err:  err,
		}
	}
	return v, nil
}

// execTrans executes a script within a single transaction.
func (s *SqlStore) execTrans(ctx context.Context, stmt string) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}
