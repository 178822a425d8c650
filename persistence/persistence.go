// SPDX-License-Identifier: GPL-3.0-or-later
package persistence

import (
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/CrawX/go-mail-receptionist/domain"
	"github.com/CrawX/go-mail-receptionist/log"
	"github.com/CrawX/go-mail-receptionist/persistence/migrations"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rubenv/sql-migrate"
	"github.com/sirupsen/logrus"
)

const (
	DriverSqlite = "sqlite3"
	DriverMysql  = "mysql"
)

// Persistence is the database backed embedding cache.
type Persistence struct {
	db *sqlx.DB
	l  *logrus.Logger
}

func NewPersistence(driver, datasource string) (*Persistence, error) {
	if driver != DriverSqlite && driver != DriverMysql {
		return nil, fmt.Errorf("unsupported database driver %s", driver)
	}

	db, err := sqlx.Connect(driver, datasource)
	if err != nil {
		return nil, fmt.Errorf("could not open db: %w", err)
	}

	l := log.Logger(log.LOG_PERSISTENCE)
	l.WithFields(logrus.Fields{"driver": driver}).Info("Connected")

	if driver == DriverSqlite {
		db.SetMaxOpenConns(1)

		_, err = db.Exec(`PRAGMA journal_mode=WAL`)
		if err != nil {
			return nil, fmt.Errorf("could not set journal mode: %w", err)
		}
		_, err = db.Exec(`PRAGMA synchronous=normal`)
		if err != nil {
			return nil, fmt.Errorf("could not set synchronous mode: %w", err)
		}
	}

	migrationSource := &migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrations.Files,
		Root:       migrations.Root,
	}

	appliedMigrations, err := migrate.Exec(db.DB, driver, migrationSource, migrate.Up)
	if err != nil {
		return nil, fmt.Errorf("could not migrate to newest version: %w", err)
	}

	l.WithField("migrations", appliedMigrations).Debug("Executed migrations")

	return &Persistence{
		db: db,
		l:  l,
	}, nil
}

func (p *Persistence) Close() error {
	err := p.db.Close()
	if err != nil {
		return fmt.Errorf("could not close db: %w", err)
	}
	p.l.Info("Disconnected")
	return nil
}

func (p *Persistence) Get(model string, textHash string) (domain.Vector, bool, error) {
	dbEmbedding := struct {
		Dims   int
		Vector []byte
	}{}

	err := p.db.Get(
		&dbEmbedding,
		"SELECT dims, vector FROM embeddings WHERE model = ? AND texthash = ?",
		model,
		textHash,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("could not query db: %w", err)
	}

	vector, err := decodeVector(dbEmbedding.Vector, dbEmbedding.Dims)
	if err != nil {
		return nil, false, err
	}

	return vector, true, nil
}

func (p *Persistence) Put(model string, textHash string, vector domain.Vector) error {
	result, err := p.db.Exec(
		"REPLACE INTO embeddings (model, texthash, dims, vector, created) VALUES (?, ?, ?, ?, ?)",
		model,
		textHash,
		len(vector),
		encodeVector(vector),
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("could not save embedding: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get num of affected rows: %w", err)
	}
	if affected < 1 {
		return fmt.Errorf("unexpected number of affected rows, expected at least 1 got %d", affected)
	}

	p.l.WithFields(logrus.Fields{"model": model, "dims": len(vector)}).Trace("Persisted embedding")
	return nil
}

// Count returns the number of cached embeddings of model.
func (p *Persistence) Count(model string) (int, error) {
	count := 0
	err := p.db.Get(&count, "SELECT COUNT(*) FROM embeddings WHERE model = ?", model)
	if err != nil {
		return 0, fmt.Errorf("could not query db: %w", err)
	}
	return count, nil
}

func encodeVector(vector domain.Vector) []byte {
	buf := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(buf []byte, dims int) (domain.Vector, error) {
	if len(buf) != 4*dims {
		return nil, fmt.Errorf("corrupt embedding, expected %d bytes got %d", 4*dims, len(buf))
	}

	vector := make(domain.Vector, dims)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return vector, nil
}
