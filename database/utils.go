package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/gobuffalo/packr/v2"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/russross/meddler"
	"github.com/step-security-bot/hedera-mirror-node/common"
	"github.com/step-security-bot/hedera-mirror-node/log"
	"golang.org/x/sync/semaphore"
)

var migrations *migrate.PackrMigrationSource

func init() {
	migrations = &migrate.PackrMigrationSource{
		Box: packr.New("mirror-node-migrations", "./migrations"),
	}
	ms, err := migrations.FindMigrations()
	if err != nil {
		panic(err)
	}
	if len(ms) == 0 {
		panic(fmt.Errorf("no SQL migrations found"))
	}
}

// MigrationsUp runs the SQL migrations Up
func MigrationsUp(db *sql.DB) error {
	nMigrations, err := migrate.Exec(db, "postgres", migrations, migrate.Up)
	if err != nil {
		return common.Wrap(err)
	}
	log.Info("successfully ran ", nMigrations, " migrations Up")
	return nil
}

// MigrationsDown runs the SQL migrations Down, rolling back at most
// migrationsToRun, or all of them when it's 0
func MigrationsDown(db *sql.DB, migrationsToRun uint) error {
	nMigrations, err := migrate.ExecMax(db, "postgres", migrations, migrate.Down, int(migrationsToRun))
	if err != nil {
		return common.Wrap(err)
	}
	log.Info("successfully ran ", nMigrations, " migrations Down")
	return nil
}

// ConnectSQLDB connects to the SQL DB
func ConnectSQLDB(port int, host, user, password, name string) (*sqlx.DB, error) {
	// Init meddler
	meddler.Default = meddler.PostgreSQL
	// Stablish connection
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host,
		port,
		user,
		password,
		name,
	)
	db, err := sqlx.Connect("postgres", psqlconn)
	if err != nil {
		return nil, common.Wrap(err)
	}
	return db, nil
}

// InitSQLDB runs migrations and registers meddlers
func InitSQLDB(port int, host, user, password, name string) (*sqlx.DB, error) {
	db, err := ConnectSQLDB(port, host, user, password, name)
	if err != nil {
		return nil, common.Wrap(err)
	}
	// Run DB migrations
	if err := MigrationsUp(db.DB); err != nil {
		return nil, common.Wrap(err)
	}
	return db, nil
}

// InitTestSQLDB opens a test PostgreSQL database configured through the
// standard PG* environment variables
func InitTestSQLDB() (*sqlx.DB, error) {
	host := os.Getenv("PGHOST")
	if host == "" {
		host = "localhost"
	}
	port, _ := strconv.Atoi(os.Getenv("PGPORT"))
	if port == 0 {
		port = 5432
	}
	user := os.Getenv("PGUSER")
	if user == "" {
		user = "mirror_node"
	}
	pass := os.Getenv("PGPASSWORD")
	if pass == "" {
		return nil, common.Wrap(fmt.Errorf("PGPASSWORD is not set"))
	}
	dbname := os.Getenv("PGDATABASE")
	if dbname == "" {
		dbname = "mirror_node"
	}
	return InitSQLDB(port, host, user, pass, dbname)
}

// Rollback an sql transaction, and log the error if it's not nil
func Rollback(txn *sqlx.Tx) {
	if err := txn.Rollback(); err != nil {
		log.Errorw("Rollback", "err", err)
	}
}

// BulkInsert performs a bulk insert with a single statement into the
// specified table.  Example:
// `db.BulkInsert(myDB, "INSERT INTO block (eth_block_num, timestamp, hash) VALUES %s", blocks[:])`
// Note that all the columns must be specified in the query, and they must be
// in the same order as in the table.
// Note that the fields in the structs need to be defined in the same order as
// in the table columns.
func BulkInsert(db meddler.DB, q string, args interface{}) error {
	arrayValue := reflect.ValueOf(args)
	arrayLen := arrayValue.Len()
	valueStrings := make([]string, 0, arrayLen)
	var arglist = make([]interface{}, 0)
	for i := 0; i < arrayLen; i++ {
		arg := arrayValue.Index(i).Addr().Interface()
		elemArglist, err := meddler.Default.Values(arg, true)
		if err != nil {
			return common.Wrap(err)
		}
		arglist = append(arglist, elemArglist...)
		value := "("
		for j := 0; j < len(elemArglist); j++ {
			value += fmt.Sprintf("$%d, ", i*len(elemArglist)+j+1)
		}
		value = value[:len(value)-2] + ")"
		valueStrings = append(valueStrings, value)
	}
	stmt := fmt.Sprintf(q, strings.Join(valueStrings, ","))
	_, err := db.Exec(stmt, arglist...)
	return common.Wrap(err)
}

// CopyIn streams rows, a slice of meddler tagged structs, into table through
// the postgres COPY protocol.  It must run inside txn.  Returns the number of
// rows copied.
func CopyIn(ctx context.Context, txn *sqlx.Tx, table string, rows interface{}) (int, error) {
	arrayValue := reflect.ValueOf(rows)
	if arrayValue.Kind() != reflect.Slice {
		return 0, common.Wrap(fmt.Errorf("CopyIn: expected a slice, got %T", rows))
	}
	arrayLen := arrayValue.Len()
	if arrayLen == 0 {
		return 0, nil
	}
	columns, err := meddler.Default.Columns(arrayValue.Index(0).Addr().Interface(), true)
	if err != nil {
		return 0, common.Wrap(err)
	}
	stmt, err := txn.PrepareContext(ctx, pq.CopyIn(table, columns...))
	if err != nil {
		return 0, common.Wrap(err)
	}
	for i := 0; i < arrayLen; i++ {
		values, err := meddler.Default.Values(arrayValue.Index(i).Addr().Interface(), true)
		if err != nil {
			_ = stmt.Close()
			return 0, common.Wrap(err)
		}
		if _, err := stmt.ExecContext(ctx, values...); err != nil {
			_ = stmt.Close()
			return 0, common.Wrap(err)
		}
	}
	// Flush the buffered rows
	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		return 0, common.Wrap(err)
	}
	return arrayLen, common.Wrap(stmt.Close())
}

// NonNullColumns returns the meddler columns of rows, a slice of meddler
// tagged structs, that are set on at least one row, in struct order.  These
// are the columns an upsert of rows needs to update.  Nil pointers and zero
// plain values are unset; a pointer to a zero value is set.
func NonNullColumns(rows interface{}) ([]string, error) {
	arrayValue := reflect.ValueOf(rows)
	if arrayValue.Kind() != reflect.Slice {
		return nil, common.Wrap(fmt.Errorf("NonNullColumns: expected a slice, got %T", rows))
	}
	if arrayValue.Len() == 0 {
		return nil, nil
	}
	columns, err := meddler.Default.Columns(arrayValue.Index(0).Addr().Interface(), true)
	if err != nil {
		return nil, common.Wrap(err)
	}
	set := make([]bool, len(columns))
	for i := 0; i < arrayValue.Len(); i++ {
		values, err := meddler.Default.Values(arrayValue.Index(i).Addr().Interface(), true)
		if err != nil {
			return nil, common.Wrap(err)
		}
		for j, v := range values {
			if !isUnset(v) {
				set[j] = true
			}
		}
	}
	changed := make([]string, 0, len(columns))
	for j, column := range columns {
		if set[j] {
			changed = append(changed, column)
		}
	}
	return changed, nil
}

func isUnset(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Interface:
		return rv.IsNil()
	}
	return rv.IsZero()
}

// SlicePtrsToSlice converts any []*Foo to []Foo
func SlicePtrsToSlice(slice interface{}) interface{} {
	v := reflect.ValueOf(slice)
	vLen := v.Len()
	typ := v.Type().Elem().Elem()
	res := reflect.MakeSlice(reflect.SliceOf(typ), vLen, vLen)
	for i := 0; i < vLen; i++ {
		res.Index(i).Set(v.Index(i).Elem())
	}
	return res.Interface()
}

// ConnectionController limits the number of concurrent users of a resource,
// such as the SQL read connections used by EVM calls
type ConnectionController struct {
	smphr   *semaphore.Weighted
	timeout time.Duration
}

// NewConnectionController initialize ConnectionController
func NewConnectionController(maxConnections int, timeout time.Duration) *ConnectionController {
	return &ConnectionController{
		smphr:   semaphore.NewWeighted(int64(maxConnections)),
		timeout: timeout,
	}
}

// Acquire reserves a slot, waiting at most the configured timeout
func (cc *ConnectionController) Acquire(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, cc.timeout)
	defer cancel()
	return common.Wrap(cc.smphr.Acquire(ctx, 1))
}

// Release frees a slot reserved by Acquire
func (cc *ConnectionController) Release() {
	cc.smphr.Release(1)
}
