package sqlitedb

import (
	"os"
	"path/filepath"

	"gorm.io/gorm"

	"github.com/iotaledger/hive.go/db"
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/log"
	"github.com/iotaledger/hive.go/runtime/ioutils"
	"github.com/iotaledger/hive.go/runtime/syncutils"
	"github.com/iotaledger/hive.go/sql"
)

// ExecFunc runs a function with exclusive use of the database handle.
type ExecFunc func(func(*gorm.DB) error) error

// Database is a gorm SQLite database guarded against use while it is being closed.
type Database struct {
	logger       log.Logger
	directory    string
	filename     string
	errorHandler func(error)

	accessMutex *syncutils.StarvingMutex
	database    *gorm.DB
}

// New opens or creates the SQLite database directory/filename.
func New(logger log.Logger, directory string, filename string, errorHandler func(error)) (*Database, error) {
	d := &Database{
		logger:       logger,
		directory:    directory,
		filename:     filename,
		errorHandler: errorHandler,
		accessMutex:  syncutils.NewStarvingMutex(),
	}

	if err := os.MkdirAll(directory, 0o700); err != nil {
		return nil, ierrors.Wrapf(err, "failed to create database directory %s", directory)
	}

	gormDB, _, err := sql.New(
		logger,
		sql.DatabaseParameters{
			Engine:   db.EngineSQLite,
			Path:     directory,
			Filename: filename,
		},
		true,
		[]db.Engine{db.EngineSQLite},
	)
	if err != nil {
		return nil, ierrors.Wrapf(err, "failed to create/open SQLite database: %s", filepath.Join(directory, filename))
	}
	d.database = gormDB

	return d, nil
}

// ExecDBFunc returns a function executing its argument while holding a read lock on the database.
func (d *Database) ExecDBFunc() ExecFunc {
	return func(dbFunc func(*gorm.DB) error) error {
		d.accessMutex.RLock()
		defer d.accessMutex.RUnlock()

		if d.database == nil {
			return ierrors.Errorf("database %s is closed", filepath.Join(d.directory, d.filename))
		}

		return dbFunc(d.database)
	}
}

// Size returns the size of the database directory.
func (d *Database) Size() int64 {
	folderSize, err := ioutils.FolderSize(d.directory)
	if err != nil {
		d.errorHandler(ierrors.Wrapf(err, "get folder size failed for %s", d.directory))
	}

	return folderSize
}

// Shutdown closes the database.
func (d *Database) Shutdown() {
	d.accessMutex.Lock()
	defer d.accessMutex.Unlock()

	if d.database == nil {
		return
	}

	sqlDB, err := d.database.DB()
	if err != nil {
		d.errorHandler(ierrors.Wrapf(err, "failed to get SQLite database: %s", filepath.Join(d.directory, d.filename)))

		return
	}

	if err := sqlDB.Close(); err != nil {
		d.errorHandler(ierrors.Wrap(err, "failed to close SQLite database"))
	}
	d.database = nil
}
