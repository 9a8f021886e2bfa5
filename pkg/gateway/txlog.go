package gateway

import (
	"encoding/json"

	"gorm.io/gorm"

	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/lo"

	"github.com/ferat8/sui/pkg/storage/sqlitedb"
	"github.com/ferat8/sui/pkg/types"
)

const (
	touchedInput byte = iota
	touchedMutated
)

var dbTables = []interface{}{
	&txEntry{},
	&txObject{},
	&txRecipient{},
	&txMoveCall{},
}

type txEntry struct {
	Seq      uint64 `gorm:"primaryKey;autoIncrement:false"`
	Digest   []byte `gorm:"unique;notnull"`
	Sender   []byte `gorm:"notnull;index:tx_senders"`
	Response []byte `gorm:"notnull"`
}

type txObject struct {
	Seq      uint64 `gorm:"primaryKey;autoIncrement:false"`
	ObjectID []byte `gorm:"primaryKey"`
	Role     byte   `gorm:"primaryKey"`
}

type txRecipient struct {
	Seq     uint64 `gorm:"primaryKey;autoIncrement:false"`
	Address []byte `gorm:"primaryKey"`
}

type txMoveCall struct {
	Seq      uint64 `gorm:"primaryKey;autoIncrement:false"`
	Package  []byte `gorm:"notnull;index:move_calls"`
	Module   string `gorm:"notnull;index:move_calls"`
	Function string `gorm:"notnull;index:move_calls"`
}

// moveCall is the function a transaction kind is attributed to by the move function index.
type moveCall struct {
	Package  types.ObjectID
	Module   string
	Function string
}

// txRecord is everything the log indexes about one executed transaction.
type txRecord struct {
	Seq        uint64
	Response   *types.TransactionResponse
	Sender     types.SuiAddress
	Inputs     []types.ObjectID
	Mutated    []types.ObjectID
	Recipients []types.SuiAddress
	MoveCall   *moveCall
}

// transactionLog persists executed transactions and the indexes over them.
type transactionLog struct {
	dbExecFunc sqlitedb.ExecFunc
}

func newTransactionLog(dbExecFunc sqlitedb.ExecFunc) (*transactionLog, error) {
	if err := dbExecFunc(func(db *gorm.DB) error {
		return db.AutoMigrate(dbTables...)
	}); err != nil {
		return nil, ierrors.Wrap(err, "failed to auto migrate tables")
	}

	return &transactionLog{dbExecFunc: dbExecFunc}, nil
}

func (l *transactionLog) store(record *txRecord) error {
	response, err := json.Marshal(record.Response)
	if err != nil {
		return ierrors.Wrap(err, "failed to encode transaction response")
	}

	digest := record.Response.Digest()

	return l.dbExecFunc(func(db *gorm.DB) error {
		return db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&txEntry{Seq: record.Seq, Digest: digest[:], Sender: record.Sender[:], Response: response}).Error; err != nil {
				return ierrors.Wrapf(err, "failed to store transaction %s", digest)
			}

			objects := make([]*txObject, 0, len(record.Inputs)+len(record.Mutated))
			for _, id := range record.Inputs {
				objects = append(objects, &txObject{Seq: record.Seq, ObjectID: lo.CopySlice(id[:]), Role: touchedInput})
			}
			for _, id := range record.Mutated {
				objects = append(objects, &txObject{Seq: record.Seq, ObjectID: lo.CopySlice(id[:]), Role: touchedMutated})
			}
			if len(objects) > 0 {
				if err := tx.Create(objects).Error; err != nil {
					return ierrors.Wrapf(err, "failed to index objects of transaction %s", digest)
				}
			}

			if len(record.Recipients) > 0 {
				recipients := lo.Map(record.Recipients, func(address types.SuiAddress) *txRecipient {
					return &txRecipient{Seq: record.Seq, Address: lo.CopySlice(address[:])}
				})
				if err := tx.Create(recipients).Error; err != nil {
					return ierrors.Wrapf(err, "failed to index recipients of transaction %s", digest)
				}
			}

			if record.MoveCall != nil {
				if err := tx.Create(&txMoveCall{
					Seq:      record.Seq,
					Package:  lo.CopySlice(record.MoveCall.Package[:]),
					Module:   record.MoveCall.Module,
					Function: record.MoveCall.Function,
				}).Error; err != nil {
					return ierrors.Wrapf(err, "failed to index move call of transaction %s", digest)
				}
			}

			return nil
		})
	})
}

func (l *transactionLog) count() (uint64, error) {
	var count int64
	if err := l.dbExecFunc(func(db *gorm.DB) error {
		return db.Model(&txEntry{}).Count(&count).Error
	}); err != nil {
		return 0, ierrors.Wrap(err, "failed to count transactions")
	}

	return uint64(count), nil
}

func (l *transactionLog) response(digest types.TransactionDigest) (*types.TransactionResponse, error) {
	entry := &txEntry{}
	if err := l.dbExecFunc(func(db *gorm.DB) error {
		return db.First(entry, &txEntry{Digest: digest[:]}).Error
	}); err != nil {
		if ierrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ierrors.Wrapf(types.ErrTransactionNotFound, "transaction %s", digest)
		}

		return nil, ierrors.Wrapf(err, "failed to load transaction %s", digest)
	}

	response := new(types.TransactionResponse)
	if err := json.Unmarshal(entry.Response, response); err != nil {
		return nil, ierrors.Wrapf(types.ErrDecode, "failed to decode transaction %s: %s", digest, err)
	}

	return response, nil
}

func (l *transactionLog) inRange(start uint64, end uint64) ([]types.TxSeqDigest, error) {
	return l.query(func(db *gorm.DB) *gorm.DB {
		return db.Model(&txEntry{}).Where("seq >= ? AND seq < ?", start, end)
	})
}

func (l *transactionLog) recent(count uint64) ([]types.TxSeqDigest, error) {
	total, err := l.count()
	if err != nil {
		return nil, err
	}

	return l.inRange(total-min(count, total), total)
}

func (l *transactionLog) byObject(id types.ObjectID, role byte) ([]types.TxSeqDigest, error) {
	return l.query(func(db *gorm.DB) *gorm.DB {
		return db.Model(&txEntry{}).
			Joins("JOIN tx_objects ON tx_objects.seq = tx_entries.seq").
			Where("tx_objects.object_id = ? AND tx_objects.role = ?", id[:], role)
	})
}

func (l *transactionLog) fromAddress(address types.SuiAddress) ([]types.TxSeqDigest, error) {
	return l.query(func(db *gorm.DB) *gorm.DB {
		return db.Model(&txEntry{}).Where("sender = ?", address[:])
	})
}

func (l *transactionLog) toAddress(address types.SuiAddress) ([]types.TxSeqDigest, error) {
	return l.query(func(db *gorm.DB) *gorm.DB {
		return db.Model(&txEntry{}).
			Joins("JOIN tx_recipients ON tx_recipients.seq = tx_entries.seq").
			Where("tx_recipients.address = ?", address[:])
	})
}

func (l *transactionLog) byMoveFunction(pkg types.ObjectID, module string, function string) ([]types.TxSeqDigest, error) {
	return l.query(func(db *gorm.DB) *gorm.DB {
		scope := db.Model(&txEntry{}).
			Joins("JOIN tx_move_calls ON tx_move_calls.seq = tx_entries.seq").
			Where("tx_move_calls.package = ?", pkg[:])
		if module != "" {
			scope = scope.Where("tx_move_calls.module = ?", module)
		}
		if function != "" {
			scope = scope.Where("tx_move_calls.function = ?", function)
		}

		return scope
	})
}

func (l *transactionLog) query(scope func(db *gorm.DB) *gorm.DB) ([]types.TxSeqDigest, error) {
	var entries []*txEntry
	if err := l.dbExecFunc(func(db *gorm.DB) error {
		return scope(db).Select("tx_entries.seq", "tx_entries.digest").Order("tx_entries.seq").Find(&entries).Error
	}); err != nil {
		return nil, ierrors.Wrap(err, "failed to query transactions")
	}

	result := make([]types.TxSeqDigest, 0, len(entries))
	for _, entry := range entries {
		digest, _, err := types.TransactionDigestFromBytes(entry.Digest)
		if err != nil {
			return nil, err
		}
		result = append(result, types.TxSeqDigest{Seq: entry.Seq, Digest: digest})
	}

	return result, nil
}

// forEach passes the recorded responses to the consumer in sequence order.
func (l *transactionLog) forEach(consumer func(seq uint64, response *types.TransactionResponse) error) error {
	var entries []*txEntry

	return l.dbExecFunc(func(db *gorm.DB) error {
		return db.Model(&txEntry{}).Order("seq").FindInBatches(&entries, 100, func(_ *gorm.DB, _ int) error {
			for _, entry := range entries {
				response := new(types.TransactionResponse)
				if err := json.Unmarshal(entry.Response, response); err != nil {
					return ierrors.Wrapf(types.ErrDecode, "failed to decode transaction %d: %s", entry.Seq, err)
				}

				if err := consumer(entry.Seq, response); err != nil {
					return err
				}
			}

			return nil
		}).Error
	})
}
