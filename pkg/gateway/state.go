package gateway

import (
	"time"

	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/kvstore"
	"github.com/iotaledger/hive.go/kvstore/mapdb"
	"github.com/iotaledger/hive.go/lo"
	"github.com/iotaledger/hive.go/log"
	"github.com/iotaledger/hive.go/runtime/event"
	"github.com/iotaledger/hive.go/runtime/options"
	"github.com/iotaledger/hive.go/runtime/syncutils"
	"github.com/iotaledger/hive.go/runtime/workerpool"

	"github.com/ferat8/sui/pkg/storage/objectstore"
	"github.com/ferat8/sui/pkg/storage/sqlitedb"
	"github.com/ferat8/sui/pkg/types"
)

const (
	// DefaultGasCost is charged from the gas coin of every successful transaction.
	DefaultGasCost uint64 = 10

	txLogFilename = "transactions.db"
)

// State is a local view of the ledger that executes transactions directly.
type State struct {
	Events *Events

	logger       log.Logger
	objects      *objectstore.Store
	database     *sqlitedb.Database
	txLog        *transactionLog
	workers      *workerpool.Group
	eventWorkers *workerpool.WorkerPool

	// executionMutex serializes execution so versions are assigned on a consistent view.
	executionMutex syncutils.Mutex
	nextSeq        uint64
	clock          func() time.Time

	optsDBFolder string
	optsKVStore  kvstore.KVStore
	optsAccounts []GenesisAccount
	optsGasCost  uint64
}

// New opens the state in the configured folder. An empty object store is initialized from genesis and the
// existing transaction log is replayed on top of it.
func New(logger log.Logger, opts ...options.Option[State]) (*State, error) {
	var err error

	s := options.Apply(&State{
		Events:      NewEvents(),
		logger:      logger.NewChildLogger("Gateway"),
		workers:     workerpool.NewGroup("Gateway"),
		clock:       time.Now,
		optsGasCost: DefaultGasCost,
	}, opts, func(s *State) {
		if s.optsKVStore == nil {
			s.optsKVStore = mapdb.NewMapDB()
		}
		s.objects = objectstore.New(s.optsKVStore)
		s.eventWorkers = s.workers.CreatePool("Events", workerpool.WithWorkerCount(1))
	})

	if s.optsDBFolder == "" {
		s.workers.Shutdown()

		return nil, ierrors.New("gateway requires a database folder")
	}

	if s.database, err = sqlitedb.New(s.logger, s.optsDBFolder, txLogFilename, func(err error) {
		s.logger.LogError("transaction log error", "err", err)
	}); err != nil {
		s.workers.Shutdown()

		return nil, err
	}

	if s.txLog, err = newTransactionLog(s.database.ExecDBFunc()); err != nil {
		s.Shutdown()

		return nil, err
	}

	if s.nextSeq, err = s.txLog.count(); err != nil {
		s.Shutdown()

		return nil, err
	}

	applied, err := s.initGenesis()
	if err != nil {
		s.Shutdown()

		return nil, err
	}

	if applied && s.nextSeq > 0 {
		if err := s.replay(); err != nil {
			s.Shutdown()

			return nil, ierrors.Wrap(err, "failed to replay transaction log")
		}

		s.logger.LogInfo("transaction log replayed", "transactions", s.nextSeq)
	}

	s.logger.LogInfo("gateway started", "folder", s.optsDBFolder, "transactions", s.nextSeq)

	return s, nil
}

// WithDBFolder sets the folder of the transaction log.
func WithDBFolder(folder string) options.Option[State] {
	return func(s *State) {
		s.optsDBFolder = folder
	}
}

// WithKVStore sets the store holding objects. It defaults to an in-memory store.
func WithKVStore(store kvstore.KVStore) options.Option[State] {
	return func(s *State) {
		s.optsKVStore = store
	}
}

// WithGenesisAccounts funds the accounts with gas coins when the object store is empty.
func WithGenesisAccounts(accounts ...GenesisAccount) options.Option[State] {
	return func(s *State) {
		s.optsAccounts = accounts
	}
}

// WithGasCost sets the amount charged per transaction.
func WithGasCost(cost uint64) options.Option[State] {
	return func(s *State) {
		s.optsGasCost = cost
	}
}

// initGenesis stores the genesis objects into an empty object store and reports whether it did.
func (s *State) initGenesis() (applied bool, err error) {
	_, exists, err := s.objects.Object(FrameworkPackageID)
	if err != nil {
		return false, ierrors.Wrap(err, "failed to check for genesis")
	}
	if exists {
		return false, nil
	}

	objects, err := genesisObjects(s.optsAccounts)
	if err != nil {
		return false, ierrors.Wrap(err, "failed to build genesis")
	}

	for _, object := range objects {
		if err := s.objects.StoreObject(object); err != nil {
			return false, ierrors.Wrapf(err, "failed to store genesis object %s", object.ID())
		}
	}

	s.logger.LogTrace("genesis applied", "objects", len(objects))

	return true, nil
}

// OnEvent hooks the handler to emitted events, delivered in order on the event worker pool.
func (s *State) OnEvent(handler func(envelope *types.EventEnvelope)) (unsubscribe func()) {
	return s.Events.EventEmitted.Hook(handler, event.WithWorkerPool(s.eventWorkers)).Unhook
}

// GetRawObject returns the current state of an object.
func (s *State) GetRawObject(id types.ObjectID) (*types.RawObject, error) {
	return s.objects.RawObject(id)
}

// GetObjectsOwnedByAddress returns summaries of the objects owned by the address.
func (s *State) GetObjectsOwnedByAddress(address types.SuiAddress) ([]*types.ObjectInfo, error) {
	objects, err := s.objects.ObjectsOwnedBy(address)
	if err != nil {
		return nil, err
	}

	return lo.Map(objects, types.NewObjectInfo), nil
}

// GetObjectsOwnedByObject returns summaries of the objects owned by another object.
func (s *State) GetObjectsOwnedByObject(id types.ObjectID) ([]*types.ObjectInfo, error) {
	return s.GetObjectsOwnedByAddress(types.AddressFromObjectID(id))
}

// GetTotalTransactionNumber returns the number of executed transactions.
func (s *State) GetTotalTransactionNumber() (uint64, error) {
	return s.txLog.count()
}

// GetTransactionsInRange returns the transactions with start <= seq < end.
func (s *State) GetTransactionsInRange(start uint64, end uint64) ([]types.TxSeqDigest, error) {
	if start > end {
		return nil, ierrors.Errorf("invalid range [%d, %d)", start, end)
	}

	return s.txLog.inRange(start, end)
}

// GetRecentTransactions returns up to count of the latest transactions.
func (s *State) GetRecentTransactions(count uint64) ([]types.TxSeqDigest, error) {
	return s.txLog.recent(count)
}

// GetTransaction returns the certificate and effects of an executed transaction.
func (s *State) GetTransaction(digest types.TransactionDigest) (*types.TransactionResponse, error) {
	return s.txLog.response(digest)
}

// GetTransactionsByInputObject returns the transactions that consumed the object.
func (s *State) GetTransactionsByInputObject(id types.ObjectID) ([]types.TxSeqDigest, error) {
	return s.txLog.byObject(id, touchedInput)
}

// GetTransactionsByMutatedObject returns the transactions that created, changed or deleted the object.
func (s *State) GetTransactionsByMutatedObject(id types.ObjectID) ([]types.TxSeqDigest, error) {
	return s.txLog.byObject(id, touchedMutated)
}

// GetTransactionsByMoveFunction returns the transactions attributed to the function. Empty module or
// function names match any.
func (s *State) GetTransactionsByMoveFunction(pkg types.ObjectID, module string, function string) ([]types.TxSeqDigest, error) {
	return s.txLog.byMoveFunction(pkg, module, function)
}

// GetTransactionsFromAddress returns the transactions sent by the address.
func (s *State) GetTransactionsFromAddress(address types.SuiAddress) ([]types.TxSeqDigest, error) {
	return s.txLog.fromAddress(address)
}

// GetTransactionsToAddress returns the transactions that handed objects to the address.
func (s *State) GetTransactionsToAddress(address types.SuiAddress) ([]types.TxSeqDigest, error) {
	return s.txLog.toAddress(address)
}

// SyncAccountState confirms the address' objects are readable. The local state is always current.
func (s *State) SyncAccountState(address types.SuiAddress) error {
	_, err := s.objects.ObjectsOwnedBy(address)

	return err
}

// Size returns the on-disk size of the transaction log.
func (s *State) Size() int64 {
	return s.database.Size()
}

// Shutdown stops event delivery and closes the transaction log.
func (s *State) Shutdown() {
	s.workers.Shutdown()
	if s.database != nil {
		s.database.Shutdown()
	}

	s.logger.LogInfo("gateway stopped")
}
