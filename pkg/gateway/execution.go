package gateway

import (
	"math"

	"github.com/iotaledger/hive.go/ds"
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/lo"

	"github.com/ferat8/sui/pkg/crypto"
	"github.com/ferat8/sui/pkg/move"
	"github.com/ferat8/sui/pkg/types"
)

// ExecuteTransaction verifies and applies a signed transaction. Resubmitting an executed transaction returns
// its recorded response. Rejected transactions wrap types.ErrInvalidTransaction and change nothing; a
// transaction failing during execution only pays for gas and reports the failure in its effects.
func (s *State) ExecuteTransaction(tx *types.SignedTransaction) (*types.TransactionResponse, error) {
	data, err := tx.Data()
	if err != nil {
		return nil, ierrors.Wrapf(types.ErrInvalidTransaction, "failed to decode transaction: %s", err)
	}

	if err := crypto.VerifyTransaction(tx, data.Sender); err != nil {
		return nil, err
	}

	digest := tx.Digest()

	s.executionMutex.Lock()
	defer s.executionMutex.Unlock()

	if response, err := s.txLog.response(digest); err == nil {
		return response, nil
	} else if !ierrors.Is(err, types.ErrTransactionNotFound) {
		return nil, err
	}

	e, response, err := s.execute(tx, data, digest)
	if err != nil {
		return nil, err
	}

	if err := e.commit(response); err != nil {
		return nil, ierrors.Wrapf(err, "failed to commit transaction %s", digest)
	}

	s.logger.LogTrace("transaction executed", "tx", digest, "seq", s.nextSeq-1, "kind", data.Kind.Type, "success", response.Effects.Status.Success)

	s.Events.TransactionExecuted.Trigger(response)
	for i := range response.Effects.Events {
		s.Events.EventEmitted.Trigger(&types.EventEnvelope{
			Timestamp: response.TimestampMs,
			TxDigest:  digest,
			Event:     response.Effects.Events[i],
		})
	}

	return response, nil
}

// execute computes the effects of a transaction without writing them.
func (s *State) execute(tx *types.SignedTransaction, data *types.TransactionData, digest types.TransactionDigest) (*execution, *types.TransactionResponse, error) {
	e := &execution{state: s, data: data, digest: digest, written: make(map[types.ObjectID]*types.Object)}
	if err := e.loadInputs(); err != nil {
		return nil, nil, err
	}

	status := types.ExecutionStatus{Success: true}
	if err := e.apply(); err != nil {
		s.logger.LogTrace("transaction failed", "tx", digest, "err", err)

		e.reset()
		status = types.ExecutionStatus{Error: err.Error()}
	}

	if err := e.chargeGas(); err != nil {
		return nil, nil, err
	}

	return e, e.response(tx, status), nil
}

// execution holds the pending writes of one transaction.
type execution struct {
	state  *State
	data   *types.TransactionData
	digest types.TransactionDigest

	gas     *types.Object
	inputs  []*types.Object
	version types.SequenceNumber

	written    map[types.ObjectID]*types.Object
	order      []types.ObjectID
	created    []types.ObjectID
	deleted    []types.ObjectID
	events     []types.Event
	recipients []types.SuiAddress
	moveCall   *moveCall
}

func (e *execution) loadInputs() error {
	refs := append(e.data.Kind.InputObjects(), e.data.GasPayment)

	seen := ds.NewSet[types.ObjectID]()
	for _, ref := range refs {
		if seen.Has(ref.ObjectID) {
			return ierrors.Wrapf(types.ErrInvalidTransaction, "object %s is used more than once", ref.ObjectID)
		}
		seen.Add(ref.ObjectID)

		object, err := e.ownedInput(ref)
		if err != nil {
			return err
		}
		e.inputs = append(e.inputs, object)
		e.version = max(e.version, object.Version)
	}

	e.gas = e.inputs[len(e.inputs)-1]
	e.inputs = e.inputs[:len(e.inputs)-1]
	e.version = e.version.Next()

	balance, err := GasCoinBalance(e.gas)
	if err != nil {
		return ierrors.Wrapf(types.ErrInvalidTransaction, "invalid gas payment: %s", err)
	}
	if cost := e.state.optsGasCost; e.data.GasBudget < cost || balance < cost {
		return ierrors.Wrapf(types.ErrInvalidTransaction, "gas budget %d or balance %d below cost %d", e.data.GasBudget, balance, cost)
	}

	return nil
}

func (e *execution) ownedInput(ref types.ObjectRef) (*types.Object, error) {
	object, exists, err := e.state.objects.Object(ref.ObjectID)
	if err != nil {
		return nil, ierrors.Wrapf(err, "failed to load input %s", ref.ObjectID)
	}
	if !exists {
		return nil, ierrors.Wrapf(types.ErrInvalidTransaction, "input %s does not exist", ref.ObjectID)
	}
	if current := object.Ref(); current != ref {
		return nil, ierrors.Wrapf(types.ErrInvalidTransaction, "input %s is at version %d, not %d", ref.ObjectID, current.Version, ref.Version)
	}
	if object.Owner.Kind != types.OwnerAddress || object.Owner.Address != e.data.Sender {
		return nil, ierrors.Wrapf(types.ErrInvalidTransaction, "input %s is not owned by %s", ref.ObjectID, e.data.Sender)
	}

	return object, nil
}

func (e *execution) apply() error {
	switch kind := e.data.Kind; kind.Type {
	case types.KindTransferObject:
		return e.transfer(e.inputs[0], kind.Transfer.Recipient)
	case types.KindSplitCoin:
		return e.split(e.inputs[0], kind.Split.Amounts)
	case types.KindMergeCoins:
		return e.merge(e.inputs[0], e.inputs[1])
	case types.KindPublish:
		return e.publish(kind.Publish.Modules)
	default:
		return ierrors.Errorf("unknown transaction kind %d", kind.Type)
	}
}

func (e *execution) transfer(object *types.Object, recipient types.SuiAddress) error {
	if object.Data.Move == nil || !object.Data.Move.HasPublicTransfer {
		return ierrors.Errorf("object %s cannot be transferred", object.ID())
	}

	owner := types.AddressOwner(recipient)
	object.Owner = owner
	e.write(object)

	objectType := object.Data.Move.Type
	e.recipients = append(e.recipients, recipient)
	e.moveCall = &moveCall{Package: FrameworkPackageID, Module: "transfer", Function: "transfer"}
	e.events = append(e.events, types.Event{
		Type:       types.EventTransferObject,
		PackageID:  objectType.Address,
		Module:     objectType.Module,
		Sender:     e.data.Sender,
		Recipient:  &owner,
		ObjectID:   object.ID(),
		ObjectType: objectType.String(),
		Version:    e.version,
	})

	return nil
}

func (e *execution) split(coin *types.Object, amounts []uint64) error {
	balance, err := coinBalance(coin)
	if err != nil {
		return err
	}

	var total uint64
	for _, amount := range amounts {
		if amount > math.MaxUint64-total {
			return ierrors.New("split amounts overflow")
		}
		total += amount
	}
	if total > balance {
		return ierrors.Errorf("insufficient balance %d to split %d", balance, total)
	}

	coinType := coin.Data.Move.Type
	owner := types.AddressOwner(e.data.Sender)
	for _, amount := range amounts {
		id := DeriveObjectID(e.digest, uint64(len(e.created)))
		created := types.NewMoveObject(coinType, GasCoinContents(id, amount), owner, e.version, e.digest)
		e.create(created)
		e.events = append(e.events, types.Event{
			Type:       types.EventNewObject,
			PackageID:  coinType.Address,
			Module:     coinType.Module,
			Sender:     e.data.Sender,
			Recipient:  &owner,
			ObjectID:   id,
			ObjectType: coinType.String(),
			Version:    e.version,
			Amount:     int64(amount),
		})
	}

	setCoinBalance(coin, balance-total)
	e.write(coin)
	e.moveCall = &moveCall{Package: FrameworkPackageID, Module: "coin", Function: "split_vec"}

	return nil
}

func (e *execution) merge(primary *types.Object, coin *types.Object) error {
	primaryBalance, err := coinBalance(primary)
	if err != nil {
		return err
	}
	balance, err := coinBalance(coin)
	if err != nil {
		return err
	}
	if !primary.Data.Move.Type.Equal(coin.Data.Move.Type) {
		return ierrors.Errorf("cannot merge %s into %s", coin.Data.Move.Type, primary.Data.Move.Type)
	}
	if balance > math.MaxUint64-primaryBalance {
		return ierrors.New("merged balance overflows")
	}

	setCoinBalance(primary, primaryBalance+balance)
	e.write(primary)
	e.delete(coin.ID())

	coinType := coin.Data.Move.Type
	e.moveCall = &moveCall{Package: FrameworkPackageID, Module: "coin", Function: "join"}
	e.events = append(e.events, types.Event{
		Type:       types.EventDeleteObject,
		PackageID:  coinType.Address,
		Module:     coinType.Module,
		Sender:     e.data.Sender,
		ObjectID:   coin.ID(),
		ObjectType: coinType.String(),
		Version:    e.version,
	})

	return nil
}

// publish stores the modules as a new package. Modules address their own package as 0x0.
func (e *execution) publish(serialized [][]byte) error {
	if len(serialized) == 0 {
		return ierrors.New("publish without modules")
	}

	packageID := DeriveObjectID(e.digest, uint64(len(e.created)))

	modules := make(map[string][]byte, len(serialized))
	for i, b := range serialized {
		module, err := move.ModuleFromBytes(b)
		if err != nil {
			return ierrors.Wrapf(err, "invalid module %d", i)
		}

		for j, address := range module.AddressIdentifiers {
			if address.Empty() {
				module.AddressIdentifiers[j] = packageID
			}
		}

		self := module.Self()
		if self.Address != packageID {
			return ierrors.Errorf("module %s is not declared by the published package", self)
		}
		if _, exists := modules[self.Name]; exists {
			return ierrors.Errorf("duplicate module %s", self.Name)
		}

		if err := e.checkDependencies(module, packageID); err != nil {
			return err
		}

		if modules[self.Name], err = module.Bytes(); err != nil {
			return ierrors.Wrapf(err, "failed to serialize module %s", self)
		}
	}

	e.create(types.NewPackageObject(packageID, modules, e.digest))
	e.events = append(e.events, types.Event{
		Type:      types.EventPublish,
		PackageID: packageID,
		Sender:    e.data.Sender,
		ObjectID:  packageID,
		Version:   1,
	})

	return nil
}

func (e *execution) checkDependencies(module *move.CompiledModule, packageID types.ObjectID) error {
	for _, dependency := range module.ImmediateDependencies() {
		if dependency.Address == packageID {
			continue
		}

		object, exists, err := e.state.objects.Object(dependency.Address)
		if err != nil {
			return ierrors.Wrapf(err, "failed to load dependency %s", dependency.Address)
		}
		if !exists || !object.IsPackage() {
			return ierrors.Errorf("dependency %s is not a published package", dependency.Address)
		}
		if _, exists := object.Data.Package.Modules[dependency.Name]; !exists {
			return ierrors.Errorf("dependency %s does not exist", dependency)
		}
	}

	return nil
}

func (e *execution) chargeGas() error {
	balance, err := GasCoinBalance(e.gas)
	if err != nil {
		return err
	}

	setCoinBalance(e.gas, balance-e.state.optsGasCost)
	e.write(e.gas)

	return nil
}

func (e *execution) write(object *types.Object) {
	id := object.ID()
	if _, exists := e.written[id]; !exists {
		e.order = append(e.order, id)
	}

	if !object.IsPackage() {
		object.Version = e.version
	}
	object.PreviousTransaction = e.digest
	e.written[id] = object
}

func (e *execution) create(object *types.Object) {
	e.created = append(e.created, object.ID())
	e.write(object)
}

func (e *execution) delete(id types.ObjectID) {
	e.deleted = append(e.deleted, id)
}

func (e *execution) reset() {
	e.written = make(map[types.ObjectID]*types.Object)
	e.order = nil
	e.created = nil
	e.deleted = nil
	e.events = nil
	e.recipients = nil
	e.moveCall = nil
}

func (e *execution) response(tx *types.SignedTransaction, status types.ExecutionStatus) *types.TransactionResponse {
	created := ds.NewSet[types.ObjectID]()
	effects := &types.TransactionEffects{
		Status:            status,
		TransactionDigest: e.digest,
		Events:            e.events,
	}

	for _, id := range e.created {
		created.Add(id)
		object := e.written[id]
		effects.Created = append(effects.Created, types.OwnedObjectRef{Owner: object.Owner, Reference: object.Ref()})
	}
	for _, id := range e.order {
		if created.Has(id) {
			continue
		}
		object := e.written[id]
		effects.Mutated = append(effects.Mutated, types.OwnedObjectRef{Owner: object.Owner, Reference: object.Ref()})
	}
	for _, id := range e.deleted {
		effects.Deleted = append(effects.Deleted, types.NewDeletedRef(id, e.version))
	}
	effects.GasObject = types.OwnedObjectRef{Owner: e.gas.Owner, Reference: e.gas.Ref()}

	return &types.TransactionResponse{
		Certificate: &types.CertifiedTransaction{
			TransactionDigest: e.digest,
			Data:              e.data,
			Signed:            tx,
		},
		Effects:     effects,
		TimestampMs: uint64(e.state.clock().UnixMilli()),
	}
}

func (e *execution) commit(response *types.TransactionResponse) error {
	if err := e.storeObjects(response); err != nil {
		return err
	}

	inputs := lo.Map(e.data.Kind.InputObjects(), func(ref types.ObjectRef) types.ObjectID { return ref.ObjectID })
	mutated := make([]types.ObjectID, 0, len(e.order)+len(e.deleted))
	mutated = append(append(mutated, e.order...), e.deleted...)

	if err := e.state.txLog.store(&txRecord{
		Seq:        e.state.nextSeq,
		Response:   response,
		Sender:     e.data.Sender,
		Inputs:     append(inputs, e.data.GasPayment.ObjectID),
		Mutated:    mutated,
		Recipients: e.recipients,
		MoveCall:   e.moveCall,
	}); err != nil {
		return err
	}
	e.state.nextSeq++

	return nil
}

func (e *execution) storeObjects(response *types.TransactionResponse) error {
	for _, id := range e.order {
		if err := e.state.objects.StoreObject(e.written[id]); err != nil {
			return err
		}
	}
	for _, ref := range response.Effects.Deleted {
		if err := e.state.objects.DeleteObject(ref); err != nil {
			return err
		}
	}

	return nil
}

func isCoin(object *types.Object) bool {
	if object.Data.Move == nil {
		return false
	}
	objectType := object.Data.Move.Type

	return objectType.Address == FrameworkPackageID && objectType.Module == GasCoinType.Module && objectType.Name == GasCoinType.Name
}

func coinBalance(object *types.Object) (uint64, error) {
	if !isCoin(object) {
		return 0, ierrors.Errorf("object %s is not a coin", object.ID())
	}

	return balanceFromContents(object.Data.Move.Contents)
}

func setCoinBalance(object *types.Object, balance uint64) {
	object.Data.Move.Contents = GasCoinContents(object.ID(), balance)
}
