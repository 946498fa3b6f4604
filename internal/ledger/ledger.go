package ledger

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"time"
)

// Ledger owns the entities and transactions of a book and is the only
// component that applies a transaction's balance effect to its entities.
// A Ledger is not safe for concurrent use.
type Ledger struct {
	entities     map[int]Entity
	transactions map[int]Transaction

	nextEntityID      int
	nextTransactionID int

	entityFeed      Feed[Entity]
	transactionFeed Feed[Transaction]
}

// New returns an empty Ledger.
func New() *Ledger {
	return &Ledger{
		entities:     make(map[int]Entity),
		transactions: make(map[int]Transaction),
	}
}

// EntityChanges is the feed of entity additions and replacements.
func (l *Ledger) EntityChanges() *Feed[Entity] { return &l.entityFeed }

// TransactionChanges is the feed of transaction additions, replacements and removals.
func (l *Ledger) TransactionChanges() *Feed[Transaction] { return &l.transactionFeed }

// AddEntity stores e. The id must be unused and the name must not collide,
// ignoring case and surrounding whitespace, with an existing entity.
func (l *Ledger) AddEntity(e Entity) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if _, ok := l.entities[e.ID]; ok {
		return fmt.Errorf("%w: entity %d", ErrDuplicateKey, e.ID)
	}
	if other, ok := l.entityNamed(e.Name, e.ID); ok {
		return fmt.Errorf("%w: %q is already used by entity %d", ErrDuplicateName, e.Name, other.ID)
	}
	l.entities[e.ID] = e
	l.nextEntityID = max(l.nextEntityID, e.ID+1)
	l.entityFeed.added(e.ID, e)
	return nil
}

// UpdateEntity replaces the stored entity with the same id and returns the
// previous value. The account type and kind cannot change.
func (l *Ledger) UpdateEntity(e Entity) (Entity, error) {
	if err := e.Validate(); err != nil {
		return Entity{}, err
	}
	old, ok := l.entities[e.ID]
	if !ok {
		return Entity{}, fmt.Errorf("%w: entity %d", ErrNotFound, e.ID)
	}
	if old.Type != e.Type || old.Kind != e.Kind {
		return Entity{}, fmt.Errorf("%w: entity %d is %s %s, not %s %s",
			ErrTypeMismatch, e.ID, old.Kind, old.Type, e.Kind, e.Type)
	}
	if other, ok := l.entityNamed(e.Name, e.ID); ok {
		return Entity{}, fmt.Errorf("%w: %q is already used by entity %d", ErrDuplicateName, e.Name, other.ID)
	}
	l.entities[e.ID] = e
	if old != e {
		l.entityFeed.replaced(e.ID, old, e)
	}
	return old, nil
}

// entityNamed finds an entity other than exclude carrying name.
func (l *Ledger) entityNamed(name string, exclude int) (Entity, bool) {
	for id, e := range l.entities {
		if id != exclude && sameName(e.Name, name) {
			return e, true
		}
	}
	return Entity{}, false
}

// Entity returns the entity with the given id.
func (l *Ledger) Entity(id int) (Entity, bool) {
	e, ok := l.entities[id]
	return e, ok
}

// EntityIDByName returns the id of the entity whose name matches, ignoring
// case and surrounding whitespace.
func (l *Ledger) EntityIDByName(name string) (int, bool) {
	e, ok := l.entityNamed(name, noID)
	return e.ID, ok
}

// ContainsEntity reports whether id names a stored entity.
func (l *Ledger) ContainsEntity(id int) bool {
	_, ok := l.entities[id]
	return ok
}

// Entities returns all entities in entity order.
func (l *Ledger) Entities() []Entity {
	return slices.SortedFunc(maps.Values(l.entities), CompareEntities)
}

// AddTransaction stores t and applies it: the debtor is debited and the
// creditor credited. Nothing changes when any check fails.
func (l *Ledger) AddTransaction(t Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if err := l.checkEndpoints(t); err != nil {
		return err
	}
	if _, ok := l.transactions[t.ID]; ok {
		return fmt.Errorf("%w: transaction %d", ErrDuplicateKey, t.ID)
	}
	updates, err := l.apply(t.DebtorID, Entity.Debit, t.CreditorID, Entity.Credit, t.Amount)
	if err != nil {
		return fmt.Errorf("processing transaction %d: %w", t.ID, err)
	}
	l.commitBalances(updates)
	l.transactions[t.ID] = t
	l.nextTransactionID = max(l.nextTransactionID, t.ID+1)
	l.transactionFeed.added(t.ID, t)
	return nil
}

func (l *Ledger) checkEndpoints(t Transaction) error {
	if !l.ContainsEntity(t.DebtorID) {
		return fmt.Errorf("%w: transaction %d debtor %d does not exist", ErrReferentialIntegrity, t.ID, t.DebtorID)
	}
	if !l.ContainsEntity(t.CreditorID) {
		return fmt.Errorf("%w: transaction %d creditor %d does not exist", ErrReferentialIntegrity, t.ID, t.CreditorID)
	}
	return nil
}

// RemoveTransaction reverses and deletes the transaction with the given id.
// It reports false when there is no such transaction.
func (l *Ledger) RemoveTransaction(id int) (Transaction, bool) {
	t, ok := l.transactions[id]
	if !ok {
		return Transaction{}, false
	}
	// Reversal can only fail if the stored entities were corrupted, which the
	// ledger does not allow; keep the transaction in that case.
	updates, err := l.apply(t.DebtorID, Entity.Credit, t.CreditorID, Entity.Debit, t.Amount)
	if err != nil {
		return Transaction{}, false
	}
	l.commitBalances(updates)
	delete(l.transactions, id)
	l.transactionFeed.removed(id, t)
	return t, true
}

// RemoveMatchingTransaction removes the stored transaction equal to t.
func (l *Ledger) RemoveMatchingTransaction(t Transaction) (Transaction, bool) {
	stored, ok := l.transactions[t.ID]
	if !ok || !stored.Equal(t) {
		return Transaction{}, false
	}
	return l.RemoveTransaction(t.ID)
}

// Transaction returns the transaction with the given id.
func (l *Ledger) Transaction(id int) (Transaction, bool) {
	t, ok := l.transactions[id]
	return t, ok
}

// ContainsTransaction reports whether id names a stored transaction.
func (l *Ledger) ContainsTransaction(id int) bool {
	_, ok := l.transactions[id]
	return ok
}

// Transactions returns all transactions in transaction order.
func (l *Ledger) Transactions() []Transaction {
	return slices.SortedFunc(maps.Values(l.transactions), CompareTransactions)
}

// TransactionsOf returns the transactions involving entityID dated within
// [from, to], both ends inclusive, in transaction order.
func (l *Ledger) TransactionsOf(entityID int, from, to time.Time) []Transaction {
	from, to = Day(from), Day(to)
	var out []Transaction
	for _, t := range l.transactions {
		if !t.Involves(entityID) || t.Date.Before(from) || t.Date.After(to) {
			continue
		}
		out = append(out, t)
	}
	slices.SortFunc(out, CompareTransactions)
	return out
}

// replaceTransaction swaps a stored transaction for one with the same id,
// endpoints and amount. Balances are untouched.
func (l *Ledger) replaceTransaction(t Transaction) {
	old := l.transactions[t.ID]
	l.transactions[t.ID] = t
	l.transactionFeed.replaced(t.ID, old, t)
}

// NextEntityID returns the id AllocEntityID would hand out next.
func (l *Ledger) NextEntityID() int { return l.nextEntityID }

// NextTransactionID returns the id AllocTransactionID would hand out next.
func (l *Ledger) NextTransactionID() int { return l.nextTransactionID }

// AllocEntityID reserves and returns a fresh entity id.
func (l *Ledger) AllocEntityID() int {
	id := l.nextEntityID
	l.nextEntityID++
	return id
}

// AllocTransactionID reserves and returns a fresh transaction id.
func (l *Ledger) AllocTransactionID() int {
	id := l.nextTransactionID
	l.nextTransactionID++
	return id
}

type balanceOp func(Entity, float64) (Entity, error)

// apply computes the replacement entities for one transaction leg pair
// without storing them. When both sides are the same entity the operations
// are applied in sequence to the same value.
func (l *Ledger) apply(firstID int, first balanceOp, secondID int, second balanceOp, amount float64) ([]Entity, error) {
	a, err := first(l.entities[firstID], amount)
	if err != nil {
		return nil, err
	}
	if firstID == secondID {
		b, err := second(a, amount)
		if err != nil {
			return nil, err
		}
		return []Entity{b}, nil
	}
	b, err := second(l.entities[secondID], amount)
	if err != nil {
		return nil, err
	}
	return []Entity{a, b}, nil
}

func (l *Ledger) commitBalances(updates []Entity) {
	for _, e := range updates {
		old := l.entities[e.ID]
		l.entities[e.ID] = e
		if old != e {
			l.entityFeed.replaced(e.ID, old, e)
		}
	}
}

// Equal reports whether l and o hold equal entities and transactions.
// Counters and subscribers are not compared.
func (l *Ledger) Equal(o *Ledger) bool {
	if !maps.Equal(l.entities, o.entities) {
		return false
	}
	return maps.EqualFunc(l.transactions, o.transactions, Transaction.Equal)
}

// noID never names a stored item.
const noID = math.MinInt
