package ledger

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"time"
)

// StatementLine is one row of a resident's statement. Amount is signed from
// the resident's point of view: positive raises the resident's balance.
type StatementLine struct {
	Date         time.Time
	Counterparty string
	Description  string
	Amount       float64
	// Receipt is set on a line that summarises a receipt paid by the resident.
	Receipt ReceiptRef
}

// DateString formats the line date as dd-MM-yyyy.
func (l StatementLine) DateString() string {
	return l.Date.Format("02-01-2006")
}

// Statement is the computed content of a resident's invoice for a period.
type Statement struct {
	Resident     Entity
	From, To     time.Time
	StartBalance float64
	EndBalance   float64
	Lines        []StatementLine
}

type statementItem struct {
	tx      Transaction
	counter Entity
	receipt ReceiptRef
}

// Statement computes the invoice of a resident over [from, to], both ends
// inclusive. Transactions grouped under a receipt that the resident paid
// are folded into a single line against various, dated at the receipt and
// described by its name. Transactions of receipts paid by someone else do
// not appear. The ledger is not modified.
func (h *HouseholdLedger) Statement(residentID int, from, to time.Time, various Entity) (Statement, error) {
	resident, err := h.resident(residentID)
	if err != nil {
		return Statement{}, err
	}
	if various.ID == residentID {
		return Statement{}, fmt.Errorf("%w: placeholder shares id %d with the resident", ErrInvalidArgument, residentID)
	}
	from, to = Day(from), Day(to)
	if from.After(to) {
		return Statement{}, fmt.Errorf("%w: period starts %s after it ends %s",
			ErrInvalidArgument, from.Format(DateLayout), to.Format(DateLayout))
	}

	index := h.receiptIndex()
	grouped := make(map[int][]Transaction)
	var items []statementItem
	for _, t := range h.TransactionsOf(residentID, from, to) {
		if rid, ok := index[t.ID]; ok {
			grouped[rid] = append(grouped[rid], t)
			continue
		}
		item, err := h.itemFor(resident, t)
		if err != nil {
			return Statement{}, err
		}
		items = append(items, item)
	}

	for _, rid := range slices.Sorted(maps.Keys(grouped)) {
		r := h.receipts[rid]
		if r.PayerID != residentID {
			continue
		}
		var net float64
		for _, t := range grouped[rid] {
			net += effectOn(resident, t)
		}
		items = append(items, statementItem{
			tx:      summarize(resident, various, r, net),
			counter: various,
			receipt: ReceiptOf(r.ID),
		})
	}

	slices.SortFunc(items, func(a, b statementItem) int { return CompareTransactions(a.tx, b.tx) })

	st := Statement{
		Resident:     resident,
		From:         from,
		To:           to,
		StartBalance: resident.PreviousBalance,
		EndBalance:   resident.PreviousBalance,
		Lines:        make([]StatementLine, 0, len(items)),
	}
	for _, it := range items {
		amount := effectOn(resident, it.tx)
		st.EndBalance += amount
		st.Lines = append(st.Lines, StatementLine{
			Date:         it.tx.Date,
			Counterparty: it.counter.Name,
			Description:  it.tx.Description,
			Amount:       amount,
			Receipt:      it.receipt,
		})
	}
	if !finite(st.EndBalance) {
		return Statement{}, fmt.Errorf("%w: end balance of resident %d", ErrArithmeticOverflow, residentID)
	}
	return st, nil
}

// Checkpoint stores endBalance as the resident's previous balance, the
// starting point of the next statement.
func (h *HouseholdLedger) Checkpoint(residentID int, endBalance float64) error {
	resident, err := h.resident(residentID)
	if err != nil {
		return err
	}
	updated, err := resident.WithPreviousBalance(endBalance)
	if err != nil {
		return err
	}
	if _, err := h.UpdateEntity(updated); err != nil {
		return fmt.Errorf("checkpointing resident %d: %w", residentID, err)
	}
	return nil
}

func (h *HouseholdLedger) resident(id int) (Entity, error) {
	e, ok := h.Entity(id)
	if !ok {
		return Entity{}, fmt.Errorf("%w: resident %d", ErrNotFound, id)
	}
	if !e.IsResident() {
		return Entity{}, fmt.Errorf("%w: entity %d (%s) is not a resident", ErrTypeMismatch, id, e.Name)
	}
	return e, nil
}

// itemFor pairs t with the entity on the other side from the resident.
func (h *HouseholdLedger) itemFor(resident Entity, t Transaction) (statementItem, error) {
	counterID := t.DebtorID
	if counterID == resident.ID {
		counterID = t.CreditorID
	}
	counter, ok := h.Entity(counterID)
	if !ok {
		return statementItem{}, fmt.Errorf("%w: transaction %d counterparty %d does not exist",
			ErrReferentialIntegrity, t.ID, counterID)
	}
	return statementItem{tx: t, counter: counter}, nil
}

// effectOn is the balance change t causes on e. A transfer from e to itself
// nets to zero.
func effectOn(e Entity, t Transaction) float64 {
	var d float64
	if t.DebtorID == e.ID {
		d += e.DebitBalanceChange(t.Amount)
	}
	if t.CreditorID == e.ID {
		d += e.CreditBalanceChange(t.Amount)
	}
	return d
}

// summarize builds the stand-alone transaction that replaces the members of
// r on the statement. It carries no receipt reference. The resident is put
// on the side that moves its balance in the direction of net.
func summarize(resident, various Entity, r Receipt, net float64) Transaction {
	t := Transaction{
		ID:          various.ID,
		Date:        r.Date,
		Receipt:     NoReceipt,
		Amount:      math.Abs(net),
		Description: r.Name,
	}
	increaseOnCredit := resident.CreditBalanceChange(1) > 0
	if (net >= 0) == increaseOnCredit {
		t.DebtorID, t.CreditorID = various.ID, resident.ID
	} else {
		t.DebtorID, t.CreditorID = resident.ID, various.ID
	}
	return t
}
