package store

// TxState is the transaction controller state.
type TxState int

const (
	// TxIdle means writes apply directly to the live state.
	TxIdle TxState = iota

	// TxActive means a backup of the live state was taken at Begin.
	TxActive
)

func (s TxState) String() string {
	if s == TxActive {
		return "active"
	}
	return "idle"
}

// Begin snapshots the live state and enters TxActive.
// Fails with TRANSACTION_CONFLICT if a transaction is already active; the
// existing backup is left untouched.
func (s *Store) Begin() error {
	if s.state == TxActive {
		return &StoreError{
			Code:    ErrCodeTransactionConflict,
			Message: "a transaction is already active",
		}
	}

	s.backup = Snapshot(s.schema, s.sets)
	s.state = TxActive
	s.logger.Debug("transaction begun", "sets", len(s.backup))
	return nil
}

// Commit discards the backup and returns to TxIdle. The live state is kept.
func (s *Store) Commit() error {
	if s.state != TxActive {
		return &StoreError{
			Code:    ErrCodeNoActiveTransaction,
			Message: "commit without an active transaction",
		}
	}

	s.backup = nil
	s.state = TxIdle
	s.logger.Debug("transaction committed")
	return nil
}

// Rollback replaces the live state with the backup taken at Begin and
// returns to TxIdle.
//
// Records obtained from the store during the transaction belong to the
// discarded state afterwards; re-read them.
func (s *Store) Rollback() error {
	if s.state != TxActive {
		return &StoreError{
			Code:    ErrCodeNoActiveTransaction,
			Message: "rollback without an active transaction",
		}
	}

	s.sets = s.backup
	s.backup = nil
	s.state = TxIdle
	s.logger.Debug("transaction rolled back")
	return nil
}

// InTransaction reports whether a transaction is active.
func (s *Store) InTransaction() bool {
	return s.state == TxActive
}

// State returns the controller state.
func (s *Store) State() TxState {
	return s.state
}
