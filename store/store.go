// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package store is the persistent relational index: blocks,
// merkle-blocks, transactions, inputs, and outputs, plus the derived
// views (UTXO set, confirmed payments, per-transaction fees) that
// balance and history queries read from. Writes are serialized through
// writeMu. The *sql.DB is limited to one open connection, so reads are
// serialized as well: they do not run concurrently with each other or
// with a write.
package store

import (
	"database/sql"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/EXCCoin/exccspv/addr"
	"github.com/EXCCoin/exccspv/chainhash"
	"github.com/EXCCoin/exccspv/wire"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SPV client's local index. It is safe for concurrent use
// by multiple goroutines.
type Store struct {
	db       *sql.DB
	writeMu  sync.Mutex // serializes the single writer per §5
}

// Open opens (creating if necessary) the sqlite database at path. A
// non-empty passphrase is applied via "PRAGMA key", which only takes
// effect when the linked sqlite3 library was built with SQLCipher
// support.
func Open(path string, passphrase string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// A single connection: every read and write runs on it in turn, so
	// readers do not proceed concurrently, and a query issued while
	// another query's rows are still open waits until they are closed.
	db.SetMaxOpenConns(1)

	if passphrase != "" {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA key = '%s'", passphrase)); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: applying passphrase: %w", err)
		}
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: enabling WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: enabling foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: applying schema: %w", err)
	}
	log.Infof("store: opened %s", path)
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// idHex is the canonical on-disk representation for a block or
// transaction id: lowercase hex of the natural (non-reversed)
// double-SHA-256 byte order. See DESIGN.md for why this, and not the
// display-reversed form, is the primary key.
func idHex(h chainhash.Hash) string {
	return hex.EncodeToString(h[:])
}

func idFromHex(s string) (chainhash.Hash, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return chainhash.Hash{}, err
	}
	var h chainhash.Hash
	if err := h.SetBytes(b); err != nil {
		return chainhash.Hash{}, err
	}
	return h, nil
}

// BlockHeader is the header fields persisted for a block.
type BlockHeader struct {
	Hash       chainhash.Hash
	Version    int32
	PrevHash   chainhash.Hash
	MerkleRoot chainhash.Hash
	Timestamp  int64
	Bits       uint32
	Nonce      uint32
}

// AddBlock inserts or replaces a plain block header row, for a header
// that has no merkle-block row. The Sync Controller does not call it.
func (s *Store) AddBlock(h BlockHeader) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := s.db.Exec(`
		INSERT INTO block (hash, version, prev_hash, merkle_root, timestamp, bits, nonce)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO UPDATE SET
			version=excluded.version, prev_hash=excluded.prev_hash,
			merkle_root=excluded.merkle_root, timestamp=excluded.timestamp,
			bits=excluded.bits, nonce=excluded.nonce`,
		idHex(h.Hash), h.Version, idHex(h.PrevHash), idHex(h.MerkleRoot), h.Timestamp, h.Bits, h.Nonce)
	return err
}

// MerkleBlock is a persisted merkle-block row: header fields plus the
// assigned height and the wire-level total transaction count.
type MerkleBlock struct {
	BlockHeader
	Height             uint32
	TotalTransactions  uint32
}

// AddMerkleBlock inserts or replaces a merkle-block row at the given
// height. Height is assigned by the Sync Controller from synchronization
// position, not read off the wire.
func (s *Store) AddMerkleBlock(mb MerkleBlock) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := s.db.Exec(`
		INSERT INTO merkleblock (hash, height, version, prev_hash, merkle_root, timestamp, bits, nonce, total_transactions)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO UPDATE SET
			height=excluded.height, version=excluded.version, prev_hash=excluded.prev_hash,
			merkle_root=excluded.merkle_root, timestamp=excluded.timestamp,
			bits=excluded.bits, nonce=excluded.nonce, total_transactions=excluded.total_transactions`,
		idHex(mb.Hash), mb.Height, mb.Version, idHex(mb.PrevHash), idHex(mb.MerkleRoot),
		mb.Timestamp, mb.Bits, mb.Nonce, mb.TotalTransactions)
	return err
}

// TxInput is one resolved input of a transaction being indexed: the
// outpoint it spends, the raw script (kept for later extraction re-runs),
// and the payer address already recovered from the script, if any.
type TxInput struct {
	PrevTxID chainhash.Hash
	PrevIndex uint32
	Script   []byte
	Sequence uint32
	Address  string // empty if unrecognized
}

// TxOutput is one resolved output of a transaction being indexed.
type TxOutput struct {
	Value   int64
	Script  []byte
	Address string // empty if unrecognized
}

// Transaction is the unit AddTransaction persists.
type Transaction struct {
	TxID      chainhash.Hash
	Version   int32
	LockTime  uint32
	BlockHash *chainhash.Hash // nil if not (yet) confirmed
	Inputs    []TxInput
	Outputs   []TxOutput
}

// FromWireTx builds a Transaction ready for AddTransaction from a
// decoded wire.MsgTx, resolving payer/payee addresses via the addr
// package. p2pkhVersion/p2shVersion select the network's address
// version bytes.
func FromWireTx(msg *wire.MsgTx, blockHash *chainhash.Hash, p2pkhVersion, p2shVersion byte) Transaction {
	tx := Transaction{
		TxID:      msg.TxHash(),
		Version:   msg.Version,
		LockTime:  msg.LockTime,
		BlockHash: blockHash,
	}
	for _, in := range msg.TxIn {
		address, _, _ := addr.ExtractInputAddress(in.SignatureScript, p2pkhVersion, p2shVersion)
		tx.Inputs = append(tx.Inputs, TxInput{
			PrevTxID:  in.PreviousOutPoint.Hash,
			PrevIndex: in.PreviousOutPoint.Index,
			Script:    in.SignatureScript,
			Sequence:  in.Sequence,
			Address:   address,
		})
	}
	for _, out := range msg.TxOut {
		address, _ := addr.ExtractOutputAddress(out.PkScript, p2pkhVersion)
		tx.Outputs = append(tx.Outputs, TxOutput{
			Value:   out.Value,
			Script:  out.PkScript,
			Address: address,
		})
	}
	return tx
}

// AddTransaction upserts a transaction row and fully replaces its
// txin/txout rows: existing rows for tx_id are deleted before the new
// ones are inserted, inside one transaction, so a corrected
// re-emission never leaves a mix of old and new rows visible.
func (s *Store) AddTransaction(tx Transaction) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	dbtx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer dbtx.Rollback()

	txID := idHex(tx.TxID)
	var blockHash sql.NullString
	if tx.BlockHash != nil {
		blockHash = sql.NullString{String: idHex(*tx.BlockHash), Valid: true}
	}

	if _, err := dbtx.Exec(`
		INSERT INTO tx (tx_id, version, lock_time, block_hash) VALUES (?, ?, ?, ?)
		ON CONFLICT(tx_id) DO UPDATE SET version=excluded.version, lock_time=excluded.lock_time,
			block_hash=COALESCE(excluded.block_hash, tx.block_hash)`,
		txID, tx.Version, tx.LockTime, blockHash); err != nil {
		return err
	}

	if _, err := dbtx.Exec(`DELETE FROM txin WHERE tx_id = ?`, txID); err != nil {
		return err
	}
	if _, err := dbtx.Exec(`DELETE FROM txout WHERE tx_id = ?`, txID); err != nil {
		return err
	}

	for i, in := range tx.Inputs {
		if _, err := dbtx.Exec(`
			INSERT INTO txin (tx_id, idx, prev_tx_id, prev_index, script, sequence, address_id)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			txID, i, idHex(in.PrevTxID), in.PrevIndex, in.Script, in.Sequence, in.Address); err != nil {
			return err
		}
	}
	for i, out := range tx.Outputs {
		if _, err := dbtx.Exec(`
			INSERT INTO txout (tx_id, idx, value, script, address_id)
			VALUES (?, ?, ?, ?, ?)`,
			txID, i, out.Value, out.Script, out.Address); err != nil {
			return err
		}
	}

	return dbtx.Commit()
}

// CalculateBalance returns the sum of unspent output values paid to
// address.
func (s *Store) CalculateBalance(address string) (int64, error) {
	var total sql.NullInt64
	err := s.db.QueryRow(`SELECT SUM(value) FROM view_utxo WHERE address_id = ?`, address).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total.Int64, nil
}

// PaymentState describes a Payment row's direction relative to the
// address it was queried for.
type PaymentState int

const (
	// StateUnknown means a direction could not be determined (the row
	// was fetched by transaction id rather than by address).
	StateUnknown PaymentState = iota
	StateReceived
	StateSent
)

// Payment is one row of confirmed payment history, relative to a query
// address (for Transaction(), which has no query address, State is
// StateUnknown).
type Payment struct {
	State         PaymentState
	OutputIndex   int
	Amount        int64
	FromAddress   string
	ToAddress     string
	TxID          chainhash.Hash
	BlockHeight   uint32
	Timestamp     int64
	Confirmations uint32
	Fee           *int64
}

func (s *Store) latestHeight(db queryer) (uint32, error) {
	var height sql.NullInt64
	err := db.QueryRow(`SELECT height FROM merkleblock ORDER BY timestamp DESC LIMIT 1`).Scan(&height)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return uint32(height.Int64), nil
}

type queryer interface {
	QueryRow(query string, args ...interface{}) *sql.Row
}

// LatestBlockHeight returns the height of the most recently stored
// merkle-block, by timestamp, or 0 if none are stored.
func (s *Store) LatestBlockHeight() (uint32, error) {
	return s.latestHeight(s.db)
}

// LatestBlockHash returns the hash of the most recently stored
// merkle-block, by timestamp.
func (s *Store) LatestBlockHash() (chainhash.Hash, bool, error) {
	var hash string
	err := s.db.QueryRow(`SELECT hash FROM merkleblock ORDER BY timestamp DESC LIMIT 1`).Scan(&hash)
	if err == sql.ErrNoRows {
		return chainhash.Hash{}, false, nil
	}
	if err != nil {
		return chainhash.Hash{}, false, err
	}
	h, err := idFromHex(hash)
	if err != nil {
		return chainhash.Hash{}, false, err
	}
	return h, true, nil
}

// Transactions returns the payment history involving address, most
// recent first, deduplicated by transaction id.
func (s *Store) Transactions(address string) ([]Payment, error) {
	latest, err := s.latestHeight(s.db)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT tx_id, output_index, amount, from_address, to_address, block_height, timestamp
		FROM view_tx
		WHERE from_address = ? OR to_address = ?
		ORDER BY timestamp DESC`, address, address)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seen := make(map[string]bool)
	var out []Payment
	for rows.Next() {
		var txIDHex string
		var outputIndex int
		var amount int64
		var from, to sql.NullString
		var height sql.NullInt64
		var ts sql.NullInt64
		if err := rows.Scan(&txIDHex, &outputIndex, &amount, &from, &to, &height, &ts); err != nil {
			return nil, err
		}
		if seen[txIDHex] {
			continue
		}
		seen[txIDHex] = true

		txID, err := idFromHex(txIDHex)
		if err != nil {
			return nil, err
		}
		state := StateReceived
		if to.String != address {
			state = StateSent
		}
		p := Payment{
			State:       state,
			OutputIndex: outputIndex,
			Amount:      amount,
			FromAddress: from.String,
			ToAddress:   to.String,
			TxID:        txID,
			BlockHeight: uint32(height.Int64),
			Timestamp:   ts.Int64,
		}
		if height.Valid && height.Int64 > 0 {
			p.Confirmations = confirmations(latest, uint32(height.Int64))
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i := range out {
		out[i].Fee, err = s.fee(idHex(out[i].TxID))
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// UnspentTransactions returns the current UTXO set paid to address.
func (s *Store) UnspentTransactions(address string) ([]Payment, error) {
	latest, err := s.latestHeight(s.db)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT o.tx_id, o.output_index, o.value, t.block_hash, mb.height, mb.timestamp
		FROM view_utxo o
		JOIN tx t ON t.tx_id = o.tx_id
		LEFT JOIN merkleblock mb ON mb.hash = t.block_hash
		WHERE o.address_id = ?
		ORDER BY mb.timestamp DESC`, address)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		var txIDHex string
		var outputIndex int
		var amount int64
		var blockHash sql.NullString
		var height, ts sql.NullInt64
		if err := rows.Scan(&txIDHex, &outputIndex, &amount, &blockHash, &height, &ts); err != nil {
			return nil, err
		}
		txID, err := idFromHex(txIDHex)
		if err != nil {
			return nil, err
		}
		p := Payment{
			State:       StateReceived,
			OutputIndex: outputIndex,
			Amount:      amount,
			ToAddress:   address,
			TxID:        txID,
			BlockHeight: uint32(height.Int64),
			Timestamp:   ts.Int64,
		}
		if height.Valid && height.Int64 > 0 {
			p.Confirmations = confirmations(latest, uint32(height.Int64))
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Transaction returns the view_tx row for hash, or ok=false if hash is
// not indexed. When more than one row exists (distinct inputs/outputs),
// which of them is returned is not defined. State is StateUnknown.
func (s *Store) Transaction(hash chainhash.Hash) (Payment, bool, error) {
	txIDHex := idHex(hash)
	latest, err := s.latestHeight(s.db)
	if err != nil {
		return Payment{}, false, err
	}

	rows, err := s.db.Query(`
		SELECT output_index, amount, from_address, to_address, block_height, timestamp
		FROM view_tx WHERE tx_id = ?
		ORDER BY (to_address IS NOT NULL) DESC`, txIDHex)
	if err != nil {
		return Payment{}, false, err
	}
	defer rows.Close()

	if !rows.Next() {
		return Payment{}, false, rows.Err()
	}

	var outputIndex int
	var amount int64
	var from, to sql.NullString
	var height, ts sql.NullInt64
	if err := rows.Scan(&outputIndex, &amount, &from, &to, &height, &ts); err != nil {
		return Payment{}, false, err
	}
	rows.Close()

	p := Payment{
		State:       StateUnknown,
		OutputIndex: outputIndex,
		Amount:      amount,
		FromAddress: from.String,
		ToAddress:   to.String,
		TxID:        hash,
		BlockHeight: uint32(height.Int64),
		Timestamp:   ts.Int64,
	}
	if height.Valid && height.Int64 > 0 {
		p.Confirmations = confirmations(latest, uint32(height.Int64))
	}
	p.Fee, err = s.fee(txIDHex)
	if err != nil {
		return Payment{}, false, err
	}
	return p, true, nil
}

func (s *Store) fee(txIDHex string) (*int64, error) {
	var fee sql.NullInt64
	err := s.db.QueryRow(`SELECT fee FROM view_tx_fees WHERE tx_id = ?`, txIDHex).Scan(&fee)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !fee.Valid {
		return nil, nil
	}
	v := fee.Int64
	return &v, nil
}

// confirmations implements invariant 4: max(0, latest_height - h).
func confirmations(latest, h uint32) uint32 {
	if h > latest {
		return 0
	}
	return latest - h
}
