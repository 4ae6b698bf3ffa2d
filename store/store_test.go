// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

import (
	"path/filepath"
	"testing"

	"github.com/EXCCoin/exccspv/chainhash"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.sqlite"), "")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustHash(t *testing.T, b byte) chainhash.Hash {
	t.Helper()
	var h chainhash.Hash
	h[0] = b
	return h
}

func addMerkleBlockAt(t *testing.T, s *Store, height uint32, b byte) chainhash.Hash {
	t.Helper()
	hash := mustHash(t, b)
	err := s.AddMerkleBlock(MerkleBlock{
		BlockHeader: BlockHeader{Hash: hash, Timestamp: int64(height)},
		Height:      height,
	})
	if err != nil {
		t.Fatalf("AddMerkleBlock failed: %v", err)
	}
	return hash
}

// TestBalanceFromOneTransaction covers the simplest §8 scenario: a single
// confirmed transaction paying to a tracked address yields that output's
// value as the address's balance.
func TestBalanceFromOneTransaction(t *testing.T) {
	s := openTestStore(t)
	blockHash := addMerkleBlockAt(t, s, 100, 1)

	const payee = "payee-address"
	tx := Transaction{
		TxID:      mustHash(t, 2),
		BlockHash: &blockHash,
		Outputs:   []TxOutput{{Value: 50000, Address: payee}},
	}
	if err := s.AddTransaction(tx); err != nil {
		t.Fatalf("AddTransaction failed: %v", err)
	}

	balance, err := s.CalculateBalance(payee)
	if err != nil {
		t.Fatalf("CalculateBalance failed: %v", err)
	}
	if balance != 50000 {
		t.Errorf("balance = %d, want 50000", balance)
	}
}

// TestSpendWithFee covers a transaction that spends a previously received
// output, paying less to the new recipient than the input was worth: the
// difference is the fee, recoverable from view_tx_fees.
func TestSpendWithFee(t *testing.T) {
	s := openTestStore(t)
	blockA := addMerkleBlockAt(t, s, 100, 1)
	blockB := addMerkleBlockAt(t, s, 101, 2)

	const payer = "payer-address"
	const payee = "payee-address"

	fundingTx := Transaction{
		TxID:      mustHash(t, 3),
		BlockHash: &blockA,
		Outputs:   []TxOutput{{Value: 100000, Address: payer}},
	}
	if err := s.AddTransaction(fundingTx); err != nil {
		t.Fatalf("AddTransaction(funding) failed: %v", err)
	}

	spendTx := Transaction{
		TxID:      mustHash(t, 4),
		BlockHash: &blockB,
		Inputs:    []TxInput{{PrevTxID: fundingTx.TxID, PrevIndex: 0, Address: payer}},
		Outputs:   []TxOutput{{Value: 90000, Address: payee}},
	}
	if err := s.AddTransaction(spendTx); err != nil {
		t.Fatalf("AddTransaction(spend) failed: %v", err)
	}

	fee, err := s.fee(idHex(spendTx.TxID))
	if err != nil {
		t.Fatalf("fee failed: %v", err)
	}
	if fee == nil || *fee != 10000 {
		t.Fatalf("fee = %v, want 10000", fee)
	}

	payerBalance, err := s.CalculateBalance(payer)
	if err != nil {
		t.Fatalf("CalculateBalance(payer) failed: %v", err)
	}
	if payerBalance != 0 {
		t.Errorf("payer balance = %d, want 0 (fully spent)", payerBalance)
	}

	payeeBalance, err := s.CalculateBalance(payee)
	if err != nil {
		t.Fatalf("CalculateBalance(payee) failed: %v", err)
	}
	if payeeBalance != 90000 {
		t.Errorf("payee balance = %d, want 90000", payeeBalance)
	}
}

// TestAddTransactionIsIdempotent covers duplicate-insert idempotence: an
// identical re-submission of the same transaction must not create
// duplicate txin/txout rows or double-count a balance.
func TestAddTransactionIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	blockHash := addMerkleBlockAt(t, s, 10, 1)

	tx := Transaction{
		TxID:      mustHash(t, 5),
		BlockHash: &blockHash,
		Outputs:   []TxOutput{{Value: 1234, Address: "someone"}},
	}
	for i := 0; i < 3; i++ {
		if err := s.AddTransaction(tx); err != nil {
			t.Fatalf("AddTransaction (iteration %d) failed: %v", i, err)
		}
	}

	balance, err := s.CalculateBalance("someone")
	if err != nil {
		t.Fatalf("CalculateBalance failed: %v", err)
	}
	if balance != 1234 {
		t.Errorf("balance = %d, want 1234 (re-insertion must not duplicate)", balance)
	}
}

// TestSelfTransferSuppressed covers the case where a single address pays
// itself (a change-only or consolidation transaction): such a transfer
// must not appear as payment history to or from that address.
func TestSelfTransferSuppressed(t *testing.T) {
	s := openTestStore(t)
	blockA := addMerkleBlockAt(t, s, 10, 1)
	blockB := addMerkleBlockAt(t, s, 11, 2)

	const addr = "self-address"
	fundingTx := Transaction{
		TxID:      mustHash(t, 6),
		BlockHash: &blockA,
		Outputs:   []TxOutput{{Value: 5000, Address: addr}},
	}
	if err := s.AddTransaction(fundingTx); err != nil {
		t.Fatalf("AddTransaction(funding) failed: %v", err)
	}

	selfTx := Transaction{
		TxID:      mustHash(t, 7),
		BlockHash: &blockB,
		Inputs:    []TxInput{{PrevTxID: fundingTx.TxID, PrevIndex: 0, Address: addr}},
		Outputs:   []TxOutput{{Value: 4900, Address: addr}},
	}
	if err := s.AddTransaction(selfTx); err != nil {
		t.Fatalf("AddTransaction(self) failed: %v", err)
	}

	payments, err := s.Transactions(addr)
	if err != nil {
		t.Fatalf("Transactions failed: %v", err)
	}
	for _, p := range payments {
		if p.TxID == selfTx.TxID {
			t.Errorf("self-transfer tx %s appeared in history, want suppressed", selfTx.TxID)
		}
	}
}

func TestLatestBlockHeightAndHash(t *testing.T) {
	s := openTestStore(t)
	if _, ok, err := s.LatestBlockHash(); err != nil || ok {
		t.Fatalf("LatestBlockHash on empty store = (_, %v, %v), want (_, false, nil)", ok, err)
	}

	addMerkleBlockAt(t, s, 5, 1)
	top := addMerkleBlockAt(t, s, 9, 2)

	height, err := s.LatestBlockHeight()
	if err != nil {
		t.Fatalf("LatestBlockHeight failed: %v", err)
	}
	if height != 9 {
		t.Errorf("height = %d, want 9", height)
	}

	hash, ok, err := s.LatestBlockHash()
	if err != nil || !ok {
		t.Fatalf("LatestBlockHash failed: ok=%v err=%v", ok, err)
	}
	if hash != top {
		t.Errorf("hash = %s, want %s", hash, top)
	}
}
