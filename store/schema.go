// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

const schema = `
CREATE TABLE IF NOT EXISTS block (
	hash        TEXT PRIMARY KEY,
	version     INTEGER NOT NULL,
	prev_hash   TEXT NOT NULL,
	merkle_root TEXT NOT NULL,
	timestamp   INTEGER NOT NULL,
	bits        INTEGER NOT NULL,
	nonce       INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS merkleblock (
	hash               TEXT PRIMARY KEY,
	height             INTEGER NOT NULL,
	version            INTEGER NOT NULL,
	prev_hash          TEXT NOT NULL,
	merkle_root        TEXT NOT NULL,
	timestamp          INTEGER NOT NULL,
	bits               INTEGER NOT NULL,
	nonce              INTEGER NOT NULL,
	total_transactions INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_merkleblock_height ON merkleblock(height);
CREATE INDEX IF NOT EXISTS idx_merkleblock_timestamp ON merkleblock(timestamp);

CREATE TABLE IF NOT EXISTS tx (
	tx_id      TEXT PRIMARY KEY,
	version    INTEGER NOT NULL,
	lock_time  INTEGER NOT NULL,
	block_hash TEXT
);

CREATE TABLE IF NOT EXISTS txin (
	tx_id       TEXT NOT NULL REFERENCES tx(tx_id),
	idx         INTEGER NOT NULL,
	prev_tx_id  TEXT NOT NULL,
	prev_index  INTEGER NOT NULL,
	script      BLOB,
	sequence    INTEGER NOT NULL,
	address_id  TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (tx_id, idx)
);
CREATE INDEX IF NOT EXISTS idx_txin_address ON txin(address_id);
CREATE INDEX IF NOT EXISTS idx_txin_prevout ON txin(prev_tx_id, prev_index);

CREATE TABLE IF NOT EXISTS txout (
	tx_id      TEXT NOT NULL REFERENCES tx(tx_id),
	idx        INTEGER NOT NULL,
	value      INTEGER NOT NULL,
	script     BLOB,
	address_id TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (tx_id, idx)
);
CREATE INDEX IF NOT EXISTS idx_txout_address ON txout(address_id);

DROP VIEW IF EXISTS view_utxo;
CREATE VIEW view_utxo AS
	SELECT o.tx_id AS tx_id, o.idx AS output_index, o.value AS value, o.address_id AS address_id
	FROM txout o
	WHERE NOT EXISTS (
		SELECT 1 FROM txin i WHERE i.prev_tx_id = o.tx_id AND i.prev_index = o.idx
	);

DROP VIEW IF EXISTS view_tx_fees;
CREATE VIEW view_tx_fees AS
	SELECT
		t.tx_id AS tx_id,
		CASE
			WHEN (SELECT COUNT(*) FROM txin i WHERE i.tx_id = t.tx_id) =
			     (SELECT COUNT(*) FROM txin i
			        JOIN txout po ON po.tx_id = i.prev_tx_id AND po.idx = i.prev_index
			       WHERE i.tx_id = t.tx_id)
			THEN
				(SELECT COALESCE(SUM(po.value), 0) FROM txin i
				   JOIN txout po ON po.tx_id = i.prev_tx_id AND po.idx = i.prev_index
				  WHERE i.tx_id = t.tx_id)
				-
				(SELECT COALESCE(SUM(o.value), 0) FROM txout o WHERE o.tx_id = t.tx_id)
			ELSE NULL
		END AS fee
	FROM tx t;

DROP VIEW IF EXISTS view_tx;
CREATE VIEW view_tx AS
	SELECT tx_id, output_index, amount, from_address, to_address, block_height, timestamp FROM (
		SELECT
			o.tx_id AS tx_id,
			o.idx AS output_index,
			o.value AS amount,
			(SELECT MIN(i.address_id) FROM txin i WHERE i.tx_id = o.tx_id AND i.address_id != '') AS from_address,
			o.address_id AS to_address,
			mb.height AS block_height,
			mb.timestamp AS timestamp
		FROM txout o
		JOIN tx t ON t.tx_id = o.tx_id
		LEFT JOIN merkleblock mb ON mb.hash = t.block_hash
		UNION ALL
		SELECT
			i.tx_id AS tx_id,
			i.prev_index AS output_index,
			po.value AS amount,
			i.address_id AS from_address,
			(SELECT MIN(o2.address_id) FROM txout o2 WHERE o2.tx_id = i.tx_id AND o2.address_id != '') AS to_address,
			mb.height AS block_height,
			mb.timestamp AS timestamp
		FROM txin i
		JOIN tx t ON t.tx_id = i.tx_id
		LEFT JOIN txout po ON po.tx_id = i.prev_tx_id AND po.idx = i.prev_index
		LEFT JOIN merkleblock mb ON mb.hash = t.block_hash
		WHERE i.address_id != ''
	)
	WHERE to_address IS NOT NULL AND to_address != ''
	      AND (from_address IS NULL OR from_address != to_address);
`
