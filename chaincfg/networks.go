// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import "github.com/EXCCoin/exccspv/wire"

// Network magic numbers, one per chain/net combination this package
// describes.
const (
	btcMainNet wire.BitcoinNet = 0xd9b4bef9
	btcTestNet wire.BitcoinNet = 0x0709110b
	bchMainNet wire.BitcoinNet = 0xe3e1f3e8
	bchTestNet wire.BitcoinNet = 0xf4e5f3f4
)

// BTCMainNetParams describes the Bitcoin (BTC) main network.
var BTCMainNetParams = Params{
	Name:             "btc-mainnet",
	Net:              btcMainNet,
	DefaultPort:      "8333",
	PubKeyHashAddrID: 0x00,
	ScriptHashAddrID: 0x05,
	DNSSeeds: []DNSSeed{
		{"seed.bitcoin.sipa.be"},
		{"dnsseed.bluematt.me"},
		{"dnsseed.bitcoin.dashjr.org"},
		{"seed.bitcoinstats.com"},
		{"seed.bitcoin.jonasschnelli.ch"},
		{"seed.btc.petertodd.org"},
	},
	GenesisHash:        mustHash("000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f"),
	CheckpointInterval: 2016,
	PowLimitBits:       0x1d00ffff,
	Checkpoints: []Checkpoint{
		{11111, mustHash("0000000069e244f73d78e8fd29ba2fd2ed618bd6fa2ee92559f542fdb26e7c1d")},
		{33333, mustHash("000000002dd5588a74784eaa7ab0507a18ad16a236e7b1ce69f00d7ddfb5d0a1")},
		{74000, mustHash("0000000000573993a3c9e41ce34471c079dcf5f52a0e824a81e7f953b8661a20")},
		{105000, mustHash("00000000000291ce28027faea320c8d2b054b2e0fe44a773f3eefb151d6bdc97")},
		{134444, mustHash("00000000000005b12ffd4cd315cd34ffd4a594f430ac814c91184a0d42d2b0fe")},
		{168000, mustHash("000000000000099e61ea72015e79632f216fe6cb33d7899acb35b75c8303b763")},
		{193000, mustHash("000000000000059f452a5f7340de6682a977387c17010ff6e6c3bd83ca8b1317")},
		{210000, mustHash("000000000000048b95347e83192f69cf0366076336c639f9b7228e9ba171342e")},
	},
}

// BTCTestNetParams describes the Bitcoin testnet3 network.
var BTCTestNetParams = Params{
	Name:             "btc-testnet",
	Net:              btcTestNet,
	DefaultPort:      "18333",
	PubKeyHashAddrID: 0x6f,
	ScriptHashAddrID: 0xc4,
	DNSSeeds: []DNSSeed{
		{"testnet-seed.bitcoin.jonasschnelli.ch"},
		{"seed.tbtc.petertodd.org"},
		{"testnet-seed.bluematt.me"},
	},
	GenesisHash:        mustHash("000000000933ea01ad0ee984209779baaec3ced90fa3f408719526f8d77f4943"),
	CheckpointInterval: 2016,
	// Testnet3 permits a special min-difficulty exception after a 20
	// minute gap between blocks; that relaxation is header-timestamp
	// dependent and is not modeled here. PowLimitBits is still the
	// network's absolute floor, the same value as mainnet's.
	PowLimitBits: 0x1d00ffff,
	Checkpoints: []Checkpoint{
		{546, mustHash("000000002a936ca763904c3c35fce2f3556c559c0214345d31b1bcebf76acb70")},
	},
}

// BCHMainNetParams describes the Bitcoin Cash (BCH) main network. It
// shares BTC's genesis block (the chains diverge at the August 2017
// fork height) but advertises its own magic, DNS seeds, and checkpoints
// from the fork onward.
var BCHMainNetParams = Params{
	Name:             "bch-mainnet",
	Net:              bchMainNet,
	DefaultPort:      "8333",
	PubKeyHashAddrID: 0x00,
	ScriptHashAddrID: 0x05,
	DNSSeeds: []DNSSeed{
		{"seed.bitcoinabc.org"},
		{"seed-abc.bitcoinforks.org"},
		{"btccash-seeder.bitcoinunlimited.info"},
	},
	GenesisHash:        mustHash("000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f"),
	CheckpointInterval: 2016,
	PowLimitBits:       0x1d00ffff,
	Checkpoints: []Checkpoint{
		{478559, mustHash("000000000000000000651ef99cb9fcbe0dadde1d424bd9f15ff20136191a5eec")},
	},
}

// BCHTestNetParams describes the Bitcoin Cash testnet network.
var BCHTestNetParams = Params{
	Name:             "bch-testnet",
	Net:              bchTestNet,
	DefaultPort:      "18333",
	PubKeyHashAddrID: 0x6f,
	ScriptHashAddrID: 0xc4,
	DNSSeeds: []DNSSeed{
		{"testnet-seed.bitcoinabc.org"},
		{"testnet-seed-abc.bitcoinforks.org"},
	},
	GenesisHash:        mustHash("000000000933ea01ad0ee984209779baaec3ced90fa3f408719526f8d77f4943"),
	CheckpointInterval: 2016,
	PowLimitBits:       0x1d00ffff,
	Checkpoints: []Checkpoint{
		{1155875, mustHash("00000000000e38fef93ed9582a7df43815d5c2ba9fd37ef70c9a9f062db76eb3")},
	},
}
