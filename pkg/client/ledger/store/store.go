// Package store persists transaction indexes built by the ledger client in a badger database.
//
// Each save writes the records under a new generation and then switches the channel's current
// generation in one small transaction, so readers see either the previous index of the channel
// or the new one, never a mix. The superseded generation is deleted afterwards.
package store

import (
	"encoding/binary"
	"encoding/json"
	"sync"

	"github.com/dgraph-io/badger/v3"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/client/ledger"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/common/logging"
	"github.com/pkg/errors"
)

var logger = logging.NewLogger("fabgw/store")

// ErrNotFound is returned when a transaction is not part of the stored index
var ErrNotFound = errors.New("not found")

// key prefixes
const (
	_             byte = iota
	colRecord          // record by channel, generation, block number and position
	colTxID            // record key by channel, generation and transaction ID
	colCurrent         // current generation and number of records by channel
	colGeneration      // generation sequence
)

const generationBandwidth = 16

// Store is a transaction index store
type Store struct {
	db          *badger.DB
	generations *badger.Sequence

	// saveMutex serializes index replacement
	saveMutex sync.Mutex
}

type current struct {
	generation uint64
	size       uint64
}

// Open opens or creates the store at the given path
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("path cannot be empty")
	}
	return open(badger.DefaultOptions(path))
}

// OpenInMemory opens a store that is not persisted
func OpenInMemory() (*Store, error) {
	return open(badger.DefaultOptions("").WithInMemory(true))
}

func open(opts badger.Options) (*Store, error) {
	opts.Logger = badgerLogger{}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open index store at '%s'", opts.Dir)
	}

	generations, err := db.GetSequence([]byte{colGeneration}, generationBandwidth)
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logger.Warnf("could not close index store: %s", closeErr)
		}
		return nil, errors.Wrap(err, "could not open generation sequence")
	}

	return &Store{db: db, generations: generations}, nil
}

// Close closes the store
func (s *Store) Close() error {
	if err := s.generations.Release(); err != nil {
		logger.Warnf("could not release generation sequence: %s", err)
	}
	return errors.Wrap(s.db.Close(), "could not close index store")
}

// SaveIndex replaces the stored index of the channel with the given records. Indexes of
// any size may be saved; the replacement is visible to readers all at once.
func (s *Store) SaveIndex(channelID string, records []ledger.TransactionRecord) error {
	s.saveMutex.Lock()
	defer s.saveMutex.Unlock()

	generation, err := s.generations.Next()
	if err != nil {
		return errors.Wrapf(err, "failed to save index of channel [%s]: could not allocate generation", channelID)
	}
	// generation 0 is never used so that a missing current generation is unambiguous
	generation++

	if err := s.writeGeneration(channelID, generation, records); err != nil {
		s.deleteGenerations(channelID, func(g uint64) bool { return g == generation })
		return errors.WithMessagef(err, "failed to save index of channel [%s]", channelID)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(channelPrefix(colCurrent, channelID), encodeCurrent(current{generation: generation, size: uint64(len(records))}))
	})
	if err != nil {
		s.deleteGenerations(channelID, func(g uint64) bool { return g == generation })
		return errors.Wrapf(err, "failed to save index of channel [%s]: could not switch generation", channelID)
	}

	s.deleteGenerations(channelID, func(g uint64) bool { return g != generation })

	logger.Debugf("Saved %d transactions of channel [%s] as generation %d", len(records), channelID, generation)
	return nil
}

func (s *Store) writeGeneration(channelID string, generation uint64, records []ledger.TransactionRecord) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, record := range records {
		value, err := json.Marshal(record)
		if err != nil {
			return errors.Wrapf(err, "marshal of transaction [%s] failed", record.TxID)
		}

		key := recordKey(channelID, generation, record.BlockNumber, record.Position)
		if err := wb.Set(key, value); err != nil {
			return errors.Wrapf(err, "could not store transaction [%s]", record.TxID)
		}
		if record.TxID != "" {
			if err := wb.Set(txIDKey(channelID, generation, record.TxID), key); err != nil {
				return errors.Wrapf(err, "could not store transaction [%s]", record.TxID)
			}
		}
	}

	return errors.Wrap(wb.Flush(), "could not flush transactions")
}

// deleteGenerations removes the records of the channel whose generation matches. Failures
// leave unreachable records behind and are only logged.
func (s *Store) deleteGenerations(channelID string, match func(generation uint64) bool) {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(opts)
		defer it.Close()

		for _, col := range []byte{colRecord, colTxID} {
			prefix := channelPrefix(col, channelID)
			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				key := it.Item().KeyCopy(nil)
				if len(key) < len(prefix)+8 || !match(binary.BigEndian.Uint64(key[len(prefix):])) {
					continue
				}
				if err := wb.Delete(key); err != nil {
					return errors.Wrapf(err, "could not delete key %x", key)
				}
			}
		}
		return nil
	})
	if err == nil {
		err = wb.Flush()
	}
	if err != nil {
		logger.Warnf("could not delete superseded index of channel [%s]: %s", channelID, err)
	}
}

// LoadIndex returns the stored index of the channel in ledger order. A channel that was never
// indexed has an empty index.
func (s *Store) LoadIndex(channelID string) ([]ledger.TransactionRecord, error) {
	records := []ledger.TransactionRecord{}

	err := s.db.View(func(txn *badger.Txn) error {
		cur, ok, err := getCurrent(txn, channelID)
		if err != nil || !ok {
			return err
		}

		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := generationPrefix(colRecord, channelID, cur.generation)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var record ledger.TransactionRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			}); err != nil {
				return errors.Wrapf(err, "could not read record %x", it.Item().Key())
			}
			records = append(records, record)
		}
		return nil
	})
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to load index of channel [%s]", channelID)
	}

	return records, nil
}

// Size returns the number of records in the stored index of the channel
func (s *Store) Size(channelID string) (uint64, error) {
	var size uint64
	err := s.db.View(func(txn *badger.Txn) error {
		cur, _, err := getCurrent(txn, channelID)
		size = cur.size
		return err
	})
	return size, errors.WithMessagef(err, "could not read index size of channel [%s]", channelID)
}

// Transaction returns the stored record of the given transaction
func (s *Store) Transaction(channelID, txID string) (*ledger.TransactionRecord, error) {
	record := &ledger.TransactionRecord{}
	err := s.db.View(func(txn *badger.Txn) error {
		cur, ok, err := getCurrent(txn, channelID)
		if err != nil {
			return err
		}
		if !ok {
			return badger.ErrKeyNotFound
		}

		item, err := txn.Get(txIDKey(channelID, cur.generation, txID))
		if err != nil {
			return err
		}
		key, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}

		item, err = txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, record)
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, errors.Wrapf(ErrNotFound, "transaction [%s] on channel [%s]", txID, channelID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "could not read transaction [%s]", txID)
	}
	return record, nil
}

func getCurrent(txn *badger.Txn, channelID string) (current, bool, error) {
	item, err := txn.Get(channelPrefix(colCurrent, channelID))
	if err == badger.ErrKeyNotFound {
		return current{}, false, nil
	}
	if err != nil {
		return current{}, false, err
	}

	var cur current
	err = item.Value(func(val []byte) error {
		if len(val) != 16 {
			return errors.Errorf("invalid current generation of length %d", len(val))
		}
		cur.generation = binary.BigEndian.Uint64(val)
		cur.size = binary.BigEndian.Uint64(val[8:])
		return nil
	})
	return cur, err == nil, err
}

func encodeCurrent(cur current) []byte {
	value := binary.BigEndian.AppendUint64(make([]byte, 0, 16), cur.generation)
	return binary.BigEndian.AppendUint64(value, cur.size)
}

// channelPrefix is the collection byte followed by the length-prefixed channel name
func channelPrefix(col byte, channelID string) []byte {
	key := make([]byte, 0, 3+len(channelID))
	key = append(key, col)
	key = binary.BigEndian.AppendUint16(key, uint16(len(channelID)))
	return append(key, channelID...)
}

func generationPrefix(col byte, channelID string, generation uint64) []byte {
	return binary.BigEndian.AppendUint64(channelPrefix(col, channelID), generation)
}

func recordKey(channelID string, generation, blockNumber uint64, position int) []byte {
	key := generationPrefix(colRecord, channelID, generation)
	key = binary.BigEndian.AppendUint64(key, blockNumber)
	return binary.BigEndian.AppendUint32(key, uint32(position))
}

func txIDKey(channelID string, generation uint64, txID string) []byte {
	return append(generationPrefix(colTxID, channelID, generation), txID...)
}

type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{})   { logger.Errorf(format, args...) }
func (badgerLogger) Warningf(format string, args ...interface{}) { logger.Warnf(format, args...) }
func (badgerLogger) Infof(format string, args ...interface{})    { logger.Debugf(format, args...) }
func (badgerLogger) Debugf(format string, args ...interface{})   { logger.Debugf(format, args...) }
