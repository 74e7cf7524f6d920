package harvest

import (
	"github.com/dgraph-io/badger/v2"
)

type keyType byte

const (
	articleKey keyType = iota + 1
)

func cacheKey(t keyType, k string) []byte {
	key := make([]byte, 0, len(k)+1)
	key = append(key, byte(t))
	return append(key, []byte(k)...)
}

// Cache stores extracted article text keyed by URL, so repeated harvest
// runs do not refetch pages.
type Cache struct {
	db *badger.DB
}

// OpenCache opens a badger-backed cache at path. With inMemory set the
// cache lives only for the process (used by tests and --no-cache runs).
func OpenCache(path string, inMemory bool) (*Cache, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Cache{db: db}, nil
}

// GetArticle returns the cached text for url, if present.
func (c *Cache) GetArticle(url string) (string, bool, error) {
	var text string
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(cacheKey(articleKey, url))
		if err != nil {
			return err
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		text = string(val)
		return nil
	})
	if err == badger.ErrKeyNotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return text, true, nil
}

// PutArticle stores the extracted text for url.
func (c *Cache) PutArticle(url, text string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(cacheKey(articleKey, url), []byte(text))
	})
}

func (c *Cache) Close() error {
	return c.db.Close()
}
