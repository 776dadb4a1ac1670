package repos

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Store is the storage client handed to services. It owns the connection
// pool; main opens it at startup and closes it on shutdown.
type Store struct {
	db *sqlx.DB

	Products   *ProductRepo
	Categories *CategoryRepo
	Inventory  *InventoryRepo
	Carts      *CartRepo
	Orders     *OrderRepo
	Users      *UserRepo
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{
		db:         db,
		Products:   NewProductRepo(db),
		Categories: NewCategoryRepo(db),
		Inventory:  NewInventoryRepo(db),
		Carts:      NewCartRepo(db),
		Orders:     NewOrderRepo(db),
		Users:      NewUserRepo(db),
	}
}

// Open is OpenDB followed by NewStore.
func Open(dsn string) (*Store, error) {
	db, err := OpenDB(dsn)
	if err != nil {
		return nil, err
	}
	return NewStore(db), nil
}

func (s *Store) DB() *sqlx.DB { return s.db }

func (s *Store) Ping(ctx context.Context) error {
	return storageErr(s.db.PingContext(ctx))
}

func (s *Store) Close() error { return s.db.Close() }

// Tx holds repos bound to a single transaction.
type Tx struct {
	Products  *ProductRepo
	Inventory *InventoryRepo
	Carts     *CartRepo
	Orders    *OrderRepo
}

// InTx runs fn inside one transaction. The transaction commits only when fn
// returns nil; any error, panic or context cancellation rolls it back. Code
// inside fn must use tx and never the Store's own repos.
func (s *Store) InTx(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return storageErr(err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&Tx{
		Products:  NewProductRepo(tx),
		Inventory: NewInventoryRepo(tx),
		Carts:     NewCartRepo(tx),
		Orders:    NewOrderRepo(tx),
	}); err != nil {
		return err
	}
	return storageErr(tx.Commit())
}
