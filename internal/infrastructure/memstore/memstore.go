// Package memstore implementa todos los puertos de persistencia en memoria con
// transacciones serializables: un escritor a la vez, copia del estado al iniciar y
// sustitución al confirmar. Lo usan las pruebas y DB_DRIVER=memory.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/jhoicas/ledger-api/internal/application/aggregate"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/ledger"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
)

var _ aggregate.TxRunner = (*DB)(nil)

type state struct {
	users      map[int64]entity.User
	customers  map[int64]entity.Customer
	categories map[int64]entity.Category
	products   map[int64]entity.Product
	logs       map[int64]entity.InventoryLog
	sales      map[int64]entity.Sale
	details    map[int64]entity.SalesDetail
	seq        map[ledger.Table]int64
}

func newState() *state {
	return &state{
		users:      map[int64]entity.User{},
		customers:  map[int64]entity.Customer{},
		categories: map[int64]entity.Category{},
		products:   map[int64]entity.Product{},
		logs:       map[int64]entity.InventoryLog{},
		sales:      map[int64]entity.Sale{},
		details:    map[int64]entity.SalesDetail{},
		seq:        map[ledger.Table]int64{},
	}
}

func cloneMap[V any](m map[int64]V) map[int64]V {
	out := make(map[int64]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// clone copia superficial de los mapas: las entidades se guardan por valor y los
// punteros a id nunca se mutan en sitio (ver cloneID).
func (s *state) clone() *state {
	seq := make(map[ledger.Table]int64, len(s.seq))
	for k, v := range s.seq {
		seq[k] = v
	}
	return &state{
		users:      cloneMap(s.users),
		customers:  cloneMap(s.customers),
		categories: cloneMap(s.categories),
		products:   cloneMap(s.products),
		logs:       cloneMap(s.logs),
		sales:      cloneMap(s.sales),
		details:    cloneMap(s.details),
		seq:        seq,
	}
}

// nextID emula BIGSERIAL.
func (s *state) nextID(t ledger.Table) int64 {
	s.seq[t]++
	return s.seq[t]
}

// bumpSeq evita que un id fijado a mano (ChangeKey) choque con el siguiente.
func (s *state) bumpSeq(t ledger.Table, id int64) {
	if id > s.seq[t] {
		s.seq[t] = id
	}
}

// DB almacén en memoria. El cero no es usable: construir con New.
type DB struct {
	mu sync.Mutex
	st *state
}

// New crea un almacén vacío.
func New() *DB {
	return &DB{st: newState()}
}

// Store repositorios fuera de transacción: cada llamada toma el candado por su cuenta.
// No usarlo dentro de Run (se bloquearía): usar el Store que recibe fn.
func (db *DB) Store() repository.Store {
	return newStore(&view{db: db})
}

// Run ejecuta fn sobre una copia del estado y la confirma solo si fn devuelve nil
// y el contexto sigue vivo.
func (db *DB) Run(ctx context.Context, fn func(s repository.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	work := db.st.clone()
	if err := fn(newStore(&view{db: db, st: work, inTx: true})); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	db.st = work
	return nil
}

// Reports repositorio de reportes (lectura, fuera de transacción).
func (db *DB) Reports() repository.ReportRepository {
	return &reportRepo{v: &view{db: db}}
}

type view struct {
	db   *DB
	st   *state
	inTx bool
}

func (v *view) do(fn func(st *state) error) error {
	if v.inTx {
		return fn(v.st)
	}
	v.db.mu.Lock()
	defer v.db.mu.Unlock()
	return fn(v.db.st)
}

func newStore(v *view) repository.Store {
	return repository.Store{
		Users:      &userRepo{v: v},
		Customers:  &customerRepo{v: v},
		Categories: &categoryRepo{v: v},
		Products:   &productRepo{v: v},
		Logs:       &logRepo{v: v},
		Sales:      &saleRepo{v: v},
		Details:    &detailRepo{v: v},
		References: &referenceRepo{v: v},
	}
}

func cloneID(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func sameID(p *int64, id int64) bool { return p != nil && *p == id }

func sortedKeys[V any](m map[int64]V) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
