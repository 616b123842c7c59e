// Package memory implementa el registro de productos y el libro de movimientos en memoria.
// Sirve para STORE_DRIVER=memory y para las pruebas de los casos de uso.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

var errReadOnly = errors.New("memory: escritura en transacción de solo lectura")

var _ inventory.TxRunner = (*Store)(nil)

type data struct {
	products  map[string]*entity.Product // los valores no se modifican en sitio: se reemplazan
	nameIndex map[string]string          // NameKey -> ID
	movements []*entity.StockMovement
	keyIndex  map[string]int // IdempotencyKey -> posición en movements

	journal *[]func() // deshacer de la transacción en curso; nil fuera de Run
}

func newData() *data {
	return &data{
		products:  make(map[string]*entity.Product),
		nameIndex: make(map[string]string),
		keyIndex:  make(map[string]int),
	}
}

func (d *data) record(undo func()) {
	if d.journal != nil {
		*d.journal = append(*d.journal, undo)
	}
}

func (d *data) putProduct(p *entity.Product) {
	prev, had := d.products[p.ID]
	d.products[p.ID] = p
	d.record(func() {
		if had {
			d.products[p.ID] = prev
		} else {
			delete(d.products, p.ID)
		}
	})
}

func (d *data) setName(key, id string) {
	prev, had := d.nameIndex[key]
	d.nameIndex[key] = id
	d.record(func() {
		if had {
			d.nameIndex[key] = prev
		} else {
			delete(d.nameIndex, key)
		}
	})
}

func (d *data) deleteName(key string) {
	prev, had := d.nameIndex[key]
	if !had {
		return
	}
	delete(d.nameIndex, key)
	d.record(func() { d.nameIndex[key] = prev })
}

func (d *data) appendMovement(m *entity.StockMovement) {
	n := len(d.movements)
	d.movements = append(d.movements, m)
	if m.IdempotencyKey != "" {
		d.keyIndex[m.IdempotencyKey] = n
	}
	d.record(func() {
		d.movements[n] = nil
		d.movements = d.movements[:n]
		if m.IdempotencyKey != "" {
			delete(d.keyIndex, m.IdempotencyKey)
		}
	})
}

// Store guarda todo bajo un único RWMutex. Las transacciones de escritura se serializan.
type Store struct {
	mu  sync.RWMutex
	d   *data
	now func() time.Time
}

// New crea un store vacío.
func New() *Store {
	return &Store{d: newData(), now: time.Now}
}

// Products devuelve el repositorio de productos fuera de transacción.
func (s *Store) Products() *ProductRepo {
	return &ProductRepo{view{s: s}}
}

// Movements devuelve el repositorio de movimientos fuera de transacción.
func (s *Store) Movements() *MovementRepo {
	return &MovementRepo{view{s: s}}
}

// Run ejecuta fn con el lock de escritura tomado. Cada cambio anota cómo deshacerse; si fn falla
// (o hace panic) se deshace en orden inverso, así el costo es proporcional a lo modificado.
func (s *Store) Run(ctx context.Context, fn inventory.TxFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var journal []func()
	s.d.journal = &journal
	committed := false
	defer func() {
		s.d.journal = nil
		if committed {
			return
		}
		for i := len(journal) - 1; i >= 0; i-- {
			journal[i]()
		}
	}()

	v := view{s: s, tx: s.d}
	if err := fn(&ProductRepo{v}, &MovementRepo{v}); err != nil {
		return err
	}
	committed = true
	return nil
}

// RunReadOnly ejecuta fn con el estado congelado (bloqueo de lectura durante toda la función).
func (s *Store) RunReadOnly(ctx context.Context, fn inventory.TxFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := view{s: s, tx: s.d, readOnly: true}
	return fn(&ProductRepo{v}, &MovementRepo{v})
}

// view resuelve sobre qué datos opera un repositorio: los de la transacción en curso
// (el lock ya lo tiene Run/RunReadOnly) o el estado compartido con su propio lock.
type view struct {
	s        *Store
	tx       *data
	readOnly bool
}

func (v view) read(fn func(d *data)) {
	if v.tx != nil {
		fn(v.tx)
		return
	}
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	fn(v.s.d)
}

func (v view) write(fn func(d *data) error) error {
	if v.readOnly {
		return errReadOnly
	}
	if v.tx != nil {
		return fn(v.tx)
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return fn(v.s.d)
}
