package state

import "github.com/Faultbox/xviewer/pkg/wexbim"

// Target selects the products a state or style change applies to.
type Target interface {
	each(t *Table, fn func(slot int))
}

// ID targets a single product.
type ID int32

func (id ID) each(t *Table, fn func(slot int)) {
	if slot, ok := t.index[int32(id)]; ok {
		fn(slot)
	}
}

// IDs targets a set of products. Unknown IDs are skipped.
type IDs []int32

func (ids IDs) each(t *Table, fn func(slot int)) {
	for _, id := range ids {
		if slot, ok := t.index[id]; ok {
			fn(slot)
		}
	}
}

// Type targets every product of a product type.
type Type wexbim.ProductType

func (typ Type) each(t *Table, fn func(slot int)) {
	for slot, pt := range t.types {
		if pt == wexbim.ProductType(typ) {
			fn(slot)
		}
	}
}
