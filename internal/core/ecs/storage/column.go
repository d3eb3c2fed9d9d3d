package storage

import (
	"fmt"
	"iter"
	"reflect"

	"muscle-dreamer/internal/core/ecs"
)

// Column is one component type's Structure-of-Arrays storage: one dense
// slice per schema field (SPEC_FULL.md §3, §4.2), a sparse set mapping
// entity index to dense slot, and a reverse slot→handle map used to
// validate the generation of whatever is found at a slot.
//
// Removal is swap-with-last (the dense arrays stay packed at all times),
// which satisfies the spec's "swap-or-tombstone" choice without needing a
// separate free-slot stack: SparseSet.Remove already reports which row
// moved, and the column copies that row's field values into the vacated
// slot.
type Column struct {
	schema ecs.Schema
	typeID ecs.TypeID

	sparse  *SparseSet
	reverse []ecs.EntityID

	fields     map[string]reflect.Value // addressable slices, len == capacity
	fieldOrder []string

	capacity int
	reallocs int64
}

func goType(kind ecs.ScalarKind) reflect.Type {
	switch kind {
	case ecs.KindF32:
		return reflect.TypeOf(float32(0))
	case ecs.KindI32:
		return reflect.TypeOf(int32(0))
	case ecs.KindU32:
		return reflect.TypeOf(uint32(0))
	case ecs.KindU8:
		return reflect.TypeOf(uint8(0))
	case ecs.KindBool:
		return reflect.TypeOf(false)
	case ecs.KindSmallString:
		return reflect.TypeOf("")
	case ecs.KindOpaqueRef:
		return reflect.TypeOf((*any)(nil)).Elem()
	default:
		panic(fmt.Sprintf("storage: unknown scalar kind %d", kind))
	}
}

// NewColumn allocates a column with the given schema and initial capacity.
func NewColumn(typeID ecs.TypeID, schema ecs.Schema, initialCapacity int) *Column {
	if initialCapacity < 1 {
		initialCapacity = 1
	}
	c := &Column{
		schema:   schema,
		typeID:   typeID,
		sparse:   NewSparseSet(),
		reverse:  make([]ecs.EntityID, initialCapacity),
		fields:   make(map[string]reflect.Value, len(schema.Fields)),
		capacity: initialCapacity,
	}
	for _, f := range schema.Fields {
		sliceType := reflect.SliceOf(goType(f.Kind))
		c.fields[f.Name] = reflect.MakeSlice(sliceType, initialCapacity, initialCapacity)
		c.fieldOrder = append(c.fieldOrder, f.Name)
	}
	return c
}

func (c *Column) TypeID() ecs.TypeID { return c.typeID }

func (c *Column) Has(e ecs.EntityID) bool { return c.sparse.Contains(e.Index()) }

func (c *Column) Size() int { return c.sparse.Size() }

func (c *Column) Capacity() int { return c.capacity }

func (c *Column) Reallocs() int64 { return c.reallocs }

// LoadFactor is Size()/Capacity(); observable, never auto-remediated
// (SPEC_FULL.md §3 invariant: "a load factor > 80% is observable but not
// automatically remediated").
func (c *Column) LoadFactor() float64 {
	if c.capacity == 0 {
		return 0
	}
	return float64(c.sparse.Size()) / float64(c.capacity)
}

// grow doubles capacity, reallocating and copying every dense field array.
func (c *Column) grow() {
	newCap := c.capacity * 2
	if newCap == 0 {
		newCap = 1
	}
	newReverse := make([]ecs.EntityID, newCap)
	copy(newReverse, c.reverse)
	c.reverse = newReverse

	for name, old := range c.fields {
		newSlice := reflect.MakeSlice(old.Type(), newCap, newCap)
		reflect.Copy(newSlice, old)
		c.fields[name] = newSlice
	}
	c.capacity = newCap
	c.reallocs++
}

// Add attaches the component to e with the given field values (by schema
// field name). On a new row, unspecified fields keep their zero value. If e
// already has this component the given fields are overwritten in place and
// unspecified ones keep their previous values (ReplaceExisting policy;
// the caller — World.AddComponent — enforces RejectExisting instead when
// configured).
func (c *Column) Add(e ecs.EntityID, values map[string]any) error {
	if slot, ok := c.sparse.Slot(e.Index()); ok {
		c.reverse[slot] = e
		return c.setRow(slot, values)
	}
	if c.sparse.Size() >= c.capacity {
		c.grow()
	}
	slot, err := c.sparse.Add(e.Index())
	if err != nil {
		return err
	}
	c.reverse[slot] = e
	return c.setRow(slot, values)
}

func (c *Column) setRow(slot int, values map[string]any) error {
	for name, v := range values {
		field, ok := c.fields[name]
		if !ok {
			return fmt.Errorf("storage: column %s has no field %q", c.schema.Name, name)
		}
		field.Index(slot).Set(reflect.ValueOf(v))
	}
	return nil
}

// Remove detaches the component from e, swapping the last live row into the
// vacated slot and zeroing the now-unused tail row.
func (c *Column) Remove(e ecs.EntityID) error {
	movedIndex, movedSlot, vacated, ok, err := c.sparse.Remove(e.Index())
	if err != nil {
		return err
	}
	if ok {
		c.reverse[vacated] = c.reverse[movedSlot]
		for _, name := range c.fieldOrder {
			field := c.fields[name]
			field.Index(vacated).Set(field.Index(movedSlot))
		}
		_ = movedIndex
	}
	last := c.sparse.Size() // the row that is now logically dead
	c.reverse[last] = ecs.InvalidEntityID
	for _, name := range c.fieldOrder {
		field := c.fields[name]
		field.Index(last).Set(reflect.Zero(field.Type().Elem()))
	}
	return nil
}

// View is a read/write handle onto one entity's row in a column.
type View struct {
	col  *Column
	slot int
}

// Get returns a view onto e's row, or ok=false if the component is absent.
// The caller must additionally confirm e's generation against the slot's
// reverse-mapped handle; the World does this before calling Get so a column
// never needs entity-manager access of its own.
func (c *Column) Get(e ecs.EntityID) (View, bool) {
	slot, ok := c.sparse.Slot(e.Index())
	if !ok || c.reverse[slot] != e {
		return View{}, false
	}
	return View{col: c, slot: slot}, true
}

func (v View) F32(field string) float32     { return getField[float32](v.col, v.slot, field) }
func (v View) SetF32(field string, x float32) { setField(v.col, v.slot, field, x) }
func (v View) I32(field string) int32       { return getField[int32](v.col, v.slot, field) }
func (v View) SetI32(field string, x int32) { setField(v.col, v.slot, field, x) }
func (v View) U32(field string) uint32      { return getField[uint32](v.col, v.slot, field) }
func (v View) SetU32(field string, x uint32) { setField(v.col, v.slot, field, x) }
func (v View) U8(field string) uint8        { return getField[uint8](v.col, v.slot, field) }
func (v View) SetU8(field string, x uint8)  { setField(v.col, v.slot, field, x) }
func (v View) Bool(field string) bool       { return getField[bool](v.col, v.slot, field) }
func (v View) SetBool(field string, x bool) { setField(v.col, v.slot, field, x) }
func (v View) String(field string) string   { return getField[string](v.col, v.slot, field) }
func (v View) SetString(field string, x string) { setField(v.col, v.slot, field, x) }
func (v View) Ref(field string) any         { return getField[any](v.col, v.slot, field) }
func (v View) SetRef(field string, x any)   { setField(v.col, v.slot, field, x) }

func getField[T any](c *Column, slot int, name string) T {
	field, ok := c.fields[name]
	if !ok {
		var zero T
		return zero
	}
	return field.Index(slot).Interface().(T)
}

func setField[T any](c *Column, slot int, name string, x T) {
	field, ok := c.fields[name]
	if !ok {
		return
	}
	field.Index(slot).Set(reflect.ValueOf(x))
}

// All is a Go 1.23 range-over-func iterator yielding every live (entity,
// view) pair in slot order — the "dense, cache-friendly" order SPEC_FULL.md
// §4.2's Iter operation calls for.
func (c *Column) All() iter.Seq2[ecs.EntityID, View] {
	return func(yield func(ecs.EntityID, View) bool) {
		for slot := 0; slot < c.sparse.Size(); slot++ {
			if !yield(c.reverse[slot], View{col: c, slot: slot}) {
				return
			}
		}
	}
}

// Entities returns the live entity handles in slot order, used by the query
// engine when this column is chosen as the driver.
func (c *Column) Entities() []ecs.EntityID {
	out := make([]ecs.EntityID, c.sparse.Size())
	copy(out, c.reverse[:c.sparse.Size()])
	return out
}
