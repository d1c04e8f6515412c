package gateway

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Memory is an in-process Gateway used by tests and local development.
// Documents are stored bson-normalized so that reads decode exactly like
// rows coming back from the remote store.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]bson.M
	subs map[*memorySubscription]struct{}
}

func NewMemory() *Memory {
	return &Memory{
		data: make(map[string][]bson.M),
		subs: make(map[*memorySubscription]struct{}),
	}
}

func (m *Memory) Query(_ context.Context, relation string, q Query, out any) error {
	m.mu.RLock()
	var matched []bson.M
	for _, doc := range m.data[relation] {
		if matchFilter(doc, q.Filter) {
			matched = append(matched, cloneDoc(doc))
		}
	}
	m.mu.RUnlock()

	if q.SortBy != "" {
		sortDocs(matched, q.SortBy, q.SortDesc)
	}
	if q.Limit > 0 && int64(len(matched)) > q.Limit {
		matched = matched[:q.Limit]
	}

	return decodeDocs(matched, out)
}

func (m *Memory) Insert(_ context.Context, relation string, doc any) error {
	normalized, err := normalizeDoc(doc)
	if err != nil {
		return err
	}
	if id, ok := normalized["_id"].(primitive.ObjectID); !ok || id.IsZero() {
		normalized["_id"] = primitive.NewObjectID()
	}

	m.mu.Lock()
	m.data[relation] = append(m.data[relation], normalized)
	m.emitLocked(EventInsert, relation, normalized)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Update(_ context.Context, relation string, filter Filter, set map[string]any) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	for _, doc := range m.data[relation] {
		if !matchFilter(doc, filter) {
			continue
		}
		for k, v := range set {
			doc[k] = normalizeValue(v)
		}
		count++
		m.emitLocked(EventUpdate, relation, doc)
	}
	return count, nil
}

func (m *Memory) Delete(_ context.Context, relation string, filter Filter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var kept []bson.M
	var count int64
	for _, doc := range m.data[relation] {
		if matchFilter(doc, filter) {
			count++
			m.emitLocked(EventDelete, relation, doc)
			continue
		}
		kept = append(kept, doc)
	}
	m.data[relation] = kept
	return count, nil
}

func (m *Memory) Subscribe(_ context.Context, relation string, filter Filter, kinds ...EventKind) (Subscription, error) {
	if len(kinds) == 0 {
		kinds = []EventKind{EventInsert, EventUpdate, EventDelete}
	}
	sub := &memorySubscription{
		owner:    m,
		relation: relation,
		filter:   filter,
		kinds:    kinds,
		events:   make(chan Event, 256),
	}
	m.mu.Lock()
	m.subs[sub] = struct{}{}
	m.mu.Unlock()
	return sub, nil
}

func (m *Memory) emitLocked(kind EventKind, relation string, doc bson.M) {
	snapshot := cloneDoc(doc)
	for sub := range m.subs {
		sub.deliver(kind, relation, snapshot)
	}
}

// cloneDoc snapshots a stored document before it leaves the lock. Update
// mutates stored documents in place, so readers and subscribers must never
// share map state with the store. A top-level copy is enough: Update only
// replaces top-level values, it never mutates nested ones.
func cloneDoc(doc bson.M) bson.M {
	out := make(bson.M, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}

type memorySubscription struct {
	owner    *Memory
	relation string
	filter   Filter
	kinds    []EventKind

	mu     sync.Mutex
	closed bool
	events chan Event
}

func (s *memorySubscription) Events() <-chan Event { return s.events }

func (s *memorySubscription) Close() {
	s.owner.mu.Lock()
	delete(s.owner.subs, s)
	s.owner.mu.Unlock()

	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
	s.mu.Unlock()
}

func (s *memorySubscription) deliver(kind EventKind, relation string, doc bson.M) {
	if relation != s.relation {
		return
	}
	wanted := false
	for _, k := range s.kinds {
		if k == kind {
			wanted = true
			break
		}
	}
	if !wanted || !matchFilter(doc, s.filter) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.events <- Event{Kind: kind, Relation: relation, Doc: doc}:
	default:
		// Slow consumer; drop rather than block the writer.
	}
}

func normalizeDoc(doc any) (bson.M, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func normalizeValue(v any) any {
	wrapped, err := normalizeDoc(bson.M{"v": v})
	if err != nil {
		return v
	}
	return wrapped["v"]
}

func decodeDocs(docs []bson.M, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("query output must be a pointer to a slice, got %T", out)
	}
	slice := reflect.MakeSlice(rv.Elem().Type(), 0, len(docs))
	elemType := rv.Elem().Type().Elem()
	for _, doc := range docs {
		raw, err := bson.Marshal(doc)
		if err != nil {
			return err
		}
		elem := reflect.New(elemType)
		if err := bson.Unmarshal(raw, elem.Interface()); err != nil {
			return err
		}
		slice = reflect.Append(slice, elem.Elem())
	}
	rv.Elem().Set(slice)
	return nil
}

func matchFilter(doc bson.M, f Filter) bool {
	for field, want := range f {
		got := doc[field]
		switch cond := want.(type) {
		case Filter:
			if !matchOps(got, cond) {
				return false
			}
		case map[string]any:
			if !matchOps(got, cond) {
				return false
			}
		default:
			if !looseEqual(got, want) {
				return false
			}
		}
	}
	return true
}

func matchOps(got any, ops map[string]any) bool {
	for op, arg := range ops {
		switch op {
		case "$ne":
			if looseEqual(got, arg) {
				return false
			}
		case "$in":
			av := reflect.ValueOf(arg)
			if av.Kind() != reflect.Slice {
				return false
			}
			found := false
			for i := 0; i < av.Len(); i++ {
				if looseEqual(got, av.Index(i).Interface()) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// looseEqual compares a stored bson value with a caller-supplied filter
// value, tolerating the type drift bson round-tripping introduces
// (typed strings, int widths, time.Time vs primitive.DateTime).
func looseEqual(a, b any) bool {
	if aid, ok := a.(primitive.ObjectID); ok {
		bid, ok := b.(primitive.ObjectID)
		return ok && aid == bid
	}
	if at, ok := asTime(a); ok {
		bt, ok := asTime(b)
		return ok && at.Equal(bt)
	}

	av, bv := reflect.ValueOf(a), reflect.ValueOf(b)
	if av.IsValid() && bv.IsValid() {
		switch {
		case av.Kind() == reflect.String && bv.Kind() == reflect.String:
			return av.String() == bv.String()
		case isNumeric(av) && isNumeric(bv):
			return toFloat(av) == toFloat(bv)
		case av.Kind() == reflect.Bool && bv.Kind() == reflect.Bool:
			return av.Bool() == bv.Bool()
		}
	}
	return reflect.DeepEqual(a, b)
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case primitive.DateTime:
		return t.Time(), true
	}
	return time.Time{}, false
}

func isNumeric(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func toFloat(v reflect.Value) float64 {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	default:
		return v.Float()
	}
}

func sortDocs(docs []bson.M, field string, desc bool) {
	sort.SliceStable(docs, func(i, j int) bool {
		less := lessValue(docs[i][field], docs[j][field])
		if desc {
			return lessValue(docs[j][field], docs[i][field])
		}
		return less
	})
}

func lessValue(a, b any) bool {
	if at, ok := asTime(a); ok {
		if bt, ok := asTime(b); ok {
			return at.Before(bt)
		}
	}
	av, bv := reflect.ValueOf(a), reflect.ValueOf(b)
	if av.IsValid() && bv.IsValid() {
		switch {
		case isNumeric(av) && isNumeric(bv):
			return toFloat(av) < toFloat(bv)
		case av.Kind() == reflect.String && bv.Kind() == reflect.String:
			return av.String() < bv.String()
		}
	}
	if aid, ok := a.(primitive.ObjectID); ok {
		if bid, ok := b.(primitive.ObjectID); ok {
			return aid.Hex() < bid.Hex()
		}
	}
	return false
}
