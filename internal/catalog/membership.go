package catalog

// Membership is a set of composite keys. An index is populated once per
// extraction batch, before any lineage filtering starts, and is read
// concurrently afterwards. Implementations need not synchronize Add against
// Contains; the batch barrier guarantees the phases never overlap.
type Membership interface {
	Add(key string) error
	Contains(key string) (bool, error)
	Len() (int, error)
	Close() error
}

// memorySet is the in-memory Membership for small and medium snapshots.
type memorySet struct {
	keys map[string]struct{}
}

// NewMemorySet returns an in-memory membership set.
func NewMemorySet() Membership {
	return &memorySet{keys: make(map[string]struct{})}
}

func (s *memorySet) Add(key string) error {
	s.keys[key] = struct{}{}
	return nil
}

func (s *memorySet) Contains(key string) (bool, error) {
	_, ok := s.keys[key]
	return ok, nil
}

func (s *memorySet) Len() (int, error) {
	return len(s.keys), nil
}

func (s *memorySet) Close() error {
	return nil
}
