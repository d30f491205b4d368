package refdata

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/labtriage/internal/core/domain"
)

// stubSource returns the queued results in order.
type stubSource struct {
	mu   sync.Mutex
	data []*domain.ReferenceData
	errs []error
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Load(context.Context) (*domain.ReferenceData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.data[0], s.errs[0]
	if len(s.data) > 1 {
		s.data, s.errs = s.data[1:], s.errs[1:]
	}
	return d, err
}

func TestNewManager_Embedded(t *testing.T) {
	m, err := NewManager(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "embedded", m.Source().Name())
	require.NotNil(t, m.Current())
	assert.NotEmpty(t, m.Current().Version())
}

func TestNewManager_InvalidData(t *testing.T) {
	bad := validData()
	bad.Version = ""
	src := &stubSource{data: []*domain.ReferenceData{bad}, errs: []error{nil}}

	_, err := NewManager(context.Background(), src)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

func TestManager_ReloadSwaps(t *testing.T) {
	v2 := validData()
	v2.Version = "v2"
	src := &stubSource{
		data: []*domain.ReferenceData{validData(), v2},
		errs: []error{nil, nil},
	}
	m, err := NewManager(context.Background(), src)
	require.NoError(t, err)
	first := m.Current()
	assert.Equal(t, "test", first.Version())

	var seen []string
	m.OnReload(func(s *Snapshot) { seen = append(seen, s.Version()) })

	s, err := m.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v2", s.Version())
	assert.Same(t, s, m.Current())
	assert.Equal(t, []string{"v2"}, seen)

	// Holders of the old snapshot are unaffected.
	assert.Equal(t, "test", first.Version())
}

func TestManager_ReloadFailureKeepsSnapshot(t *testing.T) {
	bad := validData()
	bad.Markers[0].Kind = "text"
	src := &stubSource{
		data: []*domain.ReferenceData{validData(), nil, bad},
		errs: []error{nil, errors.New("disk gone"), nil},
	}
	m, err := NewManager(context.Background(), src)
	require.NoError(t, err)
	before := m.Current()

	_, err = m.Reload(context.Background())
	assert.ErrorContains(t, err, "disk gone")
	assert.Same(t, before, m.Current())

	_, err = m.Reload(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
	assert.Same(t, before, m.Current())
}

func TestManager_ConcurrentReads(t *testing.T) {
	m, err := NewManager(context.Background(), nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s := m.Current()
				_, ok := s.Vocabulary.Lookup("glucosa")
				assert.True(t, ok)
			}
		}()
	}
	for i := 0; i < 5; i++ {
		_, err := m.Reload(context.Background())
		require.NoError(t, err)
	}
	wg.Wait()
}

func TestNewStaticManager(t *testing.T) {
	s, err := Build(validData())
	require.NoError(t, err)

	m := NewStaticManager(s)
	assert.Same(t, s, m.Current())
}
