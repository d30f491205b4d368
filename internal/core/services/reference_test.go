package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/labtriage/internal/core/domain"
	"github.com/custodia-labs/labtriage/internal/core/ports/driven"
	"github.com/custodia-labs/labtriage/internal/refdata"
)

func newReferenceService(t *testing.T, source driven.ReferenceSource) *ReferenceService {
	t.Helper()
	refs, err := refdata.NewManager(context.Background(), source)
	require.NoError(t, err)
	return NewReferenceService(refs)
}

func TestReferenceService_Lookups(t *testing.T) {
	svc := newReferenceService(t, nil)

	assert.NotEmpty(t, svc.Version())

	m, err := svc.Marker("GLU")
	require.NoError(t, err)
	assert.Equal(t, "Glucosa", m.Name)

	m, err = svc.LookupAlias("glicemia")
	require.NoError(t, err)
	assert.Equal(t, "GLU", m.Code)

	_, err = svc.Marker("NOPE")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.LookupAlias("unobtainium")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.NotEmpty(t, svc.Markers())
	assert.NotEmpty(t, svc.Thresholds())
}

func TestReferenceService_MarkerIsCopy(t *testing.T) {
	svc := newReferenceService(t, nil)

	m, err := svc.Marker("GLU")
	require.NoError(t, err)
	require.NotEmpty(t, m.Aliases)
	m.Name = "changed"
	m.Aliases[0] = "changed"

	again, err := svc.Marker("GLU")
	require.NoError(t, err)
	assert.Equal(t, "Glucosa", again.Name)
	assert.NotEqual(t, "changed", again.Aliases[0])
}

type flakySource struct {
	data *domain.ReferenceData
	err  error
}

func (s *flakySource) Name() string { return "flaky" }

func (s *flakySource) Load(context.Context) (*domain.ReferenceData, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.data, nil
}

func TestReferenceService_Reload(t *testing.T) {
	data, err := refdata.Default()
	require.NoError(t, err)
	src := &flakySource{data: data}
	svc := newReferenceService(t, src)
	before := svc.Version()

	next, err := refdata.Default()
	require.NoError(t, err)
	next.Version = "next"
	src.data = next
	require.NoError(t, svc.Reload(context.Background()))
	assert.Equal(t, "next", svc.Version())

	src.err = errors.New("disk gone")
	assert.Error(t, svc.Reload(context.Background()))
	assert.Equal(t, "next", svc.Version())
	assert.NotEqual(t, before, svc.Version())
}
