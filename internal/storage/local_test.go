package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type LocalStateSuite struct {
	suite.Suite
	state *LocalState
	ctx   context.Context
}

func (s *LocalStateSuite) SetupTest() {
	state, err := Open(filepath.Join(s.T().TempDir(), "state.db"))
	require.NoError(s.T(), err, "failed to open local state")
	s.state = state
	s.ctx = context.Background()
}

func (s *LocalStateSuite) TearDownTest() {
	if s.state != nil {
		s.state.Close()
	}
}

func (s *LocalStateSuite) TestGetMissingKey() {
	_, err := s.state.Get(s.ctx, "nope")
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *LocalStateSuite) TestPutGetRoundTrip() {
	require.NoError(s.T(), s.state.Put(s.ctx, KeyAuth, []byte(`{"token":"t"}`)))

	raw, err := s.state.Get(s.ctx, KeyAuth)
	require.NoError(s.T(), err)
	assert.JSONEq(s.T(), `{"token":"t"}`, string(raw))
}

func (s *LocalStateSuite) TestPutReplacesValue() {
	require.NoError(s.T(), s.state.Put(s.ctx, KeyOfflineQueue, []byte(`[1]`)))
	require.NoError(s.T(), s.state.Put(s.ctx, KeyOfflineQueue, []byte(`[1,2]`)))

	raw, err := s.state.Get(s.ctx, KeyOfflineQueue)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), `[1,2]`, string(raw))
}

func (s *LocalStateSuite) TestDeleteIsIdempotent() {
	require.NoError(s.T(), s.state.Put(s.ctx, KeyAuth, []byte(`{}`)))
	require.NoError(s.T(), s.state.Delete(s.ctx, KeyAuth))
	require.NoError(s.T(), s.state.Delete(s.ctx, KeyAuth))

	_, err := s.state.Get(s.ctx, KeyAuth)
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *LocalStateSuite) TestJSONRoundTrip() {
	type record struct {
		Token string `json:"token"`
		Days  int    `json:"days"`
	}
	require.NoError(s.T(), s.state.PutJSON(s.ctx, KeyAuth, record{Token: "abc", Days: 365}))

	var got record
	require.NoError(s.T(), s.state.GetJSON(s.ctx, KeyAuth, &got))
	assert.Equal(s.T(), record{Token: "abc", Days: 365}, got)
}

func (s *LocalStateSuite) TestMalformedBlobTreatedAsAbsent() {
	require.NoError(s.T(), s.state.Put(s.ctx, KeyAuth, []byte(`{not json`)))

	var got map[string]any
	err := s.state.GetJSON(s.ctx, KeyAuth, &got)
	assert.ErrorIs(s.T(), err, ErrNotFound)

	// The bad blob is cleared, not repaired.
	_, err = s.state.Get(s.ctx, KeyAuth)
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *LocalStateSuite) TestSurvivesReopen() {
	require.NoError(s.T(), s.state.Put(s.ctx, KeyOfflineQueue, []byte(`["pending"]`)))

	path := filepath.Join(s.T().TempDir(), "reopen.db")
	first, err := Open(path)
	require.NoError(s.T(), err)
	require.NoError(s.T(), first.Put(s.ctx, KeyOfflineQueue, []byte(`["pending"]`)))
	require.NoError(s.T(), first.Close())

	second, err := Open(path)
	require.NoError(s.T(), err)
	defer second.Close()

	raw, err := second.Get(s.ctx, KeyOfflineQueue)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), `["pending"]`, string(raw))
}

func TestLocalStateSuite(t *testing.T) {
	suite.Run(t, new(LocalStateSuite))
}
