package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/badminton-pairing/internal/model"
	"github.com/mcoot/badminton-pairing/internal/testutil"
)

type StorageSuite struct {
	suite.Suite
	dir     string
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.dir = s.T().TempDir()
	var err error
	s.storage, err = New(filepath.Join(s.dir, "state", "session.json"))
	s.Require().NoError(err)
	s.ctx = context.Background()
}

func (s *StorageSuite) TestNewRequiresPath() {
	_, err := New("")
	s.Error(err)
}

func (s *StorageSuite) TestLoadMissingSession() {
	_, err := s.storage.LoadSession(s.ctx)
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *StorageSuite) TestSaveAndLoadSession() {
	session := testutil.SampleSession(time.Date(2024, 5, 1, 19, 0, 0, 0, time.UTC))

	s.Require().NoError(s.storage.SaveSession(s.ctx, session))

	loaded, err := s.storage.LoadSession(s.ctx)
	s.Require().NoError(err)
	s.Equal(session, loaded)
}

func (s *StorageSuite) TestSaveLeavesNoTemporaryFiles() {
	s.Require().NoError(s.storage.SaveSession(s.ctx, model.NewSession(2)))
	s.Require().NoError(s.storage.SaveSession(s.ctx, model.NewSession(3)))

	entries, err := os.ReadDir(filepath.Dir(s.storage.Path()))
	s.Require().NoError(err)
	s.Len(entries, 1)
	s.Equal("session.json", entries[0].Name())
}

func (s *StorageSuite) TestSessionSurvivesNewInstance() {
	s.Require().NoError(s.storage.SaveSession(s.ctx, model.NewSession(6)))

	reopened, err := New(s.storage.Path())
	s.Require().NoError(err)

	loaded, err := reopened.LoadSession(s.ctx)
	s.Require().NoError(err)
	s.Equal(6, loaded.CourtCount)
}

func (s *StorageSuite) TestLoadMalformedFile() {
	s.Require().NoError(os.WriteFile(s.storage.Path(), []byte("[]"), 0o600))

	_, err := s.storage.LoadSession(s.ctx)
	s.ErrorIs(err, model.ErrMalformedState)
}

func (s *StorageSuite) TestDeleteSession() {
	s.Require().NoError(s.storage.SaveSession(s.ctx, model.NewSession(2)))

	s.Require().NoError(s.storage.DeleteSession(s.ctx))
	s.NoError(s.storage.DeleteSession(s.ctx))

	_, err := s.storage.LoadSession(s.ctx)
	s.ErrorIs(err, model.ErrSessionNotFound)
}
