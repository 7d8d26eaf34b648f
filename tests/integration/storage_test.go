package integration

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/versedb/versedb/internal/corpus"
	"github.com/versedb/versedb/internal/storage"
	"github.com/versedb/versedb/internal/storage/kv"
)

// StorageTestSuite runs the full lifecycle against the real bundled corpus:
// acquire, bootstrap, index, search, persist, restore.
type StorageTestSuite struct {
	suite.Suite
	kv  *kv.Memory
	mgr *storage.Manager
}

func (s *StorageTestSuite) newManager(scratchDir string) *storage.Manager {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	datasets, err := corpus.Datasets(nil)
	s.Require().NoError(err)

	return storage.NewManager(storage.ManagerConfig{
		Engine:   storage.NewEmbeddedEngine(scratchDir, s.kv, logger),
		Datasets: datasets,
		Logger:   logger,
	})
}

func (s *StorageTestSuite) SetupTest() {
	s.kv = kv.NewMemory()
	s.mgr = s.newManager(s.T().TempDir())
}

func (s *StorageTestSuite) TearDownTest() {
	s.Require().NoError(s.mgr.Close())
}

func (s *StorageTestSuite) TestFirstLaunchBootstrapsCorpus() {
	ctx := context.Background()
	store, err := s.mgr.Acquire(ctx)
	s.Require().NoError(err)

	total, err := store.Count(ctx, "verses", "")
	s.Require().NoError(err)
	s.Equal(int64(10), total)

	english, err := store.Count(ctx, "verses", "language = ?", "en")
	s.Require().NoError(err)
	s.Equal(int64(6), english)

	spanish, err := store.Count(ctx, "verses", "language = ?", "es")
	s.Require().NoError(err)
	s.Equal(int64(4), spanish)

	indexed, err := store.Count(ctx, "verses_fts", "")
	s.Require().NoError(err)
	s.Equal(total, indexed)
}

func (s *StorageTestSuite) TestSearchBothLanguages() {
	ctx := context.Background()
	store, err := s.mgr.Acquire(ctx)
	s.Require().NoError(err)

	verses, err := store.SearchVerses(ctx, "light", 10)
	s.Require().NoError(err)
	s.Require().NotEmpty(verses)
	s.Equal("Genesis", verses[0].Book)
	s.Equal("WEB", verses[0].Version)

	verses, err = store.SearchVerses(ctx, "gracia", 10)
	s.Require().NoError(err)
	s.Require().Len(verses, 1)
	s.Equal("Apocalipsis", verses[0].Book)
	s.Equal("es", verses[0].Language)
}

func (s *StorageTestSuite) TestDisplayAnnotationsStripped() {
	ctx := context.Background()
	store, err := s.mgr.Acquire(ctx)
	s.Require().NoError(err)

	// Psalms 23:1 carries a display-only annotation; the cleaned text wins.
	rows, err := store.Query(ctx, "verses", storage.QueryOptions{
		Where: "book = ? AND chapter = ? AND verse = ?",
		Args:  []any{"Psalms", 23, 1},
	})
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.Equal("Yahweh is my shepherd: I shall lack nothing.", rows[0]["text"])
}

func (s *StorageTestSuite) TestAlternateTextFallback() {
	ctx := context.Background()
	store, err := s.mgr.Acquire(ctx)
	s.Require().NoError(err)

	// Génesis 1:2 has a blank cleaned field in the dump; the alternate text
	// must have filled it, never an empty verse.
	rows, err := store.Query(ctx, "verses", storage.QueryOptions{
		Where: "book = ? AND chapter = ? AND verse = ?",
		Args:  []any{"Génesis", 1, 2},
	})
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.NotEmpty(rows[0]["text"])
}

func (s *StorageTestSuite) TestRestartRestoresWithoutRebootstrap() {
	ctx := context.Background()
	store, err := s.mgr.Acquire(ctx)
	s.Require().NoError(err)

	s.Require().NoError(store.SetSetting(ctx, "preferred_translation", storage.StringValue("RVR")))
	s.Require().NoError(s.mgr.Close())

	// Same durable store, fresh process.
	s.mgr = s.newManager(s.T().TempDir())
	store, err = s.mgr.Acquire(ctx)
	s.Require().NoError(err)

	total, err := store.Count(ctx, "verses", "")
	s.Require().NoError(err)
	s.Equal(int64(10), total)

	pref, err := store.StringSetting(ctx, "preferred_translation", "")
	s.Require().NoError(err)
	s.Equal("RVR", pref)

	// The install id survives restarts.
	id, ok, err := store.Metadata(ctx, "install_id")
	s.Require().NoError(err)
	s.True(ok)
	s.NotEmpty(id)
}

func (s *StorageTestSuite) TestResetReturnsToFreshInstall() {
	ctx := context.Background()
	store, err := s.mgr.Acquire(ctx)
	s.Require().NoError(err)

	firstID, _, err := store.Metadata(ctx, "install_id")
	s.Require().NoError(err)
	s.Require().NoError(store.SetSetting(ctx, "dark_mode", storage.BoolValue(true)))

	fresh, err := s.mgr.Reset(ctx)
	s.Require().NoError(err)

	_, ok, err := fresh.Setting(ctx, "dark_mode")
	s.Require().NoError(err)
	s.False(ok)

	total, err := fresh.Count(ctx, "verses", "")
	s.Require().NoError(err)
	s.Equal(int64(10), total)

	// A reset is a new install, down to the install id.
	secondID, _, err := fresh.Metadata(ctx, "install_id")
	s.Require().NoError(err)
	s.NotEqual(firstID, secondID)
}

func TestStorageTestSuite(t *testing.T) {
	suite.Run(t, new(StorageTestSuite))
}
