package tasks

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sudarmaa/sudarmaa/internal/database"
	"github.com/sudarmaa/sudarmaa/internal/database/pages"
	"github.com/sudarmaa/sudarmaa/internal/entities"
)

func setupPages(t *testing.T) (*gorm.DB, *pages.Repository) {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db.DB, pages.NewRepository(db.DB)
}

// seedBook inserts a book whose top-level pages carry the given orders. Rows
// go straight to the table so duplicate orders can be created.
func seedBook(t *testing.T, db *gorm.DB, orders ...int) uint {
	t.Helper()
	category := entities.Category{Title: "Fiction"}
	require.NoError(t, db.Create(&category).Error)
	book := entities.Book{Title: "Dune", CategoryID: category.ID}
	require.NoError(t, db.Omit("Category", "Creator", "Pages").Create(&book).Error)
	for i, order := range orders {
		page := entities.Page{BookID: book.ID, Title: string(rune('A' + i)), SiblingsOrder: order}
		require.NoError(t, db.Omit("ParentPage", "Book", "Subpages").Create(&page).Error)
	}
	return book.ID
}

type failingMaintainer struct{}

var errStore = errors.New("store unavailable")

func (failingMaintainer) NormalizeSiblingOrder(uint) (int, error) { return 0, errStore }
func (failingMaintainer) CheckIntegrity(uint) (*pages.IntegrityReport, error) {
	return nil, errStore
}
func (failingMaintainer) BookIDsWithPages() ([]uint, error) { return nil, errStore }

func TestNormalizePageOrderTaskConfig(t *testing.T) {
	cfg := NormalizePageOrderTask{BookID: 1}.Config()

	assert.Equal(t, QueueNormalizePageOrder, cfg.Name)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
	assert.NotNil(t, cfg.Retention)
}

func TestCheckPageIntegrityTaskConfig(t *testing.T) {
	cfg := CheckPageIntegrityTask{}.Config()

	assert.Equal(t, QueueCheckPageIntegrity, cfg.Name)
	assert.Equal(t, 1, cfg.MaxAttempts)
	assert.Equal(t, 30*time.Minute, cfg.Timeout)
}

func TestNormalizePageOrderProcessor(t *testing.T) {
	db, repo := setupPages(t)
	bookID := seedBook(t, db, 5, 5, 9)

	process := NormalizePageOrderProcessor(repo)
	require.NoError(t, process(context.Background(), NormalizePageOrderTask{BookID: bookID}))

	top, err := repo.TopPages(bookID)
	require.NoError(t, err)
	require.Len(t, top, 3)
	for i, page := range top {
		assert.Equal(t, i+1, page.SiblingsOrder)
	}

	assert.Error(t, process(context.Background(), NormalizePageOrderTask{}))
	assert.ErrorIs(t, NormalizePageOrderProcessor(failingMaintainer{})(context.Background(), NormalizePageOrderTask{BookID: 1}), errStore)
	assert.Error(t, NormalizePageOrderProcessor(nil)(context.Background(), NormalizePageOrderTask{BookID: 1}))
}

func TestCheckPageIntegrity(t *testing.T) {
	db, repo := setupPages(t)
	healthy := seedBook(t, db, 1, 2, 3)
	broken := seedBook(t, db, 1, 1)

	summary, err := CheckPageIntegrity(context.Background(), repo, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Books)
	assert.Equal(t, []uint{broken}, summary.Unhealthy)

	summary, err = CheckPageIntegrity(context.Background(), repo, healthy)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Books)
	assert.Empty(t, summary.Unhealthy)
}

func TestCheckPageIntegrity_Errors(t *testing.T) {
	_, err := CheckPageIntegrity(context.Background(), failingMaintainer{}, 0)
	assert.ErrorIs(t, err, errStore)

	_, err = CheckPageIntegrity(context.Background(), failingMaintainer{}, 3)
	assert.ErrorIs(t, err, errStore)

	db, repo := setupPages(t)
	seedBook(t, db, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summary, err := CheckPageIntegrity(ctx, repo, 0)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, summary.Books)
}

func TestCheckPageIntegrityQueue_RunsOnClient(t *testing.T) {
	db, repo := setupPages(t)
	seedBook(t, db, 1, 2)

	cfg := DefaultConfig()
	cfg.Workers = 1
	client, err := NewClient(filepath.Join(t.TempDir(), "queue.db"), cfg)
	require.NoError(t, err)
	defer client.Close()

	client.Register(NewCheckPageIntegrityQueue(repo))
	client.Register(NewNormalizePageOrderQueue(repo))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	ids, err := client.Add(CheckPageIntegrityTask{}).Save()
	require.NoError(t, err)
	require.Len(t, ids, 1)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	assert.Eventually(t, func() bool {
		status, err := client.Status(stopCtx, ids[0])
		return err == nil && status == backlite.TaskStatusSuccess
	}, 5*time.Second, 50*time.Millisecond)
}
