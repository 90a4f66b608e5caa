package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"go.uber.org/zap"

	"github.com/sudarmaa/sudarmaa/internal/database/pages"
)

const (
	QueueNormalizePageOrder = "normalize_page_order"
	QueueCheckPageIntegrity = "check_page_integrity"
)

// PageMaintainer is the part of the page repository the maintenance tasks use.
type PageMaintainer interface {
	NormalizeSiblingOrder(bookID uint) (int, error)
	CheckIntegrity(bookID uint) (*pages.IntegrityReport, error)
	BookIDsWithPages() ([]uint, error)
}

// NormalizePageOrderTask renumbers every sibling group of a book to 1..n.
type NormalizePageOrderTask struct {
	BookID uint `json:"book_id"`
}

// Config returns the queue configuration for page order normalization.
func (t NormalizePageOrderTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        QueueNormalizePageOrder,
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// NormalizePageOrderProcessor creates a processor function for NormalizePageOrderTask.
func NormalizePageOrderProcessor(store PageMaintainer) backlite.QueueProcessor[NormalizePageOrderTask] {
	return func(ctx context.Context, task NormalizePageOrderTask) error {
		if store == nil {
			return fmt.Errorf("page store not configured")
		}
		if task.BookID == 0 {
			return fmt.Errorf("book_id is required")
		}

		changed, err := store.NormalizeSiblingOrder(task.BookID)
		if err != nil {
			return fmt.Errorf("normalize page order for book %d: %w", task.BookID, err)
		}

		zap.L().Info("normalized page order",
			zap.Uint("book_id", task.BookID),
			zap.Int("pages_changed", changed))
		return nil
	}
}

// NewNormalizePageOrderQueue creates a backlite queue for page order normalization.
func NewNormalizePageOrderQueue(store PageMaintainer) backlite.Queue {
	return backlite.NewQueue(NormalizePageOrderProcessor(store))
}

// CheckPageIntegrityTask inspects the page tree of one book, or of every book
// with pages when BookID is 0.
type CheckPageIntegrityTask struct {
	BookID uint `json:"book_id,omitempty"`
}

// Config returns the queue configuration for integrity checks.
func (t CheckPageIntegrityTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        QueueCheckPageIntegrity,
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     30 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// IntegritySummary aggregates the reports of one check run.
type IntegritySummary struct {
	Books     int
	Unhealthy []uint
}

// CheckPageIntegrity runs the integrity check and logs every finding. It stops
// early when ctx is cancelled.
func CheckPageIntegrity(ctx context.Context, store PageMaintainer, bookID uint) (*IntegritySummary, error) {
	bookIDs := []uint{bookID}
	if bookID == 0 {
		var err error
		if bookIDs, err = store.BookIDsWithPages(); err != nil {
			return nil, fmt.Errorf("list books: %w", err)
		}
	}

	summary := &IntegritySummary{}
	for _, id := range bookIDs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		report, err := store.CheckIntegrity(id)
		if err != nil {
			return summary, fmt.Errorf("check book %d: %w", id, err)
		}
		summary.Books++
		if report.Healthy() {
			continue
		}

		summary.Unhealthy = append(summary.Unhealthy, id)
		logger := zap.L().With(zap.Uint("book_id", id))
		for _, dup := range report.DuplicateOrders {
			logger.Warn("duplicate siblings_order",
				zap.Int("siblings_order", dup.SiblingsOrder),
				zap.Uints("page_ids", dup.PageIDs))
		}
		if len(report.CrossBookParents) > 0 {
			logger.Warn("pages with a parent in another book", zap.Uints("page_ids", report.CrossBookParents))
		}
		if len(report.MissingParents) > 0 {
			logger.Warn("pages with a missing parent", zap.Uints("page_ids", report.MissingParents))
		}
		if len(report.Cycles) > 0 {
			logger.Error("pages in a parent cycle", zap.Uints("page_ids", report.Cycles))
		}
	}
	return summary, nil
}

// CheckPageIntegrityProcessor creates a processor function for CheckPageIntegrityTask.
func CheckPageIntegrityProcessor(store PageMaintainer) backlite.QueueProcessor[CheckPageIntegrityTask] {
	return func(ctx context.Context, task CheckPageIntegrityTask) error {
		if store == nil {
			return fmt.Errorf("page store not configured")
		}

		summary, err := CheckPageIntegrity(ctx, store, task.BookID)
		if err != nil {
			return err
		}

		zap.L().Info("page integrity check complete",
			zap.Int("books", summary.Books),
			zap.Int("unhealthy", len(summary.Unhealthy)))
		return nil
	}
}

// NewCheckPageIntegrityQueue creates a backlite queue for integrity checks.
func NewCheckPageIntegrityQueue(store PageMaintainer) backlite.Queue {
	return backlite.NewQueue(CheckPageIntegrityProcessor(store))
}
