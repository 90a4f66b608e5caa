// Package pages provides database operations for the page tree of a book.
//
// Pages sharing a parent page, or top-level pages sharing a book, form a
// sibling group ordered by siblings_order. Writes keep siblings_order unique
// within a group; reads still tie-break by id so legacy rows navigate
// deterministically.
//
// This package implements the PageStore interface defined in internal/http/pages.go.
package pages

import (
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"github.com/sudarmaa/sudarmaa/internal/entities"
)

var (
	ErrPageNotFound          = errors.New("page not found")
	ErrBookNotFound          = errors.New("book not found")
	ErrTitleRequired         = errors.New("title is required")
	ErrDuplicateSiblingOrder = errors.New("siblings_order already used in this sibling group")
	ErrPageCycle             = errors.New("page cannot be moved under itself or its descendants")
	ErrParentInOtherBook     = errors.New("parent page belongs to another book")
)

// PageUpdate holds the fields of a partial page update. Nil fields are left unchanged.
type PageUpdate struct {
	Title         *string
	Content       *string
	SiblingsOrder *int
}

// Repository handles all page database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new pages repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func siblingScope(db *gorm.DB, bookID uint, parentID *uint) *gorm.DB {
	if parentID != nil {
		return db.Where("parent_page_id = ?", *parentID)
	}
	return db.Where("book_id = ? AND parent_page_id IS NULL", bookID)
}

func orderTaken(tx *gorm.DB, bookID uint, parentID *uint, order int, excludeID uint) (bool, error) {
	var count int64
	query := siblingScope(tx.Model(&entities.Page{}), bookID, parentID).
		Where("siblings_order = ?", order)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func loadPage(tx *gorm.DB, id uint) (*entities.Page, error) {
	var page entities.Page
	err := tx.First(&page, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPageNotFound
	}
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// checkParent verifies that parentID may hold a page of bookID. movingID is
// the page being re-parented, zero on create.
func checkParent(tx *gorm.DB, bookID uint, parentID *uint, movingID uint) error {
	if parentID == nil {
		return nil
	}
	parent, err := loadPage(tx, *parentID)
	if err != nil {
		return fmt.Errorf("parent: %w", err)
	}
	if parent.BookID != bookID {
		return ErrParentInOtherBook
	}
	if movingID == 0 {
		return nil
	}

	visited := map[uint]bool{}
	for current := parent; ; {
		if current.ID == movingID {
			return ErrPageCycle
		}
		if current.ParentPageID == nil || visited[current.ID] {
			return nil
		}
		visited[current.ID] = true
		next, err := loadPage(tx, *current.ParentPageID)
		if errors.Is(err, ErrPageNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		current = next
	}
}

// CreatePage inserts a page after checking its book, parent and sibling order.
func (r *Repository) CreatePage(page *entities.Page) error {
	if page.Title == "" {
		return ErrTitleRequired
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		var books int64
		if err := tx.Model(&entities.Book{}).Where("id = ?", page.BookID).Count(&books).Error; err != nil {
			return err
		}
		if books == 0 {
			return ErrBookNotFound
		}
		if err := checkParent(tx, page.BookID, page.ParentPageID, 0); err != nil {
			return err
		}
		taken, err := orderTaken(tx, page.BookID, page.ParentPageID, page.SiblingsOrder, 0)
		if err != nil {
			return err
		}
		if taken {
			return ErrDuplicateSiblingOrder
		}
		return tx.Omit("ParentPage", "Book", "Subpages").Create(page).Error
	})
}

// GetPageByID retrieves a page by ID.
func (r *Repository) GetPageByID(id uint) (*entities.Page, error) {
	return loadPage(r.db, id)
}

// UpdatePage applies a partial update and returns the reloaded page.
func (r *Repository) UpdatePage(id uint, update PageUpdate) (*entities.Page, error) {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		page, err := loadPage(tx, id)
		if err != nil {
			return err
		}

		changes := map[string]any{}
		if update.Title != nil {
			if *update.Title == "" {
				return ErrTitleRequired
			}
			changes["title"] = *update.Title
		}
		if update.Content != nil {
			changes["content"] = *update.Content
		}
		if update.SiblingsOrder != nil && *update.SiblingsOrder != page.SiblingsOrder {
			taken, err := orderTaken(tx, page.BookID, page.ParentPageID, *update.SiblingsOrder, page.ID)
			if err != nil {
				return err
			}
			if taken {
				return ErrDuplicateSiblingOrder
			}
			changes["siblings_order"] = *update.SiblingsOrder
		}

		if len(changes) == 0 {
			return nil
		}
		return tx.Model(&entities.Page{}).Where("id = ?", id).Updates(changes).Error
	})
	if err != nil {
		return nil, err
	}
	return r.GetPageByID(id)
}

// MovePage re-parents a page (nil parentID makes it top-level) at the given order.
func (r *Repository) MovePage(id uint, parentID *uint, order int) (*entities.Page, error) {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		page, err := loadPage(tx, id)
		if err != nil {
			return err
		}
		if err := checkParent(tx, page.BookID, parentID, page.ID); err != nil {
			return err
		}
		taken, err := orderTaken(tx, page.BookID, parentID, order, page.ID)
		if err != nil {
			return err
		}
		if taken {
			return ErrDuplicateSiblingOrder
		}

		var parent any
		if parentID != nil {
			parent = *parentID
		}
		return tx.Model(&entities.Page{}).Where("id = ?", id).Updates(map[string]any{
			"parent_page_id": parent,
			"siblings_order": order,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return r.GetPageByID(id)
}

// DeletePage deletes a page and its whole subtree. It returns the number of
// pages removed.
func (r *Repository) DeletePage(id uint) (int, error) {
	var removed int
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if _, err := loadPage(tx, id); err != nil {
			return err
		}

		ids := []uint{id}
		seen := map[uint]bool{id: true}
		frontier := []uint{id}
		for len(frontier) > 0 {
			var children []uint
			if err := tx.Model(&entities.Page{}).Where("parent_page_id IN ?", frontier).Pluck("id", &children).Error; err != nil {
				return err
			}
			frontier = frontier[:0]
			for _, child := range children {
				if seen[child] {
					continue
				}
				seen[child] = true
				ids = append(ids, child)
				frontier = append(frontier, child)
			}
		}

		// A single statement keeps self-referencing foreign keys satisfied.
		if err := tx.Where("id IN ?", ids).Delete(&entities.Page{}).Error; err != nil {
			return err
		}
		removed = len(ids)
		return nil
	})
	return removed, err
}

// TopPages returns the book's parentless pages ordered by siblings_order.
func (r *Repository) TopPages(bookID uint) ([]entities.Page, error) {
	var pages []entities.Page
	err := siblingScope(r.db, bookID, nil).
		Order("siblings_order ASC, id ASC").
		Find(&pages).Error
	return pages, err
}

// Subpages returns the direct children of a page ordered by siblings_order.
func (r *Repository) Subpages(pageID uint) ([]entities.Page, error) {
	page, err := r.GetPageByID(pageID)
	if err != nil {
		return nil, err
	}
	var pages []entities.Page
	err = r.db.Where("parent_page_id = ?", page.ID).
		Order("siblings_order ASC, id ASC").
		Find(&pages).Error
	return pages, err
}

// SiblingPages returns every page in the page's sibling group, the page
// itself included, ordered by siblings_order.
func (r *Repository) SiblingPages(page *entities.Page) ([]entities.Page, error) {
	var pages []entities.Page
	err := siblingScope(r.db, page.BookID, page.ParentPageID).
		Order("siblings_order ASC, id ASC").
		Find(&pages).Error
	return pages, err
}

// NextPage returns the sibling with the smallest siblings_order greater than
// the page's, or nil when the page is last.
func (r *Repository) NextPage(page *entities.Page) (*entities.Page, error) {
	return r.neighbour(page, "siblings_order > ?", "siblings_order ASC, id ASC")
}

// PrevPage returns the sibling with the largest siblings_order less than the
// page's, or nil when the page is first.
func (r *Repository) PrevPage(page *entities.Page) (*entities.Page, error) {
	return r.neighbour(page, "siblings_order < ?", "siblings_order DESC, id DESC")
}

func (r *Repository) neighbour(page *entities.Page, condition, order string) (*entities.Page, error) {
	var pages []entities.Page
	err := siblingScope(r.db, page.BookID, page.ParentPageID).
		Where(condition, page.SiblingsOrder).
		Order(order).
		Limit(1).
		Find(&pages).Error
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, nil
	}
	return &pages[0], nil
}

// Outline returns the book's top pages with Subpages populated recursively.
func (r *Repository) Outline(bookID uint) ([]entities.Page, error) {
	var all []entities.Page
	if err := r.db.Where("book_id = ?", bookID).Order("siblings_order ASC, id ASC").Find(&all).Error; err != nil {
		return nil, err
	}

	children := map[uint][]entities.Page{}
	var roots []entities.Page
	for _, page := range all {
		if page.ParentPageID == nil {
			roots = append(roots, page)
			continue
		}
		children[*page.ParentPageID] = append(children[*page.ParentPageID], page)
	}

	var attach func(pages []entities.Page) []entities.Page
	attach = func(pages []entities.Page) []entities.Page {
		for i := range pages {
			if kids, ok := children[pages[i].ID]; ok {
				delete(children, pages[i].ID)
				pages[i].Subpages = attach(kids)
			}
		}
		return pages
	}
	return attach(roots), nil
}

// BookIDsWithPages lists the ids of every book that has at least one page.
func (r *Repository) BookIDsWithPages() ([]uint, error) {
	var ids []uint
	err := r.db.Model(&entities.Page{}).Distinct("book_id").Order("book_id ASC").Pluck("book_id", &ids).Error
	return ids, err
}

type groupKey struct {
	parent uint
	top    bool
}

func keyOf(page entities.Page) groupKey {
	if page.ParentPageID == nil {
		return groupKey{top: true}
	}
	return groupKey{parent: *page.ParentPageID}
}

// NormalizeSiblingOrder renumbers every sibling group of a book to 1..n,
// keeping the existing (siblings_order, id) ordering. It returns the number
// of pages whose order changed.
func (r *Repository) NormalizeSiblingOrder(bookID uint) (int, error) {
	changed := 0
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var all []entities.Page
		if err := tx.Where("book_id = ?", bookID).Order("siblings_order ASC, id ASC").Find(&all).Error; err != nil {
			return err
		}

		position := map[groupKey]int{}
		for _, page := range all {
			key := keyOf(page)
			position[key]++
			if page.SiblingsOrder == position[key] {
				continue
			}
			if err := tx.Model(&entities.Page{}).Where("id = ?", page.ID).Update("siblings_order", position[key]).Error; err != nil {
				return err
			}
			changed++
		}
		return nil
	})
	return changed, err
}

// DuplicateOrder describes pages of one sibling group sharing a siblings_order.
type DuplicateOrder struct {
	ParentPageID  *uint  `json:"parent_page_id"`
	SiblingsOrder int    `json:"siblings_order"`
	PageIDs       []uint `json:"page_ids"`
}

// IntegrityReport lists the page tree problems found in one book.
type IntegrityReport struct {
	BookID           uint             `json:"book_id"`
	Pages            int              `json:"pages"`
	DuplicateOrders  []DuplicateOrder `json:"duplicate_orders,omitempty"`
	CrossBookParents []uint           `json:"cross_book_parents,omitempty"`
	MissingParents   []uint           `json:"missing_parents,omitempty"`
	Cycles           []uint           `json:"cycles,omitempty"`
}

// Healthy reports whether no problem was found.
func (r IntegrityReport) Healthy() bool {
	return len(r.DuplicateOrders) == 0 &&
		len(r.CrossBookParents) == 0 &&
		len(r.MissingParents) == 0 &&
		len(r.Cycles) == 0
}

// CheckIntegrity inspects a book's page tree without modifying it.
func (r *Repository) CheckIntegrity(bookID uint) (*IntegrityReport, error) {
	var all []entities.Page
	if err := r.db.Where("book_id = ?", bookID).Order("id ASC").Find(&all).Error; err != nil {
		return nil, err
	}

	report := &IntegrityReport{BookID: bookID, Pages: len(all)}
	byID := make(map[uint]entities.Page, len(all))
	for _, page := range all {
		byID[page.ID] = page
	}

	type orderKey struct {
		group groupKey
		order int
	}
	grouped := map[orderKey][]uint{}
	var foreign []uint
	for _, page := range all {
		k := orderKey{group: keyOf(page), order: page.SiblingsOrder}
		grouped[k] = append(grouped[k], page.ID)
		if page.ParentPageID != nil {
			if _, ok := byID[*page.ParentPageID]; !ok {
				foreign = append(foreign, page.ID)
			}
		}
	}

	for k, ids := range grouped {
		if len(ids) < 2 {
			continue
		}
		dup := DuplicateOrder{SiblingsOrder: k.order, PageIDs: ids}
		if !k.group.top {
			parent := k.group.parent
			dup.ParentPageID = &parent
		}
		report.DuplicateOrders = append(report.DuplicateOrders, dup)
	}
	sort.Slice(report.DuplicateOrders, func(i, j int) bool {
		return report.DuplicateOrders[i].PageIDs[0] < report.DuplicateOrders[j].PageIDs[0]
	})

	for _, id := range foreign {
		page := byID[id]
		var parents int64
		if err := r.db.Model(&entities.Page{}).Where("id = ?", *page.ParentPageID).Count(&parents).Error; err != nil {
			return nil, err
		}
		if parents == 0 {
			report.MissingParents = append(report.MissingParents, id)
		} else {
			report.CrossBookParents = append(report.CrossBookParents, id)
		}
	}

	for _, page := range all {
		visited := map[uint]bool{page.ID: true}
		current := page
		for current.ParentPageID != nil {
			parent, ok := byID[*current.ParentPageID]
			if !ok {
				break
			}
			if parent.ID == page.ID {
				report.Cycles = append(report.Cycles, page.ID)
				break
			}
			if visited[parent.ID] {
				break
			}
			visited[parent.ID] = true
			current = parent
		}
	}

	return report, nil
}
