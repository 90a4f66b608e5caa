package entities

import (
	"fmt"
	"time"
)

type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Books     []Book    `gorm:"foreignKey:CategoryID" json:"books,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Book struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"index;size:255;not null" json:"title"`
	CategoryID  uint      `gorm:"index;not null" json:"category_id"`
	Category    *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Icon        string    `gorm:"size:1024" json:"icon,omitempty"` // Path relative to the media root
	CreatorID   *uint     `gorm:"index" json:"creator_id,omitempty"`
	Creator     *User     `gorm:"foreignKey:CreatorID" json:"-"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	Pages       []Page    `gorm:"foreignKey:BookID" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Page is a node in a book's page tree. Pages sharing a parent (or, for top-level
// pages, sharing a book) form a sibling group ordered by SiblingsOrder.
type Page struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ParentPageID  *uint     `gorm:"index" json:"parent_page_id"`
	ParentPage    *Page     `gorm:"foreignKey:ParentPageID" json:"-"`
	BookID        uint      `gorm:"index;not null" json:"book_id"`
	Book          *Book     `gorm:"foreignKey:BookID" json:"-"`
	Title         string    `gorm:"size:255;not null" json:"title"`
	Content       string    `gorm:"type:text" json:"content"`
	SiblingsOrder int       `gorm:"index;not null" json:"siblings_order"`
	Subpages      []Page    `gorm:"foreignKey:ParentPageID" json:"subpages,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Pick struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"index;not null" json:"user_id"`
	User        *User     `gorm:"foreignKey:UserID" json:"-"`
	BookID      uint      `gorm:"index;not null" json:"book_id"`
	Book        *Book     `gorm:"foreignKey:BookID" json:"book,omitempty"`
	OrderNumber int       `gorm:"default:0" json:"order_number"`
	CreatedAt   time.Time `json:"created_at"`
}

// Shelf is a user-owned reading list. IsPublic has no column default: a gorm
// default would override an explicit false on insert, so callers set it.
type Shelf struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"-"`
	Books     []Book    `gorm:"many2many:shelf_books;" json:"books,omitempty"`
	IsPublic  bool      `gorm:"not null" json:"is_public"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Category) TableName() string {
	return "categories"
}

func (Book) TableName() string {
	return "books"
}

func (Page) TableName() string {
	return "pages"
}

func (Pick) TableName() string {
	return "picks"
}

func (Shelf) TableName() string {
	return "shelves"
}

func (c Category) String() string {
	return c.Title
}

func (b Book) String() string {
	return b.Title
}

func (p Page) String() string {
	return p.Title
}

// String renders the pick as "<order>. <book title>". Book must be loaded.
func (p Pick) String() string {
	title := ""
	if p.Book != nil {
		title = p.Book.Title
	}
	return fmt.Sprintf("%d. %s", p.OrderNumber, title)
}

// String renders the shelf as "<username>:<title>". User must be loaded.
func (s Shelf) String() string {
	username := ""
	if s.User != nil {
		username = s.User.Username
	}
	return username + ":" + s.Title
}
