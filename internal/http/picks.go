package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sudarmaa/sudarmaa/internal/database/picks"
	"github.com/sudarmaa/sudarmaa/internal/entities"
)

// PickStore defines database operations for a user's picks.
type PickStore interface {
	CreatePick(userID, bookID uint, orderNumber int) (*entities.Pick, error)
	GetPicksForUser(userID uint) ([]entities.Pick, error)
	ReorderPick(id, userID uint, orderNumber int) (*entities.Pick, error)
	DeletePick(id, userID uint) error
}

type createPickRequest struct {
	BookID      uint `json:"book_id" validate:"required"`
	OrderNumber int  `json:"order_number" validate:"gte=0"`
}

type reorderPickRequest struct {
	OrderNumber *int `json:"order_number" validate:"required,gte=0"`
}

// pickResponse adds the "<order>. <title>" label to a pick.
type pickResponse struct {
	entities.Pick
	Label string `json:"label"`
}

func newPickResponse(pick entities.Pick) pickResponse {
	return pickResponse{Pick: pick, Label: pick.String()}
}

type PicksController struct {
	store PickStore
}

func NewPicksController(store PickStore) *PicksController {
	return &PicksController{store: store}
}

func (pc *PicksController) respondError(c *gin.Context, err error, context string) {
	switch {
	case errors.Is(err, picks.ErrPickNotFound):
		respondNotFound(c, "pick")
	case errors.Is(err, picks.ErrBookNotFound):
		respondNotFound(c, "book")
	default:
		respondInternalError(c, err, context)
	}
}

// ListPicks returns the caller's picks in order
// GET /api/picks
func (pc *PicksController) ListPicks(c *gin.Context) {
	list, err := pc.store.GetPicksForUser(GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "list picks")
		return
	}
	out := make([]pickResponse, 0, len(list))
	for _, pick := range list {
		out = append(out, newPickResponse(pick))
	}
	c.JSON(http.StatusOK, gin.H{"picks": out, "count": len(out)})
}

// CreatePick adds a book to the caller's picks
// POST /api/picks
func (pc *PicksController) CreatePick(c *gin.Context) {
	var req createPickRequest
	if !bindJSON(c, &req) {
		return
	}
	pick, err := pc.store.CreatePick(GetUserID(c), req.BookID, req.OrderNumber)
	if err != nil {
		pc.respondError(c, err, "create pick")
		return
	}
	respondCreated(c, newPickResponse(*pick))
}

// ReorderPick changes a pick's position
// PATCH /api/picks/:id
func (pc *PicksController) ReorderPick(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req reorderPickRequest
	if !bindJSON(c, &req) {
		return
	}
	pick, err := pc.store.ReorderPick(id, GetUserID(c), *req.OrderNumber)
	if err != nil {
		pc.respondError(c, err, "reorder pick")
		return
	}
	c.JSON(http.StatusOK, newPickResponse(*pick))
}

// DeletePick removes one of the caller's picks
// DELETE /api/picks/:id
func (pc *PicksController) DeletePick(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := pc.store.DeletePick(id, GetUserID(c)); err != nil {
		pc.respondError(c, err, "delete pick")
		return
	}
	respondSuccess(c, "pick deleted")
}
