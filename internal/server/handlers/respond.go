package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/aquafarm/internal/repository"
	"github.com/mamadbah2/aquafarm/internal/service/dosing"
	"github.com/mamadbah2/aquafarm/internal/service/ledger"
	"github.com/mamadbah2/aquafarm/internal/service/livestock"
)

// actorHeader carries the opaque authenticated identity supplied by the
// session collaborator. The core performs no authorization itself.
const actorHeader = "X-Actor-Id"

// respondError maps the service error taxonomy onto HTTP statuses with
// messages operators can act on. Contention deliberately reads as "try
// again": it reflects normal concurrent use, not corruption.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "the referenced record does not exist"})
	case errors.Is(err, repository.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": "a record with this id already exists"})
	case errors.Is(err, repository.ErrActiveBatchExists):
		c.JSON(http.StatusConflict, gin.H{"error": "this pond already has an active batch; close it before restocking"})
	case errors.Is(err, ledger.ErrInsufficientStock):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, livestock.ErrInsufficientPopulation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, repository.ErrInvalidQuantity),
		errors.Is(err, livestock.ErrInvalidInput),
		errors.Is(err, dosing.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, livestock.ErrNoActiveBatch):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "this pond has no active batch; stock it first"})
	case errors.Is(err, ledger.ErrContention), errors.Is(err, livestock.ErrContention):
		c.JSON(http.StatusConflict, gin.H{"error": "the stock is being updated by someone else, please try again"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "operation failed"})
	}
}

// requireActor extracts the acting identity or rejects the request.
func requireActor(c *gin.Context) (string, bool) {
	actor := c.GetHeader(actorHeader)
	if actor == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing " + actorHeader + " header"})
		return "", false
	}
	return actor, true
}
