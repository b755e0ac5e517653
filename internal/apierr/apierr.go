// Package apierr maps orchestrator and store errors onto the response envelope.
package apierr

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ciecnow/backend/internal/orchestrator"
	"github.com/ciecnow/backend/internal/store"
	"github.com/ciecnow/backend/pkg/response"
)

// StepDetail reports a failed write sequence. It is the body of a 502, or of the 404/409 chosen
// when the failed step returned a store sentinel.
type StepDetail struct {
	Operation  string   `json:"operation"`
	FailedStep string   `json:"failed_step"`
	Committed  []string `json:"committed"`
}

// BlockedDetail is the body of a 409 for a blocked category delete.
type BlockedDetail struct {
	Count    int      `json:"count"`
	Meetings []string `json:"meetings"`
}

// Write sends the response matching err. A nil logger is allowed.
func Write(c *gin.Context, logger *zap.Logger, err error) {
	var (
		verr    *orchestrator.ValidationError
		blocked *orchestrator.BlockedError
		serr    *orchestrator.StepError
	)
	switch {
	case errors.As(err, &verr):
		response.Unprocessable(c, "validation failed", verr.Fields)
	case errors.As(err, &blocked):
		names := make([]string, 0, len(blocked.Meetings))
		for _, m := range blocked.Meetings {
			names = append(names, m.Subject)
		}
		response.Conflict(c, blocked.Error(), BlockedDetail{Count: len(blocked.Meetings), Meetings: names})
	case errors.As(err, &serr):
		committed := serr.Committed
		if committed == nil {
			committed = []string{}
		}
		detail := StepDetail{Operation: serr.Op, FailedStep: serr.Failed, Committed: committed}
		switch {
		case errors.Is(serr.Err, store.ErrNotFound):
			response.NotFound(c, serr.Error(), detail)
		case errors.Is(serr.Err, store.ErrConflict), errors.Is(serr.Err, store.ErrInvalidReference):
			response.Conflict(c, serr.Error(), detail)
		default:
			response.BadGateway(c, serr.Error(), detail)
		}
	case errors.Is(err, store.ErrNotFound):
		response.NotFound(c, "not found")
	case errors.Is(err, store.ErrConflict):
		response.Conflict(c, "already exists")
	case errors.Is(err, store.ErrInvalidReference):
		response.Conflict(c, "referenced record does not exist")
	default:
		if logger != nil {
			logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		}
		response.Internal(c, "internal error")
	}
}
