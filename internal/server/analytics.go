package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	analyticsdomain "github.com/smallbiznis/formpay/internal/analytics/domain"
	obscontext "github.com/smallbiznis/formpay/internal/observability/context"
)

type analyticsRequest struct {
	StartDate string `json:"startDate" form:"startDate"`
	EndDate   string `json:"endDate" form:"endDate"`
}

// GetFormAnalytics serves daily revenue buckets and a summary for one form.
// POST reads the range from an optional JSON body, GET from query params.
func (s *Server) GetFormAnalytics(c *gin.Context) {
	formID := strings.TrimSpace(c.Param("formId"))
	if formID == "" {
		AbortWithError(c, analyticsdomain.ErrInvalidFormID)
		return
	}

	var req analyticsRequest
	if c.Request.Method == http.MethodPost && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	} else if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	start, err := parseDateBound(req.StartDate, false)
	if err != nil {
		AbortWithError(c, newValidationError("startDate", "invalid_date", "startDate must be YYYY-MM-DD or RFC 3339"))
		return
	}
	end, err := parseDateBound(req.EndDate, true)
	if err != nil {
		AbortWithError(c, newValidationError("endDate", "invalid_date", "endDate must be YYYY-MM-DD or RFC 3339"))
		return
	}

	ctx := obscontext.WithFormID(c.Request.Context(), formID)
	result, err := s.analytics.Query(ctx, formID, analyticsdomain.DateRange{Start: start, End: end})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
