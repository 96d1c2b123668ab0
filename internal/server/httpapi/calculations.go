package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/calckeeper/internal/server/services"
	"github.com/gin-gonic/gin"
)

func (s *Server) browseCalculations(c *gin.Context) {
	var q services.BrowseQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.abortWithError(c, bindError(err))
		return
	}

	list, err := s.calcs.Browse(c.Request.Context(), mustIdentity(c), q)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	out := make([]CalculationResponse, 0, len(list))
	for _, calc := range list {
		out = append(out, newCalculationResponse(calc))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) readCalculation(c *gin.Context) {
	calc, err := s.calcs.Read(c.Request.Context(), mustIdentity(c), c.Param("id"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCalculationResponse(calc))
}

// addCalculation ignores any owner in the body; the owner is the caller.
func (s *Server) addCalculation(c *gin.Context) {
	var in services.CalculationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		s.abortWithError(c, bindError(err))
		return
	}

	calc, err := s.calcs.Add(c.Request.Context(), mustIdentity(c), in)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newCalculationResponse(calc))
}

func (s *Server) editCalculation(c *gin.Context) {
	var in services.CalculationUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		s.abortWithError(c, bindError(err))
		return
	}

	calc, err := s.calcs.Edit(c.Request.Context(), mustIdentity(c), c.Param("id"), in)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCalculationResponse(calc))
}

func (s *Server) deleteCalculation(c *gin.Context) {
	if err := s.calcs.Delete(c.Request.Context(), mustIdentity(c), c.Param("id")); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) calculationSummary(c *gin.Context) {
	sum, err := s.calcs.Summary(c.Request.Context(), mustIdentity(c))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (s *Server) clearCalculations(c *gin.Context) {
	n, err := s.calcs.Clear(c.Request.Context(), mustIdentity(c))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

func (s *Server) exportCalculations(c *gin.Context) {
	exp, err := s.exporter.Export(c.Request.Context(), mustIdentity(c))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ExportResponse{
		Key:          exp.Key,
		URL:          exp.URL,
		Calculations: exp.Count,
		ExpiresAt:    exp.ExpiresAt,
	})
}
