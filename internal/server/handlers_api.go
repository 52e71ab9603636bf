package server

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/deckpulse/internal/apperr"
	"github.com/pscheid92/deckpulse/internal/domain"
)

type commandAccepted struct {
	Status string `json:"status"`
}

type stateResponse struct {
	Slide      domain.SlideState `json:"slide"`
	Questions  []domain.Question `json:"questions"`
	Population int               `json:"population"`
}

func (s *Server) handleNextSlide(c echo.Context) error {
	s.hub.ApplyAdmin(c.Request().Context(), domain.NextSlide{})
	return c.JSON(http.StatusAccepted, commandAccepted{Status: "accepted"})
}

func (s *Server) handlePrevSlide(c echo.Context) error {
	s.hub.ApplyAdmin(c.Request().Context(), domain.PrevSlide{})
	return c.JSON(http.StatusAccepted, commandAccepted{Status: "accepted"})
}

func (s *Server) handleNextStep(c echo.Context) error {
	s.hub.ApplyAdmin(c.Request().Context(), domain.NextStep{})
	return c.JSON(http.StatusAccepted, commandAccepted{Status: "accepted"})
}

func (s *Server) handlePrevStep(c echo.Context) error {
	s.hub.ApplyAdmin(c.Request().Context(), domain.PrevStep{})
	return c.JSON(http.StatusAccepted, commandAccepted{Status: "accepted"})
}

// handleToggleQuestion flips the answered flag of a question. Unknown
// IDs are accepted and absorbed by the hub; only unparsable IDs are an
// input error.
func (s *Server) handleToggleQuestion(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return apperr.Validation("question id must be a non-negative integer").With("id", c.Param("id"))
	}

	s.hub.ApplyAdmin(c.Request().Context(), domain.ToggleQuestion{ID: domain.QuestionID(id)})
	return c.JSON(http.StatusAccepted, commandAccepted{Status: "accepted"})
}

// handleState returns a point-in-time snapshot of all state cells.
func (s *Server) handleState(c echo.Context) error {
	return c.JSON(http.StatusOK, stateResponse{
		Slide:      s.hub.CurrentSlide(),
		Questions:  s.hub.CurrentQuestions().List(),
		Population: int(s.hub.CurrentPopulation()),
	})
}
