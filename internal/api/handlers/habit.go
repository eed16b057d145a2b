package handlers

import (
	"net/http"

	"github.com/dom/habit-proofs/internal/api/httputil"
	"github.com/dom/habit-proofs/internal/api/middleware"
	"github.com/dom/habit-proofs/internal/domain"
	"github.com/dom/habit-proofs/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type HabitHandler struct {
	habitService *service.HabitService
}

func NewHabitHandler(habitService *service.HabitService) *HabitHandler {
	return &HabitHandler{habitService: habitService}
}

type CreateHabitRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type HabitResponse struct {
	Habit *domain.Habit `json:"habit"`
}

type HabitListResponse struct {
	Habits []*domain.Habit `json:"habits"`
}

func (h *HabitHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	var req CreateHabitRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}

	habit, err := h.habitService.CreateHabit(r.Context(), service.CreateHabitInput{
		CreatorID:   userID,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		writeServiceError(w, "HabitHandler.Create", err)
		return
	}

	httputil.WriteJSONResponse(w, http.StatusOK, HabitResponse{Habit: habit})
}

func (h *HabitHandler) List(w http.ResponseWriter, r *http.Request) {
	habits, err := h.habitService.ListHabits(r.Context())
	if err != nil {
		writeServiceError(w, "HabitHandler.List", err)
		return
	}

	httputil.WriteJSONResponse(w, http.StatusOK, HabitListResponse{Habits: habits})
}

func (h *HabitHandler) Get(w http.ResponseWriter, r *http.Request) {
	habitID, ok := pathID(w, r, domain.ErrHabitNotFound)
	if !ok {
		return
	}

	habit, err := h.habitService.GetHabit(r.Context(), habitID)
	if err != nil {
		writeServiceError(w, "HabitHandler.Get", err)
		return
	}

	httputil.WriteJSONResponse(w, http.StatusOK, HabitResponse{Habit: habit})
}

func (h *HabitHandler) Join(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	habitID, ok := pathID(w, r, domain.ErrHabitNotFound)
	if !ok {
		return
	}

	habit, err := h.habitService.JoinHabit(r.Context(), userID, habitID)
	if err != nil {
		writeServiceError(w, "HabitHandler.Join", err)
		return
	}

	httputil.WriteJSONResponse(w, http.StatusOK, HabitResponse{Habit: habit})
}

// pathID parses the {id} route parameter. An id that is not a UUID cannot
// name a stored record, so it is answered with notFound.
func pathID(w http.ResponseWriter, r *http.Request, notFound error) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "pathID", notFound)
		return uuid.Nil, false
	}
	return id, true
}
