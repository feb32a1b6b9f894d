package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/upb/coffee-shop/auth"
	"github.com/upb/coffee-shop/middleware"
	"github.com/upb/coffee-shop/models"
	"github.com/upb/coffee-shop/services"
	"github.com/upb/coffee-shop/services/drink"
	"github.com/upb/coffee-shop/utils"
	"go.uber.org/zap"
)

// maxBodyBytes caps request bodies
const maxBodyBytes = 1 << 20

// CreateDrinkRequest represents a request to create a drink.
// recipe may be a single ingredient object or a list.
type CreateDrinkRequest struct {
	Title  string        `json:"title" validate:"required,max=80"`
	Recipe models.Recipe `json:"recipe" validate:"required,min=1,dive"`
}

// UpdateDrinkRequest represents a partial update; absent fields are unchanged
type UpdateDrinkRequest struct {
	Title  *string       `json:"title,omitempty" validate:"omitempty,max=80"`
	Recipe models.Recipe `json:"recipe,omitempty" validate:"omitempty,min=1,dive"`
}

// DrinkService defines the interface for drink operations
type DrinkService interface {
	// ListDrinks returns every drink on the menu
	ListDrinks(ctx context.Context) ([]*models.Drink, error)

	// CreateDrink adds a drink to the menu
	CreateDrink(ctx context.Context, title string, recipe models.Recipe) (*models.Drink, error)

	// UpdateDrink applies a partial update
	UpdateDrink(ctx context.Context, id int, req drink.UpdateRequest) (*models.Drink, error)

	// DeleteDrink removes a drink
	DeleteDrink(ctx context.Context, id int) error
}

// DrinkHandler handles drink-related HTTP requests
type DrinkHandler struct {
	service DrinkService
	logger  *zap.Logger
}

// NewDrinkHandler creates a new DrinkHandler
func NewDrinkHandler(service DrinkService, logger *zap.Logger) *DrinkHandler {
	return &DrinkHandler{
		service: service,
		logger:  logger,
	}
}

// HandleListDrinks handles GET /drinks (public, short view)
func (h *DrinkHandler) HandleListDrinks(w http.ResponseWriter, r *http.Request, _ *auth.Claims) {
	drinks, err := h.service.ListDrinks(r.Context())
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	views := make([]models.DrinkShort, len(drinks))
	for i, d := range drinks {
		views[i] = d.Short()
	}

	h.write(w, r, utils.WriteDrinks(w, views))
}

// HandleListDrinksDetail handles GET /drinks-detail (long view)
func (h *DrinkHandler) HandleListDrinksDetail(w http.ResponseWriter, r *http.Request, claims *auth.Claims) {
	drinks, err := h.service.ListDrinks(r.Context())
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	views := make([]models.DrinkLong, len(drinks))
	for i, d := range drinks {
		views[i] = d.Long()
	}

	h.write(w, r, utils.WriteDrinks(w, views))
}

// HandleCreateDrink handles POST /drinks
func (h *DrinkHandler) HandleCreateDrink(w http.ResponseWriter, r *http.Request, claims *auth.Claims) {
	var req CreateDrinkRequest
	if err := decodeBody(w, r, &req); err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, r, err, h.logger)
		return
	}

	created, err := h.service.CreateDrink(r.Context(), req.Title, req.Recipe)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	h.logger.Info("drink created",
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
		zap.String("sub", claimsSubject(claims)),
		zap.Int("drink_id", created.ID))

	h.write(w, r, utils.WriteDrinks(w, []models.DrinkLong{created.Long()}))
}

// HandleUpdateDrink handles PATCH /drinks/{id}
func (h *DrinkHandler) HandleUpdateDrink(w http.ResponseWriter, r *http.Request, claims *auth.Claims) {
	id, ok := parseDrinkID(r)
	if !ok {
		h.write(w, r, utils.WriteNotFound(w))
		return
	}

	var req UpdateDrinkRequest
	if err := decodeBody(w, r, &req); err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, r, err, h.logger)
		return
	}

	updated, err := h.service.UpdateDrink(r.Context(), id, drink.UpdateRequest{
		Title:  req.Title,
		Recipe: req.Recipe,
	})
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	h.logger.Info("drink updated",
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
		zap.String("sub", claimsSubject(claims)),
		zap.Int("drink_id", updated.ID))

	h.write(w, r, utils.WriteDrinks(w, []models.DrinkLong{updated.Long()}))
}

// HandleDeleteDrink handles DELETE /drinks/{id}
func (h *DrinkHandler) HandleDeleteDrink(w http.ResponseWriter, r *http.Request, claims *auth.Claims) {
	id, ok := parseDrinkID(r)
	if !ok {
		h.write(w, r, utils.WriteNotFound(w))
		return
	}

	if err := h.service.DeleteDrink(r.Context(), id); err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	h.logger.Info("drink deleted",
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
		zap.String("sub", claimsSubject(claims)),
		zap.Int("drink_id", id))

	h.write(w, r, utils.WriteDeleted(w, id))
}

func (h *DrinkHandler) write(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		h.logger.Error("failed to write response",
			zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
			zap.Error(err))
	}
}

// decodeBody decodes a JSON body into dst. An empty body leaves dst untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return services.WrapError(services.ErrorTypeUnprocessable, services.ErrMalformedBody.Message, err)
	}
	return nil
}

// parseDrinkID reads the {id} path parameter; only positive integers are valid
func parseDrinkID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func claimsSubject(claims *auth.Claims) string {
	if claims == nil {
		return ""
	}
	return claims.Subject
}
