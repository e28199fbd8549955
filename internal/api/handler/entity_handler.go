package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/entityhub/entity-manager/internal/api/metrics"
	"github.com/entityhub/entity-manager/internal/core/domain"
	"github.com/entityhub/entity-manager/internal/core/ports"
)

// EntityHandler serves the owner-scoped entity CRUD routes.
type EntityHandler struct {
	service ports.EntityService
}

func NewEntityHandler(service ports.EntityService) *EntityHandler {
	return &EntityHandler{service: service}
}

type listEntitiesQuery struct {
	Category string `query:"category"`
	Status   string `query:"status"   validate:"omitempty,oneof=active archived deleted"`
	Priority string `query:"priority" validate:"omitempty,oneof=low medium high"`
	Search   string `query:"search"`
}

type createEntityRequest struct {
	Title       string  `json:"title"       validate:"required,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Category    string  `json:"category"    validate:"required,min=1,max=50"`
	Priority    string  `json:"priority"    validate:"omitempty,oneof=low medium high"`
}

type updateEntityRequest struct {
	Title       *string        `json:"title"       validate:"omitempty,min=1,max=100"`
	Description nullableString `json:"description" validate:"omitempty,max=500"`
	Category    *string        `json:"category"    validate:"omitempty,min=1,max=50"`
	Status      *string        `json:"status"      validate:"omitempty,oneof=active archived deleted"`
	Priority    *string        `json:"priority"    validate:"omitempty,oneof=low medium high"`
}

func (r updateEntityRequest) patch() domain.EntityPatch {
	p := domain.EntityPatch{
		Title:    r.Title,
		Category: r.Category,
	}
	if r.Description.Set {
		if r.Description.Value == nil {
			p.ClearDescription = true
		} else {
			p.Description = r.Description.Value
		}
	}
	if r.Status != nil {
		s := domain.EntityStatus(*r.Status)
		p.Status = &s
	}
	if r.Priority != nil {
		pr := domain.Priority(*r.Priority)
		p.Priority = &pr
	}
	return p
}

// List returns the caller's entities, newest first.
//
// @Summary      List entities
// @Tags         entities
// @Produce      json
// @Security     BearerAuth
// @Param        category  query     string  false  "Exact category"
// @Param        status    query     string  false  "active, archived or deleted"
// @Param        priority  query     string  false  "low, medium or high"
// @Param        search    query     string  false  "Case-insensitive match on title or description"
// @Success      200       {object}  envelope{data=[]domain.Entity}
// @Failure      400       {object}  errorResponse
// @Failure      401       {object}  errorResponse
// @Failure      429       {object}  map[string]any
// @Router       /api/entities [get]
func (h *EntityHandler) List(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var q listEntitiesQuery
	if err := bindAndValidate(c, &q); err != nil {
		return err
	}

	entities, err := h.service.List(c.Request().Context(), userID, domain.EntityFilter{
		Category: q.Category,
		Status:   domain.EntityStatus(q.Status),
		Priority: domain.Priority(q.Priority),
		Search:   q.Search,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, entities, "")
}

// Create adds an entity owned by the caller.
//
// @Summary      Create an entity
// @Tags         entities
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createEntityRequest  true  "Entity fields"
// @Success      201   {object}  envelope{data=domain.Entity}
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /api/entities [post]
func (h *EntityHandler) Create(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req createEntityRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	entity, err := h.service.Create(c.Request().Context(), userID, ports.CreateEntityInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    domain.Priority(req.Priority),
	})
	if err != nil {
		return err
	}

	metrics.EntityOperationsTotal.WithLabelValues("create").Inc()
	return respond(c, http.StatusCreated, entity, "Entity created successfully")
}

// Get returns one of the caller's entities.
//
// @Summary      Get an entity
// @Tags         entities
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Entity id"
// @Success      200  {object}  envelope{data=domain.Entity}
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/entities/{id} [get]
func (h *EntityHandler) Get(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	entity, err := h.service.Get(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, entity, "")
}

// Update applies a partial update; "description": null clears it.
//
// @Summary      Update an entity
// @Tags         entities
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Entity id"
// @Param        body  body      updateEntityRequest  true  "Fields to change"
// @Success      200   {object}  envelope{data=domain.Entity}
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/entities/{id} [put]
func (h *EntityHandler) Update(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req updateEntityRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	entity, err := h.service.Update(c.Request().Context(), userID, c.Param("id"), req.patch())
	if err != nil {
		return err
	}

	metrics.EntityOperationsTotal.WithLabelValues("update").Inc()
	return respond(c, http.StatusOK, entity, "Entity updated successfully")
}

// Delete removes one of the caller's entities.
//
// @Summary      Delete an entity
// @Tags         entities
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Entity id"
// @Success      200  {object}  envelope
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/entities/{id} [delete]
func (h *EntityHandler) Delete(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), userID, c.Param("id")); err != nil {
		return err
	}

	metrics.EntityOperationsTotal.WithLabelValues("delete").Inc()
	return respond(c, http.StatusOK, nil, "Entity deleted successfully")
}
