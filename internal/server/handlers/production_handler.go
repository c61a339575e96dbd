package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/fournil/internal/domain/models"
	"github.com/mamadbah2/fournil/internal/repository"
	"github.com/mamadbah2/fournil/internal/service/batches"
	"github.com/mamadbah2/fournil/internal/service/orders"
	"github.com/mamadbah2/fournil/internal/service/production"
	"github.com/mamadbah2/fournil/internal/service/steps"
)

// ProductionHandler exposes the workflow engine over HTTP.
type ProductionHandler struct {
	engine *production.Service
	logger *zap.Logger
}

// NewProductionHandler constructs the HTTP handler adapter.
func NewProductionHandler(engine *production.Service, logger *zap.Logger) *ProductionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductionHandler{engine: engine, logger: logger}
}

type createOrderRequest struct {
	ProductRef      string          `json:"product_ref" binding:"required"`
	PlannedQuantity float64         `json:"planned_quantity" binding:"required,gt=0"`
	Priority        models.Priority `json:"priority"`
	TargetDate      *time.Time      `json:"target_date"`
	OriginRef       string          `json:"origin_ref"`
}

// CreateOrder opens a production order.
func (h *ProductionHandler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	order, err := h.engine.CreateOrder(c.Request.Context(), orders.CreateInput{
		ProductRef:      req.ProductRef,
		PlannedQuantity: req.PlannedQuantity,
		Priority:        req.Priority,
		TargetDate:      req.TargetDate,
		OriginRef:       req.OriginRef,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

// ListActiveOrders returns the operator queue.
func (h *ProductionHandler) ListActiveOrders(c *gin.Context) {
	active, err := h.engine.ListActiveOrders(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": active})
}

// GetProgress returns the completion readout for an order.
func (h *ProductionHandler) GetProgress(c *gin.Context) {
	prog, err := h.engine.GetProgress(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, prog)
}

// ListStageLogs returns an order's stage logs, oldest first.
func (h *ProductionHandler) ListStageLogs(c *gin.Context) {
	logs, err := h.engine.ListStageLogs(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stage_logs": logs})
}

type mixingFieldsRequest struct {
	RecipeRef        string                `json:"recipe_ref" binding:"required"`
	MixerRef         string                `json:"mixer_ref" binding:"required"`
	BatchCount       float64               `json:"batch_count" binding:"required,gt=0"`
	FinalTemperature float64               `json:"final_temperature" binding:"required"`
	SlowMixMinutes   float64               `json:"slow_mix_minutes" binding:"required"`
	FastMixMinutes   float64               `json:"fast_mix_minutes" binding:"required"`
	Texture          models.TextureOutcome `json:"texture" binding:"required"`
}

type startStageRequest struct {
	Stage       models.Stage         `json:"stage" binding:"required"`
	OperatorRef string               `json:"operator_ref"`
	Mixing      *mixingFieldsRequest `json:"mixing"`
}

// StartStage opens a stage log for an order.
func (h *ProductionHandler) StartStage(c *gin.Context) {
	var req startStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	var mixing *models.MixingFields
	if req.Mixing != nil {
		mixing = &models.MixingFields{
			RecipeRef:        req.Mixing.RecipeRef,
			MixerRef:         req.Mixing.MixerRef,
			BatchCount:       req.Mixing.BatchCount,
			FinalTemperature: req.Mixing.FinalTemperature,
			SlowMixMinutes:   req.Mixing.SlowMixMinutes,
			FastMixMinutes:   req.Mixing.FastMixMinutes,
			Texture:          req.Mixing.Texture,
		}
	}

	log, err := h.engine.StartStage(c.Request.Context(), c.Param("id"), req.Stage, req.OperatorRef, mixing)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, log)
}

type completeStageRequest struct {
	OutputQuantity float64             `json:"output_quantity" binding:"required,gt=0"`
	LossQuantity   *float64            `json:"loss_quantity"`
	Quality        *models.QualityData `json:"quality"`
	Photos         []string            `json:"photos"`
}

// CompleteStage closes a stage log with its final output quantity.
func (h *ProductionHandler) CompleteStage(c *gin.Context) {
	var req completeStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	log, err := h.engine.CompleteStage(c.Request.Context(), c.Param("id"), steps.CloseInput{
		OutputQuantity: req.OutputQuantity,
		LossQuantity:   req.LossQuantity,
		Quality:        req.Quality,
		Photos:         req.Photos,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, log)
}

type recordBatchRequest struct {
	RecipeRef      string                   `json:"recipe_ref" binding:"required"`
	MixerRef       string                   `json:"mixer_ref" binding:"required"`
	BatchCount     float64                  `json:"batch_count" binding:"required,gt=0"`
	Temperature    float64                  `json:"temperature"`
	Texture        models.TextureOutcome    `json:"texture" binding:"required"`
	SlowMixMinutes float64                  `json:"slow_mix_minutes"`
	FastMixMinutes float64                  `json:"fast_mix_minutes"`
	Ingredients    []models.IngredientUsage `json:"ingredients"`
}

// RecordBatch records a mixing pass against a stage log.
func (h *ProductionHandler) RecordBatch(c *gin.Context) {
	var req recordBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	batch, err := h.engine.RecordBatch(c.Request.Context(), c.Param("id"), batches.RecordInput{
		RecipeRef:      req.RecipeRef,
		MixerRef:       req.MixerRef,
		BatchCount:     req.BatchCount,
		Temperature:    req.Temperature,
		Texture:        req.Texture,
		SlowMixMinutes: req.SlowMixMinutes,
		FastMixMinutes: req.FastMixMinutes,
		Ingredients:    req.Ingredients,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, batch)
}

// ListBatches returns every batch of a stage log.
func (h *ProductionHandler) ListBatches(c *gin.Context) {
	list, err := h.engine.ListBatches(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"batches": list})
}

type updateBatchRequest struct {
	RecipeRef      *string                  `json:"recipe_ref"`
	MixerRef       *string                  `json:"mixer_ref"`
	BatchCount     *float64                 `json:"batch_count"`
	Temperature    *float64                 `json:"temperature"`
	Texture        *models.TextureOutcome   `json:"texture"`
	SlowMixMinutes *float64                 `json:"slow_mix_minutes"`
	FastMixMinutes *float64                 `json:"fast_mix_minutes"`
	Ingredients    []models.IngredientUsage `json:"ingredients"`
}

// UpdateBatch corrects a recorded mixing pass.
func (h *ProductionHandler) UpdateBatch(c *gin.Context) {
	var req updateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	batch, err := h.engine.UpdateBatch(c.Request.Context(), c.Param("id"), models.BatchUpdate{
		RecipeRef:      req.RecipeRef,
		MixerRef:       req.MixerRef,
		BatchCount:     req.BatchCount,
		Temperature:    req.Temperature,
		Texture:        req.Texture,
		SlowMixMinutes: req.SlowMixMinutes,
		FastMixMinutes: req.FastMixMinutes,
		Ingredients:    req.Ingredients,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, batch)
}

// DeleteBatch removes a mixing pass; the owning log keeps its shell.
func (h *ProductionHandler) DeleteBatch(c *gin.Context) {
	if err := h.engine.DeleteBatch(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *ProductionHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
	case errors.Is(err, orders.ErrInvalidOrder),
		errors.Is(err, steps.ErrUnknownStage),
		errors.Is(err, steps.ErrMissingMixingFields),
		errors.Is(err, steps.ErrUnexpectedMixingFields),
		errors.Is(err, batches.ErrInvalidBatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, production.ErrStageAlreadyOpen),
		errors.Is(err, steps.ErrAlreadyClosed),
		errors.Is(err, batches.ErrNotMixingLog):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.logger.Error("request failed", zap.Error(err), zap.String("path", c.Request.URL.Path))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
