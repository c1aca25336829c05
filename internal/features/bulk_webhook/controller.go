package bulk_webhook

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

type BulkWebhookController struct {
	service BulkWebhookService
}

func NewBulkWebhookController(service BulkWebhookService) *BulkWebhookController {
	return &BulkWebhookController{service: service}
}

func errorResponse(c *fiber.Ctx, err error) error {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ve.Error(), "title": ve.Title, "fields": ve.Fields})
	case errors.Is(err, ErrWebhookNotFound), errors.Is(err, ErrLogNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrDuplicateName):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case IsValidation(err):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrDeliveryFailed):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}

// CreateBulkWebhook godoc
// @Summary Create bulk webhook
// @Tags bulk-webhooks
// @Accept json
// @Produce json
// @Param webhook body BulkWebhook true "Bulk webhook"
// @Success 201 {object} BulkWebhook
// @Failure 400 {object} map[string]interface{}
// @Router /api/bulk-webhooks [post]
func (ctrl *BulkWebhookController) CreateBulkWebhook(c *fiber.Ctx) error {
	var webhook BulkWebhook
	if err := c.BodyParser(&webhook); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := ctrl.service.Create(c.UserContext(), &webhook); err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(webhook.Redacted())
}

// ListBulkWebhooks godoc
// @Summary List bulk webhooks
// @Tags bulk-webhooks
// @Produce json
// @Success 200 {array} BulkWebhook
// @Router /api/bulk-webhooks [get]
func (ctrl *BulkWebhookController) ListBulkWebhooks(c *fiber.Ctx) error {
	webhooks, err := ctrl.service.List(c.UserContext())
	if err != nil {
		return errorResponse(c, err)
	}
	for i := range webhooks {
		webhooks[i] = webhooks[i].Redacted()
	}
	return c.JSON(webhooks)
}

// GetBulkWebhook godoc
// @Summary Get bulk webhook
// @Tags bulk-webhooks
// @Produce json
// @Param id path string true "Bulk webhook ID"
// @Success 200 {object} BulkWebhook
// @Failure 404 {object} map[string]interface{}
// @Router /api/bulk-webhooks/{id} [get]
func (ctrl *BulkWebhookController) GetBulkWebhook(c *fiber.Ctx) error {
	webhook, err := ctrl.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(webhook.Redacted())
}

// UpdateBulkWebhook godoc
// @Summary Update bulk webhook
// @Tags bulk-webhooks
// @Accept json
// @Produce json
// @Param id path string true "Bulk webhook ID"
// @Param webhook body BulkWebhook true "Bulk webhook"
// @Success 200 {object} BulkWebhook
// @Router /api/bulk-webhooks/{id} [put]
func (ctrl *BulkWebhookController) UpdateBulkWebhook(c *fiber.Ctx) error {
	var webhook BulkWebhook
	if err := c.BodyParser(&webhook); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := ctrl.service.Update(c.UserContext(), c.Params("id"), &webhook); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(webhook.Redacted())
}

// DeleteBulkWebhook godoc
// @Summary Delete bulk webhook
// @Tags bulk-webhooks
// @Param id path string true "Bulk webhook ID"
// @Success 204
// @Router /api/bulk-webhooks/{id} [delete]
func (ctrl *BulkWebhookController) DeleteBulkWebhook(c *fiber.Ctx) error {
	if err := ctrl.service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return errorResponse(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SendNow godoc
// @Summary Send a bulk webhook immediately
// @Tags bulk-webhooks
// @Produce json
// @Param id path string true "Bulk webhook ID"
// @Success 200 {object} SendResult
// @Failure 502 {object} map[string]interface{}
// @Router /api/bulk-webhooks/{id}/send [post]
func (ctrl *BulkWebhookController) SendNow(c *fiber.Ctx) error {
	result, err := ctrl.service.SendNow(c.UserContext(), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(result)
}

// ListWebhookLogs godoc
// @Summary Request logs for one bulk webhook
// @Tags bulk-webhooks
// @Produce json
// @Param id path string true "Bulk webhook ID"
// @Param limit query int false "Max entries"
// @Success 200 {array} RequestLog
// @Router /api/bulk-webhooks/{id}/logs [get]
func (ctrl *BulkWebhookController) ListWebhookLogs(c *fiber.Ctx) error {
	limit, _ := strconv.ParseInt(c.Query("limit", "50"), 10, 64)
	logs, err := ctrl.service.ListRequestLogs(c.UserContext(), c.Params("id"), limit)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(logs)
}

// ListRequestLogs godoc
// @Summary List webhook request logs
// @Tags request-logs
// @Produce json
// @Param webhook_id query string false "Bulk webhook ID"
// @Param limit query int false "Max entries"
// @Success 200 {array} RequestLog
// @Router /api/request-logs [get]
func (ctrl *BulkWebhookController) ListRequestLogs(c *fiber.Ctx) error {
	limit, _ := strconv.ParseInt(c.Query("limit", "50"), 10, 64)
	logs, err := ctrl.service.ListRequestLogs(c.UserContext(), c.Query("webhook_id"), limit)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(logs)
}

// GetRequestLog godoc
// @Summary Get webhook request log
// @Tags request-logs
// @Produce json
// @Param id path string true "Request log ID"
// @Success 200 {object} RequestLog
// @Failure 404 {object} map[string]interface{}
// @Router /api/request-logs/{id} [get]
func (ctrl *BulkWebhookController) GetRequestLog(c *fiber.Ctx) error {
	log, err := ctrl.service.GetRequestLog(c.UserContext(), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(log)
}
