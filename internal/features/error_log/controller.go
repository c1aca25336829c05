package error_log

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

type ErrorLogController struct {
	service ErrorLogService
}

func NewErrorLogController(service ErrorLogService) *ErrorLogController {
	return &ErrorLogController{service: service}
}

// ListErrorLogs godoc
// @Summary List error logs
// @Description Failures recorded by scheduled jobs, newest first
// @Tags error-logs
// @Produce json
// @Param limit query int false "Max entries"
// @Success 200 {array} ErrorLog
// @Failure 500 {object} map[string]interface{}
// @Router /api/error-logs [get]
func (ctrl *ErrorLogController) ListErrorLogs(c *fiber.Ctx) error {
	limit, _ := strconv.ParseInt(c.Query("limit", "50"), 10, 64)

	logs, err := ctrl.service.List(c.UserContext(), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(logs)
}
