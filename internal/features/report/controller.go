package report

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

type ReportController struct {
	ReportService ReportService
}

func NewReportController(reportService ReportService) *ReportController {
	return &ReportController{ReportService: reportService}
}

type runRequest struct {
	Filters map[string]any `json:"filters"`
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, ErrReportNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrInvalidReport), errors.Is(err, ErrMissingFilters), errors.Is(err, ErrUnsupportedFormat):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// Create godoc
// @Summary Create report
// @Tags reports
// @Accept json
// @Produce json
// @Param report body Report true "Report definition"
// @Success 201 {object} Report
// @Router /api/reports [post]
func (c *ReportController) Create(ctx *fiber.Ctx) error {
	var report Report
	if err := ctx.BodyParser(&report); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := c.ReportService.CreateReport(ctx.UserContext(), &report); err != nil {
		return ctx.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusCreated).JSON(report.Redacted())
}

// List godoc
// @Summary List reports
// @Tags reports
// @Produce json
// @Success 200 {array} Report
// @Router /api/reports [get]
func (c *ReportController) List(ctx *fiber.Ctx) error {
	reports, err := c.ReportService.ListReports(ctx.UserContext())
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	out := make([]Report, len(reports))
	for i, r := range reports {
		out[i] = r.Redacted()
	}
	return ctx.JSON(out)
}

// Get godoc
// @Summary Get report
// @Tags reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} Report
// @Failure 404 {object} map[string]interface{}
// @Router /api/reports/{id} [get]
func (c *ReportController) Get(ctx *fiber.Ctx) error {
	report, err := c.ReportService.GetReport(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return ctx.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(report.Redacted())
}

// Update godoc
// @Summary Update report
// @Tags reports
// @Accept json
// @Produce json
// @Param id path string true "Report ID"
// @Param report body Report true "Report definition"
// @Success 200 {object} Report
// @Router /api/reports/{id} [put]
func (c *ReportController) Update(ctx *fiber.Ctx) error {
	id := ctx.Params("id")
	var report Report
	if err := ctx.BodyParser(&report); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := c.ReportService.UpdateReport(ctx.UserContext(), id, &report); err != nil {
		return ctx.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(report.Redacted())
}

// Delete godoc
// @Summary Delete report
// @Tags reports
// @Param id path string true "Report ID"
// @Success 204
// @Router /api/reports/{id} [delete]
func (c *ReportController) Delete(ctx *fiber.Ctx) error {
	if err := c.ReportService.DeleteReport(ctx.UserContext(), ctx.Params("id")); err != nil {
		return ctx.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}

// Run godoc
// @Summary Preview report output
// @Tags reports
// @Accept json
// @Produce json
// @Param id path string true "Report ID"
// @Param body body runRequest false "Filters"
// @Success 200 {object} Result
// @Router /api/reports/{id}/run [post]
func (c *ReportController) Run(ctx *fiber.Ctx) error {
	var req runRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
	}

	result, err := c.ReportService.RunReport(ctx.UserContext(), ctx.Params("id"), req.Filters)
	if err != nil {
		return ctx.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(result)
}

// Export godoc
// @Summary Export report
// @Tags reports
// @Param id path string true "Report ID"
// @Param format query string false "csv or xlsx"
// @Success 200 {file} file
// @Router /api/reports/{id}/export [get]
func (c *ReportController) Export(ctx *fiber.Ctx) error {
	format := ctx.Query("format", "csv")

	filters := map[string]any{}
	for k, v := range ctx.Queries() {
		if k != "format" {
			filters[k] = v
		}
	}

	data, filename, err := c.ReportService.ExportReport(ctx.UserContext(), ctx.Params("id"), format, filters)
	if err != nil {
		return ctx.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}

	if format == "xlsx" {
		ctx.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	} else {
		ctx.Set("Content-Type", "text/csv")
	}
	ctx.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	return ctx.Send(data)
}
