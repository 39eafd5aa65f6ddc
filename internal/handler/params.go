package handler

import (
	"quiz-class/internal/dto"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// parsePagination reads limit, offset and page query parameters. Malformed
// values fall back to defaults instead of failing the request.
func parsePagination(c *fiber.Ctx) dto.Pagination {
	var pagination dto.Pagination
	if err := c.QueryParser(&pagination); err != nil {
		pagination = dto.Pagination{}
	}
	pagination.Normalize(defaultPageSize, maxPageSize)
	return pagination
}
