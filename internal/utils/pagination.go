package utils

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// Pagination holds pagination parameters.
type Pagination struct {
	Page   int
	Limit  int
	Offset int
}

// ParsePagination reads page and limit query params with sane defaults.
func ParsePagination(c *fiber.Ctx) Pagination {
	page := parseInt(c.Query("page", "1"), 1)
	limit := parseInt(c.Query("limit", "20"), 20)
	if limit <= 0 {
		limit = 20
	}
	if page <= 0 {
		page = 1
	}

	return Pagination{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

// PageMeta builds the pagination envelope attached to list responses.
func PageMeta(pg Pagination, total int64) fiber.Map {
	pages := int64(0)
	if pg.Limit > 0 {
		pages = (total + int64(pg.Limit) - 1) / int64(pg.Limit)
	}
	return fiber.Map{
		"page":  pg.Page,
		"limit": pg.Limit,
		"total": total,
		"pages": pages,
	}
}

func parseInt(value string, fallback int) int {
	if parsed, err := strconv.Atoi(value); err == nil {
		return parsed
	}
	return fallback
}
