package http

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Result page limits shared by REST and GraphQL.
const (
	defaultLimit = 50
	maxLimit     = 200
)

// PaginatedResponse wraps list results with pagination metadata.
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// Pagination contains offset-based pagination info.
type Pagination struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	Total  int `json:"total"`
}

// newPagination normalizes a requested window over total items.
func newPagination(offset, limit, total int) Pagination {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > maxLimit {
		limit = defaultLimit
	}
	return Pagination{Offset: offset, Limit: limit, Total: total}
}

// Window returns the [start, end) indexes the pagination selects. Both are
// Total when Offset is past the end.
func (p Pagination) Window() (int, int) {
	if p.Offset >= p.Total {
		return p.Total, p.Total
	}
	end := p.Offset + p.Limit
	if end > p.Total {
		end = p.Total
	}
	return p.Offset, end
}

// SetLinkHeaders adds RFC 8288 Link headers for paginated responses.
// It uses the current request path.
func SetLinkHeaders(c *fiber.Ctx, p Pagination) {
	base := c.Path()
	link := func(offset int, rel string) string {
		return fmt.Sprintf(`<%s?offset=%d&limit=%d>; rel="%s"`, base, offset, p.Limit, rel)
	}

	links := []string{link(0, "first")}
	if p.Offset > 0 {
		links = append(links, link(max(p.Offset-p.Limit, 0), "prev"))
	}
	if p.Offset+p.Limit < p.Total {
		links = append(links, link(p.Offset+p.Limit, "next"))
	}
	links = append(links, link(max(p.Total-p.Limit, 0), "last"))

	c.Set("Link", strings.Join(links, ", "))
}
