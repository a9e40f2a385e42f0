package http

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
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

// SetLinkHeaders adds RFC 8288 Link headers (first/prev/next/last) built
// from the current request path.
func SetLinkHeaders(c *fiber.Ctx, p Pagination) {
	type link struct {
		rel    string
		offset int
	}

	links := []link{{rel: "first", offset: 0}}

	if p.Offset > 0 {
		prev := p.Offset - p.Limit
		if prev < 0 {
			prev = 0
		}
		links = append(links, link{rel: "prev", offset: prev})
	}

	if p.Offset+p.Limit < p.Total {
		links = append(links, link{rel: "next", offset: p.Offset + p.Limit})
	}

	last := p.Total - p.Limit
	if last < 0 {
		last = 0
	}
	links = append(links, link{rel: "last", offset: last})

	parts := make([]string, 0, len(links))
	for _, l := range links {
		parts = append(parts, fmt.Sprintf(`<%s?offset=%d&limit=%d>; rel=%q`, c.Path(), l.offset, p.Limit, l.rel))
	}
	c.Set("Link", strings.Join(parts, ", "))
}
