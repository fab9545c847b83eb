package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// PageResponse is the pagination envelope of every list endpoint.
type PageResponse struct {
	Count    int64       `json:"count"`
	Next     *string     `json:"next"`
	Previous *string     `json:"previous"`
	Results  interface{} `json:"results"`
}

type pageParams struct {
	Page  int
	Limit int
}

func (p pageParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// parsePageParams reads the page/limit query parameters, falling back to
// page 1 and the configured default page size.
func parsePageParams(c *gin.Context, defaultLimit int) pageParams {
	page := 1
	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		page = v
	}
	limit := defaultLimit
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		limit = v
	}
	return pageParams{Page: page, Limit: limit}
}

// paginate builds the envelope with next/previous links derived from the
// request URL.
func paginate(c *gin.Context, params pageParams, count int64, results interface{}) PageResponse {
	resp := PageResponse{Count: count, Results: results}

	if int64(params.Page*params.Limit) < count {
		next := pageURL(c, params.Page+1)
		resp.Next = &next
	}
	if params.Page > 1 {
		prev := pageURL(c, params.Page-1)
		resp.Previous = &prev
	}
	return resp
}

func pageURL(c *gin.Context, page int) string {
	u := *c.Request.URL
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}
