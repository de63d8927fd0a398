// Package pagination computes page windows over an ordered result set.
// It has no storage dependencies so it can be tested on its own.
package pagination

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

const (
	// DefaultPageSize is used when a caller passes a non-positive page size.
	DefaultPageSize = 10

	// MaxPage bounds page numbers read from requests.
	MaxPage = math.MaxInt32
)

// Page describes one window of a listing.
type Page struct {
	Number     int  `json:"current"`
	Offset     int  `json:"-"`
	Limit      int  `json:"-"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	NextPage   *int `json:"next_page"`
	HasPrev    bool `json:"has_prev"`
	PrevPage   *int `json:"prev_page"`
}

// Paginate returns the window for page (1-based) of size items over total records.
// page is clamped to 1 and size falls back to DefaultPageSize. page is also
// capped so that page*size fits in an int; such a page is always past the end.
func Paginate(total, page, size int) Page {
	if size < 1 {
		size = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}
	if maxPage := math.MaxInt / size; page > maxPage {
		page = maxPage
	}
	if total < 0 {
		total = 0
	}

	totalPages := total / size
	if total%size != 0 {
		totalPages++
	}

	p := Page{
		Number:     page,
		Offset:     (page - 1) * size,
		Limit:      size,
		Total:      total,
		TotalPages: totalPages,
	}

	if page < totalPages {
		next := page + 1
		p.HasNext = true
		p.NextPage = &next
	}
	if prev := page - 1; prev >= 1 {
		p.HasPrev = true
		p.PrevPage = &prev
	}
	return p
}

// ParsePage reads a page query value. Missing or non-numeric values give 1,
// anything below 1 is clamped to 1 and anything above MaxPage to MaxPage.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if errors.Is(err, strconv.ErrRange) && n > 0 {
		return MaxPage
	}
	if err != nil || n < 1 {
		return 1
	}
	if n > MaxPage {
		return MaxPage
	}
	return n
}
