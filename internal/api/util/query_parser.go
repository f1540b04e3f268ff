package util

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// ParsePage reads the "page" query parameter. Missing, malformed and
// non-positive values give 1.
func ParsePage(c *gin.Context) int {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// ParseID reads a positive integer path parameter.
func ParseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}
