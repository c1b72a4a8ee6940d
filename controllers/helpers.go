package controllers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
)

const maxCreateRetries = 3

// parseID reads the numeric :id path parameter.
func parseID(c *gin.Context) (uint, error) {
	id64, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id64 == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id64), nil
}

func getInt(c *gin.Context, key string, fallback int) int {
	if v, err := strconv.Atoi(c.Query(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}

// currentUserID normalizes the user_id claim, which arrives as float64 from
// jwt.MapClaims.
func currentUserID(c *gin.Context) (uint, error) {
	raw, ok := c.Get("user_id")
	if !ok {
		return 0, errors.New("user_id not found in context")
	}
	switch v := raw.(type) {
	case uint:
		return v, nil
	case int:
		return uint(v), nil
	case int64:
		return uint(v), nil
	case float64:
		return uint(v), nil
	case string:
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return uint(n), nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// performedBy is the actor reference recorded on ledger rows.
func performedBy(c *gin.Context) string {
	if raw, ok := c.Get("username"); ok {
		if s, ok := raw.(string); ok && s != "" {
			return s
		}
	}
	return "system"
}
