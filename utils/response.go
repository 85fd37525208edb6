package utils

import (
	"github.com/gin-gonic/gin"
)

// JSONItem sends {"success": true, "item": item}
func JSONItem(c *gin.Context, status int, item any) {
	c.JSON(status, gin.H{
		"success": true,
		"item":    item,
	})
}

// JSONError sends {"success": false, "error": message}
func JSONError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error":   message,
	})
}
