package middleware

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"tunneld/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/pretty"
)

// maxLoggedBodyLen caps the request body fragment carried into the access log
const maxLoggedBodyLen = 1000

// Logger is the access log middleware for the admin surface
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var bodyStr string
		if c.Request.Method == http.MethodPost {
			bodyStr = getRequestBody(c)
		}

		c.Next()

		// 404s are mostly scanners, keep them out of the log
		if c.Writer.Status() == http.StatusNotFound {
			return
		}

		latency := time.Since(start)

		if bodyStr != "" {
			logger.Infof("[GIN] %3d | %13v | %15s | %s %s | body: %s",
				c.Writer.Status(), latency, c.ClientIP(), c.Request.Method, c.Request.RequestURI, bodyStr)
			return
		}
		logger.Infof("[GIN] %3d | %13v | %15s | %s %s",
			c.Writer.Status(), latency, c.ClientIP(), c.Request.Method, c.Request.RequestURI)
	}
}

// getRequestBody reads and restores the request body
func getRequestBody(c *gin.Context) string {
	var bodyBytes []byte
	if c.Request.Body != nil {
		bodyBytes, _ = io.ReadAll(c.Request.Body)
		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
	}
	return CompressBody(string(bodyBytes))
}

// CompressBody strips JSON whitespace and truncates oversized bodies
func CompressBody(body string) string {
	if len(body) == 0 {
		return ""
	}

	compressed := pretty.Ugly([]byte(body))
	if len(compressed) > maxLoggedBodyLen {
		return string(compressed[:maxLoggedBodyLen]) + "..."
	}
	return string(compressed)
}
