/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/wacul/ptr"

	"github.com/blnkfinance/tally/config"
)

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(handlers...)
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/checks", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return r
}

func TestAuthenticate(t *testing.T) {
	config.MockDefaults(func(c *config.Configuration) {
		c.Server.Secure = true
		c.Server.SecretKey = "s3cret"
	})
	router := newRouter(Authenticate())

	tests := []struct {
		name     string
		path     string
		key      string
		wantCode int
	}{
		{name: "root is open", path: "/", wantCode: http.StatusOK},
		{name: "missing key", path: "/checks", wantCode: http.StatusUnauthorized},
		{name: "wrong key", path: "/checks", key: "guess", wantCode: http.StatusUnauthorized},
		{name: "valid key", path: "/checks", key: "s3cret", wantCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.key != "" {
				req.Header.Set(KeyHeader, tt.key)
			}
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)
			assert.Equal(t, tt.wantCode, resp.Code)
		})
	}
}

func TestAuthenticateInsecureMode(t *testing.T) {
	config.MockDefaults(nil)
	router := newRouter(Authenticate())

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/checks", nil))
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestAuthenticateMissingSecret(t *testing.T) {
	config.MockDefaults(func(c *config.Configuration) {
		c.Server.Secure = true
	})
	router := newRouter(Authenticate())

	req := httptest.NewRequest(http.MethodGet, "/checks", nil)
	req.Header.Set(KeyHeader, "anything")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	conf := &config.Configuration{
		RateLimit: config.RateLimitConfig{
			RequestsPerSecond:  ptr.Float64(1),
			Burst:              ptr.Int(1),
			CleanupIntervalSec: ptr.Int(60),
		},
	}
	router := newRouter(RateLimitMiddleware(conf))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/checks", nil)
		req.RemoteAddr = "203.0.113.7:4000"
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		codes = append(codes, resp.Code)
	}
	assert.Equal(t, http.StatusOK, codes[0])
	assert.Contains(t, codes[1:], http.StatusTooManyRequests)
}

func TestRateLimitDisabled(t *testing.T) {
	router := newRouter(RateLimitMiddleware(&config.Configuration{}))
	for i := 0; i < 5; i++ {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/checks", nil))
		assert.Equal(t, http.StatusOK, resp.Code)
	}
}
