package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func authRouter(apiKey string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	r := gin.New()
	r.Use(APIKeyAuth(apiKey, log))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	return r
}

func TestAPIKeyAuth(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "valid key", header: "Bearer secret-key", wantStatus: http.StatusOK},
		{name: "wrong key", header: "Bearer wrong", wantStatus: http.StatusUnauthorized},
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "not bearer", header: "Basic secret-key", wantStatus: http.StatusUnauthorized},
		{name: "prefix of key", header: "Bearer secret", wantStatus: http.StatusUnauthorized},
	}

	r := authRouter("secret-key")

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tc.wantStatus)
			}
		})
	}
}

func TestExtractBearerToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set("Authorization", "Bearer abc123")

	if got := ExtractBearerToken(c); got != "abc123" {
		t.Errorf("token = %q, want abc123", got)
	}
}
