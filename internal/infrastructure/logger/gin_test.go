package logger

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestGinMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(GinRequestIDKey, "req-42"); c.Next() })
	r.Use(GinMiddleware(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) {
		assert.Equal(t, "req-42", GetRequestID(c.Request.Context()))
		FromContext(c.Request.Context()).Info("inside")
		c.String(http.StatusOK, "ok")
	})
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusBadGateway) })

	for _, p := range []string{"/ok?x=1", "/missing", "/boom"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, "inside", entries[0].Message)
	assert.Equal(t, "req-42", entries[0].ContextMap()["request_id"])

	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, int64(200), entries[1].ContextMap()["status"])
	assert.Equal(t, "x=1", entries[1].ContextMap()["query"])
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(GinRequestIDKey, "req-7"); c.Next() })
	r.Use(Recovery(zap.New(core)))
	r.GET("/panic", func(c *gin.Context) { panic("bottle shattered") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code      string `json:"code"`
			RequestID string `json:"request_id"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "ERR_INTERNAL", body.Error.Code)
	assert.Equal(t, "req-7", body.Error.RequestID)
	assert.Equal(t, 1, logs.FilterMessage("Panic recovered").Len())
}

func TestGetGinLogger(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.NotNil(t, GetGinLogger(c))

	l := zap.NewExample()
	c.Set(ginLoggerKey, l)
	assert.Same(t, l, GetGinLogger(c))
}
