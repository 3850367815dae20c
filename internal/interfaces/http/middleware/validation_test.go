package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/perfume/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type validationAddress struct {
	City    string `json:"city" binding:"required"`
	Country string `json:"country" binding:"required,len=2"`
}

type validationRequest struct {
	Email   string            `json:"email" binding:"required,email"`
	Slug    string            `json:"slug" binding:"omitempty,slug"`
	Name    map[string]string `json:"name" binding:"required,min=1,dive,keys,lang,endkeys,max=20"`
	Items   []int             `json:"items" binding:"required,min=1,max=2"`
	Address validationAddress `json:"address"`
}

func validationRouter() *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.Use(RequestID())
	router.POST("/test", func(c *gin.Context) {
		var req validationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleBindingError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})
	return router
}

func postJSON(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHandleBindingError_Validation(t *testing.T) {
	router := validationRouter()

	w := postJSON(router, `{"email":"nope","slug":"Not A Slug","name":{"fr":"Oud"},"items":[1,2,3],"address":{"city":"","country":"EGY"}}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp := decodeResponse(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.NotEmpty(t, resp.Error.RequestID)

	fields := map[string]string{}
	for _, d := range resp.Error.Details {
		fields[d.Field] = d.Message
	}
	assert.Equal(t, "Invalid email format", fields["email"])
	assert.Equal(t, "Must be lowercase letters, digits and single dashes", fields["slug"])
	assert.Contains(t, fields["name[fr]"], "Unsupported language")
	assert.Equal(t, "Must contain at most 2 items", fields["items"])
	assert.Equal(t, "This field is required", fields["address.city"])
	assert.Equal(t, "Must be exactly 2 characters", fields["address.country"])
}

func TestHandleBindingError_Valid(t *testing.T) {
	w := postJSON(validationRouter(), `{"email":"a@b.co","slug":"oud-royal","name":{"en":"Oud","ar":"عود"},"items":[1],"address":{"city":"Cairo","country":"EG"}}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleBindingError_MalformedBody(t *testing.T) {
	router := validationRouter()

	w := postJSON(router, `{"email":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidJSON, decodeResponse(t, w).Error.Code)

	w = postJSON(router, `{"email":"a@b.co","items":"many"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "items", resp.Error.Details[0].Field)
}
