package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRedeemHandler_Create_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &RedeemHandler{redeems: nil}
	r.POST("/redeem", handler.Create)

	req, _ := http.NewRequest("POST", "/redeem", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRedeemHandler_ListMine_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &RedeemHandler{redeems: nil}
	r.GET("/redeem", handler.ListMine)

	req, _ := http.NewRequest("GET", "/redeem", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRedeemHandler_Get_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &RedeemHandler{redeems: nil}
	r.GET("/redeem/:id", handler.Get)

	req, _ := http.NewRequest("GET", "/redeem/0b6c2a1e-1111-4222-8333-444455556666", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
