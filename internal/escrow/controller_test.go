package escrow

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(l *Ledger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	c := NewController(l)
	r := gin.New()
	r.GET("/escrow/:id", c.GetAccount)
	r.POST("/escrow/:id/release", c.Release)
	r.POST("/escrow/:id/refund", c.Refund)
	return r
}

func TestController_GetAccount(t *testing.T) {
	l := newTestLedger(newMemRepo())
	a := createAccount(t, l, 1000, 100)
	_, err := l.Fund(context.Background(), a.ID, "pay-1")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	newTestEngine(l).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/escrow/"+a.ID.String(), nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data struct {
			Status          Status `json:"status"`
			FundedAmount    int64  `json:"fundedAmount"`
			ReleaseDeadline string `json:"releaseDeadline"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, StatusFunded, body.Data.Status)
	assert.Equal(t, int64(1000), body.Data.FundedAmount)
	assert.Equal(t, "2026-03-08T10:00:00Z", body.Data.ReleaseDeadline)
}

func TestController_StatusCodes(t *testing.T) {
	l := newTestLedger(newMemRepo())
	a := createAccount(t, l, 1000, 100)
	engine := newTestEngine(l)

	cases := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"bad id", http.MethodGet, "/escrow/not-a-uuid", http.StatusBadRequest},
		{"unknown account", http.MethodGet, "/escrow/" + uuid.NewString(), http.StatusNotFound},
		{"release unfunded", http.MethodPost, "/escrow/" + a.ID.String() + "/release", http.StatusConflict},
		{"refund created", http.MethodPost, "/escrow/" + a.ID.String() + "/refund", http.StatusOK},
		{"refund twice", http.MethodPost, "/escrow/" + a.ID.String() + "/refund", http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
			assert.Equal(t, tc.want, w.Code)
		})
	}
}
