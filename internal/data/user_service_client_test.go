package data

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gkr185/vip-pay-service/internal/conf"
)

func newUserClient(addr string) *userServiceClient {
	c := &conf.Bootstrap{
		Client: &conf.Client{
			UserService: &conf.UserService{Addr: addr, Timeout: "2s"},
		},
	}
	return NewUserServiceClient(c, log.NewStdLogger(io.Discard)).(*userServiceClient)
}

func TestUpdateVipStatus(t *testing.T) {
	var (
		gotMethod string
		gotPath   string
		gotBody   map[string]interface{}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	expire := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	client := newUserClient(srv.URL)
	require.NoError(t, client.UpdateVipStatus(context.Background(), 42, expire))

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/api/users/42/vip", gotPath)
	assert.Equal(t, float64(1), gotBody["vipType"])
	assert.Equal(t, expire.Format(time.RFC3339), gotBody["vipExpireTime"])
}

func TestCancelVipStatus(t *testing.T) {
	var (
		gotMethod string
		gotPath   string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := newUserClient(srv.URL)
	require.NoError(t, client.CancelVipStatus(context.Background(), 42))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/api/users/42/vip", gotPath)
}

func TestUpdateVipStatusServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newUserClient(srv.URL)
	err := client.UpdateVipStatus(context.Background(), 42, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "boom")
}

func TestUpdateVipStatusUnreachable(t *testing.T) {
	client := newUserClient("http://127.0.0.1:1")
	err := client.UpdateVipStatus(context.Background(), 42, time.Now())
	require.Error(t, err)
}
