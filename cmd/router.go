package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bvandewe/tools-provider-sub014/internal/admin"
)

func setupRouter(adminHandler *admin.Handler) *http.ServeMux {
	mux := http.NewServeMux()

	adminHandler.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}
