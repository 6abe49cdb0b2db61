package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/proctorly/kestrel/internal/conf"
)

// NewServer 装配依赖并返回 HTTP 服务
// cleanup 释放模型会话等资源，进程退出前调用
func NewServer(bc *conf.Bootstrap, log *slog.Logger) (*http.Server, func(), error) {
	handler, cleanup, err := wireApp(bc, log)
	if err != nil {
		return nil, nil, err
	}

	svr := &http.Server{
		Addr:              fmt.Sprintf(":%d", bc.Server.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return svr, cleanup, nil
}
