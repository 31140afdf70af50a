// internal/pkg/bootstrap/app.go
package bootstrap

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	zlog "github.com/rs/zerolog/log"

	"nexus-shipping/internal/pkg/logger"
	"nexus-shipping/internal/pkg/nacos"
)

// AppCtx 是注册路由时可用的上下文
type AppCtx struct {
	Mux *http.ServeMux
}

// ShutdownHook 在关停流程中按注册的逆序执行
type ShutdownHook struct {
	Name string
	Fn   func(ctx context.Context) error
}

// AppInfo 包含了启动一个微服务所需的所有特定信息。
type AppInfo struct {
	ServiceName      string
	Port             int
	RegisterHandlers func(appCtx AppCtx) // 允许每个服务注册自己独特的 HTTP 路由
	Nacos            *nacos.Client       // 非空时启动后注册实例，关停时注销
	ShutdownHooks    []ShutdownHook
}

// StartService 封装了通用的启动和优雅关停逻辑，阻塞直到收到退出信号。
func StartService(info AppInfo) error {
	mux := http.NewServeMux()
	if info.RegisterHandlers != nil {
		info.RegisterHandlers(AppCtx{Mux: mux})
	}
	server := &http.Server{
		Addr:              ":" + strconv.Itoa(info.Port),
		Handler:           logger.Middleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		zlog.Info().Int("port", info.Port).Msgf("%s listening", info.ServiceName)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	var ip string
	if info.Nacos != nil {
		var err error
		if ip, err = GetOutboundIP(); err != nil {
			return err
		}
		if err := info.Nacos.RegisterServiceInstance(info.ServiceName, ip, info.Port); err != nil {
			return err
		}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-serverErr:
		zlog.Error().Err(err).Msg("http server failed")
		return err
	}
	zlog.Info().Msgf("Shutting down service %s...", info.ServiceName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 先注销服务发现，避免新流量进入
	if info.Nacos != nil {
		if err := info.Nacos.DeregisterServiceInstance(info.ServiceName, ip, info.Port); err != nil {
			zlog.Error().Err(err).Msg("Error deregistering from Nacos")
		}
		info.Nacos.Close()
	}

	if err := server.Shutdown(ctx); err != nil {
		zlog.Error().Err(err).Msg("Error shutting down http server")
	}

	for i := len(info.ShutdownHooks) - 1; i >= 0; i-- {
		hook := info.ShutdownHooks[i]
		if err := hook.Fn(ctx); err != nil {
			zlog.Error().Err(err).Str("hook", hook.Name).Msg("shutdown hook failed")
		}
	}

	zlog.Info().Msgf("Service %s gracefully shut down.", info.ServiceName)
	return nil
}

// GetOutboundIP 返回本机对外通信使用的 IP，用于服务注册
func GetOutboundIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String(), nil
}
