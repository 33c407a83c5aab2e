// Command beamservlet hosts the service locator behind a TCP listener:
// message.RegisterAll and servicelocator.RegisterAll on a shared
// TypeRegistry, a servletcontainer.Container dispatching
// servicelocator.AuthServlet and an auth-gated servicelocator.Servlet.
// With -etcd it also registers itself in etcd so a beamclient process
// elsewhere can discover it instead of needing a fixed address.
package main

import (
	"context"
	"flag"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"beam/auth"
	"beam/codec"
	registry "beam/discovery"
	"beam/message"
	"beam/serialization"
	"beam/servicelocator"
	"beam/servicelocator/store"
	"beam/servletcontainer"
)

const serviceName = "Beam.ServiceLocator"

func main() {
	addr := flag.String("addr", "127.0.0.1:7777", "listen address")
	etcdEndpoints := flag.String("etcd", "", "comma-separated etcd endpoints; empty disables discovery registration")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	reg := serialization.NewTypeRegistry()
	message.RegisterAll(reg)
	servicelocator.RegisterAll(reg)

	locator := servicelocator.NewLocator(store.NewMemStore())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := locator.Bootstrap(ctx); err != nil {
		logger.Fatal("bootstrap root account", zap.Error(err))
	}

	inner := &servicelocator.Servlet{Locator: locator}
	gated := auth.NewServletAdapter(locator, inner)

	container := servletcontainer.NewContainerForServlets(
		[]servletcontainer.Servlet{&servicelocator.AuthServlet{Locator: locator}, gated},
		reg, codec.NewZLibCodec(), servletcontainer.DispatchParallel,
	)
	container.SetLogger(logger)
	container.SetConnContext(func(ctx context.Context, push servletcontainer.Pusher) context.Context {
		ctx = servicelocator.ConnContext(ctx, push)
		return auth.ConnContext(ctx, push)
	})

	listener, err := net.Listen("tcp", *addr)
	if err != nil {
		logger.Fatal("listen", zap.Error(err))
	}
	logger.Info("beamservlet listening", zap.String("addr", *addr))

	if *etcdEndpoints != "" {
		etcdReg, err := registry.NewEtcdRegistry(strings.Split(*etcdEndpoints, ","))
		if err != nil {
			logger.Fatal("connect etcd", zap.Error(err))
		}
		if err := etcdReg.Register(serviceName, registry.ServiceInstance{Addr: *addr}, 30); err != nil {
			logger.Fatal("register service", zap.Error(err))
		}
		defer etcdReg.Deregister(serviceName, *addr)

		// Also mirror every service an authenticated client registers
		// through Beam.ServiceLocator.RegisterService into the same
		// etcd cluster, so a client.ReconnectHandler elsewhere can
		// Discover it through etcd instead of calling LocateService.
		locator.WithDiscoveryMirror(etcdReg)
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- container.Serve(ctx, listener) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("shutting down")
	case err := <-serveErr:
		if err != nil {
			logger.Error("serve", zap.Error(err))
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := container.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}
