// Command beamclient is a reference service-locator client: it dials
// a beamservlet instance (directly, or through etcd discovery with
// -etcd), logs in, performs the session handshake, and exercises a
// handful of directory operations so the wire path can be watched
// end to end.
package main

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"beam/auth"
	"beam/channel"
	"beam/client"
	"beam/codec"
	registry "beam/discovery"
	"beam/loadbalance"
	"beam/message"
	"beam/serialization"
	"beam/service"
	"beam/servicelocator"
)

const serviceName = "Beam.ServiceLocator"

func main() {
	addr := flag.String("addr", "127.0.0.1:7777", "beamservlet address, used when -etcd is empty")
	etcdEndpoints := flag.String("etcd", "", "comma-separated etcd endpoints; empty dials -addr directly")
	username := flag.String("user", "root", "account to log in as")
	password := flag.String("password", "", "account password")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	var discoveryReg registry.Registry
	if *etcdEndpoints != "" {
		etcdReg, err := registry.NewEtcdRegistry(strings.Split(*etcdEndpoints, ","))
		if err != nil {
			logger.Fatal("connect etcd", zap.Error(err))
		}
		discoveryReg = etcdReg
	} else {
		mock := registry.NewMockRegistry()
		if err := mock.Register(serviceName, registry.ServiceInstance{Addr: *addr}, 0); err != nil {
			logger.Fatal("register static address", zap.Error(err))
		}
		discoveryReg = mock
	}

	var handler *client.ReconnectHandler
	locatorClient := servicelocator.NewClient(func() *service.ProtocolClient { return handler.Client() })
	authenticator := auth.NewAuthenticator(locatorClient)

	onConnect := func(ctx context.Context, sc *service.ProtocolClient) error {
		if _, err := locatorClient.Login(ctx, "beamclient-"+fmt.Sprint(time.Now().UnixNano()), *username, *password); err != nil {
			return err
		}
		return authenticator.Authenticate(ctx, sc)
	}

	handler = client.New(
		discoveryReg,
		&loadbalance.RoundRobinBalancer{},
		serviceName,
		channel.NewTCPDialer(),
		codec.NewZLibCodec(),
		func() *serialization.TypeRegistry {
			reg := serialization.NewTypeRegistry()
			message.RegisterAll(reg)
			servicelocator.RegisterAll(reg)
			return reg
		},
		15*time.Second,
		onConnect,
		logger,
	)

	ctx := context.Background()
	if err := handler.Start(ctx); err != nil {
		logger.Fatal("connect", zap.Error(err))
	}
	defer handler.Close()

	account, err := locatorClient.AuthenticateAccount(ctx, *username, *password)
	if err != nil {
		logger.Fatal("authenticate account", zap.Error(err))
	}
	logger.Info("authenticated", zap.Int64("account_id", account.ID))

	dir, err := locatorClient.MakeDirectory(ctx, "beamclient-demo", servicelocator.StarDirectoryID)
	if err != nil {
		logger.Fatal("make directory", zap.Error(err))
	}
	logger.Info("created directory", zap.Int64("id", dir.ID), zap.String("name", dir.Name))

	children, err := locatorClient.LoadChildren(ctx, servicelocator.StarDirectoryID)
	if err != nil {
		logger.Fatal("load children", zap.Error(err))
	}
	for _, child := range children {
		logger.Info("star directory child", zap.Int64("id", child.ID), zap.String("name", child.Name))
	}
}
