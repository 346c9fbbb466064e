package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fzft/go-mock-httpd/cmd"
	"github.com/fzft/go-mock-httpd/config"
	"github.com/fzft/go-mock-httpd/log"
	"github.com/fzft/go-mock-httpd/node"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  = flag.String("config", "", "path to a YAML config file")
		addr        = flag.String("addr", "", "listen address, or the target address with -cli (host:port)")
		backend     = flag.String("backend", "", "event backend: auto, select, poll, epoll, kqueue or devpoll")
		cli         = flag.Bool("cli", false, "run the interactive client instead of the server")
		showVersion = flag.Bool("version", false, "print the version and exit")
	)
	flag.Parse()
	if *showVersion {
		fmt.Println(versionString())
		return nil
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return err
		}
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *backend != "" {
		cfg.Engine.Backend = *backend
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := log.InitLogger(cfg.Log); err != nil {
		return err
	}
	defer log.Sync()

	if *cli {
		c, err := cmd.NewHttpCli(cfg.HTTP, os.Stdout)
		if err != nil {
			return err
		}
		if *addr != "" {
			if err := c.SetTarget(*addr); err != nil {
				return err
			}
		}
		return c.Run()
	}

	s := node.NewServer(cfg)
	if err := s.Run(); err != nil {
		log.Logger.Error("server stopped", zap.Error(err))
		return err
	}
	return nil
}
