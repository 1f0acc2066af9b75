package main

import (
	"go.uber.org/fx"

	"github.com/quillmark/quillmark-back/internal/config"
	"github.com/quillmark/quillmark-back/internal/db"
	"github.com/quillmark/quillmark-back/internal/logger"
	"github.com/quillmark/quillmark-back/internal/service"
	"github.com/quillmark/quillmark-back/internal/transport"
)

func main() {
	fx.New(
		config.Module,
		logger.Module,
		db.Module,
		service.Module,
		transport.Module,
		fx.Invoke(func(*transport.HTTPServer) {}),
	).Run()
}
