package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/fusecms/engine/internal/models"
	"github.com/fusecms/engine/pkg/config"
	"github.com/fusecms/engine/pkg/database"
	"github.com/fusecms/engine/pkg/logger"
)

func main() {
	cfg := config.MustLoad()
	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	db, err := database.OpenPostgres(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	err = db.AutoMigrate(
		&models.ContentType{},
		&models.ContentEntry{},
		&models.RelationDefinition{},
		&models.RelationInstance{},
		&models.RelationRevision{},
		&models.RelationAudit{},
	)
	if err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}

	fmt.Fprintln(os.Stdout, "migrations completed")
}
