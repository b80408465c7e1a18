// Command server runs the recommender functions locally.
package main

import (
	"os"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"go.uber.org/zap"

	_ "github.com/pc-assembly-helper/recommender"
	"github.com/pc-assembly-helper/recommender/internal/config"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		logger = zap.NewNop()
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	port := cfg.Port
	// FUNCTION_TARGET selects recommend or recommend-async.
	logger.Info("Starting functions framework", zap.String("port", port), zap.String("target", os.Getenv("FUNCTION_TARGET")))
	if err := funcframework.Start(port); err != nil {
		logger.Fatal("funcframework.Start", zap.Error(err))
	}
}
