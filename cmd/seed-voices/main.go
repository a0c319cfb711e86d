package main

import (
	"encoding/json"
	"flag"
	"os"

	"go.uber.org/zap"

	"agent-config-service/internal/model"
	"agent-config-service/internal/store"
	"agent-config-service/pkg/config"
	"agent-config-service/pkg/logger"
)

// Loads the static voice catalog from a JSON file. Existing entries
// are left untouched, so re-running the seeder is safe.
func main() {
	file := flag.String("file", "voices.json", "path to the voice catalog JSON file")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logger.InitLogger(cfg)
	log := logger.GetLogger()

	raw, err := os.ReadFile(*file)
	if err != nil {
		log.Fatal("Failed to read voice catalog", zap.String("file", *file), zap.Error(err))
	}

	var voices []model.Voice
	if err := json.Unmarshal(raw, &voices); err != nil {
		log.Fatal("Failed to parse voice catalog", zap.String("file", *file), zap.Error(err))
	}

	st, err := store.Open(store.DBConfig{
		DSN:             cfg.DB.GetDSN(),
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
		LogLevel:        cfg.DB.LogLevel,
	})
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer st.Close()

	inserted, err := st.SeedVoices(voices)
	if err != nil {
		log.Fatal("Failed to seed voices", zap.Error(err))
	}

	log.Info("Voice catalog seeded",
		zap.Int("inserted", inserted),
		zap.Int("total", len(voices)))
}
