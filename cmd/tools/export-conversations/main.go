// cmd/tools/export-conversations/main.go
//
// Dumps the recorded turns of one conversation as JSON, for help desk
// review and for actioning simulated software requests.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"itbot/internal/audit"
	"itbot/internal/common/config"
	"itbot/internal/common/database"
	"itbot/internal/common/logger"
)

type exportedTurn struct {
	TurnID    string                 `json:"turn_id"`
	Text      string                 `json:"text"`
	Intent    string                 `json:"intent"`
	Action    string                 `json:"action"`
	Response  string                 `json:"response"`
	Details   map[string]interface{} `json:"details,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

func main() {
	userID := flag.String("user", "", "chat user id (required)")
	channelID := flag.String("channel", "", "chat channel id (required)")
	flag.Parse()

	if *userID == "" || *channelID == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, "console")
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		zapLog.Fatal("postgres connection failed", zap.Error(err))
	}
	defer pg.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	records, err := audit.NewLogger(pg.GetDB(), log).History(ctx, *userID, *channelID)
	if err != nil {
		zapLog.Fatal("history query failed", zap.Error(err))
	}

	out := make([]exportedTurn, 0, len(records))
	for _, rec := range records {
		out = append(out, exportedTurn{
			TurnID:    rec.TurnID,
			Text:      rec.Text,
			Intent:    string(rec.Intent),
			Action:    string(rec.Action),
			Response:  rec.Response,
			Details:   rec.Details,
			CreatedAt: rec.CreatedAt,
		})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		zapLog.Fatal("encode failed", zap.Error(err))
	}
}
