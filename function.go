// Package recommender exposes the PC build recommendation as Cloud Functions.
package recommender

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/cloudevents/sdk-go/v2/event"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pc-assembly-helper/recommender/internal/advisor"
	"github.com/pc-assembly-helper/recommender/internal/catalog"
	"github.com/pc-assembly-helper/recommender/internal/config"
	"github.com/pc-assembly-helper/recommender/internal/match"
	"github.com/pc-assembly-helper/recommender/internal/recommend"
	"github.com/pc-assembly-helper/recommender/internal/shopping"
	"github.com/pc-assembly-helper/recommender/internal/specs"
	"github.com/pc-assembly-helper/recommender/internal/store"
)

const resultTTL = 24 * time.Hour

func init() {
	logger, err := zap.NewProduction()
	if err != nil {
		logger = zap.NewNop()
	}
	app, err := newApp(logger)
	if err != nil {
		logger.Fatal("Failed to configure recommender", zap.Error(err))
	}
	functions.HTTP("recommend", app.serveRecommend)
	functions.CloudEvent("recommend-async", app.recommendAsync)
}

// Recommender produces a raw recommendation and the catalog it was made from.
type Recommender interface {
	Recommend(ctx context.Context, prompt string) (*recommend.Response, error)
}

// ResultStore keeps idempotency claims and finished results.
type ResultStore interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

type App struct {
	service  Recommender
	pipeline *recommend.Pipeline
	results  ResultStore
	origins  map[string]bool
	logger   *zap.Logger
}

func newApp(logger *zap.Logger) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	for _, w := range cfg.Warnings() {
		logger.Warn(w)
	}

	scorer, err := match.NewScorer(cfg.MatchScorer)
	if err != nil {
		return nil, fmt.Errorf("MATCH_SCORER: %w", err)
	}
	linker := match.NewLinker(cfg.ShoppingSearchURL)
	rdb := store.New(cfg.RedisAddr())

	searcher := shopping.New(shopping.Options{
		BaseURL:      cfg.NaverSearchURL,
		ClientID:     cfg.NaverClientID,
		ClientSecret: cfg.NaverClientSecret,
		Cache:        rdb,
		CacheTTL:     cfg.SearchCacheTTL,
		Logger:       logger.Named("shopping"),
	})
	adv := advisor.New(advisor.Options{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIModel,
		Limiter: rate.NewLimiter(rate.Limit(3), 5),
		Logger:  logger.Named("advisor"),
	})
	svc := recommend.NewService(recommend.ServiceOptions{
		Searcher:    searcher,
		Advisor:     adv,
		Linker:      linker,
		SearchLimit: cfg.SearchLimit,
		Logger:      logger.Named("service"),
	})
	parser := recommend.NewParser(match.NewMatcher(scorer), linker, logger.Named("parser"))
	pipeline := recommend.NewPipeline(parser, specs.Default(), logger.Named("pipeline"))

	return NewApp(svc, pipeline, rdb, cfg.AllowedOrigins, logger), nil
}

func NewApp(svc Recommender, pipeline *recommend.Pipeline, results ResultStore, origins []string, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return &App{service: svc, pipeline: pipeline, results: results, origins: allowed, logger: logger}
}

type recommendRequest struct {
	Prompt string `json:"prompt"`
}

type recommendResponse struct {
	Recommendation string           `json:"recommendation"`
	Products       []productView    `json:"products"`
	Result         recommend.Result `json:"result"`
}

// productView always spells out required, which the catalog leaves implicit.
type productView struct {
	catalog.Product
	Required bool `json:"required"`
}

func newRecommendResponse(resp *recommend.Response, result recommend.Result) recommendResponse {
	out := recommendResponse{
		Recommendation: resp.Recommendation,
		Products:       make([]productView, 0, len(resp.Products)),
		Result:         result,
	}
	for _, p := range resp.Products {
		out.Products = append(out.Products, productView{Product: p, Required: p.IsRequired()})
	}
	return out
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// Run produces a recommendation for prompt and interprets it.
func (a *App) Run(ctx context.Context, prompt string) (*recommend.Response, recommend.Result, error) {
	resp, err := a.service.Recommend(ctx, prompt)
	if err != nil {
		return nil, recommend.Result{}, err
	}
	result := a.pipeline.Process(resp.Recommendation, resp.Products)
	if result.ParseFailed {
		a.logger.Warn("Recommendation could not be interpreted, returning raw text")
	}
	return resp, result, nil
}

func (a *App) serveRecommend(w http.ResponseWriter, r *http.Request) {
	a.cors(w, r)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Detail: "method not allowed"})
		return
	}

	requestID := uuid.NewString()
	logger := a.logger.With(zap.String("request_id", requestID))

	var req recommendRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid request body"})
		return
	}

	resp, result, err := a.Run(r.Context(), req.Prompt)
	switch {
	case errors.Is(err, recommend.ErrEmptyPrompt), errors.Is(err, recommend.ErrPromptTooLong):
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: err.Error()})
		return
	case err != nil:
		logger.Error("Recommendation failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: fmt.Sprintf("GPT 호출 오류: %v", err)})
		return
	}

	logger.Info("Served recommendation",
		zap.Int("products", len(resp.Products)),
		zap.Bool("parse_failed", result.ParseFailed))

	writeJSON(w, http.StatusOK, newRecommendResponse(resp, result))
}

func (a *App) cors(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin == "" || !a.origins[origin] {
		return
	}
	w.Header().Set("Access-Control-Allow-Origin", origin)
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Add("Vary", "Origin")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type MessagePublishedData struct {
	Message PubSubMessage `json:"message"`
}

type PubSubMessage struct {
	Data       []byte            `json:"data"`
	Attributes map[string]string `json:"attributes"`
}

// recommendAsync handles a Pub/Sub message whose data is a recommendRequest.
// The result is stored under store.ResultKey(processingId).
func (a *App) recommendAsync(ctx context.Context, e event.Event) error {
	var msg MessagePublishedData
	if err := e.DataAs(&msg); err != nil {
		return fmt.Errorf("event.DataAs: %v", err)
	}

	processingID := msg.Message.Attributes["processingId"]
	if processingID == "" {
		processingID = e.ID()
	}
	logger := a.logger.With(zap.String("processing_id", processingID))

	var req recommendRequest
	if err := json.Unmarshal(msg.Message.Data, &req); err != nil {
		// redelivery cannot fix a malformed message
		logger.Error("Dropping malformed message", zap.Error(err))
		return nil
	}

	idempotencyKey := store.ProcessedKey(processingID)
	claimed, err := a.results.Claim(ctx, idempotencyKey, resultTTL)
	if err != nil {
		logger.Warn("Error checking idempotency key", zap.Error(err))
	} else if !claimed {
		logger.Info("Message already processed, skipping")
		return nil
	}

	resp, result, err := a.Run(ctx, req.Prompt)
	if errors.Is(err, recommend.ErrEmptyPrompt) || errors.Is(err, recommend.ErrPromptTooLong) {
		logger.Error("Dropping invalid prompt", zap.Error(err))
		return nil
	}
	// until the result is stored, a failure must leave the message redeliverable
	release := func() {
		if rerr := a.results.Release(ctx, idempotencyKey); rerr != nil {
			logger.Warn("Error releasing idempotency key", zap.Error(rerr))
		}
	}
	if err != nil {
		release()
		return fmt.Errorf("recommend: %w", err)
	}

	data, err := json.Marshal(newRecommendResponse(resp, result))
	if err != nil {
		release()
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := a.results.Set(ctx, store.ResultKey(processingID), string(data), resultTTL); err != nil {
		release()
		return fmt.Errorf("store result: %w", err)
	}
	logger.Info("Stored recommendation", zap.Bool("parse_failed", result.ParseFailed))
	return nil
}
