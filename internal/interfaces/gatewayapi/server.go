// Package gatewayapi exposes the transcoder over HTTP, adapted from the
// teacher's httpapi.Server: same health/ready/metrics endpoint shape and
// http.ServeMux wiring, one domain endpoint instead of the indexer's
// log/transaction query surface.
package gatewayapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"pjgateway/internal/application"
	"pjgateway/internal/domain"
)

// TipSource supplies the tip block identity the pending-view projector
// bumps, per spec.md §4.7.
type TipSource interface {
	TipBlockHash(ctx context.Context) ([32]byte, error)
	TipBlockNumber(ctx context.Context, tipBlockHash [32]byte) (uint64, error)
}

// EventPublisher hands off an AutoCreateAccountCacheEntry for the cacheworker
// pipeline to persist, per spec.md §6.
type EventPublisher interface {
	PublishAutoCreateAccount(ctx context.Context, ethTxHash [32]byte, entry domain.AutoCreateAccountCacheEntry) error
}

type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

type Server struct {
	transcoder *application.Transcoder
	tip        TipSource
	publisher  EventPublisher
	metrics    *Metrics
	buildInfo  BuildInfo
}

func NewServer(transcoder *application.Transcoder, tip TipSource, publisher EventPublisher, metrics *Metrics, buildInfo BuildInfo) (*Server, error) {
	if transcoder == nil || tip == nil || publisher == nil {
		return nil, errors.New("gateway server dependencies must not be nil")
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Server{transcoder: transcoder, tip: tip, publisher: publisher, metrics: metrics, buildInfo: buildInfo}, nil
}

func (s *Server) MetricsObserver() *Metrics {
	return s.metrics
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/eth_sendRawTransaction", s.handleSendRawTransaction)
	mux.HandleFunc("/metrics", s.handleMetrics)
	mux.HandleFunc("/version", s.handleVersion)
	return mux
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if _, err := s.tip.TipBlockHash(ctx); err != nil {
		respondError(w, http.StatusServiceUnavailable, "rollup rpc not ready")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type sendRawTransactionRequest struct {
	Raw string `json:"raw"`
}

// handleSendRawTransaction decodes a raw signed Ethereum transaction,
// transcodes it, publishes an auto-create-account event when the transcoder
// emitted one, and returns the pending Ethereum-view projection (spec.md
// §4.6, §4.7).
func (s *Server) handleSendRawTransaction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req sendRawTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	raw, err := hexutil.Decode(req.Raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, "raw must be 0x-prefixed hex")
		return
	}

	result, err := s.transcoder.Transcode(r.Context(), raw)
	if err != nil {
		s.metrics.Observe(err)
		respondError(w, statusForError(err), err.Error())
		return
	}
	s.metrics.IncTranscoded()

	if result.AutoCreate != nil {
		if err := s.publisher.PublishAutoCreateAccount(r.Context(), result.EthTxHash, *result.AutoCreate); err != nil {
			respondError(w, http.StatusInternalServerError, "failed to publish auto-create-account event")
			return
		}
		s.metrics.IncAutoCreateAccount()
	}

	tipBlockHash, err := s.tip.TipBlockHash(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "rollup rpc unavailable")
		return
	}
	tipBlockNumber, err := s.tip.TipBlockNumber(r.Context(), tipBlockHash)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "rollup rpc unavailable")
		return
	}

	view := application.PendingView(application.PendingViewInputs{
		EthTxHash:      result.EthTxHash,
		TipBlockHash:   tipBlockHash,
		TipBlockNumber: tipBlockNumber,
		FromAddress:    result.FromAddress,
		Tx:             result.Tx,
	})
	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	snap := s.metrics.Snapshot()
	uptime := time.Since(snap.StartTime).Seconds()

	fmt.Fprintf(w, "pjgateway_uptime_seconds %.0f\n", uptime)
	fmt.Fprintf(w, "pjgateway_transcoded_total %d\n", snap.Transcoded)
	fmt.Fprintf(w, "pjgateway_auto_create_account_total %d\n", snap.AutoCreateAccounts)
	fmt.Fprintf(w, "pjgateway_decode_errors_total %d\n", snap.DecodeErrors)
	fmt.Fprintf(w, "pjgateway_signature_errors_total %d\n", snap.SignatureErrors)
	fmt.Fprintf(w, "pjgateway_validation_errors_total %d\n", snap.ValidationErrors)
	fmt.Fprintf(w, "pjgateway_insufficient_funds_total %d\n", snap.InsufficientFunds)
	fmt.Fprintf(w, "pjgateway_recipient_not_found_total %d\n", snap.RecipientNotFound)
	fmt.Fprintf(w, "pjgateway_upstream_errors_total %d\n", snap.UpstreamErrors)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.buildInfo)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
