// Package swap orchestrates quotes, swap-transaction building and swap records.
package swap

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"solana-swap-gateway/internal/address"
	"solana-swap-gateway/internal/apperr"
	"solana-swap-gateway/internal/domain"
	"solana-swap-gateway/internal/fee"
	"solana-swap-gateway/internal/jupiter"
	"solana-swap-gateway/internal/observability"
	"solana-swap-gateway/internal/storage"
)

// Limits.
const (
	DefaultSlippageBps  = 50
	MaxSlippageBps      = 10000
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100

	backgroundWriteTimeout = 10 * time.Second
)

// Aggregator is the subset of the aggregator client used by the service.
type Aggregator interface {
	Quote(ctx context.Context, p jupiter.QuoteParams) (jupiter.Quote, error)
	Swap(ctx context.Context, p jupiter.SwapParams) (*jupiter.SwapResult, error)
}

// PlatformFee describes the fee attached to a quote or swap.
type PlatformFee struct {
	Amount     int64   `json:"amount"`
	Bps        int64   `json:"bps"`
	Percentage float64 `json:"percentage"`
	Account    *string `json:"account,omitempty"`
}

// QuoteRequest asks for a quote.
type QuoteRequest struct {
	InputMint        string
	OutputMint       string
	Amount           int64
	SlippageBps      int
	SwapMode         string
	OnlyDirectRoutes bool
}

// BuildRequest asks for an unsigned swap transaction.
type BuildRequest struct {
	UserPublicKey       string
	QuoteResponse       jupiter.Quote
	WrapAndUnwrapSol    bool
	FeeAccount          string // overrides the configured fee wallet when set
	PriorityFeeLamports *int64
}

// BuildResult is returned to the client for signing.
type BuildResult struct {
	SwapTransaction           string      `json:"swapTransaction"`
	LastValidBlockHeight      int64       `json:"lastValidBlockHeight"`
	PrioritizationFeeLamports int64       `json:"prioritizationFeeLamports"`
	TransactionID             string      `json:"transactionId"`
	PlatformFee               PlatformFee `json:"platformFee"`
}

// Service builds swaps and keeps their records.
type Service struct {
	agg     Aggregator
	fees    *fee.Schedule
	records storage.SwapRecordStore
	ledger  storage.FeeLedgerStore
	log     logrus.FieldLogger
	now     func() time.Time

	wg sync.WaitGroup
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Service) {
		s.log = l
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a swap service.
func NewService(agg Aggregator, fees *fee.Schedule, records storage.SwapRecordStore, ledger storage.FeeLedgerStore, opts ...Option) *Service {
	s := &Service{
		agg:     agg,
		fees:    fees,
		records: records,
		ledger:  ledger,
		log:     logrus.StandardLogger(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Quote returns the aggregator quote annotated with "platformFee" and, when a
// fee wallet is configured for the output mint, "feeAccount".
func (s *Service) Quote(ctx context.Context, req QuoteRequest) (jupiter.Quote, error) {
	inputMint, err := address.Validate(req.InputMint)
	if err != nil {
		return nil, fmt.Errorf("inputMint: %w", err)
	}
	outputMint, err := address.Validate(req.OutputMint)
	if err != nil {
		return nil, fmt.Errorf("outputMint: %w", err)
	}
	if req.Amount <= 0 {
		return nil, apperr.Invalid("amount must be positive, got %d", req.Amount)
	}
	if req.SlippageBps < 0 || req.SlippageBps > MaxSlippageBps {
		return nil, apperr.Invalid("slippageBps must be within 0..%d, got %d", MaxSlippageBps, req.SlippageBps)
	}
	swapMode := req.SwapMode
	if swapMode == "" {
		swapMode = jupiter.SwapModeExactIn
	}
	if swapMode != jupiter.SwapModeExactIn && swapMode != jupiter.SwapModeExactOut {
		return nil, apperr.Invalid("swapMode must be ExactIn or ExactOut, got %q", swapMode)
	}

	quote, err := s.agg.Quote(ctx, jupiter.QuoteParams{
		InputMint:        inputMint,
		OutputMint:       outputMint,
		Amount:           req.Amount,
		SlippageBps:      req.SlippageBps,
		SwapMode:         swapMode,
		OnlyDirectRoutes: req.OnlyDirectRoutes,
	})
	if err != nil {
		return nil, err
	}

	outAmount, err := quote.Amount("outAmount")
	if err != nil {
		return nil, apperr.Upstream("jupiter", err)
	}
	feeAmount, err := s.fees.Calculate(outAmount)
	if err != nil {
		return nil, apperr.Upstream("jupiter", err)
	}

	quote["platformFee"] = PlatformFee{
		Amount:     feeAmount,
		Bps:        s.fees.Bps(),
		Percentage: fee.Percentage(s.fees.Bps()),
	}
	if account, ok := s.fees.FeeAccount(outputMint); ok {
		quote["feeAccount"] = account
	}

	observability.RecordQuote()
	return quote, nil
}

// Build asks the aggregator for an unsigned transaction and records a pending
// swap. Record and fee-ledger failures are logged, never returned.
func (s *Service) Build(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	wallet, err := address.Validate(req.UserPublicKey)
	if err != nil {
		return nil, fmt.Errorf("userPublicKey: %w", err)
	}
	if len(req.QuoteResponse) == 0 {
		return nil, apperr.Invalid("quoteResponse is required")
	}
	inputMint, err := address.Validate(req.QuoteResponse.String("inputMint"))
	if err != nil {
		return nil, fmt.Errorf("quoteResponse.inputMint: %w", err)
	}
	outputMint, err := address.Validate(req.QuoteResponse.String("outputMint"))
	if err != nil {
		return nil, fmt.Errorf("quoteResponse.outputMint: %w", err)
	}
	inAmount, err := req.QuoteResponse.Amount("inAmount")
	if err != nil {
		return nil, apperr.Invalid("quoteResponse: %v", err)
	}
	outAmount, err := req.QuoteResponse.Amount("outAmount")
	if err != nil {
		return nil, apperr.Invalid("quoteResponse: %v", err)
	}
	feeAmount, err := s.fees.Calculate(outAmount)
	if err != nil {
		return nil, err
	}

	feeAccount := req.FeeAccount
	if feeAccount != "" {
		if feeAccount, err = address.Validate(feeAccount); err != nil {
			return nil, fmt.Errorf("feeAccount: %w", err)
		}
	} else if account, ok := s.fees.FeeAccount(outputMint); ok {
		feeAccount = account
	}

	built, err := s.agg.Swap(ctx, jupiter.SwapParams{
		UserPublicKey:           wallet,
		QuoteResponse:           req.QuoteResponse,
		WrapAndUnwrapSol:        req.WrapAndUnwrapSol,
		DynamicComputeUnitLimit: true,
		PriorityFeeLamports:     req.PriorityFeeLamports,
	})
	if err != nil {
		return nil, err
	}

	now := s.now().UnixMilli()
	record := &domain.SwapRecord{
		ID:           uuid.NewString(),
		UserWallet:   wallet,
		InputMint:    inputMint,
		OutputMint:   outputMint,
		InputAmount:  inAmount,
		OutputAmount: outAmount,
		FeeAmount:    feeAmount,
		Status:       domain.SwapStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if feeAccount != "" {
		acct := feeAccount
		record.FeeAccount = &acct
	}

	log := s.log.WithFields(logrus.Fields{"tx_id": record.ID, "wallet": wallet})
	if _, err := s.records.Create(ctx, record); err != nil {
		observability.RecordBackgroundFailure("swap_record_create")
		log.WithError(err).Error("failed to record swap")
	}

	if record.FeeAccount != nil {
		s.recordFee(ctx, &domain.FeeLedgerEntry{
			TransactionID: record.ID,
			FeeAmount:     feeAmount,
			TokenMint:     outputMint,
			FeeAccount:    feeAccount,
			CreatedAt:     now,
		})
	}

	observability.RecordSwapBuilt()
	log.WithField("output_mint", outputMint).Info("swap transaction built")

	return &BuildResult{
		SwapTransaction:           built.SwapTransaction,
		LastValidBlockHeight:      built.LastValidBlockHeight,
		PrioritizationFeeLamports: built.PrioritizationFeeLamports,
		TransactionID:             record.ID,
		PlatformFee: PlatformFee{
			Amount:     feeAmount,
			Bps:        s.fees.Bps(),
			Percentage: fee.Percentage(s.fees.Bps()),
			Account:    record.FeeAccount,
		},
	}, nil
}

// recordFee writes the ledger entry on a tracked goroutine detached from the request.
func (s *Service) recordFee(ctx context.Context, entry *domain.FeeLedgerEntry) {
	ctx = context.WithoutCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(ctx, backgroundWriteTimeout)
		defer cancel()

		if err := s.ledger.Record(ctx, entry); err != nil {
			observability.RecordBackgroundFailure("fee_ledger_record")
			s.log.WithField("tx_id", entry.TransactionID).WithError(err).Error("failed to record fee")
			return
		}
		observability.RecordFee(entry.TokenMint)
	}()
}

// Confirm attaches a signature to a swap record.
// Returns apperr.ErrNotFound when no record has the id.
func (s *Service) Confirm(ctx context.Context, id, signature string) error {
	if id == "" {
		return apperr.Invalid("transaction id is required")
	}
	if signature == "" {
		return apperr.Invalid("signature is required")
	}
	if _, err := base58.Decode(signature); err != nil {
		return apperr.Invalid("signature is not base58")
	}

	ok, err := s.records.AttachSignature(ctx, id, signature)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrPersistence, err)
	}
	if !ok {
		return fmt.Errorf("transaction %s: %w", id, apperr.ErrNotFound)
	}

	observability.RecordSwapConfirmed()
	s.log.WithField("tx_id", id).Info("swap confirmed")
	return nil
}

// History lists a wallet's swaps, newest first. limit <= 0 uses DefaultHistoryLimit.
func (s *Service) History(ctx context.Context, wallet string, limit int) ([]*domain.SwapRecord, error) {
	w, err := address.Validate(wallet)
	if err != nil {
		return nil, fmt.Errorf("wallet: %w", err)
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	records, err := s.records.ListByWallet(ctx, w, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrPersistence, err)
	}
	if records == nil {
		records = []*domain.SwapRecord{}
	}
	return records, nil
}

// FeeStats aggregates recorded fees, optionally for one fee account.
func (s *Service) FeeStats(ctx context.Context, feeAccount string) ([]domain.FeeStat, error) {
	if feeAccount != "" {
		if _, err := address.Validate(feeAccount); err != nil {
			return nil, fmt.Errorf("fee_account: %w", err)
		}
	}
	stats, err := s.ledger.Stats(ctx, feeAccount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrPersistence, err)
	}
	if stats == nil {
		stats = []domain.FeeStat{}
	}
	return stats, nil
}

// Wait blocks until background writes have finished.
func (s *Service) Wait() {
	s.wg.Wait()
}
