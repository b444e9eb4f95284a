package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/adapter/http/dto"
	"github.com/iho/gobank/internal/adapter/http/handler"
	apimiddleware "github.com/iho/gobank/internal/adapter/http/middleware"
	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/metrics"
	"github.com/iho/gobank/internal/usecase"
	"github.com/iho/gobank/internal/usecase/mocks"
)

type testServer struct {
	router      http.Handler
	store       *mocks.Store
	idempotency *mocks.MockIdempotencyStore
}

func newTestServer(t *testing.T, opts ...func(*RouterConfig)) *testServer {
	t.Helper()

	store := mocks.NewStore()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	log := zerolog.Nop()

	txManager := mocks.NewMockTransactionManager(store)
	accountRepo := mocks.NewMockAccountRepository(store)
	txRepo := mocks.NewMockTransactionRepository(store)
	transferRepo := mocks.NewMockTransferRepository(store)
	categoryRepo := mocks.NewMockCategoryRepository(store)
	outbox := mocks.NewMockOutboxRepository(store)
	audit := mocks.NewMockAuditRepository(store)
	idGen := mocks.NewMockIDGenerator()
	numbers := mocks.NewMockNumberGenerator()

	categories := usecase.NewCategoryUseCase(txManager, categoryRepo, audit, mocks.NewMockCache(), idGen, time.Minute, log)
	ledger := usecase.NewLedgerUseCase(txManager, accountRepo, txRepo, outbox, categories, idGen, numbers, log, m)
	transfers := usecase.NewTransferUseCase(txManager, accountRepo, transferRepo, txRepo, outbox, idGen, numbers, log, m)
	accounts := usecase.NewAccountUseCase(usecase.AccountDeps{
		TxManager:    txManager,
		AccountRepo:  accountRepo,
		UserRepo:     mocks.NewMockUserRepository(store),
		TransferRepo: transferRepo,
		TxRepo:       txRepo,
		CategoryRepo: categoryRepo,
		OutboxRepo:   outbox,
		AuditRepo:    audit,
		Categories:   categories,
		IDGen:        idGen,
		Numbers:      numbers,
		Retrier:      mocks.NewMockRetrier(3),
		Logger:       log,
		Metrics:      m,
	})
	recon := usecase.NewReconciliationUseCase(accountRepo, txRepo, mocks.NewMockLedgerRepository(store), log, m)

	if _, err := categories.SeedSystemCategories(context.Background()); err != nil {
		t.Fatalf("seed categories: %v", err)
	}
	for _, id := range []string{"user-1", "user-2"} {
		store.SeedUser(domain.User{ID: id, Email: id + "@example.com", Name: id, Active: true, CreatedAt: time.Now()})
	}

	idempotency := mocks.NewMockIdempotencyStore()
	ok := handler.PingFunc(func(ctx context.Context) error { return nil })

	cfg := RouterConfig{
		AccountHandler:        handler.NewAccountHandler(accounts),
		LedgerHandler:         handler.NewLedgerHandler(ledger, nil),
		TransferHandler:       handler.NewTransferHandler(transfers, nil),
		CategoryHandler:       handler.NewCategoryHandler(categories),
		ReconciliationHandler: handler.NewReconciliationHandler(recon),
		HealthHandler:         handler.NewHealthHandler(ok, ok),
		IdempotencyStore:      idempotency,
		Metrics:               m,
		MetricsHandler:        promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Logger:                log,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &testServer{router: NewRouter(cfg), store: store, idempotency: idempotency}
}

func (s *testServer) do(t *testing.T, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "192.0.2.1:1234"
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
}

func TestNewRouter_HealthEndpointsAvailable(t *testing.T) {
	s := newTestServer(t)

	expectStatus(t, s.do(t, http.MethodGet, "/health", ""), http.StatusOK)
	expectStatus(t, s.do(t, http.MethodGet, "/ready", ""), http.StatusOK)
}

func TestNewRouter_AccountLifecycle(t *testing.T) {
	s := newTestServer(t)
	asUser1 := []string{apimiddleware.UserIDHeader, "user-1"}

	rec := s.do(t, http.MethodPost, "/api/v1/users/user-1/accounts", `{"type":"DEBIT"}`, asUser1...)
	expectStatus(t, rec, http.StatusCreated)
	debit := decode[dto.AccountResponse](t, rec)

	rec = s.do(t, http.MethodPost, "/api/v1/users/user-1/accounts", `{"type":"SAVINGS"}`, asUser1...)
	expectStatus(t, rec, http.StatusCreated)
	savings := decode[dto.AccountResponse](t, rec)

	rec = s.do(t, http.MethodPost, "/api/v1/users/user-1/accounts", `{"type":"DEBIT"}`, asUser1...)
	expectStatus(t, rec, http.StatusConflict)

	rec = s.do(t, http.MethodPost, "/api/v1/accounts/"+debit.ID+"/deposit", `{"amount":"100.00","category":"Salary"}`, asUser1...)
	expectStatus(t, rec, http.StatusCreated)

	rec = s.do(t, http.MethodPost, "/api/v1/transfers",
		`{"from_account_number":"`+debit.AccountNumber+`","to_account_number":"`+savings.AccountNumber+`","amount":"40"}`, asUser1...)
	expectStatus(t, rec, http.StatusCreated)
	transfer := decode[dto.TransferResponse](t, rec)
	if len(transfer.Transactions) != 2 {
		t.Fatalf("expected two legs, got %d", len(transfer.Transactions))
	}

	rec = s.do(t, http.MethodGet, "/api/v1/accounts/"+debit.ID+"/balance", "")
	expectStatus(t, rec, http.StatusOK)
	if b := decode[dto.BalanceResponse](t, rec); !b.Balance.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("expected debit balance 60, got %s", b.Balance)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/users/user-1/balance", "")
	expectStatus(t, rec, http.StatusOK)
	if total := decode[dto.UserBalanceResponse](t, rec); !total.TotalBalance.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected total 100, got %s", total.TotalBalance)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/accounts/"+debit.ID+"/transactions", "")
	expectStatus(t, rec, http.StatusOK)
	if history := decode[[]dto.TransactionResponse](t, rec); len(history) != 2 || history[0].Type != "TRANSFER" {
		t.Fatalf("unexpected history %+v", history)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/accounts/by-number/"+savings.AccountNumber, "")
	expectStatus(t, rec, http.StatusOK)

	rec = s.do(t, http.MethodGet, "/api/v1/ledger/consistency", "")
	expectStatus(t, rec, http.StatusOK)

	closeBody := `{"account_number":"` + savings.AccountNumber + `","type":"SAVINGS","reason":"no longer needed"}`
	rec = s.do(t, http.MethodPost, "/api/v1/accounts/"+savings.ID+"/close", closeBody, asUser1...)
	expectStatus(t, rec, http.StatusForbidden)

	rec = s.do(t, http.MethodPost, "/api/v1/accounts/"+savings.ID+"/withdraw", `{"amount":"40"}`, asUser1...)
	expectStatus(t, rec, http.StatusCreated)

	rec = s.do(t, http.MethodPost, "/api/v1/accounts/"+savings.ID+"/close", closeBody, asUser1...)
	expectStatus(t, rec, http.StatusOK)
	closed := decode[dto.ClosedAccountResponse](t, rec)
	if closed.DetachedTransactions != 1 {
		t.Fatalf("expected the sender leg to be detached, got %+v", closed)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/ledger/consistency", "")
	expectStatus(t, rec, http.StatusOK)

	rec = s.do(t, http.MethodGet, "/api/v1/users/user-1/accounts/count", "")
	if count := decode[dto.AccountCountResponse](t, rec); count.OpenAccounts != 1 {
		t.Fatalf("expected 1 open account, got %d", count.OpenAccounts)
	}
}

func TestNewRouter_OwnershipIsEnforced(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/users/user-1/accounts", `{"type":"DEBIT"}`)
	expectStatus(t, rec, http.StatusCreated)
	account := decode[dto.AccountResponse](t, rec)

	rec = s.do(t, http.MethodPost, "/api/v1/accounts/"+account.ID+"/deposit", `{"amount":"10"}`,
		apimiddleware.UserIDHeader, "user-2")
	expectStatus(t, rec, http.StatusNotFound)
}

func TestNewRouter_IdempotentDepositReplays(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/users/user-1/accounts", `{"type":"DEBIT"}`)
	expectStatus(t, rec, http.StatusCreated)
	account := decode[dto.AccountResponse](t, rec)

	path := "/api/v1/accounts/" + account.ID + "/deposit"
	first := s.do(t, http.MethodPost, path, `{"amount":"25"}`, apimiddleware.IdempotencyKeyHeader, "dep-1")
	expectStatus(t, first, http.StatusCreated)

	second := s.do(t, http.MethodPost, path, `{"amount":"25"}`, apimiddleware.IdempotencyKeyHeader, "dep-1")
	expectStatus(t, second, http.StatusCreated)
	if second.Header().Get(apimiddleware.IdempotencyReplayHeader) != "true" {
		t.Fatal("expected replayed response")
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("replay differs: %s vs %s", first.Body.String(), second.Body.String())
	}

	stored, _ := s.store.Account(account.ID)
	if !stored.Balance.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("expected a single deposit, balance is %s", stored.Balance)
	}
}

func TestNewRouter_CategoriesAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/categories/", `{"name":"Gifts","type":"INCOME"}`)
	expectStatus(t, rec, http.StatusCreated)

	rec = s.do(t, http.MethodGet, "/api/v1/categories/gifts", "")
	expectStatus(t, rec, http.StatusOK)

	rec = s.do(t, http.MethodDelete, "/api/v1/categories/Salary", "")
	expectStatus(t, rec, http.StatusForbidden)

	rec = s.do(t, http.MethodDelete, "/api/v1/categories/Gifts", "")
	expectStatus(t, rec, http.StatusNoContent)

	rec = s.do(t, http.MethodGet, "/metrics", "")
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "gobank_http_requests_total") {
		t.Fatal("expected HTTP request metrics to be exported")
	}
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	s := newTestServer(t, func(cfg *RouterConfig) {
		cfg.RateLimiter = apimiddleware.NewRateLimiter(0.001, 1, nil)
	})

	expectStatus(t, s.do(t, http.MethodGet, "/health", ""), http.StatusOK)
	expectStatus(t, s.do(t, http.MethodGet, "/health", ""), http.StatusTooManyRequests)
}
