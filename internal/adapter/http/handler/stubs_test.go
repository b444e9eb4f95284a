package handler

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

type accountServiceStub struct {
	openFn        func(ctx context.Context, input usecase.OpenAccountInput) (*domain.Account, error)
	closeFn       func(ctx context.Context, input usecase.CloseAccountInput) (*usecase.ClosedAccount, error)
	statusFn      func(ctx context.Context, input usecase.ChangeStatusInput) (*domain.Account, error)
	getFn         func(ctx context.Context, id string) (*domain.Account, error)
	getByNumberFn func(ctx context.Context, number string) (*domain.Account, error)
	listFn        func(ctx context.Context, input usecase.ListUserAccountsInput) ([]*domain.Account, error)
	totalFn       func(ctx context.Context, userID string) (decimal.Decimal, error)
	countFn       func(ctx context.Context, userID string) (int, error)
}

func (s *accountServiceStub) OpenAccount(ctx context.Context, input usecase.OpenAccountInput) (*domain.Account, error) {
	return s.openFn(ctx, input)
}

func (s *accountServiceStub) CloseAccount(ctx context.Context, input usecase.CloseAccountInput) (*usecase.ClosedAccount, error) {
	return s.closeFn(ctx, input)
}

func (s *accountServiceStub) ChangeStatus(ctx context.Context, input usecase.ChangeStatusInput) (*domain.Account, error) {
	return s.statusFn(ctx, input)
}

func (s *accountServiceStub) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return s.getFn(ctx, id)
}

func (s *accountServiceStub) GetAccountByNumber(ctx context.Context, number string) (*domain.Account, error) {
	return s.getByNumberFn(ctx, number)
}

func (s *accountServiceStub) ListUserAccounts(ctx context.Context, input usecase.ListUserAccountsInput) ([]*domain.Account, error) {
	return s.listFn(ctx, input)
}

func (s *accountServiceStub) GetTotalBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	return s.totalFn(ctx, userID)
}

func (s *accountServiceStub) CountOpenAccounts(ctx context.Context, userID string) (int, error) {
	return s.countFn(ctx, userID)
}

type ledgerServiceStub struct {
	depositFn    func(ctx context.Context, input usecase.DepositInput) (*domain.Transaction, error)
	withdrawFn   func(ctx context.Context, input usecase.WithdrawInput) (*domain.Transaction, error)
	balanceFn    func(ctx context.Context, accountID string) (decimal.Decimal, error)
	historicalFn func(ctx context.Context, accountID string, at time.Time) (decimal.Decimal, error)
	historyFn    func(ctx context.Context, input usecase.GetHistoryInput) ([]*domain.Transaction, error)
}

func (s *ledgerServiceStub) Deposit(ctx context.Context, input usecase.DepositInput) (*domain.Transaction, error) {
	return s.depositFn(ctx, input)
}

func (s *ledgerServiceStub) Withdraw(ctx context.Context, input usecase.WithdrawInput) (*domain.Transaction, error) {
	return s.withdrawFn(ctx, input)
}

func (s *ledgerServiceStub) GetBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	return s.balanceFn(ctx, accountID)
}

func (s *ledgerServiceStub) GetHistoricalBalance(ctx context.Context, accountID string, at time.Time) (decimal.Decimal, error) {
	return s.historicalFn(ctx, accountID, at)
}

func (s *ledgerServiceStub) GetHistory(ctx context.Context, input usecase.GetHistoryInput) ([]*domain.Transaction, error) {
	return s.historyFn(ctx, input)
}

type transferServiceStub struct {
	createFn   func(ctx context.Context, input usecase.CreateTransferInput) (*domain.Transfer, error)
	byNumberFn func(ctx context.Context, input usecase.CreateTransferByNumberInput) (*domain.Transfer, error)
	getFn      func(ctx context.Context, id string) (*domain.Transfer, error)
	listFn     func(ctx context.Context, input usecase.ListTransfersByAccountInput) ([]*domain.Transfer, error)
}

func (s *transferServiceStub) CreateTransfer(ctx context.Context, input usecase.CreateTransferInput) (*domain.Transfer, error) {
	return s.createFn(ctx, input)
}

func (s *transferServiceStub) CreateTransferByNumber(ctx context.Context, input usecase.CreateTransferByNumberInput) (*domain.Transfer, error) {
	return s.byNumberFn(ctx, input)
}

func (s *transferServiceStub) GetTransfer(ctx context.Context, id string) (*domain.Transfer, error) {
	return s.getFn(ctx, id)
}

func (s *transferServiceStub) ListTransfersByAccount(ctx context.Context, input usecase.ListTransfersByAccountInput) ([]*domain.Transfer, error) {
	return s.listFn(ctx, input)
}

type categoryServiceStub struct {
	createFn func(ctx context.Context, input usecase.CreateCategoryInput) (*domain.Category, error)
	getFn    func(ctx context.Context, name string) (*domain.Category, error)
	listFn   func(ctx context.Context) ([]*domain.Category, error)
	deleteFn func(ctx context.Context, name string, admin bool) error
}

func (s *categoryServiceStub) CreateCategory(ctx context.Context, input usecase.CreateCategoryInput) (*domain.Category, error) {
	return s.createFn(ctx, input)
}

func (s *categoryServiceStub) GetCategory(ctx context.Context, name string) (*domain.Category, error) {
	return s.getFn(ctx, name)
}

func (s *categoryServiceStub) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.listFn(ctx)
}

func (s *categoryServiceStub) DeleteCategory(ctx context.Context, name string, admin bool) error {
	return s.deleteFn(ctx, name, admin)
}

type reconciliationServiceStub struct {
	reconcileFn   func(ctx context.Context, accountID string) (*usecase.ReconciliationResult, error)
	consistencyFn func(ctx context.Context) (*usecase.ConsistencyResult, error)
	reportFn      func(ctx context.Context) (*usecase.ReconciliationReport, error)
}

func (s *reconciliationServiceStub) ReconcileAccount(ctx context.Context, accountID string) (*usecase.ReconciliationResult, error) {
	return s.reconcileFn(ctx, accountID)
}

func (s *reconciliationServiceStub) CheckConsistency(ctx context.Context) (*usecase.ConsistencyResult, error) {
	return s.consistencyFn(ctx)
}

func (s *reconciliationServiceStub) GenerateReport(ctx context.Context) (*usecase.ReconciliationReport, error) {
	return s.reportFn(ctx)
}
