package usecase

import (
	"context"
	"errors"
	"time"

	"ledger-service/src/internal/entity"
	"ledger-service/src/internal/model"
	"ledger-service/src/internal/repository"
	"ledger-service/src/pkg/log"

	driver "github.com/go-sql-driver/mysql"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// In-memory fakes mirroring the repository semantics closely enough to
// exercise the orchestration and the money-conservation properties.

var testLogger = log.Log{LogLevel: 3}

var errCreditUnavailable = errors.New("credit backend unavailable")

type fakeWalletStore struct {
	wallets      map[uint64]*entity.Wallet
	transactions []entity.WalletTransaction
	nextTxID     uint64

	creditFailures int // next N Credit calls fail transiently
	restoreCalls   int
}

func newFakeWalletStore(wallets ...*entity.Wallet) *fakeWalletStore {
	s := &fakeWalletStore{wallets: map[uint64]*entity.Wallet{}}
	for _, w := range wallets {
		s.wallets[w.ID] = w
	}
	return s
}

func (s *fakeWalletStore) FindByUserIDAndCurrency(_ context.Context, userID uint64, currency string) (*entity.Wallet, error) {
	for _, w := range s.wallets {
		if w.UserID == userID && w.Currency == currency {
			return w, nil
		}
	}
	return nil, repository.ErrWalletNotFound
}

func (s *fakeWalletStore) FindByID(_ context.Context, walletID uint64) (*entity.Wallet, error) {
	if w, ok := s.wallets[walletID]; ok {
		return w, nil
	}
	return nil, repository.ErrWalletNotFound
}

func (s *fakeWalletStore) FindByChannelAccountNumber(_ context.Context, accountNumber string) (*entity.Wallet, error) {
	for _, w := range s.wallets {
		if w.ChannelAccountNumber.Valid && w.ChannelAccountNumber.String == accountNumber {
			return w, nil
		}
	}
	return nil, repository.ErrWalletNotFound
}

func (s *fakeWalletStore) ListTransactions(_ context.Context, walletID uint64, _, _ int) ([]entity.WalletTransaction, error) {
	var out []entity.WalletTransaction
	for _, txn := range s.transactions {
		if txn.WalletID == walletID {
			out = append(out, txn)
		}
	}
	return out, nil
}

func (s *fakeWalletStore) record(w *entity.Wallet, direction string, m repository.LedgerMutation, before decimal.Decimal) *entity.WalletTransaction {
	s.nextTxID++
	txn := entity.WalletTransaction{
		ID:            s.nextTxID,
		WalletID:      w.ID,
		Direction:     direction,
		Category:      m.Category,
		Amount:        m.Amount,
		BalanceBefore: before,
		BalanceAfter:  w.Balance,
		Status:        entity.TransactionStatusSuccess,
		RequestID:     m.RequestID,
		Reference:     m.Reference,
		CreatedAt:     time.Now().UTC(),
	}
	s.transactions = append(s.transactions, txn)
	return &s.transactions[len(s.transactions)-1]
}

func (s *fakeWalletStore) hasCredit(reference, category string) bool {
	for _, txn := range s.transactions {
		if txn.Reference == reference && txn.Category == category && txn.Direction == entity.TransactionDirectionCredit {
			return true
		}
	}
	return false
}

func (s *fakeWalletStore) Lock(ctx context.Context, m repository.LedgerMutation) (*repository.LedgerResult, error) {
	if m.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, repository.ErrInvalidAmount
	}
	w, err := s.FindByID(ctx, m.WalletID)
	if err != nil {
		return nil, err
	}
	if w.Balance.LessThan(m.Amount) {
		return nil, repository.ErrInsufficientFunds
	}
	before := w.Balance
	w.Balance = w.Balance.Sub(m.Amount)
	w.LockedBalance = w.LockedBalance.Add(m.Amount)
	return &repository.LedgerResult{Wallet: w, Transaction: s.record(w, entity.TransactionDirectionDebit, m, before)}, nil
}

func (s *fakeWalletStore) Release(ctx context.Context, m repository.LedgerMutation) (*repository.LedgerResult, error) {
	if m.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, repository.ErrInvalidAmount
	}
	w, err := s.FindByID(ctx, m.WalletID)
	if err != nil {
		return nil, err
	}
	if w.LockedBalance.LessThan(m.Amount) {
		return nil, repository.ErrInsufficientEscrow
	}
	w.LockedBalance = w.LockedBalance.Sub(m.Amount)
	return &repository.LedgerResult{Wallet: w, Transaction: s.record(w, entity.TransactionDirectionDebit, m, w.Balance)}, nil
}

func (s *fakeWalletStore) Refund(ctx context.Context, m repository.LedgerMutation) (*repository.LedgerResult, error) {
	if m.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, repository.ErrInvalidAmount
	}
	w, err := s.FindByID(ctx, m.WalletID)
	if err != nil {
		return nil, err
	}
	if w.LockedBalance.LessThan(m.Amount) {
		return nil, repository.ErrInsufficientEscrow
	}
	before := w.Balance
	w.LockedBalance = w.LockedBalance.Sub(m.Amount)
	w.Balance = w.Balance.Add(m.Amount)
	return &repository.LedgerResult{Wallet: w, Transaction: s.record(w, entity.TransactionDirectionCredit, m, before)}, nil
}

func (s *fakeWalletStore) Credit(ctx context.Context, m repository.LedgerMutation) (*repository.LedgerResult, error) {
	if m.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, repository.ErrInvalidAmount
	}
	if s.creditFailures > 0 {
		s.creditFailures--
		return nil, errCreditUnavailable
	}
	w, err := s.FindByID(ctx, m.WalletID)
	if err != nil {
		return nil, err
	}
	if m.Reference != "" && s.hasCredit(m.Reference, m.Category) {
		return &repository.LedgerResult{Wallet: w, AlreadyProcessed: true}, nil
	}
	before := w.Balance
	w.Balance = w.Balance.Add(m.Amount)
	return &repository.LedgerResult{Wallet: w, Transaction: s.record(w, entity.TransactionDirectionCredit, m, before)}, nil
}

func (s *fakeWalletStore) Debit(ctx context.Context, m repository.LedgerMutation) (*repository.LedgerResult, error) {
	if m.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, repository.ErrInvalidAmount
	}
	w, err := s.FindByID(ctx, m.WalletID)
	if err != nil {
		return nil, err
	}
	if w.Balance.LessThan(m.Amount) {
		return nil, repository.ErrInsufficientFunds
	}
	before := w.Balance
	w.Balance = w.Balance.Sub(m.Amount)
	return &repository.LedgerResult{Wallet: w, Transaction: s.record(w, entity.TransactionDirectionDebit, m, before)}, nil
}

func (s *fakeWalletStore) RestoreEscrow(ctx context.Context, m repository.LedgerMutation) (*repository.LedgerResult, error) {
	s.restoreCalls++
	w, err := s.FindByID(ctx, m.WalletID)
	if err != nil {
		return nil, err
	}
	w.LockedBalance = w.LockedBalance.Add(m.Amount)
	return &repository.LedgerResult{Wallet: w, Transaction: s.record(w, entity.TransactionDirectionDebit, m, w.Balance)}, nil
}

type fakeOfferStore struct {
	wallets *fakeWalletStore
	offers  map[entity.OfferSide]map[uint64]*entity.Offer
	nextID  uint64
}

func newFakeOfferStore(wallets *fakeWalletStore) *fakeOfferStore {
	return &fakeOfferStore{
		wallets: wallets,
		offers: map[entity.OfferSide]map[uint64]*entity.Offer{
			entity.OfferSideDeposit:  {},
			entity.OfferSideWithdraw: {},
		},
	}
}

func (s *fakeOfferStore) CreateOffer(ctx context.Context, side entity.OfferSide, offer *entity.Offer, merchantWalletID uint64, requestID string) error {
	if side == entity.OfferSideDeposit {
		if _, err := s.wallets.Lock(ctx, repository.LedgerMutation{
			WalletID:  merchantWalletID,
			Amount:    offer.AmountAvailable,
			Category:  entity.TransactionCategoryTrade,
			RequestID: requestID,
			Reference: "offer-lock:" + requestID,
		}); err != nil {
			return err
		}
	}
	s.nextID++
	offer.ID = s.nextID
	offer.IsActive = true
	s.offers[side][offer.ID] = offer
	return nil
}

func (s *fakeOfferStore) FindByID(_ context.Context, side entity.OfferSide, offerID uint64) (*entity.Offer, error) {
	if offer, ok := s.offers[side][offerID]; ok {
		return offer, nil
	}
	return nil, repository.ErrOfferNotFound
}

func (s *fakeOfferStore) ListActive(_ context.Context, side entity.OfferSide, currency string, _, _ int) ([]entity.Offer, error) {
	var out []entity.Offer
	for _, offer := range s.offers[side] {
		if offer.IsActive && offer.Currency == currency {
			out = append(out, *offer)
		}
	}
	return out, nil
}

func (s *fakeOfferStore) Deactivate(ctx context.Context, side entity.OfferSide, offerID, merchantID, merchantWalletID uint64, requestID string) (decimal.Decimal, error) {
	offer, err := s.FindByID(ctx, side, offerID)
	if err != nil {
		return decimal.Zero, err
	}
	if offer.MerchantID != merchantID {
		return decimal.Zero, repository.ErrUnauthorizedParty
	}
	if !offer.IsActive {
		return decimal.Zero, repository.ErrOfferInactive
	}
	remaining := offer.AmountAvailable
	if side == entity.OfferSideDeposit && remaining.GreaterThan(decimal.Zero) {
		if _, err := s.wallets.Refund(ctx, repository.LedgerMutation{
			WalletID:  merchantWalletID,
			Amount:    remaining,
			Category:  entity.TransactionCategoryTrade,
			RequestID: requestID,
			Reference: "offer-close:" + requestID,
		}); err != nil {
			return decimal.Zero, err
		}
	}
	offer.AmountAvailable = decimal.Zero
	offer.IsActive = false
	return remaining, nil
}

type fakeOrderStore struct {
	wallets *fakeWalletStore
	offers  *fakeOfferStore
	orders  map[entity.OfferSide]map[uint64]*entity.Order
	nextID  uint64
}

func newFakeOrderStore(wallets *fakeWalletStore, offers *fakeOfferStore) *fakeOrderStore {
	return &fakeOrderStore{
		wallets: wallets,
		offers:  offers,
		orders: map[entity.OfferSide]map[uint64]*entity.Order{
			entity.OfferSideDeposit:  {},
			entity.OfferSideWithdraw: {},
		},
	}
}

func (s *fakeOrderStore) CreateOrder(ctx context.Context, side entity.OfferSide, order *entity.Order, counterpartyWalletID uint64, requestID string) error {
	if side == entity.OfferSideWithdraw {
		if _, err := s.wallets.Lock(ctx, repository.LedgerMutation{
			WalletID:  counterpartyWalletID,
			Amount:    order.AmountRequested,
			Category:  entity.TransactionCategoryTrade,
			RequestID: requestID,
			Reference: "order-lock:" + order.Reference,
		}); err != nil {
			return err
		}
	}
	offer, err := s.offers.FindByID(ctx, side, order.OfferID)
	if err != nil {
		return err
	}
	if !offer.IsActive {
		return repository.ErrOfferInactive
	}
	if offer.MerchantID == order.CounterpartyID {
		return repository.ErrSelfTrade
	}
	if order.AmountRequested.LessThan(offer.MinAmount) || order.AmountRequested.GreaterThan(offer.MaxAmount) {
		return repository.ErrAmountOutOfRange
	}
	if offer.AmountAvailable.LessThan(order.AmountRequested) {
		return repository.ErrOfferInventoryExhausted
	}
	offer.AmountAvailable = offer.AmountAvailable.Sub(order.AmountRequested)
	if offer.AmountAvailable.IsZero() {
		offer.IsActive = false
	}

	s.nextID++
	order.ID = s.nextID
	order.MerchantID = offer.MerchantID
	order.Currency = offer.Currency
	order.TotalPrice = order.AmountRequested.Mul(offer.UnitPrice)
	order.Status = entity.OrderStatusPending
	s.orders[side][order.ID] = order
	return nil
}

func (s *fakeOrderStore) FindByID(_ context.Context, side entity.OfferSide, orderID uint64) (*entity.Order, error) {
	if order, ok := s.orders[side][orderID]; ok {
		return order, nil
	}
	return nil, repository.ErrOrderNotFound
}

func (s *fakeOrderStore) MarkPaid(ctx context.Context, side entity.OfferSide, orderID, actorID uint64) (*entity.Order, error) {
	order, err := s.FindByID(ctx, side, orderID)
	if err != nil {
		return nil, err
	}
	payer := order.CounterpartyID
	if side == entity.OfferSideWithdraw {
		payer = order.MerchantID
	}
	if actorID != payer {
		return nil, repository.ErrUnauthorizedParty
	}
	if order.Status != entity.OrderStatusPending {
		return nil, repository.ErrInvalidStateTransition
	}
	order.Status = entity.OrderStatusPaid
	return order, nil
}

func (s *fakeOrderStore) ReleaseEscrowForConfirm(ctx context.Context, side entity.OfferSide, orderID, actorID, escrowWalletID uint64, requestID string) (*entity.Order, error) {
	order, err := s.FindByID(ctx, side, orderID)
	if err != nil {
		return nil, err
	}
	confirmer := order.MerchantID
	if side == entity.OfferSideWithdraw {
		confirmer = order.CounterpartyID
	}
	if actorID != confirmer {
		return nil, repository.ErrUnauthorizedParty
	}
	if order.Status != entity.OrderStatusPaid {
		return nil, repository.ErrInvalidStateTransition
	}
	if _, err := s.wallets.Release(ctx, repository.LedgerMutation{
		WalletID:  escrowWalletID,
		Amount:    order.AmountRequested,
		Category:  entity.TransactionCategoryTrade,
		RequestID: requestID,
		Reference: "order-release:" + order.Reference + ":" + requestID,
	}); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *fakeOrderStore) MarkCompleted(ctx context.Context, side entity.OfferSide, orderID uint64) (*entity.Order, error) {
	order, err := s.FindByID(ctx, side, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != entity.OrderStatusPaid {
		return nil, repository.ErrInvalidStateTransition
	}
	order.Status = entity.OrderStatusCompleted
	return order, nil
}

func (s *fakeOrderStore) CancelOrder(ctx context.Context, side entity.OfferSide, orderID, actorID, escrowWalletID uint64, requestID string) (*entity.Order, error) {
	order, err := s.FindByID(ctx, side, orderID)
	if err != nil {
		return nil, err
	}
	if actorID != order.MerchantID && actorID != order.CounterpartyID {
		return nil, repository.ErrUnauthorizedParty
	}
	if order.Status != entity.OrderStatusPending {
		return nil, repository.ErrInvalidStateTransition
	}
	if side == entity.OfferSideWithdraw {
		if _, err := s.wallets.Refund(ctx, repository.LedgerMutation{
			WalletID:  escrowWalletID,
			Amount:    order.AmountRequested,
			Category:  entity.TransactionCategoryTrade,
			RequestID: requestID,
			Reference: "order-cancel:" + order.Reference,
		}); err != nil {
			return nil, err
		}
	}
	offer, err := s.offers.FindByID(ctx, side, order.OfferID)
	if err != nil {
		return nil, err
	}
	offer.AmountAvailable = offer.AmountAvailable.Add(order.AmountRequested)
	offer.IsActive = true
	order.Status = entity.OrderStatusCancelled
	return order, nil
}

type fakeDepositStore struct {
	deposits map[string]*entity.Deposit
	nextID   uint64

	failStatusUpdates int
}

func newFakeDepositStore() *fakeDepositStore {
	return &fakeDepositStore{deposits: map[string]*entity.Deposit{}}
}

func depositKey(provider, reference string) string { return provider + "|" + reference }

func (s *fakeDepositStore) FindByProviderReference(_ context.Context, provider, providerReference string) (*entity.Deposit, error) {
	if d, ok := s.deposits[depositKey(provider, providerReference)]; ok {
		return d, nil
	}
	return nil, repository.ErrDepositNotFound
}

func (s *fakeDepositStore) Create(_ context.Context, deposit *entity.Deposit) error {
	key := depositKey(deposit.Provider, deposit.ProviderReference)
	if _, ok := s.deposits[key]; ok {
		return &driver.MySQLError{Number: 1062}
	}
	s.nextID++
	deposit.ID = s.nextID
	deposit.Status = entity.DepositStatusPending
	s.deposits[key] = deposit
	return nil
}

func (s *fakeDepositStore) UpdateStatus(_ context.Context, depositID uint64, status string) error {
	if s.failStatusUpdates > 0 {
		s.failStatusUpdates--
		return errors.New("deposit status update failed")
	}
	for _, d := range s.deposits {
		if d.ID == depositID {
			d.Status = status
			return nil
		}
	}
	return repository.ErrDepositNotFound
}

type fakeRetryStore struct {
	tasks  map[uint64]*entity.WebhookRetryTask
	nextID uint64
}

func newFakeRetryStore() *fakeRetryStore {
	return &fakeRetryStore{tasks: map[uint64]*entity.WebhookRetryTask{}}
}

func (s *fakeRetryStore) Create(_ context.Context, task *entity.WebhookRetryTask) error {
	if task.Status == "" {
		task.Status = entity.RetryStatusPending
	}
	s.nextID++
	task.ID = s.nextID
	s.tasks[task.ID] = task
	return nil
}

func (s *fakeRetryStore) FindByID(_ context.Context, taskID uint64) (*entity.WebhookRetryTask, error) {
	if task, ok := s.tasks[taskID]; ok {
		return task, nil
	}
	return nil, repository.ErrRetryTaskNotDue
}

func (s *fakeRetryStore) FindDue(_ context.Context, _ int) ([]entity.WebhookRetryTask, error) {
	var out []entity.WebhookRetryTask
	for _, task := range s.tasks {
		if task.Status == entity.RetryStatusPending && !task.NextAttemptAt.After(time.Now().UTC()) {
			out = append(out, *task)
		}
	}
	return out, nil
}

func (s *fakeRetryStore) Claim(_ context.Context, taskID uint64) (*entity.WebhookRetryTask, error) {
	task, ok := s.tasks[taskID]
	if !ok || task.Status != entity.RetryStatusPending || task.NextAttemptAt.After(time.Now().UTC()) {
		return nil, repository.ErrRetryTaskNotDue
	}
	task.RetryCount++
	task.NextAttemptAt = time.Now().UTC().Add(5 * time.Minute)
	claimed := *task
	return &claimed, nil
}

func (s *fakeRetryStore) UpdateAfterAttempt(_ context.Context, taskID uint64, status string, nextAttemptAt time.Time, lastError string) error {
	task, ok := s.tasks[taskID]
	if !ok {
		return repository.ErrRetryTaskNotDue
	}
	task.Status = status
	task.NextAttemptAt = nextAttemptAt
	if lastError != "" {
		task.LastError.String = lastError
		task.LastError.Valid = true
	}
	return nil
}

type fakeTransactionSender struct {
	events []*model.TransactionEvent
}

func (s *fakeTransactionSender) Send(event *model.TransactionEvent) error {
	s.events = append(s.events, event)
	return nil
}

type fakeOrderSender struct {
	events []*model.OrderEvent
}

func (s *fakeOrderSender) Send(event *model.OrderEvent) error {
	s.events = append(s.events, event)
	return nil
}

type fakeScheduler struct {
	enqueued []*asynq.Task
}

func (s *fakeScheduler) Enqueue(task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	s.enqueued = append(s.enqueued, task)
	return &asynq.TaskInfo{}, nil
}

type fakeDedupCache struct {
	seen map[string]bool
	err  error
}

func newFakeDedupCache() *fakeDedupCache {
	return &fakeDedupCache{seen: map[string]bool{}}
}

func (c *fakeDedupCache) SetNX(_ context.Context, key string, _ interface{}, _ time.Duration) *redis.BoolCmd {
	if c.err != nil {
		cmd := redis.NewBoolResult(false, c.err)
		return cmd
	}
	fresh := !c.seen[key]
	c.seen[key] = true
	return redis.NewBoolResult(fresh, nil)
}
