package usecase

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"ledger-service/src/internal/entity"
	"ledger-service/src/internal/model"
	"ledger-service/src/internal/model/converter"
	"ledger-service/src/internal/repository"
	httpError "ledger-service/src/pkg/http-error"
	"ledger-service/src/pkg/log"
	"ledger-service/src/pkg/utils"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	// TaskTypeSettlementRetry is the asynq task type for webhook replays.
	TaskTypeSettlementRetry = "settlement:retry"

	dedupTTL = 24 * time.Hour
)

// Replay outcomes reported by the sweep.
const (
	replaySkipped     = "skipped"
	replaySucceeded   = "succeeded"
	replayRescheduled = "rescheduled"
	replayTerminal    = "terminal"
)

var errUnresolvedChannel = errors.New("no wallet matches the payload channel")

// TaskScheduler is the slice of asynq.Client the settlement flow needs.
type TaskScheduler interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// DedupCache is the slice of redis.UniversalClient used for the webhook
// fast-path duplicate check.
type DedupCache interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

type retryTaskPayload struct {
	TaskID uint64 `json:"task_id"`
}

type SettlementUseCase struct {
	Log                 log.Log
	Config              *viper.Viper
	Wallets             WalletStore
	Deposits            DepositStore
	Retries             RetryStore
	Cache               DedupCache
	Scheduler           TaskScheduler
	TransactionProducer TransactionSender
}

func NewSettlementUseCase(
	logger log.Log,
	cfg *viper.Viper,
	wallets WalletStore,
	deposits DepositStore,
	retries RetryStore,
	cache DedupCache,
	scheduler TaskScheduler,
	transactionProducer TransactionSender,
) *SettlementUseCase {
	return &SettlementUseCase{
		Log:                 logger,
		Config:              cfg,
		Wallets:             wallets,
		Deposits:            deposits,
		Retries:             retries,
		Cache:               cache,
		Scheduler:           scheduler,
		TransactionProducer: transactionProducer,
	}
}

// Process handles one inbound settlement notification. The endpoint is safe to
// call repeatedly with the same payload: at most one credit per provider
// reference ever happens, and any payload the service has durably recorded is
// acknowledged so the provider stops re-delivering.
func (c *SettlementUseCase) Process(ctx context.Context, provider string, payload []byte, signature string) utils.Result {
	var result utils.Result

	maxPayload := c.Config.GetInt("settlement.max_payload_bytes")
	if maxPayload > 0 && len(payload) > maxPayload {
		errObj := httpError.NewRequestEntityTooLarge()
		errObj.Message = model.WebhookOutcomeTooLarge
		result.Error = errObj
		c.Log.Warn("settlement-usecase", fmt.Sprintf("payload of %d bytes over ceiling", len(payload)), "Process", provider)
		return result
	}

	algorithm := c.Config.GetString(fmt.Sprintf("webhook.providers.%s.algorithm", provider))
	secret := c.Config.GetString(fmt.Sprintf("webhook.providers.%s.secret", provider))
	if algorithm == "" {
		errObj := httpError.NewNotFound()
		errObj.Message = fmt.Sprintf("unknown settlement provider %s", provider)
		result.Error = errObj
		c.Log.Warn("settlement-usecase", errObj.Message, "Process", provider)
		return result
	}
	if !verifySignature(algorithm, secret, payload, signature) {
		errObj := httpError.NewUnauthorized()
		errObj.Message = model.WebhookOutcomeBadSignature
		result.Error = errObj
		c.Log.Warn("settlement-usecase", "signature verification failed", "Process", provider)
		return result
	}

	var parsed model.SettlementPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = "malformed settlement payload"
		result.Error = errObj
		c.Log.Warn("settlement-usecase", fmt.Sprintf("unparseable payload: %v", err), "Process", provider)
		return result
	}
	if parsed.Reference == "" {
		errObj := httpError.NewBadRequest()
		errObj.Message = "settlement payload has no reference"
		result.Error = errObj
		return result
	}
	if errObj := c.checkAmountBounds(parsed.Amount); errObj != nil {
		result.Error = errObj
		c.Log.Warn("settlement-usecase", errObj.Message, "Process", parsed.Reference)
		return result
	}

	// Fast-path dedup. Redis is advisory only: the deposits table stays the
	// durable arbiter, so a cache miss or cache outage never double-credits.
	if c.Cache != nil {
		key := fmt.Sprintf("settlement:dedup:%s:%s", provider, parsed.Reference)
		fresh, err := c.Cache.SetNX(ctx, key, 1, dedupTTL).Result()
		if err != nil {
			c.Log.Warn("settlement-usecase", fmt.Sprintf("dedup cache unavailable: %v", err), "Process", parsed.Reference)
		} else if !fresh {
			deposit, derr := c.Deposits.FindByProviderReference(ctx, provider, parsed.Reference)
			if derr == nil && deposit.Status == entity.DepositStatusCredited {
				result.Data = &model.WebhookResponse{Outcome: model.WebhookOutcomeAlreadyProcessed, Reference: parsed.Reference}
				return result
			}
		}
	}

	wallet, err := c.resolveWallet(ctx, &parsed)
	if err != nil {
		if errors.Is(err, errUnresolvedChannel) {
			// Unknown channels are expected noise, acknowledged and logged.
			c.Log.Info("settlement-usecase", "no wallet for payload channel, ignoring", "Process", parsed.Reference)
			result.Data = &model.WebhookResponse{Outcome: model.WebhookOutcomeIgnored, Reference: parsed.Reference}
			return result
		}
		c.Log.Error("settlement-usecase", fmt.Sprintf("channel resolution failed: %v", err), "Process", parsed.Reference)
		result.Data = c.recordFailure(ctx, provider, &parsed, payload, signature, err)
		return result
	}

	outcome, err := c.settle(ctx, provider, &parsed, wallet, payload)
	if err != nil {
		c.Log.Error("settlement-usecase", fmt.Sprintf("settlement failed: %v", err), "Process", parsed.Reference)
		result.Data = c.recordFailure(ctx, provider, &parsed, payload, signature, err)
		return result
	}

	result.Data = &model.WebhookResponse{Outcome: outcome, Reference: parsed.Reference}
	return result
}

func (c *SettlementUseCase) checkAmountBounds(amount decimal.Decimal) *httpError.CommonError {
	if amount.LessThanOrEqual(decimal.Zero) {
		errObj := httpError.NewBadRequest()
		errObj.Message = "settlement amount must be positive"
		return errObj
	}
	maxAmount := c.Config.GetString("settlement.max_amount")
	if maxAmount != "" {
		ceiling, err := decimal.NewFromString(maxAmount)
		if err == nil && amount.GreaterThan(ceiling) {
			errObj := httpError.NewBadRequest()
			errObj.Message = fmt.Sprintf("settlement amount exceeds the configured maximum %s", maxAmount)
			return errObj
		}
	}
	return nil
}

// resolveWallet walks the known payload shapes in priority order until one
// yields an account-linked channel: direct field, nested payment detail,
// nested sender metadata, then the account-number prefix of the reference.
func (c *SettlementUseCase) resolveWallet(ctx context.Context, p *model.SettlementPayload) (*entity.Wallet, error) {
	for _, accountNumber := range channelCandidates(p) {
		wallet, err := c.Wallets.FindByChannelAccountNumber(ctx, accountNumber)
		if err == nil {
			return wallet, nil
		}
		if !errors.Is(err, repository.ErrWalletNotFound) {
			return nil, err
		}
	}
	return nil, errUnresolvedChannel
}

func channelCandidates(p *model.SettlementPayload) []string {
	var candidates []string
	if p.AccountNumber != "" {
		candidates = append(candidates, p.AccountNumber)
	}
	if p.PaymentDetail != nil && p.PaymentDetail.AccountNumber != "" {
		candidates = append(candidates, p.PaymentDetail.AccountNumber)
	}
	if p.Sender != nil && p.Sender.AccountNumber != "" {
		candidates = append(candidates, p.Sender.AccountNumber)
	}
	// Some providers only echo our reference, formatted "<account>-<suffix>".
	if i := strings.IndexByte(p.Reference, '-'); i > 0 {
		candidates = append(candidates, p.Reference[:i])
	}
	return candidates
}

// settle performs the idempotent crediting step against the durable deposit
// record keyed by provider reference.
func (c *SettlementUseCase) settle(ctx context.Context, provider string, p *model.SettlementPayload, wallet *entity.Wallet, raw []byte) (string, error) {
	deposit, err := c.Deposits.FindByProviderReference(ctx, provider, p.Reference)
	switch {
	case errors.Is(err, repository.ErrDepositNotFound):
		deposit = &entity.Deposit{
			WalletID:          wallet.ID,
			Provider:          provider,
			ProviderReference: p.Reference,
			Amount:            p.Amount,
			RawPayload:        raw,
		}
		if cerr := c.Deposits.Create(ctx, deposit); cerr != nil {
			if !repository.IsDuplicateEntry(cerr) {
				return "", cerr
			}
			// Lost the insert race to a concurrent delivery; adopt its record.
			deposit, err = c.Deposits.FindByProviderReference(ctx, provider, p.Reference)
			if err != nil {
				return "", err
			}
		}
	case err != nil:
		return "", err
	}

	if deposit.Status == entity.DepositStatusCredited {
		return model.WebhookOutcomeAlreadyProcessed, nil
	}

	// A pending record from a prior partial failure falls through to retry the
	// credit; the idempotent reference makes that safe.
	creditResult, err := c.Wallets.Credit(ctx, repository.LedgerMutation{
		WalletID:  deposit.WalletID,
		Amount:    deposit.Amount,
		Category:  entity.TransactionCategoryDeposit,
		RequestID: deposit.ProviderReference,
		Reference: fmt.Sprintf("settlement:%s:%s", provider, deposit.ProviderReference),
	})
	if err != nil {
		return "", err
	}

	if err := c.Deposits.UpdateStatus(ctx, deposit.ID, entity.DepositStatusCredited); err != nil {
		// The credit committed; a pending status is healed by the next replay,
		// which will see AlreadyProcessed and only flip the status.
		c.Log.Error("settlement-usecase", fmt.Sprintf("credit committed but status update failed: %v", err), "settle", deposit.ProviderReference)
		return "", err
	}

	if creditResult.AlreadyProcessed {
		return model.WebhookOutcomeAlreadyProcessed, nil
	}
	if creditResult.Transaction != nil {
		event := converter.TransactionToEvent(creditResult.Wallet, creditResult.Transaction)
		if perr := c.TransactionProducer.Send(event); perr != nil {
			c.Log.Error("settlement-usecase", fmt.Sprintf("failed publish transaction event: %v", perr), "settle", event.EventID)
		}
	}
	return model.WebhookOutcomeCredited, nil
}

// recordFailure durably records the failed delivery as a retry task. The
// provider is still acknowledged: the payload is recorded and will be replayed
// (transient) or reviewed by an operator (permanent).
func (c *SettlementUseCase) recordFailure(ctx context.Context, provider string, p *model.SettlementPayload, payload []byte, signature string, cause error) *model.WebhookResponse {
	task := &entity.WebhookRetryTask{
		Provider:          provider,
		ProviderReference: p.Reference,
		Payload:           payload,
		Signature:         signature,
		NextAttemptAt:     time.Now().UTC().Add(backoffFor(0)),
		LastError:         sql.NullString{String: cause.Error(), Valid: true},
	}
	if isPermanentSettlementError(cause) {
		task.Status = entity.RetryStatusFailedPermanent
	}

	if err := c.Retries.Create(ctx, task); err != nil {
		c.Log.Error("settlement-usecase", fmt.Sprintf("failed record retry task: %v", err), "recordFailure", p.Reference)
		return &model.WebhookResponse{Outcome: model.WebhookOutcomeWillRetry, Reference: p.Reference}
	}

	if task.Status == entity.RetryStatusPending {
		c.enqueueReplay(task.ID, backoffFor(0))
	}
	return &model.WebhookResponse{Outcome: model.WebhookOutcomeWillRetry, Reference: p.Reference}
}

func (c *SettlementUseCase) enqueueReplay(taskID uint64, delay time.Duration) {
	if c.Scheduler == nil {
		return
	}
	body, _ := json.Marshal(retryTaskPayload{TaskID: taskID})
	if _, err := c.Scheduler.Enqueue(asynq.NewTask(TaskTypeSettlementRetry, body), asynq.ProcessIn(delay)); err != nil {
		// The sweep picks the task up anyway; scheduling is best effort.
		c.Log.Error("settlement-usecase", fmt.Sprintf("failed enqueue replay: %v", err), "enqueueReplay", utils.ConvertString(taskID))
	}
}

// backoffFor doubles per attempt: 1m, 2m, 4m, 8m, ...
func backoffFor(retryCount int) time.Duration {
	return time.Duration(1<<uint(retryCount)) * time.Minute
}

// isPermanentSettlementError reports failures no amount of retrying can fix:
// the referenced business entity cannot exist. Everything else (lock
// contention, connectivity, timeouts) is treated as transient.
func isPermanentSettlementError(err error) bool {
	return errors.Is(err, repository.ErrWalletNotFound) ||
		errors.Is(err, repository.ErrInvalidAmount) ||
		errors.Is(err, errUnresolvedChannel)
}

// HandleRetryTask is the asynq handler for scheduled replays. Rescheduling is
// self-managed through the retry table, so the task itself never errors for
// business failures.
func (c *SettlementUseCase) HandleRetryTask(ctx context.Context, t *asynq.Task) error {
	var p retryTaskPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		c.Log.Error("settlement-usecase", fmt.Sprintf("malformed retry task payload: %v", err), "HandleRetryTask", "")
		return nil
	}

	outcome, err := c.ReplayTask(ctx, p.TaskID)
	if err != nil {
		return err
	}
	c.Log.Info("settlement-usecase", fmt.Sprintf("replayed retry task: %s", outcome), "HandleRetryTask", utils.ConvertString(p.TaskID))
	return nil
}

// ReplayTask claims one due retry task and replays the settlement against the
// durable idempotency key. Safe to race with the scheduled worker and other
// sweeps: the claim takes the row lock and re-checks due time and status.
func (c *SettlementUseCase) ReplayTask(ctx context.Context, taskID uint64) (string, error) {
	task, err := c.Retries.Claim(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrRetryTaskNotDue) {
			return replaySkipped, nil
		}
		return "", err
	}

	maxRetries := c.Config.GetInt("settlement.max_retries")
	if maxRetries <= 0 {
		maxRetries = 5
	}
	// The claim already counted this attempt; a task past the budget goes
	// terminal without another settle.
	if task.RetryCount > maxRetries {
		if uerr := c.Retries.UpdateAfterAttempt(ctx, task.ID, entity.RetryStatusFailedTransient, task.NextAttemptAt, "retry budget exhausted"); uerr != nil {
			return "", uerr
		}
		c.Log.Error("settlement-usecase", "retry task exhausted, needs operator attention", "ReplayTask", task.ProviderReference)
		return replayTerminal, nil
	}

	var parsed model.SettlementPayload
	if err := json.Unmarshal(task.Payload, &parsed); err != nil {
		return replayTerminal, c.Retries.UpdateAfterAttempt(ctx, task.ID, entity.RetryStatusFailedPermanent, task.NextAttemptAt, "malformed payload snapshot")
	}

	wallet, err := c.resolveWallet(ctx, &parsed)
	if err == nil {
		var outcome string
		outcome, err = c.settle(ctx, task.Provider, &parsed, wallet, task.Payload)
		if err == nil {
			if uerr := c.Retries.UpdateAfterAttempt(ctx, task.ID, entity.RetryStatusSucceeded, task.NextAttemptAt, ""); uerr != nil {
				return "", uerr
			}
			c.Log.Info("settlement-usecase", fmt.Sprintf("retry task settled: %s", outcome), "ReplayTask", task.ProviderReference)
			return replaySucceeded, nil
		}
	}

	if isPermanentSettlementError(err) {
		if uerr := c.Retries.UpdateAfterAttempt(ctx, task.ID, entity.RetryStatusFailedPermanent, task.NextAttemptAt, err.Error()); uerr != nil {
			return "", uerr
		}
		return replayTerminal, nil
	}

	if task.RetryCount >= maxRetries {
		if uerr := c.Retries.UpdateAfterAttempt(ctx, task.ID, entity.RetryStatusFailedTransient, task.NextAttemptAt, err.Error()); uerr != nil {
			return "", uerr
		}
		c.Log.Error("settlement-usecase", "retry task exhausted, needs operator attention", "ReplayTask", task.ProviderReference)
		return replayTerminal, nil
	}

	delay := backoffFor(task.RetryCount)
	next := time.Now().UTC().Add(delay)
	if uerr := c.Retries.UpdateAfterAttempt(ctx, task.ID, entity.RetryStatusPending, next, err.Error()); uerr != nil {
		return "", uerr
	}
	c.enqueueReplay(task.ID, delay)
	return replayRescheduled, nil
}

// Sweep replays every due, non-terminal retry task. Idempotent and safe to run
// concurrently with itself and with the scheduled worker.
func (c *SettlementUseCase) Sweep(ctx context.Context) utils.Result {
	var result utils.Result

	limit := c.Config.GetInt("settlement.sweep_batch")
	tasks, err := c.Retries.FindDue(ctx, limit)
	if err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = fmt.Sprintf("failed list due retry tasks: %v", err)
		result.Error = errObj
		c.Log.Error("settlement-usecase", errObj.Message, "Sweep", "")
		return result
	}

	response := &model.SweepResponse{}
	for i := range tasks {
		outcome, err := c.ReplayTask(ctx, tasks[i].ID)
		if err != nil {
			c.Log.Error("settlement-usecase", fmt.Sprintf("replay failed: %v", err), "Sweep", tasks[i].ProviderReference)
			continue
		}
		if outcome == replaySkipped {
			continue
		}
		response.Processed++
		switch outcome {
		case replaySucceeded:
			response.Succeeded++
		case replayRescheduled:
			response.Rescheduled++
		case replayTerminal:
			response.Terminal++
		}
	}

	result.Data = response
	return result
}
