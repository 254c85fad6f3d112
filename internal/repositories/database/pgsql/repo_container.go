package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/akunara/akunara_backend/internal/core/ports/repositories"
)

// NewRepositoryProvider wires every pgsql repository against one pool.
// Journal and approval repositories are created as their WithTx variants;
// the service container type-asserts them back when it needs transactions.
func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	accountRepo := newPgxAccountRepository(dbPool)
	currencyRepo := newPgxCurrencyRepository(dbPool)
	userRepo := newPgxUserRepository(dbPool)
	journalRepo := newPgxJournalRepository(dbPool, accountRepo)
	approvalRepo := newPgxApprovalRepository(dbPool)
	purchaseRepo := newPgxPurchaseRepository(dbPool)
	notificationRepo := newPgxNotificationRepository(dbPool)

	return portsrepo.RepositoryProvider{
		AccountRepo:      accountRepo,
		CurrencyRepo:     currencyRepo,
		UserRepo:         userRepo,
		JournalRepo:      journalRepo,
		ApprovalRepo:     approvalRepo,
		PurchaseRepo:     purchaseRepo,
		NotificationRepo: notificationRepo,
	}
}
