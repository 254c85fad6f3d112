package services

import (
	portsrepo "github.com/akunara/akunara_backend/internal/core/ports/repositories"
	portssvc "github.com/akunara/akunara_backend/internal/core/ports/services"
	"github.com/akunara/akunara_backend/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Currency = NewCurrencyService(repos.CurrencyRepo)
	container.Account = NewAccountService(repos.AccountRepo, repos.CurrencyRepo)
	container.User = NewUserService(repos.UserRepo)
	container.Notification = NewNotificationService(repos.NotificationRepo, repos.UserRepo)

	journalRepo := repos.JournalRepo.(portsrepo.JournalRepositoryWithTx)
	container.Journal = NewJournalService(journalRepo, repos.AccountRepo, repos.CurrencyRepo)

	approvalRepo := repos.ApprovalRepo.(portsrepo.ApprovalRepositoryWithTx)
	container.Approval = NewApprovalService(approvalRepo, repos.UserRepo, container.Notification)

	container.Purchase = NewPurchaseService(repos.PurchaseRepo, repos.CurrencyRepo, container.Approval)

	// The approval pipeline reports purchase outcomes back through the
	// purchase service; the link is attached after both exist.
	container.Approval.(interface {
		AttachPurchaseSync(portssvc.PurchaseApprovalSyncSvc)
	}).AttachPurchaseSync(container.Purchase)

	container.Token = NewTokenService(cfg)
	container.GoogleOAuth = NewGoogleOAuthHandlerService(cfg)

	return container
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.AccountSvcFacade      = (*accountService)(nil)
	_ portssvc.ApprovalSvcFacade     = (*approvalService)(nil)
	_ portssvc.JournalSvcFacade      = (*journalService)(nil)
	_ portssvc.PurchaseSvcFacade     = (*purchaseService)(nil)
	_ portssvc.NotificationSvcFacade = (*notificationService)(nil)
)
